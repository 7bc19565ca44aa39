// Package html emits static HTML markup from a lowered module. Values known
// at generation time (literals and initial state) are rendered in place;
// runtime reads are kept as data-mir-* markers for a hydrating script.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-mirgen/pkg/codegen"
	"github.com/goliatone/go-mirgen/pkg/codegen/ir"
	rendertemplate "github.com/goliatone/go-mirgen/pkg/render/template"
	"github.com/goliatone/go-mirgen/pkg/render/template/gotemplate"
)

const (
	// Name is the backend target name.
	Name = "html"

	templateName = "templates/page.html"
)

// Option customises the backend.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	fragment         bool
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = files
		}
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path != "" {
			cfg.templateFS = os.DirFS(path)
		}
	}
}

// WithTemplateRenderer injects a custom template renderer.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithFragment emits only the root markup, without the page shell.
func WithFragment() Option {
	return func(cfg *config) {
		cfg.fragment = true
	}
}

// Backend emits static markup.
type Backend struct {
	templates rendertemplate.TemplateRenderer
	fragment  bool
}

var _ codegen.Backend = (*Backend)(nil)

// New constructs the HTML backend.
func New(options ...Option) (*Backend, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	backend := &Backend{templates: cfg.templateRenderer, fragment: cfg.fragment}
	if backend.templates == nil && !cfg.fragment {
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS), gotemplate.WithExtension(".tpl"))
		if err != nil {
			return nil, fmt.Errorf("html backend: configure template renderer: %w", err)
		}
		backend.templates = engine
	}
	return backend, nil
}

func (b *Backend) Name() string {
	return Name
}

func (b *Backend) ContentType() string {
	return "text/html; charset=utf-8"
}

// Emit implements codegen.Backend.
func (b *Backend) Emit(ctx context.Context, module *ir.Module) ([]byte, error) {
	if module == nil {
		return nil, fmt.Errorf("html backend: module is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := newPrinter(module)
	if err := p.node(module.Root, 0, true); err != nil {
		return nil, err
	}
	if b.fragment {
		return []byte(p.b.String()), nil
	}

	deps := make([]string, 0, len(module.Dependencies))
	for _, dep := range module.Dependencies {
		line := dep.Package
		if dep.Version != "" {
			line += "@" + dep.Version
		}
		deps = append(deps, line)
	}
	rendered, err := b.templates.RenderTemplate(templateName, map[string]any{
		"version":      module.Version,
		"title":        module.Name,
		"dependencies": deps,
		"body":         strings.TrimRight(p.b.String(), "\n"),
	})
	if err != nil {
		return nil, fmt.Errorf("html backend: render template: %w", err)
	}
	return []byte(rendered), nil
}
