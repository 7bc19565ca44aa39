package react

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
	Name = "react"

	templateName = "templates/module.jsx"
	signature    = "{ params = {}, data = {}, actions = {} }"
)

// Option customises the backend.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
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

// Backend emits a React function component module (JSX).
type Backend struct {
	templates rendertemplate.TemplateRenderer
}

var _ codegen.Backend = (*Backend)(nil)

// New constructs the React backend.
func New(options ...Option) (*Backend, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		if _, err := fs.Stat(cfg.templateFS, templateName+".tpl"); err != nil {
			return nil, fmt.Errorf("react backend: template %s: %w", templateName, err)
		}
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS), gotemplate.WithExtension(".tpl"))
		if err != nil {
			return nil, fmt.Errorf("react backend: configure template renderer: %w", err)
		}
		renderer = engine
	}
	return &Backend{templates: renderer}, nil
}

// Name implements codegen.Backend.
func (b *Backend) Name() string {
	return Name
}

// ContentType implements codegen.Backend.
func (b *Backend) ContentType() string {
	return "text/jsx; charset=utf-8"
}

// Emit implements codegen.Backend.
func (b *Backend) Emit(ctx context.Context, module *ir.Module) ([]byte, error) {
	if module == nil {
		return nil, fmt.Errorf("react backend: module is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := &printer{}
	if err := p.node(module.Root, 2); err != nil {
		return nil, err
	}

	usesState := len(module.State) > 0 || p.bindings || module.UsesState
	hooks := p.hooks()
	data := map[string]any{
		"version":      module.Version,
		"component":    componentName(module),
		"signature":    signature,
		"imports":      importLines(module, usesState, len(hooks) > 0),
		"dependencies": dependencyLines(module),
		"debounce":     len(p.debounced) > 0,
		"hooks":        hooks,
		"state":        "",
		"body":         strings.TrimRight(p.b.String(), "\n"),
	}
	if usesState {
		data["state"] = initialState(module.State)
	}

	rendered, err := b.templates.RenderTemplate(templateName, data)
	if err != nil {
		return nil, fmt.Errorf("react backend: render template: %w", err)
	}
	return []byte(rendered), nil
}

func importLines(module *ir.Module, usesState, usesHandlers bool) []string {
	var lines []string
	var react []string
	if usesHandlers {
		react = append(react, "useMemo", "useRef")
	}
	if usesState {
		react = append(react, "useState")
	}
	if len(react) > 0 {
		lines = append(lines, "import { "+strings.Join(react, ", ")+` } from "react";`)
	}
	for _, imp := range module.Imports {
		names := make([]string, 0, len(imp.Names))
		for _, name := range imp.Names {
			if local := imp.Local(name); local != name {
				name += " as " + local
			}
			names = append(names, name)
		}
		lines = append(lines, "import { "+strings.Join(names, ", ")+" } from "+ir.Quote(imp.Source)+";")
	}
	return lines
}

// componentName keeps the exported function from shadowing an import or a
// scaffolding binding.
func componentName(module *ir.Module) string {
	name := ComponentName(module.Name)
	taken := make(map[string]struct{}, len(ir.ReservedNames))
	for _, reserved := range ir.ReservedNames {
		taken[reserved] = struct{}{}
	}
	for _, imp := range module.Imports {
		for _, imported := range imp.Names {
			taken[imp.Local(imported)] = struct{}{}
		}
	}
	for {
		if _, clash := taken[name]; !clash {
			return name
		}
		name += "View"
	}
}

func dependencyLines(module *ir.Module) []string {
	lines := make([]string, 0, len(module.Dependencies))
	for _, dep := range module.Dependencies {
		line := dep.Package
		if dep.Version != "" {
			line += "@" + dep.Version
		}
		lines = append(lines, line)
	}
	return lines
}

func initialState(decls []ir.StateDecl) string {
	if len(decls) == 0 {
		return "{}"
	}
	entries := make([]string, 0, len(decls))
	for _, decl := range decls {
		entries = append(entries, decl.Name+": "+decl.Initial.Code)
	}
	return "{ " + strings.Join(entries, ", ") + " }"
}
