package codegen

import (
	"log/slog"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-mirgen/pkg/imports"
)

// DefaultModuleName names generated modules when no name is configured.
const DefaultModuleName = "mir view"

// Option customises a Generator.
type Option func(*config)

type config struct {
	backends    []Backend
	registry    *BackendRegistry
	imports     imports.Options
	theme       *theme.RendererConfig
	name        string
	strictState bool
	logger      *slog.Logger
}

// WithBackends registers backends on the generator's own backend registry.
func WithBackends(backends ...Backend) Option {
	return func(cfg *config) {
		cfg.backends = append(cfg.backends, backends...)
	}
}

// WithBackendRegistry shares an existing backend registry.
func WithBackendRegistry(reg *BackendRegistry) Option {
	return func(cfg *config) {
		if reg != nil {
			cfg.registry = reg
		}
	}
}

// WithImportOptions controls how component imports are resolved.
func WithImportOptions(opts imports.Options) Option {
	return func(cfg *config) {
		cfg.imports = opts
	}
}

// WithTheme resolves "$token" style values and exposes theme CSS variables
// on the module.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithModuleName sets the generated module name.
func WithModuleName(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.name = trimmed
		}
	}
}

// WithStrictState rejects state references that have no declaration.
func WithStrictState() Option {
	return func(cfg *config) {
		cfg.strictState = true
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
