package codegen

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-mirgen/pkg/codegen/ir"
)

// Backend emits target-framework source from a complete IR module.
type Backend interface {
	Name() string
	ContentType() string
	Emit(ctx context.Context, module *ir.Module) ([]byte, error)
}

// BackendRegistry stores backends by name.
type BackendRegistry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewBackendRegistry creates a registry holding backends.
func NewBackendRegistry(backends ...Backend) (*BackendRegistry, error) {
	reg := &BackendRegistry{backends: make(map[string]Backend)}
	for _, backend := range backends {
		if err := reg.Register(backend); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds a backend by its Name(). Duplicate names return an error.
func (r *BackendRegistry) Register(backend Backend) error {
	if backend == nil {
		return fmt.Errorf("codegen: backend is required")
	}
	name := normalizeTarget(backend.Name())
	if name == "" {
		return fmt.Errorf("codegen: backend name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("codegen: backend %q already registered", name)
	}
	r.backends[name] = backend
	return nil
}

// MustRegister panics on registration failure.
func (r *BackendRegistry) MustRegister(backend Backend) {
	if err := r.Register(backend); err != nil {
		panic(err)
	}
}

// Get retrieves a backend by target name.
func (r *BackendRegistry) Get(target string) (Backend, error) {
	if r == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, target)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, ok := r.backends[normalizeTarget(target)]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, target)
	}
	return backend, nil
}

// List returns the sorted backend names.
func (r *BackendRegistry) List() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a backend is registered for target.
func (r *BackendRegistry) Has(target string) bool {
	_, err := r.Get(target)
	return err == nil
}

func normalizeTarget(target string) string {
	return strings.ToLower(strings.TrimSpace(target))
}
