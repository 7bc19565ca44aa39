package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// ErrEmptyType is returned when registering an entry without a type key.
var ErrEmptyType = errors.New("registry: type is required")

// Registry maps node types to implementations. Built-in entries are fixed at
// construction; the external partition is written through Register,
// RegisterEntries and Unregister only. Entries are copied on the way in and
// out so readers never observe a partially written adapter.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Entry
	external map[string]Entry
}

// Option customises registry construction.
type Option func(*config)

type config struct {
	builtins   []Entry
	noDefaults bool
}

// WithBuiltins adds (or replaces) built-in entries at construction time.
func WithBuiltins(entries ...Entry) Option {
	return func(cfg *config) {
		cfg.builtins = append(cfg.builtins, entries...)
	}
}

// WithoutDefaultCatalogue skips the stock built-in catalogue.
func WithoutDefaultCatalogue() Option {
	return func(cfg *config) {
		cfg.noDefaults = true
	}
}

// New constructs a registry seeded with the built-in catalogue.
func New(options ...Option) *Registry {
	cfg := config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reg := &Registry{
		builtins: make(map[string]Entry),
		external: make(map[string]Entry),
	}
	if !cfg.noDefaults {
		for _, entry := range BuiltinCatalogue() {
			reg.builtins[entry.Type] = entry.clone()
		}
	}
	for _, entry := range cfg.builtins {
		key := normalizeType(entry.Type)
		if key == "" {
			continue
		}
		entry.Type = key
		entry.External = false
		reg.builtins[key] = entry.clone()
	}
	return reg
}

// Resolve looks up typ in the external partition, then the built-ins. Unknown
// types produce a Missing resolution rather than an error.
func (r *Registry) Resolve(typ string) Resolution {
	key := normalizeType(typ)
	if r == nil || key == "" {
		return Resolution{Entry: Entry{Type: typ}, Missing: true}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.external[key]; ok {
		return Resolution{Entry: entry.clone()}
	}
	if entry, ok := r.builtins[key]; ok {
		return Resolution{Entry: entry.clone()}
	}
	return Resolution{Entry: Entry{Type: key}, Missing: true}
}

// Register inserts or replaces an external entry.
func (r *Registry) Register(typ string, impl Implementation, adapter Adapter) error {
	return r.RegisterEntries([]Entry{{Type: typ, Implementation: impl, Adapter: adapter}})
}

// RegisterEntries inserts a batch of external entries under a single write
// lock, so a library's components become visible together. An invalid entry
// rejects the whole batch.
func (r *Registry) RegisterEntries(entries []Entry) error {
	if r == nil {
		return errors.New("registry: registry is nil")
	}
	prepared := make([]Entry, 0, len(entries))
	for idx, entry := range entries {
		key := normalizeType(entry.Type)
		if key == "" {
			return fmt.Errorf("%w (entry %d)", ErrEmptyType, idx)
		}
		entry.Type = key
		entry.External = true
		prepared = append(prepared, entry.clone())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range prepared {
		r.external[entry.Type] = entry
	}
	return nil
}

// Unregister removes an external entry. Built-ins cannot be removed.
func (r *Registry) Unregister(typ string) bool {
	return r.UnregisterEntries([]string{typ}) == 1
}

// UnregisterEntries removes several external entries atomically and returns
// how many existed.
func (r *Registry) UnregisterEntries(types []string) int {
	if r == nil || len(types) == 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, typ := range types {
		key := normalizeType(typ)
		if _, ok := r.external[key]; ok {
			delete(r.external, key)
			removed++
		}
	}
	return removed
}

// Has reports whether typ resolves to a registered entry.
func (r *Registry) Has(typ string) bool {
	return !r.Resolve(typ).Missing
}

// Types returns every resolvable type, sorted.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.builtins)+len(r.external))
	for key := range r.builtins {
		seen[key] = struct{}{}
	}
	for key := range r.external {
		seen[key] = struct{}{}
	}
	types := make([]string, 0, len(seen))
	for key := range seen {
		types = append(types, key)
	}
	sort.Strings(types)
	return types
}

// ExternalTypes returns the externally registered types, sorted.
func (r *Registry) ExternalTypes() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.external))
	for key := range r.external {
		types = append(types, key)
	}
	sort.Strings(types)
	return types
}

// Entries returns a copy of every resolvable entry, sorted by type. External
// entries shadow built-ins of the same type.
func (r *Registry) Entries() []Entry {
	types := r.Types()
	entries := make([]Entry, 0, len(types))
	for _, typ := range types {
		entries = append(entries, r.Resolve(typ).Entry)
	}
	return entries
}

// DiscoverOptions configures Discover.
type DiscoverOptions struct {
	// Prefix is prepended to export names to form registry types
	// ("acme:" + "Button").
	Prefix string
	// Import is recorded on each discovered implementation.
	Import string
	// Adapter is the default adapter for discovered entries. The zero value
	// accepts children.
	Adapter *Adapter
	// Overrides replace the adapter for specific export names.
	Overrides map[string]Adapter
}

// Discover scans ns for component-like exports and registers each by name.
// Only exported-style names (leading upper-case letter) are considered, and
// plain data sharing that convention is skipped. Override adapters win over
// the discovery default. The registered types are returned sorted.
func (r *Registry) Discover(ns Namespace, opts DiscoverOptions) ([]string, error) {
	names := make([]string, 0, len(ns))
	for name := range ns {
		names = append(names, name)
	}
	sort.Strings(names)

	defaultAdapter := Adapter{AcceptsChildren: true}
	if opts.Adapter != nil {
		defaultAdapter = *opts.Adapter
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		value := ns[name]
		if !isExportName(name) || !IsComponentLike(value) {
			continue
		}
		adapter := defaultAdapter
		if override, ok := opts.Overrides[name]; ok {
			adapter = override
		}
		entries = append(entries, Entry{
			Type: opts.Prefix + name,
			Implementation: Implementation{
				Name:   name,
				Import: opts.Import,
				Handle: value,
			},
			Adapter: adapter,
		})
	}
	if err := r.RegisterEntries(entries); err != nil {
		return nil, err
	}

	types := make([]string, 0, len(entries))
	for _, entry := range entries {
		types = append(types, normalizeType(entry.Type))
	}
	return types, nil
}

func isExportName(name string) bool {
	first, _ := utf8.DecodeRuneInString(name)
	return first != utf8.RuneError && unicode.IsUpper(first)
}

func normalizeType(typ string) string {
	return strings.TrimSpace(typ)
}
