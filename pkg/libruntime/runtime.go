package libruntime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-mirgen/pkg/imports"
	"github.com/goliatone/go-mirgen/pkg/registry"
)

// Observer is notified after every state transition.
type Observer func(state LibraryState)

// Option customises a Runtime.
type Option func(*config)

type config struct {
	profiles  []Profile
	fetcher   Fetcher
	enricher  PropEnricher
	logger    *slog.Logger
	observer  Observer
	importOpt imports.Options
	newID     func() string
}

// WithProfiles makes libraries known to the runtime.
func WithProfiles(profiles ...Profile) Option {
	return func(cfg *config) {
		cfg.profiles = append(cfg.profiles, profiles...)
	}
}

// WithFetcher sets the module fetcher.
func WithFetcher(fetcher Fetcher) Option {
	return func(cfg *config) {
		cfg.fetcher = fetcher
	}
}

// WithEnricher enables background prop-option enrichment after a load.
func WithEnricher(enricher PropEnricher) Option {
	return func(cfg *config) {
		cfg.enricher = enricher
	}
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithObserver registers a state transition hook. It is called without
// runtime locks held.
func WithObserver(observer Observer) Option {
	return func(cfg *config) {
		cfg.observer = observer
	}
}

// WithImportOptions controls how component import specifiers are recorded.
func WithImportOptions(opts imports.Options) Option {
	return func(cfg *config) {
		cfg.importOpt = opts
	}
}

// WithAttemptIDs overrides the attempt identifier generator.
func WithAttemptIDs(fn func() string) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.newID = fn
		}
	}
}

type attempt struct {
	id    string
	done  chan struct{}
	diags []Diagnostic
}

type library struct {
	profile    Profile
	state      LibraryState
	components []CanonicalComponent
	inflight   *attempt
}

// Runtime owns per-library load state and writes the registry's external
// partition.
type Runtime struct {
	registry *registry.Registry
	cfg      config

	mu        sync.Mutex
	libraries map[string]*library
	enriching sync.WaitGroup
}

// New constructs a runtime writing into reg.
func New(reg *registry.Registry, options ...Option) *Runtime {
	cfg := config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:  newAttemptID,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if reg == nil {
		reg = registry.New()
	}

	rt := &Runtime{
		registry:  reg,
		cfg:       cfg,
		libraries: make(map[string]*library),
	}
	for _, profile := range cfg.profiles {
		if profile == nil {
			continue
		}
		id := strings.TrimSpace(profile.Descriptor().LibraryID)
		if id == "" {
			continue
		}
		rt.libraries[id] = &library{
			profile: profile,
			state:   LibraryState{LibraryID: id, Status: StatusIdle},
		}
	}
	return rt
}

// Registry returns the registry the runtime writes to.
func (r *Runtime) Registry() *registry.Registry {
	return r.registry
}

// Libraries returns the known library ids, sorted.
func (r *Runtime) Libraries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.libraries))
	for id, lib := range r.libraries {
		if lib.profile != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Ensure loads libraryID if it is not loaded yet and returns the diagnostics
// of the attempt it observed. A successful library returns nil without work.
// ctx bounds only how long this caller waits; the load itself is never
// cancelled.
func (r *Runtime) Ensure(ctx context.Context, libraryID string) []Diagnostic {
	id := strings.TrimSpace(libraryID)

	r.mu.Lock()
	lib, ok := r.libraries[id]
	if !ok || lib.profile == nil {
		diag := Diagnostic{
			Code:      CodeUnknownLibrary,
			Level:     LevelError,
			Stage:     StageResolve,
			Message:   fmt.Sprintf("library %q is not registered", id),
			LibraryID: id,
		}
		if !ok {
			lib = &library{}
			r.libraries[id] = lib
		}
		state := LibraryState{LibraryID: id, Status: StatusError, Diagnostics: []Diagnostic{diag}}
		lib.state = state
		r.mu.Unlock()
		r.cfg.logger.Warn("library unknown", "library", id, "code", diag.Code)
		r.notify(state)
		return []Diagnostic{diag}
	}

	if lib.state.Status == StatusSuccess {
		r.mu.Unlock()
		return nil
	}

	current := lib.inflight
	if current == nil {
		current = &attempt{id: r.cfg.newID(), done: make(chan struct{})}
		lib.inflight = current
		lib.state = LibraryState{LibraryID: id, Status: StatusLoading, AttemptID: current.id}
		state := lib.state
		r.mu.Unlock()

		r.cfg.logger.Debug("library loading", "library", id, "attempt", current.id)
		r.notify(state)
		go r.load(context.WithoutCancel(ctx), id, lib.profile, current)
	} else {
		r.mu.Unlock()
	}

	select {
	case <-current.done:
		return cloneDiagnostics(current.diags)
	case <-ctx.Done():
		return []Diagnostic{{
			Code:      CodeWaitInterrupted,
			Level:     LevelWarning,
			Stage:     StageLoad,
			Message:   fmt.Sprintf("stopped waiting for library %q: %v", id, ctx.Err()),
			LibraryID: id,
		}}
	}
}

// EnsureMany runs Ensure for every id concurrently. Each library's outcome is
// independent of the others.
func (r *Runtime) EnsureMany(ctx context.Context, libraryIDs []string) map[string][]Diagnostic {
	results := make(map[string][]Diagnostic, len(libraryIDs))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, id := range libraryIDs {
		id := strings.TrimSpace(id)
		mu.Lock()
		if _, seen := results[id]; seen {
			mu.Unlock()
			continue
		}
		results[id] = nil
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			diags := r.Ensure(ctx, id)
			mu.Lock()
			results[id] = diags
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func (r *Runtime) load(ctx context.Context, id string, profile Profile, current *attempt) {
	components, diags := r.runPipeline(ctx, id, profile)

	status := StatusSuccess
	if HasErrors(diags) {
		status = StatusError
		components = nil
	}

	r.mu.Lock()
	lib := r.libraries[id]
	lib.components = components
	lib.inflight = nil
	lib.state = LibraryState{
		LibraryID:   id,
		Status:      status,
		AttemptID:   current.id,
		Diagnostics: cloneDiagnostics(diags),
	}
	state := lib.state
	current.diags = diags
	r.mu.Unlock()

	close(current.done)
	if status == StatusSuccess {
		r.cfg.logger.Info("library loaded", "library", id, "attempt", current.id, "components", len(components))
	} else {
		r.cfg.logger.Warn("library failed", "library", id, "attempt", current.id, "code", firstErrorCode(diags))
	}
	r.notify(state)

	if status == StatusSuccess && r.cfg.enricher != nil && len(components) > 0 {
		r.enriching.Add(1)
		go r.enrich(ctx, id, profile.Descriptor(), current.id, components)
	}
}

func (r *Runtime) runPipeline(ctx context.Context, id string, profile Profile) (components []CanonicalComponent, diags []Diagnostic) {
	fail := func(code string, stage Stage, format string, args ...any) []Diagnostic {
		return append(diags, Diagnostic{
			Code:      code,
			Level:     LevelError,
			Stage:     stage,
			Message:   fmt.Sprintf(format, args...),
			LibraryID: id,
		})
	}

	desc := profile.Descriptor()
	if strings.TrimSpace(desc.PackageName) == "" {
		return nil, fail(CodeInvalidDescriptor, StageResolve, "library %q declares no package name", id)
	}
	if r.cfg.fetcher == nil {
		return nil, fail(CodeLoadFailed, StageLoad, "no fetcher configured for library %q", id)
	}

	module, err := r.fetch(ctx, desc)
	if err != nil {
		return nil, fail(CodeLoadFailed, StageLoad, "load %s: %v", desc.PackageName, err)
	}

	components, err = convert(profile, module)
	if err != nil {
		return nil, fail(CodeConvertFailed, StageConvert, "convert %s: %v", desc.PackageName, err)
	}
	if len(components) == 0 {
		diags = append(diags, Diagnostic{
			Code:      CodeNoComponents,
			Level:     LevelWarning,
			Stage:     StageConvert,
			Message:   fmt.Sprintf("library %q exposes no components", id),
			LibraryID: id,
		})
	}

	importSource := imports.Resolve(desc.PackageName, r.importOptions(desc)).ImportSource
	entries := make([]registry.Entry, 0, len(components))
	for idx := range components {
		comp := &components[idx]
		comp.LibraryID = id
		if comp.ItemID == "" {
			comp.ItemID = ItemID(id, comp.ComponentName)
		}
		if comp.Import == "" {
			comp.Import = importSource
		}
		entries = append(entries, comp.entry())
	}
	if err := r.registry.RegisterEntries(entries); err != nil {
		return nil, fail(CodeRegisterFailed, StageConvert, "register %s: %v", desc.PackageName, err)
	}
	return components, diags
}

func (r *Runtime) fetch(ctx context.Context, desc Descriptor) (module Module, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("fetcher panic: %v", rec)
		}
	}()
	return r.cfg.fetcher.Fetch(ctx, desc)
}

func convert(profile Profile, module Module) (components []CanonicalComponent, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("converter panic: %v", rec)
		}
	}()
	return profile.ToCanonicalComponents(module)
}

func (r *Runtime) importOptions(desc Descriptor) imports.Options {
	opts := r.cfg.importOpt
	if desc.Source != "" {
		opts.Strategy = desc.Source
	}
	if desc.Version != "" {
		opts.Version = desc.Version
	}
	return opts
}

// enrich runs in the background. Results are applied only if the library is
// still on the attempt that produced the components.
func (r *Runtime) enrich(ctx context.Context, id string, desc Descriptor, attemptID string, components []CanonicalComponent) {
	defer r.enriching.Done()

	input := make([]CanonicalComponent, len(components))
	for idx, comp := range components {
		input[idx] = comp.Clone()
	}
	enriched := r.cfg.enricher.EnrichPropOptions(ctx, desc, input)
	if len(enriched) != len(components) {
		r.cfg.logger.Debug("enrichment discarded", "library", id, "attempt", attemptID)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	lib := r.libraries[id]
	if lib == nil || lib.state.Status != StatusSuccess || lib.state.AttemptID != attemptID {
		return
	}
	entries := make([]registry.Entry, 0, len(enriched))
	for _, comp := range enriched {
		entries = append(entries, comp.entry())
	}
	if err := r.registry.RegisterEntries(entries); err != nil {
		r.cfg.logger.Warn("enrichment register failed", "library", id, "attempt", attemptID, "error", err)
		return
	}
	lib.components = enriched
	r.cfg.logger.Debug("library enriched", "library", id, "attempt", attemptID)
}

// Wait blocks until background enrichment has finished.
func (r *Runtime) Wait() {
	r.enriching.Wait()
}

// State returns the current state of libraryID. Libraries never referenced
// are idle.
func (r *Runtime) State(libraryID string) LibraryState {
	id := strings.TrimSpace(libraryID)
	r.mu.Lock()
	defer r.mu.Unlock()
	lib, ok := r.libraries[id]
	if !ok {
		return LibraryState{LibraryID: id, Status: StatusIdle}
	}
	return cloneState(lib.state)
}

// States returns a snapshot of every referenced library.
func (r *Runtime) States() map[string]LibraryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]LibraryState, len(r.libraries))
	for id, lib := range r.libraries {
		out[id] = cloneState(lib.state)
	}
	return out
}

// Components returns copies of the canonical components of a loaded library.
func (r *Runtime) Components(libraryID string) []CanonicalComponent {
	r.mu.Lock()
	defer r.mu.Unlock()
	lib, ok := r.libraries[strings.TrimSpace(libraryID)]
	if !ok {
		return nil
	}
	out := make([]CanonicalComponent, len(lib.components))
	for idx, comp := range lib.components {
		out[idx] = comp.Clone()
	}
	return out
}

// Groups returns the palette groups of a known library.
func (r *Runtime) Groups(libraryID string) []Group {
	r.mu.Lock()
	lib, ok := r.libraries[strings.TrimSpace(libraryID)]
	r.mu.Unlock()
	if !ok || lib.profile == nil {
		return nil
	}
	return lib.profile.ToGroups()
}

// Unregister removes a loaded library's components from the registry and
// resets it to idle. It returns false while a load is in flight or when the
// library is not loaded.
func (r *Runtime) Unregister(libraryID string) bool {
	id := strings.TrimSpace(libraryID)
	r.mu.Lock()
	lib, ok := r.libraries[id]
	if !ok || lib.inflight != nil || lib.state.Status != StatusSuccess {
		r.mu.Unlock()
		return false
	}
	types := make([]string, 0, len(lib.components))
	for _, comp := range lib.components {
		types = append(types, comp.ItemID)
	}
	r.registry.UnregisterEntries(types)
	lib.components = nil
	lib.state = LibraryState{LibraryID: id, Status: StatusIdle}
	state := lib.state
	r.mu.Unlock()

	r.cfg.logger.Info("library unregistered", "library", id, "components", len(types))
	r.notify(state)
	return true
}

// Pending returns the ids of libraries currently loading, sorted.
func (r *Runtime) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, lib := range r.libraries {
		if lib.state.Status == StatusLoading {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (r *Runtime) notify(state LibraryState) {
	if r.cfg.observer != nil {
		r.cfg.observer(cloneState(state))
	}
}

func cloneState(state LibraryState) LibraryState {
	state.Diagnostics = cloneDiagnostics(state.Diagnostics)
	return state
}

func cloneDiagnostics(diags []Diagnostic) []Diagnostic {
	if len(diags) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(diags))
	copy(out, diags)
	return out
}

func firstErrorCode(diags []Diagnostic) string {
	for _, diag := range diags {
		if diag.Level == LevelError {
			return diag.Code
		}
	}
	return ""
}

func newAttemptID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
