package libruntime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-mirgen/pkg/imports"
	"github.com/goliatone/go-mirgen/pkg/registry"
)

func testProfile(id string) *ManifestProfile {
	return &ManifestProfile{
		Library: Descriptor{LibraryID: id, PackageName: id + "-ui", Version: "1.0.0"},
	}
}

func testModule() Module {
	return Module{
		"Button": registry.Element{Kind: registry.ElementComponent, Name: "Button"},
		"Card":   func() {},
		"tokens": map[string]string{"primary": "#000"},
	}
}

// gatedFetcher counts calls and blocks until release is closed.
type gatedFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	module  Module
	err     error
}

func (f *gatedFetcher) Fetch(ctx context.Context, desc Descriptor) (Module, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.module, nil
}

type stateRecorder struct {
	mu     sync.Mutex
	states []LibraryState
}

func (r *stateRecorder) observe(state LibraryState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *stateRecorder) statuses(id string) []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Status
	for _, state := range r.states {
		if state.LibraryID == id {
			out = append(out, state.Status)
		}
	}
	return out
}

func TestEnsure_LoadsAndRegistersComponents(t *testing.T) {
	reg := registry.New()
	rt := New(reg,
		WithProfiles(testProfile("acme")),
		WithFetcher(StaticFetcher{"acme": testModule()}),
		WithImportOptions(imports.Options{Strategy: imports.StrategyPackageRegistry}),
	)

	diags := rt.Ensure(context.Background(), "acme")
	require.Empty(t, diags)

	state := rt.State("acme")
	assert.Equal(t, StatusSuccess, state.Status)
	assert.NotEmpty(t, state.AttemptID)

	button := reg.Resolve("acme:Button")
	require.False(t, button.Missing)
	assert.Equal(t, "Button", button.Implementation.Name)
	assert.Equal(t, "acme-ui", button.Implementation.Import)
	assert.False(t, reg.Has("acme:tokens"))

	comps := rt.Components("acme")
	require.Len(t, comps, 2)
	assert.Equal(t, "acme:Button", comps[0].ItemID)
	assert.Equal(t, "acme", comps[0].LibraryID)

	assert.Nil(t, rt.Ensure(context.Background(), "acme"), "loaded library returns without work")
}

// waitingContext reports when a caller starts waiting on it. Ensure only
// reaches Done once it is parked on an attempt.
type waitingContext struct {
	context.Context
	once    sync.Once
	waiting chan struct{}
}

func newWaitingContext() *waitingContext {
	return &waitingContext{Context: context.Background(), waiting: make(chan struct{})}
}

func (c *waitingContext) Done() <-chan struct{} {
	c.once.Do(func() { close(c.waiting) })
	return c.Context.Done()
}

func TestEnsure_ConcurrentCallsShareOneLoad(t *testing.T) {
	fetcher := &gatedFetcher{release: make(chan struct{}), module: testModule()}
	rt := New(registry.New(), WithProfiles(testProfile("acme")), WithFetcher(fetcher))

	var wg sync.WaitGroup
	results := make([][]Diagnostic, 2)
	contexts := make([]*waitingContext, len(results))
	for i := range results {
		contexts[i] = newWaitingContext()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = rt.Ensure(contexts[i], "acme")
		}(i)
	}

	for i, ctx := range contexts {
		select {
		case <-ctx.waiting:
		case <-time.After(time.Second):
			t.Fatalf("caller %d never joined the load", i)
		}
	}
	assert.Equal(t, StatusLoading, rt.State("acme").Status)
	assert.Equal(t, []string{"acme"}, rt.Pending())

	close(fetcher.release)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Empty(t, results[0])
	assert.Empty(t, results[1])
	assert.Equal(t, StatusSuccess, rt.State("acme").Status)
}

func TestEnsure_UnknownLibraryFailsFast(t *testing.T) {
	rec := &stateRecorder{}
	fetcher := &gatedFetcher{module: testModule()}
	rt := New(registry.New(), WithFetcher(fetcher), WithObserver(rec.observe))

	diags := rt.Ensure(context.Background(), "unknown")
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnknownLibrary, diags[0].Code)
	assert.Equal(t, LevelError, diags[0].Level)
	assert.Equal(t, StageResolve, diags[0].Stage)
	assert.Equal(t, "unknown", diags[0].LibraryID)

	assert.Equal(t, StatusError, rt.State("unknown").Status)
	assert.Equal(t, []Status{StatusError}, rec.statuses("unknown"), "must never enter loading")
	assert.Zero(t, fetcher.calls.Load())
	assert.Empty(t, rt.Libraries())
}

func TestEnsureMany_IsolatesFailures(t *testing.T) {
	fetcher := FetcherFunc(func(ctx context.Context, desc Descriptor) (Module, error) {
		if desc.LibraryID == "b" {
			return nil, errors.New("boom")
		}
		return testModule(), nil
	})
	reg := registry.New()
	rt := New(reg, WithProfiles(testProfile("a"), testProfile("b")), WithFetcher(fetcher))

	results := rt.EnsureMany(context.Background(), []string{"a", "b", "a"})

	require.Len(t, results, 2)
	assert.Empty(t, results["a"])
	require.Len(t, results["b"], 1)
	assert.Equal(t, CodeLoadFailed, results["b"][0].Code)
	assert.Equal(t, StageLoad, results["b"][0].Stage)

	assert.Equal(t, StatusSuccess, rt.State("a").Status)
	assert.Equal(t, StatusError, rt.State("b").Status)
	assert.True(t, reg.Has("a:Button"))
	assert.False(t, reg.Has("b:Button"))
}

func TestEnsure_RetriesAfterError(t *testing.T) {
	var calls atomic.Int32
	fetcher := FetcherFunc(func(ctx context.Context, desc Descriptor) (Module, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("temporarily unavailable")
		}
		return testModule(), nil
	})
	rec := &stateRecorder{}
	rt := New(registry.New(), WithProfiles(testProfile("acme")), WithFetcher(fetcher), WithObserver(rec.observe))

	first := rt.Ensure(context.Background(), "acme")
	require.True(t, HasErrors(first))
	firstAttempt := rt.State("acme").AttemptID

	second := rt.Ensure(context.Background(), "acme")
	assert.Empty(t, second)
	state := rt.State("acme")
	assert.Equal(t, StatusSuccess, state.Status)
	assert.NotEqual(t, firstAttempt, state.AttemptID)
	assert.Empty(t, state.Diagnostics, "diagnostics belong to the latest attempt")

	assert.Equal(t, []Status{StatusLoading, StatusError, StatusLoading, StatusSuccess}, rec.statuses("acme"))
}

func TestEnsure_ConvertAndDescriptorFailures(t *testing.T) {
	rt := New(registry.New(),
		WithProfiles(panicProfile{id: "broken"}, &ManifestProfile{Library: Descriptor{LibraryID: "nameless"}}),
		WithFetcher(StaticFetcher{"broken": testModule(), "nameless": testModule()}),
	)

	broken := rt.Ensure(context.Background(), "broken")
	require.Len(t, broken, 1)
	assert.Equal(t, CodeConvertFailed, broken[0].Code)
	assert.Equal(t, StageConvert, broken[0].Stage)

	nameless := rt.Ensure(context.Background(), "nameless")
	require.Len(t, nameless, 1)
	assert.Equal(t, CodeInvalidDescriptor, nameless[0].Code)
}

func TestEnsure_EmptyLibraryWarns(t *testing.T) {
	rt := New(registry.New(),
		WithProfiles(testProfile("empty")),
		WithFetcher(StaticFetcher{"empty": Module{"version": "1.0.0"}}),
	)
	diags := rt.Ensure(context.Background(), "empty")
	require.Len(t, diags, 1)
	assert.Equal(t, CodeNoComponents, diags[0].Code)
	assert.Equal(t, LevelWarning, diags[0].Level)
	assert.Equal(t, StatusSuccess, rt.State("empty").Status)
}

func TestEnsure_CallerContextOnlyBoundsWaiting(t *testing.T) {
	fetcher := &gatedFetcher{release: make(chan struct{}), module: testModule()}
	rt := New(registry.New(), WithProfiles(testProfile("acme")), WithFetcher(fetcher))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	diags := rt.Ensure(ctx, "acme")
	require.Len(t, diags, 1)
	assert.Equal(t, CodeWaitInterrupted, diags[0].Code)
	assert.Equal(t, StatusLoading, rt.State("acme").Status)

	close(fetcher.release)
	assert.Empty(t, rt.Ensure(context.Background(), "acme"))
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestUnregister_RemovesComponents(t *testing.T) {
	reg := registry.New()
	rt := New(reg, WithProfiles(testProfile("acme")), WithFetcher(StaticFetcher{"acme": testModule()}))
	require.Empty(t, rt.Ensure(context.Background(), "acme"))

	assert.True(t, rt.Unregister("acme"))
	assert.False(t, reg.Has("acme:Button"))
	assert.Empty(t, rt.Components("acme"))
	assert.Equal(t, StatusIdle, rt.State("acme").Status)
	assert.False(t, rt.Unregister("acme"))
}

type fakeEnricher struct {
	options map[string][]string
}

func (f fakeEnricher) EnrichPropOptions(ctx context.Context, desc Descriptor, components []CanonicalComponent) []CanonicalComponent {
	for idx := range components {
		components[idx].PropOptions = f.options
	}
	return components
}

func TestEnsure_BackgroundEnrichmentReRegisters(t *testing.T) {
	reg := registry.New()
	rt := New(reg,
		WithProfiles(testProfile("acme")),
		WithFetcher(StaticFetcher{"acme": testModule()}),
		WithEnricher(fakeEnricher{options: map[string][]string{"variant": {"solid", "ghost"}}}),
	)
	require.Empty(t, rt.Ensure(context.Background(), "acme"))
	rt.Wait()

	comps := rt.Components("acme")
	require.Len(t, comps, 2)
	assert.Equal(t, []string{"solid", "ghost"}, comps[0].PropOptions["variant"])
	assert.Equal(t, []string{"solid", "ghost"}, reg.Resolve("acme:Button").Implementation.PropOptions["variant"])
}

func TestGroups_FromProfile(t *testing.T) {
	profile := testProfile("acme")
	profile.Palette = []Group{{ID: "actions", Label: "Actions", Components: []string{"Button"}}}
	rt := New(registry.New(), WithProfiles(profile))

	groups := rt.Groups("acme")
	require.Len(t, groups, 1)
	groups[0].Components[0] = "mutated"
	assert.Equal(t, "Button", rt.Groups("acme")[0].Components[0])
	assert.Nil(t, rt.Groups("missing"))
}

type panicProfile struct {
	id string
}

func (p panicProfile) Descriptor() Descriptor {
	return Descriptor{LibraryID: p.id, PackageName: p.id}
}

func (p panicProfile) ToCanonicalComponents(Module) ([]CanonicalComponent, error) {
	panic("unexpected module shape")
}

func (p panicProfile) ToGroups() []Group {
	return nil
}
