package libruntime

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-mirgen/pkg/imports"
	"github.com/goliatone/go-mirgen/pkg/registry"
)

// Descriptor identifies one external component library.
type Descriptor struct {
	LibraryID   string           `json:"libraryId" yaml:"libraryId"`
	PackageName string           `json:"packageName" yaml:"packageName"`
	Version     string           `json:"version,omitempty" yaml:"version,omitempty"`
	Source      imports.Strategy `json:"source,omitempty" yaml:"source,omitempty"`
	// EntryCandidates are module specifiers tried in order when loading.
	EntryCandidates []string `json:"entryCandidates,omitempty" yaml:"entryCandidates,omitempty"`
	// Declarations is a URL template for per-component type declarations.
	// {package}, {version} and {component} are substituted.
	Declarations string `json:"declarations,omitempty" yaml:"declarations,omitempty"`
}

// DeclarationURL expands the declarations template for component. It
// returns "" when the descriptor publishes no declarations.
func (d Descriptor) DeclarationURL(component string) string {
	tmpl := strings.TrimSpace(d.Declarations)
	if tmpl == "" {
		return ""
	}
	return strings.NewReplacer(
		"{package}", d.PackageName,
		"{version}", d.Version,
		"{component}", component,
	).Replace(tmpl)
}

// Module is a loaded library: its named exports.
type Module = registry.Namespace

// CanonicalComponent is the normalised description of one component
// contributed by an external library.
type CanonicalComponent struct {
	LibraryID     string
	ComponentName string
	// Path is the library-internal export path ("Button", "Forms.Input").
	Path string
	// RuntimeType is the opaque loaded implementation.
	RuntimeType any
	// ItemID is the palette and registry key, "<libraryId>:<componentName>".
	ItemID       string
	Import       string
	Adapter      registry.Adapter
	DefaultProps map[string]any
	BehaviorTags []string
	// PropOptions holds enumerated literal choices per prop. It may be empty
	// until enrichment completes.
	PropOptions map[string][]string
	Slots       []string
}

// ItemID returns the registry key for a library component.
func ItemID(libraryID, componentName string) string {
	return libraryID + ":" + componentName
}

// Clone returns a deep copy safe to mutate.
func (c CanonicalComponent) Clone() CanonicalComponent {
	out := c
	out.Adapter.PropMap = maps.Clone(c.Adapter.PropMap)
	out.Adapter.Overrides = maps.Clone(c.Adapter.Overrides)
	out.DefaultProps = maps.Clone(c.DefaultProps)
	out.BehaviorTags = slices.Clone(c.BehaviorTags)
	out.Slots = slices.Clone(c.Slots)
	if c.PropOptions != nil {
		out.PropOptions = make(map[string][]string, len(c.PropOptions))
		for prop, choices := range c.PropOptions {
			out.PropOptions[prop] = slices.Clone(choices)
		}
	}
	return out
}

func (c CanonicalComponent) entry() registry.Entry {
	clone := c.Clone()
	return registry.Entry{
		Type: c.ItemID,
		Implementation: registry.Implementation{
			Name:        c.ComponentName,
			Import:      c.Import,
			Handle:      c.RuntimeType,
			PropOptions: clone.PropOptions,
		},
		Adapter: clone.Adapter,
	}
}

// Group is palette grouping metadata.
type Group struct {
	ID         string   `json:"id" yaml:"id"`
	Label      string   `json:"label,omitempty" yaml:"label,omitempty"`
	Components []string `json:"components,omitempty" yaml:"components,omitempty"`
}

// Profile is the library-specific glue consumed by the runtime.
type Profile interface {
	Descriptor() Descriptor
	ToCanonicalComponents(module Module) ([]CanonicalComponent, error)
	ToGroups() []Group
}

// Fetcher loads a library module.
type Fetcher interface {
	Fetch(ctx context.Context, desc Descriptor) (Module, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, desc Descriptor) (Module, error)

// Fetch implements Fetcher.
func (fn FetcherFunc) Fetch(ctx context.Context, desc Descriptor) (Module, error) {
	return fn(ctx, desc)
}

// PropEnricher augments canonical components with prop options. It must be
// best-effort: on failure it returns the components unchanged.
type PropEnricher interface {
	EnrichPropOptions(ctx context.Context, desc Descriptor, components []CanonicalComponent) []CanonicalComponent
}

// Status is the load state of a library.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Level is the severity of a diagnostic.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Stage is the pipeline step that produced a diagnostic.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageLoad    Stage = "load"
	StageConvert Stage = "convert"
	StageEnrich  Stage = "enrich"
)

// Stable diagnostic codes.
const (
	CodeUnknownLibrary    = "library_unknown"
	CodeInvalidDescriptor = "descriptor_invalid"
	CodeLoadFailed        = "library_load_failed"
	CodeConvertFailed     = "library_convert_failed"
	CodeNoComponents      = "library_no_components"
	CodeRegisterFailed    = "library_register_failed"
	CodeWaitInterrupted   = "library_wait_interrupted"
)

// Diagnostic is a structured report of a non-fatal failure.
type Diagnostic struct {
	Code      string `json:"code"`
	Level     Level  `json:"level"`
	Stage     Stage  `json:"stage"`
	Message   string `json:"message"`
	LibraryID string `json:"libraryId"`
}

// LibraryState is the observable state of one library. Status and
// Diagnostics always belong to the same attempt.
type LibraryState struct {
	LibraryID   string       `json:"libraryId"`
	Status      Status       `json:"status"`
	AttemptID   string       `json:"attemptId,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// HasErrors reports whether any diagnostic has error level.
func HasErrors(diags []Diagnostic) bool {
	for _, diag := range diags {
		if diag.Level == LevelError {
			return true
		}
	}
	return false
}
