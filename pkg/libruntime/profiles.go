package libruntime

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mirgen/pkg/registry"
)

// AdapterSpec is the declarative form of a registry.Adapter. A nil
// AcceptsChildren inherits the surrounding default.
type AdapterSpec struct {
	AcceptsChildren *bool             `yaml:"acceptsChildren,omitempty"`
	TextProp        string            `yaml:"textProp,omitempty"`
	PropMap         map[string]string `yaml:"propMap,omitempty"`
	StyleProp       string            `yaml:"styleProp,omitempty"`
	Overrides       map[string]any    `yaml:"overrides,omitempty"`
}

func (s AdapterSpec) apply(base registry.Adapter) registry.Adapter {
	out := base
	if s.AcceptsChildren != nil {
		out.AcceptsChildren = *s.AcceptsChildren
	}
	if s.TextProp != "" {
		out.TextProp = s.TextProp
	}
	if s.StyleProp != "" {
		out.StyleProp = s.StyleProp
	}
	if len(s.PropMap) > 0 {
		merged := maps.Clone(base.PropMap)
		if merged == nil {
			merged = make(map[string]string, len(s.PropMap))
		}
		maps.Copy(merged, s.PropMap)
		out.PropMap = merged
	}
	if len(s.Overrides) > 0 {
		merged := maps.Clone(base.Overrides)
		if merged == nil {
			merged = make(map[string]any, len(s.Overrides))
		}
		maps.Copy(merged, s.Overrides)
		out.Overrides = merged
	}
	return out
}

// ComponentSpec customises one exported component.
type ComponentSpec struct {
	AdapterSpec  `yaml:",inline"`
	Path         string              `yaml:"path,omitempty"`
	DefaultProps map[string]any      `yaml:"defaultProps,omitempty"`
	BehaviorTags []string            `yaml:"behaviorTags,omitempty"`
	PropOptions  map[string][]string `yaml:"propOptions,omitempty"`
	Slots        []string            `yaml:"slots,omitempty"`
}

// ManifestProfile is a Profile declared as data.
type ManifestProfile struct {
	Library Descriptor               `yaml:"descriptor"`
	Adapter AdapterSpec              `yaml:"adapter,omitempty"`
	Specs   map[string]ComponentSpec `yaml:"components,omitempty"`
	Exclude []string                 `yaml:"exclude,omitempty"`
	Palette []Group                  `yaml:"groups,omitempty"`
}

var _ Profile = (*ManifestProfile)(nil)

// Descriptor implements Profile.
func (p *ManifestProfile) Descriptor() Descriptor {
	desc := p.Library
	desc.EntryCandidates = slices.Clone(desc.EntryCandidates)
	return desc
}

// ToCanonicalComponents implements Profile. Every upper-case, component-like
// export that is not excluded becomes one component, in name order.
func (p *ManifestProfile) ToCanonicalComponents(module Module) ([]CanonicalComponent, error) {
	if module == nil {
		return nil, errors.New("libruntime: module is nil")
	}
	base := p.Adapter.apply(registry.Adapter{AcceptsChildren: true})

	var components []CanonicalComponent
	for _, name := range ExportNames(module) {
		value := module[name]
		if !isExportName(name) || !registry.IsComponentLike(value) || slices.Contains(p.Exclude, name) {
			continue
		}
		spec := p.Specs[name]
		componentPath := spec.Path
		if componentPath == "" {
			componentPath = name
		}
		comp := CanonicalComponent{
			LibraryID:     p.Library.LibraryID,
			ComponentName: name,
			Path:          componentPath,
			RuntimeType:   value,
			ItemID:        ItemID(p.Library.LibraryID, name),
			Adapter:       spec.AdapterSpec.apply(base),
			DefaultProps:  maps.Clone(spec.DefaultProps),
			BehaviorTags:  slices.Clone(spec.BehaviorTags),
			Slots:         slices.Clone(spec.Slots),
		}
		if len(spec.PropOptions) > 0 {
			comp.PropOptions = make(map[string][]string, len(spec.PropOptions))
			for prop, choices := range spec.PropOptions {
				comp.PropOptions[prop] = slices.Clone(choices)
			}
		}
		components = append(components, comp)
	}
	return components, nil
}

// ToGroups implements Profile.
func (p *ManifestProfile) ToGroups() []Group {
	out := make([]Group, len(p.Palette))
	for idx, group := range p.Palette {
		group.Components = slices.Clone(group.Components)
		out[idx] = group
	}
	return out
}

// ParseProfile decodes one YAML profile.
func ParseProfile(data []byte) (*ManifestProfile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var profile ManifestProfile
	if err := dec.Decode(&profile); err != nil {
		return nil, fmt.Errorf("libruntime: decode profile: %w", err)
	}
	profile.Library.LibraryID = strings.TrimSpace(profile.Library.LibraryID)
	if profile.Library.LibraryID == "" {
		return nil, errors.New("libruntime: profile descriptor.libraryId is required")
	}
	return &profile, nil
}

// LoadProfiles reads every *.yaml and *.yml profile in dir of fsys, sorted by
// file name. Duplicate library ids are rejected.
func LoadProfiles(fsys fs.FS, dir string) ([]Profile, error) {
	if fsys == nil {
		return nil, errors.New("libruntime: profile filesystem is nil")
	}
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("libruntime: read profiles %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch path.Ext(entry.Name()) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	seen := make(map[string]string, len(names))
	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		filePath := path.Join(dir, name)
		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("libruntime: read profile %s: %w", filePath, err)
		}
		profile, err := ParseProfile(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filePath, err)
		}
		id := profile.Library.LibraryID
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("libruntime: library %q declared in %s and %s", id, prev, filePath)
		}
		seen[id] = filePath
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func isExportName(name string) bool {
	first, _ := utf8.DecodeRuneInString(name)
	return first != utf8.RuneError && unicode.IsUpper(first)
}
