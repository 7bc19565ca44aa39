package libruntime

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mirgen/pkg/imports"
	"github.com/goliatone/go-mirgen/pkg/registry"
)

func TestLoadProfiles_ReadsYAMLInNameOrder(t *testing.T) {
	profiles, err := LoadProfiles(os.DirFS("testdata"), "profiles")
	if err != nil {
		t.Fatalf("load profiles: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	desc := profiles[0].Descriptor()
	want := Descriptor{
		LibraryID:       "acme",
		PackageName:     "@acme/ui",
		Version:         "2.3.0",
		Source:          imports.StrategyCDN,
		EntryCandidates: []string{"@acme/ui/manifest.json", "@acme/ui/dist/manifest.json"},
		Declarations:    "https://cdn.example.com/{package}@{version}/dist/{component}.d.ts",
	}
	if diff := cmp.Diff(want, desc); diff != "" {
		t.Fatalf("descriptor mismatch (-want +got):\n%s", diff)
	}
	if got := desc.DeclarationURL("Button"); got != "https://cdn.example.com/@acme/ui@2.3.0/dist/Button.d.ts" {
		t.Fatalf("unexpected declaration url %q", got)
	}
	if got := profiles[1].Descriptor().LibraryID; got != "plain" {
		t.Fatalf("expected plain second, got %q", got)
	}
}

func TestLoadProfiles_RejectsDuplicatesAndUnknownFields(t *testing.T) {
	dup := fstest.MapFS{
		"p/a.yaml": {Data: []byte("descriptor:\n  libraryId: x\n  packageName: x\n")},
		"p/b.yaml": {Data: []byte("descriptor:\n  libraryId: x\n  packageName: y\n")},
	}
	if _, err := LoadProfiles(dup, "p"); err == nil {
		t.Fatalf("expected duplicate library error")
	}

	unknown := fstest.MapFS{
		"p/a.yaml": {Data: []byte("descriptor:\n  libraryId: x\nbogus: true\n")},
	}
	if _, err := LoadProfiles(unknown, "p"); err == nil {
		t.Fatalf("expected unknown field error")
	}

	missing := fstest.MapFS{
		"p/a.yaml": {Data: []byte("descriptor:\n  packageName: x\n")},
	}
	if _, err := LoadProfiles(missing, "p"); err == nil {
		t.Fatalf("expected missing library id error")
	}
}

func TestManifestProfile_ToCanonicalComponents(t *testing.T) {
	profiles, err := LoadProfiles(os.DirFS("testdata"), "profiles")
	if err != nil {
		t.Fatalf("load profiles: %v", err)
	}
	module := Module{
		"Button":         registry.Element{Kind: registry.ElementForwardRef, Name: "Button"},
		"Dialog":         func() {},
		"InternalPortal": func() {},
		"Tokens":         map[string]string{"primary": "#000"},
		"useDialog":      func() {},
	}

	comps, err := profiles[0].ToCanonicalComponents(module)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	var names []string
	for _, comp := range comps {
		names = append(names, comp.ItemID)
	}
	if diff := cmp.Diff([]string{"acme:Button", "acme:Dialog"}, names); diff != "" {
		t.Fatalf("components mismatch (-want +got):\n%s", diff)
	}

	button := comps[0]
	if button.Adapter.AcceptsChildren || button.Adapter.TextProp != "label" || button.Adapter.NativeProp("icon") != "leftIcon" {
		t.Fatalf("button adapter not applied: %+v", button.Adapter)
	}
	if button.DefaultProps["variant"] != "solid" {
		t.Fatalf("default props not applied: %+v", button.DefaultProps)
	}
	dialog := comps[1]
	if !dialog.Adapter.AcceptsChildren {
		t.Fatalf("dialog should inherit the profile adapter")
	}
	if diff := cmp.Diff([]string{"header", "footer"}, dialog.Slots); diff != "" {
		t.Fatalf("slots mismatch (-want +got):\n%s", diff)
	}

	groups := profiles[0].ToGroups()
	if len(groups) != 2 || groups[1].ID != "overlays" {
		t.Fatalf("unexpected groups %+v", groups)
	}
}
