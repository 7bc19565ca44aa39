package imports

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve_PackageRegistryDeclaresBareSpecifiers(t *testing.T) {
	got := Resolve("left-pad", Options{Strategy: StrategyPackageRegistry})
	want := Resolution{
		ImportSource:      "left-pad",
		PackageName:       "left-pad",
		Bare:              true,
		DeclareDependency: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resolution mismatch (-want +got):\n%s", diff)
	}

	if def := Resolve("left-pad", Options{}); !def.DeclareDependency {
		t.Fatalf("package-registry should be the default strategy")
	}
}

func TestResolve_CDNRewritesToVersionedURL(t *testing.T) {
	got := Resolve("left-pad", Options{Strategy: StrategyCDN, Version: "1.0.0"})
	if !strings.HasPrefix(got.ImportSource, "https://") || !strings.HasSuffix(got.ImportSource, "left-pad@1.0.0") {
		t.Fatalf("expected absolute versioned URL, got %q", got.ImportSource)
	}
	if got.DeclareDependency {
		t.Fatalf("cdn imports are self-contained and must not be declared")
	}

	custom := Resolve("@scope/name/sub/path", Options{Strategy: "cdn-style", CDNBase: "https://cdn.example.com/", Version: "2.1.0"})
	if custom.ImportSource != "https://cdn.example.com/@scope/name@2.1.0/sub/path" {
		t.Fatalf("unexpected scoped cdn url %q", custom.ImportSource)
	}

	unversioned := Resolve("left-pad", Options{Strategy: StrategyCDN})
	if unversioned.ImportSource != DefaultCDNBase+"/left-pad" {
		t.Fatalf("unexpected unversioned url %q", unversioned.ImportSource)
	}
}

func TestResolve_ScopedPackageName(t *testing.T) {
	got := Resolve("@scope/name/sub", Options{})
	if got.PackageName != "@scope/name" || got.Subpath != "/sub" {
		t.Fatalf("unexpected split %+v", got)
	}
	if got.ImportSource != "@scope/name/sub" || !got.DeclareDependency {
		t.Fatalf("bare scoped specifier should be kept and declared: %+v", got)
	}
}

func TestResolve_NonBareSpecifiersPassThrough(t *testing.T) {
	for _, spec := range []string{"./local", "../up", "/abs/mod.js", "https://cdn.example.com/x.js", "data:text/javascript,1"} {
		for _, strategy := range []Strategy{StrategyWorkspace, StrategyPackageRegistry, StrategyCDN} {
			got := Resolve(spec, Options{Strategy: strategy, Version: "9.9.9"})
			if got.ImportSource != spec || got.Bare || got.DeclareDependency || got.PackageName != "" {
				t.Fatalf("%s under %s: unexpected %+v", spec, strategy, got)
			}
		}
	}
}

func TestResolve_WorkspaceKeepsBareWithoutDeclaring(t *testing.T) {
	got := Resolve("design-system", Options{Strategy: StrategyWorkspace})
	if got.ImportSource != "design-system" || got.DeclareDependency || got.PackageName != "design-system" {
		t.Fatalf("unexpected workspace resolution %+v", got)
	}
}

func TestSplitSpecifier(t *testing.T) {
	cases := []struct {
		spec, name, version, subpath string
	}{
		{"left-pad", "left-pad", "", ""},
		{"left-pad@1.3.0", "left-pad", "1.3.0", ""},
		{"lodash/fp", "lodash", "", "/fp"},
		{"@scope/name", "@scope/name", "", ""},
		{"@scope/name@2.0.0/sub", "@scope/name", "2.0.0", "/sub"},
		{"@scope", "", "", ""},
		{"@/name", "", "", ""},
	}
	for _, tc := range cases {
		name, version, subpath := SplitSpecifier(tc.spec)
		if name != tc.name || version != tc.version || subpath != tc.subpath {
			t.Fatalf("SplitSpecifier(%q) = (%q, %q, %q)", tc.spec, name, version, subpath)
		}
	}
}
