// Package imports decides how a module specifier emitted into generated code
// (or used to fetch a library) is resolved under a given source strategy.
package imports

import (
	"strings"
)

// Strategy selects where bare specifiers are resolved from.
type Strategy string

const (
	// StrategyWorkspace leaves specifiers untouched; packages come from the
	// surrounding workspace and are not declared.
	StrategyWorkspace Strategy = "workspace"
	// StrategyPackageRegistry leaves bare specifiers untouched and asks the
	// caller to declare them as project dependencies.
	StrategyPackageRegistry Strategy = "package-registry"
	// StrategyCDN rewrites bare specifiers to self-contained absolute URLs.
	StrategyCDN Strategy = "cdn"
)

// DefaultCDNBase is used by StrategyCDN when Options.CDNBase is empty.
const DefaultCDNBase = "https://esm.sh"

// Options configures Resolve.
type Options struct {
	// Strategy defaults to StrategyPackageRegistry.
	Strategy Strategy
	// CDNBase is the absolute base URL for StrategyCDN.
	CDNBase string
	// Version pins the package version. A version embedded in the specifier
	// ("left-pad@1.3.0") is used when empty.
	Version string
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	// ImportSource is the final specifier to emit or fetch.
	ImportSource string
	// PackageName is the package portion of a bare specifier ("@scope/name").
	PackageName string
	// Version is the known package version, if any.
	Version string
	// Subpath is the part after the package name, including the leading "/".
	Subpath string
	// Bare reports whether the specifier is library-style.
	Bare bool
	// DeclareDependency asks the caller to add PackageName to the project
	// manifest.
	DeclareDependency bool
}

// Resolve resolves source under opts.
func Resolve(source string, opts Options) Resolution {
	spec := strings.TrimSpace(source)
	res := Resolution{ImportSource: spec}
	if !IsBare(spec) {
		return res
	}
	res.Bare = true

	name, version, subpath := SplitSpecifier(spec)
	res.PackageName = name
	res.Subpath = subpath
	res.Version = strings.TrimSpace(opts.Version)
	if res.Version == "" {
		res.Version = version
	}

	switch normalizeStrategy(opts.Strategy) {
	case StrategyCDN:
		base := strings.TrimRight(strings.TrimSpace(opts.CDNBase), "/")
		if base == "" {
			base = DefaultCDNBase
		}
		if name == "" {
			res.ImportSource = base + "/" + spec
			return res
		}
		target := name
		if res.Version != "" {
			target += "@" + res.Version
		}
		res.ImportSource = base + "/" + target + subpath
	case StrategyWorkspace:
	default:
		res.DeclareDependency = name != ""
	}
	return res
}

// IsBare reports whether spec is a library-style specifier: not a relative or
// absolute path and not a URL.
func IsBare(spec string) bool {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return false
	}
	if strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") || strings.HasPrefix(spec, "\\") {
		return false
	}
	if isURL(spec) {
		return false
	}
	return true
}

// SplitSpecifier splits a bare specifier into package name, embedded version
// and subpath. Scoped names keep both segments ("@scope/name"). An
// unparseable scope yields an empty name.
func SplitSpecifier(spec string) (name, version, subpath string) {
	segments := strings.Split(spec, "/")
	count := 1
	if strings.HasPrefix(spec, "@") {
		if len(segments) < 2 || segments[1] == "" || len(segments[0]) < 2 {
			return "", "", ""
		}
		count = 2
	}
	if segments[0] == "" {
		return "", "", ""
	}

	last := segments[count-1]
	if at := strings.LastIndex(last, "@"); at > 0 {
		version = last[at+1:]
		segments[count-1] = last[:at]
	}
	name = strings.Join(segments[:count], "/")
	if len(segments) > count {
		subpath = "/" + strings.Join(segments[count:], "/")
	}
	return name, version, subpath
}

func isURL(spec string) bool {
	if strings.Contains(spec, "://") {
		return true
	}
	for _, scheme := range []string{"data:", "blob:", "node:", "http:", "https:"} {
		if strings.HasPrefix(spec, scheme) {
			return true
		}
	}
	return false
}

func normalizeStrategy(strategy Strategy) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(string(strategy)))) {
	case StrategyCDN, "cdn-style":
		return StrategyCDN
	case StrategyWorkspace:
		return StrategyWorkspace
	default:
		return StrategyPackageRegistry
	}
}
