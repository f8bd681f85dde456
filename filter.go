package ziptree

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Filter decides whether the given path is included in a pack or unpack operation.
//
// When packing, the path is the host path of the file being enumerated. When unpacking, the path is the name of the
// entry as stored in the archive.
type Filter func(path string) bool

// IncludeAll is a Filter that accepts every path.
func IncludeAll(string) bool {
	return true
}

// IsHidden returns true if the base name of the given path starts with ".".
func IsHidden(name string) bool {
	name = strings.TrimRight(filepath.ToSlash(name), "/")
	return strings.HasPrefix(path.Base(name), ".")
}

// ExcludeHidden is a Filter that rejects hidden paths; see IsHidden.
func ExcludeHidden(name string) bool {
	return !IsHidden(name)
}

// And returns a Filter that accepts a path only if all the given filters accept it.
//
// Nil filters are ignored, so And() accepts everything.
func And(filters ...Filter) Filter {
	fs := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			fs = append(fs, f)
		}
	}

	return func(name string) bool {
		for _, f := range fs {
			if !f(name) {
				return false
			}
		}

		return true
	}
}

// Not inverts the given Filter.
func Not(f Filter) Filter {
	return func(name string) bool {
		return !f(name)
	}
}

// MatchGlob returns a Filter that accepts paths matching any of the given glob patterns.
//
// Patterns without "/" are matched against the base name (e.g. "*.log"). Patterns with "/" are matched against the
// slash form of the path relative to root (e.g. "build/**"), with "*" not crossing "/" and "**" crossing it. Use an
// empty root if paths are already relative, as archive entry names are. Trailing "/" of directory names are ignored.
func MatchGlob(root string, patterns ...string) (Filter, error) {
	type matcher struct {
		g        glob.Glob
		basename bool
	}

	ms := make([]matcher, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf(`compile glob "%s" error: %w`, p, err)
		}

		ms = append(ms, matcher{g: g, basename: !strings.Contains(p, "/")})
	}

	return func(name string) bool {
		if root != "" {
			rel, err := filepath.Rel(root, name)
			if err != nil {
				return false
			}
			name = rel
		}

		name = strings.TrimRight(filepath.ToSlash(name), "/")
		base := path.Base(name)

		for _, m := range ms {
			if m.basename && m.g.Match(base) || !m.basename && m.g.Match(name) {
				return true
			}
		}

		return false
	}, nil
}
