package archive

import (
	"path"
	"path/filepath"
	"strings"
	"time"
)

// EntryInfo describes an entry read from an archive.
type EntryInfo struct {
	// Name is the name exactly as stored in the archive.
	Name string

	// Path is the cleaned slash-separated form of Name without the trailing "/" of directories.
	Path string

	// IsDir is true if Name ends with "/".
	IsDir bool

	// Modified is the entry's last modification time; may be zero.
	Modified time.Time

	// Size is the uncompressed size of the entry.
	Size int64

	unsafe bool
}

// NewEntryInfo creates an EntryInfo from the name stored in the archive.
//
// Backslashes are treated as separators so that archives created on Windows with non-conforming tools still resolve
// to the intended paths, and so that `..\` cannot be used to sneak past the safety check.
func NewEntryInfo(name string, modified time.Time, size int64) *EntryInfo {
	slashed := strings.ReplaceAll(name, `\`, "/")

	e := &EntryInfo{
		Name:     name,
		IsDir:    strings.HasSuffix(slashed, "/"),
		Modified: modified,
		Size:     size,
	}

	e.unsafe = isUnsafe(slashed)
	if e.Path = path.Clean(slashed); e.Path == "/" {
		e.Path = "."
	}

	return e
}

// SlashName returns Path with a trailing "/" for directories.
//
// Unlike Name, it does not depend on which separator or redundant components the archive used, so `win\a.txt` and
// `win/./a.txt` both become "win/a.txt".
func (e *EntryInfo) SlashName() string {
	if e.IsDir {
		return e.Path + "/"
	}

	return e.Path
}

// IsUnsafe returns true if extracting the entry relative to a destination directory could land outside of it.
//
// That is the case for absolute names, names with a volume or drive prefix, and names with any ".." component even if
// it would be cleaned away (e.g. "a/../b").
func (e *EntryInfo) IsUnsafe() bool {
	return e.unsafe
}

func isUnsafe(slashed string) bool {
	if slashed == "" || path.IsAbs(slashed) || filepath.IsAbs(filepath.FromSlash(slashed)) {
		return true
	}

	// "C:foo" is relative on Windows but still not local.
	if len(slashed) >= 2 && slashed[1] == ':' {
		return true
	}

	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return true
		}
	}

	return !filepath.IsLocal(filepath.FromSlash(strings.TrimSuffix(slashed, "/")))
}
