package ziptree

import (
	"fmt"
	"path/filepath"
)

// RelativePath converts path to the name of its entry in the archive.
//
// The returned name is path relative to root using "/" as separator regardless of the host, with a trailing "/" if
// isDir is true. An error wrapping ErrUnsafePath is returned if path is root itself or lies outside root; such a path
// is never clamped into root.
func RelativePath(root, path string, isDir bool) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", &Error{Kind: KindUnsafePath, Path: path, Err: err}
	}

	if rel == "." || !filepath.IsLocal(rel) {
		return "", &Error{Kind: KindUnsafePath, Path: path, Err: fmt.Errorf("not inside root (path=%s)", root)}
	}

	if rel = filepath.ToSlash(rel); isDir {
		rel += "/"
	}

	return rel, nil
}
