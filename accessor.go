package ziptree

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// DirectoryEntry is a path found while walking a directory.
type DirectoryEntry struct {
	Path  string
	IsDir bool
}

// FileAccessor abstracts where the bytes of packed files come from.
//
// DirectFileAccessor is used by default; FSAccessor can be used to pack from an fs.FS such as testing/fstest.MapFS.
type FileAccessor interface {
	// OpenForReading opens the named file for reading.
	OpenForReading(path string) (io.ReadCloser, error)

	// DirectoryExists returns true if path exists and is a directory.
	DirectoryExists(path string) bool

	// ListDirectoryContents lists the immediate children of dir.
	//
	// The returned paths must be dir joined with each child's name.
	ListDirectoryContents(dir string) ([]DirectoryEntry, error)

	// LastModifiedTime returns the modification time of path, or the zero value if it cannot be determined.
	LastModifiedTime(path string) time.Time
}

// DirectFileAccessor implements FileAccessor with the os package.
//
// Symbolic links are followed: a link to a directory is listed as a directory.
type DirectFileAccessor struct{}

var _ FileAccessor = DirectFileAccessor{}

func (DirectFileAccessor) OpenForReading(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (DirectFileAccessor) DirectoryExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// ListDirectoryContents returns the children of dir in lexical order.
func (a DirectFileAccessor) ListDirectoryContents(dir string) ([]DirectoryEntry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]DirectoryEntry, 0, len(des))
	for _, d := range des {
		p := filepath.Join(dir, d.Name())
		isDir := d.IsDir()
		if d.Type()&fs.ModeSymlink != 0 {
			isDir = a.DirectoryExists(p)
		}

		entries = append(entries, DirectoryEntry{Path: p, IsDir: isDir})
	}

	return entries, nil
}

func (DirectFileAccessor) LastModifiedTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("retrieve file modification time failed")
		return time.Time{}
	}

	return fi.ModTime()
}

// FSAccessor implements FileAccessor on top of an fs.FS.
//
// Paths given to FSAccessor are host paths relative to the root of FS, so pack with "." as the source root.
type FSAccessor struct {
	FS fs.FS
}

var _ FileAccessor = FSAccessor{}

// fsPath converts a host path to the unrooted slash form that fs.FS expects.
func fsPath(name string) string {
	return path.Clean(filepath.ToSlash(name))
}

func (a FSAccessor) OpenForReading(path string) (io.ReadCloser, error) {
	return a.FS.Open(fsPath(path))
}

func (a FSAccessor) DirectoryExists(path string) bool {
	fi, err := fs.Stat(a.FS, fsPath(path))
	return err == nil && fi.IsDir()
}

func (a FSAccessor) ListDirectoryContents(dir string) ([]DirectoryEntry, error) {
	des, err := fs.ReadDir(a.FS, fsPath(dir))
	if err != nil {
		return nil, err
	}

	entries := make([]DirectoryEntry, 0, len(des))
	for _, d := range des {
		entries = append(entries, DirectoryEntry{Path: filepath.Join(dir, d.Name()), IsDir: d.IsDir()})
	}

	return entries, nil
}

func (a FSAccessor) LastModifiedTime(path string) time.Time {
	fi, err := fs.Stat(a.FS, fsPath(path))
	if err != nil {
		return time.Time{}
	}

	return fi.ModTime()
}
