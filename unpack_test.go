package ziptree

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpack_RoundTrip(t *testing.T) {
	// the source directory looks like this:
	//	.hidden
	//	a.txt
	//	path/b.txt
	//	another/path/c.txt
	//	empty/
	data := make([]byte, 100*1024)
	_, err := io.ReadFull(rand.Reader, data)
	require.NoError(t, err)

	src := t.TempDir()
	require.NoError(t, fill(filepath.Join(src, ".hidden"), []byte("hidden")))
	require.NoError(t, fill(filepath.Join(src, "a.txt"), []byte("a")))
	require.NoError(t, fill(filepath.Join(src, "path/b.txt"), data))
	require.NoError(t, fill(filepath.Join(src, "another/path/c.txt"), []byte{}))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0755))

	modified := time.Date(2020, 1, 2, 3, 4, 6, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(src, "a.txt"), modified, modified))

	name := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, Pack(context.Background(), src, name, false))

	dst := filepath.Join(t.TempDir(), "dst")
	require.NoError(t, Unpack(context.Background(), name, dst))

	expected := map[string]string{
		"a.txt":              "a",
		"path/":              "",
		"path/b.txt":         string(data),
		"another/":           "",
		"another/path/":      "",
		"another/path/c.txt": "",
		"empty/":             "",
	}
	assert.Equal(t, expected, tree(t, dst))

	fi, err := os.Stat(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Truef(t, modified.Equal(fi.ModTime()), "modification time not restored; got %v, want %v", fi.ModTime(), modified)
}

func TestUnpack_Unsafe(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{name: "parent", entry: "../escape.txt"},
		{name: "parent in the middle", entry: "a/../../escape.txt"},
		{name: "absolute", entry: "/escape.txt"},
		{name: "backslash parent", entry: `..\escape.txt`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			name := filepath.Join(parent, "evil.zip")

			// the safe entry comes first to show nothing gets written at all.
			require.NoError(t, createZip(name, map[string]string{"safe.txt": "safe"}, []string{"safe.txt", tt.entry}))

			dst := filepath.Join(parent, "dst")
			err := Unpack(context.Background(), name, dst)
			assert.ErrorIs(t, err, ErrUnsafePath)

			_, err = os.Stat(dst)
			assert.Truef(t, os.IsNotExist(err), "destination should not have been created; Stat error = %v", err)
			_, err = os.Stat(filepath.Join(parent, "escape.txt"))
			assert.Truef(t, os.IsNotExist(err), "escape.txt should not exist; Stat error = %v", err)
		})
	}
}

func TestUnpack_UnsafeNotSuppressedByFilter(t *testing.T) {
	name := filepath.Join(t.TempDir(), "evil.zip")
	require.NoError(t, createZip(name, nil, []string{"../escape.txt"}))

	err := UnpackWithFilter(context.Background(), name, t.TempDir(), Not(IncludeAll), false)
	assert.ErrorIs(t, err, ErrUnsafePath)
}

func TestUnpackWithFilter(t *testing.T) {
	name := filepath.Join(t.TempDir(), "in.zip")
	require.NoError(t, createZip(name, map[string]string{
		"a.txt":      "a",
		"b.log":      "b",
		"path/c.txt": "c",
	}, []string{"a.txt", "b.log", "path/", "path/c.txt"}))

	tests := []struct {
		name     string
		filter   Filter
		expected map[string]string
	}{
		{
			name:     "reject all",
			filter:   func(string) bool { return false },
			expected: map[string]string{},
		},
		{
			name: "exclude log",
			filter: func(path string) bool {
				return filepath.Ext(path) != ".log"
			},
			expected: map[string]string{
				"a.txt":      "a",
				"path/":      "",
				"path/c.txt": "c",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := t.TempDir()

			err := UnpackWithFilter(context.Background(), name, dst, tt.filter, true)
			assert.NoErrorf(t, err, "UnpackWithFilter() error = %v", err)
			assert.Equal(t, tt.expected, tree(t, dst))
		})
	}
}

func TestUnpackWithFilter_BackslashNames(t *testing.T) {
	name := filepath.Join(t.TempDir(), "win.zip")
	require.NoError(t, createZip(name, map[string]string{
		`win\a.txt`: "a",
		`win\b.log`: "b",
	}, []string{`win\a.txt`, `win\b.log`}))

	m, err := MatchGlob("", "win/*.txt")
	require.NoError(t, err)

	var seen []string
	dst := t.TempDir()
	err = UnpackWithFilter(context.Background(), name, dst, func(path string) bool {
		seen = append(seen, path)
		return m(path)
	}, false)
	require.NoError(t, err)

	// the filter sees the same slash-separated names that the entries are extracted to.
	assert.Equal(t, []string{"win/a.txt", "win/b.log"}, seen)
	assert.Equal(t, map[string]string{
		"win/":      "",
		"win/a.txt": "a",
	}, tree(t, dst))
}

func TestUnpackFile_LogSkipped(t *testing.T) {
	name := filepath.Join(t.TempDir(), "in.zip")
	require.NoError(t, createZip(name, map[string]string{
		"a.txt": "a",
		"b.log": "b",
	}, []string{"a.txt", "b.log"}))

	for _, logSkipped := range []bool{true, false} {
		t.Run(fmt.Sprintf("logSkipped=%t", logSkipped), func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			err := UnpackFile(context.Background(), name, t.TempDir(), func(opts *UnpackOptions) {
				opts.Filter = func(path string) bool {
					return filepath.Ext(path) != ".log"
				}
				opts.LogSkipped = logSkipped
				opts.Logger = &logger
			})
			require.NoError(t, err)

			if logSkipped {
				assert.Equal(t, 1, strings.Count(buf.String(), "skipped entry"))
				assert.Contains(t, buf.String(), `"name":"b.log"`)
			} else {
				assert.NotContains(t, buf.String(), "skipped entry")
			}
		})
	}
}

func TestUnpack_Idempotent(t *testing.T) {
	name := filepath.Join(t.TempDir(), "in.zip")
	require.NoError(t, createZip(name, map[string]string{
		"a.txt":      "a",
		"path/b.txt": "b",
	}, []string{"a.txt", "path/", "path/b.txt", "empty/"}))

	dst := t.TempDir()

	require.NoError(t, Unpack(context.Background(), name, dst))
	first := tree(t, dst)

	require.NoError(t, Unpack(context.Background(), name, dst))
	assert.Equal(t, first, tree(t, dst))
	assert.Equal(t, map[string]string{"a.txt": "a", "path/": "", "path/b.txt": "b", "empty/": ""}, first)
}

func TestUnpackFrom(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PackTo(context.Background(), ".", &buf, func(opts *PackOptions) {
		opts.Accessor = FSAccessor{FS: testFS()}
	}))

	dst := t.TempDir()
	var reported int
	err := UnpackFrom(context.Background(), bytes.NewReader(buf.Bytes()), int64(buf.Len()), dst, func(opts *UnpackOptions) {
		opts.BufferSize = 1
		opts.ProgressReporter = func(src, dst string, written int64, done bool) {
			if done {
				reported++
			}
		}
	})
	require.NoError(t, err)

	// .git/config is packed because the walker descends into .git even though .git itself is hidden.
	assert.Equal(t, map[string]string{
		".git/":       "",
		".git/config": "[core]",
		"a.txt":       "hello",
		"b/":          "",
		"b/c.txt":     "world",
		"b/d/":        "",
		"b/d/e.txt":   "!",
		"empty/":      "",
	}, tree(t, dst))
	assert.Equal(t, 7, reported)
}

func TestUnpack_NotAnArchive(t *testing.T) {
	name := filepath.Join(t.TempDir(), "not.zip")
	require.NoError(t, fill(name, []byte("definitely not a zip file")))

	err := Unpack(context.Background(), name, t.TempDir())
	assert.ErrorIs(t, err, ErrOpen)

	err = Unpack(context.Background(), filepath.Join(t.TempDir(), "does-not-exist.zip"), t.TempDir())
	assert.ErrorIs(t, err, ErrOpen)
}

// createZip writes the given entries in order with archive/zip so that entry names are not validated.
func createZip(name string, contents map[string]string, entries []string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, entry := range entries {
		w, err := zw.Create(entry)
		if err != nil {
			return err
		}

		if _, err = io.WriteString(w, contents[entry]); err != nil {
			return err
		}
	}

	return zw.Close()
}

// tree returns the content of every file and directory under root keyed by slash-separated relative paths.
//
// Directories have a trailing "/" and empty content.
func tree(t *testing.T, root string) map[string]string {
	t.Helper()

	m := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == root {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			m[rel+"/"] = ""
			return nil
		}

		data, err := os.ReadFile(path)
		m[rel] = string(data)
		return err
	})
	require.NoErrorf(t, err, "WalkDir(%s) error = %v", root, err)

	return m
}
