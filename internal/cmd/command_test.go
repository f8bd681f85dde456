package cmd

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/nguyengg/ziptree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()

	p, err := NewParser()
	require.NoError(t, err)

	_, err = p.ParseArgs(args)
	return err
}

func TestPackUnpack(t *testing.T) {
	src := t.TempDir()
	for name, data := range map[string]string{
		"a.txt":     "hello",
		"b/c.txt":   "world",
		"debug.log": "noise",
		".hidden":   "secret",
	} {
		path := filepath.Join(src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	}

	name := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, run(t, "pack", "--exclude", "*.log", "--level", "9", src, name))

	// unpack everything.
	all := filepath.Join(t.TempDir(), "all")
	require.NoError(t, run(t, "unpack", name, all))

	data, err := os.ReadFile(filepath.Join(all, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	data, err = os.ReadFile(filepath.Join(all, "b", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))
	assert.NoFileExists(t, filepath.Join(all, "debug.log"))
	assert.NoFileExists(t, filepath.Join(all, ".hidden"))

	// unpack only b/c.txt.
	some := filepath.Join(t.TempDir(), "some")
	require.NoError(t, run(t, "unpack", "--log-skipped", "--include", "b/*.txt", name, some))
	assert.FileExists(t, filepath.Join(some, "b", "c.txt"))
	assert.NoFileExists(t, filepath.Join(some, "a.txt"))
}

func TestPack_IncludeHiddenAndFiles(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, ".hidden"), []byte("secret"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0644))

	name := filepath.Join(t.TempDir(), "hidden.zip")
	require.NoError(t, run(t, "pack", "--include-hidden", src, name))
	assert.ElementsMatch(t, []string{".hidden", "a.txt"}, zipNames(t, name))

	name = filepath.Join(t.TempDir(), "selected.zip")
	require.NoError(t, run(t, "pack", "-f", ".hidden", src, name))
	assert.Equal(t, []string{".hidden"}, zipNames(t, name))
}

func TestPack_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	err := run(t, "pack", filepath.Join(dir, "missing"), filepath.Join(dir, "out.zip"))
	assert.ErrorIs(t, err, ziptree.ErrOpen)
	assert.NoFileExists(t, filepath.Join(dir, "out.zip"))
}

func TestUnpack_Unsafe(t *testing.T) {
	name := filepath.Join(t.TempDir(), "unsafe.zip")
	f, err := os.Create(name)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("../escape.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("gotcha"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	dst := filepath.Join(t.TempDir(), "dst")
	err = run(t, "unpack", name, dst)
	assert.ErrorIs(t, err, ziptree.ErrUnsafePath)
	assert.NoDirExists(t, dst)
}

func TestIncludeFilter(t *testing.T) {
	f, err := includeFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = includeFilter([]string{"*.txt"})
	require.NoError(t, err)
	assert.True(t, f("b/"))
	assert.True(t, f("b/c.txt"))
	assert.False(t, f("b/c.log"))
}

func zipNames(t *testing.T, name string) []string {
	t.Helper()

	zr, err := zip.OpenReader(name)
	require.NoError(t, err)
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}
