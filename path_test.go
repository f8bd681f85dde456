package ziptree

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelativePath(t *testing.T) {
	root := filepath.FromSlash("/src/root")

	tests := []struct {
		name    string
		path    string
		isDir   bool
		want    string
		wantErr bool
	}{
		{
			name: "file",
			path: "/src/root/a.txt",
			want: "a.txt",
		},
		{
			name: "nested file",
			path: "/src/root/path/to/b.txt",
			want: "path/to/b.txt",
		},
		{
			name:  "directory",
			path:  "/src/root/path",
			isDir: true,
			want:  "path/",
		},
		{
			name:    "root itself",
			path:    "/src/root",
			isDir:   true,
			wantErr: true,
		},
		{
			name:    "sibling",
			path:    "/src/other/a.txt",
			wantErr: true,
		},
		{
			name:    "prefix but not child",
			path:    "/src/rootless/a.txt",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelativePath(root, filepath.FromSlash(tt.path), tt.isDir)
			if tt.wantErr {
				assert.Truef(t, errors.Is(err, ErrUnsafePath), "RelativePath() error = %v, want ErrUnsafePath", err)
				return
			}

			assert.NoErrorf(t, err, "RelativePath() error = %v", err)
			assert.Equalf(t, tt.want, got, "RelativePath() got = %v, want %v", got, tt.want)
		})
	}
}
