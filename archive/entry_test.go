package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewEntryInfo(t *testing.T) {
	tests := []struct {
		name       string
		wantPath   string
		wantDir    bool
		wantUnsafe bool
	}{
		{name: "a.txt", wantPath: "a.txt"},
		{name: "path/to/b.txt", wantPath: "path/to/b.txt"},
		{name: "path/", wantPath: "path", wantDir: true},
		{name: "./c.txt", wantPath: "c.txt"},
		{name: `win\style\d.txt`, wantPath: "win/style/d.txt"},
		{name: "../escape.txt", wantPath: "../escape.txt", wantUnsafe: true},
		{name: "a/../b.txt", wantPath: "b.txt", wantUnsafe: true},
		{name: `..\escape.txt`, wantPath: "../escape.txt", wantUnsafe: true},
		{name: "/etc/passwd", wantPath: "/etc/passwd", wantUnsafe: true},
		{name: "C:/Windows/win.ini", wantPath: "C:/Windows/win.ini", wantUnsafe: true},
		{name: "C:win.ini", wantPath: "C:win.ini", wantUnsafe: true},
		{name: "", wantPath: ".", wantUnsafe: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEntryInfo(tt.name, time.Time{}, 0)
			assert.Equalf(t, tt.name, e.Name, "Name")
			assert.Equalf(t, tt.wantPath, e.Path, "Path")
			assert.Equalf(t, tt.wantDir, e.IsDir, "IsDir")
			assert.Equalf(t, tt.wantUnsafe, e.IsUnsafe(), "IsUnsafe")
		})
	}
}

func TestEntryInfo_SlashName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "a.txt", want: "a.txt"},
		{name: `win\a.txt`, want: "win/a.txt"},
		{name: `win\sub\`, want: "win/sub/"},
		{name: "path/./to/", want: "path/to/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewEntryInfo(tt.name, time.Time{}, 0).SlashName())
		})
	}
}
