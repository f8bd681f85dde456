package config

import (
	"github.com/klauspost/compress/flate"
)

// PackConfig contains the [pack] settings.
type PackConfig struct {
	IncludeHidden bool
	Prune         bool
	Level         int
	BufferSize    int
	Exclude       []string
}

// ForPack returns configuration for packing.
func (l *Loader) ForPack() (c PackConfig) {
	sec := l.section("pack")

	c.IncludeHidden = sec.Key("include-hidden").MustBool(false)
	c.Prune = sec.Key("prune").MustBool(false)
	c.Level = sec.Key("level").MustInt(flate.DefaultCompression)
	c.BufferSize = sec.Key("buffer-size").MustInt(0)
	if k := sec.Key("exclude"); k.String() != "" {
		c.Exclude = k.Strings(",")
	}

	return
}

// ForPack calls Loader.ForPack on the DefaultLoader instance.
func ForPack() PackConfig {
	return DefaultLoader.ForPack()
}

// UnpackConfig contains the [unpack] settings.
type UnpackConfig struct {
	LogSkipped bool
	Include    []string
}

// ForUnpack returns configuration for unpacking.
func (l *Loader) ForUnpack() (c UnpackConfig) {
	sec := l.section("unpack")

	c.LogSkipped = sec.Key("log-skipped").MustBool(false)
	if k := sec.Key("include"); k.String() != "" {
		c.Include = k.Strings(",")
	}

	return
}

// ForUnpack calls Loader.ForUnpack on the DefaultLoader instance.
func ForUnpack() UnpackConfig {
	return DefaultLoader.ForUnpack()
}
