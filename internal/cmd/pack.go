package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/ziptree"
	"github.com/nguyengg/ziptree/internal/config"
	"github.com/nguyengg/ziptree/internal/logging"
	"github.com/nguyengg/ziptree/internal/progress"
	"github.com/nguyengg/ziptree/internal/remote"
	"github.com/rs/zerolog"
)

type Pack struct {
	IncludeHidden bool     `long:"include-hidden" description:"include files and directories whose name starts with '.'"`
	Prune         bool     `long:"prune" description:"do not descend into excluded directories"`
	Exclude       []string `short:"x" long:"exclude" description:"exclude paths matching this glob; patterns without '/' match base names" value-name:"GLOB"`
	Level         *int     `short:"l" long:"level" description:"deflate level from -2 (huffman only) to 9 (best compression); default to .ziptree setting or -1 (default compression)"`
	BufferSize    int      `long:"buffer-size" description:"size of the copy buffer in bytes; default to .ziptree setting or 32 KiB"`
	Files         []string `short:"f" long:"file" description:"pack exactly this path relative to the source directory instead of walking it; can be repeated" value-name:"REL"`
	Args          struct {
		Src flags.Filename `positional-arg-name:"src" description:"the directory to be packed" required:"yes"`
		Dst string         `positional-arg-name:"dst" description:"the archive to create, either a local path or s3://bucket/key" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *Pack) Execute(args []string) (err error) {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	src, dst := string(c.Args.Src), c.Args.Dst
	ctx = logging.WithPrefixLogger(ctx, logging.Prefix(1, 1, src))
	logger := zerolog.Ctx(ctx)

	if err = loadConfig(ctx); err != nil {
		return err
	}

	optFns, err := c.options(ctx, src)
	if err != nil {
		return err
	}

	logger.Info().Str("dst", dst).Msg("start packing")

	if remote.IsURI(dst) {
		err = c.packRemote(ctx, src, dst, optFns)
	} else {
		err = ziptree.PackFile(ctx, src, dst, optFns...)
	}
	if err != nil {
		logger.Error().Err(err).Msg("pack failed")
		return err
	}

	logger.Info().Str("dst", dst).Msg("done packing")
	return nil
}

// options merges the command line flags with the [pack] section of .ziptree.
func (c *Pack) options(ctx context.Context, src string) ([]func(*ziptree.PackOptions), error) {
	cfg := config.ForPack()

	patterns := append(cfg.Exclude, c.Exclude...)
	var filter ziptree.Filter
	if len(patterns) != 0 {
		m, err := ziptree.MatchGlob(src, patterns...)
		if err != nil {
			return nil, err
		}
		filter = ziptree.Not(m)
	}

	opts := ziptree.PackOptions{
		IncludeHidden: c.IncludeHidden || cfg.IncludeHidden,
		Filter:        filter,
		Prune:         c.Prune || cfg.Prune,
		Paths:         c.Files,
		Level:         cfg.Level,
		BufferSize:    cfg.BufferSize,
		Logger:        zerolog.Ctx(ctx),
	}
	if c.Level != nil {
		opts.Level = *c.Level
	}
	if c.BufferSize > 0 {
		opts.BufferSize = c.BufferSize
	}

	if len(opts.Paths) == 0 {
		w := ziptree.Walker{Filter: opts.EntryFilter(), Prune: opts.Prune}
		n, size, err := progress.CountDirContents(ctx, src, w)
		if err != nil {
			// packing will report the same error.
			n, size = 0, -1
		}
		opts.ProgressReporter = newReporter(ctx, "packing", "packed", n, size)
	} else {
		opts.ProgressReporter = newReporter(ctx, "packing", "packed", len(opts.Paths), -1)
	}

	return []func(*ziptree.PackOptions){func(o *ziptree.PackOptions) {
		*o = opts
	}}, nil
}

// packRemote packs to a temporary file then uploads it.
func (c *Pack) packRemote(ctx context.Context, src, dst string, optFns []func(*ziptree.PackOptions)) error {
	u, err := remote.ParseURI(dst)
	if err != nil {
		return err
	}

	client, err := newRemoteClient(ctx)
	if err != nil {
		return fmt.Errorf("create s3 client error: %w", err)
	}

	f, err := os.CreateTemp("", "ziptree-*.zip")
	if err != nil {
		return fmt.Errorf("create temporary archive error: %w", err)
	}
	defer func(name string) {
		_, _ = f.Close(), os.Remove(name)
	}(f.Name())

	if err = ziptree.PackTo(ctx, src, f, optFns...); err != nil {
		return err
	}

	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind temporary archive error: %w", err)
	}

	return client.Upload(ctx, u, f)
}
