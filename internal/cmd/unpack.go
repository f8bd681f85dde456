package cmd

import (
	"context"
	"fmt"
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

type Unpack struct {
	LogSkipped bool     `long:"log-skipped" description:"log every entry that is not extracted because of --include"`
	Include    []string `short:"i" long:"include" description:"extract only files matching this glob; patterns without '/' match base names" value-name:"GLOB"`
	Args       struct {
		Src string         `positional-arg-name:"src" description:"the archive to be unpacked, either a local path or s3://bucket/key" required:"yes"`
		Dst flags.Filename `positional-arg-name:"dst" description:"the directory to unpack into; created if it does not exist" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *Unpack) Execute(args []string) (err error) {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	src, dst := c.Args.Src, string(c.Args.Dst)
	ctx = logging.WithPrefixLogger(ctx, logging.Prefix(1, 1, src))
	logger := zerolog.Ctx(ctx)

	if err = loadConfig(ctx); err != nil {
		return err
	}

	cfg := config.ForUnpack()
	filter, err := includeFilter(append(cfg.Include, c.Include...))
	if err != nil {
		return err
	}

	if remote.IsURI(src) {
		name, err := c.download(ctx, src)
		if err != nil {
			logger.Error().Err(err).Msg("download failed")
			return err
		}
		defer os.Remove(name)

		src = name
	}

	var pr ziptree.ProgressReporter
	if n, size, err := progress.CountArchiveContents(ctx, src, filter); err == nil {
		pr = newReporter(ctx, "unpacking", "unpacked", n, size)
	}

	logger.Info().Str("dst", dst).Msg("start unpacking")

	if err = ziptree.UnpackFile(ctx, src, dst, func(opts *ziptree.UnpackOptions) {
		opts.Filter = filter
		opts.LogSkipped = c.LogSkipped || cfg.LogSkipped
		opts.ProgressReporter = pr
		opts.Logger = logger
	}); err != nil {
		logger.Error().Err(err).Msg("unpack failed")
		return err
	}

	logger.Info().Str("dst", dst).Msg("done unpacking")
	return nil
}

// includeFilter accepts directories and files matching any of the patterns.
//
// Directories are always accepted so that the parents of included files are created. Returns nil if there are no
// patterns.
func includeFilter(patterns []string) (ziptree.Filter, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	m, err := ziptree.MatchGlob("", patterns...)
	if err != nil {
		return nil, err
	}

	return func(name string) bool {
		return strings.HasSuffix(name, "/") || m(name)
	}, nil
}

// download saves the remote archive to a temporary file and returns its name.
func (c *Unpack) download(ctx context.Context, src string) (string, error) {
	u, err := remote.ParseURI(src)
	if err != nil {
		return "", err
	}

	client, err := newRemoteClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create s3 client error: %w", err)
	}

	f, err := os.CreateTemp("", "ziptree-*.zip")
	if err != nil {
		return "", fmt.Errorf("create temporary archive error: %w", err)
	}

	_, err = client.Download(ctx, u, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}
