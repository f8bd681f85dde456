package cmd

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/ziptree"
	"github.com/nguyengg/ziptree/internal/config"
	"github.com/nguyengg/ziptree/internal/logging"
	"github.com/nguyengg/ziptree/internal/progress"
	"github.com/nguyengg/ziptree/internal/remote"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

type Ziptree struct {
	Verbose []bool `short:"v" long:"verbose" description:"show more logs; repeat for even more"`
	Profile string `long:"profile" description:"the AWS profile to use for s3:// locations; takes precedence over .ziptree setting"`
	Pack    Pack   `command:"pack" alias:"p" description:"pack a directory into a zip archive"`
	Unpack  Unpack `command:"unpack" alias:"u" description:"unpack a zip archive into a directory"`
}

func NewParser() (*flags.Parser, error) {
	opts := &Ziptree{}

	p := flags.NewNamedParser("ziptree", flags.Default)
	if _, err := p.AddGroup("Global Options", "", opts); err != nil {
		return nil, err
	}

	p.CommandHandler = func(command flags.Commander, args []string) error {
		logging.Setup(os.Stderr, len(opts.Verbose))
		config.DefaultLoader.Profile = opts.Profile

		if command == nil {
			return nil
		}

		return command.Execute(args)
	}

	return p, nil
}

// loadConfig loads the nearest .ziptree file; failure to find one is not an error.
func loadConfig(ctx context.Context) error {
	name, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if name != "" {
		zerolog.Ctx(ctx).Debug().Str("path", name).Msg("loaded config")
	}

	return nil
}

func newRemoteClient(ctx context.Context) (*remote.Client, error) {
	client, err := config.NewS3Client(ctx, func(options *s3.Options) {
		// without this, getting a bunch of WARN message below:
		// WARN Response has no supported checksum. Not validating response payload.
		options.DisableLogOutputChecksumValidationSkipped = true
	})
	if err != nil {
		return nil, err
	}

	cfg := config.ForS3()
	return &remote.Client{
		S3:                  client,
		Concurrency:         cfg.Concurrency,
		ExpectedBucketOwner: cfg.ExpectedBucketOwner,
		Logger:              zerolog.Ctx(ctx),
	}, nil
}

// newReporter uses a progress bar if stderr is a terminal, or throttled logging otherwise.
func newReporter(ctx context.Context, description, verb string, n int, size int64) ziptree.ProgressReporter {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return progress.NewBarReporter(progress.DefaultBytes(os.Stderr, size, description), n)
	}

	return progress.NewLogReporter(zerolog.Ctx(ctx), verb, 5*time.Second)
}
