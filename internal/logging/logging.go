// Package logging configures zerolog for the ziptree command line.
package logging

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger based on verbosity level.
//
// Info is the default level so that skipped entries and per-file progress are visible; each additional level of
// verbosity enables Debug then Trace.
func Setup(w io.Writer, verbosity int) {
	switch verbosity {
	case 0:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
	}).With().Timestamp().Logger()

	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", verbosity).Msg("logger initialized")
}

// Prefix creates a consistent prefix for all file-based commands to use.
//
// i and n are the one-based ordinal and expected count.
func Prefix(i, n int, name string) string {
	return fmt.Sprintf(`[%d/%d] "%s"`, i, n, TruncateRightWithSuffix(filepath.Base(name), 30, "..."))
}

// WithPrefixLogger creates a new logger with the given prefix and attaches it to the returned context.
//
// Retrieve the logger with zerolog.Ctx.
func WithPrefixLogger(ctx context.Context, prefix string) context.Context {
	return log.With().Str("file", prefix).Logger().WithContext(ctx)
}

// TruncateRightWithSuffix keeps the first n runes of text and only appends the suffix if truncation happens.
func TruncateRightWithSuffix(text string, n int, suffix string) string {
	if n <= 0 {
		return suffix
	}

	rs := make([]rune, 0, n)
	for _, r := range text {
		if len(rs) == n {
			return string(rs) + suffix
		}

		rs = append(rs, r)
	}

	return string(rs)
}
