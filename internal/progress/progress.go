// Package progress provides ziptree.ProgressReporter implementations for the command line.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nguyengg/ziptree"
	"github.com/nguyengg/ziptree/archive"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// DefaultBytes is equivalent to progressbar.DefaultBytes but with higher progressbar.OptionThrottle.
func DefaultBytes(w io.Writer, maxBytes int64, description string, options ...progressbar.Option) *progressbar.ProgressBar {
	return progressbar.NewOptions64(maxBytes,
		append([]progressbar.Option{
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(10),
			progressbar.OptionThrottle(1 * time.Second),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				_, _ = fmt.Fprint(w, "\n")
			}),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetRenderBlankState(true)},
			options...)...)
}

// NewBarReporter creates a ziptree.ProgressReporter that adds bytes to the given progressbar.ProgressBar.
//
// n is the number of files expected; the bar is closed once n files have been reported done. Pass a non-positive n
// to leave the bar open.
func NewBarReporter(bar *progressbar.ProgressBar, n int) ziptree.ProgressReporter {
	var totalWritten int64
	var previousSrc string
	return func(src, dst string, written int64, done bool) {
		if previousSrc != src {
			totalWritten = 0
			previousSrc = src
		}

		if _, totalWritten = bar.Add64(written-totalWritten), written; done {
			if n--; n == 0 {
				_ = bar.Close()
			}
		}
	}
}

// NewLogReporter creates a ziptree.ProgressReporter that logs completed files at most once per interval.
//
// Every completed file is logged at Debug level regardless of interval.
func NewLogReporter(logger *zerolog.Logger, verb string, interval time.Duration) ziptree.ProgressReporter {
	sometimes := rate.Sometimes{Interval: interval}
	var i int
	var total uint64

	return func(src, dst string, written int64, done bool) {
		if !done {
			return
		}

		i++
		total += uint64(written)
		logger.Debug().Str("src", src).Str("dst", dst).Int64("size", written).Msg(verb)
		sometimes.Do(func() {
			logger.Info().Msgf(`%s %d files (%s) so far, latest "%s"`, verb, i, humanize.Bytes(total), dst)
		})
	}
}

// CountDirContents walks root the same way packing would and returns the number of entries that would be packed and
// the total size of the files among them.
func CountDirContents(ctx context.Context, root string, w ziptree.Walker) (n int, size int64, err error) {
	entries, err := w.Walk(ctx, root)
	if err != nil {
		return 0, 0, err
	}

	for _, e := range entries {
		n++
		if e.IsDir {
			continue
		}

		if fi, err := os.Stat(e.Path); err == nil {
			size += fi.Size()
		}
	}

	return
}

// CountArchiveContents returns the number of entries in the named archive that filter accepts and the total
// uncompressed size of the files among them.
//
// filter receives the same names as ziptree.UnpackOptions.Filter; nil accepts everything.
func CountArchiveContents(ctx context.Context, name string, filter ziptree.Filter) (n int, size int64, err error) {
	r, err := archive.OpenZipFile(name)
	if err != nil {
		return 0, 0, err
	}
	defer r.Close()

	if filter == nil {
		filter = ziptree.IncludeAll
	}

	for r.HasMore() {
		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		default:
		}

		e, err := r.OpenCurrentEntry()
		if err != nil {
			return 0, 0, err
		}

		if filter(e.SlashName()) {
			n++
			size += e.Size
		}

		if err = r.AdvanceToNextEntry(); err != nil {
			return 0, 0, err
		}
	}

	return
}
