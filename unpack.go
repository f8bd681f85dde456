package ziptree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nguyengg/ziptree/archive"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// UnpackOptions customises UnpackFile and UnpackFrom.
type UnpackOptions struct {
	// Filter receives the slash-separated name of each archive entry (see archive.EntryInfo.SlashName) and decides
	// whether it is extracted. Directories have a trailing "/".
	//
	// Default to IncludeAll. Filter is only consulted for entries that passed the safety check.
	Filter Filter

	// LogSkipped logs every entry rejected by Filter.
	LogSkipped bool

	// BufferSize is the length of the buffer used to copy entries to files.
	//
	// Default to DefaultBufferSize.
	BufferSize int

	// ProgressReporter if given is called as entries are extracted.
	ProgressReporter ProgressReporter

	// Logger receives diagnostic messages. Default to the global zerolog logger.
	Logger *zerolog.Logger
}

func newUnpackOptions(optFns []func(*UnpackOptions)) *UnpackOptions {
	opts := &UnpackOptions{
		Filter:     IncludeAll,
		BufferSize: DefaultBufferSize,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	if opts.Filter == nil {
		opts.Filter = IncludeAll
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Logger == nil {
		opts.Logger = &log.Logger
	}

	return opts
}

// Unpack extracts every entry of the named archive into dir.
func Unpack(ctx context.Context, src, dir string) error {
	return UnpackFile(ctx, src, dir, func(opts *UnpackOptions) {
		opts.LogSkipped = true
	})
}

// UnpackWithFilter extracts the entries of the named archive that are accepted by filter into dir.
func UnpackWithFilter(ctx context.Context, src, dir string, filter Filter, logSkipped bool) error {
	return UnpackFile(ctx, src, dir, func(opts *UnpackOptions) {
		opts.Filter = filter
		opts.LogSkipped = logSkipped
	})
}

// UnpackFile extracts the named archive into dir, creating dir if necessary.
//
// Every entry is checked for safety before anything is written: if any entry would resolve outside of dir, the whole
// operation fails with ErrUnsafePath and dir is left untouched. Existing files are overwritten. Files extracted before
// a subsequent failure are not removed.
func UnpackFile(ctx context.Context, src, dir string, optFns ...func(*UnpackOptions)) error {
	return newUnpackOptions(optFns).unpack(ctx, src, dir, func() (archive.Reader, error) {
		return archive.OpenZipFile(src)
	})
}

// UnpackFrom is a variant of UnpackFile that reads the archive of the given size from r.
func UnpackFrom(ctx context.Context, r io.ReaderAt, size int64, dir string, optFns ...func(*UnpackOptions)) error {
	return newUnpackOptions(optFns).unpack(ctx, "", dir, func() (archive.Reader, error) {
		return archive.NewZipReader(r, size)
	})
}

// unpack verifies then extracts the archive.
//
// open is called once per pass; each Reader is closed before the next is opened.
func (opts *UnpackOptions) unpack(ctx context.Context, name, dir string, open func() (archive.Reader, error)) error {
	dir = filepath.Clean(dir)

	if err := opts.checkSafe(ctx, name, dir, open); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return &Error{Kind: KindOpen, Path: dir, Err: fmt.Errorf("create destination directory error: %w", err)}
	}

	buf := make([]byte, opts.BufferSize)
	return opts.walk(ctx, name, dir, open, func(r archive.Reader, e *archive.EntryInfo, target string) error {
		if !opts.Filter(e.SlashName()) {
			if opts.LogSkipped {
				opts.Logger.Info().Str("name", e.Name).Msg("skipped entry")
			}
			return nil
		}

		return opts.extract(ctx, r, e, target, buf)
	})
}

// checkSafe reads every entry of a newly opened Reader and fails on the first one that would land outside dir.
func (opts *UnpackOptions) checkSafe(ctx context.Context, name, dir string, open func() (archive.Reader, error)) error {
	return opts.walk(ctx, name, dir, open, nil)
}

// walk drives the cursor of a newly opened Reader, calling fn if not nil on every safe entry.
//
// An unsafe entry aborts the walk before fn is called.
func (opts *UnpackOptions) walk(ctx context.Context, name, dir string, open func() (archive.Reader, error), fn func(archive.Reader, *archive.EntryInfo, string) error) error {
	r, err := open()
	if err != nil {
		opts.Logger.Warn().Err(err).Str("path", name).Msg("open archive failed")
		return &Error{Kind: KindOpen, Path: name, Err: fmt.Errorf("open archive error: %w", err)}
	}
	defer r.Close()

	for r.HasMore() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		e, err := r.OpenCurrentEntry()
		if err != nil {
			opts.Logger.Warn().Err(err).Str("path", name).Msg("open current entry failed")
			return &Error{Kind: KindOpen, Path: name, Err: fmt.Errorf("open current entry error: %w", err)}
		}

		target, ok := resolve(dir, e)
		if !ok {
			opts.Logger.Warn().Str("name", e.Name).Str("dir", dir).Msg("found unsafe entry")
			return &Error{Kind: KindUnsafePath, Path: e.Name}
		}

		if fn != nil {
			if err = fn(r, e, target); err != nil {
				return err
			}
		}

		if err = r.AdvanceToNextEntry(); err != nil {
			opts.Logger.Warn().Err(err).Str("name", e.Name).Msg("advance to next entry failed")
			return &Error{Kind: KindIO, Path: e.Name, Err: fmt.Errorf("advance to next entry error: %w", err)}
		}
	}

	return nil
}

// resolve returns the path that the entry would be extracted to.
//
// Returns false if the entry is unsafe or the resolved path is not inside dir.
func resolve(dir string, e *archive.EntryInfo) (string, bool) {
	if e.IsUnsafe() {
		return "", false
	}

	target := filepath.Join(dir, filepath.FromSlash(e.Path))
	rel, err := filepath.Rel(dir, target)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}

	return target, true
}

// extract writes the current entry to target.
//
// Directories are created with their intermediate components. Files are truncated if they already exist, and their
// modification time is restored if the archive recorded one.
func (opts *UnpackOptions) extract(ctx context.Context, r archive.Reader, e *archive.EntryInfo, target string, buf []byte) error {
	if e.IsDir {
		if err := os.MkdirAll(target, 0755); err != nil {
			return &Error{Kind: KindOpen, Path: target, Err: fmt.Errorf("create directory error: %w", err)}
		}

		if opts.ProgressReporter != nil {
			opts.ProgressReporter(e.Name, target, 0, true)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return &Error{Kind: KindOpen, Path: target, Err: fmt.Errorf("create parent directories error: %w", err)}
	}

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return &Error{Kind: KindOpen, Path: target, Err: fmt.Errorf("create file error: %w", err)}
	}

	src, err := r.ReadCurrentEntry()
	if err != nil {
		_ = dst.Close()
		return &Error{Kind: KindOpen, Path: e.Name, Err: fmt.Errorf("open entry error: %w", err)}
	}

	err = copyWithProgress(ctx, dst, src, buf, opts.ProgressReporter, e.Name, target)
	if _, cerr := src.Close(), dst.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		opts.Logger.Warn().Err(err).Str("name", e.Name).Str("path", target).Msg("extract entry failed")
		return &Error{Kind: KindIO, Path: target, Err: fmt.Errorf("extract entry (name=%s) error: %w", e.Name, err)}
	}

	if !e.Modified.IsZero() {
		if err = os.Chtimes(target, time.Time{}, e.Modified); err != nil {
			opts.Logger.Debug().Err(err).Str("path", target).Msg("restore modification time failed")
		}
	}

	return nil
}
