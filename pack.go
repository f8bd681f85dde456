package ziptree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/nguyengg/ziptree/archive"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PackOptions customises PackTo and PackFile.
type PackOptions struct {
	// IncludeHidden includes entries whose base name starts with ".".
	//
	// By default, hidden entries are excluded. The hidden-file rule and Filter must both accept an entry for it to be
	// included.
	IncludeHidden bool

	// Filter is an additional Filter that receives the host path of each enumerated entry.
	Filter Filter

	// Prune stops descending into directories that are rejected by IncludeHidden or Filter; see Walker.Prune.
	Prune bool

	// Paths is an explicit list of paths relative to the source root to pack.
	//
	// If non-empty, the source root is not walked and neither IncludeHidden nor Filter is applied; the entries are
	// packed in the given order. Paths may use either "/" or the host separator. Absolute paths and paths that leave
	// the source root fail with ErrUnsafePath; they are never re-rooted.
	Paths []string

	// Accessor provides access to the files being packed. Default to DirectFileAccessor.
	Accessor FileAccessor

	// BufferSize is the length of the buffer used to copy files into the archive.
	//
	// Default to DefaultBufferSize.
	BufferSize int

	// Level is the deflate level; see [flate.NewWriter]. Default to flate.DefaultCompression.
	Level int

	// ProgressReporter if given is called as files are added to the archive.
	ProgressReporter ProgressReporter

	// Logger receives diagnostic messages. Default to the global zerolog logger.
	Logger *zerolog.Logger
}

func newPackOptions(optFns []func(*PackOptions)) *PackOptions {
	opts := &PackOptions{
		BufferSize: DefaultBufferSize,
		Level:      flate.DefaultCompression,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	if opts.Accessor == nil {
		opts.Accessor = DirectFileAccessor{}
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Logger == nil {
		opts.Logger = &log.Logger
	}

	return opts
}

func (opts *PackOptions) zipOptions(o *archive.ZipOptions) {
	o.Level = opts.Level
}

// Pack packs the source directory into the named archive file.
//
// Hidden entries are included only if includeHidden is true.
func Pack(ctx context.Context, root, name string, includeHidden bool) error {
	return PackFile(ctx, root, name, func(opts *PackOptions) {
		opts.IncludeHidden = includeHidden
	})
}

// PackWithFilter packs the source directory into the named archive file, keeping only non-hidden entries accepted by
// filter.
func PackWithFilter(ctx context.Context, root, name string, filter Filter) error {
	return PackFile(ctx, root, name, func(opts *PackOptions) {
		opts.Filter = filter
	})
}

// PackSelected packs exactly the given paths (relative to the source directory) into the archive written to dst.
//
// No filtering is applied, so hidden paths are packed if listed. Each path's parent directories are not added unless
// they are listed too. An empty list packs the whole directory with the default hidden-file rule.
func PackSelected(ctx context.Context, root string, paths []string, dst io.Writer) error {
	return PackTo(ctx, root, dst, func(opts *PackOptions) {
		opts.Paths = paths
	})
}

// PackFile packs the source directory into the named archive file, creating or truncating it.
//
// Partially written archives are not removed upon failure.
func PackFile(ctx context.Context, root, name string, optFns ...func(*PackOptions)) error {
	opts := newPackOptions(optFns)

	if err := opts.checkRoot(root); err != nil {
		return err
	}

	w, err := archive.CreateZipFile(name, opts.zipOptions)
	if err != nil {
		opts.Logger.Warn().Err(err).Str("path", name).Msg("create archive failed")
		return &Error{Kind: KindOpen, Path: name, Err: fmt.Errorf("create archive error: %w", err)}
	}

	// the archive is skipped if it is created inside root.
	self, _ := os.Stat(name)
	return opts.pack(ctx, root, name, w, self)
}

// PackTo packs the source directory into the archive written to dst.
//
// dst is not closed, but all archive bytes have been written to it upon a successful return.
func PackTo(ctx context.Context, root string, dst io.Writer, optFns ...func(*PackOptions)) error {
	opts := newPackOptions(optFns)

	if err := opts.checkRoot(root); err != nil {
		return err
	}

	var self os.FileInfo
	if f, ok := dst.(*os.File); ok {
		self, _ = f.Stat()
	}

	return opts.pack(ctx, root, "", archive.NewZipWriter(dst, opts.zipOptions), self)
}

func (opts *PackOptions) checkRoot(root string) error {
	if !opts.Accessor.DirectoryExists(root) {
		return &Error{Kind: KindOpen, Path: root, Err: errors.New("source root is not a directory")}
	}

	return nil
}

// pack adds all entries to w then closes it.
//
// w is closed on every path so that whatever was added is flushed, but any failure still fails the whole operation.
// If self is not nil, it describes the file that w writes to, and the file is never added to itself.
func (opts *PackOptions) pack(ctx context.Context, root, name string, w archive.Writer, self os.FileInfo) (err error) {
	root = filepath.Clean(root)

	defer func() {
		if cerr := w.Close(); cerr != nil {
			opts.Logger.Warn().Err(cerr).Str("path", name).Msg("close archive failed")
			if err == nil {
				err = &Error{Kind: KindClose, Path: name, Err: cerr}
			}
		}
	}()

	entries, err := opts.entries(ctx, root)
	if err != nil {
		return err
	}

	buf := make([]byte, opts.BufferSize)
	for _, e := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if self != nil && !e.IsDir && isSameFile(e.Path, self) {
			opts.Logger.Debug().Str("path", e.Path).Msg("skipped the archive being written")
			continue
		}

		if err = opts.addEntry(ctx, w, root, e, buf); err != nil {
			return err
		}
	}

	return nil
}

// EntryFilter returns the Filter used while walking the source root, which combines IncludeHidden and Filter.
//
// The result may be nil, which accepts everything.
func (opts *PackOptions) EntryFilter() Filter {
	if opts.IncludeHidden {
		return opts.Filter
	}

	return And(ExcludeHidden, opts.Filter)
}

// entries returns the explicit Paths if given, or the result of walking root.
func (opts *PackOptions) entries(ctx context.Context, root string) ([]DirectoryEntry, error) {
	if len(opts.Paths) == 0 {
		return Walker{Accessor: opts.Accessor, Filter: opts.EntryFilter(), Prune: opts.Prune}.Walk(ctx, root)
	}

	entries := make([]DirectoryEntry, len(opts.Paths))
	for i, p := range opts.Paths {
		if filepath.IsAbs(p) || !filepath.IsLocal(filepath.FromSlash(p)) {
			opts.Logger.Warn().Str("root", root).Str("path", p).Msg("selected path is not relative to source root")
			return nil, &Error{Kind: KindUnsafePath, Path: p, Err: errors.New("selected path must be local to source root")}
		}

		path := filepath.Join(root, filepath.FromSlash(p))
		entries[i] = DirectoryEntry{Path: path, IsDir: opts.Accessor.DirectoryExists(path)}
	}

	return entries, nil
}

func isSameFile(path string, self os.FileInfo) bool {
	fi, err := os.Stat(path)
	return err == nil && os.SameFile(fi, self)
}

// addEntry adds a single file or directory to the archive.
//
// The entry is closed even if copying the file fails so that the archive stays well-formed.
func (opts *PackOptions) addEntry(ctx context.Context, w archive.Writer, root string, e DirectoryEntry, buf []byte) error {
	name, err := RelativePath(root, e.Path, e.IsDir)
	if err != nil {
		opts.Logger.Warn().Err(err).Str("root", root).Str("path", e.Path).Msg("entry is outside source root")
		return err
	}

	if err = w.OpenEntry(name, opts.Accessor.LastModifiedTime(e.Path)); err != nil {
		opts.Logger.Warn().Err(err).Str("name", name).Msg("open archive entry failed")
		return &Error{Kind: KindOpen, Path: name, Err: err}
	}

	if e.IsDir {
		if opts.ProgressReporter != nil {
			opts.ProgressReporter(e.Path, name, 0, true)
		}
	} else {
		err = opts.addFile(ctx, w, e.Path, name, buf)
	}

	if cerr := w.CloseEntry(); cerr != nil {
		opts.Logger.Warn().Err(cerr).Str("name", name).Msg("close archive entry failed")
		if err == nil {
			err = &Error{Kind: KindIO, Path: name, Err: fmt.Errorf("close archive entry error: %w", cerr)}
		}
	}

	return err
}

func (opts *PackOptions) addFile(ctx context.Context, w io.Writer, path, name string, buf []byte) error {
	src, err := opts.Accessor.OpenForReading(path)
	if err != nil {
		opts.Logger.Warn().Err(err).Str("path", path).Msg("open file failed")
		return &Error{Kind: KindOpen, Path: path, Err: err}
	}
	defer src.Close()

	if err = copyWithProgress(ctx, w, src, buf, opts.ProgressReporter, path, name); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		opts.Logger.Warn().Err(err).Str("path", path).Str("name", name).Msg("add file to archive failed")
		return &Error{Kind: KindIO, Path: path, Err: fmt.Errorf("add file to archive (name=%s) error: %w", name, err)}
	}

	return nil
}
