package archive

import (
	"archive/zip"
	"io"

	"github.com/klauspost/compress/flate"
)

type zipReader struct {
	files   []*zip.File
	i       int
	current *EntryInfo
	closer  io.Closer // non-nil only if the Reader owns the source.
}

var _ Reader = &zipReader{}

// OpenZipFile opens the named zip archive for reading.
//
// The file is closed when the Reader is closed.
func OpenZipFile(name string) (Reader, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		return nil, err
	}
	rc.RegisterDecompressor(zip.Deflate, flate.NewReader)

	return &zipReader{files: rc.File, closer: rc}, nil
}

// NewZipReader reads a zip archive of the given size from src.
//
// Closing the Reader does not close src.
func NewZipReader(src io.ReaderAt, size int64) (Reader, error) {
	zr, err := zip.NewReader(src, size)
	if err != nil {
		return nil, err
	}
	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)

	return &zipReader{files: zr.File}, nil
}

func (r *zipReader) HasMore() bool {
	return r.i < len(r.files)
}

func (r *zipReader) OpenCurrentEntry() (*EntryInfo, error) {
	if !r.HasMore() {
		return nil, ErrExhausted
	}

	f := r.files[r.i]
	r.current = NewEntryInfo(f.Name, f.Modified, int64(f.UncompressedSize64))
	return r.current, nil
}

func (r *zipReader) ReadCurrentEntry() (io.ReadCloser, error) {
	if r.current == nil {
		return nil, ErrNoEntry
	}

	return r.files[r.i].Open()
}

func (r *zipReader) AdvanceToNextEntry() error {
	if !r.HasMore() {
		return ErrExhausted
	}

	r.i++
	r.current = nil
	return nil
}

func (r *zipReader) Close() (err error) {
	if r.closer != nil {
		err = r.closer.Close()
		r.closer = nil
	}

	r.files, r.i, r.current = nil, 0, nil
	return
}
