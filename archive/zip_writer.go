package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

// ZipOptions customises the zip Writer.
type ZipOptions struct {
	// Level is the deflate level of file entries; see [flate.NewWriter].
	//
	// Default to flate.DefaultCompression. Directory entries are always stored.
	Level int
}

type zipWriter struct {
	zw     *zip.Writer
	fw     io.Writer // nil unless an entry is open.
	closer io.Closer // non-nil only if the Writer owns the destination.
}

var _ Writer = &zipWriter{}

// NewZipWriter returns a Writer that writes a zip archive to dst.
//
// Closing the Writer does not close dst.
func NewZipWriter(dst io.Writer, optFns ...func(*ZipOptions)) Writer {
	opts := &ZipOptions{Level: flate.DefaultCompression}
	for _, fn := range optFns {
		fn(opts)
	}

	zw := zip.NewWriter(dst)
	level := opts.Level
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	return &zipWriter{zw: zw}
}

// CreateZipFile creates the named file and returns a Writer that owns it.
//
// The file is truncated if it already exists. Closing the Writer closes the file.
func CreateZipFile(name string, optFns ...func(*ZipOptions)) (Writer, error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, err
	}

	w := NewZipWriter(f, optFns...).(*zipWriter)
	w.closer = f
	return w, nil
}

func (w *zipWriter) OpenEntry(name string, modified time.Time) error {
	if w.fw != nil {
		return fmt.Errorf("open entry (name=%s) error: previous entry was not closed", name)
	}

	fh := &zip.FileHeader{
		Name:     name,
		Modified: modified,
		Method:   zip.Deflate,
	}
	if strings.HasSuffix(name, "/") {
		fh.Method = zip.Store
	}

	fw, err := w.zw.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf("create zip header (name=%s) error: %w", name, err)
	}

	w.fw = fw
	return nil
}

func (w *zipWriter) Write(p []byte) (int, error) {
	if w.fw == nil {
		return 0, ErrNoEntry
	}

	return w.fw.Write(p)
}

// CloseEntry marks the current entry as finished and flushes buffered archive bytes to the destination.
//
// zip.Writer only finalises an entry when the next one is created or the archive is closed; flushing here surfaces
// destination write errors at the entry that caused them.
func (w *zipWriter) CloseEntry() error {
	if w.fw == nil {
		return ErrNoEntry
	}

	w.fw = nil
	return w.zw.Flush()
}

func (w *zipWriter) Close() error {
	w.fw = nil

	err := w.zw.Close()
	if w.closer != nil {
		if cerr := w.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		w.closer = nil
	}

	return err
}
