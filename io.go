package ziptree

import (
	"context"
	"fmt"
	"io"
)

// DefaultBufferSize is the default size of the buffer that bytes are streamed through, which is 32 KiB.
const DefaultBufferSize = 32 * 1024

// CopyBufferWithContext is a custom implementation of io.CopyBuffer that is cancellable via context.
//
// Similar to io.CopyBuffer, if buf is nil, a new buffer of size DefaultBufferSize is created. Unlike io.CopyBuffer, it
// does not matter if src implements [io.WriterTo] or dst implements [io.ReaderFrom]; bytes always go through buf so
// memory use is bounded by len(buf) regardless of the input size.
//
// The context is checked for done status after every write.
func CopyBufferWithContext(ctx context.Context, dst io.Writer, src io.Reader, buf []byte) (written int64, err error) {
	if buf == nil {
		buf = make([]byte, DefaultBufferSize)
	}

	var nr, nw int
	for {
		nr, err = src.Read(buf)

		if nr > 0 {
			switch nw, err = dst.Write(buf[0:nr]); {
			case err != nil:
				return written, err
			case nw < 0 || nr < nw:
				return written, fmt.Errorf("invalid write: expected to write %d bytes, wrote %d bytes instead", nr, nw)
			case nw < nr:
				return written, io.ErrShortWrite
			}

			written += int64(nw)

			select {
			case <-ctx.Done():
				return written, ctx.Err()
			default:
			}
		}

		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

// ProgressReporter is called to provide update on packing or unpacking individual files.
//
//   - src: path of the file being read (host path when packing, entry name when unpacking)
//   - dst: path of the file being written (entry name when packing, host path when unpacking)
//   - written: number of bytes of the file that have been copied so far
//   - done: is true only when the file has been copied in its entirety
//
// The method is called at least once for every file; directories are reported once with done being true.
type ProgressReporter func(src, dst string, written int64, done bool)

// progressWriter adapts a ProgressReporter to be used with io.MultiWriter.
type progressWriter struct {
	pr       ProgressReporter
	src, dst string
	written  int64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	w.pr(w.src, w.dst, w.written, false)
	return len(p), nil
}

func (w *progressWriter) done() {
	w.pr(w.src, w.dst, w.written, true)
}

// copyWithProgress streams src to dst through buf, reporting to pr if it is not nil.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, buf []byte, pr ProgressReporter, srcName, dstName string) error {
	if pr == nil {
		_, err := CopyBufferWithContext(ctx, dst, src, buf)
		return err
	}

	w := &progressWriter{pr: pr, src: srcName, dst: dstName}
	if _, err := CopyBufferWithContext(ctx, io.MultiWriter(dst, w), src, buf); err != nil {
		return err
	}

	w.done()
	return nil
}
