// Package archive provides the entry-level codec that ziptree streams bytes through.
//
// A Writer creates an archive one entry at a time while a Reader exposes a forward-only cursor over the entries of an
// existing archive. Neither is safe for concurrent use.
package archive

import (
	"errors"
	"io"
	"time"
)

// ErrNoEntry is returned when an operation requires an open entry but there is none.
var ErrNoEntry = errors.New("no open entry")

// ErrExhausted is returned when the Reader's cursor has moved past the last entry.
var ErrExhausted = errors.New("no more entries")

// Writer adds entries to an archive being created.
type Writer interface {
	// OpenEntry starts a new entry with the given name.
	//
	// A name ending in "/" denotes a directory entry which must not be written to. The previous entry must have
	// been closed with CloseEntry.
	OpenEntry(name string, modified time.Time) error

	// Write writes p to the current entry.
	io.Writer

	// CloseEntry finishes the current entry.
	CloseEntry() error

	// Close finalises the archive. If the Writer owns its destination (see CreateZipFile), the destination is closed
	// as well even if finalising fails.
	Close() error
}

// Reader iterates over the entries of an archive.
//
// The cursor starts at the first entry and only ever moves forward. After Close, HasMore returns false.
type Reader interface {
	// HasMore returns true if the cursor points at an entry.
	HasMore() bool

	// OpenCurrentEntry describes the entry at the cursor.
	OpenCurrentEntry() (*EntryInfo, error)

	// ReadCurrentEntry opens the contents of the entry previously opened with OpenCurrentEntry.
	//
	// Caller must close the returned io.ReadCloser before advancing.
	ReadCurrentEntry() (io.ReadCloser, error)

	// AdvanceToNextEntry moves the cursor to the next entry.
	AdvanceToNextEntry() error

	// Close releases the archive.
	Close() error
}
