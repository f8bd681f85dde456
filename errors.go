package ziptree

import (
	"errors"
	"fmt"
)

// Kind classifies the failure that aborted a pack or unpack operation.
type Kind int

const (
	// KindOpen means the archive, a member file, or an archive entry could not be created or opened.
	KindOpen Kind = iota + 1
	// KindIO means a read or write failed mid-transfer.
	KindIO
	// KindUnsafePath means an entry would resolve outside of its root directory.
	KindUnsafePath
	// KindClose means the archive could not be finalised.
	KindClose
)

var (
	ErrOpen       = errors.New("open failure")
	ErrIO         = errors.New("i/o failure")
	ErrUnsafePath = errors.New("unsafe path")
	ErrClose      = errors.New("close failure")
)

func (k Kind) sentinel() error {
	switch k {
	case KindOpen:
		return ErrOpen
	case KindIO:
		return ErrIO
	case KindUnsafePath:
		return ErrUnsafePath
	case KindClose:
		return ErrClose
	default:
		return nil
	}
}

func (k Kind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by all pack and unpack operations.
//
// Use errors.Is with ErrOpen, ErrIO, ErrUnsafePath, or ErrClose to test for a specific Kind.
type Error struct {
	Kind Kind
	// Path is the filesystem path or archive entry name that the operation was working on.
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (path=%s)", e.Kind, e.Path)
	}

	return fmt.Sprintf("%s (path=%s): %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if err := e.Kind.sentinel(); err != nil {
		errs = append(errs, err)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}
