package core

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotExist is returned when a file or directory does not exist.
	// Re-exported from io/fs for convenience.
	ErrNotExist = fs.ErrNotExist

	// ErrExist is returned when a file or directory already exists.
	// Re-exported from io/fs for convenience.
	ErrExist = fs.ErrExist

	// ErrPermission is returned when permission is denied.
	// Re-exported from io/fs for convenience.
	ErrPermission = fs.ErrPermission

	// ErrUnsupported is returned when an operation is not supported by
	// the backend (e.g. Touch on a read-only backend). Backends wrap it
	// in an *OpError so the dispatcher may fall through to the next
	// capable backend.
	ErrUnsupported = errors.New("operation not supported")

	// ErrUnhandledPath is the failure kind produced when no backend
	// claims a path. It is deliberately distinct from any individual
	// backend's failure so callers can tell "no owner" from "owner
	// failed". It surfaces wrapped in an *fs.PathError naming the
	// attempted operation and path.
	ErrUnhandledPath = errors.New("no filesystem can handle path")

	// ErrUnknownExtension is returned when no backend exposes a
	// requested extension name. It is a configuration error, not an
	// I/O failure, and never triggers fallback.
	ErrUnknownExtension = errors.New("unknown extension")
)

// OpError is the recoverable I/O failure class. A backend returns an
// *OpError to signal that it owns the path but could not complete the
// operation; the dispatcher responds by trying the next capable backend.
//
// Any error that is NOT an *OpError is treated as a programming or
// configuration error and aborts dispatch immediately.
type OpError struct {
	// FS is the Name() of the backend that failed.
	FS string
	// Op is the operation that failed ("list", "remove", ...).
	Op string
	// Path is the path or glob the operation was attempted on.
	Path string
	// Err is the underlying cause.
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.FS, e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// NewOpError wraps err as a recoverable failure attributed to the named
// backend. It returns nil when err is nil.
func NewOpError(fsName, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{FS: fsName, Op: op, Path: path, Err: err}
}

// IsRecoverable reports whether err is an I/O-class failure that permits
// fallback to another backend.
func IsRecoverable(err error) bool {
	var oe *OpError
	return errors.As(err, &oe)
}
