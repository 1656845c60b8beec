package core

import "io"

// Filesystem is the full capability contract a storage backend satisfies.
// It is composed of three sub-interfaces covering path ownership, read
// operations, and write operations.
//
// All path arguments accept glob patterns where the operation is
// glob-capable (List, Size, Exists, Remove, Checksum). A non-matching
// glob is not an error for List, Size, or Exists; operations that require
// an existing target (Remove is idempotent, but Checksum and Open are
// not) fail with an *OpError when nothing matches.
type Filesystem interface {
	PathFS
	ReadFS
	WriteFS
}

// PathFS covers path ownership and path construction.
type PathFS interface {
	// Name returns a short stable identifier for the backend
	// (e.g. "local", "s3", "sftp"). It is used to attribute failures
	// and in log output.
	Name() string

	// CanHandle reports whether this backend owns the given path.
	// It must be a cheap, side-effect-free predicate: typically a
	// scheme check against the path.
	CanHandle(path string) bool

	// Join joins a directory and a name using the backend's own path
	// rules (POSIX separators for URIs, OS rules for local paths).
	Join(dir, name string) string
}

// ReadFS covers operations that do not modify the backend.
type ReadFS interface {
	// List recursively lists all files matching glob. Directory
	// entries are omitted so that backends without a directory
	// concept (object stores) behave identically to those with one.
	// A non-matching glob yields an empty slice and a nil error.
	List(glob string) ([]string, error)

	// Size returns the total byte size of all files matching glob.
	// A non-matching glob yields zero.
	Size(glob string) (int64, error)

	// Exists reports whether glob matches at least one path.
	Exists(glob string) (bool, error)

	// Checksum returns a hex-encoded digest of the single file
	// matching glob. The digest algorithm is backend-defined and must
	// be documented; the default across backends in this module is an
	// MD5 hash of the file's content. Zero or multiple matches fail
	// with an *OpError.
	Checksum(glob string) (string, error)

	// Open opens the named file for streaming read. The path is
	// literal, not a glob. The returned stream is a single forward
	// pass; re-reading requires a new Open call.
	Open(path string) (io.ReadCloser, error)
}

// WriteFS covers operations that modify the backend.
type WriteFS interface {
	// Mkdir creates the given directory and any missing parents.
	// It is idempotent: an existing directory is not an error.
	// Backends with virtual directories may treat this as a no-op.
	Mkdir(path string) error

	// Remove recursively deletes everything matching glob.
	// It is idempotent: a non-matching glob is not an error.
	Remove(glob string) error

	// Touch creates an empty file at path. It fails with an *OpError
	// if a non-empty file already exists there; an existing empty
	// file is truncated in place.
	Touch(path string) error
}

// Extender is an optional backend capability exposing named operations
// outside the Filesystem contract. It exists for backward-compatible
// access to backend-specific extras and carries no fallback semantics.
//
// Extension returns the implementation bound to name, or false when the
// backend does not expose that name. The returned value is typically a
// func value the caller type-asserts:
//
//	v, err := fsys.Extension("write_file")
//	write := v.(func(path string, data []byte) error)
type Extender interface {
	Extension(name string) (any, bool)
}
