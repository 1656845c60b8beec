package composite

import (
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/eyecat/mrjob/core"
)

// FS dispatches filesystem operations to an ordered registry of backends.
// The zero value is not usable; construct with New.
type FS struct {
	filesystems []core.Filesystem
	log         zerolog.Logger

	// extensions memoizes name -> bound core.Extender so repeated
	// extension lookups do not re-scan the registry.
	extensions sync.Map
}

// Option configures an FS at construction time.
type Option func(*FS)

// WithLogger attaches a logger. Fallbacks from one backend to the next
// are logged at debug level. The default logger discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *FS) { c.log = log }
}

// New builds a composite filesystem over the given backends. The slice
// order is the trial order for every operation and the tie-break for
// both "first successful backend" and "first failure to report". The
// registry is copied and immutable thereafter; backend lifetime is
// managed by the caller (but see Close).
func New(filesystems []core.Filesystem, opts ...Option) *FS {
	c := &FS{
		filesystems: append([]core.Filesystem(nil), filesystems...),
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// dispatch runs fn against each backend claiming path, in registry
// order, and returns the first success. The first recoverable failure is
// recorded and re-returned if no candidate succeeds; a non-recoverable
// failure aborts the scan. With zero candidates (or none that failed
// recoverably) the result is an *fs.PathError wrapping
// core.ErrUnhandledPath.
func dispatch[T any](c *FS, op, path string, fn func(core.Filesystem) (T, error)) (T, error) {
	var zero T
	var first error

	for _, fsys := range c.filesystems {
		if !fsys.CanHandle(path) {
			continue
		}

		v, err := fn(fsys)
		if err == nil {
			return v, nil
		}
		if !core.IsRecoverable(err) {
			return zero, err
		}

		c.log.Debug().
			Str("fs", fsys.Name()).
			Str("op", op).
			Str("path", path).
			Err(err).
			Msg("backend failed, trying next")

		if first == nil {
			first = err
		}
	}

	if first != nil {
		return zero, first
	}
	return zero, &fs.PathError{Op: op, Path: path, Err: core.ErrUnhandledPath}
}

// do is dispatch for operations with no result value.
func (c *FS) do(op, path string, fn func(core.Filesystem) error) error {
	_, err := dispatch(c, op, path, func(fsys core.Filesystem) (struct{}, error) {
		return struct{}{}, fn(fsys)
	})
	return err
}

// CanHandle reports whether any backend in the registry claims path.
func (c *FS) CanHandle(path string) bool {
	for _, fsys := range c.filesystems {
		if fsys.CanHandle(path) {
			return true
		}
	}
	return false
}

// List recursively lists all files matching glob on the first capable
// backend that succeeds.
func (c *FS) List(glob string) ([]string, error) {
	return dispatch(c, "list", glob, func(fsys core.Filesystem) ([]string, error) {
		return fsys.List(glob)
	})
}

// Size returns the total byte size of all files matching glob.
func (c *FS) Size(glob string) (int64, error) {
	return dispatch(c, "size", glob, func(fsys core.Filesystem) (int64, error) {
		return fsys.Size(glob)
	})
}

// Exists reports whether glob matches at least one path.
func (c *FS) Exists(glob string) (bool, error) {
	return dispatch(c, "exists", glob, func(fsys core.Filesystem) (bool, error) {
		return fsys.Exists(glob)
	})
}

// Checksum returns the digest of the single file matching glob. The
// algorithm is whatever the chosen backend documents (MD5 of content for
// every backend in this module).
func (c *FS) Checksum(glob string) (string, error) {
	return dispatch(c, "checksum", glob, func(fsys core.Filesystem) (string, error) {
		return fsys.Checksum(glob)
	})
}

// Join joins dir and name using the path rules of the first backend that
// claims dir.
func (c *FS) Join(dir, name string) (string, error) {
	return dispatch(c, "join", dir, func(fsys core.Filesystem) (string, error) {
		return fsys.Join(dir, name), nil
	})
}

// Mkdir creates the given directory and any missing parents. Idempotent.
func (c *FS) Mkdir(path string) error {
	return c.do("mkdir", path, func(fsys core.Filesystem) error {
		return fsys.Mkdir(path)
	})
}

// Remove recursively deletes everything matching glob. Idempotent when
// nothing matches.
func (c *FS) Remove(glob string) error {
	return c.do("remove", glob, func(fsys core.Filesystem) error {
		return fsys.Remove(glob)
	})
}

// Touch creates an empty file at path, failing if a non-empty file
// already exists there.
func (c *FS) Touch(path string) error {
	return c.do("touch", path, func(fsys core.Filesystem) error {
		return fsys.Touch(path)
	})
}

// Open opens the named file for streaming read on the first capable
// backend that succeeds.
func (c *FS) Open(path string) (io.ReadCloser, error) {
	return dispatch(c, "open", path, func(fsys core.Filesystem) (io.ReadCloser, error) {
		return fsys.Open(path)
	})
}

// ReadLines opens path and returns a lazy, forward-only line reader over
// its content. Opening follows the normal dispatch rules; once a backend
// has been chosen, errors raised mid-stream surface through the reader
// with no further fallback, since switching backends mid-stream cannot
// preserve the read position.
func (c *FS) ReadLines(path string) (*LineReader, error) {
	rc, err := c.Open(path)
	if err != nil {
		return nil, err
	}
	return NewLineReader(rc), nil
}

// Extension resolves a named backend-specific operation outside the
// Filesystem contract. The first backend (in registry order) exposing
// name is bound and reused for all future lookups of that name; there is
// no fallback on failure. An unknown name is a configuration error
// wrapping core.ErrUnknownExtension.
func (c *FS) Extension(name string) (any, error) {
	if v, ok := c.extensions.Load(name); ok {
		ext, _ := v.(core.Extender).Extension(name)
		return ext, nil
	}

	for _, fsys := range c.filesystems {
		ex, ok := fsys.(core.Extender)
		if !ok {
			continue
		}
		if v, ok := ex.Extension(name); ok {
			// Racing first lookups may both store; registry order
			// makes the stored binding identical either way.
			c.extensions.Store(name, ex)
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrUnknownExtension, name)
}

// Close closes every backend that implements io.Closer, collecting all
// failures. Backends that hold no resources (local, memory) are skipped.
func (c *FS) Close() error {
	var result *multierror.Error
	for _, fsys := range c.filesystems {
		cl, ok := fsys.(io.Closer)
		if !ok {
			continue
		}
		if err := cl.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s: %w", fsys.Name(), err))
		}
	}
	return result.ErrorOrNil()
}
