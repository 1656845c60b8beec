// Package composite routes filesystem operations across an ordered set of
// storage backends.
//
// A composite FS combines multiple core.Filesystem implementations (local
// disk, object storage, a remote host over SFTP, ...) so callers can issue
// path-based operations without knowing which backend owns a path. For
// every operation the dispatcher:
//
//  1. Filters backends by CanHandle(path), in registry order.
//  2. Attempts the operation on each capable backend in turn.
//  3. Returns the first success, short-circuiting the rest.
//  4. On a recoverable failure (*core.OpError) remembers the FIRST such
//     failure and continues; on any other failure aborts immediately.
//  5. When every candidate fails, re-returns the first recorded failure
//     verbatim, preserving the preferred backend's attribution and
//     message. When no backend claimed the path at all, it returns an
//     *fs.PathError wrapping core.ErrUnhandledPath that names the
//     operation and path.
//
// First-failure-wins keeps error messages attributable to the backend
// most likely to be the intended owner: registry order typically goes
// from the most specific backend (a URI scheme) to a catch-all (local).
//
// The registry is fixed at construction and never mutated, so an FS is
// safe for concurrent use as long as each backend is. The only shared
// state is the memoized extension-name bindings, which tolerate racing
// first lookups because registry order makes the resolved value
// deterministic.
package composite
