// Package core defines the capability contract that storage backends must
// satisfy to participate in a composite filesystem.
//
// This package contains only interfaces, error types, and small helpers.
// Concrete backends live in separate packages:
//
//   - github.com/eyecat/mrjob/billy - local disk and in-memory backends
//   - github.com/eyecat/mrjob/minio - S3-compatible object storage backend
//   - github.com/eyecat/mrjob/sftpfs - remote host over SSH/SFTP
//
// The routing component that combines backends is
// github.com/eyecat/mrjob/composite.
//
// # Design Philosophy
//
//   - Interface composition: small focused interfaces (PathFS, ReadFS,
//     WriteFS) compose into the full Filesystem contract
//   - Explicit error kinds: recoverable backend failures are *OpError
//     values; everything else is treated as a programming or
//     configuration error and is never retried against another backend
//   - Optional capabilities: backend-specific extras are exposed through
//     the Extender interface and resolved by name
//
// # Error Classification
//
// A backend reports "I tried and could not" by returning an *OpError.
// The composite dispatcher uses IsRecoverable to decide whether a failure
// permits fallback to the next capable backend:
//
//	if core.IsRecoverable(err) {
//	    // try the next backend
//	}
//
// Invalid arguments, unknown extensions, and similar caller mistakes must
// NOT be wrapped in *OpError; they abort dispatch immediately.
package core
