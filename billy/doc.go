// Package billy provides local-disk and in-memory backends for the
// composite filesystem, built on top of go-billy (the filesystem
// abstraction used by go-git).
//
// Both backends claim any path without a URI scheme, which makes them
// the natural catch-all at the end of a composite registry. The in-memory
// backend is a drop-in stand-in for the local one in tests.
//
// Checksum returns the hex MD5 of the file's content.
package billy
