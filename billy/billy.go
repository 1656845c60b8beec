package billy

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/eyecat/mrjob/core"
	"github.com/eyecat/mrjob/internal/globpat"
)

// FS adapts a billy.Filesystem to the core.Filesystem contract.
type FS struct {
	name string
	bfs  billy.Filesystem
}

// NewLocal creates a disk-backed filesystem rooted at the filesystem
// root ("/").
func NewLocal() *FS {
	return &FS{name: "local", bfs: osfs.New("/")}
}

// NewMemory creates an empty in-memory filesystem.
func NewMemory() *FS {
	return &FS{name: "memory", bfs: memfs.New()}
}

// Unwrap returns the underlying billy.Filesystem, e.g. for go-git
// integration or for seeding test fixtures.
func (b *FS) Unwrap() billy.Filesystem { return b.bfs }

// Name returns the backend identifier ("local" or "memory").
func (b *FS) Name() string { return b.name }

// CanHandle claims every path that is not a URI.
func (b *FS) CanHandle(p string) bool {
	return !strings.Contains(p, "://")
}

// Join joins dir and name with forward slashes.
func (b *FS) Join(dir, name string) string {
	return path.Join(dir, name)
}

// normalize converts paths to clean, forward-slash form. Billy handles
// the security side (chroot); this only canonicalizes.
func normalize(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

func (b *FS) wrap(op, p string, err error) error {
	return core.NewOpError(b.name, op, p, err)
}

// walkFiles calls fn for every regular file selected by glob: files whose
// full path matches the pattern, files under a directory the pattern
// names, and files under a directory the pattern matches. A non-matching
// glob visits nothing and returns nil.
func (b *FS) walkFiles(op, glob string, fn func(p string, info os.FileInfo) error) error {
	glob = normalize(glob)

	if !globpat.HasMeta(glob) {
		info, err := b.bfs.Stat(glob)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return b.wrap(op, glob, err)
		}
		if !info.IsDir() {
			return fn(glob, info)
		}
		if err := b.walkDir(glob, fn); err != nil {
			return b.wrap(op, glob, err)
		}
		return nil
	}

	re, err := globpat.Translate(glob)
	if err != nil {
		// Malformed pattern is a caller bug, not a backend failure.
		return err
	}

	base := normalize(globpat.LiteralPrefix(glob))
	if _, err := b.bfs.Stat(base); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return b.wrap(op, glob, err)
	}

	err = b.walkDir(base, func(p string, info os.FileInfo) error {
		if re.MatchString(p) || globpat.MatchAncestor(re, p) {
			return fn(p, info)
		}
		return nil
	})
	if err != nil {
		return b.wrap(op, glob, err)
	}
	return nil
}

// walkDir recursively visits all regular files under root. Billy has no
// walk primitive of its own, so this recurses over ReadDir.
func (b *FS) walkDir(root string, fn func(p string, info os.FileInfo) error) error {
	info, err := b.bfs.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fn(root, info)
	}

	entries, err := b.bfs.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		child := normalize(path.Join(root, entry.Name()))
		if entry.IsDir() {
			if err := b.walkDir(child, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(child, entry); err != nil {
			return err
		}
	}
	return nil
}

// List recursively lists all files matching glob, omitting directories.
func (b *FS) List(glob string) ([]string, error) {
	out := []string{}
	err := b.walkFiles("list", glob, func(p string, _ os.FileInfo) error {
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Size returns the total byte size of all files matching glob.
func (b *FS) Size(glob string) (int64, error) {
	var total int64
	err := b.walkFiles("size", glob, func(_ string, info os.FileInfo) error {
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Exists reports whether glob matches any file or directory.
func (b *FS) Exists(glob string) (bool, error) {
	glob = normalize(glob)

	if !globpat.HasMeta(glob) {
		_, err := b.bfs.Stat(glob)
		if err == nil {
			return true, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, b.wrap("exists", glob, err)
	}

	found := false
	err := b.walkFiles("exists", glob, func(string, os.FileInfo) error {
		found = true
		return errStopWalk
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return false, err
	}
	return found, nil
}

// Checksum returns the hex MD5 of the content of the single file
// matching glob.
func (b *FS) Checksum(glob string) (string, error) {
	target, err := b.singleMatch("checksum", glob)
	if err != nil {
		return "", err
	}

	f, err := b.bfs.Open(target)
	if err != nil {
		return "", b.wrap("checksum", glob, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", b.wrap("checksum", glob, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// singleMatch resolves glob to exactly one file.
func (b *FS) singleMatch(op, glob string) (string, error) {
	matches, err := b.List(glob)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", b.wrap(op, glob, os.ErrNotExist)
	case 1:
		return matches[0], nil
	default:
		return "", b.wrap(op, glob, fmt.Errorf("matched %d files, want exactly one", len(matches)))
	}
}

// Open opens the named file for reading. The path is literal.
func (b *FS) Open(p string) (io.ReadCloser, error) {
	f, err := b.bfs.Open(normalize(p))
	if err != nil {
		return nil, b.wrap("open", p, err)
	}
	return f, nil
}

// Mkdir creates the directory and any missing parents. Idempotent.
func (b *FS) Mkdir(p string) error {
	if err := b.bfs.MkdirAll(normalize(p), 0o755); err != nil {
		return b.wrap("mkdir", p, err)
	}
	return nil
}

// Remove recursively deletes everything matching glob. A non-matching
// glob is not an error.
func (b *FS) Remove(glob string) error {
	glob = normalize(glob)

	if !globpat.HasMeta(glob) {
		if err := b.removeAll(glob); err != nil {
			return b.wrap("remove", glob, err)
		}
		return nil
	}

	re, err := globpat.Translate(glob)
	if err != nil {
		return err
	}
	base := normalize(globpat.LiteralPrefix(glob))
	roots, err := b.matchedRoots(base, re)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return b.wrap("remove", glob, err)
	}
	for _, root := range roots {
		if err := b.removeAll(root); err != nil {
			return b.wrap("remove", glob, err)
		}
	}
	return nil
}

// matchedRoots returns files and directories under base whose full path
// matches re. Matched directories are not descended into, since they are
// removed wholesale.
func (b *FS) matchedRoots(base string, re *regexp.Regexp) ([]string, error) {
	info, err := b.bfs.Stat(base)
	if err != nil {
		return nil, err
	}

	var roots []string
	var visit func(p string, isDir bool) error
	visit = func(p string, isDir bool) error {
		if re.MatchString(p) {
			roots = append(roots, p)
			return nil
		}
		if !isDir {
			return nil
		}
		entries, err := b.bfs.ReadDir(p)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := visit(normalize(path.Join(p, entry.Name())), entry.IsDir()); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(base, info.IsDir()); err != nil {
		return nil, err
	}
	return roots, nil
}

// removeAll deletes p and any children. Billy has no RemoveAll, so
// directories are emptied bottom-up. A missing p is not an error.
func (b *FS) removeAll(p string) error {
	info, err := b.bfs.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if !info.IsDir() {
		return b.bfs.Remove(p)
	}

	entries, err := b.bfs.ReadDir(p)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := b.removeAll(normalize(path.Join(p, entry.Name()))); err != nil {
			return err
		}
	}
	return b.bfs.Remove(p)
}

// Touch creates an empty file at p, failing if a non-empty file already
// exists there. An existing empty file is truncated in place.
func (b *FS) Touch(p string) error {
	p = normalize(p)

	info, err := b.bfs.Stat(p)
	if err == nil {
		if info.IsDir() {
			return b.wrap("touch", p, fmt.Errorf("%w: is a directory", os.ErrExist))
		}
		if info.Size() > 0 {
			return b.wrap("touch", p, fmt.Errorf("%w: non-empty file", os.ErrExist))
		}
	} else if !os.IsNotExist(err) {
		return b.wrap("touch", p, err)
	}

	f, err := b.bfs.Create(p)
	if err != nil {
		return b.wrap("touch", p, err)
	}
	if err := f.Close(); err != nil {
		return b.wrap("touch", p, err)
	}
	return nil
}

// WriteFile writes data to the named file, creating parent directories
// as needed. It is not part of the core contract; it is exposed as the
// "write_file" extension and used to seed fixtures.
func (b *FS) WriteFile(p string, data []byte) error {
	p = normalize(p)
	if dir := path.Dir(p); dir != "." && dir != "/" {
		if err := b.bfs.MkdirAll(dir, 0o755); err != nil {
			return b.wrap("write_file", p, err)
		}
	}
	f, err := b.bfs.Create(p)
	if err != nil {
		return b.wrap("write_file", p, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return b.wrap("write_file", p, err)
	}
	if err := f.Close(); err != nil {
		return b.wrap("write_file", p, err)
	}
	return nil
}

// Extension exposes backend-specific operations by name.
func (b *FS) Extension(name string) (any, bool) {
	switch name {
	case "write_file":
		return b.WriteFile, true
	}
	return nil, false
}

// errStopWalk short-circuits walkFiles once Exists has its answer.
var errStopWalk = errors.New("stop walk")

// Compile-time interface checks.
var (
	_ core.Filesystem = (*FS)(nil)
	_ core.Extender   = (*FS)(nil)
)
