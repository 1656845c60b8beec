// Package fstest provides a conformance test suite for validating
// backend implementations against the core.Filesystem contract.
//
// Backend packages import the suite and run it against a fresh instance:
//
//	func TestConformance(t *testing.T) {
//	    fstest.TestSuite(t, func(t *testing.T) (core.Filesystem, fstest.WriteFunc) {
//	        b := billy.NewMemory()
//	        return b, b.WriteFile
//	    })
//	}
//
// The suite checks contract behavior only - idempotence rules, glob
// semantics, the documented MD5 checksum - not backend-specific detail.
package fstest

import (
	"io"
	"sort"
	"testing"

	"github.com/eyecat/mrjob/core"
)

// WriteFunc seeds a fixture file. It is backend-provided because file
// writing is not part of the core contract.
type WriteFunc func(path string, data []byte) error

// Factory returns a fresh, empty filesystem plus a seeding function.
// Each subtest calls it once, so state never leaks between subtests.
type Factory func(t *testing.T) (core.Filesystem, WriteFunc)

// TestSuite runs every conformance check against backends produced by
// newFS.
func TestSuite(t *testing.T, newFS Factory) {
	t.Run("ListOmitsDirectories", func(t *testing.T) {
		fsys, write := newFS(t)
		seed(t, write, map[string]string{
			"/data/a.txt":     "aaa",
			"/data/sub/b.log": "bbbbb",
		})

		got, err := fsys.List("/data")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		want := []string{"/data/a.txt", "/data/sub/b.log"}
		if !sameSet(got, want) {
			t.Errorf("List() = %v, want %v", got, want)
		}
	})

	t.Run("ListGlobCrossesDirectories", func(t *testing.T) {
		fsys, write := newFS(t)
		seed(t, write, map[string]string{
			"/data/a.txt":     "aaa",
			"/data/sub/b.txt": "bb",
			"/data/sub/c.log": "c",
		})

		got, err := fsys.List("/data/*.txt")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		// `*` matches path separators, so files in subdirectories are
		// selected too.
		want := []string{"/data/a.txt", "/data/sub/b.txt"}
		if !sameSet(got, want) {
			t.Errorf("List() = %v, want %v", got, want)
		}
	})

	t.Run("NonMatchingGlob", func(t *testing.T) {
		fsys, _ := newFS(t)

		got, err := fsys.List("/nothing/here/*")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("List() = %v, want empty", got)
		}

		size, err := fsys.Size("/nothing/here/*")
		if err != nil {
			t.Fatalf("Size() error = %v", err)
		}
		if size != 0 {
			t.Errorf("Size() = %d, want 0", size)
		}

		exists, err := fsys.Exists("/nothing/here/*")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if exists {
			t.Error("Exists() = true, want false")
		}

		// Operations that need an existing target fail recoverably.
		if _, err := fsys.Checksum("/nothing/here/*"); !core.IsRecoverable(err) {
			t.Errorf("Checksum() error = %v, want recoverable *core.OpError", err)
		}
		if _, err := fsys.Open("/nothing/here/file"); !core.IsRecoverable(err) {
			t.Errorf("Open() error = %v, want recoverable *core.OpError", err)
		}
	})

	t.Run("SizeSums", func(t *testing.T) {
		fsys, write := newFS(t)
		seed(t, write, map[string]string{
			"/data/a": "123",
			"/data/b": "45678",
		})

		size, err := fsys.Size("/data")
		if err != nil {
			t.Fatalf("Size() error = %v", err)
		}
		if size != 8 {
			t.Errorf("Size() = %d, want 8", size)
		}
	})

	t.Run("MkdirIdempotent", func(t *testing.T) {
		fsys, _ := newFS(t)

		if err := fsys.Mkdir("/data/nested/dir"); err != nil {
			t.Fatalf("Mkdir() error = %v", err)
		}
		if err := fsys.Mkdir("/data/nested/dir"); err != nil {
			t.Errorf("second Mkdir() error = %v, want nil", err)
		}
	})

	t.Run("RemoveIdempotent", func(t *testing.T) {
		fsys, write := newFS(t)
		seed(t, write, map[string]string{"/data/sub/a.txt": "aaa"})

		if err := fsys.Remove("/data/sub"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		exists, err := fsys.Exists("/data/sub/a.txt")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if exists {
			t.Error("file still exists after Remove()")
		}

		if err := fsys.Remove("/data/sub"); err != nil {
			t.Errorf("Remove() on absent path error = %v, want nil", err)
		}
	})

	t.Run("RemoveGlob", func(t *testing.T) {
		fsys, write := newFS(t)
		seed(t, write, map[string]string{
			"/data/a.tmp": "x",
			"/data/b.tmp": "y",
			"/data/keep":  "z",
		})

		if err := fsys.Remove("/data/*.tmp"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		got, err := fsys.List("/data")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		want := []string{"/data/keep"}
		if !sameSet(got, want) {
			t.Errorf("List() after Remove = %v, want %v", got, want)
		}
	})

	t.Run("TouchSemantics", func(t *testing.T) {
		fsys, write := newFS(t)

		if err := fsys.Mkdir("/data"); err != nil {
			t.Fatalf("Mkdir() error = %v", err)
		}
		if err := fsys.Touch("/data/marker"); err != nil {
			t.Fatalf("Touch() error = %v", err)
		}
		exists, err := fsys.Exists("/data/marker")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if !exists {
			t.Error("touched file does not exist")
		}

		// Touching an existing empty file is fine.
		if err := fsys.Touch("/data/marker"); err != nil {
			t.Errorf("Touch() on empty file error = %v, want nil", err)
		}

		// Touching a non-empty file is a recoverable failure.
		seed(t, write, map[string]string{"/data/full": "content"})
		if err := fsys.Touch("/data/full"); !core.IsRecoverable(err) {
			t.Errorf("Touch() on non-empty file error = %v, want recoverable *core.OpError", err)
		}
	})

	t.Run("ChecksumMD5", func(t *testing.T) {
		fsys, write := newFS(t)
		seed(t, write, map[string]string{"/data/f": "hello world"})

		sum, err := fsys.Checksum("/data/f")
		if err != nil {
			t.Fatalf("Checksum() error = %v", err)
		}
		if want := "5eb63bbbe01eeed093cb22bb8f5acdc3"; sum != want {
			t.Errorf("Checksum() = %q, want %q", sum, want)
		}
	})

	t.Run("ChecksumMultipleMatches", func(t *testing.T) {
		fsys, write := newFS(t)
		seed(t, write, map[string]string{
			"/data/a": "x",
			"/data/b": "y",
		})

		if _, err := fsys.Checksum("/data/*"); !core.IsRecoverable(err) {
			t.Errorf("Checksum() error = %v, want recoverable *core.OpError", err)
		}
	})

	t.Run("OpenReads", func(t *testing.T) {
		fsys, write := newFS(t)
		seed(t, write, map[string]string{"/data/f": "line one\nline two\n"})

		rc, err := fsys.Open("/data/f")
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if string(data) != "line one\nline two\n" {
			t.Errorf("read %q", data)
		}
	})

	t.Run("JoinAppends", func(t *testing.T) {
		fsys, _ := newFS(t)

		if got := fsys.Join("/data", "x.txt"); got != "/data/x.txt" {
			t.Errorf("Join() = %q, want %q", got, "/data/x.txt")
		}
	})
}

func seed(t *testing.T, write WriteFunc, files map[string]string) {
	t.Helper()
	for p, content := range files {
		if err := write(p, []byte(content)); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
}

func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	g := append([]string(nil), got...)
	w := append([]string(nil), want...)
	sort.Strings(g)
	sort.Strings(w)
	for i := range g {
		if g[i] != w[i] {
			return false
		}
	}
	return true
}
