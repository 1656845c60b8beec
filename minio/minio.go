package minio

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"

	"github.com/eyecat/mrjob/core"
	"github.com/eyecat/mrjob/internal/globpat"
	"github.com/eyecat/mrjob/minio/internal/s3uri"
)

// FS implements the core.Filesystem contract over S3-compatible object
// storage. Paths are s3:// URIs (s3a:// and s3n:// are accepted as
// aliases); the bucket comes from each URI, so one backend serves any
// bucket the credentials can reach.
//
// Directories are virtual: Mkdir is a no-op, List never reports
// directory markers, and Remove deletes by key prefix. Checksum returns
// the hex MD5 of the object's content (computed client-side, since the
// server ETag is not an MD5 for multipart uploads).
type FS struct {
	client            *minio.Client
	removeConcurrency int
}

// New creates an S3 backend from cfg. It returns an error if the
// configuration is invalid or the client cannot be constructed.
func New(cfg Config) (*FS, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("create minio client: %w", err)
		}
	}

	removeConcurrency := cfg.MaxRemoveConcurrency
	if removeConcurrency == 0 {
		removeConcurrency = 10
	}

	return &FS{client: client, removeConcurrency: removeConcurrency}, nil
}

// Name returns "s3".
func (f *FS) Name() string { return "s3" }

// CanHandle claims s3://, s3a://, and s3n:// URIs.
func (f *FS) CanHandle(path string) bool { return s3uri.IsS3(path) }

// Join joins dir and name with POSIX separators, preserving the scheme.
func (f *FS) Join(dir, name string) string {
	return strings.TrimSuffix(dir, "/") + "/" + strings.TrimPrefix(name, "/")
}

func (f *FS) wrap(op, path string, err error) error {
	return core.NewOpError("s3", op, path, err)
}

// translate converts MinIO SDK errors to stdlib fs sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fs.ErrNotExist
	case "AccessDenied":
		return fs.ErrPermission
	}
	return fmt.Errorf("minio: %w", err)
}

// errStopScan short-circuits forEachMatch once Exists has its answer.
var errStopScan = errors.New("stop scan")

// forEachMatch scans the bucket named by glob and calls fn for every
// object selected by it: keys matching the pattern, keys under a
// "directory" the pattern names, and keys under a directory the pattern
// matches. Directory markers (keys ending in "/") are skipped.
func (f *FS) forEachMatch(op, glob string, fn func(uri string, obj minio.ObjectInfo) error) error {
	bucket, key, err := s3uri.Parse(glob)
	if err != nil {
		return err
	}
	re, err := globpat.Translate(key)
	if err != nil {
		return err
	}
	all := key == ""

	ctx := context.Background()
	for object := range f.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    globpat.LiteralPrefix(key),
		Recursive: true,
	}) {
		if object.Err != nil {
			return f.wrap(op, glob, translate(object.Err))
		}
		k := object.Key
		if strings.HasSuffix(k, "/") {
			continue
		}
		if all || re.MatchString(k) || globpat.MatchAncestor(re, k) {
			if err := fn(s3uri.Format(bucket, k), object); err != nil {
				return err
			}
		}
	}
	return nil
}

// List recursively lists all objects matching glob.
func (f *FS) List(glob string) ([]string, error) {
	out := []string{}
	err := f.forEachMatch("list", glob, func(uri string, _ minio.ObjectInfo) error {
		out = append(out, uri)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Size returns the total byte size of all objects matching glob.
func (f *FS) Size(glob string) (int64, error) {
	var total int64
	err := f.forEachMatch("size", glob, func(_ string, obj minio.ObjectInfo) error {
		total += obj.Size
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Exists reports whether glob matches at least one object.
func (f *FS) Exists(glob string) (bool, error) {
	found := false
	err := f.forEachMatch("exists", glob, func(string, minio.ObjectInfo) error {
		found = true
		return errStopScan
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return false, err
	}
	return found, nil
}

// Checksum returns the hex MD5 of the content of the single object
// matching glob.
func (f *FS) Checksum(glob string) (string, error) {
	var matches []string
	err := f.forEachMatch("checksum", glob, func(uri string, _ minio.ObjectInfo) error {
		matches = append(matches, uri)
		return nil
	})
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", f.wrap("checksum", glob, fs.ErrNotExist)
	case 1:
	default:
		return "", f.wrap("checksum", glob, fmt.Errorf("matched %d objects, want exactly one", len(matches)))
	}

	rc, err := f.Open(matches[0])
	if err != nil {
		return "", err
	}
	defer rc.Close()

	h := md5.New()
	if _, err := io.Copy(h, rc); err != nil {
		return "", f.wrap("checksum", glob, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Open opens the named object for streaming read. The path is literal.
// Existence is verified up front so a missing object fails at open time
// rather than on first read.
func (f *FS) Open(path string) (io.ReadCloser, error) {
	bucket, key, err := s3uri.Parse(path)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()

	if _, err := f.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, f.wrap("open", path, translate(err))
	}

	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, f.wrap("open", path, translate(err))
	}
	return obj, nil
}

// Mkdir is a no-op: S3 directories are virtual.
func (f *FS) Mkdir(string) error { return nil }

// Remove deletes every object matching glob, in parallel up to the
// configured concurrency. A non-matching glob is not an error.
func (f *FS) Remove(glob string) error {
	var keys []string
	bucket := ""
	err := f.forEachMatch("remove", glob, func(uri string, obj minio.ObjectInfo) error {
		b, _, err := s3uri.Parse(uri)
		if err != nil {
			return err
		}
		bucket = b
		keys = append(keys, obj.Key)
		return nil
	})
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	eg, ctx := errgroup.WithContext(context.Background())
	eg.SetLimit(f.removeConcurrency)

	var mu sync.Mutex
	var firstErr error
	for _, key := range keys {
		key := key
		eg.Go(func() error {
			err := f.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return f.wrap("remove", glob, translate(firstErr))
	}
	return nil
}

// Touch creates a zero-byte object at path, failing if a non-empty
// object already exists there.
func (f *FS) Touch(path string) error {
	bucket, key, err := s3uri.Parse(path)
	if err != nil {
		return err
	}
	ctx := context.Background()

	info, err := f.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil && info.Size > 0 {
		return f.wrap("touch", path, fmt.Errorf("%w: non-empty object", fs.ErrExist))
	}
	if err != nil && !errors.Is(translate(err), fs.ErrNotExist) {
		return f.wrap("touch", path, translate(err))
	}

	_, err = f.client.PutObject(ctx, bucket, key, bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	if err != nil {
		return f.wrap("touch", path, translate(err))
	}
	return nil
}

// Compile-time interface check.
var _ core.Filesystem = (*FS)(nil)
