// Package sftpfs provides a remote-host backend for the composite
// filesystem, reached over SSH/SFTP. Paths are sftp:// or ssh:// URIs;
// the path component addresses the remote filesystem.
//
// Checksum returns the hex MD5 of the remote file's content, computed by
// streaming it over the session.
package sftpfs

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/eyecat/mrjob/core"
	"github.com/eyecat/mrjob/internal/globpat"
)

// Config holds connection settings for the SFTP backend.
type Config struct {
	// Addr is the remote address as host or host:port (default port 22).
	Addr string

	// User is the SSH login name.
	User string

	// KeyFile is an optional path to a PEM private key.
	KeyFile string

	// Password is an optional password. When neither KeyFile nor
	// Password is set, the SSH agent (SSH_AUTH_SOCK) must supply a key.
	Password string

	// HostKeyCallback verifies the server host key. Defaults to
	// ssh.InsecureIgnoreHostKey, matching the common cluster-internal
	// deployment; production use should supply a known-hosts callback.
	HostKeyCallback ssh.HostKeyCallback
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	return nil
}

// FS implements the core.Filesystem contract over an SFTP session to a
// single remote host. It holds the session, so it implements io.Closer;
// the composite dispatcher's Close tears it down.
type FS struct {
	host   string // hostname the backend answers for, without port
	client *sftp.Client
	sshc   *ssh.Client
}

// Dial connects to the remote host and returns the backend. Auth methods
// are tried in order: SSH agent, key file, password.
func Dial(cfg Config) (*FS, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var auth []ssh.AuthMethod
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			auth = append(auth, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}
	if cfg.KeyFile != "" {
		pem, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse key file: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no auth method available: set KeyFile or Password, or run an SSH agent")
	}

	hostKey := cfg.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey() //nolint:gosec
	}

	addr := cfg.Addr
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}

	sshc, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
	})
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	client, err := sftp.NewClient(sshc)
	if err != nil {
		sshc.Close()
		return nil, fmt.Errorf("sftp session: %w", err)
	}

	host, _, _ := net.SplitHostPort(addr)
	return &FS{host: host, client: client, sshc: sshc}, nil
}

// Close shuts down the SFTP session and the SSH connection.
func (s *FS) Close() error {
	s.client.Close()
	return s.sshc.Close()
}

// Name returns "sftp".
func (s *FS) Name() string { return "sftp" }

// CanHandle claims sftp:// and ssh:// URIs addressed to this backend's
// host (any host when the backend was built without one).
func (s *FS) CanHandle(p string) bool {
	_, host, _, err := splitURI(p)
	if err != nil {
		return false
	}
	return s.host == "" || hostname(host) == s.host
}

// Join joins dir and name with POSIX separators, preserving the URI
// prefix of dir.
func (s *FS) Join(dir, name string) string {
	prefix, _, rest, err := splitURI(dir)
	if err != nil {
		return path.Join(dir, name)
	}
	return prefix + path.Join(rest, name)
}

// splitURI splits "sftp://user@host:port/path" into the scheme prefix up
// to and including the authority, the authority itself, and the remote
// path.
func splitURI(p string) (prefix, host, rest string, err error) {
	var after string
	switch {
	case strings.HasPrefix(p, "sftp://"):
		after = p[len("sftp://"):]
	case strings.HasPrefix(p, "ssh://"):
		after = p[len("ssh://"):]
	default:
		return "", "", "", fmt.Errorf("not an SFTP URI: %q", p)
	}

	host, rest, _ = strings.Cut(after, "/")
	if host == "" {
		return "", "", "", fmt.Errorf("SFTP URI has no host: %q", p)
	}
	return p[:len(p)-len(after)] + host, host, "/" + rest, nil
}

// hostname strips an optional user@ prefix and :port suffix.
func hostname(authority string) string {
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		authority = authority[i+1:]
	}
	if h, _, err := net.SplitHostPort(authority); err == nil {
		return h
	}
	return authority
}

func (s *FS) wrap(op, p string, err error) error {
	return core.NewOpError("sftp", op, p, err)
}

// errStopWalk short-circuits walkFiles once Exists has its answer.
var errStopWalk = errors.New("stop walk")

// walkFiles calls fn for every remote regular file selected by glob.
func (s *FS) walkFiles(op, glob string, fn func(uri string, size int64) error) error {
	prefix, _, remote, err := splitURI(glob)
	if err != nil {
		return err
	}

	if !globpat.HasMeta(remote) {
		info, err := s.client.Stat(remote)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return s.wrap(op, glob, err)
		}
		if !info.IsDir() {
			return fn(prefix+remote, info.Size())
		}
		return s.walkDir(op, glob, prefix, remote, nil, fn)
	}

	re, err := globpat.Translate(remote)
	if err != nil {
		return err
	}
	base := globpat.LiteralPrefix(remote)
	if base == "" {
		base = "/"
	}
	if _, err := s.client.Stat(base); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return s.wrap(op, glob, err)
	}
	return s.walkDir(op, glob, prefix, base, re, fn)
}

// walkDir visits every regular file under root, filtered by re when
// non-nil (full-path or ancestor match).
func (s *FS) walkDir(op, glob, prefix, root string, re *regexp.Regexp, fn func(uri string, size int64) error) error {
	walker := s.client.Walk(root)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return s.wrap(op, glob, err)
		}
		info := walker.Stat()
		if info.IsDir() {
			continue
		}
		p := walker.Path()
		if re != nil && !re.MatchString(p) && !globpat.MatchAncestor(re, p) {
			continue
		}
		if err := fn(prefix+p, info.Size()); err != nil {
			return err
		}
	}
	return nil
}

// List recursively lists all remote files matching glob.
func (s *FS) List(glob string) ([]string, error) {
	out := []string{}
	err := s.walkFiles("list", glob, func(uri string, _ int64) error {
		out = append(out, uri)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Size returns the total byte size of all remote files matching glob.
func (s *FS) Size(glob string) (int64, error) {
	var total int64
	err := s.walkFiles("size", glob, func(_ string, size int64) error {
		total += size
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Exists reports whether glob matches any remote path.
func (s *FS) Exists(glob string) (bool, error) {
	_, _, remote, err := splitURI(glob)
	if err != nil {
		return false, err
	}

	if !globpat.HasMeta(remote) {
		_, err := s.client.Stat(remote)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, s.wrap("exists", glob, err)
	}

	found := false
	err = s.walkFiles("exists", glob, func(string, int64) error {
		found = true
		return errStopWalk
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return false, err
	}
	return found, nil
}

// Checksum returns the hex MD5 of the content of the single remote file
// matching glob.
func (s *FS) Checksum(glob string) (string, error) {
	matches, err := s.List(glob)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", s.wrap("checksum", glob, os.ErrNotExist)
	case 1:
	default:
		return "", s.wrap("checksum", glob, fmt.Errorf("matched %d files, want exactly one", len(matches)))
	}

	rc, err := s.Open(matches[0])
	if err != nil {
		return "", err
	}
	defer rc.Close()

	h := md5.New()
	if _, err := io.Copy(h, rc); err != nil {
		return "", s.wrap("checksum", glob, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Open opens the named remote file for streaming read.
func (s *FS) Open(p string) (io.ReadCloser, error) {
	_, _, remote, err := splitURI(p)
	if err != nil {
		return nil, err
	}
	f, err := s.client.Open(remote)
	if err != nil {
		return nil, s.wrap("open", p, err)
	}
	return f, nil
}

// Mkdir creates the remote directory and any missing parents.
func (s *FS) Mkdir(p string) error {
	_, _, remote, err := splitURI(p)
	if err != nil {
		return err
	}
	if err := s.client.MkdirAll(remote); err != nil {
		return s.wrap("mkdir", p, err)
	}
	return nil
}

// Remove recursively deletes everything matching glob. A non-matching
// glob is not an error.
func (s *FS) Remove(glob string) error {
	_, _, remote, err := splitURI(glob)
	if err != nil {
		return err
	}

	if !globpat.HasMeta(remote) {
		if _, err := s.client.Stat(remote); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return s.wrap("remove", glob, err)
		}
		if err := s.client.RemoveAll(remote); err != nil {
			return s.wrap("remove", glob, err)
		}
		return nil
	}

	re, err := globpat.Translate(remote)
	if err != nil {
		return err
	}
	base := globpat.LiteralPrefix(remote)
	if base == "" {
		base = "/"
	}

	// Collect matched roots first: deleting while the walker is mid-tree
	// confuses it.
	var roots []string
	walker := s.client.Walk(base)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return s.wrap("remove", glob, err)
		}
		if re.MatchString(walker.Path()) {
			roots = append(roots, walker.Path())
			if walker.Stat().IsDir() {
				walker.SkipDir()
			}
		}
	}
	for _, root := range roots {
		if err := s.client.RemoveAll(root); err != nil {
			return s.wrap("remove", glob, err)
		}
	}
	return nil
}

// Touch creates an empty remote file at p, failing if a non-empty file
// already exists there.
func (s *FS) Touch(p string) error {
	_, _, remote, err := splitURI(p)
	if err != nil {
		return err
	}

	info, err := s.client.Stat(remote)
	if err == nil {
		if info.IsDir() {
			return s.wrap("touch", p, fmt.Errorf("%w: is a directory", os.ErrExist))
		}
		if info.Size() > 0 {
			return s.wrap("touch", p, fmt.Errorf("%w: non-empty file", os.ErrExist))
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return s.wrap("touch", p, err)
	}

	f, err := s.client.Create(remote)
	if err != nil {
		return s.wrap("touch", p, err)
	}
	if err := f.Close(); err != nil {
		return s.wrap("touch", p, err)
	}
	return nil
}

// Exec runs a command on the remote host over a fresh SSH session and
// returns its stdout and stderr. It is exposed as the "exec" extension.
func (s *FS) Exec(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	sess, err := s.sshc.NewSession()
	if err != nil {
		return nil, nil, fmt.Errorf("ssh session: %w", err)
	}
	defer sess.Close()

	cmdLine := name
	for _, a := range args {
		cmdLine += " " + shellQuote(a)
	}

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(cmdLine) }()

	select {
	case err := <-done:
		return stdout.Bytes(), stderr.Bytes(), err
	case <-ctx.Done():
		sess.Signal(ssh.SIGTERM)
		return nil, nil, ctx.Err()
	}
}

// Extension exposes backend-specific operations by name.
func (s *FS) Extension(name string) (any, bool) {
	switch name {
	case "exec":
		return s.Exec, true
	}
	return nil, false
}

func shellQuote(v string) string {
	if v == "" {
		return "''"
	}
	if !strings.ContainsAny(v, " \t\n\"'\\$`!#&|;(){}[]<>?*~") {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", "'\\''") + "'"
}

// Compile-time interface checks.
var (
	_ core.Filesystem = (*FS)(nil)
	_ core.Extender   = (*FS)(nil)
	_ io.Closer       = (*FS)(nil)
)
