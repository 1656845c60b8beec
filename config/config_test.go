package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cfg, err := Parse(`
order = ["s3", "local"]

[s3]
endpoint = "localhost:9000"
access_key = "minioadmin"
secret_key = "minioadmin"
use_ssl = true
max_remove_concurrency = 4

[sftp]
addr = "worker.internal:22"
user = "deploy"
key_file = "/etc/keys/deploy"
`)
	require.NoError(t, err)

	assert.Equal(t, []string{"s3", "local"}, cfg.Order)

	require.NotNil(t, cfg.S3)
	assert.Equal(t, "localhost:9000", cfg.S3.Endpoint)
	assert.Equal(t, "minioadmin", cfg.S3.AccessKey)
	assert.True(t, cfg.S3.UseSSL)
	assert.Equal(t, 4, cfg.S3.MaxRemoveConcurrency)

	require.NotNil(t, cfg.SFTP)
	assert.Equal(t, "worker.internal:22", cfg.SFTP.Addr)
	assert.Equal(t, "deploy", cfg.SFTP.User)
	assert.Equal(t, "/etc/keys/deploy", cfg.SFTP.KeyFile)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse(`order = "not-a-list"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fs.toml")
	require.NoError(t, os.WriteFile(path, []byte(`order = ["memory"]`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"memory"}, cfg.Order)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestBuildLocalBackends(t *testing.T) {
	cfg := &Config{Order: []string{"memory", "local"}}
	fsys, err := cfg.Build()
	require.NoError(t, err)
	defer fsys.Close()

	require.NoError(t, fsys.Touch("/tmp/probe"))
	ok, err := fsys.Exists("/tmp/probe")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBuildUnknownBackend(t *testing.T) {
	cfg := &Config{Order: []string{"tape"}}
	_, err := cfg.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `backend "tape"`)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestBuildUnconfiguredRemote(t *testing.T) {
	for _, name := range []string{"s3", "sftp"} {
		cfg := &Config{Order: []string{name}}
		_, err := cfg.Build()
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "not configured")
	}
}

func TestDefaultOrder(t *testing.T) {
	// With no remotes configured the default registry is just local.
	cfg := &Config{}
	fsys, err := cfg.Build()
	require.NoError(t, err)
	defer fsys.Close()

	assert.True(t, fsys.CanHandle("/etc/hosts"))
	assert.False(t, fsys.CanHandle("s3://bucket/key"))
}
