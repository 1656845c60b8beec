package sftpfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			config:  Config{Addr: "node1.example.com", User: "hadoop"},
			wantErr: false,
		},
		{
			name:    "missing addr",
			config:  Config{User: "hadoop"},
			wantErr: true,
			errMsg:  "addr is required",
		},
		{
			name:    "missing user",
			config:  Config{Addr: "node1.example.com"},
			wantErr: true,
			errMsg:  "user is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitURI(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		prefix string
		host   string
		rest   string
		ok     bool
	}{
		{
			name:   "plain host",
			uri:    "sftp://node1/data/logs",
			prefix: "sftp://node1",
			host:   "node1",
			rest:   "/data/logs",
			ok:     true,
		},
		{
			name:   "user and port",
			uri:    "sftp://hadoop@node1:2222/data",
			prefix: "sftp://hadoop@node1:2222",
			host:   "hadoop@node1:2222",
			rest:   "/data",
			ok:     true,
		},
		{
			name:   "ssh scheme",
			uri:    "ssh://node1/etc/hosts",
			prefix: "ssh://node1",
			host:   "node1",
			rest:   "/etc/hosts",
			ok:     true,
		},
		{
			name:   "host only",
			uri:    "sftp://node1",
			prefix: "sftp://node1",
			host:   "node1",
			rest:   "/",
			ok:     true,
		},
		{
			name: "wrong scheme",
			uri:  "s3://bucket/key",
			ok:   false,
		},
		{
			name: "no host",
			uri:  "sftp:///data",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, host, rest, err := splitURI(tt.uri)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "node1", hostname("node1"))
	assert.Equal(t, "node1", hostname("hadoop@node1"))
	assert.Equal(t, "node1", hostname("node1:2222"))
	assert.Equal(t, "node1", hostname("hadoop@node1:2222"))
}

func TestCanHandle(t *testing.T) {
	s := &FS{host: "node1"}
	assert.True(t, s.CanHandle("sftp://node1/data"))
	assert.True(t, s.CanHandle("sftp://hadoop@node1:2222/data"))
	assert.True(t, s.CanHandle("ssh://node1/data"))
	assert.False(t, s.CanHandle("sftp://node2/data"))
	assert.False(t, s.CanHandle("s3://bucket/key"))
	assert.False(t, s.CanHandle("/local/path"))

	// A backend built without a host answers for any host.
	any := &FS{}
	assert.True(t, any.CanHandle("sftp://node2/data"))
	assert.False(t, any.CanHandle("/local/path"))
}

func TestJoin(t *testing.T) {
	s := &FS{}
	assert.Equal(t, "sftp://node1/data/logs", s.Join("sftp://node1/data", "logs"))
	assert.Equal(t, "sftp://hadoop@node1:2222/data/logs", s.Join("sftp://hadoop@node1:2222/data/", "logs"))
	assert.Equal(t, "sftp://node1/data", s.Join("sftp://node1", "data"))
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"plain", "plain"},
		{"/usr/bin/env", "/usr/bin/env"},
		{"two words", "'two words'"},
		{"a'b", `'a'\''b'`},
		{"$HOME", "'$HOME'"},
		{"a*b", "'a*b'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shellQuote(tt.in), "quoting %q", tt.in)
	}
}
