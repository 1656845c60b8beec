// Package config builds a composite filesystem from a TOML description
// of backends and their registry order.
//
// Example:
//
//	order = ["s3", "sftp", "local"]
//
//	[s3]
//	endpoint = "localhost:9000"
//	access_key = "minioadmin"
//	secret_key = "minioadmin"
//
//	[sftp]
//	addr = "worker.internal:22"
//	user = "deploy"
//	key_file = "/etc/keys/deploy"
//
// Order matters: it is the trial order for every operation, so scheme
// backends should come before the catch-all local backend.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/eyecat/mrjob/billy"
	"github.com/eyecat/mrjob/composite"
	"github.com/eyecat/mrjob/core"
	"github.com/eyecat/mrjob/minio"
	"github.com/eyecat/mrjob/sftpfs"
)

// Config describes a composite filesystem.
type Config struct {
	// Order lists backend names in registry order. Known names:
	// "local", "memory", "s3", "sftp". Defaults to every configured
	// remote backend followed by "local".
	Order []string `toml:"order"`

	S3   *S3Config   `toml:"s3"`
	SFTP *SFTPConfig `toml:"sftp"`
}

// S3Config configures the object storage backend.
type S3Config struct {
	Endpoint             string `toml:"endpoint"`
	AccessKey            string `toml:"access_key"`
	SecretKey            string `toml:"secret_key"`
	UseSSL               bool   `toml:"use_ssl"`
	MaxRemoveConcurrency int    `toml:"max_remove_concurrency"`
}

// SFTPConfig configures the remote-host backend.
type SFTPConfig struct {
	Addr     string `toml:"addr"`
	User     string `toml:"user"`
	KeyFile  string `toml:"key_file"`
	Password string `toml:"password"`
}

// Load reads a TOML config file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Parse decodes TOML config data.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Build constructs the backends in registry order and wraps them in a
// composite filesystem. Remote backends are dialed here, so Build can
// fail on connection errors; close the returned FS when done.
func (c *Config) Build(opts ...composite.Option) (*composite.FS, error) {
	order := c.Order
	if len(order) == 0 {
		if c.S3 != nil {
			order = append(order, "s3")
		}
		if c.SFTP != nil {
			order = append(order, "sftp")
		}
		order = append(order, "local")
	}

	var filesystems []core.Filesystem
	for _, name := range order {
		fsys, err := c.build(name)
		if err != nil {
			return nil, fmt.Errorf("backend %q: %w", name, err)
		}
		filesystems = append(filesystems, fsys)
	}
	return composite.New(filesystems, opts...), nil
}

func (c *Config) build(name string) (core.Filesystem, error) {
	switch name {
	case "local":
		return billy.NewLocal(), nil
	case "memory":
		return billy.NewMemory(), nil
	case "s3":
		if c.S3 == nil {
			return nil, fmt.Errorf("not configured")
		}
		return minio.New(minio.Config{
			Endpoint:             c.S3.Endpoint,
			AccessKey:            c.S3.AccessKey,
			SecretKey:            c.S3.SecretKey,
			UseSSL:               c.S3.UseSSL,
			MaxRemoveConcurrency: c.S3.MaxRemoveConcurrency,
		})
	case "sftp":
		if c.SFTP == nil {
			return nil, fmt.Errorf("not configured")
		}
		return sftpfs.Dial(sftpfs.Config{
			Addr:     c.SFTP.Addr,
			User:     c.SFTP.User,
			KeyFile:  c.SFTP.KeyFile,
			Password: c.SFTP.Password,
		})
	default:
		return nil, fmt.Errorf("unknown backend")
	}
}
