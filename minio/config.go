// Package minio provides an S3-compatible object storage backend for the
// composite filesystem, built on the MinIO Go SDK.
package minio

import (
	"fmt"

	"github.com/minio/minio-go/v7"
)

// Config holds connection settings for the S3 backend.
type Config struct {
	// Endpoint is the S3/MinIO server address (e.g. "localhost:9000").
	Endpoint string

	// AccessKey is the access key ID for authentication.
	AccessKey string

	// SecretKey is the secret access key for authentication.
	SecretKey string

	// UseSSL enables HTTPS connections.
	UseSSL bool

	// Client is an optional pre-configured MinIO client.
	// If provided, Endpoint/AccessKey/SecretKey are ignored.
	Client *minio.Client

	// MaxRemoveConcurrency bounds concurrent object deletions during a
	// recursive Remove. Default: 10.
	MaxRemoveConcurrency int
}

// validate checks that either Client or full connection details are set.
func (c *Config) validate() error {
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return fmt.Errorf("access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key is required when client is not provided")
	}
	return nil
}
