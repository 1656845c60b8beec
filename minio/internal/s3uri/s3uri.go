// Package s3uri parses and formats S3 object URIs. The s3://, s3a://,
// and s3n:// schemes are accepted interchangeably on input; output always
// uses s3://.
package s3uri

import (
	"fmt"
	"strings"
)

var schemes = []string{"s3://", "s3a://", "s3n://"}

// IsS3 reports whether the path carries one of the accepted S3 schemes.
func IsS3(path string) bool {
	for _, s := range schemes {
		if strings.HasPrefix(path, s) {
			return true
		}
	}
	return false
}

// Parse splits an S3 URI into bucket and key. The key may be empty
// (whole-bucket addressing) and never carries a leading slash.
func Parse(uri string) (bucket, key string, err error) {
	var rest string
	for _, s := range schemes {
		if strings.HasPrefix(uri, s) {
			rest = uri[len(s):]
			break
		}
	}
	if rest == "" && !IsS3(uri) {
		return "", "", fmt.Errorf("not an S3 URI: %q", uri)
	}

	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("S3 URI has no bucket: %q", uri)
	}
	return bucket, key, nil
}

// Format builds the canonical URI for an object.
func Format(bucket, key string) string {
	if key == "" {
		return "s3://" + bucket
	}
	return "s3://" + bucket + "/" + key
}
