package s3uri

import "testing"

func TestIsS3(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"s3://bucket/key", true},
		{"s3a://bucket/key", true},
		{"s3n://bucket/key", true},
		{"s3://bucket", true},
		{"/local/path", false},
		{"sftp://host/path", false},
		{"s3:/bucket", false},
	}
	for _, tt := range tests {
		if got := IsS3(tt.path); got != tt.want {
			t.Errorf("IsS3(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		uri        string
		bucketEdge string
		key        string
		wantErr    bool
	}{
		{"s3://bucket/dir/key.txt", "bucket", "dir/key.txt", false},
		{"s3a://bucket/key", "bucket", "key", false},
		{"s3://bucket", "bucket", "", false},
		{"s3://bucket/", "bucket", "", false},
		{"/local/path", "", "", true},
		{"s3:///key", "", "", true},
	}
	for _, tt := range tests {
		bucket, key, err := Parse(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			continue
		}
		if bucket != tt.bucketEdge || key != tt.key {
			t.Errorf("Parse(%q) = (%q, %q), want (%q, %q)", tt.uri, bucket, key, tt.bucketEdge, tt.key)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format("bucket", "dir/key"); got != "s3://bucket/dir/key" {
		t.Errorf("Format() = %q", got)
	}
	if got := Format("bucket", ""); got != "s3://bucket" {
		t.Errorf("Format() = %q", got)
	}
}

func TestParseFormatCanonicalizes(t *testing.T) {
	bucket, key, err := Parse("s3n://bucket/key")
	if err != nil {
		t.Fatal(err)
	}
	if got := Format(bucket, key); got != "s3://bucket/key" {
		t.Errorf("round trip = %q, want canonical s3:// form", got)
	}
}
