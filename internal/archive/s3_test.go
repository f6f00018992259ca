package archive

import "testing"

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "bars/1/1m/a.json", "bars/1/1m/a.json"},
		{"botdeck", "bars/1/1m/a.json", "botdeck/bars/1/1m/a.json"},
		{"/botdeck/", "a.json", "botdeck/a.json"},
	}

	for _, tt := range tests {
		s, err := NewS3(S3Config{Bucket: "exports", Region: "us-east-1", Prefix: tt.prefix})
		if err != nil {
			t.Fatalf("NewS3: %v", err)
		}
		key := s.key(tt.path)
		if key != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, key, tt.want)
		}
		if rel := s.relative(key); rel != tt.path {
			t.Errorf("relative(%q) = %q, want %q", key, rel, tt.path)
		}
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	if _, err := NewS3(S3Config{Region: "us-east-1"}); err == nil {
		t.Error("expected error for missing bucket")
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open(Options{Path: t.TempDir()}); err != nil {
		t.Errorf("default driver: %v", err)
	}
	s, err := Open(Options{Driver: DriverS3, S3: S3Config{Bucket: "exports", Region: "eu-west-1"}})
	if err != nil {
		t.Fatalf("s3 driver: %v", err)
	}
	if _, ok := s.(*S3Storage); !ok {
		t.Errorf("expected *S3Storage, got %T", s)
	}
	if _, err := Open(Options{Driver: "ftp"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
