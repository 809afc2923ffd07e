package objstore

import (
	"errors"
	"testing"

	"github.com/stornado/stornado/api"
)

func TestSplitPath(t *testing.T) {
	cases := []struct {
		in      string
		bucket  string
		key     string
		wantErr bool
	}{
		{"bench/data/blob-1", "bench", "data/blob-1", false},
		{"/bench/blob", "bench", "blob", false},
		{"bucketonly", "", "", true},
		{"bucket/", "", "", true},
		{"/object", "", "", true},
		{"", "", "", true},
	}

	for _, tc := range cases {
		bucket, key, err := splitPath(tc.in)
		if tc.wantErr {
			if !errors.Is(err, api.ErrInvalidArgument) {
				t.Errorf("splitPath(%q): got err %v, want ErrInvalidArgument", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("splitPath(%q) failed: %v", tc.in, err)
			continue
		}
		if bucket != tc.bucket || key != tc.key {
			t.Errorf("splitPath(%q) = (%q, %q), want (%q, %q)",
				tc.in, bucket, key, tc.bucket, tc.key)
		}
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("New with empty endpoint: got %v, want ErrInvalidArgument", err)
	}
	b, err := New(Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
