package archive

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dvloznov/spendwise/internal/domain"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{uri: "gs://bucket/statements/a.pdf", wantBucket: "bucket", wantObject: "statements/a.pdf"},
		{uri: "gs://bucket/a.csv", wantBucket: "bucket", wantObject: "a.csv"},
		{uri: "s3://bucket/a.csv", wantErr: true},
		{uri: "gs://bucket", wantErr: true},
		{uri: "gs://bucket/", wantErr: true},
		{uri: "gs:///object", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURI) {
					t.Fatalf("ParseURI() error = %v, want ErrInvalidURI", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURI() error = %v", err)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseURI() = %q, %q", bucket, object)
			}
		})
	}
}

func TestFilenameFromURI(t *testing.T) {
	tests := map[string]string{
		"gs://bucket/folder/file.pdf": "file.pdf",
		"gs://bucket/file.csv":        "file.csv",
		"gs://bucket":                 "bucket",
	}
	for uri, want := range tests {
		if got := FilenameFromURI(uri); got != want {
			t.Errorf("FilenameFromURI(%q) = %q, want %q", uri, got, want)
		}
	}
}

func TestObjectName(t *testing.T) {
	now := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^statements/2024/03/05/[0-9a-f-]{36}-(.+)$`)

	tests := []struct {
		name string
		want string
	}{
		{name: "march statement.pdf", want: "march_statement.pdf"},
		{name: `C:\Users\me\bank.csv`, want: "bank.csv"},
		{name: "../../etc/passwd", want: "passwd"},
		{name: "", want: "statement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ObjectName(tt.name, now)
			m := pattern.FindStringSubmatch(got)
			if m == nil {
				t.Fatalf("ObjectName() = %q does not match layout", got)
			}
			if m[1] != tt.want {
				t.Errorf("file part = %q, want %q", m[1], tt.want)
			}
		})
	}
}

func TestMemoryArchive(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryArchive("dev-bucket")

	uri, err := a.Put(ctx, "statement.csv", "text/csv", []byte("date,amount"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	bucket, _, err := ParseURI(uri)
	if err != nil || bucket != "dev-bucket" {
		t.Fatalf("Put() uri = %q, err %v", uri, err)
	}

	data, err := a.Fetch(ctx, uri)
	if err != nil || string(data) != "date,amount" {
		t.Fatalf("Fetch() = %q, %v", data, err)
	}
	if _, err := a.Fetch(ctx, "gs://dev-bucket/missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Fetch() missing error = %v", err)
	}
}
