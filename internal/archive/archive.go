// Package archive keeps the original statement files that were imported.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scheme is the URI prefix of archived objects.
const Scheme = "gs://"

// ErrInvalidURI is returned for URIs that do not name a bucket and object.
var ErrInvalidURI = errors.New("invalid archive URI")

// Archive stores and retrieves statement files.
type Archive interface {
	// Put stores data under a unique object derived from name and returns
	// its URI.
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)

	// Fetch downloads the bytes behind uri.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// ParseURI splits gs://bucket/path/to/object into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, Scheme) {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, Scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w (no object path): %s", ErrInvalidURI, uri)
	}
	return parts[0], parts[1], nil
}

// FilenameFromURI returns the last path element of an archive URI.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, Scheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectName builds statements/YYYY/MM/DD/<uuid>-<file> for an upload made at
// now. The file name is reduced to a safe character set.
func ObjectName(name string, now time.Time) string {
	base := unsafeChars.ReplaceAllString(path.Base(strings.ReplaceAll(name, `\`, "/")), "_")
	base = strings.Trim(base, "_")
	if base == "" || base == "." {
		base = "statement"
	}
	return fmt.Sprintf("statements/%s/%s-%s", now.UTC().Format("2006/01/02"), uuid.NewString(), base)
}
