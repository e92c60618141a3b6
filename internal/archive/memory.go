package archive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/spendwise/internal/domain"
)

// MemoryArchive keeps files in memory under a fake bucket. It stands in for
// GCS in dev mode and tests.
type MemoryArchive struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
}

// NewMemoryArchive creates an empty archive whose URIs use bucket.
func NewMemoryArchive(bucket string) *MemoryArchive {
	return &MemoryArchive{bucket: bucket, objects: make(map[string][]byte)}
}

// Put implements Archive.
func (a *MemoryArchive) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	uri := Scheme + a.bucket + "/" + ObjectName(name, time.Now())

	a.mu.Lock()
	a.objects[uri] = append([]byte(nil), data...)
	a.mu.Unlock()
	return uri, nil
}

// Fetch implements Archive.
func (a *MemoryArchive) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if _, _, err := ParseURI(uri); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	data, ok := a.objects[uri]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", uri, domain.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

var _ Archive = (*MemoryArchive)(nil)
