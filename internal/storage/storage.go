package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pulseai/apiserver/config"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Archive keeps copies of uploaded receipt images in object storage so
// users can audit what the extractor saw.
type Archive struct {
	backend ObjectStorage
}

// NewArchive constructs an Archive over the provided backend.
func NewArchive(backend ObjectStorage) *Archive {
	return &Archive{backend: backend}
}

// NewArchiveFromConfig picks a backend from config. It returns nil when
// no backend is configured; archiving is optional.
func NewArchiveFromConfig(ctx context.Context, cfg config.StorageConfig) (*Archive, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "minio":
		backend, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return NewArchive(backend), nil
	case "gcs":
		backend, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return NewArchive(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// EnsureBucket ensures the configured bucket exists.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	return a.backend.EnsureBucket(ctx)
}

// SaveReceipt stores a receipt image under the given key.
func (a *Archive) SaveReceipt(ctx context.Context, key string, image []byte, contentType string) error {
	return a.backend.Put(ctx, key, bytes.NewReader(image), int64(len(image)), contentType)
}

// OpenReceipt opens a previously archived receipt image.
func (a *Archive) OpenReceipt(ctx context.Context, key string) (io.ReadCloser, error) {
	return a.backend.Get(ctx, key)
}

// DeleteReceipt removes an archived receipt image.
func (a *Archive) DeleteReceipt(ctx context.Context, key string) error {
	return a.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (a *Archive) Bucket() string {
	return a.backend.Bucket()
}
