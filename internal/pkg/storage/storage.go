package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrMissingSigner indicates signed URL support is not configured.
var ErrMissingSigner = errors.New("storage: signed url signer not configured")

// Storage is the subset of object storage the service needs: write once,
// list by prefix and hand out temporary download links.
type Storage interface {
	io.Closer

	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// ListObjects returns every object under prefix.
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	// Size is the content length, required by MinIO for single part uploads.
	Size        int64
	ContentType string
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	Bucket    string
	Key       string
	Size      int64
	UpdatedAt time.Time
}
