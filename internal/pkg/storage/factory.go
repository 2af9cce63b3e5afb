package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

// Drivers holds the settings of every backend; Open reads only the one it
// builds.
type Drivers struct {
	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
}

// Open builds the bucket client named by driver: s3, gcs or minio.
func Open(ctx context.Context, driver string, d Drivers) (Storage, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if name == "minio" {
		return NewMinIO(d.MinIO)
	}
	if name == "gcs" {
		return NewGCS(ctx, d.GCS)
	}
	if name == "s3" {
		return NewS3(ctx, d.S3)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}
