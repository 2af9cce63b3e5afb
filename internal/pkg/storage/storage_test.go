package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestOpen_Unknown(t *testing.T) {
	// Act
	_, err := Open(context.Background(), "ftp", Drivers{})

	// Assert
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("Open() error = %v, want ErrUnknownDriver", err)
	}
}

func TestMinIO_PresignGetIsOffline(t *testing.T) {
	// Arrange
	stg, err := Open(context.Background(), " MinIO ", Drivers{
		MinIO: MinIOOptions{Endpoint: "localhost:9000", AccessKey: "access", SecretKey: "secret", Region: "us-east-1"},
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = stg.Close() })

	// Act
	got, err := stg.PresignGet(context.Background(), "vault", "backups/1/a.json", 15*time.Minute)

	// Assert
	if err != nil {
		t.Fatalf("PresignGet() error = %v", err)
	}
	if !strings.Contains(got, "/vault/backups/1/a.json") || !strings.Contains(got, "X-Amz-Expires=900") {
		t.Fatalf("PresignGet() = %q", got)
	}
}

func TestS3_PresignGetIsOffline(t *testing.T) {
	// Arrange
	stg, err := NewS3(context.Background(), S3Options{
		Endpoint: "http://localhost:4566", AccessKey: "access", SecretKey: "secret", UsePathStyle: true,
	})
	if err != nil {
		t.Fatalf("NewS3() error = %v", err)
	}

	// Act
	got, err := stg.PresignGet(context.Background(), "vault", "backups/1/a.json", time.Minute)

	// Assert
	if err != nil {
		t.Fatalf("PresignGet() error = %v", err)
	}
	if !strings.HasPrefix(got, "http://localhost:4566/vault/backups/1/a.json") || !strings.Contains(got, "X-Amz-Expires=60") {
		t.Fatalf("PresignGet() = %q", got)
	}
}

func TestGCS_PresignGetWithoutSigner(t *testing.T) {
	// Arrange
	g := &GCSAdapter{}

	// Act
	_, err := g.PresignGet(context.Background(), "vault", "k", time.Minute)

	// Assert
	if !errors.Is(err, ErrMissingSigner) {
		t.Fatalf("PresignGet() error = %v, want ErrMissingSigner", err)
	}
}
