package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/instrument"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/storage"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

type memStorage struct {
	objects map[string][]byte
	putErr  error
}

func (m *memStorage) Close() error { return nil }

func (m *memStorage) PutObject(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	if m.putErr != nil {
		return storage.ObjectInfo{}, m.putErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	m.objects[bucket+"/"+key] = body
	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: opts.Size}, nil
}

func (m *memStorage) ListObjects(_ context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		if bytes.HasPrefix([]byte(k), []byte(bucket+"/"+prefix)) {
			out = append(out, storage.ObjectInfo{
				Bucket:    bucket,
				Key:       k[len(bucket)+1:],
				Size:      int64(len(v)),
				UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			})
		}
	}
	return out, nil
}

func (m *memStorage) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return "https://blob.test/" + bucket + "/" + key + "?ttl=" + expiry.String(), nil
}

func TestBlob_Enabled(t *testing.T) {
	tests := []struct {
		name   string
		stg    storage.Storage
		bucket string
		want   bool
	}{
		{name: "no storage", bucket: "vault"},
		{name: "no bucket", stg: &memStorage{}},
		{name: "configured", stg: &memStorage{}, bucket: "vault", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := NewBlob(tt.stg, tt.bucket, instrument.NewNoop()).Enabled()

			// Assert
			if got != tt.want {
				t.Fatalf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlob_PutListPresign(t *testing.T) {
	// Arrange
	stg := &memStorage{objects: map[string][]byte{}}
	b := NewBlob(stg, "vault", instrument.NewNoop())
	ctx := context.Background()

	// Act
	size, err := b.PutBackup(ctx, "backups/7/a.json", []byte(`{"entries":[]}`))
	if err != nil {
		t.Fatalf("PutBackup() error = %v", err)
	}
	got, err := b.ListBackups(ctx, "backups/7/")
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	url, err := b.PresignBackup(ctx, "backups/7/a.json", 15*time.Minute)

	// Assert
	if err != nil {
		t.Fatalf("PresignBackup() error = %v", err)
	}
	if size != 14 {
		t.Fatalf("PutBackup() size = %d, want 14", size)
	}
	want := []entity.Backup{{
		Key:       "backups/7/a.json",
		Size:      14,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ListBackups() mismatch (-want +got):\n%s", diff)
	}
	if url != "https://blob.test/vault/backups/7/a.json?ttl=15m0s" {
		t.Fatalf("PresignBackup() = %q", url)
	}
}

func TestBlob_PutError(t *testing.T) {
	// Arrange
	stg := &memStorage{putErr: errors.New("denied")}
	b := NewBlob(stg, "vault", instrument.NewNoop())

	// Act
	_, err := b.PutBackup(context.Background(), "backups/1/x.json", []byte("{}"))

	// Assert
	if !errors.Is(err, stg.putErr) {
		t.Fatalf("PutBackup() error = %v, want %v", err, stg.putErr)
	}
}
