package blob

import (
	"bytes"
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/instrument"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/storage"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

// Blob stores backup archives in one bucket. A nil storage means backups
// are not configured.
type Blob struct {
	stg    storage.Storage
	bucket string
	ins    instrument.Instrumentation
}

func NewBlob(stg storage.Storage, bucket string, ins instrument.Instrumentation) *Blob {
	return &Blob{stg: stg, bucket: bucket, ins: ins}
}

func (b *Blob) Enabled() bool {
	return b.stg != nil && b.bucket != ""
}

func (b *Blob) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return b.ins.Tracer("vault.outbound.blob").Start(ctx, name)
}

func (b *Blob) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (b *Blob) PutBackup(ctx context.Context, key string, body []byte) (_ int64, err error) {
	ctx, span := b.startSpan(ctx, "PutBackup")
	defer func() { b.endSpan(span, err) }()

	info, err := b.stg.PutObject(ctx, b.bucket, key, bytes.NewReader(body), storage.PutOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
	})
	if err != nil {
		return 0, err
	}
	if info.Size == 0 {
		return int64(len(body)), nil
	}

	return info.Size, nil
}

func (b *Blob) ListBackups(ctx context.Context, prefix string) (_ []entity.Backup, err error) {
	ctx, span := b.startSpan(ctx, "ListBackups")
	defer func() { b.endSpan(span, err) }()

	objects, err := b.stg.ListObjects(ctx, b.bucket, prefix)
	if err != nil {
		return nil, err
	}

	backups := make([]entity.Backup, 0, len(objects))
	for _, obj := range objects {
		backups = append(backups, entity.Backup{
			Key:       obj.Key,
			Size:      obj.Size,
			CreatedAt: obj.UpdatedAt.UTC(),
		})
	}

	return backups, nil
}

func (b *Blob) PresignBackup(ctx context.Context, key string, ttl time.Duration) (_ string, err error) {
	ctx, span := b.startSpan(ctx, "PresignBackup")
	defer func() { b.endSpan(span, err) }()

	return b.stg.PresignGet(ctx, b.bucket, key, ttl)
}
