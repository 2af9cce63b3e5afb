package postgres

import (
	"context"

	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

func (s *DB) AppendSyncLog(ctx context.Context, rec entity.SyncLog) (err error) {
	ctx, span := s.startSpan(ctx, "AppendSyncLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO sync_log (id, user_id, device_id, sync_type, synced_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.UserID, rec.DeviceID, string(rec.Type), rec.SyncedAt,
	)
	return s.mapError(err)
}
