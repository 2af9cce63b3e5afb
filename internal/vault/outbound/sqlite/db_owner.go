package sqlite

import (
	"context"
	"database/sql"

	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

func (s *DB) EnsureOwner(ctx context.Context, owner entity.Owner) (err error) {
	ctx, span := s.startSpan(ctx, "EnsureOwner")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		owner.ID, owner.Email, toMicros(owner.CreatedAt),
	)
	return s.mapError(err)
}

func (s *DB) UpsertOwner(ctx context.Context, owner entity.Owner) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertOwner")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email`,
		owner.ID, owner.Email, toMicros(owner.CreatedAt),
	)
	return s.mapError(err)
}

func (s *DB) PurgeOwner(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "PurgeOwner")
	defer func() { s.endSpan(span, err) }()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM sync_log WHERE user_id = ?`,
			`DELETE FROM totp_entries WHERE user_id = ?`,
			`DELETE FROM users WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, userID); err != nil {
				return s.mapError(err)
			}
		}
		return nil
	})
}
