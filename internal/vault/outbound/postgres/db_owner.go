package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

func (s *DB) EnsureOwner(ctx context.Context, owner entity.Owner) (err error) {
	ctx, span := s.startSpan(ctx, "EnsureOwner")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		owner.ID, owner.Email, owner.CreatedAt,
	)
	return s.mapError(err)
}

func (s *DB) UpsertOwner(ctx context.Context, owner entity.Owner) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertOwner")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email`,
		owner.ID, owner.Email, owner.CreatedAt,
	)
	return s.mapError(err)
}

func (s *DB) PurgeOwner(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "PurgeOwner")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	for _, q := range []string{
		`DELETE FROM sync_log WHERE user_id = $1`,
		`DELETE FROM totp_entries WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	} {
		if _, err := tx.Exec(ctx, q, userID); err != nil {
			return s.mapError(err)
		}
	}

	return tx.Commit(ctx)
}
