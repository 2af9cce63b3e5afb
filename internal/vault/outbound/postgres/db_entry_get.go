package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

const entryColumns = `id, user_id, name, issuer, secret_encrypted, algorithm, digits, period,
	icon, color, position, created_at, updated_at, deleted_at`

func scanEntry(row pgx.Row) (entity.Entry, error) {
	var (
		e         entity.Entry
		digits    int16
		period    int16
		deletedAt *time.Time
	)
	if err := row.Scan(
		&e.ID, &e.UserID, &e.Name, &e.Issuer, &e.SecretEncrypted, &e.Algorithm, &digits, &period,
		&e.Icon, &e.Color, &e.Position, &e.CreatedAt, &e.UpdatedAt, &deletedAt,
	); err != nil {
		return entity.Entry{}, err
	}

	e.Digits = int(digits)
	e.Period = int(period)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	if deletedAt != nil {
		d := deletedAt.UTC()
		e.DeletedAt = &d
	}

	return e, nil
}

func (s *DB) ListActiveEntries(ctx context.Context, userID int64) (_ []entity.Entry, err error) {
	ctx, span := s.startSpan(ctx, "ListActiveEntries")
	defer func() { s.endSpan(span, err) }()

	return s.listEntries(ctx,
		`SELECT `+entryColumns+` FROM totp_entries
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY position ASC, created_at DESC, id DESC`,
		userID,
	)
}

func (s *DB) ListEntriesChangedSince(ctx context.Context, userID int64, since time.Time) (_ []entity.Entry, err error) {
	ctx, span := s.startSpan(ctx, "ListEntriesChangedSince")
	defer func() { s.endSpan(span, err) }()

	return s.listEntries(ctx,
		`SELECT `+entryColumns+` FROM totp_entries
		WHERE user_id = $1 AND updated_at > $2
		ORDER BY updated_at ASC, id ASC`,
		userID, since,
	)
}

func (s *DB) listEntries(ctx context.Context, query string, args ...any) ([]entity.Entry, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, s.mapError(err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Entry, error) {
		return scanEntry(row)
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return entries, nil
}

func (s *DB) GetActiveEntry(ctx context.Context, id, userID int64) (_ *entity.Entry, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveEntry")
	defer func() { s.endSpan(span, err) }()

	e, err := scanEntry(s.conn.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM totp_entries
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		id, userID,
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &e, nil
}
