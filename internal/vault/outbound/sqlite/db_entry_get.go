package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

const entryColumns = `id, user_id, name, issuer, secret_encrypted, algorithm, digits, period,
	icon, color, position, created_at, updated_at, deleted_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (entity.Entry, error) {
	var (
		e         entity.Entry
		createdAt int64
		updatedAt int64
		deletedAt sql.NullInt64
	)
	if err := row.Scan(
		&e.ID, &e.UserID, &e.Name, &e.Issuer, &e.SecretEncrypted, &e.Algorithm, &e.Digits, &e.Period,
		&e.Icon, &e.Color, &e.Position, &createdAt, &updatedAt, &deletedAt,
	); err != nil {
		return entity.Entry{}, err
	}

	e.CreatedAt = fromMicros(createdAt)
	e.UpdatedAt = fromMicros(updatedAt)
	if deletedAt.Valid {
		d := fromMicros(deletedAt.Int64)
		e.DeletedAt = &d
	}

	return e, nil
}

func (s *DB) ListActiveEntries(ctx context.Context, userID int64) (_ []entity.Entry, err error) {
	ctx, span := s.startSpan(ctx, "ListActiveEntries")
	defer func() { s.endSpan(span, err) }()

	return s.listEntries(ctx,
		`SELECT `+entryColumns+` FROM totp_entries
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY position ASC, created_at DESC, id DESC`,
		userID,
	)
}

func (s *DB) ListEntriesChangedSince(ctx context.Context, userID int64, since time.Time) (_ []entity.Entry, err error) {
	ctx, span := s.startSpan(ctx, "ListEntriesChangedSince")
	defer func() { s.endSpan(span, err) }()

	return s.listEntries(ctx,
		`SELECT `+entryColumns+` FROM totp_entries
		WHERE user_id = ? AND updated_at > ?
		ORDER BY updated_at ASC, id ASC`,
		userID, toMicros(since),
	)
}

func (s *DB) listEntries(ctx context.Context, query string, args ...any) ([]entity.Entry, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	entries := make([]entity.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, s.mapError(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return entries, nil
}

func (s *DB) GetActiveEntry(ctx context.Context, id, userID int64) (_ *entity.Entry, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveEntry")
	defer func() { s.endSpan(span, err) }()

	e, err := scanEntry(s.conn.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM totp_entries
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		id, userID,
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &e, nil
}
