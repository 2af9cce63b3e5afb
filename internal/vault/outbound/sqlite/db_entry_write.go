package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

func (s *DB) InsertEntry(ctx context.Context, in entity.NewEntry) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "InsertEntry")
	defer func() { s.endSpan(span, err) }()

	now := toMicros(in.Now)
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO totp_entries (user_id, name, issuer, secret_encrypted, algorithm, digits, period,
			icon, color, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, in.Name, in.Issuer, in.SecretEncrypted, in.Algorithm, in.Digits, in.Period,
		in.Icon, in.Color, in.Position, now, now,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return res.LastInsertId()
}

func (s *DB) UpdateEntry(ctx context.Context, in entity.UpdateEntry) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UpdateEntry")
	defer func() { s.endSpan(span, err) }()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE totp_entries SET
			name = ?,
			issuer = ?,
			secret_encrypted = COALESCE(NULLIF(?, ''), secret_encrypted),
			algorithm = ?,
			digits = ?,
			period = ?,
			icon = ?,
			color = ?,
			position = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		in.Name, in.Issuer, in.SecretEncrypted, in.Algorithm, in.Digits, in.Period,
		in.Icon, in.Color, in.Position, toMicros(in.Now), in.ID, in.UserID,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return affected(res)
}

func (s *DB) PatchEntry(ctx context.Context, in entity.PatchEntry) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "PatchEntry")
	defer func() { s.endSpan(span, err) }()

	sets := []string{"updated_at = ?"}
	args := []any{toMicros(in.Now)}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if in.Name != nil {
		add("name", *in.Name)
	}
	if in.Issuer != nil {
		add("issuer", *in.Issuer)
	}
	if in.Icon != nil {
		add("icon", *in.Icon)
	}
	if in.Color != nil {
		add("color", *in.Color)
	}
	if in.Position != nil {
		add("position", *in.Position)
	}
	args = append(args, in.ID, in.UserID)

	res, err := s.conn.ExecContext(ctx,
		`UPDATE totp_entries SET `+strings.Join(sets, ", ")+`
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		args...,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return affected(res)
}

func (s *DB) TombstoneEntry(ctx context.Context, id, userID int64, deletedAt, now time.Time) (_ entity.TombstoneResult, err error) {
	ctx, span := s.startSpan(ctx, "TombstoneEntry")
	defer func() { s.endSpan(span, err) }()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE totp_entries SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		toMicros(deletedAt), toMicros(now), id, userID,
	)
	if err != nil {
		return entity.TombstoneMissing, s.mapError(err)
	}
	ok, err := affected(res)
	if err != nil {
		return entity.TombstoneMissing, err
	}
	if ok {
		return entity.TombstoneApplied, nil
	}

	var exists bool
	if err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM totp_entries WHERE id = ? AND user_id = ?)`,
		id, userID,
	).Scan(&exists); err != nil {
		return entity.TombstoneMissing, s.mapError(err)
	}
	if exists {
		return entity.TombstoneAlready, nil
	}

	return entity.TombstoneMissing, nil
}

func (s *DB) TombstoneAllEntries(ctx context.Context, userID int64, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "TombstoneAllEntries")
	defer func() { s.endSpan(span, err) }()

	ts := toMicros(now)
	res, err := s.conn.ExecContext(ctx,
		`UPDATE totp_entries SET deleted_at = ?, updated_at = ?
		WHERE user_id = ? AND deleted_at IS NULL`,
		ts, ts, userID,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return res.RowsAffected()
}

func (s *DB) ReorderEntries(ctx context.Context, userID int64, ids []int64, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "ReorderEntries")
	defer func() { s.endSpan(span, err) }()

	var total int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE totp_entries SET position = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		)
		if err != nil {
			return s.mapError(err)
		}
		defer stmt.Close()

		ts := toMicros(now)
		for i, id := range ids {
			res, err := stmt.ExecContext(ctx, i, ts, id, userID)
			if err != nil {
				return s.mapError(err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
