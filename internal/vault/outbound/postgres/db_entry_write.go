package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

func (s *DB) InsertEntry(ctx context.Context, in entity.NewEntry) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "InsertEntry")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.conn.QueryRow(ctx,
		`INSERT INTO totp_entries (user_id, name, issuer, secret_encrypted, algorithm, digits, period,
			icon, color, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id`,
		in.UserID, in.Name, in.Issuer, in.SecretEncrypted, in.Algorithm, in.Digits, in.Period,
		in.Icon, in.Color, in.Position, in.Now,
	).Scan(&id)
	if err != nil {
		return 0, s.mapError(err)
	}

	return id, nil
}

func (s *DB) UpdateEntry(ctx context.Context, in entity.UpdateEntry) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UpdateEntry")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE totp_entries SET
			name = $3,
			issuer = $4,
			secret_encrypted = COALESCE(NULLIF($5, ''), secret_encrypted),
			algorithm = $6,
			digits = $7,
			period = $8,
			icon = $9,
			color = $10,
			position = $11,
			updated_at = $12
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		in.ID, in.UserID, in.Name, in.Issuer, in.SecretEncrypted, in.Algorithm, in.Digits, in.Period,
		in.Icon, in.Color, in.Position, in.Now,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *DB) PatchEntry(ctx context.Context, in entity.PatchEntry) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "PatchEntry")
	defer func() { s.endSpan(span, err) }()

	sets := []string{"updated_at = $3"}
	args := []any{in.ID, in.UserID, in.Now}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
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

	tag, err := s.conn.Exec(ctx,
		`UPDATE totp_entries SET `+strings.Join(sets, ", ")+`
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		args...,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *DB) TombstoneEntry(ctx context.Context, id, userID int64, deletedAt, now time.Time) (_ entity.TombstoneResult, err error) {
	ctx, span := s.startSpan(ctx, "TombstoneEntry")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE totp_entries SET deleted_at = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		id, userID, deletedAt, now,
	)
	if err != nil {
		return entity.TombstoneMissing, s.mapError(err)
	}
	if tag.RowsAffected() > 0 {
		return entity.TombstoneApplied, nil
	}

	var exists bool
	if err := s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM totp_entries WHERE id = $1 AND user_id = $2)`,
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

	tag, err := s.conn.Exec(ctx,
		`UPDATE totp_entries SET deleted_at = $2, updated_at = $2
		WHERE user_id = $1 AND deleted_at IS NULL`,
		userID, now,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

func (s *DB) ReorderEntries(ctx context.Context, userID int64, ids []int64, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "ReorderEntries")
	defer func() { s.endSpan(span, err) }()

	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := s.conn.Exec(ctx,
		`UPDATE totp_entries AS e SET position = o.ord - 1, updated_at = $3
		FROM unnest($2::bigint[]) WITH ORDINALITY AS o(id, ord)
		WHERE e.id = o.id AND e.user_id = $1 AND e.deleted_at IS NULL`,
		userID, ids, now,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
