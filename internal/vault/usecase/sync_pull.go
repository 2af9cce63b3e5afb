package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

type SyncPullInput struct {
	DeviceID string `validate:"max=255"`
	// Since selects a delta pull. Nil means a full snapshot of active entries.
	Since *time.Time
}

// SyncEntry is an entry as sent to a device. Secret is nil for tombstones and
// for rows whose envelope could not be opened.
type SyncEntry struct {
	ID        int64
	Name      string
	Issuer    string
	Secret    *string
	Algorithm string
	Digits    int
	Period    int
	Icon      string
	Color     string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type SyncPullOutput struct {
	Entries  []SyncEntry
	SyncTime time.Time
}

// SyncPull returns a changelog since in.Since, or a full snapshot.
func (s *Usecase) SyncPull(ctx context.Context, in SyncPullInput) (*SyncPullOutput, error) {
	ctx, span := s.startSpan(ctx, "SyncPull")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticatedWriter(ctx)
	if err != nil {
		return nil, err
	}

	// Taken before the read: a row written while the query runs gets a later
	// updated_at and is returned by the next pull from SyncTime.
	now := s.now()

	var rows []entity.Entry
	if in.Since != nil {
		rows, err = s.store.ListEntriesChangedSince(ctx, clm.UserID, in.Since.UTC())
	} else {
		rows, err = s.store.ListActiveEntries(ctx, clm.UserID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to list entries for pull", "user_id", clm.UserID, "delta", in.Since != nil, "error", err)
		return nil, goerror.NewServer(err)
	}

	entries := make([]SyncEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, s.toSyncEntry(ctx, row))
	}

	if err := s.appendSyncLog(ctx, clm.UserID, in.DeviceID, entity.SyncTypePull, now); err != nil {
		return nil, err
	}

	return &SyncPullOutput{Entries: entries, SyncTime: now}, nil
}

func (s *Usecase) toSyncEntry(ctx context.Context, row entity.Entry) SyncEntry {
	out := SyncEntry{
		ID:        row.ID,
		Name:      row.Name,
		Issuer:    row.Issuer,
		Algorithm: row.Algorithm,
		Digits:    row.Digits,
		Period:    row.Period,
		Icon:      row.Icon,
		Color:     row.Color,
		Position:  row.Position,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		DeletedAt: row.DeletedAt,
	}

	// Deleted rows are never decrypted.
	if row.IsDeleted() {
		return out
	}

	secret, err := s.cipher.Decrypt(row.SecretEncrypted)
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt entry for pull", "entry_id", row.ID, "user_id", row.UserID, "error", err)
		return out
	}
	out.Secret = &secret

	return out
}
