package usecase

import (
	"context"
	"log/slog"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

type EntryDeleteInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) EntryDelete(ctx context.Context, in EntryDeleteInput) error {
	ctx, span := s.startSpan(ctx, "EntryDelete")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	res, err := s.store.TombstoneEntry(ctx, in.ID, clm.UserID, now, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to tombstone entry", "entry_id", in.ID, "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if res != entity.TombstoneApplied {
		slog.WarnContext(ctx, "entry not found", "entry_id", in.ID, "user_id", clm.UserID)
		return goerror.NewNotFound("Entry not found")
	}

	s.publishChanged(ctx, VaultChangedEvent{UserID: clm.UserID, Source: "entry_delete", Changed: 1, At: now})

	return nil
}
