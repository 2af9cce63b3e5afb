package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

type EntryGetInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) EntryGet(ctx context.Context, in EntryGetInput) (*entity.Entry, error) {
	ctx, span := s.startSpan(ctx, "EntryGet")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	return s.getActiveEntry(ctx, in.ID, clm.UserID)
}

func (s *Usecase) getActiveEntry(ctx context.Context, id, userID int64) (*entity.Entry, error) {
	entry, err := s.store.GetActiveEntry(ctx, id, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "entry not found", "entry_id", id, "user_id", userID)
		return nil, goerror.NewNotFound("Entry not found")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get entry", "entry_id", id, "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return entry, nil
}
