package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

type OwnerUpsertInput struct {
	ID    int64  `validate:"required,gt=0"`
	Email string `validate:"omitempty,email"`
}

type OwnerPurgeInput struct {
	ID int64 `validate:"required,gt=0"`
}

// OwnerUpsert records a user registered elsewhere.
func (s *Usecase) OwnerUpsert(ctx context.Context, in OwnerUpsertInput) error {
	ctx, span := s.startSpan(ctx, "OwnerUpsert")
	defer span.End()

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.store.UpsertOwner(ctx, entity.Owner{ID: in.ID, Email: in.Email, CreatedAt: s.now()}); err != nil {
		slog.ErrorContext(ctx, "failed to upsert owner", "user_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// OwnerPurge physically removes a deleted user's entries, sync log and owner row.
func (s *Usecase) OwnerPurge(ctx context.Context, in OwnerPurgeInput) error {
	ctx, span := s.startSpan(ctx, "OwnerPurge")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.store.PurgeOwner(ctx, in.ID); err != nil {
		slog.ErrorContext(ctx, "failed to purge owner", "user_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "owner purged", "user_id", in.ID)
	return nil
}
