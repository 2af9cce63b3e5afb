package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

type EntryUpdateInput struct {
	ID       int64   `validate:"required,gt=0"`
	Name     *string `validate:"omitempty,min=1,max=255"`
	Issuer   *string `validate:"omitempty,max=255"`
	Icon     *string `validate:"omitempty,max=255"`
	Color    *string `validate:"omitempty,max=32"`
	Position *int    `validate:"omitempty,min=0"`
}

func (s *Usecase) EntryUpdate(ctx context.Context, in EntryUpdateInput) (*entity.Entry, error) {
	ctx, span := s.startSpan(ctx, "EntryUpdate")
	defer span.End()

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Issuer != nil {
		issuer := strings.TrimSpace(*in.Issuer)
		in.Issuer = &issuer
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	patch := entity.PatchEntry{
		ID:       in.ID,
		UserID:   clm.UserID,
		Name:     in.Name,
		Issuer:   in.Issuer,
		Icon:     in.Icon,
		Color:    in.Color,
		Position: in.Position,
		Now:      s.now(),
	}
	if patch.IsEmpty() {
		return nil, goerror.NewValidation("No fields to update")
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, goerror.NewInvalidInput(nil, "name", "name is a required field")
	}

	ok, err := s.store.PatchEntry(ctx, patch)
	if err != nil {
		slog.ErrorContext(ctx, "failed to patch entry", "entry_id", in.ID, "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "entry not found", "entry_id", in.ID, "user_id", clm.UserID)
		return nil, goerror.NewNotFound("Entry not found")
	}

	s.publishChanged(ctx, VaultChangedEvent{UserID: clm.UserID, Source: "entry_update", Changed: 1, At: patch.Now})

	return s.getActiveEntry(ctx, in.ID, clm.UserID)
}
