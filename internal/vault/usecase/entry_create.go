package usecase

import (
	"context"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
	"github.com/PrzemekSkw/totp-sync/internal/vault/normalizer"
)

type EntryCreateInput struct {
	Name      string `validate:"required,max=255"`
	Issuer    string `validate:"max=255"`
	Secret    string `validate:"required,max=1000"`
	Algorithm string `validate:"omitempty,otpalgo"`
	Digits    int    `validate:"omitempty,oneof=6 7 8"`
	Period    int    `validate:"omitempty,min=10,max=120"`
	Icon      string `validate:"max=255"`
	Color     string `validate:"max=32"`
	Position  int    `validate:"min=0"`
}

func (s *Usecase) EntryCreate(ctx context.Context, in EntryCreateInput) (*entity.Entry, error) {
	ctx, span := s.startSpan(ctx, "EntryCreate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticatedWriter(ctx)
	if err != nil {
		return nil, err
	}

	c, err := normalizer.ValidateCanonical(normalizer.Canonical{
		Name:      in.Name,
		Issuer:    in.Issuer,
		Secret:    in.Secret,
		Algorithm: in.Algorithm,
		Digits:    in.Digits,
		Period:    in.Period,
		Icon:      in.Icon,
		Color:     in.Color,
	})
	if err != nil {
		return nil, err
	}

	id, err := s.insertCanonical(ctx, clm.UserID, c, in.Position)
	if err != nil {
		return nil, err
	}

	s.publishChanged(ctx, VaultChangedEvent{UserID: clm.UserID, Source: "entry_create", Changed: 1, At: s.now()})

	return s.getActiveEntry(ctx, id, clm.UserID)
}
