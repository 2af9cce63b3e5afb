package usecase

import (
	"context"
	"log/slog"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

type EntryListOutput struct {
	Entries []entity.Entry
}

func (s *Usecase) EntryList(ctx context.Context) (*EntryListOutput, error) {
	ctx, span := s.startSpan(ctx, "EntryList")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ListActiveEntries(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list entries", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &EntryListOutput{Entries: entries}, nil
}
