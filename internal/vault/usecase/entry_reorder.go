package usecase

import (
	"context"
	"log/slog"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
)

type EntryReorderInput struct {
	IDs []int64 `validate:"required,min=1,max=10000,unique,dive,gt=0"`
}

type EntryReorderOutput struct {
	Updated int64
}

// EntryReorder assigns positions in the order given. Ids the caller does not
// own are skipped.
func (s *Usecase) EntryReorder(ctx context.Context, in EntryReorderInput) (*EntryReorderOutput, error) {
	ctx, span := s.startSpan(ctx, "EntryReorder")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	n, err := s.store.ReorderEntries(ctx, clm.UserID, in.IDs, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to reorder entries", "user_id", clm.UserID, "count", len(in.IDs), "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishChanged(ctx, VaultChangedEvent{UserID: clm.UserID, Source: "entry_reorder", Changed: int(n), At: now})

	return &EntryReorderOutput{Updated: n}, nil
}
