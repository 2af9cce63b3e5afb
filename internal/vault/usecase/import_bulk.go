package usecase

import (
	"context"
	"log/slog"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/normalizer"
)

type (
	ImportBulkInput struct {
		Payload    []byte `validate:"required,max=5242880"`
		ReplaceAll bool
	}

	ImportedEntry struct {
		ID     int64
		Name   string
		Issuer string
	}

	ImportFailure struct {
		Name   string
		URI    string
		Reason string
	}

	ImportOutput struct {
		Imported int
		Failed   int
		Variant  string
		Entries  []ImportedEntry
		Failures []ImportFailure
	}
)

// ImportBulk loads a JSON export. Each record is validated, sealed and stored
// on its own; failures are reported next to the successes.
func (s *Usecase) ImportBulk(ctx context.Context, in ImportBulkInput) (*ImportOutput, error) {
	ctx, span := s.startSpan(ctx, "ImportBulk")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticatedWriter(ctx)
	if err != nil {
		return nil, err
	}

	batch, err := normalizer.ParseBulk(in.Payload)
	if err != nil {
		slog.WarnContext(ctx, "unrecognized import payload", "user_id", clm.UserID, "size", len(in.Payload))
		return nil, err
	}

	if err := s.replaceAll(ctx, clm.UserID, in.ReplaceAll); err != nil {
		return nil, err
	}

	out := &ImportOutput{
		Variant:  string(batch.Variant),
		Entries:  make([]ImportedEntry, 0, len(batch.Records)),
		Failures: make([]ImportFailure, 0),
	}
	for _, rec := range batch.Records {
		c, err := normalizer.Validate(rec)
		if err != nil {
			out.Failures = append(out.Failures, ImportFailure{Name: normalizer.DisplayName(rec), Reason: goerror.Message(err, "Invalid entry")})
			continue
		}

		id, err := s.insertCanonical(ctx, clm.UserID, c, 0)
		if err != nil {
			out.Failures = append(out.Failures, ImportFailure{Name: c.Name, Reason: goerror.Message(err, "Failed to store entry")})
			continue
		}

		out.Entries = append(out.Entries, ImportedEntry{ID: id, Name: c.Name, Issuer: c.Issuer})
	}

	out.Imported = len(out.Entries)
	out.Failed = len(out.Failures)

	slog.InfoContext(ctx, "bulk import finished", "user_id", clm.UserID, "variant", batch.Variant, "imported", out.Imported, "failed", out.Failed)
	s.publishChanged(ctx, VaultChangedEvent{UserID: clm.UserID, Source: "import_json", Changed: out.Imported, At: s.now()})

	return out, nil
}

func (s *Usecase) replaceAll(ctx context.Context, userID int64, replace bool) error {
	if !replace {
		return nil
	}

	n, err := s.store.TombstoneAllEntries(ctx, userID, s.now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to tombstone entries before import", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "tombstoned entries before import", "user_id", userID, "count", n)
	return nil
}
