package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/normalizer"
)

const (
	ExportVersion = "1.0"
	ExportType    = "totp-sync-export"
)

type (
	ExportEntry struct {
		normalizer.Canonical
		Type string
	}

	ExportJSONOutput struct {
		Version    string
		Type       string
		ExportDate time.Time
		Entries    []ExportEntry
	}

	ExportURIsOutput struct {
		URIs  []string
		Count int
	}
)

// ExportJSON returns every active entry with its plaintext secret. The
// result must not be logged or persisted by the caller.
func (s *Usecase) ExportJSON(ctx context.Context) (*ExportJSONOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportJSON")
	defer span.End()

	entries, err := s.exportCanonical(ctx)
	if err != nil {
		return nil, err
	}

	out := &ExportJSONOutput{
		Version:    ExportVersion,
		Type:       ExportType,
		ExportDate: s.now(),
		Entries:    make([]ExportEntry, 0, len(entries)),
	}
	for _, c := range entries {
		out.Entries = append(out.Entries, ExportEntry{Canonical: c, Type: "TOTP"})
	}

	return out, nil
}

// ExportURIs returns one otpauth URI per active entry.
func (s *Usecase) ExportURIs(ctx context.Context) (*ExportURIsOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportURIs")
	defer span.End()

	entries, err := s.exportCanonical(ctx)
	if err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(entries))
	for _, c := range entries {
		uris = append(uris, normalizer.FormatURI(c))
	}

	return &ExportURIsOutput{URIs: uris, Count: len(uris)}, nil
}

func (s *Usecase) exportCanonical(ctx context.Context) ([]normalizer.Canonical, error) {
	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.ListActiveEntries(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list entries for export", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := make([]normalizer.Canonical, 0, len(rows))
	for _, row := range rows {
		secret, err := s.cipher.Decrypt(row.SecretEncrypted)
		if err != nil {
			slog.ErrorContext(ctx, "skipping entry that failed to decrypt", "entry_id", row.ID, "user_id", clm.UserID, "error", err)
			continue
		}

		out = append(out, normalizer.Canonical{
			Name:      row.Name,
			Issuer:    row.Issuer,
			Secret:    secret,
			Algorithm: row.Algorithm,
			Digits:    row.Digits,
			Period:    row.Period,
			Icon:      row.Icon,
			Color:     row.Color,
		})
	}

	return out, nil
}
