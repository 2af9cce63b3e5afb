package usecase

import (
	"context"
	"log/slog"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/normalizer"
)

type ImportURIsInput struct {
	URIs       []string `validate:"required,min=1,max=10000"`
	ReplaceAll bool
}

// ImportURIs stores one entry per otpauth URI.
func (s *Usecase) ImportURIs(ctx context.Context, in ImportURIsInput) (*ImportOutput, error) {
	ctx, span := s.startSpan(ctx, "ImportURIs")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticatedWriter(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.replaceAll(ctx, clm.UserID, in.ReplaceAll); err != nil {
		return nil, err
	}

	out := &ImportOutput{
		Variant:  "uri",
		Entries:  make([]ImportedEntry, 0, len(in.URIs)),
		Failures: make([]ImportFailure, 0),
	}
	for _, uri := range in.URIs {
		parsed, err := normalizer.ParseURI(uri)
		if err != nil {
			out.Failures = append(out.Failures, ImportFailure{URI: uri, Reason: goerror.Message(err, "Invalid URI")})
			continue
		}

		c, err := normalizer.ValidateCanonical(parsed)
		if err != nil {
			out.Failures = append(out.Failures, ImportFailure{URI: uri, Name: parsed.Name, Reason: goerror.Message(err, "Invalid entry")})
			continue
		}

		id, err := s.insertCanonical(ctx, clm.UserID, c, 0)
		if err != nil {
			out.Failures = append(out.Failures, ImportFailure{URI: uri, Name: c.Name, Reason: goerror.Message(err, "Failed to store entry")})
			continue
		}

		out.Entries = append(out.Entries, ImportedEntry{ID: id, Name: c.Name, Issuer: c.Issuer})
	}

	out.Imported = len(out.Entries)
	out.Failed = len(out.Failures)

	slog.InfoContext(ctx, "uri import finished", "user_id", clm.UserID, "imported", out.Imported, "failed", out.Failed)
	s.publishChanged(ctx, VaultChangedEvent{UserID: clm.UserID, Source: "import_uri", Changed: out.Imported, At: s.now()})

	return out, nil
}
