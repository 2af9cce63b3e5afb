package usecase

import (
	"context"
	"log/slog"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/otp"
	"github.com/PrzemekSkw/totp-sync/internal/vault/entity"
)

type CodeGenerateInput struct {
	ID int64 `validate:"required,gt=0"`
}

type CodeOutput struct {
	EntryID       int64
	Token         string
	TimeRemaining int
	Period        int
}

type CodeListOutput struct {
	Codes []CodeOutput
}

func (s *Usecase) CodeGenerate(ctx context.Context, in CodeGenerateInput) (*CodeOutput, error) {
	ctx, span := s.startSpan(ctx, "CodeGenerate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.getActiveEntry(ctx, in.ID, clm.UserID)
	if err != nil {
		return nil, err
	}

	code, err := s.generate(*entry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate code", "entry_id", entry.ID, "user_id", clm.UserID, "error", err)
		return nil, err
	}

	return code, nil
}

// CodeList generates the current code of every active entry. Entries whose
// secret cannot be opened are left out.
func (s *Usecase) CodeList(ctx context.Context) (*CodeListOutput, error) {
	ctx, span := s.startSpan(ctx, "CodeList")
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

	codes := make([]CodeOutput, 0, len(entries))
	for _, entry := range entries {
		code, err := s.generate(entry)
		if err != nil {
			slog.WarnContext(ctx, "skipping entry in code list", "entry_id", entry.ID, "user_id", clm.UserID, "error", err)
			continue
		}
		codes = append(codes, *code)
	}

	return &CodeListOutput{Codes: codes}, nil
}

func (s *Usecase) generate(entry entity.Entry) (*CodeOutput, error) {
	secret, err := s.cipher.Decrypt(entry.SecretEncrypted)
	if err != nil {
		return nil, err
	}

	code, err := s.totp.Generate(secret, otp.Params{
		Algorithm: entry.Algorithm,
		Digits:    entry.Digits,
		Period:    entry.Period,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	return &CodeOutput{
		EntryID:       entry.ID,
		Token:         code.Value,
		TimeRemaining: code.Remaining,
		Period:        code.Period,
	}, nil
}
