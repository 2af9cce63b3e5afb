package usecase_test

import (
	"testing"
	"time"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/usecase"
)

func TestUsecase_EntryCreate(t *testing.T) {
	tests := []struct {
		name     string
		in       usecase.EntryCreateInput
		wantCode goerror.Code
		wantErr  bool
		wantAlgo string
	}{
		{
			name:     "defaults",
			in:       usecase.EntryCreateInput{Name: "GitHub", Secret: "jbsw y3dp ehpk 3pxp"},
			wantAlgo: "sha1",
		},
		{
			name:     "dashed algorithm",
			in:       usecase.EntryCreateInput{Name: "Bank", Secret: "JBSWY3DPEHPK3PXP", Algorithm: "SHA-256", Digits: 8, Period: 60},
			wantAlgo: "sha256",
		},
		{
			name:     "missing name",
			in:       usecase.EntryCreateInput{Secret: "JBSWY3DPEHPK3PXP"},
			wantErr:  true,
			wantCode: goerror.CodeInvalidInput,
		},
		{
			name:     "bad algorithm",
			in:       usecase.EntryCreateInput{Name: "x", Secret: "JBSWY3DPEHPK3PXP", Algorithm: "md5"},
			wantErr:  true,
			wantCode: goerror.CodeInvalidInput,
		},
		{
			name:     "period out of range",
			in:       usecase.EntryCreateInput{Name: "x", Secret: "JBSWY3DPEHPK3PXP", Period: 5},
			wantErr:  true,
			wantCode: goerror.CodeInvalidInput,
		},
		{
			name:     "secret not base32",
			in:       usecase.EntryCreateInput{Name: "x", Secret: "not-base32!"},
			wantErr:  true,
			wantCode: goerror.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
			ctx := ownerCtx(1)

			// Act
			got, err := f.uc.EntryCreate(ctx, tt.in)

			// Assert
			if tt.wantErr {
				assertCode(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("EntryCreate() error = %v", err)
			}
			if got.Algorithm != tt.wantAlgo {
				t.Fatalf("Algorithm = %q, want %q", got.Algorithm, tt.wantAlgo)
			}
			if got.SecretEncrypted == "" || got.SecretEncrypted == tt.in.Secret {
				t.Fatalf("secret stored in clear: %q", got.SecretEncrypted)
			}
			plain, err := f.cipher.Decrypt(got.SecretEncrypted)
			if err != nil || plain != "JBSWY3DPEHPK3PXP" {
				t.Fatalf("stored secret = %q, %v", plain, err)
			}
		})
	}
}

func TestUsecase_EntryUpdate(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	ctx := ownerCtx(1)
	e := f.create(t, ctx, "Old", "JBSWY3DPEHPK3PXP")
	name, color := "  New  ", "#00ff00"

	// Act
	got, err := f.uc.EntryUpdate(ctx, usecase.EntryUpdateInput{ID: e.ID, Name: &name, Color: &color})

	// Assert
	if err != nil {
		t.Fatalf("EntryUpdate() error = %v", err)
	}
	if got.Name != "New" || got.Color != "#00ff00" || got.SecretEncrypted != e.SecretEncrypted {
		t.Fatalf("EntryUpdate() = %+v", got)
	}

	_, err = f.uc.EntryUpdate(ctx, usecase.EntryUpdateInput{ID: e.ID})
	assertCode(t, err, goerror.CodeInvalidInput)
	if goerror.Message(err, "") != "No fields to update" {
		t.Fatalf("empty patch message = %q", goerror.Message(err, ""))
	}

	_, err = f.uc.EntryUpdate(ownerCtx(2), usecase.EntryUpdateInput{ID: e.ID, Name: &name})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestUsecase_EntryDelete(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	ctx := ownerCtx(1)
	e := f.create(t, ctx, "Gone", "JBSWY3DPEHPK3PXP")

	// Act
	err := f.uc.EntryDelete(ctx, usecase.EntryDeleteInput{ID: e.ID})

	// Assert
	if err != nil {
		t.Fatalf("EntryDelete() error = %v", err)
	}
	assertCode(t, f.uc.EntryDelete(ctx, usecase.EntryDeleteInput{ID: e.ID}), goerror.CodeNotFound)
	_, err = f.uc.EntryGet(ctx, usecase.EntryGetInput{ID: e.ID})
	assertCode(t, err, goerror.CodeNotFound)
	_, err = f.uc.CodeGenerate(ctx, usecase.CodeGenerateInput{ID: e.ID})
	assertCode(t, err, goerror.CodeNotFound)

	list, err := f.uc.EntryList(ctx)
	if err != nil || len(list.Entries) != 0 {
		t.Fatalf("EntryList() = %+v, %v, want empty", list, err)
	}
}

func TestUsecase_EntryReorder(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	ctx := ownerCtx(1)
	a := f.create(t, ctx, "a", "JBSWY3DPEHPK3PXP")
	b := f.create(t, ctx, "b", "JBSWY3DPEHPK3PXP")
	foreign := f.create(t, ownerCtx(2), "foreign", "JBSWY3DPEHPK3PXP")

	// Act
	out, err := f.uc.EntryReorder(ctx, usecase.EntryReorderInput{IDs: []int64{b.ID, foreign.ID, a.ID}})

	// Assert
	if err != nil {
		t.Fatalf("EntryReorder() error = %v", err)
	}
	if out.Updated != 2 {
		t.Fatalf("Updated = %d, want 2", out.Updated)
	}
	list, err := f.uc.EntryList(ctx)
	if err != nil {
		t.Fatalf("EntryList() error = %v", err)
	}
	if list.Entries[0].ID != b.ID || list.Entries[1].ID != a.ID {
		t.Fatalf("order = [%d %d], want [%d %d]", list.Entries[0].ID, list.Entries[1].ID, b.ID, a.ID)
	}
	got, err := f.uc.EntryGet(ownerCtx(2), usecase.EntryGetInput{ID: foreign.ID})
	if err != nil || got.Position != 0 {
		t.Fatalf("foreign entry = %+v, %v", got, err)
	}
}
