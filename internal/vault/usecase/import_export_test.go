package usecase_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/samber/lo"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/vault/normalizer"
	"github.com/PrzemekSkw/totp-sync/internal/vault/usecase"
)

func TestUsecase_ImportBulkPartialFailure(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	ctx := ownerCtx(1)

	// Arrange
	payload := []byte(`{"entries": [
		{"name": "one", "secret": "JBSWY3DPEHPK3PXP"},
		{"name": "two", "issuer": "Acme", "secret": "GEZDGNBVGY3TQOJQ", "algorithm": "SHA256", "digits": 8},
		{"name": "three", "secret": ""},
		{"name": "four", "secret": "MFRGGZDFMZTWQ2LK", "period": 60},
		{"name": "five", "secret": "KRSXG5CTMVRXEZLU"}
	]}`)

	// Act
	out, err := f.uc.ImportBulk(ctx, usecase.ImportBulkInput{Payload: payload})

	// Assert
	if err != nil {
		t.Fatalf("ImportBulk() error = %v", err)
	}
	if out.Imported != 4 || out.Failed != 1 {
		t.Fatalf("ImportBulk() imported=%d failed=%d, want 4/1", out.Imported, out.Failed)
	}
	want := []usecase.ImportFailure{{Name: "three", Reason: "Missing or invalid secret field"}}
	if diff := cmp.Diff(want, out.Failures); diff != "" {
		t.Fatalf("failures mismatch (-want +got):\n%s", diff)
	}
	if out.Variant != string(normalizer.VariantCanonical) {
		t.Fatalf("Variant = %q", out.Variant)
	}
}

func TestUsecase_ImportBulkVariants(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantVariant normalizer.Variant
		wantNames   []string
	}{
		{
			name:        "freeotp tokens",
			payload:     `{"tokens": [{"label": "alice", "issuerExt": "Example", "secret": [-34,-83,-66,-17,1,2,3,127], "algo": "SHA1", "digits": 6, "period": 30}]}`,
			wantVariant: normalizer.VariantFreeOTP,
			wantNames:   []string{"alice"},
		},
		{
			name:        "2fauth data",
			payload:     `{"data": [{"service": "Mail", "account": "bob", "secret": "JBSWY3DPEHPK3PXP"}, {"service": "Chat", "secret": "JBSWY3DPEHPK3PXP"}]}`,
			wantVariant: normalizer.Variant2FAuth,
			wantNames:   []string{"bob", "Chat"},
		},
		{
			name:        "bare array",
			payload:     `[{"name": "solo", "secret": "JBSWY3DPEHPK3PXP"}]`,
			wantVariant: normalizer.VariantArray,
			wantNames:   []string{"solo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))

			// Act
			out, err := f.uc.ImportBulk(ownerCtx(1), usecase.ImportBulkInput{Payload: []byte(tt.payload)})

			// Assert
			if err != nil {
				t.Fatalf("ImportBulk() error = %v", err)
			}
			if out.Variant != string(tt.wantVariant) {
				t.Fatalf("Variant = %q, want %q", out.Variant, tt.wantVariant)
			}
			gotNames := lo.Map(out.Entries, func(e usecase.ImportedEntry, _ int) string { return e.Name })
			if diff := cmp.Diff(tt.wantNames, gotNames); diff != "" {
				t.Fatalf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUsecase_ImportBulkUnrecognized(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))

	// Act
	_, err := f.uc.ImportBulk(ownerCtx(1), usecase.ImportBulkInput{Payload: []byte(`{"foo": 1}`)})

	// Assert
	assertCode(t, err, goerror.CodeInvalidFormat)
}

func TestUsecase_ImportReplaceAll(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	ctx := ownerCtx(1)
	old := f.create(t, ctx, "old", "JBSWY3DPEHPK3PXP")
	f.clock.Advance(time.Second)

	// Act
	out, err := f.uc.ImportURIs(ctx, usecase.ImportURIsInput{
		URIs:       []string{"otpauth://totp/Acme:new?secret=GEZDGNBVGY3TQOJQ"},
		ReplaceAll: true,
	})

	// Assert
	if err != nil || out.Imported != 1 {
		t.Fatalf("ImportURIs() = %+v, %v", out, err)
	}
	list, err := f.uc.EntryList(ctx)
	if err != nil {
		t.Fatalf("EntryList() error = %v", err)
	}
	if len(list.Entries) != 1 || list.Entries[0].Name != "new" || list.Entries[0].Issuer != "Acme" {
		t.Fatalf("EntryList() = %+v, want only the new entry", list.Entries)
	}
	since := old.UpdatedAt
	pull, err := f.uc.SyncPull(ctx, usecase.SyncPullInput{Since: &since})
	if err != nil {
		t.Fatalf("SyncPull() error = %v", err)
	}
	if _, ok := lo.Find(pull.Entries, func(e usecase.SyncEntry) bool { return e.ID == old.ID && e.DeletedAt != nil }); !ok {
		t.Fatalf("replaced entry not propagated as tombstone: %+v", pull.Entries)
	}
}

func TestUsecase_ImportURIsReportsFailures(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))

	// Act
	out, err := f.uc.ImportURIs(ownerCtx(1), usecase.ImportURIsInput{URIs: []string{
		"otpauth://totp/ok?secret=JBSWY3DPEHPK3PXP",
		"otpauth://hotp/counter?secret=JBSWY3DPEHPK3PXP&counter=1",
		"otpauth://totp/nosecret",
		"otpauth://totp/baddigits?secret=JBSWY3DPEHPK3PXP&digits=9",
	}})

	// Assert
	if err != nil {
		t.Fatalf("ImportURIs() error = %v", err)
	}
	if out.Imported != 1 || out.Failed != 3 {
		t.Fatalf("ImportURIs() = %+v, want 1 imported and 3 failed", out)
	}
	gotReasons := lo.Map(out.Failures, func(f usecase.ImportFailure, _ int) string { return f.Reason })
	wantReasons := []string{"Unsupported type: hotp", "Missing secret parameter", "Invalid digits: 9"}
	if diff := cmp.Diff(wantReasons, gotReasons); diff != "" {
		t.Fatalf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestUsecase_ExportRoundTrip(t *testing.T) {
	f := newFixture(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	src, dst := ownerCtx(1), ownerCtx(2)

	// Arrange
	for _, in := range []usecase.EntryCreateInput{
		{Name: "alice@example.com", Issuer: "Example Co", Secret: "JBSWY3DPEHPK3PXP"},
		{Name: "ops", Issuer: "", Secret: "GEZDGNBVGY3TQOJQ", Algorithm: "sha512", Digits: 8, Period: 60},
	} {
		if _, err := f.uc.EntryCreate(src, in); err != nil {
			t.Fatalf("EntryCreate() error = %v", err)
		}
	}

	// Act
	uris, err := f.uc.ExportURIs(src)
	if err != nil {
		t.Fatalf("ExportURIs() error = %v", err)
	}
	imported, err := f.uc.ImportURIs(dst, usecase.ImportURIsInput{URIs: uris.URIs})
	if err != nil {
		t.Fatalf("ImportURIs() error = %v", err)
	}
	before, err := f.uc.ExportJSON(src)
	if err != nil {
		t.Fatalf("ExportJSON(src) error = %v", err)
	}
	after, err := f.uc.ExportJSON(dst)

	// Assert
	if err != nil {
		t.Fatalf("ExportJSON(dst) error = %v", err)
	}
	if imported.Failed != 0 || uris.Count != 2 {
		t.Fatalf("round trip imported=%d failed=%d count=%d", imported.Imported, imported.Failed, uris.Count)
	}
	if after.Version != usecase.ExportVersion || after.Type != usecase.ExportType {
		t.Fatalf("export header = %s/%s", after.Version, after.Type)
	}
	byName := cmpopts.SortSlices(func(a, b usecase.ExportEntry) bool { return a.Name < b.Name })
	if diff := cmp.Diff(before.Entries, after.Entries, byName); diff != "" {
		t.Fatalf("round trip mismatch (-src +dst):\n%s", diff)
	}
}
