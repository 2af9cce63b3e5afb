package normalizer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
)

func TestParseBulkDetection(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		variant Variant
		count   int
	}{
		{"freeotp tokens", `{"tokens":[{"label":"a","secret":[1,2]}]}`, VariantFreeOTP, 1},
		{"2fauth data", `{"data":[{"service":"S"},{"account":"b"}]}`, Variant2FAuth, 2},
		{"bare array", `[{"name":"a"},{"name":"b"},{"name":"c"}]`, VariantArray, 3},
		{"entries object", `{"version":"1.0","entries":[{"name":"a"}]}`, VariantCanonical, 1},
		{"tokens wins over data", `{"data":[{}],"tokens":[{},{}]}`, VariantFreeOTP, 2},
		{"data wins over entries", `{"entries":[{}],"data":[{},{},{}]}`, Variant2FAuth, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			batch, err := ParseBulk([]byte(tt.payload))

			// Assert
			if err != nil {
				t.Fatalf("ParseBulk: %v", err)
			}
			if batch.Variant != tt.variant {
				t.Fatalf("variant = %s, want %s", batch.Variant, tt.variant)
			}
			if len(batch.Records) != tt.count {
				t.Fatalf("records = %d, want %d", len(batch.Records), tt.count)
			}
		})
	}
}

func TestParseBulkUnrecognized(t *testing.T) {
	for _, payload := range []string{`{"foo":[]}`, `not json`, `"string"`, `{"tokens":"nope"}`} {
		// Act
		_, err := ParseBulk([]byte(payload))

		// Assert
		if !goerror.HasCode(err, goerror.CodeInvalidFormat) {
			t.Fatalf("%s: expected parse error, got %v", payload, err)
		}
		if got := goerror.Message(err, ""); got != "No valid entries found" {
			t.Fatalf("%s: message = %q", payload, got)
		}
	}
}

func TestFreeOTPMapping(t *testing.T) {
	// Arrange
	payload := `{"tokens":[{"algo":"SHA256","digits":8,"issuerExt":"Acme","label":"alice","period":60,"secret":[-34,-83,-66,-17,1,2,3,127],"type":"TOTP"}]}`

	// Act
	batch, err := ParseBulk([]byte(payload))
	if err != nil {
		t.Fatalf("ParseBulk: %v", err)
	}
	got, err := Validate(batch.Records[0])

	// Assert
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := Canonical{Name: "alice", Issuer: "Acme", Secret: "32W353YBAIBX6", Algorithm: "sha256", Digits: 8, Period: 60}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTwoFAuthMapping(t *testing.T) {
	tests := []struct {
		name string
		rec  string
		want Canonical
	}{
		{
			name: "account and service",
			rec:  `{"data":[{"service":"GitHub","account":"dev@x.io","secret":"JBSWY3DPEHPK3PXP","algorithm":"SHA512","digits":8,"period":60}]}`,
			want: Canonical{Name: "dev@x.io", Issuer: "GitHub", Secret: "JBSWY3DPEHPK3PXP", Algorithm: "sha512", Digits: 8, Period: 60},
		},
		{
			name: "service only with defaults",
			rec:  `{"data":[{"service":"GitLab","secret":"JBSWY3DPEHPK3PXP"}]}`,
			want: Canonical{Name: "GitLab", Issuer: "GitLab", Secret: "JBSWY3DPEHPK3PXP", Algorithm: "sha1", Digits: 6, Period: 30},
		},
		{
			name: "nothing named",
			rec:  `{"data":[{"secret":"JBSWY3DPEHPK3PXP"}]}`,
			want: Canonical{Name: "Unknown", Issuer: "", Secret: "JBSWY3DPEHPK3PXP", Algorithm: "sha1", Digits: 6, Period: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			batch, err := ParseBulk([]byte(tt.rec))
			if err != nil {
				t.Fatalf("ParseBulk: %v", err)
			}
			got, err := Validate(batch.Records[0])

			// Assert
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateReasons(t *testing.T) {
	payload := `[
		{"name":"ok","secret":"JBSWY3DPEHPK3PXP","digits":"8","period":"60","algorithm":"SHA-256"},
		{"secret":"JBSWY3DPEHPK3PXP"},
		{"name":"empty secret","secret":"   "},
		{"name":"numeric secret","secret":12345},
		{"name":"algo","secret":"JBSWY3DPEHPK3PXP","algorithm":"md5"},
		{"name":"digits","secret":"JBSWY3DPEHPK3PXP","digits":9},
		{"name":"period low","secret":"JBSWY3DPEHPK3PXP","period":5},
		{"name":"period high","secret":"JBSWY3DPEHPK3PXP","period":"121"},
		{"name":"lenient","secret":"JBSWY3DPEHPK3PXP","digits":"abc","period":0}
	]`
	want := []string{
		"",
		"Missing name field",
		"Missing or invalid secret field",
		"Missing or invalid secret field",
		"Invalid algorithm: md5",
		"Invalid digits: 9",
		"Invalid period: 5",
		"Invalid period: 121",
		"",
	}

	// Arrange
	batch, err := ParseBulk([]byte(payload))
	if err != nil {
		t.Fatalf("ParseBulk: %v", err)
	}

	for i, rec := range batch.Records {
		// Act
		c, err := Validate(rec)

		// Assert
		if got := goerror.Message(err, ""); err != nil && got != want[i] || err == nil && want[i] != "" {
			t.Fatalf("record %d: reason = %q, want %q (err %v)", i, got, want[i], err)
		}
		if i == 0 && (c.Digits != 8 || c.Period != 60 || c.Algorithm != "sha256") {
			t.Fatalf("record 0 normalized to %+v", c)
		}
		if i == 8 && (c.Digits != 6 || c.Period != 30) {
			t.Fatalf("record 8 defaults not applied: %+v", c)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(Record{}); got != "Unknown" {
		t.Fatalf("DisplayName = %q", got)
	}
	if got := DisplayName(Record{"name": "x"}); got != "x" {
		t.Fatalf("DisplayName = %q", got)
	}
}

func TestReplaceAll(t *testing.T) {
	if !ReplaceAll([]byte(`{"replaceAll":true,"entries":[]}`)) {
		t.Fatal("expected replaceAll true")
	}
	if ReplaceAll([]byte(`[{"replaceAll":true}]`)) {
		t.Fatal("array payload has no replaceAll flag")
	}
}
