package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
)

const (
	rfcSHA1   = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	rfcSHA256 = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZA"
	rfcSHA512 = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNA"
)

// hotp is an independent RFC 4226 computation used to cross-check the generator.
func hotp(t *testing.T, secret string, counter uint64, digits int) string {
	t.Helper()

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		t.Fatalf("decode secret: %v", err)
	}
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)
	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)
	off := sum[len(sum)-1] & 0x0f
	bin := binary.BigEndian.Uint32(sum[off:off+4]) & 0x7fffffff
	mod := uint32(1)
	for range digits {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, bin%mod)
}

func TestGenerateRFC6238Vectors(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		p      Params
		at     int64
		want   string
	}{
		{"sha1 8 digits", rfcSHA1, Params{SHA1, 8, 30}, 59, "94287082"},
		{"sha1 6 digits", rfcSHA1, Params{SHA1, 6, 30}, 59, "287082"},
		{"sha1 later", rfcSHA1, Params{SHA1, 8, 30}, 1111111109, "07081804"},
		{"sha256", rfcSHA256, Params{SHA256, 8, 30}, 59, "46119246"},
		{"sha512", rfcSHA512, Params{SHA512, 8, 30}, 59, "90693936"},
		{"upper-case algorithm", rfcSHA1, Params{"SHA1", 6, 30}, 59, "287082"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			code, err := Generate(tt.secret, tt.p, time.Unix(tt.at, 0))

			// Assert
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if code.Value != tt.want {
				t.Fatalf("code = %s, want %s", code.Value, tt.want)
			}
		})
	}
}

func TestGenerateReferenceSecret(t *testing.T) {
	// Arrange
	secret := "JBSWY3DPEHPK3PXP"
	at := time.Unix(59, 0)

	// Act
	code, err := Generate(secret, Params{SHA1, 6, 30}, at)

	// Assert
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := hotp(t, secret, 1, 6); code.Value != want {
		t.Fatalf("code = %s, want %s", code.Value, want)
	}
	if code.Value != "996554" {
		t.Fatalf("code = %s, want 996554", code.Value)
	}
	if code.Remaining != 1 {
		t.Fatalf("remaining = %d, want 1", code.Remaining)
	}
	if code.Period != 30 {
		t.Fatalf("period = %d, want 30", code.Period)
	}
}

func TestGenerateSevenDigits(t *testing.T) {
	// Act
	code, err := Generate("JBSWY3DPEHPK3PXP", Params{SHA1, 7, 30}, time.Unix(59, 0))

	// Assert
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := hotp(t, "JBSWY3DPEHPK3PXP", 1, 7); code.Value != want {
		t.Fatalf("code = %s, want %s", code.Value, want)
	}
}

func TestGenerateAcceptsLowerCaseSecret(t *testing.T) {
	// Act
	upper, _ := Generate("JBSWY3DPEHPK3PXP", Params{SHA1, 6, 30}, time.Unix(1000, 0))
	lower, err := Generate("jbswy3dpehpk3pxp", Params{SHA1, 6, 30}, time.Unix(1000, 0))

	// Assert
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if upper.Value != lower.Value {
		t.Fatalf("lower-case secret produced %s, want %s", lower.Value, upper.Value)
	}
}

func TestVerifySkew(t *testing.T) {
	// Arrange
	secret := "JBSWY3DPEHPK3PXP"
	p := Params{SHA1, 6, 30}
	at := time.Unix(1_700_000_015, 0)
	code, err := Generate(secret, p, at)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Act & Assert
	if !Verify(code.Value, secret, p, at) {
		t.Fatal("code must verify at the same instant")
	}
	if !Verify(code.Value, secret, p, at.Add(30*time.Second)) {
		t.Fatal("code must verify one period later")
	}
	if !Verify(code.Value, secret, p, at.Add(-30*time.Second)) {
		t.Fatal("code must verify one period earlier")
	}
	if Verify(code.Value, secret, p, at.Add(90*time.Second)) {
		t.Fatal("code must not verify three periods later")
	}

	next, _ := Generate(secret, p, at.Add(30*time.Second))
	if next.Value == code.Value {
		t.Fatal("code should change after one period")
	}
}

func TestGenerateRejectsBadParams(t *testing.T) {
	tests := []Params{
		{"md5", 6, 30},
		{SHA1, 5, 30},
		{SHA1, 9, 30},
		{SHA1, 6, 9},
		{SHA1, 6, 121},
	}

	for _, p := range tests {
		// Act
		_, err := Generate("JBSWY3DPEHPK3PXP", p, time.Unix(59, 0))

		// Assert
		if !goerror.HasCode(err, goerror.CodeInvalidInput) {
			t.Fatalf("%+v: expected validation error, got %v", p, err)
		}
	}
}

func TestGenerateRejectsBadSecret(t *testing.T) {
	// Act
	_, err := Generate("not base32!", Params{SHA1, 6, 30}, time.Unix(59, 0))

	// Assert
	if !goerror.HasCode(err, goerror.CodeInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		period int
		at     int64
		want   int
	}{
		{30, 0, 30},
		{30, 59, 1},
		{30, 60, 30},
		{60, 61, 59},
		{10, 1_700_000_005, 5},
	}

	for _, tt := range tests {
		if got := Remaining(tt.period, time.Unix(tt.at, 0)); got != tt.want {
			t.Fatalf("Remaining(%d, %d) = %d, want %d", tt.period, tt.at, got, tt.want)
		}
	}
}

func TestGenerateConcurrentParams(t *testing.T) {
	at := time.Unix(59, 0)
	tests := []struct {
		name   string
		secret string
		p      Params
		want   string
	}{
		{"sha1 8 digits", rfcSHA1, Params{SHA1, 8, 30}, "94287082"},
		{"sha1 6 digits", rfcSHA1, Params{SHA1, 6, 30}, "287082"},
		{"sha1 60s", rfcSHA1, Params{SHA1, 6, 60}, hotp(t, rfcSHA1, 0, 6)},
		{"sha256", rfcSHA256, Params{SHA256, 8, 30}, "46119246"},
		{"sha512", rfcSHA512, Params{SHA512, 8, 30}, "90693936"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Act
			const workers = 16
			got := make([]string, workers)
			var wg sync.WaitGroup
			for i := range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					code, err := Generate(tt.secret, tt.p, at)
					if err != nil {
						got[i] = err.Error()
						return
					}
					got[i] = code.Value
				}()
			}
			wg.Wait()

			// Assert
			for i, v := range got {
				if v != tt.want {
					t.Fatalf("worker %d got %q, want %q", i, v, tt.want)
				}
			}
		})
	}
}
