package normalizer

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/otp"
)

var allowedDigits = []int{6, 7, 8}

// Validate checks a bulk record and converts it to a Canonical entry.
// Failures are ValidationErrors whose message is the per-record reason.
func Validate(r Record) (Canonical, error) {
	name := strings.TrimSpace(r.String("name"))
	if name == "" {
		return Canonical{}, goerror.NewValidation("Missing name field")
	}

	secret, ok := r["secret"].(string)
	if !ok || strings.TrimSpace(secret) == "" {
		return Canonical{}, goerror.NewValidation("Missing or invalid secret field")
	}

	algorithm := NormalizeAlgorithm(r.String("algorithm"))
	if !otp.ValidAlgorithm(algorithm) {
		return Canonical{}, goerror.NewValidation("Invalid algorithm: " + r.Display("algorithm"))
	}

	digits := r.Int("digits", otp.DefaultDigits)
	if !slices.Contains(allowedDigits, digits) {
		return Canonical{}, goerror.NewValidation("Invalid digits: " + r.Display("digits"))
	}

	period := r.Int("period", otp.DefaultPeriod)
	if period < otp.MinPeriod || period > otp.MaxPeriod {
		return Canonical{}, goerror.NewValidation("Invalid period: " + r.Display("period"))
	}

	return Canonical{
		Name:      name,
		Issuer:    strings.TrimSpace(r.String("issuer")),
		Secret:    CleanSecret(secret),
		Algorithm: algorithm,
		Digits:    digits,
		Period:    period,
		Icon:      r.String("icon"),
		Color:     r.String("color"),
	}, nil
}

// ValidateCanonical applies the same rules to an already typed entry, filling
// defaults for zero values.
func ValidateCanonical(c Canonical) (Canonical, error) {
	rec := Record{
		"name":      c.Name,
		"issuer":    c.Issuer,
		"secret":    c.Secret,
		"algorithm": c.Algorithm,
		"digits":    c.Digits,
		"period":    c.Period,
		"icon":      c.Icon,
		"color":     c.Color,
	}
	return Validate(rec)
}

// DisplayName names a record in failure reports.
func DisplayName(r Record) string {
	return lo.CoalesceOrEmpty(strings.TrimSpace(r.String("name")), "Unknown")
}
