package normalizer

import (
	"strings"
	"unicode"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/otp"
)

// Canonical is the normalized form every import converts into before storage.
type Canonical struct {
	Name      string `json:"name"`
	Issuer    string `json:"issuer"`
	Secret    string `json:"secret"`
	Algorithm string `json:"algorithm"`
	Digits    int    `json:"digits"`
	Period    int    `json:"period"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Params returns the code generation parameters of c.
func (c Canonical) Params() otp.Params {
	return otp.Params{Algorithm: c.Algorithm, Digits: c.Digits, Period: c.Period}
}

// CleanSecret removes all whitespace and upper-cases a Base32 secret.
func CleanSecret(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// NormalizeAlgorithm lower-cases an algorithm name and folds "sha-256" style
// spellings into "sha256". An empty name yields sha1.
func NormalizeAlgorithm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return otp.SHA1
	}
	return strings.Replace(s, "sha-", "sha", 1)
}
