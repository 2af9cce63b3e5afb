package usecase

import (
	"github.com/samber/lo"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/otp"
	"github.com/PrzemekSkw/totp-sync/internal/vault/normalizer"
)

// normalizeParams applies defaults and range checks to generation parameters.
func normalizeParams(algorithm string, digits, period int) (otp.Params, error) {
	p := otp.Params{
		Algorithm: normalizer.NormalizeAlgorithm(algorithm),
		Digits:    lo.Ternary(digits == 0, otp.DefaultDigits, digits),
		Period:    lo.Ternary(period == 0, otp.DefaultPeriod, period),
	}

	return p, p.Validate()
}

// seal checks that the secret can produce a code and encrypts it.
func (s *Usecase) seal(c normalizer.Canonical) (string, error) {
	if _, err := s.totp.Generate(c.Secret, c.Params(), s.clock.Now()); err != nil {
		return "", err
	}

	env, err := s.cipher.Encrypt(c.Secret)
	if err != nil {
		return "", goerror.NewValidation("Encryption failed: " + goerror.Message(err, "internal error"))
	}

	return env, nil
}
