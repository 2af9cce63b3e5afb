package otp

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
)

// Supported algorithm names, lower-case as stored.
const (
	SHA1   = "sha1"
	SHA256 = "sha256"
	SHA512 = "sha512"
)

const (
	// DefaultDigits is used when an entry does not name a digit count.
	DefaultDigits = 6
	// DefaultPeriod is used when an entry does not name a period.
	DefaultPeriod = 30
	// MinPeriod and MaxPeriod bound the accepted time step in seconds.
	MinPeriod = 10
	MaxPeriod = 120

	skew = 1
)

// Params are the per-entry generation parameters.
type Params struct {
	Algorithm string
	Digits    int
	Period    int
}

// Code is a generated code and the seconds left in its window.
type Code struct {
	Value     string
	Remaining int
	Period    int
}

// Generator defines the contract for TOTP operations.
type Generator interface {
	// Generate computes the code valid at the given instant.
	Generate(secret string, p Params, at time.Time) (Code, error)
	// Verify checks a code at the given instant with one period of skew either way.
	Verify(code, secret string, p Params, at time.Time) bool
}

// TOTP implements Generator. It holds no state.
type TOTP struct{}

// NewTOTP returns a TOTP generator.
func NewTOTP() TOTP {
	return TOTP{}
}

// Generate computes the code valid at the given instant.
func (TOTP) Generate(secret string, p Params, at time.Time) (Code, error) {
	return Generate(secret, p, at)
}

// Verify checks a code at the given instant with one period of skew either way.
func (TOTP) Verify(code, secret string, p Params, at time.Time) bool {
	return Verify(code, secret, p, at)
}

// Generate computes the code for secret at the given instant.
func Generate(secret string, p Params, at time.Time) (Code, error) {
	opts, err := p.options()
	if err != nil {
		return Code{}, err
	}

	value, err := totp.GenerateCodeCustom(secret, at, opts)
	if err != nil {
		return Code{}, goerror.NewValidation("Invalid secret: not base32")
	}

	return Code{
		Value:     value,
		Remaining: Remaining(p.Period, at),
		Period:    p.Period,
	}, nil
}

// Verify reports whether code matches secret at at, or one period either side.
func Verify(code, secret string, p Params, at time.Time) bool {
	opts, err := p.options()
	if err != nil {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, at, opts)
	return ok && err == nil
}

// Remaining returns the seconds left in the current window.
func Remaining(period int, at time.Time) int {
	unix := at.Unix()
	p := int64(period)
	return int(p - ((unix%p)+p)%p)
}

// Validate checks the parameters against the supported ranges.
func (p Params) Validate() error {
	if _, ok := algorithms[strings.ToLower(p.Algorithm)]; !ok {
		return goerror.NewValidation("Invalid algorithm: " + p.Algorithm)
	}
	if p.Digits < 6 || p.Digits > 8 {
		return goerror.NewValidation(fmt.Sprintf("Invalid digits: %d", p.Digits))
	}
	if p.Period < MinPeriod || p.Period > MaxPeriod {
		return goerror.NewValidation(fmt.Sprintf("Invalid period: %d", p.Period))
	}
	return nil
}

// ValidAlgorithm reports whether name is a supported lower-case algorithm.
func ValidAlgorithm(name string) bool {
	_, ok := algorithms[name]
	return ok
}

var algorithms = map[string]otp.Algorithm{
	SHA1:   otp.AlgorithmSHA1,
	SHA256: otp.AlgorithmSHA256,
	SHA512: otp.AlgorithmSHA512,
}

func (p Params) options() (totp.ValidateOpts, error) {
	if err := p.Validate(); err != nil {
		return totp.ValidateOpts{}, err
	}

	return totp.ValidateOpts{
		Period:    uint(p.Period),
		Skew:      skew,
		Digits:    otp.Digits(p.Digits),
		Algorithm: algorithms[strings.ToLower(p.Algorithm)],
	}, nil
}
