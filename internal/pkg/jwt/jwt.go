package jwt

import (
	"context"
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")
	// ErrSigningKeyTooShort is returned when the HS512 key is shorter than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")
	ErrTokenExpired       = errors.New("JWT token has expired")
	ErrInvalidToken       = errors.New("invalid token")
)

// JWT verifies bearer tokens.
type JWT interface {
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type jwtContextKey struct{}

type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	// TTL is only used by Sign.
	TTL   time.Duration
	Clock clocker
}

// Claims are the registered claims plus the owner identity.
type Claims struct {
	libJWT.RegisteredClaims
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"user_email"`
}

// GetAuth returns the claims stored in ctx, or nil.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}

// HS512 verifies (and, for tooling and tests, signs) HMAC-SHA512 tokens.
type HS512 struct {
	cfg Config
}

func NewHS512(cfg Config) (*HS512, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	return &HS512{cfg: cfg}, nil
}

// Sign issues a token for uid. The vault never issues tokens in production.
func (h *HS512) Sign(uid int64, email, tokenID string) (string, error) {
	now := h.cfg.Clock.Now()

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        tokenID,
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    h.cfg.Issuer,
			Audience:  h.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(h.cfg.TTL)),
		},
		UserID:    uid,
		UserEmail: email,
	}).SignedString(h.cfg.Secret)
}

func (h *HS512) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
	}
	if h.cfg.Issuer != "" {
		opts = append(opts, libJWT.WithIssuer(h.cfg.Issuer))
	}
	if len(h.cfg.Audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(h.cfg.Audiences...))
	}
	if h.cfg.Clock != nil {
		opts = append(opts, libJWT.WithTimeFunc(h.cfg.Clock.Now))
	}

	token, err := libJWT.ParseWithClaims(tokenStr, &claims, func(t *libJWT.Token) (any, error) {
		if t.Method != libJWT.SigningMethodHS512 {
			return nil, ErrInvalidSigningMethod
		}
		return h.cfg.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, err
	}

	if !token.Valid || claims.UserID <= 0 {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
