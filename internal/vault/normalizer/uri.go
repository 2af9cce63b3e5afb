package normalizer

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/otp"
)

const (
	uriScheme = "otpauth"
	uriTOTP   = "totp"
)

// ParseURI parses an otpauth://totp URI.
func ParseURI(raw string) (Canonical, error) {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return Canonical{}, goerror.NewParse(raw, "Invalid URI")
	}
	if !strings.EqualFold(u.Scheme, uriScheme) {
		return Canonical{}, goerror.NewParse(raw, "Invalid URI scheme: expected otpauth")
	}
	if !strings.EqualFold(u.Host, uriTOTP) {
		return Canonical{}, goerror.NewUnsupportedType(u.Host)
	}

	label, err := url.PathUnescape(strings.TrimPrefix(u.EscapedPath(), "/"))
	if err != nil {
		return Canonical{}, goerror.NewParse(raw, "Invalid URI label")
	}

	var labelIssuer, name string
	if before, after, found := strings.Cut(label, ":"); found {
		labelIssuer, name = strings.TrimSpace(before), strings.TrimSpace(after)
	} else {
		name = strings.TrimSpace(label)
	}
	if name == "" {
		name = labelIssuer
	}

	q := u.Query()

	secret := CleanSecret(q.Get("secret"))
	if secret == "" {
		return Canonical{}, goerror.NewParse(raw, "Missing secret parameter")
	}

	digits, err := intParam(q, "digits", otp.DefaultDigits)
	if err != nil {
		return Canonical{}, goerror.NewParse(raw, "Invalid digits parameter")
	}
	period, err := intParam(q, "period", otp.DefaultPeriod)
	if err != nil {
		return Canonical{}, goerror.NewParse(raw, "Invalid period parameter")
	}

	return Canonical{
		Name:      name,
		Issuer:    lo.CoalesceOrEmpty(strings.TrimSpace(q.Get("issuer")), labelIssuer),
		Secret:    secret,
		Algorithm: strings.ToLower(lo.CoalesceOrEmpty(q.Get("algorithm"), "SHA1")),
		Digits:    digits,
		Period:    period,
	}, nil
}

// FormatURI renders c as an otpauth://totp URI that ParseURI reads back unchanged.
func FormatURI(c Canonical) string {
	// ParseURI splits the label on its first colon, so a colon inside the
	// issuer or an issuer-less name needs an empty prefix. The issuer then
	// travels only in the query.
	label := url.PathEscape(c.Name)
	switch {
	case c.Issuer != "" && !strings.Contains(c.Issuer, ":"):
		label = url.PathEscape(c.Issuer) + ":" + label
	case c.Issuer != "" || strings.Contains(c.Name, ":"):
		label = ":" + label
	}

	q := url.Values{}
	q.Set("secret", c.Secret)
	if c.Issuer != "" {
		q.Set("issuer", c.Issuer)
	}
	q.Set("algorithm", strings.ToUpper(c.Algorithm))
	q.Set("digits", strconv.Itoa(c.Digits))
	q.Set("period", strconv.Itoa(c.Period))

	return uriScheme + "://" + uriTOTP + "/" + label + "?" + q.Encode()
}

// ParseURIList splits text into one URI per non-blank line.
func ParseURIList(text string) []string {
	return lo.FilterMap(strings.Split(text, "\n"), func(line string, _ int) (string, bool) {
		line = strings.TrimSpace(line)
		return line, line != ""
	})
}

func intParam(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
