package normalizer

import (
	"encoding/base32"
	"encoding/json"
	"strings"
)

// mapFreeOTP maps a FreeOTP+ token. The secret is an array of signed bytes.
func mapFreeOTP(in Record) Record {
	out := Record{}
	for k, v := range in {
		out[k] = v
	}

	if arr, ok := in["secret"].([]any); ok {
		if secret, ok := signedBytesToBase32(arr); ok {
			out["secret"] = secret
		} else {
			delete(out, "secret")
		}
	}
	if algo := in.String("algo"); algo != "" {
		out["algorithm"] = strings.ToLower(algo)
		delete(out, "algo")
	}
	if issuer := in.String("issuerExt"); issuer != "" {
		out["issuer"] = issuer
		delete(out, "issuerExt")
	}
	if label := in.String("label"); label != "" {
		out["name"] = label
		delete(out, "label")
	}

	return out
}

func signedBytesToBase32(arr []any) (string, bool) {
	buf := make([]byte, 0, len(arr))
	for _, v := range arr {
		num, ok := v.(json.Number)
		if !ok {
			return "", false
		}
		n, err := num.Int64()
		if err != nil || n < -128 || n > 255 {
			return "", false
		}
		if n < 0 {
			n += 256
		}
		buf = append(buf, byte(n))
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), true
}
