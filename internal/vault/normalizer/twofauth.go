package normalizer

import "github.com/samber/lo"

// map2FAuth maps a 2FAuth export record.
func map2FAuth(in Record) Record {
	service := in.String("service")

	return Record{
		"name":      lo.CoalesceOrEmpty(in.String("account"), service, "Unknown"),
		"issuer":    service,
		"secret":    in["secret"],
		"algorithm": NormalizeAlgorithm(in.String("algorithm")),
		"digits":    in.Int("digits", 6),
		"period":    in.Int("period", 30),
		"icon":      in["icon"],
	}
}
