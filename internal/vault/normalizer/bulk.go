package normalizer

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/samber/lo"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
)

// Variant names a recognized bulk payload shape.
type Variant string

const (
	VariantFreeOTP   Variant = "freeotp"
	Variant2FAuth    Variant = "2fauth"
	VariantArray     Variant = "array"
	VariantCanonical Variant = "entries"
)

// Record is one raw bulk record, decoded with json.Number for numbers.
type Record map[string]any

// Batch is the result of shape detection: the variant and its records already
// mapped onto canonical field names.
type Batch struct {
	Variant Variant
	Records []Record
}

// variant pairs a discriminant field with the mapping for its records.
type variant struct {
	name  Variant
	field string
	mapFn func(Record) Record
}

// variants are tried in order. A bare array is checked after these object
// shapes fail to match, and the canonical "entries" shape is checked last.
var variants = []variant{
	{name: VariantFreeOTP, field: "tokens", mapFn: mapFreeOTP},
	{name: Variant2FAuth, field: "data", mapFn: map2FAuth},
}

const errNoEntries = "No valid entries found"

// ParseBulk detects the shape of a bulk JSON payload.
func ParseBulk(raw []byte) (Batch, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Batch{}, goerror.NewParse(string(raw), errNoEntries)
	}

	if obj, ok := doc.(map[string]any); ok {
		for _, v := range variants {
			if items, ok := obj[v.field].([]any); ok {
				return Batch{Variant: v.name, Records: lo.Map(items, func(it any, _ int) Record {
					return v.mapFn(toRecord(it))
				})}, nil
			}
		}
	}

	if items, ok := doc.([]any); ok {
		return Batch{Variant: VariantArray, Records: lo.Map(items, func(it any, _ int) Record {
			return toRecord(it)
		})}, nil
	}

	if obj, ok := doc.(map[string]any); ok {
		if items, ok := obj["entries"].([]any); ok {
			return Batch{Variant: VariantCanonical, Records: lo.Map(items, func(it any, _ int) Record {
				return toRecord(it)
			})}, nil
		}
	}

	return Batch{}, goerror.NewParse(string(raw), errNoEntries)
}

// ReplaceAll reads the optional top-level replaceAll flag of an object payload.
func ReplaceAll(raw []byte) bool {
	var head struct {
		ReplaceAll bool `json:"replaceAll"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return false
	}
	return head.ReplaceAll
}

func toRecord(v any) Record {
	if m, ok := v.(map[string]any); ok {
		return Record(m)
	}
	return Record{}
}

// String returns the string value of key, or "" when absent or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Display returns a value usable for identifying a record in failure reports.
func (r Record) Display(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// Int parses key leniently: numbers are truncated, strings contribute their
// leading digits, anything else (or zero) yields def.
func (r Record) Int(key string, def int) int {
	var s string
	switch v := r[key].(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
	case int:
		return lo.Ternary(v == 0, def, v)
	default:
		return def
	}

	n, neg := 0, false
	if strings.HasPrefix(s, "-") {
		neg, s = true, s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	digits := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		digits++
		if n > 1_000_000 {
			break
		}
	}
	if digits == 0 || n == 0 {
		return def
	}
	return lo.Ternary(neg, -n, n)
}
