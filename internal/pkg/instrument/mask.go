package instrument

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

const maskedValue = "***"

// secretKeys are attribute and JSON keys that may carry OTP seeds, envelopes
// or bearer tokens. They are masked whatever the configuration says.
var secretKeys = []string{"secret", "secrets", "secret_encrypted", "uri", "uris", "authorization", "token"}

type masker map[string]struct{}

func newMasker(extra []string) masker {
	m := make(masker)
	for _, k := range append(append([]string{}, secretKeys...), extra...) {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			m[k] = struct{}{}
		}
	}
	return m
}

func (m masker) hides(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

func (m masker) attr(a slog.Attr) slog.Attr {
	if m.hides(a.Key) {
		return slog.String(a.Key, maskedValue)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = m.attr(ga)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := m.jsonText([]byte(a.Value.String())); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(m.walk(v))
		case map[string]string:
			conv := make(map[string]any, len(v))
			for k, s := range v {
				conv[k] = s
			}
			a.Value = slog.AnyValue(m.walk(conv))
		case []byte:
			if s, ok := m.jsonText(v); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}

	return a
}

// jsonText masks a JSON object or array held in a string attribute. Anything
// that is not JSON is left alone.
func (m masker) jsonText(raw []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return "", false
	}

	var doc any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return "", false
	}

	out, err := json.Marshal(m.walk(doc))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func (m masker) walk(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if m.hides(k) {
				out[k] = maskedValue
				continue
			}
			out[k] = m.walk(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = m.walk(child)
		}
		return out
	default:
		return v
	}
}

// maskHandler rewrites record attributes through a masker. Attributes added
// with WithAttrs are masked once, when they are added.
type maskHandler struct {
	next slog.Handler
	m    masker
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.m.attr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.m.attr(a)
	}
	return &maskHandler{next: h.next.WithAttrs(masked), m: h.m}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{next: h.next.WithGroup(name), m: h.m}
}
