package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
)

// DefaultBodyLimit caps JSON bodies decoded by DecodeBody.
const DefaultBodyLimit = 1 << 20

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	*http.Request
}

// GetParam reads a path parameter stored by httprouter.
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// GetParamInt64 reads a numeric path parameter.
func (r *Request) GetParamInt64(key string) (int64, error) {
	value, err := strconv.ParseInt(r.GetParam(key), 10, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat("Invalid " + key)
	}
	return value, nil
}

func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryDate parses the query value with layout. An absent value yields the
// zero time.
func (r *Request) GetQueryDate(key, layout string) (time.Time, error) {
	queryValue := r.GetQuery(key)
	if queryValue == "" {
		return time.Time{}, nil
	}

	value, err := time.Parse(layout, queryValue)
	if err != nil {
		return time.Time{}, goerror.NewInvalidFormat("Invalid query " + key)
	}

	return value, nil
}

// DecodeBody decodes exactly one JSON value into dst, rejecting unknown fields.
func (r *Request) DecodeBody(dst any) error {
	return r.decodeBody(dst, true)
}

// DecodeBodyLenient is DecodeBody without the unknown field check, for
// payloads that devices echo back with server-only fields.
func (r *Request) DecodeBodyLenient(dst any) error {
	return r.decodeBody(dst, false)
}

func (r *Request) decodeBody(dst any, strict bool) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, DefaultBodyLimit))
	if strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// ReadBody returns the raw body, failing when it exceeds limit bytes.
func (r *Request) ReadBody(limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, goerror.NewInvalidFormat()
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}
	if int64(len(body)) > limit {
		return nil, goerror.NewInvalidFormat("Request body too large")
	}

	return body, nil
}
