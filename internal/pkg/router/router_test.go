package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/config"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/goerror"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/instrument"
	"github.com/PrzemekSkw/totp-sync/internal/pkg/jwt"
)

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 9, UserEmail: "owner@example.com"}, nil
}

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type itemResponse struct {
	Name string `json:"name"`
}

func (itemResponse) StatusCode() int { return http.StatusCreated }
func (itemResponse) Message() string { return "Item created" }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	return NewRouter(Config{
		Config:     cfg,
		UUID:       fixedID("cid-1"),
		JWT:        stubVerifier{},
		Instrument: instrument.NewNoop(),
	})
}

func serve(t *testing.T, r *Router, method, target, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("response is not JSON: %q", rec.Body.String())
		}
	}

	return rec, body
}

func TestRouter_Envelope(t *testing.T) {
	// Arrange
	r := newTestRouter(t, "app: {}")
	r.POST("/items", func(req *Request) (any, error) {
		clm := jwt.GetAuth(req.Context())
		if clm == nil || clm.UserID != 9 {
			return nil, errors.New("claims missing")
		}
		return itemResponse{Name: "github"}, nil
	})
	r.GET("/items/:id", func(req *Request) (any, error) {
		if _, err := req.GetParamInt64("id"); err != nil {
			return nil, err
		}
		return nil, goerror.NewNotFound("Entry not found")
	})
	r.GET("/boom", func(*Request) (any, error) { panic("kaput") })

	tests := []struct {
		name       string
		method     string
		target     string
		token      string
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name: "created", method: http.MethodPost, target: "/items", token: "good",
			wantStatus: http.StatusCreated,
			wantBody:   map[string]any{"message": "Item created", "data": map[string]any{"name": "github"}},
		},
		{
			name: "typed error", method: http.MethodGet, target: "/items/5", token: "good",
			wantStatus: http.StatusNotFound,
			wantBody:   map[string]any{"message": "Entry not found"},
		},
		{
			name: "bad param", method: http.MethodGet, target: "/items/x", token: "good",
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"message": "Invalid id"},
		},
		{
			name: "missing token", method: http.MethodPost, target: "/items",
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]any{"message": "Authentication required"},
		},
		{
			name: "bad token", method: http.MethodPost, target: "/items", token: "bad",
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]any{"message": "Invalid or expired token"},
		},
		{
			name: "panic", method: http.MethodGet, target: "/boom", token: "good",
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"message": "Internal server error"},
		},
		{
			name: "unknown route", method: http.MethodGet, target: "/nope",
			wantStatus: http.StatusNotFound,
			wantBody:   map[string]any{"message": "endpoint not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			rec, body := serve(t, r, tt.method, tt.target, tt.token)

			// Assert
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if diff := cmp.Diff(tt.wantBody, body); diff != "" {
				t.Fatalf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouter_CorrelationID(t *testing.T) {
	// Arrange
	r := newTestRouter(t, "app: {}")
	r.GET("/cid", func(req *Request) (any, error) {
		return itemResponse{Name: instrument.GetCorrelationID(req.Context())}, nil
	})

	// Act
	rec, body := serve(t, r, http.MethodGet, "/cid", "good")

	// Assert
	if got := rec.Header().Get(HeaderCorrelationID); got != "cid-1" {
		t.Fatalf("header = %q, want cid-1", got)
	}
	data, _ := body["data"].(map[string]any)
	if data["name"] != "cid-1" {
		t.Fatalf("context correlation id = %v", data["name"])
	}
}

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		check      HealthCheck
		wantStatus int
	}{
		{name: "healthy", check: func(context.Context) error { return nil }, wantStatus: http.StatusOK},
		{name: "degraded", check: func(context.Context) error { return errors.New("down") }, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			r := newTestRouter(t, "app: {}")
			r.Health(map[string]HealthCheck{"database": tt.check})

			// Act
			rec, body := serve(t, r, http.MethodGet, HealthPath, "")

			// Assert
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				errs, _ := body["error"].(map[string]any)
				if errs["database"] != "unavailable" {
					t.Fatalf("error fields = %v", body["error"])
				}
			}
		})
	}
}

func TestRouter_Maintenance(t *testing.T) {
	// Arrange
	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: /items/:id\n")
	r.GET("/items/:id", func(*Request) (any, error) { return itemResponse{}, nil })

	// Act
	rec, _ := serve(t, r, http.MethodGet, "/items/1", "good")

	// Assert
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestRequest_ReadBody(t *testing.T) {
	// Arrange
	req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))}

	// Act
	_, err := req.ReadBody(4)

	// Assert
	if !goerror.HasCode(err, goerror.CodeInvalidFormat) {
		t.Fatalf("ReadBody() error = %v, want invalid format", err)
	}
}

func TestRequest_DecodeBodyUnknownFields(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	body := `{"name":"a","updated_at":"2026-05-01T10:00:00Z"}`

	tests := []struct {
		name    string
		decode  func(*Request, any) error
		wantErr bool
	}{
		{name: "strict", decode: (*Request).DecodeBody, wantErr: true},
		{name: "lenient", decode: (*Request).DecodeBodyLenient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))}
			var got payload

			// Act
			err := tt.decode(req, &got)

			// Assert
			if (err != nil) != tt.wantErr {
				t.Fatalf("decode error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Name != "a" {
				t.Fatalf("decoded = %+v", got)
			}
		})
	}
}
