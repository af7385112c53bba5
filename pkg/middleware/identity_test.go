package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"deskbook/pkg/logger"
	"deskbook/pkg/model"
)

func TestRequireIdentity(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
		wantEmail  string
	}{
		{"missing header", "", http.StatusBadRequest, "X-User-Info header is missing", ""},
		{"not json", "ana@example.com", http.StatusBadRequest, "Invalid X-User-Info header format", ""},
		{"no email", `{"role":"admin"}`, http.StatusBadRequest, "Invalid X-User-Info header format", ""},
		{"valid", `{"email":"ana@example.com","role":"admin"}`, http.StatusOK, "", "ana@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got model.Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = IdentityFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/me", nil)
			if tt.header != "" {
				req.Header.Set(UserInfoHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			RequireIdentity(logger.Discard())(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.wantBody)
			}
			if got.Email != tt.wantEmail {
				t.Errorf("identity email = %q, want %q", got.Email, tt.wantEmail)
			}
		})
	}
}

func TestIdentityEmail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if IdentityEmail(req) != "" {
		t.Errorf("expected empty key without header")
	}
	req.Header.Set(UserInfoHeader, `{"email":"Ana@Example.com"}`)
	if got := IdentityEmail(req); got != "ana@example.com" {
		t.Errorf("IdentityEmail() = %q", got)
	}
}
