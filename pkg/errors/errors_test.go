package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   NotFoundWithID("Reservation", "7"),
			expected: "NOT_FOUND: Reservation not found",
		},
		{
			name:     "with underlying error",
			appErr:   Internal("internal error", errors.New("connection reset")),
			expected: "INTERNAL_ERROR: internal error (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Unavailable("Reservation store", originalErr)

	if !errors.Is(appErr, originalErr) {
		t.Errorf("errors.Is should see through AppError")
	}
}

func TestAppError_StatusCodeDefaultsToInternal(t *testing.T) {
	err := &AppError{Code: "SOMETHING"}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want %d", err.StatusCode(), http.StatusInternalServerError)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFoundWithID("Reservation", "7"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"bad request", BadRequest("bad"), CodeBadRequest, http.StatusBadRequest},
		{"forbidden", Forbidden("no"), CodeForbidden, http.StatusForbidden},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Reservation store", nil), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Reservation", "12345")

	if err.Details["id"] != "12345" {
		t.Errorf("expected id '12345', got %v", err.Details["id"])
	}
	if err.Details["resource"] != "Reservation" {
		t.Errorf("expected resource 'Reservation', got %v", err.Details["resource"])
	}
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("lock wait timed out")
	err := Unavailable("Reservation store", cause)

	if err.Message != "Reservation store is temporarily unavailable" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFoundWithID("Reservation", "3")
	wrapped := fmt.Errorf("listing: %w", appErr)
	regularErr := errors.New("regular error")

	if got := AsAppError(wrapped); got != appErr {
		t.Errorf("AsAppError() should find AppError through wrapping")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestIsAppErrorAndHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", Forbidden("no"))

	if !IsAppError(err) {
		t.Errorf("IsAppError() should return true for wrapped AppError")
	}
	if IsAppError(errors.New("plain")) {
		t.Errorf("IsAppError() should return false for regular error")
	}
	if !HasCode(err, CodeForbidden) {
		t.Errorf("HasCode() should match the wrapped code")
	}
	if HasCode(err, CodeNotFound) {
		t.Errorf("HasCode() should not match a different code")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	jsonStr := string(NotFoundWithID("Reservation", "12345").ToJSON())

	if !strings.Contains(jsonStr, `"code":"NOT_FOUND"`) {
		t.Errorf("ToJSON() should contain error code, got %s", jsonStr)
	}
	if !strings.Contains(jsonStr, "not found") {
		t.Errorf("ToJSON() should contain error message, got %s", jsonStr)
	}
}
