package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIdempotency_ReplaysPerCaller(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	calls := 0
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprintf(w, `{"id":%d}`, calls)
	}))

	send := func(email string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)
		req.Header.Set(IdempotencyHeader, "k-1")
		req.Header.Set(UserInfoHeader, `{"email":"`+email+`"}`)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("ana@example.com")
	replay := send("ana@example.com")
	other := send("bob@example.com")

	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2", calls)
	}
	if replay.Body.String() != first.Body.String() || replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Errorf("expected replay of first response, got %q", replay.Body.String())
	}
	if other.Body.String() == first.Body.String() {
		t.Errorf("a different caller must not receive a replay")
	}
}

func TestIdempotency_SkipsFailuresAndReads(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	calls := 0
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))

	for _, method := range []string{http.MethodPost, http.MethodPost, http.MethodGet, http.MethodGet} {
		req := httptest.NewRequest(method, "/api/v1/reservations", nil)
		req.Header.Set(IdempotencyHeader, "k-2")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 4 {
		t.Errorf("handler calls = %d, want 4", calls)
	}
}
