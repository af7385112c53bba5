package cli

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskbook/internal/reservations/admission"
	"deskbook/internal/reservations/handler"
	"deskbook/internal/reservations/lock"
	"deskbook/internal/reservations/repository"
	"deskbook/internal/reservations/service"
	"deskbook/internal/reservations/validator"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.Discard()
	now := func() time.Time { return time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC) }

	repo := repository.NewMemoryReservationRepository()
	locker := lock.NewMemoryLocker(lock.Options{TTL: time.Minute, WaitTimeout: time.Second})
	svc := service.NewReservationService(service.Dependencies{
		Repo:      repo,
		Engine:    admission.NewEngine(repo, locker, log, admission.WithClock(now)),
		Validator: validator.NewProposalValidator(log),
		Hours:     model.BusinessHours{Opening: model.NewTimeOfDay(0, 0), Closing: model.NewTimeOfDay(12, 0)},
		Log:       log,
		Now:       now,
	})

	router := httprouter.New()
	handler.NewReservationHandler(svc, log).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestProposeListDelete(t *testing.T) {
	srv := newServer(t)
	ana := []string{"--base-url", srv.URL, "--email", "ana@example.com"}

	out, err := run(t, append([]string{"propose", "--seat", "3",
		"--begin", "2026-03-02T09:00:00Z", "--end", "2026-03-02T10:00:00Z"}, ana...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"seat_id": 3`)

	_, err = run(t, append([]string{"propose", "--seat", "3",
		"--begin", "2026-03-02T09:30:00Z", "--end", "2026-03-02T10:30:00Z"},
		"--base-url", srv.URL, "--email", "bob@example.com")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEAT_CONFLICT")

	out, err = run(t, append([]string{"mine"}, ana...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"total_count": 1`)

	_, err = run(t, "delete", "1", "--base-url", srv.URL, "--email", "bob@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	out, err = run(t, "delete", "1", "--base-url", srv.URL, "--email", "root@example.com", "--role", "admin")
	require.NoError(t, err)
	assert.Equal(t, "deleted reservation 1\n", out)

	out, err = run(t, append([]string{"list"}, ana...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"total_count": 0`)
}

func TestArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no email", []string{"list"}, "--email is required"},
		{"bad begin", []string{"propose", "--email", "a@x.io", "--seat", "1", "--begin", "9am", "--end", "2026-03-02T10:00:00Z"}, "invalid --begin"},
		{"missing seat", []string{"propose", "--email", "a@x.io", "--begin", "2026-03-02T09:00:00Z", "--end", "2026-03-02T10:00:00Z"}, "seat"},
		{"bad id", []string{"delete", "abc", "--email", "a@x.io"}, "invalid reservation id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "error %q should mention %q", err, tt.want)
		})
	}
}
