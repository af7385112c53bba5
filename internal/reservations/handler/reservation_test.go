package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/logger"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"
)

type mockReservationService struct {
	proposeFunc func(ctx context.Context, identity model.Identity, req *model.ProposalRequest) (model.Admission, error)
	getAllFunc  func(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	getMineFunc func(ctx context.Context, identity model.Identity, limit int, offset int64) ([]*model.Reservation, int64, error)
	deleteFunc  func(ctx context.Context, identity model.Identity, id int64) error
}

func (m *mockReservationService) Propose(ctx context.Context, identity model.Identity, req *model.ProposalRequest) (model.Admission, error) {
	if m.proposeFunc != nil {
		return m.proposeFunc(ctx, identity, req)
	}
	return model.Admitted(&model.Reservation{ID: 1}), nil
}

func (m *mockReservationService) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	if id == 404 {
		return nil, apperrors.NotFoundWithID("Reservation", "404")
	}
	return &model.Reservation{ID: id}, nil
}

func (m *mockReservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockReservationService) GetMine(ctx context.Context, identity model.Identity, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if m.getMineFunc != nil {
		return m.getMineFunc(ctx, identity, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockReservationService) Delete(ctx context.Context, identity model.Identity, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, identity, id)
	}
	return nil
}

func newRouter(svc *mockReservationService) *httprouter.Router {
	router := httprouter.New()
	NewReservationHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body, userInfo string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if userInfo != "" {
		req.Header.Set(middleware.UserInfoHeader, userInfo)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const anaInfo = `{"email":"ana@example.com"}`

func TestCreate(t *testing.T) {
	begin := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var received *model.ProposalRequest
	var caller model.Identity

	svc := &mockReservationService{
		proposeFunc: func(_ context.Context, identity model.Identity, req *model.ProposalRequest) (model.Admission, error) {
			caller, received = identity, req
			if req.SeatID == 2 {
				return model.Rejected(model.ReasonSeatConflict), nil
			}
			if req.SeatID == 3 {
				return model.Admission{}, apperrors.Unavailable("Reservation service", nil)
			}
			return model.Admitted(&model.Reservation{ID: 9, SeatID: req.SeatID, BeginTime: *req.BeginTime}), nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name       string
		body       string
		userInfo   string
		wantStatus int
		wantCode   string
	}{
		{"admitted", `{"seat_id":1,"begin_time":"2026-03-02T09:00:00Z","end_time":"2026-03-02T10:00:00Z"}`, anaInfo, http.StatusCreated, ""},
		{"rejected", `{"seat_id":2,"begin_time":"2026-03-02T09:00:00Z","end_time":"2026-03-02T10:00:00Z"}`, anaInfo, http.StatusBadRequest, "SEAT_CONFLICT"},
		{"transient", `{"seat_id":3,"begin_time":"2026-03-02T09:00:00Z","end_time":"2026-03-02T10:00:00Z"}`, anaInfo, http.StatusServiceUnavailable, apperrors.CodeUnavailable},
		{"malformed body", `{"seat_id":`, anaInfo, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"no identity", `{"seat_id":1}`, "", http.StatusBadRequest, apperrors.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, basePath, tt.body, tt.userInfo)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode == "" {
				var resp struct {
					Data model.Reservation `json:"data"`
				}
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.Data.ID != 9 || !resp.Data.BeginTime.Equal(begin) {
					t.Errorf("unexpected reservation %+v", resp.Data)
				}
				if caller.Email != "ana@example.com" || received.SeatID != 1 {
					t.Errorf("service got identity %+v request %+v", caller, received)
				}
				return
			}
			var resp apperrors.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestCreate_BodyCannotChooseOwner(t *testing.T) {
	var received *model.ProposalRequest
	router := newRouter(&mockReservationService{
		proposeFunc: func(_ context.Context, _ model.Identity, req *model.ProposalRequest) (model.Admission, error) {
			received = req
			return model.Admitted(&model.Reservation{ID: 1}), nil
		},
	})

	serve(router, http.MethodPost, basePath, `{"seat_id":1,"user_email":"mallory@example.com"}`, anaInfo)

	if received == nil || received.UserEmail != "" {
		t.Errorf("user_email from body must be ignored, got %+v", received)
	}
}

func TestGetAll_QueryParameters(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	router := newRouter(&mockReservationService{
		getAllFunc: func(_ context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
			gotLimit, gotOffset = limit, offset
			return nil, 25, nil
		},
	})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
		wantOffset int64
	}{
		{"defaults", "", http.StatusOK, 10, 0},
		{"explicit", "?limit=10&offset=20", http.StatusOK, 10, 20},
		{"legacy names", "?pageSize=5&pageOffset=15", http.StatusOK, 5, 15},
		{"limit above max", "?limit=1000", http.StatusBadRequest, 0, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0, 0},
		{"negative offset", "?offset=-3", http.StatusBadRequest, 0, 0},
		{"garbage limit", "?limit=ten", http.StatusBadRequest, 0, 0},
		{"garbage offset", "?offset=x", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLimit, gotOffset = 0, 0
			rec := serve(router, http.MethodGet, basePath+tt.query, "", "")

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("service got limit=%d offset=%d, want %d/%d", gotLimit, gotOffset, tt.wantLimit, tt.wantOffset)
			}

			var resp struct {
				Data       []model.Reservation `json:"data"`
				TotalCount int64               `json:"total_count"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Data == nil || resp.TotalCount != 25 {
				t.Errorf("unexpected page %+v", resp)
			}
		})
	}
}

func TestGetMine_RequiresIdentity(t *testing.T) {
	var caller model.Identity
	router := newRouter(&mockReservationService{
		getMineFunc: func(_ context.Context, identity model.Identity, _ int, _ int64) ([]*model.Reservation, int64, error) {
			caller = identity
			return []*model.Reservation{{ID: 1, UserEmail: identity.Email}}, 1, nil
		},
	})

	if rec := serve(router, http.MethodGet, basePath+"/me", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("status without identity = %d, want 400", rec.Code)
	}

	rec := serve(router, http.MethodGet, basePath+"/me", "", anaInfo)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if caller.Email != "ana@example.com" {
		t.Errorf("service got identity %+v", caller)
	}
}

func TestGetByID(t *testing.T) {
	router := newRouter(&mockReservationService{})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"found", "/id/7", http.StatusOK},
		{"missing", "/id/404", http.StatusNotFound},
		{"not a number", "/id/abc", http.StatusBadRequest},
		{"zero", "/id/0", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, basePath+tt.path, "", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	var gotID int64
	router := newRouter(&mockReservationService{
		deleteFunc: func(_ context.Context, identity model.Identity, id int64) error {
			gotID = id
			if identity.Email != "ana@example.com" {
				return apperrors.Forbidden("You are not authorized to delete this reservation")
			}
			return nil
		},
	})

	rec := serve(router, http.MethodDelete, basePath+"/id/12", "", anaInfo)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if gotID != 12 {
		t.Errorf("service got id %d, want 12", gotID)
	}

	rec = serve(router, http.MethodDelete, basePath+"/id/12", "", `{"email":"bob@example.com"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	rec = serve(router, http.MethodDelete, basePath+"/id/12", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status without identity = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	router := httprouter.New()
	NewHealthHandler(nil, logger.Discard()).RegisterRoutes(router)

	for _, path := range []string{"/health", "/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
