package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"deskbook/internal/reservations/service"
	apperrors "deskbook/pkg/errors"
	httputil "deskbook/pkg/http"
	"deskbook/pkg/logger"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"
)

const basePath = "/api/v1/reservations"

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	requireIdentity := middleware.RequireIdentity(h.log)

	router.Handler(http.MethodPost, basePath, requireIdentity(http.HandlerFunc(h.Create)))
	router.GET(basePath, h.GetAll)
	router.Handler(http.MethodGet, basePath+"/me", requireIdentity(http.HandlerFunc(h.GetMine)))
	router.GET(basePath+"/id/:id", h.GetByID)
	router.Handler(http.MethodDelete, basePath+"/id/:id", requireIdentity(http.HandlerFunc(h.Delete)))
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	var req model.ProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	admission, err := h.service.Propose(r.Context(), identity, &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if admission.Rejection != nil {
		if err := httputil.WriteRejection(w, admission.Rejection); err != nil {
			h.log.Error("failed to write rejection response", "handler", "Create", "operation", "WriteRejection", "error", err)
		}
		return
	}

	if err := httputil.WriteCreated(w, admission.Reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	reservations, totalCount, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, nonNil(reservations), totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetMine", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	reservations, totalCount, err := h.service.GetMine(r.Context(), identity, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetMine", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, nonNil(reservations), totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseID(ps)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	reservation, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	id, err := parseID(httprouter.ParamsFromContext(r.Context()))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func parseID(ps httprouter.Params) (int64, error) {
	raw := ps.ByName("id")
	if raw == "" {
		return 0, apperrors.InvalidInput("ID parameter is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.InvalidInput("Invalid reservation ID format")
	}
	return id, nil
}

// nonNil keeps empty pages encoded as [] rather than null.
func nonNil(reservations []*model.Reservation) []*model.Reservation {
	if reservations == nil {
		return []*model.Reservation{}
	}
	return reservations
}
