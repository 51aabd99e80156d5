package handler

import (
	"encoding/json"
	"net/http"

	"slotdesk/internal/reservations/service"
	apperrors "slotdesk/pkg/errors"
	httputil "slotdesk/pkg/http"
	"slotdesk/pkg/localtime"
	"slotdesk/pkg/logger"
	"slotdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// RequesterHeader names the header the gateway sets after authenticating the
// caller. Token verification itself happens upstream.
const RequesterHeader = "X-Requester-Id"

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

type createRequest struct {
	SlotStart localtime.Time `json:"slot_start"`
	SlotEnd   localtime.Time `json:"slot_end"`
	Company   string         `json:"company"`
	Round     string         `json:"round"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requesterID := r.Header.Get(RequesterHeader)
	if requesterID == "" {
		h.writeError(w, "Create", apperrors.InvalidInput("missing "+RequesterHeader+" header"))
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("invalid request body"))
		return
	}

	reservation := &model.Reservation{
		StudentID: requesterID,
		SlotStart: req.SlotStart,
		SlotEnd:   req.SlotEnd,
		Company:   req.Company,
		Round:     req.Round,
	}

	if err := h.service.Create(r.Context(), reservation); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), r.Header.Get(RequesterHeader), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ReservationUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("invalid request body"))
		return
	}

	reservation, err := h.service.Update(r.Context(), ps.ByName("id"), r.Header.Get(RequesterHeader), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id"), r.Header.Get(RequesterHeader)); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) DayView(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, err := localtime.ParseDate(ps.ByName("date"))
	if err != nil {
		h.writeError(w, "DayView", apperrors.InvalidInput(err.Error()))
		return
	}

	view, err := h.service.DayView(r.Context(), r.Header.Get(RequesterHeader), day)
	if err != nil {
		h.writeError(w, "DayView", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "DayView", "error", err)
	}
}

func (h *ReservationHandler) ListStudentDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, err := localtime.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, "ListStudentDay", apperrors.InvalidInput(err.Error()))
		return
	}

	reservations, err := h.service.ListStudentDay(r.Context(), r.Header.Get(RequesterHeader), ps.ByName("id"), day)
	if err != nil {
		h.writeError(w, "ListStudentDay", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservations); err != nil {
		h.log.Error("failed to write success response", "handler", "ListStudentDay", "error", err)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, operation string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", operation, "error", writeErr)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.PATCH("/api/v1/reservations/id/:id", h.Update)
	router.DELETE("/api/v1/reservations/id/:id", h.Delete)
	router.GET("/api/v1/reservations/day/:date", h.DayView)
	router.GET("/api/v1/reservations/student/:id", h.ListStudentDay)
}
