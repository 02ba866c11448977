package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Ccreature09/poko-server/internal/application/timetable"
	"github.com/Ccreature09/poko-server/internal/domain"
	"github.com/Ccreature09/poko-server/internal/pkg/validate"
	"github.com/Ccreature09/poko-server/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// TimetableHandler handles timetable and teacher-schedule endpoints.
type TimetableHandler struct {
	svc timetable.Service
}

func NewTimetableHandler(svc timetable.Service) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

func (h *TimetableHandler) Get(w http.ResponseWriter, r *http.Request) {
	tt, err := h.svc.Get(r.Context(), chi.URLParam(r, "classID"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tt)
}

func (h *TimetableHandler) Save(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.SaveTimetableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ClassID = chi.URLParam(r, "classID")
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tt, err := h.svc.Save(r.Context(), claims.SchoolID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tt)
}

// TeacherSchedule returns every session the calling teacher appears in.
func (h *TimetableHandler) TeacherSchedule(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessions, err := h.svc.ClassesTaughtBy(r.Context(), claims.SchoolID, claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// CurrentClass returns the session the calling teacher is in right now, or
// null between lessons.
func (h *TimetableHandler) CurrentClass(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	current, err := h.svc.CurrentSessionFor(r.Context(), claims.SchoolID, claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// PeriodOver reports whether a (day, period) bell-schedule slot has
// already finished this week.
func (h *TimetableHandler) PeriodOver(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := strconv.Atoi(q.Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "period must be a number")
		return
	}
	over, err := h.svc.PeriodOver(r.Context(), chi.URLParam(r, "classID"), q.Get("day"), period)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"over": over})
}
