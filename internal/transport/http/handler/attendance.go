package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Ccreature09/poko-server/internal/application/attendance"
	"github.com/Ccreature09/poko-server/internal/domain"
	"github.com/Ccreature09/poko-server/internal/pkg/validate"
	"github.com/Ccreature09/poko-server/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// AttendanceHandler handles attendance recording and reporting endpoints.
type AttendanceHandler struct {
	svc attendance.Service
}

func NewAttendanceHandler(svc attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

func (h *AttendanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.RecordAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.RecordClassAttendance(r.Context(), claims.SchoolID, claims.UserID, req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "attendance recorded"})
}

func (h *AttendanceHandler) StudentReport(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)
	report, err := h.svc.StudentReport(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AttendanceHandler) SchoolStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	from, to := dateRange(r)
	stats, err := h.svc.SchoolStats(r.Context(), claims.SchoolID, from, to)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AttendanceHandler) ExportStudentReport(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)
	url, err := h.svc.ExportStudentReportCSV(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExportEnvelope{URL: url})
}

func dateRange(r *http.Request) (from, to string) {
	q := r.URL.Query()
	return q.Get("from"), q.Get("to")
}
