package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/calendar"
	"github.com/meletis/propflow/internal/models"
)

// appointmentCriteria builds filter criteria from the query string.
func appointmentCriteria(r *http.Request) (calendar.Criteria, error) {
	var c calendar.Criteria
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		s := models.AppointmentStatus(status)
		if !s.Valid() {
			return c, apperr.Invalid("status", "unknown status")
		}
		c.Status = s
	}
	var err error
	if c.ClientID, err = int64Query(r, "clientId"); err != nil {
		return c, err
	}
	if c.PropertyID, err = int64Query(r, "propertyId"); err != nil {
		return c, err
	}
	if c.AssignedUserID, err = int64Query(r, "assignedUserId"); err != nil {
		return c, err
	}
	if raw := q.Get("startDate"); raw != "" {
		if c.StartFrom, err = parseDate("startDate", raw); err != nil {
			return c, err
		}
	}
	if raw := q.Get("endDate"); raw != "" {
		if c.StartTo, err = parseDate("endDate", raw); err != nil {
			return c, err
		}
	}
	return c, nil
}

// ListAppointments handles GET /api/appointments.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	c, err := appointmentCriteria(r)
	if err != nil {
		respondError(w, err, "list appointments")
		return
	}
	appts, err := h.svc.ListAppointments(r.Context(), c)
	if err != nil {
		respondError(w, err, "list appointments")
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

// CalendarEvents handles GET /api/appointments/calendar. The optional
// view and date parameters drive the selection: day view narrows to the
// selected (or current) day, the wider views return every matching
// event.
func (h *Handler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	sel := calendar.NewSelection()
	if view := r.URL.Query().Get("view"); view != "" {
		g := calendar.Granularity(view)
		if !g.Valid() {
			respondError(w, apperr.Invalid("view", "unknown calendar view"), "calendar")
			return
		}
		sel = sel.SetGranularity(g)
	}
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := parseDate("date", raw)
		if err != nil {
			respondError(w, err, "calendar")
			return
		}
		sel = sel.SelectDate(d)
	}
	c, err := appointmentCriteria(r)
	if err != nil {
		respondError(w, err, "calendar")
		return
	}
	events, err := h.svc.CalendarView(r.Context(), sel, c)
	if err != nil {
		respondError(w, err, "calendar")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// DayAppointments handles GET /api/appointments/day?date=.
func (h *Handler) DayAppointments(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate("date", r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, err, "day appointments")
		return
	}
	appts, err := h.svc.DayAppointments(r.Context(), day)
	if err != nil {
		respondError(w, err, "day appointments")
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

// GetAppointment handles GET /api/appointments/{id}.
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "get appointment")
		return
	}
	a, err := h.svc.GetAppointment(r.Context(), id)
	if err != nil {
		respondError(w, err, "get appointment")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// CreateAppointment handles POST /api/appointments.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	a, err := req.ToModel()
	if err != nil {
		respondError(w, err, "create appointment")
		return
	}
	if err := h.svc.CreateAppointment(r.Context(), a); err != nil {
		respondError(w, err, "create appointment")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ifMatchRevision parses the optional If-Match header into an expected
// revision. Zero means unconditional (last write wins).
func ifMatchRevision(r *http.Request) (int64, error) {
	raw := r.Header.Get("If-Match")
	if raw == "" {
		return 0, nil
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	rev, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || rev <= 0 {
		return 0, apperr.Invalid("If-Match", "must be a positive revision number")
	}
	return rev, nil
}

// UpdateAppointment handles PUT /api/appointments/{id}. An If-Match
// header with the last seen revision makes the write conditional; a
// stale revision gets 409.
func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "update appointment")
		return
	}
	expectedRev, err := ifMatchRevision(r)
	if err != nil {
		respondError(w, err, "update appointment")
		return
	}
	var req AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	a, err := req.ToModel()
	if err != nil {
		respondError(w, err, "update appointment")
		return
	}
	if a.Status == "" {
		a.Status = models.StatusScheduled
	}
	a.ID = id
	if err := h.svc.UpdateAppointment(r.Context(), a, expectedRev); err != nil {
		respondError(w, err, "update appointment")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAppointment handles DELETE /api/appointments/{id}.
func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "delete appointment")
		return
	}
	if err := h.svc.DeleteAppointment(r.Context(), id); err != nil {
		respondError(w, err, "delete appointment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
