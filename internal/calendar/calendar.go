// Package calendar turns flat appointment collections into calendar views:
// render-ready event projections, single-day drill-downs, and criteria
// filtering. All functions are pure over their inputs.
package calendar

import (
	"log/slog"
	"time"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/models"
)

// Event is the render-ready form of an appointment. Start and End carry
// the stored timestamps unchanged; Source keeps the full record for
// drill-down.
type Event struct {
	ID     int64              `json:"id"`
	Title  string             `json:"title"`
	Start  time.Time          `json:"start"`
	End    time.Time          `json:"end"`
	Source models.Appointment `json:"resource"`
}

// ValidateDateRange rejects ranges where either bound is missing or the
// end does not come strictly after the start. It must pass before any
// appointment is created or updated.
func ValidateDateRange(start, end time.Time) error {
	if start.IsZero() {
		return apperr.Invalid("startDate", "start date must be a valid timestamp")
	}
	if end.IsZero() {
		return apperr.Invalid("endDate", "end date must be a valid timestamp")
	}
	if !end.After(start) {
		return apperr.Invalid("endDate", "end date must be after start date")
	}
	return nil
}

// ToEvent projects a single appointment. It fails when the date range is
// missing or inverted; callers deciding between fail-hard and fail-soft
// sit on top of this.
func ToEvent(a models.Appointment) (Event, error) {
	if err := ValidateDateRange(a.StartDate, a.EndDate); err != nil {
		return Event{}, err
	}
	return Event{
		ID:     a.ID,
		Title:  a.Title,
		Start:  a.StartDate,
		End:    a.EndDate,
		Source: a,
	}, nil
}

// Project maps every appointment with a valid date range to exactly one
// event. A malformed record is skipped and logged rather than blocking
// the rest of the projection.
func Project(appts []models.Appointment, logger *slog.Logger) []Event {
	if logger == nil {
		logger = slog.Default()
	}
	events := make([]Event, 0, len(appts))
	for _, a := range appts {
		ev, err := ToEvent(a)
		if err != nil {
			logger.Warn("calendar: skipping unprojectable appointment",
				slog.Int64("id", a.ID),
				slog.String("error", err.Error()))
			continue
		}
		events = append(events, ev)
	}
	return events
}

// DayOf normalizes t to midnight local time.
func DayOf(t time.Time) time.Time {
	lt := t.In(time.Local)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.Local)
}

// SameDay reports whether a and b fall on the same local calendar day.
func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}

// FilterByDay returns the appointments whose start date falls on the
// same local calendar day as day, preserving input order. An appointment
// that spans past midnight still belongs only to its start day.
func FilterByDay(appts []models.Appointment, day time.Time) []models.Appointment {
	out := make([]models.Appointment, 0)
	for _, a := range appts {
		if SameDay(a.StartDate, day) {
			out = append(out, a)
		}
	}
	return out
}

// Criteria is a set of optional filter constraints combined by logical
// AND. Zero values impose no constraint.
type Criteria struct {
	Status         models.AppointmentStatus
	ClientID       *int64
	PropertyID     *int64
	AssignedUserID *int64
	StartFrom      time.Time // inclusive lower bound on StartDate
	StartTo        time.Time // inclusive upper bound on StartDate
}

// Matches reports whether a satisfies every set constraint.
func (c Criteria) Matches(a models.Appointment) bool {
	if c.Status != "" && a.Status != c.Status {
		return false
	}
	if c.ClientID != nil && (a.ClientID == nil || *a.ClientID != *c.ClientID) {
		return false
	}
	if c.PropertyID != nil && (a.PropertyID == nil || *a.PropertyID != *c.PropertyID) {
		return false
	}
	if c.AssignedUserID != nil && (a.AssignedUserID == nil || *a.AssignedUserID != *c.AssignedUserID) {
		return false
	}
	if !c.StartFrom.IsZero() && a.StartDate.Before(c.StartFrom) {
		return false
	}
	if !c.StartTo.IsZero() && a.StartDate.After(c.StartTo) {
		return false
	}
	return true
}

// FilterByCriteria returns the appointments matching c, preserving input
// order.
func FilterByCriteria(appts []models.Appointment, c Criteria) []models.Appointment {
	out := make([]models.Appointment, 0)
	for _, a := range appts {
		if c.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}
