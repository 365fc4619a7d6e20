package calendar

import "time"

// Granularity is the zoom level of the calendar view.
type Granularity string

// View granularities.
const (
	ViewMonth  Granularity = "month"
	ViewWeek   Granularity = "week"
	ViewDay    Granularity = "day"
	ViewAgenda Granularity = "agenda"
)

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	switch g {
	case ViewMonth, ViewWeek, ViewDay, ViewAgenda:
		return true
	}
	return false
}

// Selection is the long-lived view state of a calendar: the focused day
// and the zoom level. Transitions return a new value, never mutating the
// receiver, so independent renders can keep their own history.
type Selection struct {
	Date        time.Time   `json:"date"`
	Granularity Granularity `json:"granularity"`
}

// NewSelection starts on today's local date in month view.
func NewSelection() Selection {
	return Selection{Date: DayOf(time.Now()), Granularity: ViewMonth}
}

// SelectDate focuses d, keeping the current granularity.
func (s Selection) SelectDate(d time.Time) Selection {
	return Selection{Date: DayOf(d), Granularity: s.Granularity}
}

// SetGranularity changes the zoom level, keeping the focused date.
// An unknown granularity leaves the selection unchanged.
func (s Selection) SetGranularity(g Granularity) Selection {
	if !g.Valid() {
		return s
	}
	return Selection{Date: s.Date, Granularity: g}
}

// Today refocuses on the current local date at call time, keeping the
// granularity.
func (s Selection) Today() Selection {
	return s.SelectDate(time.Now())
}
