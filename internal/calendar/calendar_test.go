package calendar

import (
	"testing"
	"time"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/models"
)

func i64(v int64) *int64 { return &v }

func appt(id int64, title string, start, end time.Time) models.Appointment {
	return models.Appointment{
		ID:        id,
		Title:     title,
		StartDate: start,
		EndDate:   end,
		Status:    models.StatusScheduled,
	}
}

func TestValidateDateRange(t *testing.T) {
	base := time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local)

	cases := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"valid", base, base.Add(time.Hour), false},
		{"missing start", time.Time{}, base, true},
		{"missing end", base, time.Time{}, true},
		{"end equals start", base, base, true},
		{"end before start", base, base.Add(-time.Minute), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDateRange(tc.start, tc.end)
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr {
				if _, ok := apperr.AsValidation(err); !ok {
					t.Errorf("error %v is not a validation error", err)
				}
			}
		})
	}
}

func TestToEventPreservesTimestamps(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 30, 0, 0, time.Local)
	end := start.Add(90 * time.Minute)
	a := appt(42, "Viewing at Elm Street", start, end)

	ev, err := ToEvent(a)
	if err != nil {
		t.Fatalf("ToEvent: %v", err)
	}
	if ev.ID != 42 || ev.Title != "Viewing at Elm Street" {
		t.Errorf("event = %+v", ev)
	}
	if !ev.Start.Equal(start) || !ev.End.Equal(end) {
		t.Errorf("timestamps drifted: start %v end %v", ev.Start, ev.End)
	}
	if ev.Source.ID != a.ID {
		t.Errorf("source not carried: %+v", ev.Source)
	}
}

func TestProjectSkipsMalformedRecords(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	appts := []models.Appointment{
		appt(1, "ok one", base, base.Add(time.Hour)),
		appt(2, "missing start", time.Time{}, base.Add(time.Hour)),
		appt(3, "ok two", base.Add(2*time.Hour), base.Add(3*time.Hour)),
		appt(4, "inverted", base.Add(time.Hour), base),
		appt(5, "ok three", base.Add(4*time.Hour), base.Add(5*time.Hour)),
	}

	events := Project(appts, nil)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	wantIDs := []int64{1, 3, 5}
	for i, ev := range events {
		if ev.ID != wantIDs[i] {
			t.Errorf("events[%d].ID = %d, want %d", i, ev.ID, wantIDs[i])
		}
	}
}

func TestFilterByDay(t *testing.T) {
	// 23:59 on the 10th still belongs to the 10th even though the
	// appointment runs past midnight.
	lateStart := time.Date(2026, 3, 10, 23, 59, 0, 0, time.Local)
	appts := []models.Appointment{
		appt(1, "morning", time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)),
		appt(2, "late spanning", lateStart, lateStart.Add(2*time.Hour)),
		appt(3, "next day", time.Date(2026, 3, 11, 0, 30, 0, 0, time.Local), time.Date(2026, 3, 11, 1, 0, 0, 0, time.Local)),
		appt(4, "previous day", time.Date(2026, 3, 9, 12, 0, 0, 0, time.Local), time.Date(2026, 3, 9, 13, 0, 0, 0, time.Local)),
	}

	// Any instant of the day works as the reference.
	day := time.Date(2026, 3, 10, 17, 45, 12, 0, time.Local)
	got := FilterByDay(appts, day)
	if len(got) != 2 {
		t.Fatalf("got %d appointments, want 2", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("order not preserved: %d, %d", got[0].ID, got[1].ID)
	}
}

func TestFilterByDayEmpty(t *testing.T) {
	got := FilterByDay(nil, time.Now())
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %v", got)
	}
}

func TestDayOf(t *testing.T) {
	in := time.Date(2026, 3, 10, 23, 59, 59, 999_000_000, time.Local)
	want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	if got := DayOf(in); !got.Equal(want) {
		t.Errorf("DayOf = %v, want %v", got, want)
	}
}

func TestFilterByCriteria(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	mk := func(id int64, status models.AppointmentStatus, clientID *int64, start time.Time) models.Appointment {
		a := appt(id, "a", start, start.Add(time.Hour))
		a.Status = status
		a.ClientID = clientID
		return a
	}
	appts := []models.Appointment{
		mk(1, models.StatusConfirmed, i64(7), base),
		mk(2, models.StatusConfirmed, i64(8), base.Add(time.Hour)),
		mk(3, models.StatusScheduled, i64(7), base.Add(2*time.Hour)),
		mk(4, models.StatusConfirmed, i64(7), base.Add(3*time.Hour)),
		mk(5, models.StatusConfirmed, nil, base.Add(4*time.Hour)),
	}

	t.Run("no constraints matches all", func(t *testing.T) {
		got := FilterByCriteria(appts, Criteria{})
		if len(got) != 5 {
			t.Fatalf("got %d, want 5", len(got))
		}
	})

	t.Run("status and client are ANDed", func(t *testing.T) {
		got := FilterByCriteria(appts, Criteria{Status: models.StatusConfirmed, ClientID: i64(7)})
		if len(got) != 2 {
			t.Fatalf("got %d, want 2", len(got))
		}
		if got[0].ID != 1 || got[1].ID != 4 {
			t.Errorf("ids = %d, %d", got[0].ID, got[1].ID)
		}
	})

	t.Run("nil link never matches a set filter", func(t *testing.T) {
		got := FilterByCriteria(appts, Criteria{ClientID: i64(99)})
		if len(got) != 0 {
			t.Fatalf("got %d, want 0", len(got))
		}
	})

	t.Run("start date bounds are inclusive", func(t *testing.T) {
		got := FilterByCriteria(appts, Criteria{
			StartFrom: base.Add(time.Hour),
			StartTo:   base.Add(3 * time.Hour),
		})
		if len(got) != 3 {
			t.Fatalf("got %d, want 3", len(got))
		}
		if got[0].ID != 2 || got[2].ID != 4 {
			t.Errorf("ids = %d..%d", got[0].ID, got[2].ID)
		}
	})
}

func TestDayAndStatusViews(t *testing.T) {
	mk := func(id int64, status models.AppointmentStatus, start string) models.Appointment {
		s, err := time.ParseInLocation("2006-01-02T15:04", start, time.Local)
		if err != nil {
			t.Fatal(err)
		}
		a := appt(id, "a", s, s.Add(time.Hour))
		a.Status = status
		return a
	}
	appts := []models.Appointment{
		mk(1, models.StatusScheduled, "2024-06-01T09:00"),
		mk(2, models.StatusCancelled, "2024-06-01T14:00"),
		mk(3, models.StatusScheduled, "2024-06-02T09:00"),
	}

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local)
	byDay := FilterByDay(appts, day)
	if len(byDay) != 2 || byDay[0].ID != 1 || byDay[1].ID != 2 {
		t.Fatalf("by day: %+v", byDay)
	}

	scheduled := FilterByCriteria(appts, Criteria{Status: models.StatusScheduled})
	if len(scheduled) != 2 || scheduled[0].ID != 1 || scheduled[1].ID != 3 {
		t.Fatalf("by status: %+v", scheduled)
	}
}

func TestFilterDayThenCriteria(t *testing.T) {
	// Filters compose: first narrow to one day, then by client.
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	appts := []models.Appointment{
		func() models.Appointment {
			a := appt(1, "on day, client 7", day.Add(9*time.Hour), day.Add(10*time.Hour))
			a.ClientID = i64(7)
			return a
		}(),
		appt(2, "on day, no client", day.Add(11*time.Hour), day.Add(12*time.Hour)),
		func() models.Appointment {
			a := appt(3, "other day, client 7", day.AddDate(0, 0, 1), day.AddDate(0, 0, 1).Add(time.Hour))
			a.ClientID = i64(7)
			return a
		}(),
	}

	got := FilterByCriteria(FilterByDay(appts, day), Criteria{ClientID: i64(7)})
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("got %v", got)
	}
}
