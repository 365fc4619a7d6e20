package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/models"
)

const appointmentCols = `id, title, COALESCE(description,''), start_date, end_date,
	status, COALESCE(notes,''), client_id, property_id, assigned_user_id,
	revision, created_at, updated_at`

func scanAppointment(row interface{ Scan(...any) error }) (models.Appointment, error) {
	var a models.Appointment
	err := row.Scan(
		&a.ID, &a.Title, &a.Description, &a.StartDate, &a.EndDate,
		&a.Status, &a.Notes, &a.ClientID, &a.PropertyID, &a.AssignedUserID,
		&a.Revision, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// CreateAppointment inserts a new appointment and fills in its ID,
// revision, and timestamps.
func (db *DB) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	now := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO appointments
			(title, description, start_date, end_date, status, notes,
			 client_id, property_id, assigned_user_id, revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		a.Title, a.Description, a.StartDate, a.EndDate, a.Status, a.Notes,
		a.ClientID, a.PropertyID, a.AssignedUserID, now, now,
	)
	if err != nil {
		return fmt.Errorf("store: create appointment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: create appointment id: %w", err)
	}
	a.ID = id
	a.Revision = 1
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetAppointment returns one appointment, or apperr.ErrNotFound.
func (db *DB) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get appointment %d: %w", id, err)
	}
	return &a, nil
}

// ListAppointments returns every appointment ordered by start date
// ascending. A row whose stored timestamps no longer scan is skipped
// with a warning so one corrupt record cannot block every list view.
func (db *DB) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+appointmentCols+` FROM appointments ORDER BY start_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list appointments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Appointment, 0)
	for rows.Next() {
		a, scanErr := scanAppointment(rows)
		if scanErr != nil {
			slog.Warn("store: skipping unreadable appointment row", slog.String("error", scanErr.Error()))
			continue
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAppointment replaces every editable field. When expectedRev > 0
// the write only applies if the stored revision still matches
// (compare-and-swap); otherwise last write wins. The revision is bumped
// on success.
func (db *DB) UpdateAppointment(ctx context.Context, a *models.Appointment, expectedRev int64) error {
	now := time.Now()
	q := `UPDATE appointments SET
			title = ?, description = ?, start_date = ?, end_date = ?,
			status = ?, notes = ?, client_id = ?, property_id = ?,
			assigned_user_id = ?, revision = revision + 1, updated_at = ?
		WHERE id = ?`
	args := []any{
		a.Title, a.Description, a.StartDate, a.EndDate,
		a.Status, a.Notes, a.ClientID, a.PropertyID,
		a.AssignedUserID, now, a.ID,
	}
	if expectedRev > 0 {
		q += ` AND revision = ?`
		args = append(args, expectedRev)
	}

	res, err := db.conn.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("store: update appointment %d: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update appointment %d: %w", a.ID, err)
	}
	if n == 0 {
		// Distinguish a missing row from a stale revision.
		var rev int64
		scanErr := db.conn.QueryRowContext(ctx,
			`SELECT revision FROM appointments WHERE id = ?`, a.ID).Scan(&rev)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return apperr.Conflict("appointment was changed by another update; refetch and retry with the new revision")
	}

	var rev int64
	if err := db.conn.QueryRowContext(ctx,
		`SELECT revision FROM appointments WHERE id = ?`, a.ID).Scan(&rev); err == nil {
		a.Revision = rev
	}
	a.UpdatedAt = now
	return nil
}

// DeleteAppointment removes an appointment. Document rows cascade via
// the schema; the caller is responsible for removing their files.
func (db *DB) DeleteAppointment(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete appointment %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete appointment %d: %w", id, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
