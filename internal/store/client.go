package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/models"
)

const clientCols = `id, first_name, last_name, email, COALESCE(phone,''),
	COALESCE(nationality,''), COALESCE(passport_number,''), created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (models.Client, error) {
	var c models.Client
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Nationality, &c.PassportNumber, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// CreateClient inserts a new client. A duplicate email or passport
// number maps to a conflict error naming the clash.
func (db *DB) CreateClient(ctx context.Context, c *models.Client) error {
	now := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO clients
			(first_name, last_name, email, phone, nationality, passport_number, created_at, updated_at)
		VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?)`,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Nationality, c.PassportNumber, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("a client with this email or passport number already exists")
		}
		return fmt.Errorf("store: create client: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: create client id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetClient returns one client, or apperr.ErrNotFound.
func (db *DB) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+clientCols+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get client %d: %w", id, err)
	}
	return &c, nil
}

// ListClients returns clients newest first, optionally constrained to a
// nationality and/or a free-text search over name, email, and passport.
func (db *DB) ListClients(ctx context.Context, nationality, search string) ([]models.Client, error) {
	q := `SELECT ` + clientCols + ` FROM clients`
	var conds []string
	var args []any
	if nationality != "" {
		conds = append(conds, `nationality = ?`)
		args = append(args, nationality)
	}
	if search != "" {
		like := "%" + search + "%"
		conds = append(conds, `(first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR passport_number LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	for i, c := range conds {
		if i == 0 {
			q += ` WHERE ` + c
		} else {
			q += ` AND ` + c
		}
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list clients: %w", err)
	}
	defer rows.Close()

	out := make([]models.Client, 0)
	for rows.Next() {
		c, scanErr := scanClient(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("store: scan client: %w", scanErr)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateClient replaces every editable field.
func (db *DB) UpdateClient(ctx context.Context, c *models.Client) error {
	now := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE clients SET
			first_name = ?, last_name = ?, email = ?, phone = NULLIF(?, ''),
			nationality = NULLIF(?, ''), passport_number = NULLIF(?, ''), updated_at = ?
		WHERE id = ?`,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Nationality, c.PassportNumber, now, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("a client with this email or passport number already exists")
		}
		return fmt.Errorf("store: update client %d: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update client %d: %w", c.ID, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	c.UpdatedAt = now
	return nil
}

// DeleteClient removes a client. Appointments and properties keep their
// rows with the link nulled; client documents cascade.
func (db *DB) DeleteClient(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete client %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete client %d: %w", id, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ClientStats summarizes the client base.
type ClientStats struct {
	Total         int            `json:"total"`
	ByNationality map[string]int `json:"byNationality"`
}

// GetClientStats counts clients overall and per nationality.
func (db *DB) GetClientStats(ctx context.Context) (*ClientStats, error) {
	stats := &ClientStats{ByNationality: make(map[string]int)}
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clients`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("store: client stats: %w", err)
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT COALESCE(nationality,''), COUNT(*) FROM clients GROUP BY nationality`)
	if err != nil {
		return nil, fmt.Errorf("store: client stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var nat string
		var n int
		if err := rows.Scan(&nat, &n); err != nil {
			return nil, err
		}
		stats.ByNationality[nat] = n
	}
	return stats, rows.Err()
}
