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

const propertyCols = `id, title, address, city, price, COALESCE(description,''),
	status, client_id, created_at, updated_at`

func scanProperty(row interface{ Scan(...any) error }) (models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID, &p.Title, &p.Address, &p.City, &p.Price, &p.Description,
		&p.Status, &p.ClientID, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// PropertyFilter constrains ListProperties. Zero values are ignored.
type PropertyFilter struct {
	City     string
	Status   models.PropertyStatus
	MinPrice *float64
	MaxPrice *float64
}

// CreateProperty inserts a new property listing.
func (db *DB) CreateProperty(ctx context.Context, p *models.Property) error {
	now := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO properties
			(title, address, city, price, description, status, client_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Address, p.City, p.Price, p.Description, p.Status, p.ClientID, now, now,
	)
	if err != nil {
		return fmt.Errorf("store: create property: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: create property id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetProperty returns one property, or apperr.ErrNotFound.
func (db *DB) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+propertyCols+` FROM properties WHERE id = ?`, id)
	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get property %d: %w", id, err)
	}
	return &p, nil
}

// ListProperties returns properties newest first, filtered by f.
func (db *DB) ListProperties(ctx context.Context, f PropertyFilter) ([]models.Property, error) {
	q := `SELECT ` + propertyCols + ` FROM properties`
	var conds []string
	var args []any
	if f.City != "" {
		conds = append(conds, `city = ?`)
		args = append(args, f.City)
	}
	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, f.Status)
	}
	if f.MinPrice != nil {
		conds = append(conds, `price >= ?`)
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conds = append(conds, `price <= ?`)
		args = append(args, *f.MaxPrice)
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
		return nil, fmt.Errorf("store: list properties: %w", err)
	}
	defer rows.Close()

	out := make([]models.Property, 0)
	for rows.Next() {
		p, scanErr := scanProperty(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("store: scan property: %w", scanErr)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProperty replaces every editable field.
func (db *DB) UpdateProperty(ctx context.Context, p *models.Property) error {
	now := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE properties SET
			title = ?, address = ?, city = ?, price = ?, description = ?,
			status = ?, client_id = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Address, p.City, p.Price, p.Description, p.Status, p.ClientID, now, p.ID,
	)
	if err != nil {
		return fmt.Errorf("store: update property %d: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update property %d: %w", p.ID, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

// DeleteProperty removes a property; appointments keep their rows with
// the link nulled.
func (db *DB) DeleteProperty(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete property %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete property %d: %w", id, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// PropertyStats summarizes the listing inventory.
type PropertyStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
	ByCity   map[string]int `json:"byCity"`
}

// GetPropertyStats counts properties overall, per status, and per city.
func (db *DB) GetPropertyStats(ctx context.Context) (*PropertyStats, error) {
	stats := &PropertyStats{ByStatus: make(map[string]int), ByCity: make(map[string]int)}
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM properties`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("store: property stats: %w", err)
	}

	group := func(q string, dst map[string]int) error {
		rows, err := db.conn.QueryContext(ctx, q)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				return err
			}
			dst[key] = n
		}
		return rows.Err()
	}

	if err := group(`SELECT status, COUNT(*) FROM properties GROUP BY status`, stats.ByStatus); err != nil {
		return nil, fmt.Errorf("store: property stats: %w", err)
	}
	if err := group(`SELECT city, COUNT(*) FROM properties GROUP BY city`, stats.ByCity); err != nil {
		return nil, fmt.Errorf("store: property stats: %w", err)
	}
	return stats, nil
}
