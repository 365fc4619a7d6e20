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

const userCols = `id, full_name, email, password_hash, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// CreateUser inserts a new user. A duplicate email maps to a conflict
// error naming the clash.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (full_name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.FullName, u.Email, u.PasswordHash, u.Role, u.IsActive, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("this email is already registered")
		}
		return fmt.Errorf("store: create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: create user id: %w", err)
	}
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// GetUser returns one user, or apperr.ErrNotFound.
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user %d: %w", id, err)
	}
	return &u, nil
}

// GetUserByEmail returns the user with the given login email, or
// apperr.ErrNotFound.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user by email: %w", err)
	}
	return &u, nil
}

// ListUsers returns users newest first. role filters when non-empty;
// isActive filters when non-nil.
func (db *DB) ListUsers(ctx context.Context, role string, isActive *bool) ([]models.User, error) {
	q := `SELECT ` + userCols + ` FROM users`
	var conds []string
	var args []any
	if role != "" {
		conds = append(conds, `role = ?`)
		args = append(args, role)
	}
	if isActive != nil {
		conds = append(conds, `is_active = ?`)
		args = append(args, *isActive)
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
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	defer rows.Close()

	out := make([]models.User, 0)
	for rows.Next() {
		u, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("store: scan user: %w", scanErr)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUser replaces every editable field, including the password hash.
func (db *DB) UpdateUser(ctx context.Context, u *models.User) error {
	now := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE users SET
			full_name = ?, email = ?, password_hash = ?, role = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		u.FullName, u.Email, u.PasswordHash, u.Role, u.IsActive, now, u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("this email is already registered")
		}
		return fmt.Errorf("store: update user %d: %w", u.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update user %d: %w", u.ID, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	u.UpdatedAt = now
	return nil
}

// DeleteUser removes a user; assigned appointments and uploaded
// documents keep their rows with the link nulled.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete user %d: %w", id, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
