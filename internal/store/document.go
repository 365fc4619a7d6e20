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

const documentCols = `id, filename, original_name, path, checksum, type,
	client_id, appointment_id, uploaded_by, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (models.Document, error) {
	var d models.Document
	err := row.Scan(
		&d.ID, &d.Filename, &d.OriginalName, &d.Path, &d.Checksum, &d.Type,
		&d.ClientID, &d.AppointmentID, &d.UploadedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

// CreateDocument inserts a new document record.
func (db *DB) CreateDocument(ctx context.Context, d *models.Document) error {
	now := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO documents
			(filename, original_name, path, checksum, type, client_id, appointment_id, uploaded_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Filename, d.OriginalName, d.Path, d.Checksum, d.Type,
		d.ClientID, d.AppointmentID, d.UploadedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("store: create document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: create document id: %w", err)
	}
	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

// ListAppointmentDocuments returns the documents attached to an
// appointment, oldest first.
func (db *DB) ListAppointmentDocuments(ctx context.Context, appointmentID int64) ([]models.Document, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+documentCols+` FROM documents WHERE appointment_id = ? ORDER BY id ASC`,
		appointmentID)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		d, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("store: scan document: %w", scanErr)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDocumentByName finds an appointment's document by its original
// (upload) name, or apperr.ErrNotFound.
func (db *DB) GetDocumentByName(ctx context.Context, appointmentID int64, originalName string) (*models.Document, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+documentCols+` FROM documents WHERE appointment_id = ? AND original_name = ?`,
		appointmentID, originalName)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get document: %w", err)
	}
	return &d, nil
}

// DeleteDocument removes a document record by id.
func (db *DB) DeleteDocument(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete document %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete document %d: %w", id, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteDocumentByFilename removes a document record by its stored
// filename. Used by the uploads watcher when a file vanishes on disk.
func (db *DB) DeleteDocumentByFilename(ctx context.Context, filename string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM documents WHERE filename = ?`, filename)
	if err != nil {
		return fmt.Errorf("store: delete document %q: %w", filename, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete document %q: %w", filename, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// AllDocumentChecksums maps every stored filename to its recorded
// checksum. Used by Sweep and the uploads watcher.
func (db *DB) AllDocumentChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT filename, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("store: all document checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}
