// Package scheduling coordinates appointments and their document
// attachments across the database and the uploads directory.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/calendar"
	"github.com/meletis/propflow/internal/models"
	"github.com/meletis/propflow/internal/store"
	"github.com/meletis/propflow/internal/storage"
)

// allowedExtensions is the upload allow-list, lowercase with dot.
var allowedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".txt": {},
}

// MaxUploadSize is the largest accepted document, in bytes.
const MaxUploadSize = 5 << 20

// Service is the appointment and document application layer.
type Service struct {
	db     *store.DB
	files  storage.Provider
	logger *slog.Logger
}

// NewService wires the service over its database and file storage.
func NewService(db *store.DB, files storage.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, files: files, logger: logger}
}

// ListAppointments returns appointments matching c, ordered by start
// date ascending.
func (s *Service) ListAppointments(ctx context.Context, c calendar.Criteria) ([]models.Appointment, error) {
	appts, err := s.db.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.FilterByCriteria(appts, c), nil
}

// GetAppointment returns one appointment, or apperr.ErrNotFound.
func (s *Service) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.db.GetAppointment(ctx, id)
}

// CreateAppointment validates and stores a new appointment. A missing
// status defaults to scheduled.
func (s *Service) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if err := calendar.ValidateDateRange(a.StartDate, a.EndDate); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = models.StatusScheduled
	}
	if !a.Status.Valid() {
		return apperr.Invalid("status", fmt.Sprintf("unknown status %q", a.Status))
	}
	return s.db.CreateAppointment(ctx, a)
}

// UpdateAppointment validates and persists changes to an appointment.
// expectedRev > 0 requests a compare-and-swap write; a stale revision
// surfaces as apperr.ErrConflict.
func (s *Service) UpdateAppointment(ctx context.Context, a *models.Appointment, expectedRev int64) error {
	if err := calendar.ValidateDateRange(a.StartDate, a.EndDate); err != nil {
		return err
	}
	if !a.Status.Valid() {
		return apperr.Invalid("status", fmt.Sprintf("unknown status %q", a.Status))
	}
	return s.db.UpdateAppointment(ctx, a, expectedRev)
}

// DeleteAppointment removes an appointment together with its attached
// document files. The row goes first; file removal is best effort and
// only logged on failure, since the watcher and sweep reconcile strays.
func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	docs, err := s.db.ListAppointmentDocuments(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	for _, d := range docs {
		if delErr := s.files.Delete(d.Filename); delErr != nil {
			s.logger.Warn("scheduling: remove document file failed",
				slog.String("file", d.Filename), slog.String("error", delErr.Error()))
		}
	}
	return nil
}

// CalendarEvents projects the appointments matching c into render-ready
// events. Records with an unusable date range are skipped, not fatal.
func (s *Service) CalendarEvents(ctx context.Context, c calendar.Criteria) ([]calendar.Event, error) {
	appts, err := s.ListAppointments(ctx, c)
	if err != nil {
		return nil, err
	}
	return calendar.Project(appts, s.logger), nil
}

// CalendarView projects events for a view selection. Day granularity
// narrows to the selected day; the other granularities return the full
// matching set and let the client window it.
func (s *Service) CalendarView(ctx context.Context, sel calendar.Selection, c calendar.Criteria) ([]calendar.Event, error) {
	appts, err := s.db.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	if sel.Granularity == calendar.ViewDay {
		appts = calendar.FilterByDay(appts, sel.Date)
	}
	return calendar.Project(calendar.FilterByCriteria(appts, c), s.logger), nil
}

// DayAppointments returns the appointments starting on the same local
// calendar day as day.
func (s *Service) DayAppointments(ctx context.Context, day time.Time) ([]models.Appointment, error) {
	appts, err := s.db.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.FilterByDay(appts, day), nil
}

// Documents lists the attachments of an appointment. The appointment
// must exist.
func (s *Service) Documents(ctx context.Context, appointmentID int64) ([]models.Document, error) {
	if _, err := s.db.GetAppointment(ctx, appointmentID); err != nil {
		return nil, err
	}
	return s.db.ListAppointmentDocuments(ctx, appointmentID)
}

// AttachDocument stores an uploaded file for an appointment and records
// it. The stored name is unique per upload; the original name is kept
// for listing and removal. On a database failure the file is removed
// again so disk and table stay consistent.
func (s *Service) AttachDocument(ctx context.Context, appointmentID int64, originalName string, docType models.DocumentType, uploadedBy *int64, src io.Reader) (*models.Document, error) {
	appt, err := s.db.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, apperr.Invalid("file", fmt.Sprintf("file type %q is not allowed", ext))
	}
	if docType == "" {
		docType = models.DocOther
	}
	if !docType.Valid() {
		return nil, apperr.Invalid("type", fmt.Sprintf("unknown document type %q", docType))
	}

	// Read one byte past the cap so an oversized source is detected
	// instead of silently truncated.
	stored := fmt.Sprintf("%d-%s%s", appointmentID, uuid.NewString(), ext)
	written, err := s.files.Save(stored, io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if written > MaxUploadSize {
		_ = s.files.Delete(stored)
		return nil, apperr.Invalid("file", fmt.Sprintf("file exceeds the %d byte limit", int64(MaxUploadSize)))
	}

	cs, err := s.files.Checksum(stored)
	if err != nil {
		_ = s.files.Delete(stored)
		return nil, err
	}

	path, err := s.files.Path(stored)
	if err != nil {
		_ = s.files.Delete(stored)
		return nil, err
	}

	doc := &models.Document{
		Filename:      stored,
		OriginalName:  filepath.Base(originalName),
		Path:          path,
		Checksum:      cs,
		Type:          docType,
		ClientID:      appt.ClientID,
		AppointmentID: &appointmentID,
		UploadedBy:    uploadedBy,
	}
	if err := s.db.CreateDocument(ctx, doc); err != nil {
		_ = s.files.Delete(stored)
		return nil, err
	}
	return doc, nil
}

// RemoveDocument deletes an appointment's attachment by its original
// name: first the file, then the row. A file already missing from disk
// is tolerated.
func (s *Service) RemoveDocument(ctx context.Context, appointmentID int64, originalName string) error {
	doc, err := s.db.GetDocumentByName(ctx, appointmentID, originalName)
	if err != nil {
		return err
	}
	if delErr := s.files.Delete(doc.Filename); delErr != nil {
		s.logger.Warn("scheduling: remove document file failed",
			slog.String("file", doc.Filename), slog.String("error", delErr.Error()))
	}
	if err := s.db.DeleteDocument(ctx, doc.ID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	return nil
}
