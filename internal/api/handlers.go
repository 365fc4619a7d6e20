package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/scheduling"
	"github.com/meletis/propflow/internal/storage"
	"github.com/meletis/propflow/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	svc   *scheduling.Service
	db    *store.DB
	files storage.Provider
}

// NewHandler creates a new Handler.
func NewHandler(svc *scheduling.Service, db *store.DB, files storage.Provider) *Handler {
	return &Handler{svc: svc, db: db, files: files}
}

// idParam extracts the numeric {id} route parameter.
func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

// int64Query parses an optional numeric query parameter.
func int64Query(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.Invalid(name, "must be an integer")
	}
	return &v, nil
}

// respondError maps a domain error to an HTTP response. action labels
// the log line on unexpected failures.
func respondError(w http.ResponseWriter, err error, action string) {
	if ve, ok := apperr.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody(ve.Error()))
		return
	}
	var ozzo validation.Errors
	if errors.As(err, &ozzo) {
		writeJSON(w, http.StatusBadRequest, errorBody(ozzo.Error()))
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		slog.Error(action+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
