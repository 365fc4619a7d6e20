package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/meletis/propflow/internal/models"
	"github.com/meletis/propflow/internal/scheduling"
)

// ListDocuments handles GET /api/appointments/{id}/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "list documents")
		return
	}
	docs, err := h.svc.Documents(r.Context(), id)
	if err != nil {
		respondError(w, err, "list documents")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// UploadDocument handles POST /api/appointments/{id}/documents
// (multipart/form-data, file field "file", optional "type" field).
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "upload document")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, scheduling.MaxUploadSize)
	if err := r.ParseMultipartForm(scheduling.MaxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	var uploadedBy *int64
	if u, ok := Identity(r.Context()); ok {
		uploadedBy = &u.ID
	}
	docType := models.DocumentType(r.FormValue("type"))

	doc, err := h.svc.AttachDocument(r.Context(), id, header.Filename, docType, uploadedBy, file)
	if err != nil {
		respondError(w, err, "upload document")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// DeleteDocument handles DELETE /api/appointments/{id}/documents/{name},
// where name is the original upload name.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "delete document")
		return
	}
	name := chi.URLParam(r, "name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("document name is required"))
		return
	}
	if err := h.svc.RemoveDocument(r.Context(), id, name); err != nil {
		respondError(w, err, "delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeUpload handles GET /uploads/{filename}, serving a stored
// document file directly.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	abs, err := h.files.Path(chi.URLParam(r, "filename"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid filename"))
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
