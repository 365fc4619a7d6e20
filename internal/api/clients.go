package api

import (
	"encoding/json"
	"net/http"
)

// ListClients handles GET /api/clients?nationality=&search=.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clients, err := h.db.ListClients(r.Context(), q.Get("nationality"), q.Get("search"))
	if err != nil {
		respondError(w, err, "list clients")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// ClientStats handles GET /api/clients/stats.
func (h *Handler) ClientStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetClientStats(r.Context())
	if err != nil {
		respondError(w, err, "client stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetClient handles GET /api/clients/{id}.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "get client")
		return
	}
	c, err := h.db.GetClient(r.Context(), id)
	if err != nil {
		respondError(w, err, "get client")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateClient handles POST /api/clients.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	c, err := req.ToModel()
	if err != nil {
		respondError(w, err, "create client")
		return
	}
	if err := h.db.CreateClient(r.Context(), c); err != nil {
		respondError(w, err, "create client")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateClient handles PUT /api/clients/{id}.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "update client")
		return
	}
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	c, err := req.ToModel()
	if err != nil {
		respondError(w, err, "update client")
		return
	}
	c.ID = id
	if err := h.db.UpdateClient(r.Context(), c); err != nil {
		respondError(w, err, "update client")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteClient handles DELETE /api/clients/{id}.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "delete client")
		return
	}
	if err := h.db.DeleteClient(r.Context(), id); err != nil {
		respondError(w, err, "delete client")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
