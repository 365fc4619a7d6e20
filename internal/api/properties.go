package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/models"
	"github.com/meletis/propflow/internal/store"
)

// propertyFilter builds the listing filter from the query string.
func propertyFilter(r *http.Request) (store.PropertyFilter, error) {
	var f store.PropertyFilter
	q := r.URL.Query()

	f.City = q.Get("city")
	if status := q.Get("status"); status != "" {
		s := models.PropertyStatus(status)
		switch s {
		case models.PropertyAvailable, models.PropertyReserved, models.PropertySold:
			f.Status = s
		default:
			return f, apperr.Invalid("status", "unknown status")
		}
	}
	if raw := q.Get("minPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, apperr.Invalid("minPrice", "must be a number")
		}
		f.MinPrice = &v
	}
	if raw := q.Get("maxPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, apperr.Invalid("maxPrice", "must be a number")
		}
		f.MaxPrice = &v
	}
	return f, nil
}

// ListProperties handles GET /api/properties?city=&status=&minPrice=&maxPrice=.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	f, err := propertyFilter(r)
	if err != nil {
		respondError(w, err, "list properties")
		return
	}
	props, err := h.db.ListProperties(r.Context(), f)
	if err != nil {
		respondError(w, err, "list properties")
		return
	}
	writeJSON(w, http.StatusOK, props)
}

// PropertyStats handles GET /api/properties/stats.
func (h *Handler) PropertyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetPropertyStats(r.Context())
	if err != nil {
		respondError(w, err, "property stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetProperty handles GET /api/properties/{id}.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "get property")
		return
	}
	p, err := h.db.GetProperty(r.Context(), id)
	if err != nil {
		respondError(w, err, "get property")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProperty handles POST /api/properties.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req PropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p, err := req.ToModel()
	if err != nil {
		respondError(w, err, "create property")
		return
	}
	if err := h.db.CreateProperty(r.Context(), p); err != nil {
		respondError(w, err, "create property")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProperty handles PUT /api/properties/{id}.
func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "update property")
		return
	}
	var req PropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p, err := req.ToModel()
	if err != nil {
		respondError(w, err, "update property")
		return
	}
	p.ID = id
	if err := h.db.UpdateProperty(r.Context(), p); err != nil {
		respondError(w, err, "update property")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProperty handles DELETE /api/properties/{id}.
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "delete property")
		return
	}
	if err := h.db.DeleteProperty(r.Context(), id); err != nil {
		respondError(w, err, "delete property")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
