package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/models"
)

// Login handles POST /api/users/login. Credentials are checked against
// the stored bcrypt hash; a deactivated account cannot log in even with
// the right password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err, "login")
		return
	}

	u, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
		return
	}
	if err != nil {
		respondError(w, err, "login")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
		return
	}
	if !u.IsActive {
		writeJSON(w, http.StatusForbidden, errorBody("account is deactivated"))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /api/users?role=&isActive=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var isActive *bool
	if raw := q.Get("isActive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, apperr.Invalid("isActive", "must be a boolean"), "list users")
			return
		}
		isActive = &v
	}
	users, err := h.db.ListUsers(r.Context(), q.Get("role"), isActive)
	if err != nil {
		respondError(w, err, "list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser handles GET /api/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "get user")
		return
	}
	u, err := h.db.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, err, "get user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(true); err != nil {
		respondError(w, err, "create user")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, err, "create user")
		return
	}
	u := &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if err := h.db.CreateUser(r.Context(), u); err != nil {
		respondError(w, err, "create user")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// UpdateUser handles PUT /api/users/{id}. An empty password keeps the
// current hash.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "update user")
		return
	}
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(false); err != nil {
		respondError(w, err, "update user")
		return
	}

	u, err := h.db.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, err, "update user")
		return
	}
	u.FullName = req.FullName
	u.Email = req.Email
	u.Role = req.Role
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.Password != "" {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			respondError(w, hashErr, "update user")
			return
		}
		u.PasswordHash = string(hash)
	}
	if err := h.db.UpdateUser(r.Context(), u); err != nil {
		respondError(w, err, "update user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /api/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err, "delete user")
		return
	}
	if err := h.db.DeleteUser(r.Context(), id); err != nil {
		respondError(w, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
