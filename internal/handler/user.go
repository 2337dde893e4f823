package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// CreateUser handles user registration by an administrator.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	if verr := req.Validate(); verr != nil {
		h.respondError(w, verr)
		return
	}

	user, err := h.svc.CreateUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, user)
}

// GetUser returns a single user with their roles.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

// ListUsers returns a page of users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	users, err := h.svc.ListUsers(r.Context(), page, pageSize)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, users)
}

// DeleteUser hard-deletes a user.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignRole grants a role to a user.
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if verr := req.Validate(); verr != nil {
		h.respondError(w, verr)
		return
	}

	if err := h.svc.AssignRole(r.Context(), req.UserID, req.Role); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveRole revokes a role from a user.
func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if verr := req.Validate(); verr != nil {
		h.respondError(w, verr)
		return
	}

	if err := h.svc.RemoveRole(r.Context(), req.UserID, req.Role); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}
