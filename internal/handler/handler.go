package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aplatonov-me/Bank-REST/internal/models"
	"github.com/aplatonov-me/Bank-REST/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			h.log.Errorf("Failed to encode response: %v", err)
		}
	}
}

// respondError maps domain errors onto HTTP status codes.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: validationErr.Fields})
		return
	}

	var status int
	switch {
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrCardNotFound),
		errors.Is(err, models.ErrRoleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrIncorrectCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrUserExists),
		errors.Is(err, models.ErrCardLimitExceeded),
		errors.Is(err, models.ErrRoleAlreadyAssigned),
		errors.Is(err, models.ErrRoleNotAssigned):
		status = http.StatusConflict
	case errors.Is(err, models.ErrAmountExceedsLimit),
		errors.Is(err, models.ErrSameCardTransfer),
		errors.Is(err, models.ErrCardNotActive),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrInvalidCardStatus):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrTransferContention):
		w.Header().Set("Retry-After", "1")
		status = http.StatusServiceUnavailable
	default:
		h.log.Errorf("Internal error: %v", err)
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	h.respondJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// pagination reads page/page_size query parameters with sane bounds.
func pagination(r *http.Request) (page, pageSize int) {
	page, pageSize = 1, 20
	if p := r.URL.Query().Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}
