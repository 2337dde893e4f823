package handler

import (
	"net/http"

	"github.com/aplatonov-me/Bank-REST/internal/middleware"
	"github.com/aplatonov-me/Bank-REST/internal/models"
)

// CreateCard issues a card for a user. Admin only.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if !h.decode(w, r, &req) {
		return
	}
	if verr := req.Validate(); verr != nil {
		h.respondError(w, verr)
		return
	}

	card, err := h.svc.CreateCard(r.Context(), req.UserID, req.InitialBalance)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, card)
}

// GetCard returns a single card projection.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	card, err := h.svc.GetCard(r.Context(), id, principal)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, card)
}

// ListMyCards returns a page of the caller's own cards.
func (h *Handler) ListMyCards(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	page, pageSize := pagination(r)
	cards, err := h.svc.ListOwnedCards(r.Context(), principal, page, pageSize)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cards)
}

// ListAllCards returns a page over every card. Admin only.
func (h *Handler) ListAllCards(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	cards, err := h.svc.ListAllCards(r.Context(), page, pageSize)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cards)
}

// UpdateCardStatus writes a new card status.
func (h *Handler) UpdateCardStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req updateCardStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	if verr := req.Validate(); verr != nil {
		h.respondError(w, verr)
		return
	}
	status, _ := models.ParseCardStatus(req.Status)

	if err := h.svc.UpdateCardStatus(r.Context(), req.CardID, status, principal); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransferFunds moves money between two of the caller's cards.
func (h *Handler) TransferFunds(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}
	if verr := req.Validate(); verr != nil {
		h.respondError(w, verr)
		return
	}

	err := h.svc.TransferFunds(r.Context(), req.SourceCardID, req.DestinationCardID, req.Amount, principal)
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCard hard-deletes a card. Admin only.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteCard(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CardsReport renders every card as XML. Admin only.
func (h *Handler) CardsReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.CardsReportXML(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report); err != nil {
		h.log.Errorf("Failed to write report: %v", err)
	}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
		return models.Principal{}, false
	}
	return principal, true
}
