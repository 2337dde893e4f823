package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle state of a card.
type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
	CardStatusExpired CardStatus = "EXPIRED"
)

// ParseCardStatus validates a raw status value against the known set.
// Any member of the set is accepted on update; transition legality is
// deliberately not checked.
func ParseCardStatus(s string) (CardStatus, error) {
	switch CardStatus(s) {
	case CardStatusActive, CardStatusBlocked, CardStatusExpired:
		return CardStatus(s), nil
	}
	return "", ErrInvalidCardStatus
}

// Card represents a bank card row. Number holds the encrypted card number
// and is never serialized.
type Card struct {
	ID             int64           `json:"id"`
	Number         string          `json:"-"` // encrypted at rest
	MaskedNumber   string          `json:"masked_number"`
	OwnerID        int64           `json:"owner_id"`
	OwnerUsername  string          `json:"-"` // joined from users, not a column
	ExpirationDate time.Time       `json:"expiration_date"`
	Status         CardStatus      `json:"status"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CardResponse is the display-safe view of a card returned to callers.
// The encrypted number is never part of it.
type CardResponse struct {
	ID             int64           `json:"id"`
	MaskedNumber   string          `json:"masked_number"`
	OwnerUsername  string          `json:"owner_username"`
	ExpirationDate string          `json:"expiration_date"` // Format: YYYY-MM-DD
	Status         CardStatus      `json:"status"`
	Balance        decimal.Decimal `json:"balance"`
}

// NewCardResponse builds the read-only projection of a card.
func NewCardResponse(card *Card) CardResponse {
	return CardResponse{
		ID:             card.ID,
		MaskedNumber:   card.MaskedNumber,
		OwnerUsername:  card.OwnerUsername,
		ExpirationDate: card.ExpirationDate.Format("2006-01-02"),
		Status:         card.Status,
		Balance:        card.Balance,
	}
}

// CardPage is a paginated list of card projections.
type CardPage struct {
	Cards      []CardResponse `json:"cards"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
}
