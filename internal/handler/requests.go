package handler

import (
	"strings"

	"github.com/aplatonov-me/Bank-REST/internal/models"
	"github.com/shopspring/decimal"
)

// Request validation is explicit: each Validate reports every failing
// field, not just the first one.

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() *models.ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(r.Username) == "" {
		fields["username"] = "must not be empty"
	}
	if r.Password == "" {
		fields["password"] = "must not be empty"
	}
	return validationError(fields)
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r createUserRequest) Validate() *models.ValidationError {
	fields := map[string]string{}
	if len(strings.TrimSpace(r.Username)) < 3 {
		fields["username"] = "must be at least 3 characters"
	}
	if len(r.Password) < 6 {
		fields["password"] = "must be at least 6 characters"
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	return validationError(fields)
}

type roleRequest struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

func (r roleRequest) Validate() *models.ValidationError {
	fields := map[string]string{}
	if r.UserID <= 0 {
		fields["user_id"] = "must be positive"
	}
	if strings.TrimSpace(r.Role) == "" {
		fields["role"] = "must not be empty"
	}
	return validationError(fields)
}

type createCardRequest struct {
	UserID         int64           `json:"user_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func (r createCardRequest) Validate() *models.ValidationError {
	fields := map[string]string{}
	if r.UserID <= 0 {
		fields["user_id"] = "must be positive"
	}
	if r.InitialBalance.IsNegative() {
		fields["initial_balance"] = "must not be negative"
	}
	return validationError(fields)
}

type updateCardStatusRequest struct {
	CardID int64  `json:"card_id"`
	Status string `json:"status"`
}

func (r updateCardStatusRequest) Validate() *models.ValidationError {
	fields := map[string]string{}
	if r.CardID <= 0 {
		fields["card_id"] = "must be positive"
	}
	if _, err := models.ParseCardStatus(r.Status); err != nil {
		fields["status"] = "must be one of ACTIVE, BLOCKED, EXPIRED"
	}
	return validationError(fields)
}

type transferRequest struct {
	SourceCardID      int64           `json:"source_card_id"`
	DestinationCardID int64           `json:"destination_card_id"`
	Amount            decimal.Decimal `json:"amount"`
}

func (r transferRequest) Validate() *models.ValidationError {
	fields := map[string]string{}
	if r.SourceCardID <= 0 {
		fields["source_card_id"] = "must be positive"
	}
	if r.DestinationCardID <= 0 {
		fields["destination_card_id"] = "must be positive"
	}
	if !r.Amount.IsPositive() {
		fields["amount"] = "must be positive"
	}
	return validationError(fields)
}

func validationError(fields map[string]string) *models.ValidationError {
	if len(fields) == 0 {
		return nil
	}
	return &models.ValidationError{Fields: fields}
}
