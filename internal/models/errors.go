package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors. Handlers translate these into HTTP status codes; call
// sites discriminate with errors.Is. Errors carrying extra context are
// wrapped with fmt.Errorf("...: %w", err) at the point of detection.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	ErrRoleNotFound         = errors.New("role not found")
	ErrRoleAlreadyAssigned  = errors.New("role already assigned")
	ErrRoleNotAssigned      = errors.New("role not assigned")

	ErrCardNotFound      = errors.New("card not found")
	ErrCardLimitExceeded = errors.New("card limit reached")
	ErrInvalidCardStatus = errors.New("unknown card status")
	ErrForbidden         = errors.New("access denied")

	ErrAmountExceedsLimit = errors.New("transfer amount exceeds the maximum allowed")
	ErrSameCardTransfer   = errors.New("source and destination cards cannot be the same")
	ErrCardNotActive      = errors.New("card is not active")
	ErrInsufficientFunds  = errors.New("insufficient funds in the source card")

	// ErrTransferContention means the row locks could not be acquired
	// within the bounded wait. It is retryable, unlike the business
	// errors above.
	ErrTransferContention = errors.New("transfer contention, retry later")
)

// ValidationError lists every failing field of a request, not just the
// first one.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}
