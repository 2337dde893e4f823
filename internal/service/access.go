package service

import "github.com/aplatonov-me/Bank-REST/internal/models"

// Access policy: pure predicates over the principal. Callers turn a false
// result into models.ErrForbidden.

// IsAdmin reports whether the principal holds the administrative role.
func IsAdmin(principal models.Principal) bool {
	return principal.HasRole(models.RoleAdmin)
}

// CanAccessCard reports whether the principal may read or mutate the card:
// admins always, otherwise only the owner.
func CanAccessCard(principal models.Principal, card *models.Card) bool {
	return IsAdmin(principal) || principal.ID == card.OwnerID
}
