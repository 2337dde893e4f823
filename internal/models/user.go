package models

import "time"

// Role names known to the system.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents a user in the system.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"` // optional, for notifications
	PasswordHash string    `json:"-"`               // not serialized
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated actor making a request. It is passed
// explicitly to every service call; there is no ambient per-request state.
type Principal struct {
	ID       int64
	Username string
	Roles    []string
}

// HasRole reports whether the principal holds the named role.
func (p Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// UserResponse is the view of a user returned by admin endpoints.
type UserResponse struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles,omitempty"`
}

// UserPage is a paginated list of users.
type UserPage struct {
	Users      []UserResponse `json:"users"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
}
