package models

import "time"

// UserRole represents the roles recognised by the approval workflow.
type UserRole string

const (
	RoleTutor    UserRole = "TUTOR"
	RoleLecturer UserRole = "LECTURER"
	RoleAdmin    UserRole = "ADMIN"
)

// Valid returns true when the role is a supported value.
func (r UserRole) Valid() bool {
	switch r {
	case RoleTutor, RoleLecturer, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the collaborator view of an identity-store user. This service
// never writes users; it resolves actors by id.
type User struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Role        UserRole  `db:"role" json:"role"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
