package entity

import "time"

// User roles. Role is carried in the access token and drives
// authorization decisions at the guard layer.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

// User represents an account in the system.
type User struct {
	ID           string
	Email        string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}

// Validate validates the User entity fields.
func (u *User) Validate() error {
	if u.ID == "" {
		return &ValidationError{Field: "id", Message: "user ID is required"}
	}
	if u.Email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	switch u.Role {
	case RoleUser, RoleAgent, RoleAdmin:
		return nil
	default:
		return &ValidationError{Field: "role", Message: "role must be user, agent, or admin"}
	}
}
