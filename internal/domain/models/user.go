// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that may sign in to the admin surface.
//
// Identity fields:
//   - Email: stored lowercase, unique through EmailCI
//   - EmailCI: folded for case/diacritic-insensitive matching
//   - AuthMethod: password or google
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName string             `bson:"full_name" json:"full_name"`

	Email      string `bson:"email" json:"email"`
	EmailCI    string `bson:"email_ci" json:"-"`
	AuthMethod string `bson:"auth_method" json:"auth_method"`

	PasswordHash *string `bson:"password_hash,omitempty" json:"-"` // bcrypt hash (never in JSON)

	Role   string `bson:"role" json:"role"`
	Status string `bson:"status" json:"status"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// User roles. Only admins pass the access gate.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{RoleAdmin, RoleUser}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}
