package models

import "time"

// Institutional roles. Accounts are provisioned by an external identity
// flow; this service only reads them.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleDean    = "dean"
	RoleACAF    = "acaf"
	RoleAdmin   = "admin"
)

// User represents a member of the institution.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FirstName  string    `gorm:"size:128;not null" json:"first_name"`
	LastName   string    `gorm:"size:128" json:"last_name"`
	Role       string    `gorm:"size:32;not null;index" json:"role"`
	Department string    `gorm:"size:128;index" json:"department"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayName returns the user's full name for listings.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ValidRole reports whether the given string is a known role.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleFaculty, RoleDean, RoleACAF, RoleAdmin:
		return true
	}
	return false
}
