// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the core entity of the system, the principal behind every session.
// It is owned by the account store; the auth subsystem only references it by ID.
type User struct {
	ID              uuid.UUID     // The Global Unique Identifier (GUID) for the user.
	FirstName       string        // The user's given name.
	MiddleName      string        // The user's middle name, optional.
	LastName        string        // The user's family name.
	Email           string        // The user's primary contact email, used as the login identifier.
	MobileNumber    string        // The user's contact number, optional.
	Role            Role          // The user's role in the CRM (client, staff, admin).
	AccountStatus   AccountStatus // Account lifecycle state (pending, active, suspended).
	IsActive        bool          // Whether the account may authenticate at all.
	IsStaff         bool          // Shortcut flag for back-office access.
	IsEmailVerified bool          // Whether the login email has been confirmed.
	PasswordHash    string        // Stores the bcrypt-hashed password.
	ProfileImage    string        // Storage key of the profile image, e.g. "users/profile/<uuid>.png".
	CreatedAt       time.Time     // Timestamp of when this user account was created.
	UpdatedAt       time.Time     // Timestamp of the last modification to this user's data.
}

// FullName joins the non-empty name parts with single spaces.
func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, " ")
}

// IsPrivileged reports whether the user's tokens are signed with the admin
// signing key rather than the regular user key.
func (u *User) IsPrivileged() bool {
	return u.Role == RoleAdmin || u.Role == RoleStaff
}
