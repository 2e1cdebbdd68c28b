// Package entity contains the core business objects of the project.
package entity

import "slices"

// Role represents the type of role a user can have in the system.
type Role string

const (
	// RoleClient indicates a regular CRM client.
	RoleClient Role = "client"
	// RoleStaff indicates a back-office staff member.
	RoleStaff Role = "staff"
	// RoleAdmin indicates an administrator.
	RoleAdmin Role = "admin"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// AccountStatus represents the lifecycle state of a user account.
type AccountStatus string

const (
	// AccountStatusPending indicates a freshly registered, unverified account.
	AccountStatusPending AccountStatus = "pending"
	// AccountStatusActive indicates a fully usable account.
	AccountStatusActive AccountStatus = "active"
	// AccountStatusSuspended indicates an administratively disabled account.
	AccountStatusSuspended AccountStatus = "suspended"
)

// String returns the string representation of the AccountStatus.
func (s AccountStatus) String() string {
	return string(s)
}

// IsValid checks if the AccountStatus is a valid value.
func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusPending, AccountStatusActive, AccountStatusSuspended:
		return true
	default:
		return false
	}
}
