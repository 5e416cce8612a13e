// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted workspace access
	RoleAdmin UserRole = "admin"

	// Can create projects and manage the tasks inside them
	RoleManager UserRole = "manager"

	// Default role for self-registered accounts
	RoleUser UserRole = "user"
)

// LowestRole is the role forced onto every self-registered account.
const LowestRole = RoleUser

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r.level() > 0
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 30
	case RoleManager:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
