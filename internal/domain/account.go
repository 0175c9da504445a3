package domain

import (
	"strings"
	"time"
)

// Role enumerates the account kinds known to the engine.
type Role string

const (
	RoleReporter Role = "REPORTER"
	RoleHandler  Role = "HANDLER"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole normalizes and validates a role value.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch role {
	case RoleReporter, RoleHandler, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// Department is the closed routing key shared by handler accounts and tickets.
// Reporters and admins carry the sentinel values instead.
type Department string

const (
	DepartmentIT          Department = "IT"
	DepartmentMaintenance Department = "MAINTENANCE"
	DepartmentHostel      Department = "HOSTEL"
	DepartmentAccounts    Department = "ACCOUNTS"
	DepartmentLibrary     Department = "LIBRARY"
	DepartmentSports      Department = "SPORTS"

	DepartmentReporter Department = "REPORTER"
	DepartmentAdmin    Department = "ADMIN"
)

// HandlerDepartments lists the assignable departments in a stable order.
var HandlerDepartments = []Department{
	DepartmentIT,
	DepartmentMaintenance,
	DepartmentHostel,
	DepartmentAccounts,
	DepartmentLibrary,
	DepartmentSports,
}

// ParseDepartment normalizes a raw value and validates membership in the
// closed handler department set. Sentinel values are not accepted here.
func ParseDepartment(raw string) (Department, bool) {
	dept := Department(strings.ToUpper(strings.TrimSpace(raw)))
	for _, candidate := range HandlerDepartments {
		if dept == candidate {
			return dept, true
		}
	}
	return "", false
}

// Account models a registered identity. Role and department are fixed at
// registration; a HANDLER always carries a department from the closed set.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Department   Department
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the account holds the administrator role.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}
