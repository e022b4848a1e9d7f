// Package service implements the membership provider: user and role
// policy on top of the repository interfaces.
package service

import "errors"

var (
	// ErrUserNotFound is returned when an operation names an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserLockedOut is returned when a locked account is asked to reset its password.
	ErrUserLockedOut = errors.New("user is locked out")
	// ErrWrongAnswer is returned when the password answer does not match.
	ErrWrongAnswer = errors.New("the password answer supplied is wrong")
	// ErrRoleNotFound is returned when an operation names an unknown role.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleExists is returned when creating a role that already exists.
	ErrRoleExists = errors.New("role already exists")
	// ErrRolePopulated is returned when deleting a role that still has members without cascading.
	ErrRolePopulated = errors.New("role has members")
	// ErrInvalidRoleName is returned for empty role names or names containing commas.
	ErrInvalidRoleName = errors.New("invalid role name")
	// ErrAlreadyInRole is returned when adding a user to a role they already hold.
	ErrAlreadyInRole = errors.New("user is already in role")
	// ErrNotInRole is returned when removing a user from a role they do not hold.
	ErrNotInRole = errors.New("user is not in role")
)
