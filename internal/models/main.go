// Package models defines the core data structures for membership users.
package models

import "time"

// User represents a membership account as stored by the provider.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// Username is the login name, unique regardless of case.
	Username string
	// Email is the contact address of the user.
	Email string
	// PasswordHash is the bcrypt hash of the current password.
	PasswordHash []byte
	// PasswordQuestion is the security question used for password resets.
	PasswordQuestion string
	// PasswordAnswerHash is the bcrypt hash of the normalised answer.
	PasswordAnswerHash []byte
	// IsApproved reports whether the account may sign in.
	IsApproved bool
	// IsLockedOut is set by the provider after too many failed attempts.
	IsLockedOut bool
	// FailedPasswordAttempts counts failures inside the current attempt window.
	FailedPasswordAttempts int
	// FailedAttemptWindowStart marks the first failure of the current window.
	FailedAttemptWindowStart *time.Time
	// LastActivityAt is refreshed on every successful validation.
	LastActivityAt time.Time
	// LastLockoutAt is the time the account was last locked.
	LastLockoutAt *time.Time
	// CreatedAt is the creation time of the account.
	CreatedAt time.Time
}

// CreateStatus is the outcome reported by the provider when creating a user.
type CreateStatus int

const (
	// StatusSuccess means the user was created.
	StatusSuccess CreateStatus = iota
	// StatusInvalidUserName means the username was empty or malformed.
	StatusInvalidUserName
	// StatusInvalidPassword means the password did not satisfy the policy.
	StatusInvalidPassword
	// StatusInvalidQuestion means the security question was missing.
	StatusInvalidQuestion
	// StatusInvalidAnswer means the security answer was missing.
	StatusInvalidAnswer
	// StatusInvalidEmail means the email address was malformed.
	StatusInvalidEmail
	// StatusDuplicateUserName means the username is already taken.
	StatusDuplicateUserName
	// StatusDuplicateEmail means another user already uses the email.
	StatusDuplicateEmail
	// StatusProviderError means the store failed while creating the user.
	StatusProviderError
)

var statusNames = map[CreateStatus]string{
	StatusSuccess:           "Success",
	StatusInvalidUserName:   "InvalidUserName",
	StatusInvalidPassword:   "InvalidPassword",
	StatusInvalidQuestion:   "InvalidQuestion",
	StatusInvalidAnswer:     "InvalidAnswer",
	StatusInvalidEmail:      "InvalidEmail",
	StatusDuplicateUserName: "DuplicateUserName",
	StatusDuplicateEmail:    "DuplicateEmail",
	StatusProviderError:     "ProviderError",
}

// String returns the status description shown to operators.
func (s CreateStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}
