// Package models provides shared domain models.
package models

import (
	"errors"
	"net/mail"
	"strings"
)

// User represents an authenticated user as returned by the backend.
type User struct {
	// ID is the server-assigned numeric identifier.
	ID int64 `json:"id"`

	// Email is the user's email address.
	Email string `json:"email"`

	// FullName is the user's display name.
	FullName string `json:"fullName"`
}

// Validation errors for User.
var (
	// ErrEmptyEmail is returned when the email field is empty or whitespace-only.
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrInvalidEmail is returned when the email does not match RFC 5322 format.
	ErrInvalidEmail = errors.New("email format is invalid")

	// ErrEmptyName is returned when the full name is empty or whitespace-only.
	ErrEmptyName = errors.New("name cannot be empty")
)

// ValidateEmail checks that email is a well-formed address.
// Used before issuing registration or login requests.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmptyEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateName checks that a display name is non-empty.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}
