// Package domain contains the core business entities for the Kanva access server.
package domain

import (
	"errors"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Access Key Errors
	// ===========================================

	// ErrKeyNotFound indicates the requested access key does not exist.
	ErrKeyNotFound = errors.New("access key not found")

	// ErrKeyInactive indicates the access key is disabled.
	ErrKeyInactive = errors.New("access key is inactive")

	// ErrKeyExists indicates a key with the same password already exists.
	ErrKeyExists = errors.New("access key already exists")

	// ErrDefaultKeyProtected indicates an attempt to delete the seeded default key.
	ErrDefaultKeyProtected = errors.New("default access key cannot be deleted")

	// ErrQuotaExceeded indicates the key has used up its generation quota.
	// Callers surface this distinctly from generic failures.
	ErrQuotaExceeded = errors.New("generation quota exceeded")

	// ErrInvalidRole indicates the role is not an assignable role.
	ErrInvalidRole = errors.New("invalid role")

	// ===========================================
	// Card / Design Errors
	// ===========================================

	// ErrCardNotFound indicates the requested card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrInvalidCardType indicates the card type is not note, idea or task.
	ErrInvalidCardType = errors.New("invalid card type")

	// ErrDesignNotFound indicates the requested design does not exist.
	ErrDesignNotFound = errors.New("design not found")

	// ErrInvalidCategory indicates the design category is unknown.
	ErrInvalidCategory = errors.New("invalid design category")

	// ErrEmptyBrief indicates the design brief has no main idea.
	ErrEmptyBrief = errors.New("design brief is empty")
)
