// Package service provides business logic services for the Kanva access server.
package service

import "errors"

// Common service errors.
var (
	// Access key errors
	ErrKeyNotFound         = errors.New("access key not found")
	ErrDefaultKeyProtected = errors.New("default access key cannot be deleted")
	ErrQuotaExceeded       = errors.New("generation quota exceeded")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidLabel        = errors.New("invalid label")

	// Generation errors
	ErrGenerationNotConfigured = errors.New("generation service is not configured")
	ErrGenerationFailed        = errors.New("generation failed")
	ErrRemovalNotConfigured    = errors.New("background removal service is not configured")

	// Notification errors
	ErrNotificationFailed = errors.New("notification delivery failed")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
