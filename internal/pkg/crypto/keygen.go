// Package crypto provides key generation utilities for the Kanva access server.
package crypto

import (
	"crypto/rand"
	"fmt"
	mathrand "math/rand"
	"strings"
	"time"
)

// Key generation constants
const (
	// PasswordPrefix is the visible prefix of every issued access password.
	PasswordPrefix = "KNV-"

	// PasswordLength is the number of charset characters after the prefix.
	PasswordLength = 12

	// passwordChars contains the characters used in access passwords
	// (uppercase alphanumeric plus symbols).
	passwordChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+"
)

// fallbackRand is used when the secure random source is unavailable.
// A weaker guarantee is accepted for this access model, not treated as an error.
var fallbackRand = mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

// GenerateAccessPassword generates a candidate access password.
// Format: "KNV-" followed by 12 characters from the fixed charset.
// Uses crypto/rand when available, falling back to math/rand otherwise.
func GenerateAccessPassword() string {
	return PasswordPrefix + generateRandomString(PasswordLength, passwordChars)
}

// FallbackID generates an identifier from timestamp plus random suffix.
// Used when a platform UUID cannot be produced.
func FallbackID() string {
	return fmt.Sprintf("id-%d-%s", time.Now().UnixMilli(), generateRandomString(9, "abcdefghijklmnopqrstuvwxyz0123456789"))
}

// generateRandomString generates a random string of the specified length
// using characters from the provided character set.
func generateRandomString(length int, charset string) string {
	result := make([]byte, length)
	charsetLen := len(charset)

	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		for i := 0; i < length; i++ {
			randomBytes[i] = byte(fallbackRand.Intn(256))
		}
	}

	for i := 0; i < length; i++ {
		result[i] = charset[int(randomBytes[i])%charsetLen]
	}

	return string(result)
}

// IsIssuedPassword reports whether the string has the issued password shape.
// The seeded default key and the configured admin password do not.
func IsIssuedPassword(password string) bool {
	if !strings.HasPrefix(password, PasswordPrefix) {
		return false
	}
	body := strings.TrimPrefix(password, PasswordPrefix)
	if len(body) != PasswordLength {
		return false
	}
	for _, c := range body {
		if !strings.ContainsRune(passwordChars, c) {
			return false
		}
	}
	return true
}
