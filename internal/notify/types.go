// Package notify delivers access credentials to users out-of-band.
// Providers are pluggable: the Resend HTTP API for production, SMTP for
// self-hosted deployments, and a mock that logs instead of sending.
package notify

import (
	"context"
	"errors"
)

// ErrNotConfigured indicates the transport has no credentials configured.
// Callers treat this as a soft failure to log, not a crash.
var ErrNotConfigured = errors.New("email transport is not configured")

// AccessMessage carries everything needed to deliver a newly issued key.
type AccessMessage struct {
	// To is the recipient address.
	To string

	// UserName is the recipient display name used in the greeting.
	UserName string

	// Password is the plaintext access key being delivered.
	Password string

	// AppURL is the public workspace URL linked from the message.
	AppURL string
}

// Sender delivers an access message. A nil error means the transport
// accepted the message.
type Sender interface {
	SendAccessKey(ctx context.Context, msg AccessMessage) error
}

const accessEmailSubject = "🔑 Sua chave mestra do Kanva.ao chegou!"
