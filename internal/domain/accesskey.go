// Package domain contains the core business entities for the Kanva access server.
package domain

import (
	"time"
)

// Role represents the authorization level granted by a credential.
type Role string

const (
	// RoleUser grants access to the regular workspace features.
	RoleUser Role = "USER"

	// RoleAdmin grants access to key management and quota administration.
	RoleAdmin Role = "ADMIN"

	// RoleNone indicates an unauthenticated caller.
	RoleNone Role = "NONE"
)

// IsValid reports whether the role is one of the assignable roles.
// RoleNone is a validation outcome, never a stored role.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

const (
	// DefaultKeyID is the id of the seeded system key that exists
	// whenever the store is empty. It can never be deleted.
	DefaultKeyID = "default"

	// DefaultKeyLabel is the human-readable label of the seeded key.
	DefaultKeyLabel = "Acesso Padrão (Sistema)"

	// DefaultUsageLimit is the generation quota assigned to newly issued keys.
	DefaultUsageLimit = 20

	// SeedUsageLimit is the generation quota of the seeded default key.
	SeedUsageLimit = 100
)

// AccessKey is one issued credential. The password string itself is the
// lookup key and is compared in plaintext; this is an access-gating model,
// not a hardened credential store.
type AccessKey struct {
	// ID is the unique identifier, assigned at creation and immutable.
	ID string `json:"id"`

	// Password is the secret itself, unique across all live keys.
	// Format for issued keys: "KNV-" followed by 12 charset characters.
	Password string `json:"password"`

	// Label is the human-readable name shown in the admin dashboard.
	Label string `json:"label"`

	// Email is optional and used only for notification delivery.
	Email string `json:"email,omitempty"`

	// Role is fixed at creation.
	Role Role `json:"role"`

	// IsActive controls whether the key validates. Toggled by admins.
	IsActive bool `json:"isActive"`

	// CreatedAt is the creation timestamp, immutable.
	CreatedAt time.Time `json:"createdAt"`

	// UsageCount is the number of completed billable generations.
	// Monotonically incremented; only an explicit reset returns it to 0.
	UsageCount int `json:"usageCount"`

	// UsageLimit is the generation quota, fixed at creation.
	UsageLimit int `json:"usageLimit"`

	// LastUsedAt is set on each usage increment.
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// NewAccessKey creates an AccessKey with the module-wide defaults.
// The id and password are generated by the issuing service.
func NewAccessKey(id, password, label string, role Role, email string) *AccessKey {
	return &AccessKey{
		ID:         id,
		Password:   password,
		Label:      label,
		Email:      email,
		Role:       role,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
		UsageCount: 0,
		UsageLimit: DefaultUsageLimit,
	}
}

// SeedKey returns the synthesized default key used while the store is empty.
// It is not persisted until the first mutation touches the store.
func SeedKey(password string) *AccessKey {
	return &AccessKey{
		ID:         DefaultKeyID,
		Password:   password,
		Label:      DefaultKeyLabel,
		Role:       RoleUser,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
		UsageCount: 0,
		UsageLimit: SeedUsageLimit,
	}
}

// IsDefault reports whether this is the protected seed key.
func (k *AccessKey) IsDefault() bool {
	return k.ID == DefaultKeyID
}

// Remaining returns the number of generations left on the key's quota.
func (k *AccessKey) Remaining() int {
	remaining := k.UsageLimit - k.UsageCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Exhausted reports whether the key has used up its quota.
func (k *AccessKey) Exhausted() bool {
	return k.UsageCount >= k.UsageLimit
}

// QuotaStatus is the result of a quota check.
type QuotaStatus struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
}

// AdminQuotaRemaining is the sentinel remaining value reported for the
// configured administrator password, which is exempt from quota tracking.
const AdminQuotaRemaining = 999
