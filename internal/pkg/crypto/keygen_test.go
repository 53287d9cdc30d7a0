package crypto

import (
	"strings"
	"testing"
)

func TestGenerateAccessPassword_Format(t *testing.T) {
	for i := 0; i < 1000; i++ {
		password := GenerateAccessPassword()

		if !strings.HasPrefix(password, PasswordPrefix) {
			t.Fatalf("password %q missing prefix %q", password, PasswordPrefix)
		}
		body := strings.TrimPrefix(password, PasswordPrefix)
		if len(body) != PasswordLength {
			t.Fatalf("password body %q has length %d, want %d", body, len(body), PasswordLength)
		}
		for _, c := range body {
			if !strings.ContainsRune(passwordChars, c) {
				t.Fatalf("password %q contains character %q outside charset", password, c)
			}
		}
	}
}

func TestGenerateAccessPassword_Distribution(t *testing.T) {
	// Collisions across a small sample would indicate a broken source.
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		password := GenerateAccessPassword()
		if seen[password] {
			t.Fatalf("duplicate password generated: %s", password)
		}
		seen[password] = true
	}
}

func TestIsIssuedPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"generated password", GenerateAccessPassword(), true},
		{"valid literal", "KNV-ABC123!@#$%^", true},
		{"missing prefix", "ABC123!@#$%^XYZ0", false},
		{"too short", "KNV-ABC123", false},
		{"too long", "KNV-ABC123!@#$%^&*()", false},
		{"lowercase body", "KNV-abcdef123456", false},
		{"seed credential", "kanva.user.2025", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsIssuedPassword(tt.password); got != tt.want {
				t.Errorf("IsIssuedPassword(%q) = %t, want %t", tt.password, got, tt.want)
			}
		})
	}
}

func TestFallbackID_Shape(t *testing.T) {
	id := FallbackID()
	if !strings.HasPrefix(id, "id-") {
		t.Errorf("fallback id %q missing prefix", id)
	}
	if FallbackID() == id && FallbackID() == id {
		t.Errorf("fallback ids should vary, got repeated %q", id)
	}
}
