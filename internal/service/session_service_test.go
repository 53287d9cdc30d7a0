package service

import (
	"sync"
	"testing"

	"github.com/kanva-ao/kanva-server/internal/domain"
)

func TestSessionService_Lifecycle(t *testing.T) {
	s := NewSessionService()

	if s.CurrentRole() != domain.RoleNone {
		t.Errorf("fresh session should be NONE, got %s", s.CurrentRole())
	}
	if s.CurrentPassword() != "" {
		t.Error("fresh session should have no password")
	}

	s.Establish(domain.RoleUser, "KNV-ABCDEF123456")
	if s.CurrentRole() != domain.RoleUser {
		t.Errorf("expected USER, got %s", s.CurrentRole())
	}
	if s.CurrentPassword() != "KNV-ABCDEF123456" {
		t.Errorf("expected stored password, got %q", s.CurrentPassword())
	}

	// Re-establishing without a password keeps the previous one.
	s.Establish(domain.RoleAdmin, "")
	if s.CurrentRole() != domain.RoleAdmin {
		t.Errorf("expected ADMIN, got %s", s.CurrentRole())
	}
	if s.CurrentPassword() != "KNV-ABCDEF123456" {
		t.Errorf("password should survive passwordless establish, got %q", s.CurrentPassword())
	}

	s.Clear()
	if s.CurrentRole() != domain.RoleNone {
		t.Errorf("cleared session should be NONE, got %s", s.CurrentRole())
	}
	if s.CurrentPassword() != "" {
		t.Error("cleared session should have no password")
	}
}

func TestSessionService_ConcurrentAccess(t *testing.T) {
	s := NewSessionService()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Establish(domain.RoleUser, "KNV-ABCDEF123456")
		}()
		go func() {
			defer wg.Done()
			_ = s.CurrentRole()
			_ = s.CurrentPassword()
		}()
	}
	wg.Wait()

	if s.CurrentRole() != domain.RoleUser {
		t.Errorf("expected USER after concurrent establishes, got %s", s.CurrentRole())
	}
}
