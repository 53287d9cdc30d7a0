package service

import (
	"sync"

	"github.com/kanva-ao/kanva-server/internal/domain"
)

// SessionService remembers the currently validated role and password for
// the active context. It is a process-local convenience cache with no
// expiry, no renewal and no cross-device sync - not a security boundary.
type SessionService struct {
	mu       sync.RWMutex
	role     domain.Role
	password string
}

// NewSessionService creates an empty session holder.
func NewSessionService() *SessionService {
	return &SessionService{role: domain.RoleNone}
}

// Establish records the validated role and, when supplied, the password
// used to authenticate.
func (s *SessionService) Establish(role domain.Role, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.role = role
	if password != "" {
		s.password = password
	}
}

// CurrentRole returns the session role, RoleNone if absent.
func (s *SessionService) CurrentRole() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.role == "" {
		return domain.RoleNone
	}
	return s.role
}

// CurrentPassword returns the session password, empty if absent.
func (s *SessionService) CurrentPassword() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.password
}

// Clear removes both role and password.
func (s *SessionService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.role = domain.RoleNone
	s.password = ""
}
