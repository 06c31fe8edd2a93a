package memory

import (
	"context"
	"sync"

	"github.com/Apurer/storefront-client/internal/domains/session/ports"
)

// CredentialStore keeps the token for the lifetime of the process.
type CredentialStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

func (s *CredentialStore) Get(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set, nil
}

func (s *CredentialStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
	return nil
}

func (s *CredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
	return nil
}

var _ ports.CredentialStore = (*CredentialStore)(nil)
