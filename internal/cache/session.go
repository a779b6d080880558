package cache

import (
	"fmt"

	"github.com/PolarWolf314/kahu/internal/secrets"
	lru "github.com/hashicorp/golang-lru"
)

// DefaultSessionSize is the identity capacity used when none is configured.
const DefaultSessionSize = 16

// Session is the in-memory tier of identity resolution. It holds unwrapped
// identities for the life of the process and is never persisted.
type Session struct {
	lru *lru.Cache
}

// NewSession returns a Session holding up to capacity identities.
func NewSession(capacity int) (*Session, error) {
	if capacity <= 0 {
		capacity = DefaultSessionSize
	}
	c, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &Session{lru: c}, nil
}

// Get returns the identity cached for accountID.
func (s *Session) Get(accountID string) (*secrets.Identity, bool) {
	entry, ok := s.lru.Get(accountID)
	if !ok {
		return nil, false
	}
	id, ok := entry.(*secrets.Identity)
	return id, ok
}

func (s *Session) Put(accountID string, id *secrets.Identity) {
	s.lru.Add(accountID, id)
}
