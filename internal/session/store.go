package session

import (
	"sync"

	"github.com/mrlokans/docsafe/internal/entities"
)

// Snapshot is a consistent view of the in-memory session.
type Snapshot struct {
	Identity   *entities.Identity
	Credential entities.Credential
}

// Authenticated reports whether the snapshot holds an identity.
func (s Snapshot) Authenticated() bool {
	return s.Identity != nil
}

// Store holds the in-memory (Identity, Credential) pair. Readers get copies;
// the only writer is Replicator.
type Store struct {
	mu         sync.RWMutex
	identity   *entities.Identity
	credential entities.Credential
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Identity: copyIdentity(s.identity), Credential: s.credential}
}

// Identity returns a copy of the current identity, or nil when anonymous.
func (s *Store) Identity() *entities.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyIdentity(s.identity)
}

func (s *Store) Credential() entities.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

func (s *Store) set(identity *entities.Identity, credential entities.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = copyIdentity(identity)
	s.credential = credential
}

func (s *Store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.credential = ""
}

func copyIdentity(identity *entities.Identity) *entities.Identity {
	if identity == nil {
		return nil
	}
	c := *identity
	return &c
}
