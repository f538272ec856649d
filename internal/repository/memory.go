package repository

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/authflow/internal/model"
)

// MemoryAccountStore keeps accounts in process memory.  A single mutex
// serializes every write, which trivially satisfies the atomic Update contract.
type MemoryAccountStore struct {
	mu      sync.Mutex
	byID    map[string]*model.Account
	byEmail map[string]string
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		byID:    map[string]*model.Account{},
		byEmail: map[string]string{},
	}
}

func (s *MemoryAccountStore) Create(_ context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[a.Email]; ok {
		return ErrEmailExists
	}
	s.byID[a.ID] = a.Clone()
	s.byEmail[a.Email] = a.ID
	return nil
}

func (s *MemoryAccountStore) GetByID(_ context.Context, id string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

func (s *MemoryAccountStore) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryAccountStore) FindIDByEmailToken(_ context.Context, token string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.byID {
		if a.EmailTokenMatches(token, now) {
			return id, nil
		}
	}
	return "", ErrNotFound
}

func (s *MemoryAccountStore) Update(_ context.Context, id string, fn UpdateFunc) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	// id and email are immutable
	next.ID, next.Email = cur.ID, cur.Email
	s.byID[id] = next
	return next.Clone(), nil
}
