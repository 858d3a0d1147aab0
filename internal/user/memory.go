package user

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store that enforces the same uniqueness
// contract as Postgres, including DuplicateError on insert collisions.
// It backs the engine and handler tests, where the concurrency behavior
// of the real constraints matters more than canned call expectations.
type MemoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[uuid.UUID]*User)}
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) FindByExternalSubjectID(_ context.Context, subject string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ExternalSubjectID != "" && u.ExternalSubjectID == subject {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) List(_ context.Context) ([]*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, copyUser(u))
	}
	return out, nil
}

func (s *MemoryStore) Insert(_ context.Context, u *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if field := s.violates(u, uuid.Nil); field != "" {
		return nil, &DuplicateError{Field: field}
	}

	stored := copyUser(u)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	s.users[stored.ID] = stored
	return copyUser(stored), nil
}

func (s *MemoryStore) Update(_ context.Context, u *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return nil, ErrNotFound
	}
	if field := s.violates(u, u.ID); field != "" {
		return nil, &DuplicateError{Field: field}
	}

	s.users[u.ID] = copyUser(u)
	return copyUser(u), nil
}

// violates checks the uniqueness constraints against every record except
// the one being written.
func (s *MemoryStore) violates(u *User, self uuid.UUID) string {
	for id, existing := range s.users {
		if id == self {
			continue
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return "email"
		}
		if existing.Username == u.Username {
			return "username"
		}
		if u.ExternalSubjectID != "" && existing.ExternalSubjectID == u.ExternalSubjectID {
			return "external_subject_id"
		}
	}
	return ""
}

func copyUser(u *User) *User {
	c := *u
	return &c
}
