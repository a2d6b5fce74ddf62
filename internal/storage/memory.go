package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository used by tests and the
// dev backend. Safe for concurrent use.
type MemoryRepository struct {
	mu      sync.RWMutex
	users   map[string]User   // by uid
	records map[string][]byte // by uid
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:   make(map[string]User),
		records: make(map[string][]byte),
	}
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) CreateUser(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return ErrUsernameTaken
		}
	}
	r.users[u.UID] = u
	return nil
}

func (r *MemoryRepository) UserByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepository) UserByUID(_ context.Context, uid string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[uid]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) ListUsers(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *MemoryRepository) SetUserStatus(_ context.Context, uid, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return ErrNotFound
	}
	u.Status = status
	r.users[uid] = u
	return nil
}

func (r *MemoryRepository) DeleteUser(_ context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[uid]; !ok {
		return ErrNotFound
	}
	delete(r.users, uid)
	return nil
}

func (r *MemoryRepository) LoadRecord(_ context.Context, uid string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.records[uid]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

func (r *MemoryRepository) SaveRecord(_ context.Context, uid string, doc []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]byte, len(doc))
	copy(stored, doc)
	r.records[uid] = stored
	return nil
}

func (r *MemoryRepository) DeleteRecord(_ context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, uid)
	return nil
}
