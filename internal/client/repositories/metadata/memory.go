package metadata

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryRepository is a map-backed Repository for tests.
type MemoryRepository struct {
	mu     sync.Mutex
	kv     map[string]string
	leases map[string]lease
}

type lease struct {
	owner   string
	expires time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{kv: make(map[string]string), leases: make(map[string]lease)}
}

func (r *MemoryRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.kv[key]
	return v, ok, nil
}

func (r *MemoryRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kv[key] = value
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.kv, key)
	return nil
}

func (r *MemoryRepository) List(_ context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.kv), nil
}

func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kv = make(map[string]string)
	return nil
}

func (r *MemoryRepository) TryLease(_ context.Context, name, owner string, now, until time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.leases[name]; ok && l.owner != owner && l.expires.After(now) {
		return false, nil
	}
	r.leases[name] = lease{owner: owner, expires: until}
	return true, nil
}

func (r *MemoryRepository) ReleaseLease(_ context.Context, name, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.leases[name]; ok && l.owner == owner {
		delete(r.leases, name)
	}
	return nil
}
