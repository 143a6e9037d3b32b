package statuscache

import (
	"context"
	"sync"
	"time"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

// MemoryStore is only shared inside one process.
type MemoryStore struct {
	mu    *sync.Mutex
	cache map[string]models.HealthStatusEntry
	now   func() time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		mu:    &sync.Mutex{},
		cache: make(map[string]models.HealthStatusEntry, 4),
		now:   now,
	}
}

func (c *MemoryStore) Get(ctx context.Context, key string) (models.HealthStatusEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return models.HealthStatusEntry{}, false, nil
	}
	if entry.Expired(c.now()) {
		delete(c.cache, key)
		return models.HealthStatusEntry{}, false, nil
	}
	return entry, true, nil
}

func (c *MemoryStore) Set(ctx context.Context, key string, status models.Backend, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[key] = models.HealthStatusEntry{
		Status:    status,
		ExpiresAt: c.now().Add(ttl),
	}
	return nil
}

func (c *MemoryStore) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.cache, key)
	return nil
}
