package statuscache

import (
	"context"
	"fmt"
	"time"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

// Store keeps the last observed primary status for every process.
// Absent or expired entries mean "probe now".
type Store interface {
	Get(ctx context.Context, key string) (models.HealthStatusEntry, bool, error)
	Set(ctx context.Context, key string, status models.Backend, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type StoreError struct {
	Store string
	Op    string
	Key   string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: failed to %s %q: %v", e.Store, e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
