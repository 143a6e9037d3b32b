package statuscache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

// Resilient mirrors every write into process memory and serves from there
// while the remote store is failing. Remote errors never reach the caller.
type Resilient struct {
	remote Store
	local  *MemoryStore
	logger zerolog.Logger
}

func NewResilient(remote Store, local *MemoryStore) *Resilient {
	if local == nil {
		local = NewMemoryStore(nil)
	}
	return &Resilient{
		remote: remote,
		local:  local,
		logger: log.With().Str("component", "statuscache").Logger(),
	}
}

func (r *Resilient) Get(ctx context.Context, key string) (models.HealthStatusEntry, bool, error) {
	entry, found, err := r.remote.Get(ctx, key)
	if err != nil {
		r.logger.Warn().Err(err).Msg("shared status unavailable, using local copy")
		return r.local.Get(ctx, key)
	}
	return entry, found, nil
}

func (r *Resilient) Set(ctx context.Context, key string, status models.Backend, ttl time.Duration) error {
	_ = r.local.Set(ctx, key, status, ttl)
	err := r.remote.Set(ctx, key, status, ttl)
	if err != nil {
		r.logger.Warn().Err(err).Msgf("failed to publish status %s, kept locally", status)
	}
	return nil
}

func (r *Resilient) Delete(ctx context.Context, key string) error {
	_ = r.local.Delete(ctx, key)
	err := r.remote.Delete(ctx, key)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to delete shared status")
	}
	return nil
}
