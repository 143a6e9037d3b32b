package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/ZephyrianDawnstrider/hrms/internal/metrics"
	"github.com/ZephyrianDawnstrider/hrms/internal/models"
	"github.com/ZephyrianDawnstrider/hrms/pkg/healthcheck"
)

const (
	DefaultRecheckInterval = 10

	probeKey = "primary"
)

type Config struct {
	// RecheckInterval is how many cached resolutions follow each probe.
	RecheckInterval int
	ProbeTimeout    time.Duration
	TargetName      string
}

// Resolver answers which backend the next data operation goes to.
// It never fails: whatever goes wrong while probing means Backup.
type Resolver struct {
	guard sync.Mutex
	// current is Unknown until the first probe and after Invalidate
	current    models.Backend
	uses       int
	generation uint64
	last       models.Backend

	interval int
	timeout  time.Duration
	target   string
	strategy healthcheck.Strategy
	probes   singleflight.Group
	metrics  metrics.Metrics
	logger   zerolog.Logger
}

func New(strategy healthcheck.Strategy, cfg Config, m metrics.Metrics) *Resolver {
	if cfg.RecheckInterval <= 0 {
		cfg.RecheckInterval = DefaultRecheckInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = healthcheck.DefaultProbeTimeout
	}
	if cfg.TargetName == "" {
		cfg.TargetName = models.Primary.String()
	}
	if m == nil {
		m = metrics.Noop{}
	}
	return &Resolver{
		interval: cfg.RecheckInterval,
		timeout:  cfg.ProbeTimeout,
		target:   cfg.TargetName,
		strategy: strategy,
		metrics:  m,
		logger:   log.With().Str("component", "resolver").Logger(),
	}
}

func (r *Resolver) Resolve(ctx context.Context) models.Backend {
	r.guard.Lock()
	if r.current != models.Unknown && r.uses < r.interval {
		r.uses++
		decision := r.current
		r.guard.Unlock()
		return decision
	}
	r.guard.Unlock()

	res, _, _ := r.probes.Do(probeKey, func() (any, error) {
		return r.probe(ctx), nil
	})
	return res.(models.Backend)
}

func (r *Resolver) probe(ctx context.Context) models.Backend {
	r.guard.Lock()
	gen := r.generation
	r.guard.Unlock()

	r.metrics.Increment("resolver.probe")
	start := time.Now()
	err := healthcheck.Probe(ctx, r.target, r.strategy, r.timeout)
	r.metrics.Duration("resolver.probe_duration", time.Since(start))

	decision := models.Primary
	if err != nil {
		decision = models.Backup
	}

	r.guard.Lock()
	defer r.guard.Unlock()
	if r.generation != gen {
		// invalidated while probing, the answer is still fine for the callers
		// that waited on it but must not outlive the invalidation
		return decision
	}
	r.current = decision
	r.uses = 0
	r.metrics.Gauge("resolver.routing", int(decision))
	if decision != r.last {
		r.logDecision(decision, err)
		r.metrics.Increment("resolver.switch." + decision.String())
		r.last = decision
	}
	return decision
}

func (r *Resolver) logDecision(decision models.Backend, err error) {
	if decision == models.Backup {
		r.logger.Warn().Err(err).Msg("primary database unavailable, routing to backup")
		return
	}
	if r.last == models.Backup {
		r.logger.Info().Msg("primary database available again, routing to primary")
		return
	}
	r.logger.Info().Msg("routing to primary database")
}

// Invalidate drops the cached decision, the next Resolve probes again.
func (r *Resolver) Invalidate() {
	r.guard.Lock()
	r.current = models.Unknown
	r.uses = 0
	r.generation++
	r.guard.Unlock()
	r.probes.Forget(probeKey)
}

// Snapshot returns the cached decision, Unknown when the next call will probe.
func (r *Resolver) Snapshot() (models.Backend, int) {
	r.guard.Lock()
	defer r.guard.Unlock()
	return r.current, r.uses
}
