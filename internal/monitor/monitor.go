package monitor

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ZephyrianDawnstrider/hrms/internal/dberror"
	"github.com/ZephyrianDawnstrider/hrms/internal/metrics"
	"github.com/ZephyrianDawnstrider/hrms/internal/models"
	"github.com/ZephyrianDawnstrider/hrms/internal/statuscache"
	"github.com/ZephyrianDawnstrider/hrms/pkg/healthcheck"
)

type Invalidator interface {
	Invalidate()
}

type Notifyer interface {
	NotifyFailover(event models.FailoverEvent) bool
}

type Config struct {
	NodeID       string
	StatusKey    string
	StatusTTL    time.Duration
	ProbeTimeout time.Duration
	TargetName   string
}

// Monitor probes primary once per request and publishes transitions
// into the shared status store.
type Monitor struct {
	cfg       Config
	strategy  healthcheck.Strategy
	store     statuscache.Store
	resolvers []Invalidator
	notifyer  Notifyer
	metrics   metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

func New(
	strategy healthcheck.Strategy,
	store statuscache.Store,
	cfg Config,
	m metrics.Metrics,
	notifyer Notifyer,
	resolvers ...Invalidator,
) *Monitor {
	if cfg.TargetName == "" {
		cfg.TargetName = models.Primary.String()
	}
	if cfg.StatusKey == "" {
		cfg.StatusKey = "database_status"
	}
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = 300 * time.Second
	}
	if m == nil {
		m = metrics.Noop{}
	}
	return &Monitor{
		cfg:       cfg,
		strategy:  strategy,
		store:     store,
		resolvers: resolvers,
		notifyer:  notifyer,
		metrics:   m,
		logger:    log.With().Str("component", "monitor").Logger(),
		now:       time.Now,
	}
}

// Check returns what the probe saw: Primary when it is reachable, Backup otherwise.
func (m *Monitor) Check(ctx context.Context) models.Backend {
	start := time.Now()
	probeErr := healthcheck.Probe(ctx, m.cfg.TargetName, m.strategy, m.cfg.ProbeTimeout)
	m.metrics.Duration("monitor.probe_duration", time.Since(start))

	prior := models.Unknown
	entry, found, err := m.store.Get(ctx, m.cfg.StatusKey)
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to read shared database status, treating as unknown")
		m.metrics.Increment("monitor.store_error")
	} else if found {
		prior = entry.Status
	}

	switch {
	case probeErr == nil && prior == models.Backup:
		m.logger.Info().Msg("primary database connection restored, switching back from backup")
		m.transition(ctx, models.Backup, models.Primary, "")
	case probeErr != nil && prior != models.Backup:
		m.logger.Warn().Err(probeErr).Msg("primary database connection lost, using backup")
		m.transition(ctx, prior, models.Backup, probeErr.Error())
	}

	if probeErr != nil {
		return models.Backup
	}
	return models.Primary
}

func (m *Monitor) transition(ctx context.Context, from, to models.Backend, reason string) {
	err := m.store.Set(ctx, m.cfg.StatusKey, to, m.cfg.StatusTTL)
	if err != nil {
		m.logger.Warn().Err(err).Msgf("failed to store database status %s", to)
		m.metrics.Increment("monitor.store_error")
	}
	m.InvalidateResolvers()
	m.metrics.Increment("monitor.transition." + to.String())
	if m.notifyer != nil {
		sent := m.notifyer.NotifyFailover(models.FailoverEvent{
			NodeID: m.cfg.NodeID,
			From:   from,
			To:     to,
			Reason: reason,
			At:     m.now(),
		})
		if !sent {
			m.logger.Warn().Msgf("failover event %s -> %s dropped", from, to)
		}
	}
}

func (m *Monitor) InvalidateResolvers() {
	for _, r := range m.resolvers {
		r.Invalidate()
	}
}

// ObserveError is called with the error of a data operation. Business query
// errors invalidate the local routing decision; the error is returned as is.
func (m *Monitor) ObserveError(err error) error {
	bqErr, ok := dberror.AsBusinessQueryError(err)
	if !ok {
		return err
	}
	m.logger.Error().Err(bqErr.Err).Str("backend", bqErr.Backend.String()).Msgf("database error during %s", bqErr.Op)
	m.metrics.Increment("monitor.business_error")
	m.InvalidateResolvers()
	return err
}

// Status reads the shared entry without probing.
func (m *Monitor) Status(ctx context.Context) (models.HealthStatusEntry, bool, error) {
	return m.store.Get(ctx, m.cfg.StatusKey)
}

func (m *Monitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Check(r.Context())
		next.ServeHTTP(w, r)
	})
}
