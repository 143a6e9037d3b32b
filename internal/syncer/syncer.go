package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
	"github.com/ZephyrianDawnstrider/hrms/pkg/healthcheck"
)

type Migrator interface {
	Up(ctx context.Context, db *sql.DB) (int, error)
}

type Target struct {
	Backend  models.Backend
	DB       *sql.DB
	Strategy healthcheck.Strategy
	Migrator Migrator
}

type Config struct {
	ProbeAttempts uint
	ProbeTimeout  time.Duration
	RetryDelay    time.Duration
}

// Syncer brings every reachable backend to the latest schema.
type Syncer struct {
	cfg    Config
	logger zerolog.Logger
}

func New(cfg Config) *Syncer {
	if cfg.ProbeAttempts == 0 {
		cfg.ProbeAttempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	return &Syncer{
		cfg:    cfg,
		logger: log.With().Str("component", "syncer").Logger(),
	}
}

type Report struct {
	Results []models.MigrationResult
}

// Ready is true when at least one backend can serve traffic.
func (r Report) Ready() bool {
	for _, res := range r.Results {
		if res.Ready() {
			return true
		}
	}
	return false
}

func (s *Syncer) Run(ctx context.Context, targets ...Target) Report {
	report := Report{Results: make([]models.MigrationResult, 0, len(targets))}
	for _, target := range targets {
		report.Results = append(report.Results, s.syncOne(ctx, target))
	}
	for _, res := range report.Results {
		ev := s.logger.Info()
		if !res.Ready() {
			ev = s.logger.Warn()
		}
		ev.Str("backend", res.Backend.String()).
			Bool("reachable", res.Reachable).
			Bool("migrated", res.Migrated).
			Int("applied", res.Applied).
			Msg("sync summary")
	}
	if !report.Ready() {
		s.logger.Error().Msg("no database backend is available")
	}
	return report
}

func (s *Syncer) syncOne(ctx context.Context, target Target) models.MigrationResult {
	res := models.MigrationResult{Backend: target.Backend}

	err := retry.Do(
		func() error {
			return healthcheck.Probe(ctx, target.Backend.String(), target.Strategy, s.cfg.ProbeTimeout)
		},
		retry.Attempts(s.cfg.ProbeAttempts),
		retry.Delay(s.cfg.RetryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		res.Error = err.Error()
		// losing primary is survivable, losing the standby is not
		if target.Backend == models.Backup {
			s.logger.Error().Err(err).Msg("backup database is not accessible")
		} else {
			s.logger.Warn().Err(err).Msgf("skipping %s migrations, database not accessible", target.Backend)
		}
		return res
	}
	res.Reachable = true
	s.logger.Info().Msgf("database %s is accessible", target.Backend)

	applied, err := target.Migrator.Up(ctx, target.DB)
	res.Applied = applied
	if err != nil {
		res.Error = err.Error()
		s.logger.Error().Err(err).Msgf("migration failed on %s", target.Backend)
		return res
	}
	res.Migrated = true
	s.logger.Info().Msgf("migrations completed on %s, applied %d", target.Backend, applied)
	return res
}

func (r Report) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Backend", "Reachable", "Migrated", "Applied", "Status", "Error"})
	for _, res := range r.Results {
		status := "unavailable"
		if res.Ready() {
			status = "ready"
		}
		table.Append([]string{
			res.Backend.String(),
			yesNo(res.Reachable),
			yesNo(res.Migrated),
			fmt.Sprint(res.Applied),
			status,
			res.Error,
		})
	}
	table.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
