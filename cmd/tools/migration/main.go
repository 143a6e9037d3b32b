package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ZephyrianDawnstrider/hrms/internal/config"
	"github.com/ZephyrianDawnstrider/hrms/internal/database"
	"github.com/ZephyrianDawnstrider/hrms/internal/migrator"
	"github.com/ZephyrianDawnstrider/hrms/internal/syncer"
	"github.com/ZephyrianDawnstrider/hrms/pkg/healthcheck"
	"github.com/ZephyrianDawnstrider/hrms/pkg/strategies"
)

type flags struct {
	primaryDSN    string
	backupDSN     string
	probeTimeout  time.Duration
	probeAttempts uint
	loggerLevel   string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	f := &flags{}
	root := &cobra.Command{
		Use:           "migration",
		Short:         "Bring primary and backup databases to the latest schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), f)
		},
	}
	root.PersistentFlags().StringVar(&f.primaryDSN, "primary-dsn", "", "postgres dsn, overrides PRIMARY_DSN")
	root.PersistentFlags().StringVar(&f.backupDSN, "backup-dsn", "", "sqlite dsn, overrides BACKUP_DSN")
	root.PersistentFlags().DurationVar(&f.probeTimeout, "probe-timeout", 0, "probe timeout, overrides PROBE_TIMEOUT_MS")
	root.PersistentFlags().UintVar(&f.probeAttempts, "probe-attempts", 0, "probe attempts per backend, overrides SYNC_PROBE_ATTEMPTS")
	root.PersistentFlags().StringVar(&f.loggerLevel, "log-level", "", "overrides LOGGER_LEVEL")

	root.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "Show schema versions without migrating",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPending(cmd.Context(), f)
		},
	})

	err := root.ExecuteContext(ctx)
	if err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(1)
	}
}

func loadConfig(f *flags) (config.Config, error) {
	cfg, err := config.Parse()
	if err != nil {
		return config.Config{}, err
	}
	if f.primaryDSN != "" {
		cfg.PrimaryDSN = f.primaryDSN
	}
	if f.backupDSN != "" {
		cfg.BackupDSN = f.backupDSN
	}
	if f.probeTimeout > 0 {
		cfg.ProbeTimeoutMs = int(f.probeTimeout.Milliseconds())
	}
	if f.probeAttempts > 0 {
		cfg.SyncProbeAttempts = f.probeAttempts
	}
	if f.loggerLevel != "" {
		cfg.LoggerLevel = f.loggerLevel
	}
	// the tool never touches the shared status store
	cfg.StatusStore = config.StoreMemory
	err = cfg.Validate()
	if err != nil {
		return config.Config{}, err
	}
	log.Logger = log.Level(config.LoggerLevelFromString(cfg.LoggerLevel))
	return cfg, nil
}

type backends struct {
	primary   *database.PrimaryHandle
	backup    database.Handle
	targets   []syncer.Target
	migrators []*migrator.Migrator
}

func (b *backends) Close() {
	b.primary.Close()
	_ = b.backup.DB.Close()
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	primary, err := database.OpenPrimary(ctx, cfg.PrimaryDSN, 2, cfg.ProbeTimeout())
	if err != nil {
		return nil, err
	}
	backup, err := database.OpenBackup(cfg.BackupDSN)
	if err != nil {
		primary.Close()
		return nil, err
	}
	b := &backends{primary: primary, backup: backup}

	for _, h := range []struct {
		handle   database.Handle
		strategy healthcheck.StrategyName
		target   healthcheck.Target
	}{
		{primary.Handle, healthcheck.PostgresStrategy, healthcheck.Target{Name: "primary", Pool: primary.Pool, DB: primary.DB, Addr: primary.Addr}},
		{backup, healthcheck.SQLStrategy, healthcheck.Target{Name: "backup", DB: backup.DB}},
	} {
		strategy, err := strategies.NewStrategy(h.strategy, h.target, nil)
		if err != nil {
			b.Close()
			return nil, err
		}
		m, err := migrator.New(h.handle.Dialect)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.targets = append(b.targets, syncer.Target{
			Backend:  h.handle.Identity,
			DB:       h.handle.DB,
			Strategy: strategy,
			Migrator: m,
		})
		b.migrators = append(b.migrators, m)
	}
	return b, nil
}

func runSync(ctx context.Context, f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	report := syncer.New(syncer.Config{
		ProbeAttempts: cfg.SyncProbeAttempts,
		ProbeTimeout:  cfg.ProbeTimeout(),
	}).Run(ctx, b.targets...)
	report.Render(os.Stdout)

	if !report.Ready() {
		return fmt.Errorf("no database backend is ready")
	}
	log.Info().Msg("migration completed")
	return nil
}

func runPending(ctx context.Context, f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Backend", "Current", "Latest", "Pending"})
	for i, target := range b.targets {
		m := b.migrators[i]
		probeErr := healthcheck.Probe(ctx, target.Backend.String(), target.Strategy, cfg.ProbeTimeout())
		if probeErr != nil {
			table.Append([]string{target.Backend.String(), "-", fmt.Sprint(m.Latest()), "unreachable"})
			continue
		}
		current, err := m.Current(ctx, target.DB)
		if err != nil {
			return err
		}
		pending, err := m.Pending(ctx, target.DB)
		if err != nil {
			return err
		}
		table.Append([]string{target.Backend.String(), fmt.Sprint(current), fmt.Sprint(m.Latest()), fmt.Sprint(len(pending))})
	}
	table.Render()
	return nil
}
