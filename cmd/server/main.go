package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ZephyrianDawnstrider/hrms/internal/apiserver"
	"github.com/ZephyrianDawnstrider/hrms/internal/config"
	"github.com/ZephyrianDawnstrider/hrms/internal/database"
	"github.com/ZephyrianDawnstrider/hrms/internal/eventbus"
	"github.com/ZephyrianDawnstrider/hrms/internal/metrics"
	"github.com/ZephyrianDawnstrider/hrms/internal/monitor"
	"github.com/ZephyrianDawnstrider/hrms/internal/notifyer"
	"github.com/ZephyrianDawnstrider/hrms/internal/repository"
	"github.com/ZephyrianDawnstrider/hrms/internal/resolver"
	"github.com/ZephyrianDawnstrider/hrms/internal/sender"
	"github.com/ZephyrianDawnstrider/hrms/internal/statuscache"
	"github.com/ZephyrianDawnstrider/hrms/pkg/healthcheck"
	"github.com/ZephyrianDawnstrider/hrms/pkg/strategies"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	appCfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read app config")
	}
	log.Logger = log.Level(config.LoggerLevelFromString(appCfg.LoggerLevel))

	log.Warn().Msgf("running node %s", appCfg.NodeID)

	primary, err := database.OpenPrimary(ctx, appCfg.PrimaryDSN, appCfg.PrimaryMaxConns, appCfg.ProbeTimeout())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init primary database")
	}
	defer primary.Close()

	backup, err := database.OpenBackup(appCfg.BackupDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init backup database")
	}
	defer backup.DB.Close()

	probeStrategy, err := strategies.NewStrategy(
		healthcheck.StrategyName(appCfg.PrimaryProbeStrategy),
		healthcheck.Target{
			Name: "primary",
			Pool: primary.Pool,
			DB:   primary.DB,
			Addr: primary.Addr,
		},
		[]byte(appCfg.PrimaryProbeSettings),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create primary probe strategy")
	}

	prom := metrics.NewPrometheus(appCfg.NodeID, "hrms")

	store, closeStore, err := newStatusStore(appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init shared status store")
	}
	defer closeStore()

	activeDB := resolver.New(probeStrategy, resolver.Config{
		RecheckInterval: appCfg.RecheckInterval,
		ProbeTimeout:    appCfg.ProbeTimeout(),
	}, prom)

	var failoverNotifyer monitor.Notifyer
	if len(appCfg.KafkaBrokers) > 0 {
		chanNotifyer := notifyer.NewNotifier(64)
		defer chanNotifyer.Close()
		failoverNotifyer = chanNotifyer

		publisher := eventbus.NewPublisher(appCfg.KafkaBrokers, appCfg.KafkaFailoverTopic)
		defer publisher.Close()
		eventSender := sender.NewSenderController(chanNotifyer.GetEventChan(), publisher, appCfg.ResendEventsInterval)
		go eventSender.Run(ctx)

		watcher := eventbus.NewFailoverWatcher(appCfg.NodeID, appCfg.KafkaBrokers, appCfg.KafkaFailoverTopic, activeDB)
		defer watcher.Close()
		go func() {
			err := watcher.RunFailoverWatcher(ctx)
			if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("failover watcher stopped")
			}
		}()
		log.Info().Msgf("publishing failover events to %s", appCfg.KafkaFailoverTopic)
	}

	healthMonitor := monitor.New(probeStrategy, store, monitor.Config{
		NodeID:       appCfg.NodeID,
		StatusKey:    appCfg.StatusKey,
		StatusTTL:    appCfg.StatusTTL(),
		ProbeTimeout: appCfg.ProbeTimeout(),
	}, prom, failoverNotifyer, activeDB)

	router := repository.NewRouter(activeDB, database.Backends{
		Primary: primary.Handle,
		Backup:  backup,
	})
	api := apiserver.NewServer(
		repository.NewEmployees(router),
		repository.NewAttendance(router),
		healthMonitor,
		activeDB,
	)

	apiClose := startServer("api", appCfg.HTTPAddr, api.Router())
	defer apiClose()

	probeClose := startProbeServer(appCfg.ProbeServerAddr, prom.Handler())
	defer probeClose()

	<-ctx.Done()
	log.Warn().Msg("shutting down")
}

func newStatusStore(appCfg config.Config) (statuscache.Store, func(), error) {
	local := statuscache.NewMemoryStore(nil)
	switch appCfg.StatusStore {
	case config.StoreRedis:
		remote, client, err := statuscache.NewRedisStoreFromURL(appCfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return statuscache.NewResilient(remote, local), func() { _ = client.Close() }, nil
	case config.StoreEtcd:
		client, err := statuscache.NewEtcdClient(appCfg.EtcdEndpoints, appCfg.ProbeTimeout())
		if err != nil {
			return nil, nil, err
		}
		remote := statuscache.NewEtcdStore(client, appCfg.EtcdPrefix)
		return statuscache.NewResilient(remote, local), func() { _ = client.Close() }, nil
	}
	return local, func() {}, nil
}

func startServer(name string, addr string, handler http.Handler) func() {
	srv := &http.Server{
		Handler:           handler,
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Msgf("%s server listening on %s", name, addr)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msgf("failed to start %s server", name)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func startProbeServer(addr string, metricsHandler http.Handler) func() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", metricsHandler)
	return startServer("probe", addr, mux)
}
