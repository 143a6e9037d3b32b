package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreEtcd   = "etcd"
)

type Config struct {
	NodeID      string `envconfig:"HRMS_NODE_ID"`
	LoggerLevel string `envconfig:"LOGGER_LEVEL" default:"warn"`

	HTTPAddr        string `envconfig:"HTTP_ADDR" default:"0.0.0.0:8000"`
	ProbeServerAddr string `envconfig:"PROBE_SERVER_ADDR" default:"0.0.0.0:8080"`

	PrimaryDSN           string `envconfig:"PRIMARY_DSN"`
	PrimaryMaxConns      int32  `envconfig:"PRIMARY_MAX_CONNS" default:"15"`
	PrimaryProbeStrategy string `envconfig:"PRIMARY_PROBE_STRATEGY" default:"postgres"`
	PrimaryProbeSettings string `envconfig:"PRIMARY_PROBE_SETTINGS"`
	BackupDSN            string `envconfig:"BACKUP_DSN" default:"file:hrms_backup.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"`

	RecheckInterval  int `envconfig:"RECHECK_INTERVAL" default:"10"`
	StatusTTLSeconds int `envconfig:"STATUS_TTL_SECONDS" default:"300"`
	ProbeTimeoutMs   int `envconfig:"PROBE_TIMEOUT_MS" default:"2000"`

	StatusKey     string   `envconfig:"STATUS_KEY" default:"database_status"`
	StatusStore   string   `envconfig:"STATUS_STORE" default:"memory"`
	RedisURL      string   `envconfig:"REDIS_URL"`
	EtcdEndpoints []string `envconfig:"ETCD_ENDPOINTS"`
	EtcdPrefix    string   `envconfig:"ETCD_PREFIX" default:"/hrms"`

	KafkaBrokers         []string      `envconfig:"KAFKA_BROKERS"`
	KafkaFailoverTopic   string        `envconfig:"KAFKA_FAILOVER_TOPIC" default:"hrms.failover"`
	ResendEventsInterval time.Duration `envconfig:"RESEND_EVENTS_INTERVAL" default:"5s"`

	SyncProbeAttempts uint `envconfig:"SYNC_PROBE_ATTEMPTS" default:"3"`
}

// Parse reads the environment without validating, callers may still
// override fields before Validate.
func Parse() (Config, error) {
	cfg := Config{}
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, &ConfigurationError{Field: "env", Err: err}
	}
	if cfg.NodeID == "" {
		cfg.NodeID, _ = os.Hostname()
	}
	return cfg, nil
}

func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.PrimaryDSN) == "" {
		return &ConfigurationError{Field: "PRIMARY_DSN", Reason: "is required"}
	}
	if strings.TrimSpace(c.BackupDSN) == "" {
		return &ConfigurationError{Field: "BACKUP_DSN", Reason: "is required"}
	}
	if c.RecheckInterval <= 0 {
		return &ConfigurationError{Field: "RECHECK_INTERVAL", Reason: fmt.Sprintf("must be positive, got %d", c.RecheckInterval)}
	}
	if c.StatusTTLSeconds <= 0 {
		return &ConfigurationError{Field: "STATUS_TTL_SECONDS", Reason: fmt.Sprintf("must be positive, got %d", c.StatusTTLSeconds)}
	}
	if c.ProbeTimeoutMs <= 0 {
		return &ConfigurationError{Field: "PROBE_TIMEOUT_MS", Reason: fmt.Sprintf("must be positive, got %d", c.ProbeTimeoutMs)}
	}
	if c.StatusKey == "" {
		return &ConfigurationError{Field: "STATUS_KEY", Reason: "is required"}
	}
	switch c.StatusStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return &ConfigurationError{Field: "REDIS_URL", Reason: "is required for redis status store"}
		}
	case StoreEtcd:
		if len(c.EtcdEndpoints) == 0 {
			return &ConfigurationError{Field: "ETCD_ENDPOINTS", Reason: "is required for etcd status store"}
		}
	default:
		return &ConfigurationError{Field: "STATUS_STORE", Reason: fmt.Sprintf("unknown store %q", c.StatusStore)}
	}
	return nil
}

func (c Config) StatusTTL() time.Duration {
	return time.Duration(c.StatusTTLSeconds) * time.Second
}

func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMs) * time.Millisecond
}

func LoggerLevelFromString(level string) zerolog.Level {
	level = strings.ToLower(level)
	switch level {
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	}
	return zerolog.WarnLevel
}
