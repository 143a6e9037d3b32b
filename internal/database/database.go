package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ZephyrianDawnstrider/hrms/internal/config"
	"github.com/ZephyrianDawnstrider/hrms/internal/models"
	"github.com/ZephyrianDawnstrider/hrms/pkg/healthcheck"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func (d Dialect) Placeholder() squirrel.PlaceholderFormat {
	if d == Postgres {
		return squirrel.Dollar
	}
	return squirrel.Question
}

func (d Dialect) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(d.Placeholder())
}

// Handle is one configured backend. Identity never changes after open.
type Handle struct {
	Identity models.Backend
	DB       *sql.DB
	Dialect  Dialect
}

type PrimaryHandle struct {
	Handle
	Pool *pgxpool.Pool
	Addr healthcheck.TargetAddr
}

// OpenPrimary does not touch the network, pgxpool dials lazily so the
// process starts even while postgres is down.
func OpenPrimary(ctx context.Context, dsn string, maxConns int32, connectTimeout time.Duration) (*PrimaryHandle, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "PRIMARY_DSN", Err: err}
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if connectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = connectTimeout
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return &PrimaryHandle{
		Handle: Handle{
			Identity: models.Primary,
			DB:       stdlib.OpenDBFromPool(pool),
			Dialect:  Postgres,
		},
		Pool: pool,
		Addr: healthcheck.TargetAddr{
			Host: cfg.ConnConfig.Host,
			Port: cfg.ConnConfig.Port,
		},
	}, nil
}

func (p *PrimaryHandle) Close() {
	_ = p.DB.Close()
	p.Pool.Close()
}

func OpenBackup(dsn string) (Handle, error) {
	if dsn == "" {
		return Handle{}, &config.ConfigurationError{Field: "BACKUP_DSN", Reason: "is empty"}
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return Handle{}, &config.ConfigurationError{Field: "BACKUP_DSN", Err: err}
	}
	// sqlite has a single writer anyway
	db.SetMaxOpenConns(1)
	return Handle{
		Identity: models.Backup,
		DB:       db,
		Dialect:  SQLite,
	}, nil
}

type Backends struct {
	Primary Handle
	Backup  Handle
}

func (b Backends) Get(identity models.Backend) Handle {
	if identity == models.Primary {
		return b.Primary
	}
	return b.Backup
}
