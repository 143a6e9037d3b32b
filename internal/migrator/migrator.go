package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ZephyrianDawnstrider/hrms/internal/database"
)

const versionTable = "schema_migrations"

type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// Migrator applies the embedded schema of one dialect. Both dialects carry
// the same versions so the backends stay interchangeable.
type Migrator struct {
	migrations []Migration
	dialect    database.Dialect
}

func New(dialect database.Dialect) (*Migrator, error) {
	migs, err := loadMigrations(migrationsFS, string(dialect))
	if err != nil {
		return nil, err
	}
	return &Migrator{migrations: migs, dialect: dialect}, nil
}

func (m *Migrator) Latest() int {
	return len(m.migrations)
}

func (m *Migrator) ensureVersionTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (version INTEGER PRIMARY KEY, name VARCHAR(100) NOT NULL, applied_at TIMESTAMP NOT NULL)",
		versionTable,
	))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", versionTable, err)
	}
	return nil
}

func (m *Migrator) Current(ctx context.Context, db *sql.DB) (int, error) {
	if err := m.ensureVersionTable(ctx, db); err != nil {
		return 0, err
	}
	query, args, err := m.dialect.Builder().Select("MAX(version)").From(versionTable).ToSql()
	if err != nil {
		return 0, err
	}
	var v sql.NullInt64
	err = db.QueryRowContext(ctx, query, args...).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !v.Valid {
		return 0, nil
	}
	return int(v.Int64), nil
}

func (m *Migrator) Pending(ctx context.Context, db *sql.DB) ([]Migration, error) {
	cur, err := m.Current(ctx, db)
	if err != nil {
		return nil, err
	}
	if cur >= len(m.migrations) {
		return nil, nil
	}
	return m.migrations[cur:], nil
}

// Up applies every pending migration, each in its own transaction together
// with its version row. Returns how many were applied.
func (m *Migrator) Up(ctx context.Context, db *sql.DB) (int, error) {
	pending, err := m.Pending(ctx, db)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, mig := range pending {
		err = m.apply(ctx, db, mig)
		if err != nil {
			return applied, fmt.Errorf("migration %04d_%s: %w", mig.Version, mig.Name, err)
		}
		log.Info().Str("dialect", string(m.dialect)).Msgf("applied migration %04d_%s", mig.Version, mig.Name)
		applied++
	}
	return applied, nil
}

func (m *Migrator) apply(ctx context.Context, db *sql.DB, mig Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range splitSQL(mig.UpSQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	_, err = m.dialect.Builder().
		Insert(versionTable).
		Columns("version", "name", "applied_at").
		Values(mig.Version, mig.Name, time.Now().UTC()).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to record version: %w", err)
	}
	return tx.Commit()
}

func splitSQL(src string) []string {
	stmts := strings.Split(src, ";")
	res := make([]string, 0, len(stmts))
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s != "" {
			res = append(res, s)
		}
	}
	return res
}
