package pgprobe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZephyrianDawnstrider/hrms/pkg/healthcheck"
)

const defaultQuery = "select 1"

type PostgresSettings struct {
	Query string
}

// PostgresStrategy validates a pooled connection and runs a trivial query on it.
type PostgresStrategy struct {
	name  string
	pool  *pgxpool.Pool
	query string
}

func NewPostgresStrategy(settings *PostgresSettings, target healthcheck.Target) (*PostgresStrategy, error) {
	if target.Pool == nil {
		return nil, fmt.Errorf("postgres strategy needs a pool for %q", target.Name)
	}
	query := settings.Query
	if query == "" {
		query = defaultQuery
	}
	return &PostgresStrategy{
		name:  target.Name,
		pool:  target.Pool,
		query: query,
	}, nil
}

func (s *PostgresStrategy) DoHealthCheck(ctx context.Context) (bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, &healthcheck.ConnectivityError{Target: s.name, Err: err}
	}
	defer conn.Release()

	var one int
	err = conn.QueryRow(ctx, s.query).Scan(&one)
	if err != nil {
		if healthcheck.IsConnectivity(err) {
			return false, &healthcheck.ConnectivityError{Target: s.name, Err: err}
		}
		return false, &healthcheck.ProbeQueryError{Target: s.name, Err: err}
	}
	return true, nil
}
