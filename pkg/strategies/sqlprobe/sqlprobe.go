package sqlprobe

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ZephyrianDawnstrider/hrms/pkg/healthcheck"
)

const defaultQuery = "select 1"

type SQLSettings struct {
	Query string
}

// SQLStrategy probes any database/sql handle: ping for the connection, then
// the query for the engine.
type SQLStrategy struct {
	name  string
	db    *sql.DB
	query string
}

func NewSQLStrategy(settings *SQLSettings, target healthcheck.Target) (*SQLStrategy, error) {
	if target.DB == nil {
		return nil, fmt.Errorf("sql strategy needs a db handle for %q", target.Name)
	}
	query := settings.Query
	if query == "" {
		query = defaultQuery
	}
	return &SQLStrategy{
		name:  target.Name,
		db:    target.DB,
		query: query,
	}, nil
}

func (s *SQLStrategy) DoHealthCheck(ctx context.Context) (bool, error) {
	err := s.db.PingContext(ctx)
	if err != nil {
		return false, &healthcheck.ConnectivityError{Target: s.name, Err: err}
	}
	var one int
	err = s.db.QueryRowContext(ctx, s.query).Scan(&one)
	if err != nil {
		if healthcheck.IsConnectivity(err) {
			return false, &healthcheck.ConnectivityError{Target: s.name, Err: err}
		}
		return false, &healthcheck.ProbeQueryError{Target: s.name, Err: err}
	}
	return true, nil
}
