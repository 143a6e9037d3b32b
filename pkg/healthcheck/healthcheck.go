package healthcheck

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StrategyName string

const (
	MockStrategy     StrategyName = "mock"
	TCPStrategy      StrategyName = "tcp"
	PostgresStrategy StrategyName = "postgres"
	SQLStrategy      StrategyName = "sql"
)

type Strategy interface {
	DoHealthCheck(ctx context.Context) (bool, error)
}

// Target is what a strategy is allowed to touch. Strategies pick the field
// they need and fail on construction when it is missing.
type Target struct {
	Name string
	Pool *pgxpool.Pool
	DB   *sql.DB
	Addr TargetAddr
}

type TargetAddr struct {
	Host string
	Port uint16
}

func (a TargetAddr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

func (a TargetAddr) Empty() bool {
	return a.Host == "" && a.Port == 0
}

func TargetAddrFromString(str string) (TargetAddr, error) {
	host, portStr, err := net.SplitHostPort(str)
	if err != nil {
		return TargetAddr{}, fmt.Errorf("invalid format: %w", err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return TargetAddr{}, fmt.Errorf("failed to parse port: %w", err)
	}
	return TargetAddr{
		Host: host,
		Port: uint16(port),
	}, nil
}
