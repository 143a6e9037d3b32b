package tcpconnhc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ZephyrianDawnstrider/hrms/pkg/healthcheck"
)

const tcpNetwork = "tcp"

type TcpHealthCheckSettings struct {
	Timeout time.Duration
}

// TcpConnStrategy only proves the port accepts connections, it says nothing
// about the database behind it.
type TcpConnStrategy struct {
	targetAddr string
	dialer     net.Dialer
}

func NewTcpConnStrategy(settings *TcpHealthCheckSettings, target healthcheck.TargetAddr) (*TcpConnStrategy, error) {
	if len(target.Host) == 0 {
		return nil, fmt.Errorf("invalid host format: zero lenght")
	}
	return &TcpConnStrategy{
		targetAddr: target.String(),
		dialer: net.Dialer{
			Timeout:   settings.Timeout,
			KeepAlive: -1,
		},
	}, nil
}

func (tc *TcpConnStrategy) DoHealthCheck(ctx context.Context) (bool, error) {
	conn, err := tc.dialer.DialContext(ctx, tcpNetwork, tc.targetAddr)
	if err != nil {
		return false, &healthcheck.ConnectivityError{Target: tc.targetAddr, Err: err}
	}
	_ = conn.Close()
	return true, nil
}
