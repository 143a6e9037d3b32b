package healthcheck

import (
	"errors"
	"fmt"
)

var ErrUnhealthy = errors.New("health check reported unhealthy")

// ConnectivityError means the probe could not reach the backend at all.
type ConnectivityError struct {
	Target string
	Err    error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("failed to reach %s: %v", e.Target, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ProbeQueryError means the backend answered but the probe query failed.
type ProbeQueryError struct {
	Target string
	Err    error
}

func (e *ProbeQueryError) Error() string {
	return fmt.Sprintf("probe query on %s failed: %v", e.Target, e.Err)
}

func (e *ProbeQueryError) Unwrap() error {
	return e.Err
}

func IsProbeError(err error) bool {
	var connErr *ConnectivityError
	var queryErr *ProbeQueryError
	return errors.As(err, &connErr) || errors.As(err, &queryErr)
}
