package healthcheck

import (
	"context"
	"fmt"
	"time"
)

const DefaultProbeTimeout = 2 * time.Second

type probeResult struct {
	ok  bool
	err error
}

// Probe runs one bounded check. The caller's cancellation does not abort it,
// only the timeout does. Any failure, panics included, comes back as a
// ConnectivityError or ProbeQueryError.
func Probe(ctx context.Context, target string, s Strategy, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	resCh := make(chan probeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- probeResult{err: &ProbeQueryError{Target: target, Err: fmt.Errorf("probe panicked: %v", r)}}
			}
		}()
		ok, err := s.DoHealthCheck(ctx)
		resCh <- probeResult{ok: ok, err: err}
	}()

	select {
	case <-ctx.Done():
		return &ConnectivityError{Target: target, Err: fmt.Errorf("probe timed out after %s: %w", timeout, ctx.Err())}
	case res := <-resCh:
		if res.err != nil {
			if IsProbeError(res.err) {
				return res.err
			}
			return &ConnectivityError{Target: target, Err: res.err}
		}
		if !res.ok {
			return &ProbeQueryError{Target: target, Err: ErrUnhealthy}
		}
		return nil
	}
}
