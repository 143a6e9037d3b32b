package mockhc

import (
	"context"
	"sync"
	"time"
)

type MockHCSettings struct {
	Name     string
	Duration time.Duration
	// Unhealthy makes every check fail, handy for drills against a live stack.
	Unhealthy bool
}

// MockHC answers with whatever it was told to. Safe for concurrent use.
type MockHC struct {
	guard    sync.Mutex
	name     string
	duration time.Duration
	healthy  bool
	err      error
	panicMsg string
	calls    int
	last     time.Time
}

func NewMockHC(settings *MockHCSettings) *MockHC {
	return &MockHC{
		name:     settings.Name,
		duration: settings.Duration,
		healthy:  !settings.Unhealthy,
		last:     time.Now(),
	}
}

func (h *MockHC) DoHealthCheck(ctx context.Context) (bool, error) {
	h.guard.Lock()
	h.calls++
	h.last = time.Now()
	var (
		duration = h.duration
		healthy  = h.healthy
		err      = h.err
		panicMsg = h.panicMsg
	)
	h.guard.Unlock()

	if duration > 0 {
		select {
		case <-time.After(duration):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if panicMsg != "" {
		panic(panicMsg)
	}
	if err != nil {
		return false, err
	}
	return healthy, nil
}

func (h *MockHC) SetHealthy(healthy bool) {
	h.guard.Lock()
	defer h.guard.Unlock()
	h.healthy = healthy
	h.err = nil
	h.panicMsg = ""
}

func (h *MockHC) SetError(err error) {
	h.guard.Lock()
	defer h.guard.Unlock()
	h.err = err
}

func (h *MockHC) SetPanic(msg string) {
	h.guard.Lock()
	defer h.guard.Unlock()
	h.panicMsg = msg
}

func (h *MockHC) SetDuration(d time.Duration) {
	h.guard.Lock()
	defer h.guard.Unlock()
	h.duration = d
}

func (h *MockHC) Calls() int {
	h.guard.Lock()
	defer h.guard.Unlock()
	return h.calls
}
