package sender

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

type fakePublisher struct {
	mu        sync.Mutex
	failLeft  int
	delivered []models.FailoverEvent
	calls     int
}

func (p *fakePublisher) PublishFailoverEvents(_ context.Context, events []models.FailoverEvent) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failLeft > 0 {
		p.failLeft--
		return 0, errors.New("broker unavailable")
	}
	p.delivered = append(p.delivered, events...)
	return len(events), nil
}

func (p *fakePublisher) snapshot() ([]models.FailoverEvent, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.FailoverEvent(nil), p.delivered...), p.calls
}

func event(to models.Backend) models.FailoverEvent {
	return models.FailoverEvent{NodeID: "node-1", From: models.Primary, To: to, At: time.Now()}
}

func TestSenderPublishesEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := &fakePublisher{failLeft: 1}
	events := make(chan models.FailoverEvent, 4)
	c := NewSenderController(events, pub, time.Hour)
	c.retryDelay = time.Millisecond
	go c.Run(ctx)

	events <- event(models.Backup)
	require.Eventually(t, func() bool {
		delivered, _ := pub.snapshot()
		return len(delivered) == 1
	}, time.Second, 5*time.Millisecond)

	delivered, calls := pub.snapshot()
	assert.Equal(t, models.Backup, delivered[0].To)
	assert.Equal(t, 2, calls)
	assert.Zero(t, c.Unsent())
}

func TestSenderRetriesUnsentOnTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := &fakePublisher{failLeft: 3}
	events := make(chan models.FailoverEvent, 4)
	c := NewSenderController(events, pub, 20*time.Millisecond)
	c.retryDelay = time.Millisecond
	go c.Run(ctx)

	events <- event(models.Backup)
	require.Eventually(t, func() bool {
		delivered, _ := pub.snapshot()
		return len(delivered) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, c.Unsent())
}

func TestSenderStopsOnClosedChannel(t *testing.T) {
	events := make(chan models.FailoverEvent)
	c := NewSenderController(events, &fakePublisher{}, time.Hour)
	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()
	close(events)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender did not stop")
	}
}
