package sender

import (
	"context"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

// Publisher returns how many leading events of the batch were delivered.
type Publisher interface {
	PublishFailoverEvents(ctx context.Context, events []models.FailoverEvent) (int, error)
}

func NewSenderController(
	eventCh chan models.FailoverEvent,
	publisher Publisher,
	retryTimeout time.Duration,
) *SenderControler {
	return &SenderControler{
		events:      eventCh,
		publisher:   publisher,
		ttlTicker:   time.NewTicker(retryTimeout),
		unsentGuard: &sync.Mutex{},
		unsent:      make([]models.FailoverEvent, 0),
		retryDelay:  100 * time.Millisecond,
	}
}

type SenderControler struct {
	events      chan models.FailoverEvent
	ttlTicker   *time.Ticker
	publisher   Publisher
	unsentGuard *sync.Mutex
	unsent      []models.FailoverEvent
	retryDelay  time.Duration
}

func (c *SenderControler) Run(ctx context.Context) {
	defer c.ttlTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-c.ttlTicker.C:
			if !ok {
				return
			}
			c.sendUnsentEvents(ctx)
		case event, ok := <-c.events:
			if !ok {
				return
			}
			err := retry.Do(
				func() error {
					_, err := c.publisher.PublishFailoverEvents(ctx, []models.FailoverEvent{event})
					return err
				},
				retry.Attempts(3),
				retry.Delay(c.retryDelay),
				retry.Context(ctx),
				retry.LastErrorOnly(true),
			)
			if err != nil {
				log.Error().Err(err).Msgf("failed to publish failover event %s -> %s, put it into unsent queue", event.From, event.To)
				c.unsentGuard.Lock()
				c.unsent = append(c.unsent, event)
				c.unsentGuard.Unlock()
			}
		}
	}
}

func (c *SenderControler) Unsent() int {
	c.unsentGuard.Lock()
	defer c.unsentGuard.Unlock()
	return len(c.unsent)
}

func (c *SenderControler) sendUnsentEvents(ctx context.Context) {
	c.unsentGuard.Lock()
	defer c.unsentGuard.Unlock()

	if len(c.unsent) == 0 {
		return
	}
	done, err := c.publisher.PublishFailoverEvents(ctx, c.unsent)
	if err != nil {
		log.Warn().Err(err).Msgf("failed to publish unsent failover events: done %d", done)

		newUnsent := make([]models.FailoverEvent, len(c.unsent)-done)
		copy(newUnsent, c.unsent[done:])
		c.unsent = newUnsent
		return
	}
	c.unsent = c.unsent[:0]
}
