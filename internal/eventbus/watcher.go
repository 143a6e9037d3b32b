package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	kafka "github.com/segmentio/kafka-go"
)

type Invalidator interface {
	Invalidate()
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// FailoverWatcher drops local routing decisions when another node
// reports a transition, so this node does not wait out its recheck interval.
type FailoverWatcher struct {
	nodeID     string
	msgReader  messageReader
	resolvers  []Invalidator
	fetchDelay time.Duration
}

const defaultFetchDelay = 500 * time.Millisecond

func NewFailoverWatcher(nodeID string, brokers []string, topic string, resolvers ...Invalidator) *FailoverWatcher {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		MaxBytes:    1024 * 1024,
		GroupID:     nodeID,
		StartOffset: kafka.LastOffset,
	})
	return &FailoverWatcher{
		nodeID:     nodeID,
		msgReader:  reader,
		resolvers:  resolvers,
		fetchDelay: defaultFetchDelay,
	}
}

func (w *FailoverWatcher) RunFailoverWatcher(ctx context.Context) error {
	for {
		msg, err := w.msgReader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Warn().Err(err).Msg("failed to fetch failover event")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.fetchDelay):
			}
			continue
		}
		w.handle(msg)

		err = w.msgReader.CommitMessages(ctx, msg)
		if err != nil {
			log.Error().Err(err).Msg("failed to commit failover event: it will doubled")
		}
	}
}

func (w *FailoverWatcher) handle(msg kafka.Message) {
	dto := failoverEventDto{}
	err := json.Unmarshal(msg.Value, &dto)
	if err != nil {
		log.Error().Err(err).Msg("failed to decode failover event from json")
		return
	}
	event, err := dto.toModel()
	if err != nil {
		log.Error().Err(err).Msg("failed to parse failover event")
		return
	}
	if event.NodeID == w.nodeID {
		return
	}
	log.Info().Msgf("node %s switched %s -> %s, rechecking database", event.NodeID, event.From, event.To)
	for _, r := range w.resolvers {
		r.Invalidate()
	}
}

func (w *FailoverWatcher) Close() error {
	return w.msgReader.Close()
}
