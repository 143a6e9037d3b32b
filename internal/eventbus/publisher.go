package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafka "github.com/segmentio/kafka-go"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher puts failover events of this node on the shared topic,
// keyed by node id so events of one node stay ordered.
type Publisher struct {
	writer messageWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Publisher) PublishFailoverEvents(ctx context.Context, events []models.FailoverEvent) (int, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(toDto(e))
		if err != nil {
			return 0, fmt.Errorf("failed to encode failover event: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.NodeID),
			Value: value,
		})
	}
	err := p.writer.WriteMessages(ctx, msgs...)
	if err == nil {
		return len(events), nil
	}

	var writeErrs kafka.WriteErrors
	if !errors.As(err, &writeErrs) {
		return 0, err
	}
	done := 0
	for _, werr := range writeErrs {
		if werr != nil {
			break
		}
		done++
	}
	return done, err
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
