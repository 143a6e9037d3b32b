package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed int
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed += len(msgs)
	return nil
}

func (r *fakeReader) Close() error { return nil }

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() {
	c.calls.Add(1)
}

func TestPublishFailoverEvents(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}
	at := time.UnixMilli(1700000000123)

	done, err := p.PublishFailoverEvents(context.Background(), []models.FailoverEvent{
		{NodeID: "node-1", From: models.Primary, To: models.Backup, Reason: "timeout", At: at},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "node-1", string(w.msgs[0].Key))
	assert.JSONEq(t,
		`{"node_id":"node-1","from":"primary","to":"backup","reason":"timeout","ts_ms":1700000000123}`,
		string(w.msgs[0].Value),
	)
}

func TestPublishPartialFailure(t *testing.T) {
	w := &fakeWriter{err: kafka.WriteErrors{nil, errors.New("leader not available"), nil}}
	p := &Publisher{writer: w}
	events := make([]models.FailoverEvent, 3)

	done, err := p.PublishFailoverEvents(context.Background(), events)
	require.Error(t, err)
	assert.Equal(t, 1, done)

	w.err = errors.New("dial failed")
	done, err = p.PublishFailoverEvents(context.Background(), events)
	require.Error(t, err)
	assert.Zero(t, done)
}

func message(t *testing.T, e models.FailoverEvent) kafka.Message {
	value, err := json.Marshal(toDto(e))
	require.NoError(t, err)
	return kafka.Message{Key: []byte(e.NodeID), Value: value}
}

func TestWatcherInvalidatesOnForeignEvents(t *testing.T) {
	inv := &countingInvalidator{}
	reader := &fakeReader{queue: []kafka.Message{
		message(t, models.FailoverEvent{NodeID: "self", From: models.Primary, To: models.Backup}),
		message(t, models.FailoverEvent{NodeID: "other", From: models.Primary, To: models.Backup}),
		{Value: []byte("not json")},
		message(t, models.FailoverEvent{NodeID: "other", From: models.Backup, To: models.Primary}),
	}}
	w := &FailoverWatcher{nodeID: "self", msgReader: reader, resolvers: []Invalidator{inv}}

	err := w.RunFailoverWatcher(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), inv.calls.Load())
	assert.Equal(t, 4, reader.committed)
}

func TestDtoRejectsUnknownBackend(t *testing.T) {
	_, err := failoverEventDto{From: "primary", To: "replica"}.toModel()
	assert.Error(t, err)
}

type failingReader struct {
	fetches atomic.Int32
}

func (r *failingReader) FetchMessage(context.Context) (kafka.Message, error) {
	r.fetches.Add(1)
	return kafka.Message{}, errors.New("coordinator not available")
}

func (r *failingReader) CommitMessages(context.Context, ...kafka.Message) error { return nil }

func (r *failingReader) Close() error { return nil }

func TestWatcherBacksOffOnFetchErrors(t *testing.T) {
	reader := &failingReader{}
	w := &FailoverWatcher{nodeID: "self", msgReader: reader, fetchDelay: 20 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := w.RunFailoverWatcher(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.LessOrEqual(t, reader.fetches.Load(), int32(7))
	assert.GreaterOrEqual(t, reader.fetches.Load(), int32(2))
}
