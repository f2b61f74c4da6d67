package outbox

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/apparel_shop/pkg/logging"
)

type fakeProducer struct {
	mu      sync.Mutex
	msgs    []kafka.Message
	failKey string
}

func (p *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		if string(m.Key) == p.failKey {
			return errors.New("broker down")
		}
		p.msgs = append(p.msgs, m)
	}
	return nil
}

type fakeStore struct {
	events []Event
	sent   []int64
	failed map[int64]string
}

func (s *fakeStore) LockBatch(_ context.Context, _ string, batchSize int, _ time.Duration) ([]Event, error) {
	if len(s.events) > batchSize {
		return s.events[:batchSize], nil
	}
	out := s.events
	s.events = nil
	return out, nil
}

func (s *fakeStore) MarkSent(_ context.Context, ids []int64) error {
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id int64, errMsg string) error {
	if s.failed == nil {
		s.failed = map[int64]string{}
	}
	s.failed[id] = errMsg
	return nil
}

func TestRelay_RunOnce(t *testing.T) {
	log := logging.NewWithWriter(&bytes.Buffer{}, "error")
	producer := &fakeProducer{failKey: "order-2"}
	store := &fakeStore{events: []Event{
		{ID: 1, AggregateID: "order-1", Type: "order.placed", Payload: []byte(`{"a":1}`)},
		{ID: 2, AggregateID: "order-2", Type: "order.placed", Payload: []byte(`{"a":2}`)},
		{ID: 3, AggregateID: "order-1", Type: "order.status_changed", Payload: []byte(`{"a":3}`)},
	}}

	relay := NewRelay(log, store, NewDispatcher(log, producer), "relay-test")
	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 3}, store.sent)
	assert.Contains(t, store.failed[2], "broker down")
	require.Len(t, producer.msgs, 2)
	assert.Equal(t, "order-1", string(producer.msgs[0].Key))
	assert.Equal(t, "event_type", producer.msgs[1].Headers[0].Key)
	assert.Equal(t, "order.status_changed", string(producer.msgs[1].Headers[0].Value))

	n, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
