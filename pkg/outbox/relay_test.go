package outbox

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dmehra2102/inventory-service/pkg/logging"
)

type memStore struct {
	mu       sync.Mutex
	pending  []Event
	sent     []int64
	failed   map[int64]string
	extended int
}

func (s *memStore) LockBatch(_ context.Context, _ string, batchSize int, _ time.Duration) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := min(batchSize, len(s.pending))
	batch := s.pending[:n]
	s.pending = s.pending[n:]
	return batch, nil
}

func (s *memStore) MarkSent(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *memStore) MarkFailed(_ context.Context, id int64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = errMsg
	return nil
}

func (s *memStore) ExtendLease(context.Context, string, []int64, time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extended++
	return nil
}

type fakeProducer struct {
	msgs   []kafka.Message
	failOn string
}

func (p *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if string(m.Key) == p.failOn {
			return errors.New("leader not available")
		}
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func events(ids ...int64) []Event {
	out := make([]Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, Event{
			ID:          id,
			AggregateID: "S" + string(rune('0'+id)),
			Type:        "SalesConfirmation",
			Payload:     []byte(`{}`),
			Headers:     map[string]string{"source": "inventory-service"},
		})
	}
	return out
}

func TestRelayFlush(t *testing.T) {
	store := &memStore{pending: events(1, 2, 3), failed: map[int64]string{}}
	prod := &fakeProducer{failOn: "S2"}
	relay := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), prod, "sales.confirmation"), "r1", WithBatchSize(10))

	n, err := relay.Flush(context.Background())
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if n != 2 || !slices.Equal(store.sent, []int64{1, 3}) {
		t.Fatalf("sent %d %v", n, store.sent)
	}
	if _, ok := store.failed[2]; !ok {
		t.Fatalf("event 2 should be marked failed: %v", store.failed)
	}
	if len(prod.msgs) != 2 || prod.msgs[0].Topic != "sales.confirmation" {
		t.Fatalf("messages = %+v", prod.msgs)
	}
}

func TestRelayFlushRespectsBatchSize(t *testing.T) {
	store := &memStore{pending: events(1, 2, 3), failed: map[int64]string{}}
	relay := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), &fakeProducer{}, "t"), "r1", WithBatchSize(2))

	if n, _ := relay.Flush(context.Background()); n != 2 {
		t.Fatalf("first flush sent %d", n)
	}
	if n, _ := relay.Flush(context.Background()); n != 1 {
		t.Fatalf("second flush sent %d", n)
	}
	if n, _ := relay.Flush(context.Background()); n != 0 {
		t.Fatalf("empty flush sent %d", n)
	}
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	store := &memStore{pending: events(1), failed: map[int64]string{}}
	relay := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), &fakeProducer{}, "t"), "r1",
		WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		store.mu.Lock()
		n := len(store.sent)
		store.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("event not relayed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestDispatcherHeaders(t *testing.T) {
	prod := &fakeProducer{}
	ev := events(1)[0]
	ev.Traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	if err := NewDispatcher(logging.Discard(), prod, "t").Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	got := map[string]string{}
	for _, h := range prod.msgs[0].Headers {
		got[h.Key] = string(h.Value)
	}
	if got["event_type"] != "SalesConfirmation" || got["traceparent"] != ev.Traceparent || got["source"] != "inventory-service" {
		t.Fatalf("headers = %v", got)
	}
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("sales", "S1", "SalesConfirmation", map[string]string{"salesId": "S1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Status != StatusPending || string(ev.Payload) != `{"salesId":"S1"}` {
		t.Fatalf("event = %+v", ev)
	}
	ev.ID = 42
	h := ev.MessageHeaders()
	if h["event_id"] != "42" || h["aggregate_type"] != "sales" || h["event_type"] != "SalesConfirmation" {
		t.Fatalf("headers = %v", h)
	}
	if _, ok := h["traceparent"]; ok {
		t.Fatal("traceparent header without a trace")
	}
}
