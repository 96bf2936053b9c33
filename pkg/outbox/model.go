package outbox

import (
	"encoding/json"
	"strconv"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Event is one row of the outbox table.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RelayID       string
	RetryCount    int
}

// NewEvent encodes payload as JSON and returns a pending event.
func NewEvent(aggregateType, aggregateID, eventType string, payload any, headers map[string]string) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       b,
		Headers:       headers,
		Status:        StatusPending,
	}, nil
}

// MessageHeaders returns the stored headers plus the event metadata the
// consumers of the outcome topic route on.
func (e Event) MessageHeaders() map[string]string {
	h := make(map[string]string, len(e.Headers)+4)
	for k, v := range e.Headers {
		h[k] = v
	}
	h["event_type"] = e.Type
	h["aggregate_type"] = e.AggregateType
	if e.ID != 0 {
		h["event_id"] = strconv.FormatInt(e.ID, 10)
	}
	if e.Traceparent != "" {
		h["traceparent"] = e.Traceparent
	}
	return h
}
