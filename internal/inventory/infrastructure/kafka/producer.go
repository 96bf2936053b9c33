package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
	"github.com/dmehra2102/inventory-service/pkg/outbox"
	"github.com/dmehra2102/inventory-service/pkg/tracing"
)

type Writer struct {
	*kafka.Writer
}

func NewWriter(brokers []string) *Writer {
	return &Writer{
		Writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publisher writes outcomes straight to Kafka, keyed by sales id.
type Publisher struct {
	log      *slog.Logger
	producer outbox.Producer
	topic    string
}

func NewPublisher(log *slog.Logger, producer outbox.Producer, topic string) *Publisher {
	return &Publisher{log: log, producer: producer, topic: topic}
}

func (p *Publisher) Publish(ctx context.Context, outcome domain.Outcome) {
	payload, err := json.Marshal(outcome)
	if err != nil {
		p.log.Error("outcome marshal failed", "sales_id", outcome.SalesID, "err", err)
		return
	}
	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(outcome.SalesID),
		Value:   payload,
		Headers: tracing.InjectKafkaHeaders(ctx, []kafka.Header{{Key: "source", Value: []byte("inventory-service")}}),
	}
	if err := p.producer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("outcome publish failed", "sales_id", outcome.SalesID, "status", outcome.Status, "err", err)
		return
	}
	p.log.Info("outcome published", "sales_id", outcome.SalesID, "status", outcome.Status)
}
