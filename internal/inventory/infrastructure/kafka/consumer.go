package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
	"github.com/dmehra2102/inventory-service/pkg/tracing"
)

const commitTimeout = 5 * time.Second

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Deduplicator tracks handled offsets. Keys are marked only after the
// service has returned for the message.
type Deduplicator interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

type StockUpdater interface {
	ProcessStockUpdate(ctx context.Context, cmd domain.StockChangeCommand) domain.Outcome
}

// Consumer reads stock-change commands and hands each one to the service.
// Every fetched message is committed once handled.
type Consumer struct {
	log    *slog.Logger
	reader Reader
	svc    StockUpdater
	idem   Deduplicator
	tracer trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

// NewConsumer builds a consumer; idem may be nil to disable duplicate checks.
func NewConsumer(log *slog.Logger, reader Reader, svc StockUpdater, idem Deduplicator) *Consumer {
	return &Consumer{
		log:    log,
		reader: reader,
		svc:    svc,
		idem:   idem,
		tracer: otel.Tracer("inventory-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		c.Handle(ctx, msg)
		c.commit(ctx, msg)
	}
}

// commit runs detached from ctx so a message handled during shutdown is
// still committed.
func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.log.Error("commit failed", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
	}
}

// Handle processes one message. It reports whether the message produced an
// outcome.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) bool {
	key, dup := c.duplicate(ctx, msg)
	if dup {
		return false
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeStockUpdate", trace.WithAttributes(
		attribute.String("messaging.destination.name", msg.Topic),
		attribute.Int64("messaging.kafka.offset", msg.Offset),
	))
	defer span.End()

	var cmd domain.StockChangeCommand
	if err := json.Unmarshal(msg.Value, &cmd); err != nil {
		span.RecordError(err)
		if cmd.SalesID == "" {
			c.log.Error("unmarshal failed, message dropped", "offset", msg.Offset, "err", err)
			c.mark(ctx, key)
			return false
		}
		// Answer malformed commands that still name their sale.
		c.log.Warn("malformed stock update", "sales_id", cmd.SalesID, "err", err)
		cmd = domain.StockChangeCommand{SalesID: cmd.SalesID}
	}

	out := c.svc.ProcessStockUpdate(msgCtx, cmd)
	c.mark(ctx, key)
	c.log.Info("stock update processed", "sales_id", out.SalesID, "status", out.Status)
	return true
}

func (c *Consumer) duplicate(ctx context.Context, msg kafka.Message) (string, bool) {
	if c.idem == nil {
		return "", false
	}
	key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		c.log.Warn("idempotency check failed, processing anyway", "key", key, "err", err)
		return key, false
	}
	if seen {
		c.log.Info("duplicate message skipped", "key", key)
	}
	return key, seen
}

// mark runs only once a message is fully handled, so an attempt cut short
// leaves the offset unmarked and the redelivery is handled again.
func (c *Consumer) mark(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := c.idem.Mark(context.WithoutCancel(ctx), key); err != nil {
		c.log.Warn("idempotency mark failed", "key", key, "err", err)
	}
}
