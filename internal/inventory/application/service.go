package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

type Service struct {
	log       *slog.Logger
	ledger    StockLedger
	executor  *Executor
	precheck  *Prechecker
	publisher OutcomePublisher
	sales     SalesClient
	tracer    trace.Tracer
}

func NewService(log *slog.Logger, ledger StockLedger, publisher OutcomePublisher, sales SalesClient) *Service {
	return &Service{
		log:       log,
		ledger:    ledger,
		executor:  NewExecutor(ledger),
		precheck:  NewPrechecker(ledger),
		publisher: publisher,
		sales:     sales,
		tracer:    otel.Tracer("inventory-service"),
	}
}

// ProcessStockUpdate runs a command to a terminal state and publishes exactly
// one outcome for it, whatever happens on the way. Cancelling ctx does not
// abort a command that has been received. A sale that already has an outcome
// on record is answered with it and nothing is published again.
func (s *Service) ProcessStockUpdate(ctx context.Context, cmd domain.StockChangeCommand) (out domain.Outcome) {
	ctx, span := s.tracer.Start(context.WithoutCancel(ctx), "ProcessStockUpdate",
		trace.WithAttributes(attribute.String("sales.id", cmd.SalesID), attribute.Int("sales.lines", len(cmd.Lines))))
	defer span.End()

	log := s.log.With("sales_id", cmd.SalesID)
	state := domain.StateReceived
	out = domain.Outcome{SalesID: cmd.SalesID, Status: domain.StatusRejected}
	duplicate := false

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", domain.ErrUnexpectedFailure, r)
			log.Error("stock update aborted", "state", state, "err", err)
			span.RecordError(err)
			state = s.transition(log, state, domain.StateRejected)
			out.Status = domain.StatusRejected
			duplicate = false
		}
		if out.Status == domain.StatusRejected {
			span.SetStatus(codes.Error, "rejected")
		}
		span.SetAttributes(attribute.String("sales.status", string(out.Status)), attribute.Bool("sales.duplicate", duplicate))
		if duplicate {
			log.Info("duplicate command, outcome already recorded", "status", out.Status)
			return
		}
		s.publisher.Publish(ctx, out)
	}()

	state = s.transition(log, state, domain.StateValidating)
	validated, err := Validate(cmd)
	if err != nil {
		s.reject(log, span, state, err)
		state = s.transition(log, state, domain.StateRejected)
		return out
	}

	if prev, ok := s.recorded(ctx, log, validated.SalesID); ok {
		duplicate = true
		state = s.transition(log, state, terminalState(prev.Status))
		return prev
	}

	state = s.transition(log, state, domain.StateApplying)
	err = s.executor.Apply(ctx, validated)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		// Another delivery of the same sale committed first.
		duplicate = true
		if prev, ok := s.recorded(ctx, log, validated.SalesID); ok {
			out = prev
		}
		state = s.transition(log, state, terminalState(out.Status))
		return out
	}
	if err != nil {
		s.reject(log, span, state, err)
		state = s.transition(log, state, domain.StateRejected)
		return out
	}

	state = s.transition(log, state, domain.StateApproved)
	out.Status = domain.StatusApproved
	log.Info("stock updated", "lines", len(validated.Lines))
	return out
}

// recorded looks up a previous outcome. Lookup failures are logged and treated
// as "not recorded"; the claim taken inside the transaction still stops a
// second apply.
func (s *Service) recorded(ctx context.Context, log *slog.Logger, salesID string) (domain.Outcome, bool) {
	prev, ok, err := s.ledger.Processed(ctx, salesID)
	if err != nil {
		log.Warn("outcome lookup failed", "err", err)
		return domain.Outcome{}, false
	}
	return prev, ok
}

func terminalState(status domain.ReservationStatus) domain.ProcessingState {
	if status == domain.StatusApproved {
		return domain.StateApproved
	}
	return domain.StateRejected
}

// CheckStock is the read-only availability check. Errors go straight back to
// the caller.
func (s *Service) CheckStock(ctx context.Context, req domain.AvailabilityRequest) error {
	ctx, span := s.tracer.Start(ctx, "CheckStock", trace.WithAttributes(attribute.Int("stock.lines", len(req.Lines))))
	defer span.End()

	if err := s.precheck.Check(ctx, req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

type ProductSales struct {
	domain.ProductStock
	SalesIDs []string `json:"sales"`
}

// ProductSales joins a product's stock with the sales the sales API knows for
// it. The sales lookup is a single blocking call; any failure becomes
// domain.ErrSalesLookup.
func (s *Service) ProductSales(ctx context.Context, productID int64) (ProductSales, error) {
	rec, err := s.ledger.Get(ctx, productID)
	if err != nil {
		return ProductSales{}, err
	}
	ids, err := s.sales.FindSalesByProductID(ctx, productID)
	if err != nil {
		s.log.Error("sales lookup failed", "product_id", productID, "err", err)
		return ProductSales{}, fmt.Errorf("%w: %v", domain.ErrSalesLookup, err)
	}
	return ProductSales{ProductStock: rec, SalesIDs: ids}, nil
}

func (s *Service) reject(log *slog.Logger, span trace.Span, state domain.ProcessingState, err error) {
	span.RecordError(err)
	if domain.IsValidation(err) {
		log.Warn("stock update rejected", "state", state, "err", err)
		return
	}
	log.Error("stock update failed", "state", state, "err", errors.Join(domain.ErrUnexpectedFailure, err))
}

func (s *Service) transition(log *slog.Logger, from, to domain.ProcessingState) domain.ProcessingState {
	log.Debug("stock update state", "from", from, "to", to)
	return to
}
