package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/inventory-service/internal/config"
	"github.com/dmehra2102/inventory-service/internal/inventory/application"
	invgrpc "github.com/dmehra2102/inventory-service/internal/inventory/infrastructure/grpc"
	invhttp "github.com/dmehra2102/inventory-service/internal/inventory/infrastructure/http"
	invkafka "github.com/dmehra2102/inventory-service/internal/inventory/infrastructure/kafka"
	"github.com/dmehra2102/inventory-service/internal/inventory/infrastructure/memory"
	invpg "github.com/dmehra2102/inventory-service/internal/inventory/infrastructure/postgres"
	"github.com/dmehra2102/inventory-service/internal/inventory/infrastructure/salesapi"
	"github.com/dmehra2102/inventory-service/pkg/idempotency"
	"github.com/dmehra2102/inventory-service/pkg/logging"
	"github.com/dmehra2102/inventory-service/pkg/outbox"
	"github.com/dmehra2102/inventory-service/pkg/shutdown"
	"github.com/dmehra2102/inventory-service/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	log := logging.New(cfg.LogLevel)
	if err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, config.ServiceName, cfg.OtelEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	writer := invkafka.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()

	// Consumer and relay loops. main waits for them before its deferred
	// closes release the pool, the writer and Redis.
	var workers sync.WaitGroup

	var (
		ledger    application.StockLedger
		publisher application.OutcomePublisher
	)
	switch cfg.Ledger {
	case config.LedgerPostgres:
		pool, err := pgxpool.New(ctx, cfg.PGURL)
		if err != nil {
			log.Error("pg connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := invpg.EnsureSchema(ctx, pool); err != nil {
			log.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
		ledger = invpg.NewLedger(log, pool)
		publisher = invpg.NewOutboxPublisher(log, pool)

		dispatch := outbox.NewDispatcher(log, writer, cfg.OutTopic)
		store := invpg.NewOutboxStore(log, pool, cfg.OutboxRetries)
		relay := outbox.NewRelay(log, store, dispatch, "inventory-service-relay-"+uuid.NewString())
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := relay.Run(ctx); err != nil {
				log.Error("relay stopped", "err", err)
			}
		}()
	case config.LedgerMemory:
		mem := memory.NewLedger()
		for id, qty := range cfg.SeedStock {
			mem.Put(id, qty)
		}
		ledger = mem
		publisher = invkafka.NewPublisher(log, writer, cfg.OutTopic)
	}

	sales := salesapi.New(cfg.SalesAPIURL, cfg.SalesAPITimeout)
	svc := application.NewService(log, ledger, publisher, sales)

	gs, err := invgrpc.Run(log, cfg.GRPCAddr, invgrpc.NewServer(log, svc))
	if err != nil {
		log.Error("grpc server failed", "err", err)
		os.Exit(1)
	}
	defer gs.GracefulStop()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      invhttp.NewHandler(log, svc).Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	var idem invkafka.Deduplicator
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		idem = idempotency.NewStore(rdb, cfg.IdempotencyTTL)
	}
	reader := invkafka.NewReader(cfg.KafkaBrokers, cfg.InTopic, cfg.ConsumerGroup)
	consumer := invkafka.NewConsumer(log, reader, svc, idem)
	workers.Add(1)
	go func() {
		defer workers.Done()
		if err := consumer.Run(ctx); err != nil {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	waitFor(log, &workers, cfg.ShutdownTimeout)
	log.Info("inventory-service shutdown complete")
}

// waitFor blocks until wg is done or timeout elapses.
func waitFor(log *slog.Logger, wg *sync.WaitGroup, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("background workers stopped")
	case <-time.After(timeout):
		log.Warn("background workers still running at shutdown timeout", "timeout", timeout)
	}
}
