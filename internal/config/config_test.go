package config

import (
	"maps"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEDGER", "")
	t.Setenv("KAFKA_ADDR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ledger != LedgerPostgres {
		t.Fatalf("ledger = %q", cfg.Ledger)
	}
	if cfg.InTopic != "product.stock-update" || cfg.OutTopic != "sales.confirmation" {
		t.Fatalf("unexpected topics: %q %q", cfg.InTopic, cfg.OutTopic)
	}
	if cfg.SalesAPITimeout != 3*time.Second {
		t.Fatalf("sales timeout = %v", cfg.SalesAPITimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER", "Memory")
	t.Setenv("KAFKA_ADDR", "k1:9092,k2:9092")
	t.Setenv("SALES_API_TIMEOUT_MS", "250")
	t.Setenv("IDEMPOTENCY_TTL_S", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ledger != LedgerMemory {
		t.Fatalf("ledger = %q", cfg.Ledger)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.SalesAPITimeout != 250*time.Millisecond {
		t.Fatalf("sales timeout = %v", cfg.SalesAPITimeout)
	}
	if cfg.IdempotencyTTL != 10*time.Minute {
		t.Fatalf("ttl fallback = %v", cfg.IdempotencyTTL)
	}
}

func TestLoadRejectsUnknownLedger(t *testing.T) {
	t.Setenv("LEDGER", "mysql")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown ledger")
	}
}

func TestLoadSeedStock(t *testing.T) {
	t.Setenv("LEDGER", "memory")
	t.Setenv("SEED_STOCK", " 1:10, 2:0,,3:7 ")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := map[int64]int64{1: 10, 2: 0, 3: 7}
	if !maps.Equal(cfg.SeedStock, want) {
		t.Fatalf("seed = %v", cfg.SeedStock)
	}

	for _, bad := range []string{"1", "x:1", "1:-2", "1:y"} {
		t.Setenv("SEED_STOCK", bad)
		if _, err := Load(); err == nil {
			t.Errorf("SEED_STOCK=%q should fail", bad)
		}
	}

	t.Setenv("SEED_STOCK", "1:10")
	t.Setenv("LEDGER", "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("seed with the postgres ledger should fail")
	}
}
