package backend

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"faktura/internal/amqp"
	"faktura/internal/config"
	"faktura/internal/log"
)

func quietFactory() *DefaultFactory {
	return NewFactory(log.New(log.Config{Output: io.Discard}))
}

func TestFactoryCreate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "faktura.db")}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "faktura"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := quietFactory().Create(context.Background(), tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			defer res.Cleanup()

			if res.Type != tt.config.Type {
				t.Errorf("Type = %v, want %v", res.Type, tt.config.Type)
			}
			if err := res.Repository.Ping(context.Background()); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
			if res.Publisher != nil {
				t.Errorf("Publisher = %v, want nil without AMQP", res.Publisher)
			}
		})
	}
}

func TestFactoryCreate_AMQPUnavailable(t *testing.T) {
	f := quietFactory()
	f.dialAMQP = func(url, exchange, queue string) (*amqp.Client, error) {
		return nil, errors.New("connection refused")
	}

	res, err := f.Create(context.Background(), Config{
		Type:         MemoryBackend,
		AMQPURL:      "amqp://localhost:5672/",
		AMQPExchange: "faktura",
		AMQPQueue:    "ledger_changed",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer res.Cleanup()

	if res.Publisher != nil || res.AMQP != nil {
		t.Fatalf("expected backend without publisher, got %v", res.Publisher)
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory", AMQPURL: "amqp://x", AMQPExchange: "e", AMQPQueue: "q"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != MemoryBackend || got.AMQPQueue != "q" {
		t.Fatalf("got %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewServicesShareRepository(t *testing.T) {
	res, err := quietFactory().Create(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	svc := NewServices(res, 14, 6)
	ctx := context.Background()

	if _, err := svc.Expenses.CreateRecurring(ctx, "Rent", decimal.NewFromInt(900), 1); err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}
	fc, err := svc.Forecasts.Generate(ctx, svc.Forecasts.DefaultHorizon())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(fc.Entries) != 6 {
		t.Fatalf("entries = %d, want 6", len(fc.Entries))
	}
	// Day 1 has passed this month unless today is the 1st; next month always pays.
	if !fc.Entries[1].Expenses.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("second month expenses = %s, want 900", fc.Entries[1].Expenses)
	}
}
