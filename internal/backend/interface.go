package backend

import (
	"context"

	"faktura/internal/amqp"
	"faktura/internal/services"
	"faktura/internal/storage"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// Result is an opened backend. Publisher is nil when AMQP is disabled or
// could not be reached; AMQP is the same client when it is not.
type Result struct {
	Type       BackendType
	Repository storage.Repository
	Publisher  services.LedgerPublisher
	AMQP       *amqp.Client
	Cleanup    CleanupFunc
}

// Factory opens backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional ledger events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
