package backend

import (
	"context"

	"pagotrack/internal/amqp"
	"pagotrack/internal/ports"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is an opened backend: the key-value store holding the ledger and
// settings, plus the optional event bus.
type Result struct {
	Store ports.KVStore
	// Bus is nil when AMQP is not configured or unreachable.
	Bus     *amqp.Client
	Ping    func(context.Context) error
	Cleanup CleanupFunc
}

// Publisher returns the bus as an event publisher, or nil without one.
func (r *Result) Publisher() ports.EventPublisher {
	if r.Bus == nil {
		return nil
	}
	return r.Bus
}

// Close runs Cleanup once it is set.
func (r *Result) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory opens backends based on configuration.
type Factory interface {
	Open(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Memory specific; seed files are read from here
	DataDirectory string

	// Optional event bus
	AMQPURL        string
	AMQPExchange   string
	AMQPQueue      string
	AMQPAlertQueue string
}

type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
