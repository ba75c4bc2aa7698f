package backend

import (
	"context"
	"fmt"

	"pagotrack/internal/amqp"
	"pagotrack/internal/log"
	"pagotrack/internal/storage"
	"pagotrack/internal/storage/memory"
)

// DefaultFactory opens SQLite or in-memory stores and, when configured,
// the AMQP bus. A bus that cannot be reached is logged and skipped.
type DefaultFactory struct {
	logger *log.Logger
	// dial is swapped in tests.
	dial func(url, exchange, queue, alertQueue string) (*amqp.Client, error)
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentStorage),
		dial:   amqp.NewClient,
	}
}

func (f *DefaultFactory) Open(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.openSQLite(ctx, config)
	case MemoryBackend:
		res = f.openMemory(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s (want one of %v)", config.Type, Types())
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		bus, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, config.AMQPAlertQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
				log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue,
				"alert_queue", config.AMQPAlertQueue)
			res.Bus = bus
			storeCleanup := res.Cleanup
			res.Cleanup = func() error {
				busErr := bus.Close()
				if storeCleanup != nil {
					if err := storeCleanup(); err != nil {
						return err
					}
				}
				return busErr
			}
		}
	}
	return res, nil
}

func (f *DefaultFactory) openSQLite(ctx context.Context, config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &Result{
		Store:   repo,
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) openMemory(ctx context.Context, config Config) *Result {
	dir := config.DataDirectory
	if dir == "" {
		dir = "data"
	}
	f.logger.InfoContext(ctx, "Initialized memory backend", "seed_dir", dir)
	return &Result{
		Store: memory.NewFromFiles(dir),
		Ping:  func(context.Context) error { return nil },
	}
}
