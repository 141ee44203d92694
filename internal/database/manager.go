// Package database implements the directory and domain stores on SQLite and
// an alternative notification store on BadgerDB.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	dbconfig "campuswire/pkg/database"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// Manager owns the SQLite handle. Reads run concurrently on the pool; every
// write is funnelled through one goroutine.
type Manager struct {
	db           *sqlx.DB
	config       *dbconfig.Config
	logger       *slog.Logger
	writeChannel chan writeOperation // TECHNICAL: Single-writer pattern for SQLite
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex // TECHNICAL: Protect closed status
}

type writeOperation struct {
	operation func(*sqlx.DB) error
	result    chan error
}

// NewManager opens the database, applies pending migrations, validates the
// resulting schema and starts the writer goroutine.
func NewManager(config *dbconfig.Config, logger *slog.Logger) (*Manager, error) {
	db, err := dbconfig.Open(config)
	if err != nil {
		return nil, err
	}
	migrations := dbconfig.NewMigrationManager(db)
	if err := migrations.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := migrations.ValidateSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database schema invalid: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	manager := &Manager{
		db:           db,
		config:       config,
		logger:       logger.With(slog.String("component", "database")),
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	// ARCHITECTURAL DISCOVERY: Single-writer goroutine prevents SQLite write contention
	manager.wg.Add(1)
	go manager.writeLoop()

	return manager, nil
}

func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case op := <-m.writeChannel:
			m.apply(op)

		case <-m.shutdown:
			// Writes accepted before Close still run so no caller is left
			// waiting on a result.
			for {
				select {
				case op := <-m.writeChannel:
					m.apply(op)
				default:
					m.logger.Info("database write loop shutting down")
					return
				}
			}
		}
	}
}

func (m *Manager) apply(op writeOperation) {
	err := op.operation(m.db)
	// FUNCTIONAL DISCOVERY: Only lock contention is worth one retry;
	// constraint violations fail the same way twice
	if isBusy(err) && m.config.WriteRetryDelay > 0 {
		m.logger.Warn("database write hit a locked database, retrying",
			slog.Duration("delay", m.config.WriteRetryDelay),
			slog.Any("error", err))
		time.Sleep(m.config.WriteRetryDelay)
		err = op.operation(m.db)
	}
	if err != nil {
		m.logger.Debug("database write failed", slog.Any("error", err))
	}
	op.result <- err
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// executeWrite queues a write operation and waits for its outcome. Once
// queued the outcome is always awaited: the operation carries ctx, so a
// cancelled caller fails fast inside it, and a write that committed is never
// reported as failed.
func (m *Manager) executeWrite(ctx context.Context, operation func(*sqlx.DB) error) error {
	// TECHNICAL: The read lock is held across the send so Close cannot stop
	// the writer between the closed check and the enqueue
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrManagerClosed
	}
	result := make(chan error, 1)
	select {
	case m.writeChannel <- writeOperation{operation: operation, result: result}:
	case <-ctx.Done():
		m.mu.RUnlock()
		return ctx.Err()
	}
	m.mu.RUnlock()

	return <-result
}

// inTx runs fn inside one transaction on the writer goroutine.
func (m *Manager) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }() // TECHNICAL: Always rollback unless commit succeeds

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// HealthCheck validates database connectivity
func (m *Manager) HealthCheck(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	var count int
	if err := m.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM schema_migrations"); err != nil {
		return fmt.Errorf("database read test failed: %w", err)
	}
	return nil
}

// Close shuts down the database manager
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.shutdown)
	m.wg.Wait()

	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
