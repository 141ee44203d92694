// Package fanout expands one domain event into per-recipient notification
// records and best-effort live pushes.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campuswire/internal/audience"
	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DefaultBatchSize bounds how many records go into one bulk write.
const DefaultBatchSize = 500

// Deliverer pushes an event to every live connection of a room and returns
// how many connections accepted it.
type Deliverer interface {
	Deliver(room, event string, payload any) int
}

// Resolver turns audience rules into recipient ids.
type Resolver interface {
	ResolveAll(ctx context.Context, rules ...types.AudienceRule) (audience.Set, error)
}

// Report describes the outcome of one fan-out.
type Report struct {
	// Resolved is the number of distinct recipients.
	Resolved int `json:"resolved"`
	// Persisted is the number of records the store accepted.
	Persisted int `json:"persisted"`
	// Delivered is the number of recipients reached live on at least one
	// connection.
	Delivered int `json:"delivered"`
}

// Degraded reports whether some records were not persisted.
func (r Report) Degraded() bool {
	return r.Persisted < r.Resolved
}

// Engine orchestrates resolve, persist and deliver.
// ARCHITECTURAL DISCOVERY: Persist-then-deliver keeps the durable record the
// source of truth; the live push is a courtesy that never gates persistence
type Engine struct {
	resolver  Resolver
	deliverer Deliverer
	store     interfaces.NotificationStore
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

// NewEngine creates a fan-out engine. batchSize <= 0 selects DefaultBatchSize.
func NewEngine(resolver Resolver, deliverer Deliverer, store interfaces.NotificationStore, batchSize int, logger *slog.Logger) *Engine {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		resolver:  resolver,
		deliverer: deliverer,
		store:     store,
		batchSize: batchSize,
		logger:    logger.With(slog.String("component", "fanout")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NotifyDirect records one notification for to and pushes it to the
// recipient's user room. from may be empty for system notices.
func (e *Engine) NotifyDirect(ctx context.Context, from, to string, notice types.Notice) (Report, error) {
	if err := notice.Validate(); err != nil {
		return Report{}, err
	}
	if !types.IsValidUserID(to) {
		return Report{}, types.ErrInvalidUserID
	}

	record := e.record(from, to, notice)
	report := Report{Resolved: 1}

	var persistErr error
	if err := e.store.CreateOne(ctx, record); err != nil {
		persistErr = err
	} else {
		report.Persisted = 1
	}

	if e.deliverer.Deliver(types.UserRoom(to), types.EventNotification, record) > 0 {
		report.Delivered = 1
	}

	if persistErr != nil {
		e.logger.Warn("notification not recorded",
			slog.String("recipient", to),
			slog.String("type", notice.Type),
			slog.Any("error", persistErr))
		return report, fmt.Errorf("%w: %w", ErrPartialPersistence, persistErr)
	}
	return report, nil
}

// NotifyAudience resolves rules to their union and fans notice out to every
// recipient: one bulk write per batch, one live push per user room.
func (e *Engine) NotifyAudience(ctx context.Context, from string, notice types.Notice, rules ...types.AudienceRule) (Report, error) {
	if err := notice.Validate(); err != nil {
		return Report{}, err
	}
	if len(rules) == 0 {
		return Report{}, ErrNoAudience
	}

	recipients, err := e.resolver.ResolveAll(ctx, rules...)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	records := lo.Map(recipients.Sorted(), func(to string, _ int) *types.NotificationRecord {
		return e.record(from, to, notice)
	})
	return e.fanout(ctx, records)
}

// NotifyEach fans out a batch of personalised notices, each carrying its own
// recipient. Every notice is validated before anything is written.
func (e *Engine) NotifyEach(ctx context.Context, from string, notices []types.Notice) (Report, error) {
	for i := range notices {
		if err := notices[i].Validate(); err != nil {
			return Report{}, err
		}
		if notices[i].Recipient == "" {
			return Report{}, types.ErrInvalidUserID
		}
	}

	records := lo.Map(notices, func(n types.Notice, _ int) *types.NotificationRecord {
		return e.record(from, n.Recipient, n)
	})
	return e.fanout(ctx, records)
}

func (e *Engine) fanout(ctx context.Context, records []*types.NotificationRecord) (Report, error) {
	report := Report{Resolved: len(records)}
	if len(records) == 0 {
		return report, nil
	}

	// FUNCTIONAL DISCOVERY: Each chunk is atomic in the store, so a failure
	// leaves whole chunks missing and the count stays exact
	var errs []error
	for _, chunk := range lo.Chunk(records, e.batchSize) {
		if err := e.store.CreateMany(ctx, chunk); err != nil {
			errs = append(errs, err)
			continue
		}
		report.Persisted += len(chunk)
	}

	for _, record := range records {
		if e.deliverer.Deliver(types.UserRoom(record.Recipient), types.EventNotification, record) > 0 {
			report.Delivered++
		}
	}

	e.logger.Info("fan-out complete",
		slog.Int("resolved", report.Resolved),
		slog.Int("persisted", report.Persisted),
		slog.Int("delivered", report.Delivered))

	if len(errs) > 0 {
		e.logger.Warn("notifications only partially recorded",
			slog.Int("missing", report.Resolved-report.Persisted),
			slog.Any("error", errors.Join(errs...)))
		return report, fmt.Errorf("%w: %d of %d recorded: %w",
			ErrPartialPersistence, report.Persisted, report.Resolved, errors.Join(errs...))
	}
	return report, nil
}

func (e *Engine) record(from, to string, notice types.Notice) *types.NotificationRecord {
	return &types.NotificationRecord{
		ID:        uuid.New().String(),
		Recipient: to,
		Sender:    lo.EmptyableToPtr(from),
		Type:      notice.Type,
		Title:     notice.Title,
		Body:      notice.Body,
		Priority:  notice.Priority,
		Data:      notice.Data,
		CreatedAt: e.now(),
	}
}
