package interfaces

import (
	"context"
	"time"

	"campuswire/pkg/types"
)

//go:generate go run go.uber.org/mock/mockgen -source=notification.go -destination=../../internal/mocks/notification.go -package=mocks

// NotificationStore persists per-recipient notification records.
type NotificationStore interface {
	CreateOne(ctx context.Context, record *types.NotificationRecord) error

	// CreateMany writes all records or none of them.
	CreateMany(ctx context.Context, records []*types.NotificationRecord) error

	// MarkRead returns ErrNotificationNotFound if the id does not exist or
	// belongs to another recipient.
	MarkRead(ctx context.Context, id, recipient string) error

	// ListForRecipient returns newest first. limit <= 0 means no limit.
	ListForRecipient(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]*types.NotificationRecord, error)

	// PurgeRead deletes read records whose read time is before olderThan and
	// returns how many were removed.
	PurgeRead(ctx context.Context, olderThan time.Time) (int, error)
}
