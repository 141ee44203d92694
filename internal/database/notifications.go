package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/jmoiron/sqlx"
)

type notificationRow struct {
	ID        string         `db:"id"`
	Recipient string         `db:"recipient"`
	Sender    sql.NullString `db:"sender"`
	Type      string         `db:"type"`
	Title     string         `db:"title"`
	Body      string         `db:"body"`
	Priority  string         `db:"priority"`
	Data      sql.NullString `db:"data"`
	Read      bool           `db:"is_read"`
	ReadAt    sql.NullTime   `db:"read_at"`
	CreatedAt time.Time      `db:"created_at"`
}

func toNotificationRow(r *types.NotificationRecord) notificationRow {
	row := notificationRow{
		ID:        r.ID,
		Recipient: r.Recipient,
		Type:      r.Type,
		Title:     r.Title,
		Body:      r.Body,
		Priority:  string(r.Priority),
		Read:      r.Read,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.Sender != nil {
		row.Sender = sql.NullString{String: *r.Sender, Valid: true}
	}
	if len(r.Data) > 0 {
		row.Data = sql.NullString{String: string(r.Data), Valid: true}
	}
	if r.ReadAt != nil {
		row.ReadAt = sql.NullTime{Time: r.ReadAt.UTC(), Valid: true}
	}
	return row
}

func (row notificationRow) record() *types.NotificationRecord {
	r := &types.NotificationRecord{
		ID:        row.ID,
		Recipient: row.Recipient,
		Type:      row.Type,
		Title:     row.Title,
		Body:      row.Body,
		Priority:  types.Priority(row.Priority),
		Read:      row.Read,
		CreatedAt: row.CreatedAt,
	}
	if row.Sender.Valid {
		sender := row.Sender.String
		r.Sender = &sender
	}
	if row.Data.Valid {
		r.Data = json.RawMessage(row.Data.String)
	}
	if row.ReadAt.Valid {
		readAt := row.ReadAt.Time
		r.ReadAt = &readAt
	}
	return r
}

const insertNotification = `
	INSERT INTO notifications (id, recipient, sender, type, title, body, priority, data, is_read, read_at, created_at)
	VALUES (:id, :recipient, :sender, :type, :title, :body, :priority, :data, :is_read, :read_at, :created_at)
`

// CreateOne persists a single notification.
func (m *Manager) CreateOne(ctx context.Context, record *types.NotificationRecord) error {
	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		if _, err := db.NamedExecContext(ctx, insertNotification, toNotificationRow(record)); err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
		return nil
	})
}

// CreateMany persists the batch in one transaction: all rows or none.
func (m *Manager) CreateMany(ctx context.Context, records []*types.NotificationRecord) error {
	if len(records) == 0 {
		return nil
	}
	return m.inTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, insertNotification)
		if err != nil {
			return fmt.Errorf("failed to prepare notification insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, record := range records {
			if _, err := stmt.ExecContext(ctx, toNotificationRow(record)); err != nil {
				return fmt.Errorf("failed to insert notification for %s: %w", record.Recipient, err)
			}
		}
		return nil
	})
}

// MarkRead flags a recipient's notification as read. Marking twice keeps the
// first read time.
func (m *Manager) MarkRead(ctx context.Context, id, recipient string) error {
	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		res, err := db.ExecContext(ctx, `
			UPDATE notifications SET is_read = 1, read_at = COALESCE(read_at, ?)
			WHERE id = ? AND recipient = ?
		`, time.Now().UTC(), id, recipient)
		if err != nil {
			return fmt.Errorf("failed to mark notification read: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return interfaces.ErrNotificationNotFound
		}
		return nil
	})
}

// ListForRecipient returns the recipient's notifications, newest first.
func (m *Manager) ListForRecipient(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]*types.NotificationRecord, error) {
	query := `SELECT id, recipient, sender, type, title, body, priority, data, is_read, read_at, created_at
		FROM notifications WHERE recipient = ?`
	args := []any{recipient}
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []notificationRow
	if err := m.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	records := make([]*types.NotificationRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}

// PurgeRead deletes notifications read before olderThan.
func (m *Manager) PurgeRead(ctx context.Context, olderThan time.Time) (int, error) {
	var purged int64
	err := m.executeWrite(ctx, func(db *sqlx.DB) error {
		res, err := db.ExecContext(ctx, `DELETE FROM notifications WHERE is_read = 1 AND read_at < ?`, olderThan.UTC())
		if err != nil {
			return fmt.Errorf("failed to purge notifications: %w", err)
		}
		purged, err = res.RowsAffected()
		return err
	})
	return int(purged), err
}

var _ interfaces.NotificationStore = (*Manager)(nil)
