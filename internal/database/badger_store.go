package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const purgeBatch = 1000

// OpenBadger opens a badger directory with quiet logging.
func OpenBadger(path string) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", path, err)
	}
	return db, nil
}

// BadgerNotificationStore keeps notifications in BadgerDB.
// The record key is "ntf:{recipient}:{created_nanos_padded}:{id}" so a
// reverse prefix scan yields a recipient's inbox newest first. A secondary
// "ntfid:{id}" key points back at the record key. Read records get a TTL so
// badger expires them without a purge pass.
type BadgerNotificationStore struct {
	db      *badger.DB
	readTTL time.Duration
	logger  *slog.Logger
}

// NewBadgerNotificationStore creates a store. readTTL <= 0 keeps read
// records until PurgeRead.
func NewBadgerNotificationStore(db *badger.DB, readTTL time.Duration, logger *slog.Logger) *BadgerNotificationStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerNotificationStore{
		db:      db,
		readTTL: readTTL,
		logger:  logger.With(slog.String("component", "badger_notifications")),
	}
}

func recordKey(r *types.NotificationRecord) []byte {
	return fmt.Appendf(nil, "ntf:%s:%019d:%s", r.Recipient, r.CreatedAt.UnixNano(), r.ID)
}

func indexKey(id string) []byte {
	return []byte("ntfid:" + id)
}

func recipientPrefix(recipient string) []byte {
	return []byte("ntf:" + recipient + ":")
}

func (s *BadgerNotificationStore) put(txn *badger.Txn, r *types.NotificationRecord, ttl time.Duration) error {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	key := recordKey(r)
	entry := badger.NewEntry(key, value)
	index := badger.NewEntry(indexKey(r.ID), key)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
		index = index.WithTTL(ttl)
	}
	if err := txn.SetEntry(entry); err != nil {
		return err
	}
	return txn.SetEntry(index)
}

// CreateOne persists a single notification.
func (s *BadgerNotificationStore) CreateOne(_ context.Context, record *types.NotificationRecord) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return s.put(txn, record, 0)
	})
}

// CreateMany writes the batch in one badger transaction.
func (s *BadgerNotificationStore) CreateMany(ctx context.Context, records []*types.NotificationRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, r := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.put(txn, r, 0); err != nil {
				return fmt.Errorf("failed to store notification for %s: %w", r.Recipient, err)
			}
		}
		return nil
	})
}

func getRecord(txn *badger.Txn, key []byte) (*types.NotificationRecord, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	var record types.NotificationRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	})
	return &record, err
}

// MarkRead flags the notification read and starts its retention TTL.
func (s *BadgerNotificationStore) MarkRead(_ context.Context, id, recipient string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return interfaces.ErrNotificationNotFound
		}
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		record, err := getRecord(txn, key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return interfaces.ErrNotificationNotFound
		}
		if err != nil {
			return err
		}
		if record.Recipient != recipient {
			return interfaces.ErrNotificationNotFound
		}
		if record.Read {
			return nil
		}

		now := time.Now().UTC()
		record.Read = true
		record.ReadAt = &now
		return s.put(txn, record, s.readTTL)
	})
}

// ListForRecipient scans the recipient's prefix newest first.
func (s *BadgerNotificationStore) ListForRecipient(_ context.Context, recipient string, unreadOnly bool, limit int) ([]*types.NotificationRecord, error) {
	var records []*types.NotificationRecord
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := recipientPrefix(recipient)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration starts from the greatest key below the seek key.
		for it.Seek(append(prefix, 0xff)); it.ValidForPrefix(prefix); it.Next() {
			var record types.NotificationRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}
			if unreadOnly && record.Read {
				continue
			}
			records = append(records, &record)
			if limit > 0 && len(records) == limit {
				break
			}
		}
		return nil
	})
	return records, err
}

// PurgeRead deletes read records older than the cutoff. Records with a TTL
// may already be gone.
func (s *BadgerNotificationStore) PurgeRead(ctx context.Context, olderThan time.Time) (int, error) {
	type doomed struct {
		key []byte
		id  string
	}
	var victims []doomed
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte("ntf:")
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var record types.NotificationRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}
			if record.Read && record.ReadAt != nil && record.ReadAt.Before(olderThan) {
				victims = append(victims, doomed{key: it.Item().KeyCopy(nil), id: record.ID})
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, batch := range lo.Chunk(victims, purgeBatch) {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			for _, v := range batch {
				if err := txn.Delete(v.key); err != nil {
					return err
				}
				if err := txn.Delete(indexKey(v.id)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return purged, fmt.Errorf("failed to purge notifications: %w", err)
		}
		purged += len(batch)
	}
	if purged > 0 {
		s.logger.Info("purged read notifications", slog.Int("count", purged))
	}
	return purged, nil
}

var _ interfaces.NotificationStore = (*BadgerNotificationStore)(nil)
