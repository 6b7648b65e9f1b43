package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/intake/internal/common"
	"github.com/ternarybob/intake/internal/interfaces"
	"github.com/ternarybob/intake/internal/models"
)

// Key layout. Every key written for an entry carries the same TTL, so
// badger expires the primary record and all index pointers together.
//
//	memory/<id>                                  -> JSON entry
//	index/recent/<invTS>/<id>                    -> id
//	index/type/<document_type>/<invTS>/<id>      -> id
//	index/intent/<intent>/<invTS>/<id>           -> id
//	index/thread/<thread_id>/<invTS>/<id>        -> id
//	index/conversation/<conv_id>/<invTS>/<id>    -> id
//
// invTS is an inverted zero-padded nanosecond timestamp, so ascending
// key order within an index prefix is most-recent-first.
const (
	primaryPrefix = "memory/"
	indexPrefix   = "index/"
)

// MemoryStorage implements the MemoryStorage interface for Badger
type MemoryStorage struct {
	db     *BadgerDB
	ttl    time.Duration
	logger arbor.ILogger
}

// NewMemoryStorage creates a new MemoryStorage instance
func NewMemoryStorage(db *BadgerDB, ttl time.Duration, logger arbor.ILogger) interfaces.MemoryStorage {
	if ttl <= 0 {
		ttl = models.DefaultMemoryTTL
	}
	return &MemoryStorage{
		db:     db,
		ttl:    ttl,
		logger: logger,
	}
}

// Store persists the entry and all secondary index keys in a single
// badger transaction. Append-only: a fresh ID is assigned on every call.
func (s *MemoryStorage) Store(ctx context.Context, entry *models.MemoryEntry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("%w: nil entry", models.ErrStorage)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrStorage, err)
	}

	stored := *entry
	stored.ID = common.NewEntryID()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.TTLSeconds = int(s.ttl / time.Second)

	payload, err := json.Marshal(&stored)
	if err != nil {
		return "", fmt.Errorf("%w: encode entry: %v", models.ErrStorage, err)
	}

	// Expiry runs from CreatedAt, not from write time, so a backdated
	// entry still disappears at created_at + ttl. One already past its
	// window is never written; the store behaves as if it had expired.
	remaining := time.Until(stored.CreatedAt.Add(s.ttl))
	if remaining <= 0 {
		s.logger.Debug().
			Str("id", stored.ID).
			Str("created_at", stored.CreatedAt.Format(time.RFC3339)).
			Msg("Memory entry already past retention, not persisted")
		entry.ID = stored.ID
		entry.CreatedAt = stored.CreatedAt
		entry.TTLSeconds = stored.TTLSeconds
		return stored.ID, nil
	}

	keys := indexKeys(&stored)

	err = s.db.Badger().Update(func(txn *badgerdb.Txn) error {
		e := badgerdb.NewEntry([]byte(primaryPrefix+stored.ID), payload).WithTTL(remaining)
		if err := txn.SetEntry(e); err != nil {
			return err
		}
		for _, key := range keys {
			ie := badgerdb.NewEntry(key, []byte(stored.ID)).WithTTL(remaining)
			if err := txn.SetEntry(ie); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrStorage, err)
	}

	s.logger.Debug().
		Str("id", stored.ID).
		Str("source_agent", stored.SourceAgent).
		Str("intent", string(stored.Intent)).
		Msg("Memory entry stored")

	entry.ID = stored.ID
	entry.CreatedAt = stored.CreatedAt
	entry.TTLSeconds = stored.TTLSeconds
	return stored.ID, nil
}

// Get retrieves a memory entry by ID
func (s *MemoryStorage) Get(ctx context.Context, id string) (*models.MemoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}

	var entry models.MemoryEntry
	err := s.db.Badger().View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(primaryPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err == badgerdb.ErrKeyNotFound {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	return &entry, nil
}

// Query resolves the most selective index for the filter and walks it
// in recency order, loading entries and applying any remaining filter
// fields. It never iterates the primary keyspace.
func (s *MemoryStorage) Query(ctx context.Context, filter models.MemoryFilter, limit int) ([]*models.MemoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	if limit <= 0 {
		limit = 10
	}

	prefix := queryIndex(filter)

	var entries []*models.MemoryEntry
	err := s.db.Badger().View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(entries) < limit; it.Next() {
			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				continue
			}

			item, err := txn.Get([]byte(primaryPrefix + id))
			if err != nil {
				// Index pointer raced an expiring entry; skip.
				continue
			}

			var entry models.MemoryEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}

			if matchesFilter(&entry, filter) {
				entries = append(entries, &entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	return entries, nil
}

// invertedTimestamp encodes a creation time so lexicographic key order
// within an index prefix is newest-first.
func invertedTimestamp(t time.Time) string {
	return fmt.Sprintf("%020d", math.MaxInt64-t.UnixNano())
}

// indexKeys computes every secondary index key for an entry.
func indexKeys(entry *models.MemoryEntry) [][]byte {
	inv := invertedTimestamp(entry.CreatedAt)
	keys := [][]byte{
		[]byte(fmt.Sprintf("%srecent/%s/%s", indexPrefix, inv, entry.ID)),
		[]byte(fmt.Sprintf("%stype/%s/%s/%s", indexPrefix, entry.DocumentType, inv, entry.ID)),
		[]byte(fmt.Sprintf("%sintent/%s/%s/%s", indexPrefix, entry.Intent, inv, entry.ID)),
	}
	if entry.ThreadID != "" {
		keys = append(keys, []byte(fmt.Sprintf("%sthread/%s/%s/%s", indexPrefix, entry.ThreadID, inv, entry.ID)))
	}
	if entry.ConversationID != "" {
		keys = append(keys, []byte(fmt.Sprintf("%sconversation/%s/%s/%s", indexPrefix, entry.ConversationID, inv, entry.ID)))
	}
	return keys
}

// queryIndex picks the index prefix for a filter, most selective first.
func queryIndex(filter models.MemoryFilter) []byte {
	if filter.Empty() {
		return []byte(indexPrefix + "recent/")
	}
	switch {
	case filter.ThreadID != "":
		return []byte(fmt.Sprintf("%sthread/%s/", indexPrefix, filter.ThreadID))
	case filter.ConversationID != "":
		return []byte(fmt.Sprintf("%sconversation/%s/", indexPrefix, filter.ConversationID))
	case filter.Intent != "":
		return []byte(fmt.Sprintf("%sintent/%s/", indexPrefix, filter.Intent))
	default:
		return []byte(fmt.Sprintf("%stype/%s/", indexPrefix, filter.DocumentType))
	}
}

// matchesFilter applies filter fields not covered by the chosen index.
func matchesFilter(entry *models.MemoryEntry, filter models.MemoryFilter) bool {
	if filter.DocumentType != "" && entry.DocumentType != filter.DocumentType {
		return false
	}
	if filter.Intent != "" && entry.Intent != filter.Intent {
		return false
	}
	if filter.ThreadID != "" && entry.ThreadID != filter.ThreadID {
		return false
	}
	if filter.ConversationID != "" && entry.ConversationID != filter.ConversationID {
		return false
	}
	return true
}
