package syncqueue

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	slotQueue      = "queue"
	slotLastSync   = "last_sync"
	slotDeadLetter = "dead_letter"
)

// Store is the durable home of the pending queue, the last-sync marker, and
// the dead-letter list. Injectable so tests can substitute an in-memory fake.
type Store interface {
	// Read returns the pending queue in enqueue order. A missing or
	// malformed slot reads as an empty queue, never as an error.
	Read(ctx context.Context) ([]*SyncItem, error)
	Write(ctx context.Context, items []*SyncItem) error
	// Update applies fn to the current queue and persists the result. The
	// whole read-modify-write cycle is serialized against every other queue
	// mutation, so concurrent callers never overwrite each other's changes.
	Update(ctx context.Context, fn func(items []*SyncItem) []*SyncItem) error
	// Append adds an item to the end of the queue. A reading-progress item
	// replaces any older pending progress item for the same book.
	Append(ctx context.Context, item *SyncItem) error
	RemoveByID(ctx context.Context, id string) error

	LastSync(ctx context.Context) (time.Time, bool)
	SetLastSync(ctx context.Context, t time.Time) error

	DeadLetters(ctx context.Context) ([]*SyncItem, error)
	AppendDeadLetter(ctx context.Context, item *SyncItem) error
}

type slot struct {
	bun.BaseModel `bun:"table:sync_slots,alias:ss"`

	Name      string    `bun:"name,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// SlotStore keeps each logical slot in one row of the sync_slots table, with
// the queue serialized as a single JSON array. This mirrors the storage
// layout the reading clients use.
type SlotStore struct {
	db  *bun.DB
	log logger.Logger

	// mu serializes slot read-modify-write cycles. The echo handlers and the
	// drainer mutate the same row from separate goroutines; SQLite serializes
	// the individual writes but not the read that each cycle starts with.
	mu sync.Mutex
}

func NewSlotStore(db *bun.DB) *SlotStore {
	return &SlotStore{db: db, log: logger.New()}
}

func (s *SlotStore) readSlot(ctx context.Context, name string) (string, error) {
	row := &slot{}
	err := s.db.NewSelect().
		Model(row).
		Where("ss.name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", errors.WithStack(err)
	}
	return row.Value, nil
}

func (s *SlotStore) writeSlot(ctx context.Context, name, value string) error {
	row := &slot{
		Name:      name,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return errors.WithStack(err)
}

func (s *SlotStore) readItems(ctx context.Context, name string) ([]*SyncItem, error) {
	value, err := s.readSlot(ctx, name)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return []*SyncItem{}, nil
	}

	var items []*SyncItem
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		// Corrupted slot data is unrecoverable; treat it as empty rather
		// than wedging every future enqueue and drain.
		s.log.Warn("discarding malformed slot data", logger.Data{"slot": name, "error": err.Error()})
		return []*SyncItem{}, nil
	}
	return items, nil
}

func (s *SlotStore) writeItems(ctx context.Context, name string, items []*SyncItem) error {
	if items == nil {
		items = []*SyncItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return errors.WithStack(err)
	}
	return s.writeSlot(ctx, name, string(data))
}

func (s *SlotStore) Read(ctx context.Context) ([]*SyncItem, error) {
	return s.readItems(ctx, slotQueue)
}

func (s *SlotStore) Write(ctx context.Context, items []*SyncItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeItems(ctx, slotQueue, items)
}

func (s *SlotStore) Update(ctx context.Context, fn func(items []*SyncItem) []*SyncItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readItems(ctx, slotQueue)
	if err != nil {
		return err
	}
	return s.writeItems(ctx, slotQueue, fn(items))
}

func (s *SlotStore) Append(ctx context.Context, item *SyncItem) error {
	return s.Update(ctx, func(items []*SyncItem) []*SyncItem {
		return append(dedupeProgress(items, item), item)
	})
}

// dedupeProgress removes pending progress items superseded by the new one,
// so the queue holds at most one progress record per book.
func dedupeProgress(items []*SyncItem, incoming *SyncItem) []*SyncItem {
	bookID, ok := incoming.progressBookID()
	if !ok {
		return items
	}

	kept := items[:0]
	for _, item := range items {
		if existing, ok := item.progressBookID(); ok && existing == bookID {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func (s *SlotStore) RemoveByID(ctx context.Context, id string) error {
	return s.Update(ctx, func(items []*SyncItem) []*SyncItem {
		kept := items[:0]
		for _, item := range items {
			if item.ID == id {
				continue
			}
			kept = append(kept, item)
		}
		return kept
	})
}

func (s *SlotStore) LastSync(ctx context.Context) (time.Time, bool) {
	value, err := s.readSlot(ctx, slotLastSync)
	if err != nil || value == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (s *SlotStore) SetLastSync(ctx context.Context, t time.Time) error {
	return s.writeSlot(ctx, slotLastSync, strconv.FormatInt(t.UnixMilli(), 10))
}

func (s *SlotStore) DeadLetters(ctx context.Context) ([]*SyncItem, error) {
	return s.readItems(ctx, slotDeadLetter)
}

func (s *SlotStore) AppendDeadLetter(ctx context.Context, item *SyncItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readItems(ctx, slotDeadLetter)
	if err != nil {
		return err
	}
	return s.writeItems(ctx, slotDeadLetter, append(items, item))
}
