package syncqueue

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/maktabaapp/maktaba-sync/pkg/notify"
	"github.com/robinjoseph08/golib/logger"
)

// Applier applies a single queued item; true means applied.
type Applier interface {
	Apply(ctx context.Context, item *SyncItem) bool
}

// OnlineChecker reports the current connectivity state.
type OnlineChecker interface {
	Online() bool
}

// Invalidator marks cached local views stale after a drain so reads refresh
// from the backend.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Drainer runs full passes over the pending queue: every item in the
// snapshot is attempted exactly once per pass, strictly in enqueue order.
type Drainer struct {
	store       Store
	applier     Applier
	online      OnlineChecker
	invalidator Invalidator
	notifier    notify.Notifier
	log         logger.Logger

	inFlight atomic.Bool
}

func NewDrainer(store Store, applier Applier, online OnlineChecker, invalidator Invalidator, notifier notify.Notifier) *Drainer {
	return &Drainer{
		store:       store,
		applier:     applier,
		online:      online,
		invalidator: invalidator,
		notifier:    notifier,
		log:         logger.New(),
	}
}

// InFlight reports whether a drain pass is currently running.
func (d *Drainer) InFlight() bool {
	return d.inFlight.Load()
}

// DrainAll attempts every currently-queued item once. It short-circuits when
// offline, when a pass is already in flight, or when the queue is empty; the
// short-circuit cases leave the last-sync marker untouched.
//
// Items are applied sequentially so that per-book progress ordering holds.
// Connectivity is only checked here at the start; a pass that loses the
// backend midway keeps attempting items, which fail individually and stay
// queued for the next pass.
func (d *Drainer) DrainAll(ctx context.Context, notifyUser bool) (succeeded, failed int) {
	if !d.online.Online() {
		return 0, 0
	}
	if !d.inFlight.CompareAndSwap(false, true) {
		return 0, 0
	}
	defer d.inFlight.Store(false)

	items, err := d.store.Read(ctx)
	if err != nil {
		d.log.Err(err).Error("read sync queue error")
		return 0, 0
	}
	if len(items) == 0 {
		return 0, 0
	}

	d.log.Info("draining sync queue", logger.Data{"pending": len(items)})

	for _, item := range items {
		if d.applier.Apply(ctx, item) {
			if err := d.store.RemoveByID(ctx, item.ID); err != nil {
				d.log.Err(err).Error("remove synced item error", logger.Data{"item_id": item.ID})
			}
			succeeded++
		} else {
			d.recordFailure(ctx, item.ID)
			failed++
		}
	}

	if d.invalidator != nil {
		if err := d.invalidator.Invalidate(ctx); err != nil {
			d.log.Err(err).Error("invalidate cached views error")
		}
	}

	if err := d.store.SetLastSync(ctx, time.Now()); err != nil {
		d.log.Err(err).Error("set last sync marker error")
	}

	d.log.Info("sync queue drained", logger.Data{"succeeded": succeeded, "failed": failed})

	if notifyUser && d.notifier != nil {
		msg := notify.DrainOutcome(succeeded, failed)
		switch {
		case failed == 0:
			d.notifier.Success(msg)
		case succeeded == 0:
			d.notifier.Warn(msg)
		default:
			d.notifier.Info(msg)
		}
	}

	return succeeded, failed
}

// recordFailure bumps the item's retry count against the current persisted
// queue (new enqueues may have landed since the snapshot) and evicts items
// that hit the retry ceiling into the dead-letter list.
func (d *Drainer) recordFailure(ctx context.Context, itemID string) {
	var evicted []*SyncItem
	err := d.store.Update(ctx, func(items []*SyncItem) []*SyncItem {
		kept := items[:0]
		for _, item := range items {
			if item.ID == itemID {
				item.RetryCount++
			}
			if item.RetryCount >= RetryCeiling {
				evicted = append(evicted, item)
				continue
			}
			kept = append(kept, item)
		}
		return kept
	})
	if err != nil {
		d.log.Err(err).Error("record sync failure error", logger.Data{"item_id": itemID})
		return
	}

	for _, item := range evicted {
		d.log.Warn("evicting sync item after repeated failures", logger.Data{"item_id": item.ID, "kind": item.Kind, "operation": item.Operation, "retry_count": item.RetryCount})
		if err := d.store.AppendDeadLetter(ctx, item); err != nil {
			d.log.Err(err).Error("append dead letter error", logger.Data{"item_id": item.ID})
		}
	}
}

// ScheduleDrain runs a drain after the given delay. The connectivity monitor
// uses it with a short settle delay after a reconnect, so the network stack
// is not hit with a burst the moment the link comes back.
func (d *Drainer) ScheduleDrain(delay time.Duration, notifyUser bool) *time.Timer {
	return time.AfterFunc(delay, func() {
		d.DrainAll(context.Background(), notifyUser)
	})
}
