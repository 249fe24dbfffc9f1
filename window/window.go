// Package window maintains aggregate statistics over a sliding time window of transactions.
//
// A transaction is a member of the window at time now iff its timestamp is strictly after now - size.
// Sum and count are maintained incrementally, minimum and maximum through monotonic deques,
// so a snapshot never scans the members.
// The caller always provides now explicitly. Window never reads the clock.
package window

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSize is the span of the window
const DefaultSize = 60 * time.Second

// Snapshot holds the statistics of the window at a given time.
// All values are 0 for an empty window.
type Snapshot struct {
	Sum   decimal.Decimal
	Avg   decimal.Decimal
	Max   decimal.Decimal
	Min   decimal.Decimal
	Count int
}

// Window is the windowed statistics aggregator.
// All methods are concurrency-safe and fully serialized.
type Window struct {
	mu    sync.Mutex
	size  time.Duration
	store *store
	agg   aggregation
	ext   extremumTracker
}

func New(size time.Duration) *Window {
	if size <= 0 {
		size = DefaultSize
	}
	return &Window{
		size:  size,
		store: newStore(),
		ext:   newExtremumTracker(),
	}
}

func (w *Window) Size() time.Duration {
	return w.size
}

// InWindow returns whether ts belongs to the window at time now
func (w *Window) InWindow(ts, now time.Time) bool {
	return ts.After(now.Add(-w.size))
}

// Ingest validates a transaction against now and, if it belongs to the window, adds it.
// It returns false without side effects when amount or timestamp is missing,
// or when the timestamp is not in the window.
// Timestamps in the future are accepted.
func (w *Window) Ingest(amount *decimal.Decimal, timestamp *time.Time, now time.Time) bool {
	if amount == nil || timestamp == nil {
		return false
	}
	return w.Add(NewTransaction(*amount, *timestamp), now)
}

// Add is like Ingest, for a complete transaction.
func (w *Window) Add(tx Transaction, now time.Time) bool {
	if !w.InWindow(tx.Timestamp, now) {
		return false
	}
	w.mu.Lock()
	w.store.insert(tx)
	w.agg.Add(tx.Amount)
	w.ext.Add(tx)
	w.mu.Unlock()
	return true
}

// EvictExpired removes all members that are no longer in the window at time now
// and returns how many were removed. Calling it repeatedly with the same now is a no-op.
func (w *Window) EvictExpired(now time.Time) int {
	w.mu.Lock()
	n := w.evict(now)
	w.mu.Unlock()
	return n
}

func (w *Window) evict(now time.Time) int {
	cutoff := now.Add(-w.size)
	n := w.store.expire(cutoff, func(tx Transaction) {
		w.agg.Remove(tx.Amount)
	})
	w.ext.Expire(cutoff)
	return n
}

// Snapshot evicts expired members and returns the statistics of what remains,
// as one consistent view.
func (w *Window) Snapshot(now time.Time) Snapshot {
	w.mu.Lock()
	w.evict(now)
	s := Snapshot{
		Sum:   w.agg.sum,
		Avg:   w.agg.Avg(),
		Max:   w.ext.Max(),
		Min:   w.ext.Min(),
		Count: w.agg.cnt,
	}
	w.mu.Unlock()
	return s
}

// Len returns the number of members, without evicting.
func (w *Window) Len() int {
	w.mu.Lock()
	n := w.store.Len()
	w.mu.Unlock()
	return n
}

// Members returns a copy of the members, oldest first, without evicting.
func (w *Window) Members() []Transaction {
	w.mu.Lock()
	out := make([]Transaction, 0, w.store.Len())
	w.store.each(func(tx Transaction) {
		out = append(out, tx)
	})
	w.mu.Unlock()
	return out
}
