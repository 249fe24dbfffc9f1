package window

import (
	"sort"
	"time"

	"github.com/gammazero/deque"
	"github.com/shopspring/decimal"
)

// monotonic is a deque of window members ordered by timestamp, whose amounts are
// strictly monotonic according to better: the front holds the best amount in the window.
// A member is only kept while no member that expires no earlier is at least as good.
type monotonic struct {
	better func(a, b decimal.Decimal) bool
	q      *deque.Deque[Transaction]
}

func newMinDeque() *monotonic {
	return &monotonic{
		better: func(a, b decimal.Decimal) bool { return a.LessThan(b) },
		q:      deque.New[Transaction](),
	}
}

func newMaxDeque() *monotonic {
	return &monotonic{
		better: func(a, b decimal.Decimal) bool { return a.GreaterThan(b) },
		q:      deque.New[Transaction](),
	}
}

func (m *monotonic) Len() int {
	return m.q.Len()
}

// push adds tx.
// for a timestamp not older than the back this is the classic monotonic push:
// pop from the back while the back is not better than tx, then append.
// older timestamps are placed by timestamp, and the same domination rule is applied
// around that position.
func (m *monotonic) push(tx Transaction) {
	pos := m.q.Len()
	if pos > 0 && m.q.Back().Timestamp.After(tx.Timestamp) {
		pos = sort.Search(m.q.Len(), func(i int) bool {
			return m.q.At(i).Timestamp.After(tx.Timestamp)
		})
		// a younger member that is at least as good outlives tx
		if !m.better(tx.Amount, m.q.At(pos).Amount) {
			return
		}
	}
	for pos > 0 && !m.better(m.q.At(pos-1).Amount, tx.Amount) {
		pos--
		if pos == m.q.Len()-1 {
			m.q.PopBack()
		} else {
			m.q.Remove(pos)
		}
	}
	if pos == m.q.Len() {
		m.q.PushBack(tx)
		return
	}
	m.q.Insert(pos, tx)
}

// expire pops members from the front while they are not after cutoff.
func (m *monotonic) expire(cutoff time.Time) {
	for m.q.Len() > 0 && !m.q.Front().Timestamp.After(cutoff) {
		m.q.PopFront()
	}
}

// best returns the front amount, or 0 if empty.
func (m *monotonic) best() decimal.Decimal {
	if m.q.Len() == 0 {
		return decimal.Zero
	}
	return m.q.Front().Amount
}

// extremumTracker maintains the window minimum and maximum.
type extremumTracker struct {
	min *monotonic
	max *monotonic
}

func newExtremumTracker() extremumTracker {
	return extremumTracker{
		min: newMinDeque(),
		max: newMaxDeque(),
	}
}

func (e extremumTracker) Add(tx Transaction) {
	e.min.push(tx)
	e.max.push(tx)
}

func (e extremumTracker) Expire(cutoff time.Time) {
	e.min.expire(cutoff)
	e.max.expire(cutoff)
}

func (e extremumTracker) Min() decimal.Decimal {
	return e.min.best()
}

func (e extremumTracker) Max() decimal.Decimal {
	return e.max.best()
}
