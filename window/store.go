package window

import (
	"time"

	"github.com/gammazero/deque"
)

// store holds the members of the window ordered by timestamp, oldest first.
// transactions with equal timestamps keep their arrival order.
type store struct {
	txs *deque.Deque[Transaction]
}

func newStore() *store {
	return &store{
		txs: deque.New[Transaction](),
	}
}

func (s *store) Len() int {
	return s.txs.Len()
}

// insert places tx after every member that is not newer than it.
// scanning starts at the back, so in-order arrival is O(1).
func (s *store) insert(tx Transaction) {
	i := s.txs.Len()
	for i > 0 && s.txs.At(i-1).Timestamp.After(tx.Timestamp) {
		i--
	}
	if i == s.txs.Len() {
		s.txs.PushBack(tx)
		return
	}
	s.txs.Insert(i, tx)
}

// expire removes all members with a timestamp not after cutoff,
// calling fn for each of them in order.
func (s *store) expire(cutoff time.Time, fn func(Transaction)) int {
	var n int
	for s.txs.Len() > 0 && !s.txs.Front().Timestamp.After(cutoff) {
		fn(s.txs.PopFront())
		n++
	}
	return n
}

// each calls fn for every member, oldest first.
func (s *store) each(fn func(Transaction)) {
	for i := 0; i < s.txs.Len(); i++ {
		fn(s.txs.At(i))
	}
}
