package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/dgryski/go-linlog"
)

// Meter32 summarizes sizes, such as request or message bytes, seen during one interval.
// Values are rounded up into linear-log bins with 8 steps per power of two, which bounds
// the error of the reported quantiles. min, max and mean are exact.
type Meter32 struct {
	mu    sync.Mutex
	bins  map[uint32]uint32
	count uint32
	sum   uint64
	min   uint32
	max   uint32
}

func NewMeter32(name string) *Meter32 {
	return registry.getOrAdd(name, &Meter32{
		bins: make(map[uint32]uint32),
	}).(*Meter32)
}

func (m *Meter32) Value(val int) {
	if val < 0 {
		val = 0
	}
	v := uint32(val)
	bin, _ := linlog.BinOf(uint64(v), 4, 3)
	m.mu.Lock()
	if m.count == 0 || v < m.min {
		m.min = v
	}
	if v > m.max {
		m.max = v
	}
	m.bins[uint32(bin)]++
	m.count++
	m.sum += uint64(v)
	m.mu.Unlock()
}

// quantiles returns, for each of the ascending ranks qs, the bin it falls in.
// must be called with the lock held and count > 0.
func (m *Meter32) quantiles(qs ...float64) []uint32 {
	bins := make([]uint32, 0, len(m.bins))
	for b := range m.bins {
		bins = append(bins, b)
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i] < bins[j] })

	out := make([]uint32, 0, len(qs))
	var seen uint32
	for _, b := range bins {
		seen += m.bins[b]
		for len(out) < len(qs) && float64(seen) >= qs[len(out)]*float64(m.count) {
			out = append(out, b)
		}
	}
	return out
}

func (m *Meter32) ReportGraphite(prefix, buf []byte, now time.Time) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count == 0 {
		return buf
	}
	q := m.quantiles(0.5, 0.9)
	buf = WriteUint32(buf, prefix, []byte("min.gauge32"), m.min, now)
	buf = WriteUint32(buf, prefix, []byte("median.gauge32"), q[0], now)
	buf = WriteUint32(buf, prefix, []byte("p90.gauge32"), q[1], now)
	buf = WriteUint32(buf, prefix, []byte("max.gauge32"), m.max, now)
	buf = WriteUint32(buf, prefix, []byte("mean.gauge32"), uint32(m.sum/uint64(m.count)), now)
	buf = WriteUint64(buf, prefix, []byte("sum.gauge64"), m.sum, now)
	buf = WriteUint32(buf, prefix, []byte("values.count32"), m.count, now)

	m.bins = make(map[uint32]uint32)
	m.count, m.sum, m.min, m.max = 0, 0, 0, 0
	return buf
}
