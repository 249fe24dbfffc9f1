package stats

import (
	"sync/atomic"
	"time"
)

// Gauge32 holds a value that is reported as-is every interval
type Gauge32 struct {
	val uint32
}

func NewGauge32(name string) *Gauge32 {
	return registry.getOrAdd(name, &Gauge32{}).(*Gauge32)
}

func (g *Gauge32) Set(val int) {
	atomic.StoreUint32(&g.val, uint32(val))
}

// Add adjusts the gauge by val, which may be negative
func (g *Gauge32) Add(val int) {
	atomic.AddUint32(&g.val, uint32(int32(val)))
}

func (g *Gauge32) Peek() uint32 {
	return atomic.LoadUint32(&g.val)
}

func (g *Gauge32) ReportGraphite(prefix, buf []byte, now time.Time) []byte {
	return WriteUint32(buf, prefix, []byte("gauge32"), g.Peek(), now)
}
