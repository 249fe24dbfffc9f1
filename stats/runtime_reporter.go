package stats

import (
	"runtime"
	"time"

	"github.com/prometheus/procfs"
	log "github.com/sirupsen/logrus"
)

// RuntimeReporter reports the footprint of the process. Heap and gc figures come
// from the go runtime, resident memory and cpu time from /proc when it is mounted.
type RuntimeReporter struct {
	mem    runtime.MemStats
	proc   *procfs.Proc
	lastGC uint32
}

func NewRuntimeReporter() *RuntimeReporter {
	r := &RuntimeReporter{}
	if p, err := procfs.Self(); err == nil {
		r.proc = &p
	} else {
		log.Warnf("stats: /proc unavailable, reporting go runtime stats only: %s", err)
	}
	return registry.getOrAdd("runtime", r).(*RuntimeReporter)
}

func (r *RuntimeReporter) ReportGraphite(prefix, buf []byte, now time.Time) []byte {
	runtime.ReadMemStats(&r.mem)

	// metric runtime.heap_bytes is the memory held by live and not yet collected heap objects
	buf = WriteUint64(buf, prefix, []byte("heap_bytes.gauge64"), r.mem.HeapAlloc, now)
	// metric runtime.sys_bytes is the memory obtained from the OS. the heap profile trigger looks at this
	buf = WriteUint64(buf, prefix, []byte("sys_bytes.gauge64"), r.mem.Sys, now)
	buf = WriteUint32(buf, prefix, []byte("goroutines.gauge32"), uint32(runtime.NumGoroutine()), now)
	buf = WriteUint32(buf, prefix, []byte("gc.cycles.counter32"), r.mem.NumGC, now)
	if r.mem.NumGC != r.lastGC {
		buf = WriteUint64(buf, prefix, []byte("gc.last_pause_ns.gauge64"), r.mem.PauseNs[(r.mem.NumGC+255)%256], now)
		r.lastGC = r.mem.NumGC
	}

	if r.proc == nil {
		return buf
	}
	stat, err := r.proc.NewStat()
	if err != nil {
		return buf
	}
	buf = WriteUint64(buf, prefix, []byte("resident_bytes.gauge64"), uint64(stat.ResidentMemory()), now)
	return WriteFloat64(buf, prefix, []byte("cpu_seconds.counter64"), stat.CPUTime(), now)
}
