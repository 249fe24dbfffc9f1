// Package sweeper periodically evicts expired transactions from the window,
// so memory is reclaimed even when nobody queries the statistics.
package sweeper

import (
	"sync"
	"time"

	"github.com/balaghali/N26Statistics/clock"
	"github.com/balaghali/N26Statistics/stats"
	"github.com/balaghali/N26Statistics/window"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	// metric window.sweep.duration is how long it takes to evict expired transactions from the window
	sweepDuration = stats.NewLatencyHistogram15s32("window.sweep.duration")

	// metric window.sweep.evicted is how many transactions were evicted by sweeps
	sweepEvicted = stats.NewCounter32("window.sweep.evicted")

	// metric window.transactions_active is how many transactions were in the window after the last sweep
	activeTransactions = stats.NewGauge32("window.transactions_active")

	promActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "txstats",
		Name:      "window_transactions",
		Help:      "The number of transactions in the window after the last sweep.",
	})
	promEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "txstats",
		Name:      "window_evicted_total",
		Help:      "The total number of transactions evicted from the window by sweeps.",
	})
)

// Sweeper runs window evictions on an interval
type Sweeper struct {
	w        *window.Window
	clock    clock.Clock
	interval time.Duration
	aligned  bool

	wg       sync.WaitGroup
	shutdown chan struct{}
}

func New(w *window.Window, c clock.Clock, interval time.Duration, aligned bool) *Sweeper {
	return &Sweeper{
		w:        w,
		clock:    c,
		interval: interval,
		aligned:  aligned,
		shutdown: make(chan struct{}),
	}
}

// Sweep evicts everything that expired as of now, and returns how many transactions were removed.
func (s *Sweeper) Sweep() int {
	pre := time.Now()
	now := s.clock.Now()
	removed := s.w.EvictExpired(now)
	active := s.w.Len()
	sweepDuration.Value(time.Since(pre))
	sweepEvicted.Add(removed)
	activeTransactions.Set(active)
	promEvicted.Add(float64(removed))
	promActive.Set(float64(active))

	if removed > 0 {
		log.Infof("sweeper: removed %d stale transactions, %d remaining", removed, active)
	} else if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("sweeper: nothing to remove, %d remaining", active)
	}
	return removed
}

// Start launches the sweep loop. A zero interval disables it.
func (s *Sweeper) Start() {
	if s.interval <= 0 {
		log.Warn("sweeper: disabled. expired transactions are only evicted by queries")
		return
	}
	var tick <-chan time.Time
	var ticker *time.Ticker
	if s.aligned {
		tick = clock.AlignedTickLossy(s.interval, s.shutdown)
	} else {
		ticker = time.NewTicker(s.interval)
		tick = ticker.C
	}
	log.Infof("sweeper: evicting expired transactions every %s", s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.shutdown:
				if ticker != nil {
					ticker.Stop()
				}
				return
			case <-tick:
				s.Sweep()
			}
		}
	}()
}

// Stop ends the sweep loop and waits for a running sweep to complete.
func (s *Sweeper) Stop() {
	close(s.shutdown)
	s.wg.Wait()
	log.Info("sweeper: stopped")
}
