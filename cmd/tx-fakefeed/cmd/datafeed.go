package cmd

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/balaghali/N26Statistics/cmd/tx-fakefeed/out"
	"github.com/balaghali/N26Statistics/schema"
	"github.com/balaghali/N26Statistics/stats"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var flushErrors = stats.NewCounter32("feed.flush_errors")

// generator returns the transaction to publish at now.
// it need not be safe for concurrent use.
type generator func(now time.Time) schema.TransactionData

// feeder publishes generated transactions to an output at a limited rate,
// spread over a number of concurrent workers.
type feeder struct {
	out     out.Out
	limiter *rate.Limiter
	batch   int
	workers int
	total   int64 // 0 means unlimited
	gen     generator
	genLock sync.Mutex

	latency *Stat

	claimed   int64
	published int64
	failed    int64
}

func newFeeder(o out.Out, perSecond float64, batch, workers int, total int, gen generator) *feeder {
	if batch < 1 {
		batch = 1
	}
	if workers < 1 {
		workers = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &feeder{
		out:     o,
		limiter: rate.NewLimiter(limit, batch),
		batch:   batch,
		workers: workers,
		total:   int64(total),
		gen:     gen,
		latency: NewStat("flush"),
	}
}

// claim reserves the size of the next batch. 0 means we're done
func (f *feeder) claim() int {
	if f.total <= 0 {
		return f.batch
	}
	for {
		c := atomic.LoadInt64(&f.claimed)
		if c >= f.total {
			return 0
		}
		n := int64(f.batch)
		if c+n > f.total {
			n = f.total - c
		}
		if atomic.CompareAndSwapInt64(&f.claimed, c, c+n) {
			return int(n)
		}
	}
}

// run publishes until the total is reached or ctx is done,
// and returns how many transactions were published successfully.
// failed flushes are logged and counted, but don't stop the feed.
func (f *feeder) run(ctx context.Context) int {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < f.workers; i++ {
		g.Go(func() error {
			txs := make([]schema.TransactionData, 0, f.batch)
			for {
				n := f.claim()
				if n == 0 {
					return nil
				}
				if err := f.limiter.WaitN(ctx, n); err != nil {
					// ctx done
					return nil
				}
				now := time.Now()
				txs = txs[:0]
				f.genLock.Lock()
				for j := 0; j < n; j++ {
					txs = append(txs, f.gen(now))
				}
				f.genLock.Unlock()
				pre := time.Now()
				err := f.out.Flush(txs)
				f.latency.Add(time.Since(pre))
				if err != nil {
					atomic.AddInt64(&f.failed, 1)
					flushErrors.Inc()
					log.Errorf("failed to flush %d transactions: %s", n, err)
					continue
				}
				atomic.AddInt64(&f.published, int64(n))
			}
		})
	}
	g.Wait()
	return int(atomic.LoadInt64(&f.published))
}
