package cmd

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gosuri/uilive"
)

// showProgress keeps a live status line of the feeder on the terminal until ctx is done
func showProgress(ctx context.Context, f *feeder, wg *sync.WaitGroup) {
	defer wg.Done()
	start := time.Now()

	writer := uilive.New()
	writer.Start()

	report := func() {
		published := atomic.LoadInt64(&f.published)
		failed := atomic.LoadInt64(&f.failed)
		elapsed := time.Since(start)
		fmt.Fprintf(writer, "published %d transactions (%.1f/s), %d failed flushes, p95 flush latency %s\n",
			published, float64(published)/elapsed.Seconds(), failed, f.latency.Quantile(0.95))
	}

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			report()
			writer.Flush()
		case <-ctx.Done():
			report()
			fmt.Fprintf(writer, "Finished in %v\n", time.Since(start))
			writer.Stop()
			return
		}
	}
}
