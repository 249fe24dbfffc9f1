package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/balaghali/N26Statistics/cmd/tx-fakefeed/policy"
	"github.com/balaghali/N26Statistics/schema"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	count   int
	backlog time.Duration
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Publishes a realtime feed of transactions",
	Run: func(cmd *cobra.Command, args []string) {
		o := getOutput()
		defer o.Close()

		ap, err := policy.ParseAmountPolicy(amountPolicy)
		if err != nil {
			log.Fatal(err)
		}

		ctx, cancel := feedContext()
		defer cancel()

		log.Infof("feeding %d transactions (0 = unlimited) at %.2f/s, %d workers, batches of %d, backlog %s", count, ratePerS, workers, batch, backlog)
		f := newFeeder(o, ratePerS, batch, workers, count, func(now time.Time) schema.TransactionData {
			ts := now.Add(-backlog)
			return schema.NewTransactionData(ap.Amount(ts.Unix()), ts)
		})
		pre := time.Now()
		n := runWithReport(ctx, f)
		log.Infof("published %d transactions in %s", n, time.Since(pre))
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.Flags().IntVar(&count, "count", 0, "how many transactions to send. 0 means unlimited")
	feedCmd.Flags().DurationVar(&backlog, "backlog", 0, "how far in the past the timestamps of the transactions are")
}

// feedContext is cancelled on SIGINT/SIGTERM and once the requested duration lapses
func feedContext() (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if runFor > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), runFor)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Infof("Received signal %q. Shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// runWithReport runs f, optionally with a live progress display,
// and reports the flush latencies when done
func runWithReport(ctx context.Context, f *feeder) int {
	var wg sync.WaitGroup
	progressCtx, stopProgress := context.WithCancel(context.Background())
	defer stopProgress()
	if live {
		wg.Add(1)
		go showProgress(progressCtx, f, &wg)
	}
	n := f.run(ctx)
	stopProgress()
	wg.Wait()
	if err := f.latency.Report(os.Stdout); err != nil {
		log.Errorf("failed to report flush latencies: %s", err)
	}
	return n
}
