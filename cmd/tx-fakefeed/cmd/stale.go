package cmd

import (
	"time"

	"github.com/balaghali/N26Statistics/cmd/tx-fakefeed/policy"
	"github.com/balaghali/N26Statistics/schema"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	staleCount int
	staleAge   time.Duration
)

var staleCmd = &cobra.Command{
	Use:   "stale",
	Short: "Sends transactions that are too old to be part of the window. The server should ignore all of them",
	Run: func(cmd *cobra.Command, args []string) {
		if staleAge <= 0 {
			log.Fatal("age must be positive")
		}
		o := getOutput()
		defer o.Close()

		ap, err := policy.ParseAmountPolicy(amountPolicy)
		if err != nil {
			log.Fatal(err)
		}

		ctx, cancel := feedContext()
		defer cancel()

		f := newFeeder(o, ratePerS, batch, workers, staleCount, func(now time.Time) schema.TransactionData {
			ts := now.Add(-staleAge)
			return schema.NewTransactionData(ap.Amount(ts.Unix()), ts)
		})
		n := runWithReport(ctx, f)
		log.Infof("published %d stale transactions, %s old", n, staleAge)
	},
}

func init() {
	rootCmd.AddCommand(staleCmd)
	staleCmd.Flags().IntVar(&staleCount, "count", 100, "how many transactions to send")
	staleCmd.Flags().DurationVar(&staleAge, "age", 61*time.Second, "how old the transactions are. anything at least the window size is stale")
}
