// Package out holds the destinations fake transactions are published to.
package out

import (
	"fmt"

	"github.com/balaghali/N26Statistics/schema"
	"github.com/balaghali/N26Statistics/stats"
)

type Out interface {
	Close() error
	Flush(txs []schema.TransactionData) error
}

// OutStats are the standard metrics that all outputs have
type OutStats struct {
	FlushDuration         *stats.LatencyHistogram15s32 // duration of Flush() call
	PublishDuration       *stats.LatencyHistogram15s32 // duration of the actual publishing of the data
	PublishErrors         *stats.Counter32             // number of failed publishes
	PublishedTransactions *stats.Counter32             // number of transactions published
	PublishedMessages     *stats.Counter32             // number of messages (requests or kafka messages) published
	MessageBytes          *stats.Meter32               // number of bytes per message
}

func NewStats(name string) OutStats {
	return OutStats{
		FlushDuration:         stats.NewLatencyHistogram15s32(fmt.Sprintf("out.%s.flush_duration", name)),
		PublishDuration:       stats.NewLatencyHistogram15s32(fmt.Sprintf("out.%s.publish_duration", name)),
		PublishErrors:         stats.NewCounter32(fmt.Sprintf("out.%s.publish_errors", name)),
		PublishedTransactions: stats.NewCounter32(fmt.Sprintf("out.%s.published_transactions", name)),
		PublishedMessages:     stats.NewCounter32(fmt.Sprintf("out.%s.published_messages", name)),
		MessageBytes:          stats.NewMeter32(fmt.Sprintf("out.%s.message_bytes", name)),
	}
}
