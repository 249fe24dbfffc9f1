// Package input provides the interfaces, concrete implementations, and utilities
// to ingest transactions into the window
package input

import (
	"fmt"

	"github.com/balaghali/N26Statistics/clock"
	"github.com/balaghali/N26Statistics/schema"
	"github.com/balaghali/N26Statistics/stats"
	"github.com/balaghali/N26Statistics/window"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

type Handler interface {
	// ProcessTransaction returns whether the transaction was added to the window
	ProcessTransaction(data *schema.TransactionData) bool
	// ProcessUndecodable accounts for a payload that could not be decoded at all
	ProcessUndecodable(err error)
}

var promTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "txstats",
	Name:      "transactions_total",
	Help:      "The number of transactions processed, by input and result.",
}, []string{"input", "result"})

// DefaultHandler validates transactions and adds them to the window
type DefaultHandler struct {
	received *stats.Counter32
	accepted *stats.Counter32
	rejected *stats.Counter32
	invalid  *stats.Counter32

	promAccepted prometheus.Counter
	promRejected prometheus.Counter
	promInvalid  prometheus.Counter

	window *window.Window
	clock  clock.Clock
	input  string
}

func NewDefaultHandler(w *window.Window, c clock.Clock, input string) DefaultHandler {
	return DefaultHandler{
		// metric input.%s.transactions.received is the count of transactions received by the input
		received: stats.NewCounter32(fmt.Sprintf("input.%s.transactions.received", input)),
		// metric input.%s.transactions.accepted is the count of transactions added to the window
		accepted: stats.NewCounter32(fmt.Sprintf("input.%s.transactions.accepted", input)),
		// metric input.%s.transactions.rejected is the count of transactions too old for the window
		rejected: stats.NewCounter32(fmt.Sprintf("input.%s.transactions.rejected", input)),
		// metric input.%s.transactions.invalid is the count of transactions with a missing or malformed field
		invalid: stats.NewCounter32(fmt.Sprintf("input.%s.transactions.invalid", input)),

		promAccepted: promTransactions.WithLabelValues(input, "accepted"),
		promRejected: promTransactions.WithLabelValues(input, "rejected"),
		promInvalid:  promTransactions.WithLabelValues(input, "invalid"),

		window: w,
		clock:  c,
		input:  input,
	}
}

// ProcessTransaction parses the payload and ingests it at the current time.
// malformed payloads are counted and logged, never returned as errors.
// concurrency-safe.
func (in DefaultHandler) ProcessTransaction(data *schema.TransactionData) bool {
	in.received.Inc()
	amount, err := data.ParseAmount()
	if err != nil {
		in.markInvalid(err)
		return false
	}
	ts, err := data.ParseTimestamp()
	if err != nil {
		in.markInvalid(err)
		return false
	}

	now := in.clock.Now()
	if in.window.Ingest(amount, ts, now) {
		in.accepted.Inc()
		in.promAccepted.Inc()
		if log.IsLevelEnabled(log.DebugLevel) {
			log.Debugf("%s: accepted transaction of %s at %d", in.input, amount, ts.UnixMilli())
		}
		return true
	}
	if amount == nil || ts == nil {
		in.markInvalid(fmt.Errorf("missing field. amount present: %t, timestamp present: %t", amount != nil, ts != nil))
		return false
	}
	in.rejected.Inc()
	in.promRejected.Inc()
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("%s: rejected transaction at %d: older than %s", in.input, ts.UnixMilli(), in.window.Size())
	}
	return false
}

// ProcessUndecodable counts a payload that isn't a transaction document as received and invalid.
func (in DefaultHandler) ProcessUndecodable(err error) {
	in.received.Inc()
	in.markInvalid(err)
}

func (in DefaultHandler) markInvalid(err error) {
	in.invalid.Inc()
	in.promInvalid.Inc()
	log.Debugf("%s: invalid transaction: %s", in.input, err)
}
