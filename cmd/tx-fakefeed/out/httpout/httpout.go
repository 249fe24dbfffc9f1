// Package httpout publishes transactions to the http api, one request per transaction.
package httpout

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/balaghali/N26Statistics/cmd/tx-fakefeed/out"
	"github.com/balaghali/N26Statistics/schema"
	"github.com/balaghali/N26Statistics/stats"
	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"
)

type HTTP struct {
	out.OutStats
	url         string
	client      *http.Client
	maxAttempts int
	backoffMin  time.Duration

	accepted *stats.Counter32
	ignored  *stats.Counter32
}

// New creates an output that posts to the /transactions endpoint of the server at addr,
// e.g. http://localhost:8080
func New(addr string, timeout time.Duration, maxAttempts int) (*HTTP, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid http address %q: scheme must be http or https", addr)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid http address %q: no host", addr)
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/transactions"
	return &HTTP{
		OutStats:    out.NewStats("http"),
		url:         u.String(),
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		backoffMin:  100 * time.Millisecond,
		accepted:    stats.NewCounter32("out.http.accepted"),
		ignored:     stats.NewCounter32("out.http.ignored"),
	}, nil
}

func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *HTTP) Flush(txs []schema.TransactionData) error {
	if len(txs) == 0 {
		h.FlushDuration.Value(0)
		return nil
	}
	preFlush := time.Now()
	var buf []byte
	var err error
	for _, tx := range txs {
		buf, err = tx.MarshalJSONFast(buf[:0])
		if err != nil {
			h.PublishErrors.Inc()
			return err
		}
		h.MessageBytes.Value(len(buf))
		prePub := time.Now()
		err = h.send(buf)
		if err != nil {
			h.PublishErrors.Inc()
			return err
		}
		h.PublishDuration.Value(time.Since(prePub))
		h.PublishedMessages.Inc()
		h.PublishedTransactions.Inc()
	}
	h.FlushDuration.Value(time.Since(preFlush))
	return nil
}

// send posts one payload. network errors and 5xx responses are retried with backoff,
// any other non-2xx response is returned as an error straight away
func (h *HTTP) send(data []byte) error {
	b := &backoff.Backoff{
		Min:    h.backoffMin,
		Max:    10 * time.Second,
		Factor: 1.5,
		Jitter: true,
	}
	for attempt := 1; ; attempt++ {
		pre := time.Now()
		req, err := http.NewRequest("POST", h.url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := h.client.Do(req)
		diff := time.Since(pre)
		if err == nil {
			body, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 300))
			resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusCreated:
				h.accepted.Inc()
				return nil
			case resp.StatusCode == http.StatusNoContent:
				h.ignored.Inc()
				return nil
			case resp.StatusCode < 500:
				return fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(body))
			}
			err = fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		}
		if attempt >= h.maxAttempts {
			return fmt.Errorf("giving up after %d attempts: %s", attempt, err)
		}
		dur := b.Duration()
		log.Warnf("httpout: failed to submit transaction: %s. will try again in %s (this attempt took %s)", err, dur, diff)
		time.Sleep(dur)
	}
}
