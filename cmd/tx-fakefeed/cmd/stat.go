package cmd

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spenczar/tdigest"
)

// Stat tracks the latency distribution of an operation
type Stat struct {
	sync.Mutex
	Name  string
	Count int
	Total time.Duration
	Max   time.Duration
	td    *tdigest.TDigest
}

func NewStat(name string) *Stat {
	return &Stat{
		Name: name,
		td:   tdigest.New(),
	}
}

func (s *Stat) Add(dur time.Duration) {
	s.Lock()
	s.Count++
	s.Total += dur
	if dur > s.Max {
		s.Max = dur
	}
	s.td.Add(float64(dur), 1)
	s.Unlock()
}

// Quantile returns the approximate latency at quantile q (0 <= q <= 1)
func (s *Stat) Quantile(q float64) time.Duration {
	s.Lock()
	defer s.Unlock()
	if s.Count == 0 {
		return 0
	}
	return time.Duration(s.td.Quantile(q))
}

func (s *Stat) Report(w io.Writer) error {
	var mean time.Duration
	if s.Count > 0 {
		mean = time.Duration(float64(s.Total) / float64(s.Count))
	}
	p50 := s.Quantile(0.50)
	p95 := s.Quantile(0.95)
	p99 := s.Quantile(0.99)

	s.Lock()
	defer s.Unlock()

	const fmtstr = "Name\t%s\n" +
		"Flushes\t[total]\t%d\n" +
		"Latencies\t[mean, 50, 95, 99, max]\t%s, %s, %s, %s, %s\n"

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.StripEscape)
	_, err := fmt.Fprintf(tw, fmtstr, s.Name, s.Count, mean, p50, p95, p99, s.Max)
	if err != nil {
		return err
	}
	return tw.Flush()
}
