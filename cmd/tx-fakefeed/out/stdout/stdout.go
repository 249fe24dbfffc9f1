package stdout

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/balaghali/N26Statistics/cmd/tx-fakefeed/out"
	"github.com/balaghali/N26Statistics/schema"
)

// Stdout writes every transaction as a json line
type Stdout struct {
	sync.Mutex
	out.OutStats
	w   io.Writer
	buf []byte
}

func New() *Stdout {
	return newWriter(os.Stdout)
}

func newWriter(w io.Writer) *Stdout {
	return &Stdout{
		OutStats: out.NewStats("stdout"),
		w:        w,
	}
}

func (s *Stdout) Close() error {
	return nil
}

func (s *Stdout) Flush(txs []schema.TransactionData) error {
	if len(txs) == 0 {
		s.FlushDuration.Value(0)
		return nil
	}
	preFlush := time.Now()
	s.Lock()
	defer s.Unlock()
	buf := s.buf[:0]
	var err error
	for _, tx := range txs {
		buf, err = tx.MarshalJSONFast(buf)
		if err != nil {
			s.PublishErrors.Inc()
			return err
		}
		buf = append(buf, '\n')
	}
	s.buf = buf
	prePub := time.Now()
	if _, err := s.w.Write(buf); err != nil {
		s.PublishErrors.Inc()
		return err
	}
	s.MessageBytes.Value(len(buf))
	s.PublishedTransactions.Add(len(txs))
	s.PublishedMessages.Inc()
	s.PublishDuration.Value(time.Since(prePub))
	s.FlushDuration.Value(time.Since(preFlush))
	return nil
}
