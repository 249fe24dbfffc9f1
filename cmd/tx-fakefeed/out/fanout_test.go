package out

import (
	"errors"
	"testing"
	"time"

	"github.com/balaghali/N26Statistics/schema"
	"github.com/shopspring/decimal"
)

type mockOut struct {
	flushed  int
	closed   bool
	flushErr error
	closeErr error
}

func (m *mockOut) Close() error {
	m.closed = true
	return m.closeErr
}

func (m *mockOut) Flush(txs []schema.TransactionData) error {
	m.flushed += len(txs)
	return m.flushErr
}

func TestFanOut(t *testing.T) {
	txs := []schema.TransactionData{
		schema.NewTransactionData(decimal.RequireFromString("12.3"), time.UnixMilli(1546300800000)),
		schema.NewTransactionData(decimal.RequireFromString("4"), time.UnixMilli(1546300801000)),
	}
	ok := &mockOut{}
	bad1 := &mockOut{flushErr: errors.New("broker down"), closeErr: errors.New("close failed")}
	bad2 := &mockOut{flushErr: errors.New("connection refused")}
	f := NewFanOut([]Out{ok, bad1, bad2})

	err := f.Flush(txs)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if exp := "broker down\nconnection refused"; err.Error() != exp {
		t.Fatalf("expected %q, got %q", exp, err.Error())
	}
	for i, o := range []*mockOut{ok, bad1, bad2} {
		if o.flushed != 2 {
			t.Fatalf("output %d: expected 2 transactions flushed, got %d", i, o.flushed)
		}
	}

	err = f.Close()
	if err == nil || err.Error() != "close failed" {
		t.Fatalf("expected close error, got %v", err)
	}
	if !ok.closed || !bad1.closed || !bad2.closed {
		t.Fatalf("expected all outputs to be closed")
	}

	if err := NewFanOut([]Out{ok}).Flush(txs); err != nil {
		t.Fatalf("expected no error, got %s", err)
	}
}
