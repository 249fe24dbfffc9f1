package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/balaghali/N26Statistics/window"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func snapshotOf(amounts ...string) window.Snapshot {
	now := time.UnixMilli(1546300800000)
	w := window.New(window.DefaultSize)
	for i, a := range amounts {
		w.Add(window.NewTransaction(decimal.RequireFromString(a), now.Add(-time.Duration(i)*time.Second)), now)
	}
	return w.Snapshot(now)
}

func TestStatisticsJSON(t *testing.T) {
	cases := []struct {
		name string
		in   window.Snapshot
		out  string
	}{
		{
			"empty",
			snapshotOf(),
			`{"sum":0,"avg":0,"max":0,"min":0,"count":0}`,
		},
		{
			"ten-amounts",
			snapshotOf("5.5", "15.5", "25.2", "65.5", "5.7", "5.8", "3.5", "2.8", "9.5", "12.3"),
			`{"sum":151.3,"avg":15.13,"max":65.5,"min":2.8,"count":10}`,
		},
		{
			"negative",
			snapshotOf("-1", "-2.25"),
			`{"sum":-3.25,"avg":-1.625,"max":-1,"min":-2.25,"count":2}`,
		},
	}
	for _, c := range cases {
		got, err := NewStatistics(c.in).MarshalJSONFast(nil)
		if err != nil {
			t.Fatalf("case %s: unexpected error %s", c.name, err)
		}
		if string(got) != c.out {
			t.Fatalf("case %s: bad json output.\nexpected:%s\ngot:     %s\n", c.name, c.out, got)
		}
		if !json.Valid(got) {
			t.Fatalf("case %s: output is not valid json: %s", c.name, got)
		}
	}
}

func TestStatisticsMsgp(t *testing.T) {
	in := NewStatistics(snapshotOf("5.5", "15.5", "0.1"))
	b, err := in.MarshalMsg(nil)
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	if len(b) > in.Msgsize() {
		t.Fatalf("Msgsize %d underestimates encoded size %d", in.Msgsize(), len(b))
	}
	var out Statistics
	rest, err := out.UnmarshalMsg(b)
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected all bytes consumed, %d left", len(rest))
	}
	eq := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(in, out, eq); diff != "" {
		t.Fatalf("msgp mismatch (-want +got):\n%s", diff)
	}
}
