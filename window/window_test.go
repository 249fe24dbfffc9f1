package window

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.UnixMilli(1546300800000)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ago(now time.Time, ms int) time.Time {
	return now.Add(-time.Duration(ms) * time.Millisecond)
}

func TestWindowScenarios(t *testing.T) {
	Convey("Given an empty window", t, func() {
		w := New(DefaultSize)
		now := base

		Convey("the snapshot is all zeros", func() {
			s := w.Snapshot(now)
			So(s.Count, ShouldEqual, 0)
			So(s.Sum.IsZero(), ShouldBeTrue)
			So(s.Avg.IsZero(), ShouldBeTrue)
			So(s.Min.IsZero(), ShouldBeTrue)
			So(s.Max.IsZero(), ShouldBeTrue)
		})

		Convey("eviction is a no-op", func() {
			So(w.EvictExpired(now), ShouldEqual, 0)
		})

		Convey("missing fields are rejected", func() {
			amount := dec("1")
			ts := now
			So(w.Ingest(nil, &ts, now), ShouldBeFalse)
			So(w.Ingest(&amount, nil, now), ShouldBeFalse)
			So(w.Len(), ShouldEqual, 0)
		})

		Convey("when ingesting 10 recent transactions", func() {
			amounts := []string{"5.5", "15.5", "25.2", "65.5", "5.7", "5.8", "3.5", "2.8", "9.5", "12.3"}
			for i, a := range amounts {
				amount := dec(a)
				ts := ago(now, 10000-1000*i)
				So(w.Ingest(&amount, &ts, now), ShouldBeTrue)
			}
			s := w.Snapshot(now)
			So(s.Count, ShouldEqual, 10)
			So(s.Sum.String(), ShouldEqual, "151.3")
			So(s.Avg.String(), ShouldEqual, "15.13")
			So(s.Min.String(), ShouldEqual, "2.8")
			So(s.Max.String(), ShouldEqual, "65.5")
		})

		Convey("when ingesting 100 transactions older than 70s", func() {
			for i := 0; i < 100; i++ {
				amount := decimal.NewFromInt(int64(i))
				ts := ago(now, 70000+i*100)
				So(w.Ingest(&amount, &ts, now), ShouldBeFalse)
			}
			So(w.Snapshot(now).Count, ShouldEqual, 0)
		})

		Convey("a timestamp exactly one window old is rejected", func() {
			amount := dec("1")
			ts := now.Add(-DefaultSize)
			So(w.Ingest(&amount, &ts, now), ShouldBeFalse)
			ts = ts.Add(time.Millisecond)
			So(w.Ingest(&amount, &ts, now), ShouldBeTrue)
		})

		Convey("a timestamp in the future is accepted", func() {
			amount := dec("3")
			ts := now.Add(5 * time.Second)
			So(w.Ingest(&amount, &ts, now), ShouldBeTrue)
			So(w.Snapshot(now).Count, ShouldEqual, 1)
		})

		Convey("when ingesting a single 10.5 and waiting 61s", func() {
			amount := dec("10.5")
			ts := now
			So(w.Ingest(&amount, &ts, now), ShouldBeTrue)
			s := w.Snapshot(now.Add(61 * time.Second))
			So(s.Count, ShouldEqual, 0)
			So(s.Sum.IsZero(), ShouldBeTrue)
			So(s.Avg.IsZero(), ShouldBeTrue)
			So(s.Min.IsZero(), ShouldBeTrue)
			So(s.Max.IsZero(), ShouldBeTrue)
		})
	})
}

func TestEvictValidAndStale(t *testing.T) {
	Convey("Given 100 valid transactions ingested, followed by 100 that go stale", t, func() {
		w := New(DefaultSize)
		now := base
		r := rand.New(rand.NewSource(42))

		exp := aggregation{}
		expMin, expMax := decimal.Zero, decimal.Zero
		for i := 0; i < 100; i++ {
			amount := decimal.NewFromInt(r.Int63n(100000)).Shift(-2)
			ts := ago(now, r.Intn(59000))
			So(w.Ingest(&amount, &ts, now), ShouldBeTrue)
			exp.Add(amount)
			if i == 0 || amount.LessThan(expMin) {
				expMin = amount
			}
			if i == 0 || amount.GreaterThan(expMax) {
				expMax = amount
			}
		}
		// these were valid at ingestion time, but are stale 5s later
		ingestedAt := ago(now, 10000)
		for i := 0; i < 100; i++ {
			amount := decimal.NewFromInt(r.Int63n(100000)).Shift(-2)
			ts := ago(ingestedAt, 55000+r.Intn(4000))
			So(w.Ingest(&amount, &ts, ingestedAt), ShouldBeTrue)
		}
		So(w.Len(), ShouldEqual, 200)

		Convey("evicting removes exactly the stale ones", func() {
			So(w.EvictExpired(now), ShouldEqual, 100)
			So(w.EvictExpired(now), ShouldEqual, 0)

			s := w.Snapshot(now)
			So(s.Count, ShouldEqual, 100)
			So(s.Sum.Equal(exp.sum), ShouldBeTrue)
			So(s.Avg.Equal(exp.Avg()), ShouldBeTrue)
			So(s.Min.Equal(expMin), ShouldBeTrue)
			So(s.Max.Equal(expMax), ShouldBeTrue)
		})
	})
}

func TestExtremumAfterExpiry(t *testing.T) {
	Convey("Given a window whose extremes are its oldest members", t, func() {
		w := New(DefaultSize)
		now := base
		w.Add(NewTransaction(dec("1"), ago(now, 50000)), now)
		w.Add(NewTransaction(dec("100"), ago(now, 49000)), now)
		w.Add(NewTransaction(dec("50"), ago(now, 10000)), now)
		w.Add(NewTransaction(dec("20"), ago(now, 5000)), now)

		s := w.Snapshot(now)
		So(s.Min.String(), ShouldEqual, "1")
		So(s.Max.String(), ShouldEqual, "100")

		Convey("the next best values take over once they expire", func() {
			s := w.Snapshot(now.Add(11500 * time.Millisecond))
			So(s.Count, ShouldEqual, 2)
			So(s.Min.String(), ShouldEqual, "20")
			So(s.Max.String(), ShouldEqual, "50")
			So(s.Sum.String(), ShouldEqual, "70")
		})
	})
}

func TestOutOfOrderIngestion(t *testing.T) {
	Convey("Given transactions arriving out of timestamp order", t, func() {
		w := New(DefaultSize)
		now := base
		w.Add(NewTransaction(dec("5"), ago(now, 1000)), now)
		w.Add(NewTransaction(dec("2"), ago(now, 30000)), now)
		w.Add(NewTransaction(dec("9"), ago(now, 20000)), now)
		w.Add(NewTransaction(dec("7"), ago(now, 40000)), now)

		Convey("members are kept in timestamp order", func() {
			members := w.Members()
			So(len(members), ShouldEqual, 4)
			for i := 1; i < len(members); i++ {
				So(members[i].Timestamp.Before(members[i-1].Timestamp), ShouldBeFalse)
			}
		})

		Convey("extremes follow the members as they expire", func() {
			s := w.Snapshot(now)
			So(s.Min.String(), ShouldEqual, "2")
			So(s.Max.String(), ShouldEqual, "9")

			// drops 7
			s = w.Snapshot(now.Add(25 * time.Second))
			So(s.Count, ShouldEqual, 3)
			So(s.Min.String(), ShouldEqual, "2")
			So(s.Max.String(), ShouldEqual, "9")

			// drops 2
			s = w.Snapshot(now.Add(35 * time.Second))
			So(s.Min.String(), ShouldEqual, "5")
			So(s.Max.String(), ShouldEqual, "9")

			// drops 9
			s = w.Snapshot(now.Add(45 * time.Second))
			So(s.Count, ShouldEqual, 1)
			So(s.Min.String(), ShouldEqual, "5")
			So(s.Max.String(), ShouldEqual, "5")
		})
	})
}

// bruteForce computes the statistics of the given log the slow way
func bruteForce(log []Transaction, size time.Duration, now time.Time) Snapshot {
	var s Snapshot
	for _, tx := range log {
		if !tx.Timestamp.After(now.Add(-size)) {
			continue
		}
		if s.Count == 0 || tx.Amount.LessThan(s.Min) {
			s.Min = tx.Amount
		}
		if s.Count == 0 || tx.Amount.GreaterThan(s.Max) {
			s.Max = tx.Amount
		}
		s.Sum = s.Sum.Add(tx.Amount)
		s.Count++
	}
	if s.Count > 0 {
		s.Avg = s.Sum.Div(decimal.NewFromInt(int64(s.Count)))
	}
	return s
}

func snapshotsEqual(a, b Snapshot) bool {
	return a.Count == b.Count && a.Sum.Equal(b.Sum) && a.Avg.Equal(b.Avg) && a.Min.Equal(b.Min) && a.Max.Equal(b.Max)
}

func TestAgainstBruteForce(t *testing.T) {
	cases := []struct {
		name   string
		maxLag int // how far behind now a timestamp may be, in ms
		skew   int // how far ahead of now a timestamp may be, in ms
	}{
		{"in-order", 0, 0},
		{"mildly-out-of-order", 2000, 0},
		{"heavily-out-of-order", 59000, 0},
		{"with-future-timestamps", 5000, 3000},
	}
	size := 10 * time.Second
	for _, c := range cases {
		r := rand.New(rand.NewSource(7))
		w := New(size)
		var log []Transaction
		now := base
		for step := 0; step < 5000; step++ {
			now = now.Add(time.Duration(r.Intn(50)) * time.Millisecond)
			ts := now
			if c.maxLag > 0 {
				ts = ago(now, r.Intn(c.maxLag))
			}
			if c.skew > 0 && r.Intn(10) == 0 {
				ts = now.Add(time.Duration(r.Intn(c.skew)) * time.Millisecond)
			}
			tx := NewTransaction(decimal.NewFromInt(r.Int63n(2000)-1000).Shift(-1), ts)
			accepted := w.Add(tx, now)
			if accepted != tx.Timestamp.After(now.Add(-size)) {
				t.Fatalf("case %s step %d: accepted=%t for %s at now %d", c.name, step, accepted, tx, now.UnixMilli())
			}
			if accepted {
				log = append(log, tx)
			}
			switch r.Intn(4) {
			case 0:
				w.EvictExpired(now)
			case 1:
				got := w.Snapshot(now)
				exp := bruteForce(log, size, now)
				if !snapshotsEqual(got, exp) {
					t.Fatalf("case %s step %d: snapshot mismatch.\nexpected: %s\ngot:      %s", c.name, step, spew.Sdump(exp), spew.Sdump(got))
				}
			}
		}
		// every pending member expires eventually
		s := w.Snapshot(now.Add(size + time.Minute))
		if s.Count != 0 || !s.Sum.IsZero() || !s.Min.IsZero() || !s.Max.IsZero() {
			t.Fatalf("case %s: expected empty window at the end, got %s", c.name, spew.Sdump(s))
		}
		if w.ext.min.Len() != 0 || w.ext.max.Len() != 0 {
			t.Fatalf("case %s: expected empty deques, got %d and %d", c.name, w.ext.min.Len(), w.ext.max.Len())
		}
	}
}

func TestIdempotentEviction(t *testing.T) {
	w := New(DefaultSize)
	now := base
	for i := 0; i < 50; i++ {
		w.Add(NewTransaction(decimal.NewFromInt(int64(i)), ago(now, i*1000)), now)
	}
	later := now.Add(30 * time.Second)
	first := w.EvictExpired(later)
	exp := w.Snapshot(later)
	for i := 0; i < 3; i++ {
		if n := w.EvictExpired(later); n != 0 {
			t.Fatalf("repeated eviction %d removed %d members, expected 0", i, n)
		}
	}
	if first != 20 {
		t.Fatalf("expected first eviction to remove 20 members, got %d", first)
	}
	if got := w.Snapshot(later); !snapshotsEqual(got, exp) {
		t.Fatalf("snapshot changed after repeated eviction.\nexpected: %s\ngot:      %s", spew.Sdump(exp), spew.Sdump(got))
	}
}

func TestTransactionEqual(t *testing.T) {
	a := NewTransaction(dec("1.50"), base)
	b := NewTransaction(dec("1.5"), base)
	c := NewTransaction(dec("1.5"), base.Add(time.Millisecond))
	if !a.Equal(b) {
		t.Fatalf("expected %s to equal %s", a, b)
	}
	if a.Equal(c) {
		t.Fatalf("expected %s not to equal %s", a, c)
	}
}

func TestLockNotExported(t *testing.T) {
	var w interface{} = New(DefaultSize)
	if _, ok := w.(sync.Locker); ok {
		t.Fatalf("expected *Window not to implement sync.Locker, callers could hold the window lock")
	}
}
