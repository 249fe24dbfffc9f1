package clock

import (
	"testing"
	"time"
)

func TestAlignedTickLossy(t *testing.T) {
	period := 100 * time.Millisecond
	lateToleration := 10 * time.Millisecond

	done := make(chan struct{})
	defer close(done)

	// whatever time it is now, we expect the tick pointing to the next aligned tick,
	// and we expect to see it slightly after that timestamp
	tick := AlignedTickLossy(period, done)
	now := time.Now()
	expTick := time.Unix(0, (1+now.UnixNano()/int64(period))*int64(period))
	expWithin := expTick.Sub(now)
	select {
	case v0 := <-tick:
		if !v0.Equal(expTick) {
			t.Fatalf("expected v0 %v, got %v", expTick, v0)
		}
		elapsed := time.Since(now)
		if elapsed < expWithin-lateToleration || elapsed > expWithin+lateToleration {
			t.Fatalf("expected to see tick v0 after %v to %v, but it took %v", expWithin, expWithin+lateToleration, elapsed)
		}
	case <-time.After(period + 10*time.Millisecond):
		t.Fatalf("did not get tick v0 on time")
	}

	// skip 3 periods. the ticks in between are dropped, we get the next one after that.
	// the tick for the boundary we just passed may already be pending, so either that one
	// or the following one is fine, as long as it's aligned and recent.
	time.Sleep(3 * period)
	now = time.Now()
	select {
	case v1 := <-tick:
		if v1.UnixNano()%int64(period) != 0 {
			t.Fatalf("expected v1 aligned to %v, got %v", period, v1)
		}
		if v1.Before(now.Add(-period)) || v1.After(now.Add(period)) {
			t.Fatalf("expected v1 within %v of %v, got %v", period, now, v1)
		}
	case <-time.After(period + 10*time.Millisecond):
		t.Fatalf("did not get tick v1 on time")
	}
}

func TestAlignedTickLossyStops(t *testing.T) {
	done := make(chan struct{})
	tick := AlignedTickLossy(20*time.Millisecond, done)
	<-tick
	close(done)
	select {
	case v := <-tick:
		t.Fatalf("expected no more ticks after stop, got %v", v)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestFake(t *testing.T) {
	start := time.UnixMilli(1546300800000)
	f := NewFake(start)
	if !f.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, f.Now())
	}
	got := f.Add(61 * time.Second)
	if exp := start.Add(61 * time.Second); !got.Equal(exp) || !f.Now().Equal(exp) {
		t.Fatalf("expected %v, got %v and %v", exp, got, f.Now())
	}
	f.Set(start)
	if !f.Now().Equal(start) {
		t.Fatalf("expected %v after Set, got %v", start, f.Now())
	}
}
