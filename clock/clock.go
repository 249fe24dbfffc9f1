// Package clock provides the time source of the service, and aligned tickers.
//
// An aligned ticker is a channel of time.Time "ticks" similar to time.Ticker,
// but the ticks are even multiples of the requested period, and are delivered
// as shortly as possible after the clock reaching these timestamps.
// For example, with period=10s, the ticker ticks shortly after the passing of a unix
// timestamp that is a multiple of 10s, and the values returned are always these multiples.
package clock

import (
	"sync"
	"time"
)

// Clock tells the current time
type Clock interface {
	Now() time.Time
}

// Real is the wall clock
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

// Fake is a manually advanced clock, for tests.
type Fake struct {
	sync.Mutex
	now time.Time
}

func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.Lock()
	defer f.Unlock()
	return f.now
}

func (f *Fake) Set(now time.Time) {
	f.Lock()
	f.now = now
	f.Unlock()
}

// Add moves the clock forward by d and returns the new time
func (f *Fake) Add(d time.Duration) time.Time {
	f.Lock()
	f.now = f.now.Add(d)
	now := f.now
	f.Unlock()
	return now
}

// AlignedTickLossy returns an aligned ticker that may drop ticks
// (if the consumer is slow or the clock jumps forward)
// the ticker stops once done is closed.
func AlignedTickLossy(period time.Duration, done <-chan struct{}) <-chan time.Time {
	c := make(chan time.Time)
	go func() {
		for {
			now := time.Now()
			diff := period - (time.Duration(now.UnixNano()) % period)
			ideal := now.Add(diff)
			timer := time.NewTimer(diff)
			select {
			case <-done:
				timer.Stop()
				return
			case <-timer.C:
			}
			select {
			case c <- ideal:
			default:
			}
		}
	}()
	return c
}
