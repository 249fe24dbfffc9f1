package api

import (
	"net/http"
	_ "net/http/pprof"
	"runtime"
	rpprof "runtime/pprof"
	"strconv"
	"time"
)

// sampledProfile writes out the named profile after enabling its sampling for a while.
// the standard library handlers can't do this, they rely on sampling being enabled at startup.
// query parameters: seconds (default 30), rate (default defaultRate) and debug.
func sampledProfile(w http.ResponseWriter, r *http.Request, name string, defaultRate int, setRate func(int)) {
	debug, _ := strconv.Atoi(r.FormValue("debug"))
	sec, _ := strconv.ParseInt(r.FormValue("seconds"), 10, 64)
	if sec <= 0 {
		sec = 30
	}
	rate, _ := strconv.Atoi(r.FormValue("rate"))
	if rate <= 0 {
		rate = defaultRate
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	setRate(rate)
	select {
	case <-time.After(time.Duration(sec) * time.Second):
	case <-r.Context().Done():
	}
	setRate(0)
	rpprof.Lookup(name).WriteTo(w, debug)
}

// blockHandler samples an average of one blocking event per rate nanoseconds spent blocked.
// Defaults to 10k (10 microseconds)
func blockHandler(w http.ResponseWriter, r *http.Request) {
	sampledProfile(w, r, "block", 10000, runtime.SetBlockProfileRate)
}

// mutexHandler reports on average 1/rate mutex contention events. The default is 1000
func mutexHandler(w http.ResponseWriter, r *http.Request) {
	sampledProfile(w, r, "mutex", 1000, func(rate int) { runtime.SetMutexProfileFraction(rate) })
}
