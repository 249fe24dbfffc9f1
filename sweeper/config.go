package sweeper

import (
	"flag"
	"time"

	"github.com/grafana/globalconf"
	"github.com/raintank/dur"
	log "github.com/sirupsen/logrus"
)

var (
	intervalStr string
	Interval    time.Duration
	Aligned     bool
)

func ConfigSetup() {
	sweepConf := flag.NewFlagSet("sweep", flag.ExitOnError)
	sweepConf.StringVar(&intervalStr, "interval", "8s", "how often to evict expired transactions from the window, besides before every query. 0 disables")
	sweepConf.BoolVar(&Aligned, "aligned", false, "run sweeps on wall clock multiples of the interval")
	globalconf.Register("sweep", sweepConf, flag.ExitOnError)
}

func ConfigProcess() {
	sec, err := dur.ParseDuration(intervalStr)
	if err != nil {
		log.Fatalf("sweep: invalid interval %q: %s", intervalStr, err)
	}
	Interval = time.Duration(sec) * time.Second
}
