package main

import (
	"context"
	"flag"
	"fmt"
	l "log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Dieterbe/profiletrigger/heap"
	"github.com/Shopify/sarama"
	"github.com/balaghali/N26Statistics/api"
	"github.com/balaghali/N26Statistics/clock"
	"github.com/balaghali/N26Statistics/input"
	"github.com/balaghali/N26Statistics/input/kafkatx"
	"github.com/balaghali/N26Statistics/jaeger"
	"github.com/balaghali/N26Statistics/logger"
	"github.com/balaghali/N26Statistics/stats"
	statsConfig "github.com/balaghali/N26Statistics/stats/config"
	"github.com/balaghali/N26Statistics/sweeper"
	"github.com/balaghali/N26Statistics/window"
	"github.com/grafana/globalconf"
	"github.com/raintank/dur"
	log "github.com/sirupsen/logrus"
)

var (
	version = "(none)"

	apiServer *api.Server
	sweep     *sweeper.Sweeper
	inputs    []input.Plugin

	instance    = flag.String("instance", "default", "instance identifier. used for naming kafka clients and emitted metrics")
	showVersion = flag.Bool("version", false, "print version string")
	confFile    = flag.String("config", "/etc/txstats/txstats.ini", "configuration file path")

	windowSizeStr = flag.String("window-size", "60s", "span of the sliding window. only transactions younger than this are part of the statistics")

	logLevel = flag.String("log-level", "info", "log level. panic|fatal|error|warning|info|debug")

	blockProfileRate = flag.Int("block-profile-rate", 0, "see https://golang.org/pkg/runtime/#SetBlockProfileRate")
	mutexProfileRate = flag.Int("mutex-profile-rate", 0, "see https://golang.org/pkg/runtime/#SetMutexProfileFraction")

	proftrigPath       = flag.String("proftrigger-path", "/tmp", "path to store triggered profiles")
	proftrigFreqStr    = flag.String("proftrigger-freq", "60s", "inspect status frequency. set to 0 to disable")
	proftrigMinDiffStr = flag.String("proftrigger-min-diff", "1h", "minimum time between triggered profiles")
	proftrigHeapThresh = flag.Int("proftrigger-heap-thresh", 25000000000, "if this many bytes allocated, trigger a profile")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("txstats (version: %s - runtime: %s)\n", version, runtime.Version())
		return
	}

	// Only try and parse the conf file if it exists
	path := ""
	if _, err := os.Stat(*confFile); err == nil {
		path = *confFile
	}
	// no prefix: the http port is read from HTTP_PORT
	config, err := globalconf.NewWithOptions(&globalconf.Options{
		Filename:  path,
		EnvPrefix: "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: configuration file error: %s", err)
		os.Exit(1)
	}

	api.ConfigSetup()
	sweeper.ConfigSetup()
	kafkatx.ConfigSetup()
	statsConfig.ConfigSetup()
	jaeger.ConfigSetup()

	config.ParseAll()

	if err := logger.Setup(*logLevel, ""); err != nil {
		log.Fatal(err)
	}
	log.Infof("logging level set to '%s'", *logLevel)

	if *instance == "" {
		log.Fatal("instance can't be empty")
	}

	api.ConfigProcess()
	sweeper.ConfigProcess()
	kafkatx.ConfigProcess(*instance)
	statsConfig.ConfigProcess(*instance)
	jaeger.ConfigProcess()

	windowSize := time.Duration(dur.MustParseNDuration("window-size", *windowSizeStr)) * time.Second

	proftrigFreq := dur.MustParseDuration("proftrigger-freq", *proftrigFreqStr)
	proftrigMinDiff := int(dur.MustParseNDuration("proftrigger-min-diff", *proftrigMinDiffStr))
	if proftrigFreq > 0 {
		errors := make(chan error)
		trigger, _ := heap.New(heap.Config{
			Path:        *proftrigPath,
			ThreshHeap:  *proftrigHeapThresh,
			MinTimeDiff: time.Duration(proftrigMinDiff) * time.Second,
			CheckEvery:  time.Duration(proftrigFreq) * time.Second,
		}, errors)
		go func() {
			for e := range errors {
				log.Errorf("profiletrigger heap: %s", e)
			}
		}()
		go trigger.Run()
	}

	runtime.SetBlockProfileRate(*blockProfileRate)
	runtime.SetMutexProfileFraction(*mutexProfileRate)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Infof("txstats starting. version: %s - runtime: %s", version, runtime.Version())
	// metric version.%s is the version of txstats running.  The metric value is always 1
	txVersion := stats.NewBool(fmt.Sprintf("version.%s", strings.Replace(version, ".", "_", -1)))
	txVersion.Set(true)

	statsConfig.Start()

	tracer, traceCloser, err := jaeger.Get()
	if err != nil {
		log.Fatalf("Could not initialize jaeger tracer: %s", err.Error())
	}
	defer traceCloser.Close()

	/***********************************
		Initialize the window and its sweeper
	***********************************/
	wall := clock.Real{}
	w := window.New(windowSize)
	log.Infof("window size %s, sweeping every %s", w.Size(), sweeper.Interval)
	sweep = sweeper.New(w, wall, sweeper.Interval, sweeper.Aligned)
	sweep.Start()

	/***********************************
		Initialize our API server
	***********************************/
	apiServer, err = api.NewServer()
	if err != nil {
		log.Fatalf("Failed to start API. %s", err.Error())
	}
	apiServer.BindWindow(w)
	apiServer.BindClock(wall)
	apiServer.BindTracer(tracer)
	go apiServer.Run()

	/***********************************
		Initialize and start our inputs
	***********************************/
	// note. all these New functions must either return a valid instance or call log.Fatal
	if kafkatx.Enabled {
		sarama.Logger = l.New(os.Stdout, "[Sarama] ", l.LstdFlags)
		inputs = append(inputs, kafkatx.New())
	}

	ctx, cancel := context.WithCancel(context.Background())
	for _, plugin := range inputs {
		err = plugin.Start(input.NewDefaultHandler(w, wall, plugin.Name()), cancel)
		if err != nil {
			shutdown()
			return
		}
	}

	select {
	case sig := <-sigChan:
		log.Infof("Received signal %q. Shutting down", sig)
	case <-ctx.Done():
		log.Info("An input plugin signalled a fatal error. Shutting down")
	}
	shutdown()
}

func shutdown() {
	apiServer.Stop()

	// shutdown our input plugins. These may take a while as we allow them
	// to finish handing over transactions that have already been consumed.
	timer := time.NewTimer(time.Second * 10)
	var wg sync.WaitGroup
	for _, plugin := range inputs {
		wg.Add(1)
		go func(plugin input.Plugin) {
			log.Infof("Shutting down %s consumer", plugin.Name())
			plugin.Stop()
			log.Infof("%s consumer finished shutdown", plugin.Name())
			wg.Done()
		}(plugin)
	}
	pluginsStopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(pluginsStopped)
	}()
	select {
	case <-timer.C:
		log.Warn("Plugins taking too long to shutdown, not waiting any longer.")
	case <-pluginsStopped:
		timer.Stop()
	}

	sweep.Stop()
	log.Info("terminating.")
}
