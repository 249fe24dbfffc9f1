// Package jaeger configures the opentracing tracer used by txstats.
package jaeger

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/grafana/globalconf"
	opentracing "github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

var (
	Enabled                bool
	addTagsRaw             string
	addTagsParsed          map[string]string
	samplerType            string
	samplerParam           float64
	samplerManagerAddr     string
	samplerRefreshInterval time.Duration
	reporterMaxQueueSize   int
	reporterFlushInterval  time.Duration
	reporterLogSpans       bool
	collectorAddr          string
	agentAddr              string
)

func ConfigSetup() {
	jaegerConf := flag.NewFlagSet("jaeger", flag.ExitOnError)
	jaegerConf.BoolVar(&Enabled, "enabled", false, "Whether the tracer is enabled or not")
	jaegerConf.StringVar(&addTagsRaw, "add-tags", "", "A comma separated list of name=value tracer level tags, which get added to all reported spans")
	jaegerConf.StringVar(&samplerType, "sampler-type", "const", "the type of the sampler: const, probabilistic, rateLimiting, or remote")
	jaegerConf.Float64Var(&samplerParam, "sampler-param", 1, "the sampler parameter (number)")
	jaegerConf.StringVar(&samplerManagerAddr, "sampler-manager-addr", "http://jaeger:5778/sampling", "The HTTP endpoint when using the remote sampler")
	jaegerConf.DurationVar(&samplerRefreshInterval, "sampler-refresh-interval", time.Second*10, "How often the remotely controlled sampler will poll jaeger-agent for the appropriate sampling strategy")
	jaegerConf.IntVar(&reporterMaxQueueSize, "reporter-max-queue-size", 0, "The reporter's maximum queue size")
	jaegerConf.DurationVar(&reporterFlushInterval, "reporter-flush-interval", time.Second*10, "The reporter's flush interval")
	jaegerConf.BoolVar(&reporterLogSpans, "reporter-log-spans", false, "Whether the reporter should also log the spans")
	jaegerConf.StringVar(&collectorAddr, "collector-addr", "", "HTTP endpoint for sending spans directly to a collector, i.e. http://jaeger-collector:14268/api/traces")
	jaegerConf.StringVar(&agentAddr, "agent-addr", "localhost:6831", "UDP address of the agent to send spans to. (only used if collector-addr is empty)")
	globalconf.Register("jaeger", jaegerConf, flag.ExitOnError)
}

func ConfigProcess() {
	var err error
	addTagsParsed, err = parseTags(addTagsRaw)
	if err != nil {
		log.Fatalf("jaeger: %s", err)
	}
}

func parseTags(raw string) (map[string]string, error) {
	parsed := make(map[string]string)
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return parsed, nil
	}
	for _, tagSpec := range strings.Split(raw, ",") {
		split := strings.Split(tagSpec, "=")
		if len(split) != 2 || split[0] == "" {
			return nil, fmt.Errorf("cannot parse add-tags value %q", tagSpec)
		}
		parsed[split[0]] = split[1]
	}
	return parsed, nil
}

// logger sends the tracer's own messages to logrus
type logger struct{}

func (logger) Error(msg string) {
	log.Errorf("jaeger: %s", msg)
}

func (logger) Infof(msg string, args ...interface{}) {
	log.Infof("jaeger: "+msg, args...)
}

// Get returns a jaeger tracer, which is a no-op tracer if tracing is disabled
func Get() (opentracing.Tracer, io.Closer, error) {
	cfg := jaegercfg.Configuration{
		Disabled: !Enabled,
		Sampler: &jaegercfg.SamplerConfig{
			Type:                    samplerType,
			Param:                   samplerParam,
			SamplingServerURL:       samplerManagerAddr,
			SamplingRefreshInterval: samplerRefreshInterval,
		},
		Reporter: &jaegercfg.ReporterConfig{
			QueueSize:           reporterMaxQueueSize,
			BufferFlushInterval: reporterFlushInterval,
			LogSpans:            reporterLogSpans,
			LocalAgentHostPort:  agentAddr,
			CollectorEndpoint:   collectorAddr,
		},
	}

	options := []jaegercfg.Option{
		jaegercfg.Logger(logger{}),
	}
	for k, v := range addTagsParsed {
		options = append(options, jaegercfg.Tag(k, v))
	}

	tracer, closer, err := cfg.New("txstats", options...)
	if err != nil {
		return nil, nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return tracer, closer, nil
}
