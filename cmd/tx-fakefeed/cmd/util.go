package cmd

import (
	"strings"

	"github.com/balaghali/N26Statistics/cmd/tx-fakefeed/out"
	"github.com/balaghali/N26Statistics/cmd/tx-fakefeed/out/httpout"
	"github.com/balaghali/N26Statistics/cmd/tx-fakefeed/out/kafkaout"
	"github.com/balaghali/N26Statistics/cmd/tx-fakefeed/out/stdout"
	log "github.com/sirupsen/logrus"
)

func getOutput() out.Out {
	var outs []out.Out

	if httpAddr != "" {
		o, err := httpout.New(httpAddr, timeout, httpAttempts)
		if err != nil {
			log.Fatalf("failed to create http output. %s", err)
		}
		outs = append(outs, o)
	}

	if kafkaAddr != "" {
		if kafkaTopic == "" {
			log.Fatal("kafka needs the topic to be set")
		}
		o, err := kafkaout.New(kafkaTopic, strings.Split(kafkaAddr, ","), kafkaComp, timeout, partitionScheme)
		if err != nil {
			log.Fatalf("failed to create kafka output. %s", err)
		}
		outs = append(outs, o)
	}

	if stdoutOut {
		outs = append(outs, stdout.New())
	}
	if len(outs) == 0 {
		log.Fatal("must use at least either http, kafka or stdout")
	}
	if len(outs) == 1 {
		return outs[0]
	}
	return out.NewFanOut(outs)
}
