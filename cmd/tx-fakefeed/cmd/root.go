package cmd

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/balaghali/N26Statistics/logger"
	"github.com/balaghali/N26Statistics/stats"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "tx-fakefeed",
	Short: "Generates a fake transaction workload for txstats",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := logger.Setup(viper.GetString("log-level"), "fakefeed"); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if addr := viper.GetString("stats-addr"); addr != "" {
			stats.NewGraphite("txstats.fakefeed.", addr, 10, 1000, 10*time.Second)
		} else {
			stats.NewDevnull()
		}

		if listenAddr != "" {
			go func() {
				log.Infof("starting listener on %s", listenAddr)
				err := http.ListenAndServe(listenAddr, nil)
				if err != nil {
					log.Error(err)
				}
			}()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var (
	// config params used by >1 subcommands are listed here
	// config params specific to only 1 command, go in the file for that command
	cfgFile    string
	listenAddr string

	httpAddr        string
	httpAttempts    int
	kafkaAddr       string
	kafkaTopic      string
	kafkaComp       string
	partitionScheme string
	stdoutOut       bool
	timeout         time.Duration

	amountPolicy string
	ratePerS     float64
	batch        int
	workers      int
	runFor       time.Duration
	live         bool
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tx-fakefeed.yaml)")
	flags.StringVar(&listenAddr, "listen", ":6764", "http listener address for pprof. empty to disable")
	flags.String("log-level", "info", "log level. panic|fatal|error|warning|info|debug")
	flags.String("stats-addr", "", "graphite address to send our own instrumentation to. e.g. 'localhost:2003'")

	flags.StringVar(&httpAddr, "http-addr", "", "base url of the txstats api. e.g. http://localhost:8080")
	flags.IntVar(&httpAttempts, "http-attempts", 5, "how many times to try to submit a transaction over http")
	flags.StringVar(&kafkaAddr, "kafka-addr", "", "kafka TCP address for transaction messages. e.g. localhost:9092")
	flags.StringVar(&kafkaTopic, "kafka-topic", "transactions", "kafka topic for transaction messages")
	flags.StringVar(&kafkaComp, "kafka-comp", "snappy", "compression: none|gzip|snappy|lz4|zstd")
	flags.StringVar(&partitionScheme, "partition-scheme", "byTimestamp", "method used for partitioning transactions (kafka only). (byTimestamp|byTimestampFnv)")
	flags.BoolVar(&stdoutOut, "stdout", false, "enable emitting transactions to stdout")
	flags.DurationVar(&timeout, "timeout", 10*time.Second, "timeout for network operations of the outputs")

	flags.StringVar(&amountPolicy, "amount-policy", "", "an amount policy (i.e. \"random\" \"single:12.3\" \"multiple:1,2,3,4,5\" \"daily-sine:100,12h,10\"). random if empty")
	flags.Float64Var(&ratePerS, "rate", 10, "how many transactions to send per second")
	flags.IntVar(&batch, "batch", 1, "how many transactions to hand to the outputs at once")
	flags.IntVar(&workers, "workers", 4, "how many concurrent workers publish transactions")
	flags.DurationVar(&runFor, "duration", 0, "how long to run. 0 means until interrupted")
	flags.BoolVar(&live, "live", false, "show live progress on the terminal")

	viper.BindPFlag("log-level", flags.Lookup("log-level"))
	viper.BindPFlag("stats-addr", flags.Lookup("stats-addr"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".tx-fakefeed" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".tx-fakefeed")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
