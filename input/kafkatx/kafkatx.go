// Package kafkatx consumes json encoded transactions from kafka topics
package kafkatx

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/balaghali/N26Statistics/input"
	"github.com/balaghali/N26Statistics/kafka"
	"github.com/balaghali/N26Statistics/schema"
	"github.com/balaghali/N26Statistics/stats"
	"github.com/grafana/globalconf"
	log "github.com/sirupsen/logrus"
)

// metric input.kafka-tx.decode_err is a count of times an input message failed to parse
var decodeErr = stats.NewCounterRate32("input.kafka-tx.decode_err")

// offsetClient is the part of sarama.Client we need to look up offsets
type offsetClient interface {
	GetOffset(topic string, partition int32, time int64) (int64, error)
	Close() error
}

type KafkaTx struct {
	input.Handler
	consumer sarama.Consumer
	client   offsetClient
	wg       sync.WaitGroup

	shutdown chan struct{}
	// signal to caller that it should shutdown
	cancel context.CancelFunc
}

func (k *KafkaTx) Name() string {
	return "kafka-tx"
}

var Enabled bool
var kafkaVersionStr string
var brokerStr string
var brokers []string
var topicStr string
var topics []string
var partitionStr string
var partitions []int32
var offsetStr string
var offset kafka.Offset
var config *sarama.Config
var channelBufferSize int
var consumerFetchMin int
var consumerFetchDefault int
var consumerMaxWaitTime time.Duration
var consumerMaxProcessingTime time.Duration
var netMaxOpenRequests int
var kafkaNet *kafka.KafkaNet
var kafkaStats stats.Kafka

func ConfigSetup() {
	inKafkaTx := flag.NewFlagSet("kafka-tx-in", flag.ExitOnError)
	inKafkaTx.BoolVar(&Enabled, "enabled", false, "")
	inKafkaTx.StringVar(&brokerStr, "brokers", "kafka:9092", "tcp address for kafka (may be be given multiple times as a comma-separated list)")
	inKafkaTx.StringVar(&kafkaVersionStr, "kafka-version", "2.0.0", "Kafka version in semver format. All brokers must be this version or newer.")
	inKafkaTx.StringVar(&topicStr, "topics", "transactions", "kafka topic (may be given multiple times as a comma-separated list)")
	inKafkaTx.StringVar(&offsetStr, "offset", "newest", "Set the offset to start consuming from. Can be oldest, newest or a time duration. anything older than the window is rejected anyway")
	inKafkaTx.StringVar(&partitionStr, "partitions", "*", "kafka partitions to consume. use '*' or a comma separated list of id's")
	inKafkaTx.IntVar(&channelBufferSize, "channel-buffer-size", 1000, "The number of transactions to buffer in internal and external channels")
	inKafkaTx.IntVar(&consumerFetchMin, "consumer-fetch-min", 1, "The minimum number of message bytes to fetch in a request")
	inKafkaTx.IntVar(&consumerFetchDefault, "consumer-fetch-default", 32768, "The default number of message bytes to fetch in a request")
	inKafkaTx.DurationVar(&consumerMaxWaitTime, "consumer-max-wait-time", time.Second, "The maximum amount of time the broker will wait for Consumer.Fetch.Min bytes to become available before it returns fewer than that anyway")
	inKafkaTx.DurationVar(&consumerMaxProcessingTime, "consumer-max-processing-time", time.Second, "The maximum amount of time the consumer expects a message takes to process")
	inKafkaTx.IntVar(&netMaxOpenRequests, "net-max-open-requests", 100, "How many outstanding requests a connection is allowed to have before sending on it blocks")
	kafkaNet = kafka.ConfigNet(inKafkaTx)
	globalconf.Register("kafka-tx-in", inKafkaTx, flag.ExitOnError)
}

func ConfigProcess(instance string) {
	if !Enabled {
		return
	}

	kafkaVersion, err := sarama.ParseKafkaVersion(kafkaVersionStr)
	if err != nil {
		log.Fatalf("kafkatx: invalid kafka-version. %s", err)
	}

	if consumerMaxWaitTime == 0 {
		log.Fatal("kafkatx: consumer-max-wait-time must be greater then 0")
	}
	if consumerMaxProcessingTime == 0 {
		log.Fatal("kafkatx: consumer-max-processing-time must be greater then 0")
	}

	offset, err = kafka.ParseOffset(offsetStr)
	if err != nil {
		log.Fatalf("kafkatx: %s", err)
	}

	brokers = strings.Split(brokerStr, ",")
	topics = strings.Split(topicStr, ",")

	config = sarama.NewConfig()

	config.ClientID = instance + "-tx"
	config.ChannelBufferSize = channelBufferSize
	config.Consumer.Fetch.Min = int32(consumerFetchMin)
	config.Consumer.Fetch.Default = int32(consumerFetchDefault)
	config.Consumer.MaxWaitTime = consumerMaxWaitTime
	config.Consumer.MaxProcessingTime = consumerMaxProcessingTime
	config.Net.MaxOpenRequests = netMaxOpenRequests
	config.Version = kafkaVersion

	if err := kafkaNet.Configure(config); err != nil {
		log.Fatalf("kafkatx: %s", err)
	}

	err = config.Validate()
	if err != nil {
		log.Fatalf("kafkatx: invalid config: %s", err)
	}
	// validate our partitions
	client, err := sarama.NewClient(brokers, config)
	if err != nil {
		log.Fatalf("kafkatx: failed to create client. %s", err)
	}
	defer client.Close()

	availParts, err := kafka.GetPartitions(client, topics)
	if err != nil {
		log.Fatalf("kafkatx: %s", err.Error())
	}
	log.Infof("kafkatx: available partitions %v", availParts)
	partitions, err = kafka.ParsePartitions(partitionStr, availParts)
	if err != nil {
		log.Fatalf("kafkatx: %s", err)
	}

	// the extra empty newlines are because metrics2docs doesn't recognize the comments properly otherwise
	// metric input.kafka-tx.partition.%d.offset is the current offset for the partition (%d) that we have consumed.

	// metric input.kafka-tx.partition.%d.log_size is the current size of the kafka partition (%d), aka the newest available offset.

	// metric input.kafka-tx.partition.%d.lag is how many messages (transactions) there are in the kafka partition (%d) that we have not yet consumed.
	kafkaStats = stats.NewKafka("input.kafka-tx", partitions)
}

func New() *KafkaTx {
	client, err := sarama.NewClient(brokers, config)
	if err != nil {
		log.Fatalf("kafkatx: failed to create client. %s", err)
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		log.Fatalf("kafkatx: failed to create consumer: %s", err)
	}
	log.Info("kafkatx: consumer created without error")
	return newKafkaTx(consumer, client)
}

func newKafkaTx(consumer sarama.Consumer, client offsetClient) *KafkaTx {
	return &KafkaTx{
		consumer: consumer,
		client:   client,
		shutdown: make(chan struct{}),
	}
}

func (k *KafkaTx) Start(handler input.Handler, cancel context.CancelFunc) error {
	k.Handler = handler
	k.cancel = cancel
	for _, topic := range topics {
		for _, partition := range partitions {
			start := offset.Sarama(time.Now())
			if offset.Kind == "duration" {
				var err error
				start, err = k.client.GetOffset(topic, partition, start)
				if err != nil {
					start = sarama.OffsetOldest
					log.Warnf("kafkatx: failed to get offset %s: %s -> will use oldest instead", offset, err)
				}
			}
			k.wg.Add(1)
			go k.consumePartition(topic, partition, start)
		}
	}
	return nil
}

// tryGetOffset will to query kafka repeatedly for the requested offset and give up after attempts unsuccesfull attempts
// an error is returned when it had to give up
func (k *KafkaTx) tryGetOffset(topic string, partition int32, offset int64, attempts int, sleep time.Duration) (int64, error) {

	var val int64
	var err error
	var offsetStr string

	switch offset {
	case sarama.OffsetNewest:
		offsetStr = "newest"
	case sarama.OffsetOldest:
		offsetStr = "oldest"
	default:
		offsetStr = strconv.FormatInt(offset, 10)
	}

	attempt := 1
	for {
		val, err = k.client.GetOffset(topic, partition, offset)
		if err == nil {
			break
		}

		err = fmt.Errorf("failed to get offset %s of partition %s:%d. %s (attempt %d/%d)", offsetStr, topic, partition, err, attempt, attempts)
		if attempt == attempts {
			break
		}
		log.Warnf("kafkatx: %s", err.Error())
		attempt += 1
		select {
		case <-time.After(sleep):
		case <-k.shutdown:
			return val, err
		}
	}
	return val, err
}

// consumePartition consumes from the topic until k.shutdown is triggered.
func (k *KafkaTx) consumePartition(topic string, partition int32, currentOffset int64) {
	defer k.wg.Done()

	// determine the pos of the topic and the initial offset of our consumer
	newest, err := k.tryGetOffset(topic, partition, sarama.OffsetNewest, 7, time.Second*10)
	if err != nil {
		log.Errorf("kafkatx: %s", err.Error())
		k.cancel()
		return
	}
	if currentOffset == sarama.OffsetNewest {
		currentOffset = newest
	} else if currentOffset == sarama.OffsetOldest {
		currentOffset, err = k.tryGetOffset(topic, partition, sarama.OffsetOldest, 7, time.Second*10)
		if err != nil {
			log.Errorf("kafkatx: %s", err.Error())
			k.cancel()
			return
		}
	}

	partStats := kafkaStats[partition]
	partStats.Consumed(currentOffset)
	partStats.Newest(newest)
	k.wg.Add(1)
	go k.trackStats(topic, partition)

	log.Infof("kafkatx: consuming from %s:%d from offset %d", topic, partition, currentOffset)
	pc, err := k.consumer.ConsumePartition(topic, partition, currentOffset)
	if err != nil {
		log.Errorf("kafkatx: failed to start partitionConsumer for %s:%d. %s", topic, partition, err)
		k.cancel()
		return
	}
	messages := pc.Messages()
	for {
		select {
		case msg, ok := <-messages:
			// https://github.com/Shopify/sarama/wiki/Frequently-Asked-Questions#why-am-i-getting-a-nil-message-from-the-sarama-consumer
			if !ok {
				log.Errorf("kafkatx: kafka consumer for %s:%d has shutdown. stop consuming", topic, partition)
				k.cancel()
				return
			}
			if log.IsLevelEnabled(log.DebugLevel) {
				log.Debugf("kafkatx: received message: Topic %s, Partition: %d, Offset: %d, Key: %x", msg.Topic, msg.Partition, msg.Offset, msg.Key)
			}
			k.handleMsg(msg.Value)
			partStats.Consumed(msg.Offset)
		case <-k.shutdown:
			pc.Close()
			log.Infof("kafkatx: consumer for %s:%d ended.", topic, partition)
			return
		}
	}
}

func (k *KafkaTx) handleMsg(data []byte) {
	tx, err := schema.TransactionDataFromJSON(data)
	if err != nil {
		decodeErr.Inc()
		log.Errorf("kafkatx: decode error, skipping message. %s", err)
		k.Handler.ProcessUndecodable(err)
		return
	}
	k.Handler.ProcessTransaction(tx)
}

// Stop will initiate a graceful stop of the Consumer (permanent)
// and block until it stopped.
func (k *KafkaTx) Stop() {
	// closes notifications and messages channels, amongst others
	close(k.shutdown)
	k.wg.Wait()
	k.client.Close()
}

func (k *KafkaTx) trackStats(topic string, partition int32) {
	defer k.wg.Done()
	ticker := time.NewTicker(time.Second)
	partStats := kafkaStats[partition]
	for {
		select {
		case <-k.shutdown:
			ticker.Stop()
			return
		case <-ticker.C:
			newest, err := k.tryGetOffset(topic, partition, sarama.OffsetNewest, 1, 0)
			if err != nil {
				log.Errorf("kafkatx: %s", err.Error())
				continue
			}
			partStats.Newest(newest)
		}
	}
}
