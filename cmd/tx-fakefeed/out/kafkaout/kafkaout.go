// Package kafkaout publishes transactions as json messages to a kafka topic,
// in the format consumed by the kafka-tx-in input.
package kafkaout

import (
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/balaghali/N26Statistics/cmd/tx-fakefeed/out"
	"github.com/balaghali/N26Statistics/schema"
	log "github.com/sirupsen/logrus"
)

type Kafka struct {
	out.OutStats
	topic         string
	producer      sarama.SyncProducer
	method        schema.PartitionByMethod
	numPartitions int32
}

func getCompression(codec string) (sarama.CompressionCodec, error) {
	switch codec {
	case "none":
		return sarama.CompressionNone, nil
	case "gzip":
		return sarama.CompressionGZIP, nil
	case "snappy":
		return sarama.CompressionSnappy, nil
	case "lz4":
		return sarama.CompressionLZ4, nil
	case "zstd":
		return sarama.CompressionZSTD, nil
	}
	return sarama.CompressionNone, fmt.Errorf("unknown compression codec %q. use none|gzip|snappy|lz4|zstd", codec)
}

func New(topic string, brokers []string, codec string, timeout time.Duration, partitionScheme string) (*Kafka, error) {
	method, err := schema.PartitionMethodFromString(partitionScheme)
	if err != nil {
		return nil, fmt.Errorf("partition-scheme must be one of 'byTimestamp|byTimestampFnv'. got %s", partitionScheme)
	}
	compression, err := getCompression(codec)
	if err != nil {
		return nil, err
	}

	// We are looking for strong consistency semantics.
	// Because we don't change the flush settings, sarama will try to produce messages
	// as fast as possible to keep latency low.
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll // Wait for all in-sync replicas to ack the message
	config.Producer.Retry.Max = 10                   // Retry up to 10 times to produce the message
	config.Producer.Compression = compression
	config.Producer.Partitioner = sarama.NewManualPartitioner
	config.Net.DialTimeout = timeout
	config.Net.ReadTimeout = timeout
	config.Net.WriteTimeout = timeout
	if compression == sarama.CompressionZSTD {
		config.Version = sarama.V2_1_0_0
	}
	err = config.Validate()
	if err != nil {
		return nil, err
	}

	client, err := sarama.NewClient(brokers, config)
	if err != nil {
		return nil, err
	}
	partitions, err := client.Partitions(topic)
	if err != nil {
		client.Close()
		return nil, err
	}
	if len(partitions) < 1 {
		client.Close()
		return nil, fmt.Errorf("failed to get number of partitions for topic: %s", topic)
	}
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return newKafka(producer, topic, int32(len(partitions)), method), nil
}

func newKafka(producer sarama.SyncProducer, topic string, numPartitions int32, method schema.PartitionByMethod) *Kafka {
	return &Kafka{
		OutStats:      out.NewStats("kafka-tx"),
		topic:         topic,
		producer:      producer,
		method:        method,
		numPartitions: numPartitions,
	}
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}

func (k *Kafka) Flush(txs []schema.TransactionData) error {
	if len(txs) == 0 {
		k.FlushDuration.Value(0)
		return nil
	}
	preFlush := time.Now()

	payload := make([]*sarama.ProducerMessage, len(txs))
	for i, tx := range txs {
		data, err := tx.MarshalJSONFast(nil)
		if err != nil {
			return err
		}
		k.MessageBytes.Value(len(data))

		partition, err := tx.PartitionID(k.method, k.numPartitions)
		if err != nil {
			return fmt.Errorf("Failed to get partition for transaction. %s", err)
		}

		payload[i] = &sarama.ProducerMessage{
			Partition: partition,
			Topic:     k.topic,
			Value:     sarama.ByteEncoder(data),
		}
	}

	prePub := time.Now()
	err := k.producer.SendMessages(payload)
	if err != nil {
		k.PublishErrors.Inc()
		if errors, ok := err.(sarama.ProducerErrors); ok {
			for i := 0; i < 10 && i < len(errors); i++ {
				log.Errorf("ProducerError %d/%d: %s", i, len(errors), errors[i].Error())
			}
		}
		return err
	}

	k.PublishDuration.Value(time.Since(prePub))
	k.PublishedMessages.Add(len(txs))
	k.PublishedTransactions.Add(len(txs))
	k.FlushDuration.Value(time.Since(preFlush))
	return nil
}
