package stats

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Kafka tracks, per partition, how far a consumer is behind
type Kafka map[int32]*KafkaPartition

func NewKafka(prefix string, partitions []int32) Kafka {
	k := make(Kafka, len(partitions))
	for _, part := range partitions {
		name := prefix + ".partition." + strconv.Itoa(int(part))
		k[part] = registry.getOrAdd(name, &KafkaPartition{}).(*KafkaPartition)
	}
	return k
}

// KafkaPartition holds the last consumed offset and the newest offset of a partition.
// kafka offsets are 64bit, so these are too.
type KafkaPartition struct {
	offset  int64
	logSize int64
}

// Consumed records the offset of the message that was just handled
func (p *KafkaPartition) Consumed(offset int64) {
	atomic.StoreInt64(&p.offset, offset)
}

// Newest records the offset the next produced message will get
func (p *KafkaPartition) Newest(offset int64) {
	atomic.StoreInt64(&p.logSize, offset)
}

func (p *KafkaPartition) Offset() int64 {
	return atomic.LoadInt64(&p.offset)
}

// Lag is the number of messages not consumed yet
func (p *KafkaPartition) Lag() int64 {
	lag := atomic.LoadInt64(&p.logSize) - p.Offset()
	if lag < 0 {
		return 0
	}
	return lag
}

func (p *KafkaPartition) ReportGraphite(prefix, buf []byte, now time.Time) []byte {
	buf = WriteUint64(buf, prefix, []byte("offset.gauge64"), uint64(p.Offset()), now)
	buf = WriteUint64(buf, prefix, []byte("log_size.gauge64"), uint64(atomic.LoadInt64(&p.logSize)), now)
	return WriteUint64(buf, prefix, []byte("lag.gauge64"), uint64(p.Lag()), now)
}
