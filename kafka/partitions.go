package kafka

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Shopify/sarama"
)

// returns elements that are in a but not in b
func DiffPartitions(a []int32, b []int32) []int32 {
	var diff []int32
Iter:
	for _, eA := range a {
		for _, eB := range b {
			if eA == eB {
				continue Iter
			}
		}
		diff = append(diff, eA)
	}
	return diff
}

// GetPartitions returns the partitions of the topics, which must all have the same partition count
func GetPartitions(client sarama.Client, topics []string) ([]int32, error) {
	partitionCount := 0
	partitions := make([]int32, 0)
	var err error
	for i, topic := range topics {
		partitions, err = client.Partitions(topic)
		if err != nil {
			return nil, fmt.Errorf("failed to get partitions for topic %s. %s", topic, err)
		}
		if len(partitions) == 0 {
			return nil, fmt.Errorf("no partitions returned for topic %s", topic)
		}
		if i > 0 {
			if len(partitions) != partitionCount {
				return nil, fmt.Errorf("configured topics have different partition counts, this is not supported")
			}
			continue
		}
		partitionCount = len(partitions)
	}
	return partitions, nil
}

// ParsePartitions resolves a partition setting, "*" or a comma separated list of id's,
// against the available partitions
func ParsePartitions(spec string, available []int32) ([]int32, error) {
	if spec == "*" {
		return available, nil
	}
	var partitions []int32
	for _, part := range strings.Split(spec, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("could not parse partition %q. partitions must be '*' or a comma separated list of id's", part)
		}
		partitions = append(partitions, int32(i))
	}
	missing := DiffPartitions(partitions, available)
	if len(missing) > 0 {
		return nil, fmt.Errorf("configured partitions not in list of available partitions. missing %v", missing)
	}
	return partitions, nil
}

// Offset is where a consumer starts: the oldest or newest message, or a duration back in time
type Offset struct {
	Kind     string // oldest, newest or duration
	Duration time.Duration
}

func ParseOffset(s string) (Offset, error) {
	switch s {
	case "oldest", "newest":
		return Offset{Kind: s}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return Offset{}, fmt.Errorf("invalid offset %q: must be oldest, newest or a duration", s)
	}
	return Offset{Kind: "duration", Duration: d}, nil
}

// Sarama returns the sarama offset value to request for this offset at the given time
func (o Offset) Sarama(now time.Time) int64 {
	switch o.Kind {
	case "oldest":
		return sarama.OffsetOldest
	case "newest":
		return sarama.OffsetNewest
	}
	return now.Add(-o.Duration).UnixNano() / int64(time.Millisecond)
}

func (o Offset) String() string {
	if o.Kind == "duration" {
		return o.Duration.String()
	}
	return o.Kind
}
