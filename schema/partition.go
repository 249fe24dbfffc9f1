package schema

import (
	"encoding/binary"
	"errors"
	"hash/fnv"

	"github.com/cespare/xxhash"
	jump "github.com/dgryski/go-jump"
)

var ErrUnknownPartitionMethod = errors.New("unknown partition method")

type PartitionByMethod uint8

const (
	// partition by the timestamp, with the best distribution
	PartitionByTimestamp PartitionByMethod = iota

	// partition by the timestamp with fnv, for consumers that expect the hash to be a plain modulo
	PartitionByTimestampFnv
)

func PartitionMethodFromString(input string) (PartitionByMethod, error) {
	switch input {
	case "byTimestamp":
		return PartitionByTimestamp, nil
	case "byTimestampFnv":
		return PartitionByTimestampFnv, nil
	}
	return 0, ErrUnknownPartitionMethod
}

// PartitionID returns the partition the transaction belongs to.
// the timestamp must be valid, see ParseTimestamp
func (t TransactionData) PartitionID(method PartitionByMethod, partitions int32) (int32, error) {
	ts, err := t.ParseTimestamp()
	if err != nil {
		return 0, err
	}
	if ts == nil {
		return 0, ErrInvalidTimestamp
	}
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(ts.UnixMilli()))

	var partition int32
	switch method {
	case PartitionByTimestamp:
		partition = jump.Hash(xxhash.Sum64(key[:]), int(partitions))
	case PartitionByTimestampFnv:
		h := fnv.New32a()
		h.Write(key[:])
		partition = int32(h.Sum32()) % partitions
		if partition < 0 {
			partition = -partition
		}
	default:
		return 0, ErrUnknownPartitionMethod
	}
	return partition, nil
}
