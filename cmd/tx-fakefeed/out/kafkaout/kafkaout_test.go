package kafkaout

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/balaghali/N26Statistics/schema"
	"github.com/shopspring/decimal"
)

func TestGetCompression(t *testing.T) {
	cases := []struct {
		codec  string
		exp    sarama.CompressionCodec
		expErr bool
	}{
		{"none", sarama.CompressionNone, false},
		{"gzip", sarama.CompressionGZIP, false},
		{"snappy", sarama.CompressionSnappy, false},
		{"lz4", sarama.CompressionLZ4, false},
		{"zstd", sarama.CompressionZSTD, false},
		{"brotli", sarama.CompressionNone, true},
	}
	for _, c := range cases {
		got, err := getCompression(c.codec)
		if (err != nil) != c.expErr {
			t.Fatalf("codec %q: expected error %t, got %v", c.codec, c.expErr, err)
		}
		if got != c.exp {
			t.Fatalf("codec %q: expected %v, got %v", c.codec, c.exp, got)
		}
	}
}

func TestFlush(t *testing.T) {
	txs := []schema.TransactionData{
		schema.NewTransactionData(decimal.RequireFromString("12.3"), time.UnixMilli(1546300800000)),
		schema.NewTransactionData(decimal.RequireFromString("-4.25"), time.UnixMilli(1546300801000)),
		schema.NewTransactionData(decimal.RequireFromString("100"), time.UnixMilli(1546300802000)),
	}
	tests := []struct {
		name    string
		method  schema.PartitionByMethod
		sendErr error
		wantErr bool
	}{
		{"byTimestamp", schema.PartitionByTimestamp, nil, false},
		{"byTimestampFnv", schema.PartitionByTimestampFnv, nil, false},
		{"broker-failure", schema.PartitionByTimestamp, sarama.ErrNotLeaderForPartition, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mockProducer := mocks.NewSyncProducer(t, nil)
			k := newKafka(mockProducer, "transactions", 8, test.method)
			for _, tx := range txs {
				expected, err := tx.MarshalJSONFast(nil)
				if err != nil {
					t.Fatalf("unexpected error %s", err)
				}
				checker := func(sent []byte) error {
					if string(sent) != string(expected) {
						return fmt.Errorf("message sent different from expected: %s != %s", sent, expected)
					}
					return nil
				}
				if test.sendErr != nil {
					mockProducer.ExpectSendMessageWithCheckerFunctionAndFail(checker, test.sendErr)
				} else {
					mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(checker)
				}
			}
			err := k.Flush(txs)
			if (err != nil) != test.wantErr {
				t.Fatalf("Flush() error = %v, wantErr %v", err, test.wantErr)
			}
			if test.wantErr && !errors.Is(err, test.sendErr) {
				t.Fatalf("expected %v, got %v", test.sendErr, err)
			}
			if err := k.Close(); err != nil {
				t.Fatalf("unexpected close error %s", err)
			}
		})
	}
}

func TestFlushInvalidTransaction(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	k := newKafka(mockProducer, "transactions", 8, schema.PartitionByTimestamp)
	txs := []schema.TransactionData{{Amount: []byte(`1`), Timestamp: []byte(`"yesterday"`)}}
	if err := k.Flush(txs); err == nil {
		t.Fatalf("expected an error for an unpartitionable transaction")
	}
	k.Close()
}
