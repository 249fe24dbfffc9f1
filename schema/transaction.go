// Package schema defines the transaction payload that clients submit over http and kafka.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount    = errors.New("amount must be a finite decimal number or a string holding one")
	ErrInvalidTimestamp = errors.New("timestamp must be an integer number of milliseconds since the unix epoch")
)

// TransactionData is a transaction as submitted by clients:
//
//	{"amount": 12.3, "timestamp": 1478192204000}
//
// Both fields are kept raw until parsed, so a payload with a missing field can be told apart
// from one with a malformed field.
type TransactionData struct {
	Amount    json.RawMessage `json:"amount"`
	Timestamp json.RawMessage `json:"timestamp"`
}

func NewTransactionData(amount decimal.Decimal, ts time.Time) TransactionData {
	return TransactionData{
		Amount:    json.RawMessage(amount.String()),
		Timestamp: json.RawMessage(strconv.FormatInt(ts.UnixMilli(), 10)),
	}
}

// TransactionDataFromJSON decodes a payload
func TransactionDataFromJSON(b []byte) (*TransactionData, error) {
	t := new(TransactionData)
	if err := json.Unmarshal(b, t); err != nil {
		return nil, err
	}
	return t, nil
}

func absent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func isNumber(raw json.RawMessage) bool {
	return raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')
}

// ParseAmount returns the amount, or nil if it is absent.
func (t TransactionData) ParseAmount() (*decimal.Decimal, error) {
	if absent(t.Amount) {
		return nil, nil
	}
	raw := bytes.TrimSpace(t.Amount)
	var str string
	switch {
	case isNumber(raw):
		str = string(raw)
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &str); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, err)
		}
		str = strings.TrimSpace(str)
	default:
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, raw)
	}
	d, err := decimal.NewFromString(str)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	}
	return &d, nil
}

// ParseTimestamp returns the timestamp, or nil if it is absent.
func (t TransactionData) ParseTimestamp() (*time.Time, error) {
	if absent(t.Timestamp) {
		return nil, nil
	}
	raw := bytes.TrimSpace(t.Timestamp)
	if !isNumber(raw) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTimestamp, raw)
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimestamp, err)
	}
	ts := time.UnixMilli(ms)
	return &ts, nil
}

// MarshalJSONFast appends the json encoding of a payload with both fields present.
func (t TransactionData) MarshalJSONFast(b []byte) ([]byte, error) {
	if absent(t.Amount) || absent(t.Timestamp) {
		return b, errors.New("cannot encode a transaction with missing fields")
	}
	b = append(b, `{"amount":`...)
	b = append(b, bytes.TrimSpace(t.Amount)...)
	b = append(b, `,"timestamp":`...)
	b = append(b, bytes.TrimSpace(t.Timestamp)...)
	b = append(b, '}')
	return b, nil
}
