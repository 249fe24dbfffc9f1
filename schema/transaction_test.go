package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	ts := time.UnixMilli(1478192204000)
	cases := []struct {
		name      string
		body      string
		expAmount string // "" means absent
		expTs     *time.Time
		expErr    error
	}{
		{"number", `{"amount": 12.3, "timestamp": 1478192204000}`, "12.3", &ts, nil},
		{"string amount", `{"amount": " 12.30 ", "timestamp": 1478192204000}`, "12.3", &ts, nil},
		{"negative", `{"amount": -5, "timestamp": 1478192204000}`, "-5", &ts, nil},
		{"exponent", `{"amount": 1.5e2, "timestamp": 1478192204000}`, "150", &ts, nil},
		{"missing amount", `{"timestamp": 1478192204000}`, "", &ts, nil},
		{"null amount", `{"amount": null, "timestamp": 1478192204000}`, "", &ts, nil},
		{"missing timestamp", `{"amount": 1}`, "1", nil, nil},
		{"text amount", `{"amount": "lots", "timestamp": 1478192204000}`, "", nil, ErrInvalidAmount},
		{"nan amount", `{"amount": "NaN", "timestamp": 1478192204000}`, "", nil, ErrInvalidAmount},
		{"bool amount", `{"amount": true, "timestamp": 1478192204000}`, "", nil, ErrInvalidAmount},
		{"fractional timestamp", `{"amount": 1, "timestamp": 1478192204000.5}`, "1", nil, ErrInvalidTimestamp},
		{"string timestamp", `{"amount": 1, "timestamp": "yesterday"}`, "1", nil, ErrInvalidTimestamp},
	}
	for _, c := range cases {
		data, err := TransactionDataFromJSON([]byte(c.body))
		if err != nil {
			t.Fatalf("case %s: unexpected decode error %s", c.name, err)
		}
		amount, errA := data.ParseAmount()
		ts, errT := data.ParseTimestamp()
		if c.expErr != nil {
			if !errors.Is(errA, c.expErr) && !errors.Is(errT, c.expErr) {
				t.Fatalf("case %s: expected error %v, got %v and %v", c.name, c.expErr, errA, errT)
			}
			continue
		}
		if errA != nil || errT != nil {
			t.Fatalf("case %s: unexpected errors %v and %v", c.name, errA, errT)
		}
		if c.expAmount == "" {
			if amount != nil {
				t.Fatalf("case %s: expected absent amount, got %s", c.name, amount)
			}
		} else if amount == nil || !amount.Equal(decimal.RequireFromString(c.expAmount)) {
			t.Fatalf("case %s: expected amount %s, got %v", c.name, c.expAmount, amount)
		}
		if (c.expTs == nil) != (ts == nil) || (ts != nil && !ts.Equal(*c.expTs)) {
			t.Fatalf("case %s: expected timestamp %v, got %v", c.name, c.expTs, ts)
		}
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	for _, body := range []string{"", "{", "amount=1", `["amount", 1]`} {
		if _, err := TransactionDataFromJSON([]byte(body)); err == nil {
			t.Fatalf("expected decode error for %q", body)
		}
	}
}

func TestMarshalJSONFast(t *testing.T) {
	data := NewTransactionData(decimal.RequireFromString("12.30"), time.UnixMilli(1478192204000))
	b, err := data.MarshalJSONFast(nil)
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	if exp := `{"amount":12.3,"timestamp":1478192204000}`; string(b) != exp {
		t.Fatalf("expected %s, got %s", exp, b)
	}
	back, err := TransactionDataFromJSON(b)
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	amount, _ := back.ParseAmount()
	if !amount.Equal(decimal.RequireFromString("12.3")) {
		t.Fatalf("expected 12.3, got %s", amount)
	}

	if _, err := (TransactionData{}).MarshalJSONFast(nil); err == nil {
		t.Fatalf("expected error encoding an empty transaction")
	}
}

func TestPartitionID(t *testing.T) {
	for _, method := range []PartitionByMethod{PartitionByTimestamp, PartitionByTimestampFnv} {
		seen := make(map[int32]int)
		base := time.UnixMilli(1546300800000)
		for i := 0; i < 1000; i++ {
			data := NewTransactionData(decimal.NewFromInt(1), base.Add(time.Duration(i)*time.Millisecond))
			p, err := data.PartitionID(method, 8)
			if err != nil {
				t.Fatalf("method %d: unexpected error %s", method, err)
			}
			if p < 0 || p >= 8 {
				t.Fatalf("method %d: partition %d out of range", method, p)
			}
			again, _ := data.PartitionID(method, 8)
			if again != p {
				t.Fatalf("method %d: partitioning is not stable: %d then %d", method, p, again)
			}
			seen[p]++
		}
		if len(seen) != 8 {
			t.Fatalf("method %d: expected all 8 partitions to be used, got %v", method, seen)
		}
	}

	if _, err := (TransactionData{}).PartitionID(PartitionByTimestamp, 8); err == nil {
		t.Fatalf("expected error for transaction without timestamp")
	}
	if _, err := PartitionMethodFromString("byOrg"); err != ErrUnknownPartitionMethod {
		t.Fatalf("expected ErrUnknownPartitionMethod, got %v", err)
	}
}
