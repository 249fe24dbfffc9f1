package policy

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmountPolicy(t *testing.T) {
	cases := []struct {
		in     string
		expErr bool
	}{
		{"", false},
		{"random", false},
		{"single:12.30", false},
		{"multiple:1,2.5,-3", false},
		{"daily-sine:100,12h,5", false},
		{"single", true},
		{"single:abc", true},
		{"multiple:1", true},
		{"multiple:1,x", true},
		{"daily-sine:100,12h", true},
		{"daily-sine:100,noon,5", true},
		{"timestamp:1", true},
	}
	for _, c := range cases {
		_, err := ParseAmountPolicy(c.in)
		if (err != nil) != c.expErr {
			t.Fatalf("policy %q: expected error %t, got %v", c.in, c.expErr, err)
		}
	}
}

func TestSingle(t *testing.T) {
	p, _ := ParseAmountPolicy("single:12.30")
	for ts := int64(1); ts < 5; ts++ {
		if got := p.Amount(ts); !got.Equal(decimal.RequireFromString("12.3")) {
			t.Fatalf("ts %d: expected 12.3, got %s", ts, got)
		}
	}
}

func TestMultiple(t *testing.T) {
	p, _ := ParseAmountPolicy("multiple:1,2.5,-3")
	cases := []struct {
		ts  int64
		exp string
	}{
		{100, "1"},
		{100, "1"},
		{101, "2.5"},
		{102, "-3"},
		{102, "-3"},
		{103, "1"},
	}
	for i, c := range cases {
		if got := p.Amount(c.ts); !got.Equal(decimal.RequireFromString(c.exp)) {
			t.Fatalf("case %d: expected %s, got %s", i, c.exp, got)
		}
	}
}

func TestRandom(t *testing.T) {
	p, _ := ParseAmountPolicy("")
	max := decimal.NewFromInt(1000)
	for i := 0; i < 1000; i++ {
		got := p.Amount(int64(i))
		if got.IsNegative() || got.GreaterThanOrEqual(max) {
			t.Fatalf("amount %s out of range [0, 1000)", got)
		}
		if got.Exponent() < -2 {
			t.Fatalf("amount %s has more than 2 decimals", got)
		}
	}
}

func TestDailySine(t *testing.T) {
	p, err := NewDailySine("100,12h,0")
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	noon := p.Amount(12 * 3600)
	if !noon.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected the peak of 100 at noon, got %s", noon)
	}
	midnight := p.Amount(0)
	if !midnight.IsZero() {
		t.Fatalf("expected 0 at midnight, got %s", midnight)
	}
}
