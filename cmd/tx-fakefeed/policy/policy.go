// Package policy decides which amounts the fake feed generates.
package policy

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/raintank/dur"
	"github.com/shopspring/decimal"
)

// AmountPolicy returns the amount of a transaction generated at ts (unix seconds)
type AmountPolicy interface {
	Amount(ts int64) decimal.Decimal
}

// AmountPolicyRandom returns amounts between 0 and 1000 with cent precision
type AmountPolicyRandom struct {
}

func (v *AmountPolicyRandom) Amount(ts int64) decimal.Decimal {
	return decimal.New(rand.Int63n(100000), -2)
}

// AmountPolicyDailySine mimics a daily sinus-shaped trend e.g. the spending at a shop
type AmountPolicyDailySine struct {
	peak   float64 // average peak amount
	offset uint32  // time in seconds into the day where we should peak (0<= x <24h)
	stdev  float64 // standard deviation. typically you want 0 < x < peak
}

func NewDailySine(args string) (AmountPolicyDailySine, error) {
	argsv := strings.Split(args, ",")
	if len(argsv) != 3 {
		return AmountPolicyDailySine{}, errors.New("DailySine needs 3 comma separated options")
	}
	peak, err := decimal.NewFromString(strings.TrimSpace(argsv[0]))
	if err != nil {
		return AmountPolicyDailySine{}, fmt.Errorf("could not parse peak value: %s", argsv[0])
	}
	offset, err := dur.ParseDuration(strings.TrimSpace(argsv[1]))
	if err != nil {
		return AmountPolicyDailySine{}, fmt.Errorf("could not parse offset value: %s", argsv[1])
	}
	stdev, err := decimal.NewFromString(strings.TrimSpace(argsv[2]))
	if err != nil {
		return AmountPolicyDailySine{}, fmt.Errorf("could not parse stdev value: %s", argsv[2])
	}

	return AmountPolicyDailySine{
		peak:   peak.InexactFloat64(),
		offset: offset % (24 * 3600),
		stdev:  stdev.InexactFloat64(),
	}, nil
}

func (v AmountPolicyDailySine) Amount(ts int64) decimal.Decimal {
	// a sine does a full cycle every time we increase x by 2*Pi
	// we change this to a daily cycle
	// also, a sine normally has its peak at 1/4 into its cycle, so we adjust for that
	offset := (6 * 3600) - int64(v.offset)
	sineValue := (1 + math.Sin(2*math.Pi*float64(ts+offset)/(24*3600))) * v.peak / 2 // between 0 and v.peak, peaking at offset

	return decimal.NewFromFloat(math.Abs(rand.NormFloat64()*v.stdev + sineValue)).Round(2)
}

type AmountPolicySingle struct {
	val decimal.Decimal
}

func (v *AmountPolicySingle) Amount(ts int64) decimal.Decimal {
	return v.val
}

// AmountPolicyMultiple cycles through its amounts, moving on whenever ts changes
type AmountPolicyMultiple struct {
	lastTs int64
	idx    int
	vals   []decimal.Decimal
}

func (v *AmountPolicyMultiple) Amount(ts int64) decimal.Decimal {
	if v.lastTs == 0 {
		v.lastTs = ts
	}

	if ts == v.lastTs {
		return v.vals[v.idx]
	}

	v.lastTs = ts
	v.idx++
	if v.idx >= len(v.vals) {
		v.idx = 0
	}
	return v.vals[v.idx]
}

func ParseAmountPolicy(p string) (AmountPolicy, error) {
	if p == "" || strings.TrimSpace(p) == "random" {
		return &AmountPolicyRandom{}, nil
	}

	split := strings.Index(p, ":")
	if split == -1 {
		return nil, fmt.Errorf("error parsing amount policy - separator (':') not found: %s\nMake sure you don't have any spaces in your amount-policy argument", p)
	}

	switch strings.TrimSpace(p[:split]) {
	case "daily-sine":
		return NewDailySine(p[split+1:])
	case "single":
		val, err := decimal.NewFromString(strings.TrimSpace(p[split+1:]))
		if err != nil {
			return nil, fmt.Errorf("could not parse amount: %s", p[split+1:])
		}
		return &AmountPolicySingle{
			val: val,
		}, nil
	case "multiple":
		vals, err := parseAmounts(strings.TrimSpace(p[split+1:]))
		if err != nil {
			return nil, err
		}
		if len(vals) < 2 {
			return nil, fmt.Errorf("'multiple' amount policy used, but less than 2 amounts were specified. Maybe you wanted to use 'single'?")
		}
		return &AmountPolicyMultiple{
			vals: vals,
		}, nil
	default:
		return nil, fmt.Errorf("error parsing amount policy: %s", p)
	}
}

func parseAmounts(v string) ([]decimal.Decimal, error) {
	var vals []decimal.Decimal
	for _, s := range strings.Split(v, ",") {
		n, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return vals, fmt.Errorf("could not parse amount: %s", s)
		}
		vals = append(vals, n)
	}
	return vals, nil
}
