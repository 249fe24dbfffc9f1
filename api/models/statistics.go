package models

import (
	"strconv"

	"github.com/balaghali/N26Statistics/window"
	"github.com/shopspring/decimal"
)

// StatisticsQuery are the parameters of GET /statistics
type StatisticsQuery struct {
	Format string `json:"format" form:"format" binding:"In(,json,msgp,msgpack)"`
}

// Statistics is the response of GET /statistics
type Statistics struct {
	Sum   decimal.Decimal `json:"sum"`
	Avg   decimal.Decimal `json:"avg"`
	Max   decimal.Decimal `json:"max"`
	Min   decimal.Decimal `json:"min"`
	Count int             `json:"count"`
}

func NewStatistics(s window.Snapshot) Statistics {
	return Statistics{
		Sum:   s.Sum,
		Avg:   s.Avg,
		Max:   s.Max,
		Min:   s.Min,
		Count: s.Count,
	}
}

// MarshalJSONFast encodes the amounts as json numbers, with no loss of precision
func (s Statistics) MarshalJSONFast(b []byte) ([]byte, error) {
	b = append(b, `{"sum":`...)
	b = append(b, s.Sum.String()...)
	b = append(b, `,"avg":`...)
	b = append(b, s.Avg.String()...)
	b = append(b, `,"max":`...)
	b = append(b, s.Max.String()...)
	b = append(b, `,"min":`...)
	b = append(b, s.Min.String()...)
	b = append(b, `,"count":`...)
	b = strconv.AppendInt(b, int64(s.Count), 10)
	b = append(b, '}')
	return b, nil
}

func (s Statistics) MarshalJSON() ([]byte, error) {
	return s.MarshalJSONFast(nil)
}
