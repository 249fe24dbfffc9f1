package window

import "github.com/shopspring/decimal"

// aggregation keeps the running sum and count of the window members.
// it is only ever adjusted, never recomputed from the members.
type aggregation struct {
	sum decimal.Decimal
	cnt int
}

func (a *aggregation) Add(val decimal.Decimal) {
	a.sum = a.sum.Add(val)
	a.cnt++
}

func (a *aggregation) Remove(val decimal.Decimal) {
	a.sum = a.sum.Sub(val)
	a.cnt--
}

// Avg returns the mean of the members, or 0 when there are none.
func (a *aggregation) Avg() decimal.Decimal {
	if a.cnt == 0 {
		return decimal.Zero
	}
	return a.sum.Div(decimal.NewFromInt(int64(a.cnt)))
}
