package window

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single monetary event.
// Two transactions are equal when both their amount and timestamp are equal.
type Transaction struct {
	Amount    decimal.Decimal
	Timestamp time.Time
}

func NewTransaction(amount decimal.Decimal, ts time.Time) Transaction {
	return Transaction{
		Amount:    amount,
		Timestamp: ts,
	}
}

func (t Transaction) Equal(o Transaction) bool {
	return t.Amount.Equal(o.Amount) && t.Timestamp.Equal(o.Timestamp)
}

func (t Transaction) String() string {
	return fmt.Sprintf("Transaction{%s @ %d}", t.Amount, t.Timestamp.UnixMilli())
}
