package models

import (
	"github.com/balaghali/N26Statistics/schema"
)

// TransactionRequest is the body of POST /transactions
type TransactionRequest struct {
	schema.TransactionData
}
