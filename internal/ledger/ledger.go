// Package ledger deducts credits for delivered submissions.
package ledger

import (
	"context"
	"errors"
)

var (
	ErrLedger              = errors.New("ledger error")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

type Balance struct {
	Credits   int64 `json:"credits"`
	Unlimited bool  `json:"unlimited,omitempty"`
}

// Ledger is the credit accounting consumed by the dispatcher.
//
// note: fault injection point
type Ledger interface {
	// Deduct removes count credits and returns the balance after the deduction.
	Deduct(ctx context.Context, count int) (Balance, error)
}
