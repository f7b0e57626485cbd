package oracle

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Oracle reports the current account balance. Implementations may be slow or
// fail outright (no wallet connected, network error, wrong network); callers
// must treat any error as "balance unknown" and deny risky operations.
type Oracle interface {
	GetBalance(ctx context.Context) (decimal.Decimal, error)
}

// ErrUnavailable wraps every failure mode of an oracle round trip, timeouts
// included. Callers never need to distinguish why the balance is unknown.
var ErrUnavailable = errors.New("balance oracle unavailable")

// Static is a fixed-balance Oracle for tests and simulated sessions.
type Static struct {
	Balance decimal.Decimal
	Err     error
}

func (s Static) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	if s.Err != nil {
		return decimal.Decimal{}, s.Err
	}
	return s.Balance, nil
}
