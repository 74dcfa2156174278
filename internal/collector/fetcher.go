package collector

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Balance source failures. Callers match them with errors.Is.
var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrTransport      = errors.New("rpc transport failure")
	ErrRemote         = errors.New("rpc remote error")
)

// BalanceSource reads balances of an address. It never signs or sends anything.
type BalanceSource interface {
	NativeBalance(ctx context.Context, owner string) (decimal.Decimal, error)
	TokenBalance(ctx context.Context, contract, owner string) (symbol string, amount decimal.Decimal, err error)
	Name() string
}
