package quotes

import (
    "context"
    "errors"

    "github.com/shopspring/decimal"
)

// ErrUnavailable is returned by Price when no quote exists for the instrument.
var ErrUnavailable = errors.New("quote unavailable")

// Source is the lookup boundary shared by the conversation flow and the
// trigger evaluator. Search returns candidate instrument names for a page
// (empty slice = no matches on that page); Price returns the current price.
type Source interface {
    Name() string
    Search(ctx context.Context, query string, page int) ([]string, error)
    Price(ctx context.Context, instrument string) (decimal.Decimal, error)
}
