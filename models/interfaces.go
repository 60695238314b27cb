package models

import "context"

// PriceClient fetches the latest prices for a set of symbols from a market-data provider
type PriceClient interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]PricePoint, error)
	Source() string
}
