package services

import (
	"context"
	"time"

	"github.com/fenilmodi00/market-backend/models"
)

//go:generate mockgen -package=services_test -destination=mock_market_provider_test.go -source=market_provider.go MarketDataProvider

// MarketDataProvider wraps one external market data source. Implementations
// keep no domain state between calls. Failures come back as *shared.ServiceError
// values: not_found when the symbol resolves to nothing, upstream otherwise.
type MarketDataProvider interface {
	FetchQuote(ctx context.Context, symbol string) (RawQuote, error)
	FetchSeries(ctx context.Context, symbol string, period models.Period) ([]RawBar, error)
	FetchIndexSeries(ctx context.Context, symbol string, span models.Period) ([]RawBar, error)
}

// RawQuote is the unnormalized quote data reported by a provider.
// Nil pointers mean the provider did not report the field.
type RawQuote struct {
	Symbol        string
	LatestClose   float64
	PreviousClose *float64
	Volume        float64
	MarketCap     *float64
	High          *float64
	Low           *float64
	Open          *float64
}

// RawBar is one OHLCV bar in provider order
type RawBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// FetchResult holds the outcome of one fan-out call, stored by slot index
// and read only after every call in the group has settled.
type FetchResult[T any] struct {
	Value T
	Err   error
}

// OK reports whether the fetch succeeded
func (r FetchResult[T]) OK() bool {
	return r.Err == nil
}
