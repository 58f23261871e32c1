package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fenilmodi00/market-backend/models"
	"github.com/fenilmodi00/market-backend/shared"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// CachingProvider decorates a MarketDataProvider with a short-lived cache.
// Only successful results are cached. Concurrent misses for the same key
// share one upstream call.
type CachingProvider struct {
	upstream       MarketDataProvider
	backend        CacheBackend
	ttl            time.Duration
	group          singleflight.Group
	serviceMetrics *shared.ServiceMetrics
}

// NewCachingProvider wraps upstream with backend
func NewCachingProvider(upstream MarketDataProvider, backend CacheBackend, ttl time.Duration) *CachingProvider {
	logrus.WithFields(logrus.Fields{
		"component": "CachingProvider",
		"backend":   backend.Name(),
		"ttl":       ttl,
	}).Info("Provider cache enabled")

	return &CachingProvider{
		upstream:       upstream,
		backend:        backend,
		ttl:            ttl,
		serviceMetrics: shared.NewServiceMetrics("ProviderCache"),
	}
}

func (p *CachingProvider) FetchQuote(ctx context.Context, symbol string) (RawQuote, error) {
	key := fmt.Sprintf("quote:%s", symbol)
	return cachedFetch(ctx, p, key, func(ctx context.Context) (RawQuote, error) {
		return p.upstream.FetchQuote(ctx, symbol)
	})
}

func (p *CachingProvider) FetchSeries(ctx context.Context, symbol string, period models.Period) ([]RawBar, error) {
	key := fmt.Sprintf("series:%s:%s", symbol, period)
	return cachedFetch(ctx, p, key, func(ctx context.Context) ([]RawBar, error) {
		return p.upstream.FetchSeries(ctx, symbol, period)
	})
}

func (p *CachingProvider) FetchIndexSeries(ctx context.Context, symbol string, span models.Period) ([]RawBar, error) {
	key := fmt.Sprintf("index:%s:%s", symbol, span)
	return cachedFetch(ctx, p, key, func(ctx context.Context) ([]RawBar, error) {
		return p.upstream.FetchIndexSeries(ctx, symbol, span)
	})
}

// Backend returns the cache backend in use
func (p *CachingProvider) Backend() CacheBackend {
	return p.backend
}

// cachedFetch serves key from the backend or runs fetch once for every
// concurrent caller. The shared fetch does not inherit any one caller's
// cancellation; the upstream request timeout bounds it.
func cachedFetch[T any](ctx context.Context, p *CachingProvider, key string, fetch func(context.Context) (T, error)) (T, error) {
	if data, found := p.backend.Get(ctx, key); found {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			p.serviceMetrics.IncrementCustomCounter("hits")
			return cached, nil
		}
		p.backend.Delete(ctx, key)
	}
	p.serviceMetrics.IncrementCustomCounter("misses")

	startTime := time.Now()
	sharedCtx := context.WithoutCancel(ctx)
	resultCh := p.group.DoChan(key, func() (interface{}, error) {
		result, fetchErr := fetch(sharedCtx)
		if fetchErr != nil {
			return result, fetchErr
		}

		if data, marshalErr := json.Marshal(result); marshalErr == nil {
			p.backend.Set(sharedCtx, key, data, p.ttl)
		}
		return result, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		p.serviceMetrics.RecordRequest(false, time.Since(startTime))
		return zero, shared.NewUpstreamError("ProviderCache", "cachedFetch",
			fmt.Sprintf("caller stopped waiting for %s", key), ctx.Err())
	case outcome := <-resultCh:
		p.serviceMetrics.RecordRequest(outcome.Err == nil, time.Since(startTime))
		if outcome.Shared {
			p.serviceMetrics.IncrementCustomCounter("shared_fetches")
		}
		result, _ := outcome.Val.(T)
		return result, outcome.Err
	}
}
