package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fenilmodi00/market-backend/models"
)

// MarketWarmer is the part of the aggregation engine the warmup job drives
type MarketWarmer interface {
	GetIndices(ctx context.Context) ([]models.IndexValue, error)
	GetPopularStocks(ctx context.Context, limit int) ([]models.Quote, error)
}

// WarmupResult summarizes one warmup pass
type WarmupResult struct {
	Indices  int           `json:"indices"`
	Quotes   int           `json:"quotes"`
	Duration time.Duration `json:"duration"`
}

// CacheWarmupJob pre-fetches the index strip and the popular quotes so the
// first requests after startup or TTL expiry are served from cache.
type CacheWarmupJob struct {
	Market   MarketWarmer
	Interval time.Duration
	Timeout  time.Duration
}

func NewCacheWarmupJob(market MarketWarmer, interval time.Duration) *CacheWarmupJob {
	return &CacheWarmupJob{
		Market:   market,
		Interval: interval,
		Timeout:  30 * time.Second,
	}
}

// Start runs the job immediately and then every Interval until ctx is done
func (j *CacheWarmupJob) Start(ctx context.Context) {
	logrus.WithField("interval", j.Interval).Info("Starting Cache Warmup Job")

	go func() {
		ticker := time.NewTicker(j.Interval)
		defer ticker.Stop()

		j.Run(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.Run(ctx)
			}
		}
	}()
}

func (j *CacheWarmupJob) Run(ctx context.Context) WarmupResult {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, j.Timeout)
	defer cancel()

	var result WarmupResult
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		indices, err := j.Market.GetIndices(groupCtx)
		if err != nil {
			logrus.WithError(err).Warn("Cache warmup: indices fetch failed")
			return nil
		}
		result.Indices = len(indices)
		return nil
	})
	group.Go(func() error {
		quotes, err := j.Market.GetPopularStocks(groupCtx, 0)
		if err != nil {
			logrus.WithError(err).Warn("Cache warmup: popular quotes fetch failed")
			return nil
		}
		result.Quotes = len(quotes)
		return nil
	})
	_ = group.Wait()

	result.Duration = time.Since(startTime)
	logrus.Infof("Cache Warmup Job completed: %d indices, %d quotes (took %v)",
		result.Indices, result.Quotes, result.Duration)
	return result
}
