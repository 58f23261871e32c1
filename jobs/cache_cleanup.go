package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ExpiringCache is implemented by cache backends that keep expired entries until swept
type ExpiringCache interface {
	CleanupExpired() int
}

type CacheCleanupJob struct {
	Cache    ExpiringCache
	Interval time.Duration
}

func NewCacheCleanupJob(cache ExpiringCache, interval time.Duration) *CacheCleanupJob {
	return &CacheCleanupJob{Cache: cache, Interval: interval}
}

// Start sweeps the cache every Interval until ctx is done
func (j *CacheCleanupJob) Start(ctx context.Context) {
	logrus.WithField("interval", j.Interval).Info("Starting Cache Cleanup Job")

	go func() {
		ticker := time.NewTicker(j.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.Run()
			}
		}
	}()
}

func (j *CacheCleanupJob) Run() int {
	removed := j.Cache.CleanupExpired()
	logrus.WithField("removed", removed).Debug("Cache Cleanup Job completed")
	return removed
}
