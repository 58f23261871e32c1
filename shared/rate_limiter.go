package shared

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPRequestRateLimiter is a token bucket shared by every outbound request to one host.
// Unlike a fixed delay it lets a burst of concurrent fan-out requests through at once.
type HTTPRequestRateLimiter struct {
	mutex        sync.Mutex
	rate         float64 // tokens per second
	capacity     float64
	tokens       float64
	lastRefill   time.Time
	requestCount int64
}

// NewHTTPRequestRateLimiter creates a limiter allowing requestsPerSecond with the given burst
func NewHTTPRequestRateLimiter(requestsPerSecond float64, burst int) *HTTPRequestRateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &HTTPRequestRateLimiter{
		rate:       requestsPerSecond,
		capacity:   float64(burst),
		tokens:     float64(burst), // start full to allow an initial burst
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is done
func (limiter *HTTPRequestRateLimiter) Wait(ctx context.Context) error {
	for {
		limiter.mutex.Lock()
		now := time.Now()
		if elapsed := now.Sub(limiter.lastRefill).Seconds(); elapsed > 0 {
			limiter.tokens += elapsed * limiter.rate
			if limiter.tokens > limiter.capacity {
				limiter.tokens = limiter.capacity
			}
			limiter.lastRefill = now
		}
		if limiter.tokens >= 1 {
			limiter.tokens--
			limiter.requestCount++
			limiter.mutex.Unlock()
			return nil
		}
		deficit := 1 - limiter.tokens
		limiter.mutex.Unlock()

		waitDuration := time.Duration(deficit / limiter.rate * float64(time.Second))
		if waitDuration <= 0 {
			waitDuration = time.Millisecond
		}

		logrus.WithFields(logrus.Fields{
			"component":     "HTTPRequestRateLimiter",
			"wait_duration": waitDuration,
		}).Debug("Enforcing rate limit delay")

		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// GetRequestCount returns the total number of requests admitted
func (limiter *HTTPRequestRateLimiter) GetRequestCount() int64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.requestCount
}
