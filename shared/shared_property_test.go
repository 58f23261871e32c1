package shared_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fenilmodi00/market-backend/shared"
)

func TestErrorClassificationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("For any category, wrapping preserves the classification through the chain", prop.ForAll(
		func(errorMessage string, isRetryable bool, category string) bool {
			cause := fmt.Errorf("%s", errorMessage)
			serviceErr := shared.NewServiceError(shared.ErrorCategory(category), "TEST_ERROR", errorMessage,
				"TestService", "TestOperation", isRetryable, cause)
			wrapped := fmt.Errorf("handler: %w", serviceErr)

			got, ok := shared.CategoryOf(wrapped)
			if !ok || got != shared.ErrorCategory(category) {
				t.Logf("Lost category through wrapping: %s vs %s", got, category)
				return false
			}

			if shared.IsRetryableError(wrapped) != isRetryable {
				t.Logf("Retryable flag not preserved for %s", category)
				return false
			}

			// Exactly one of the three request-facing classes matches
			matches := 0
			for _, matched := range []bool{shared.IsValidationError(wrapped), shared.IsNotFoundError(wrapped), shared.IsUpstreamError(wrapped)} {
				if matched {
					matches++
				}
			}
			expected := 1
			if category == string(shared.ErrorCategoryConfiguration) || category == string(shared.ErrorCategoryProcessing) {
				expected = 0
			}
			if matches != expected {
				t.Logf("Category %s matched %d classes", category, matches)
				return false
			}
			return true
		},
		gen.OneConstOf("connection refused", "timeout exceeded", "symbol not found", "invalid period", "decode failure"),
		gen.Bool(),
		gen.OneConstOf("network", "validation", "not_found", "upstream", "processing", "timeout", "configuration"),
	))

	properties.Property("Plain errors are classified by message heuristics and deterministically", prop.ForAll(
		func(errorMessage string) bool {
			err := fmt.Errorf("%s", errorMessage)
			first := shared.IsRetryableError(err)
			second := shared.IsRetryableError(err)
			if first != second {
				return false
			}
			_, ok := shared.CategoryOf(err)
			return !ok
		},
		gen.OneConstOf("connection refused", "i/o timeout", "permission denied", "invalid syntax", "service unavailable"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestConfigurationConsistencyProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("For any configuration parameters, validation yields usable values", prop.ForAll(
		func(timeout, maxRetries, intervalMS int, source string) bool {
			config := shared.NewDefaultUnifiedConfiguration()
			config.Provider.HTTPRequestTimeout = time.Duration(timeout) * time.Second
			config.Provider.MaxRetryAttempts = maxRetries
			config.Stream.Interval = time.Duration(intervalMS) * time.Millisecond
			config.Stream.Source = source
			config.ValidateAndApplyDefaults()

			if config.Provider.HTTPRequestTimeout <= 0 {
				t.Logf("Non-positive timeout survived validation: %v", config.Provider.HTTPRequestTimeout)
				return false
			}
			if timeout > 0 && config.Provider.HTTPRequestTimeout != time.Duration(timeout)*time.Second {
				t.Logf("Valid timeout was overwritten: %d", timeout)
				return false
			}
			if config.Provider.MaxRetryAttempts < 0 {
				return false
			}
			if maxRetries >= 0 && config.Provider.MaxRetryAttempts != maxRetries {
				t.Logf("Valid retry count was overwritten: %d", maxRetries)
				return false
			}
			if config.Stream.Interval <= 0 {
				return false
			}
			if config.Stream.Source != shared.StreamSourceStatic && config.Stream.Source != shared.StreamSourceLive {
				t.Logf("Unknown stream source survived validation: %s", config.Stream.Source)
				return false
			}

			// Validation is idempotent
			again := *config
			again.ValidateAndApplyDefaults()
			return again == *config
		},
		gen.IntRange(-10, 120),
		gen.IntRange(-2, 10),
		gen.IntRange(-1000, 5000),
		gen.OneConstOf("static", "live", "", "websocket"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestMetricsTrackingConsistencyProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	run := 0

	properties.Property("For any request sequence, snapshots account for every request", prop.ForAll(
		func(requestCount, successCount int) bool {
			if successCount > requestCount {
				successCount = requestCount
			}

			run++
			metrics := shared.NewServiceMetrics(fmt.Sprintf("PropertyService-%d", run))
			for i := 0; i < requestCount; i++ {
				metrics.RecordRequest(i < successCount, time.Duration(i+1)*time.Millisecond)
			}

			snapshot := metrics.GetSnapshot()
			if snapshot.TotalRequests != int64(requestCount) {
				t.Logf("Inconsistent total requests: %d vs %d", snapshot.TotalRequests, requestCount)
				return false
			}
			if snapshot.SuccessfulRequests+snapshot.FailedRequests != snapshot.TotalRequests {
				return false
			}
			if requestCount == 0 {
				return snapshot.SuccessRate == 0
			}

			expectedRate := float64(successCount) / float64(requestCount) * 100.0
			if snapshot.SuccessRate != expectedRate {
				t.Logf("Inconsistent success rate: %f vs %f", snapshot.SuccessRate, expectedRate)
				return false
			}
			if snapshot.Performance.MinProcessingTime != time.Millisecond {
				return false
			}
			return snapshot.Performance.P95ProcessingTime <= snapshot.Performance.MaxProcessingTime
		},
		gen.IntRange(0, 200),
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
