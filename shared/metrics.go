package shared

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceMetrics tracks performance and success metrics for services
type ServiceMetrics struct {
	serviceName         string
	totalRequests       int64
	successfulRequests  int64
	failedRequests      int64
	totalProcessingTime time.Duration
	lastUpdated         time.Time
	customCounters      map[string]int64
	performanceMetrics  *PerformanceMetrics
	mutex               sync.RWMutex
}

// MetricsSnapshot is a point-in-time copy of ServiceMetrics safe to serialize
type MetricsSnapshot struct {
	ServiceName           string              `json:"service_name"`
	TotalRequests         int64               `json:"total_requests"`
	SuccessfulRequests    int64               `json:"successful_requests"`
	FailedRequests        int64               `json:"failed_requests"`
	SuccessRate           float64             `json:"success_rate"`
	AverageProcessingTime time.Duration       `json:"average_processing_time"`
	LastUpdated           time.Time           `json:"last_updated"`
	CustomCounters        map[string]int64    `json:"custom_counters"`
	Performance           PerformanceSnapshot `json:"performance"`
}

var (
	registryMutex sync.RWMutex
	registry      = make(map[string]*ServiceMetrics)
)

// NewServiceMetrics creates a metrics tracker for a service and registers it
// so the performance endpoint can report it. Registering the same name twice
// returns the existing tracker.
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if existing, ok := registry[serviceName]; ok {
		return existing
	}

	metrics := &ServiceMetrics{
		serviceName:        serviceName,
		lastUpdated:        time.Now(),
		customCounters:     make(map[string]int64),
		performanceMetrics: NewPerformanceMetrics(),
	}
	registry[serviceName] = metrics
	return metrics
}

// AllServiceMetrics returns snapshots of every registered tracker ordered by name
func AllServiceMetrics() []MetricsSnapshot {
	registryMutex.RLock()
	trackers := make([]*ServiceMetrics, 0, len(registry))
	for _, metrics := range registry {
		trackers = append(trackers, metrics)
	}
	registryMutex.RUnlock()

	snapshots := make([]MetricsSnapshot, 0, len(trackers))
	for _, metrics := range trackers {
		snapshots = append(snapshots, metrics.GetSnapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].ServiceName < snapshots[j].ServiceName
	})
	return snapshots
}

// RecordRequest records a request with its success status and processing time
func (m *ServiceMetrics) RecordRequest(success bool, processingTime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.totalRequests++
	m.totalProcessingTime += processingTime

	if success {
		m.successfulRequests++
	} else {
		m.failedRequests++
	}

	m.lastUpdated = time.Now()
	m.performanceMetrics.RecordProcessingTime(processingTime)
}

// GetSuccessRate returns the success rate as a percentage
func (m *ServiceMetrics) GetSuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.successRateLocked()
}

func (m *ServiceMetrics) successRateLocked() float64 {
	if m.totalRequests == 0 {
		return 0.0
	}
	return float64(m.successfulRequests) / float64(m.totalRequests) * 100.0
}

// IncrementCustomCounter increments a custom counter metric
func (m *ServiceMetrics) IncrementCustomCounter(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.customCounters[key]++
	m.lastUpdated = time.Now()
}

// GetSnapshot returns a thread-safe snapshot of current metrics
func (m *ServiceMetrics) GetSnapshot() MetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	counters := make(map[string]int64, len(m.customCounters))
	for k, v := range m.customCounters {
		counters[k] = v
	}

	var average time.Duration
	if m.totalRequests > 0 {
		average = time.Duration(int64(m.totalProcessingTime) / m.totalRequests)
	}

	return MetricsSnapshot{
		ServiceName:           m.serviceName,
		TotalRequests:         m.totalRequests,
		SuccessfulRequests:    m.successfulRequests,
		FailedRequests:        m.failedRequests,
		SuccessRate:           m.successRateLocked(),
		AverageProcessingTime: average,
		LastUpdated:           m.lastUpdated,
		CustomCounters:        counters,
		Performance:           m.performanceMetrics.GetPerformanceSnapshot(),
	}
}

// LogSummary logs a comprehensive metrics summary
func (m *ServiceMetrics) LogSummary() {
	snapshot := m.GetSnapshot()

	logrus.WithFields(logrus.Fields{
		"service_name":            snapshot.ServiceName,
		"total_requests":          snapshot.TotalRequests,
		"successful_requests":     snapshot.SuccessfulRequests,
		"failed_requests":         snapshot.FailedRequests,
		"success_rate":            snapshot.SuccessRate,
		"average_processing_time": snapshot.AverageProcessingTime,
		"p95_processing_time":     snapshot.Performance.P95ProcessingTime,
		"custom_counters":         snapshot.CustomCounters,
	}).Info("Service metrics summary")
}

// PerformanceMetrics tracks detailed performance measurements
type PerformanceMetrics struct {
	mutex           sync.RWMutex
	minTime         time.Duration
	maxTime         time.Duration
	processingTimes []time.Duration
}

// PerformanceSnapshot is a copy of PerformanceMetrics
type PerformanceSnapshot struct {
	MinProcessingTime time.Duration `json:"min_processing_time"`
	MaxProcessingTime time.Duration `json:"max_processing_time"`
	P95ProcessingTime time.Duration `json:"p95_processing_time"`
	P99ProcessingTime time.Duration `json:"p99_processing_time"`
}

const maxPerformanceSamples = 1000

// NewPerformanceMetrics creates a new performance metrics tracker
func NewPerformanceMetrics() *PerformanceMetrics {
	return &PerformanceMetrics{
		processingTimes: make([]time.Duration, 0, maxPerformanceSamples),
	}
}

// RecordProcessingTime records a processing time, keeping the last 1000 samples
func (pm *PerformanceMetrics) RecordProcessingTime(duration time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pm.minTime == 0 || duration < pm.minTime {
		pm.minTime = duration
	}
	if duration > pm.maxTime {
		pm.maxTime = duration
	}

	if len(pm.processingTimes) >= maxPerformanceSamples {
		pm.processingTimes = pm.processingTimes[1:]
	}
	pm.processingTimes = append(pm.processingTimes, duration)
}

// GetPerformanceSnapshot returns min/max and P95/P99 over the retained samples
func (pm *PerformanceMetrics) GetPerformanceSnapshot() PerformanceSnapshot {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	snapshot := PerformanceSnapshot{
		MinProcessingTime: pm.minTime,
		MaxProcessingTime: pm.maxTime,
	}
	if len(pm.processingTimes) == 0 {
		return snapshot
	}

	times := make([]time.Duration, len(pm.processingTimes))
	copy(times, pm.processingTimes)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	snapshot.P95ProcessingTime = times[percentileIndex(len(times), 0.95)]
	snapshot.P99ProcessingTime = times[percentileIndex(len(times), 0.99)]
	return snapshot
}

func percentileIndex(n int, percentile float64) int {
	index := int(float64(n) * percentile)
	if index >= n {
		index = n - 1
	}
	return index
}
