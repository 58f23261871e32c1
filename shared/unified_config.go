package shared

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// UnifiedConfiguration holds all configuration parameters for the entire application
type UnifiedConfiguration struct {
	Provider ProviderConfig `json:"provider"`
	News     NewsConfig     `json:"news"`
	Stream   StreamConfig   `json:"stream"`
	Cache    CacheConfig    `json:"cache"`
	Logging  LoggingConfig  `json:"logging"`
}

// ProviderConfig holds market data provider configuration
type ProviderConfig struct {
	BaseURL            string        `json:"base_url"`
	HTTPRequestTimeout time.Duration `json:"http_timeout"`
	RequestsPerSecond  float64       `json:"requests_per_second"`
	MaxRetryAttempts   int           `json:"max_retries"`
}

// NewsConfig holds RSS aggregation configuration
type NewsConfig struct {
	HTTPRequestTimeout time.Duration `json:"http_timeout"`
	EntriesPerFeed     int           `json:"entries_per_feed"`
	MaxItems           int           `json:"max_items"`
	DescriptionLimit   int           `json:"description_limit"`
}

// StreamConfig holds live stream configuration
type StreamConfig struct {
	Interval     time.Duration `json:"interval"`
	WriteTimeout time.Duration `json:"write_timeout"`
	Source       string        `json:"source"`
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	DefaultTTL      time.Duration `json:"default_ttl"`
	MaxSize         int           `json:"max_size"`
	RedisURL        string        `json:"redis_url"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
	WarmupInterval  time.Duration `json:"warmup_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level"`
	Format      string `json:"format"`
	ServiceName string `json:"service_name"`
}

const (
	StreamSourceStatic = "static"
	StreamSourceLive   = "live"

	DefaultProviderBaseURL = "https://query1.finance.yahoo.com"
)

// NewDefaultUnifiedConfiguration returns production-ready default configuration
func NewDefaultUnifiedConfiguration() *UnifiedConfiguration {
	return &UnifiedConfiguration{
		Provider: ProviderConfig{
			BaseURL:            DefaultProviderBaseURL,
			HTTPRequestTimeout: 10 * time.Second,
			RequestsPerSecond:  10,
			MaxRetryAttempts:   1,
		},
		News: NewsConfig{
			HTTPRequestTimeout: 10 * time.Second,
			EntriesPerFeed:     2,
			MaxItems:           8,
			DescriptionLimit:   200,
		},
		Stream: StreamConfig{
			Interval:     2 * time.Second,
			WriteTimeout: 5 * time.Second,
			Source:       StreamSourceStatic,
		},
		Cache: CacheConfig{
			DefaultTTL:      15 * time.Second,
			MaxSize:         1000,
			CleanupInterval: time.Minute,
			WarmupInterval:  time.Minute,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			ServiceName: "market-backend",
		},
	}
}

// ValidateAndApplyDefaults validates configuration and applies defaults for invalid values
func (c *UnifiedConfiguration) ValidateAndApplyDefaults() {
	logger := logrus.WithField("component", "UnifiedConfiguration")
	defaults := NewDefaultUnifiedConfiguration()

	// Provider
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaults.Provider.BaseURL
		logger.Debug("Applied default Provider.BaseURL")
	}

	if c.Provider.HTTPRequestTimeout <= 0 {
		c.Provider.HTTPRequestTimeout = defaults.Provider.HTTPRequestTimeout
		logger.Debug("Applied default Provider.HTTPRequestTimeout")
	}

	if c.Provider.RequestsPerSecond <= 0 {
		c.Provider.RequestsPerSecond = defaults.Provider.RequestsPerSecond
		logger.Debug("Applied default Provider.RequestsPerSecond")
	}

	if c.Provider.MaxRetryAttempts < 0 {
		c.Provider.MaxRetryAttempts = defaults.Provider.MaxRetryAttempts
		logger.Debug("Applied default Provider.MaxRetryAttempts")
	}

	// News
	if c.News.HTTPRequestTimeout <= 0 {
		c.News.HTTPRequestTimeout = defaults.News.HTTPRequestTimeout
		logger.Debug("Applied default News.HTTPRequestTimeout")
	}

	if c.News.EntriesPerFeed <= 0 {
		c.News.EntriesPerFeed = defaults.News.EntriesPerFeed
		logger.Debug("Applied default News.EntriesPerFeed")
	}

	if c.News.MaxItems <= 0 {
		c.News.MaxItems = defaults.News.MaxItems
		logger.Debug("Applied default News.MaxItems")
	}

	if c.News.DescriptionLimit <= 0 {
		c.News.DescriptionLimit = defaults.News.DescriptionLimit
		logger.Debug("Applied default News.DescriptionLimit")
	}

	// Stream
	if c.Stream.Interval <= 0 {
		c.Stream.Interval = defaults.Stream.Interval
		logger.Debug("Applied default Stream.Interval")
	}

	if c.Stream.WriteTimeout <= 0 {
		c.Stream.WriteTimeout = defaults.Stream.WriteTimeout
		logger.Debug("Applied default Stream.WriteTimeout")
	}

	if c.Stream.Source != StreamSourceStatic && c.Stream.Source != StreamSourceLive {
		logger.WithField("source", c.Stream.Source).Debug("Unknown Stream.Source, using static")
		c.Stream.Source = StreamSourceStatic
	}

	// Cache
	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = defaults.Cache.DefaultTTL
		logger.Debug("Applied default Cache.DefaultTTL")
	}

	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = defaults.Cache.MaxSize
		logger.Debug("Applied default Cache.MaxSize")
	}

	if c.Cache.CleanupInterval <= 0 {
		c.Cache.CleanupInterval = defaults.Cache.CleanupInterval
		logger.Debug("Applied default Cache.CleanupInterval")
	}

	if c.Cache.WarmupInterval <= 0 {
		c.Cache.WarmupInterval = defaults.Cache.WarmupInterval
		logger.Debug("Applied default Cache.WarmupInterval")
	}

	// Logging
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
		logger.Debug("Applied default Logging.Level")
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = defaults.Logging.Format
		logger.Debug("Applied default Logging.Format")
	}

	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = defaults.Logging.ServiceName
		logger.Debug("Applied default Logging.ServiceName")
	}
}

// ToJSON serializes the configuration to JSON
func (c *UnifiedConfiguration) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// LoadFromJSON deserializes configuration from JSON
func (c *UnifiedConfiguration) LoadFromJSON(jsonData []byte) error {
	if err := json.Unmarshal(jsonData, c); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	c.ValidateAndApplyDefaults()
	return nil
}
