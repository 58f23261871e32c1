package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/market-backend/shared"
)

type Config struct {
	ServerPort             string
	LogLevel               string
	LogFormat              string
	ProviderBaseURL        string
	ProviderTimeoutSeconds string
	ProviderMaxRetries     string
	ProviderRatePerSecond  string
	NewsTimeoutSeconds     string
	CacheTTLSeconds        string
	CacheMaxSize           string
	RedisURL               string
	StreamIntervalMS       string
	StreamSource           string
	UniverseFile           string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "text"),
		ProviderBaseURL:        getEnv("PROVIDER_BASE_URL", shared.DefaultProviderBaseURL),
		ProviderTimeoutSeconds: getEnv("PROVIDER_TIMEOUT_SECONDS", "10"),
		ProviderMaxRetries:     getEnv("PROVIDER_MAX_RETRIES", "1"),
		ProviderRatePerSecond:  getEnv("PROVIDER_RATE_PER_SECOND", "10"),
		NewsTimeoutSeconds:     getEnv("NEWS_TIMEOUT_SECONDS", "10"),
		CacheTTLSeconds:        getEnv("CACHE_TTL_SECONDS", "15"),
		CacheMaxSize:           getEnv("CACHE_MAX_SIZE", "1000"),
		RedisURL:               getEnv("REDIS_URL", ""),
		StreamIntervalMS:       getEnv("STREAM_INTERVAL_MS", "2000"),
		StreamSource:           getEnv("STREAM_SOURCE", shared.StreamSourceStatic),
		UniverseFile:           getEnv("UNIVERSE_FILE", ""),
	}
}

// ToUnified converts raw environment values into the typed configuration.
// Unparseable values are logged and replaced by defaults.
func (c *Config) ToUnified() *shared.UnifiedConfiguration {
	unified := shared.NewDefaultUnifiedConfiguration()

	unified.Provider.BaseURL = strings.TrimRight(c.ProviderBaseURL, "/")
	unified.Provider.HTTPRequestTimeout = parseDuration("PROVIDER_TIMEOUT_SECONDS", c.ProviderTimeoutSeconds, time.Second, unified.Provider.HTTPRequestTimeout)
	unified.Provider.MaxRetryAttempts = parseInt("PROVIDER_MAX_RETRIES", c.ProviderMaxRetries, unified.Provider.MaxRetryAttempts)
	unified.Provider.RequestsPerSecond = parseFloat("PROVIDER_RATE_PER_SECOND", c.ProviderRatePerSecond, unified.Provider.RequestsPerSecond)

	unified.News.HTTPRequestTimeout = parseDuration("NEWS_TIMEOUT_SECONDS", c.NewsTimeoutSeconds, time.Second, unified.News.HTTPRequestTimeout)

	unified.Cache.DefaultTTL = parseDuration("CACHE_TTL_SECONDS", c.CacheTTLSeconds, time.Second, unified.Cache.DefaultTTL)
	unified.Cache.MaxSize = parseInt("CACHE_MAX_SIZE", c.CacheMaxSize, unified.Cache.MaxSize)
	unified.Cache.RedisURL = c.RedisURL

	unified.Stream.Interval = parseDuration("STREAM_INTERVAL_MS", c.StreamIntervalMS, time.Millisecond, unified.Stream.Interval)
	unified.Stream.Source = strings.ToLower(strings.TrimSpace(c.StreamSource))

	unified.Logging.Level = c.LogLevel
	unified.Logging.Format = strings.ToLower(c.LogFormat)

	unified.ValidateAndApplyDefaults()
	return unified
}

// ConfigureLogging applies level and formatter to the standard logrus logger
func ConfigureLogging(cfg shared.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func parseDuration(key, raw string, unit time.Duration, fallback time.Duration) time.Duration {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		logrus.Warnf("Invalid %s value: %s, using default %s", key, raw, fallback)
		return fallback
	}
	return time.Duration(value) * unit
}

func parseInt(key, raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, raw, fallback)
		return fallback
	}
	return value
}

func parseFloat(key, raw string, fallback float64) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || value <= 0 {
		logrus.Warnf("Invalid %s value: %s, using default %g", key, raw, fallback)
		return fallback
	}
	return value
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
