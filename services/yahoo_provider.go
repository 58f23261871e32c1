package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fenilmodi00/market-backend/models"
	"github.com/fenilmodi00/market-backend/shared"
	"github.com/sirupsen/logrus"
)

const yahooServiceName = "YahooProvider"

// YahooProvider implements MarketDataProvider on top of the Yahoo Finance chart API
type YahooProvider struct {
	baseURL            string
	httpClient         *http.Client
	requestRateLimiter *shared.HTTPRequestRateLimiter
	serviceMetrics     *shared.ServiceMetrics
	configuration      *shared.ProviderConfig
	httpClientFactory  *shared.HTTPClientFactory
}

// NewYahooProvider creates a provider with configuration-driven initialization
func NewYahooProvider(config *shared.ProviderConfig) *YahooProvider {
	if config == nil {
		defaults := shared.NewDefaultUnifiedConfiguration().Provider
		config = &defaults
	}

	httpClientFactory := shared.NewHTTPClientFactory(config.HTTPRequestTimeout)
	httpClient := httpClientFactory.CreateOptimizedHTTPClient(config.HTTPRequestTimeout)

	burst := int(config.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	provider := &YahooProvider{
		baseURL:            strings.TrimRight(config.BaseURL, "/"),
		httpClient:         httpClient,
		requestRateLimiter: shared.NewHTTPRequestRateLimiter(config.RequestsPerSecond, burst),
		serviceMetrics:     shared.NewServiceMetrics(yahooServiceName),
		configuration:      config,
		httpClientFactory:  httpClientFactory,
	}

	logrus.WithFields(logrus.Fields{
		"component":           yahooServiceName,
		"base_url":            provider.baseURL,
		"http_timeout":        config.HTTPRequestTimeout,
		"requests_per_second": config.RequestsPerSecond,
		"max_retries":         config.MaxRetryAttempts,
	}).Info("Yahoo market data provider initialized")

	return provider
}

// FetchQuote returns the latest daily snapshot for symbol
func (p *YahooProvider) FetchQuote(ctx context.Context, symbol string) (RawQuote, error) {
	result, err := p.fetchChart(ctx, "FetchQuote", symbol, models.Period1Day, "1d")
	if err != nil {
		return RawQuote{}, err
	}

	quote, ok := result.latestQuote()
	if !ok {
		return RawQuote{}, shared.NewNotFoundError(yahooServiceName, "FetchQuote",
			fmt.Sprintf("no price data for symbol %s", symbol), nil)
	}
	quote.Symbol = strings.TrimSpace(symbol)
	return quote, nil
}

// FetchSeries returns daily bars for symbol over period in chronological order
func (p *YahooProvider) FetchSeries(ctx context.Context, symbol string, period models.Period) ([]RawBar, error) {
	return p.fetchBars(ctx, "FetchSeries", symbol, period)
}

// FetchIndexSeries returns daily bars for an index over span
func (p *YahooProvider) FetchIndexSeries(ctx context.Context, symbol string, span models.Period) ([]RawBar, error) {
	return p.fetchBars(ctx, "FetchIndexSeries", symbol, span)
}

func (p *YahooProvider) fetchBars(ctx context.Context, operation, symbol string, period models.Period) ([]RawBar, error) {
	if !period.IsValid() {
		return nil, shared.NewValidationError(yahooServiceName, operation, fmt.Sprintf("invalid period '%s'", period))
	}

	result, err := p.fetchChart(ctx, operation, symbol, period, "1d")
	if err != nil {
		return nil, err
	}

	bars := result.bars()
	if len(bars) == 0 {
		return nil, shared.NewNotFoundError(yahooServiceName, operation,
			fmt.Sprintf("no %s series for symbol %s", period, symbol), nil)
	}
	return bars, nil
}

// fetchChart performs one bounded chart request and classifies its failure
func (p *YahooProvider) fetchChart(ctx context.Context, operation, symbol string, period models.Period, interval string) (*chartResult, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, shared.NewValidationError(yahooServiceName, operation, "symbol is required")
	}

	logger := logrus.WithFields(logrus.Fields{
		"component": yahooServiceName,
		"operation": operation,
		"symbol":    symbol,
		"period":    period,
		"caller":    models.CallerFromContext(ctx).ID,
	})

	ctx, cancel := context.WithTimeout(ctx, p.configuration.HTTPRequestTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := p.requestChart(ctx, operation, symbol, period, interval)

	p.serviceMetrics.RecordRequest(err == nil, time.Since(startTime))
	if err != nil {
		if shared.IsNotFoundError(err) {
			p.serviceMetrics.IncrementCustomCounter("not_found")
			logger.WithError(err).Debug("Symbol not found at provider")
		} else {
			p.serviceMetrics.IncrementCustomCounter("upstream_failures")
			logger.WithError(err).Warn("Provider request failed")
		}
		return nil, err
	}

	logger.WithField("duration", time.Since(startTime)).Debug("Provider request completed")
	return result, nil
}

func (p *YahooProvider) requestChart(ctx context.Context, operation, symbol string, period models.Period, interval string) (*chartResult, error) {
	if err := p.requestRateLimiter.Wait(ctx); err != nil {
		return nil, p.upstreamError(operation, symbol, err)
	}

	query := url.Values{}
	query.Set("range", period.String())
	query.Set("interval", interval)
	requestURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.baseURL, url.PathEscape(symbol), query.Encode())

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, "REQUEST_BUILD_FAILED",
			"failed to build provider request", yahooServiceName, operation, false, err)
	}
	shared.SetBrowserLikeHeaders(httpRequest, "application/json")

	httpResponse, err := shared.ExecuteHTTPRequestWithRetry(p.httpClient, httpRequest, p.configuration.MaxRetryAttempts)
	if err != nil {
		var statusErr *shared.HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, shared.NewNotFoundError(yahooServiceName, operation,
				fmt.Sprintf("unknown symbol %s", symbol), err)
		}
		return nil, p.upstreamError(operation, symbol, err)
	}
	defer httpResponse.Body.Close()

	var response chartResponse
	if err := json.NewDecoder(httpResponse.Body).Decode(&response); err != nil {
		return nil, p.upstreamError(operation, symbol, fmt.Errorf("decode chart response: %w", err))
	}

	if response.Chart.Error != nil {
		return nil, shared.NewNotFoundError(yahooServiceName, operation,
			fmt.Sprintf("provider rejected symbol %s: %s", symbol, response.Chart.Error.Description), nil)
	}
	if len(response.Chart.Result) == 0 {
		return nil, shared.NewNotFoundError(yahooServiceName, operation,
			fmt.Sprintf("no chart result for symbol %s", symbol), nil)
	}

	return &response.Chart.Result[0], nil
}

func (p *YahooProvider) upstreamError(operation, symbol string, cause error) *shared.ServiceError {
	category := shared.ErrorCategoryUpstream
	if errors.Is(cause, context.DeadlineExceeded) {
		category = shared.ErrorCategoryTimeout
	}
	return shared.NewServiceError(category, "UPSTREAM_FAILURE",
		fmt.Sprintf("provider request for %s failed", symbol), yahooServiceName, operation,
		shared.IsRetryableError(cause), cause)
}

// Close releases pooled connections
func (p *YahooProvider) Close() {
	p.httpClientFactory.CleanupAllClients()
	p.serviceMetrics.LogSummary()
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string   `json:"symbol"`
		GMTOffset          int      `json:"gmtoffset"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		PreviousClose      *float64 `json:"previousClose"`
		ChartPreviousClose *float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func valueAt(values []*float64, index int) *float64 {
	if index < 0 || index >= len(values) {
		return nil
	}
	return values[index]
}

// bars converts the OHLCV arrays into bars, skipping rows with any null price
func (r *chartResult) bars() []RawBar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	quote := r.Indicators.Quote[0]
	location := time.FixedZone("exchange", r.Meta.GMTOffset)

	bars := make([]RawBar, 0, len(r.Timestamp))
	for i, timestamp := range r.Timestamp {
		open, high, low, closePrice := valueAt(quote.Open, i), valueAt(quote.High, i), valueAt(quote.Low, i), valueAt(quote.Close, i)
		if open == nil || high == nil || low == nil || closePrice == nil {
			continue
		}

		bar := RawBar{
			Time:  time.Unix(timestamp, 0).In(location),
			Open:  *open,
			High:  *high,
			Low:   *low,
			Close: *closePrice,
		}
		if volume := valueAt(quote.Volume, i); volume != nil {
			bar.Volume = *volume
		}
		bars = append(bars, bar)
	}
	return bars
}

// latestQuote builds a RawQuote from the last non-null close
func (r *chartResult) latestQuote() (RawQuote, bool) {
	if len(r.Indicators.Quote) == 0 {
		return RawQuote{}, false
	}
	quote := r.Indicators.Quote[0]

	latest := -1
	for i := len(quote.Close) - 1; i >= 0; i-- {
		if quote.Close[i] != nil {
			latest = i
			break
		}
	}
	if latest < 0 {
		return RawQuote{}, false
	}

	raw := RawQuote{
		LatestClose:   *quote.Close[latest],
		PreviousClose: r.Meta.PreviousClose,
		Open:          valueAt(quote.Open, latest),
		High:          valueAt(quote.High, latest),
		Low:           valueAt(quote.Low, latest),
	}
	if raw.PreviousClose == nil {
		raw.PreviousClose = r.Meta.ChartPreviousClose
	}
	if volume := valueAt(quote.Volume, latest); volume != nil {
		raw.Volume = *volume
	}
	return raw, true
}
