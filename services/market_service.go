package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fenilmodi00/market-backend/models"
	"github.com/fenilmodi00/market-backend/shared"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	marketServiceName = "MarketService"

	rankingUniverseSize = 10
	rankingListSize     = 5
	maxSearchResults    = 10
	defaultPopularLimit = 10
	indexSpan           = models.Period5Days
)

// MarketService composes quotes, indices, rankings and history from a
// MarketDataProvider. Every per-symbol fetch of one operation runs
// concurrently and results are composed only after all of them settle.
type MarketService struct {
	provider       MarketDataProvider
	universe       *models.SymbolUniverse
	utilityService *UtilityService
	serviceMetrics *shared.ServiceMetrics
}

// NewMarketService creates a market service over provider and universe
func NewMarketService(provider MarketDataProvider, universe *models.SymbolUniverse) *MarketService {
	return &MarketService{
		provider:       provider,
		universe:       universe,
		utilityService: NewUtilityService(),
		serviceMetrics: shared.NewServiceMetrics(marketServiceName),
	}
}

// Universe returns the read-only symbol universe
func (s *MarketService) Universe() *models.SymbolUniverse {
	return s.universe
}

func (s *MarketService) logger(ctx context.Context, operation string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"component": marketServiceName,
		"operation": operation,
		"caller":    models.CallerFromContext(ctx).ID,
	})
}

func (s *MarketService) record(startTime time.Time, err error) {
	s.serviceMetrics.RecordRequest(err == nil, time.Since(startTime))
}

// GetQuote returns the current quote for symbol. Any provider failure is
// reported as not found.
func (s *MarketService) GetQuote(ctx context.Context, symbol string) (quote models.Quote, err error) {
	defer func(startTime time.Time) { s.record(startTime, err) }(time.Now())

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return models.Quote{}, shared.NewValidationError(marketServiceName, "GetQuote", "symbol is required")
	}

	raw, err := s.provider.FetchQuote(ctx, symbol)
	if err != nil {
		s.logger(ctx, "GetQuote").WithField("symbol", symbol).WithError(err).Debug("Quote lookup failed")
		return models.Quote{}, shared.NewNotFoundError(marketServiceName, "GetQuote",
			fmt.Sprintf("stock %s not found", symbol), err)
	}

	raw.Symbol = symbol
	return QuoteFrom(raw), nil
}

// GetIndices returns the configured indices in configured order. Indices whose
// fetch failed or returned fewer than two bars are omitted.
func (s *MarketService) GetIndices(ctx context.Context) ([]models.IndexValue, error) {
	startTime := time.Now()
	logger := s.logger(ctx, "GetIndices")

	definitions := s.universe.Indices
	results := make([]FetchResult[[]RawBar], len(definitions))

	var group errgroup.Group
	for i, definition := range definitions {
		group.Go(func() error {
			series, err := s.provider.FetchIndexSeries(ctx, definition.Symbol, indexSpan)
			results[i] = FetchResult[[]RawBar]{Value: series, Err: err}
			return nil
		})
	}
	_ = group.Wait()

	indices := make([]models.IndexValue, 0, len(definitions))
	for i, result := range results {
		definition := definitions[i]
		if !result.OK() {
			logger.WithField("symbol", definition.Symbol).WithError(result.Err).Warn("Index fetch failed, omitting")
			continue
		}

		index, ok := IndexFrom(definition.Name, definition.Symbol, result.Value)
		if !ok {
			logger.WithFields(logrus.Fields{
				"symbol": definition.Symbol,
				"bars":   len(result.Value),
			}).Warn("Index series too short, omitting")
			continue
		}
		indices = append(indices, index)
	}

	s.record(startTime, nil)
	logger.WithFields(logrus.Fields{
		"requested": len(definitions),
		"returned":  len(indices),
	}).Debug("Indices composed")

	return indices, nil
}

// fetchQuotes fetches quotes for symbols concurrently, one result per slot
func (s *MarketService) fetchQuotes(ctx context.Context, symbols []string) []FetchResult[models.Quote] {
	results := make([]FetchResult[models.Quote], len(symbols))

	var group errgroup.Group
	for i, symbol := range symbols {
		group.Go(func() error {
			raw, err := s.provider.FetchQuote(ctx, symbol)
			if err != nil {
				results[i] = FetchResult[models.Quote]{Err: err}
				return nil
			}
			raw.Symbol = symbol
			results[i] = FetchResult[models.Quote]{Value: QuoteFrom(raw)}
			return nil
		})
	}
	_ = group.Wait()

	return results
}

func (s *MarketService) successfulQuotes(ctx context.Context, operation string, symbols []string) []models.Quote {
	results := s.fetchQuotes(ctx, symbols)

	quotes := make([]models.Quote, 0, len(results))
	for i, result := range results {
		if !result.OK() {
			s.logger(ctx, operation).WithField("symbol", symbols[i]).WithError(result.Err).Warn("Quote fetch failed, excluding")
			continue
		}
		quotes = append(quotes, result.Value)
	}
	return quotes
}

// GetTopGainersLosers ranks the first ten popular symbols by change percent.
// Gainers are sorted descending, losers ascending, at most five each.
func (s *MarketService) GetTopGainersLosers(ctx context.Context) (models.GainersLosers, error) {
	startTime := time.Now()

	symbols := s.universe.Popular
	if len(symbols) > rankingUniverseSize {
		symbols = symbols[:rankingUniverseSize]
	}

	ranking := RankGainersLosers(s.successfulQuotes(ctx, "GetTopGainersLosers", symbols), rankingListSize)
	s.record(startTime, nil)
	return ranking, nil
}

// RankGainersLosers splits quotes by the sign of their change percent and
// keeps the top n of each side. Unchanged quotes appear in neither list.
func RankGainersLosers(quotes []models.Quote, n int) models.GainersLosers {
	gainers := make([]models.Quote, 0, len(quotes))
	losers := make([]models.Quote, 0, len(quotes))

	for _, quote := range quotes {
		switch {
		case quote.ChangePercent > 0:
			gainers = append(gainers, quote)
		case quote.ChangePercent < 0:
			losers = append(losers, quote)
		}
	}

	sort.SliceStable(gainers, func(i, j int) bool {
		return gainers[i].ChangePercent > gainers[j].ChangePercent
	})
	sort.SliceStable(losers, func(i, j int) bool {
		return losers[i].ChangePercent < losers[j].ChangePercent
	})

	if len(gainers) > n {
		gainers = gainers[:n]
	}
	if len(losers) > n {
		losers = losers[:n]
	}

	return models.GainersLosers{Gainers: gainers, Losers: losers}
}

// GetHistorical returns the daily series for symbol over period. An empty
// period selects the default. Unknown periods are rejected before any fetch.
func (s *MarketService) GetHistorical(ctx context.Context, symbol, period string) (points []models.HistoricalPoint, err error) {
	defer func(startTime time.Time) { s.record(startTime, err) }(time.Now())

	parsedPeriod, err := models.ParsePeriod(period)
	if err != nil {
		return nil, shared.NewValidationError(marketServiceName, "GetHistorical", err.Error())
	}

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, shared.NewValidationError(marketServiceName, "GetHistorical", "symbol is required")
	}

	series, err := s.provider.FetchSeries(ctx, symbol, parsedPeriod)
	if err != nil {
		s.logger(ctx, "GetHistorical").WithFields(logrus.Fields{
			"symbol": symbol,
			"period": parsedPeriod,
		}).WithError(err).Debug("Historical lookup failed")
		return nil, shared.NewNotFoundError(marketServiceName, "GetHistorical",
			fmt.Sprintf("no historical data found for %s", symbol), err)
	}
	if len(series) == 0 {
		return nil, shared.NewNotFoundError(marketServiceName, "GetHistorical",
			fmt.Sprintf("no historical data found for %s", symbol), nil)
	}

	return HistoricalFrom(series), nil
}

// Search matches query case-insensitively against the popular symbols
func (s *MarketService) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if query == "" {
		return nil, shared.NewValidationError(marketServiceName, "Search", "search query is required")
	}

	// A blank query is accepted and matches nothing
	query = strings.TrimSpace(query)
	needle := strings.ToUpper(query)
	results := make([]models.SearchResult, 0, maxSearchResults)
	if needle == "" {
		return results, nil
	}
	for _, symbol := range s.universe.Popular {
		if !strings.Contains(strings.ToUpper(symbol), needle) {
			continue
		}
		results = append(results, models.SearchResult{
			Symbol: symbol,
			Name:   s.utilityService.DisplayName(symbol),
		})
		if len(results) == maxSearchResults {
			break
		}
	}

	s.logger(ctx, "Search").WithFields(logrus.Fields{
		"query":   query,
		"matches": len(results),
	}).Debug("Search completed")

	return results, nil
}

// GetPopularStocks returns quotes for the first limit popular symbols in
// configured order. limit is clamped to the universe size; non-positive
// values select the default of ten.
func (s *MarketService) GetPopularStocks(ctx context.Context, limit int) ([]models.Quote, error) {
	startTime := time.Now()

	if limit <= 0 {
		limit = defaultPopularLimit
	}
	if limit > len(s.universe.Popular) {
		limit = len(s.universe.Popular)
	}

	quotes := s.successfulQuotes(ctx, "GetPopularStocks", s.universe.Popular[:limit])
	s.record(startTime, nil)
	return quotes, nil
}
