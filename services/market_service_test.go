package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fenilmodi00/market-backend/models"
	"github.com/fenilmodi00/market-backend/services"
	"github.com/fenilmodi00/market-backend/shared"
)

func testUniverse() *models.SymbolUniverse {
	return &models.SymbolUniverse{
		Indices: []models.IndexDefinition{
			{Name: "NIFTY 50", Symbol: "^NSEI"},
			{Name: "SENSEX", Symbol: "^BSESN"},
			{Name: "NIFTY BANK", Symbol: "^NSEBANK"},
			{Name: "NIFTY IT", Symbol: "^CNXIT"},
		},
		Popular: []string{
			"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS", "INFY.NS", "ICICIBANK.NS",
			"HINDUNILVR.NS", "ITC.NS", "SBIN.NS", "BHARTIARTL.NS", "KOTAKBANK.NS",
			"ICICIPRULI.NS", "ICICIGI.NS",
		},
	}
}

func rawQuoteWithChange(symbol string, previous, latest float64) services.RawQuote {
	return services.RawQuote{Symbol: symbol, LatestClose: latest, PreviousClose: &previous, Volume: 1000}
}

func dailyBars(closes ...float64) []services.RawBar {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	bars := make([]services.RawBar, 0, len(closes))
	for i, closePrice := range closes {
		bars = append(bars, services.RawBar{
			Time:  start.AddDate(0, 0, i),
			Open:  closePrice,
			High:  closePrice,
			Low:   closePrice,
			Close: closePrice,
		})
	}
	return bars
}

var errUpstream = shared.NewUpstreamError("test", "fetch", "upstream down", errors.New("connection refused"))

func TestGetQuote(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := NewMockMarketDataProvider(ctrl)
	service := services.NewMarketService(provider, testUniverse())

	provider.EXPECT().
		FetchQuote(gomock.Any(), "X").
		Return(rawQuoteWithChange("X", 100, 105), nil)

	quote, err := service.GetQuote(t.Context(), " X ")
	require.NoError(t, err)
	assert.Equal(t, "X", quote.Symbol)
	assert.Equal(t, 105.0, quote.Price)
	assert.Equal(t, 5.0, quote.Change)
	assert.Equal(t, 5.0, quote.ChangePercent)
}

func TestGetQuote_UpstreamFailureIsNotFound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := NewMockMarketDataProvider(ctrl)
	service := services.NewMarketService(provider, testUniverse())

	provider.EXPECT().
		FetchQuote(gomock.Any(), "GHOST.NS").
		Return(services.RawQuote{}, errUpstream)

	_, err := service.GetQuote(t.Context(), "GHOST.NS")
	require.Error(t, err)
	assert.True(t, shared.IsNotFoundError(err))
}

func TestGetQuote_EmptySymbolIsValidationError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	service := services.NewMarketService(NewMockMarketDataProvider(ctrl), testUniverse())

	_, err := service.GetQuote(t.Context(), "   ")
	require.Error(t, err)
	assert.True(t, shared.IsValidationError(err))
}

func TestGetTopGainersLosers_RanksFirstTenAndExcludesFailures(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := NewMockMarketDataProvider(ctrl)
	universe := testUniverse()
	service := services.NewMarketService(provider, universe)

	latestBySymbol := map[string]float64{
		"RELIANCE.NS":   103,
		"TCS.NS":        101,
		"HDFCBANK.NS":   98,
		"HINDUNILVR.NS": 105,
		"ITC.NS":        96,
		"SBIN.NS":       100,
		"BHARTIARTL.NS": 102,
		"KOTAKBANK.NS":  104,
		"ICICIBANK.NS":  106,
	}

	// Only the first ten popular symbols are ranked
	for _, symbol := range universe.Popular[:10] {
		if symbol == "INFY.NS" {
			provider.EXPECT().FetchQuote(gomock.Any(), symbol).Return(services.RawQuote{}, errUpstream)
			continue
		}
		provider.EXPECT().FetchQuote(gomock.Any(), symbol).Return(rawQuoteWithChange(symbol, 100, latestBySymbol[symbol]), nil)
	}

	ranking, err := service.GetTopGainersLosers(t.Context())
	require.NoError(t, err)

	gainers := make([]string, 0, len(ranking.Gainers))
	for _, quote := range ranking.Gainers {
		gainers = append(gainers, quote.Symbol)
	}
	losers := make([]string, 0, len(ranking.Losers))
	for _, quote := range ranking.Losers {
		losers = append(losers, quote.Symbol)
	}

	assert.Equal(t, []string{"ICICIBANK.NS", "HINDUNILVR.NS", "KOTAKBANK.NS", "RELIANCE.NS", "BHARTIARTL.NS"}, gainers)
	assert.Equal(t, []string{"ITC.NS", "HDFCBANK.NS"}, losers)

	for _, quote := range append(ranking.Gainers, ranking.Losers...) {
		assert.NotEqual(t, "INFY.NS", quote.Symbol)
		assert.NotEqual(t, "SBIN.NS", quote.Symbol)
	}
}

func TestGetIndices_OmitsFailedAndShortSeries(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := NewMockMarketDataProvider(ctrl)
	service := services.NewMarketService(provider, testUniverse())

	provider.EXPECT().FetchIndexSeries(gomock.Any(), "^NSEI", models.Period5Days).Return(dailyBars(22000, 22220), nil)
	provider.EXPECT().FetchIndexSeries(gomock.Any(), "^BSESN", models.Period5Days).Return(dailyBars(73000), nil)
	provider.EXPECT().FetchIndexSeries(gomock.Any(), "^NSEBANK", models.Period5Days).Return(nil, errUpstream)
	provider.EXPECT().FetchIndexSeries(gomock.Any(), "^CNXIT", models.Period5Days).Return(dailyBars(36000, 35000, 35350), nil)

	indices, err := service.GetIndices(t.Context())
	require.NoError(t, err)
	require.Len(t, indices, 2)

	assert.Equal(t, "NIFTY 50", indices[0].Name)
	assert.Equal(t, 22220.0, indices[0].Value)
	assert.Equal(t, 220.0, indices[0].Change)
	assert.Equal(t, 1.0, indices[0].ChangePercent)

	assert.Equal(t, "NIFTY IT", indices[1].Name)
	assert.Equal(t, 35350.0, indices[1].Value)
	assert.Equal(t, 350.0, indices[1].Change)
	assert.Equal(t, 1.0, indices[1].ChangePercent)
}

func TestGetIndices_ResultFollowsConfiguredOrderRegardlessOfCompletion(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := NewMockMarketDataProvider(ctrl)
	service := services.NewMarketService(provider, testUniverse())

	delays := map[string]time.Duration{
		"^NSEI":    30 * time.Millisecond,
		"^BSESN":   20 * time.Millisecond,
		"^NSEBANK": 10 * time.Millisecond,
		"^CNXIT":   0,
	}
	provider.EXPECT().
		FetchIndexSeries(gomock.Any(), gomock.Any(), models.Period5Days).
		DoAndReturn(func(_ context.Context, symbol string, _ models.Period) ([]services.RawBar, error) {
			time.Sleep(delays[symbol])
			return dailyBars(100, 101), nil
		}).
		Times(4)

	indices, err := service.GetIndices(t.Context())
	require.NoError(t, err)
	require.Len(t, indices, 4)

	names := []string{indices[0].Name, indices[1].Name, indices[2].Name, indices[3].Name}
	assert.Equal(t, []string{"NIFTY 50", "SENSEX", "NIFTY BANK", "NIFTY IT"}, names)
}

func TestGetHistorical_InvalidPeriodMakesNoProviderCall(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := NewMockMarketDataProvider(ctrl)
	service := services.NewMarketService(provider, testUniverse())

	provider.EXPECT().FetchSeries(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := service.GetHistorical(t.Context(), "TCS.NS", "2w")
	require.Error(t, err)
	assert.True(t, shared.IsValidationError(err))
}

func TestGetHistorical_DefaultsToOneMonth(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := NewMockMarketDataProvider(ctrl)
	service := services.NewMarketService(provider, testUniverse())

	provider.EXPECT().FetchSeries(gomock.Any(), "TCS.NS", models.Period1Month).Return(dailyBars(3500, 3510, 3490), nil)

	points, err := service.GetHistorical(t.Context(), "TCS.NS", "")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2025-03-03", points[0].Date)
	assert.Equal(t, 3490.0, points[2].Close)
}

func TestGetHistorical_UpstreamFailureIsNotFound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := NewMockMarketDataProvider(ctrl)
	service := services.NewMarketService(provider, testUniverse())

	provider.EXPECT().FetchSeries(gomock.Any(), "TCS.NS", models.Period1Year).Return(nil, errUpstream)

	_, err := service.GetHistorical(t.Context(), "TCS.NS", "1y")
	require.Error(t, err)
	assert.True(t, shared.IsNotFoundError(err))
}

func TestSearch_MatchesPopularSymbolsCaseInsensitively(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	service := services.NewMarketService(NewMockMarketDataProvider(ctrl), testUniverse())

	results, err := service.Search(t.Context(), "  icici ")
	require.NoError(t, err)
	assert.Equal(t, []models.SearchResult{
		{Symbol: "ICICIBANK.NS", Name: "ICICIBANK"},
		{Symbol: "ICICIPRULI.NS", Name: "ICICIPRULI"},
		{Symbol: "ICICIGI.NS", Name: "ICICIGI"},
	}, results)

	results, err = service.Search(t.Context(), "ZZZ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_EmptyQueryIsValidationError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	service := services.NewMarketService(NewMockMarketDataProvider(ctrl), testUniverse())

	_, err := service.Search(t.Context(), "")
	require.Error(t, err)
	assert.True(t, shared.IsValidationError(err))
}

func TestSearch_BlankQueryMatchesNothing(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	service := services.NewMarketService(NewMockMarketDataProvider(ctrl), testUniverse())

	for _, query := range []string{" ", " \t"} {
		results, err := service.Search(t.Context(), query)
		require.NoError(t, err, "query %q", query)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
}

func TestSearch_CapsResultsAtTen(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	service := services.NewMarketService(NewMockMarketDataProvider(ctrl), testUniverse())

	results, err := service.Search(t.Context(), ".NS")
	require.NoError(t, err)
	assert.Len(t, results, 10)
}

func TestGetPopularStocks_ClampsLimitAndKeepsOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := NewMockMarketDataProvider(ctrl)
	universe := testUniverse()
	service := services.NewMarketService(provider, universe)

	provider.EXPECT().
		FetchQuote(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, symbol string) (services.RawQuote, error) {
			if symbol == "TCS.NS" {
				return services.RawQuote{}, errUpstream
			}
			return rawQuoteWithChange(symbol, 100, 101), nil
		}).
		AnyTimes()

	quotes, err := service.GetPopularStocks(t.Context(), 100)
	require.NoError(t, err)
	require.Len(t, quotes, len(universe.Popular)-1)
	assert.Equal(t, "RELIANCE.NS", quotes[0].Symbol)
	assert.Equal(t, "HDFCBANK.NS", quotes[1].Symbol)

	quotes, err = service.GetPopularStocks(t.Context(), 0)
	require.NoError(t, err)
	assert.Len(t, quotes, 9)

	quotes, err = service.GetPopularStocks(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "RELIANCE.NS", quotes[0].Symbol)
}
