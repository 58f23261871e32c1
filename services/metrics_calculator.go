package services

import (
	"math"

	"github.com/fenilmodi00/market-backend/models"
	"github.com/shopspring/decimal"
)

// Round2 rounds x to 2 decimal places, half away from zero.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	rounded, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return rounded
}

func round2Ptr(x *float64) *float64 {
	if x == nil {
		return nil
	}
	rounded := Round2(*x)
	return &rounded
}

// changeFrom computes change and change percent of latest against previous.
// A zero or negative previous value yields a zero percent.
func changeFrom(latest, previous float64) (change, changePercent float64) {
	latestDecimal := decimal.NewFromFloat(latest)
	previousDecimal := decimal.NewFromFloat(previous)

	delta := latestDecimal.Sub(previousDecimal)
	change, _ = delta.Round(2).Float64()

	if previousDecimal.IsPositive() {
		changePercent, _ = delta.Div(previousDecimal).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}
	return change, changePercent
}

// QuoteFrom normalizes a raw provider quote. Fields the provider did not
// report stay nil. Without a previous close the change is zero.
func QuoteFrom(raw RawQuote) models.Quote {
	quote := models.Quote{
		Symbol:        raw.Symbol,
		Price:         Round2(raw.LatestClose),
		Volume:        int64(raw.Volume),
		MarketCap:     round2Ptr(raw.MarketCap),
		High:          round2Ptr(raw.High),
		Low:           round2Ptr(raw.Low),
		Open:          round2Ptr(raw.Open),
		PreviousClose: round2Ptr(raw.PreviousClose),
	}

	if raw.PreviousClose != nil {
		quote.Change, quote.ChangePercent = changeFrom(raw.LatestClose, *raw.PreviousClose)
	}
	return quote
}

// IndexFrom derives an index value from the last two bars of series.
// ok is false when fewer than two bars are available.
func IndexFrom(name, symbol string, series []RawBar) (models.IndexValue, bool) {
	if len(series) < 2 {
		return models.IndexValue{}, false
	}

	latest := series[len(series)-1].Close
	previous := series[len(series)-2].Close
	change, changePercent := changeFrom(latest, previous)

	return models.IndexValue{
		Name:          name,
		Symbol:        symbol,
		Value:         Round2(latest),
		Change:        change,
		ChangePercent: changePercent,
	}, true
}

// HistoricalFrom converts bars to calendar-day points, keeping provider order
func HistoricalFrom(series []RawBar) []models.HistoricalPoint {
	points := make([]models.HistoricalPoint, 0, len(series))
	for _, bar := range series {
		points = append(points, models.HistoricalPoint{
			Date:   bar.Time.Format("2006-01-02"),
			Open:   Round2(bar.Open),
			High:   Round2(bar.High),
			Low:    Round2(bar.Low),
			Close:  Round2(bar.Close),
			Volume: int64(bar.Volume),
		})
	}
	return points
}
