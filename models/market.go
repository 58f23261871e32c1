package models

import "time"

// Quote is a point-in-time price snapshot for a tradable symbol.
// Optional fields are nil when the provider did not report them.
type Quote struct {
	Symbol        string   `json:"symbol"`
	Price         float64  `json:"price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"change_percent"`
	Volume        int64    `json:"volume"`
	MarketCap     *float64 `json:"market_cap"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	Open          *float64 `json:"open"`
	PreviousClose *float64 `json:"previous_close"`
}

// IndexValue represents a stock market index with current value and change information
type IndexValue struct {
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// HistoricalPoint is one trading day of a historical series.
type HistoricalPoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type NewsItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	ImageURL    *string   `json:"image_url"`
}

// SearchResult pairs a provider symbol with its display name
type SearchResult struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type GainersLosers struct {
	Gainers []Quote `json:"gainers"`
	Losers  []Quote `json:"losers"`
}

// TickSnapshot is the payload pushed to stream subscribers on every interval.
type TickSnapshot struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
