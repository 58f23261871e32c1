package models

// IndexDefinition names one tracked market index.
type IndexDefinition struct {
	Name   string `yaml:"name" json:"name"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// FeedSource describes one RSS news feed.
type FeedSource struct {
	Name       string `yaml:"name" json:"name"`
	FeedURL    string `yaml:"feed_url" json:"feed_url"`
	BaseURL    string `yaml:"base_url" json:"base_url"`
	DateLayout string `yaml:"date_layout,omitempty" json:"date_layout,omitempty"`
}

// SymbolUniverse is the fixed, ordered set of indices, popular symbols and news
// feeds the backend serves. It is loaded once at startup and never mutated.
type SymbolUniverse struct {
	Indices []IndexDefinition `yaml:"indices" json:"indices"`
	Popular []string          `yaml:"popular" json:"popular"`
	Feeds   []FeedSource      `yaml:"feeds" json:"feeds"`
}
