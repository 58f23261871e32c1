package services

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

var (
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	marketSuffixRegex = regexp.MustCompile(`\.(NS|BO)$`)
)

// Accepted feed date layouts, tried after the source's own layout
var feedDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
}

// UtilityService provides text processing and normalization utilities
type UtilityService struct{}

// NewUtilityService creates a new utility service instance
func NewUtilityService() *UtilityService {
	return &UtilityService{}
}

// NormalizeTextContent collapses runs of whitespace into single spaces
func (s *UtilityService) NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// StripHTML returns the text content of an HTML fragment with whitespace normalized
func (s *UtilityService) StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return s.NormalizeTextContent(fragment)
	}

	document, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "UtilityService",
			"method":    "StripHTML",
		}).WithError(err).Debug("Failed to parse HTML fragment, using raw text")
		return s.NormalizeTextContent(fragment)
	}
	return s.NormalizeTextContent(document.Text())
}

// TruncateText limits text to maxRunes characters
func (s *UtilityService) TruncateText(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return string([]rune(text)[:maxRunes])
}

// ParseFeedDate parses an RSS publication date. preferredLayout is tried
// first. Returns nil when no layout matches.
func (s *UtilityService) ParseFeedDate(dateText, preferredLayout string) *time.Time {
	dateText = strings.TrimSpace(dateText)
	if dateText == "" {
		return nil
	}

	layouts := feedDateLayouts
	if preferredLayout != "" {
		layouts = append([]string{preferredLayout}, feedDateLayouts...)
	}

	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, dateText); err == nil {
			return &parsed
		}
	}
	return nil
}

// DisplayName strips the exchange suffix from a provider symbol
func (s *UtilityService) DisplayName(symbol string) string {
	return marketSuffixRegex.ReplaceAllString(symbol, "")
}
