package models

import (
	"fmt"
	"strings"
)

// Period is a lookback window accepted by the market data provider.
type Period string

const (
	Period1Day    Period = "1d"
	Period5Days   Period = "5d"
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
	Period5Years  Period = "5y"
)

// DefaultHistoricalPeriod is used when a historical request names no period
const DefaultHistoricalPeriod = Period1Month

// ValidPeriods lists every accepted period in ascending length.
var ValidPeriods = []Period{
	Period1Day,
	Period5Days,
	Period1Month,
	Period3Months,
	Period6Months,
	Period1Year,
	Period5Years,
}

// IsValid reports whether p is one of ValidPeriods
func (p Period) IsValid() bool {
	for _, valid := range ValidPeriods {
		if p == valid {
			return true
		}
	}
	return false
}

func (p Period) String() string {
	return string(p)
}

// ParsePeriod validates a raw period string. An empty string yields
// DefaultHistoricalPeriod.
func ParsePeriod(raw string) (Period, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultHistoricalPeriod, nil
	}

	period := Period(raw)
	if !period.IsValid() {
		return "", fmt.Errorf("invalid period '%s': must be one of %v", raw, ValidPeriods)
	}
	return period, nil
}
