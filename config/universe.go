package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fenilmodi00/market-backend/models"
)

//go:embed universe.yaml
var embeddedUniverse []byte

// DefaultUniverse returns the symbol universe compiled into the binary
func DefaultUniverse() (*models.SymbolUniverse, error) {
	return ParseUniverse(embeddedUniverse)
}

// LoadUniverse reads a universe YAML file, or the embedded default when path
// is empty. ${VAR} references in the file are expanded from the environment.
func LoadUniverse(path string) (*models.SymbolUniverse, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultUniverse()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	return ParseUniverse([]byte(os.ExpandEnv(string(data))))
}

// ParseUniverse decodes and validates a universe document.
func ParseUniverse(data []byte) (*models.SymbolUniverse, error) {
	var universe models.SymbolUniverse
	if err := yaml.Unmarshal(data, &universe); err != nil {
		return nil, fmt.Errorf("parse universe yaml: %w", err)
	}

	if err := validateUniverse(&universe); err != nil {
		return nil, fmt.Errorf("validate universe: %w", err)
	}
	return &universe, nil
}

func validateUniverse(universe *models.SymbolUniverse) error {
	if len(universe.Indices) == 0 {
		return fmt.Errorf("at least one index is required")
	}
	if len(universe.Popular) == 0 {
		return fmt.Errorf("at least one popular symbol is required")
	}

	seen := make(map[string]bool)
	for i, index := range universe.Indices {
		if index.Name == "" || index.Symbol == "" {
			return fmt.Errorf("indices[%d]: name and symbol are required", i)
		}
		if seen[index.Symbol] {
			return fmt.Errorf("indices[%d]: duplicate symbol %s", i, index.Symbol)
		}
		seen[index.Symbol] = true
	}

	for i, symbol := range universe.Popular {
		if strings.TrimSpace(symbol) == "" {
			return fmt.Errorf("popular[%d]: empty symbol", i)
		}
	}

	for i, feed := range universe.Feeds {
		if feed.Name == "" || feed.FeedURL == "" {
			return fmt.Errorf("feeds[%d]: name and feed_url are required", i)
		}
	}
	return nil
}
