//go:build ignore

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fenilmodi00/market-backend/config"
	"github.com/fenilmodi00/market-backend/models"
	"github.com/fenilmodi00/market-backend/services"
)

func main() {
	fmt.Printf("🏥 Market Backend Health Check - %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println(strings.Repeat("=", 50))

	cfg := config.LoadConfig()
	unified := cfg.ToUnified()
	universe, err := config.LoadUniverse(cfg.UniverseFile)
	if err != nil {
		fmt.Printf("❌ Universe: FAILED (%v)\n", err)
		return
	}

	ctx := context.Background()
	provider := services.NewYahooProvider(&unified.Provider)
	defer provider.Close()

	healthScore := 0
	totalTests := 3 + len(universe.Feeds)

	// Test 1: Provider quote
	fmt.Print("📡 Provider quote: ")
	if quote, err := provider.FetchQuote(ctx, universe.Popular[0]); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		fmt.Printf("✅ OK (%s %.2f)\n", quote.Symbol, quote.LatestClose)
		healthScore++
	}

	// Test 2: Provider index series
	fmt.Print("📈 Provider index series: ")
	index := universe.Indices[0]
	if bars, err := provider.FetchIndexSeries(ctx, index.Symbol, models.Period5Days); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		fmt.Printf("✅ OK (%s, %d bars)\n", index.Name, len(bars))
		healthScore++
	}

	// Test 3: Engine indices
	fmt.Print("📊 Engine indices: ")
	marketService := services.NewMarketService(provider, universe)
	if indices, _ := marketService.GetIndices(ctx); len(indices) == 0 {
		fmt.Println("❌ FAILED (no index data)")
	} else {
		fmt.Printf("✅ OK (%d/%d indices)\n", len(indices), len(universe.Indices))
		healthScore++
	}

	// Test 4+: each news feed on its own
	for _, feed := range universe.Feeds {
		fmt.Printf("📰 %s feed: ", feed.Name)
		newsService := services.NewNewsService([]models.FeedSource{feed}, &unified.News)
		items := newsService.GetNews(ctx)
		if len(items) == 0 || len(items) > unified.News.EntriesPerFeed || items[0].Source != feed.Name {
			fmt.Println("❌ FAILED (serving fallback)")
		} else {
			fmt.Printf("✅ OK (%d items)\n", len(items))
			healthScore++
		}
	}

	// Overall health
	fmt.Println(strings.Repeat("-", 50))
	healthPercent := float64(healthScore) / float64(totalTests) * 100

	if healthScore == totalTests {
		fmt.Printf("🎉 SYSTEM HEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else if healthScore >= totalTests/2 {
		fmt.Printf("⚠️  SYSTEM DEGRADED: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else {
		fmt.Printf("❌ SYSTEM UNHEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	}

	fmt.Printf("⏰ Check completed at: %s\n", time.Now().Format("15:04:05"))
}
