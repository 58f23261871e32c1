package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes mounts the market, stream and performance routes on app
func SetupRoutes(app *fiber.App, marketHandler *MarketHandler, streamHandler *StreamHandler, performanceHandler *PerformanceHandler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	api := app.Group("/api/v1", CallerIdentity())

	// Market Routes
	market := api.Group("/market")
	market.Get("/quote/:symbol", marketHandler.GetQuote)
	market.Get("/indices", marketHandler.GetMarketIndices)
	market.Get("/gainers-losers", marketHandler.GetGainersLosers)
	market.Get("/historical/:symbol", marketHandler.GetHistorical)
	market.Get("/search", marketHandler.Search)
	market.Get("/news", marketHandler.GetNews)
	market.Get("/popular-stocks", marketHandler.GetPopularStocks)

	if streamHandler != nil {
		market.Get("/ws", streamHandler.RequireUpgrade, streamHandler.Stream())
	}

	// Performance Routes
	if performanceHandler != nil {
		perf := api.Group("/performance")
		perf.Get("/metrics", performanceHandler.GetPerformanceMetrics)
		perf.Delete("/cache", performanceHandler.ClearCache)
		perf.Post("/cache/warmup", performanceHandler.WarmupCache)
	}
}
