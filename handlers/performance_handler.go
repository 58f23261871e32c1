package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/fenilmodi00/market-backend/jobs"
	"github.com/fenilmodi00/market-backend/services"
	"github.com/fenilmodi00/market-backend/shared"
)

// SubscriptionCounter reports open stream connections
type SubscriptionCounter interface {
	ActiveSubscriptions() int
}

// CacheWarmer refreshes the provider cache on demand
type CacheWarmer interface {
	Run(ctx context.Context) jobs.WarmupResult
}

type clearableCache interface {
	Clear()
}

type PerformanceHandler struct {
	Stream SubscriptionCounter
	Cache  services.CacheBackend
	Warmer CacheWarmer
}

func NewPerformanceHandler(stream SubscriptionCounter, cache services.CacheBackend, warmer CacheWarmer) *PerformanceHandler {
	return &PerformanceHandler{
		Stream: stream,
		Cache:  cache,
		Warmer: warmer,
	}
}

// GetPerformanceMetrics returns per-service request metrics and live resource state
func (h *PerformanceHandler) GetPerformanceMetrics(c *fiber.Ctx) error {
	metrics := make(map[string]interface{})
	metrics["services"] = shared.AllServiceMetrics()

	if h.Stream != nil {
		metrics["stream"] = map[string]interface{}{
			"active_subscriptions": h.Stream.ActiveSubscriptions(),
		}
	}

	if h.Cache != nil {
		metrics["cache"] = map[string]interface{}{
			"backend": h.Cache.Name(),
			"entries": h.Cache.Size(c.UserContext()),
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    metrics,
	})
}

// ClearCache drops every cached provider result
func (h *PerformanceHandler) ClearCache(c *fiber.Ctx) error {
	if cache, ok := h.Cache.(clearableCache); ok {
		cache.Clear()
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Cache cleared successfully",
		})
	}

	return c.JSON(fiber.Map{
		"success": false,
		"message": "Cache backend does not support clearing",
	})
}

// WarmupCache pre-loads indices and popular quotes
func (h *PerformanceHandler) WarmupCache(c *fiber.Ctx) error {
	if h.Warmer == nil {
		return c.JSON(fiber.Map{
			"success": false,
			"message": "Cache warmup not available",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Warmer.Run(c.UserContext()),
	})
}
