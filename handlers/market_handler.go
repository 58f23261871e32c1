package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/market-backend/models"
	"github.com/fenilmodi00/market-backend/shared"
)

// MarketReader is the aggregation engine surface served over HTTP
type MarketReader interface {
	GetQuote(ctx context.Context, symbol string) (models.Quote, error)
	GetIndices(ctx context.Context) ([]models.IndexValue, error)
	GetTopGainersLosers(ctx context.Context) (models.GainersLosers, error)
	GetHistorical(ctx context.Context, symbol, period string) ([]models.HistoricalPoint, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	GetPopularStocks(ctx context.Context, limit int) ([]models.Quote, error)
}

// NewsReader is the news aggregator surface served over HTTP
type NewsReader interface {
	GetNews(ctx context.Context) []models.NewsItem
}

type MarketHandler struct {
	Market MarketReader
	News   NewsReader
}

func NewMarketHandler(market MarketReader, news NewsReader) *MarketHandler {
	return &MarketHandler{Market: market, News: news}
}

// GetQuote returns the latest quote for :symbol
func (h *MarketHandler) GetQuote(c *fiber.Ctx) error {
	quote, err := h.Market.GetQuote(c.UserContext(), c.Params("symbol"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    quote,
	})
}

// GetMarketIndices returns the configured indices that currently have data
func (h *MarketHandler) GetMarketIndices(c *fiber.Ctx) error {
	indices, err := h.Market.GetIndices(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    indices,
	})
}

func (h *MarketHandler) GetGainersLosers(c *fiber.Ctx) error {
	ranking, err := h.Market.GetTopGainersLosers(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    ranking,
	})
}

// GetHistorical returns daily points for :symbol. The period query parameter
// defaults to one month.
func (h *MarketHandler) GetHistorical(c *fiber.Ctx) error {
	points, err := h.Market.GetHistorical(c.UserContext(), c.Params("symbol"), c.Query("period"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    points,
	})
}

func (h *MarketHandler) Search(c *fiber.Ctx) error {
	results, err := h.Market.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    results,
	})
}

func (h *MarketHandler) GetNews(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.News.GetNews(c.UserContext()),
	})
}

func (h *MarketHandler) GetPopularStocks(c *fiber.Ctx) error {
	quotes, err := h.Market.GetPopularStocks(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    quotes,
	})
}

// errorResponse maps service error categories onto HTTP status codes
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case shared.IsValidationError(err):
		status = fiber.StatusBadRequest
	case shared.IsNotFoundError(err):
		status = fiber.StatusNotFound
	}

	message := err.Error()
	var serviceErr *shared.ServiceError
	if errors.As(err, &serviceErr) {
		message = serviceErr.Message
	}

	if status == fiber.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"component": "MarketHandler",
			"path":      c.Path(),
			"caller":    models.CallerFromContext(c.UserContext()).ID,
		}).WithError(err).Error("Request failed")
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
