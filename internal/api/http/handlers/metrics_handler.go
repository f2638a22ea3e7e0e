package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketledger/ticket-ledger/internal/observability"
)

// MetricsHandler exposes the in-memory counters.
type MetricsHandler struct {
	metrics *observability.Metrics
	height  func() uint64
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metrics *observability.Metrics, height func() uint64) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, height: height}
}

// Metrics GET /metrics.
func (h *MetricsHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"chain_height": h.height(),
			"counters":     h.metrics.Snapshot(),
		},
	})
}
