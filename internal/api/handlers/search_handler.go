package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/keywordpulse/backend/internal/export"
	"github.com/keywordpulse/backend/internal/pipeline"
	"github.com/keywordpulse/backend/internal/scan"
	"github.com/keywordpulse/backend/internal/source"
	"github.com/keywordpulse/backend/pkg/logger"
)

type SearchHandler struct {
	service  *scan.Service
	exporter *export.Manager
}

func NewSearchHandler(service *scan.Service, exporter *export.Manager) *SearchHandler {
	return &SearchHandler{
		service:  service,
		exporter: exporter,
	}
}

type searchRequest struct {
	scan.Request
	Export []string `json:"export,omitempty"`
}

func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var req searchRequest

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.service.Run(c.Context(), req.Request, nil)
	if err != nil {
		return h.mapError(c, err)
	}

	exports := make(map[string]string)
	for _, format := range req.Export {
		path, err := h.exporter.Write(format, result.Items, result.Stats, export.Metadata{
			RunID:       result.RunID,
			Keywords:    req.Keywords,
			Sort:        req.Sort,
			Container:   req.Container,
			Partial:     result.Partial,
			GeneratedAt: time.Now(),
		})
		if err != nil {
			logger.Error("Export failed", zap.String("format", format), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Export failed",
			})
		}
		exports[format] = path
	}

	response := fiber.Map{
		"run_id":     result.RunID,
		"items":      result.Items,
		"stats":      result.Stats,
		"partial":    result.Partial,
		"crawl":      result.Crawl,
		"elapsed_ms": result.Elapsed.Milliseconds(),
	}
	if result.Reason != "" {
		response["reason"] = result.Reason
	}
	if len(exports) > 0 {
		response["exports"] = exports
	}

	return c.JSON(response)
}

// HandleFormats lists the registered export formats.
func (h *SearchHandler) HandleFormats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"formats": h.exporter.Formats(),
	})
}

func (h *SearchHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, scan.ErrInvalidConfiguration),
		errors.Is(err, pipeline.ErrUnsupportedFilter):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, source.ErrSourceUnavailable):
		logger.Error("Source unavailable", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Content source unavailable",
		})
	default:
		logger.Error("Scan failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Scan failed",
		})
	}
}
