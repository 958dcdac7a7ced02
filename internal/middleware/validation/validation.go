// Package validation rejects malformed or oversized requests before
// they reach the handlers.
package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxBodySize         int
	MaxKeywordLength    int
	MaxKeywords         int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 64 * 1024
	}
	if cfg.MaxKeywordLength == 0 {
		cfg.MaxKeywordLength = 256
	}
	if cfg.MaxKeywords == 0 {
		cfg.MaxKeywords = 50
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			contentType := c.Get("Content-Type")
			if contentType != "" && !allowed(contentType, cfg.AllowedContentTypes) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}

			if len(c.Body()) > cfg.MaxBodySize {
				cfg.Logger.Warn("Request body too large",
					zap.Int("size", len(c.Body())),
					zap.String("path", c.Path()),
				)
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Request body too large",
				})
			}
		}

		if strings.HasPrefix(c.Path(), "/api/v1/search") && c.Method() == fiber.MethodPost {
			var req struct {
				Keywords []string `json:"keywords"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}
			if len(req.Keywords) > cfg.MaxKeywords {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Too many keywords",
				})
			}
			for _, kw := range req.Keywords {
				if len(kw) > cfg.MaxKeywordLength {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": "Keyword too long",
					})
				}
			}
		}

		return c.Next()
	}
}

func allowed(contentType string, allowedTypes []string) bool {
	for _, t := range allowedTypes {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}
