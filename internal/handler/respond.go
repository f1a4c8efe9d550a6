package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/middleware"
)

// fail renders err and counts engine outages against operation.
func fail(c fiber.Ctx, operation string, err error) error {
	if errors.Is(err, apperr.ErrCollaboratorUnavailable) {
		Metrics.EngineErrors.WithLabelValues(operation).Inc()
	}
	return middleware.HandleError(c, err)
}
