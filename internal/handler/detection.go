package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/middleware"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/internal/service"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

// DetectionHandler serves the review workflow: detections, flags, corrections.
type DetectionHandler struct {
	svc      *service.DetectionService
	validate *middleware.Validator
}

func NewDetectionHandler(svc *service.DetectionService, validate *middleware.Validator) *DetectionHandler {
	return &DetectionHandler{svc: svc, validate: validate}
}

// List handles GET /api/v1/scripts/:id/detections?include_false_positives=&category=
func (h *DetectionHandler) List(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}
	includeFP, err := middleware.ParseBoolQuery(c, "include_false_positives", false)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	category, err := categoryQuery(c)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	res, err := h.svc.LoadDetections(c.Context(), id, includeFP)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	// A selected category is a review view: flagged rows stay hidden.
	if category != service.AllCategories {
		return c.JSON(service.FilterDetections(res.Detections, category))
	}
	return c.JSON(res.Detections)
}

// Run handles POST /api/v1/scripts/:id/detections?context_size=
func (h *DetectionHandler) Run(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}
	contextSize, err := middleware.ParseIntQuery(c, "context_size", service.DefaultContextSize)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	start := time.Now()
	res, err := h.svc.RunDetection(c.Context(), id, contextSize)
	if err != nil {
		return fail(c, "detect_lines", err)
	}
	Metrics.DetectionDuration.Observe(time.Since(start).Seconds())
	return c.JSON(res.Detections)
}

// Stats handles GET /api/v1/scripts/:id/detections/stats
func (h *DetectionHandler) Stats(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}

	stats, err := h.svc.Stats(c.Context(), id)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(stats)
}

// Full handles GET /api/v1/scripts/:id/detections/full?include_false_positives=
func (h *DetectionHandler) Full(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}
	includeFP, err := middleware.ParseBoolQuery(c, "include_false_positives", false)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	res, err := h.svc.LoadDetections(c.Context(), id, includeFP)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(res)
}

// MarkFalsePositive handles PATCH /api/v1/scripts/detections/:detectionId/false-positive?is_false_positive=
func (h *DetectionHandler) MarkFalsePositive(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "detectionId")
	if err != nil {
		return middleware.HandleError(c, err)
	}
	if strings.TrimSpace(c.Query("is_false_positive")) == "" {
		return middleware.HandleError(c, apperr.ValidationWithDetails("missing query parameter", map[string]string{
			"is_false_positive": "is required",
		}))
	}
	isFP, err := middleware.ParseBoolQuery(c, "is_false_positive", true)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	d, err := h.svc.MarkFalsePositive(c.Context(), id, isFP)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	Metrics.FalsePositiveMarks.WithLabelValues(strconv.FormatBool(isFP)).Inc()
	return c.JSON(d)
}

// CreateCorrection handles POST /api/v1/scripts/:id/corrections
func (h *DetectionHandler) CreateCorrection(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}
	var req model.CreateCorrectionRequest
	if err := h.validate.BindJSON(c, &req); err != nil {
		return middleware.HandleError(c, err)
	}

	correction, err := h.svc.CreateCorrection(c.Context(), id, req)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	Metrics.CorrectionsTotal.WithLabelValues(string(correction.CorrectionType)).Inc()
	return c.Status(fiber.StatusCreated).JSON(correction)
}

// ListCorrections handles GET /api/v1/scripts/:id/corrections
func (h *DetectionHandler) ListCorrections(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}

	corrections, err := h.svc.ListCorrections(c.Context(), id)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(corrections)
}

// AdjustedRating handles GET /api/v1/scripts/:id/adjusted-rating
func (h *DetectionHandler) AdjustedRating(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}

	res, err := h.svc.AdjustedRating(c.Context(), id)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(res)
}

// categoryQuery reads the optional category filter. "all" and "" select everything.
func categoryQuery(c fiber.Ctx) (string, error) {
	raw := strings.TrimSpace(c.Query("category"))
	if raw == "" || raw == service.AllCategories {
		return service.AllCategories, nil
	}
	if _, err := taxonomy.ParseCategory(raw); err != nil {
		return "", err
	}
	return raw, nil
}
