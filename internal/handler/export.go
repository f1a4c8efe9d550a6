package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/VisageDvachevsky/wink-ai-model/internal/middleware"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/internal/service"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

var exportColumns = []string{
	"detection_id", "line_start", "line_end", "category", "category_label",
	"severity", "severity_tier", "is_false_positive", "user_corrected", "detected_text",
}

type ExportHandler struct {
	svc *service.DetectionService
	tax *taxonomy.Taxonomy
}

func NewExportHandler(svc *service.DetectionService, tax *taxonomy.Taxonomy) *ExportHandler {
	return &ExportHandler{svc: svc, tax: tax}
}

// CSV handles GET /api/v1/scripts/:id/export/csv?include_false_positives=&lang=
// Serves the script's detections as a CSV attachment, one row per detection.
func (h *ExportHandler) CSV(c fiber.Ctx) error {
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

	data, err := h.render(res.Detections, language(c))
	if err != nil {
		return middleware.HandleError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=rating_report_%d.csv", id))
	return c.Send(data)
}

func (h *ExportHandler) render(ds []model.LineDetection, lang string) ([]byte, error) {
	var buf bytes.Buffer
	// BOM so spreadsheet tools read the Cyrillic labels as UTF-8.
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	if err := w.Write(exportColumns); err != nil {
		return nil, err
	}
	for _, d := range ds {
		row := []string{
			strconv.FormatInt(d.ID, 10),
			strconv.Itoa(d.LineStart),
			strconv.Itoa(d.LineEnd),
			string(d.Category),
			h.tax.Label(string(d.Category), lang),
			strconv.FormatFloat(d.Severity, 'f', 2, 64),
			string(taxonomy.SeverityTier(d.Severity)),
			strconv.FormatBool(d.IsFalsePositive),
			strconv.FormatBool(d.UserCorrected),
			d.DetectedText,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
