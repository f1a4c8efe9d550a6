package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

// DefaultContextSize is how many surrounding lines the engine returns with each detection.
const DefaultContextSize = 3

// MaxContextSize is the largest context the engine accepts.
const MaxContextSize = 10

// DetectionService is the review workflow over a script's detections and corrections.
type DetectionService struct {
	scripts     ScriptStore
	detections  DetectionStore
	corrections CorrectionStore
	engine      Engine
	cache       ResultCache
}

func NewDetectionService(scripts ScriptStore, detections DetectionStore, corrections CorrectionStore, engine Engine, cache ResultCache) *DetectionService {
	return &DetectionService{
		scripts:     scripts,
		detections:  detections,
		corrections: corrections,
		engine:      engine,
		cache:       cache,
	}
}

// LoadDetections returns a script's current detections with their stats. Without
// includeFalsePositives, flagged rows are left out of the list and the counts;
// FalsePositives is counted either way.
func (s *DetectionService) LoadDetections(ctx context.Context, scriptID int64, includeFalsePositives bool) (*model.ScriptDetections, error) {
	script, err := s.scripts.Get(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	all, err := s.detections.ListByScript(ctx, scriptID, true)
	if err != nil {
		return nil, err
	}
	corrections, err := s.corrections.ListByScript(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	stats := ComputeStats(all, corrections, countLines(script.Content), includeFalsePositives)
	list := all
	if !includeFalsePositives {
		list = FilterDetections(all, AllCategories)
	}

	return &model.ScriptDetections{
		ScriptID:        script.ID,
		Title:           script.Title,
		PredictedRating: script.PredictedRating,
		Detections:      WithTiers(list),
		Stats:           stats,
		CorrectionCount: len(corrections),
	}, nil
}

// Stats returns the stats block alone, with false positives excluded from the counts.
func (s *DetectionService) Stats(ctx context.Context, scriptID int64) (*model.DetectionStats, error) {
	res, err := s.LoadDetections(ctx, scriptID, false)
	if err != nil {
		return nil, err
	}
	return &res.Stats, nil
}

// RunDetection runs a full detection pass and replaces the script's detection set.
// Prior corrections are re-applied to the new set before it is stored. The engine
// call is bounded by ctx; nothing is written if it fails or ctx ends first.
func (s *DetectionService) RunDetection(ctx context.Context, scriptID int64, contextSize int) (*model.ScriptDetections, error) {
	if contextSize < 0 || contextSize > MaxContextSize {
		return nil, apperr.Validation(fmt.Sprintf("context_size must be between 0 and %d", MaxContextSize))
	}

	script, err := s.scripts.Get(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	found, err := s.engine.DetectLines(ctx, script.Content, scriptID, contextSize)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fresh := make([]model.LineDetection, 0, len(found))
	for _, d := range found {
		if !d.Category.Valid() {
			log.Warn().Int64("script_id", scriptID).Str("category", string(d.Category)).Msg("detection with unknown category kept")
		}
		if d.LineStart < 1 || d.LineEnd < d.LineStart {
			log.Warn().Int64("script_id", scriptID).Int("line_start", d.LineStart).Int("line_end", d.LineEnd).Msg("detection with invalid line range dropped")
			continue
		}
		d.ID = 0
		d.ScriptID = scriptID
		d.IsFalsePositive = false
		d.UserCorrected = false
		fresh = append(fresh, d)
	}

	corrections, err := s.corrections.ListByScript(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	reconciled, _ := Reconcile(fresh, corrections, countLines(script.Content))
	fillAddedText(reconciled, script.Content)

	stored, err := s.detections.ReplaceForScript(ctx, scriptID, reconciled)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateScript(ctx, scriptID)

	stats := ComputeStats(stored, corrections, countLines(script.Content), true)
	log.Info().
		Int64("script_id", scriptID).
		Int("detected", len(fresh)).
		Int("stored", len(stored)).
		Int("false_positives", stats.FalsePositives).
		Int("corrections", len(corrections)).
		Dur("duration_ms", time.Since(start)).
		Msg("detection pass complete")

	return &model.ScriptDetections{
		ScriptID:        script.ID,
		Title:           script.Title,
		PredictedRating: script.PredictedRating,
		Detections:      WithTiers(stored),
		Stats:           stats,
		CorrectionCount: len(corrections),
	}, nil
}

// MarkFalsePositive sets the flag on exactly one detection. Setting the same value
// twice leaves the same state. Stats are recomputed on the next read.
func (s *DetectionService) MarkFalsePositive(ctx context.Context, detectionID int64, isFalsePositive bool) (*model.LineDetection, error) {
	d, err := s.detections.SetFalsePositive(ctx, detectionID, isFalsePositive)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateScript(ctx, d.ScriptID)
	d.SeverityTier = taxonomy.SeverityTier(d.Severity)
	return d, nil
}

// CreateCorrection validates and appends a correction. It never changes a detection.
// A correction filed against a detection inherits that detection's line range and
// category when it names none, so it still applies after the next detection pass.
func (s *DetectionService) CreateCorrection(ctx context.Context, scriptID int64, req model.CreateCorrectionRequest) (*model.UserCorrection, error) {
	c, err := s.buildCorrection(ctx, scriptID, req)
	if err != nil {
		return nil, err
	}

	saved, err := s.corrections.Create(ctx, *c)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateScript(ctx, scriptID)

	log.Info().
		Int64("script_id", scriptID).
		Int64("correction_id", saved.ID).
		Str("type", string(saved.CorrectionType)).
		Msg("correction recorded")
	return saved, nil
}

func (s *DetectionService) buildCorrection(ctx context.Context, scriptID int64, req model.CreateCorrectionRequest) (*model.UserCorrection, error) {
	kind := model.CorrectionType(req.CorrectionType)
	if !kind.Valid() {
		return nil, apperr.ValidationWithDetails("invalid correction", map[string]string{
			"correction_type": "must be one of false_positive, manual_addition, false_negative",
		})
	}

	c := &model.UserCorrection{
		ScriptID:       scriptID,
		DetectionID:    req.DetectionID,
		CorrectionType: kind,
		LineStart:      req.LineStart,
		LineEnd:        req.LineEnd,
		Severity:       req.Severity,
		Note:           req.Note,
	}

	if req.Category != nil {
		cat, err := taxonomy.ParseCategory(*req.Category)
		if err != nil {
			return nil, err
		}
		c.Category = &cat
	}
	if c.Severity != nil && (*c.Severity < 0 || *c.Severity > 1) {
		return nil, apperr.ValidationWithDetails("invalid correction", map[string]string{"severity": "must be between 0 and 1"})
	}
	if (c.LineStart == nil) != (c.LineEnd == nil) {
		return nil, apperr.ValidationWithDetails("invalid correction", map[string]string{"line_end": "line_start and line_end must be given together"})
	}
	if c.LineStart != nil && (*c.LineStart < 1 || *c.LineEnd < *c.LineStart) {
		return nil, apperr.ValidationWithDetails("invalid correction", map[string]string{"line_end": "must not precede line_start"})
	}

	if c.DetectionID != nil {
		d, err := s.detections.Get(ctx, *c.DetectionID)
		if err != nil {
			return nil, err
		}
		if d.ScriptID != scriptID {
			return nil, apperr.NotFound(fmt.Sprintf("detection %d not found in script %d", d.ID, scriptID))
		}
		if c.LineStart == nil {
			c.LineStart, c.LineEnd = &d.LineStart, &d.LineEnd
		}
		if c.Category == nil {
			c.Category = &d.Category
		}
	}

	if kind.AddsContent() && !c.HasRange() {
		return nil, apperr.ValidationWithDetails("invalid correction", map[string]string{
			"line_start": "manual additions need line_start, line_end and category",
		})
	}
	if kind == model.CorrectionFalsePositive && c.DetectionID == nil && !c.HasRange() {
		return nil, apperr.ValidationWithDetails("invalid correction", map[string]string{
			"detection_id": "false positives need a detection_id or a line range with category",
		})
	}
	return c, nil
}

// ListCorrections returns a script's corrections, oldest first.
func (s *DetectionService) ListCorrections(ctx context.Context, scriptID int64) ([]model.UserCorrection, error) {
	if _, err := s.scripts.Get(ctx, scriptID); err != nil {
		return nil, err
	}
	return s.corrections.ListByScript(ctx, scriptID)
}

// AdjustedRating folds the script's corrections into its stored aggregate scores
// and derives the rating they imply. The script must have been rated.
func (s *DetectionService) AdjustedRating(ctx context.Context, scriptID int64) (*model.AdjustedRating, error) {
	if cached, ok := s.cache.GetAdjustedRating(ctx, scriptID); ok {
		return cached, nil
	}

	script, err := s.scripts.Get(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	if script.PredictedRating == nil {
		return nil, apperr.Validation(fmt.Sprintf("script %d has not been rated yet", scriptID))
	}
	corrections, err := s.corrections.ListByScript(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	base := script.AggScores.Clone()
	adjusted, applied := model.AdjustScores(base, corrections)

	// With nothing applied the stored rating stands; the threshold ladder only
	// approximates the engine.
	rating := *script.PredictedRating
	if applied > 0 {
		rating = model.RatingFromScores(adjusted)
	}

	res := &model.AdjustedRating{
		ScriptID:           scriptID,
		OriginalRating:     *script.PredictedRating,
		AdjustedRating:     rating,
		OriginalScores:     base,
		AdjustedScores:     adjusted,
		CorrectionsApplied: applied,
		Verdict:            model.CompareRatings(*script.PredictedRating, rating),
	}
	s.cache.SetAdjustedRating(ctx, scriptID, res)
	return res, nil
}
