package model

import (
	"time"

	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

// LineMatch is one pattern hit inside a detection.
type LineMatch struct {
	Text    string `json:"text"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Pattern string `json:"pattern"`
}

// MatchedPatterns is the detector's evidence for a detection.
type MatchedPatterns struct {
	Count   int         `json:"count"`
	Matches []LineMatch `json:"matches"`
}

// LineDetection is a contiguous 1-based, inclusive line range flagged by the detector.
// Rows are replaced wholesale by a detection pass; the review workflow only flips
// IsFalsePositive and UserCorrected.
type LineDetection struct {
	ID                   int64             `json:"id"`
	ScriptID             int64             `json:"script_id"`
	LineStart            int               `json:"line_start"`
	LineEnd              int               `json:"line_end"`
	DetectedText         string            `json:"detected_text"`
	ContextBefore        *string           `json:"context_before"`
	ContextAfter         *string           `json:"context_after"`
	Category             taxonomy.Category `json:"category"`
	Severity             float64           `json:"severity"`
	SeverityTier         taxonomy.Tier     `json:"severity_tier,omitempty"`
	ParentsGuideSeverity *string           `json:"parents_guide_severity,omitempty"`
	CharacterName        *string           `json:"character_name,omitempty"`
	PageNumber           *int              `json:"page_number,omitempty"`
	SceneID              *int              `json:"scene_id,omitempty"`
	MatchedPatterns      MatchedPatterns   `json:"matched_patterns"`
	IsFalsePositive      bool              `json:"is_false_positive"`
	UserCorrected        bool              `json:"user_corrected"`
	CreatedAt            time.Time         `json:"created_at"`
}

// Overlaps reports whether the detection shares at least one line with [start, end].
func (d LineDetection) Overlaps(start, end int) bool {
	return d.LineStart <= end && start <= d.LineEnd
}

// Active reports whether the detection counts toward statistics.
func (d LineDetection) Active() bool {
	return !d.IsFalsePositive
}

// CorrectionType is the kind of human judgment recorded against a script.
type CorrectionType string

const (
	CorrectionFalsePositive  CorrectionType = "false_positive"
	CorrectionManualAddition CorrectionType = "manual_addition"
	CorrectionFalseNegative  CorrectionType = "false_negative"
)

// Valid reports whether t is a known correction type.
func (t CorrectionType) Valid() bool {
	switch t {
	case CorrectionFalsePositive, CorrectionManualAddition, CorrectionFalseNegative:
		return true
	}
	return false
}

// AddsContent reports whether the correction claims content the detector missed.
func (t CorrectionType) AddsContent() bool {
	return t == CorrectionManualAddition || t == CorrectionFalseNegative
}

// UserCorrection is an append-only audit record of a reviewer's judgment.
type UserCorrection struct {
	ID             int64              `json:"id"`
	ScriptID       int64              `json:"script_id"`
	DetectionID    *int64             `json:"detection_id"`
	CorrectionType CorrectionType     `json:"correction_type"`
	LineStart      *int               `json:"line_start"`
	LineEnd        *int               `json:"line_end"`
	Category       *taxonomy.Category `json:"category"`
	Severity       *float64           `json:"severity"`
	Note           *string            `json:"note"`
	CreatedAt      time.Time          `json:"created_at"`
}

// HasRange reports whether the correction is anchored to a line range and category.
func (c UserCorrection) HasRange() bool {
	return c.LineStart != nil && c.LineEnd != nil && c.Category != nil
}

// CreateCorrectionRequest is the API request body for filing a correction.
type CreateCorrectionRequest struct {
	DetectionID    *int64   `json:"detection_id" validate:"omitempty,min=1"`
	CorrectionType string   `json:"correction_type" validate:"required,oneof=false_positive manual_addition false_negative"`
	LineStart      *int     `json:"line_start" validate:"omitempty,min=1"`
	LineEnd        *int     `json:"line_end" validate:"omitempty,min=1"`
	Category       *string  `json:"category"`
	Severity       *float64 `json:"severity" validate:"omitempty,min=0,max=1"`
	Note           *string  `json:"note" validate:"omitempty,max=2000"`
}

// ParentsGuideCategoryStats summarises one category in parents-guide terms.
type ParentsGuideCategoryStats struct {
	Severity     string  `json:"severity"`
	EpisodeCount int     `json:"episode_count"`
	Percentage   float64 `json:"percentage"`
	TopMatches   int     `json:"top_matches"`
}

// DetectionStats is derived from the current detection set; it is never stored.
type DetectionStats struct {
	TotalDetections int                                             `json:"total_detections"`
	ByCategory      map[taxonomy.Category]int                       `json:"by_category"`
	TotalMatches    map[taxonomy.Category]int                       `json:"total_matches"`
	FalsePositives  int                                             `json:"false_positives"`
	UserCorrections int                                             `json:"user_corrections"`
	ParentsGuide    map[taxonomy.Category]ParentsGuideCategoryStats `json:"parents_guide,omitempty"`
}

// ScriptDetections is the review payload: a script's detections with their stats.
type ScriptDetections struct {
	ScriptID        int64           `json:"script_id"`
	Title           string          `json:"title"`
	PredictedRating *Rating         `json:"predicted_rating"`
	Detections      []LineDetection `json:"detections"`
	Stats           DetectionStats  `json:"stats"`
	CorrectionCount int             `json:"correction_count"`
}

// AdjustedRating is a script's rating after reviewer corrections are folded into its scores.
type AdjustedRating struct {
	ScriptID           int64       `json:"script_id"`
	OriginalRating     Rating      `json:"original_rating"`
	AdjustedRating     Rating      `json:"adjusted_rating"`
	OriginalScores     ScoreVector `json:"original_scores"`
	AdjustedScores     ScoreVector `json:"adjusted_scores"`
	CorrectionsApplied int         `json:"corrections_applied"`
	Verdict            Verdict     `json:"verdict"`
}
