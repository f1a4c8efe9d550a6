package model

import "time"

// Script is a stored screenplay with its latest rating, without the full text.
type Script struct {
	ID               int64       `json:"id"`
	Title            string      `json:"title"`
	PredictedRating  *Rating     `json:"predicted_rating"`
	AggScores        ScoreVector `json:"agg_scores"`
	ModelVersion     *string     `json:"model_version"`
	TotalScenes      *int        `json:"total_scenes"`
	Reasons          []string    `json:"reasons,omitempty"`
	EvidenceExcerpts []string    `json:"evidence_excerpts,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        *time.Time  `json:"updated_at"`
}

// ScriptDetail is a Script with its full text.
type ScriptDetail struct {
	Script
	Content string `json:"content"`
}

// ScriptVersion is an immutable snapshot of a script's text.
type ScriptVersion struct {
	ID            int64     `json:"id"`
	ScriptID      int64     `json:"script_id"`
	VersionNumber int       `json:"version_number"`
	Content       string    `json:"content"`
	Rating        *Rating   `json:"rating"`
	Description   *string   `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateScriptRequest is the API request body for creating a script.
type CreateScriptRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required,min=10"`
}

// UpdateContentRequest replaces a script's text, snapshotting the previous version.
type UpdateContentRequest struct {
	Content     string  `json:"content" validate:"required,min=10"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// CreateVersionRequest snapshots the current text without changing it.
type CreateVersionRequest struct {
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// SceneScores is the engine's per-scene breakdown.
type SceneScores struct {
	SceneID         int         `json:"scene_id"`
	Heading         string      `json:"heading"`
	Scores          ScoreVector `json:"scores"`
	Weight          float64     `json:"weight"`
	SampleText      *string     `json:"sample_text,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
}

// RatingResult is the engine's verdict for a full script.
type RatingResult struct {
	PredictedRating  Rating        `json:"predicted_rating"`
	AggScores        ScoreVector   `json:"agg_scores"`
	ModelVersion     string        `json:"model_version"`
	TotalScenes      int           `json:"total_scenes"`
	Reasons          []string      `json:"reasons,omitempty"`
	EvidenceExcerpts []string      `json:"evidence_excerpts,omitempty"`
	Scenes           []SceneScores `json:"scenes,omitempty"`
}
