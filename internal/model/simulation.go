package model

// InterpretRequest is the API request body for turning free text into modifications.
type InterpretRequest struct {
	Request string `json:"request" validate:"max=1000"`
}

// InterpretResponse lists the modifications recognised in a request.
type InterpretResponse struct {
	Request       string         `json:"request"`
	Modifications []Modification `json:"modifications"`
}

// SimulateRequest is the API request body for a stateless what-if simulation.
type SimulateRequest struct {
	ScriptText string `json:"script_text" validate:"required,min=10"`
	Request    string `json:"modification_request" validate:"max=1000"`
}

// WhatIfRequest is the API request body for simulating against a stored script.
type WhatIfRequest struct {
	Request string `json:"modification_request" validate:"max=1000"`
}

// EngineWhatIfRequest is the structured what-if payload sent to the rating engine.
type EngineWhatIfRequest struct {
	ScriptText        string         `json:"script_text"`
	Modifications     []Modification `json:"modifications"`
	UseLLM            bool           `json:"use_llm"`
	PreserveStructure bool           `json:"preserve_structure"`
}

// AppliedModification is the engine's per-operation report.
type AppliedModification struct {
	Type     ModificationType `json:"type"`
	Metadata map[string]any   `json:"metadata,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// EntityInfo is an entity (character, location) the engine found in the script.
type EntityInfo struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Mentions int    `json:"mentions"`
	Scenes   []int  `json:"scenes"`
}

// SceneInfo is the engine's classification of one scene.
type SceneInfo struct {
	SceneID    int      `json:"scene_id"`
	SceneType  string   `json:"scene_type"`
	Characters []string `json:"characters"`
	Location   *string  `json:"location"`
	Summary    *string  `json:"summary"`
}

// EngineWhatIfResponse is the rating engine's structured what-if answer.
type EngineWhatIfResponse struct {
	OriginalRating       string                `json:"original_rating"`
	ModifiedRating       string                `json:"modified_rating"`
	OriginalScores       ScoreVector           `json:"original_scores"`
	ModifiedScores       ScoreVector           `json:"modified_scores"`
	ModificationsApplied []AppliedModification `json:"modifications_applied"`
	EntitiesExtracted    []EntityInfo          `json:"entities_extracted"`
	SceneAnalysis        []SceneInfo           `json:"scene_analysis"`
	Explanation          string                `json:"explanation"`
	ModifiedScript       *string               `json:"modified_script"`
}

// ModificationFailure reports one operation the engine could not apply.
type ModificationFailure struct {
	Index int              `json:"index"`
	Type  ModificationType `json:"type"`
	Error string           `json:"error"`
}

// SimulationResult is the before/after comparison returned to the reviewer.
// PartialFailure is set when some operations failed; the others' effects are kept.
type SimulationResult struct {
	Request        string                `json:"request"`
	Modifications  []Modification        `json:"modifications"`
	OriginalRating Rating                `json:"original_rating"`
	ModifiedRating Rating                `json:"modified_rating"`
	RatingChanged  bool                  `json:"rating_changed"`
	Verdict        Verdict               `json:"verdict"`
	OriginalScores ScoreVector           `json:"original_scores"`
	ModifiedScores ScoreVector           `json:"modified_scores"`
	ScoreDeltas    ScoreVector           `json:"score_deltas"`
	Applied        []AppliedModification `json:"modifications_applied"`
	Failures       []ModificationFailure `json:"failures,omitempty"`
	PartialFailure bool                  `json:"partial_failure"`
	Explanation    string                `json:"explanation"`
	Entities       []EntityInfo          `json:"entities_extracted,omitempty"`
	Scenes         []SceneInfo           `json:"scene_analysis,omitempty"`
	ModifiedScript *string               `json:"modified_script,omitempty"`
	Cached         bool                  `json:"cached"`
}
