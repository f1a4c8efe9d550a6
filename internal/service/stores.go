package service

import (
	"context"

	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
)

// ScriptStore persists scripts and their versions. Implemented by repository.ScriptRepo.
type ScriptStore interface {
	List(ctx context.Context, limit, offset int) ([]model.Script, error)
	Get(ctx context.Context, id int64) (*model.ScriptDetail, error)
	Create(ctx context.Context, title, content string) (*model.ScriptDetail, error)
	UpdateContent(ctx context.Context, id int64, content string, description *string) (*model.ScriptDetail, error)
	CreateVersion(ctx context.Context, id int64, description *string) (*model.ScriptVersion, error)
	ListVersions(ctx context.Context, id int64) ([]model.ScriptVersion, error)
	SaveRating(ctx context.Context, id int64, res *model.RatingResult) (*model.ScriptDetail, error)
}

// DetectionStore persists line detections. Implemented by repository.DetectionRepo.
type DetectionStore interface {
	ListByScript(ctx context.Context, scriptID int64, includeFalsePositives bool) ([]model.LineDetection, error)
	Get(ctx context.Context, id int64) (*model.LineDetection, error)
	ReplaceForScript(ctx context.Context, scriptID int64, ds []model.LineDetection) ([]model.LineDetection, error)
	SetFalsePositive(ctx context.Context, id int64, isFalsePositive bool) (*model.LineDetection, error)
}

// CorrectionStore is the append-only correction log. Implemented by repository.CorrectionRepo.
type CorrectionStore interface {
	Create(ctx context.Context, c model.UserCorrection) (*model.UserCorrection, error)
	ListByScript(ctx context.Context, scriptID int64) ([]model.UserCorrection, error)
}

// Engine is the rating and detection collaborator. Implemented by engine.Client.
type Engine interface {
	RateScript(ctx context.Context, text string, scriptID int64) (*model.RatingResult, error)
	DetectLines(ctx context.Context, text string, scriptID int64, contextSize int) ([]model.LineDetection, error)
	WhatIf(ctx context.Context, req model.EngineWhatIfRequest) (*model.EngineWhatIfResponse, error)
}

// ResultCache holds derived results keyed by content. Implemented by CacheService;
// a miss and a failing cache look the same to callers.
type ResultCache interface {
	GetSimulation(ctx context.Context, key string) (*model.SimulationResult, bool)
	SetSimulation(ctx context.Context, key string, res *model.SimulationResult)
	GetAdjustedRating(ctx context.Context, scriptID int64) (*model.AdjustedRating, bool)
	SetAdjustedRating(ctx context.Context, scriptID int64, res *model.AdjustedRating)
	InvalidateScript(ctx context.Context, scriptID int64)
}
