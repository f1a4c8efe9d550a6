package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
)

// Page size limits for script listings.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ScriptService manages stored scripts, their versions and their engine ratings.
type ScriptService struct {
	scripts ScriptStore
	engine  Engine
	cache   ResultCache
}

func NewScriptService(scripts ScriptStore, engine Engine, cache ResultCache) *ScriptService {
	return &ScriptService{scripts: scripts, engine: engine, cache: cache}
}

// List returns a page of scripts, newest first.
func (s *ScriptService) List(ctx context.Context, limit, offset int) ([]model.Script, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)
	offset = max(offset, 0)
	return s.scripts.List(ctx, limit, offset)
}

// Get returns a script with its text.
func (s *ScriptService) Get(ctx context.Context, id int64) (*model.ScriptDetail, error) {
	return s.scripts.Get(ctx, id)
}

// Create stores a new script. It is not rated until Rate is called.
func (s *ScriptService) Create(ctx context.Context, req model.CreateScriptRequest) (*model.ScriptDetail, error) {
	script, err := s.scripts.Create(ctx, strings.TrimSpace(req.Title), req.Content)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("script_id", script.ID).Int("bytes", len(script.Content)).Msg("script created")
	return script, nil
}

// UpdateContent replaces the text after snapshotting the previous one as a version.
func (s *ScriptService) UpdateContent(ctx context.Context, id int64, req model.UpdateContentRequest) (*model.ScriptDetail, error) {
	script, err := s.scripts.UpdateContent(ctx, id, req.Content, req.Description)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateScript(ctx, id)
	return script, nil
}

// CreateVersion snapshots the current text.
func (s *ScriptService) CreateVersion(ctx context.Context, id int64, req model.CreateVersionRequest) (*model.ScriptVersion, error) {
	return s.scripts.CreateVersion(ctx, id, req.Description)
}

// ListVersions returns the script's versions, newest first.
func (s *ScriptService) ListVersions(ctx context.Context, id int64) ([]model.ScriptVersion, error) {
	return s.scripts.ListVersions(ctx, id)
}

// Rate sends the current text to the engine and stores the verdict.
func (s *ScriptService) Rate(ctx context.Context, id int64) (*model.ScriptDetail, error) {
	script, err := s.scripts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.RateScript(ctx, script.Content, id)
	if err != nil {
		return nil, err
	}

	rated, err := s.scripts.SaveRating(ctx, id, res)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateScript(ctx, id)

	log.Info().
		Int64("script_id", id).
		Str("rating", string(res.PredictedRating)).
		Str("model_version", res.ModelVersion).
		Int("scenes", res.TotalScenes).
		Msg("script rated")
	return rated, nil
}
