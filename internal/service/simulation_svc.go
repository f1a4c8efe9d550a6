package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/pkg/hash"
)

// Interpreter turns a free-text request into modifications. Implemented by
// interpreter.Interpreter.
type Interpreter interface {
	Interpret(text string) ([]model.Modification, error)
}

// SimulationService runs what-if simulations: interpret, submit to the engine, compare.
type SimulationService struct {
	interp  Interpreter
	engine  Engine
	scripts ScriptStore
	cache   ResultCache
}

func NewSimulationService(interp Interpreter, engine Engine, scripts ScriptStore, cache ResultCache) *SimulationService {
	return &SimulationService{interp: interp, engine: engine, scripts: scripts, cache: cache}
}

// Interpret returns the modifications recognised in request without simulating them.
func (s *SimulationService) Interpret(request string) (*model.InterpretResponse, error) {
	mods, err := s.interp.Interpret(request)
	if err != nil {
		return nil, err
	}
	return &model.InterpretResponse{Request: request, Modifications: mods}, nil
}

// Simulate interprets request, applies it to scriptText on the engine and compares
// the ratings before and after. Operations the engine failed to apply are listed in
// Failures while the others' effects are kept.
func (s *SimulationService) Simulate(ctx context.Context, scriptText, request string) (*model.SimulationResult, error) {
	mods, err := s.interp.Interpret(request)
	if err != nil {
		return nil, err
	}

	key, err := cacheKey(scriptText, mods)
	if err != nil {
		return nil, apperr.Internal("could not encode modifications", err)
	}
	if cached, ok := s.cache.GetSimulation(ctx, key); ok {
		cached.Request = request
		cached.Cached = true
		return cached, nil
	}

	resp, err := s.engine.WhatIf(ctx, model.EngineWhatIfRequest{
		ScriptText:        scriptText,
		Modifications:     mods,
		UseLLM:            false,
		PreserveStructure: true,
	})
	if err != nil {
		return nil, err
	}

	res, err := compare(request, mods, resp)
	if err != nil {
		return nil, err
	}
	if res.PartialFailure {
		log.Warn().
			Int("operations", len(mods)).
			Int("failed", len(res.Failures)).
			Msg("simulation partially applied")
	}

	s.cache.SetSimulation(ctx, key, res)
	return res, nil
}

// SimulateScript runs Simulate against a stored script's current text.
func (s *SimulationService) SimulateScript(ctx context.Context, scriptID int64, request string) (*model.SimulationResult, error) {
	// Interpret first so an unrecognised request never costs a database read.
	if _, err := s.interp.Interpret(request); err != nil {
		return nil, err
	}
	script, err := s.scripts.Get(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	return s.Simulate(ctx, script.Content, request)
}

func compare(request string, mods []model.Modification, resp *model.EngineWhatIfResponse) (*model.SimulationResult, error) {
	before, err := model.ParseRating(resp.OriginalRating)
	if err != nil {
		return nil, apperr.Unavailable("rating engine", fmt.Errorf("original rating: %w", err))
	}
	after, err := model.ParseRating(resp.ModifiedRating)
	if err != nil {
		return nil, apperr.Unavailable("rating engine", fmt.Errorf("modified rating: %w", err))
	}

	var failures []model.ModificationFailure
	for i, a := range resp.ModificationsApplied {
		if a.Error == "" {
			continue
		}
		failures = append(failures, model.ModificationFailure{Index: i, Type: a.Type, Error: a.Error})
	}

	applied := resp.ModificationsApplied
	if applied == nil {
		applied = []model.AppliedModification{}
	}

	return &model.SimulationResult{
		Request:        request,
		Modifications:  mods,
		OriginalRating: before,
		ModifiedRating: after,
		RatingChanged:  before != after,
		Verdict:        model.CompareRatings(before, after),
		OriginalScores: resp.OriginalScores.Clone(),
		ModifiedScores: resp.ModifiedScores.Clone(),
		ScoreDeltas:    model.Diff(resp.OriginalScores, resp.ModifiedScores),
		Applied:        applied,
		Failures:       failures,
		PartialFailure: len(failures) > 0,
		Explanation:    resp.Explanation,
		Entities:       resp.EntitiesExtracted,
		Scenes:         resp.SceneAnalysis,
		ModifiedScript: resp.ModifiedScript,
	}, nil
}

// cacheKey identifies a simulation by the script text and the normalised operations,
// so differently worded requests with the same meaning share a result.
func cacheKey(scriptText string, mods []model.Modification) (string, error) {
	ops, err := json.Marshal(mods)
	if err != nil {
		return "", err
	}
	return hash.Key(scriptText, string(ops)), nil
}
