// Package servicetest provides in-memory stores, engine and cache for tests of the
// service and handler packages.
package servicetest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
)

// Scripts is an in-memory script store.
type Scripts struct {
	mu       sync.Mutex
	scripts  map[int64]*model.ScriptDetail
	versions map[int64][]model.ScriptVersion
	nextID   int64

	Gets int
}

func NewScripts(scripts ...model.ScriptDetail) *Scripts {
	f := &Scripts{scripts: map[int64]*model.ScriptDetail{}, versions: map[int64][]model.ScriptVersion{}}
	for i := range scripts {
		s := scripts[i]
		f.scripts[s.ID] = &s
		f.nextID = max(f.nextID, s.ID)
	}
	return f
}

func (f *Scripts) List(_ context.Context, limit, offset int) ([]model.Script, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Script{}
	for _, s := range f.scripts {
		out = append(out, s.Script)
	}
	slices.SortFunc(out, func(a, b model.Script) int { return int(b.ID - a.ID) })
	if offset >= len(out) {
		return []model.Script{}, nil
	}
	return out[offset:min(len(out), offset+limit)], nil
}

func (f *Scripts) Get(_ context.Context, id int64) (*model.ScriptDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Gets++
	s, ok := f.scripts[id]
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("script %d not found", id))
	}
	cp := *s
	return &cp, nil
}

func (f *Scripts) Create(_ context.Context, title, content string) (*model.ScriptDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s := &model.ScriptDetail{Script: model.Script{ID: f.nextID, Title: title, CreatedAt: time.Now()}, Content: content}
	f.scripts[s.ID] = s
	cp := *s
	return &cp, nil
}

func (f *Scripts) UpdateContent(ctx context.Context, id int64, content string, description *string) (*model.ScriptDetail, error) {
	if _, err := f.CreateVersion(ctx, id, description); err != nil {
		return nil, err
	}
	f.mu.Lock()
	now := time.Now()
	f.scripts[id].Content = content
	f.scripts[id].UpdatedAt = &now
	f.mu.Unlock()
	return f.Get(ctx, id)
}

func (f *Scripts) CreateVersion(_ context.Context, id int64, description *string) (*model.ScriptVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scripts[id]
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("script %d not found", id))
	}
	v := model.ScriptVersion{
		ID:            int64(len(f.versions[id]) + 1),
		ScriptID:      id,
		VersionNumber: len(f.versions[id]) + 1,
		Content:       s.Content,
		Rating:        s.PredictedRating,
		Description:   description,
		CreatedAt:     time.Now(),
	}
	f.versions[id] = append(f.versions[id], v)
	return &v, nil
}

func (f *Scripts) ListVersions(_ context.Context, id int64) ([]model.ScriptVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scripts[id]; !ok {
		return nil, apperr.NotFound(fmt.Sprintf("script %d not found", id))
	}
	out := slices.Clone(f.versions[id])
	slices.Reverse(out)
	if out == nil {
		out = []model.ScriptVersion{}
	}
	return out, nil
}

func (f *Scripts) SaveRating(ctx context.Context, id int64, res *model.RatingResult) (*model.ScriptDetail, error) {
	f.mu.Lock()
	s, ok := f.scripts[id]
	if !ok {
		f.mu.Unlock()
		return nil, apperr.NotFound(fmt.Sprintf("script %d not found", id))
	}
	r := res.PredictedRating
	s.PredictedRating = &r
	s.AggScores = res.AggScores
	s.ModelVersion = &res.ModelVersion
	s.TotalScenes = &res.TotalScenes
	f.mu.Unlock()
	return f.Get(ctx, id)
}

// Detections is an in-memory detection store. Replacement assigns fresh ids.
type Detections struct {
	mu     sync.Mutex
	rows   map[int64]model.LineDetection
	nextID int64

	Replaces int
	Flips    int
}

func NewDetections(ds ...model.LineDetection) *Detections {
	f := &Detections{rows: map[int64]model.LineDetection{}}
	for _, d := range ds {
		f.rows[d.ID] = d
		f.nextID = max(f.nextID, d.ID)
	}
	return f
}

func (f *Detections) ListByScript(_ context.Context, scriptID int64, includeFalsePositives bool) ([]model.LineDetection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.LineDetection{}
	for _, d := range f.rows {
		if d.ScriptID == scriptID && (includeFalsePositives || !d.IsFalsePositive) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b model.LineDetection) int {
		if a.LineStart != b.LineStart {
			return a.LineStart - b.LineStart
		}
		return int(a.ID - b.ID)
	})
	return out, nil
}

func (f *Detections) Get(_ context.Context, id int64) (*model.LineDetection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("detection %d not found", id))
	}
	return &d, nil
}

func (f *Detections) ReplaceForScript(ctx context.Context, scriptID int64, ds []model.LineDetection) ([]model.LineDetection, error) {
	f.mu.Lock()
	f.Replaces++
	for id, d := range f.rows {
		if d.ScriptID == scriptID {
			delete(f.rows, id)
		}
	}
	for _, d := range ds {
		f.nextID++
		d.ID = f.nextID
		d.ScriptID = scriptID
		f.rows[d.ID] = d
	}
	f.mu.Unlock()
	return f.ListByScript(ctx, scriptID, true)
}

func (f *Detections) SetFalsePositive(_ context.Context, id int64, isFalsePositive bool) (*model.LineDetection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("detection %d not found", id))
	}
	f.Flips++
	d.IsFalsePositive = isFalsePositive
	d.UserCorrected = true
	f.rows[id] = d
	return &d, nil
}

// Corrections is an append-only in-memory correction store.
type Corrections struct {
	mu   sync.Mutex
	Rows []model.UserCorrection
}

func (f *Corrections) Create(_ context.Context, c model.UserCorrection) (*model.UserCorrection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = int64(len(f.Rows) + 1)
	c.CreatedAt = time.Now()
	f.Rows = append(f.Rows, c)
	return &c, nil
}

func (f *Corrections) ListByScript(_ context.Context, scriptID int64) ([]model.UserCorrection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.UserCorrection{}
	for _, c := range f.Rows {
		if c.ScriptID == scriptID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Engine is a scripted rating engine. Err, when set, fails every call.
type Engine struct {
	mu         sync.Mutex
	Rating     *model.RatingResult
	Detections []model.LineDetection
	WhatIfResp *model.EngineWhatIfResponse
	Err        error

	RateCalls, DetectCalls, WhatIfCalls int
	LastWhatIf                          model.EngineWhatIfRequest
}

func (f *Engine) RateScript(context.Context, string, int64) (*model.RatingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RateCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Rating, nil
}

func (f *Engine) DetectLines(context.Context, string, int64, int) ([]model.LineDetection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DetectCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	return slices.Clone(f.Detections), nil
}

func (f *Engine) WhatIf(_ context.Context, req model.EngineWhatIfRequest) (*model.EngineWhatIfResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.WhatIfCalls++
	f.LastWhatIf = req
	if f.Err != nil {
		return nil, f.Err
	}
	resp := *f.WhatIfResp
	return &resp, nil
}

// Cache is an in-memory result cache.
type Cache struct {
	mu          sync.Mutex
	Simulations map[string]model.SimulationResult
	Adjusted    map[int64]model.AdjustedRating
	Invalidated []int64
}

func NewCache() *Cache {
	return &Cache{Simulations: map[string]model.SimulationResult{}, Adjusted: map[int64]model.AdjustedRating{}}
}

func (c *Cache) GetSimulation(_ context.Context, key string) (*model.SimulationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.Simulations[key]
	return &r, ok
}

func (c *Cache) SetSimulation(_ context.Context, key string, res *model.SimulationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Simulations[key] = *res
}

func (c *Cache) GetAdjustedRating(_ context.Context, scriptID int64) (*model.AdjustedRating, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.Adjusted[scriptID]
	return &r, ok
}

func (c *Cache) SetAdjustedRating(_ context.Context, scriptID int64, res *model.AdjustedRating) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Adjusted[scriptID] = *res
}

func (c *Cache) InvalidateScript(_ context.Context, scriptID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Invalidated = append(c.Invalidated, scriptID)
	delete(c.Adjusted, scriptID)
}
