package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/interpreter"
	"github.com/VisageDvachevsky/wink-ai-model/internal/middleware"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/internal/service"
	"github.com/VisageDvachevsky/wink-ai-model/internal/service/servicetest"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

const warehouse = `INT. WAREHOUSE - NIGHT
MARCUS swings a crowbar.
The guard falls, bleeding.
MARCUS
Get the damn keys.
EXT. STREET - DAY
They drive away.`

type testEnv struct {
	app         *fiber.App
	scripts     *servicetest.Scripts
	detections  *servicetest.Detections
	corrections *servicetest.Corrections
	engine      *servicetest.Engine
	cache       *servicetest.Cache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	rating := model.Rating16
	env := &testEnv{
		scripts: servicetest.NewScripts(model.ScriptDetail{
			Script: model.Script{
				ID:              1,
				Title:           "Warehouse",
				PredictedRating: &rating,
				AggScores:       model.ScoreVector{taxonomy.Violence: 0.7, taxonomy.Profanity: 0.3},
			},
			Content: warehouse,
		}),
		detections: servicetest.NewDetections(
			model.LineDetection{ID: 1, ScriptID: 1, LineStart: 2, LineEnd: 3, DetectedText: "MARCUS swings a crowbar.", Category: taxonomy.Violence, Severity: 0.8},
			model.LineDetection{ID: 2, ScriptID: 1, LineStart: 5, LineEnd: 5, DetectedText: "Get the damn keys.", Category: taxonomy.Profanity, Severity: 0.4},
		),
		corrections: &servicetest.Corrections{},
		engine:      &servicetest.Engine{},
		cache:       servicetest.NewCache(),
	}

	tax, err := taxonomy.Default()
	require.NoError(t, err)
	validate := middleware.NewValidator()

	scripts := NewScriptHandler(service.NewScriptService(env.scripts, env.engine, env.cache), validate)
	detectionSvc := service.NewDetectionService(env.scripts, env.detections, env.corrections, env.engine, env.cache)
	detections := NewDetectionHandler(detectionSvc, validate)
	exports := NewExportHandler(detectionSvc, tax)
	simulations := NewSimulationHandler(service.NewSimulationService(interpreter.New(), env.engine, env.scripts, env.cache), validate)
	taxonomies := NewTaxonomyHandler(tax)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Get("/taxonomy", taxonomies.List)
	api.Get("/taxonomy/:key", taxonomies.Get)
	api.Post("/interpret", simulations.Interpret)
	api.Post("/simulate", simulations.Simulate)
	api.Get("/scripts", scripts.List)
	api.Post("/scripts", scripts.Create)
	api.Patch("/scripts/detections/:detectionId/false-positive", detections.MarkFalsePositive)
	api.Get("/scripts/:id", scripts.Get)
	api.Get("/scripts/:id/content", scripts.GetContent)
	api.Put("/scripts/:id/content", scripts.PutContent)
	api.Get("/scripts/:id/versions", scripts.ListVersions)
	api.Post("/scripts/:id/versions", scripts.CreateVersion)
	api.Post("/scripts/:id/rate", scripts.Rate)
	api.Post("/scripts/:id/what-if", simulations.WhatIf)
	api.Get("/scripts/:id/detections", detections.List)
	api.Post("/scripts/:id/detections", detections.Run)
	api.Get("/scripts/:id/detections/stats", detections.Stats)
	api.Get("/scripts/:id/detections/full", detections.Full)
	api.Get("/scripts/:id/corrections", detections.ListCorrections)
	api.Post("/scripts/:id/corrections", detections.CreateCorrection)
	api.Get("/scripts/:id/adjusted-rating", detections.AdjustedRating)
	api.Get("/scripts/:id/export/csv", exports.CSV)
	env.app = app
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode(t *testing.T, data []byte, v any) {
	t.Helper()
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, v), string(data))
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var env errorEnvelope
	decode(t, data, &env)
	return env.Error.Code
}

func TestScripts_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodPost, "/api/v1/scripts", `{"title":"Chase","content":"EXT. ROAD - DAY\nCars race."}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var created model.ScriptDetail
	decode(t, data, &created)
	assert.Equal(t, int64(2), created.ID)
	assert.Equal(t, "Chase", created.Title)

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts/2/content", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var content map[string]any
	decode(t, data, &content)
	assert.Equal(t, float64(2), content["script_id"])
	assert.Equal(t, "EXT. ROAD - DAY\nCars race.", content["content"])

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Script
	decode(t, data, &list)
	assert.Len(t, list, 2)
}

func TestScripts_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name, method, target, body string
		status                     int
		code                       string
	}{
		{"missing script", http.MethodGet, "/api/v1/scripts/99", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad id", http.MethodGet, "/api/v1/scripts/abc", "", http.StatusBadRequest, "VALIDATION"},
		{"short content", http.MethodPost, "/api/v1/scripts", `{"title":"x","content":"short"}`, http.StatusBadRequest, "VALIDATION"},
		{"malformed body", http.MethodPost, "/api/v1/scripts", `{"title":`, http.StatusBadRequest, "VALIDATION"},
		{"bad limit", http.MethodGet, "/api/v1/scripts?limit=lots", "", http.StatusBadRequest, "VALIDATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := env.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, data))
		})
	}
}

func TestScripts_VersionsAndContent(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/scripts/1/versions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPut, "/api/v1/scripts/1/content", `{"content":"INT. HOUSE - DAY\nTea is poured.","description":"softer"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := env.do(t, http.MethodGet, "/api/v1/scripts/1/versions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var versions []model.ScriptVersion
	decode(t, data, &versions)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].VersionNumber)
	assert.Equal(t, warehouse, versions[0].Content)
}

func TestScripts_RateEngineDown(t *testing.T) {
	env := newTestEnv(t)
	env.engine.Err = apperr.Unavailable("rating engine", errors.New("connection refused"))

	resp, data := env.do(t, http.MethodPost, "/api/v1/scripts/1/rate", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "COLLABORATOR_UNAVAILABLE", errorCode(t, data))
}

func TestDetections_ListAndFilter(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodGet, "/api/v1/scripts/1/detections", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []model.LineDetection
	decode(t, data, &all)
	assert.Len(t, all, 2)

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts/1/detections?category=profanity", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profanity []model.LineDetection
	decode(t, data, &profanity)
	require.Len(t, profanity, 1)
	assert.Equal(t, int64(2), profanity[0].ID)

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts/1/detections?category=spoilers", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "UNKNOWN_CATEGORY", errorCode(t, data))
}

func TestDetections_CategoryHidesFalsePositives(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodPatch, "/api/v1/scripts/detections/1/false-positive?is_false_positive=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts/1/detections?include_false_positives=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []model.LineDetection
	decode(t, data, &all)
	assert.Len(t, all, 2)

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts/1/detections?include_false_positives=true&category=violence", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var violence []model.LineDetection
	decode(t, data, &violence)
	assert.Empty(t, violence)

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts/1/detections?include_false_positives=true&category=profanity", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profanity []model.LineDetection
	decode(t, data, &profanity)
	require.Len(t, profanity, 1)
	assert.Equal(t, int64(2), profanity[0].ID)
	assert.False(t, profanity[0].IsFalsePositive)
}

func TestDetections_FalsePositiveFlow(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodPatch, "/api/v1/scripts/detections/1/false-positive", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, data))

	resp, data = env.do(t, http.MethodPatch, "/api/v1/scripts/detections/1/false-positive?is_false_positive=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var flagged model.LineDetection
	decode(t, data, &flagged)
	assert.True(t, flagged.IsFalsePositive)

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts/1/detections/full", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var full model.ScriptDetections
	decode(t, data, &full)
	assert.Equal(t, "Warehouse", full.Title)
	require.Len(t, full.Detections, 1)
	assert.Equal(t, int64(2), full.Detections[0].ID)

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts/1/detections/full?include_false_positives=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, data, &full)
	assert.Len(t, full.Detections, 2)
	assert.Equal(t, 1, full.Stats.FalsePositives)

	resp, _ = env.do(t, http.MethodPatch, "/api/v1/scripts/detections/42/false-positive?is_false_positive=true", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDetections_Run(t *testing.T) {
	env := newTestEnv(t)
	env.engine.Detections = []model.LineDetection{
		{LineStart: 3, LineEnd: 3, DetectedText: "The guard falls, bleeding.", Category: taxonomy.Gore, Severity: 0.6},
	}

	resp, data := env.do(t, http.MethodPost, "/api/v1/scripts/1/detections?context_size=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var ds []model.LineDetection
	decode(t, data, &ds)
	require.Len(t, ds, 1)
	assert.Equal(t, taxonomy.Gore, ds[0].Category)
	assert.Equal(t, 1, env.engine.DetectCalls)

	resp, data = env.do(t, http.MethodPost, "/api/v1/scripts/1/detections?context_size=99", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, data))
}

func TestCorrections_CreateAndList(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodPost, "/api/v1/scripts/1/corrections",
		`{"correction_type":"manual_addition","line_start":7,"line_end":7,"category":"drugs","severity":0.6}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var created model.UserCorrection
	decode(t, data, &created)
	assert.Equal(t, model.CorrectionManualAddition, created.CorrectionType)

	resp, data = env.do(t, http.MethodPost, "/api/v1/scripts/1/corrections", `{"correction_type":"rewrite"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, data))

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts/1/corrections", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.UserCorrection
	decode(t, data, &list)
	assert.Len(t, list, 1)

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts/1/detections/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats model.DetectionStats
	decode(t, data, &stats)
	assert.Equal(t, 1, stats.UserCorrections)
	assert.Zero(t, stats.ByCategory[taxonomy.Drugs])

	resp, data = env.do(t, http.MethodPost, "/api/v1/scripts/1/detections", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var ds []model.LineDetection
	decode(t, data, &ds)
	require.Len(t, ds, 1)
	assert.Equal(t, taxonomy.Drugs, ds[0].Category)
	assert.True(t, ds[0].UserCorrected)
	assert.Equal(t, "They drive away.", ds[0].DetectedText)
}

func TestAdjustedRating(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodGet, "/api/v1/scripts/1/adjusted-rating", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var res model.AdjustedRating
	decode(t, data, &res)
	assert.Equal(t, int64(1), res.ScriptID)
	assert.Equal(t, model.Rating16, res.OriginalRating)
}

func TestInterpret(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodPost, "/api/v1/interpret", `{"request":"remove scenes 2-4"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var res model.InterpretResponse
	decode(t, data, &res)
	require.Len(t, res.Modifications, 1)
	assert.Equal(t, model.ModRemoveScenes, res.Modifications[0].Type)
	assert.Equal(t, []int{2, 3, 4}, res.Modifications[0].SceneIDs())

	resp, data = env.do(t, http.MethodPost, "/api/v1/interpret", `{"request":"make it better"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var unrecognized errorEnvelope
	decode(t, data, &unrecognized)
	assert.Equal(t, "NO_RECOGNIZED_MODIFICATION", unrecognized.Error.Code)
	assert.Equal(t, "make it better", unrecognized.Error.Details["text"])
	assert.NotEmpty(t, unrecognized.Error.Details["examples"])

	resp, data = env.do(t, http.MethodPost, "/api/v1/interpret", `{"request":"remove scenes 5-2"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_SCENE_RANGE", errorCode(t, data))
}

func TestSimulate(t *testing.T) {
	env := newTestEnv(t)
	env.engine.WhatIfResp = &model.EngineWhatIfResponse{
		OriginalRating: "16+",
		ModifiedRating: "12+",
		OriginalScores: model.ScoreVector{taxonomy.Violence: 0.8},
		ModifiedScores: model.ScoreVector{taxonomy.Violence: 0.4},
		ModificationsApplied: []model.AppliedModification{
			{Type: model.ModReduceViolence},
		},
	}
	body := `{"script_text":` + jsonString(warehouse) + `,"modification_request":"reduce violence"}`

	resp, data := env.do(t, http.MethodPost, "/api/v1/simulate", body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var res model.SimulationResult
	decode(t, data, &res)
	assert.Equal(t, model.VerdictImproved, res.Verdict)
	assert.False(t, res.Cached)

	resp, data = env.do(t, http.MethodPost, "/api/v1/simulate", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, data, &res)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, env.engine.WhatIfCalls)

	resp, data = env.do(t, http.MethodPost, "/api/v1/scripts/1/what-if", `{"modification_request":"reduce violence"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	decode(t, data, &res)
	assert.True(t, res.Cached)

	resp, data = env.do(t, http.MethodPost, "/api/v1/simulate", `{"script_text":"short","modification_request":"reduce violence"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, data))
}

func TestSimulate_EngineDown(t *testing.T) {
	env := newTestEnv(t)
	env.engine.Err = apperr.Unavailable("rating engine", errors.New("timeout"))

	resp, data := env.do(t, http.MethodPost, "/api/v1/scripts/1/what-if", `{"modification_request":"remove scene 2"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "COLLABORATOR_UNAVAILABLE", errorCode(t, data))
}

func TestTaxonomy(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodGet, "/api/v1/taxonomy?lang=ru", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Language   string           `json:"language"`
		Categories []map[string]any `json:"categories"`
	}
	decode(t, data, &list)
	assert.Equal(t, "ru", list.Language)
	assert.Len(t, list.Categories, len(taxonomy.All()))

	resp, data = env.do(t, http.MethodGet, "/api/v1/taxonomy/violence", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var one map[string]any
	decode(t, data, &one)
	assert.Equal(t, "violence", one["key"])
	assert.NotEmpty(t, one["label"])

	resp, data = env.do(t, http.MethodGet, "/api/v1/taxonomy/spoilers", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "UNKNOWN_CATEGORY", errorCode(t, data))
}

func TestLanguage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error { return c.SendString(language(c)) })

	tests := []struct {
		target, accept, want string
	}{
		{"/?lang=RU", "", "ru"},
		{"/", "ru-RU,ru;q=0.9,en;q=0.8", "ru"},
		{"/", "en-US", "en"},
		{"/", "", taxonomy.DefaultLanguage},
		{"/", "*", taxonomy.DefaultLanguage},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.target, nil)
		if tt.accept != "" {
			req.Header.Set("Accept-Language", tt.accept)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, tt.want, string(body), "%s %s", tt.target, tt.accept)
	}
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.do(t, http.MethodPatch, "/api/v1/scripts/detections/2/false-positive?is_false_positive=true", "")

	resp, data := env.do(t, http.MethodGet, "/api/v1/scripts/1/export/csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=rating_report_1.csv", resp.Header.Get("Content-Disposition"))

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff")))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportColumns, rows[0])
	assert.Equal(t, []string{"1", "2", "3", "violence"}, rows[1][:4])
	assert.Equal(t, "0.80", rows[1][5])
	assert.Equal(t, "high", rows[1][6])
	assert.Equal(t, "MARCUS swings a crowbar.", rows[1][9])

	resp, data = env.do(t, http.MethodGet, "/api/v1/scripts/1/export/csv?include_false_positives=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows, err = csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff")))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "true", rows[2][7])

	resp, _ = env.do(t, http.MethodGet, "/api/v1/scripts/99/export/csv", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type fakeEngineProbe struct{ err error }

func (f fakeEngineProbe) Health(context.Context) error { return f.err }
func (f fakeEngineProbe) State() string                { return "closed" }

func TestHealth_Ready(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("refused") }

	tests := []struct {
		name    string
		h       *HealthHandler
		status  int
		overall string
	}{
		{"all up", &HealthHandler{db: up, redis: up, engine: fakeEngineProbe{}}, http.StatusOK, "healthy"},
		{"no cache", &HealthHandler{db: up, engine: fakeEngineProbe{}}, http.StatusOK, "healthy"},
		{"engine down", &HealthHandler{db: up, redis: up, engine: fakeEngineProbe{err: errors.New("503")}}, http.StatusOK, "degraded"},
		{"redis down", &HealthHandler{db: up, redis: down}, http.StatusOK, "degraded"},
		{"db down", &HealthHandler{db: down, redis: up}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health/ready", tt.h.Ready)
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			data, _ := io.ReadAll(resp.Body)

			assert.Equal(t, tt.status, resp.StatusCode)
			var body map[string]any
			decode(t, data, &body)
			assert.Equal(t, tt.overall, body["status"])
		})
	}
}

func jsonString(s string) string {
	b, _ := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(s)
	return string(b)
}
