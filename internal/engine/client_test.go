package engine

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, FailureThreshold: 2, OpenTimeout: time.Minute}), &hits
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestRateScript(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, pathRateScript, r.URL.Path)

		var req rateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "INT. HOUSE - NIGHT", req.Text)
		assert.Equal(t, "42", req.ScriptID)

		writeJSON(w, http.StatusOK, `{"predicted_rating":"16+","agg_scores":{"violence":0.62,"gore":0.1},"model_version":"v2","total_scenes":12}`)
	})

	got, err := c.RateScript(context.Background(), "INT. HOUSE - NIGHT", 42)
	require.NoError(t, err)
	assert.Equal(t, model.Rating16, got.PredictedRating)
	assert.InDelta(t, 0.62, got.AggScores[taxonomy.Violence], 1e-9)
	assert.Equal(t, 12, got.TotalScenes)
	assert.Equal(t, "v2", got.ModelVersion)
}

func TestRateScript_UnknownRating(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"predicted_rating":"PG-13"}`)
	})

	_, err := c.RateScript(context.Background(), "text", 1)
	assert.True(t, errors.Is(err, apperr.ErrCollaboratorUnavailable))
}

func TestDetectLines(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathDetect, r.URL.Path)

		var req detectRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.ContextSize)

		writeJSON(w, http.StatusOK, `{"detections":[
			{"line_start":4,"line_end":5,"detected_text":"He pulls the gun.","category":"violence","severity":0.8,
			 "matched_patterns":{"count":2,"matches":[{"text":"gun","start":13,"end":16,"pattern":"gun"}]}},
			{"line_start":9,"line_end":9,"detected_text":"Damn it.","category":"profanity","severity":0.3}
		]}`)
	})

	got, err := c.DetectLines(context.Background(), "script", 7, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, taxonomy.Violence, got[0].Category)
	assert.Equal(t, 2, got[0].MatchedPatterns.Count)
	assert.Equal(t, 9, got[1].LineStart)
	assert.Zero(t, got[1].ID)
}

func TestWhatIf(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathWhatIf, r.URL.Path)

		var req model.EngineWhatIfRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Modifications, 1)
		assert.Equal(t, model.ModReduceProfanity, req.Modifications[0].Type)
		assert.True(t, req.PreserveStructure)
		assert.False(t, req.UseLLM)

		writeJSON(w, http.StatusOK, `{"original_rating":"16+","modified_rating":"12+",
			"original_scores":{"profanity":0.7},"modified_scores":{"profanity":0.2},
			"modifications_applied":[{"type":"reduce_profanity"}],"explanation":"less swearing"}`)
	})

	got, err := c.WhatIf(context.Background(), model.EngineWhatIfRequest{
		ScriptText:        "script",
		Modifications:     []model.Modification{{Type: model.ModReduceProfanity, Params: map[string]any{model.ParamCategories: []string{"profanity"}}}},
		PreserveStructure: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "12+", got.ModifiedRating)
	assert.Len(t, got.ModificationsApplied, 1)
	assert.Equal(t, "less swearing", got.Explanation)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"detail":"model not loaded"}`)
	})

	for i := 0; i < 2; i++ {
		err := c.Health(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrCollaboratorUnavailable))

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusInternalServerError, se.Status)
	}
	assert.Equal(t, "open", c.State())

	err := c.Health(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrCollaboratorUnavailable))
	assert.EqualValues(t, 2, atomic.LoadInt32(hits), "open breaker must not reach the engine")
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"detail":"script_text too short"}`)
	})

	for i := 0; i < 4; i++ {
		_, err := c.WhatIf(context.Background(), model.EngineWhatIfRequest{ScriptText: "x"})
		assert.True(t, errors.Is(err, apperr.ErrCollaboratorUnavailable))
	}
	assert.Equal(t, "closed", c.State())
	assert.EqualValues(t, 4, atomic.LoadInt32(hits))
}

func TestUnreachableEngine(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url, Timeout: time.Second})
	_, err := c.DetectLines(context.Background(), "text", 1, 3)
	assert.True(t, errors.Is(err, apperr.ErrCollaboratorUnavailable))
}

func TestMalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"detections": [`)
	})

	_, err := c.DetectLines(context.Background(), "text", 1, 3)
	assert.True(t, errors.Is(err, apperr.ErrCollaboratorUnavailable))
}
