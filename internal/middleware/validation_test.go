package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
)

type sampleRequest struct {
	Title    string   `json:"title" validate:"required,max=5"`
	Kind     string   `json:"kind,omitempty" validate:"omitempty,oneof=a b"`
	Severity *float64 `json:"severity" validate:"omitempty,min=0,max=1"`
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	sev := 2.0

	tests := []struct {
		name    string
		req     sampleRequest
		details map[string]string
	}{
		{"valid", sampleRequest{Title: "ok"}, nil},
		{"missing title", sampleRequest{}, map[string]string{"title": "is required"}},
		{"title too long", sampleRequest{Title: "toolong"}, map[string]string{"title": "must not exceed 5 characters"}},
		{"bad kind", sampleRequest{Title: "ok", Kind: "c"}, map[string]string{"kind": "must be one of: a b"}},
		{"severity out of range", sampleRequest{Title: "ok", Severity: &sev}, map[string]string{"severity": "must not exceed 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.details == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperr.ErrValidation)
			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.details, appErr.Details)
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		contains []string
	}{
		{"not found", apperr.NotFound("script 7 not found"), 404, []string{`"NOT_FOUND"`, "script 7 not found"}},
		{"unknown category", apperr.UnknownCategory("weather"), 400, []string{`"UNKNOWN_CATEGORY"`}},
		{
			"unrecognized echoes text",
			apperr.NoRecognizedModification("make it pop", []string{"remove scene 5"}),
			422,
			[]string{`"NO_RECOGNIZED_MODIFICATION"`, `"text":"make it pop"`, "remove scene 5", "guidance"},
		},
		{"engine down", apperr.Unavailable("rating engine", errors.New("refused")), 503, []string{`"COLLABORATOR_UNAVAILABLE"`}},
		{"plain error", errors.New("boom"), 500, []string{`"INTERNAL_ERROR"`, "internal error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c fiber.Ctx) error { return HandleError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, string(body), s)
			}
			assert.NotContains(t, string(body), "refused", "causes stay out of responses")
		})
	}
}

func TestParseID(t *testing.T) {
	app := fiber.New()
	app.Get("/scripts/:id", func(c fiber.Ctx) error {
		id, err := ParseID(c, "id")
		if err != nil {
			return HandleError(c, err)
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		path   string
		status int
	}{
		{"/scripts/42", 200},
		{"/scripts/0", 400},
		{"/scripts/-3", 400},
		{"/scripts/abc", 400},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tt.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.path)
	}
}

func TestParseBoolQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		b, err := ParseBoolQuery(c, "include_false_positives", false)
		if err != nil {
			return HandleError(c, err)
		}
		if b {
			return c.SendString("yes")
		}
		return c.SendString("no")
	})

	tests := []struct {
		query  string
		status int
		body   string
	}{
		{"", 200, "no"},
		{"?include_false_positives=true", 200, "yes"},
		{"?include_false_positives=0", 200, "no"},
		{"?include_false_positives=maybe", 400, ""},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/"+tt.query, nil))
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.query)
		if tt.body != "" {
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.body, string(body))
		}
	}
}

func TestBindJSON(t *testing.T) {
	v := NewValidator()
	app := fiber.New()
	app.Post("/", func(c fiber.Ctx) error {
		var req sampleRequest
		if err := v.BindJSON(c, &req); err != nil {
			return HandleError(c, err)
		}
		return c.SendString(req.Title)
	})

	send := func(body string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, 200, send(`{"title":"ok"}`))
	assert.Equal(t, 400, send(`{"title":""}`))
	assert.Equal(t, 400, send(`{not json`))
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/v1/scripts/17/detections", "/api/v1/scripts/:id/detections"},
		{"/api/v1/scripts/detections/88/false-positive", "/api/v1/scripts/detections/:detectionId/false-positive"},
		{"/api/v1/scripts/17/detections/stats", "/api/v1/scripts/:id/detections/stats"},
		{"/api/v1/simulate", "/api/v1/simulate"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizePath(tt.in))
	}
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c fiber.Ctx) error { return c.SendString(GetRequestID(c)) })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	generated := resp.Header.Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, generated, string(body))

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}
