// Package engine is the HTTP client for the rating and detection engine.
//
// Every call goes through a circuit breaker; any transport failure, non-2xx status
// or undecodable body is reported as apperr.ErrCollaboratorUnavailable with the
// underlying cause attached. Calls are never retried here.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3/client"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
)

const collaborator = "rating engine"

// Engine endpoints.
const (
	pathRateScript = "/rate_script"
	pathDetect     = "/detect_lines"
	pathWhatIf     = "/what_if_advanced"
	pathHealth     = "/health"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config configures the engine client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// FailureThreshold consecutive failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// StatusError is a non-2xx answer from the engine.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Path, e.Status, e.Body)
}

// Client talks to the rating engine over HTTP JSON.
type Client struct {
	http *client.Client
	cb   *gobreaker.CircuitBreaker
}

// New creates a Client. Zero values in cfg fall back to a 60s timeout, a threshold
// of 5 failures and a 30s open period.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	hc := client.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetJSONMarshal(json.Marshal).
		SetJSONUnmarshal(json.Unmarshal)

	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        collaborator,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("engine circuit breaker state change")
		},
	})

	return &Client{http: hc, cb: cb}
}

// countsAsSuccess keeps caller mistakes and cancellations from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 400 && se.Status < 500
	}
	return false
}

type rateRequest struct {
	Text     string `json:"text"`
	ScriptID string `json:"script_id,omitempty"`
}

type detectRequest struct {
	Text        string `json:"text"`
	ScriptID    string `json:"script_id,omitempty"`
	ContextSize int    `json:"context_size"`
}

type detectResponse struct {
	Detections []model.LineDetection `json:"detections"`
}

// RateScript rates a full script text.
func (c *Client) RateScript(ctx context.Context, text string, scriptID int64) (*model.RatingResult, error) {
	var out model.RatingResult
	if err := c.do(ctx, pathRateScript, rateRequest{Text: text, ScriptID: idString(scriptID)}, &out); err != nil {
		return nil, err
	}
	if out.PredictedRating.Index() < 0 {
		return nil, apperr.Unavailable(collaborator, fmt.Errorf("unknown predicted rating %q", out.PredictedRating))
	}
	return &out, nil
}

// DetectLines runs line-level detection. Returned detections carry no id or script id.
func (c *Client) DetectLines(ctx context.Context, text string, scriptID int64, contextSize int) ([]model.LineDetection, error) {
	var out detectResponse
	req := detectRequest{Text: text, ScriptID: idString(scriptID), ContextSize: contextSize}
	if err := c.do(ctx, pathDetect, req, &out); err != nil {
		return nil, err
	}
	return out.Detections, nil
}

// WhatIf submits structured modifications and returns the engine's before/after answer.
func (c *Client) WhatIf(ctx context.Context, req model.EngineWhatIfRequest) (*model.EngineWhatIfResponse, error) {
	var out model.EngineWhatIfResponse
	if err := c.do(ctx, pathWhatIf, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health pings the engine.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, pathHealth, nil, nil)
}

// do sends a GET when body is nil and a JSON POST otherwise.
func (c *Client) do(ctx context.Context, path string, body, out any) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		req := c.http.R().SetContext(ctx)

		var (
			resp *client.Response
			err  error
		)
		if body == nil {
			resp, err = req.Get(path)
		} else {
			resp, err = req.SetJSON(body).Post(path)
		}
		if err != nil {
			client.ReleaseRequest(req)
			return nil, err
		}
		defer resp.Close()

		if status := resp.StatusCode(); status < 200 || status > 299 {
			return nil, &StatusError{Path: path, Status: status, Body: truncate(resp.String(), 512)}
		}
		if out != nil {
			if err := resp.JSON(out); err != nil {
				return nil, fmt.Errorf("decode %s response: %w", path, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("engine call failed")
		return apperr.Unavailable(collaborator, err)
	}
	return nil
}

// State reports the breaker state for health checks.
func (c *Client) State() string {
	return c.cb.State().String()
}

func idString(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
