package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/middleware"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/internal/service"
)

// SimulationHandler serves request interpretation and what-if simulations.
type SimulationHandler struct {
	svc      *service.SimulationService
	validate *middleware.Validator
}

func NewSimulationHandler(svc *service.SimulationService, validate *middleware.Validator) *SimulationHandler {
	return &SimulationHandler{svc: svc, validate: validate}
}

// Interpret handles POST /api/v1/interpret
func (h *SimulationHandler) Interpret(c fiber.Ctx) error {
	var req model.InterpretRequest
	if err := h.validate.BindJSON(c, &req); err != nil {
		return middleware.HandleError(c, err)
	}

	res, err := h.svc.Interpret(req.Request)
	countInterpret(err)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(res)
}

// Simulate handles POST /api/v1/simulate with the script text in the body.
func (h *SimulationHandler) Simulate(c fiber.Ctx) error {
	var req model.SimulateRequest
	if err := h.validate.BindJSON(c, &req); err != nil {
		return middleware.HandleError(c, err)
	}

	res, err := h.svc.Simulate(c.Context(), req.ScriptText, req.Request)
	return h.respond(c, res, err)
}

// WhatIf handles POST /api/v1/scripts/:id/what-if against a stored script.
func (h *SimulationHandler) WhatIf(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}
	var req model.WhatIfRequest
	if err := h.validate.BindJSON(c, &req); err != nil {
		return middleware.HandleError(c, err)
	}

	res, err := h.svc.SimulateScript(c.Context(), id, req.Request)
	return h.respond(c, res, err)
}

func (h *SimulationHandler) respond(c fiber.Ctx, res *model.SimulationResult, err error) error {
	countInterpret(err)
	if err != nil {
		return fail(c, "what_if", err)
	}

	if res.Cached {
		Metrics.CacheHits.Inc()
	} else {
		Metrics.CacheMisses.Inc()
	}
	Metrics.SimulationsTotal.WithLabelValues(string(res.Verdict), strconv.FormatBool(res.PartialFailure)).Inc()
	return c.JSON(res)
}

// countInterpret records the interpreter outcome of a request. Errors that happen
// after interpretation count as recognized.
func countInterpret(err error) {
	outcome := "recognized"
	switch {
	case errors.Is(err, apperr.ErrNoRecognizedModification):
		outcome = "unrecognized"
	case errors.Is(err, apperr.ErrInvalidSceneRange):
		outcome = "invalid_scene_range"
	case errors.Is(err, apperr.ErrValidation):
		outcome = "invalid"
	}
	Metrics.InterpretTotal.WithLabelValues(outcome).Inc()
}
