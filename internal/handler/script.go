package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/VisageDvachevsky/wink-ai-model/internal/middleware"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/internal/service"
)

type ScriptHandler struct {
	svc      *service.ScriptService
	validate *middleware.Validator
}

func NewScriptHandler(svc *service.ScriptService, validate *middleware.Validator) *ScriptHandler {
	return &ScriptHandler{svc: svc, validate: validate}
}

// List handles GET /api/v1/scripts?limit=&offset=
func (h *ScriptHandler) List(c fiber.Ctx) error {
	limit, err := middleware.ParseIntQuery(c, "limit", service.DefaultPageSize)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	offset, err := middleware.ParseIntQuery(c, "offset", 0)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	scripts, err := h.svc.List(c.Context(), limit, offset)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(scripts)
}

// Create handles POST /api/v1/scripts
func (h *ScriptHandler) Create(c fiber.Ctx) error {
	var req model.CreateScriptRequest
	if err := h.validate.BindJSON(c, &req); err != nil {
		return middleware.HandleError(c, err)
	}

	script, err := h.svc.Create(c.Context(), req)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(script)
}

// Get handles GET /api/v1/scripts/:id
func (h *ScriptHandler) Get(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}

	script, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(script)
}

// GetContent handles GET /api/v1/scripts/:id/content
func (h *ScriptHandler) GetContent(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}

	script, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(fiber.Map{
		"script_id": script.ID,
		"title":     script.Title,
		"content":   script.Content,
	})
}

// PutContent handles PUT /api/v1/scripts/:id/content
func (h *ScriptHandler) PutContent(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}
	var req model.UpdateContentRequest
	if err := h.validate.BindJSON(c, &req); err != nil {
		return middleware.HandleError(c, err)
	}

	script, err := h.svc.UpdateContent(c.Context(), id, req)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(script)
}

// ListVersions handles GET /api/v1/scripts/:id/versions
func (h *ScriptHandler) ListVersions(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}

	versions, err := h.svc.ListVersions(c.Context(), id)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(versions)
}

// CreateVersion handles POST /api/v1/scripts/:id/versions. The body is optional.
func (h *ScriptHandler) CreateVersion(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}
	var req model.CreateVersionRequest
	if len(c.Body()) > 0 {
		if err := h.validate.BindJSON(c, &req); err != nil {
			return middleware.HandleError(c, err)
		}
	}

	version, err := h.svc.CreateVersion(c.Context(), id, req)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(version)
}

// Rate handles POST /api/v1/scripts/:id/rate
func (h *ScriptHandler) Rate(c fiber.Ctx) error {
	id, err := middleware.ParseID(c, "id")
	if err != nil {
		return middleware.HandleError(c, err)
	}

	script, err := h.svc.Rate(c.Context(), id)
	if err != nil {
		return fail(c, "rate", err)
	}
	return c.JSON(script)
}
