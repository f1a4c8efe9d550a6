package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/VisageDvachevsky/wink-ai-model/internal/middleware"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

// categoryView is a category rendered for one language.
type categoryView struct {
	taxonomy.Info
	Label string `json:"label"`
}

type TaxonomyHandler struct {
	tax *taxonomy.Taxonomy
}

func NewTaxonomyHandler(tax *taxonomy.Taxonomy) *TaxonomyHandler {
	return &TaxonomyHandler{tax: tax}
}

// List handles GET /api/v1/taxonomy?lang=
func (h *TaxonomyHandler) List(c fiber.Ctx) error {
	lang := language(c)
	entries := h.tax.Entries()
	out := make([]categoryView, 0, len(entries))
	for _, info := range entries {
		out = append(out, categoryView{Info: info, Label: h.tax.Label(string(info.Key), lang)})
	}
	return c.JSON(fiber.Map{"language": lang, "categories": out})
}

// Get handles GET /api/v1/taxonomy/:key?lang=
func (h *TaxonomyHandler) Get(c fiber.Ctx) error {
	key := c.Params("key")
	info, err := h.tax.Lookup(key)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(categoryView{Info: info, Label: h.tax.Label(key, language(c))})
}

// language picks ?lang= or the primary tag of Accept-Language.
func language(c fiber.Ctx) string {
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return strings.ToLower(lang)
	}
	accept := c.Get(fiber.HeaderAcceptLanguage)
	tag, _, _ := strings.Cut(accept, ",")
	tag, _, _ = strings.Cut(tag, ";")
	tag, _, _ = strings.Cut(strings.TrimSpace(tag), "-")
	if tag == "" || tag == "*" {
		return taxonomy.DefaultLanguage
	}
	return strings.ToLower(tag)
}
