package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// HandleError renders err in the API error envelope. Domain errors keep their code,
// message and details; anything else is logged and reported as an internal error.
func HandleError(c fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		Logger.Error().Err(err).
			Str("request_id", GetRequestID(c)).
			Str("path", sanitizePath(c.Path())).
			Msg("unhandled error")
		return ErrorResponse(c, fiber.StatusInternalServerError, string(apperr.CodeInternal), "internal error")
	}

	if appErr.HTTPStatus() >= fiber.StatusInternalServerError {
		Logger.Error().Err(err).
			Str("request_id", GetRequestID(c)).
			Str("code", string(appErr.Code)).
			Msg("request failed")
	}

	body := fiber.Map{
		"code":    string(appErr.Code),
		"message": appErr.Message,
	}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{"error": body})
}

// Validator wraps go-playground/validator and reports failures as domain
// validation errors keyed by JSON field name.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a validator that names fields by their json tag.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate checks s against its validate tags.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Internal("validation failed", err)
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = friendlyMessage(fe)
	}
	return apperr.ValidationWithDetails("validation failed", details)
}

// BindJSON decodes the request body into dst and validates it.
func (v *Validator) BindJSON(c fiber.Ctx, dst any) error {
	if err := c.Bind().JSON(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return v.Validate(dst)
}

func friendlyMessage(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit)
	case "max":
		return fmt.Sprintf("must not exceed %s%s", fe.Param(), unit)
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return "is invalid"
	}
}

// ParseID reads a positive integer path parameter.
func ParseID(c fiber.Ctx, param string) (int64, error) {
	raw := strings.TrimSpace(c.Params(param))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.ValidationWithDetails("invalid path parameter", map[string]string{
			param: "must be a positive integer",
		})
	}
	return id, nil
}

// ParseBoolQuery reads an optional boolean query parameter.
func ParseBoolQuery(c fiber.Ctx, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.ValidationWithDetails("invalid query parameter", map[string]string{
			key: "must be true or false",
		})
	}
	return b, nil
}

// ParseIntQuery reads an optional integer query parameter.
func ParseIntQuery(c fiber.Ctx, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.ValidationWithDetails("invalid query parameter", map[string]string{
			key: "must be an integer",
		})
	}
	return n, nil
}
