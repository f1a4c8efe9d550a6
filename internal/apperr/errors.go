// Package apperr provides coded domain errors shared by the services and HTTP handlers.
//
// Services return *Error values (or wrap them); handlers match them with errors.Is
// against the sentinels below and render Code/Message in the API error envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code, rendered as-is in API responses.
type Code string

const (
	CodeNotFound                 Code = "NOT_FOUND"
	CodeValidation               Code = "VALIDATION"
	CodeUnknownCategory          Code = "UNKNOWN_CATEGORY"
	CodeNoRecognizedModification Code = "NO_RECOGNIZED_MODIFICATION"
	CodeInvalidSceneRange        Code = "INVALID_SCENE_RANGE"
	CodeCollaboratorUnavailable  Code = "COLLABORATOR_UNAVAILABLE"
	CodeInternal                 Code = "INTERNAL_ERROR"
)

// HTTPStatus returns the status code a handler should answer with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeUnknownCategory, CodeInvalidSceneRange:
		return http.StatusBadRequest
	case CodeNoRecognizedModification:
		return http.StatusUnprocessableEntity
	case CodeCollaboratorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, a user-facing message and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinels for errors.Is.
var (
	ErrNotFound                 = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation               = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUnknownCategory          = &Error{Code: CodeUnknownCategory, Message: "unknown category"}
	ErrNoRecognizedModification = &Error{Code: CodeNoRecognizedModification, Message: "no recognized modification"}
	ErrInvalidSceneRange        = &Error{Code: CodeInvalidSceneRange, Message: "invalid scene range"}
	ErrCollaboratorUnavailable  = &Error{Code: CodeCollaboratorUnavailable, Message: "collaborator unavailable"}
	ErrInternal                 = &Error{Code: CodeInternal, Message: "internal error"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with per-field messages.
func ValidationWithDetails(msg string, details map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// UnknownCategory reports a category key missing from the taxonomy.
func UnknownCategory(key string) *Error {
	return &Error{Code: CodeUnknownCategory, Message: fmt.Sprintf("unknown category %q", key)}
}

// InvalidSceneRange reports a scene range that cannot be expanded.
func InvalidSceneRange(start, end int) *Error {
	return &Error{
		Code:    CodeInvalidSceneRange,
		Message: fmt.Sprintf("invalid scene range %d-%d: scenes are numbered from 1 and the end must not precede the start", start, end),
		Details: map[string]int{"start": start, "end": end},
	}
}

// Unavailable wraps a failure talking to an external collaborator.
func Unavailable(collaborator string, err error) *Error {
	return &Error{
		Code:    CodeCollaboratorUnavailable,
		Message: collaborator + " unavailable",
		cause:   err,
	}
}

// Internal wraps an unexpected failure.
func Internal(msg string, err error) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: err}
}

// Unrecognized carries the literal request text so it can be shown back to the user.
type Unrecognized struct {
	Text     string   `json:"text"`
	Guidance string   `json:"guidance"`
	Examples []string `json:"examples,omitempty"`
}

// NoRecognizedModification reports a request that matched no interpretation rule.
func NoRecognizedModification(text string, examples []string) *Error {
	return &Error{
		Code:    CodeNoRecognizedModification,
		Message: fmt.Sprintf("could not recognize a modification in %q", text),
		Details: Unrecognized{
			Text:     text,
			Guidance: "name a scene to remove (\"remove scene 5\", \"убрать сцену 1-3\") or a kind of content to reduce (\"remove all profanity\", \"смягчить насилие\")",
			Examples: examples,
		},
	}
}
