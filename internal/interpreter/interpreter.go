// Package interpreter turns short free-text edit requests ("remove scene 5",
// "убрать мат у всех персонажей") into structured modifications for the rating engine.
//
// It is a closed, deterministic rule table rather than a language model: every rule is
// evaluated against the same normalized text and each one that matches contributes its
// operation, so "remove scene 1-3 and reduce violence" yields two modifications.
// Broader phrasing support means adding patterns, not changing the evaluation.
package interpreter

import (
	"strings"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
)

// Examples are request phrasings the rule table is known to understand.
var Examples = []string{
	"убрать сцену 1-3",
	"заменить драку на словесный конфликт",
	"убрать мат у всех персонажей",
	"без крови и увечий",
	"смягчить насилие",
	"remove scene 5",
	"replace fight with verbal argument",
	"remove all profanity",
}

// Interpreter evaluates the rule table. The zero value is not usable; call New.
type Interpreter struct {
	rules []rule
}

// New returns an Interpreter with the built-in rule table.
func New() *Interpreter {
	return &Interpreter{rules: defaultRules()}
}

// Interpret returns the modifications requested by text, in rule-table order.
//
// It never returns an empty slice with a nil error: when no rule matches (including
// blank input) the error is apperr.ErrNoRecognizedModification carrying the literal
// text. A descending or oversized scene range fails with apperr.ErrInvalidSceneRange.
func (in *Interpreter) Interpret(text string) ([]model.Modification, error) {
	normalized := normalize(text)
	if normalized == "" {
		return nil, apperr.NoRecognizedModification(strings.TrimSpace(text), Examples)
	}

	var mods []model.Modification
	for _, r := range in.rules {
		out, err := r.apply(normalized)
		if err != nil {
			return nil, err
		}
		mods = append(mods, out...)
	}

	if len(mods) == 0 {
		return nil, apperr.NoRecognizedModification(strings.TrimSpace(text), Examples)
	}
	return mods, nil
}

// Rules lists the rule names in evaluation order.
func (in *Interpreter) Rules() []string {
	names := make([]string, len(in.rules))
	for i, r := range in.rules {
		names[i] = r.name
	}
	return names
}
