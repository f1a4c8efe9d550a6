package taxonomy

import (
	"slices"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
)

// Category is one content-risk dimension scored by the rating engine.
type Category string

const (
	Violence  Category = "violence"
	Gore      Category = "gore"
	Profanity Category = "profanity"
	Drugs     Category = "drugs"
	SexAct    Category = "sex_act"
	Nudity    Category = "nudity"
	ChildRisk Category = "child_risk"
)

var ordered = []Category{Violence, Gore, Profanity, Drugs, SexAct, Nudity, ChildRisk}

// All returns every category in canonical display order.
func All() []Category {
	return slices.Clone(ordered)
}

// ParseCategory validates a raw category key.
func ParseCategory(key string) (Category, error) {
	c := Category(key)
	if !c.Valid() {
		return "", apperr.UnknownCategory(key)
	}
	return c, nil
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	return slices.Contains(ordered, c)
}

func (c Category) String() string {
	return string(c)
}

// Tier is the visual severity bucket of a single detection.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// SeverityTier maps a severity in [0,1] to its tier: >= 0.7 high, >= 0.4 medium, else low.
func SeverityTier(severity float64) Tier {
	switch {
	case severity >= 0.7:
		return TierHigh
	case severity >= 0.4:
		return TierMedium
	default:
		return TierLow
	}
}

// Gradation buckets an average category severity the way a parents guide does.
func Gradation(avgSeverity float64) string {
	switch {
	case avgSeverity >= 0.7:
		return "SEVERE"
	case avgSeverity >= 0.5:
		return "MODERATE"
	case avgSeverity >= 0.3:
		return "MILD"
	default:
		return "NONE"
	}
}
