package model

import (
	"fmt"
	"slices"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

// Rating is an age rating on the ordered scale 0+ < 6+ < 12+ < 16+ < 18+.
type Rating string

const (
	Rating0  Rating = "0+"
	Rating6  Rating = "6+"
	Rating12 Rating = "12+"
	Rating16 Rating = "16+"
	Rating18 Rating = "18+"
)

var ratingScale = []Rating{Rating0, Rating6, Rating12, Rating16, Rating18}

// ParseRating validates a raw rating string.
func ParseRating(s string) (Rating, error) {
	r := Rating(s)
	if r.Index() < 0 {
		return "", apperr.Validation(fmt.Sprintf("unknown rating %q", s))
	}
	return r, nil
}

// Index returns the position of r on the scale, or -1 when r is not on it.
func (r Rating) Index() int {
	return slices.Index(ratingScale, r)
}

// Verdict is the direction a rating moved in.
type Verdict string

const (
	VerdictImproved  Verdict = "improved"
	VerdictWorsened  Verdict = "worsened"
	VerdictUnchanged Verdict = "unchanged"
)

// CompareRatings reports how the rating moved from before to after.
// Improved means it moved toward 0+, worsened toward 18+.
func CompareRatings(before, after Rating) Verdict {
	bi, ai := before.Index(), after.Index()
	switch {
	case ai < bi:
		return VerdictImproved
	case ai > bi:
		return VerdictWorsened
	default:
		return VerdictUnchanged
	}
}

// RatingFromScores derives an age rating from aggregate category scores.
func RatingFromScores(s ScoreVector) Rating {
	v := func(c taxonomy.Category) float64 { return s[c] }

	switch {
	case v(taxonomy.SexAct) >= 0.75 || v(taxonomy.Gore) >= 0.95:
		return Rating18
	case v(taxonomy.ChildRisk) > 0.7 && (v(taxonomy.SexAct) >= 0.5 || v(taxonomy.Violence) >= 0.8):
		return Rating18
	case (v(taxonomy.Violence) >= 0.8 && v(taxonomy.Gore) >= 0.7) || v(taxonomy.Gore) >= 0.75:
		return Rating16
	case v(taxonomy.Violence) >= 0.65 || v(taxonomy.Gore) >= 0.5:
		return Rating16
	case v(taxonomy.SexAct) >= 0.35 || v(taxonomy.Nudity) >= 0.4:
		return Rating16
	case v(taxonomy.Violence) >= 0.3 || v(taxonomy.Profanity) >= 0.4 || v(taxonomy.Drugs) >= 0.3:
		return Rating12
	case v(taxonomy.Violence) >= 0.1 || v(taxonomy.Profanity) >= 0.1:
		return Rating6
	default:
		return Rating0
	}
}
