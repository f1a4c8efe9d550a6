package model

import "github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"

// ScoreVector maps each category to a severity in [0,1].
type ScoreVector map[taxonomy.Category]float64

// Diff returns after-before for every category; a category missing on either side counts as 0.
func Diff(before, after ScoreVector) ScoreVector {
	out := make(ScoreVector, len(taxonomy.All()))
	for _, c := range taxonomy.All() {
		out[c] = after[c] - before[c]
	}
	for c, v := range after {
		if _, seen := out[c]; !seen {
			out[c] = v - before[c]
		}
	}
	for c, v := range before {
		if _, seen := out[c]; !seen {
			out[c] = -v
		}
	}
	return out
}

// Clone copies s, filling every known category so the result is never partial.
func (s ScoreVector) Clone() ScoreVector {
	out := make(ScoreVector, len(taxonomy.All()))
	for _, c := range taxonomy.All() {
		out[c] = s[c]
	}
	for c, v := range s {
		out[c] = v
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Default score shifts for corrections filed without an explicit severity.
const (
	defaultFalsePositiveShift = 0.1
	defaultMissedContentShift = 0.2
)

// AdjustScores folds reviewer corrections into aggregate scores. A false positive lowers
// its category by the correction severity (0.1 when unset), missed content raises it
// (0.2 when unset); results stay within [0,1]. Corrections without a category are ignored.
func AdjustScores(base ScoreVector, corrections []UserCorrection) (ScoreVector, int) {
	out := base.Clone()
	applied := 0
	for _, c := range corrections {
		if c.Category == nil {
			continue
		}
		cat := *c.Category
		if _, known := out[cat]; !known {
			continue
		}
		switch {
		case c.CorrectionType == CorrectionFalsePositive:
			shift := defaultFalsePositiveShift
			if c.Severity != nil {
				shift = *c.Severity
			}
			out[cat] = clamp01(out[cat] - shift)
		case c.CorrectionType.AddsContent():
			shift := defaultMissedContentShift
			if c.Severity != nil {
				shift = *c.Severity
			}
			out[cat] = clamp01(out[cat] + shift)
		default:
			continue
		}
		applied++
	}
	return out, applied
}
