package service

import (
	"math"
	"slices"
	"strings"

	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

// AllCategories selects every category in FilterDetections.
const AllCategories = "all"

// defaultAddedSeverity is used for reviewer-added content that carries no severity.
const defaultAddedSeverity = 0.5

// FilterDetections keeps active detections of the selected category. Selecting
// AllCategories (or nothing) drops only false positives.
func FilterDetections(ds []model.LineDetection, selected string) []model.LineDetection {
	out := []model.LineDetection{}
	for _, d := range ds {
		if d.IsFalsePositive {
			continue
		}
		if selected != "" && selected != AllCategories && string(d.Category) != selected {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ComputeStats derives detection statistics. False positives are counted in
// FalsePositives and, when includeFalsePositives is set, in the totals and
// per-category counts. The parents-guide block only ever reflects active detections.
func ComputeStats(ds []model.LineDetection, corrections []model.UserCorrection, totalLines int, includeFalsePositives bool) model.DetectionStats {
	stats := model.DetectionStats{
		ByCategory:      map[taxonomy.Category]int{},
		TotalMatches:    map[taxonomy.Category]int{},
		UserCorrections: len(corrections),
		ParentsGuide:    map[taxonomy.Category]model.ParentsGuideCategoryStats{},
	}

	type guide struct {
		severitySum float64
		episodes    int
		topMatches  int
	}
	guides := map[taxonomy.Category]*guide{}

	for _, d := range ds {
		if d.IsFalsePositive {
			stats.FalsePositives++
			if !includeFalsePositives {
				continue
			}
		}
		stats.TotalDetections++
		stats.ByCategory[d.Category]++
		stats.TotalMatches[d.Category] += d.MatchedPatterns.Count

		if d.IsFalsePositive {
			continue
		}
		g := guides[d.Category]
		if g == nil {
			g = &guide{}
			guides[d.Category] = g
		}
		g.severitySum += d.Severity
		g.episodes++
		g.topMatches = max(g.topMatches, d.MatchedPatterns.Count)
	}

	for cat, g := range guides {
		var pct float64
		if totalLines > 0 {
			pct = math.Round(float64(g.episodes)/float64(totalLines)*100*100) / 100
		}
		stats.ParentsGuide[cat] = model.ParentsGuideCategoryStats{
			Severity:     taxonomy.Gradation(g.severitySum / float64(g.episodes)),
			EpisodeCount: g.episodes,
			Percentage:   pct,
			TopMatches:   g.topMatches,
		}
	}
	return stats
}

// Reconcile re-applies prior corrections to a fresh detection set:
//   - a false_positive correction flags the detection it names (if that id is still
//     present) and every same-category detection overlapping its line range;
//   - a manual_addition or false_negative correction adds a user-corrected detection
//     (id 0) unless an active same-category detection already overlaps its range.
//
// The input slice is not modified. Stats are computed over the result with false
// positives excluded.
func Reconcile(ds []model.LineDetection, corrections []model.UserCorrection, totalLines int) ([]model.LineDetection, model.DetectionStats) {
	out := slices.Clone(ds)

	for _, c := range corrections {
		switch {
		case c.CorrectionType == model.CorrectionFalsePositive:
			for i := range out {
				byID := c.DetectionID != nil && out[i].ID != 0 && out[i].ID == *c.DetectionID
				byRange := c.HasRange() && out[i].Category == *c.Category && out[i].Overlaps(*c.LineStart, *c.LineEnd)
				if byID || byRange {
					out[i].IsFalsePositive = true
					out[i].UserCorrected = true
				}
			}

		case c.CorrectionType.AddsContent():
			if !c.HasRange() || coveredBy(out, *c.Category, *c.LineStart, *c.LineEnd) {
				continue
			}
			out = append(out, addedDetection(c))
		}
	}

	slices.SortStableFunc(out, func(a, b model.LineDetection) int {
		if a.LineStart != b.LineStart {
			return a.LineStart - b.LineStart
		}
		return a.LineEnd - b.LineEnd
	})
	out = WithTiers(out)
	return out, ComputeStats(out, corrections, totalLines, false)
}

func coveredBy(ds []model.LineDetection, cat taxonomy.Category, start, end int) bool {
	return slices.ContainsFunc(ds, func(d model.LineDetection) bool {
		return d.Active() && d.Category == cat && d.Overlaps(start, end)
	})
}

func addedDetection(c model.UserCorrection) model.LineDetection {
	severity := defaultAddedSeverity
	if c.Severity != nil {
		severity = *c.Severity
	}
	return model.LineDetection{
		ScriptID:        c.ScriptID,
		LineStart:       *c.LineStart,
		LineEnd:         *c.LineEnd,
		Category:        *c.Category,
		Severity:        severity,
		MatchedPatterns: model.MatchedPatterns{Matches: []model.LineMatch{}},
		UserCorrected:   true,
	}
}

// WithTiers sets SeverityTier on every detection in place and returns ds.
func WithTiers(ds []model.LineDetection) []model.LineDetection {
	for i := range ds {
		ds[i].SeverityTier = taxonomy.SeverityTier(ds[i].Severity)
	}
	return ds
}

// fillAddedText sets the text of reviewer-added detections from the script lines
// they cover.
func fillAddedText(ds []model.LineDetection, content string) {
	lines := strings.Split(content, "\n")
	for i := range ds {
		d := &ds[i]
		if d.ID != 0 || !d.UserCorrected || d.DetectedText != "" {
			continue
		}
		start, end := d.LineStart-1, min(d.LineEnd, len(lines))
		if start < 0 || start >= end {
			continue
		}
		d.DetectedText = strings.Join(lines[start:end], "\n")
	}
}

// countLines returns the number of lines in a script, as the parents-guide
// percentages expect.
func countLines(content string) int {
	return strings.Count(content, "\n") + 1
}
