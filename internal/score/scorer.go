package score

import (
	"math"

	"github.com/ppiankov/slopscore/internal/model"
)

// Confidence levels
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Scorer turns feature verdicts into a support index
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate scores a list of features.
//
// Index = round(100 * (PASS + 0.5*PARTIAL) / (PASS + PARTIAL + FAIL)).
// CANNOT_VERIFY features are excluded from the index and lower confidence instead.
// Features without a terminal verdict are ignored.
func (s *Scorer) Calculate(features []model.Feature) model.Score {
	counts := make(map[model.Verdict]int, len(model.TerminalVerdicts))
	for _, v := range model.TerminalVerdicts {
		counts[v] = 0
	}

	total := 0
	for _, f := range features {
		if !f.Verdict.IsTerminal() {
			continue
		}
		counts[f.Verdict]++
		total++
	}

	verifiable := counts[model.VerdictPass] + counts[model.VerdictPartial] + counts[model.VerdictFail]

	index := 0
	if verifiable > 0 {
		support := float64(counts[model.VerdictPass]) + 0.5*float64(counts[model.VerdictPartial])
		index = int(math.Round(100 * support / float64(verifiable)))
	}

	return model.Score{
		Index:      index,
		Confidence: s.determineConfidence(verifiable, total),
		Counts:     counts,
		Total:      total,
	}
}

// determineConfidence grades how much of the report the index actually covers
func (s *Scorer) determineConfidence(verifiable, total int) string {
	if total == 0 || verifiable == 0 {
		return ConfidenceLow
	}

	share := float64(verifiable) / float64(total)
	switch {
	case share >= 0.75 && verifiable >= 3:
		return ConfidenceHigh
	case share >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Grade maps an index to a short label for display
func Grade(index int) string {
	switch {
	case index >= 80:
		return "substantiated"
	case index >= 50:
		return "mixed"
	case index >= 20:
		return "thin"
	default:
		return "slop"
	}
}
