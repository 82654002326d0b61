package score

import (
	"testing"

	"github.com/ppiankov/slopscore/internal/model"
)

func features(verdicts ...model.Verdict) []model.Feature {
	out := make([]model.Feature, len(verdicts))
	for i, v := range verdicts {
		out[i] = model.Feature{ID: i, Verdict: v}
	}
	return out
}

func TestScorer_Calculate(t *testing.T) {
	tests := []struct {
		name       string
		verdicts   []model.Verdict
		index      int
		confidence string
		total      int
	}{
		{
			name:       "all pass",
			verdicts:   []model.Verdict{model.VerdictPass, model.VerdictPass, model.VerdictPass},
			index:      100,
			confidence: ConfidenceHigh,
			total:      3,
		},
		{
			name:       "mixed",
			verdicts:   []model.Verdict{model.VerdictPass, model.VerdictPartial, model.VerdictFail, model.VerdictCannotVerify},
			index:      50,
			confidence: ConfidenceHigh,
			total:      4,
		},
		{
			name:       "partial rounds half up",
			verdicts:   []model.Verdict{model.VerdictPartial, model.VerdictFail, model.VerdictFail, model.VerdictFail},
			index:      13,
			confidence: ConfidenceHigh,
			total:      4,
		},
		{
			name:       "mostly unverifiable",
			verdicts:   []model.Verdict{model.VerdictPass, model.VerdictCannotVerify, model.VerdictCannotVerify},
			index:      100,
			confidence: ConfidenceLow,
			total:      3,
		},
		{
			name:       "half verifiable",
			verdicts:   []model.Verdict{model.VerdictFail, model.VerdictCannotVerify},
			index:      0,
			confidence: ConfidenceMedium,
			total:      2,
		},
		{
			name:       "nothing verifiable",
			verdicts:   []model.Verdict{model.VerdictCannotVerify},
			index:      0,
			confidence: ConfidenceLow,
			total:      1,
		},
		{
			name:       "pending ignored",
			verdicts:   []model.Verdict{model.VerdictPass, model.VerdictPending, model.VerdictVerifying},
			index:      100,
			confidence: ConfidenceMedium,
			total:      1,
		},
		{
			name:       "empty",
			verdicts:   nil,
			index:      0,
			confidence: ConfidenceLow,
			total:      0,
		},
	}

	scorer := NewScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Calculate(features(tt.verdicts...))
			if got.Index != tt.index {
				t.Errorf("index: expected %d, got %d", tt.index, got.Index)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("confidence: expected %s, got %s", tt.confidence, got.Confidence)
			}
			if got.Total != tt.total {
				t.Errorf("total: expected %d, got %d", tt.total, got.Total)
			}
		})
	}
}

func TestScorer_CountsEveryTerminalVerdict(t *testing.T) {
	got := NewScorer().Calculate(features(model.VerdictPass, model.VerdictFail, model.VerdictFail))

	for _, v := range model.TerminalVerdicts {
		if _, ok := got.Counts[v]; !ok {
			t.Errorf("missing count for %s", v)
		}
	}
	if got.Counts[model.VerdictFail] != 2 {
		t.Errorf("Expected 2 FAIL, got %d", got.Counts[model.VerdictFail])
	}
	if got.Index != 33 {
		t.Errorf("Expected index 33, got %d", got.Index)
	}
}

func TestGrade(t *testing.T) {
	cases := map[int]string{100: "substantiated", 80: "substantiated", 50: "mixed", 20: "thin", 0: "slop"}
	for index, want := range cases {
		if got := Grade(index); got != want {
			t.Errorf("Grade(%d): expected %s, got %s", index, want, got)
		}
	}
}
