package model

import "time"

// Report is the claim verification report for one repository
type Report struct {
	RepoURL           string    `json:"repoUrl"`
	OverallAssessment string    `json:"overallAssessment"`
	Features          []Feature `json:"features"`

	Warnings []string `json:"warnings,omitempty"` // Non-fatal issues (e.g. truncated file tree)
	Score    *Score   `json:"score,omitempty"`    // Set once every feature has a terminal verdict
}

// NewReport builds a report with every extracted claim in PENDING state
func NewReport(repoURL string, extraction Extraction) Report {
	features := make([]Feature, len(extraction.Features))
	for i, claim := range extraction.Features {
		features[i] = NewPendingFeature(i, claim)
	}
	return Report{
		RepoURL:           repoURL,
		OverallAssessment: extraction.OverallAssessment,
		Features:          features,
	}
}

// Clone returns a deep copy of the report
func (r Report) Clone() Report {
	out := r
	out.Features = make([]Feature, len(r.Features))
	for i, f := range r.Features {
		f.Evidence.Analysis = cloneString(f.Evidence.Analysis)
		f.VerificationNotes = cloneString(f.VerificationNotes)
		out.Features[i] = f
	}
	if r.Warnings != nil {
		out.Warnings = append([]string(nil), r.Warnings...)
	}
	if r.Score != nil {
		s := r.Score.Clone()
		out.Score = &s
	}
	return out
}

// Score summarizes verdicts once verification is complete
type Score struct {
	Index      int             `json:"index"`      // Support index (0-100)
	Confidence string          `json:"confidence"` // "low", "medium", "high"
	Counts     map[Verdict]int `json:"counts"`     // Features per terminal verdict
	Total      int             `json:"total"`
}

// Clone returns a deep copy of the score
func (s Score) Clone() Score {
	out := s
	out.Counts = make(map[Verdict]int, len(s.Counts))
	for k, v := range s.Counts {
		out.Counts[k] = v
	}
	return out
}

// Stage is the orchestrator's analysis stage
type Stage string

const (
	StageIdle               Stage = "IDLE"
	StageExtractingFeatures Stage = "EXTRACTING_FEATURES"
	StageVerifying          Stage = "VERIFYING"
	StageComplete           Stage = "COMPLETE"
	StageError              Stage = "ERROR"
)

// IsRunning reports whether an analysis is in progress
func (s Stage) IsRunning() bool {
	return s == StageExtractingFeatures || s == StageVerifying
}

// Snapshot is an immutable view of the orchestrator state handed to readers
type Snapshot struct {
	RunID     string    `json:"runId,omitempty"`
	Stage     Stage     `json:"stage"`
	Report    *Report   `json:"report"`
	Error     *string   `json:"error"`
	UpdatedAt time.Time `json:"updatedAt"`
}
