package model

// Extraction is the result of the claim extraction step
type Extraction struct {
	Features          []FeatureClaim `json:"features"`
	OverallAssessment string         `json:"overallAssessment"`
}

// Verification is the result of verifying a single claim against a file tree
type Verification struct {
	Verdict  Verdict `json:"verdict"`
	Analysis string  `json:"analysis"`
	Notes    *string `json:"notes"`
}

// Apply overwrites the feature's verdict, evidence and notes with the verification result
func (v Verification) Apply(f *Feature) {
	analysis := v.Analysis
	f.Verdict = v.Verdict
	f.Evidence = Evidence{Analysis: &analysis}
	f.VerificationNotes = cloneString(v.Notes)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
