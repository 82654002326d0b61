package model

// FeatureClaim is a feature statement derived from a README by the extraction step
type FeatureClaim struct {
	Claim                string `json:"claim"`                // Original claim text from the README
	Requirement          string `json:"requirement"`          // Testable rephrasing used as the verification query
	VerificationGuidance string `json:"verificationGuidance"` // How the claim could be checked
}

// Verdict is the outcome category of a feature verification
type Verdict string

const (
	VerdictPass         Verdict = "PASS"
	VerdictPartial      Verdict = "PARTIAL"
	VerdictFail         Verdict = "FAIL"
	VerdictCannotVerify Verdict = "CANNOT_VERIFY"
	VerdictPending      Verdict = "PENDING"   // Not yet verified
	VerdictVerifying    Verdict = "VERIFYING" // Verification request in flight
)

// TerminalVerdicts lists the verdicts a verification client may return, in display order
var TerminalVerdicts = []Verdict{VerdictPass, VerdictPartial, VerdictFail, VerdictCannotVerify}

// IsTerminal reports whether the verdict is a final verification outcome
func (v Verdict) IsTerminal() bool {
	switch v {
	case VerdictPass, VerdictPartial, VerdictFail, VerdictCannotVerify:
		return true
	}
	return false
}

// Valid reports whether v is a known verdict
func (v Verdict) Valid() bool {
	return v.IsTerminal() || v == VerdictPending || v == VerdictVerifying
}

// Label returns the verdict with underscores replaced by spaces
func (v Verdict) Label() string {
	if v == VerdictCannotVerify {
		return "CANNOT VERIFY"
	}
	return string(v)
}

// Evidence holds the verification analysis for a feature
type Evidence struct {
	Analysis *string `json:"analysis"`
}

// Feature is a claim tracked through verification. Its identity is its index in the report.
type Feature struct {
	FeatureClaim
	ID                int      `json:"id"`
	Verdict           Verdict  `json:"verdict"`
	Evidence          Evidence `json:"evidence"`
	VerificationNotes *string  `json:"verificationNotes"`
}

// NewPendingFeature wraps a claim as a feature awaiting verification
func NewPendingFeature(id int, claim FeatureClaim) Feature {
	return Feature{
		FeatureClaim: claim,
		ID:           id,
		Verdict:      VerdictPending,
	}
}
