// Package validate asks a generative model for a verdict on one feature claim.
package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/slopscore/internal/llm"
	"github.com/ppiankov/slopscore/internal/metrics"
	"github.com/ppiankov/slopscore/internal/model"
)

// Verifier is the claim verification client
type Verifier struct {
	provider llm.Provider
	metrics  *metrics.Metrics
}

// NewVerifier creates a verifier backed by provider. m may be nil.
func NewVerifier(provider llm.Provider, m *metrics.Metrics) *Verifier {
	return &Verifier{provider: provider, metrics: m}
}

// Verify judges one claim against the repository file list.
// Only the first MaxPromptFiles paths are sent.
func (v *Verifier) Verify(ctx context.Context, claim model.FeatureClaim, files []string) (*model.Verification, error) {
	resp, err := v.provider.Generate(ctx, llm.GenerateRequest{
		System:     systemPrompt,
		Prompt:     BuildPrompt(claim, files),
		Schema:     Schema,
		SchemaName: "feature_verification",
	})
	if err != nil {
		v.metrics.ModelCall("verify", err, 0)
		if model.KindOf(err) != "" || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("verify feature: %w", err)
		}
		return nil, model.WrapError(err, model.KindUpstream, "verify feature")
	}
	v.metrics.ModelCall("verify", nil, resp.TokensUsed)

	var out model.Verification
	if err := llm.DecodeJSON(resp.Text, Schema, &out); err != nil {
		return nil, model.WrapError(err, model.KindParse, "could not parse verification result from AI analysis")
	}
	// The schema enum already limits this; kept so a schema edit cannot leak a non-terminal verdict
	if !out.Verdict.IsTerminal() {
		return nil, model.NewError(model.KindParse, "could not parse verification result from AI analysis: verdict %q", out.Verdict)
	}
	return &out, nil
}
