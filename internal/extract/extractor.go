// Package extract asks a generative model for the feature claims made by a README.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/slopscore/internal/llm"
	"github.com/ppiankov/slopscore/internal/metrics"
	"github.com/ppiankov/slopscore/internal/model"
)

// Extractor is the claim extraction client
type Extractor struct {
	provider llm.Provider
	metrics  *metrics.Metrics
}

// NewExtractor creates an extractor backed by provider. m may be nil.
func NewExtractor(provider llm.Provider, m *metrics.Metrics) *Extractor {
	return &Extractor{provider: provider, metrics: m}
}

// Extract derives feature claims and an overall assessment from README text.
// The result is returned as the model produced it; the claim count is not enforced.
func (e *Extractor) Extract(ctx context.Context, readme string) (*model.Extraction, error) {
	resp, err := e.provider.Generate(ctx, llm.GenerateRequest{
		System:     systemPrompt,
		Prompt:     BuildPrompt(readme),
		Schema:     Schema,
		SchemaName: "feature_extraction",
	})
	if err != nil {
		e.metrics.ModelCall("extract", err, 0)
		return nil, classify(err, "extract features")
	}
	e.metrics.ModelCall("extract", nil, resp.TokensUsed)

	var out model.Extraction
	if err := llm.DecodeJSON(resp.Text, Schema, &out); err != nil {
		return nil, model.WrapError(err, model.KindParse, "could not parse features from README analysis")
	}
	if out.Features == nil {
		out.Features = []model.FeatureClaim{}
	}
	return &out, nil
}

// classify keeps already-classified errors and context errors, and marks the rest as upstream faults
func classify(err error, msg string) error {
	if model.KindOf(err) != "" || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return model.WrapError(err, model.KindUpstream, "%s", msg)
}
