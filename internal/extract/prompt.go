package extract

import (
	"strings"

	"github.com/ppiankov/slopscore/internal/llm"
)

const systemPrompt = "You are a senior software engineer auditing what an open-source project claims to do. You answer only with JSON."

const instructions = `Read the README below and extract the project's feature claims.

Rules:
1. Pick the 5-7 most important claims that could be checked against the code.
2. Prefer features that set the project apart over table stakes such as "responsive design" or "logging".
3. Skip marketing adjectives like "blazingly fast" or "enterprise-grade".
4. For each claim give the claim text as written, one testable functional requirement, and guidance on how to verify it programmatically.
5. Summarize the project's stated purpose in one sentence.
6. Answer in the requested JSON format.`

// Schema is the structured-output shape requested from the model
var Schema = &llm.Schema{
	Type: "object",
	Properties: map[string]*llm.Schema{
		"features": {
			Type:        "array",
			Description: "An array of 5 to 10 extracted, high-level, verifiable features from the README.",
			Items: &llm.Schema{
				Type: "object",
				Properties: map[string]*llm.Schema{
					"claim": {
						Type:        "string",
						Description: "The original feature claim verbatim from the README.",
					},
					"requirement": {
						Type:        "string",
						Description: "A testable functional requirement derived from the claim.",
					},
					"verificationGuidance": {
						Type:        "string",
						Description: "Guidance on how this feature could be programmatically verified.",
					},
				},
				Required: []string{"claim", "requirement", "verificationGuidance"},
			},
		},
		"overallAssessment": {
			Type:        "string",
			Description: "A brief, one-sentence summary of the project's primary purpose based on the README.",
		},
	},
	Required: []string{"features", "overallAssessment"},
}

// BuildPrompt embeds the README in the extraction instructions
func BuildPrompt(readme string) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nREADME:\n---\n")
	b.WriteString(readme)
	b.WriteString("\n---\n")
	return b.String()
}
