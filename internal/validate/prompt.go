package validate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/slopscore/internal/llm"
	"github.com/ppiankov/slopscore/internal/model"
)

// MaxPromptFiles is how many tree paths are shown to the model. Later paths are not considered.
const MaxPromptFiles = 100

const systemPrompt = "You are an automated static-analysis agent. You judge whether a claimed feature exists by reading a repository's file structure. You answer only with JSON."

const instructions = `Decide whether the requirement below is implemented in the repository, using only the file tree.

Steps:
1. Read the testable requirement.
2. Scan the file tree for files, directories or naming patterns that indicate an implementation.
3. Choose one verdict:
   - PASS: strong evidence the feature is implemented.
   - PARTIAL: some evidence, but incomplete or covering only part of the claim.
   - FAIL: no evidence anywhere in the file tree.
   - CANNOT_VERIFY: the file structure alone cannot settle it (runtime behavior, external services, performance).
4. Write a short analysis explaining the verdict and citing file paths.
5. For PARTIAL or CANNOT_VERIFY, add a short note. Otherwise set notes to null.`

var verdictEnum = func() []string {
	out := make([]string, len(model.TerminalVerdicts))
	for i, v := range model.TerminalVerdicts {
		out[i] = string(v)
	}
	return out
}()

// Schema is the structured-output shape requested from the model
var Schema = &llm.Schema{
	Type: "object",
	Properties: map[string]*llm.Schema{
		"verdict": {
			Type: "string",
			Enum: verdictEnum,
		},
		"analysis": {
			Type:        "string",
			Description: "A summary of the static analysis findings, referencing specific files or code patterns. This is the evidence.",
		},
		"notes": {
			Type:        "string",
			Description: "If the verdict is PARTIAL or CANNOT_VERIFY, a brief explanation. Otherwise null.",
			Nullable:    true,
		},
	},
	Required: []string{"verdict", "analysis", "notes"},
}

// BuildPrompt embeds the requirement and the first MaxPromptFiles paths
func BuildPrompt(claim model.FeatureClaim, files []string) string {
	shown := files
	if len(shown) > MaxPromptFiles {
		shown = shown[:MaxPromptFiles]
	}

	var b strings.Builder
	b.WriteString(instructions)
	fmt.Fprintf(&b, "\n\nTestable requirement:\n%q\n", claim.Requirement)
	fmt.Fprintf(&b, "\nFile tree (first %d files):\n---\n", MaxPromptFiles)
	b.WriteString(strings.Join(shown, "\n"))
	b.WriteString("\n---\n")
	return b.String()
}
