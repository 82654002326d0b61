package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ppiankov/slopscore/internal/model"
	"github.com/ppiankov/slopscore/internal/score"
)

// Renderer writes snapshots as JSON, Markdown, or a terminal summary
type Renderer struct {
	includeFooter bool
	color         bool
	sanitizer     *bluemonday.Policy
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter, color bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		color:         color,
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

var (
	badgeBase    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	badgePass    = badgeBase.Background(lipgloss.Color("28")).Foreground(lipgloss.Color("15"))
	badgePartial = badgeBase.Background(lipgloss.Color("178")).Foreground(lipgloss.Color("0"))
	badgeFail    = badgeBase.Background(lipgloss.Color("160")).Foreground(lipgloss.Color("15"))
	badgeUnknown = badgeBase.Background(lipgloss.Color("240")).Foreground(lipgloss.Color("15"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Badge renders a verdict label, styled when color is enabled
func (r *Renderer) Badge(v model.Verdict) string {
	label := v.Label()
	if !r.color {
		return "[" + label + "]"
	}
	switch v {
	case model.VerdictPass:
		return badgePass.Render(label)
	case model.VerdictPartial:
		return badgePartial.Render(label)
	case model.VerdictFail:
		return badgeFail.Render(label)
	default:
		return badgeUnknown.Render(label)
	}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// RenderJSON writes the snapshot as indented JSON
func (r *Renderer) RenderJSON(snap model.Snapshot, path string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the snapshot as a Markdown report
func (r *Renderer) RenderMarkdown(snap model.Snapshot, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(snap)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders a report. Model and README text is stripped of HTML.
func (r *Renderer) Markdown(snap model.Snapshot) string {
	var b strings.Builder
	clean := r.sanitizer.Sanitize

	b.WriteString("# SlopScore Report\n\n")

	if snap.Report == nil {
		fmt.Fprintf(&b, "**Stage:** %s\n\n", snap.Stage)
		if snap.Error != nil {
			fmt.Fprintf(&b, "> %s\n\n", clean(*snap.Error))
		}
		r.footer(&b)
		return b.String()
	}

	rep := snap.Report
	fmt.Fprintf(&b, "**Repository:** %s\n\n", rep.RepoURL)
	fmt.Fprintf(&b, "**Stage:** %s\n\n", snap.Stage)
	if rep.OverallAssessment != "" {
		fmt.Fprintf(&b, "**Assessment:** %s\n\n", clean(rep.OverallAssessment))
	}
	if snap.Error != nil {
		fmt.Fprintf(&b, "> **Error:** %s\n\n", clean(*snap.Error))
	}

	if rep.Score != nil {
		b.WriteString("## Score\n\n")
		fmt.Fprintf(&b, "**Support index:** %d/100 (%s, confidence: %s)\n\n", rep.Score.Index, score.Grade(rep.Score.Index), rep.Score.Confidence)
		b.WriteString("| Verdict | Features |\n|---|---|\n")
		for _, v := range model.TerminalVerdicts {
			fmt.Fprintf(&b, "| %s | %d |\n", v.Label(), rep.Score.Counts[v])
		}
		b.WriteString("\n")
	}

	if len(rep.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range rep.Warnings {
			fmt.Fprintf(&b, "- %s\n", clean(w))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Features\n\n")
	if len(rep.Features) == 0 {
		b.WriteString("_No verifiable features were extracted._\n\n")
	}
	for _, f := range rep.Features {
		fmt.Fprintf(&b, "### %d. %s `%s`\n\n", f.ID+1, oneLine(clean(f.Claim)), f.Verdict.Label())
		fmt.Fprintf(&b, "- **Requirement:** %s\n", oneLine(clean(f.Requirement)))
		fmt.Fprintf(&b, "- **Verification guidance:** %s\n", oneLine(clean(f.VerificationGuidance)))
		if f.Evidence.Analysis != nil {
			fmt.Fprintf(&b, "- **Analysis:** %s\n", oneLine(clean(*f.Evidence.Analysis)))
		}
		if f.VerificationNotes != nil {
			fmt.Fprintf(&b, "- **Notes:** %s\n", oneLine(clean(*f.VerificationNotes)))
		}
		b.WriteString("\n")
	}

	r.footer(&b)
	return b.String()
}

func (r *Renderer) footer(b *strings.Builder) {
	if !r.includeFooter {
		return
	}
	b.WriteString("---\n\n")
	b.WriteString("_Verdicts are inferred from README text and the repository file tree only. No code was executed or parsed._\n")
}

// RenderSummary prints a compact terminal summary of the snapshot
func (r *Renderer) RenderSummary(w io.Writer, snap model.Snapshot) {
	if snap.Report == nil {
		fmt.Fprintf(w, "%s %s\n", r.style(headingStyle, "SlopScore"), snap.Stage)
		if snap.Error != nil {
			fmt.Fprintln(w, r.style(errorStyle, *snap.Error))
		}
		return
	}

	rep := snap.Report
	fmt.Fprintf(w, "%s %s\n", r.style(headingStyle, "SlopScore"), rep.RepoURL)
	if rep.OverallAssessment != "" {
		fmt.Fprintln(w, r.style(mutedStyle, rep.OverallAssessment))
	}
	fmt.Fprintln(w)

	for _, f := range rep.Features {
		fmt.Fprintf(w, "%s %s\n", r.Badge(f.Verdict), oneLine(f.Claim))
		if f.VerificationNotes != nil {
			fmt.Fprintf(w, "    %s\n", r.style(mutedStyle, oneLine(*f.VerificationNotes)))
		}
	}

	for _, warning := range rep.Warnings {
		fmt.Fprintf(w, "\n⚠ %s\n", warning)
	}

	if rep.Score != nil {
		fmt.Fprintf(w, "\nSupport index: %d/100 (%s, confidence: %s)\n", rep.Score.Index, score.Grade(rep.Score.Index), rep.Score.Confidence)
	}
	if snap.Error != nil {
		fmt.Fprintf(w, "\n%s\n", r.style(errorStyle, *snap.Error))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
