package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/realcheck/internal/authority"
	"github.com/ppiankov/realcheck/internal/llm"
	"github.com/ppiankov/realcheck/internal/model"
	"github.com/ppiankov/realcheck/internal/score"
)

// verdictOrder fixes the order of the verdict tally in rendered output
var verdictOrder = []model.Verdict{
	model.VerdictLikelyTrue,
	model.VerdictLeansTrue,
	model.VerdictInconclusive,
	model.VerdictLeansFalse,
	model.VerdictLikelyFalse,
	model.VerdictNoEvidence,
	model.VerdictCheckError,
}

// Renderer writes reports as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
	authority     *authority.Classifier
}

// NewRenderer creates a renderer. Links in Markdown output are annotated
// with tiers from auth; nil uses the default authority lists.
func NewRenderer(includeFooter bool, auth *authority.Classifier) *Renderer {
	if auth == nil {
		auth = authority.NewClassifier(nil)
	}
	return &Renderer{includeFooter: includeFooter, authority: auth}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// RenderLLMMarkdown writes an already rendered LLM summary
func (r *Renderer) RenderLLMMarkdown(content string, path string) error {
	return writeFile(path, []byte(content))
}

// Markdown renders the report body
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Misinformation Check: %s\n\n", report.URL)
	fmt.Fprintf(&b, "- **Overall:** %s\n", report.Overall)
	fmt.Fprintf(&b, "- **AI Score:** %.2f (%s)\n", report.Authorship.Probability, report.Authorship.Verdict)
	fmt.Fprintf(&b, "- **Claims Checked:** %d\n", len(report.Claims))
	if report.ClaimsSkipped > 0 {
		fmt.Fprintf(&b, "- **Claims Skipped:** %d (deadline reached)\n", report.ClaimsSkipped)
	}
	fmt.Fprintf(&b, "- **False Flags:** %d\n", report.FalseFlags)
	fmt.Fprintf(&b, "- **Analyzed:** %s\n", report.Timestamp.Format("2006-01-02 15:04:05 UTC"))
	if report.Description != "" {
		fmt.Fprintf(&b, "- **Description:** %s\n", report.Description)
	}
	if report.Authorship.Fallbacks > 0 {
		fmt.Fprintf(&b, "- **Classifier Fallbacks:** %d of %d chunks scored neutral\n",
			report.Authorship.Fallbacks, report.Authorship.Chunks)
	}

	if report.Snippet != "" {
		fmt.Fprintf(&b, "\n> %s...\n", report.Snippet)
	}

	b.WriteString("\n## Claims\n\n")
	if len(report.Claims) == 0 {
		b.WriteString("_No checkable claims were extracted._\n")
	}
	for i, check := range report.Claims {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, check.Claim)
		fmt.Fprintf(&b, "**Verdict:** %s (support %d, challenge %d)\n\n", check.Verdict, check.SupportCount, check.ChallengeCount)
		if check.Error != "" {
			fmt.Fprintf(&b, "_Search failed: %s_\n\n", check.Error)
			continue
		}
		r.writeLinks(&b, "Supporting", check.SupportLinks)
		r.writeLinks(&b, "Challenging", check.ChallengeLinks)
	}

	if links := report.AllLinks(); len(links) > 0 {
		dist := r.authority.Distribution(links)
		b.WriteString("## Source Authority\n\n")
		fmt.Fprintf(&b, "%d primary, %d secondary, %d tertiary\n\n",
			dist[model.TierPrimary], dist[model.TierSecondary], dist[model.TierTertiary])
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "_%s_\n", report.Note)
		fmt.Fprintf(&b, "_Settings: max text %d, claims %d-%d chars (max %d), chunk %d, %d search results, classifier %s, search %s_\n",
			report.Config.MaxTextLength, report.Config.ClaimMinLength, report.Config.ClaimMaxLength,
			report.Config.MaxClaims, report.Config.ChunkSize, report.Config.SearchResults,
			report.Config.Classifier, report.Config.SearchProvider)
	}

	return b.String()
}

func (r *Renderer) writeLinks(b *strings.Builder, label string, links []string) {
	if len(links) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, l := range r.authority.Annotate(links) {
		fmt.Fprintf(b, "- [%s] %s\n", l.Tier, l.URL)
	}
	b.WriteString("\n")
}

// RenderSummary prints a short human summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "\n%s\n", report.URL)
	fmt.Fprintf(w, "  Overall:      %s\n", report.Overall)
	fmt.Fprintf(w, "  AI score:     %.2f (%s)\n", report.Authorship.Probability, report.Authorship.Verdict)
	fmt.Fprintf(w, "  Claims:       %d checked", len(report.Claims))
	if report.ClaimsSkipped > 0 {
		fmt.Fprintf(w, ", %d skipped", report.ClaimsSkipped)
	}
	fmt.Fprintf(w, ", %d false flags\n", report.FalseFlags)

	tally := score.Tally(report.Claims)
	for _, v := range verdictOrder {
		if n := tally[v]; n > 0 {
			fmt.Fprintf(w, "    %-24s %d\n", v, n)
		}
	}

	if report.LLM != nil && report.LLM.Enabled {
		fmt.Fprintf(w, "  LLM summary:  %s (%s)\n", report.LLM.Provider, report.LLM.Model)
	}
	fmt.Fprintf(w, "  %s\n", report.Note)
}

// RenderReport writes the requested outputs and prints the summary to w
func (r *Renderer) RenderReport(w io.Writer, report *model.Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := r.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := r.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}

		if report.LLM != nil && report.LLM.Enabled {
			llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
			if err := r.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to write LLM summary: %v\n", err)
			} else if verbose {
				fmt.Fprintf(os.Stderr, "✓ Wrote LLM Summary: %s\n", llmPath)
			}
		}
	}

	r.RenderSummary(w, report)
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
