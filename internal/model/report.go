package model

import "time"

// ReportNote is attached to every report
const ReportNote = "IFCN-aligned prototype. Human review essential."

// AuthorshipVerdict is the binary outcome of the authorship scorer
type AuthorshipVerdict string

const (
	AuthorshipLikelyAI    AuthorshipVerdict = "Likely AI"
	AuthorshipLikelyHuman AuthorshipVerdict = "Likely Human"
)

// AuthorshipAssessment is the document-level AI-authorship score
type AuthorshipAssessment struct {
	Probability float64           `json:"ai_score"`   // Mean per-chunk AI probability in [0,1]
	Verdict     AuthorshipVerdict `json:"ai_verdict"` // LikelyAI iff Probability > 0.5
	Chunks      int               `json:"chunks"`     // Chunks scored (0 when the classifier was bypassed)
	Fallbacks   int               `json:"fallbacks"`  // Chunks that fell back to the neutral 0.5
}

// IsAI reports whether the assessment leans AI-authored
func (a AuthorshipAssessment) IsAI() bool {
	return a.Verdict == AuthorshipLikelyAI
}

// OverallVerdict is the aggregate classification of an article
type OverallVerdict string

const (
	OverallAIMisinfoLikely  OverallVerdict = "AI Misinfo Likely"
	OverallPotentialMisinfo OverallVerdict = "Potential Misinfo"
	OverallLikelyAIClaimsOK OverallVerdict = "Likely AI (Claims OK)"
	OverallAppearsLegit     OverallVerdict = "Appears Legit"
)

// Report is the complete analysis of one article
type Report struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description,omitempty"` // Caller-supplied label, echoed back
	Snippet     string    `json:"snippet"`               // First 200 characters of the analyzed text

	Authorship AuthorshipAssessment `json:"authorship"`

	Claims        []EvidenceCheck `json:"claims"`         // In extraction order
	ClaimsSkipped int             `json:"claims_skipped"` // Checks not run before the deadline
	FalseFlags    int             `json:"false_flags"`

	Overall OverallVerdict   `json:"overall"`
	Config  AnalysisSnapshot `json:"config"`
	Note    string           `json:"note"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional LLM summary (separate, never affects verdicts)
}

// AllLinks returns every search link cited by the report's evidence checks
func (r *Report) AllLinks() []string {
	var links []string
	seen := make(map[string]bool)
	for _, check := range r.Claims {
		for _, link := range check.Links() {
			if !seen[link] {
				seen[link] = true
				links = append(links, link)
			}
		}
	}
	return links
}

// AnalysisSnapshot records the settings a report was produced with
type AnalysisSnapshot struct {
	MaxTextLength  int    `json:"max_text_len"`
	ClaimMinLength int    `json:"claim_min_len"`
	ClaimMaxLength int    `json:"claim_max_len"`
	MaxClaims      int    `json:"max_claims"`
	ChunkSize      int    `json:"ai_chunk_size"`
	SearchResults  int    `json:"search_results"`
	Classifier     string `json:"classifier"`
	SearchProvider string `json:"search_provider"`
}

// LLMSummary contains optional LLM-generated summary
// CRITICAL: This never affects verdicts and is clearly separated
type LLMSummary struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"`   // openai, anthropic, ollama
	Model          string   `json:"model,omitempty"`      // Model name
	StrictEvidence bool     `json:"strict_evidence"`      // Whether citation enforcement was enabled
	SummaryMD      string   `json:"summary_md,omitempty"` // Markdown summary
	Warnings       []string `json:"warnings,omitempty"`   // Any issues (e.g., citation leaks detected)
}
