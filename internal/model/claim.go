package model

import "time"

// Document is the normalized article text the pipeline works on.
// Text is already bounded by the configured maximum length.
type Document struct {
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Snippet returns the first n characters of the document text
func (d Document) Snippet(n int) string {
	runes := []rune(d.Text)
	if len(runes) <= n {
		return d.Text
	}
	return string(runes[:n])
}

// Claim represents a candidate factual sentence extracted from the document
type Claim struct {
	Text      string `json:"text"`                // The sentence itself, trimmed
	Heuristic string `json:"heuristic,omitempty"` // Which rule accepted it (e.g., "keyword:said", "caps_ratio")
	Sentence  int    `json:"sentence"`            // Sentence index in source (0-based)
}

// Claim acceptance heuristics
const (
	HeuristicKeyword   = "keyword"
	HeuristicCapsRatio = "caps_ratio"
)
