package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/realcheck/internal/model"
)

// ClaimExtractor selects candidate factual sentences from article text.
// It is deterministic and holds no mutable state.
type ClaimExtractor struct {
	minLen    int
	maxLen    int
	maxClaims int
	keywords  []string
	excluded  []string
	capsLimit float64
}

// NewClaimExtractor creates a claim extractor using the analysis bounds
func NewClaimExtractor(cfg model.AnalysisConfig) *ClaimExtractor {
	return &ClaimExtractor{
		minLen:    cfg.ClaimMinLength,
		maxLen:    cfg.ClaimMaxLength,
		maxClaims: cfg.MaxClaims,
		keywords: []string{
			"said", "claimed", "according to", "reported", "confirmed", "strike", "event",
		},
		excluded:  []string{"read more", "ap photo", "photo"},
		capsLimit: 0.7,
	}
}

// Extract returns at most maxClaims claims in document order.
//
// Keyword sentences are always accepted. Other sentences are accepted only
// while fewer than maxClaims claims have been collected so far and when
// less than 70% of their words start with an upper-case letter. Because a
// keyword sentence is never gated, early non-keyword sentences can fill the
// cap and push later keyword sentences past the final truncation.
func (e *ClaimExtractor) Extract(text string) []model.Claim {
	var claims []model.Claim

	for i, sentence := range SplitSentences(text) {
		n := utf8.RuneCountInString(sentence)
		if n < e.minLen || n > e.maxLen {
			continue
		}
		if strings.HasSuffix(sentence, "?") {
			continue
		}

		lower := strings.ToLower(sentence)
		if containsAny(lower, e.excluded) != "" {
			continue
		}

		if kw := containsAny(lower, e.keywords); kw != "" {
			claims = append(claims, model.Claim{
				Text:      sentence,
				Heuristic: model.HeuristicKeyword + ":" + kw,
				Sentence:  i,
			})
		} else if len(claims) < e.maxClaims && capsRatio(sentence) < e.capsLimit {
			claims = append(claims, model.Claim{
				Text:      sentence,
				Heuristic: model.HeuristicCapsRatio,
				Sentence:  i,
			})
		}
	}

	if len(claims) > e.maxClaims {
		claims = claims[:e.maxClaims]
	}
	return claims
}

// SplitSentences splits text at a single whitespace character that follows
// "." or "?". The split is suppressed after patterns like "e.g." (word, dot,
// word, any) and after title abbreviations like "Mr." (upper, lower, dot).
// Pieces are trimmed; empty pieces are kept so sentence indexes stay stable.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var pieces []string
	start := 0

	for i, r := range runes {
		if !unicode.IsSpace(r) || i == 0 {
			continue
		}
		prev := runes[i-1]
		if prev != '.' && prev != '?' {
			continue
		}
		if i >= 4 && isWordRune(runes[i-4]) && runes[i-3] == '.' && isWordRune(runes[i-2]) {
			continue
		}
		if i >= 3 && isASCIIUpper(runes[i-3]) && isASCIILower(runes[i-2]) && prev == '.' {
			continue
		}

		pieces = append(pieces, strings.TrimSpace(string(runes[start:i])))
		start = i + 1
	}

	return append(pieces, strings.TrimSpace(string(runes[start:])))
}

// capsRatio is the share of whitespace-separated words whose first letter is upper case
func capsRatio(sentence string) float64 {
	words := strings.Fields(sentence)
	if len(words) == 0 {
		return 0
	}
	caps := 0
	for _, w := range words {
		first, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(first) {
			caps++
		}
	}
	return float64(caps) / float64(len(words))
}

// containsAny returns the first phrase found in s, or ""
func containsAny(s string, phrases []string) string {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return p
		}
	}
	return ""
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }
