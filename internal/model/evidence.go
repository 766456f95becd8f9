package model

// Verdict is the per-claim outcome of the evidence check
type Verdict string

const (
	VerdictNoEvidence   Verdict = "No evidence found"
	VerdictLikelyFalse  Verdict = "Likely False/Misleading"
	VerdictLikelyTrue   Verdict = "Likely True"
	VerdictLeansFalse   Verdict = "Leans False"
	VerdictLeansTrue    Verdict = "Leans True"
	VerdictInconclusive Verdict = "Inconclusive"
	VerdictCheckError   Verdict = "Check error" // Search failed after retries
)

// IsFalseFlag reports whether the verdict counts against the article
// in the overall aggregation.
func (v Verdict) IsFalseFlag() bool {
	return v == VerdictLikelyFalse || v == VerdictLeansFalse
}

// EvidenceCheck is the result of cross-checking one claim against web search
type EvidenceCheck struct {
	Claim          string   `json:"claim"` // Display form, at most 200 chars + "..."
	SupportCount   int      `json:"support_count"`
	SupportLinks   []string `json:"support_links"`
	ChallengeCount int      `json:"challenge_count"`
	ChallengeLinks []string `json:"challenge_links"`
	Verdict        Verdict  `json:"verdict"`
	Error          string   `json:"error,omitempty"` // Set only for VerdictCheckError
}

// Links returns support links followed by challenge links
func (c EvidenceCheck) Links() []string {
	links := make([]string, 0, len(c.SupportLinks)+len(c.ChallengeLinks))
	links = append(links, c.SupportLinks...)
	return append(links, c.ChallengeLinks...)
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Official bodies, wire services, fact-checkers, academic sources
	TierSecondary AuthorityTier = 2 // Encyclopedias, established newsrooms
	TierTertiary  AuthorityTier = 3 // Blogs, forums, social media, everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}
