package score

import (
	"github.com/ppiankov/realcheck/internal/model"
)

// Aggregate combines the authorship assessment and per-claim verdicts into the
// overall classification. It also returns the number of false flags (Likely
// False or Leans False verdicts). Check errors and missing evidence never count.
func Aggregate(assessment model.AuthorshipAssessment, checks []model.EvidenceCheck) (model.OverallVerdict, int) {
	falseFlags := CountFalseFlags(checks)

	switch {
	case assessment.IsAI() && falseFlags >= 1:
		return model.OverallAIMisinfoLikely, falseFlags
	case falseFlags >= 2:
		return model.OverallPotentialMisinfo, falseFlags
	case assessment.IsAI():
		return model.OverallLikelyAIClaimsOK, falseFlags
	default:
		return model.OverallAppearsLegit, falseFlags
	}
}

// CountFalseFlags counts checks whose verdict leans or points false
func CountFalseFlags(checks []model.EvidenceCheck) int {
	n := 0
	for _, c := range checks {
		if c.Verdict.IsFalseFlag() {
			n++
		}
	}
	return n
}

// Tally returns how many checks ended in each verdict
func Tally(checks []model.EvidenceCheck) map[model.Verdict]int {
	counts := make(map[model.Verdict]int)
	for _, c := range checks {
		counts[c.Verdict]++
	}
	return counts
}
