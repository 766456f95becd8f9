package factcheck

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/metrics"
	"github.com/ppiankov/realcheck/internal/model"
	"github.com/ppiankov/realcheck/internal/search"
)

const (
	displayLimit = 200
	linksKept    = 3
)

// SupportQuery and ChallengeQuery build the two searches run per claim
func SupportQuery(claim string) string {
	return `"` + claim + `" confirmed OR true OR evidence`
}

func ChallengeQuery(claim string) string {
	return `"` + claim + `" false OR hoax OR debunked OR misinformation`
}

// Checker cross-checks claims against web search results
type Checker struct {
	searcher search.Searcher
	limit    int
}

// NewChecker creates a checker requesting limit results per query
func NewChecker(s search.Searcher, limit int) *Checker {
	if limit <= 0 {
		limit = 3
	}
	return &Checker{searcher: s, limit: limit}
}

// Check runs the support and challenge searches for one claim. A search
// failure yields a CheckError verdict with zero counts.
func (c *Checker) Check(ctx context.Context, claim string) model.EvidenceCheck {
	check, _ := c.check(ctx, claim)
	return check
}

func (c *Checker) check(ctx context.Context, claim string) (model.EvidenceCheck, error) {
	display := DisplayClaim(claim)

	support, err := c.searcher.Search(ctx, SupportQuery(claim), c.limit)
	if err == nil {
		var challenge []search.Result
		challenge, err = c.searcher.Search(ctx, ChallengeQuery(claim), c.limit)
		if err == nil {
			verdict := Decide(len(support), len(challenge))
			metrics.ClaimVerdicts.WithLabelValues(string(verdict)).Inc()
			return model.EvidenceCheck{
				Claim:          display,
				SupportCount:   len(support),
				SupportLinks:   firstLinks(support, linksKept),
				ChallengeCount: len(challenge),
				ChallengeLinks: firstLinks(challenge, linksKept),
				Verdict:        verdict,
			}, nil
		}
	}

	metrics.ClaimVerdicts.WithLabelValues(string(model.VerdictCheckError)).Inc()
	return model.EvidenceCheck{
		Claim:          display,
		SupportLinks:   []string{},
		ChallengeLinks: []string{},
		Verdict:        model.VerdictCheckError,
		Error:          err.Error(),
	}, err
}

// CheckAll checks claims with at most workers in flight. Results keep claim
// order. Once ctx ends no new check starts; checks not started or aborted by
// ctx are left out and counted in skipped.
func (c *Checker) CheckAll(ctx context.Context, claims []model.Claim, workers int) (checks []model.EvidenceCheck, skipped int) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]*model.EvidenceCheck, len(claims))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

dispatch:
	for i, claim := range claims {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, text string) {
			defer wg.Done()
			defer func() { <-sem }()

			check, err := c.check(ctx, text)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("Claim check failed",
					zap.Int("claim", idx),
					zap.Error(err))
			}
			results[idx] = &check
		}(i, claim.Text)
	}

	wg.Wait()

	checks = make([]model.EvidenceCheck, 0, len(claims))
	for _, r := range results {
		if r != nil {
			checks = append(checks, *r)
		}
	}
	return checks, len(claims) - len(checks)
}

// Decide maps support and challenge counts to a verdict; the first matching rule wins
func Decide(support, challenge int) model.Verdict {
	switch {
	case support == 0 && challenge == 0:
		return model.VerdictNoEvidence
	case challenge >= 2:
		return model.VerdictLikelyFalse
	case support >= 2:
		return model.VerdictLikelyTrue
	case challenge > support:
		return model.VerdictLeansFalse
	case support > challenge:
		return model.VerdictLeansTrue
	default:
		return model.VerdictInconclusive
	}
}

// DisplayClaim truncates claims longer than 200 characters and appends "..."
func DisplayClaim(claim string) string {
	runes := []rune(claim)
	if len(runes) <= displayLimit {
		return claim
	}
	return string(runes[:displayLimit]) + "..."
}

func firstLinks(results []search.Result, n int) []string {
	links := make([]string, 0, n)
	for i, r := range results {
		if i >= n {
			break
		}
		links = append(links, r.URL)
	}
	return links
}
