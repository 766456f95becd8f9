package authority

import (
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/model"
)

// institutionalSuffixes mark hosts treated as primary sources without configuration
var institutionalSuffixes = []string{".gov", ".edu", ".int", ".mil", ".ac.uk", ".gov.uk"}

// Classifier sorts evidence links into authority tiers. It only annotates
// reports and never feeds into verdicts.
type Classifier struct {
	domainMap map[string]model.AuthorityTier
	primary   []string
	secondary []string
	patterns  []pathRule
}

type pathRule struct {
	re   *regexp.Regexp
	tier model.AuthorityTier
}

// Link is a URL annotated with its tier
type Link struct {
	URL  string              `json:"url"`
	Tier model.AuthorityTier `json:"tier"`
}

// NewClassifier builds a classifier from cfg, or from the defaults when cfg is nil
func NewClassifier(cfg *model.AuthorityConfig) *Classifier {
	if cfg == nil {
		cfg = &model.DefaultConfig().Authority
	}

	c := &Classifier{
		domainMap: make(map[string]model.AuthorityTier, len(cfg.DomainMap)),
		primary:   normalizeDomains(cfg.PrimaryDomains),
		secondary: normalizeDomains(cfg.SecondaryDomains),
	}
	for host, tier := range cfg.DomainMap {
		c.domainMap[normalizeHost(host)] = ParseTier(tier)
	}
	for _, p := range cfg.PathPatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			logger.Warn("Ignoring invalid authority path pattern",
				zap.String("pattern", p.Pattern),
				zap.Error(err))
			continue
		}
		c.patterns = append(c.patterns, pathRule{re: re, tier: ParseTier(p.Tier)})
	}
	return c
}

// Classify returns the tier for rawURL. Unparseable URLs are tertiary.
func (c *Classifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return model.TierTertiary
	}
	host := normalizeHost(parsed.Hostname())

	if tier, ok := c.domainMap[host]; ok {
		return tier
	}
	if matchesDomain(host, c.primary) {
		return model.TierPrimary
	}
	if matchesDomain(host, c.secondary) {
		return model.TierSecondary
	}
	for _, rule := range c.patterns {
		if rule.re.MatchString(parsed.Path) {
			return rule.tier
		}
	}
	for _, suffix := range institutionalSuffixes {
		if strings.HasSuffix(host, suffix) {
			return model.TierPrimary
		}
	}
	return model.TierTertiary
}

// Annotate classifies every link, keeping order
func (c *Classifier) Annotate(links []string) []Link {
	out := make([]Link, len(links))
	for i, l := range links {
		out[i] = Link{URL: l, Tier: c.Classify(l)}
	}
	return out
}

// Distribution counts links per tier
func (c *Classifier) Distribution(links []string) map[model.AuthorityTier]int {
	dist := make(map[model.AuthorityTier]int)
	for _, l := range links {
		dist[c.Classify(l)]++
	}
	return dist
}

// ParseTier converts "primary"/"1", "secondary"/"2" and anything else to a tier
func ParseTier(tier string) model.AuthorityTier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}

func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = normalizeHost(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}
