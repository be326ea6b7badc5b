package retrieve

import "regexp"

// domainPatterns is the closed set of regex patterns that mark a query
// as domain-specific, per §4.6 step 1. Kept as compiled patterns on a
// stateless struct, the way the teacher's QueryParser is stateless and
// reusable across queries.
var domainPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brunbook\b`),
	regexp.MustCompile(`(?i)\bplaybook\b`),
	regexp.MustCompile(`(?i)\bmethodology\b`),
	regexp.MustCompile(`(?i)\bon[- ]?call\b`),
	regexp.MustCompile(`(?i)\bincident\b`),
	regexp.MustCompile(`(?i)\brollback\b`),
	regexp.MustCompile(`(?i)\bescalat\w*\b`),
	regexp.MustCompile(`(?i)\bn2s\b`),
}

// synonymExpansions maps a matched query term to additional OR-joined
// phrases folded into the BM25 query. Fixed list, not learned.
var synonymExpansions = map[string][]string{
	"runbook":     {"run book", "operational guide"},
	"playbook":    {"play book", "response plan"},
	"methodology": {"approach", "process guide"},
	"on-call":     {"oncall", "on call rotation"},
	"incident":    {"outage", "postmortem"},
	"rollback":    {"revert", "roll back"},
}

// Classifier detects domain-specific queries and expands them with a
// fixed synonym list into a BM25-friendly OR-expanded query.
type Classifier struct{}

// NewClassifier returns a Classifier. It carries no state so one
// instance may be shared across concurrent retrieval requests.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// IsDomainSpecific reports whether query matches any of the closed set
// of domain regex patterns.
func (c *Classifier) IsDomainSpecific(query string) bool {
	for _, p := range domainPatterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}

// Expand returns query unchanged if it is not domain-specific;
// otherwise it appends an OR-joined synonym expansion for every
// recognized term found in the query.
func (c *Classifier) Expand(query string) string {
	if !c.IsDomainSpecific(query) {
		return query
	}
	expanded := query
	for term, synonyms := range synonymExpansions {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		if re.MatchString(query) {
			for _, syn := range synonyms {
				expanded += " OR " + syn
			}
		}
	}
	return expanded
}
