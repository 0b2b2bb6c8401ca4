// Package relevance decides whether an email is about a job application at all.
package relevance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/daviddao/jobmail/internal/platforms"
	"github.com/daviddao/jobmail/internal/textclean"
	"github.com/daviddao/jobmail/internal/types"
)

// Keywords are matched as plain substrings of the lower-cased text window.
var Keywords = []string{
	"application",
	"thank you for applying",
	"unfortunately",
	"interview",
	"assessment",
	"coding challenge",
	"technical challenge",
	"offer",
	"congratulations",
	"position",
	"role",
	"candidate",
	"requisition",
	"applied to",
	"application received",
	"not moving forward",
	"next steps",
	"schedule",
	"rejected",
	"declined",
}

// Indicators are secondary phrasings that each count as one more keyword hit.
var Indicators = []string{
	`application\s+(to|for|at)`,
	`thank\s+you\s+for\s+(applying|your\s+application)`,
	`interview\s+(invitation|scheduled|request)`,
	`coding\s+(challenge|assessment|test)`,
	`technical\s+(interview|assessment|challenge)`,
	`position\s+at`,
	`role\s+at`,
}

const (
	platformDomainScore = 1.0
	jobTokenDomainScore = 0.8
	minKeywordHits      = 2
	bodyWindow          = 500
)

// Filter is a configured relevance check. It holds no mutable state.
type Filter struct {
	keywords   []string
	indicators []*regexp.Regexp
}

// New compiles the given tables. Nil slices fall back to Keywords and Indicators.
func New(keywords, indicators []string) (*Filter, error) {
	if keywords == nil {
		keywords = Keywords
	}
	if indicators == nil {
		indicators = Indicators
	}
	f := &Filter{}
	for _, k := range keywords {
		f.keywords = append(f.keywords, strings.ToLower(k))
	}
	for _, p := range indicators {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile indicator %q: %w", p, err)
		}
		f.indicators = append(f.indicators, re)
	}
	return f, nil
}

// Default returns a filter built from the package tables.
func Default() *Filter {
	f, err := New(nil, nil)
	if err != nil {
		panic(err)
	}
	return f
}

// Check scores an email. It never fails; empty fields simply contribute nothing.
func (f *Filter) Check(e types.EmailRecord) types.RelevanceResult {
	subject := strings.ToLower(e.Subject)
	snippet := strings.ToLower(e.Snippet)
	body := strings.ToLower(textclean.Truncate(e.Body, bodyWindow))
	text := subject + " " + snippet + " " + body

	domain := textclean.EmailDomain(e.From)
	domainScore := DomainScore(domain)
	keywordScore := f.keywordScore(text)

	var reasons []string
	if domainScore > 0 {
		reasons = append(reasons, fmt.Sprintf("known job platform domain (%s)", domain))
	}
	if keywordScore > 0 {
		reasons = append(reasons, fmt.Sprintf("%d job keywords found", keywordScore))
	}
	reason := "no job indicators found"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}

	return types.RelevanceResult{
		IsJobRelated: domainScore > 0 || keywordScore >= minKeywordHits,
		Reason:       reason,
		Confidence:   min(1.0, domainScore*0.6+float64(keywordScore)*0.1),
		DomainScore:  domainScore,
		KeywordScore: keywordScore,
	}
}

// DomainScore rates a sender domain: 1.0 for a known platform, 0.8 for a
// recruiting-looking domain, 0 otherwise.
func DomainScore(domain string) float64 {
	if _, ok := platforms.Lookup(domain); ok {
		return platformDomainScore
	}
	if platforms.HasJobToken(domain) {
		return jobTokenDomainScore
	}
	return 0
}

func (f *Filter) keywordScore(text string) int {
	n := 0
	for _, k := range f.keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	for _, re := range f.indicators {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}
