// Package extract pulls structured fields (company, role, requisition id,
// platform, portal link, dates, location) out of a job email.
//
// Every field is an ordered cascade of heuristics. The first valid candidate
// wins and a field that cannot be found degrades to a sentinel or stays empty.
// Extraction never fails and is deterministic for a given input.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/daviddao/jobmail/internal/textclean"
	"github.com/daviddao/jobmail/internal/types"
)

const (
	companyBodyWindow  = 500
	roleBodyWindow     = 800
	reqIDBodyWindow    = 1000
	datesBodyWindow    = 1000
	locationBodyWindow = 500

	// MaxKeyDates caps the number of dates reported per email.
	MaxKeyDates = 5
)

// Extractor holds the compiled pattern tables.
type Extractor struct {
	companySubject []*regexp.Regexp
	companyBody    []*regexp.Regexp
	roleSubject    []*regexp.Regexp
	roleBody       []*regexp.Regexp
	reqID          []*regexp.Regexp
	dates          []*regexp.Regexp
	location       []*regexp.Regexp
	url            *regexp.Regexp
}

// New compiles the package pattern tables.
func New() (*Extractor, error) {
	x := &Extractor{}
	var err error
	for _, t := range []struct {
		dst      *[]*regexp.Regexp
		patterns []string
		prefix   string
	}{
		{&x.companySubject, CompanySubjectPatterns, "(?i)"},
		{&x.companyBody, CompanyBodyPatterns, "(?i)"},
		{&x.roleSubject, RoleSubjectPatterns, "(?i)"},
		{&x.roleBody, RoleBodyPatterns, "(?i)"},
		{&x.reqID, ReqIDPatterns, "(?i)"},
		{&x.dates, DatePatterns, "(?i)"},
		{&x.location, LocationPatterns, ""},
	} {
		if *t.dst, err = compileAll(t.patterns, t.prefix); err != nil {
			return nil, err
		}
	}
	if x.url, err = regexp.Compile(URLPattern); err != nil {
		return nil, fmt.Errorf("compile url pattern: %w", err)
	}
	return x, nil
}

// Default returns an Extractor over the package tables.
func Default() *Extractor {
	x, err := New()
	if err != nil {
		panic(err)
	}
	return x
}

// Extract runs every field cascade over the email.
func (x *Extractor) Extract(e types.EmailRecord) types.ExtractionResult {
	dates := x.keyDates(e.Body, e.Snippet)
	if dates == nil {
		dates = []string{}
	}
	return types.ExtractionResult{
		Company:    x.company(e.Subject, e.From, e.Body),
		RoleTitle:  x.role(e.Subject, e.Body, e.Snippet),
		ReqID:      x.reqIDFrom(e.Subject, e.Body),
		Platform:   platformFrom(e.From, e.Body),
		PortalLink: x.portalLink(e.Body),
		KeyDates:   dates,
		Location:   x.locationFrom(e.Subject, e.Body),
	}
}

func compileAll(patterns []string, prefix string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(prefix + p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// firstGroup returns the trimmed first capture group of re in s.
func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil || len(m) < 2 {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func window(s string, n int) string {
	return textclean.Truncate(s, n)
}

func runeLen(s string) int {
	return len([]rune(s))
}
