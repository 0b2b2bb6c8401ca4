// Package platforms holds the table of applicant-tracking systems that send job mail.
package platforms

import "strings"

// Platform maps a sender domain to a display name.
type Platform struct {
	Domain string
	Name   string
}

// Known is the ordered platform table. Lookups scan it in order so results are stable.
var Known = []Platform{
	{"greenhouse.io", "Greenhouse"},
	{"lever.co", "Lever"},
	{"workday.com", "Workday"},
	{"myworkdayjobs.com", "Workday"},
	{"icims.com", "iCIMS"},
	{"smartrecruiters.com", "SmartRecruiters"},
	{"taleo.net", "Taleo"},
	{"successfactors.com", "SuccessFactors"},
	{"jobvite.com", "Jobvite"},
	{"breezy.hr", "Breezy HR"},
	{"ashbyhq.com", "Ashby"},
	{"jazz.co", "JazzHR"},
}

// JobDomainTokens are looser hints that a sender domain belongs to recruiting software.
var JobDomainTokens = []string{
	"greenhouse", "lever", "workday", "icims", "smartrecruiters",
	"taleo", "successfactors", "jobvite", "ashby", "jazz",
	"breezy", "applytojob", "myworkday", "recruiting",
}

// Lookup returns the first platform whose domain equals the sender domain
// or is a parent of it, so "hire.lever.co" is Lever but "clever.com" is not.
func Lookup(domain string) (Platform, bool) {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	if domain == "" {
		return Platform{}, false
	}
	for _, p := range Known {
		if domain == p.Domain || strings.HasSuffix(domain, "."+p.Domain) {
			return p, true
		}
	}
	return Platform{}, false
}

// HasJobToken reports whether a word of domain starts with one of
// JobDomainTokens. Words are split on dots and hyphens, so
// "acme-recruiting.com" matches and "clever.com" does not.
func HasJobToken(domain string) bool {
	words := strings.FieldsFunc(strings.ToLower(domain), func(r rune) bool {
		return r == '.' || r == '-'
	})
	for _, w := range words {
		for _, tok := range JobDomainTokens {
			if strings.HasPrefix(w, tok) {
				return true
			}
		}
	}
	return false
}
