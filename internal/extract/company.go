package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/daviddao/jobmail/internal/platforms"
	"github.com/daviddao/jobmail/internal/textclean"
	"github.com/daviddao/jobmail/internal/types"
)

var (
	yourApplicationForRe = regexp.MustCompile(`(?i)^Your\s+Application\s+for`)
	companyNoiseRe       = regexp.MustCompile(`(?i)\s+(?:Application|Team|Careers|Jobs|Recruiting)$`)
	companyFalseStartRe  = regexp.MustCompile(`(?i)^(?:Your|Application|Thank|Position|Role)\s+`)
	colonRejectRe        = regexp.MustCompile(`(?i)^(?:Your|Application)`)

	senderViaRe       = regexp.MustCompile(`(?i)\s+via\s+.+$`)
	senderJobsRe      = regexp.MustCompile(`(?i)\s+Jobs$`)
	senderAtRe        = regexp.MustCompile(`\s+@\s+.*$`)
	senderFromRe      = regexp.MustCompile(`(?i)^.*?\s+from\s+`)
	senderCorporateRe = regexp.MustCompile(`(?i)\s+Corporate$`)
	senderSystemRe    = regexp.MustCompile(`(?i)(?:noreply|no-reply|donotreply|autoreply|system|notification|admin)`)
	personNameRe      = regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z][a-z]+$`)
)

// company tries the subject, then the body, then the sender name, then the
// sender domain.
func (x *Extractor) company(subject, from, body string) string {
	if !yourApplicationForRe.MatchString(subject) {
		if c, ok := x.companyFromSubject(subject); ok {
			return c
		}
	}
	if c, ok := x.companyFromBody(body); ok {
		return c
	}
	if c, ok := companyFromSender(from); ok {
		return c
	}
	return companyFromDomain(textclean.EmailDomain(from))
}

func (x *Extractor) companyFromSubject(subject string) (string, bool) {
	for _, re := range x.companySubject {
		m := re.FindStringSubmatch(subject)
		if m == nil {
			continue
		}
		// The colon form carries the trailing text as a second group.
		if len(m) > 2 && colonRejectRe.MatchString(m[2]) {
			continue
		}
		c := strings.TrimSpace(m[1])
		c = companyNoiseRe.ReplaceAllString(c, "")
		if companyFalseStartRe.MatchString(c) {
			continue
		}
		if n := runeLen(c); n > 2 && n < 100 {
			return textclean.CleanCompanyName(c), true
		}
	}
	return "", false
}

func (x *Extractor) companyFromBody(body string) (string, bool) {
	head := window(body, companyBodyWindow)
	for _, re := range x.companyBody {
		c, ok := firstGroup(re, head)
		if !ok {
			continue
		}
		if n := runeLen(c); n > 2 && n < 100 {
			return textclean.CleanCompanyName(c), true
		}
	}
	return "", false
}

// companyFromSender uses the display name of a "Name <addr>" header. Bare
// addresses have no name and fall through to the domain.
func companyFromSender(from string) (string, bool) {
	name := textclean.DisplayName(from)
	if name == "" {
		return "", false
	}
	name = senderViaRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(strings.ReplaceAll(name, `"`, ""))
	name = senderJobsRe.ReplaceAllString(name, "")
	name = senderAtRe.ReplaceAllString(name, "")
	name = senderFromRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(senderCorporateRe.ReplaceAllString(name, ""))

	switch {
	case senderSystemRe.MatchString(name):
		return "", false
	case personNameRe.MatchString(name):
		return "", false
	case isPlatformName(name):
		return "", false
	}
	if n := runeLen(name); n > 2 && n < 50 {
		return textclean.CleanCompanyName(name), true
	}
	return "", false
}

func isPlatformName(name string) bool {
	for _, p := range platforms.Known {
		if strings.EqualFold(name, p.Name) {
			return true
		}
	}
	return false
}

// companyFromDomain derives a name from the registrable part of the sender
// domain, e.g. careers.acme-robotics.co.uk gives "Acme Robotics".
func companyFromDomain(domain string) string {
	if domain == "" {
		return types.UnknownCompany
	}
	if _, ok := platforms.Lookup(domain); ok {
		return types.UnknownCompany
	}
	label := registrableLabel(domain)
	if label == "" {
		return types.UnknownCompany
	}
	for _, g := range GenericDomainLabels {
		if label == g {
			return types.UnknownCompany
		}
	}
	label = strings.NewReplacer("-", " ", "_", " ").Replace(label)
	return textclean.CleanCompanyName(label)
}

func registrableLabel(domain string) string {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		etld1 = domain
	}
	label, _, _ := strings.Cut(etld1, ".")
	return strings.ToLower(label)
}
