package extract

import (
	"regexp"
	"strings"

	"github.com/daviddao/jobmail/internal/types"
)

var (
	roleNoiseRe     = regexp.MustCompile(`(?i)\s+(?:application|update|at|position|job|role|confirmation)$`)
	roleArticleRe   = regexp.MustCompile(`(?i)^(?:the|a|an)\s+`)
	roleGenericRe   = regexp.MustCompile(`(?i)^(?:applying|application|confirmation|update|career\s+match)$`)
	roleOneWordRe   = regexp.MustCompile(`^[A-Z][a-z]+\s*$`)
	roleBodyNoiseRe = regexp.MustCompile(`(?i)\s+(?:position|role|job)$`)
)

func (x *Extractor) role(subject, body, snippet string) string {
	if r, ok := x.roleFromSubject(subject); ok {
		return r
	}
	if r, ok := x.roleFromBody(body); ok {
		return r
	}
	if snippet != "" {
		for _, re := range x.roleSubject {
			r, ok := firstGroup(re, snippet)
			if !ok {
				continue
			}
			if n := runeLen(r); n > 3 && n < 150 {
				return r
			}
		}
	}
	return types.UnknownRole
}

func (x *Extractor) roleFromSubject(subject string) (string, bool) {
	for _, re := range x.roleSubject {
		r, ok := firstGroup(re, subject)
		if !ok {
			continue
		}
		r = roleNoiseRe.ReplaceAllString(r, "")
		r = strings.TrimSpace(roleArticleRe.ReplaceAllString(r, ""))
		if roleGenericRe.MatchString(r) {
			continue
		}
		if n := runeLen(r); n <= 3 || n >= 150 {
			continue
		}
		// A lone capitalized word is more likely a company than a title.
		if roleOneWordRe.MatchString(r) || !strings.Contains(r, " ") {
			continue
		}
		return r, true
	}
	return "", false
}

func (x *Extractor) roleFromBody(body string) (string, bool) {
	head := window(body, roleBodyWindow)
	for _, re := range x.roleBody {
		r, ok := firstGroup(re, head)
		if !ok {
			continue
		}
		r = strings.TrimSpace(roleBodyNoiseRe.ReplaceAllString(r, ""))
		if n := runeLen(r); n > 3 && n < 150 {
			return r, true
		}
	}
	return "", false
}
