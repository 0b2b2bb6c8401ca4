package extract

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/daviddao/jobmail/internal/platforms"
	"github.com/daviddao/jobmail/internal/textclean"
	"github.com/daviddao/jobmail/internal/types"
)

var (
	hasDigitRe = regexp.MustCompile(`[0-9]`)
	remoteRe   = regexp.MustCompile(`(?i)\b(?:remote|work from home)\b`)
	septRe     = regexp.MustCompile(`(?i)\bsept\b`)
)

const maxLocationLen = 50

// reqIDFrom returns the first requisition token containing a digit.
func (x *Extractor) reqIDFrom(subject, body string) string {
	text := subject + " " + window(body, reqIDBodyWindow)
	for _, re := range x.reqID {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			tok := strings.Trim(m[1], "-")
			if hasDigitRe.MatchString(tok) {
				return tok
			}
		}
	}
	return ""
}

func platformFrom(from, body string) string {
	if p, ok := platforms.Lookup(textclean.EmailDomain(from)); ok {
		return p.Name
	}
	lower := strings.ToLower(body)
	for _, name := range PlatformMentions {
		if strings.Contains(lower, name) {
			return cases.Title(language.English).String(name)
		}
	}
	return ""
}

// portalLink prefers the first URL that looks like an application portal and
// otherwise returns the first URL at all.
func (x *Extractor) portalLink(body string) string {
	urls := x.url.FindAllString(body, -1)
	if len(urls) == 0 {
		return ""
	}
	for _, u := range urls {
		lower := strings.ToLower(u)
		for _, kw := range PortalKeywords {
			if strings.Contains(lower, kw) {
				return CleanURL(u)
			}
		}
	}
	return CleanURL(urls[0])
}

// CleanURL trims trailing punctuation and removes tracking query parameters.
func CleanURL(raw string) string {
	raw = strings.TrimRight(raw, ".,;:!?)")
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	removed := false
	for key := range q {
		if isTrackingParam(key) {
			q.Del(key)
			removed = true
		}
	}
	if !removed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// parseDate reads a matched phrase in UTC. Numeric dates are month-first
// unless the month would be out of range, as with 31/12/2024.
func parseDate(s string) (time.Time, error) {
	s = septRe.ReplaceAllString(s, "Sep")
	t, err := dateparse.ParseIn(s, time.UTC)
	if err == nil {
		return t, nil
	}
	if alt, altErr := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(false)); altErr == nil {
		return alt, nil
	}
	return time.Time{}, err
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	for _, p := range TrackingParams {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(key, prefix) {
				return true
			}
			continue
		}
		if key == p {
			return true
		}
	}
	return false
}

// keyDates parses every date-like phrase into ISO form, keeping first-seen
// order without duplicates.
func (x *Extractor) keyDates(body, snippet string) []string {
	text := snippet + " " + window(body, datesBodyWindow)
	var out []string
	seen := make(map[string]bool)
	for _, re := range x.dates {
		for _, m := range re.FindAllString(text, -1) {
			t, err := parseDate(m)
			if err != nil {
				continue
			}
			iso := t.UTC().Format(types.ISOLayout)
			if seen[iso] {
				continue
			}
			seen[iso] = true
			out = append(out, iso)
			if len(out) == MaxKeyDates {
				return out
			}
		}
	}
	return out
}

func (x *Extractor) locationFrom(subject, body string) string {
	text := subject + " " + window(body, locationBodyWindow)
	for _, re := range x.location {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			loc := strings.TrimRight(strings.TrimSpace(m[1]), ", ")
			if loc != "" && runeLen(loc) < maxLocationLen && knownRegion(loc) {
				return loc
			}
		}
	}
	if remoteRe.MatchString(text) {
		return "Remote"
	}
	return ""
}

// knownRegion rejects "Word, XX" matches whose two-letter tail is not a
// state or province code, such as a "Thanks, HR" sign-off.
func knownRegion(loc string) bool {
	i := strings.LastIndex(loc, ", ")
	if i < 0 {
		return true
	}
	code := strings.TrimSpace(loc[i+2:])
	if len(code) != 2 || strings.ToUpper(code) != code {
		return true
	}
	for _, c := range RegionCodes {
		if c == code {
			return true
		}
	}
	return false
}
