// Package textclean turns raw email content into text the pipeline can match against.
package textclean

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	spacesRe    = regexp.MustCompile(`[ \t]+`)
	blankRunsRe = regexp.MustCompile(`\n{3,}`)
	legalRe     = regexp.MustCompile(`(?i)\s+(?:Inc\.?|LLC|Ltd\.?|Corporation|Corp\.)$`)
)

// LooksLikeHTML reports whether s appears to contain markup.
func LooksLikeHTML(s string) bool {
	return strings.Contains(s, "<") && strings.Contains(s, ">")
}

// StripHTML converts an HTML document to plain text. Links are kept inline
// so portal URLs survive the conversion. On a parse failure the tags are
// removed with a regexp.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	text, err := html2text.FromString(html)
	if err != nil {
		return tagRe.ReplaceAllString(html, "")
	}
	return text
}

// PlainText returns normalized plain text for either HTML or text input.
func PlainText(content string) string {
	if LooksLikeHTML(content) {
		content = StripHTML(content)
	}
	return NormalizeWhitespace(content)
}

// NormalizeWhitespace collapses runs of spaces and blank lines.
func NormalizeWhitespace(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spacesRe.ReplaceAllString(s, " ")
	s = blankRunsRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// EmailAddress returns the bare address from a From header value.
func EmailAddress(from string) string {
	from = strings.TrimSpace(from)
	if from == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	// Headers that fail RFC 5322 parsing, e.g. unquoted commas in the name.
	if lt := strings.LastIndex(from, "<"); lt >= 0 {
		if gt := strings.Index(from[lt:], ">"); gt > 0 {
			return strings.ToLower(strings.TrimSpace(from[lt+1 : lt+gt]))
		}
	}
	return strings.ToLower(from)
}

// EmailDomain returns the lower-cased domain of the sender, or "".
func EmailDomain(from string) string {
	addr := EmailAddress(from)
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.Trim(addr[at+1:], " >")
}

// DisplayName returns the name part of a "Name <addr>" header, or "" for a bare address.
func DisplayName(from string) string {
	from = strings.TrimSpace(from)
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.TrimSpace(addr.Name)
	}
	if lt := strings.Index(from, "<"); lt > 0 {
		return strings.Trim(strings.TrimSpace(from[:lt]), `"`)
	}
	return ""
}

// CleanCompanyName strips legal suffixes, collapses whitespace and title-cases.
// A bare "Corp" is kept so names like "Acme Corp" survive intact.
func CleanCompanyName(company string) string {
	company = strings.TrimSpace(company)
	if company == "" {
		return ""
	}
	company = legalRe.ReplaceAllString(company, "")
	company = strings.Join(strings.Fields(company), " ")
	return cases.Title(language.English).String(company)
}
