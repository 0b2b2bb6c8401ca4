// Package classify assigns an event type to a job-related email using weighted
// pattern groups.
package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/daviddao/jobmail/internal/textclean"
	"github.com/daviddao/jobmail/internal/types"
)

// Defaults for Options.
const (
	DefaultOfferWeight           = 1.2
	DefaultConfirmationWeight    = 0.8
	DefaultConfidenceDenominator = 3.0
	DefaultUpdateConfidence      = 0.3
)

const bodyWindow = 1000

// Options tunes scoring. Non-positive numbers are replaced by the defaults.
type Options struct {
	OfferWeight           float64
	ConfirmationWeight    float64
	ConfidenceDenominator float64
	UpdateConfidence      float64
	// RejectionDominates ranks a rejection above an interview that outscored it.
	// Other categories keep their score order.
	RejectionDominates bool
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		OfferWeight:           DefaultOfferWeight,
		ConfirmationWeight:    DefaultConfirmationWeight,
		ConfidenceDenominator: DefaultConfidenceDenominator,
		UpdateConfidence:      DefaultUpdateConfidence,
		RejectionDominates:    true,
	}
}

type group struct {
	rule     Rule
	patterns []*regexp.Regexp
}

// Classifier is a compiled rule table.
type Classifier struct {
	groups []group
	opts   Options
}

// New compiles rules (nil means Rules) with the given options.
func New(rules []Rule, opts Options) (*Classifier, error) {
	if rules == nil {
		rules = Rules
	}
	def := DefaultOptions()
	if opts.OfferWeight <= 0 {
		opts.OfferWeight = def.OfferWeight
	}
	if opts.ConfirmationWeight <= 0 {
		opts.ConfirmationWeight = def.ConfirmationWeight
	}
	if opts.ConfidenceDenominator <= 0 {
		opts.ConfidenceDenominator = def.ConfidenceDenominator
	}
	if opts.UpdateConfidence <= 0 {
		opts.UpdateConfidence = def.UpdateConfidence
	}

	c := &Classifier{opts: opts}
	for _, r := range rules {
		switch r.Category {
		case types.EventOffer:
			r.Weight = opts.OfferWeight
		case types.EventConfirmation:
			r.Weight = opts.ConfirmationWeight
		}
		if r.Weight <= 0 {
			r.Weight = 1.0
		}
		g := group{rule: r}
		for _, p := range r.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("compile %s pattern %q: %w", r.Category, p, err)
			}
			g.patterns = append(g.patterns, re)
		}
		c.groups = append(c.groups, g)
	}
	return c, nil
}

// Default returns a classifier over Rules with DefaultOptions.
func Default() *Classifier {
	c, err := New(nil, DefaultOptions())
	if err != nil {
		panic(err)
	}
	return c
}

type candidate struct {
	rule  Rule
	score float64
}

// Classify scores every rule group against the email and picks a winner.
func (c *Classifier) Classify(e types.EmailRecord) types.ClassificationResult {
	text := strings.ToLower(e.Subject) + " " +
		strings.ToLower(e.Snippet) + " " +
		strings.ToLower(textclean.Truncate(e.Body, bodyWindow))

	var cands []candidate
	for _, g := range c.groups {
		if s := g.score(text); s > 0 {
			cands = append(cands, candidate{rule: g.rule, score: s})
		}
	}

	if len(cands) == 0 {
		return types.ClassificationResult{
			EventType:    types.EventUpdate,
			StatusUpdate: types.StatusInReview,
			Confidence:   c.opts.UpdateConfidence,
			Indicators:   []types.EventType{},
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})
	if c.opts.RejectionDominates {
		promoteRejection(cands)
	}

	indicators := make([]types.EventType, 0, len(cands))
	for _, cd := range cands {
		indicators = append(indicators, cd.rule.Category)
	}
	best := cands[0]
	return types.ClassificationResult{
		EventType:    best.rule.Category,
		StatusUpdate: best.rule.Status,
		Confidence:   min(1.0, best.score/c.opts.ConfidenceDenominator),
		Indicators:   indicators,
	}
}

// promoteRejection moves an interview candidate that outranks the rejection
// candidate to just behind it. The remaining order is untouched.
func promoteRejection(cands []candidate) {
	iv, rj := -1, -1
	for i, cd := range cands {
		switch cd.rule.Category {
		case types.EventInterview:
			iv = i
		case types.EventRejection:
			rj = i
		}
	}
	if iv < 0 || rj < 0 || iv > rj {
		return
	}
	interview := cands[iv]
	copy(cands[iv:rj], cands[iv+1:rj+1])
	cands[rj] = interview
}

// score is the weighted count of non-overlapping matches across the group's patterns.
func (g group) score(text string) float64 {
	n := 0
	for _, re := range g.patterns {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return float64(n) * g.rule.Weight
}
