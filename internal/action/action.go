// Package action suggests the next step for a classified job email.
package action

import (
	"fmt"
	"time"

	"github.com/daviddao/jobmail/internal/types"
)

// Rule is the advice for one event type. A zero FollowUp means no follow-up.
type Rule struct {
	Message  string
	FollowUp time.Duration
}

const day = 24 * time.Hour

// Rules maps event types to advice. The interview message takes the company name.
var Rules = map[types.EventType]Rule{
	types.EventConfirmation: {"Application confirmed. Follow up if no response in 7-10 days.", 7 * day},
	types.EventRejection:    {"Application not selected. Consider requesting feedback (optional). Keep applying!", 0},
	types.EventInterview:    {"Interview scheduled! Prepare: research %s, review role requirements, prepare questions.", 3 * day},
	types.EventAssessment:   {"Complete coding/technical assessment. Review requirements carefully. Set aside focused time.", 2 * day},
	types.EventOffer:        {"Offer received! Review terms, negotiate if needed, respond within deadline.", 3 * day},
	types.EventUpdate:       {"Application update received. Review details and wait for next steps.", 5 * day},
}

// Fallback applies to event types without a rule.
var Fallback = Rule{"Review email and take appropriate action.", 7 * day}

// Recommender produces recommendations relative to its clock.
type Recommender struct {
	now func() time.Time
}

// New returns a Recommender. A nil clock means time.Now.
func New(now func() time.Time) *Recommender {
	if now == nil {
		now = time.Now
	}
	return &Recommender{now: now}
}

// Recommend returns the suggestion and follow-up date for an event.
func (r *Recommender) Recommend(event types.EventType, ex types.ExtractionResult) types.Recommendation {
	rule, ok := Rules[event]
	if !ok {
		rule = Fallback
	}

	msg := rule.Message
	if event == types.EventInterview {
		company := ex.Company
		if company == "" {
			company = "the company"
		}
		msg = fmt.Sprintf(msg, company)
	}

	rec := types.Recommendation{ActionSuggestion: msg}
	switch {
	case rule.FollowUp == 0:
	case event == types.EventInterview && len(ex.KeyDates) > 0:
		rec.FollowUpDate = ex.KeyDates[0]
	default:
		rec.FollowUpDate = r.now().UTC().Add(rule.FollowUp).Format(types.ISOLayout)
	}
	return rec
}
