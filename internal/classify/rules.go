package classify

import "github.com/daviddao/jobmail/internal/types"

// Rule is one category of the classifier: a weighted group of patterns.
// Patterns are matched case-insensitively.
type Rule struct {
	Category types.EventType
	Status   types.Status
	Weight   float64
	Patterns []string
}

// Rules is the default rule table in priority order. Ties in score keep this order.
var Rules = []Rule{
	{
		Category: types.EventRejection,
		Status:   types.StatusRejected,
		Weight:   1.0,
		Patterns: []string{
			`unfortunately`,
			`not\s+(moving\s+forward|selected|chosen)`,
			`will\s+not\s+be\s+(moving|proceeding)`,
			`decided\s+to\s+(pursue|move\s+forward\s+with)\s+other`,
			`have\s+decided\s+not\s+to`,
			`regret\s+to\s+inform`,
			`not\s+be\s+considered`,
			`position\s+has\s+been\s+filled`,
			`your\s+application\s+was\s+not\s+successful`,
		},
	},
	{
		Category: types.EventOffer,
		Status:   types.StatusOffer,
		Weight:   DefaultOfferWeight,
		Patterns: []string{
			`offer\s+(of\s+employment|letter)`,
			`pleased\s+to\s+offer`,
			`extend\s+(an\s+)?offer`,
			`congratulations`,
			`offer\s+package`,
		},
	},
	{
		Category: types.EventInterview,
		Status:   types.StatusInterview,
		Weight:   1.0,
		Patterns: []string{
			`interview`,
			`schedule\s+(a\s+)?(call|meeting|chat)`,
			`speak\s+with\s+you`,
			`next\s+step`,
			`phone\s+(screen|call)`,
			`video\s+call`,
			`meet\s+with`,
			`available\s+for\s+(a\s+)?(call|chat)`,
		},
	},
	{
		Category: types.EventAssessment,
		Status:   types.StatusAssessment,
		Weight:   1.0,
		Patterns: []string{
			`coding\s+(challenge|test|assessment)`,
			`technical\s+(challenge|test|assessment)`,
			`complete\s+(the\s+)?(assignment|challenge|test)`,
			`take-home\s+(challenge|assignment)`,
			`hackerrank`,
			`codility`,
			`codesignal`,
		},
	},
	{
		Category: types.EventConfirmation,
		Status:   types.StatusApplied,
		Weight:   DefaultConfirmationWeight,
		Patterns: []string{
			`thank\s+you\s+for\s+(applying|your\s+application)`,
			`application\s+(received|submitted)`,
			`received\s+your\s+application`,
			`confirm\s+receipt`,
			`we\s+have\s+received`,
		},
	},
}
