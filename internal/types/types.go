// Package types defines core data structures for jobmail.
package types

import "time"

// Sentinels emitted when a field cannot be extracted.
const (
	UnknownCompany = "Unknown Company"
	UnknownRole    = "Unknown Role"
)

// ISOLayout is the timestamp format used for key dates and follow-up dates.
const ISOLayout = "2006-01-02T15:04:05"

// EmailRecord is a normalized email as handed to the pipeline.
type EmailRecord struct {
	MessageID  string    `json:"id"`
	ThreadID   string    `json:"thread_id"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	Body       string    `json:"body"`
	Snippet    string    `json:"snippet"`
	ReceivedAt time.Time `json:"received_at"`
}

// EventType classifies what a job email means for an application.
type EventType string

const (
	EventConfirmation EventType = "confirmation"
	EventRejection    EventType = "rejection"
	EventInterview    EventType = "interview"
	EventAssessment   EventType = "assessment"
	EventOffer        EventType = "offer"
	EventUpdate       EventType = "update"
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusApplied    Status = "applied"
	StatusInReview   Status = "in_review"
	StatusAssessment Status = "assessment"
	StatusInterview  Status = "interview"
	StatusRejected   Status = "rejected"
	StatusOffer      Status = "offer"
	StatusOther      Status = "other"
)

// ValidStatuses is the set of allowed status values.
var ValidStatuses = []Status{
	StatusApplied, StatusInReview, StatusAssessment, StatusInterview,
	StatusRejected, StatusOffer, StatusOther,
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if string(v) == s {
			return true
		}
	}
	return false
}

// ActiveStatuses are the statuses still in the pipeline.
var ActiveStatuses = []Status{StatusApplied, StatusInReview, StatusAssessment, StatusInterview}

// Status returns the application status implied by an event type.
func (e EventType) Status() Status {
	switch e {
	case EventConfirmation:
		return StatusApplied
	case EventRejection:
		return StatusRejected
	case EventInterview:
		return StatusInterview
	case EventAssessment:
		return StatusAssessment
	case EventOffer:
		return StatusOffer
	case EventUpdate:
		return StatusInReview
	default:
		return StatusOther
	}
}

// RelevanceResult is the verdict of the relevance filter.
type RelevanceResult struct {
	IsJobRelated bool    `json:"is_job_related"`
	Reason       string  `json:"reason"`
	Confidence   float64 `json:"confidence"`
	DomainScore  float64 `json:"domain_score"`
	KeywordScore int     `json:"keyword_score"`
}

// ClassificationResult is the output of the event classifier.
// Indicators lists every matched category, most probable first.
type ClassificationResult struct {
	EventType    EventType   `json:"event_type"`
	StatusUpdate Status      `json:"status_update"`
	Confidence   float64     `json:"confidence"`
	Indicators   []EventType `json:"indicators"`
}

// ExtractionResult holds the structured fields pulled from an email.
// Optional fields are empty when absent.
type ExtractionResult struct {
	Company    string   `json:"company"`
	RoleTitle  string   `json:"role_title"`
	ReqID      string   `json:"req_id,omitempty"`
	Platform   string   `json:"platform,omitempty"`
	PortalLink string   `json:"portal_link,omitempty"`
	KeyDates   []string `json:"key_dates"`
	Location   string   `json:"location,omitempty"`
}

// Match methods reported by the identity resolver.
const (
	MatchPortalLink  = "portal_link"
	MatchCreatedNew  = "created_new"
	MatchFuzzyPrefix = "fuzzy_match_"
)

// Resolution links an extraction to an application record.
type Resolution struct {
	ApplicationID int64  `json:"application_id"`
	IsNew         bool   `json:"is_new"`
	MatchMethod   string `json:"match_method"`
}

// Recommendation is the suggested next step for an event.
// FollowUpDate is empty when no follow-up is due.
type Recommendation struct {
	ActionSuggestion string `json:"action_suggestion"`
	FollowUpDate     string `json:"follow_up_date,omitempty"`
}

// Application is one distinct job pursuit.
type Application struct {
	ID            int64  `json:"id"`
	Company       string `json:"company"`
	RoleTitle     string `json:"role_title"`
	Platform      string `json:"platform,omitempty"`
	PortalLink    string `json:"portal_link,omitempty"`
	Status        Status `json:"status"`
	FirstSeenDate string `json:"first_seen_date"`
	LastUpdated   string `json:"last_updated"`
	Notes         string `json:"notes,omitempty"`
}

// Event is an append-only record of one resolved email.
type Event struct {
	ID               int64            `json:"id"`
	ApplicationID    int64            `json:"application_id"`
	EventType        EventType        `json:"event_type"`
	EventTime        string           `json:"event_time"`
	MessageID        string           `json:"message_id"`
	Subject          string           `json:"subject,omitempty"`
	From             string           `json:"from,omitempty"`
	Confidence       float64          `json:"confidence"`
	Extracted        ExtractionResult `json:"extracted"`
	ActionSuggestion string           `json:"action_suggestion,omitempty"`
	FollowUpDate     string           `json:"follow_up_date,omitempty"`
	CreatedAt        string           `json:"created_at"`
}

// ProcessedEmail is a ledger entry for a message the poller has handled.
type ProcessedEmail struct {
	MessageID      string `json:"message_id"`
	ThreadID       string `json:"thread_id,omitempty"`
	ReceivedAt     string `json:"received_at"`
	FromDomain     string `json:"from_domain,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Classification string `json:"classification"`
	ProcessedAt    string `json:"processed_at"`
}

// ClassificationNotJobRelated marks ledger entries the filter rejected.
const ClassificationNotJobRelated = "not_job_related"

// FollowUp pairs an application with the follow-up from its latest event.
type FollowUp struct {
	Application      Application `json:"application"`
	EventType        EventType   `json:"event_type"`
	ActionSuggestion string      `json:"action_suggestion"`
	FollowUpDate     string      `json:"follow_up_date"`
}

// PollSummary holds the result of one polling cycle.
type PollSummary struct {
	RunID       string `json:"run_id"`
	Found       int    `json:"found"`
	New         int    `json:"new"`
	Processed   int    `json:"processed"`
	Irrelevant  int    `json:"irrelevant"`
	Failed      int    `json:"failed"`
	Created     int    `json:"applications_created"`
	LastChecked string `json:"last_checked"`
}
