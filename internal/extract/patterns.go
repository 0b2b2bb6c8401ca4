package extract

// Pattern tables. Each list is tried in order and the first valid match wins.
// Patterns marked case-insensitive are compiled with (?i).

// CompanySubjectPatterns find a company name in the subject (case-insensitive).
// The third pattern is additionally rejected when the text after the colon
// starts with "Your" or "Application".
var CompanySubjectPatterns = []string{
	`(?:thank\s+you\s+for\s+applying\s+(?:to|at)|thank\s+you\s+for\s+your\s+application\s+to|application\s+to)\s+([A-Z][A-Za-z0-9\s&',.\-]+?)(?:\s*$|!|\s+[-–—|]\s+)`,
	`^([A-Z][A-Za-z0-9\s&',.\-]+?)\s+[-–—]\s+`,
	`^([A-Z][A-Za-z0-9\s&',.\-]+?):\s+(.*)$`,
}

// CompanyBodyPatterns find a company name in the opening of the body (case-insensitive).
var CompanyBodyPatterns = []string{
	`on\s+behalf\s+of\s+([A-Z][A-Za-z0-9\s&',.\-]+?)(?:\.|,|\n)`,
	`position\s+at\s+([A-Z][A-Za-z0-9\s&',.\-]+?)(?:\.|,|\n)`,
}

// RoleSubjectPatterns find a role title in the subject (case-insensitive).
// They are reused against the snippet.
var RoleSubjectPatterns = []string{
	`(?:Your\s+[Aa]pplication\s+for)\s+([A-Z][A-Za-z0-9\s,/\-().&]+?)(?:\s*[-–—|]|\s*$)`,
	`^[^:]+:\s+([A-Z][A-Za-z0-9\s,/\-().&]+?)\s+(?:position|role)(?:\s+update|$)`,
	`(?:position|role|job)(?:\s+as)?:\s+([A-Z][A-Za-z0-9\s,/\-().&]+?)(?:\s+at|update|\n|$)`,
	`^[^:|\-–—]+\s+[-–—|]\s+([A-Z][A-Za-z0-9\s,/\-().&]+?)$`,
}

// RoleBodyPatterns find a role title in the body (case-insensitive).
var RoleBodyPatterns = []string{
	`(?:applied for|applying for|application for|position of|role of)\s+(?:the\s+)?([A-Z][A-Za-z0-9\s,/\-().&]+?)(?:\s+position|\s+role|\s+at|\.|,|\n)`,
	`(?:position:|role:)\s+([A-Z][A-Za-z0-9\s,/\-().&]+?)(?:\n|\.|$)`,
	`interest\s+in\s+(?:the\s+)?([A-Z][A-Za-z0-9\s,/\-().&]+?)\s+(?:position|role)`,
}

// ReqIDPatterns find requisition identifiers (case-insensitive). A token
// only counts when it contains a digit.
var ReqIDPatterns = []string{
	`\b(?:requisition|req|job)\s*(?:id|#|number|no\.?)?\s*[:#]?\s*([A-Z0-9][A-Z0-9\-]*)`,
	`(?:\bID|#)\s*[:#]?\s*([A-Z0-9\-]{5,})`,
}

// DatePatterns find date-like phrases (case-insensitive).
var DatePatterns = []string{
	`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`,
	`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}\b`,
	`\b\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}\b`,
}

// LocationPatterns find a location (case-sensitive apart from the labels).
var LocationPatterns = []string{
	`(?i:location|based in|office in):\s*([A-Z][A-Za-z\s,]+?)(?:\n|\.|\||$)`,
	`\b([A-Z][a-z]+(?:\s[A-Z][a-z]+)?,\s+[A-Z]{2})\b`,
}

// RegionCodes are the US state and Canadian province codes accepted after a
// "City, " location.
var RegionCodes = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "DC", "FL", "GA", "HI", "ID", "IL",
	"IN", "IA", "KS", "KY", "LA", "ME", "MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE",
	"NV", "NH", "NJ", "NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC", "SD",
	"TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY", "PR",
	"AB", "BC", "MB", "NB", "NL", "NS", "NT", "NU", "ON", "PE", "QC", "SK", "YT",
}

// URLPattern matches http(s) links in a body.
var URLPattern = "https?://[^\\s<>\"{}|\\\\^`\\[\\]]+"

// PortalKeywords mark a URL as a likely application portal.
var PortalKeywords = []string{
	"greenhouse", "lever", "workday", "icims", "smartrecruiters",
	"jobs", "careers", "apply", "application", "candidate",
}

// PlatformMentions are platform names recognized in a body when the sender is not a platform.
var PlatformMentions = []string{"greenhouse", "lever", "workday", "icims", "smartrecruiters"}

// TrackingParams are query parameters removed from portal links. Keys ending
// in "*" match by prefix.
var TrackingParams = []string{"utm_*", "gh_src", "trk", "ref", "source"}

// GenericDomainLabels are sender domain labels that never name a company.
var GenericDomainLabels = []string{
	"mail", "email", "noreply", "support", "info",
	"gmail", "yahoo", "outlook", "hotmail",
}
