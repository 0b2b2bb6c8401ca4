package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/jobmail/internal/types"
)

func TestCompanyAndRoleFromSubject(t *testing.T) {
	got := Default().Extract(types.EmailRecord{
		Subject: "Your application to Google - Software Engineer",
		From:    "jobs@greenhouse.io",
	})
	assert.Equal(t, "Google", got.Company)
	assert.Contains(t, got.RoleTitle, "Software Engineer")
}

func TestRoleFromSubject(t *testing.T) {
	got := Default().Extract(types.EmailRecord{
		Subject: "Microsoft - Senior Data Scientist Position",
		From:    "recruiting@microsoft.com",
	})
	assert.Equal(t, "Senior Data Scientist", got.RoleTitle)
	assert.Equal(t, "Microsoft", got.Company)
}

func TestPortalLink(t *testing.T) {
	got := Default().Extract(types.EmailRecord{
		Subject: "Application Update",
		From:    "jobs@lever.co",
		Body:    "View your application status: https://jobs.lever.co/company/role-id-123",
	})
	assert.Equal(t, "https://jobs.lever.co/company/role-id-123", got.PortalLink)
	assert.Equal(t, "Lever", got.Platform)
}

func TestReqID(t *testing.T) {
	got := Default().Extract(types.EmailRecord{
		Subject: "Application Received - Req ID: ABC-12345",
		From:    "jobs@company.com",
		Body:    "Requisition ID: ABC-12345",
	})
	assert.Equal(t, "ABC-12345", got.ReqID)
}

func TestReqIDNeedsDigit(t *testing.T) {
	x := Default()
	assert.Empty(t, x.reqIDFrom("Your job application", "See jobs.example.com for more roles"))
	assert.Equal(t, "R-2024-117", x.reqIDFrom("Update", "Job #R-2024-117 has moved"))
}

func TestPlatform(t *testing.T) {
	x := Default()
	got := x.Extract(types.EmailRecord{
		Subject: "Application Received",
		From:    "no-reply@greenhouse.io",
	})
	assert.Equal(t, "Greenhouse", got.Platform)

	got = x.Extract(types.EmailRecord{Subject: "Team offsite", From: "hr@clever.com"})
	assert.Empty(t, got.Platform)
	assert.Equal(t, "Clever", got.Company)

	got = x.Extract(types.EmailRecord{Subject: "Team offsite", From: "talent@jazz.com"})
	assert.Empty(t, got.Platform)

	assert.Equal(t, "Workday", platformFrom("hr@acme.com", "Sign in to Workday to continue"))
	assert.Empty(t, platformFrom("hr@acme.com", "no platform here"))
}

func TestAcmeConfirmation(t *testing.T) {
	got := Default().Extract(types.EmailRecord{
		Subject: "Thank you for applying to Acme Corp — Backend Engineer",
		From:    "jobs@greenhouse.io",
	})
	assert.Equal(t, "Acme Corp", got.Company)
	assert.Equal(t, "Backend Engineer", got.RoleTitle)
	assert.Equal(t, "Greenhouse", got.Platform)
	assert.Empty(t, got.PortalLink)
	assert.Empty(t, got.ReqID)
	assert.Empty(t, got.KeyDates)
}

func TestCompanyCascade(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		from    string
		body    string
		want    string
	}{
		{
			name:    "colon form",
			subject: "Initech: Interview invitation",
			from:    "hr@globex.com",
			want:    "Initech",
		},
		{
			name:    "colon form followed by your",
			subject: "Initech: Your application status",
			from:    "hr@globex.com",
			want:    "Globex",
		},
		{
			name:    "your application for skips subject",
			subject: "Your Application for Senior Backend Engineer - Hooli",
			from:    "careers@piedpiper.com",
			want:    "Piedpiper",
		},
		{
			name:    "body on behalf of",
			subject: "Following up",
			from:    "someone@gmail.com",
			body:    "I am writing on behalf of Umbrella Labs, regarding your profile.",
			want:    "Umbrella Labs",
		},
		{
			name:    "sender display name",
			subject: "Hello",
			from:    `"Stripe Jobs" <jobs@stripe-mail.com>`,
			want:    "Stripe",
		},
		{
			name:    "sender via platform",
			subject: "Hello",
			from:    "Hooli via Lever <no-reply@hire.lever.co>",
			want:    "Hooli",
		},
		{
			name:    "person name falls back to domain",
			subject: "Hello",
			from:    "Jane Smith <jane@acme-robotics.co.uk>",
			want:    "Acme Robotics",
		},
		{
			name:    "platform display name",
			subject: "Update",
			from:    "Greenhouse <no-reply@greenhouse.io>",
			want:    types.UnknownCompany,
		},
		{
			name:    "platform domain",
			subject: "Update",
			from:    "no-reply@greenhouse.io",
			want:    types.UnknownCompany,
		},
		{
			name:    "free mail domain",
			subject: "Hi",
			from:    "someone@gmail.com",
			want:    types.UnknownCompany,
		},
		{
			name:    "system sender",
			subject: "Hi",
			from:    "Notifications <noreply@mail.initech.com>",
			want:    "Initech",
		},
		{
			name: "empty",
			want: types.UnknownCompany,
		},
	}
	x := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x.company(tt.subject, tt.from, tt.body))
		})
	}
}

func TestRoleCascade(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		snippet string
		want    string
	}{
		{
			name:    "your application for",
			subject: "Your Application for Senior Backend Engineer - Hooli",
			want:    "Senior Backend Engineer",
		},
		{
			name:    "company colon role position",
			subject: "Hooli: Staff Platform Engineer position update",
			want:    "Staff Platform Engineer",
		},
		{
			name:    "role label",
			subject: "New role: Machine Learning Engineer at Hooli",
			want:    "Machine Learning Engineer",
		},
		{
			name:    "leading article removed",
			subject: "Hooli | The Data Platform Lead",
			want:    "Data Platform Lead",
		},
		{
			name:    "single word rejected",
			subject: "Hooli - Engineering",
			want:    types.UnknownRole,
		},
		{
			name:    "body applied for",
			subject: "Thanks!",
			body:    "Thanks, you applied for the Site Reliability Engineer position at Hooli.",
			want:    "Site Reliability Engineer",
		},
		{
			name:    "body interest in",
			subject: "Thanks!",
			body:    "We appreciate your interest in the Product Designer role and will be in touch",
			want:    "Product Designer",
		},
		{
			name:    "snippet",
			subject: "Thanks!",
			snippet: "Your application for Frontend Engineer - received",
			want:    "Frontend Engineer",
		},
		{
			name:    "nothing",
			subject: "Hello",
			want:    types.UnknownRole,
		},
	}
	x := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x.role(tt.subject, tt.body, tt.snippet))
		})
	}
}

func TestKeyDates(t *testing.T) {
	x := Default()
	got := x.Extract(types.EmailRecord{
		Body: "Your interview is on March 15, 2024. Backup slot 03/16/2024. Confirmed for 15 March 2024.",
	})
	assert.Equal(t, []string{"2024-03-16T00:00:00", "2024-03-15T00:00:00"}, got.KeyDates)

	for _, d := range got.KeyDates {
		_, err := time.Parse(types.ISOLayout, d)
		require.NoError(t, err)
	}
}

func TestKeyDatesShapes(t *testing.T) {
	tests := []struct {
		body string
		want []string
	}{
		{"Start date 31/12/2024.", []string{"2024-12-31T00:00:00"}},
		{"Onsite 13/05/2024", []string{"2024-05-13T00:00:00"}},
		{"Onsite 12/05/24", []string{"2024-12-05T00:00:00"}},
		{"Call on Sept 5, 2024 at noon", []string{"2024-09-05T00:00:00"}},
		{"Call on 5 Sept 2024", []string{"2024-09-05T00:00:00"}},
		{"Nothing on 45/45/2024", []string{}},
	}
	x := Default()
	for _, tt := range tests {
		got := x.Extract(types.EmailRecord{Body: tt.body})
		assert.Equal(t, tt.want, got.KeyDates, tt.body)
	}
}

func TestKeyDatesCapped(t *testing.T) {
	var b strings.Builder
	for day := 1; day <= 8; day++ {
		b.WriteString("slot 01/0")
		b.WriteByte(byte('0' + day))
		b.WriteString("/2025 ")
	}
	got := Default().Extract(types.EmailRecord{Body: b.String()})
	require.Len(t, got.KeyDates, MaxKeyDates)
	assert.Equal(t, "2025-01-01T00:00:00", got.KeyDates[0])
	assert.Equal(t, "2025-01-05T00:00:00", got.KeyDates[4])
}

func TestKeyDatesSnippetFirst(t *testing.T) {
	got := Default().Extract(types.EmailRecord{
		Snippet: "deadline 02/01/2025",
		Body:    "deadline 01/01/2025",
	})
	assert.Equal(t, []string{"2025-02-01T00:00:00", "2025-01-01T00:00:00"}, got.KeyDates)
}

func TestLocation(t *testing.T) {
	x := Default()
	tests := []struct {
		subject string
		body    string
		want    string
	}{
		{"Update", "Location: San Francisco, CA\nTeam: Infra", "San Francisco, CA"},
		{"Update", "The team is based out of Austin, TX and hires widely", "Austin, TX"},
		{"Update", "This is a fully remote position.", "Remote"},
		{"Update", "Work From Home allowed", "Remote"},
		{"Update", "No place mentioned", ""},
		{"Update", "Talk soon.\nThanks, HR", ""},
		{"Update", "Thanks, HR\nThe role sits in Austin, TX", "Austin, TX"},
		{"Update", "Location: Toronto, ON", "Toronto, ON"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, x.locationFrom(tt.subject, tt.body), tt.body)
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://boards.greenhouse.io/acme/jobs/123?gh_src=abc&utm_source=x.", "https://boards.greenhouse.io/acme/jobs/123"},
		{"https://acme.com/careers/9?for=acme&utm_medium=email", "https://acme.com/careers/9?for=acme"},
		{"https://acme.com/careers/9?id=7", "https://acme.com/careers/9?id=7"},
		{"https://acme.com/apply),", "https://acme.com/apply"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanURL(tt.in))
	}
}

func TestPortalLinkPrefersJobURL(t *testing.T) {
	x := Default()
	got := x.portalLink("Unsubscribe at https://mail.example.com/u/1 or check https://acme.com/careers/status/9?ref=mail")
	assert.Equal(t, "https://acme.com/careers/status/9", got)

	got = x.portalLink("See https://example.com/a and https://example.com/b")
	assert.Equal(t, "https://example.com/a", got)

	assert.Empty(t, x.portalLink("no links"))
}

func TestExtractDeterministic(t *testing.T) {
	e := types.EmailRecord{
		Subject: "Interview for Backend Engineer - Req #A1234",
		From:    "Acme Talent <talent@acme.com>",
		Body: "Hi, we'd like to meet on Jan 5, 2025 or 01/06/2025 or 7 Jan 2025. " +
			"Location: Berlin. Portal: https://acme.com/careers/portal?utm_campaign=x",
		Snippet: "we'd like to meet on Jan 5, 2025",
	}
	x := Default()
	first := x.Extract(e)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, x.Extract(e))
	}
	assert.Equal(t, "https://acme.com/careers/portal", first.PortalLink)
	assert.Equal(t, "Berlin", first.Location)
	assert.Equal(t, "A1234", first.ReqID)
	assert.LessOrEqual(t, len(first.KeyDates), MaxKeyDates)
}

func TestExtractEmpty(t *testing.T) {
	got := Default().Extract(types.EmailRecord{})
	assert.Equal(t, types.UnknownCompany, got.Company)
	assert.Equal(t, types.UnknownRole, got.RoleTitle)
	assert.NotNil(t, got.KeyDates)
	assert.Empty(t, got.KeyDates)
}
