package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/jobmail/internal/types"
)

func TestCheckPlatformDomain(t *testing.T) {
	f := Default()
	got := f.Check(types.EmailRecord{
		Subject: "Hello there",
		From:    "Acme <no-reply@greenhouse.io>",
	})
	assert.True(t, got.IsJobRelated)
	assert.Equal(t, 1.0, got.DomainScore)
	assert.Equal(t, "known job platform domain (greenhouse.io)", got.Reason)
	assert.InDelta(t, 0.6, got.Confidence, 1e-9)
}

func TestCheckRecruitingToken(t *testing.T) {
	got := Default().Check(types.EmailRecord{From: "talent@acme-recruiting.com"})
	assert.True(t, got.IsJobRelated)
	assert.Equal(t, 0.8, got.DomainScore)
}

func TestCheckLookalikeDomain(t *testing.T) {
	got := Default().Check(types.EmailRecord{
		Subject: "Lunch on Friday",
		From:    "hr@clever.com",
	})
	assert.False(t, got.IsJobRelated)
	assert.Zero(t, got.DomainScore)
}

func TestCheckKeywords(t *testing.T) {
	tests := []struct {
		name    string
		email   types.EmailRecord
		related bool
	}{
		{
			name: "two keywords",
			email: types.EmailRecord{
				Subject: "Interview invitation",
				Body:    "We would like to schedule a call.",
				From:    "jane@example.com",
			},
			related: true,
		},
		{
			name: "single keyword",
			email: types.EmailRecord{
				Subject: "Special offer on shoes",
				From:    "deals@shop.example",
			},
			related: false,
		},
		{
			name:    "empty",
			email:   types.EmailRecord{},
			related: false,
		},
	}
	f := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Check(tt.email)
			assert.Equal(t, tt.related, got.IsJobRelated)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}

func TestCheckNoIndicators(t *testing.T) {
	got := Default().Check(types.EmailRecord{Subject: "Lunch?", From: "friend@example.com"})
	assert.False(t, got.IsJobRelated)
	assert.Equal(t, "no job indicators found", got.Reason)
	assert.Zero(t, got.Confidence)
}

func TestCheckBodyWindow(t *testing.T) {
	padding := make([]byte, 600)
	for i := range padding {
		padding[i] = 'x'
	}
	got := Default().Check(types.EmailRecord{
		Subject: "Newsletter",
		Body:    string(padding) + " thank you for applying, interview, candidate",
		From:    "news@example.com",
	})
	assert.Equal(t, 0, got.KeywordScore)
}

func TestConfidenceCapped(t *testing.T) {
	got := Default().Check(types.EmailRecord{
		Subject: "Thank you for applying - application received",
		Body:    "Your application for the role at Acme. Interview scheduled. Coding challenge next steps.",
		From:    "jobs@lever.co",
	})
	require.True(t, got.IsJobRelated)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New(nil, []string{"("})
	assert.Error(t, err)
}
