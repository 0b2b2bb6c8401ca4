package platforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	p, ok := Lookup("no-reply.greenhouse.io")
	assert.True(t, ok)
	assert.Equal(t, "Greenhouse", p.Name)

	p, ok = Lookup("acme.myworkdayjobs.com")
	assert.True(t, ok)
	assert.Equal(t, "Workday", p.Name)

	tests := []struct {
		domain string
		want   string
	}{
		{"lever.co", "Lever"},
		{"hire.lever.co", "Lever"},
		{"mail.greenhouse.io", "Greenhouse"},
		{"JAZZ.CO", "JazzHR"},
		{"clever.com", ""},
		{"jazz.com", ""},
		{"notgreenhouse.io", ""},
		{"greenhouse.io.example.com", ""},
	}
	for _, tt := range tests {
		p, ok := Lookup(tt.domain)
		assert.Equal(t, tt.want != "", ok, tt.domain)
		assert.Equal(t, tt.want, p.Name, tt.domain)
	}

	_, ok = Lookup("gmail.com")
	assert.False(t, ok)
	_, ok = Lookup("")
	assert.False(t, ok)
}

func TestHasJobToken(t *testing.T) {
	assert.True(t, HasJobToken("acme.applytojob.com"))
	assert.True(t, HasJobToken("recruiting.acme.com"))
	assert.True(t, HasJobToken("acme-recruiting.com"))
	assert.True(t, HasJobToken("acme.myworkdayjobs.com"))
	assert.False(t, HasJobToken("news.acme.com"))
	assert.False(t, HasJobToken("clever.com"))
	assert.False(t, HasJobToken(""))
}

func TestSenderQueries(t *testing.T) {
	q := SenderQueries(4)
	assert.Equal(t, []string{
		"from:(greenhouse.io OR lever.co OR workday.com OR myworkdayjobs.com)",
		"from:(icims.com OR smartrecruiters.com OR taleo.net OR successfactors.com)",
		"from:(jobvite.com OR breezy.hr OR ashbyhq.com OR jazz.co)",
	}, q)

	assert.Len(t, SenderQueries(0), 1)
	assert.Len(t, SenderQueries(5), 3)
}
