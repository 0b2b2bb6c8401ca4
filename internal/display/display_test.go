package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"2025-01-10T11:59:30.000000Z", "just now"},
		{"2025-01-10T11:15:00.000000Z", "45m ago"},
		{"2025-01-10T09:00:00Z", "3h ago"},
		{"2025-01-08T12:00:00", "2d ago"},
		{"2024-12-01T00:00:00", "Dec 1"},
		{"2025-01-12T12:00:00", "in 2d"},
		{"not a date at all", "not a date"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, timeAgo(tc.in, now), tc.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Softwar...", Truncate("Software Engineer", 10))
	assert.Equal(t, "Zü", Truncate("Zürich", 2))
}

func TestConnector(t *testing.T) {
	assert.Equal(t, "└─", Connector(0, 1))
	assert.Equal(t, "┌─", Connector(0, 3))
	assert.Equal(t, "├─", Connector(1, 3))
	assert.Equal(t, "└─", Connector(2, 3))
}

func TestUntil(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "now", Until("2025-01-09T00:00:00", now))
	assert.Equal(t, "5h", Until("2025-01-10T17:00:00", now))
	assert.Equal(t, "7d", Until("2025-01-17T12:00:00", now))
}
