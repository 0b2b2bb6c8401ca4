package beads

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/jobmail/internal/types"
)

func stubRunner(t *testing.T, out string, err error) *[][]string {
	t.Helper()
	var calls [][]string
	prev := runner
	runner = func(args ...string) ([]byte, error) {
		calls = append(calls, args)
		return []byte(out), err
	}
	t.Cleanup(func() { runner = prev })
	return &calls
}

func followUp() types.FollowUp {
	return types.FollowUp{
		Application: types.Application{
			ID:         7,
			Company:    "Acme Corp",
			RoleTitle:  "Backend Engineer",
			Platform:   "Greenhouse",
			PortalLink: "https://boards.greenhouse.io/acme/jobs/123",
			Status:     types.StatusInterview,
		},
		EventType:        types.EventInterview,
		ActionSuggestion: "Prepare for interview with Acme Corp.",
		FollowUpDate:     "2025-01-17T12:00:00",
	}
}

func TestTaskFor(t *testing.T) {
	task := TaskFor(followUp())
	assert.Equal(t, "Follow up: Acme Corp · Backend Engineer", task.Title)
	assert.Equal(t, "1", task.Priority)
	assert.Equal(t, "jm:app:7", task.ExternalRef)
	assert.Equal(t, "2025-01-17", task.Due)
	assert.Contains(t, task.Description, "Prepare for interview")
	assert.Contains(t, task.Description, "Portal: https://boards.greenhouse.io/acme/jobs/123")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, "1", Priority(types.StatusOffer))
	assert.Equal(t, "2", Priority(types.StatusAssessment))
	assert.Equal(t, "3", Priority(types.StatusApplied))
}

func TestCreate(t *testing.T) {
	calls := stubRunner(t, `{"id":"bd-12","title":"Follow up","status":"open","priority":1}`, nil)

	issue, err := Create(TaskFor(followUp()))
	require.NoError(t, err)
	assert.Equal(t, "bd-12", issue.ID)

	require.Len(t, *calls, 1)
	args := (*calls)[0]
	assert.Equal(t, "create", args[0])
	assert.Contains(t, args, "--external-ref")
	assert.Contains(t, args, "job,follow-up")
	assert.Contains(t, args, "Due 2025-01-17")
}

func TestCreateError(t *testing.T) {
	stubRunner(t, "", errors.New("bd create: boom"))
	_, err := Create(Task{Title: "x", Priority: "3"})
	assert.ErrorContains(t, err, "boom")
}

func TestOpenRefs(t *testing.T) {
	stubRunner(t, `[{"id":"bd-1","external_ref":"jm:app:7"},{"id":"bd-2"}]`, nil)
	refs, err := OpenRefs()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"jm:app:7": true}, refs)
}
