package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/jobmail/internal/types"
)

var base = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

// openTest opens a fresh database whose clock advances one second per read.
func openTest(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), DirName, FileName))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	tick := base
	d.SetClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})
	return d
}

func mustCreate(t *testing.T, d *DB, app types.Application) int64 {
	t.Helper()
	id, err := d.CreateApplication(context.Background(), &app)
	require.NoError(t, err)
	return id
}

func TestCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)

	id := mustCreate(t, d, types.Application{
		Company:    "Acme Robotics",
		RoleTitle:  "Senior Backend Engineer",
		Platform:   "Greenhouse",
		PortalLink: "https://boards.greenhouse.io/acme/jobs/123",
	})
	assert.Equal(t, int64(1), id)

	app, err := d.GetApplication(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, types.StatusApplied, app.Status)
	assert.Equal(t, "2025-01-10T12:00:01.000000Z", app.FirstSeenDate)
	assert.Equal(t, app.FirstSeenDate, app.LastUpdated)

	byLink, err := d.ApplicationsByPortalLink(ctx, "https://boards.greenhouse.io/acme/jobs/123")
	require.NoError(t, err)
	require.Len(t, byLink, 1)
	assert.Equal(t, "Greenhouse", byLink[0].Platform)

	byName, err := d.ApplicationsByCompanyRole(ctx, "ACME robotics", "senior backend engineer")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, id, byName[0].ID)

	none, err := d.ApplicationsByCompanyRole(ctx, "Acme", "Senior Backend Engineer")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetApplicationMissing(t *testing.T) {
	app, err := openTest(t).GetApplication(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, app)
}

func TestMostRecentlyUpdatedFirst(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)
	first := mustCreate(t, d, types.Application{Company: "Acme", RoleTitle: "Engineer"})
	second := mustCreate(t, d, types.Application{Company: "acme", RoleTitle: "engineer"})

	apps, err := d.ApplicationsByCompanyRole(ctx, "Acme", "Engineer")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, second, apps[0].ID)

	require.NoError(t, d.UpdateApplicationStatus(ctx, first, types.StatusInterview, ""))
	apps, err = d.ApplicationsByCompanyRole(ctx, "Acme", "Engineer")
	require.NoError(t, err)
	assert.Equal(t, first, apps[0].ID)
	assert.Equal(t, types.StatusInterview, apps[0].Status)
}

func TestListApplications(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)
	a := mustCreate(t, d, types.Application{Company: "A", RoleTitle: "Role A"})
	mustCreate(t, d, types.Application{Company: "B", RoleTitle: "Role B"})
	require.NoError(t, d.UpdateApplicationStatus(ctx, a, types.StatusRejected, "not a fit"))

	all, err := d.ListApplications(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rejected, err := d.ListApplications(ctx, "rejected", 0)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "not a fit", rejected[0].Notes)

	limited, err := d.ListApplications(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestUpdateStatusMissing(t *testing.T) {
	err := openTest(t).UpdateApplicationStatus(context.Background(), 7, types.StatusOffer, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventsRoundTripAndDedupe(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)
	appID := mustCreate(t, d, types.Application{Company: "Acme", RoleTitle: "Engineer"})

	ev := &types.Event{
		ApplicationID: appID,
		EventType:     types.EventInterview,
		EventTime:     "2025-01-10T09:00:00.000000Z",
		MessageID:     "msg-1",
		Subject:       "Interview invitation",
		Confidence:    0.67,
		Extracted: types.ExtractionResult{
			Company:   "Acme",
			RoleTitle: "Engineer",
			KeyDates:  []string{"2025-01-20T00:00:00"},
		},
		ActionSuggestion: "Prepare for interview with Acme.",
		FollowUpDate:     "2025-01-20T00:00:00",
	}
	id, err := d.CreateEvent(ctx, ev)
	require.NoError(t, err)
	assert.NotZero(t, id)

	dup := *ev
	dup.ID = 0
	id, err = d.CreateEvent(ctx, &dup)
	require.NoError(t, err)
	assert.Zero(t, id)

	events, err := d.EventsForApplication(ctx, appID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	got := events[0]
	assert.Equal(t, types.EventInterview, got.EventType)
	assert.Equal(t, 0.67, got.Confidence)
	assert.Equal(t, []string{"2025-01-20T00:00:00"}, got.Extracted.KeyDates)
	assert.Empty(t, got.From)

	recent, err := d.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Acme", recent[0].Company)
	assert.Equal(t, types.StatusApplied, recent[0].ApplicationStatus)
}

func TestLedgerAndState(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)

	ok, err := d.IsProcessed(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.MarkProcessed(ctx, &types.ProcessedEmail{
		MessageID:      "m1",
		Classification: types.ClassificationNotJobRelated,
	}))
	require.NoError(t, d.MarkProcessed(ctx, &types.ProcessedEmail{
		MessageID:      "m1",
		Classification: string(types.EventRejection),
	}))
	ok, err = d.IsProcessed(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, ok)

	counts, err := d.ProcessedCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"rejection": 1}, counts)

	v, err := d.GetState(ctx, "last_checked_iso")
	require.NoError(t, err)
	assert.Empty(t, v)
	require.NoError(t, d.SetState(ctx, "last_checked_iso", "a"))
	require.NoError(t, d.SetState(ctx, "last_checked_iso", "b"))
	v, err = d.GetState(ctx, "last_checked_iso")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestRecordEvent(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)
	appID := mustCreate(t, d, types.Application{Company: "Acme", RoleTitle: "Engineer"})

	err := d.RecordEvent(ctx,
		&types.Event{ApplicationID: appID, EventType: types.EventRejection, MessageID: "m2"},
		types.StatusRejected,
		&types.ProcessedEmail{MessageID: "m2", Classification: "rejection"})
	require.NoError(t, err)

	app, err := d.GetApplication(ctx, appID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusRejected, app.Status)
	done, err := d.IsProcessed(ctx, "m2")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRecordEventRollsBack(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)

	err := d.RecordEvent(ctx,
		&types.Event{ApplicationID: 99, EventType: types.EventOffer, MessageID: "m3"},
		types.StatusOffer,
		&types.ProcessedEmail{MessageID: "m3", Classification: "offer"})
	require.Error(t, err)

	done, err := d.IsProcessed(ctx, "m3")
	require.NoError(t, err)
	assert.False(t, done)
	counts, err := d.EventTypeCounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestKPIsAndFollowUps(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)

	acme := mustCreate(t, d, types.Application{Company: "Acme", RoleTitle: "Engineer"})
	globex := mustCreate(t, d, types.Application{Company: "Globex", RoleTitle: "Analyst"})
	old := mustCreate(t, d, types.Application{
		Company: "Initech", RoleTitle: "Developer",
		FirstSeenDate: "2024-06-01T00:00:00.000000Z", LastUpdated: "2024-06-01T00:00:00.000000Z",
	})

	record := func(appID int64, msg string, et types.EventType, at, follow string) {
		require.NoError(t, d.RecordEvent(ctx, &types.Event{
			ApplicationID: appID, EventType: et, EventTime: at, MessageID: msg,
			FollowUpDate: follow,
		}, et.Status(), &types.ProcessedEmail{MessageID: msg, Classification: string(et)}))
	}
	record(acme, "a1", types.EventConfirmation, "2025-01-01T00:00:00.000000Z", "2025-01-08T00:00:00")
	record(acme, "a2", types.EventInterview, "2025-01-05T00:00:00.000000Z", "2025-01-12T00:00:00")
	record(globex, "g1", types.EventConfirmation, "2025-01-02T00:00:00.000000Z", "2025-01-09T00:00:00")
	record(old, "i1", types.EventRejection, "2024-06-10T00:00:00.000000Z", "")

	k, err := d.KPIs(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 3, k.TotalApplications)
	assert.Equal(t, 2, k.RecentApplications)
	assert.Equal(t, 2, k.Active)
	assert.Equal(t, 1, k.Interviews)
	assert.Equal(t, 1, k.Rejections)
	assert.InDelta(t, 200.0/3, k.ResponseRate, 0.001)

	due, err := d.FollowUps(ctx, base)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "Globex", due[0].Application.Company)
	assert.Equal(t, types.EventConfirmation, due[0].EventType)

	due, err = d.FollowUps(ctx, base.Add(7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "Globex", due[0].Application.Company)
	assert.Equal(t, "Acme", due[1].Application.Company)
	assert.Equal(t, "2025-01-12T00:00:00", due[1].FollowUpDate)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)
	mustCreate(t, d, types.Application{Company: "Acme", RoleTitle: "Engineer"})
	require.NoError(t, d.Reset(ctx))

	apps, err := d.ListApplications(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2025-01-10T12:00:01.000000Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(base.Add(time.Second)))

	_, err = ParseTime("2025-01-10T12:00:00")
	assert.NoError(t, err)

	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}
