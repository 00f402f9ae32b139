package cmd

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilita/facil-cli/pkg/session"
	"github.com/facilita/facil-cli/pkg/store"
)

func TestStatsEngagementSampleData(t *testing.T) {
	deps := newTestDeps(t, "http://unused")

	out, err := execute(t, NewStatsCommand(deps), "engagement")
	require.NoError(t, err)

	// An empty store serves the dashboard's sample series.
	assert.Contains(t, out, "2023-10-01")
	assert.Contains(t, out, "45%")
}

func TestStatsEngagementRealData(t *testing.T) {
	deps := newTestDeps(t, "http://unused")
	st := deps.OpenStore(deps.Config)

	snap := session.Snapshot{ID: "1777800600000", Title: "Q2 Review", Engagement: 71}
	require.NoError(t, st.SaveMeeting(snap))
	require.NoError(t, st.RecordMeeting(snap, time.Date(2026, 5, 3, 10, 15, 0, 0, time.UTC)))

	out, err := execute(t, NewStatsCommand(deps), "engagement")
	require.NoError(t, err)

	assert.Contains(t, out, "2026-05-03")
	assert.Contains(t, out, "71%")
	assert.NotContains(t, out, "2023-10-01")
}

func TestStatsMeetingsJSON(t *testing.T) {
	deps := newTestDeps(t, "http://unused")

	out, err := execute(t, NewStatsCommand(deps), "meetings", "-o", "json")
	require.NoError(t, err)

	var months []store.MonthlyMeetings
	require.NoError(t, json.Unmarshal([]byte(out), &months))
	require.Len(t, months, 12)
	assert.Equal(t, "Jan", months[0].Month)
	assert.Equal(t, 12, months[0].Meetings)
}

func TestStatsInvalidFormat(t *testing.T) {
	deps := newTestDeps(t, "http://unused")

	_, err := execute(t, NewStatsCommand(deps), "engagement", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestBarGauge(t *testing.T) {
	assert.Equal(t, "....................", bar(0))
	assert.Equal(t, "##########..........", bar(50))
	assert.Equal(t, "####################", bar(100))
	assert.Equal(t, "....................", bar(-5))
	assert.Equal(t, "####################", bar(250))
}
