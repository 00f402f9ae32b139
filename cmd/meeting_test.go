package cmd

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fcerrors "github.com/facilita/facil-cli/pkg/errors"
	"github.com/facilita/facil-cli/pkg/session"
)

func seedMeeting(t *testing.T, deps *Deps, snap session.Snapshot) {
	t.Helper()
	require.NoError(t, deps.OpenStore(deps.Config).SaveMeeting(snap))
}

func TestMeetingListEmpty(t *testing.T) {
	deps := newTestDeps(t, "http://unused")

	out, err := execute(t, NewMeetingCommand(deps), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No meetings recorded")
}

func TestMeetingListNewestFirst(t *testing.T) {
	deps := newTestDeps(t, "http://unused")

	seedMeeting(t, deps, session.Snapshot{
		ID:    "1777714200000",
		Title: "Morning standup",
	})
	seedMeeting(t, deps, session.Snapshot{
		ID:             "1777800600000",
		Title:          "Q2 Review",
		Duration:       "00:45:12",
		Engagement:     62,
		CompletedItems: 2,
		TotalItems:     3,
	})

	out, err := execute(t, NewMeetingCommand(deps), "list")
	require.NoError(t, err)

	assert.Contains(t, out, "Q2 Review")
	assert.Contains(t, out, "2/3")
	assert.Less(t, strings.Index(out, "Q2 Review"), strings.Index(out, "Morning standup"))
}

func TestMeetingListLimit(t *testing.T) {
	deps := newTestDeps(t, "http://unused")

	seedMeeting(t, deps, session.Snapshot{ID: "1777714200000", Title: "Older"})
	seedMeeting(t, deps, session.Snapshot{ID: "1777800600000", Title: "Newer"})

	out, err := execute(t, NewMeetingCommand(deps), "list", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Newer")
	assert.NotContains(t, out, "Older")
}

func TestMeetingShow(t *testing.T) {
	deps := newTestDeps(t, "http://unused")

	seedMeeting(t, deps, session.Snapshot{
		ID:               "1777800600000",
		Title:            "Q2 Review",
		Date:             "2026-05-03T09:30:00Z",
		Duration:         "00:45:12",
		Engagement:       62,
		CompletedItems:   1,
		TotalItems:       2,
		Checklist:        []string{"Intro", "Demo"},
		ChecklistChecked: []bool{true, false},
		Transcripts:      []string{"Host: welcome everyone"},
	})

	out, err := execute(t, NewMeetingCommand(deps), "show", "1777800600000")
	require.NoError(t, err)

	assert.Contains(t, out, "Q2 Review (1777800600000)")
	assert.Contains(t, out, "Engagement:  62%")
	assert.Contains(t, out, "[x] Intro")
	assert.Contains(t, out, "[ ] Demo")
	assert.Contains(t, out, "Host: welcome everyone")
}

func TestMeetingShowNotFound(t *testing.T) {
	deps := newTestDeps(t, "http://unused")

	_, err := execute(t, NewMeetingCommand(deps), "show", "1234567890")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fcerrors.ErrNotFound))
}

func TestMeetingListJSON(t *testing.T) {
	deps := newTestDeps(t, "http://unused")

	seedMeeting(t, deps, session.Snapshot{ID: "1777800600000", Title: "Q2 Review"})

	out, err := execute(t, NewMeetingCommand(deps), "list", "-o", "json")
	require.NoError(t, err)

	var meetings []session.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &meetings))
	require.Len(t, meetings, 1)
	assert.Equal(t, "Q2 Review", meetings[0].Title)
}
