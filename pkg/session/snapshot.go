package session

import (
	"fmt"
	"strconv"
	"time"
)

// Snapshot is the terminal record persisted when a meeting ends. Field
// names match the meeting documents the web dashboard reads.
type Snapshot struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Date             string   `json:"date"`
	Duration         string   `json:"duration"`
	Engagement       int      `json:"engagement"`
	Participants     int      `json:"participants"`
	Transcripts      []string `json:"transcripts"`
	CompletedItems   int      `json:"completedItems"`
	TotalItems       int      `json:"totalItems"`
	ChecklistChecked []bool   `json:"checklistChecked"`
	Checklist        []string `json:"checklist"`
}

// snapshotParticipants is the participant count recorded per meeting.
// The stream distinguishes exactly two roles, host and guest.
const snapshotParticipants = 2

// BuildSnapshot captures the terminal record for a session at time now.
// The snapshot ID is the end-of-meeting unix-millisecond timestamp, which
// doubles as the document filename in the store.
func BuildSnapshot(s Session, now time.Time) Snapshot {
	title := "Untitled Meeting"
	if s.Agenda != nil && s.Agenda.Title != "" {
		title = s.Agenda.Title
	}

	checked, total := s.ChecklistDone()
	checklistChecked := make([]bool, len(s.Checklist))
	checklist := make([]string, len(s.Checklist))
	for i, item := range s.Checklist {
		checklistChecked[i] = item.Checked
		checklist[i] = item.Item
	}

	return Snapshot{
		ID:               strconv.FormatInt(now.UnixMilli(), 10),
		Title:            title,
		Date:             now.UTC().Format(time.RFC3339),
		Duration:         FormatDuration(s.ElapsedSeconds),
		Engagement:       s.EngagementPercent,
		Participants:     snapshotParticipants,
		Transcripts:      append([]string(nil), s.Transcripts...),
		CompletedItems:   checked,
		TotalItems:       total,
		ChecklistChecked: checklistChecked,
		Checklist:        checklist,
	}
}

// FormatDuration renders a second count as "hh:mm:ss".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
