package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{125, "00:02:05"},
		{3599, "00:59:59"},
		{3600, "01:00:00"},
		{7325, "02:02:05"},
		{-10, "00:00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestBuildSnapshotDefaults(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	snap := BuildSnapshot(New(), now)
	assert.Equal(t, "Untitled Meeting", snap.Title)
	assert.Equal(t, "00:00:00", snap.Duration)
	assert.Equal(t, 0, snap.TotalItems)
	assert.Equal(t, "2026-05-01T09:30:00Z", snap.Date)
	assert.NotEmpty(t, snap.ID)
}

func TestCheckpointRefNumericForms(t *testing.T) {
	checklist := []ChecklistItem{{Item: "Intro"}, {Item: "Q&A"}, {Item: "3"}}

	tests := []struct {
		ref      CheckpointRef
		oneBased bool
		wantIdx  int
		wantOK   bool
	}{
		{"1", true, 0, true},
		{"3", true, 2, true},
		{"2.0", true, 1, true},    // float-form numeric string
		{"0", true, 0, false},     // below range under 1-based
		{"0", false, 0, true},     // zero-based convention
		{"4", true, 0, false},     // past the end
		{"Q&A", true, 1, true},    // text match
		{"2.5", true, 0, false},   // non-integral number resolves nothing
		{"missing", true, 0, false},
	}

	for _, tt := range tests {
		idx, ok := tt.ref.Index(checklist, tt.oneBased)
		assert.Equal(t, tt.wantOK, ok, "ref=%q oneBased=%v", tt.ref, tt.oneBased)
		if tt.wantOK {
			assert.Equal(t, tt.wantIdx, idx, "ref=%q oneBased=%v", tt.ref, tt.oneBased)
		}
	}
}
