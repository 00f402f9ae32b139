package store

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	fcerrors "github.com/facilita/facil-cli/pkg/errors"
	"github.com/facilita/facil-cli/pkg/session"
)

// SaveMeeting persists an end-of-meeting snapshot. The filename is the
// snapshot's unix-millisecond id.
func (s *Store) SaveMeeting(snap session.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("meeting snapshot has no id: %w", fcerrors.ErrValidation)
	}
	if err := writeJSON(s.meetingPath(snap.ID), snap); err != nil {
		return fmt.Errorf("saving meeting %s: %w", snap.ID, err)
	}
	return nil
}

// SaveMeetingDocument persists an externally supplied meeting document
// under the given timestamp id, without imposing the snapshot shape. The
// HTTP facade uses it for dashboard-submitted meeting data.
func (s *Store) SaveMeetingDocument(id string, doc interface{}) error {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return fmt.Errorf("meeting id %q: %w", id, fcerrors.ErrValidation)
	}
	if err := writeJSON(s.meetingPath(id), doc); err != nil {
		return fmt.Errorf("saving meeting %s: %w", id, err)
	}
	return nil
}

// GetMeeting reads one meeting snapshot by its timestamp id.
func (s *Store) GetMeeting(id string) (*session.Snapshot, error) {
	var snap session.Snapshot
	if err := readJSON(s.meetingPath(id), &snap); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("meeting %s: %w", id, fcerrors.ErrNotFound)
		}
		return nil, err
	}
	return &snap, nil
}

// ListMeetings returns all stored meeting snapshots, newest first. The
// timestamp ids are numeric, so ordering is by id descending.
func (s *Store) ListMeetings() ([]session.Snapshot, error) {
	entries, err := os.ReadDir(s.root + "/" + meetingsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []session.Snapshot{}, nil
		}
		return nil, fmt.Errorf("reading meetings directory: %w", err)
	}

	meetings := make([]session.Snapshot, 0, len(entries))
	for _, entry := range entries {
		m := agendaFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		var snap session.Snapshot
		if err := readJSON(s.meetingPath(m[1]), &snap); err != nil {
			return nil, fmt.Errorf("reading meeting %s: %w", m[1], err)
		}
		meetings = append(meetings, snap)
	}

	sort.Slice(meetings, func(i, j int) bool {
		a, _ := strconv.ParseInt(meetings[i].ID, 10, 64)
		b, _ := strconv.ParseInt(meetings[j].ID, 10, 64)
		return a > b
	})

	return meetings, nil
}
