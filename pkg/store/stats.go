package store

import (
	"fmt"
	"os"
	"time"

	"github.com/facilita/facil-cli/pkg/session"
)

// Stats document filenames under stats/.
const (
	engagementStatsFile = "user-engagement"
	meetingsStatsFile   = "monthly-meetings"
)

// EngagementPoint is one day of the engagement trend chart.
type EngagementPoint struct {
	Date       string `json:"date"`
	Engagement int    `json:"engagement"`
}

// MonthlyMeetings is one month of the meetings-per-month chart.
type MonthlyMeetings struct {
	Month    string `json:"month"`
	Meetings int    `json:"meetings"`
}

// sampleEngagement is served when no engagement history exists yet, so
// the dashboard chart is never empty on a fresh install.
func sampleEngagement() []EngagementPoint {
	return []EngagementPoint{
		{Date: "2023-10-01", Engagement: 45},
		{Date: "2023-10-02", Engagement: 52},
		{Date: "2023-10-03", Engagement: 38},
		{Date: "2023-10-04", Engagement: 62},
		{Date: "2023-10-05", Engagement: 57},
		{Date: "2023-10-06", Engagement: 43},
		{Date: "2023-10-07", Engagement: 25},
	}
}

func sampleMonthlyMeetings() []MonthlyMeetings {
	return []MonthlyMeetings{
		{Month: "Jan", Meetings: 12},
		{Month: "Feb", Meetings: 15},
		{Month: "Mar", Meetings: 18},
		{Month: "Apr", Meetings: 13},
		{Month: "May", Meetings: 22},
		{Month: "Jun", Meetings: 19},
		{Month: "Jul", Meetings: 25},
		{Month: "Aug", Meetings: 16},
		{Month: "Sep", Meetings: 20},
		{Month: "Oct", Meetings: 23},
		{Month: "Nov", Meetings: 0},
		{Month: "Dec", Meetings: 0},
	}
}

// EngagementStats reads the engagement trend, falling back to sample data
// when none has been recorded.
func (s *Store) EngagementStats() ([]EngagementPoint, error) {
	var points []EngagementPoint
	if err := readJSON(s.statsPath(engagementStatsFile), &points); err != nil {
		if os.IsNotExist(err) {
			return sampleEngagement(), nil
		}
		return nil, fmt.Errorf("reading engagement stats: %w", err)
	}
	return points, nil
}

// MeetingsStats reads the meetings-per-month chart, falling back to
// sample data when none has been recorded.
func (s *Store) MeetingsStats() ([]MonthlyMeetings, error) {
	var months []MonthlyMeetings
	if err := readJSON(s.statsPath(meetingsStatsFile), &months); err != nil {
		if os.IsNotExist(err) {
			return sampleMonthlyMeetings(), nil
		}
		return nil, fmt.Errorf("reading meetings stats: %w", err)
	}
	return months, nil
}

// RecordMeeting folds one finished meeting into both stats documents: the
// snapshot's engagement becomes (or replaces) that day's trend point, and
// the month's meeting count increments. The sample data is never written
// back; stats files start from the real history.
func (s *Store) RecordMeeting(snap session.Snapshot, endedAt time.Time) error {
	day := endedAt.UTC().Format("2006-01-02")

	var points []EngagementPoint
	if err := readJSON(s.statsPath(engagementStatsFile), &points); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading engagement stats: %w", err)
	}
	replaced := false
	for i := range points {
		if points[i].Date == day {
			points[i].Engagement = snap.Engagement
			replaced = true
			break
		}
	}
	if !replaced {
		points = append(points, EngagementPoint{Date: day, Engagement: snap.Engagement})
	}
	if err := writeJSON(s.statsPath(engagementStatsFile), points); err != nil {
		return fmt.Errorf("writing engagement stats: %w", err)
	}

	var months []MonthlyMeetings
	if err := readJSON(s.statsPath(meetingsStatsFile), &months); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading meetings stats: %w", err)
	}
	monthName := endedAt.UTC().Format("Jan")
	bumped := false
	for i := range months {
		if months[i].Month == monthName {
			months[i].Meetings++
			bumped = true
			break
		}
	}
	if !bumped {
		months = append(months, MonthlyMeetings{Month: monthName, Meetings: 1})
	}
	if err := writeJSON(s.statsPath(meetingsStatsFile), months); err != nil {
		return fmt.Errorf("writing meetings stats: %w", err)
	}

	return nil
}
