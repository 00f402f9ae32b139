// Package session implements the live meeting session state machine.
//
// A Session is derived state over a stream of events: a 1-second timer tick
// plus the transcription service's analysis messages (transcripts, word
// tallies, checklist checkpoints, topic classification, conversation tips).
// The Reducer applies one event at a time and returns the next state along
// with any one-shot notices; it owns no goroutines and performs no I/O, so
// every derived metric is deterministic and testable.
package session

import "time"

// Status is the lifecycle state of a session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusPaused     Status = "paused"
)

// Speaker identifies who a word tally belongs to.
type Speaker string

const (
	SpeakerHost  Speaker = "host"
	SpeakerGuest Speaker = "guest"
)

// TimePlanEntry is one row of an agenda time plan. Slot encodes the
// planned window as "mm:ss - mm:ss".
type TimePlanEntry struct {
	Slot     string `json:"slot"`
	Activity string `json:"activity"`
}

// Agenda is the read-only meeting agenda a session runs against.
type Agenda struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Datetime        time.Time       `json:"datetime"`
	Content         string          `json:"content,omitempty"`
	Checklist       []string        `json:"checklist"`
	TimePlan        []TimePlanEntry `json:"time_plan,omitempty"`
	PreparationTips []string        `json:"preparation_tips,omitempty"`
	Attachments     []string        `json:"attachments,omitempty"`
}

// ChecklistItem is one agenda checklist entry with its fulfillment state.
type ChecklistItem struct {
	Item    string `json:"item"`
	Checked bool   `json:"checked"`
}

// Topic is the last-known topic classification from the analysis service.
type Topic struct {
	IsOffTopic         bool   `json:"is_offtopic"`
	Summary            string `json:"summary,omitempty"`
	RelevantAgendaItem string `json:"relevant_agenda_item,omitempty"`
	Recommendation     string `json:"recommendation,omitempty"`
}

// EngagementSample is one point of the rolling engagement chart.
type EngagementSample struct {
	At      time.Time `json:"at"`
	Percent int       `json:"percent"`
}

// TopicEntry is one point of the topic timeline.
type TopicEntry struct {
	At       time.Time `json:"at"`
	Summary  string    `json:"summary"`
	OffTopic bool      `json:"off_topic"`
}

// Session is the full derived state of one live meeting.
// It is mutated exclusively through Reducer.Apply; readers get copies.
type Session struct {
	Status         Status    `json:"status"`
	StartedAt      time.Time `json:"started_at,omitzero"`
	ElapsedSeconds int       `json:"elapsed_seconds"`

	HostWords         int                `json:"host_words"`
	GuestWords        int                `json:"guest_words"`
	EngagementPercent int                `json:"engagement_percent"`
	EngagementSeries  []EngagementSample `json:"engagement_series"`

	Agenda    *Agenda         `json:"agenda,omitempty"`
	Checklist []ChecklistItem `json:"checklist"`

	Topic         Topic        `json:"topic"`
	TopicTimeline []TopicEntry `json:"topic_timeline"`

	ConversationTips []string `json:"conversation_tips"`
	Transcripts      []string `json:"transcripts"`

	// celebrated arms the one-shot checklist-complete signal. It is reset
	// whenever any item becomes unchecked so completion can fire again.
	celebrated bool
}

// New returns a fresh, not-started session.
func New() Session {
	return Session{Status: StatusNotStarted}
}

// Running reports whether the session timer is ticking.
func (s *Session) Running() bool {
	return s.Status == StatusRunning
}

// ChecklistDone returns the number of checked items and the total.
func (s *Session) ChecklistDone() (checked, total int) {
	for _, item := range s.Checklist {
		if item.Checked {
			checked++
		}
	}
	return checked, len(s.Checklist)
}

// allChecked reports whether the checklist is non-empty and fully checked.
func (s *Session) allChecked() bool {
	if len(s.Checklist) == 0 {
		return false
	}
	for _, item := range s.Checklist {
		if !item.Checked {
			return false
		}
	}
	return true
}

// clone returns a deep copy of the session so the reducer never aliases
// slices with a state already handed to observers.
func (s Session) clone() Session {
	out := s
	out.EngagementSeries = append([]EngagementSample(nil), s.EngagementSeries...)
	out.Checklist = append([]ChecklistItem(nil), s.Checklist...)
	out.TopicTimeline = append([]TopicEntry(nil), s.TopicTimeline...)
	out.ConversationTips = append([]string(nil), s.ConversationTips...)
	out.Transcripts = append([]string(nil), s.Transcripts...)
	return out
}
