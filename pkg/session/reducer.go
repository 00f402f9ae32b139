package session

import (
	"math"
	"time"
)

// Derived-metric bounds. The series caps keep the dashboard charts readable;
// the debounce collapses bursts of word tallies into one visible point.
const (
	engagementSeriesCap = 14
	engagementDebounce  = 2000 * time.Millisecond
	topicTimelineCap    = 10
)

// NoticeKind tags a one-shot signal emitted by the reducer.
type NoticeKind string

const (
	// NoticeOffTopic fires on the false→true off-topic transition.
	NoticeOffTopic NoticeKind = "off_topic"
	// NoticeBackOnTopic fires on the true→false off-topic transition.
	NoticeBackOnTopic NoticeKind = "back_on_topic"
	// NoticeTip fires for every new conversation tip.
	NoticeTip NoticeKind = "tip"
	// NoticeChecklistComplete fires once per transition into "all checked".
	NoticeChecklistComplete NoticeKind = "checklist_complete"
	// NoticeSnapshot carries the terminal snapshot when the session ends.
	NoticeSnapshot NoticeKind = "snapshot"
)

// Notice is a one-shot signal for the presentation layer. Signals are
// emitted alongside the next state instead of being broadcast ambiently, so
// a single consumer sees state and signal in one atomic step.
type Notice struct {
	Kind     NoticeKind
	Message  string
	Snapshot *Snapshot
}

// Options configures reducer behavior.
type Options struct {
	// CheckpointRefOneBased selects the numeric checkpoint-ref convention:
	// when true, ref 1 fulfills the first checklist item.
	CheckpointRefOneBased bool
}

// DefaultOptions returns the reducer defaults: 1-based checkpoint refs.
func DefaultOptions() Options {
	return Options{CheckpointRefOneBased: true}
}

// Reducer maps (Session, Event) to the next Session. It is a pure state
// transition function: no I/O, no goroutines, time injected by the caller.
type Reducer struct {
	opts Options
}

// NewReducer creates a reducer with the given options.
func NewReducer(opts Options) *Reducer {
	return &Reducer{opts: opts}
}

// Apply computes the next session state for one event. The input session is
// never mutated; now stamps any derived samples. Unknown events and events
// that reference nothing (bad index, unresolved ref) leave the state
// unchanged.
func (r *Reducer) Apply(s Session, ev Event, now time.Time) (Session, []Notice) {
	next := s.clone()
	var notices []Notice

	switch e := ev.(type) {
	case TimerTick:
		if next.Status == StatusRunning {
			next.ElapsedSeconds++
		}

	case TranscriptReceived:
		next.Transcripts = append(next.Transcripts, e.Text)

	case WordCountReported:
		if e.Count <= 0 {
			break
		}
		switch e.Speaker {
		case SpeakerHost:
			next.HostWords += e.Count
			next.recomputeEngagement(now)
		case SpeakerGuest:
			next.GuestWords += e.Count
			next.recomputeEngagement(now)
		}

	case CheckpointFulfilled:
		if idx, ok := e.Ref.Index(next.Checklist, r.opts.CheckpointRefOneBased); ok {
			next.Checklist[idx].Checked = true
		}

	case ChecklistToggled:
		if e.Index >= 0 && e.Index < len(next.Checklist) {
			next.Checklist[e.Index].Checked = !next.Checklist[e.Index].Checked
		}

	case TopicClassified:
		wasOffTopic := next.Topic.IsOffTopic
		next.Topic.IsOffTopic = e.IsOffTopic
		if e.Summary != nil {
			next.Topic.Summary = *e.Summary
		}
		if e.RelevantAgendaItem != nil {
			next.Topic.RelevantAgendaItem = *e.RelevantAgendaItem
		}
		if e.Recommendation != nil {
			next.Topic.Recommendation = *e.Recommendation
		}

		if e.Summary != nil {
			next.appendTopicEntry(now, *e.Summary, e.IsOffTopic)
		}

		if !wasOffTopic && e.IsOffTopic {
			notices = append(notices, Notice{Kind: NoticeOffTopic, Message: "Conversation drifted off topic"})
		}
		if wasOffTopic && !e.IsOffTopic {
			notices = append(notices, Notice{Kind: NoticeBackOnTopic, Message: "Back on topic"})
		}

	case ConversationTipReceived:
		next.ConversationTips = append(next.ConversationTips, e.Tip)
		notices = append(notices, Notice{Kind: NoticeTip, Message: e.Tip})

	case SessionStarted:
		next = New()
		next.Status = StatusRunning
		next.StartedAt = now
		next.Agenda = e.Agenda
		if e.Agenda != nil {
			next.Checklist = make([]ChecklistItem, len(e.Agenda.Checklist))
			for i, item := range e.Agenda.Checklist {
				next.Checklist[i] = ChecklistItem{Item: item}
			}
		}

	case SessionPaused:
		if next.Status == StatusRunning {
			next.Status = StatusPaused
		}

	case SessionResumed:
		if next.Status == StatusPaused {
			next.Status = StatusRunning
		}

	case SessionEnded:
		if next.Status != StatusNotStarted {
			snap := BuildSnapshot(next, now)
			notices = append(notices, Notice{Kind: NoticeSnapshot, Snapshot: &snap})
		}
		next = New()
	}

	// Checklist-complete is evaluated after every event so both checkpoint
	// fulfillment and local toggles can trigger or re-arm it.
	if next.allChecked() {
		if !next.celebrated {
			next.celebrated = true
			notices = append(notices, Notice{Kind: NoticeChecklistComplete, Message: "All checklist items completed"})
		}
	} else {
		next.celebrated = false
	}

	return next, notices
}

// recomputeEngagement recalculates the engagement percentage from the
// cumulative word counters and records a chart sample. The percentage is
// left untouched while no words have been counted. A sample arriving within
// the debounce window of the previous one replaces it, the later value wins.
func (s *Session) recomputeEngagement(now time.Time) {
	total := s.HostWords + s.GuestWords
	if total == 0 {
		return
	}
	s.EngagementPercent = int(math.Round(float64(s.GuestWords) / float64(total) * 100))

	sample := EngagementSample{At: now, Percent: s.EngagementPercent}
	if n := len(s.EngagementSeries); n > 0 && now.Sub(s.EngagementSeries[n-1].At) < engagementDebounce {
		s.EngagementSeries[n-1] = sample
		return
	}
	s.EngagementSeries = append(s.EngagementSeries, sample)
	if len(s.EngagementSeries) > engagementSeriesCap {
		s.EngagementSeries = s.EngagementSeries[len(s.EngagementSeries)-engagementSeriesCap:]
	}
}

// appendTopicEntry appends a timeline point unless it repeats the current
// last summary, trimming to the timeline cap.
func (s *Session) appendTopicEntry(now time.Time, summary string, offTopic bool) {
	if summary == "" {
		return
	}
	if n := len(s.TopicTimeline); n > 0 && s.TopicTimeline[n-1].Summary == summary {
		return
	}
	s.TopicTimeline = append(s.TopicTimeline, TopicEntry{At: now, Summary: summary, OffTopic: offTopic})
	if len(s.TopicTimeline) > topicTimelineCap {
		s.TopicTimeline = s.TopicTimeline[len(s.TopicTimeline)-topicTimelineCap:]
	}
}
