package session

import "strconv"

// Event is one state transition input. Variants are closed: the reducer
// ignores anything it does not recognize rather than failing.
type Event interface {
	isEvent()
}

// TimerTick advances the elapsed clock by one second while running.
type TimerTick struct{}

// TranscriptReceived appends one raw transcribed utterance.
type TranscriptReceived struct {
	Text string
}

// WordCountReported adds a word tally to the host or guest counter.
type WordCountReported struct {
	Count   int
	Speaker Speaker
}

// CheckpointRef identifies a checklist item either by number or by its
// exact item text. The analysis service sends both forms.
type CheckpointRef string

// Index resolves the ref against a checklist. Numeric refs (including
// numeric strings) are positional; oneBased selects whether ref 1 or ref 0
// names the first item. Non-numeric refs match by exact item text.
// ok is false when the ref resolves to nothing.
func (r CheckpointRef) Index(checklist []ChecklistItem, oneBased bool) (int, bool) {
	if n, err := strconv.Atoi(string(r)); err == nil {
		idx := n
		if oneBased {
			idx = n - 1
		}
		if idx >= 0 && idx < len(checklist) {
			return idx, true
		}
		return 0, false
	}
	if f, err := strconv.ParseFloat(string(r), 64); err == nil && f == float64(int(f)) {
		idx := int(f)
		if oneBased {
			idx--
		}
		if idx >= 0 && idx < len(checklist) {
			return idx, true
		}
		return 0, false
	}
	for i, item := range checklist {
		if item.Item == string(r) {
			return i, true
		}
	}
	return 0, false
}

// CheckpointFulfilled marks a checklist item as fulfilled by the analysis
// service. Unresolvable refs are ignored.
type CheckpointFulfilled struct {
	Ref CheckpointRef
}

// ChecklistToggled flips a checklist item from a local user action.
// Out-of-range indexes are ignored.
type ChecklistToggled struct {
	Index int
}

// TopicClassified updates the last-known topic state. Optional fields are
// pointers; nil means "not reported", which keeps the previous value.
type TopicClassified struct {
	IsOffTopic         bool
	Summary            *string
	RelevantAgendaItem *string
	Recommendation     *string
}

// ConversationTipReceived appends a facilitation tip.
type ConversationTipReceived struct {
	Tip string
}

// SessionStarted begins a new run, optionally against an agenda.
type SessionStarted struct {
	Agenda *Agenda
}

// SessionPaused suspends the timer.
type SessionPaused struct{}

// SessionResumed resumes the timer after a pause.
type SessionResumed struct{}

// SessionEnded finishes the run: the reducer emits a terminal snapshot
// notice and resets to the initial state.
type SessionEnded struct{}

func (TimerTick) isEvent()               {}
func (TranscriptReceived) isEvent()      {}
func (WordCountReported) isEvent()       {}
func (CheckpointFulfilled) isEvent()     {}
func (ChecklistToggled) isEvent()        {}
func (TopicClassified) isEvent()         {}
func (ConversationTipReceived) isEvent() {}
func (SessionStarted) isEvent()          {}
func (SessionPaused) isEvent()           {}
func (SessionResumed) isEvent()          {}
func (SessionEnded) isEvent()            {}
