// Package runner drives one live meeting session. A single goroutine
// serializes every state mutation: the 1-second elapsed timer, the
// transcription stream's events, and operator commands all funnel into
// the same reducer loop, so observers only ever see consistent states.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	fcerrors "github.com/facilita/facil-cli/pkg/errors"
	"github.com/facilita/facil-cli/pkg/logging"
	"github.com/facilita/facil-cli/pkg/session"
)

// DefaultTickInterval is the elapsed-time resolution of a session.
const DefaultTickInterval = time.Second

// StreamSource is the inbound event feed, normally the stream client.
type StreamSource interface {
	Events() <-chan session.Event
	Close() error
}

// PersistFunc stores an end-of-meeting snapshot.
type PersistFunc func(session.Snapshot) error

// Options configures a Runner.
type Options struct {
	// Stream feeds analysis events into the loop. Optional; a session
	// can run offline with only the timer and operator commands.
	Stream StreamSource

	// Audio is released as the final teardown step. Optional.
	Audio io.Closer

	// Persist stores end-of-meeting snapshots. Optional.
	Persist PersistFunc

	// RecoveryDir receives spooled snapshots when persistence fails
	// twice. Empty disables spooling.
	RecoveryDir string

	// Session configures reducer behavior.
	Session session.Options

	// TickInterval overrides the timer resolution, for tests.
	TickInterval time.Duration

	Logger logging.Logger
	Clock  func() time.Time
}

// Runner owns the session loop for one live meeting.
type Runner struct {
	id      string
	opts    Options
	reducer *session.Reducer

	commands chan session.Event
	states   chan session.Session
	notices  chan session.Notice

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a runner. Run must be called to start the loop.
func New(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}

	id := uuid.New().String()
	return &Runner{
		id:       id,
		opts:     opts,
		reducer:  session.NewReducer(opts.Session),
		commands: make(chan session.Event, 16),
		states:   make(chan session.Session, 16),
		notices:  make(chan session.Notice, 16),
		done:     make(chan struct{}),
	}
}

// States is the snapshot channel: one state per applied event. Slow
// observers miss intermediate states rather than stalling the loop.
func (r *Runner) States() <-chan session.Session {
	return r.states
}

// Notices is the one-shot signal channel (topic transitions, tips,
// checklist completion). Delivery is best-effort like States.
func (r *Runner) Notices() <-chan session.Notice {
	return r.notices
}

// Dispatch injects an operator command (start, pause, checklist toggle)
// into the loop.
func (r *Runner) Dispatch(ev session.Event) error {
	select {
	case <-r.done:
		return fmt.Errorf("session loop stopped: %w", fcerrors.ErrInvalidState)
	case r.commands <- ev:
		return nil
	}
}

// Close stops the loop. Safe to call more than once.
func (r *Runner) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Run executes the session loop until the context is cancelled or Close
// is called. Teardown is ordered: the timer stops first, then the stream
// closes, then the audio source is released; each step runs even if an
// earlier one fails.
func (r *Runner) Run(ctx context.Context) error {
	log := r.opts.Logger.With(logging.F("run_id", r.id))
	log.Info("session loop started")

	if r.opts.Audio != nil {
		defer func() {
			if err := r.opts.Audio.Close(); err != nil {
				log.Warn("releasing audio source failed", logging.Err(err))
			}
		}()
	}
	if r.opts.Stream != nil {
		defer func() {
			if err := r.opts.Stream.Close(); err != nil {
				log.Warn("closing stream failed", logging.Err(err))
			}
		}()
	}

	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()

	var streamEvents <-chan session.Event
	if r.opts.Stream != nil {
		streamEvents = r.opts.Stream.Events()
	}

	state := session.New()
	defer close(r.states)
	defer close(r.notices)

	for {
		select {
		case <-ctx.Done():
			log.Info("session loop stopped", logging.F("reason", "context"))
			return nil

		case <-r.done:
			log.Info("session loop stopped", logging.F("reason", "close"))
			return nil

		case <-ticker.C:
			if state.Running() {
				state = r.apply(log, state, session.TimerTick{})
			}

		case ev, ok := <-streamEvents:
			if !ok {
				streamEvents = nil
				continue
			}
			state = r.apply(log, state, ev)

		case ev := <-r.commands:
			state = r.apply(log, state, ev)
		}
	}
}

// apply runs one event through the reducer and fans out the results.
func (r *Runner) apply(log logging.Logger, state session.Session, ev session.Event) session.Session {
	next, notices := r.reducer.Apply(state, ev, r.opts.Clock())

	for _, n := range notices {
		if n.Kind == session.NoticeSnapshot && n.Snapshot != nil {
			r.persistSnapshot(log, *n.Snapshot)
		}
		select {
		case r.notices <- n:
		default:
		}
	}

	select {
	case r.states <- next:
	default:
	}

	return next
}

// persistSnapshot stores the terminal record, retrying once. A second
// failure is reported as a warning and the snapshot is spooled to the
// recovery directory so the meeting record is never silently lost.
func (r *Runner) persistSnapshot(log logging.Logger, snap session.Snapshot) {
	if r.opts.Persist == nil {
		return
	}

	err := r.opts.Persist(snap)
	if err != nil {
		log.Warn("snapshot persist failed, retrying", logging.Err(err))
		err = r.opts.Persist(snap)
	}
	if err == nil {
		log.Info("meeting snapshot persisted", logging.F("meeting_id", snap.ID))
		return
	}

	log.Warn("snapshot persist failed after retry", logging.Err(err), logging.F("meeting_id", snap.ID))
	if path, spoolErr := r.spool(snap); spoolErr != nil {
		log.Error("snapshot recovery spool failed", logging.Err(spoolErr), logging.F("meeting_id", snap.ID))
	} else if path != "" {
		log.Warn("snapshot spooled for recovery", logging.F("path", path))
	}
}

// spool writes the snapshot to the recovery directory.
func (r *Runner) spool(snap session.Snapshot) (string, error) {
	if r.opts.RecoveryDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(r.opts.RecoveryDir, 0o755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(r.opts.RecoveryDir, "recovery-"+snap.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
