package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fcerrors "github.com/facilita/facil-cli/pkg/errors"
	"github.com/facilita/facil-cli/pkg/session"
)

// fakeStream is a StreamSource backed by a plain channel.
type fakeStream struct {
	events chan session.Event

	mu     sync.Mutex
	closed bool
	onTear func()
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan session.Event, 16)}
}

func (f *fakeStream) Events() <-chan session.Event { return f.events }

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.onTear != nil {
		f.onTear()
	}
	return nil
}

// fakeAudio records its release for teardown-order assertions.
type fakeAudio struct {
	mu     sync.Mutex
	closed bool
	onTear func()
}

func (f *fakeAudio) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.onTear != nil {
		f.onTear()
	}
	return nil
}

// waitForState drains States until pred matches or the deadline hits.
func waitForState(t *testing.T, r *Runner, pred func(session.Session) bool) session.Session {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s, ok := <-r.States():
			if !ok {
				t.Fatal("state channel closed before condition was met")
			}
			if pred(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for state condition")
		}
	}
}

func startRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	if opts.TickInterval == 0 {
		opts.TickInterval = 10 * time.Millisecond
	}

	r := New(opts)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(context.Background())
	}()
	t.Cleanup(func() {
		r.Close()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("runner did not stop")
		}
	})
	return r
}

func TestTimerAdvancesOnlyWhileRunning(t *testing.T) {
	r := startRunner(t, Options{})

	// Before start, ticks do not reach the reducer at all.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, r.Dispatch(session.SessionStarted{}))
	waitForState(t, r, func(s session.Session) bool { return s.ElapsedSeconds >= 2 })

	require.NoError(t, r.Dispatch(session.SessionPaused{}))
	paused := waitForState(t, r, func(s session.Session) bool { return s.Status == session.StatusPaused })
	frozen := paused.ElapsedSeconds

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, r.Dispatch(session.SessionResumed{}))
	resumed := waitForState(t, r, func(s session.Session) bool { return s.Status == session.StatusRunning })
	assert.Equal(t, frozen, resumed.ElapsedSeconds, "pause freezes the clock")
}

func TestStreamEventsFlowThroughReducer(t *testing.T) {
	stream := newFakeStream()
	r := startRunner(t, Options{Stream: stream})

	require.NoError(t, r.Dispatch(session.SessionStarted{}))
	stream.events <- session.TranscriptReceived{Text: "hello"}
	stream.events <- session.WordCountReported{Count: 30, Speaker: session.SpeakerGuest}
	stream.events <- session.WordCountReported{Count: 10, Speaker: session.SpeakerHost}

	got := waitForState(t, r, func(s session.Session) bool { return s.EngagementPercent == 75 })
	assert.Equal(t, []string{"hello"}, got.Transcripts)
}

func TestStreamChannelCloseKeepsLoopAlive(t *testing.T) {
	stream := newFakeStream()
	r := startRunner(t, Options{Stream: stream})

	require.NoError(t, r.Dispatch(session.SessionStarted{}))
	close(stream.events)

	// Commands still work after the stream goes away.
	require.NoError(t, r.Dispatch(session.TranscriptReceived{Text: "still here"}))
	waitForState(t, r, func(s session.Session) bool { return len(s.Transcripts) == 1 })
}

func TestTeardownOrderStreamBeforeAudio(t *testing.T) {
	var mu sync.Mutex
	var order []string

	stream := newFakeStream()
	stream.onTear = func() {
		mu.Lock()
		order = append(order, "stream")
		mu.Unlock()
	}
	audio := &fakeAudio{onTear: func() {
		mu.Lock()
		order = append(order, "audio")
		mu.Unlock()
	}}

	r := New(Options{Stream: stream, Audio: audio, TickInterval: 10 * time.Millisecond})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(context.Background())
	}()

	r.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"stream", "audio"}, order)
}

func TestSnapshotPersistRetriesOnce(t *testing.T) {
	var calls int
	persist := func(session.Snapshot) error {
		calls++
		if calls == 1 {
			return errors.New("disk busy")
		}
		return nil
	}

	r := startRunner(t, Options{Persist: persist})
	require.NoError(t, r.Dispatch(session.SessionStarted{}))
	waitForState(t, r, func(s session.Session) bool { return s.Status == session.StatusRunning })

	require.NoError(t, r.Dispatch(session.SessionEnded{}))
	waitForState(t, r, func(s session.Session) bool { return s.Status == session.StatusNotStarted })

	assert.Equal(t, 2, calls)
}

func TestSnapshotSpoolsAfterSecondFailure(t *testing.T) {
	recoveryDir := filepath.Join(t.TempDir(), "recovery")
	persist := func(session.Snapshot) error { return errors.New("disk gone") }

	clock := func() time.Time { return time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC) }
	r := startRunner(t, Options{Persist: persist, RecoveryDir: recoveryDir, Clock: clock})

	require.NoError(t, r.Dispatch(session.SessionStarted{}))
	waitForState(t, r, func(s session.Session) bool { return s.Status == session.StatusRunning })
	require.NoError(t, r.Dispatch(session.SessionEnded{}))
	waitForState(t, r, func(s session.Session) bool { return s.Status == session.StatusNotStarted })

	entries, err := os.ReadDir(recoveryDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^recovery-\d+\.json$`, entries[0].Name())
}

func TestEndEmitsSnapshotNotice(t *testing.T) {
	r := startRunner(t, Options{})
	require.NoError(t, r.Dispatch(session.SessionStarted{Agenda: &session.Agenda{
		Title:     "Weekly Sync",
		Checklist: []string{"Review"},
	}}))
	waitForState(t, r, func(s session.Session) bool { return s.Status == session.StatusRunning })
	require.NoError(t, r.Dispatch(session.SessionEnded{}))

	timeout := time.After(5 * time.Second)
	for {
		select {
		case n, ok := <-r.Notices():
			require.True(t, ok, "notice channel closed early")
			if n.Kind == session.NoticeSnapshot {
				require.NotNil(t, n.Snapshot)
				assert.Equal(t, "Weekly Sync", n.Snapshot.Title)
				return
			}
		case <-timeout:
			t.Fatal("snapshot notice never arrived")
		}
	}
}

func TestDispatchAfterCloseFails(t *testing.T) {
	r := New(Options{TickInterval: 10 * time.Millisecond})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(context.Background())
	}()

	r.Close()
	<-done

	err := r.Dispatch(session.TimerTick{})
	assert.ErrorIs(t, err, fcerrors.ErrInvalidState)
}
