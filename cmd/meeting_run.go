package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/facilita/facil-cli/config"
	"github.com/facilita/facil-cli/pkg/audio"
	"github.com/facilita/facil-cli/pkg/runner"
	"github.com/facilita/facil-cli/pkg/session"
	"github.com/facilita/facil-cli/pkg/store"
	"github.com/facilita/facil-cli/pkg/stream"
)

func newMeetingRunCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a live meeting session",
		Long: `Run a live meeting session against the transcription service.

Audio from --audio (WAV or raw 16-bit PCM; '-' reads raw PCM from
stdin) is streamed out while transcripts, engagement, checklist
progress, and topic analysis stream back in. When the meeting ends a
snapshot is recorded in the meeting history.

Keys during the session:
  s           start the meeting
  p           pause / resume
  1-9         toggle a checklist item
  e           end the meeting (records the snapshot)
  q, ctrl-c   quit

With stdin audio the keyboard is unavailable; the session starts
immediately and ends on interrupt.

Examples:
  facil meeting run --agenda 1777714200000 --audio capture.wav
  arecord -f S16_LE -r 16000 -c 1 | facil meeting run --audio -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeeting(cmd, deps)
		},
	}

	cmd.Flags().StringVar(&meetingAgendaID, "agenda", "", "Agenda id to run the meeting against")
	cmd.Flags().StringVar(&meetingAudioFile, "audio", "", "Audio input: WAV/PCM file, or '-' for stdin")
	return cmd
}

func runMeeting(cmd *cobra.Command, deps *Deps) error {
	cfg, err := deps.load()
	if err != nil {
		return err
	}

	log, closeLog := newLogger(cfg, "meeting")
	defer closeLog()

	st := deps.OpenStore(cfg)

	var agenda *session.Agenda
	if meetingAgendaID != "" {
		doc, err := st.GetAgenda(meetingAgendaID)
		if err != nil {
			return err
		}
		agenda = doc.ToSession()
	}

	src, frames, err := openAudio(cfg)
	if err != nil {
		return err
	}

	streamClient := stream.NewClient(stream.Config{
		URL: cfg.Stream.URL,
		Backoff: stream.BackoffPolicy{
			Initial:    cfg.Stream.InitialBackoff,
			Max:        cfg.Stream.MaxBackoff,
			Multiplier: cfg.Stream.BackoffMultiplier,
		},
	}, agenda, frames, log, nil)

	run := runner.New(runner.Options{
		Stream:      streamClient,
		Audio:       src,
		Persist:     persistMeeting(st),
		RecoveryDir: filepath.Join(cfg.DataDir, "recovery"),
		Session:     session.Options{CheckpointRefOneBased: cfg.Session.CheckpointRefOneBased},
		Logger:      log,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go streamClient.Run(ctx)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		run.Run(ctx)
	}()

	out := cmd.OutOrStdout()
	interactive := meetingAudioFile != "-" && term.IsTerminal(int(os.Stdin.Fd()))

	if interactive {
		fmt.Fprintln(out, "Press 's' to start the meeting, 'q' to quit.")
	} else {
		run.Dispatch(session.SessionStarted{Agenda: agenda})
	}

	keys := make(chan byte, 8)
	restoreTerm := func() {}
	if interactive {
		oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("enabling raw keyboard mode: %w", err)
		}
		restoreTerm = func() { term.Restore(int(os.Stdin.Fd()), oldState) }
		go readKeys(keys)
	}
	defer restoreTerm()

	dash := newDashboard(out)
	for {
		select {
		case <-ctx.Done():
			run.Close()
			<-runDone
			dash.finish()
			return nil

		case <-runDone:
			dash.finish()
			return nil

		case state, ok := <-run.States():
			if ok {
				dash.render(state)
			}

		case n, ok := <-run.Notices():
			if ok {
				dash.notice(n)
			}

		case key := <-keys:
			if done := handleKey(run, agenda, key, dash); done {
				cancel()
				<-runDone
				dash.finish()
				return nil
			}
		}
	}
}

// openAudio resolves the --audio flag into a source.
func openAudio(cfg *config.Config) (audio.Source, <-chan []byte, error) {
	opts := audio.Options{SampleRate: cfg.Stream.SampleRate}

	switch meetingAudioFile {
	case "":
		return nil, nil, nil
	case "-":
		src := audio.NewStdinSource(opts)
		return src, src.Frames(), nil
	default:
		src, err := audio.Open(meetingAudioFile, opts)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Frames(), nil
	}
}

// persistMeeting stores the snapshot and folds it into the stats charts.
func persistMeeting(st *store.Store) runner.PersistFunc {
	return func(snap session.Snapshot) error {
		if err := st.SaveMeeting(snap); err != nil {
			return err
		}
		ms, err := strconv.ParseInt(snap.ID, 10, 64)
		if err != nil {
			return err
		}
		return st.RecordMeeting(snap, time.UnixMilli(ms))
	}
}

// readKeys forwards single keypresses from raw-mode stdin.
func readKeys(keys chan<- byte) {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n > 0 {
			keys <- buf[0]
		}
	}
}

// handleKey dispatches one keypress; returns true when the session is over.
func handleKey(run *runner.Runner, agenda *session.Agenda, key byte, dash *dashboard) bool {
	switch key {
	case 's':
		run.Dispatch(session.SessionStarted{Agenda: agenda})
	case 'p', ' ':
		dash.togglePause(run)
	case 'e':
		run.Dispatch(session.SessionEnded{})
	case 'q', 3: // ctrl-c in raw mode
		run.Dispatch(session.SessionEnded{})
		return true
	default:
		if key >= '1' && key <= '9' {
			run.Dispatch(session.ChecklistToggled{Index: int(key - '1')})
		}
	}
	return false
}

// dashboard renders the rolling one-line session view. Notices are
// printed on their own lines above the status line.
type dashboard struct {
	out  io.Writer
	last session.Session
	seen bool
}

func newDashboard(out io.Writer) *dashboard {
	return &dashboard{out: out}
}

func (d *dashboard) render(s session.Session) {
	d.last = s
	d.seen = true

	checked, total := s.ChecklistDone()
	line := fmt.Sprintf("[%s] %s  engagement %d%%  checklist %d/%d",
		s.Status, session.FormatDuration(s.ElapsedSeconds), s.EngagementPercent, checked, total)
	if s.Topic.IsOffTopic {
		line += "  OFF TOPIC"
		if s.Topic.Recommendation != "" {
			line += ": " + s.Topic.Recommendation
		}
	}
	fmt.Fprintf(d.out, "\r\033[K%s", truncate(line, 120))
}

func (d *dashboard) notice(n session.Notice) {
	if n.Kind == session.NoticeSnapshot {
		return
	}
	fmt.Fprintf(d.out, "\r\033[K  * %s\r\n", n.Message)
	if d.seen {
		d.render(d.last)
	}
}

// togglePause flips between pause and resume based on the last state.
func (d *dashboard) togglePause(run *runner.Runner) {
	if d.last.Status == session.StatusPaused {
		run.Dispatch(session.SessionResumed{})
		return
	}
	run.Dispatch(session.SessionPaused{})
}

func (d *dashboard) finish() {
	fmt.Fprint(d.out, "\r\n")
}
