package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/facilita/facil-cli/config"
)

// Meeting command flags.
var (
	meetingOutputFormat string
	meetingLimit        int
	meetingAgendaID     string
	meetingAudioFile    string
)

// NewMeetingCommand creates the root meeting command with all subcommands.
func NewMeetingCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Run live meetings and browse meeting history",
		Long: `Run live meetings and browse meeting history.

'facil meeting run' drives a live session: it streams audio to the
transcription service, folds the analysis events into the session state,
and records a snapshot when the meeting ends.

Examples:
  facil meeting run --agenda 1777714200000 --audio capture.wav
  facil meeting list
  facil meeting show 1777800600000`,
		Aliases: []string{"meetings"},
	}

	cmd.AddCommand(newMeetingRunCommand(deps))
	cmd.AddCommand(newMeetingListCommand(deps))
	cmd.AddCommand(newMeetingShowCommand(deps))

	return cmd
}

func newMeetingListCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded meetings",
		Long: `List recorded meetings, most recent first.

Examples:
  facil meeting list
  facil meeting list --limit 10
  facil meeting list -o json`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.load()
			if err != nil {
				return err
			}
			format, err := resolveFormat(cfg, meetingOutputFormat)
			if err != nil {
				return err
			}

			meetings, err := deps.OpenStore(cfg).ListMeetings()
			if err != nil {
				return fmt.Errorf("listing meetings: %w", err)
			}
			if meetingLimit > 0 && len(meetings) > meetingLimit {
				meetings = meetings[:meetingLimit]
			}

			out := cmd.OutOrStdout()
			if format == config.OutputFormatJSON {
				return writeJSON(out, meetings)
			}

			if len(meetings) == 0 {
				fmt.Fprintln(out, "No meetings recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-15s %-17s %-35s %-10s %-11s %s\n",
				"ID", "DATE", "TITLE", "DURATION", "ENGAGEMENT", "CHECKLIST")
			for _, m := range meetings {
				date := "-"
				if ms, err := strconv.ParseInt(m.ID, 10, 64); err == nil {
					date = time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(out, "%-15s %-17s %-35s %-10s %-11s %d/%d\n",
					m.ID, date, truncate(m.Title, 35), m.Duration,
					fmt.Sprintf("%d%%", m.Engagement), m.CompletedItems, m.TotalItems)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&meetingLimit, "limit", "l", 0, "Maximum number of results (0 = all)")
	cmd.Flags().StringVarP(&meetingOutputFormat, "output", "o", "", "Output format: text, json")
	return cmd
}

func newMeetingShowCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded meeting",
		Long: `Show one recorded meeting: metrics, checklist outcome, and the
full transcript.

Examples:
  facil meeting show 1777800600000
  facil meeting show 1777800600000 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.load()
			if err != nil {
				return err
			}
			format, err := resolveFormat(cfg, meetingOutputFormat)
			if err != nil {
				return err
			}

			snap, err := deps.OpenStore(cfg).GetMeeting(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == config.OutputFormatJSON {
				return writeJSON(out, snap)
			}

			fmt.Fprintf(out, "%s (%s)\n", snap.Title, snap.ID)
			fmt.Fprintf(out, "Date:        %s\n", snap.Date)
			fmt.Fprintf(out, "Duration:    %s\n", snap.Duration)
			fmt.Fprintf(out, "Engagement:  %d%%\n", snap.Engagement)
			fmt.Fprintf(out, "Checklist:   %d/%d\n", snap.CompletedItems, snap.TotalItems)

			if len(snap.Checklist) > 0 {
				fmt.Fprintln(out)
				for i, item := range snap.Checklist {
					mark := " "
					if i < len(snap.ChecklistChecked) && snap.ChecklistChecked[i] {
						mark = "x"
					}
					fmt.Fprintf(out, "  [%s] %s\n", mark, item)
				}
			}

			if len(snap.Transcripts) > 0 {
				fmt.Fprintln(out, "\nTranscript:")
				for _, line := range snap.Transcripts {
					fmt.Fprintf(out, "  %s\n", line)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&meetingOutputFormat, "output", "o", "", "Output format: text, json")
	return cmd
}
