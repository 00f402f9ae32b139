package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/facilita/facil-cli/client"
	"github.com/facilita/facil-cli/config"
	"github.com/facilita/facil-cli/pkg/store"
)

// Agenda command flags.
var (
	agendaOutputFormat string
	agendaTitle        string
	agendaPurpose      string
	agendaContext      string
	agendaDuration     string
	agendaType         string
	agendaParticipants []string
	agendaChecklist    []string
	agendaPrepTips     []string
)

// draftFileName is the working agenda draft in the config directory. The
// create/chat/accept cycle operates on it, mirroring the web flow where a
// generated agenda is refined before acceptance.
const draftFileName = "draft.json"

// NewAgendaCommand creates the root agenda command with all subcommands.
func NewAgendaCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Create and manage meeting agendas",
		Long: `Create and manage meeting agendas.

Agendas are generated by the AI backend from a meeting brief, refined
through chat, and accepted into the local store. Stored agendas drive
live meetings ('facil meeting run --agenda <id>').

Typical flow:
  facil agenda create --title "Q2 Review" --purpose "Review targets" --duration 01:00:00
  facil agenda chat "add a budget discussion item"
  facil agenda accept
  facil agenda list`,
		Aliases: []string{"agendas"},
	}

	cmd.AddCommand(newAgendaListCommand(deps))
	cmd.AddCommand(newAgendaShowCommand(deps))
	cmd.AddCommand(newAgendaCreateCommand(deps))
	cmd.AddCommand(newAgendaChatCommand(deps))
	cmd.AddCommand(newAgendaAcceptCommand(deps))
	cmd.AddCommand(newAgendaUpdateCommand(deps))

	return cmd
}

func newAgendaListCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored agendas",
		Long: `List stored agendas, newest first.

Examples:
  facil agenda list
  facil agenda list -o json`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.load()
			if err != nil {
				return err
			}
			format, err := resolveFormat(cfg, agendaOutputFormat)
			if err != nil {
				return err
			}

			agendas, err := deps.OpenStore(cfg).ListAgendas()
			if err != nil {
				return fmt.Errorf("listing agendas: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == config.OutputFormatJSON {
				return writeJSON(out, agendas)
			}

			if len(agendas) == 0 {
				fmt.Fprintln(out, "No agendas stored. Create one with 'facil agenda create'.")
				return nil
			}

			fmt.Fprintf(out, "%-15s %-17s %-40s %s\n", "ID", "DATE", "TITLE", "ITEMS")
			for _, a := range agendas {
				fmt.Fprintf(out, "%-15s %-17s %-40s %d\n",
					a.ID,
					a.Datetime.Local().Format("2006-01-02 15:04"),
					truncate(a.Title, 40),
					len(a.Checklist))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&agendaOutputFormat, "output", "o", "", "Output format: text, json")
	return cmd
}

func newAgendaShowCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one agenda in full",
		Long: `Show one stored agenda: checklist, time plan, preparation tips,
and participant insights.

Examples:
  facil agenda show 1777714200000
  facil agenda show 1777714200000 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.load()
			if err != nil {
				return err
			}
			format, err := resolveFormat(cfg, agendaOutputFormat)
			if err != nil {
				return err
			}

			agenda, err := deps.OpenStore(cfg).GetAgenda(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == config.OutputFormatJSON {
				return writeJSON(out, agenda)
			}

			printAgenda(out, agenda)
			return nil
		},
	}

	cmd.Flags().StringVarP(&agendaOutputFormat, "output", "o", "", "Output format: text, json")
	return cmd
}

func newAgendaCreateCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate an agenda draft from a meeting brief",
		Long: `Generate an agenda draft from a meeting brief via the AI backend.

The draft is kept as a working file until accepted; refine it with
'facil agenda chat' and persist it with 'facil agenda accept'.

Examples:
  facil agenda create --title "Q2 Review" --purpose "Review Q2 targets" --duration 01:00:00
  facil agenda create --title "Sales sync" --purpose "Pipeline review" \
    --duration 00:30:00 --participant "Ana (AE)" --participant "Sam (SE)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.load()
			if err != nil {
				return err
			}

			form := client.AgendaForm{
				Title:           agendaTitle,
				Purpose:         agendaPurpose,
				MeetingDuration: agendaDuration,
				Participants:    agendaParticipants,
			}
			if agendaContext != "" {
				form.Context = &agendaContext
			}
			if agendaType != "" {
				form.TypeOfMeeting = &agendaType
			}

			draft, err := deps.NewBackend(cfg).CreateAgenda(cmd.Context(), form)
			if err != nil {
				return fmt.Errorf("generating agenda: %w", err)
			}

			if err := saveDraft(draftState{Title: agendaTitle, Draft: *draft}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printDraft(out, agendaTitle, draft)
			fmt.Fprintln(out, "\nRefine with 'facil agenda chat \"...\"' or persist with 'facil agenda accept'.")
			return nil
		},
	}

	cmd.Flags().StringVar(&agendaTitle, "title", "", "Meeting title (required)")
	cmd.Flags().StringVar(&agendaPurpose, "purpose", "", "What the meeting should achieve (required)")
	cmd.Flags().StringVar(&agendaContext, "context", "", "Extra context for the generator")
	cmd.Flags().StringVar(&agendaDuration, "duration", "01:00:00", "Meeting duration (hh:mm:ss)")
	cmd.Flags().StringVar(&agendaType, "type", "", "Type of meeting (e.g. 'Sales Meeting')")
	cmd.Flags().StringArrayVar(&agendaParticipants, "participant", nil, "Participant, repeatable (e.g. 'Ana Perez (CTO)')")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("purpose")

	return cmd
}

func newAgendaChatCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Refine the working agenda draft",
		Long: `Send one refinement request to the AI backend for the working draft
created by 'facil agenda create'.

Examples:
  facil agenda chat "add a 10 minute Q&A at the end"
  facil agenda chat "drop the budget item, we covered it last week"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.load()
			if err != nil {
				return err
			}

			state, err := loadDraft()
			if err != nil {
				return err
			}

			messages := []client.ChatMessage{{Role: "user", Content: args[0]}}
			revised, err := deps.NewBackend(cfg).ChatAgenda(cmd.Context(), messages, &state.Draft)
			if err != nil {
				return fmt.Errorf("refining agenda: %w", err)
			}

			state.Draft = *revised
			if err := saveDraft(state); err != nil {
				return err
			}

			printDraft(cmd.OutOrStdout(), state.Title, revised)
			return nil
		},
	}
	return cmd
}

func newAgendaAcceptCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accept",
		Short: "Persist the working draft as a stored agenda",
		Long: `Persist the working draft into the agenda store. The agenda id is
the acceptance timestamp; the working draft is discarded afterwards.

Examples:
  facil agenda accept
  facil agenda accept --title "Renamed meeting"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.load()
			if err != nil {
				return err
			}

			state, err := loadDraft()
			if err != nil {
				return err
			}

			title := state.Title
			if agendaTitle != "" {
				title = agendaTitle
			}

			id, err := deps.OpenStore(cfg).SaveAgenda(state.Draft.ToDocument(title), time.Now())
			if err != nil {
				return fmt.Errorf("saving agenda: %w", err)
			}
			discardDraft()

			fmt.Fprintf(cmd.OutOrStdout(), "Agenda saved: %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&agendaTitle, "title", "", "Override the draft title")
	return cmd
}

func newAgendaUpdateCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a stored agenda",
		Long: `Update fields of a stored agenda. Only the provided flags change;
repeatable flags replace the whole list.

Examples:
  facil agenda update 1777714200000 --title "Renamed"
  facil agenda update 1777714200000 --checklist "Intro" --checklist "Demo" --checklist "Next steps"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.load()
			if err != nil {
				return err
			}

			var update store.AgendaUpdate
			if cmd.Flags().Changed("title") {
				update.Title = &agendaTitle
			}
			if cmd.Flags().Changed("checklist") {
				update.Checklist = &agendaChecklist
			}
			if cmd.Flags().Changed("prep-tip") {
				update.PreparationTips = &agendaPrepTips
			}
			if update.Title == nil && update.Checklist == nil && update.PreparationTips == nil {
				return fmt.Errorf("nothing to update: pass --title, --checklist, or --prep-tip")
			}

			agenda, err := deps.OpenStore(cfg).UpdateAgenda(args[0], update)
			if err != nil {
				return err
			}

			printAgenda(cmd.OutOrStdout(), agenda)
			return nil
		},
	}

	cmd.Flags().StringVar(&agendaTitle, "title", "", "New title")
	cmd.Flags().StringArrayVar(&agendaChecklist, "checklist", nil, "Checklist item, repeatable (replaces the list)")
	cmd.Flags().StringArrayVar(&agendaPrepTips, "prep-tip", nil, "Preparation tip, repeatable (replaces the list)")
	return cmd
}

// draftState is the working draft plus the brief's title.
type draftState struct {
	Title string             `json:"title"`
	Draft client.AgendaDraft `json:"draft"`
}

func draftPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, draftFileName), nil
}

func saveDraft(state draftState) error {
	path, err := draftPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing draft: %w", err)
	}
	return nil
}

func loadDraft() (draftState, error) {
	var state draftState

	path, err := draftPath()
	if err != nil {
		return state, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, fmt.Errorf("no working draft: run 'facil agenda create' first")
		}
		return state, fmt.Errorf("reading draft: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("parsing draft: %w", err)
	}
	return state, nil
}

func discardDraft() {
	if path, err := draftPath(); err == nil {
		os.Remove(path)
	}
}

// printDraft renders a generated draft.
func printDraft(out io.Writer, title string, draft *client.AgendaDraft) {
	if title != "" {
		fmt.Fprintf(out, "%s\n\n", title)
	}

	if len(draft.Checklist) > 0 {
		fmt.Fprintln(out, "Checklist:")
		for _, item := range draft.Checklist {
			fmt.Fprintf(out, "  [ ] %s\n", item)
		}
	}

	if len(draft.TimePlan) > 0 {
		fmt.Fprintln(out, "Time plan:")
		for _, tp := range draft.TimePlan {
			fmt.Fprintf(out, "  %s - %s  %s\n", tp.Start, tp.End, tp.Content)
		}
	}

	if len(draft.PreparationTips) > 0 {
		fmt.Fprintln(out, "Preparation tips:")
		for _, tip := range draft.PreparationTips {
			fmt.Fprintf(out, "  - %s\n", tip)
		}
	}

	if len(draft.ParticipantsInsights) > 0 {
		fmt.Fprintln(out, "Participant insights:")
		for _, in := range draft.ParticipantsInsights {
			fmt.Fprintf(out, "  %s: %s\n", in.Participant, in.Insight)
		}
	}
}

// printAgenda renders a stored agenda document.
func printAgenda(out io.Writer, a *store.Agenda) {
	fmt.Fprintf(out, "%s (%s)\n", a.Title, a.ID)
	fmt.Fprintf(out, "Date: %s\n\n", a.Datetime.Local().Format("2006-01-02 15:04"))

	if a.Content != "" {
		fmt.Fprintf(out, "%s\n\n", a.Content)
	}

	if len(a.Checklist) > 0 {
		fmt.Fprintln(out, "Checklist:")
		for _, item := range a.Checklist {
			fmt.Fprintf(out, "  [ ] %s\n", item)
		}
	}

	if len(a.TimePlan) > 0 {
		fmt.Fprintln(out, "Time plan:")
		for _, slot := range a.TimePlan {
			for window, activity := range slot {
				fmt.Fprintf(out, "  %s  %s\n", window, activity)
			}
		}
	}

	if len(a.PreparationTips) > 0 {
		fmt.Fprintln(out, "Preparation tips:")
		for _, tip := range a.PreparationTips {
			fmt.Fprintf(out, "  - %s\n", tip)
		}
	}

	if len(a.ParticipantInsights) > 0 {
		fmt.Fprintln(out, "Participant insights:")
		for _, in := range a.ParticipantInsights {
			fmt.Fprintf(out, "  %s: %s\n", in.Participant, in.Insight)
		}
	}
}
