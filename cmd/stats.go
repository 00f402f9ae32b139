package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/facilita/facil-cli/config"
)

// Stats command flags.
var statsOutputFormat string

// NewStatsCommand creates the root stats command with all subcommands.
func NewStatsCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show meeting statistics",
		Long: `Show the aggregated statistics behind the dashboard charts:
daily engagement and meetings per month. Sample data is shown until
real meetings have been recorded.

Examples:
  facil stats engagement
  facil stats meetings -o json`,
	}

	cmd.AddCommand(newStatsEngagementCommand(deps))
	cmd.AddCommand(newStatsMeetingsCommand(deps))

	return cmd
}

func newStatsEngagementCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engagement",
		Short: "Show the daily engagement trend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.load()
			if err != nil {
				return err
			}
			format, err := resolveFormat(cfg, statsOutputFormat)
			if err != nil {
				return err
			}

			points, err := deps.OpenStore(cfg).EngagementStats()
			if err != nil {
				return fmt.Errorf("reading engagement stats: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == config.OutputFormatJSON {
				return writeJSON(out, points)
			}

			fmt.Fprintf(out, "%-12s %-11s %s\n", "DATE", "ENGAGEMENT", "")
			for _, p := range points {
				fmt.Fprintf(out, "%-12s %3d%%        %s\n", p.Date, p.Engagement, bar(p.Engagement))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&statsOutputFormat, "output", "o", "", "Output format: text, json")
	return cmd
}

func newStatsMeetingsCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "Show meetings per month",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.load()
			if err != nil {
				return err
			}
			format, err := resolveFormat(cfg, statsOutputFormat)
			if err != nil {
				return err
			}

			months, err := deps.OpenStore(cfg).MeetingsStats()
			if err != nil {
				return fmt.Errorf("reading meetings stats: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == config.OutputFormatJSON {
				return writeJSON(out, months)
			}

			fmt.Fprintf(out, "%-6s %-9s %s\n", "MONTH", "MEETINGS", "")
			for _, m := range months {
				fmt.Fprintf(out, "%-6s %4d      %s\n", m.Month, m.Meetings, strings.Repeat("#", m.Meetings))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&statsOutputFormat, "output", "o", "", "Output format: text, json")
	return cmd
}

// bar renders a percentage as a 20-character gauge.
func bar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent / 5
	return strings.Repeat("#", filled) + strings.Repeat(".", 20-filled)
}
