// Package main provides the facil CLI entry point.
// facil is the command-line interface for the Facilita meeting facilitation
// system: agenda generation, live meeting sessions, and meeting history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/facilita/facil-cli/cmd"
	"github.com/facilita/facil-cli/config"
	"github.com/facilita/facil-cli/pkg/buildinfo"
)

// Global flags.
var (
	backendURL   string
	dataDir      string
	streamURL    string
	timeout      time.Duration
	outputFormat string
	debug        bool
)

// deps is the shared dependency set handed to every command.
var deps = cmd.DefaultDeps()

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "facil",
	Short: "Facilita CLI - AI meeting facilitation",
	Long: `facil is the command-line interface for the Facilita meeting
facilitation system.

Facilita generates meeting agendas with an AI backend, runs live
meetings against a real-time transcription and analysis service, and
keeps a local history of agendas, meeting records, and statistics.

COMMON WORKFLOWS:
  Prepare a meeting:  facil agenda create --title ... --purpose ...  →  facil agenda accept
  Run a meeting:      facil meeting run --agenda <id> --audio capture.wav
  Review history:     facil meeting list  →  facil meeting show <id>
  Dashboard backend:  facil serve

DISCOVERY:
  facil <command> --help    Subcommands, flags, and examples for any command`,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		// Commands that never touch config.
		if c.Name() == "version" || c.Name() == "help" || c.Name() == "completion" {
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Command-line flags override file and environment.
		if backendURL != "" {
			cfg.BackendURL = backendURL
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if streamURL != "" {
			cfg.Stream.URL = streamURL
		}
		if timeout != 0 {
			cfg.Timeout = timeout
		}
		if outputFormat != "" {
			cfg.OutputFormat = config.OutputFormat(outputFormat)
		}
		if debug {
			cfg.Debug = true
		}

		deps.Config = cfg
		return nil
	},
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build time of the facil CLI.`,
	Run: func(c *cobra.Command, args []string) {
		info := buildinfo.Get("facil")
		fmt.Printf("facil version %s\n", info.Version)
		fmt.Printf("  commit:     %s\n", info.Commit)
		fmt.Printf("  built:      %s\n", info.BuildTime)
	},
}

// configCmd manages CLI configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and modify the facil CLI configuration settings.`,
}

// configShowCmd displays current configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(c *cobra.Command, args []string) error {
		cfg := deps.Config
		if cfg == nil {
			var err error
			cfg, err = config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
		}

		configPath, _ := config.ConfigPath()

		fmt.Println("Current configuration:")
		fmt.Printf("  Config file:     %s\n", configPath)
		fmt.Printf("  Data dir:        %s\n", cfg.DataDir)
		fmt.Printf("  Backend URL:     %s\n", cfg.BackendURL)
		fmt.Printf("  Stream URL:      %s\n", cfg.Stream.URL)
		fmt.Printf("  Serve address:   %s\n", cfg.ServeAddress)
		fmt.Printf("  Sample rate:     %d Hz\n", cfg.Stream.SampleRate)
		fmt.Printf("  Timeout:         %s\n", cfg.Timeout)
		fmt.Printf("  Output format:   %s\n", cfg.OutputFormat)
		fmt.Printf("  Debug:           %t\n", cfg.Debug)
		return nil
	},
}

// configInitCmd initializes configuration.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with default values if one doesn't exist.`,
	RunE: func(c *cobra.Command, args []string) error {
		configPath, err := config.ConfigPath()
		if err != nil {
			return fmt.Errorf("getting config path: %w", err)
		}

		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Configuration file already exists: %s\n", configPath)
			fmt.Println("Use 'facil config show' to view current settings.")
			return nil
		}

		defaultCfg := config.DefaultConfig()
		if err := defaultCfg.Save(); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Printf("Created configuration file: %s\n", configPath)
		return nil
	},
}

// configSetCmd sets a configuration value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

Available keys:
  data_dir       - Document store directory
  backend_url    - AI backend base URL
  stream_url     - Transcription service WebSocket URL
  serve_address  - Listen address for 'facil serve'
  sample_rate    - PCM sample rate in Hz
  timeout        - Backend request timeout (e.g., 30s, 2m)
  output_format  - Default output format (text, json)
  debug          - Enable debug logging (true/false)

Examples:
  facil config set backend_url http://localhost:8000
  facil config set stream_url ws://localhost:8765/ws
  facil config set output_format json`,
	Args: cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		currentCfg, err := config.LoadConfig()
		if err != nil {
			currentCfg = config.DefaultConfig()
		}

		switch key {
		case "data_dir":
			currentCfg.DataDir = value
		case "backend_url":
			currentCfg.BackendURL = value
		case "stream_url":
			currentCfg.Stream.URL = value
		case "serve_address":
			currentCfg.ServeAddress = value
		case "sample_rate":
			var rate int
			if _, err := fmt.Sscanf(value, "%d", &rate); err != nil || rate <= 0 {
				return fmt.Errorf("invalid sample rate: %s", value)
			}
			currentCfg.Stream.SampleRate = rate
		case "timeout":
			duration, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			currentCfg.Timeout = duration
		case "output_format":
			format := config.OutputFormat(value)
			if !format.IsValid() {
				return fmt.Errorf("invalid output format: %s (must be text or json)", value)
			}
			currentCfg.OutputFormat = format
		case "debug":
			switch value {
			case "true", "1":
				currentCfg.Debug = true
			case "false", "0":
				currentCfg.Debug = false
			default:
				return fmt.Errorf("invalid debug value: %s (must be true or false)", value)
			}
		default:
			return fmt.Errorf("unknown configuration key: %s", key)
		}

		if err := currentCfg.Save(); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for facil.

To load completions:

Bash:
  $ source <(facil completion bash)

Zsh:
  $ facil completion zsh > "${fpath[1]}/_facil"

Fish:
  $ facil completion fish | source

PowerShell:
  PS> facil completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(c *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "AI backend base URL")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "document store directory")
	rootCmd.PersistentFlags().StringVar(&streamURL, "stream", "", "transcription service WebSocket URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "backend request timeout (e.g., 30s, 2m)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "", "output format: text, json")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "meetings", Title: "Meetings:"},
		&cobra.Group{ID: "ops", Title: "Operations:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	agendaCmd := cmd.NewAgendaCommand(deps)
	agendaCmd.GroupID = "meetings"
	rootCmd.AddCommand(agendaCmd)

	meetingCmd := cmd.NewMeetingCommand(deps)
	meetingCmd.GroupID = "meetings"
	rootCmd.AddCommand(meetingCmd)

	statsCmd := cmd.NewStatsCommand(deps)
	statsCmd.GroupID = "meetings"
	rootCmd.AddCommand(statsCmd)

	serveCmd := cmd.NewServeCommand(deps)
	serveCmd.GroupID = "ops"
	rootCmd.AddCommand(serveCmd)

	configCmd.GroupID = "setup"
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)

	completionCmd.GroupID = "setup"
	rootCmd.AddCommand(completionCmd)

	versionCmd.GroupID = "setup"
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
