package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tinytelemetry/unfold/internal/catalog"
	"github.com/tinytelemetry/unfold/internal/logging"
	"github.com/tinytelemetry/unfold/internal/model"
	"github.com/tinytelemetry/unfold/internal/playback"
	"github.com/tinytelemetry/unfold/internal/socketrpc"
	"github.com/tinytelemetry/unfold/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, socketPath string
	var remote bool

	root := &cobra.Command{
		Use:   "unfold-tui",
		Short: "Terminal dashboard for the deployment simulation",
		Long: `unfold-tui renders the deployment simulation in the terminal. By default it
runs its own playback controller; with --remote (or --socket) it drives a
running unfold service over its Unix socket instead.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCLIConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cmd.Flags().Changed("socket") {
				cfg.SocketPath = socketPath
				remote = true
			}
			return runTUI(cfg, remote)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("unfold-tui - Dashboard Client\n  Version:    %s\n  Commit:     %s\n  Built:      %s\n  Go version: %s\n",
		version, commit, buildTime, runtime.Version()))
	root.Flags().StringVar(&configPath, "config", "", "config file (default is $HOME/.config/unfold/config.yml)")
	root.Flags().StringVar(&socketPath, "socket", "", "connect to the unfold service at this socket path")
	root.Flags().BoolVar(&remote, "remote", false, "connect to the unfold service on the configured socket")
	return root
}

func runTUI(cfg cliConfig, remote bool) error {
	logger, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer closeLog()

	engine, source, cleanup, err := openEngine(cfg, remote, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	dashboard := tui.NewDashboardModel(engine, cfg.RefreshInterval, source)
	app := tui.NewApp(tui.NewDashboardPage(dashboard), tui.NewTimelinePage(dashboard))

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// openEngine returns either a socket client for a running service or an
// in-process controller.
func openEngine(cfg cliConfig, remote bool, logger zerolog.Logger) (model.Engine, string, func(), error) {
	if remote {
		client, err := socketrpc.Dial(cfg.SocketPath)
		if err != nil {
			return nil, "", nil, fmt.Errorf("cannot connect to unfold service at %s: %w\nIs the unfold service running? Start it with: unfold", cfg.SocketPath, err)
		}
		logger.Info().Str("socket", cfg.SocketPath).Msg("tui connected to service")
		return client, "Socket", func() { client.Close() }, nil
	}

	evaluator, err := catalog.Load(cfg.TimelineFile, cfg.ScheduleFile)
	if err != nil {
		return nil, "", nil, fmt.Errorf("loading deployment catalog: %w", err)
	}
	ctrl := playback.New(evaluator, playback.Config{
		TickInterval: cfg.TickInterval,
		StepUnit:     cfg.StepUnit,
		TotalUnits:   cfg.TotalUnits,
		Speed:        cfg.Speed,
	}, playback.WithLogger(logger.With().Str("component", "playback").Logger()))
	return playback.Local{Controller: ctrl}, "Local", ctrl.Close, nil
}
