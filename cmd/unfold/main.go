package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Build variables - set by ldflags during build.
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
	var configPath string

	root := &cobra.Command{
		Use:   "unfold",
		Short: "Observatory deployment simulation engine",
		Long: `unfold replays the observatory deployment sequence as a deterministic
simulation. It runs the playback controller and exposes it over an HTTP API
and a Unix socket for the unfold-tui dashboard.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	root.SetVersionTemplate(versionText("unfold - Deployment Simulation Service"))
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $HOME/.config/unfold/config.yml)")

	root.AddCommand(newProfileCmd(&configPath))
	return root
}

func versionText(title string) string {
	return fmt.Sprintf("%s\n  Version:    %s\n  Commit:     %s\n  Built:      %s\n  Go version: %s\n",
		title, version, commit, buildTime, runtime.Version())
}
