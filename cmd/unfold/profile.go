package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tinytelemetry/unfold/internal/catalog"
	"github.com/tinytelemetry/unfold/internal/duckdb"
	"github.com/tinytelemetry/unfold/internal/logging"
	"github.com/tinytelemetry/unfold/internal/profile"
)

func newProfileCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Sample the deployment motion profile into a DuckDB file",
		Long: `profile evaluates the deployment at evenly spaced progress values and
replaces the motion_profile and milestones tables of the target database.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().String("db-path", "", "DuckDB file to write (default from config)")
	cmd.Flags().Int("samples", 0, "number of progress samples, endpoints included")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(*configPath, func(v *viper.Viper) error {
			if err := v.BindPFlag("db-path", cmd.Flags().Lookup("db-path")); err != nil {
				return err
			}
			return v.BindPFlag("profile-samples", cmd.Flags().Lookup("samples"))
		})
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return runProfile(cmd.Context(), cfg)
	}
	return cmd
}

func runProfile(ctx context.Context, cfg appConfig) error {
	if cfg.DBPath == "" {
		return fmt.Errorf("db-path is required")
	}

	logger, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel, Console: os.Stderr})
	if err != nil {
		return err
	}
	defer closeLog()

	engine, err := catalog.Load(cfg.TimelineFile, cfg.ScheduleFile)
	if err != nil {
		return fmt.Errorf("loading deployment catalog: %w", err)
	}

	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()
	store.Logger = logger

	if err := profile.Export(ctx, store, engine, cfg.ProfileSamples, logger); err != nil {
		return err
	}

	counts, err := store.TableRowCounts()
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d samples, %d milestones\n", shortenPath(cfg.DBPath), counts["motion_profile"], counts["milestones"])
	return nil
}
