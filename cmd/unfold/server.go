package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/unfold/internal/catalog"
	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/duckdb"
	"github.com/tinytelemetry/unfold/internal/httpserver"
	"github.com/tinytelemetry/unfold/internal/logging"
	"github.com/tinytelemetry/unfold/internal/playback"
	"github.com/tinytelemetry/unfold/internal/profile"
	"github.com/tinytelemetry/unfold/internal/socketrpc"
)

// runServer runs the playback controller with its HTTP and socket surfaces
// until the process is signalled.
func runServer(parent context.Context, cfg appConfig) error {
	logger, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer closeLog()

	engine, err := catalog.Load(cfg.TimelineFile, cfg.ScheduleFile)
	if err != nil {
		return fmt.Errorf("loading deployment catalog: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// The profile store is optional; the simulation runs without it.
	var store *duckdb.Store
	if cfg.DBPath != "" {
		store, err = openProfileStore(ctx, cfg, engine, logger)
		if err != nil {
			logger.Warn().Err(err).Str("db_path", cfg.DBPath).Msg("profile store disabled")
			store = nil
		} else {
			defer store.Close()
		}
	}

	ctrl := playback.New(engine, playback.Config{
		TickInterval: cfg.TickInterval,
		StepUnit:     cfg.StepUnit,
		TotalUnits:   cfg.TotalUnits,
		Speed:        cfg.Speed,
	}, playback.WithLogger(logger.With().Str("component", "playback").Logger()))
	defer ctrl.Close()
	local := playback.Local{Controller: ctrl}

	if cfg.APIEnabled {
		apiCfg := httpserver.Config{
			Addr:      cfg.APIAddr,
			Engine:    local,
			Notifier:  local,
			Evaluator: engine,
			Logger:    logger.With().Str("component", "http").Logger(),
		}
		if store != nil {
			apiCfg.Store = store
		}
		apiServer := httpserver.NewServer(apiCfg)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	// Socket RPC server for TUI IPC.
	sockServer := socketrpc.NewServer(cfg.SocketPath, local)
	sockServer.Logger = logger.With().Str("component", "socketrpc").Logger()
	if err := sockServer.Start(); err != nil {
		logger.Warn().Err(err).Msg("failed to start socket server")
	} else {
		defer sockServer.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		cleanupSocket(cfg.SocketPath)
		os.Exit(1)
	}()

	printStartupBanner(cfg, engine, store != nil)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		watchMilestones(gctx, local, logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server: errgroup exited with error")
	}
	return nil
}

func openProfileStore(ctx context.Context, cfg appConfig, engine *deploy.Engine, logger zerolog.Logger) (*duckdb.Store, error) {
	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	store.Logger = logger.With().Str("component", "duckdb").Logger()

	if err := profile.Export(ctx, store, engine, cfg.ProfileSamples, logger); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// watchMilestones logs each milestone change observed through the
// controller's notifications.
func watchMilestones(ctx context.Context, local playback.Local, logger zerolog.Logger) {
	ch, unsubscribe := local.Subscribe()
	defer unsubscribe()

	last := -1
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			snap := local.Controller.Snapshot()
			if snap.EventIndex == last {
				continue
			}
			last = snap.EventIndex
			logger.Info().
				Int("event", snap.EventIndex).
				Str("label", snap.Event.Label).
				Str("stage", string(snap.State.Stage)).
				Float64("progress", snap.Playback.OverallProgress).
				Msg("milestone")
		}
	}
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func printStartupBanner(cfg appConfig, engine *deploy.Engine, storeReady bool) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╦ ╦╔╗╔╔═╗╔═╗╦  ╔╦╗
    ║ ║║║║╠╣ ║ ║║   ║║
    ╚═╝╝╚╝╚  ╚═╝╩═╝═╩╝`)

	lines := []string{"", logo, "    " + dim.Render("v"+version), ""}

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator, "")

	lines = append(lines, bold.Render("    Gateway"), "")
	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", check, cyan.Render(shortenPath(cfg.SocketPath))))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Simulation"), "")
	lines = append(lines, fmt.Sprintf("    %s  Milestones     %s", check, dim.Render(fmt.Sprintf("%d", engine.EventCount()))))
	runTime := time.Duration(cfg.TotalUnits / cfg.StepUnit * float64(cfg.TickInterval))
	lines = append(lines, fmt.Sprintf("    %s  Run Time       %s", check,
		dim.Render(fmt.Sprintf("%s at 1x, speed %gx", runTime.Round(time.Second), cfg.Speed))))
	easing := engine.Schedule().Easing
	if easing == "" {
		easing = deploy.EasingSmoothstep
	}
	lines = append(lines, fmt.Sprintf("    %s  Easing         %s", check, dim.Render(easing)))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Storage"), "")
	if storeReady {
		lines = append(lines, fmt.Sprintf("    %s  Profile        %s", check, dim.Render(shortenPath(cfg.DBPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Profile        %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"), "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "", separator, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"), "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
