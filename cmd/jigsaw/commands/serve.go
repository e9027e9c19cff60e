package commands

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lyz-njeri/Jigsaw-game/analysis"
	"github.com/lyz-njeri/Jigsaw-game/config"
	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/logger"
	"github.com/lyz-njeri/Jigsaw-game/server"
	"github.com/lyz-njeri/Jigsaw-game/session"
	"github.com/lyz-njeri/Jigsaw-game/version"
)

// ServeCmd starts the puzzle server.
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the HTTP/WebSocket puzzle server",
	Long: `Launch the puzzle server. Clients create sessions against built-in
levels, report piece placements, and request hints; progress and hint
events stream to WebSocket subscribers.`,
	RunE: runServe,
}

var (
	serveDBPath     string
	serveConfigFile string
	serveInMemory   bool
)

func init() {
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Custom database path (overrides config)")
	ServeCmd.Flags().StringVar(&serveConfigFile, "config", "", "Config file to load and watch for changes")
	ServeCmd.Flags().BoolVar(&serveInMemory, "in-memory", false, "Skip the database, keep sessions in memory only")
}

func runServe(cmd *cobra.Command, args []string) error {
	var (
		cfg *config.Config
		err error
	)
	if serveConfigFile != "" {
		cfg, err = config.LoadFromFile(serveConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	srv, database, err := buildServer(cfg)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	// Hot-reload the config file when one was named explicitly.
	if serveConfigFile != "" {
		watcher, werr := config.NewConfigWatcher(serveConfigFile)
		if werr != nil {
			logger.Warnw("Config watcher unavailable", "error", werr)
		} else {
			watcher.OnReload(func(updated *config.Config) error {
				logger.Infow("Configuration reloaded",
					"cooldown_seconds", updated.Hints.CooldownSeconds)
				return nil
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	printStartupBanner(cfg)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server failed to start")
	case <-sigChan:
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			shutdownDone <- srv.Shutdown(ctx)
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return errors.Wrap(err, "shutdown error")
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("\nForce shutdown - exiting immediately")
			os.Exit(1)
			return nil // unreachable
		}
	}
}

// buildServer assembles the analyzer, cache, registry, and persistence
// from configuration. The returned database is nil in in-memory mode.
func buildServer(cfg *config.Config) (*server.Server, *sql.DB, error) {
	analyzer := analysis.New(analysis.Options{
		MaxFocalPoints:   cfg.Analyzer.MaxFocalPoints,
		FocalThreshold:   cfg.Analyzer.FocalThreshold,
		ColorThreshold:   cfg.Analyzer.ColorThreshold,
		MinRegionCells:   cfg.Analyzer.MinRegionCells,
		MaxColorRegions:  cfg.Analyzer.MaxColorRegions,
		TextureThreshold: cfg.Analyzer.TextureThreshold,
		MaxPatterns:      cfg.Analyzer.MaxPatterns,
	}, logger.Logger)

	cache, err := analysis.NewCache(cfg.Hints.CacheCapacity, analyzer, logger.Logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create analysis cache")
	}
	registry := session.NewRegistry(cache, session.Config{
		HintCooldown: cfg.Hints.Cooldown(),
		Scoring:      session.ScoringFromConfig(cfg.Session),
		RegionRows:   cfg.Hints.RegionRows,
		RegionCols:   cfg.Hints.RegionCols,
	}, logger.Logger)

	if serveInMemory {
		return server.New(cfg.Server, registry, nil, nil, logger.Logger), nil, nil
	}

	dbPath := serveDBPath
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	database, err := openDatabase(dbPath)
	if err != nil {
		return nil, nil, err
	}

	store := session.NewStore(database)
	return server.New(cfg.Server, registry, store, database, logger.Logger), database, nil
}

// printStartupBanner prints the user-friendly startup message.
func printStartupBanner(cfg *config.Config) {
	info := version.Get()

	port := config.DefaultServerPort
	if cfg.Server.Port != nil {
		port = *cfg.Server.Port
	}

	pterm.DefaultBox.WithTitle("jigsaw").Println(
		"Adaptive hint engine for image-reconstruction puzzles")
	pterm.Printf("Version:  %s (commit %s)\n", info.Version, info.Short())
	pterm.Printf("Port:     %d\n", port)
	if serveInMemory {
		pterm.Printf("Storage:  in-memory\n")
	} else if serveDBPath != "" {
		pterm.Printf("Database: %s\n", serveDBPath)
	} else {
		pterm.Printf("Database: %s\n", cfg.Database.Path)
	}
	pterm.Printf("Cooldown: %s between hints\n", cfg.Hints.Cooldown())
	pterm.Info.Println("Press Ctrl+C to stop")
}
