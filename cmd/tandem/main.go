// cmd/tandem/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stlog "log" // Use standard log for FATAL errors before logger is ready
	"os"

	"github.com/bethropolis/tandem/internal/app"
	"github.com/bethropolis/tandem/internal/bus"
	"github.com/bethropolis/tandem/internal/config"
	"github.com/bethropolis/tandem/internal/core/document"
	"github.com/bethropolis/tandem/internal/event"
	"github.com/bethropolis/tandem/internal/identity"
	"github.com/bethropolis/tandem/internal/logger"
	"github.com/bethropolis/tandem/internal/persist"
	"github.com/bethropolis/tandem/internal/session"
)

var version = "dev"

func main() {
	// --- Argument & Flag Parsing ---
	flags := config.NewFlags(config.AppName)
	if _, err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if *flags.Version {
		fmt.Printf("%s %s\n", config.AppName, version)
		return
	}
	logger.SetDebugFilter(*flags.DebugLog)

	cfg, err := config.LoadConfig(*flags.ConfigFilePath, flags)
	if err != nil {
		stlog.Printf("Warning: %v (continuing with defaults)", err)
	}

	// The terminal belongs to the editor, so logs go to a file unless asked otherwise.
	if cfg.Logger.LogFilePath == "" {
		cfg.Logger.LogFilePath = config.DefaultLogFileName
	}
	logFile, err := logger.Setup(cfg.Logger)
	if err != nil {
		stlog.Fatalf("Failed to set up logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	if err := run(cfg); err != nil {
		logger.Errorf("Application exited with error: %v", err)
		if logFile != nil {
			logFile.Close()
		}
		stlog.Fatalf("%s: %v", config.AppName, err)
	}
	logger.Infof("%s finished.", config.AppName)
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	self := identity.NewProvider(cfg.Session.DisplayName).Identity()
	logger.Infof("Starting %s as %s", config.AppName, self.DisplayName)

	store, err := persist.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	defer store.Close()

	syncBus, err := bus.Open(ctx, cfg.Sync)
	if err != nil {
		return fmt.Errorf("opening %s sync bus: %w", cfg.Sync.Backend, err)
	}
	defer syncBus.Close()

	events := event.NewManager()
	sess := session.New(session.Config{
		Store:    document.NewStore(events),
		Bus:      syncBus,
		Identity: self,
		Events:   events,
		Persist:  store,
		Debounce: cfg.Session.Debounce.Duration,
	})
	if err := sess.Start(); err != nil {
		return err
	}

	editor, err := app.NewApp(app.Options{
		Session: sess,
		Events:  events,
		Config:  cfg,
		Plugins: app.DefaultPlugins(store),
	})
	if err != nil {
		sess.Close()
		return fmt.Errorf("initializing application: %w", err)
	}
	return editor.Run()
}
