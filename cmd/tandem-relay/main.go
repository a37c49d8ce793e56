// cmd/tandem-relay/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bethropolis/tandem/internal/config"
	"github.com/bethropolis/tandem/internal/logger"
	"github.com/bethropolis/tandem/internal/relay"
)

var version = "dev"

const shutdownTimeout = 5 * time.Second

func main() {
	flags := config.NewFlags(config.AppName + "-relay")
	if _, err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if *flags.Version {
		fmt.Printf("%s-relay %s\n", config.AppName, version)
		return
	}
	logger.SetDebugFilter(*flags.DebugLog)

	cfg, err := config.LoadConfig(*flags.ConfigFilePath, flags)
	if err != nil {
		stlog.Printf("Warning: %v (continuing with defaults)", err)
	}
	logFile, err := logger.Setup(cfg.Logger)
	if err != nil {
		stlog.Fatalf("Failed to set up logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg.Relay); err != nil {
		logger.Errorf("Relay exited with error: %v", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.RelayConfig) error {
	r := relay.New(cfg)
	relayCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(relayCtx)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Relay listening on %s%s", cfg.Listen, cfg.Path)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listening on %s: %w", cfg.Listen, err)
	case <-ctx.Done():
	}

	logger.Infof("Shutting down relay")
	cancel() // disconnects clients so their handlers return
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	return srv.Shutdown(shutdownCtx)
}
