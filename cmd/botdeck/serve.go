package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/botdeck/internal/api"
	"github.com/newthinker/botdeck/internal/api/command"
	"github.com/newthinker/botdeck/internal/metrics"
	"github.com/newthinker/botdeck/internal/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live view over HTTP and websocket",
	RunE:  runServe,
}

func init() {
	addViewFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	var counter render.ClientCounter
	if reg != nil {
		counter = reg
	}
	stream := render.NewStream(log, counter)
	defer stream.Close()

	frames := render.NewSnapshotSink()

	view, err := newView(cfg, log, reg, render.Multi{stream, frames})
	if err != nil {
		return err
	}

	deps := api.Dependencies{
		View:     view,
		Commands: command.NewStore(100),
		Stream:   stream,
		Frames:   frames,
	}
	if reg != nil {
		deps.Metrics = reg
	}
	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: cfg.Metrics.Path,
	}, deps, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting botdeck server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int64("bot_id", view.BotID()),
	)

	if err := view.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("server error", zap.Error(err))
		}
	}

	log.Info("shutting down botdeck server")

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
	return view.Stop(shutdownCtx)
}
