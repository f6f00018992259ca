package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/botdeck/internal/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow one bot's chart and status in the terminal",
	RunE:  runWatch,
}

func init() {
	addViewFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	sink := render.NewTableSink(os.Stdout, cfg.Terminal.BarRows, cfg.Terminal.LogLines,
		render.WithSMA(cfg.Terminal.SMAPeriod),
		render.WithEMA(cfg.Terminal.EMAPeriod))
	view, err := newView(cfg, log, nil, sink)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := view.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	log.Info("stopping watch", zap.Int64("bot_id", view.BotID()))
	return view.Stop(context.Background())
}
