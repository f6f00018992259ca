package main

import (
	"fmt"

	"github.com/newthinker/botdeck/internal/alert"
	"github.com/newthinker/botdeck/internal/app"
	"github.com/newthinker/botdeck/internal/config"
	"github.com/newthinker/botdeck/internal/core"
	"github.com/newthinker/botdeck/internal/metrics"
	"github.com/newthinker/botdeck/internal/notifier"
	"github.com/newthinker/botdeck/internal/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// view flags shared by watch and serve
var (
	viewBotID     int64
	viewTimeframe string
)

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().Int64VarP(&viewBotID, "bot", "b", 0, "bot id to watch (overrides view.bot_id)")
	cmd.Flags().StringVarP(&viewTimeframe, "timeframe", "t", "", "chart timeframe (overrides view.timeframe)")
}

// newView builds the live view for the configured bot. reg may be nil.
func newView(cfg *config.Config, log *zap.Logger, reg *metrics.Registry, sink render.Sink) (*app.View, error) {
	if viewBotID != 0 {
		cfg.View.BotID = viewBotID
	}
	if viewTimeframe != "" {
		cfg.View.Timeframe = viewTimeframe
	}
	if cfg.View.BotID <= 0 {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("bot id required: set view.bot_id or pass --bot"))
	}

	viewCfg, err := app.ConfigFrom(cfg)
	if err != nil {
		return nil, err
	}

	notifiers, err := buildNotifiers(cfg, log)
	if err != nil {
		return nil, err
	}
	once := notifier.NewOnce(notifiers, log)

	opts := []app.Option{app.WithLogger(log), app.WithAlert(once)}
	if reg != nil {
		once.WithRecorder(reg)
		opts = append(opts, app.WithRecorder(reg))
	}

	if len(cfg.Alerts.Rules) > 0 {
		rules, err := alert.NewEvaluator(cfg.Alerts.Rules, notifiers, log)
		if err != nil {
			return nil, err
		}
		rules.SetCooldown(cfg.Alerts.Cooldown)
		opts = append(opts, app.WithRules(rules))
		log.Info("alert rules loaded", zap.Int("rules", rules.Len()))
	}

	return app.New(viewCfg, newBackend(cfg, log, reg), sink, opts...)
}
