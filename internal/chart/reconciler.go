package chart

import (
	"context"
	"fmt"

	"github.com/newthinker/botdeck/internal/core"
	"github.com/newthinker/botdeck/internal/render"
	"go.uber.org/zap"
)

// BarSource fetches candles for a bot from the backend.
type BarSource interface {
	FetchBars(ctx context.Context, botID int64, tf core.Timeframe, limit int) ([]core.Bar, error)
}

// ReconcilerConfig holds window sizes for the two kinds of pulls
type ReconcilerConfig struct {
	SeedLimit   int // bars pulled when seeding (default: 1000)
	WindowLimit int // bars pulled on each sync (default: 2)
}

// DefaultReconcilerConfig returns the pull sizes used by the dashboard.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		SeedLimit:   1000,
		WindowLimit: 2,
	}
}

// Reconciler keeps a Series in step with the backend's view of the bars.
// A failed pull leaves the series untouched.
type Reconciler struct {
	cfg    ReconcilerConfig
	botID  int64
	series *Series
	source BarSource
	sink   render.Sink
	logger *zap.Logger
}

// NewReconciler creates a reconciler feeding the given series.
func NewReconciler(cfg ReconcilerConfig, botID int64, series *Series, source BarSource, sink render.Sink, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = render.Nop{}
	}
	defaults := DefaultReconcilerConfig()
	if cfg.SeedLimit <= 0 {
		cfg.SeedLimit = defaults.SeedLimit
	}
	if cfg.WindowLimit <= 0 {
		cfg.WindowLimit = defaults.WindowLimit
	}
	return &Reconciler{
		cfg:    cfg,
		botID:  botID,
		series: series,
		source: source,
		sink:   sink,
		logger: logger,
	}
}

// Series returns the series this reconciler writes into.
func (r *Reconciler) Series() *Series {
	return r.series
}

// Seed pulls a long history and replaces the series with it.
func (r *Reconciler) Seed(ctx context.Context) error {
	bars, err := r.source.FetchBars(ctx, r.botID, r.series.Timeframe(), r.cfg.SeedLimit)
	if err != nil {
		return fmt.Errorf("seeding bars: %w", err)
	}
	if len(bars) == 0 {
		return core.ErrNoData
	}

	if !r.series.Seed(bars) {
		return nil
	}

	r.logger.Debug("series seeded",
		zap.Int64("bot_id", r.botID),
		zap.String("timeframe", string(r.series.Timeframe())),
		zap.Int("bars", len(bars)),
	)
	r.redraw("seed")
	return nil
}

// Sync pulls the trailing window and reconciles it into the series.
func (r *Reconciler) Sync(ctx context.Context) (Outcome, error) {
	window, err := r.source.FetchBars(ctx, r.botID, r.series.Timeframe(), r.cfg.WindowLimit)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("syncing bars: %w", err)
	}
	if len(window) == 0 {
		return OutcomeIgnored, core.ErrNoData
	}

	latest := window[len(window)-1]
	if !r.series.Timeframe().Aligned(latest.Time) {
		r.logger.Debug("bar time not aligned to timeframe",
			zap.Int64("bot_id", r.botID),
			zap.Int64("time", latest.Time),
			zap.String("timeframe", string(r.series.Timeframe())),
		)
	}

	outcome := r.series.Reconcile(window)
	switch outcome {
	case OutcomeMerged, OutcomeNewBucket, OutcomeStarted:
		r.redraw(string(outcome))
	case OutcomeStale:
		r.logger.Debug("stale snapshot dropped",
			zap.Int64("bot_id", r.botID),
			zap.Int64("time", latest.Time),
		)
	}
	return outcome, nil
}

// Redraw pushes the current series to the sink.
func (r *Reconciler) Redraw(reason string) {
	r.redraw(reason)
}

func (r *Reconciler) redraw(reason string) {
	cur, ok := r.series.Current()
	if !ok {
		return
	}
	r.sink.RenderChart(render.ChartFrame{
		BotID:     r.botID,
		Timeframe: r.series.Timeframe(),
		Reason:    reason,
		Bars:      r.series.Bars(),
		Current:   cur,
	})
}
