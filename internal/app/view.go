// Package app wires the chart, change gate, scheduler and render sinks into
// a live view of one bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/botdeck/internal/alert"
	"github.com/newthinker/botdeck/internal/chart"
	"github.com/newthinker/botdeck/internal/config"
	"github.com/newthinker/botdeck/internal/core"
	"github.com/newthinker/botdeck/internal/gate"
	"github.com/newthinker/botdeck/internal/notifier"
	"github.com/newthinker/botdeck/internal/render"
	"github.com/newthinker/botdeck/internal/scheduler"
	"go.uber.org/zap"
)

// Poll job names
const (
	JobStatus = "status"
	JobBars   = "bars"
)

// Backend is the part of the bot backend API a view consumes.
type Backend interface {
	chart.BarSource
	FetchStatus(ctx context.Context, botID int64) (core.Status, error)
	Toggle(ctx context.Context, botID int64, action core.BotAction) (string, error)
	ManualClose(ctx context.Context, botID int64) (string, error)
	Deposit(ctx context.Context, botID int64, amount float64) (string, error)
}

// Recorder receives view accounting. metrics.Registry implements it.
type Recorder interface {
	scheduler.Recorder
	RecordPollError(job, kind string)
	RecordReconcile(outcome string)
	RecordPanelGate(rendered bool)
	RecordChartRender(reason string)
	SetSeriesBars(n int)
}

// Config holds the settings of one view.
type Config struct {
	BotID          int64
	Timeframe      core.Timeframe
	StatusInterval time.Duration
	BarsInterval   time.Duration
	Reconciler     chart.ReconcilerConfig
}

// ConfigFrom builds a view config from the loaded application config.
func ConfigFrom(cfg *config.Config) (Config, error) {
	tf, err := core.ParseTimeframe(cfg.View.Timeframe)
	if err != nil {
		return Config{}, err
	}
	return Config{
		BotID:          cfg.View.BotID,
		Timeframe:      tf,
		StatusInterval: cfg.Poll.StatusInterval,
		BarsInterval:   cfg.Poll.BarsInterval,
		Reconciler: chart.ReconcilerConfig{
			SeedLimit:   cfg.Poll.SeedLimit,
			WindowLimit: cfg.Poll.WindowLimit,
		},
	}, nil
}

// Option configures a View.
type Option func(*View)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(v *View) {
		v.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(v *View) {
		v.recorder = r
	}
}

// WithAlert sets the one-shot alert raised on transport failures.
func WithAlert(o *notifier.Once) Option {
	return func(v *View) {
		v.alert = o
	}
}

// WithRules sets the threshold rules checked on every status.
func WithRules(e *alert.Evaluator) Option {
	return func(v *View) {
		v.rules = e
	}
}

// WithClock sets the clock driving the poll timers.
func WithClock(c scheduler.Clock) Option {
	return func(v *View) {
		v.clock = c
	}
}

// View keeps the chart and panels of one bot live while it is visible.
type View struct {
	cfg      Config
	backend  Backend
	sink     render.Sink
	alert    *notifier.Once
	rules    *alert.Evaluator
	gate     *gate.Gate
	sched    *scheduler.Scheduler
	clock    scheduler.Clock
	logger   *zap.Logger
	recorder Recorder

	mu         sync.RWMutex
	series     *chart.Series
	reconciler *chart.Reconciler
	lastStatus *core.Status
	statusAt   time.Time
}

// New creates a view of cfg.BotID drawing into sink.
func New(cfg Config, backend Backend, sink render.Sink, opts ...Option) (*View, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if cfg.BotID <= 0 {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("bot id must be positive, got %d", cfg.BotID))
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = core.DefaultTimeframe
	}
	if _, err := core.ParseTimeframe(string(cfg.Timeframe)); err != nil {
		return nil, err
	}

	v := &View{
		cfg:     cfg,
		backend: backend,
		gate:    gate.New(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = zap.NewNop()
	}
	if v.recorder == nil {
		v.recorder = nopRecorder{}
	}
	if v.alert == nil {
		v.alert = notifier.NewOnce(nil, v.logger)
	}
	if sink == nil {
		sink = render.Nop{}
	}
	v.sink = &recordingSink{next: sink, recorder: v.recorder}
	v.logger = v.logger.With(zap.Int64("bot_id", cfg.BotID), zap.String("session", v.gate.Session()))

	schedOpts := []scheduler.Option{
		scheduler.WithLogger(v.logger),
		scheduler.WithRecorder(v.recorder),
	}
	if v.clock != nil {
		schedOpts = append(schedOpts, scheduler.WithClock(v.clock))
	}
	sched, err := scheduler.New([]scheduler.Job{
		{Name: JobStatus, Interval: cfg.StatusInterval, Poll: v.pollStatus},
		{Name: JobBars, Interval: cfg.BarsInterval, Poll: v.pollBars},
	}, schedOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}
	v.sched = sched

	v.replaceSeries(cfg.Timeframe)
	return v, nil
}

// BotID returns the bot this view shows.
func (v *View) BotID() int64 {
	return v.cfg.BotID
}

// Session returns the id of this view session.
func (v *View) Session() string {
	return v.gate.Session()
}

// Timeframe returns the timeframe currently charted.
func (v *View) Timeframe() core.Timeframe {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.series.Timeframe()
}

// State returns the scheduler state.
func (v *View) State() scheduler.State {
	return v.sched.State()
}

// Start seeds the chart and begins polling. A failed seed is reported like
// any other poll failure and polling starts regardless.
func (v *View) Start(ctx context.Context) error {
	if v.sched.State() != scheduler.StateIdle {
		return fmt.Errorf("view already %s", v.sched.State())
	}

	v.logger.Info("view starting",
		zap.String("timeframe", string(v.Timeframe())),
		zap.Duration("status_interval", v.cfg.StatusInterval),
		zap.Duration("bars_interval", v.cfg.BarsInterval),
	)

	v.seed(ctx)
	return v.sched.Start(ctx)
}

// Hide pauses polling. It reports whether the view was active.
func (v *View) Hide() bool {
	return v.sched.Hide()
}

// Show resumes polling with one immediate poll. It reports whether the view
// was paused.
func (v *View) Show() bool {
	return v.sched.Show()
}

// Stop ends the view for good.
func (v *View) Stop(ctx context.Context) error {
	err := v.sched.Stop(ctx)

	v.mu.RLock()
	series := v.series
	v.mu.RUnlock()
	series.Dispose()

	v.logger.Info("view stopped")
	return err
}

// SwitchTimeframe replaces the series with an empty one for tf and seeds it.
// Switching to the current timeframe does nothing.
func (v *View) SwitchTimeframe(ctx context.Context, timeframe string) error {
	tf, err := core.ParseTimeframe(timeframe)
	if err != nil {
		return err
	}
	if v.sched.State() == scheduler.StateStopped {
		return core.ErrViewStopped
	}
	if tf == v.Timeframe() {
		return nil
	}

	old := v.replaceSeries(tf)
	old.Dispose()

	v.logger.Info("timeframe switched",
		zap.String("from", string(old.Timeframe())),
		zap.String("to", string(tf)),
	)
	return v.seed(ctx)
}

// ForceRefresh clears the change gate and polls the status now.
func (v *View) ForceRefresh() error {
	if v.sched.State() == scheduler.StateStopped {
		return core.ErrViewStopped
	}
	v.gate.Reset()
	return v.sched.Trigger(JobStatus)
}

// Toggle starts or stops the bot and refreshes the panels.
func (v *View) Toggle(ctx context.Context, action core.BotAction) (string, error) {
	msg, err := v.backend.Toggle(ctx, v.cfg.BotID, action)
	if err != nil {
		return "", err
	}
	v.refreshAfter("toggle")
	return msg, nil
}

// ManualClose closes the bot's position and refreshes the panels.
func (v *View) ManualClose(ctx context.Context) (string, error) {
	msg, err := v.backend.ManualClose(ctx, v.cfg.BotID)
	if err != nil {
		return "", err
	}
	v.refreshAfter("close")
	return msg, nil
}

// Deposit adds margin to the bot and refreshes the panels.
func (v *View) Deposit(ctx context.Context, amount float64) (string, error) {
	msg, err := v.backend.Deposit(ctx, v.cfg.BotID, amount)
	if err != nil {
		return "", err
	}
	v.refreshAfter("deposit")
	return msg, nil
}

func (v *View) refreshAfter(command string) {
	if err := v.ForceRefresh(); err != nil {
		v.logger.Debug("refresh after command skipped",
			zap.String("command", command),
			zap.Error(err),
		)
	}
}

// Bars returns a copy of the charted series.
func (v *View) Bars() []core.Bar {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.series.Bars()
}

// LastStatus returns the most recent status payload, if any.
func (v *View) LastStatus() (core.Status, time.Time, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.lastStatus == nil {
		return core.Status{}, time.Time{}, false
	}
	return *v.lastStatus, v.statusAt, true
}

// Snapshot is a point-in-time copy of the view for read-only surfaces.
type Snapshot struct {
	BotID     int64           `json:"bot_id"`
	Session   string          `json:"session"`
	State     string          `json:"state"`
	Timeframe core.Timeframe  `json:"timeframe"`
	Bars      int             `json:"bars"`
	Current   *core.Bar       `json:"current,omitempty"`
	Status    *core.Status    `json:"status,omitempty"`
	StatusAt  *time.Time      `json:"status_at,omitempty"`
	Alert     *notifier.Alert `json:"alert,omitempty"`
}

// Snapshot returns the current view state.
func (v *View) Snapshot() Snapshot {
	snap := Snapshot{
		BotID:   v.cfg.BotID,
		Session: v.gate.Session(),
		State:   v.sched.State().String(),
	}

	v.mu.RLock()
	snap.Timeframe = v.series.Timeframe()
	snap.Bars = v.series.Len()
	if cur, ok := v.series.Current(); ok {
		snap.Current = &cur
	}
	if v.lastStatus != nil {
		status := *v.lastStatus
		at := v.statusAt
		snap.Status = &status
		snap.StatusAt = &at
	}
	v.mu.RUnlock()

	if raised, ok := v.alert.Raised(); ok {
		snap.Alert = &raised
	}
	return snap
}

// replaceSeries installs a fresh series and reconciler and returns the old
// series, which is nil on first use.
func (v *View) replaceSeries(tf core.Timeframe) *chart.Series {
	series := chart.NewSeries(tf)
	rec := chart.NewReconciler(v.cfg.Reconciler, v.cfg.BotID, series, v.backend, v.sink, v.logger)

	v.mu.Lock()
	defer v.mu.Unlock()
	old := v.series
	v.series = series
	v.reconciler = rec
	return old
}

func (v *View) current() (*chart.Series, *chart.Reconciler) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.series, v.reconciler
}

func (v *View) seed(ctx context.Context) error {
	series, rec := v.current()
	if err := rec.Seed(ctx); err != nil {
		v.handleError(ctx, "seed", err)
		if errors.Is(err, core.ErrNoData) {
			return nil
		}
		return err
	}
	v.recorder.SetSeriesBars(series.Len())
	return nil
}

func (v *View) pollStatus(ctx context.Context) {
	status, err := v.backend.FetchStatus(ctx, v.cfg.BotID)
	if err != nil {
		v.handleError(ctx, JobStatus, err)
		return
	}

	v.mu.Lock()
	v.lastStatus = &status
	v.statusAt = time.Now()
	series, rec := v.series, v.reconciler
	v.mu.Unlock()

	if series.ApplyTick(status.Global.MarketPrice) {
		rec.Redraw("tick")
	}

	fp, changed := v.gate.Check(status)
	v.recorder.RecordPanelGate(changed)
	if changed {
		v.sink.RenderPanels(render.PanelFrame{
			BotID:       v.cfg.BotID,
			Fingerprint: fp,
			Status:      status,
		})
	}

	if v.rules != nil {
		for _, a := range v.rules.Observe(ctx, v.gate.Session(), v.cfg.BotID, status) {
			v.renderAlert(a)
		}
	}
}

func (v *View) pollBars(ctx context.Context) {
	series, rec := v.current()
	outcome, err := rec.Sync(ctx)
	if err != nil {
		v.handleError(ctx, JobBars, err)
		return
	}
	v.recorder.RecordReconcile(string(outcome))
	v.recorder.SetSeriesBars(series.Len())
}

// handleError classifies a poll failure. Only transport failures alert, and
// only once per session.
func (v *View) handleError(ctx context.Context, job string, err error) {
	if ctx.Err() != nil {
		return
	}

	switch {
	case errors.Is(err, core.ErrNoData):
		v.recorder.RecordPollError(job, "no_data")
		v.logger.Debug("no data", zap.String("job", job))
	case errors.Is(err, core.ErrBackend):
		v.recorder.RecordPollError(job, "backend")
		v.logger.Warn("backend reported an error", zap.String("job", job), zap.Error(err))
	case errors.Is(err, core.ErrTransport):
		v.recorder.RecordPollError(job, "transport")
		v.logger.Error("backend unreachable", zap.String("job", job), zap.Error(err))
		v.raise(ctx, err)
	default:
		v.recorder.RecordPollError(job, "unknown")
		v.logger.Warn("poll failed", zap.String("job", job), zap.Error(err))
	}
}

func (v *View) raise(ctx context.Context, err error) {
	a := notifier.Alert{
		Session: v.gate.Session(),
		BotID:   v.cfg.BotID,
		Level:   notifier.LevelError,
		Title:   "Backend unreachable",
		Message: err.Error(),
	}
	if v.alert.Raise(ctx, a) {
		v.renderAlert(a)
	}
}

func (v *View) renderAlert(a notifier.Alert) {
	if as, ok := v.sink.(render.AlertSink); ok {
		as.RenderAlert(render.AlertFrame{
			BotID:   a.BotID,
			Title:   a.Title,
			Message: a.Message,
		})
	}
}
