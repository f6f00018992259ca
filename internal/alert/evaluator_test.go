package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/botdeck/internal/core"
	"github.com/newthinker/botdeck/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	mu     sync.Mutex
	alerts []notifier.Alert
	err    error
}

func (c *captureNotifier) Name() string               { return "capture" }
func (c *captureNotifier) Init(notifier.Config) error { return nil }
func (c *captureNotifier) Send(ctx context.Context, a notifier.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, a)
	return c.err
}

func statusWith(drawdown float64, running bool) core.Status {
	return core.Status{
		Global:  core.GlobalStatus{IsRunning: running, MarketPrice: 100},
		Metrics: core.StatusMetrics{Drawdown: drawdown, PnL: -20},
	}
}

// newTestEvaluator returns an evaluator whose clock the test advances.
func newTestEvaluator(t *testing.T, rules []Rule, reg *notifier.Registry) (*Evaluator, *time.Time) {
	t.Helper()
	e, err := NewEvaluator(rules, reg, nil)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }
	return e, &now
}

func TestRule_Evaluate(t *testing.T) {
	metrics := map[string]float64{"drawdown": 12, "pnl": -5}

	tests := []struct {
		expr string
		want bool
	}{
		{"drawdown > 10", true},
		{"drawdown >= 12", true},
		{"drawdown < 10", false},
		{"drawdown <= 12", true},
		{"drawdown == 12", true},
		{"drawdown != 12", false},
		{"pnl < -1", true},
		{"missing > 1", false},
		{"nonsense", false},
	}

	for _, tt := range tests {
		r := Rule{Name: "r", Expr: tt.expr}
		assert.Equal(t, tt.want, r.Evaluate(metrics), tt.expr)
	}
}

func TestRule_Validate(t *testing.T) {
	assert.NoError(t, Rule{Name: "dd", Expr: "drawdown > 10"}.Validate())
	assert.Error(t, Rule{Expr: "drawdown > 10"}.Validate(), "name required")
	assert.Error(t, Rule{Name: "x", Expr: "drawdown >> 10"}.Validate())
	assert.Error(t, Rule{Name: "x", Expr: "sharpe > 1"}.Validate(), "unknown metric")
}

func TestRule_FormatMessage(t *testing.T) {
	r := Rule{Name: "dd", Expr: "drawdown > 10", Message: "drawdown too deep"}

	assert.Equal(t, "drawdown too deep (drawdown=12.50)", r.FormatMessage(map[string]float64{"drawdown": 12.5}))
	assert.Equal(t, "drawdown > 10", Rule{Name: "dd", Expr: "drawdown > 10"}.FormatMessage(nil))
}

func TestStatusMetrics(t *testing.T) {
	m := StatusMetrics(statusWith(3, true))

	assert.Equal(t, 3.0, m["drawdown"])
	assert.Equal(t, 1.0, m["running"])
	assert.Equal(t, 100.0, m["market_price"])
	assert.Len(t, m, len(Metrics))
}

func TestNewEvaluator_RejectsBadRule(t *testing.T) {
	_, err := NewEvaluator([]Rule{{Name: "bad", Expr: "foo"}}, nil, nil)
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestEvaluator_FiresAndCoolsDown(t *testing.T) {
	n := &captureNotifier{}
	reg := notifier.NewRegistry()
	require.NoError(t, reg.Register(n))
	e, now := newTestEvaluator(t, []Rule{{Name: "deep drawdown", Expr: "drawdown > 10", Severity: "error"}}, reg)
	e.SetCooldown(time.Minute)

	fired := e.Observe(context.Background(), "s1", 7, statusWith(12, true))
	require.Len(t, fired, 1)
	assert.Equal(t, "deep drawdown", fired[0].Title)
	assert.Equal(t, "error", fired[0].Level)
	assert.Equal(t, int64(7), fired[0].BotID)
	assert.Len(t, n.alerts, 1)

	// within cooldown
	*now = now.Add(30 * time.Second)
	assert.Empty(t, e.Observe(context.Background(), "s1", 7, statusWith(12, true)))

	*now = now.Add(31 * time.Second)
	assert.Len(t, e.Observe(context.Background(), "s1", 7, statusWith(12, true)), 1)
	assert.Len(t, n.alerts, 2)
}

func TestEvaluator_ForDuration(t *testing.T) {
	e, now := newTestEvaluator(t, []Rule{{Name: "stopped", Expr: "running == 0", For: time.Minute}}, nil)

	assert.Empty(t, e.Observe(context.Background(), "s", 1, statusWith(0, false)), "starts pending")

	*now = now.Add(30 * time.Second)
	assert.Empty(t, e.Observe(context.Background(), "s", 1, statusWith(0, false)))

	// condition clears, pending resets
	*now = now.Add(10 * time.Second)
	assert.Empty(t, e.Observe(context.Background(), "s", 1, statusWith(0, true)))

	*now = now.Add(10 * time.Second)
	assert.Empty(t, e.Observe(context.Background(), "s", 1, statusWith(0, false)))
	*now = now.Add(time.Minute)
	fired := e.Observe(context.Background(), "s", 1, statusWith(0, false))
	require.Len(t, fired, 1)
	assert.Equal(t, notifier.LevelWarning, fired[0].Level)
}

func TestEvaluator_DeliveryFailureStillReturned(t *testing.T) {
	n := &captureNotifier{err: errors.New("down")}
	reg := notifier.NewRegistry()
	require.NoError(t, reg.Register(n))
	e, _ := newTestEvaluator(t, []Rule{{Name: "dd", Expr: "drawdown > 1"}}, reg)

	assert.Len(t, e.Observe(context.Background(), "s", 1, statusWith(5, true)), 1)
	assert.Equal(t, 1, e.Len())
}
