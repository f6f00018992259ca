// Package alert evaluates threshold rules against each polled bot status.
package alert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/botdeck/internal/core"
)

// Rule defines an alert rule such as "drawdown > 15".
type Rule struct {
	Name     string        `mapstructure:"name"`
	Expr     string        `mapstructure:"expr"`
	For      time.Duration `mapstructure:"for"`
	Severity string        `mapstructure:"severity"`
	Message  string        `mapstructure:"message"`
}

// metric op value
var exprPattern = regexp.MustCompile(`^(\w+)\s*(>=|<=|==|!=|>|<)\s*(-?[\d.]+)$`)

// Metric names available to rule expressions.
var Metrics = []string{"pnl", "pnl_pct", "drawdown", "net_pnl", "total_fees", "market_price", "running"}

type condition struct {
	metric    string
	op        string
	threshold float64
}

func (r Rule) parse() (condition, error) {
	matches := exprPattern.FindStringSubmatch(strings.TrimSpace(r.Expr))
	if len(matches) != 4 {
		return condition{}, fmt.Errorf("rule %q: cannot parse expression %q", r.Name, r.Expr)
	}
	threshold, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return condition{}, fmt.Errorf("rule %q: bad threshold: %w", r.Name, err)
	}
	return condition{metric: matches[1], op: matches[2], threshold: threshold}, nil
}

// Validate checks the expression and metric name.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	c, err := r.parse()
	if err != nil {
		return err
	}
	for _, m := range Metrics {
		if m == c.metric {
			return nil
		}
	}
	return fmt.Errorf("rule %q: unknown metric %q", r.Name, c.metric)
}

// Evaluate evaluates the rule expression against metrics.
func (r Rule) Evaluate(metrics map[string]float64) bool {
	c, err := r.parse()
	if err != nil {
		return false
	}

	value, exists := metrics[c.metric]
	if !exists {
		return false
	}

	switch c.op {
	case ">":
		return value > c.threshold
	case "<":
		return value < c.threshold
	case ">=":
		return value >= c.threshold
	case "<=":
		return value <= c.threshold
	case "==":
		return value == c.threshold
	case "!=":
		return value != c.threshold
	default:
		return false
	}
}

// FormatMessage formats the alert message with the current metric value.
func (r Rule) FormatMessage(metrics map[string]float64) string {
	msg := r.Message
	if msg == "" {
		msg = r.Expr
	}
	if c, err := r.parse(); err == nil {
		if v, ok := metrics[c.metric]; ok {
			return fmt.Sprintf("%s (%s=%.2f)", msg, c.metric, v)
		}
	}
	return msg
}

// StatusMetrics flattens the numeric fields of a status for rule evaluation.
func StatusMetrics(status core.Status) map[string]float64 {
	running := 0.0
	if status.Global.IsRunning {
		running = 1
	}
	return map[string]float64{
		"pnl":          status.Metrics.PnL,
		"pnl_pct":      status.Metrics.PnLPct,
		"drawdown":     status.Metrics.Drawdown,
		"net_pnl":      status.Metrics.NetPnL,
		"total_fees":   status.Metrics.TotalFees,
		"market_price": status.Global.MarketPrice,
		"running":      running,
	}
}
