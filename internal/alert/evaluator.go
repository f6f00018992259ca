package alert

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/botdeck/internal/core"
	"github.com/newthinker/botdeck/internal/notifier"
	"go.uber.org/zap"
)

// Evaluator checks rules on every status and notifies when one holds long
// enough. A fired rule stays quiet for the cooldown.
type Evaluator struct {
	rules    []Rule
	registry *notifier.Registry
	logger   *zap.Logger
	cooldown time.Duration

	// rule name -> first time the condition held
	pending map[string]time.Time
	// rule name -> last fire time
	lastFired map[string]time.Time

	now func() time.Time

	mu sync.Mutex
}

// NewEvaluator validates the rules and creates an evaluator. registry may
// be nil, in which case fired alerts are only returned.
func NewEvaluator(rules []Rule, registry *notifier.Registry, logger *zap.Logger) (*Evaluator, error) {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, err)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		rules:     rules,
		registry:  registry,
		logger:    logger,
		cooldown:  5 * time.Minute,
		pending:   make(map[string]time.Time),
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}, nil
}

// SetCooldown sets the cooldown duration between alerts of one rule.
func (e *Evaluator) SetCooldown(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldown = d
}

// Len returns the number of rules.
func (e *Evaluator) Len() int {
	return len(e.rules)
}

// Observe evaluates every rule against status and returns the alerts fired.
func (e *Evaluator) Observe(ctx context.Context, session string, botID int64, status core.Status) []notifier.Alert {
	metrics := StatusMetrics(status)

	e.mu.Lock()
	now := e.now()
	var fired []notifier.Alert
	for _, rule := range e.rules {
		if !e.due(rule, metrics, now) {
			continue
		}
		severity := rule.Severity
		if severity == "" {
			severity = notifier.LevelWarning
		}
		fired = append(fired, notifier.Alert{
			Session:  session,
			BotID:    botID,
			Level:    severity,
			Title:    rule.Name,
			Message:  rule.FormatMessage(metrics),
			RaisedAt: now,
		})
	}
	e.mu.Unlock()

	for _, a := range fired {
		e.logger.Info("alert rule fired",
			zap.String("rule", a.Title),
			zap.Int64("bot_id", botID),
			zap.String("message", a.Message),
		)
		if e.registry == nil {
			continue
		}
		for name, err := range e.registry.NotifyAll(ctx, a) {
			e.logger.Warn("alert delivery failed",
				zap.String("notifier", name),
				zap.String("rule", a.Title),
				zap.Error(err),
			)
		}
	}
	return fired
}

// due applies the for-duration and cooldown. Caller holds mu.
func (e *Evaluator) due(rule Rule, metrics map[string]float64, now time.Time) bool {
	if !rule.Evaluate(metrics) {
		delete(e.pending, rule.Name)
		return false
	}

	if rule.For > 0 {
		since, isPending := e.pending[rule.Name]
		if !isPending {
			e.pending[rule.Name] = now
			return false
		}
		if now.Sub(since) < rule.For {
			return false
		}
	}

	if last, ok := e.lastFired[rule.Name]; ok && now.Sub(last) < e.cooldown {
		return false
	}

	e.lastFired[rule.Name] = now
	delete(e.pending, rule.Name)
	return true
}
