package notifier

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Once raises an alert at most once for its lifetime, so a backend outage
// produces a single message instead of one per poll.
type Once struct {
	registry *Registry
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time

	mu     sync.Mutex
	raised bool
	last   Alert
}

// NewOnce creates a one-shot alert over the given registry.
func NewOnce(registry *Registry, logger *zap.Logger) *Once {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Once{
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// Recorder receives per-notifier delivery results. metrics.Registry
// implements it.
type Recorder interface {
	RecordAlert(notifier, status string)
}

// WithRecorder sets the delivery recorder and returns o.
func (o *Once) WithRecorder(r Recorder) *Once {
	o.recorder = r
	return o
}

// Raise delivers the alert if none has been raised yet. It reports whether
// the alert was delivered.
func (o *Once) Raise(ctx context.Context, alert Alert) bool {
	o.mu.Lock()
	if o.raised {
		o.mu.Unlock()
		return false
	}
	o.raised = true
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = o.now()
	}
	if alert.Level == "" {
		alert.Level = LevelError
	}
	o.last = alert
	o.mu.Unlock()

	if o.registry == nil {
		return true
	}
	errs := o.registry.NotifyAll(ctx, alert)
	for _, name := range o.registry.Names() {
		err, failed := errs[name]
		if failed {
			o.logger.Warn("alert delivery failed",
				zap.String("notifier", name),
				zap.Error(err),
			)
		}
		if o.recorder != nil {
			status := "sent"
			if failed {
				status = "failed"
			}
			o.recorder.RecordAlert(name, status)
		}
	}
	return true
}

// Raised reports whether an alert has been raised, and returns it.
func (o *Once) Raised() (Alert, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last, o.raised
}
