package notifier

import (
	"context"

	"go.uber.org/zap"
)

// Log writes alerts to the application log. It is always registered so an
// alert is never silently lost when no external channel is configured.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a log notifier.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Init(cfg Config) error { return nil }

func (l *Log) Send(ctx context.Context, alert Alert) error {
	fields := []zap.Field{
		zap.String("session", alert.Session),
		zap.Int64("bot_id", alert.BotID),
		zap.String("title", alert.Title),
	}
	if alert.Level == LevelError {
		l.logger.Error(alert.Message, fields...)
	} else {
		l.logger.Warn(alert.Message, fields...)
	}
	return nil
}
