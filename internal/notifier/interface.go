package notifier

import (
	"context"
	"time"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Alert levels
const (
	LevelWarning = "warning"
	LevelError   = "error"
)

// Alert is a user-facing message about the console itself, such as the
// backend becoming unreachable.
type Alert struct {
	Session  string    `json:"session"`
	BotID    int64     `json:"bot_id"`
	Level    string    `json:"level"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	RaisedAt time.Time `json:"raised_at"`
}

// Notifier delivers alerts to one channel.
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send delivers a single alert
	Send(ctx context.Context, alert Alert) error
}
