package main

import (
	"fmt"
	"sort"

	"github.com/newthinker/botdeck/internal/backend"
	"github.com/newthinker/botdeck/internal/config"
	"github.com/newthinker/botdeck/internal/logger"
	"github.com/newthinker/botdeck/internal/metrics"
	"github.com/newthinker/botdeck/internal/notifier"
	"github.com/newthinker/botdeck/internal/notifier/email"
	"github.com/newthinker/botdeck/internal/notifier/telegram"
	"github.com/newthinker/botdeck/internal/notifier/webhook"
	"go.uber.org/zap"
)

// loadConfig reads and validates the config file, or the defaults with
// environment overrides when no file is given.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(logger.Options{
		Development: cfg.Log.Development,
		Level:       cfg.Log.Level,
	})
}

// newBackend creates the backend client. reg may be nil.
func newBackend(cfg *config.Config, log *zap.Logger, reg *metrics.Registry) *backend.Client {
	opts := []backend.ClientOption{
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(log),
	}
	if cfg.Backend.SessionCookie != "" {
		opts = append(opts, backend.WithSessionCookie(cfg.Backend.SessionCookie))
	}
	if reg != nil {
		opts = append(opts, backend.WithRecorder(reg))
	}
	return backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, opts...)
}

// buildNotifiers registers the log notifier plus every enabled notifier
// from the config.
func buildNotifiers(cfg *config.Config, log *zap.Logger) (*notifier.Registry, error) {
	reg := notifier.NewRegistry()
	if err := reg.Register(notifier.NewLog(log)); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cfg.Notifiers))
	for name := range cfg.Notifiers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		nc := cfg.Notifiers[name]
		if !nc.Enabled {
			continue
		}

		var n notifier.Notifier
		switch name {
		case "telegram":
			n = telegram.New(nc.BotToken, nc.ChatID)
		case "webhook":
			n = webhook.New(nc.URL, nc.Headers)
		case "email":
			n = email.New(nc.Host, nc.Port, nc.Username, nc.Password, nc.From, nc.To)
		default:
			return nil, fmt.Errorf("unknown notifier %q", name)
		}
		if err := n.Init(notifierConfig(name, nc)); err != nil {
			return nil, fmt.Errorf("initializing %s notifier: %w", name, err)
		}
		if err := reg.Register(n); err != nil {
			return nil, err
		}
		log.Info("notifier enabled", zap.String("notifier", name))
	}
	return reg, nil
}

func notifierConfig(name string, nc config.NotifierConfig) notifier.Config {
	params := map[string]any{}
	switch name {
	case "telegram":
		params["bot_token"] = nc.BotToken
		params["chat_id"] = nc.ChatID
		params["api_base"] = nc.APIBase
	case "webhook":
		params["url"] = nc.URL
		params["headers"] = nc.Headers
	case "email":
		params["host"] = nc.Host
		params["port"] = nc.Port
		params["username"] = nc.Username
		params["password"] = nc.Password
		params["from"] = nc.From
		params["to"] = nc.To
	}
	return notifier.Config{Type: name, Params: params}
}
