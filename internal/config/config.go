package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/newthinker/botdeck/internal/alert"
	"github.com/newthinker/botdeck/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Backend   BackendConfig             `mapstructure:"backend"`
	Poll      PollConfig                `mapstructure:"poll"`
	View      ViewConfig                `mapstructure:"view"`
	Terminal  TerminalConfig            `mapstructure:"terminal"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Alerts    AlertsConfig              `mapstructure:"alerts"`
	Archive   ArchiveConfig             `mapstructure:"archive"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	Log       LogConfig                 `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	APIKey          string        `mapstructure:"api_key"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BackendConfig points at the bot backend whose API the console consumes.
type BackendConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	SessionCookie string        `mapstructure:"session_cookie"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// PollConfig controls the live refresh cadence.
type PollConfig struct {
	StatusInterval time.Duration `mapstructure:"status_interval"`
	BarsInterval   time.Duration `mapstructure:"bars_interval"`
	SeedLimit      int           `mapstructure:"seed_limit"`
	WindowLimit    int           `mapstructure:"window_limit"`
}

// ViewConfig selects the bot and chart shown by default.
type ViewConfig struct {
	BotID     int64  `mapstructure:"bot_id"`
	Timeframe string `mapstructure:"timeframe"`
	Mode      string `mapstructure:"mode"`
}

// TerminalConfig sizes the text output of the watch command.
type TerminalConfig struct {
	BarRows   int `mapstructure:"bar_rows"`
	LogLines  int `mapstructure:"log_lines"`
	SMAPeriod int `mapstructure:"sma_period"` // 0 disables the column
	EMAPeriod int `mapstructure:"ema_period"`
}

type NotifierConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
	URL      string `mapstructure:"url"`
	// Email notifier fields
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	// Webhook notifier fields
	Headers map[string]string `mapstructure:"headers"`
}

// AlertsConfig holds threshold rules checked on every status poll.
type AlertsConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"`
	Rules    []alert.Rule  `mapstructure:"rules"`
}

// ArchiveConfig selects where bar history exports are written.
type ArchiveConfig struct {
	Driver string   `mapstructure:"driver"` // local or s3
	Path   string   `mapstructure:"path"`
	S3     S3Config `mapstructure:"s3"`
}

// S3Config holds S3-compatible bucket settings.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from file, layered over Defaults. An empty path
// loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides, e.g. BOTDECK_BACKEND_BASE_URL
	v.SetEnvPrefix("botdeck")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.api_key", d.Backend.APIKey)
	v.SetDefault("backend.session_cookie", d.Backend.SessionCookie)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("poll.status_interval", d.Poll.StatusInterval)
	v.SetDefault("poll.bars_interval", d.Poll.BarsInterval)
	v.SetDefault("poll.seed_limit", d.Poll.SeedLimit)
	v.SetDefault("poll.window_limit", d.Poll.WindowLimit)
	v.SetDefault("view.bot_id", d.View.BotID)
	v.SetDefault("view.timeframe", d.View.Timeframe)
	v.SetDefault("view.mode", d.View.Mode)
	v.SetDefault("terminal.bar_rows", d.Terminal.BarRows)
	v.SetDefault("terminal.log_lines", d.Terminal.LogLines)
	v.SetDefault("terminal.sma_period", d.Terminal.SMAPeriod)
	v.SetDefault("terminal.ema_period", d.Terminal.EMAPeriod)
	v.SetDefault("alerts.cooldown", d.Alerts.Cooldown)
	v.SetDefault("archive.driver", d.Archive.Driver)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.s3.region", d.Archive.S3.Region)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Backend: BackendConfig{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: 10 * time.Second,
		},
		Poll: PollConfig{
			StatusInterval: 3 * time.Second,
			BarsInterval:   3 * time.Second,
			SeedLimit:      1000,
			WindowLimit:    2,
		},
		View: ViewConfig{
			Timeframe: string(core.DefaultTimeframe),
			Mode:      "live",
		},
		Terminal: TerminalConfig{
			BarRows:   5,
			LogLines:  5,
			SMAPeriod: 20,
			EMAPeriod: 50,
		},
		Alerts: AlertsConfig{
			Cooldown: 5 * time.Minute,
		},
		Archive: ArchiveConfig{
			Driver: "local",
			Path:   "data/exports",
			S3:     S3Config{Region: "us-east-1"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Backend validation
	if c.Backend.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("backend base_url is required"))
	}
	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backend base_url must be an absolute URL, got %q", c.Backend.BaseURL))
	}
	if c.Backend.Timeout < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backend timeout cannot be negative, got %v", c.Backend.Timeout))
	}

	// Poll validation
	if c.Poll.StatusInterval <= 0 || c.Poll.BarsInterval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("poll intervals must be positive, got status=%v bars=%v", c.Poll.StatusInterval, c.Poll.BarsInterval))
	}
	if c.Poll.WindowLimit < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("window_limit must be at least 1, got %d", c.Poll.WindowLimit))
	}
	if c.Poll.SeedLimit < c.Poll.WindowLimit {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("seed_limit (%d) cannot be smaller than window_limit (%d)", c.Poll.SeedLimit, c.Poll.WindowLimit))
	}

	// View validation
	if c.View.BotID < 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("bot_id cannot be negative, got %d", c.View.BotID))
	}
	if _, err := core.ParseTimeframe(c.View.Timeframe); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	// Notifier validation - enabled notifiers need their endpoint
	for name, n := range c.Notifiers {
		if !n.Enabled {
			continue
		}
		switch name {
		case "telegram":
			if n.BotToken == "" || n.ChatID == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("telegram bot_token and chat_id required when enabled"))
			}
		case "webhook":
			if n.URL == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("webhook url required when enabled"))
			}
		case "email":
			if n.Host == "" || n.From == "" || len(n.To) == 0 {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("email host, from and to required when enabled"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown notifier %q", name))
		}
	}

	if c.Terminal.SMAPeriod < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("terminal sma_period cannot be negative, got %d", c.Terminal.SMAPeriod))
	}
	if c.Terminal.EMAPeriod < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("terminal ema_period cannot be negative, got %d", c.Terminal.EMAPeriod))
	}

	// Alert rule validation
	if c.Alerts.Cooldown < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("alerts cooldown cannot be negative, got %v", c.Alerts.Cooldown))
	}
	for _, r := range c.Alerts.Rules {
		if err := r.Validate(); err != nil {
			return core.WrapError(core.ErrConfigInvalid, err)
		}
	}

	switch c.Archive.Driver {
	case "", "local":
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive.s3.bucket is required for the s3 driver"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive driver %q", c.Archive.Driver))
	}

	return nil
}
