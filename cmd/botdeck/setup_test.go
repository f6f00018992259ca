package main

import (
	"errors"
	"testing"

	"github.com/newthinker/botdeck/internal/alert"
	"github.com/newthinker/botdeck/internal/config"
	"github.com/newthinker/botdeck/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildNotifiers(t *testing.T) {
	cfg := config.Defaults()
	cfg.Notifiers = map[string]config.NotifierConfig{
		"webhook":  {Enabled: true, URL: "http://hooks.local/alert"},
		"telegram": {Enabled: true, BotToken: "token", ChatID: "42"},
		"email":    {Enabled: false},
	}

	reg, err := buildNotifiers(cfg, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, []string{"log", "telegram", "webhook"}, reg.Names())
}

func TestBuildNotifiers_InvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Notifiers = map[string]config.NotifierConfig{
		"webhook": {Enabled: true},
	}

	_, err := buildNotifiers(cfg, zap.NewNop())

	assert.Error(t, err)
}

func TestParseBotID(t *testing.T) {
	id, err := parseBotID("17")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := parseBotID(bad)
		assert.True(t, errors.Is(err, core.ErrInvalidRequest), bad)
	}
}

func TestNewView_RequiresBot(t *testing.T) {
	cfg := config.Defaults()

	_, err := newView(cfg, zap.NewNop(), nil, nil)

	assert.True(t, errors.Is(err, core.ErrConfigMissing))
}

func TestNewView_FlagOverrides(t *testing.T) {
	viewBotID, viewTimeframe = 9, "1h"
	t.Cleanup(func() { viewBotID, viewTimeframe = 0, "" })

	v, err := newView(config.Defaults(), zap.NewNop(), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(9), v.BotID())
	assert.Equal(t, core.Timeframe1h, v.Timeframe())
}

func TestNewView_AlertRules(t *testing.T) {
	cfg := config.Defaults()
	cfg.View.BotID = 3
	cfg.Alerts.Rules = []alert.Rule{{Name: "bad", Expr: "sharpe > 1"}}

	_, err := newView(cfg, zap.NewNop(), nil, nil)
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))

	cfg.Alerts.Rules = []alert.Rule{{Name: "drawdown", Expr: "drawdown > 10"}}
	_, err = newView(cfg, zap.NewNop(), nil, nil)
	assert.NoError(t, err)
}

func TestExportTarget(t *testing.T) {
	cfg := config.Defaults()

	_, _, err := exportTarget(cfg)
	assert.True(t, errors.Is(err, core.ErrConfigMissing))

	cfg.View.BotID = 4
	id, tf, err := exportTarget(cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
	assert.Equal(t, core.Timeframe15m, tf)

	viewBotID, viewTimeframe = 11, "4h"
	t.Cleanup(func() { viewBotID, viewTimeframe = 0, "" })
	id, tf, err = exportTarget(cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.Equal(t, core.Timeframe4h, tf)
}

func TestNewExporter(t *testing.T) {
	cfg := config.Defaults()
	cfg.Archive.Path = t.TempDir()

	_, err := newExporter(cfg, zap.NewNop())
	require.NoError(t, err)

	cfg.Archive.Driver = "s3"
	_, err = newExporter(cfg, zap.NewNop())
	assert.True(t, errors.Is(err, core.ErrConfigInvalid), "bucket missing")
}
