package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/botdeck/internal/core"
)

// Export is one archived bar history.
type Export struct {
	BotID      int64          `json:"bot_id"`
	Timeframe  core.Timeframe `json:"timeframe"`
	ExportedAt time.Time      `json:"exported_at"`
	Bars       []core.Bar     `json:"bars"`
}

// Exporter writes bar histories into a Storage.
type Exporter struct {
	store  Storage
	logger *zap.Logger
	now    func() time.Time
}

// NewExporter creates an exporter on top of store.
func NewExporter(store Storage, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{store: store, logger: logger, now: time.Now}
}

// Prefix is the directory holding every export for a bot and timeframe.
func Prefix(botID int64, tf core.Timeframe) string {
	return path.Join("bars", fmt.Sprintf("%d", botID), string(tf))
}

// Write stores bars and returns the path written. Empty histories are
// rejected with core.ErrNoData and an existing export at the same path with
// core.ErrInvalidRequest.
func (e *Exporter) Write(ctx context.Context, botID int64, tf core.Timeframe, bars []core.Bar) (string, error) {
	if len(bars) == 0 {
		return "", core.ErrNoData
	}

	exp := Export{
		BotID:      botID,
		Timeframe:  tf,
		ExportedAt: e.now().UTC(),
		Bars:       bars,
	}
	data, err := json.Marshal(exp)
	if err != nil {
		return "", fmt.Errorf("encoding export: %w", err)
	}

	name := path.Join(Prefix(botID, tf), exp.ExportedAt.Format("20060102T150405Z")+".json")
	exists, err := e.store.Exists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("checking export: %w", err)
	}
	if exists {
		return "", core.WrapError(core.ErrInvalidRequest, fmt.Errorf("export %s already exists", name))
	}
	if err := e.store.Write(ctx, name, data); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}

	e.logger.Info("bars exported",
		zap.Int64("bot_id", botID),
		zap.String("timeframe", string(tf)),
		zap.Int("bars", len(bars)),
		zap.String("path", name),
	)
	return name, nil
}

// List returns the export paths for a bot and timeframe, oldest first.
func (e *Exporter) List(ctx context.Context, botID int64, tf core.Timeframe) ([]string, error) {
	return e.store.List(ctx, Prefix(botID, tf))
}

// Load reads one export back.
func (e *Exporter) Load(ctx context.Context, name string) (*Export, error) {
	data, err := e.store.Read(ctx, name)
	if err != nil {
		return nil, core.WrapError(core.ErrNotFound, err)
	}
	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("decoding export %s: %w", name, err)
	}
	return &exp, nil
}
