package main

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/botdeck/internal/archive"
	"github.com/newthinker/botdeck/internal/config"
	"github.com/newthinker/botdeck/internal/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportLimit int

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Archive a bot's bar history",
	Long: `Fetch the bar history of a bot and write it as JSON to the configured
archive (local directory or S3-compatible bucket).`,
	RunE: runExport,
}

var exportListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List archived exports for a bot",
	RunE:  runExportList,
}

func init() {
	addViewFlags(exportCmd)
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "bars to fetch (default: poll.seed_limit)")
	addViewFlags(exportListCmd)
	exportCmd.AddCommand(exportListCmd)
	rootCmd.AddCommand(exportCmd)
}

// exportTarget resolves the bot and timeframe from flags and config.
func exportTarget(cfg *config.Config) (int64, core.Timeframe, error) {
	botID := cfg.View.BotID
	if viewBotID != 0 {
		botID = viewBotID
	}
	if botID <= 0 {
		return 0, "", core.WrapError(core.ErrConfigMissing, fmt.Errorf("bot id required: set view.bot_id or pass --bot"))
	}
	raw := cfg.View.Timeframe
	if viewTimeframe != "" {
		raw = viewTimeframe
	}
	tf, err := core.ParseTimeframe(raw)
	if err != nil {
		return 0, "", err
	}
	return botID, tf, nil
}

func newExporter(cfg *config.Config, log *zap.Logger) (*archive.Exporter, error) {
	store, err := archive.Open(archive.Options{
		Driver: cfg.Archive.Driver,
		Path:   cfg.Archive.Path,
		S3: archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		},
	})
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	return archive.NewExporter(store, log), nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	botID, tf, err := exportTarget(cfg)
	if err != nil {
		return err
	}
	exporter, err := newExporter(cfg, log)
	if err != nil {
		return err
	}

	limit := exportLimit
	if limit <= 0 {
		limit = cfg.Poll.SeedLimit
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	bars, err := newBackend(cfg, log, nil).FetchBars(ctx, botID, tf, limit)
	if err != nil {
		return fmt.Errorf("fetching bars: %w", err)
	}
	name, err := exporter.Write(ctx, botID, tf, bars)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d bars to %s\n", len(bars), name)
	return nil
}

func runExportList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	botID, tf, err := exportTarget(cfg)
	if err != nil {
		return err
	}
	exporter, err := newExporter(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	paths, err := exporter.List(ctx, botID, tf)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Printf("No exports for bot %d (%s)\n", botID, tf)
		return nil
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}
