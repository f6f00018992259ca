package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/newthinker/botdeck/internal/core"
	"github.com/newthinker/botdeck/internal/render"
	"github.com/spf13/cobra"
)

var botsMode string

var botsCmd = &cobra.Command{
	Use:   "bots",
	Short: "List every bot with its balance and P&L",
	RunE:  runBots,
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Bot control commands",
	Long:  `Commands that start, stop, close or fund a single bot on the backend.`,
}

var botStartCmd = &cobra.Command{
	Use:   "start <bot-id>",
	Short: "Start a bot",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle(core.ActionStart),
}

var botStopCmd = &cobra.Command{
	Use:   "stop <bot-id>",
	Short: "Stop a bot",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle(core.ActionStop),
}

var botCloseCmd = &cobra.Command{
	Use:   "close <bot-id>",
	Short: "Close a bot's position at market",
	Args:  cobra.ExactArgs(1),
	RunE:  runClose,
}

var botDepositCmd = &cobra.Command{
	Use:   "deposit <bot-id> <amount>",
	Short: "Add funds to a bot",
	Args:  cobra.ExactArgs(2),
	RunE:  runDeposit,
}

func init() {
	botsCmd.Flags().StringVar(&botsMode, "mode", "", "trading mode to list (default: view.mode)")
	rootCmd.AddCommand(botsCmd)

	botCmd.AddCommand(botStartCmd)
	botCmd.AddCommand(botStopCmd)
	botCmd.AddCommand(botCloseCmd)
	botCmd.AddCommand(botDepositCmd)
	rootCmd.AddCommand(botCmd)
}

func runBots(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	mode := botsMode
	if mode == "" {
		mode = cfg.View.Mode
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	bots, err := newBackend(cfg, log, nil).DashboardStats(ctx, mode)
	if err != nil {
		return fmt.Errorf("fetching bots: %w", err)
	}

	if len(bots) == 0 {
		fmt.Printf("No %s bots\n", mode)
		return nil
	}
	render.WriteBots(os.Stdout, bots)
	return nil
}

// control runs one backend command and prints its message.
func control(cmd *cobra.Command, fn func(ctx context.Context, c controller) (string, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	msg, err := fn(ctx, newBackend(cfg, log, nil))
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

type controller interface {
	Toggle(ctx context.Context, botID int64, action core.BotAction) (string, error)
	ManualClose(ctx context.Context, botID int64) (string, error)
	Deposit(ctx context.Context, botID int64, amount float64) (string, error)
}

func runToggle(action core.BotAction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseBotID(args[0])
		if err != nil {
			return err
		}
		return control(cmd, func(ctx context.Context, c controller) (string, error) {
			return c.Toggle(ctx, id, action)
		})
	}
}

func runClose(cmd *cobra.Command, args []string) error {
	id, err := parseBotID(args[0])
	if err != nil {
		return err
	}
	return control(cmd, func(ctx context.Context, c controller) (string, error) {
		return c.ManualClose(ctx, id)
	})
}

func runDeposit(cmd *cobra.Command, args []string) error {
	id, err := parseBotID(args[0])
	if err != nil {
		return err
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return core.WrapError(core.ErrInvalidAmount, err)
	}
	return control(cmd, func(ctx context.Context, c controller) (string, error) {
		return c.Deposit(ctx, id, amount)
	})
}

func parseBotID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("invalid bot id %q", s))
	}
	return id, nil
}
