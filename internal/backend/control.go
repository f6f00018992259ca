package backend

import (
	"context"
	"fmt"
	"math"

	"github.com/newthinker/botdeck/internal/core"
)

// Toggle starts or stops a bot.
func (c *Client) Toggle(ctx context.Context, botID int64, action core.BotAction) (string, error) {
	if action != core.ActionStart && action != core.ActionStop {
		return "", core.WrapError(core.ErrInvalidRequest, fmt.Errorf("unknown bot action %q", action))
	}
	return c.command(ctx, "toggle", "/api/toggle_bot", toggleRequest{BotID: botID, Action: action})
}

// ManualClose closes a bot's open position at market.
func (c *Client) ManualClose(ctx context.Context, botID int64) (string, error) {
	return c.command(ctx, "close", "/api/manual_close", closeRequest{BotID: botID})
}

// Deposit adds funds to a bot's balance and capital.
func (c *Client) Deposit(ctx context.Context, botID int64, amount float64) (string, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return "", core.ErrInvalidAmount
	}
	return c.command(ctx, "deposit", "/api/deposit", depositRequest{BotID: botID, Amount: amount})
}

// command posts a control request and returns the backend's message.
func (c *Client) command(ctx context.Context, endpoint, path string, payload any) (string, error) {
	var resp envelope
	if err := c.post(ctx, endpoint, path, payload, &resp); err != nil {
		return "", err
	}
	if err := resp.err(); err != nil {
		return "", err
	}
	return resp.Msg, nil
}
