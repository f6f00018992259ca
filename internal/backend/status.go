package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/newthinker/botdeck/internal/core"
)

// FetchStatus returns the full status payload of a bot.
func (c *Client) FetchStatus(ctx context.Context, botID int64) (core.Status, error) {
	var resp statusResponse
	if err := c.get(ctx, "status", fmt.Sprintf("/api/get_data/%d", botID), nil, &resp); err != nil {
		return core.Status{}, err
	}
	if resp.Error != "" {
		return core.Status{}, core.WrapError(core.ErrBackend, errors.New(resp.Error))
	}
	return resp.Status, nil
}

// DashboardStats returns the overview rows of every bot in the given mode
// ("live" or "paper"). An empty mode lets the backend choose.
func (c *Client) DashboardStats(ctx context.Context, mode string) ([]core.BotSummary, error) {
	var query url.Values
	if mode != "" {
		query = url.Values{"mode": []string{mode}}
	}

	var bots []core.BotSummary
	if err := c.get(ctx, "dashboard", "/api/get_dashboard_stats", query, &bots); err != nil {
		return nil, err
	}
	return bots, nil
}
