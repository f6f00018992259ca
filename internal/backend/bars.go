package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/newthinker/botdeck/internal/core"
)

// FetchBars returns up to limit of the most recent bars of a bot's symbol
// in the given timeframe, oldest first.
func (c *Client) FetchBars(ctx context.Context, botID int64, tf core.Timeframe, limit int) ([]core.Bar, error) {
	query := url.Values{}
	query.Set("tf", string(tf))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp klineResponse
	if err := c.get(ctx, "kline", fmt.Sprintf("/api/kline/%d", botID), query, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, core.ErrNoData
	}
	return resp.Data, nil
}
