package core

import (
	"fmt"
	"time"
)

// Bar represents one OHLC candle. Time is the bucket start in unix seconds.
type Bar struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// IsValid checks if the bar has a timestamp and a sane price range
func (b Bar) IsValid() bool {
	return b.Time > 0 && b.High >= b.Low
}

// Timeframe is a chart bucket size such as "15m" or "1h"
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe3m  Timeframe = "3m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe2h  Timeframe = "2h"
	Timeframe4h  Timeframe = "4h"
	Timeframe6h  Timeframe = "6h"
	Timeframe12h Timeframe = "12h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
)

// DefaultTimeframe is used when a view does not specify one.
const DefaultTimeframe = Timeframe15m

var timeframeDurations = map[Timeframe]time.Duration{
	Timeframe1m:  time.Minute,
	Timeframe3m:  3 * time.Minute,
	Timeframe5m:  5 * time.Minute,
	Timeframe15m: 15 * time.Minute,
	Timeframe30m: 30 * time.Minute,
	Timeframe1h:  time.Hour,
	Timeframe2h:  2 * time.Hour,
	Timeframe4h:  4 * time.Hour,
	Timeframe6h:  6 * time.Hour,
	Timeframe12h: 12 * time.Hour,
	Timeframe1d:  24 * time.Hour,
	Timeframe1w:  7 * 24 * time.Hour,
}

// ParseTimeframe validates a timeframe string. Empty input yields DefaultTimeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	if s == "" {
		return DefaultTimeframe, nil
	}
	tf := Timeframe(s)
	if _, ok := timeframeDurations[tf]; !ok {
		return "", WrapError(ErrUnknownTimeframe, fmt.Errorf("%q", s))
	}
	return tf, nil
}

// Duration returns the bucket length, or zero for unknown timeframes.
func (tf Timeframe) Duration() time.Duration {
	return timeframeDurations[tf]
}

// Aligned reports whether a bar time sits on a bucket boundary of tf.
// Weekly buckets are anchored by the exchange, so they are always accepted.
func (tf Timeframe) Aligned(unix int64) bool {
	d := tf.Duration()
	if d == 0 || tf == Timeframe1w {
		return true
	}
	return unix%int64(d/time.Second) == 0
}

// Status is the full status payload of one bot as served by the backend.
type Status struct {
	Name         string         `json:"name"`
	Mode         string         `json:"mode"`
	StrategyType string         `json:"strategy_type"`
	State        map[string]any `json:"state"`
	Config       map[string]any `json:"config"`
	Global       GlobalStatus   `json:"global"`
	Metrics      StatusMetrics  `json:"metrics"`
}

// GlobalStatus holds runtime fields shared by every strategy type.
type GlobalStatus struct {
	MarketPrice   float64  `json:"market_price"`
	Logs          []string `json:"logs"`
	LadderPreview []any    `json:"ladder_preview"`
	StatusMsg     string   `json:"status_msg"`
	IsRunning     bool     `json:"is_running"`
	Rounds        []any    `json:"rounds"`
}

// StatusMetrics holds the P&L figures computed by the backend.
type StatusMetrics struct {
	PnL        float64            `json:"pnl"`
	PnLPct     float64            `json:"pnl_pct"`
	Drawdown   float64            `json:"drawdown"`
	NetPnL     float64            `json:"net_pnl"`
	TotalFees  float64            `json:"total_fees"`
	DailyStats map[string]float64 `json:"daily_stats"`
}

// BotSummary is one row of the multi-bot overview.
type BotSummary struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Symbol        string         `json:"symbol"`
	StrategyType  string         `json:"strategy_type"`
	CurrentProfit float64        `json:"current_profit"`
	TotalBalance  float64        `json:"total_balance"`
	IsRunning     int            `json:"is_running"`
	StatusMsg     string         `json:"status_msg"`
	PosAmt        float64        `json:"pos_amt"`
	AvgPrice      float64        `json:"avg_price"`
	TotalCost     float64        `json:"total_cost"`
	FloatingPnL   float64        `json:"floating_pnl"`
	DrawdownPct   float64        `json:"drawdown_pct"`
	Direction     string         `json:"direction"`
	NetPnL        float64        `json:"net_pnl"`
	MarketPrice   float64        `json:"market_price"`
	Leverage      float64        `json:"leverage"`
	StratInfo     map[string]any `json:"strat_info"`
	FolderID      *int64         `json:"folder_id"`
}

// BotAction is a start/stop command for a bot
type BotAction string

const (
	ActionStart BotAction = "start"
	ActionStop  BotAction = "stop"
)
