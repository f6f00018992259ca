package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/botdeck/internal/core"
	"github.com/stretchr/testify/assert"
)

func newTestTable(buf *bytes.Buffer, rows, logs int) *TableSink {
	s := NewTableSink(buf, rows, logs)
	s.location = time.UTC
	return s
}

func TestTableSink_FullRedrawPrintsTrailingBars(t *testing.T) {
	var buf bytes.Buffer
	s := newTestTable(&buf, 2, 0)

	s.RenderChart(ChartFrame{
		BotID:     3,
		Timeframe: core.Timeframe1m,
		Reason:    "seed",
		Bars: []core.Bar{
			{Time: 60, Open: 1, High: 1, Low: 1, Close: 1},
			{Time: 120, Open: 2, High: 2, Low: 2, Close: 2},
			{Time: 180, Open: 3, High: 3.5, Low: 2.5, Close: 3.25},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Bot 3 1m chart (seed, 3 bars)")
	assert.Contains(t, out, "3.2500")
	assert.Contains(t, out, "01-01 00:03")
	assert.NotContains(t, out, "01-01 00:01", "only trailing rows are printed")
}

func TestTableSink_SMAColumn(t *testing.T) {
	var buf bytes.Buffer
	s := NewTableSink(&buf, 2, 0, WithSMA(2))
	s.location = time.UTC

	s.RenderChart(ChartFrame{
		BotID:     3,
		Timeframe: core.Timeframe1m,
		Reason:    "seed",
		Bars: []core.Bar{
			{Time: 60, Close: 2},
			{Time: 120, Close: 4},
			{Time: 180, Close: 8},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "SMA(2)")
	assert.Contains(t, out, "3.0000", "average of the first two closes")
	assert.Contains(t, out, "6.0000", "average of the last two closes")
}

func TestTableSink_EMAColumnBesideSMA(t *testing.T) {
	var buf bytes.Buffer
	s := NewTableSink(&buf, 2, 0, WithSMA(2), WithEMA(2), WithEMA(0))
	s.location = time.UTC

	s.RenderChart(ChartFrame{
		BotID:     3,
		Timeframe: core.Timeframe1m,
		Reason:    "seed",
		Bars: []core.Bar{
			{Time: 60, Close: 2},
			{Time: 120, Close: 4},
			{Time: 180, Close: 8},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "SMA(2)")
	assert.Contains(t, out, "EMA(2)")
	assert.NotContains(t, out, "EMA(0)", "zero period adds no column")
	assert.Contains(t, out, "6.3333", "ema continues from the sma seed")
	assert.Less(t, strings.Index(out, "SMA(2)"), strings.Index(out, "EMA(2)"))
}

func TestTableSink_SMAWarmup(t *testing.T) {
	var buf bytes.Buffer
	s := NewTableSink(&buf, 5, 0, WithSMA(20))
	s.location = time.UTC

	s.RenderChart(ChartFrame{
		Timeframe: core.Timeframe1m,
		Reason:    "seed",
		Bars:      []core.Bar{{Time: 60, Open: 1.5, High: 1.5, Low: 1.5, Close: 1.5}},
	})

	out := buf.String()
	assert.Contains(t, out, "SMA(20)")
	assert.NotContains(t, out, "NaN")
}

func TestTableSink_IncrementalRedrawPrintsOneLine(t *testing.T) {
	var buf bytes.Buffer
	s := newTestTable(&buf, 0, 0)

	s.RenderChart(ChartFrame{
		Timeframe: core.Timeframe15m,
		Reason:    "tick",
		Current:   core.Bar{Time: 900, Open: 2500, High: 2510, Low: 2490, Close: 2505.5},
	})

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "[15m] 01-01 00:15")
	assert.Contains(t, out, "C 2505.50")
}

func TestTableSink_IncrementalLineCarriesLatestAverages(t *testing.T) {
	var buf bytes.Buffer
	s := NewTableSink(&buf, 5, 0, WithSMA(2), WithEMA(4))
	s.location = time.UTC

	s.RenderChart(ChartFrame{
		Timeframe: core.Timeframe1m,
		Reason:    "merged",
		Bars:      []core.Bar{{Time: 60, Close: 2}, {Time: 120, Close: 6}},
		Current:   core.Bar{Time: 120, Close: 6},
	})

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "SMA(2) 4.0000")
	assert.NotContains(t, out, "EMA(4)", "still warming up")
}

func TestTableSink_Panels(t *testing.T) {
	var buf bytes.Buffer
	s := newTestTable(&buf, 0, 2)

	s.RenderPanels(PanelFrame{BotID: 7, Status: core.Status{
		Name:         "ETH grid",
		StrategyType: "grid",
		Mode:         "live",
		Global: core.GlobalStatus{
			MarketPrice: 2510.5,
			StatusMsg:   "waiting for fill",
			IsRunning:   true,
			Logs:        []string{"first", "second", "third"},
		},
		Metrics: core.StatusMetrics{PnL: 12.5, PnLPct: 1.5},
	}})

	out := buf.String()
	assert.Contains(t, out, "7 ETH grid")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "waiting for fill")
	assert.Contains(t, out, "  first\n")
	assert.Contains(t, out, "  second\n")
	assert.NotContains(t, out, "third")
}

func TestTableSink_Alert(t *testing.T) {
	var buf bytes.Buffer
	s := newTestTable(&buf, 0, 0)

	s.RenderAlert(AlertFrame{Title: "Network error", Message: "backend unreachable"})

	assert.Equal(t, "!! Network error: backend unreachable\n", buf.String())
}

func TestWriteBots(t *testing.T) {
	var buf bytes.Buffer

	WriteBots(&buf, []core.BotSummary{
		{ID: 1, Name: "BTC dca", Symbol: "BTCUSDT", IsRunning: 1, NetPnL: 4.2, Direction: "long", PosAmt: 0.01},
		{ID: 2, Name: "ETH grid", Symbol: "ETHUSDT"},
	})

	out := buf.String()
	assert.Contains(t, out, "BTC dca")
	assert.Contains(t, out, "ETHUSDT")
	assert.Contains(t, out, "4.20")
	assert.Contains(t, out, "long 0.01")
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "-", price(0))
	assert.Equal(t, "65000.50", price(65000.5))
	assert.Equal(t, "1.2346", price(1.23456))
	assert.Equal(t, "0.000123", price(0.000123))
}
