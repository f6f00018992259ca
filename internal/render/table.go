package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/newthinker/botdeck/internal/core"
	"github.com/newthinker/botdeck/internal/indicator"
)

// Chart redraw reasons that replace the whole series.
var fullRedraws = map[string]bool{
	"seed":       true,
	"started":    true,
	"new_bucket": true,
}

// TableSink renders frames as text tables, for terminal use.
type TableSink struct {
	mu       sync.Mutex
	out      io.Writer
	barRows  int
	logLines int
	averages []movingAverage
	location *time.Location
}

type movingAverage struct {
	label  string
	period int
	calc   func([]core.Bar, int) []float64
}

// TableOption configures a TableSink.
type TableOption func(*TableSink)

// WithSMA adds a simple moving average column over bar closes. A period of
// zero disables it.
func WithSMA(period int) TableOption {
	return withAverage("SMA", period, indicator.SMA)
}

// WithEMA adds an exponential moving average column over bar closes. A
// period of zero disables it.
func WithEMA(period int) TableOption {
	return withAverage("EMA", period, indicator.EMA)
}

func withAverage(label string, period int, calc func([]core.Bar, int) []float64) TableOption {
	return func(t *TableSink) {
		if period > 0 {
			t.averages = append(t.averages, movingAverage{label: label, period: period, calc: calc})
		}
	}
}

// NewTableSink creates a table sink. barRows bounds how many trailing bars a
// full redraw prints and logLines how many status log lines a panel prints.
func NewTableSink(out io.Writer, barRows, logLines int, opts ...TableOption) *TableSink {
	if barRows <= 0 {
		barRows = 5
	}
	if logLines <= 0 {
		logLines = 5
	}
	t := &TableSink{
		out:      out,
		barRows:  barRows,
		logLines: logLines,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TableSink) RenderChart(frame ChartFrame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !fullRedraws[frame.Reason] {
		c := frame.Current
		fmt.Fprintf(t.out, "[%s] %s  O %s  H %s  L %s  C %s",
			frame.Timeframe, t.clock(c.Time),
			price(c.Open), price(c.High), price(c.Low), price(c.Close))
		for _, avg := range t.averages {
			if v, ok := indicator.Last(avg.calc(frame.Bars, avg.period)); ok {
				fmt.Fprintf(t.out, "  %s(%d) %s", avg.label, avg.period, price(v))
			}
		}
		fmt.Fprintln(t.out)
		return
	}

	bars := frame.Bars
	offset := 0
	if len(bars) > t.barRows {
		offset = len(bars) - t.barRows
	}
	series := make([][]float64, len(t.averages))
	for i, avg := range t.averages {
		series[i] = avg.calc(bars, avg.period)[offset:]
	}
	bars = bars[offset:]

	fmt.Fprintf(t.out, "Bot %d %s chart (%s, %d bars)\n", frame.BotID, frame.Timeframe, frame.Reason, len(frame.Bars))
	table := tablewriter.NewWriter(t.out)
	header := []string{"Time", "Open", "High", "Low", "Close"}
	for _, avg := range t.averages {
		header = append(header, fmt.Sprintf("%s(%d)", avg.label, avg.period))
	}
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for i, b := range bars {
		row := []string{t.clock(b.Time), price(b.Open), price(b.High), price(b.Low), price(b.Close)}
		for _, values := range series {
			row = append(row, average(values[i]))
		}
		table.Append(row)
	}
	table.Render()
}

func (t *TableSink) RenderPanels(frame PanelFrame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := frame.Status
	running := "stopped"
	if st.Global.IsRunning {
		running = "running"
	}

	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"Bot", "Strategy", "Mode", "State", "Price", "PnL", "PnL %", "Status"})
	table.SetAutoWrapText(false)
	table.Append([]string{
		fmt.Sprintf("%d %s", frame.BotID, st.Name),
		st.StrategyType,
		st.Mode,
		running,
		price(st.Global.MarketPrice),
		fmt.Sprintf("%.2f", st.Metrics.PnL),
		fmt.Sprintf("%.2f%%", st.Metrics.PnLPct),
		st.Global.StatusMsg,
	})
	table.Render()

	logs := st.Global.Logs
	if len(logs) > t.logLines {
		logs = logs[:t.logLines]
	}
	for _, line := range logs {
		fmt.Fprintf(t.out, "  %s\n", strings.TrimSpace(line))
	}
}

func (t *TableSink) RenderAlert(frame AlertFrame) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "!! %s: %s\n", frame.Title, frame.Message)
}

func (t *TableSink) clock(unix int64) string {
	return time.Unix(unix, 0).In(t.location).Format("01-02 15:04")
}

// WriteBots prints the multi-bot overview.
func WriteBots(out io.Writer, bots []core.BotSummary) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Name", "Symbol", "Strategy", "Running", "Price", "Position", "Float PnL", "Net PnL", "Status"})
	table.SetAutoWrapText(false)
	for _, b := range bots {
		running := "no"
		if b.IsRunning != 0 {
			running = "yes"
		}
		table.Append([]string{
			fmt.Sprintf("%d", b.ID),
			b.Name,
			b.Symbol,
			b.StrategyType,
			running,
			price(b.MarketPrice),
			fmt.Sprintf("%s %g", b.Direction, b.PosAmt),
			fmt.Sprintf("%.2f", b.FloatingPnL),
			fmt.Sprintf("%.2f", b.NetPnL),
			b.StatusMsg,
		})
	}
	table.Render()
}

func average(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return price(v)
}

func price(p float64) string {
	switch {
	case p == 0:
		return "-"
	case p >= 1000:
		return fmt.Sprintf("%.2f", p)
	case p >= 1:
		return fmt.Sprintf("%.4f", p)
	default:
		return fmt.Sprintf("%.6f", p)
	}
}
