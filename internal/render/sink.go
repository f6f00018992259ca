// Package render defines the surface the console core draws into.
package render

import (
	"github.com/newthinker/botdeck/internal/core"
)

// ChartFrame is a full chart redraw. Current repeats the last bar of Bars so
// incremental surfaces can update a single candle.
type ChartFrame struct {
	BotID     int64          `json:"bot_id"`
	Timeframe core.Timeframe `json:"timeframe"`
	Reason    string         `json:"reason"`
	Bars      []core.Bar     `json:"bars"`
	Current   core.Bar       `json:"current"`
}

// PanelFrame carries a status payload that passed the change gate.
type PanelFrame struct {
	BotID       int64       `json:"bot_id"`
	Fingerprint uint64      `json:"fingerprint"`
	Status      core.Status `json:"status"`
}

// AlertFrame is a user-facing failure notice.
type AlertFrame struct {
	BotID   int64  `json:"bot_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Sink draws chart and panel updates
type Sink interface {
	RenderChart(frame ChartFrame)
	RenderPanels(frame PanelFrame)
}

// AlertSink is implemented by sinks that can surface alerts to the user.
type AlertSink interface {
	RenderAlert(frame AlertFrame)
}

// Multi fans every frame out to several sinks in order.
type Multi []Sink

func (m Multi) RenderChart(frame ChartFrame) {
	for _, s := range m {
		s.RenderChart(frame)
	}
}

func (m Multi) RenderPanels(frame PanelFrame) {
	for _, s := range m {
		s.RenderPanels(frame)
	}
}

func (m Multi) RenderAlert(frame AlertFrame) {
	for _, s := range m {
		if a, ok := s.(AlertSink); ok {
			a.RenderAlert(frame)
		}
	}
}

// Nop discards every frame.
type Nop struct{}

func (Nop) RenderChart(ChartFrame)  {}
func (Nop) RenderPanels(PanelFrame) {}
