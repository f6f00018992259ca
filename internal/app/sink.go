package app

import (
	"github.com/newthinker/botdeck/internal/render"
)

// recordingSink counts chart renders before forwarding every frame.
type recordingSink struct {
	next     render.Sink
	recorder Recorder
}

func (s *recordingSink) RenderChart(frame render.ChartFrame) {
	s.recorder.RecordChartRender(frame.Reason)
	s.next.RenderChart(frame)
}

func (s *recordingSink) RenderPanels(frame render.PanelFrame) {
	s.next.RenderPanels(frame)
}

func (s *recordingSink) RenderAlert(frame render.AlertFrame) {
	if as, ok := s.next.(render.AlertSink); ok {
		as.RenderAlert(frame)
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordPoll(job, trigger string)   {}
func (nopRecorder) RecordPollSkipped(job string)     {}
func (nopRecorder) RecordPollError(job, kind string) {}
func (nopRecorder) RecordReconcile(outcome string)   {}
func (nopRecorder) RecordPanelGate(rendered bool)    {}
func (nopRecorder) RecordChartRender(reason string)  {}
func (nopRecorder) SetSeriesBars(n int)              {}
