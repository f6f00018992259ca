package render

import (
	"sync"
	"time"

	"github.com/newthinker/botdeck/internal/core"
)

// Snapshot is the latest state drawn into a SnapshotSink.
type Snapshot struct {
	Version   uint64      `json:"version"`
	UpdatedAt time.Time   `json:"updated_at"`
	Chart     *ChartFrame `json:"chart,omitempty"`
	Panels    *PanelFrame `json:"panels,omitempty"`
	Alert     *AlertFrame `json:"alert,omitempty"`
}

// SnapshotSink keeps the most recent frame of each kind in memory for
// pull-based surfaces such as the JSON view API.
type SnapshotSink struct {
	mu    sync.RWMutex
	snap  Snapshot
	clock func() time.Time
}

// NewSnapshotSink creates an empty snapshot sink.
func NewSnapshotSink() *SnapshotSink {
	return &SnapshotSink{clock: time.Now}
}

func (s *SnapshotSink) RenderChart(frame ChartFrame) {
	frame.Bars = append([]core.Bar(nil), frame.Bars...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Chart = &frame
	s.touch()
}

func (s *SnapshotSink) RenderPanels(frame PanelFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Panels = &frame
	s.touch()
}

func (s *SnapshotSink) RenderAlert(frame AlertFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Alert = &frame
	s.touch()
}

// touch bumps the version. Caller holds mu.
func (s *SnapshotSink) touch() {
	s.snap.Version++
	s.snap.UpdatedAt = s.clock()
}

// Snapshot returns a copy of the latest frames.
func (s *SnapshotSink) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.snap
	if s.snap.Chart != nil {
		chart := *s.snap.Chart
		chart.Bars = append([]core.Bar(nil), s.snap.Chart.Bars...)
		out.Chart = &chart
	}
	if s.snap.Panels != nil {
		panels := *s.snap.Panels
		out.Panels = &panels
	}
	if s.snap.Alert != nil {
		alert := *s.snap.Alert
		out.Alert = &alert
	}
	return out
}

// Version returns the number of frames drawn so far.
func (s *SnapshotSink) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Version
}
