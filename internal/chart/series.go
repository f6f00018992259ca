// Package chart keeps a candle series consistent while live ticks and
// periodic backend snapshots arrive independently of each other.
package chart

import (
	"math"
	"sort"
	"sync"

	"github.com/newthinker/botdeck/internal/core"
)

// Outcome describes what a reconcile did to the series.
type Outcome string

const (
	OutcomeMerged    Outcome = "merged"
	OutcomeNewBucket Outcome = "new_bucket"
	OutcomeStarted   Outcome = "started"
	OutcomeStale     Outcome = "stale"
	OutcomeIgnored   Outcome = "ignored"
)

// Series owns an ordered candle sequence for one bot and timeframe.
// The last bar is the current bar and the only mutable one.
type Series struct {
	timeframe core.Timeframe

	mu       sync.RWMutex
	history  []core.Bar // frozen bars, ascending by time
	current  core.Bar
	hasBar   bool
	disposed bool
}

// NewSeries creates an empty series for the given timeframe
func NewSeries(tf core.Timeframe) *Series {
	return &Series{timeframe: tf}
}

// Timeframe returns the timeframe the series was created for.
func (s *Series) Timeframe() core.Timeframe {
	return s.timeframe
}

// Seed replaces the entire series. An empty input keeps the prior state.
// Invalid bars are dropped, the rest are sorted by time and duplicates
// collapse onto the last occurrence.
func (s *Series) Seed(bars []core.Bar) bool {
	sorted := make([]core.Bar, 0, len(bars))
	for _, b := range bars {
		if b.IsValid() {
			sorted = append(sorted, b)
		}
	}
	if len(sorted) == 0 {
		return false
	}

	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	unique := sorted[:0]
	for _, b := range sorted {
		if n := len(unique); n > 0 && unique[n-1].Time == b.Time {
			unique[n-1] = b
			continue
		}
		unique = append(unique, b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return false
	}

	last := len(unique) - 1
	s.history = append([]core.Bar(nil), unique[:last]...)
	s.current = unique[last]
	s.hasBar = true
	return true
}

// ApplyTick folds a live price into the current bar. It requires a current
// bar and a positive price; time and open are never touched.
func (s *Series) ApplyTick(price float64) bool {
	if !(price > 0) || math.IsInf(price, 0) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasBar || s.disposed {
		return false
	}

	s.current.Close = price
	s.current.High = math.Max(s.current.High, price)
	s.current.Low = math.Min(s.current.Low, price)
	return true
}

// Reconcile merges the latest bars fetched from the backend. Only the last
// bar of the window is considered and buckets are compared by time alone:
//   - same time as the current bar: open is taken from the snapshot, high and
//     low widen to cover both sources, close stays under tick control;
//   - newer time: the current bar is frozen into history and the fetched bar
//     becomes current;
//   - older time: the snapshot is stale and dropped.
func (s *Series) Reconcile(window []core.Bar) Outcome {
	if len(window) == 0 {
		return OutcomeIgnored
	}
	latest := window[len(window)-1]

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return OutcomeIgnored
	}

	if !s.hasBar {
		s.current = latest
		s.hasBar = true
		return OutcomeStarted
	}

	switch {
	case latest.Time == s.current.Time:
		s.current.Open = latest.Open
		s.current.High = math.Max(s.current.High, latest.High)
		s.current.Low = math.Min(s.current.Low, latest.Low)
		return OutcomeMerged
	case latest.Time > s.current.Time:
		s.history = append(s.history, s.current)
		s.current = latest
		return OutcomeNewBucket
	default:
		return OutcomeStale
	}
}

// Bars returns a copy of the full series, current bar last.
func (s *Series) Bars() []core.Bar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasBar {
		return []core.Bar{}
	}

	result := make([]core.Bar, 0, len(s.history)+1)
	result = append(result, s.history...)
	return append(result, s.current)
}

// Current returns the mutable bar, if any.
func (s *Series) Current() (core.Bar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.hasBar
}

// Len returns the number of bars including the current one.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasBar {
		return 0
	}
	return len(s.history) + 1
}

// Dispose drops all bars. A disposed series ignores every further update.
func (s *Series) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.current = core.Bar{}
	s.hasBar = false
	s.disposed = true
}
