package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the scheduler lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateActive
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Poll triggers
const (
	TriggerStart    = "start"
	TriggerResume   = "resume"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
)

// Job is one periodic poll.
type Job struct {
	Name     string
	Interval time.Duration
	Poll     func(ctx context.Context)
}

// Recorder receives poll accounting. metrics.Registry implements it.
type Recorder interface {
	RecordPoll(job, trigger string)
	RecordPollSkipped(job string)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used to create interval tickers.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithRecorder sets the poll recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) {
		s.recorder = r
	}
}

type jobState struct {
	Job

	mu      sync.Mutex
	running bool
	pending string // trigger of a deferred rerun, empty if none
}

// Scheduler runs poll jobs on fixed intervals while the view is visible.
type Scheduler struct {
	jobs     []*jobState
	clock    Clock
	logger   *zap.Logger
	recorder Recorder

	mu         sync.Mutex
	state      State
	ctx        context.Context
	cancel     context.CancelFunc
	stopTimers context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a scheduler for the given jobs. Jobs without a positive
// interval are rejected.
func New(jobs []Job, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		clock:  realClock{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	seen := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		if j.Interval <= 0 {
			return nil, fmt.Errorf("job %s: interval must be positive, got %v", j.Name, j.Interval)
		}
		if j.Poll == nil {
			return nil, fmt.Errorf("job %s: poll function is required", j.Name)
		}
		if _, dup := seen[j.Name]; dup {
			return nil, fmt.Errorf("job %s registered twice", j.Name)
		}
		seen[j.Name] = struct{}{}
		s.jobs = append(s.jobs, &jobState{Job: j})
	}

	return s, nil
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start polls every job once and then starts the interval timers.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("scheduler already %s", s.state)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.state = StateActive

	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))

	s.pollAll(TriggerStart)
	s.startTimers()
	return nil
}

// Hide pauses the scheduler. Polls already in flight keep running.
func (s *Scheduler) Hide() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return false
	}

	s.stopTimers()
	s.state = StatePaused
	s.logger.Debug("scheduler paused")
	return true
}

// Show resumes a paused scheduler with one immediate poll of every job. A
// job still polling from before Hide polls again as soon as it returns.
// Showing an active scheduler does nothing.
func (s *Scheduler) Show() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return false
	}

	s.state = StateActive
	s.logger.Debug("scheduler resumed")

	s.pollAll(TriggerResume)
	s.startTimers()
	return true
}

// Trigger runs one out-of-band poll of the named job. If the job is in
// flight the poll runs once the current one returns.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive && s.state != StatePaused {
		return fmt.Errorf("scheduler %s", s.state)
	}
	for _, j := range s.jobs {
		if j.Name == name {
			s.fire(j, TriggerManual)
			return nil
		}
	}
	return fmt.Errorf("unknown job %s", name)
}

// Stop clears the timers, cancels in-flight polls and waits for them.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	if s.state == StateActive {
		s.stopTimers()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.state = StateStopped
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startTimers creates one ticker per job. Caller holds mu.
func (s *Scheduler) startTimers() {
	timerCtx, cancel := context.WithCancel(s.ctx)
	s.stopTimers = cancel

	for _, j := range s.jobs {
		t := s.clock.NewTicker(j.Interval)
		s.wg.Add(1)
		go s.runTimer(timerCtx, j, t)
	}
}

func (s *Scheduler) runTimer(ctx context.Context, j *jobState, t Ticker) {
	defer s.wg.Done()
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if ctx.Err() != nil {
				return
			}
			s.fire(j, TriggerInterval)
		}
	}
}

// pollAll fires every job. Caller holds mu.
func (s *Scheduler) pollAll(trigger string) {
	for _, j := range s.jobs {
		s.fire(j, trigger)
	}
}

// deferred triggers rerun once the in-flight poll returns instead of being
// dropped; several of them coalesce into one rerun.
var deferred = map[string]bool{
	TriggerManual: true,
	TriggerResume: true,
}

// fire starts a poll unless the previous one for this job is still running.
func (s *Scheduler) fire(j *jobState, trigger string) {
	j.mu.Lock()
	if j.running {
		if deferred[trigger] {
			if j.pending == "" {
				j.pending = trigger
			}
			j.mu.Unlock()
			s.logger.Debug("poll deferred, previous still in flight",
				zap.String("job", j.Name),
				zap.String("trigger", trigger),
			)
			return
		}
		j.mu.Unlock()
		s.logger.Debug("poll skipped, previous still in flight",
			zap.String("job", j.Name),
			zap.String("trigger", trigger),
		)
		if s.recorder != nil {
			s.recorder.RecordPollSkipped(j.Name)
		}
		return
	}
	j.running = true
	j.mu.Unlock()

	if s.recorder != nil {
		s.recorder.RecordPoll(j.Name, trigger)
	}

	s.wg.Add(1)
	go s.run(j)
}

func (s *Scheduler) run(j *jobState) {
	defer s.wg.Done()
	for {
		j.Poll(s.ctx)

		j.mu.Lock()
		trigger := j.pending
		j.pending = ""
		if trigger == "" || s.ctx.Err() != nil {
			j.running = false
			j.mu.Unlock()
			return
		}
		j.mu.Unlock()

		if s.recorder != nil {
			s.recorder.RecordPoll(j.Name, trigger)
		}
	}
}
