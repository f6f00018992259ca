// Package scheduler implements the polling scheduler behind a dashboard view.
//
// The scheduler:
//   - owns one fixed-interval timer per poll job (status, bars)
//   - polls every job once immediately on start and on every resume
//   - pauses (clears timers) while the view is hidden
//   - skips a tick when the job's previous poll has not returned yet
//
// Hiding the view never cancels a poll already in flight; its result is
// still applied when it arrives.
package scheduler
