// Package gate suppresses panel re-renders when the polled status has not
// changed since the previous cycle.
//
// The fingerprint is an equality proxy, not a security primitive. A hash
// collision only delays a render until the next differing cycle.
package gate

import (
	"encoding/json"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/newthinker/botdeck/internal/core"
)

// projection lists the status fields shown by the gated panels. Volatile
// fields outside it (market price, config) must not trigger a render.
type projection struct {
	State   map[string]any `json:"state"`
	Logs    []string       `json:"logs"`
	Ladder  []any          `json:"ladder"`
	Status  string         `json:"status"`
	Running bool           `json:"running"`
	PnL     float64        `json:"pnl"`
}

// Fingerprint hashes the gated projection of a status payload.
func Fingerprint(status core.Status) uint64 {
	p := projection{
		State:   status.State,
		Logs:    status.Global.Logs,
		Ladder:  status.Global.LadderPreview,
		Status:  status.Global.StatusMsg,
		Running: status.Global.IsRunning,
		PnL:     status.Metrics.PnL,
	}
	// map keys are encoded in sorted order, so equal payloads hash equally
	b, err := json.Marshal(p)
	if err != nil {
		// unencodable values (NaN pnl) fall back to the message alone
		return xxhash.Sum64String(status.Global.StatusMsg)
	}
	return xxhash.Sum64(b)
}

// Gate remembers the last fingerprint of one session.
type Gate struct {
	session string

	mu   sync.Mutex
	last uint64
	seen bool
}

// New creates a gate for a fresh session.
func New() *Gate {
	return &Gate{session: uuid.NewString()}
}

// Session returns the session identifier the gate was created for.
func (g *Gate) Session() string {
	return g.session
}

// ShouldRender reports whether the panels need redrawing. The first call of a
// session always renders. The stored fingerprint is updated on every call.
func (g *Gate) ShouldRender(status core.Status) bool {
	_, render := g.Check(status)
	return render
}

// Check is ShouldRender that also returns the computed fingerprint.
func (g *Gate) Check(status core.Status) (uint64, bool) {
	fp := Fingerprint(status)

	g.mu.Lock()
	defer g.mu.Unlock()

	render := !g.seen || fp != g.last
	g.last = fp
	g.seen = true
	return fp, render
}

// Reset forgets the stored fingerprint so the next call renders.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = false
	g.last = 0
}
