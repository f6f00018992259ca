// Package handler serves the view and bot control endpoints.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/newthinker/botdeck/internal/api/response"
	"github.com/newthinker/botdeck/internal/app"
	"github.com/newthinker/botdeck/internal/core"
)

// ViewController is the part of app.View the view endpoints drive.
type ViewController interface {
	Snapshot() app.Snapshot
	Bars() []core.Bar
	Hide() bool
	Show() bool
	SwitchTimeframe(ctx context.Context, timeframe string) error
	ForceRefresh() error
}

// ViewHandler handles view API requests.
type ViewHandler struct {
	view ViewController
}

// NewViewHandler creates a new view handler.
func NewViewHandler(view ViewController) *ViewHandler {
	return &ViewHandler{view: view}
}

// TimeframeRequest is the request body for switching timeframe.
type TimeframeRequest struct {
	Timeframe string `json:"timeframe"`
}

// Get returns the current view snapshot.
func (h *ViewHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.view.Snapshot())
}

// Bars returns the full charted series.
func (h *ViewHandler) Bars(w http.ResponseWriter, r *http.Request) {
	bars := h.view.Bars()
	response.JSON(w, http.StatusOK, map[string]any{
		"timeframe": h.view.Snapshot().Timeframe,
		"bars":      bars,
		"count":     len(bars),
	})
}

// Hide pauses polling.
func (h *ViewHandler) Hide(w http.ResponseWriter, r *http.Request) {
	changed := h.view.Hide()
	h.state(w, changed)
}

// Show resumes polling.
func (h *ViewHandler) Show(w http.ResponseWriter, r *http.Request) {
	changed := h.view.Show()
	h.state(w, changed)
}

func (h *ViewHandler) state(w http.ResponseWriter, changed bool) {
	response.JSON(w, http.StatusOK, map[string]any{
		"state":   h.view.Snapshot().State,
		"changed": changed,
	})
}

// Timeframe switches the charted timeframe and reseeds the chart.
func (h *ViewHandler) Timeframe(w http.ResponseWriter, r *http.Request) {
	var req TimeframeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidRequest, err))
		return
	}
	if req.Timeframe == "" {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidRequest, errMissing("timeframe")))
		return
	}

	if err := h.view.SwitchTimeframe(r.Context(), req.Timeframe); err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, h.view.Snapshot())
}

// Refresh forces an immediate status poll that re-renders the panels.
func (h *ViewHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.view.ForceRefresh(); err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, map[string]any{"refresh": true})
}
