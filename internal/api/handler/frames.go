package handler

import (
	"net/http"
	"strconv"

	"github.com/newthinker/botdeck/internal/api/response"
	"github.com/newthinker/botdeck/internal/render"
)

// FrameSource holds the latest drawn frames. render.SnapshotSink implements it.
type FrameSource interface {
	Snapshot() render.Snapshot
	Version() uint64
}

// FramesHandler serves the last drawn frames to polling clients. The frame
// version doubles as the ETag.
type FramesHandler struct {
	frames FrameSource
}

// NewFramesHandler creates a frames handler.
func NewFramesHandler(frames FrameSource) *FramesHandler {
	return &FramesHandler{frames: frames}
}

// Get returns the latest frames, or 304 if the client already has them.
func (h *FramesHandler) Get(w http.ResponseWriter, r *http.Request) {
	etag := `"` + strconv.FormatUint(h.frames.Version(), 10) + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	snap := h.frames.Snapshot()
	w.Header().Set("ETag", `"`+strconv.FormatUint(snap.Version, 10)+`"`)
	response.JSON(w, http.StatusOK, snap)
}
