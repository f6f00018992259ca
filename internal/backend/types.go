package backend

import (
	"errors"

	"github.com/newthinker/botdeck/internal/core"
)

// Envelope statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// envelope is the {status, msg} wrapper most endpoints answer with.
type envelope struct {
	Status string `json:"status"`
	Msg    string `json:"msg,omitempty"`
}

// err converts an error envelope to core.ErrBackend.
func (e envelope) err() error {
	if e.Status != StatusError {
		return nil
	}
	msg := e.Msg
	if msg == "" {
		msg = "unspecified error"
	}
	return core.WrapError(core.ErrBackend, errors.New(msg))
}

type klineResponse struct {
	envelope
	Data []core.Bar `json:"data"`
}

// statusResponse adds the error field get_data uses instead of an envelope.
type statusResponse struct {
	core.Status
	Error string `json:"error,omitempty"`
}

type toggleRequest struct {
	BotID  int64          `json:"bot_id"`
	Action core.BotAction `json:"action"`
}

type closeRequest struct {
	BotID int64 `json:"bot_id"`
}

type depositRequest struct {
	BotID  int64   `json:"bot_id"`
	Amount float64 `json:"amount"`
}
