package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/newthinker/botdeck/internal/api/command"
	"github.com/newthinker/botdeck/internal/api/response"
	"github.com/newthinker/botdeck/internal/core"
	"go.uber.org/zap"
)

// BotController is the part of app.View the control endpoints drive.
type BotController interface {
	BotID() int64
	Toggle(ctx context.Context, action core.BotAction) (string, error)
	ManualClose(ctx context.Context) (string, error)
	Deposit(ctx context.Context, amount float64) (string, error)
}

// BotHandler handles bot control requests and logs each command.
type BotHandler struct {
	bot      BotController
	commands *command.Store
	logger   *zap.Logger
}

// NewBotHandler creates a new bot handler.
func NewBotHandler(bot BotController, commands *command.Store, logger *zap.Logger) *BotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if commands == nil {
		commands = command.NewStore(0)
	}
	return &BotHandler{bot: bot, commands: commands, logger: logger}
}

// ToggleRequest is the request body for starting or stopping the bot.
type ToggleRequest struct {
	Action core.BotAction `json:"action"`
}

// DepositRequest is the request body for adding funds.
type DepositRequest struct {
	Amount float64 `json:"amount"`
}

// Toggle starts or stops the bot.
func (h *BotHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Action != core.ActionStart && req.Action != core.ActionStop {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidRequest, fmt.Errorf("action must be start or stop, got %q", req.Action)))
		return
	}

	h.run(w, command.KindToggle, map[string]any{"action": req.Action}, func() (string, error) {
		return h.bot.Toggle(r.Context(), req.Action)
	})
}

// Close closes the bot's position at market.
func (h *BotHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.run(w, command.KindClose, nil, func() (string, error) {
		return h.bot.ManualClose(r.Context())
	})
}

// Deposit adds funds to the bot.
func (h *BotHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if !decode(w, r, &req) {
		return
	}

	h.run(w, command.KindDeposit, map[string]any{"amount": req.Amount}, func() (string, error) {
		return h.bot.Deposit(r.Context(), req.Amount)
	})
}

// Commands lists recent commands, newest first.
func (h *BotHandler) Commands(w http.ResponseWriter, r *http.Request) {
	cmds := h.commands.List()
	response.JSON(w, http.StatusOK, map[string]any{
		"commands": cmds,
		"count":    len(cmds),
	})
}

// Command returns one command by id.
func (h *BotHandler) Command(w http.ResponseWriter, r *http.Request) {
	cmd, err := h.commands.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, cmd)
}

func (h *BotHandler) run(w http.ResponseWriter, kind string, params map[string]any, fn func() (string, error)) {
	cmd := h.commands.Create(kind, h.bot.BotID(), params)

	msg, err := fn()
	done, ferr := h.commands.Finish(cmd.ID, msg, err)
	if ferr != nil {
		// evicted while running
		done = cmd
	}

	if err != nil {
		h.logger.Warn("bot command failed",
			zap.String("command", kind),
			zap.Int64("bot_id", cmd.BotID),
			zap.Error(err),
		)
		response.Fail(w, err)
		return
	}

	h.logger.Info("bot command sent",
		zap.String("command", kind),
		zap.Int64("bot_id", cmd.BotID),
		zap.String("msg", msg),
	)
	response.JSON(w, http.StatusOK, done)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidRequest, err))
		return false
	}
	return true
}

func errMissing(field string) error {
	return fmt.Errorf("%s is required", field)
}
