// Package command keeps a bounded log of the bot control commands issued
// through the API.
package command

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/botdeck/internal/core"
)

// Status represents command status.
type Status string

const (
	StatusPending Status = "pending"
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
)

// Command kinds
const (
	KindToggle  = "toggle"
	KindClose   = "close"
	KindDeposit = "deposit"
)

// Command is one control request sent to the backend.
type Command struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	BotID     int64          `json:"bot_id"`
	Params    map[string]any `json:"params,omitempty"`
	Status    Status         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Error     *core.Error    `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store holds the most recent commands.
type Store struct {
	commands map[string]*Command
	order    []string // insertion order for eviction
	maxSize  int
	mu       sync.RWMutex
	now      func() time.Time
}

// NewStore creates a command store keeping at most maxSize entries.
func NewStore(maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Store{
		commands: make(map[string]*Command),
		order:    make([]string, 0, maxSize),
		maxSize:  maxSize,
		now:      time.Now,
	}
}

// Create records a pending command and returns a copy of it.
func (s *Store) Create(kind string, botID int64, params map[string]any) Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cmd := &Command{
		ID:        uuid.NewString(),
		Kind:      kind,
		BotID:     botID,
		Params:    params,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Evict oldest if at capacity
	if len(s.commands) >= s.maxSize && len(s.order) > 0 {
		oldest := s.order[0]
		delete(s.commands, oldest)
		s.order = s.order[1:]
	}

	s.commands[cmd.ID] = cmd
	s.order = append(s.order, cmd.ID)
	return *cmd
}

// Finish stores the outcome of a command and returns the updated copy.
func (s *Store) Finish(id, message string, err error) (Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, ok := s.commands[id]
	if !ok {
		return Command{}, core.ErrNotFound
	}

	cmd.UpdatedAt = s.now()
	cmd.Message = message
	if err != nil {
		cmd.Status = StatusFailed
		cmd.Error = asCoreError(err)
	} else {
		cmd.Status = StatusOK
	}
	return *cmd, nil
}

// Get retrieves a command by ID.
func (s *Store) Get(id string) (Command, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cmd, ok := s.commands[id]
	if !ok {
		return Command{}, core.ErrNotFound
	}
	return *cmd, nil
}

// List returns the stored commands, newest first.
func (s *Store) List() []Command {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Command, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		result = append(result, *s.commands[s.order[i]])
	}
	return result
}

// Len returns the number of stored commands.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.commands)
}

func asCoreError(err error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return &core.Error{Code: coreErr.Code, Message: err.Error()}
	}
	return &core.Error{Code: "COMMAND_FAILED", Message: err.Error()}
}
