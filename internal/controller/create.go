package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/voicedesk/internal/domain"
	"github.com/Harshitk-cp/voicedesk/internal/transport"
)

type CreateState struct {
	AgentType   domain.AgentType
	Description string
	Submitting  bool
	Success     bool
	Error       string
	Created     *domain.Agent
}

// Create drives the new-agent form. The free-text description is split into
// a name and a personality when submitted.
type Create struct {
	api    AgentAPI
	nav    Navigator
	logger *zap.Logger
	opts   options

	mu       sync.Mutex
	state    CreateState
	dwell    *time.Timer
	disposed bool
}

func NewCreate(api AgentAPI, nav Navigator, logger *zap.Logger, opts ...Option) *Create {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Create{
		api:    api,
		nav:    nav,
		logger: logger,
		opts:   buildOptions(opts),
	}
}

// SetAgentType selects the agent type. Unknown types are rejected.
func (c *Create) SetAgentType(t string) error {
	if !domain.ValidAgentType(t) {
		return &ValidationError{Message: "Please select an agent type"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.AgentType = domain.AgentType(t)
	return nil
}

func (c *Create) SetDescription(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Description = text
}

// CanSubmit reports whether both fields are filled and nothing is pending.
func (c *Create) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked()
}

func (c *Create) canSubmitLocked() bool {
	return c.state.AgentType != "" &&
		strings.TrimSpace(c.state.Description) != "" &&
		!c.state.Submitting &&
		!c.state.Success
}

// Preview returns the name and personality the current description maps to.
func (c *Create) Preview() domain.Persona {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.ParsePersona(c.state.Description)
}

// Submit creates the agent. On success the list view is shown after the
// success dwell. On failure the entered input is kept.
func (c *Create) Submit(ctx context.Context) (*domain.Agent, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.state.Submitting {
		c.mu.Unlock()
		return nil, ErrActionInFlight
	}
	if c.state.Success {
		c.mu.Unlock()
		return nil, ErrAlreadyCreated
	}
	if !c.canSubmitLocked() {
		c.mu.Unlock()
		return nil, &ValidationError{Message: "Please select an agent type and describe the agent"}
	}
	req := domain.ParsePersona(c.state.Description).Request(c.state.AgentType)
	c.state.Submitting = true
	c.state.Error = ""
	c.mu.Unlock()

	a, err := c.api.Create(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Submitting = false
	if c.disposed {
		return a, ErrClosed
	}

	if err != nil {
		c.state.Error = transport.Message(err, "Failed to create agent. Please try again.")
		c.logger.Warn("failed to create agent", zap.Error(err))
		return nil, &ActionError{Action: ActionCreate, Message: c.state.Error, Err: err}
	}

	c.state.Success = true
	c.state.Created = a
	c.logger.Info("agent created",
		zap.String("agent_id", a.ID),
		zap.String("agent_type", string(a.AgentType)))

	c.dwell = time.AfterFunc(c.opts.successDwell, c.finish)
	return a, nil
}

func (c *Create) finish() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.dwell = nil
	c.mu.Unlock()

	if c.nav != nil {
		c.nav.ShowList()
	}
}

func (c *Create) Snapshot() CreateState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Created = cloneAgent(c.state.Created)
	return s
}

// Close cancels a pending navigation.
func (c *Create) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	if c.dwell != nil {
		c.dwell.Stop()
		c.dwell = nil
	}
}
