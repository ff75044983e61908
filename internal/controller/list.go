package controller

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/voicedesk/internal/domain"
	"github.com/Harshitk-cp/voicedesk/internal/transport"
)

type ListState struct {
	Loading bool
	Loaded  bool
	Agents  []domain.Agent
	Error   string
	// CanRetry is set alongside Error.
	CanRetry bool
	// ShowCreatePrompt is set when a load succeeded with no agents.
	ShowCreatePrompt bool
	Deleting         map[string]bool
}

// List drives the agent list view. Agents keep the backend's order.
type List struct {
	api    AgentAPI
	logger *zap.Logger

	mu    sync.Mutex
	state ListState
	// Only the latest load may update state.
	gen uint64
	// Deleted ids stay hidden even if a load that raced the delete
	// still returns them.
	removed map[string]struct{}
}

func NewList(api AgentAPI, logger *zap.Logger) *List {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &List{
		api:     api,
		logger:  logger,
		state:   ListState{Deleting: map[string]bool{}},
		removed: map[string]struct{}{},
	}
}

// Load fetches all agents. On failure the previous agents are kept and the
// error is returned.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.state.Loading = true
	l.state.Error = ""
	l.state.CanRetry = false
	l.mu.Unlock()

	agents, err := l.api.List(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return err
	}
	l.state.Loading = false

	if err != nil {
		l.state.Error = transport.Message(err, "Failed to load agents")
		l.state.CanRetry = true
		l.logger.Warn("failed to load agents", zap.Error(err))
		return &ActionError{Message: l.state.Error, Err: err}
	}

	l.state.Agents = l.visible(agents)
	l.state.Loaded = true
	l.state.ShowCreatePrompt = len(l.state.Agents) == 0
	return nil
}

func (l *List) visible(agents []domain.Agent) []domain.Agent {
	out := make([]domain.Agent, 0, len(agents))
	for _, a := range agents {
		if _, gone := l.removed[a.ID]; !gone {
			out = append(out, a)
		}
	}
	return out
}

func (l *List) Retry(ctx context.Context) error {
	return l.Load(ctx)
}

// Delete removes an agent from the backend and, once confirmed, from the
// list.
func (l *List) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	if l.state.Deleting[id] {
		l.mu.Unlock()
		return ErrActionInFlight
	}
	l.state.Deleting[id] = true
	l.mu.Unlock()

	_, err := l.api.Delete(ctx, id)

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.state.Deleting, id)

	if err != nil {
		l.logger.Warn("failed to delete agent", zap.String("agent_id", id), zap.Error(err))
		return &ActionError{Action: ActionDelete, Message: transport.Message(err, "Failed to delete agent"), Err: err}
	}

	l.removed[id] = struct{}{}
	l.state.Agents = l.visible(l.state.Agents)
	l.state.ShowCreatePrompt = l.state.Loaded && len(l.state.Agents) == 0
	return nil
}

func (l *List) Snapshot() ListState {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state
	s.Agents = make([]domain.Agent, len(l.state.Agents))
	copy(s.Agents, l.state.Agents)
	s.Deleting = make(map[string]bool, len(l.state.Deleting))
	for id := range l.state.Deleting {
		s.Deleting[id] = true
	}
	return s
}

func (l *List) Stats() domain.AgentStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.Summarize(l.state.Agents)
}
