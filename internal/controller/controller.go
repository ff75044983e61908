// Package controller holds the client-side state machines behind the agent
// views: the agent list, the create form, and the agent detail page.
package controller

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/voicedesk/internal/domain"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultSuccessDwell = 2 * time.Second
)

// AgentAPI is the backend surface the controllers drive.
type AgentAPI interface {
	Create(ctx context.Context, req domain.CreateAgentRequest) (*domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
	Get(ctx context.Context, id string) (*domain.Agent, error)
	GetStatus(ctx context.Context, id string) (*domain.Status, error)
	Start(ctx context.Context, id string) (*domain.StartResponse, error)
	Stop(ctx context.Context, id string) (*domain.StopResponse, error)
	Delete(ctx context.Context, id string) (*domain.DeleteResponse, error)
	UpdateDeployment(ctx context.Context, id string, u domain.DeploymentUpdate) (*domain.Agent, error)
	Dispatch(ctx context.Context, id string, req domain.DispatchRequest) (*domain.DispatchResponse, error)
}

// Navigator moves the front end between views.
type Navigator interface {
	ShowList()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) ShowList() { f() }

type ActionKind string

const (
	ActionNone       ActionKind = ""
	ActionStart      ActionKind = "start"
	ActionStop       ActionKind = "stop"
	ActionDelete     ActionKind = "delete"
	ActionDeployment ActionKind = "deployment"
	ActionDispatch   ActionKind = "dispatch"
	ActionCreate     ActionKind = "create"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrActionInFlight = errors.New("another action is in progress")
	ErrNotReady       = errors.New("agent is not loaded")
	ErrClosed         = errors.New("controller is closed")
	ErrAlreadyCreated = errors.New("agent already created")
)

// ValidationError reports input rejected before any request was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ActionError is a failed backend call with the message to show the user.
type ActionError struct {
	Action  ActionKind
	Message string
	Err     error
}

func (e *ActionError) Error() string { return e.Message }

func (e *ActionError) Unwrap() error { return e.Err }

type options struct {
	pollInterval time.Duration
	successDwell time.Duration
}

type Option func(*options)

// WithPollInterval sets how often the detail view refreshes runtime status.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithSuccessDwell sets how long a success indicator stays up before the
// view moves on.
func WithSuccessDwell(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.successDwell = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		pollInterval: DefaultPollInterval,
		successDwell: DefaultSuccessDwell,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func cloneAgent(a *domain.Agent) *domain.Agent {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
