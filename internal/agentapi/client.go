// Package agentapi binds the agent backend's HTTP contract to typed calls.
package agentapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Harshitk-cp/voicedesk/internal/domain"
	"github.com/Harshitk-cp/voicedesk/internal/transport"
)

const agentsPath = "/api/v1/agents"

// Doer is the subset of transport.Client the API client needs.
type Doer interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string, out any) error
}

var _ Doer = (*transport.Client)(nil)

type Client struct {
	t Doer
}

func New(t Doer) *Client {
	return &Client{t: t}
}

func agentPath(id string, suffix ...string) string {
	p := agentsPath + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func (c *Client) Create(ctx context.Context, req domain.CreateAgentRequest) (*domain.Agent, error) {
	var a domain.Agent
	if err := c.t.Post(ctx, agentsPath, req, &a); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &a, nil
}

// List returns agents in the order the backend sends them.
func (c *Client) List(ctx context.Context) ([]domain.Agent, error) {
	var agents []domain.Agent
	if err := c.t.Get(ctx, agentsPath, &agents); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	if agents == nil {
		agents = []domain.Agent{}
	}
	return agents, nil
}

// Get fails with an error satisfying transport.IsNotFound for unknown ids.
func (c *Client) Get(ctx context.Context, id string) (*domain.Agent, error) {
	var a domain.Agent
	if err := c.t.Get(ctx, agentPath(id), &a); err != nil {
		return nil, fmt.Errorf("get agent %s: %w", id, err)
	}
	return &a, nil
}

func (c *Client) GetStatus(ctx context.Context, id string) (*domain.Status, error) {
	var s domain.Status
	if err := c.t.Get(ctx, agentPath(id, "status"), &s); err != nil {
		return nil, fmt.Errorf("get agent status %s: %w", id, err)
	}
	return &s, nil
}

// Start asks the backend to launch the agent's process. Whether starting a
// running agent is an error is up to the backend.
func (c *Client) Start(ctx context.Context, id string) (*domain.StartResponse, error) {
	var r domain.StartResponse
	if err := c.t.Post(ctx, agentPath(id, "start"), nil, &r); err != nil {
		return nil, fmt.Errorf("start agent %s: %w", id, err)
	}
	return &r, nil
}

func (c *Client) Stop(ctx context.Context, id string) (*domain.StopResponse, error) {
	var r domain.StopResponse
	if err := c.t.Post(ctx, agentPath(id, "stop"), nil, &r); err != nil {
		return nil, fmt.Errorf("stop agent %s: %w", id, err)
	}
	return &r, nil
}

func (c *Client) Delete(ctx context.Context, id string) (*domain.DeleteResponse, error) {
	var r domain.DeleteResponse
	if err := c.t.Delete(ctx, agentPath(id), &r); err != nil {
		return nil, fmt.Errorf("delete agent %s: %w", id, err)
	}
	return &r, nil
}

// UpdateDeployment replaces the agent's deployment fields. An empty
// DeploymentStatus is sent as domain.DefaultDeploymentStatus.
func (c *Client) UpdateDeployment(ctx context.Context, id string, u domain.DeploymentUpdate) (*domain.Agent, error) {
	if u.DeploymentStatus == "" {
		u.DeploymentStatus = domain.DefaultDeploymentStatus
	}

	var a domain.Agent
	if err := c.t.Post(ctx, agentPath(id, "deployment"), u, &a); err != nil {
		return nil, fmt.Errorf("update deployment %s: %w", id, err)
	}
	return &a, nil
}

// Dispatch places a live call through the call-routing platform.
func (c *Client) Dispatch(ctx context.Context, id string, req domain.DispatchRequest) (*domain.DispatchResponse, error) {
	var r domain.DispatchResponse
	if err := c.t.Post(ctx, agentPath(id, "dispatch"), req, &r); err != nil {
		return nil, fmt.Errorf("dispatch agent %s: %w", id, err)
	}
	return &r, nil
}

// ListRunning returns the processes the backend currently supervises.
func (c *Client) ListRunning(ctx context.Context) (*domain.RunningAgents, error) {
	var r domain.RunningAgents
	if err := c.t.Get(ctx, agentsPath+"/running/list", &r); err != nil {
		return nil, fmt.Errorf("list running agents: %w", err)
	}
	return &r, nil
}
