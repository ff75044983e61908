package controller

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/Harshitk-cp/voicedesk/internal/agentapi"
	"github.com/Harshitk-cp/voicedesk/internal/agenttest"
	"github.com/Harshitk-cp/voicedesk/internal/domain"
	"github.com/Harshitk-cp/voicedesk/internal/transport"
)

// MockAgentAPI mocks the AgentAPI interface.
type MockAgentAPI struct {
	mock.Mock
}

func (m *MockAgentAPI) Create(ctx context.Context, req domain.CreateAgentRequest) (*domain.Agent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentAPI) List(ctx context.Context) ([]domain.Agent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Agent), args.Error(1)
}

func (m *MockAgentAPI) Get(ctx context.Context, id string) (*domain.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentAPI) GetStatus(ctx context.Context, id string) (*domain.Status, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Status), args.Error(1)
}

func (m *MockAgentAPI) Start(ctx context.Context, id string) (*domain.StartResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StartResponse), args.Error(1)
}

func (m *MockAgentAPI) Stop(ctx context.Context, id string) (*domain.StopResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StopResponse), args.Error(1)
}

func (m *MockAgentAPI) Delete(ctx context.Context, id string) (*domain.DeleteResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeleteResponse), args.Error(1)
}

func (m *MockAgentAPI) UpdateDeployment(ctx context.Context, id string, u domain.DeploymentUpdate) (*domain.Agent, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentAPI) Dispatch(ctx context.Context, id string, req domain.DispatchRequest) (*domain.DispatchResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DispatchResponse), args.Error(1)
}

type countingNav struct {
	calls atomic.Int32
}

func (n *countingNav) ShowList() { n.calls.Add(1) }

func (n *countingNav) Count() int { return int(n.calls.Load()) }

func newBackend(t *testing.T) (AgentAPI, *agenttest.Server) {
	t.Helper()
	backend, srv := agenttest.Start(t)
	return agentapi.New(transport.New(srv.URL)), backend
}

func strPtr(s string) *string { return &s }
