package controller

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/voicedesk/internal/agenttest"
	"github.com/Harshitk-cp/voicedesk/internal/domain"
	"github.com/Harshitk-cp/voicedesk/internal/transport"
)

func TestCreate_CanSubmit(t *testing.T) {
	c := NewCreate(&MockAgentAPI{}, nil, nil)
	assert.False(t, c.CanSubmit())

	c.SetDescription("Max")
	assert.False(t, c.CanSubmit(), "type is required")

	require.NoError(t, c.SetAgentType(string(domain.AgentTypeCarVendor)))
	assert.True(t, c.CanSubmit())

	c.SetDescription("  \n ")
	assert.False(t, c.CanSubmit(), "blank description is not enough")
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	c := NewCreate(&MockAgentAPI{}, nil, nil)
	err := c.SetAgentType("plumber")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, c.Snapshot().AgentType)
}

func TestCreate_SubmitWithoutInputMakesNoRequest(t *testing.T) {
	api := &MockAgentAPI{}
	c := NewCreate(api, nil, nil)
	c.SetDescription("Max")

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrValidation)
	api.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_SubmitSendsParsedPersona(t *testing.T) {
	api, backend := newBackend(t)
	nav := &countingNav{}
	c := NewCreate(api, nav, nil, WithSuccessDwell(20*time.Millisecond))
	defer c.Close()

	require.NoError(t, c.SetAgentType("car-vendor"))
	c.SetDescription("Max\nFriendly and upbeat, speaks fast.")

	preview := c.Preview()
	assert.Equal(t, "Max", preview.Name)
	assert.Equal(t, "Friendly and upbeat, speaks fast.", preview.Personality)

	a, err := c.Submit(context.Background())
	require.NoError(t, err)

	stored, ok := backend.Agent(a.ID)
	require.True(t, ok)
	assert.Equal(t, domain.AgentTypeCarVendor, stored.AgentType)
	assert.Equal(t, "Max", stored.Name)
	assert.Equal(t, "Friendly and upbeat, speaks fast.", stored.Personality)

	s := c.Snapshot()
	assert.True(t, s.Success)
	assert.False(t, s.Submitting)
	require.NotNil(t, s.Created)
	assert.Equal(t, a.ID, s.Created.ID)
	assert.False(t, c.CanSubmit())

	assert.Zero(t, nav.Count(), "navigation waits for the success dwell")
	require.Eventually(t, func() bool { return nav.Count() == 1 }, testWait, testTick)
}

func TestCreate_SingleLineUsesTextForBoth(t *testing.T) {
	api := &MockAgentAPI{}
	api.On("Create", mock.Anything, domain.CreateAgentRequest{
		AgentType:   domain.AgentTypeRestaurantReceptionist,
		Name:        "Just one line",
		Personality: "Just one line",
	}).Return(&domain.Agent{ID: "a1"}, nil)

	c := NewCreate(api, nil, nil, WithSuccessDwell(time.Hour))
	defer c.Close()
	require.NoError(t, c.SetAgentType("restaurant-receptionist"))
	c.SetDescription("Just one line")

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestCreate_FailureKeepsInput(t *testing.T) {
	api, backend := newBackend(t)
	backend.Fail(agenttest.RouteCreate, http.StatusInternalServerError, "Failed to create agent: database unavailable")
	nav := &countingNav{}

	c := NewCreate(api, nav, nil, WithSuccessDwell(0))
	require.NoError(t, c.SetAgentType("car-vendor"))
	c.SetDescription("Max\nFriendly.")

	_, err := c.Submit(context.Background())

	var actionErr *ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, ActionCreate, actionErr.Action)

	s := c.Snapshot()
	assert.Equal(t, "Failed to create agent: database unavailable", s.Error)
	assert.False(t, s.Success)
	assert.False(t, s.Submitting)
	assert.Equal(t, "Max\nFriendly.", s.Description)
	assert.Equal(t, domain.AgentTypeCarVendor, s.AgentType)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, nav.Count())
}

func TestCreate_NetworkFailureUsesFallback(t *testing.T) {
	api := &MockAgentAPI{}
	api.On("Create", mock.Anything, mock.Anything).
		Return(nil, &transport.NetworkError{Method: "POST", Path: "/api/v1/agents/", Err: errors.New("dial tcp: connection refused")})

	c := NewCreate(api, nil, nil)
	require.NoError(t, c.SetAgentType("car-vendor"))
	c.SetDescription("Max")

	_, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to create agent. Please try again.", c.Snapshot().Error)
}

func TestCreate_CloseCancelsNavigation(t *testing.T) {
	api := &MockAgentAPI{}
	api.On("Create", mock.Anything, mock.Anything).Return(&domain.Agent{ID: "a1"}, nil)
	nav := &countingNav{}

	c := NewCreate(api, nav, nil, WithSuccessDwell(30*time.Millisecond))
	require.NoError(t, c.SetAgentType("car-vendor"))
	c.SetDescription("Max")

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	c.Close()

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, nav.Count())
}

func TestCreate_SecondSubmitAfterSuccessIsRejected(t *testing.T) {
	api, backend := newBackend(t)
	c := NewCreate(api, nil, nil, WithSuccessDwell(time.Hour))
	defer c.Close()

	require.NoError(t, c.SetAgentType("car-vendor"))
	c.SetDescription("Max\nFriendly.")
	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	_, err = c.Submit(context.Background())
	require.ErrorIs(t, err, ErrAlreadyCreated)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, backend.Hits(agenttest.RouteCreate))
}
