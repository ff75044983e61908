package domain

import (
	"time"
)

type AgentType string

const (
	AgentTypeRestaurantReceptionist AgentType = "restaurant-receptionist"
	AgentTypeCarVendor              AgentType = "car-vendor"
)

// AgentTypes lists the agent types the backend accepts, in display order.
var AgentTypes = []AgentType{
	AgentTypeRestaurantReceptionist,
	AgentTypeCarVendor,
}

func ValidAgentType(t string) bool {
	switch AgentType(t) {
	case AgentTypeRestaurantReceptionist, AgentTypeCarVendor:
		return true
	}
	return false
}

// Label returns the human readable name of the agent type.
func (t AgentType) Label() string {
	switch t {
	case AgentTypeRestaurantReceptionist:
		return "Restaurant Receptionist"
	case AgentTypeCarVendor:
		return "Car Vendor"
	default:
		return string(t)
	}
}

// Runtime labels reported in Agent.Status.
const (
	AgentStatusActive  = "active"
	AgentStatusStopped = "stopped"
	AgentStatusError   = "error"
)

// DefaultDeploymentStatus is sent when a deployment update omits its status.
const DefaultDeploymentStatus = "deployed"

// ProcessInfo is the backend's snapshot of the agent's worker process.
type ProcessInfo struct {
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`
	AgentID   string `json:"agent_id,omitempty" yaml:"agent_id,omitempty"`
	PID       int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	AgentName string `json:"agent_name,omitempty" yaml:"agent_name,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

type Agent struct {
	ID          string       `json:"id" yaml:"id"`
	AgentType   AgentType    `json:"agent_type" yaml:"agent_type"`
	Name        string       `json:"name" yaml:"name"`
	Personality string       `json:"personality" yaml:"personality"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`
	Status      string       `json:"status" yaml:"status"`
	ProcessInfo *ProcessInfo `json:"process_info,omitempty" yaml:"process_info,omitempty"`

	// Deployment record, distinct from the runtime Status above.
	DispatchID         *string        `json:"dispatch_id,omitempty" yaml:"dispatch_id,omitempty"`
	RoomName           *string        `json:"room_name,omitempty" yaml:"room_name,omitempty"`
	DeploymentStatus   *string        `json:"deployment_status,omitempty" yaml:"deployment_status,omitempty"`
	DeployedAt         *time.Time     `json:"deployed_at,omitempty" yaml:"deployed_at,omitempty"`
	DeploymentMetadata map[string]any `json:"deployment_metadata,omitempty" yaml:"deployment_metadata,omitempty"`
}

// HasDeployment reports whether deployment fields were recorded for the agent.
func (a *Agent) HasDeployment() bool {
	return a.DispatchID != nil
}

// Runtime labels reported by the status endpoint.
const (
	ProcessRunning    = "running"
	ProcessNotRunning = "not_running"
	ProcessStopped    = "stopped"
)

// Status is a transient projection of the agent's process state.
type Status struct {
	Status     string `json:"status" yaml:"status"`
	AgentID    string `json:"agent_id,omitempty" yaml:"agent_id,omitempty"`
	PID        *int   `json:"pid,omitempty" yaml:"pid,omitempty"`
	ReturnCode *int   `json:"return_code,omitempty" yaml:"return_code,omitempty"`
}

func (s *Status) IsRunning() bool {
	return s != nil && s.Status == ProcessRunning
}

type CreateAgentRequest struct {
	AgentType   AgentType `json:"agent_type" yaml:"agent_type"`
	Name        string    `json:"name" yaml:"name"`
	Personality string    `json:"personality" yaml:"personality"`
}

type DeploymentUpdate struct {
	DispatchID         string         `json:"dispatch_id"`
	RoomName           string         `json:"room_name"`
	DeploymentStatus   string         `json:"deployment_status,omitempty"`
	DeploymentMetadata map[string]any `json:"deployment_metadata,omitempty"`
}

type DispatchRequest struct {
	PhoneNumber string `json:"phone_number"`
	TransferTo  string `json:"transfer_to,omitempty"`
}

type DispatchResponse struct {
	Message    string `json:"message" yaml:"message"`
	DispatchID string `json:"dispatch_id" yaml:"dispatch_id"`
	RoomName   string `json:"room_name" yaml:"room_name"`
	Output     string `json:"output" yaml:"output"`
	Agent      Agent  `json:"agent" yaml:"agent"`
}

type DeleteResponse struct {
	Message string `json:"message" yaml:"message"`
}

type StartResponse struct {
	Message     string       `json:"message" yaml:"message"`
	ProcessInfo *ProcessInfo `json:"process_info,omitempty" yaml:"process_info,omitempty"`
}

type StopResponse struct {
	Message    string       `json:"message" yaml:"message"`
	StopResult *ProcessInfo `json:"stop_result,omitempty" yaml:"stop_result,omitempty"`
}

type RunningProcess struct {
	PID    int    `json:"pid" yaml:"pid"`
	Status string `json:"status" yaml:"status"`
}

type RunningAgents struct {
	Running map[string]RunningProcess `json:"running" yaml:"running"`
	Count   int                       `json:"count" yaml:"count"`
}
