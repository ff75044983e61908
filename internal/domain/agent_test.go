package domain

import (
	"encoding/json"
	"testing"
)

func TestValidAgentType(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"restaurant-receptionist", true},
		{"car-vendor", true},
		{"", false},
		{"Car-Vendor", false},
		{"plumber", false},
	}
	for _, tt := range tests {
		if got := ValidAgentType(tt.in); got != tt.want {
			t.Errorf("ValidAgentType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAgentDecode_DeploymentFieldsIndependent(t *testing.T) {
	raw := `{
		"id": "a1",
		"agent_type": "car-vendor",
		"name": "Max",
		"personality": "fast",
		"created_at": "2025-01-02T03:04:05Z",
		"status": "stopped",
		"dispatch_id": "AD_1",
		"room_name": "room-1",
		"deployment_status": "deployed",
		"deployment_metadata": {"phone_number": "+15551234567", "nested": {"k": 1}}
	}`

	var a Agent
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Status != AgentStatusStopped {
		t.Errorf("Status = %q, want stopped", a.Status)
	}
	if a.DeploymentStatus == nil || *a.DeploymentStatus != "deployed" {
		t.Errorf("DeploymentStatus = %v, want deployed", a.DeploymentStatus)
	}
	if !a.HasDeployment() {
		t.Error("expected HasDeployment to be true")
	}
	if a.RoomName == nil || *a.RoomName != "room-1" {
		t.Errorf("RoomName = %v, want room-1", a.RoomName)
	}
	nested, ok := a.DeploymentMetadata["nested"].(map[string]any)
	if !ok || nested["k"] != float64(1) {
		t.Errorf("deployment_metadata not preserved: %v", a.DeploymentMetadata)
	}
}

func TestAgentDecode_NullDeployment(t *testing.T) {
	raw := `{"id":"a1","agent_type":"car-vendor","name":"Max","personality":"p",
		"created_at":"2025-01-02T03:04:05Z","status":"active",
		"dispatch_id":null,"room_name":null,"deployment_status":null,"deployed_at":null,"deployment_metadata":null}`

	var a Agent
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.HasDeployment() {
		t.Error("expected HasDeployment to be false")
	}
	if a.RoomName != nil || a.DeployedAt != nil {
		t.Error("expected room_name and deployed_at to be nil")
	}
}

func TestStatusIsRunning(t *testing.T) {
	var nilStatus *Status
	if nilStatus.IsRunning() {
		t.Error("nil status should not be running")
	}
	if (&Status{Status: ProcessNotRunning}).IsRunning() {
		t.Error("not_running should not be running")
	}
	if !(&Status{Status: ProcessRunning}).IsRunning() {
		t.Error("running should be running")
	}
}

func TestSummarize(t *testing.T) {
	agents := []Agent{
		{ID: "1", AgentType: AgentTypeCarVendor, Status: AgentStatusActive},
		{ID: "2", AgentType: AgentTypeCarVendor, Status: AgentStatusStopped},
		{ID: "3", AgentType: AgentTypeRestaurantReceptionist, Status: AgentStatusActive},
	}

	s := Summarize(agents)
	if s.Total != 3 {
		t.Errorf("Total = %d, want 3", s.Total)
	}
	if s.ByType[AgentTypeCarVendor] != 2 {
		t.Errorf("car-vendor = %d, want 2", s.ByType[AgentTypeCarVendor])
	}
	if s.ByType[AgentTypeRestaurantReceptionist] != 1 {
		t.Errorf("restaurant-receptionist = %d, want 1", s.ByType[AgentTypeRestaurantReceptionist])
	}
	if s.Active != 2 {
		t.Errorf("Active = %d, want 2", s.Active)
	}

	empty := Summarize(nil)
	if empty.Total != 0 || empty.ByType[AgentTypeCarVendor] != 0 {
		t.Errorf("unexpected stats for empty list: %+v", empty)
	}
}
