package agenttest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Harshitk-cp/voicedesk/internal/domain"
)

const notDeployed = "not_deployed"

// Seed stores a copy of a and returns it with an id and timestamp filled in.
func (s *Server) Seed(a domain.Agent) domain.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	if a.Status == "" {
		a.Status = domain.AgentStatusActive
	}
	if a.DeploymentStatus == nil {
		a.DeploymentStatus = strPtr(notDeployed)
	}
	s.put(&a)
	return a
}

// Agent returns the stored agent with the given id.
func (s *Server) Agent(id string) (domain.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return domain.Agent{}, false
	}
	return *a, true
}

// SetRunning marks the agent's simulated process as running or gone.
func (s *Server) SetRunning(id string, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if running {
		s.spawn(id)
		return
	}
	delete(s.processes, id)
}

func (s *Server) put(a *domain.Agent) {
	s.nextSeq++
	s.agents[a.ID] = a
	s.seq[a.ID] = s.nextSeq
}

func (s *Server) spawn(id string) int {
	if pid, ok := s.processes[id]; ok {
		return pid
	}
	s.nextPID++
	s.processes[id] = s.nextPID
	return s.nextPID
}

// lookup validates the id path parameter and returns the stored agent.
// Callers must hold s.mu.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*domain.Agent, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid agent ID format")
		return nil, false
	}
	a, ok := s.agents[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Agent not found")
		return nil, false
	}
	return a, true
}

type createAgentRequest struct {
	AgentType   string `json:"agent_type"`
	Name        string `json:"name"`
	Personality string `json:"personality"`
}

func (s *Server) createAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if !domain.ValidAgentType(req.AgentType) {
		writeError(w, http.StatusBadRequest, "Invalid agent type. Must be 'restaurant-receptionist' or 'car-vendor'")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := &domain.Agent{
		ID:               uuid.NewString(),
		AgentType:        domain.AgentType(req.AgentType),
		Name:             req.Name,
		Personality:      req.Personality,
		CreatedAt:        s.now(),
		Status:           domain.AgentStatusActive,
		DeploymentStatus: strPtr(notDeployed),
	}
	s.put(a)

	pid := s.spawn(a.ID)
	out := *a
	out.ProcessInfo = &domain.ProcessInfo{
		Status:    "started",
		AgentID:   a.ID,
		PID:       pid,
		AgentName: a.Name,
	}
	writeJSON(w, http.StatusOK, out)
}

// listAgents returns agents newest first.
func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agents := make([]domain.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		agents = append(agents, *a)
	}
	sort.Slice(agents, func(i, j int) bool {
		return s.seq[agents[i].ID] > s.seq[agents[j].ID]
	})
	writeJSON(w, http.StatusOK, agents)
}

func (s *Server) getAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.lookup(w, r)
	if !ok {
		return
	}
	delete(s.processes, a.ID)
	delete(s.agents, a.ID)
	delete(s.seq, a.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Agent deleted successfully"})
}

// getStatus mirrors the backend, which answers for any well-formed id.
func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid agent ID format")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := domain.Status{Status: domain.ProcessNotRunning, AgentID: id}
	if pid, ok := s.processes[id]; ok {
		st.Status = domain.ProcessRunning
		st.PID = &pid
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) startAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.lookup(w, r)
	if !ok {
		return
	}

	status := "started"
	if _, running := s.processes[a.ID]; running {
		status = "already_running"
	}
	pid := s.spawn(a.ID)
	a.Status = domain.AgentStatusActive

	writeJSON(w, http.StatusOK, domain.StartResponse{
		Message: "Agent started successfully",
		ProcessInfo: &domain.ProcessInfo{
			Status:    status,
			AgentID:   a.ID,
			PID:       pid,
			AgentName: a.Name,
		},
	})
}

func (s *Server) stopAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.lookup(w, r)
	if !ok {
		return
	}

	result := &domain.ProcessInfo{Status: domain.ProcessNotRunning, AgentID: a.ID}
	if pid, running := s.processes[a.ID]; running {
		result.Status = domain.ProcessStopped
		result.PID = pid
		delete(s.processes, a.ID)
	}
	a.Status = domain.AgentStatusStopped

	writeJSON(w, http.StatusOK, domain.StopResponse{
		Message:    "Agent stopped successfully",
		StopResult: result,
	})
}

type deploymentRequest struct {
	DispatchID         *string        `json:"dispatch_id"`
	RoomName           *string        `json:"room_name"`
	DeploymentStatus   string         `json:"deployment_status"`
	DeploymentMetadata map[string]any `json:"deployment_metadata"`
}

func (s *Server) updateDeployment(w http.ResponseWriter, r *http.Request) {
	var req deploymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if req.DispatchID == nil || req.RoomName == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"msg": "field required", "type": "value_error.missing"}},
		})
		return
	}
	if req.DeploymentStatus == "" {
		req.DeploymentStatus = domain.DefaultDeploymentStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.lookup(w, r)
	if !ok {
		return
	}

	now := s.now()
	a.DispatchID = strPtr(*req.DispatchID)
	a.RoomName = strPtr(*req.RoomName)
	a.DeploymentStatus = strPtr(req.DeploymentStatus)
	a.DeployedAt = &now
	a.DeploymentMetadata = req.DeploymentMetadata

	writeJSON(w, http.StatusOK, a)
}

type dispatchRequest struct {
	PhoneNumber *string `json:"phone_number"`
	TransferTo  *string `json:"transfer_to"`
}

func (s *Server) dispatchAgent(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if req.PhoneNumber == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body", "phone_number"}, "msg": "field required"}},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.lookup(w, r)
	if !ok {
		return
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	dispatchID := "AD_" + suffix
	roomName := "room-" + suffix
	output := fmt.Sprintf("Dispatch created: id:%q room:%q agent_name:%q", dispatchID, roomName, "resturant_receptionist")

	var transferTo any
	if req.TransferTo != nil {
		transferTo = *req.TransferTo
	}

	now := s.now()
	a.DispatchID = strPtr(dispatchID)
	a.RoomName = strPtr(roomName)
	a.DeploymentStatus = strPtr(domain.DefaultDeploymentStatus)
	a.DeployedAt = &now
	a.DeploymentMetadata = map[string]any{
		"phone_number":    *req.PhoneNumber,
		"transfer_to":     transferTo,
		"dispatch_output": output,
	}

	writeJSON(w, http.StatusOK, domain.DispatchResponse{
		Message:    "Agent dispatched successfully",
		DispatchID: dispatchID,
		RoomName:   roomName,
		Output:     output,
		Agent:      *a,
	})
}

func (s *Server) listRunning(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	running := make(map[string]domain.RunningProcess, len(s.processes))
	for id, pid := range s.processes {
		running[id] = domain.RunningProcess{PID: pid, Status: domain.ProcessRunning}
	}
	writeJSON(w, http.StatusOK, domain.RunningAgents{Running: running, Count: len(running)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func strPtr(s string) *string {
	return &s
}
