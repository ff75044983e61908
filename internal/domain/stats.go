package domain

// AgentStats summarizes a list of agents for the dashboard header.
type AgentStats struct {
	Total  int               `json:"total" yaml:"total"`
	ByType map[AgentType]int `json:"by_type" yaml:"by_type"`
	Active int               `json:"active" yaml:"active"`
}

func Summarize(agents []Agent) AgentStats {
	stats := AgentStats{
		Total:  len(agents),
		ByType: make(map[AgentType]int, len(AgentTypes)),
	}
	for _, t := range AgentTypes {
		stats.ByType[t] = 0
	}
	for _, a := range agents {
		stats.ByType[a.AgentType]++
		if a.Status == AgentStatusActive {
			stats.Active++
		}
	}
	return stats
}
