package domain

import "strings"

// UnnamedAgent is used when a description has no usable first line.
const UnnamedAgent = "Unnamed Agent"

// Persona is the structured form of a free-text agent description.
type Persona struct {
	Name        string
	Personality string
}

// ParsePersona splits a description into a name and a personality.
//
// The first non-blank line becomes the name. The remaining non-blank lines,
// joined with newlines, become the personality. A description with a single
// line uses that line for both fields.
func ParsePersona(text string) Persona {
	trimmed := strings.TrimSpace(text)

	var lines []string
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	name := UnnamedAgent
	if len(lines) > 0 {
		if n := strings.TrimSpace(lines[0]); n != "" {
			name = n
		}
	}

	personality := trimmed
	if len(lines) > 1 {
		personality = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}

	return Persona{Name: name, Personality: personality}
}

// Request builds the create payload for the given agent type.
func (p Persona) Request(t AgentType) CreateAgentRequest {
	return CreateAgentRequest{
		AgentType:   t,
		Name:        p.Name,
		Personality: p.Personality,
	}
}
