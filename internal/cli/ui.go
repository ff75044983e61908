package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/Harshitk-cp/voicedesk/internal/controller"
	"github.com/Harshitk-cp/voicedesk/internal/domain"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))

	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 1).
			Width(72)
)

const timeLayout = "2006-01-02 15:04:05"

func statusBadge(status string) string {
	switch status {
	case domain.ProcessRunning, domain.AgentStatusActive:
		return runningStyle.Render("● " + status)
	case domain.ProcessStopped, domain.AgentStatusError:
		return stoppedStyle.Render("● " + status)
	case "":
		return idleStyle.Render("● unknown")
	default:
		return idleStyle.Render("● " + status)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

// renderAgentCard draws the detail view for one agent.
func renderAgentCard(s controller.DetailState) string {
	a := s.Agent
	if a == nil {
		return ""
	}

	var b strings.Builder
	row := func(k, v string) {
		if v == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", keyStyle.Render(fmt.Sprintf("%-12s", k)), valueStyle.Render(v))
	}

	b.WriteString(titleStyle.Render(a.Name))
	b.WriteString("  ")
	b.WriteString(statusBadge(s.DisplayStatus()))
	b.WriteString("\n\n")

	row("ID", a.ID)
	row("Type", a.AgentType.Label())
	row("Created", formatTime(&a.CreatedAt))
	if s.Status != nil && s.Status.PID != nil {
		row("PID", fmt.Sprintf("%d", *s.Status.PID))
	}
	row("Deployment", deref(a.DeploymentStatus))
	if a.HasDeployment() {
		row("Dispatch ID", deref(a.DispatchID))
		row("Room", deref(a.RoomName))
		row("Deployed", formatTime(a.DeployedAt))
	}
	if phone, ok := a.DeploymentMetadata["phone_number"].(string); ok {
		row("Last call", phone)
	}

	if a.Personality != "" {
		b.WriteString("\n")
		b.WriteString(keyStyle.Render("Personality"))
		b.WriteString("\n")
		b.WriteString(a.Personality)
	}

	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}
