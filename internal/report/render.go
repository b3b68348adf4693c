package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Render color palette, matching the progress TUI.
var (
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

// Renderer renders run reports for terminal output.
type Renderer struct {
	// NoColor disables styling.
	NoColor bool
}

// NewRenderer creates a renderer.
func NewRenderer(noColor bool) *Renderer {
	return &Renderer{NoColor: noColor}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if r.NoColor {
		return text
	}
	return s.Render(text)
}

func actionIcon(a Action) (string, lipgloss.Style) {
	switch a {
	case ActionUpgraded:
		return "✓", successStyle
	case ActionReinstalled:
		return "↻", warningStyle
	case ActionRemoved:
		return "✗", mutedStyle
	case ActionSkipped:
		return "–", mutedStyle
	case ActionFailed:
		return "✗", errorStyle
	default:
		return "?", mutedStyle
	}
}

func stepIcon(s StepStatus) (string, lipgloss.Style) {
	switch s {
	case StepOK:
		return "✓", successStyle
	case StepSkipped:
		return "–", mutedStyle
	case StepFailed:
		return "✗", errorStyle
	default:
		return "?", mutedStyle
	}
}

// Render returns a human-readable report.
func (r *Renderer) Render(report *RunReport) string {
	var b strings.Builder

	header := fmt.Sprintf("Update run %s", report.ID)
	if report.DryRun {
		header += " (dry run)"
	}
	b.WriteString(r.style(titleStyle, header))
	b.WriteString("\n")

	for _, step := range report.Steps {
		icon, style := stepIcon(step.Status)
		line := fmt.Sprintf("%s %-16s %s", r.style(style, icon), step.Name, step.Duration.Round(10*time.Millisecond))
		if step.Message != "" {
			line += "  " + r.style(mutedStyle, step.Message)
		}
		b.WriteString(line)
		b.WriteString("\n")

		for _, p := range step.Packages {
			icon, style := actionIcon(p.Action)
			line := fmt.Sprintf("    %s %s", r.style(style, icon), p.Name)
			if p.FromVersion != "" && p.ToVersion != "" {
				line += r.style(mutedStyle, fmt.Sprintf(" %s → %s", p.FromVersion, p.ToVersion))
			}
			if p.Detail != "" {
				line += r.style(mutedStyle, " ("+p.Detail+")")
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	summaryStyle := successStyle
	switch report.Status {
	case StatusPartial:
		summaryStyle = warningStyle
	case StatusFailed:
		summaryStyle = errorStyle
	}
	b.WriteString(r.style(summaryStyle, report.Summary()))
	b.WriteString("\n")

	if report.Error != "" {
		b.WriteString(r.style(errorStyle, "Error: "+report.Error))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderJSON returns the report as indented JSON for --output json.
func (r *Renderer) RenderJSON(report *RunReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run report: %w", err)
	}
	return string(data), nil
}
