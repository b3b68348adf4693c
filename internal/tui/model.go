// Package tui provides the live progress display for update runs.
// It renders a spinner for the current step, a progress bar across the
// step list, and the most recent package outcomes.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dbmrq/dotup/internal/report"
)

// Color palette.
var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	stepStyle    = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

// maxRecentLines is how many package outcome lines stay on screen.
const maxRecentLines = 8

// Messages sent into the model by the event bridge.
type (
	// StepStartedMsg marks the beginning of a step.
	StepStartedMsg struct {
		Name  string
		Index int
		Count int
	}

	// StepFinishedMsg marks the end of a step.
	StepFinishedMsg struct {
		Name    string
		Failed  bool
		Message string
	}

	// PackageMsg reports a decided package outcome.
	PackageMsg struct {
		Step    string
		Outcome report.PackageOutcome
	}

	// RunFinishedMsg marks the end of the run.
	RunFinishedMsg struct {
		Summary string
		Err     string
	}
)

// Model is the Bubble Tea model for the progress display.
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	title       string
	currentStep string
	stepIndex   int
	stepCount   int
	recent      []string
	summary     string
	errMsg      string
	done        bool
	width       int
}

// NewModel creates a progress model.
func NewModel(title string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return &Model{
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		title:    title,
		width:    80,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-4, 60)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StepStartedMsg:
		m.currentStep = msg.Name
		m.stepIndex = msg.Index
		m.stepCount = msg.Count

	case StepFinishedMsg:
		if msg.Failed {
			m.pushRecent(errorStyle.Render("✗") + " " + msg.Name + mutedStyle.Render(" failed: "+msg.Message))
		}

	case PackageMsg:
		m.pushRecent(renderOutcome(msg.Outcome))

	case RunFinishedMsg:
		m.done = true
		m.summary = msg.Summary
		m.errMsg = msg.Err
		return m, tea.Quit

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// pushRecent appends a line to the recent list, dropping the oldest.
func (m *Model) pushRecent(line string) {
	m.recent = append(m.recent, line)
	if len(m.recent) > maxRecentLines {
		m.recent = m.recent[len(m.recent)-maxRecentLines:]
	}
}

// renderOutcome formats one package outcome line.
func renderOutcome(o report.PackageOutcome) string {
	var icon string
	switch o.Action {
	case report.ActionUpgraded:
		icon = successStyle.Render("✓")
	case report.ActionReinstalled:
		icon = warningStyle.Render("↻")
	case report.ActionRemoved:
		icon = mutedStyle.Render("✗")
	case report.ActionSkipped:
		icon = mutedStyle.Render("–")
	case report.ActionFailed:
		icon = errorStyle.Render("✗")
	default:
		icon = "?"
	}

	line := fmt.Sprintf("%s %s", icon, o.Name)
	if o.FromVersion != "" && o.ToVersion != "" {
		line += mutedStyle.Render(fmt.Sprintf(" %s → %s", o.FromVersion, o.ToVersion))
	}
	if o.Detail != "" {
		line += mutedStyle.Render(" (" + o.Detail + ")")
	}
	return line
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.done {
		style := successStyle
		if m.errMsg != "" {
			style = errorStyle
		}
		b.WriteString(style.Render(m.summary))
		b.WriteString("\n")
		if m.errMsg != "" {
			b.WriteString(errorStyle.Render("Error: " + m.errMsg))
			b.WriteString("\n")
		}
		return b.String()
	}

	if m.stepCount > 0 {
		percent := float64(m.stepIndex) / float64(m.stepCount)
		b.WriteString(m.progress.ViewAs(percent))
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  step %d/%d", m.stepIndex+1, m.stepCount)))
		b.WriteString("\n")
	}

	if m.currentStep != "" {
		b.WriteString(m.spinner.View())
		b.WriteString(stepStyle.Render(m.currentStep))
		b.WriteString("\n")
	}

	if len(m.recent) > 0 {
		b.WriteString("\n")
		for _, line := range m.recent {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("press q to quit"))
	b.WriteString("\n")

	return b.String()
}
