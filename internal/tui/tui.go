// Package tui provides the terminal user interface for the SafeVision console
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"safevision-console/internal/condition"
	"safevision-console/internal/poller"
	"safevision-console/internal/store"
	"safevision-console/internal/stream"
	"safevision-console/internal/tui/scenes"
	"safevision-console/internal/tui/styles"
)

// Scene represents the current view
type Scene int

const (
	SceneAlerts Scene = iota
	SceneConditions
	SceneSystem
)

// Deps bundles everything the TUI renders or drives. The caller owns the
// lifecycle of the poller and stream consumer; the TUI only issues user
// actions against them.
type Deps struct {
	Resolver     scenes.Resolver
	Health       scenes.HealthChecker
	Submitter    scenes.Submitter
	Alerts       *store.AlertStore
	Conditions   *condition.Store
	Poller       *poller.Poller
	Consumer     *stream.Consumer
	StreamURL    string
	TogglePoller func()
}

// Model is the main TUI model
type Model struct {
	scene Scene

	// Scene models - only the active one receives updates
	alerts     *scenes.AlertsScene
	conditions *scenes.ConditionsScene
	system     *scenes.SystemScene

	width  int
	height int

	quitting bool
}

// New creates a new TUI model
func New(deps Deps) *Model {
	return &Model{
		scene:      SceneAlerts,
		alerts:     scenes.NewAlertsScene(deps.Alerts, deps.Resolver),
		conditions: scenes.NewConditionsScene(deps.Conditions, deps.Submitter),
		system:     scenes.NewSystemScene(deps.Health, deps.Poller, deps.Consumer, deps.StreamURL, deps.TogglePoller),
	}
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	// Only the active scene's ticker runs; inactive scenes stay quiet.
	return tea.Batch(
		m.alerts.Init(),
		m.getActiveSceneTickCmd(),
	)
}

// getActiveSceneTickCmd returns the tick command for the active scene only
func (m *Model) getActiveSceneTickCmd() tea.Cmd {
	switch m.scene {
	case SceneAlerts:
		return m.alerts.TickCmd()
	case SceneConditions:
		return m.conditions.TickCmd()
	case SceneSystem:
		return m.system.TickCmd()
	default:
		return nil
	}
}

// Update handles all messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "1":
			if m.scene != SceneAlerts {
				m.scene = SceneAlerts
				cmds = append(cmds, m.alerts.Init(), m.alerts.TickCmd())
			}
			return m, tea.Batch(cmds...)

		case "2":
			if m.scene != SceneConditions {
				m.scene = SceneConditions
				cmds = append(cmds, m.conditions.Init(), m.conditions.TickCmd())
			}
			return m, tea.Batch(cmds...)

		case "3":
			if m.scene != SceneSystem {
				m.scene = SceneSystem
				cmds = append(cmds, m.system.Init(), m.system.TickCmd())
			}
			return m, tea.Batch(cmds...)

		case "tab":
			m.scene = (m.scene + 1) % 3
			cmds = append(cmds, m.getActiveSceneTickCmd())
			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.alerts, _ = m.alerts.Update(msg)
		m.conditions, _ = m.conditions.Update(msg)
		m.system, _ = m.system.Update(msg)
		return m, nil

	case scenes.TickMsg:
		// Only forward tick to the active scene
		var cmd tea.Cmd
		switch m.scene {
		case SceneAlerts:
			m.alerts, cmd = m.alerts.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			cmds = append(cmds, m.alerts.TickCmd())
		case SceneConditions:
			m.conditions, cmd = m.conditions.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			cmds = append(cmds, m.conditions.TickCmd())
		case SceneSystem:
			m.system, cmd = m.system.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			cmds = append(cmds, m.system.TickCmd())
		}
		return m, tea.Batch(cmds...)
	}

	// Forward other messages to active scene only
	var cmd tea.Cmd
	switch m.scene {
	case SceneAlerts:
		m.alerts, cmd = m.alerts.Update(msg)
	case SceneConditions:
		m.conditions, cmd = m.conditions.Update(msg)
	case SceneSystem:
		m.system, cmd = m.system.Update(msg)
	}

	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the current view
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.scene {
	case SceneAlerts:
		b.WriteString(m.alerts.View())
	case SceneConditions:
		b.WriteString(m.conditions.View())
	case SceneSystem:
		b.WriteString(m.system.View())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m *Model) renderHeader() string {
	tabs := []struct {
		name  string
		key   string
		scene Scene
	}{
		{"Alerts", "1", SceneAlerts},
		{"Conditions", "2", SceneConditions},
		{"System", "3", SceneSystem},
	}

	var tabViews []string
	for _, tab := range tabs {
		label := fmt.Sprintf(" %s %s ", tab.key, tab.name)
		if tab.scene == m.scene {
			tabViews = append(tabViews, styles.TabActive.Render(label))
		} else {
			tabViews = append(tabViews, styles.TabInactive.Render(label))
		}
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabViews...)

	header := lipgloss.NewStyle().
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.MutedColor).
		Width(m.width).
		Render(tabBar)

	return header
}

func (m *Model) renderFooter() string {
	help := " [1-3] Switch tabs  [Tab] Next tab  [↑↓/jk] Navigate  [q] Quit "
	return styles.Help.Render(help)
}

// Run starts the TUI application
func Run(deps Deps) error {
	m := New(deps)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
