// Package scenes provides TUI scenes for the SafeVision console
package scenes

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"safevision-console/internal/schema"
	"safevision-console/internal/store"
	"safevision-console/internal/tui/styles"
)

// TickMsg is sent on each tick - exported for use by parent model
type TickMsg struct {
	Scene string
	Time  time.Time
}

// Resolver asks the backend to resolve an alert. api.Client satisfies this.
type Resolver interface {
	ResolveAlert(ctx context.Context, alertID string) error
}

// AlertsScene displays the live alert list.
type AlertsScene struct {
	alerts   *store.AlertStore
	resolver Resolver

	list       []schema.Alert
	err        string
	notice     string
	width      int
	height     int
	cursor     int
	offset     int
	loading    bool
	maxRows    int
	lastUpdate time.Time
}

// alertsMsg carries a fresh store snapshot
type alertsMsg struct {
	alerts []schema.Alert
	err    string
}

// resolveMsg carries the outcome of a resolve request
type resolveMsg struct {
	alertID string
	err     error
}

// NewAlertsScene creates a new alerts scene
func NewAlertsScene(alerts *store.AlertStore, resolver Resolver) *AlertsScene {
	return &AlertsScene{
		alerts:   alerts,
		resolver: resolver,
		loading:  true,
		maxRows:  10,
	}
}

// Init initializes the alerts scene
func (a *AlertsScene) Init() tea.Cmd {
	return a.refresh()
}

// refresh reads the latest snapshot from the alert store
func (a *AlertsScene) refresh() tea.Cmd {
	return func() tea.Msg {
		alerts, err := a.alerts.Snapshot()
		msg := alertsMsg{alerts: alerts}
		if err != nil {
			msg.err = err.Error()
		}
		return msg
	}
}

// resolve asks the backend to mark the alert resolved. The local list is
// never touched; the change shows up on a later poll.
func (a *AlertsScene) resolve(alertID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return resolveMsg{alertID: alertID, err: a.resolver.ResolveAlert(ctx, alertID)}
	}
}

// TickCmd returns a command that ticks every interval
func (a *AlertsScene) TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Scene: "alerts", Time: t}
	})
}

// Update handles messages for the alerts scene
func (a *AlertsScene) Update(msg tea.Msg) (*AlertsScene, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.maxRows = max(5, a.height-12)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if a.cursor > 0 {
				a.cursor--
				if a.cursor < a.offset {
					a.offset = a.cursor
				}
			}
		case "down", "j":
			if a.cursor < len(a.list)-1 {
				a.cursor++
				if a.cursor >= a.offset+a.maxRows {
					a.offset = a.cursor - a.maxRows + 1
				}
			}
		case "pgup":
			a.cursor = max(0, a.cursor-a.maxRows)
			a.offset = max(0, a.offset-a.maxRows)
		case "pgdown":
			a.cursor = min(len(a.list)-1, a.cursor+a.maxRows)
			a.offset = min(max(0, len(a.list)-a.maxRows), a.offset+a.maxRows)
		case "enter", "e":
			if a.cursor < len(a.list) {
				selected := a.list[a.cursor]
				if selected.Status != schema.StatusResolved {
					a.notice = fmt.Sprintf("Resolving %s...", selected.ID)
					return a, a.resolve(selected.ID)
				}
			}
		case "r":
			a.loading = true
			return a, a.refresh()
		}
		return a, nil

	case alertsMsg:
		a.loading = false
		a.list = msg.alerts
		a.err = msg.err
		a.lastUpdate = time.Now()
		if a.cursor >= len(a.list) {
			a.cursor = max(0, len(a.list)-1)
		}
		return a, nil

	case resolveMsg:
		if msg.err != nil {
			a.notice = fmt.Sprintf("Resolve %s failed: %v", msg.alertID, msg.err)
		} else {
			a.notice = fmt.Sprintf("Resolve %s accepted", msg.alertID)
		}
		return a, nil

	case TickMsg:
		if msg.Scene == "alerts" {
			return a, a.refresh()
		}
		return a, nil
	}

	return a, nil
}

// View renders the alert list
func (a *AlertsScene) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("  Safety Alerts"))
	b.WriteString("\n\n")

	if a.loading && len(a.list) == 0 {
		b.WriteString(styles.Muted.Render("  Loading alerts..."))
		return b.String()
	}

	if a.err != "" {
		b.WriteString(styles.StatusError.Render(fmt.Sprintf("  Polling error: %s", a.err)))
		b.WriteString("\n\n")
	}

	if len(a.list) == 0 {
		b.WriteString(styles.Muted.Render("  No alerts."))
		b.WriteString("\n\n")
		b.WriteString(styles.Muted.Render("  Alerts appear here as the backend detects safety violations."))
		return b.String()
	}

	countText := fmt.Sprintf("  %d alerts", len(a.list))
	b.WriteString(styles.Subtitle.Render(countText))
	if a.loading {
		b.WriteString(styles.Muted.Render("  (refreshing...)"))
	}
	b.WriteString("\n\n")

	header := fmt.Sprintf("  %-20s %-10s %-16s %-12s %s",
		"Time", "Severity", "Rule", "Status", "Summary")
	b.WriteString(styles.TableHeader.Render(header))
	b.WriteString("\n")

	endIdx := min(a.offset+a.maxRows, len(a.list))
	for i, alert := range a.list[a.offset:endIdx] {
		idx := a.offset + i
		b.WriteString(a.renderAlertRow(alert, idx == a.cursor))
		b.WriteString("\n")
	}

	if len(a.list) > a.maxRows {
		scrollInfo := fmt.Sprintf("\n  %d-%d of %d (↑↓ to scroll, [Enter] resolve, [r] refresh)",
			a.offset+1, endIdx, len(a.list))
		b.WriteString(styles.Muted.Render(scrollInfo))
	} else {
		b.WriteString(styles.Muted.Render("\n  [Enter] Resolve  [r] Refresh"))
	}

	if a.notice != "" {
		b.WriteString("\n")
		b.WriteString(styles.Subtitle.Render("  " + a.notice))
	}

	if !a.lastUpdate.IsZero() {
		b.WriteString(styles.Muted.Render(fmt.Sprintf("  |  Updated: %s", a.lastUpdate.Format("15:04:05"))))
	}

	return b.String()
}

func (a *AlertsScene) renderAlertRow(alert schema.Alert, selected bool) string {
	timestamp := alert.EventTime().Local().Format("15:04:05")
	severity := formatSeverity(alert.Severity)
	rule := truncate(alert.RuleType, 16)
	status := truncate(string(alert.Status), 12)
	summary := truncate(alert.Summary, 50)

	row := fmt.Sprintf("  %-20s %s %-16s %-12s %s", timestamp, severity, rule, status, summary)

	if selected {
		return styles.TableRowSelected.Render(row)
	}
	return row
}

func formatSeverity(sev schema.Severity) string {
	width := 10
	var style lipgloss.Style

	switch sev {
	case schema.SeverityCritical, schema.SeverityHigh:
		style = styles.StatusError
	case schema.SeverityMedium:
		style = styles.StatusWarning
	case schema.SeverityLow:
		style = styles.StatusOK
	default:
		style = styles.Muted
	}

	padded := fmt.Sprintf("%-*s", width, strings.ToUpper(string(sev)))
	return style.Render(padded)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
