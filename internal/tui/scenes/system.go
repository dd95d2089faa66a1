package scenes

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"safevision-console/internal/poller"
	"safevision-console/internal/stream"
	"safevision-console/internal/tui/styles"
)

// HealthChecker probes backend availability. api.Client satisfies this.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SystemScene displays backend health and pipeline status.
type SystemScene struct {
	health       HealthChecker
	poller       *poller.Poller
	consumer     *stream.Consumer
	streamURL    string
	togglePoller func()

	healthy    bool
	healthErr  error
	width      int
	height     int
	lastUpdate time.Time
	loading    bool
}

// systemMsg carries a health probe result
type systemMsg struct {
	healthy bool
	err     error
}

// streamToggleMsg reports a stream connect attempt
type streamToggleMsg struct {
	err error
}

// NewSystemScene creates a new system scene. togglePoller starts or stops
// the polling loop; the caller owns the wiring between poller and store.
func NewSystemScene(health HealthChecker, p *poller.Poller, consumer *stream.Consumer, streamURL string, togglePoller func()) *SystemScene {
	return &SystemScene{
		health:       health,
		poller:       p,
		consumer:     consumer,
		streamURL:    streamURL,
		togglePoller: togglePoller,
		loading:      true,
	}
}

// Init initializes the system scene
func (s *SystemScene) Init() tea.Cmd {
	return s.probe()
}

// probe checks backend health
func (s *SystemScene) probe() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.health.Health(ctx)
		return systemMsg{healthy: err == nil, err: err}
	}
}

// TickCmd returns a command that ticks every interval
func (s *SystemScene) TickCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Scene: "system", Time: t}
	})
}

// Update handles messages for the system scene
func (s *SystemScene) Update(msg tea.Msg) (*SystemScene, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "c":
			return s, func() tea.Msg {
				return streamToggleMsg{err: s.consumer.Connect(s.streamURL)}
			}
		case "x":
			s.consumer.Disconnect()
			return s, nil
		case "p":
			if s.togglePoller != nil {
				s.togglePoller()
			}
			return s, nil
		case "r":
			s.loading = true
			return s, s.probe()
		}
		return s, nil

	case systemMsg:
		s.loading = false
		s.healthy = msg.healthy
		s.healthErr = msg.err
		s.lastUpdate = time.Now()
		return s, nil

	case streamToggleMsg:
		return s, nil

	case TickMsg:
		if msg.Scene == "system" {
			return s, s.probe()
		}
		return s, nil
	}

	return s, nil
}

// View renders system status
func (s *SystemScene) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("  System Status"))
	b.WriteString("\n\n")

	if s.loading && s.lastUpdate.IsZero() {
		b.WriteString(styles.Muted.Render("  Checking backend..."))
		return b.String()
	}

	b.WriteString("  ")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		s.renderHealthCard(),
		s.renderPollerCard(),
		s.renderStreamCard(),
	))
	b.WriteString("\n")

	if s.healthErr != nil {
		b.WriteString(styles.StatusError.Render(fmt.Sprintf("  Backend error: %v", s.healthErr)))
		b.WriteString("\n")
	}

	b.WriteString(styles.Muted.Render("\n  [c] Connect stream  [x] Disconnect stream  [p] Toggle polling  [r] Re-check"))

	if !s.lastUpdate.IsZero() {
		b.WriteString(styles.Muted.Render(fmt.Sprintf("\n  Updated: %s", s.lastUpdate.Format("15:04:05"))))
	}

	return b.String()
}

func (s *SystemScene) renderHealthCard() string {
	status := styles.StatusError.Render("UNREACHABLE")
	if s.healthy {
		status = styles.StatusOK.Render("HEALTHY")
	}
	content := fmt.Sprintf("%s\n%s",
		styles.MetricLabel.Render("Backend"),
		status)
	return styles.MetricCard.Render(content)
}

func (s *SystemScene) renderPollerCard() string {
	stats := s.poller.Stats()
	state := styles.Muted.Render("idle")
	if stats.Running {
		state = styles.StatusOK.Render("running")
	}
	content := fmt.Sprintf("%s %s\n%s",
		styles.MetricLabel.Render("Poller"),
		state,
		styles.MetricValue.Render(fmt.Sprintf("%d polls, %d failed", stats.Polls, stats.Failures)))
	return styles.MetricCard.Render(content)
}

func (s *SystemScene) renderStreamCard() string {
	state := s.consumer.State()
	var styled string
	switch state {
	case stream.StateStreaming:
		styled = styles.StatusOK.Render(string(state))
	case stream.StateConnecting:
		styled = styles.StatusWarning.Render(string(state))
	default:
		styled = styles.Muted.Render(string(state))
	}

	m := s.consumer.Metrics()
	content := fmt.Sprintf("%s %s\n%s",
		styles.MetricLabel.Render("Stream"),
		styled,
		styles.MetricValue.Render(fmt.Sprintf("%d recv, %d dropped", m.Pushed, m.Dropped)))
	return styles.MetricCard.Render(content)
}
