package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"safevision-console/internal/condition"
	"safevision-console/internal/poller"
	"safevision-console/internal/schema"
	"safevision-console/internal/store"
	"safevision-console/internal/stream"
)

type fakeBackend struct{}

func (fakeBackend) ResolveAlert(ctx context.Context, alertID string) error { return nil }
func (fakeBackend) Health(ctx context.Context) error                       { return nil }
func (fakeBackend) Submit(ctx context.Context, c condition.Condition) (string, error) {
	return "ok", nil
}

type fakeFetcher struct{}

func (fakeFetcher) ListAlerts(ctx context.Context) ([]schema.Alert, error) { return nil, nil }

func newTestModel(t *testing.T) *Model {
	t.Helper()

	consumer, err := stream.NewConsumer(stream.DefaultConfig(), noopSub{})
	if err != nil {
		t.Fatalf("NewConsumer() error = %v", err)
	}

	backend := fakeBackend{}
	return New(Deps{
		Resolver:     backend,
		Health:       backend,
		Submitter:    backend,
		Alerts:       store.NewAlertStore(),
		Conditions:   condition.NewSeededStore(),
		Poller:       poller.New(fakeFetcher{}, time.Hour),
		Consumer:     consumer,
		StreamURL:    "http://localhost:8080/sse",
		TogglePoller: func() {},
	})
}

type noopSub struct{}

func (noopSub) OnEvent(*schema.StreamEvent) {}
func (noopSub) OnError(error)               {}
func (noopSub) OnFinished()                 {}

// keyMsg builds a tea.KeyMsg for the given key string.
func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestNewModelDefaultScene(t *testing.T) {
	m := newTestModel(t)
	if m.scene != SceneAlerts {
		t.Errorf("initial scene = %d, want SceneAlerts", m.scene)
	}
	if m.alerts == nil || m.conditions == nil || m.system == nil {
		t.Error("scene models not initialized")
	}
}

func TestTabSwitching(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(keyMsg("2"))
	m = updated.(*Model)
	if m.scene != SceneConditions {
		t.Errorf("scene = %d after '2', want SceneConditions", m.scene)
	}

	updated, _ = m.Update(keyMsg("3"))
	m = updated.(*Model)
	if m.scene != SceneSystem {
		t.Errorf("scene = %d after '3', want SceneSystem", m.scene)
	}

	updated, _ = m.Update(keyMsg("tab"))
	m = updated.(*Model)
	if m.scene != SceneAlerts {
		t.Errorf("scene = %d after tab wrap, want SceneAlerts", m.scene)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		m := newTestModel(t)
		_, cmd := m.Update(keyMsg(key))
		if cmd == nil {
			t.Errorf("no command returned for %q", key)
			continue
		}
		if msg := cmd(); msg == nil {
			t.Errorf("%q did not produce a quit message", key)
		}
		if !m.quitting {
			t.Errorf("quitting = false after %q", key)
		}
	}
}

func TestViewRendersTabs(t *testing.T) {
	m := newTestModel(t)
	m.width = 120
	m.height = 40

	view := m.View()
	for _, want := range []string{"Alerts", "Conditions", "System"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing tab %q", want)
		}
	}
}

func TestViewEmptyWhenQuitting(t *testing.T) {
	m := newTestModel(t)
	m.quitting = true
	if m.View() != "" {
		t.Error("View() not empty while quitting")
	}
}
