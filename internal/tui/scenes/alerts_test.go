package scenes

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"safevision-console/internal/schema"
	"safevision-console/internal/store"
)

type fakeResolver struct {
	calls []string
	err   error
}

func (f *fakeResolver) ResolveAlert(ctx context.Context, alertID string) error {
	f.calls = append(f.calls, alertID)
	return f.err
}

func runesKey(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func seededAlertsScene(resolver Resolver, alerts ...schema.Alert) *AlertsScene {
	s := store.NewAlertStore()
	s.Replace(alerts)
	scene := NewAlertsScene(s, resolver)
	scene.Update(alertsMsg{alerts: alerts})
	return scene
}

func TestAlertsSceneResolveSelected(t *testing.T) {
	resolver := &fakeResolver{}
	scene := seededAlertsScene(resolver,
		schema.Alert{ID: "a-1", Status: schema.StatusUnprocessed},
		schema.Alert{ID: "a-2", Status: schema.StatusUnprocessed},
	)

	scene, _ = scene.Update(runesKey("j"))
	_, cmd := scene.Update(runesKey("enter"))
	if cmd == nil {
		t.Fatal("no resolve command issued")
	}

	msg := cmd()
	res, ok := msg.(resolveMsg)
	if !ok {
		t.Fatalf("command produced %T, want resolveMsg", msg)
	}
	if res.alertID != "a-2" {
		t.Errorf("resolved %q, want a-2 (cursor moved down)", res.alertID)
	}
	if len(resolver.calls) != 1 || resolver.calls[0] != "a-2" {
		t.Errorf("resolver calls = %v", resolver.calls)
	}
}

func TestAlertsSceneResolveDoesNotMutateList(t *testing.T) {
	resolver := &fakeResolver{}
	scene := seededAlertsScene(resolver,
		schema.Alert{ID: "a-1", Status: schema.StatusUnprocessed},
	)

	_, cmd := scene.Update(runesKey("enter"))
	if cmd == nil {
		t.Fatal("no resolve command issued")
	}
	scene.Update(cmd())

	if got := scene.list[0].Status; got != schema.StatusUnprocessed {
		t.Errorf("local status = %q, resolve must not mutate the cached alert", got)
	}
}

func TestAlertsSceneSkipsResolvedAlerts(t *testing.T) {
	resolver := &fakeResolver{}
	scene := seededAlertsScene(resolver,
		schema.Alert{ID: "a-1", Status: schema.StatusResolved},
	)

	_, cmd := scene.Update(runesKey("enter"))
	if cmd != nil {
		t.Error("resolve issued for an already resolved alert")
	}
	if len(resolver.calls) != 0 {
		t.Errorf("resolver calls = %v, want none", resolver.calls)
	}
}

func TestAlertsSceneResolveFailureNotice(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("alert not found")}
	scene := seededAlertsScene(resolver,
		schema.Alert{ID: "a-1", Status: schema.StatusUnprocessed},
	)

	_, cmd := scene.Update(runesKey("enter"))
	scene, _ = scene.Update(cmd())

	if scene.notice == "" {
		t.Error("no notice after failed resolve")
	}
}

func TestAlertsSceneErrorKeepsRows(t *testing.T) {
	scene := seededAlertsScene(&fakeResolver{},
		schema.Alert{ID: "a-1"},
	)

	// A poll failure surfaces alongside the stale list, never instead of it.
	scene, _ = scene.Update(alertsMsg{alerts: []schema.Alert{{ID: "a-1"}}, err: "backend unreachable"})
	if scene.err == "" {
		t.Error("error not recorded")
	}
	if len(scene.list) != 1 {
		t.Error("list blanked by error")
	}
	if !strings.Contains(scene.View(), "backend unreachable") {
		t.Error("View() does not surface the polling error")
	}
}
