// Package store holds the in-memory alert snapshot shared between the
// polling layer and the UI.
package store

import (
	"sync"

	"safevision-console/internal/schema"
)

// AlertStore holds the most recent alert list. Every successful poll
// replaces the whole list; the store never merges deltas and never mutates
// an alert locally, so a resolve only becomes visible once the backend
// reports it.
type AlertStore struct {
	mu          sync.RWMutex
	alerts      []schema.Alert
	lastErr     error
	subscribers []chan struct{}
}

// NewAlertStore creates an empty alert store.
func NewAlertStore() *AlertStore {
	return &AlertStore{}
}

// Replace swaps in a new alert list and clears any previous failure.
func (s *AlertStore) Replace(alerts []schema.Alert) {
	s.mu.Lock()
	s.alerts = alerts
	s.lastErr = nil
	s.mu.Unlock()

	s.notify()
}

// SetError records a poll failure. The previous alert list stays visible so
// a transient failure never blanks the display.
func (s *AlertStore) SetError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	s.notify()
}

// Snapshot returns a copy of the current alert list and the last recorded
// failure, if any.
func (s *AlertStore) Snapshot() ([]schema.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := make([]schema.Alert, len(s.alerts))
	copy(alerts, s.alerts)
	return alerts, s.lastErr
}

// Get returns the alert with the given ID from the current snapshot.
func (s *AlertStore) Get(id string) (schema.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.alerts {
		if a.ID == id {
			return a, true
		}
	}
	return schema.Alert{}, false
}

// Len returns the current alert count.
func (s *AlertStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

// Updates returns a channel that signals whenever the snapshot changes. Slow
// receivers coalesce signals instead of blocking writers.
func (s *AlertStore) Updates() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *AlertStore) notify() {
	s.mu.RLock()
	subs := make([]chan struct{}, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
