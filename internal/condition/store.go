package condition

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Store is the in-memory condition set. Conditions live only for the process
// lifetime; nothing is persisted locally.
type Store struct {
	mu          sync.RWMutex
	conditions  map[uuid.UUID]Condition
	subscribers []chan Condition
}

// NewStore creates an empty condition store.
func NewStore() *Store {
	return &Store{conditions: make(map[uuid.UUID]Condition)}
}

// NewSeededStore creates a store pre-populated with a starter condition per
// submittable type, matching what a fresh console shows.
func NewSeededStore() *Store {
	s := NewStore()
	for _, typ := range []Type{TypeFall, TypeCollision, TypeDensity, TypeRestricted} {
		c := NewCondition("", typ, 2, 5)
		s.conditions[c.ID] = c
	}
	return s
}

// Upsert inserts or replaces a condition and notifies subscribers.
func (s *Store) Upsert(c Condition) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	s.mu.Lock()
	s.conditions[c.ID] = c
	subs := make([]chan Condition, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- c:
		default:
			// Slow subscribers miss updates rather than block the store.
		}
	}
	return nil
}

// Delete removes a condition by ID.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conditions[id]; !ok {
		return fmt.Errorf("condition %s not found", id)
	}
	delete(s.conditions, id)
	return nil
}

// Get returns a condition by ID.
func (s *Store) Get(id uuid.UUID) (Condition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conditions[id]
	return c, ok
}

// List returns all conditions sorted by name, then ID for a stable order.
func (s *Store) List() []Condition {
	s.mu.RLock()
	list := lo.Values(s.conditions)
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID.String() < list[j].ID.String()
	})
	return list
}

// ListByType returns conditions of one type, sorted like List.
func (s *Store) ListByType(typ Type) []Condition {
	return lo.Filter(s.List(), func(c Condition, _ int) bool {
		return c.Type == typ
	})
}

// Len returns the number of stored conditions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conditions)
}

// Subscribe returns a channel receiving every upserted condition. Slow
// receivers drop updates instead of blocking writers.
func (s *Store) Subscribe() <-chan Condition {
	ch := make(chan Condition, 16)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}
