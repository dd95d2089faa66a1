package condition

import (
	"testing"

	"github.com/google/uuid"

	"safevision-console/internal/schema"
)

func TestServerRuleTypeMapping(t *testing.T) {
	tests := []struct {
		typ  Type
		want ServerRuleType
	}{
		{TypeFall, RuleFallDetection},
		{TypeCollision, RuleCollisionRisk},
		{TypeDensity, RuleCrowdInZone},
		{TypeRestricted, RuleZoneEntry},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			got, err := tt.typ.ServerRuleType()
			if err != nil {
				t.Fatalf("ServerRuleType() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ServerRuleType() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("unknown type has no mapping", func(t *testing.T) {
		if _, err := TypeUnknown.ServerRuleType(); err == nil {
			t.Error("ServerRuleType() succeeded for unknown type")
		}
		if _, err := Type("made_up").ServerRuleType(); err == nil {
			t.Error("ServerRuleType() succeeded for unrecognized type")
		}
	})
}

func TestSeverityForRate(t *testing.T) {
	tests := []struct {
		rate int
		want schema.Severity
	}{
		{1, schema.SeverityLow},
		{2, schema.SeverityMedium},
		{3, schema.SeverityHigh},
		{4, schema.SeverityCritical},
		{9, schema.SeverityCritical},
		{0, schema.SeverityLow},
		{-1, schema.SeverityLow},
	}

	for _, tt := range tests {
		if got := SeverityForRate(tt.rate); got != tt.want {
			t.Errorf("SeverityForRate(%d) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestNewConditionDefaultsName(t *testing.T) {
	c := NewCondition("", TypeFall, 2, 5)
	if c.Name != "Fall Detection" {
		t.Errorf("Name = %q, want type label", c.Name)
	}
	if c.ID == uuid.Nil {
		t.Error("ID not assigned")
	}

	named := NewCondition("Night shift falls", TypeFall, 2, 5)
	if named.Name != "Night shift falls" {
		t.Errorf("Name = %q, explicit name lost", named.Name)
	}
}

func TestConditionValidate(t *testing.T) {
	valid := NewCondition("Test", TypeDensity, 3, 10)
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v for valid condition", err)
	}

	tests := []struct {
		name string
		mod  func(*Condition)
	}{
		{"empty name", func(c *Condition) { c.Name = "" }},
		{"rate below minimum", func(c *Condition) { c.Rate = 0 }},
		{"rate above maximum", func(c *Condition) { c.Rate = 5 }},
		{"negative duration", func(c *Condition) { c.DurationSec = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCondition("Test", TypeDensity, 3, 10)
			tt.mod(&c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() accepted invalid condition")
			}
		})
	}
}

func TestStoreUpsertDeleteList(t *testing.T) {
	s := NewStore()

	c := NewCondition("Gate watch", TypeRestricted, 2, 5)
	if err := s.Upsert(c); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}

	// Replacing by ID does not grow the set.
	c.Rate = 4
	if err := s.Upsert(c); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d after replace, want 1", s.Len())
	}
	got, ok := s.Get(c.ID)
	if !ok || got.Rate != 4 {
		t.Errorf("Get() = %+v, want rate 4", got)
	}

	if err := s.Delete(c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(c.ID); err == nil {
		t.Error("Delete() succeeded for missing condition")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after delete, want 0", s.Len())
	}
}

func TestStoreListSorted(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if err := s.Upsert(NewCondition(name, TypeFall, 1, 0)); err != nil {
			t.Fatalf("Upsert(%s) error = %v", name, err)
		}
	}

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("List() len = %d, want 3", len(list))
	}
	if list[0].Name != "alpha" || list[1].Name != "bravo" || list[2].Name != "charlie" {
		t.Errorf("List() order = %v", []string{list[0].Name, list[1].Name, list[2].Name})
	}
}

func TestStoreListByType(t *testing.T) {
	s := NewSeededStore()
	falls := s.ListByType(TypeFall)
	if len(falls) != 1 || falls[0].Type != TypeFall {
		t.Errorf("ListByType(fall) = %+v", falls)
	}
}

func TestStoreSubscribe(t *testing.T) {
	s := NewStore()
	ch := s.Subscribe()

	c := NewCondition("Notify me", TypeCollision, 2, 0)
	if err := s.Upsert(c); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	select {
	case got := <-ch:
		if got.ID != c.ID {
			t.Errorf("received %v, want %v", got.ID, c.ID)
		}
	default:
		t.Error("no notification delivered")
	}
}

func TestParseConditions(t *testing.T) {
	t.Run("list document", func(t *testing.T) {
		data := []byte(`
- name: Fall watch
  type: fall
  rate: 3
  duration_sec: 10
- name: Crowding
  type: density
  rate: 2
`)
		conditions, err := ParseConditions(data)
		if err != nil {
			t.Fatalf("ParseConditions() error = %v", err)
		}
		if len(conditions) != 2 {
			t.Fatalf("len = %d, want 2", len(conditions))
		}
		if conditions[0].Type != TypeFall || conditions[0].Rate != 3 {
			t.Errorf("first = %+v", conditions[0])
		}
		if conditions[0].ID == uuid.Nil {
			t.Error("ID not assigned during parse")
		}
	})

	t.Run("single document", func(t *testing.T) {
		data := []byte("name: Solo\ntype: collision\nrate: 4\n")
		conditions, err := ParseConditions(data)
		if err != nil {
			t.Fatalf("ParseConditions() error = %v", err)
		}
		if len(conditions) != 1 || conditions[0].Name != "Solo" {
			t.Errorf("conditions = %+v", conditions)
		}
	})

	t.Run("invalid rate rejected", func(t *testing.T) {
		data := []byte("- name: Bad\n  type: fall\n  rate: 9\n")
		if _, err := ParseConditions(data); err == nil {
			t.Error("ParseConditions() accepted out-of-range rate")
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := ParseConditions([]byte("{{{")); err == nil {
			t.Error("ParseConditions() accepted malformed YAML")
		}
	})
}
