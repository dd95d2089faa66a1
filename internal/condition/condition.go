// Package condition models the detection conditions a site operator manages
// locally and their translation to the backend's rule vocabulary.
package condition

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"safevision-console/internal/schema"
)

// Type is a client-side detection condition category. The set is closed on
// the client; anything outside it is TypeUnknown and cannot be submitted.
type Type string

const (
	TypeFall       Type = "fall"
	TypeCollision  Type = "collision"
	TypeDensity    Type = "density"
	TypeRestricted Type = "restricted"
	TypeUnknown    Type = "unknown"
)

// ServerRuleType is the backend's rule vocabulary. The backend understands
// more rule types than the client can author; the extra values still appear
// on alerts it pushes.
type ServerRuleType string

const (
	RuleDistanceBelow ServerRuleType = "distance_below"
	RuleZoneEntry     ServerRuleType = "zone_entry"
	RuleSpeedOver     ServerRuleType = "speed_over"
	RuleCrowdInZone   ServerRuleType = "crowd_in_zone"
	RuleLineCross     ServerRuleType = "line_cross"
	RuleApproaching   ServerRuleType = "approaching"
	RuleCollisionRisk ServerRuleType = "collision_risk"
	RuleFallDetection ServerRuleType = "fall_detection"
)

// Label returns the operator-facing name for a condition type.
func (t Type) Label() string {
	switch t {
	case TypeFall:
		return "Fall Detection"
	case TypeCollision:
		return "Collision Risk"
	case TypeDensity:
		return "Crowd Density"
	case TypeRestricted:
		return "Restricted Zone"
	}
	return "Unknown"
}

// Valid reports whether t is a submittable condition type.
func (t Type) Valid() bool {
	switch t {
	case TypeFall, TypeCollision, TypeDensity, TypeRestricted:
		return true
	}
	return false
}

// ServerRuleType maps a client condition type to the backend rule type. A
// type with no server equivalent returns an error before any network use.
func (t Type) ServerRuleType() (ServerRuleType, error) {
	switch t {
	case TypeFall:
		return RuleFallDetection, nil
	case TypeCollision:
		return RuleCollisionRisk, nil
	case TypeDensity:
		return RuleCrowdInZone, nil
	case TypeRestricted:
		return RuleZoneEntry, nil
	}
	return "", fmt.Errorf("condition type %q has no server rule type", string(t))
}

// MinRate and MaxRate bound a condition's sensitivity rate.
const (
	MinRate = 1
	MaxRate = 4
)

// SeverityForRate derives the submitted severity from a condition's rate.
// Rates above MaxRate saturate at critical.
func SeverityForRate(rate int) schema.Severity {
	switch {
	case rate >= 4:
		return schema.SeverityCritical
	case rate == 3:
		return schema.SeverityHigh
	case rate == 2:
		return schema.SeverityMedium
	}
	return schema.SeverityLow
}

// Condition is one locally managed detection condition.
type Condition struct {
	ID          uuid.UUID `yaml:"id"`
	Name        string    `yaml:"name"`
	Type        Type      `yaml:"type"`
	Rate        int       `yaml:"rate"`
	DurationSec int       `yaml:"duration_sec"`
	Description string    `yaml:"description,omitempty"`
	CreatedAt   time.Time `yaml:"created_at,omitempty"`
}

// NewCondition creates a condition with a fresh ID. An empty name falls back
// to the type label.
func NewCondition(name string, typ Type, rate, durationSec int) Condition {
	if name == "" {
		name = typ.Label()
	}
	return Condition{
		ID:          uuid.New(),
		Name:        name,
		Type:        typ,
		Rate:        rate,
		DurationSec: durationSec,
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate checks a condition's local invariants. It does not consult the
// server mapping; an unknown type is still a valid local condition, it just
// cannot be submitted.
func (c *Condition) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("condition name is required")
	}
	if c.Rate < MinRate || c.Rate > MaxRate {
		return fmt.Errorf("condition %q: rate %d outside [%d, %d]", c.Name, c.Rate, MinRate, MaxRate)
	}
	if c.DurationSec < 0 {
		return fmt.Errorf("condition %q: duration_sec must not be negative", c.Name)
	}
	return nil
}
