// Package schema defines the wire-level data model shared with the SafeVision
// backend: alerts, violations, stream events and the structured 422 error body.
package schema

import (
	"encoding/json"
	"time"
)

// Severity is the backend's closed severity taxonomy for alerts.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank orders severities for sorting and threshold checks. Unknown values
// rank below low so external data never outranks known levels.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// AlertStatus is the backend's closed alert lifecycle taxonomy.
type AlertStatus string

const (
	StatusUnprocessed AlertStatus = "unprocessed"
	StatusInProgress  AlertStatus = "in_progress"
	StatusResolved    AlertStatus = "resolved"
)

// Valid reports whether st is one of the known statuses.
func (st AlertStatus) Valid() bool {
	switch st {
	case StatusUnprocessed, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Violation is one detected rule breach inside an alert's detail payload.
// Violations are read-only and owned by their parent alert.
type Violation struct {
	Position      [2]float64 `json:"position"`
	EntityID      string     `json:"entity_id"`
	Timestamp     float64    `json:"timestamp"`
	VideoID       string     `json:"video_id"`
	Objects       []string   `json:"objects"`
	Distance      float64    `json:"distance"`
	MinDistance   int        `json:"min_distance"`
	CollisionRisk bool       `json:"collision_risk"`
}

// AlertDetail is the structured detail block of an alert.
type AlertDetail struct {
	RuleID     string      `json:"rule_id"`
	RuleType   string      `json:"rule_type"`
	Violations []Violation `json:"violations"`
	Summary    string      `json:"summary"`
}

// Alert is one hazard-detection record delivered by the backend. The client
// treats alerts as immutable: status transitions are requested over the API
// and only observed once the backend reflects them in a later poll or stream
// update.
type Alert struct {
	ID            string      `json:"alertId"`
	RuleID        string      `json:"rule_id"`
	RuleType      string      `json:"rule_type"`
	TimestampMS   int64       `json:"ts_ms"`
	Summary       string      `json:"summary"`
	Detail        AlertDetail `json:"detail"`
	CreatedAt     string      `json:"created_at"`
	VideoID       string      `json:"video_id"`
	FrameNumber   int64       `json:"frame_number"`
	Severity      Severity    `json:"severity"`
	Status        AlertStatus `json:"status"`
	ProcessedAt   *string     `json:"processed_at"`
	VideoClipPath string      `json:"video_clip_path"`
}

// EventTime converts the epoch-millisecond event timestamp to time.Time.
func (a *Alert) EventTime() time.Time {
	return time.UnixMilli(a.TimestampMS).UTC()
}

// Consistent reports whether the alert honors the backend invariant that
// processed_at is present exactly when the alert is resolved. Decoding never
// enforces this: alerts are external data and must be accepted as-is.
func (a *Alert) Consistent() bool {
	return (a.ProcessedAt != nil) == (a.Status == StatusResolved)
}

// StreamEvent is one decoded unit from the server-sent event stream. The
// payload shape is owned by the backend; the fields below cover the parts the
// console renders, and Raw retains the full payload for anything else.
type StreamEvent struct {
	Event     string `json:"event"`
	AlertID   string `json:"alertId"`
	Message   string `json:"message"`
	Timestamp int64  `json:"ts_ms"`

	Raw json.RawMessage `json:"-"`
}

// DecodeStreamEvent decodes a single SSE data payload.
func DecodeStreamEvent(data []byte) (*StreamEvent, error) {
	var ev StreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	ev.Raw = append(json.RawMessage(nil), data...)
	return &ev, nil
}
