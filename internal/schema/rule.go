package schema

// RuleRequest is the wire-format projection of a locally authored detect
// condition, sent to the rule-creation endpoint. It is built transiently per
// submission and never persisted.
type RuleRequest struct {
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Severity    string `json:"severity" validate:"required,oneof=low medium high critical"`
	Description string `json:"description"`
	DurationSec int    `json:"duration_sec" validate:"gte=0"`
}
