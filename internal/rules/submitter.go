// Package rules turns local detection conditions into backend rule
// submissions.
package rules

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"safevision-console/internal/api"
	"safevision-console/internal/condition"
	"safevision-console/internal/schema"
)

// Creator is the backend operation the submitter needs. api.Client satisfies
// this.
type Creator interface {
	CreateRule(ctx context.Context, req schema.RuleRequest) (string, error)
}

// Submitter translates conditions to rule requests and submits them. Each
// Submit is a single attempt; failures are reported to the caller, never
// retried.
type Submitter struct {
	creator  Creator
	validate *validator.Validate
}

// NewSubmitter creates a submitter backed by creator.
func NewSubmitter(creator Creator) *Submitter {
	return &Submitter{
		creator:  creator,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Build translates a condition into the request the backend expects. It
// fails without any network use when the condition's type has no server rule
// type. An empty condition name falls back to the type label.
func (s *Submitter) Build(c condition.Condition) (schema.RuleRequest, error) {
	ruleType, err := c.Type.ServerRuleType()
	if err != nil {
		return schema.RuleRequest{}, api.MappingFailure(err)
	}

	name := c.Name
	if name == "" {
		name = c.Type.Label()
	}

	req := schema.RuleRequest{
		Name:        name,
		Type:        string(ruleType),
		Severity:    string(condition.SeverityForRate(c.Rate)),
		Description: c.Description,
		DurationSec: c.DurationSec,
	}

	if err := s.validate.Struct(req); err != nil {
		return schema.RuleRequest{}, api.MappingFailure(err)
	}
	return req, nil
}

// Submit builds and submits one condition. The returned string is the
// backend's opaque success message. Backend failures propagate to the caller
// exactly as the client classified them.
func (s *Submitter) Submit(ctx context.Context, c condition.Condition) (string, error) {
	req, err := s.Build(c)
	if err != nil {
		return "", err
	}

	msg, err := s.creator.CreateRule(ctx, req)
	if err != nil {
		return "", err
	}

	slog.Info("rule submitted",
		"name", req.Name,
		"type", req.Type,
		"severity", req.Severity)
	return msg, nil
}
