// Package policy provides the OPA engine that triages moderation reports.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Engine is the OPA report triage engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new triage engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.report_triage.severity"),
		rego.Module("report_triage.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate returns the severity for a report.
// Input is a map with keys: reason, session_id, reporter_id.
// Returns one of: routine, review, urgent.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "routine", nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "routine", nil
}

// DefaultPolicy is the default triage policy content.
const DefaultPolicy = `
package report_triage

urgent_keywords := [
	"suicide",
	"self-harm",
	"ฆ่าตัวตาย",
	"ทำร้ายตัวเอง",
	"threat",
]

severity := "urgent" if {
	some keyword in urgent_keywords
	contains(lower(input.reason), keyword)
} else := "review" if {
	input.reason != ""
	input.reason != "inappropriate behavior"
} else := "routine"
`
