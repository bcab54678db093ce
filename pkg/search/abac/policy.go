package abac

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

//go:embed policy.rego
var policySource string

// PolicyEngine evaluates the §4.7.4 sensitive-status gate as a compiled
// Rego policy rather than hand-rolled Go branching, so the decision can be
// audited and changed independently of the serving code.
type PolicyEngine struct {
	query rego.PreparedEvalQuery
}

// NewPolicyEngine compiles the embedded policy once; the prepared query is
// safe for concurrent Eval calls.
func NewPolicyEngine(ctx context.Context) (*PolicyEngine, error) {
	query, err := rego.New(
		rego.Query("data.dms.abac.decision"),
		rego.Module("policy.rego", policySource),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("abac: compiling policy: %w", err)
	}
	return &PolicyEngine{query: query}, nil
}

// Gate resolves which teams may view a document at the requested status,
// implementing spec.md §4.7.4 via the embedded Rego policy.
func (e *PolicyEngine) Gate(ctx context.Context, status string, readTeams, approveTeams, rejectTeams []string) (StatusGate, error) {
	input := map[string]any{
		"status":        status,
		"read_teams":    toAnySlice(readTeams),
		"approve_teams": toAnySlice(approveTeams),
		"reject_teams":  toAnySlice(rejectTeams),
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return StatusGate{}, fmt.Errorf("abac: evaluating policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return StatusGate{}, fmt.Errorf("abac: policy produced no decision for status %q", status)
	}

	decision, ok := results[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return StatusGate{}, fmt.Errorf("abac: policy decision had unexpected shape")
	}

	return StatusGate{
		AllowedTeams:      toStringSlice(decision["allowed_teams"]),
		IncludeOwnerMatch: asBool(decision["include_owner_match"]),
		Denied:            asBool(decision["denied"]),
	}, nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
