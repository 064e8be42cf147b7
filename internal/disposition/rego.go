package disposition

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// priorityExceedsModule is the single rego module backing every
// PriorityExceeds predicate. The sum is computed in Go (it depends on the
// per-scan flag union and the config weight table, neither of which is
// policy); only the threshold comparison itself — the actual disposition
// policy — is evaluated by OPA.
const priorityExceedsModule = `
package laikaboss.disposition

default exceeds = false

exceeds {
	input.sum > input.threshold
}
`

// evaluatePriorityExceeds asks OPA whether sum exceeds threshold. A fresh
// rego.PreparedEvalQuery is compiled per call; spec.md §5 only requires the
// CompiledRules/Module Table to be shared read-only across scans, and
// disposition rules are evaluated once per scan (after the queue drains),
// so recompilation cost here is immaterial.
func evaluatePriorityExceeds(ctx context.Context, sum, threshold int) (bool, error) {
	r := rego.New(
		rego.Query("data.laikaboss.disposition.exceeds"),
		rego.Module("priority_exceeds.rego", priorityExceedsModule),
		rego.Input(map[string]interface{}{
			"sum":       sum,
			"threshold": threshold,
		}),
	)

	rs, err := r.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("disposition: rego eval failed: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("disposition: rego query produced no result")
	}

	exceeds, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("disposition: rego query returned non-boolean result %v", rs[0].Expressions[0].Value)
	}
	return exceeds, nil
}
