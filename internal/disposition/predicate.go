// Package disposition implements C5: folding the accumulated flags of a
// whole scan tree into a terminal (disposition, reason) verdict (spec.md
// §4.5). The boolean connectives (literal-flag-present, AND, OR, NOT) are a
// closed two-valued algebra with no external data dependency, so they are
// evaluated directly in Go; the numeric "priority-exceeds" comparator is
// the one piece of real policy logic — summing config-declared flag
// weights and comparing against a threshold — so it is routed through
// OPA's rego evaluator, the way bearer turns its rule tables into compiled
// rego queries.
package disposition

import "context"

// EvalContext carries the inputs a Predicate needs to judge a whole scan
// tree: the union of every flag present anywhere in the tree, and the
// config-declared flag→weight table backing priority-exceeds.
type EvalContext struct {
	Flags   map[string]struct{}
	Weights map[string]int
}

// Predicate is a boolean expression over EvalContext (spec.md §4.5:
// "literal-flag-present, AND, OR, NOT, and a priority-exceeds comparator").
type Predicate interface {
	Eval(ctx context.Context, ec EvalContext) (bool, error)
}

// FlagPresent matches when Flag is anywhere in the tree's flag union.
type FlagPresent struct {
	Flag string
}

func (p FlagPresent) Eval(ctx context.Context, ec EvalContext) (bool, error) {
	_, ok := ec.Flags[p.Flag]
	return ok, nil
}

// And is true iff every clause is true; short-circuits on the first false.
type And struct {
	Clauses []Predicate
}

func (p And) Eval(ctx context.Context, ec EvalContext) (bool, error) {
	for _, c := range p.Clauses {
		ok, err := c.Eval(ctx, ec)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Or is true iff any clause is true; short-circuits on the first true.
type Or struct {
	Clauses []Predicate
}

func (p Or) Eval(ctx context.Context, ec EvalContext) (bool, error) {
	for _, c := range p.Clauses {
		ok, err := c.Eval(ctx, ec)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Not inverts its single clause.
type Not struct {
	Clause Predicate
}

func (p Not) Eval(ctx context.Context, ec EvalContext) (bool, error) {
	ok, err := p.Clause.Eval(ctx, ec)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// PriorityExceeds sums ec.Weights over every present flag and asks OPA
// whether the sum exceeds Threshold.
type PriorityExceeds struct {
	Threshold int
}

func (p PriorityExceeds) Eval(ctx context.Context, ec EvalContext) (bool, error) {
	sum := 0
	for flag := range ec.Flags {
		sum += ec.Weights[flag]
	}
	return evaluatePriorityExceeds(ctx, sum, p.Threshold)
}
