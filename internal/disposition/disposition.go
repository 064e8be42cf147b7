package disposition

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nigelli/laikaboss/internal/scanerr"
	"github.com/Nigelli/laikaboss/internal/scanobject"
)

// Dispositioner runs exactly once per scan, after the work queue drains,
// against the root object only — but over the flags of the whole tree
// (spec.md §4.5).
type Dispositioner struct {
	Table               Table
	Weights             map[string]int
	DefaultDisposition  string
}

// New builds a Dispositioner from a config-loaded rule table, a
// flag→weight table backing priority-exceeds, and the fallback verdict.
func New(table Table, weights map[string]int, defaultDisposition string) *Dispositioner {
	return &Dispositioner{Table: table, Weights: weights, DefaultDisposition: defaultDisposition}
}

// Verdict is the outcome of one disposition pass — never persisted on its
// own; Apply is what commits it onto the root object.
type Verdict struct {
	Disposition string
	Reason      string
}

// Decide folds tree's union of flags through the rule table and returns the
// first matching (disposition, reason), or DefaultDisposition if nothing
// matches (spec.md §4.5: "the first matching rule's disposition is the
// final verdict; if none matches, the configured default_disposition is
// used"). It is a pure function of tree's flags, so calling it twice on the
// same tree is the idempotence P5 requires.
func (d *Dispositioner) Decide(ctx context.Context, tree []*scanobject.Object) (Verdict, error) {
	ec := EvalContext{Flags: unionFlags(tree), Weights: d.Weights}

	for _, rule := range d.Table {
		ok, err := rule.Predicate.Eval(ctx, ec)
		if err != nil {
			return Verdict{}, &scanerr.DispositionerError{Err: err}
		}
		if ok {
			return Verdict{Disposition: rule.Disposition, Reason: rule.Reason}, nil
		}
	}
	return Verdict{Disposition: d.DefaultDisposition, Reason: "no disposition rule matched"}, nil
}

// Apply runs Decide and commits the verdict onto root's own metadata
// namespace and flags (spec.md §4.5: "adds the chosen (disposition, reason)
// to the root object's metadata under its own namespace (DISPOSITIONER) and
// to the root's flags (DISPOSITION:<value>)"). On a DispositionerError it
// falls back to DefaultDisposition and flags DISPOSITIONER:ERROR instead of
// letting the fault escape (spec.md §7).
func (d *Dispositioner) Apply(ctx context.Context, root *scanobject.Object, tree []*scanobject.Object) error {
	verdict, err := d.Decide(ctx, tree)
	if err != nil {
		log.Error().Err(err).Str("object", root.UUID).Msg("disposition: predicate evaluation failed, falling back to default")
		root.AddFlag(scanerr.FlagDispositionerError)
		verdict = Verdict{Disposition: d.DefaultDisposition, Reason: "fallback after dispositioner error: " + err.Error()}
	}

	root.BeginModule(scanerr.MetaDispositioner)
	commitErr := root.AddMetadata(scanerr.MetaDispositioner, "Disposition", scanobject.NewMap(map[string]scanobject.Value{
		"Result": scanobject.NewString(verdict.Disposition),
		"Reason": scanobject.NewString(verdict.Reason),
	}))
	root.EndModule()
	if commitErr != nil {
		return commitErr
	}

	root.AddFlag(scanerr.FlagDisposition(verdict.Disposition))
	return nil
}

// unionFlags collects every flag present anywhere in the scan tree
// (spec.md §4.5: "observes flags from the entire tree").
func unionFlags(tree []*scanobject.Object) map[string]struct{} {
	out := make(map[string]struct{})
	for _, o := range tree {
		for _, flag := range o.Flags.Slice() {
			out[flag] = struct{}{}
		}
	}
	return out
}
