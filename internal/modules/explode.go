package modules

import (
	"context"

	"github.com/Nigelli/laikaboss/internal/runtime"
	"github.com/Nigelli/laikaboss/internal/scanobject"
)

// ExplodeLoop is a test-only module used to exercise recursion and the
// max_depth cap (spec.md boundary scenario S3: "module EXPLODE_LOOP emits
// one child equal to its input"). It is never wired into a production
// dispatch table; it exists so the runtime's depth enforcement has
// something concrete to stop.
type ExplodeLoop struct{}

func (ExplodeLoop) Name() string { return "EXPLODE_LOOP" }

func (ExplodeLoop) Run(ctx context.Context, o *scanobject.Object, sctx runtime.ScanContext, depth int, options map[string]string) (runtime.Output, error) {
	return runtime.Output{
		Children: []runtime.ChildSpec{
			{Buffer: o.Buffer(), Filename: o.Filename},
		},
	}, nil
}
