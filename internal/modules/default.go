// Package modules ships the handful of illustrative modules
// SPEC_FULL.md's module registry needs to exercise the runtime end to end —
// not the ~80 format-specific modules spec.md explicitly scopes out.
package modules

import (
	"context"

	"github.com/Nigelli/laikaboss/internal/runtime"
	"github.com/Nigelli/laikaboss/internal/scanobject"
)

// Default is the fallback module run when no dispatch rule matches an
// object (spec.md §4.3 step 2: "If empty, use the singleton rule
// 'default'"). It performs no analysis; it exists so the dispatch "default"
// rule action always has somewhere to point.
type Default struct{}

func (Default) Name() string { return "default" }

func (Default) Run(ctx context.Context, o *scanobject.Object, sctx runtime.ScanContext, depth int, options map[string]string) (runtime.Output, error) {
	return runtime.Output{}, nil
}
