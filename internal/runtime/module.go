// Package runtime implements C4: module loading via an explicit registry,
// bounded execution with per-module timeouts, and per-scan resource
// governance (spec.md §4.4, §9).
package runtime

import (
	"context"

	"github.com/Nigelli/laikaboss/internal/scanobject"
)

// ChildSpec is one child object a module wants to emit. The runtime turns
// each into a *scanobject.Object (assigning uuid, hash, size, depth,
// source_module) after enforcing the child-size and child-count caps
// (spec.md §4.4 step 4).
type ChildSpec struct {
	Buffer   []byte
	Filename string
}

// MetadataEntry is one field/value pair a module wants committed into its
// own metadata namespace.
type MetadataEntry struct {
	Field string
	Value scanobject.Value
}

// Output is what a module returns from one Run call (spec.md §4.4: "(child
// objects, flags, metadata entries)").
type Output struct {
	Children []ChildSpec
	Flags    []string
	Metadata []MetadataEntry
}

// ScanContext is the read-only, per-scan context a module may consult — the
// explicit realization of spec.md §9's re-architecture hint ("Model this
// as an explicit ScanContext value owned by the driver and lent read-only
// to modules"), replacing the source's implicit thread-global scan_result.
// It carries nothing a module could use to reach into another object's
// state; that isolation is what spec.md §4.4 requires of the module
// contract ("MUST NOT touch the buffers or fields of any object other than
// the one passed in").
type ScanContext struct {
	RootUUID     string
	ExternalVars scanobject.ExternalVars
}

// Module is a pure analysis routine registered under a name and invoked by
// the runtime against exactly one object at a time (spec.md §4.4's module
// contract; §9's registry hint). Run must not retain o, sctx, or the
// buffers it is given beyond the call — the runtime may discard its
// output entirely on timeout.
type Module interface {
	Name() string
	Run(ctx context.Context, o *scanobject.Object, sctx ScanContext, depth int, options map[string]string) (Output, error)
}

// Func adapts a plain function to the Module interface, the way a small
// one-off module is typically registered.
type Func struct {
	FuncName string
	RunFunc  func(ctx context.Context, o *scanobject.Object, sctx ScanContext, depth int, options map[string]string) (Output, error)
}

func (f Func) Name() string { return f.FuncName }

func (f Func) Run(ctx context.Context, o *scanobject.Object, sctx ScanContext, depth int, options map[string]string) (Output, error) {
	return f.RunFunc(ctx, o, sctx, depth, options)
}
