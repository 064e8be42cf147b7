package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nigelli/laikaboss/internal/scanerr"
	"github.com/Nigelli/laikaboss/internal/scanobject"
)

// Runner executes one (object, module) invocation at a time per spec.md
// §4.4's "Execution cycle for one (object, module)". It never runs two
// modules concurrently against the same object — ordering within an
// object's module list is a contract (spec.md §5) — but arms a timeout
// around each call by running the module in its own goroutine and racing
// it against a context deadline, which spec.md §9 prescribes in place of
// the source's signal-based interrupt ("isolate the module in a worker
// task that can be aborted cleanly").
type Runner struct {
	Registry   *Registry
	Budget     *Budget
	HashMethod scanobject.HashMethod
}

// NewRunner builds a Runner around a module registry and a shared budget.
func NewRunner(registry *Registry, budget *Budget, hashMethod scanobject.HashMethod) *Runner {
	return &Runner{Registry: registry, Budget: budget, HashMethod: hashMethod}
}

// ExecuteResult is what one module invocation produces once committed to
// the object.
type ExecuteResult struct {
	// Children are the admitted child objects, ready for the driver to
	// enqueue. Overflowing or oversized children are silently dropped
	// (with the corresponding flag already added to o) per spec.md §4.4
	// step 4.
	Children []*scanobject.Object
	// Aborted is true if the global scan budget was already exhausted
	// before this module ran; the driver must halt after seeing this.
	Aborted bool
}

// moduleCallResult carries a module's return values across the timeout
// race in Execute.
type moduleCallResult struct {
	out Output
	err error
}

// Execute runs one module against one object, merging options per spec.md
// §4.4 step 3 ("module defaults < dispatch-action override < per-scan
// override"), arming the per-module timeout, committing flags/metadata/
// children on success, and trapping any uncaught error as an incident
// recorded on the object (spec.md §4.4 error trapping) rather than letting
// it escape.
func (r *Runner) Execute(
	ctx context.Context,
	o *scanobject.Object,
	sctx ScanContext,
	depth int,
	name string,
	defaultOptions, dispatchOptions, scanOverrideOptions map[string]string,
	timeout time.Duration,
) ExecuteResult {
	if r.Budget.ScanTimeExceeded() {
		o.AddFlag(scanerr.FlagScanAborted)
		return ExecuteResult{Aborted: true}
	}

	mod, ok := r.Registry.Get(name)
	if !ok {
		// Dispatch already flags DISPATCH:MISSING_MODULE and filters these
		// out before calling Execute; this is a defensive fallback.
		return ExecuteResult{}
	}

	options := mergeOptions(defaultOptions, dispatchOptions, scanOverrideOptions)
	rescanAllowed := sctx.ExternalVars.AllowsRescan(name)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The module writes its findings into the Output it returns, not
	// directly onto o — the runtime is the only thing that calls
	// o.AddMetadata/AddFlag, and only after the module has actually
	// returned. That keeps BeginModule/EndModule race-free even though
	// the module itself keeps running in its own goroutine past a
	// timeout: Go has no way to forcibly kill it (spec.md §9 flags the
	// source's signal-based interrupt as unsound for exactly this
	// reason), so an abandoned module's eventual result is simply never
	// read off resultCh and is garbage-collected once it sends.
	resultCh := make(chan moduleCallResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resultCh <- moduleCallResult{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		out, err := mod.Run(callCtx, o, sctx, depth, options)
		resultCh <- moduleCallResult{out: out, err: err}
	}()

	select {
	case <-callCtx.Done():
		o.AddFlag(scanerr.FlagModuleTimeout(name))
		log.Warn().Str("module", name).Str("object", o.UUID).Msg("runtime: module timed out")
		o.RecordModuleRun(name, rescanAllowed)
		return ExecuteResult{}

	case res := <-resultCh:
		if res.err != nil {
			r.recordFailure(o, name, res.err)
			o.RecordModuleRun(name, rescanAllowed)
			return ExecuteResult{}
		}
		children := r.admitChildren(o, name, res.out.Children, depth)
		o.AddFlags(res.out.Flags...)
		r.commitMetadata(o, name, res.out.Metadata)
		o.RecordModuleRun(name, rescanAllowed)
		return ExecuteResult{Children: children}
	}
}

func (r *Runner) recordFailure(o *scanobject.Object, name string, err error) {
	o.AddFlag(scanerr.FlagModuleError(name))
	o.BeginModule(scanerr.MetaScanFailures)
	_ = o.AppendMetadata(scanerr.MetaScanFailures, "entries", scanobject.NewMap(map[string]scanobject.Value{
		"module": scanobject.NewString(name),
		"error":  scanobject.NewString(err.Error()),
	}))
	o.EndModule()
	log.Error().Str("module", name).Str("object", o.UUID).Err(err).Msg("runtime: module error")
}

func (r *Runner) commitMetadata(o *scanobject.Object, name string, entries []MetadataEntry) {
	if len(entries) == 0 {
		return
	}
	o.BeginModule(name)
	for _, e := range entries {
		_ = o.AddMetadata(name, e.Field, e.Value)
	}
	o.EndModule()
}

func (r *Runner) admitChildren(parent *scanobject.Object, moduleName string, specs []ChildSpec, depth int) []*scanobject.Object {
	var admitted []*scanobject.Object
	overflow := false

	for i, spec := range specs {
		if r.Budget.Limits.MaxChildrenPerCall > 0 && i >= r.Budget.Limits.MaxChildrenPerCall {
			overflow = true
			break
		}
		if int64(len(spec.Buffer)) > r.Budget.Limits.MaxChildSize {
			overflow = true
			continue
		}
		if depth+1 > r.Budget.Limits.MaxDepth {
			parent.AddFlag(scanerr.FlagScanMaxDepth)
			continue
		}

		child := scanobject.NewChild(spec.Buffer, parent, moduleName, spec.Filename, r.HashMethod)
		if capErr := r.Budget.AdmitObject(child.ObjectSize); capErr != nil {
			parent.AddFlag(scanerr.FlagScanCap(capErr.Cap))
			overflow = true
			continue
		}

		admitted = append(admitted, child)
	}

	if overflow {
		parent.AddFlag(scanerr.FlagModuleChildLimit(moduleName))
	}

	return admitted
}

func mergeOptions(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
