// Package scandriver implements C6: the top-level recursion that seeds the
// work queue with the root object, runs C3→C4 to completion, invokes C5,
// and shapes the result (spec.md §4.6, §6.1).
package scandriver

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/Nigelli/laikaboss/internal/disposition"
	"github.com/Nigelli/laikaboss/internal/dispatch"
	"github.com/Nigelli/laikaboss/internal/runtime"
	"github.com/Nigelli/laikaboss/internal/scanerr"
	"github.com/Nigelli/laikaboss/internal/scanobject"
)

// QueueOrder selects breadth-first (the default) or depth-first traversal
// of the pending-object queue (spec.md §6.2's `queue_order ∈ {bfs,dfs}`).
type QueueOrder string

const (
	BFS QueueOrder = "bfs"
	DFS QueueOrder = "dfs"
)

// Config bundles everything a scan needs that is read-only and may be
// shared across scans (spec.md §5: "CompiledRules... and the Module Table
// are read-only during a scan and MAY be shared across scans"). It is built
// once, outside the hot path, by the internal/config loader.
type Config struct {
	Dispatcher    *dispatch.Dispatcher
	Modules       dispatch.ModuleTable
	Registry      *runtime.Registry
	Limits        runtime.Limits
	Dispositioner *disposition.Dispositioner
	HashMethod    scanobject.HashMethod
	QueueOrder    QueueOrder
}

// pendingObject is one (object, module-list) pair per spec.md §4.6's
// "single FIFO of pending (object, module-list) pairs". The module list is
// resolved once, at dispatch time, and preserved in dispatch order for the
// whole time the object sits in the queue.
type pendingObject struct {
	object  *scanobject.Object
	modules []dispatch.ResolvedModule
}

// Scan is the single core entry point (spec.md §6.1: "scan(bytes,
// external_vars, config, verbosity) → ScanResult. Pure function modulo
// configuration; no ambient state."). It always returns a ScanResult,
// even when every module fails or the framework itself faults mid-scan
// (spec.md §7): root construction is infallible (scanobject.NewRoot never
// errors), so the only way Scan itself returns an error is if cfg is
// missing a required collaborator.
func Scan(ctx context.Context, buf []byte, ev scanobject.ExternalVars, cfg *Config, verbosity scanobject.Verbosity) (scanobject.Result, error) {
	if cfg == nil || cfg.Dispatcher == nil || cfg.Registry == nil || cfg.Dispositioner == nil {
		return scanobject.Result{}, fmt.Errorf("scandriver: config is missing a dispatcher, registry or dispositioner")
	}
	start := time.Now()
	budget := runtime.NewBudget(cfg.Limits, start)
	runner := runtime.NewRunner(cfg.Registry, budget, cfg.HashMethod)

	root := scanobject.NewRoot(buf, ev, cfg.HashMethod)
	if capErr := budget.AdmitObject(root.ObjectSize); capErr != nil {
		root.AddFlag(scanerr.FlagScanCap(capErr.Cap))
	}

	tree := map[string]*scanobject.Object{root.UUID: root}
	queue := []pendingObject{}

	first, err := dispatchObject(cfg, root, ev)
	if err != nil {
		return abortWithFrameworkError(cfg, root, tree, ev.Source, start, verbosity, err)
	}
	queue = append(queue, first)

	sctx := runtime.ScanContext{RootUUID: root.UUID, ExternalVars: ev}

	for len(queue) > 0 {
		if budget.ScanTimeExceeded() {
			root.AddFlag(scanerr.FlagScanAborted)
			break
		}

		pending := queue[0]
		queue = queue[1:]

		children := runModules(ctx, cfg, runner, sctx, pending)
		if len(children) == 0 {
			continue
		}

		var newlyQueued []pendingObject
		for _, child := range children {
			tree[child.UUID] = child
			childPending, err := dispatchObject(cfg, child, ev)
			if err != nil {
				child.AddFlag(scanerr.FlagFrameworkError)
				log.Error().Err(err).Str("object", child.UUID).Msg("scandriver: dispatch failed on child, skipping its modules")
				childPending = pendingObject{object: child}
			}
			newlyQueued = append(newlyQueued, childPending)
		}

		switch cfg.QueueOrder {
		case DFS:
			queue = append(newlyQueued, queue...)
		default:
			queue = append(queue, newlyQueued...)
		}
	}

	// SCAN:MAX_DEPTH lands on the object whose child was discarded; the root
	// carries it as well, so the scan-level result shows the cap was hit.
	for _, o := range tree {
		if o.Flags.Contains(scanerr.FlagScanMaxDepth) {
			root.AddFlag(scanerr.FlagScanMaxDepth)
			break
		}
	}

	if err := cfg.Dispositioner.Apply(ctx, root, flatten(tree)); err != nil {
		log.Error().Err(err).Msg("scandriver: dispositioner commit failed")
	}

	logScanSummary(root.UUID, start, budget.ObjectCount())

	return scanobject.BuildResult(ev.Source, start, root.UUID, tree, verbosity), nil
}

// logScanSummary emits one human-readable summary line per scan — elapsed
// time and resident memory via go-humanize, the way bearer's Worker logs
// render MemorySoftMaximum/MemoryMaximum against gopsutil samples.
func logScanSummary(rootUUID string, start time.Time, objectCount int) {
	event := log.Info().
		Str("root", rootUUID).
		Int("objects", objectCount).
		Str("elapsed", humanize.RelTime(start, time.Now(), "", ""))

	if rss, err := runtime.SampleRSS(); err == nil {
		event = event.Str("rss", humanize.Bytes(rss))
	}
	event.Msg("scandriver: scan complete")
}

func dispatchObject(cfg *Config, o *scanobject.Object, ev scanobject.ExternalVars) (pendingObject, error) {
	modules, err := cfg.Dispatcher.Dispatch(o, ev)
	if err != nil {
		return pendingObject{}, err
	}
	return pendingObject{object: o, modules: modules}, nil
}

// runModules executes pending's module list in dispatch order (spec.md
// §5: "modules execute strictly in dispatch order") and collects every
// child emitted across all of them — a child is only enqueued for its own
// dispatch once all of its parent's modules have completed (spec.md §5
// ordering guarantee 2).
func runModules(ctx context.Context, cfg *Config, runner *runtime.Runner, sctx runtime.ScanContext, pending pendingObject) []*scanobject.Object {
	var children []*scanobject.Object

	for _, resolved := range pending.modules {
		spec := cfg.Modules[resolved.Name]

		if err := validateModuleOptions(resolved.Options); err != nil {
			pending.object.AddFlag(scanerr.FlagDispatchBadOptions(resolved.Name))
			log.Warn().Err(err).Str("module", resolved.Name).Str("object", pending.object.UUID).
				Msg("scandriver: bad per-call options, skipping module")
			continue
		}

		timeout := resolveModuleTimeout(cfg.Limits.ModuleTime, resolved.Options)

		result := runner.Execute(
			ctx,
			pending.object,
			sctx,
			pending.object.Depth,
			resolved.Name,
			spec.DefaultOptions,
			resolved.Options,
			nil,
			timeout,
		)
		if result.Aborted {
			return children
		}
		children = append(children, result.Children...)
	}

	return children
}

// validateModuleOptions checks the framework-recognized per-call options a
// rule action may carry (spec.md §7's runtime DispatchConfigError row:
// "bad options... record flag DISPATCH:BAD_OPTIONS:<mod>; skip that
// module"). Only module_time is interpreted at the framework level today;
// a module-specific option schema would extend this, not replace it.
func validateModuleOptions(options map[string]string) error {
	if v, ok := options["module_time"]; ok {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("module_time %q: %w", v, err)
		}
	}
	return nil
}

// resolveModuleTimeout supports a per-rule-action "module_time" option
// override (spec.md §4.4 step 2: "overridable per module and per
// rule-action"), falling back to the framework default.
func resolveModuleTimeout(frameworkDefault time.Duration, options map[string]string) time.Duration {
	if v, ok := options["module_time"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return frameworkDefault
}

func abortWithFrameworkError(cfg *Config, root *scanobject.Object, tree map[string]*scanobject.Object, source string, start time.Time, verbosity scanobject.Verbosity, cause error) (scanobject.Result, error) {
	root.AddFlag(scanerr.FlagFrameworkError)
	log.Error().Err(cause).Str("object", root.UUID).Msg("scandriver: dispatch failed on root, scan aborted")
	if cfg.Dispositioner != nil {
		_ = cfg.Dispositioner.Apply(context.Background(), root, flatten(tree))
	}
	return scanobject.BuildResult(source, start, root.UUID, tree, verbosity), nil
}

func flatten(tree map[string]*scanobject.Object) []*scanobject.Object {
	out := make([]*scanobject.Object, 0, len(tree))
	for _, o := range tree {
		out = append(out, o)
	}
	return out
}
