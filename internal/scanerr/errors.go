// Package scanerr holds the typed error taxonomy of spec.md §7. Module
// faults are data, not control flow — these types exist so a caller can
// errors.As a ResourceExceeded or a ModuleError out of a logged incident,
// but none of them ever escape scandriver.Scan as a panic or an abort of
// the whole scan (save the framework-internal case, §7's last row).
package scanerr

import "fmt"

// RuleSyntaxError wraps a YARA compilation failure (C2, fatal at startup).
type RuleSyntaxError struct {
	Source string
	Err    error
}

func (e *RuleSyntaxError) Error() string {
	return fmt.Sprintf("rule syntax error in %s: %v", e.Source, e.Err)
}

func (e *RuleSyntaxError) Unwrap() error { return e.Err }

// RuleIOError wraps a failure to load a rule file or its includes (C2,
// fatal at startup).
type RuleIOError struct {
	Path string
	Err  error
}

func (e *RuleIOError) Error() string {
	return fmt.Sprintf("rule io error reading %s: %v", e.Path, e.Err)
}

func (e *RuleIOError) Unwrap() error { return e.Err }

// DispatchConfigError reports a malformed dispatch/disposition action table
// entry: a rule or module reference the config doesn't resolve (C3, fatal
// at startup) or bad per-call options (C3, recoverable at scan time — see
// spec.md's two DispatchConfigError rows).
type DispatchConfigError struct {
	Rule   string
	Module string
	Reason string
}

func (e *DispatchConfigError) Error() string {
	return fmt.Sprintf("dispatch config error: rule=%q module=%q: %s", e.Rule, e.Module, e.Reason)
}

// ModuleTimeout reports that a module exceeded its execution budget (C4).
type ModuleTimeout struct {
	Module string
	Object string
}

func (e *ModuleTimeout) Error() string {
	return fmt.Sprintf("module %s timed out on object %s", e.Module, e.Object)
}

// ModuleError wraps an uncaught module-level failure (C4).
type ModuleError struct {
	Module string
	Object string
	Err    error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s failed on object %s: %v", e.Module, e.Object, e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }

// ResourceCap names the specific cap that was exceeded (C4/C6).
type ResourceCap string

const (
	CapDepth   ResourceCap = "max_depth"
	CapObjects ResourceCap = "max_objects"
	CapBytes   ResourceCap = "max_bytes"
	CapTime    ResourceCap = "scan_time"
)

// ResourceExceeded reports that a scan-level or module-level resource cap
// was hit (C4/C6).
type ResourceExceeded struct {
	Cap   ResourceCap
	Limit int64
	Got   int64
}

func (e *ResourceExceeded) Error() string {
	return fmt.Sprintf("resource cap %s exceeded: limit=%d got=%d", e.Cap, e.Limit, e.Got)
}

// DispositionerError wraps a failure inside the dispositioner's predicate
// evaluation (C5); recovery falls back to config.DefaultDisposition.
type DispositionerError struct {
	Err error
}

func (e *DispositionerError) Error() string {
	return fmt.Sprintf("dispositioner error: %v", e.Err)
}

func (e *DispositionerError) Unwrap() error { return e.Err }

// FrameworkError wraps a fatal internal fault in the driver itself (C6),
// as distinct from any module-level fault (§7's final row).
type FrameworkError struct {
	Err error
}

func (e *FrameworkError) Error() string {
	return fmt.Sprintf("framework error: %v", e.Err)
}

func (e *FrameworkError) Unwrap() error { return e.Err }
