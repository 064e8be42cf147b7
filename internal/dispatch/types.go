// Package dispatch implements C3: given an object and the configured
// dispatch table, decide the ordered module list to run and the object's
// type (spec.md §4.3).
package dispatch

// ModuleSpec is a module table entry: the static per-module defaults
// spec.md §4.3.1 describes ("priority, enabled, default options"). The
// implementation itself is looked up separately, in runtime.Registry —
// the dispatcher only needs to know a module exists and what its defaults
// are, per the registry re-architecture hint in spec.md §9.
type ModuleSpec struct {
	Priority       int
	Enabled        bool
	DefaultOptions map[string]string
}

// ModuleTable maps module name to its static spec.
type ModuleTable map[string]ModuleSpec

// ModuleRef is one module reference inside a dispatch action, optionally
// carrying option overrides (spec.md §4.3: "module_name optionally
// followed by (option=value, …)").
type ModuleRef struct {
	Name    string
	Options map[string]string
}

// Action is what a single matched dispatch rule contributes (spec.md
// §4.3.2).
type Action struct {
	Modules     []ModuleRef
	Flags       []string
	ContentType []string
	Priority    int
}

// Rule pairs a rule expression — the literal "default" or a YARA rule
// name — with the action it triggers.
type Rule struct {
	Expr   string
	Action Action
}

// Table is the ordered dispatch-rule list, in config-declared order. Per
// spec.md §4.3 step 3 and SPEC_FULL.md's Open Question #1 resolution, this
// declared order — not the matcher's emit order — governs concatenation of
// modules, flags, and content_type.
type Table []Rule

const defaultRuleExpr = "default"

// ResolvedModule is one entry of the ordered module list dispatch()
// returns: a module name plus its merged option overrides (module
// defaults are merged in later, by the runtime, per spec.md §4.4 step 3's
// "module defaults < dispatch-action override < per-scan override").
type ResolvedModule struct {
	Name    string
	Options map[string]string
}
