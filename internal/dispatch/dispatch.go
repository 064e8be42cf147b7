package dispatch

import (
	"github.com/rs/zerolog/log"

	"github.com/Nigelli/laikaboss/internal/ruleengine"
	"github.com/Nigelli/laikaboss/internal/scanerr"
	"github.com/Nigelli/laikaboss/internal/scanobject"
)

// Dispatcher holds the compiled dispatch-rule set and the module/dispatch
// tables it was configured with (spec.md §4.3). Both tables and the
// compiled rules are read-only over the lifetime of a scan and may be
// shared across scans (spec.md §5), matching the module-table/reload
// split seen in other_examples' MemoryRuleStore.
type Dispatcher struct {
	Rules   *ruleengine.CompiledRules
	Table   Table
	Modules ModuleTable
}

// New builds a Dispatcher from its configured inputs. Neither New nor the
// config package checks that the modules Table references exist in
// Modules; Dispatch flags and skips a missing one per object
// (DISPATCH:MISSING_MODULE:<name>).
func New(rules *ruleengine.CompiledRules, table Table, modules ModuleTable) *Dispatcher {
	return &Dispatcher{Rules: rules, Table: table, Modules: modules}
}

// Dispatch runs the spec.md §4.3 algorithm against one object and returns
// the ordered, deduplicated module list to execute.
func (d *Dispatcher) Dispatch(o *scanobject.Object, ev scanobject.ExternalVars) ([]ResolvedModule, error) {
	inputs := ruleengine.FromExternalVars(ev, o.Filename)

	matched, err := ruleengine.Match(d.Rules, o.Buffer(), inputs)
	if err != nil {
		return nil, err
	}

	commitMatchMetadata(o, matched)

	matchedNames := make(map[string]struct{}, len(matched))
	for _, m := range matched {
		matchedNames[m.RuleName] = struct{}{}
	}

	effectiveNames := matched.Names()
	if len(effectiveNames) == 0 {
		effectiveNames = []string{defaultRuleExpr}
		matchedNames[defaultRuleExpr] = struct{}{}
	}

	// Step 3: walk the config-declared order, not the match order, and
	// concatenate actions for every rule that matched.
	type pendingModule struct {
		ref   ModuleRef
		ruleIdx int
	}
	var orderedModules []pendingModule
	var flags []string
	var contentType []string

	for ruleIdx, rule := range d.Table {
		if _, ok := matchedNames[rule.Expr]; !ok {
			continue
		}
		for _, m := range rule.Action.Modules {
			orderedModules = append(orderedModules, pendingModule{ref: m, ruleIdx: ruleIdx})
		}
		flags = append(flags, rule.Action.Flags...)
		contentType = append(contentType, rule.Action.ContentType...)
	}

	// Step 4: dedupe preserving first occurrence; flag disagreeing
	// duplicates (spec.md §4.3(a)).
	seen := make(map[string]ModuleRef, len(orderedModules))
	order := make([]string, 0, len(orderedModules))
	duplicateFlagged := false
	for _, pm := range orderedModules {
		first, ok := seen[pm.ref.Name]
		if !ok {
			seen[pm.ref.Name] = pm.ref
			order = append(order, pm.ref.Name)
			continue
		}
		if !optionsEqual(first.Options, pm.ref.Options) && !duplicateFlagged {
			o.AddFlag(scanerr.FlagDispatchDuplicateModule)
			duplicateFlagged = true
		}
	}

	// Strip modules that already ran on this object, unless rescan is
	// permitted (I4).
	resolved := make([]ResolvedModule, 0, len(order))
	for _, name := range order {
		if o.HasRun(name) && !ev.AllowsRescan(name) {
			continue
		}

		spec, ok := d.Modules[name]
		if !ok {
			o.AddFlag(scanerr.FlagDispatchMissingModule(name))
			log.Warn().Str("module", name).Str("object", o.UUID).Msg("dispatch: module absent from module table")
			continue
		}
		if !spec.Enabled {
			continue
		}

		resolved = append(resolved, ResolvedModule{Name: name, Options: seen[name].Options})
	}

	// Step 5: record object_type and append flags/content_type.
	for _, name := range effectiveNames {
		o.ObjectType.Add(name)
	}
	o.AddFlags(flags...)
	for _, ct := range contentType {
		o.ContentType.Add(ct)
	}

	return resolved, nil
}

// commitMatchMetadata records each matched rule's meta fields into the
// object's DISPATCH namespace (spec.md §4.2's MatchSet carries "meta: map",
// which otherwise never reaches the object). Values come from the
// underlying YARA binding as untyped interface{}, so they are routed
// through scanobject.FromAny; any field that isn't one of Value's closed
// kinds is coerced to its string form and flagged per spec.md §6.3.
func commitMatchMetadata(o *scanobject.Object, matched ruleengine.MatchSet) {
	if len(matched) == 0 {
		return
	}

	o.BeginModule(scanerr.MetaDispatch)
	defer o.EndModule()

	for _, m := range matched {
		if len(m.Meta) == 0 {
			continue
		}
		fields := make(map[string]scanobject.Value, len(m.Meta))
		coercedAny := false
		for field, raw := range m.Meta {
			val, coerced := scanobject.FromAny(raw)
			fields[field] = val
			coercedAny = coercedAny || coerced
		}
		_ = o.AddMetadata(scanerr.MetaDispatch, m.RuleName, scanobject.NewMap(fields))
		if coercedAny {
			o.AddFlag(scanerr.FlagMetadataCoerced(m.RuleName))
		}
	}
}

func optionsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
