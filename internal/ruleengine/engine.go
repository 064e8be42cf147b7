// Package ruleengine implements C2: a deterministic wrapper around a
// YARA-compatible matcher, grounded on the hillu/go-yara binding as used by
// the SWARM signature-engine's YaraEngine (compiler-per-namespace,
// RWMutex-guarded swap-on-reload, callback-collected matches).
package ruleengine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	goyara "github.com/hillu/go-yara/v4"
	"github.com/rs/zerolog/log"

	"github.com/Nigelli/laikaboss/internal/scanerr"
)

// StringMatch is one matched string occurrence within a rule (spec.md
// §4.2: "strings: [(identifier, offset, matched_bytes)]").
type StringMatch struct {
	Identifier string
	Offset     uint64
	Matched    []byte
}

// RuleMatch is one matched rule (spec.md §4.2: "(rule_name, meta, strings)").
type RuleMatch struct {
	RuleName string
	Meta     map[string]interface{}
	Tags     []string
	Strings  []StringMatch
}

// MatchSet is the ordered collection of rules that matched a buffer, in
// the matcher's own emit order.
type MatchSet []RuleMatch

// Names returns the matched rule names, in match order.
func (ms MatchSet) Names() []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.RuleName
	}
	return out
}

// CompiledRules holds a compiled YARA ruleset. It is safe to share across
// concurrent scans (spec.md §5: "CompiledRules... MAY be shared across
// scans") and safe to Reload in place; Reload waits for in-flight Match
// calls to finish before it swaps in and destroys the old rules.
type CompiledRules struct {
	mu    sync.RWMutex
	rules *goyara.Rules
	path  string
}

// declareExternals pre-declares every external variable spec.md §4.2 lists
// (filename, contentType, source, extSourceTags, ephID, submitID) with a
// zero-value string placeholder, so dispatch rules MAY reference them in a
// condition (compiling otherwise fails with "undefined identifier") and
// Match's later DefineVariable override at scan time is accepted by libyara
// instead of rejected with ERROR_INVALID_ARGUMENT for a never-declared name.
func declareExternals(compiler *goyara.Compiler) error {
	zero := RuleInputs{}
	for name := range zero.AsExternals() {
		if err := compiler.DefineVariable(name, ""); err != nil {
			return err
		}
	}
	return nil
}

// Compile builds a CompiledRules from inline YARA source text (spec.md
// §4.2 "compile(rules_source) → CompiledRules").
func Compile(source, namespace string) (*CompiledRules, error) {
	compiler, err := goyara.NewCompiler()
	if err != nil {
		return nil, &scanerr.RuleIOError{Path: "<compiler-init>", Err: err}
	}
	if err := declareExternals(compiler); err != nil {
		return nil, &scanerr.RuleIOError{Path: "<compiler-init>", Err: err}
	}
	if err := compiler.AddString(source, namespace); err != nil {
		return nil, &scanerr.RuleSyntaxError{Source: namespace, Err: err}
	}
	rules, err := compiler.GetRules()
	if err != nil {
		return nil, &scanerr.RuleSyntaxError{Source: namespace, Err: err}
	}
	return &CompiledRules{rules: rules}, nil
}

// CompileFile loads rule source (and any includes YARA resolves relative
// to it) from disk (spec.md §6.2 "a YARA source file").
func CompileFile(path, namespace string) (*CompiledRules, error) {
	compiler, err := goyara.NewCompiler()
	if err != nil {
		return nil, &scanerr.RuleIOError{Path: path, Err: err}
	}
	if err := declareExternals(compiler); err != nil {
		return nil, &scanerr.RuleIOError{Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &scanerr.RuleIOError{Path: path, Err: err}
	}
	defer f.Close()

	compiler.SetIncludeCallback(func(includeName, calledFromNamespace, calledFromFile string) ([]byte, string) {
		data, err := os.ReadFile(filepath.Join(filepath.Dir(path), includeName))
		if err != nil {
			return nil, ""
		}
		return data, includeName
	})

	if err := compiler.AddFile(f, namespace); err != nil {
		return nil, &scanerr.RuleSyntaxError{Source: path, Err: err}
	}

	rules, err := compiler.GetRules()
	if err != nil {
		return nil, &scanerr.RuleSyntaxError{Source: path, Err: err}
	}

	return &CompiledRules{rules: rules, path: path}, nil
}

// Reload recompiles the ruleset from the path it was originally loaded
// from (spec.md §5: "configuration reloads MUST occur between scans, not
// during") and swaps it in atomically.
func (c *CompiledRules) Reload() error {
	if c.path == "" {
		return &scanerr.RuleIOError{Path: "<inline>", Err: fmt.Errorf("rules were compiled from inline source, not a file")}
	}

	fresh, err := CompileFile(c.path, "default")
	if err != nil {
		return err
	}

	c.mu.Lock()
	old := c.rules
	c.rules = fresh.rules
	c.mu.Unlock()

	if old != nil {
		old.Destroy()
	}
	log.Info().Str("path", c.path).Msg("ruleengine: rules reloaded")
	return nil
}

// Match runs the compiled ruleset against buf, exposing the external
// variables spec.md §4.2 requires rules be able to condition on. A 0-byte
// buffer is permitted and returns the empty MatchSet.
func Match(rules *CompiledRules, buf []byte, inputs RuleInputs) (MatchSet, error) {
	rules.mu.RLock()
	defer rules.mu.RUnlock()
	yr := rules.rules

	if yr == nil {
		return nil, fmt.Errorf("ruleengine: no rules loaded")
	}
	if len(buf) == 0 {
		return MatchSet{}, nil
	}

	// A per-call scanner carries this call's external values, so concurrent
	// Match calls on the same rules never see each other's externals.
	scanner, err := goyara.NewScanner(yr)
	if err != nil {
		return nil, fmt.Errorf("ruleengine: new scanner: %w", err)
	}
	defer scanner.Destroy()

	for name, value := range inputs.AsExternals() {
		if err := scanner.DefineVariable(name, value); err != nil {
			return nil, fmt.Errorf("ruleengine: define variable %s: %w", name, err)
		}
	}

	var collected goyara.MatchRules
	if err := scanner.SetFlags(goyara.ScanFlagsFastMode).SetCallback(&collected).ScanMem(buf); err != nil {
		return nil, fmt.Errorf("ruleengine: scan: %w", err)
	}

	out := make(MatchSet, 0, len(collected))
	for _, m := range collected {
		rm := RuleMatch{
			RuleName: m.Rule,
			Tags:     m.Tags,
			Meta:     make(map[string]interface{}, len(m.Metas)),
		}
		for _, meta := range m.Metas {
			rm.Meta[meta.Identifier] = meta.Value
		}
		for _, sm := range m.Strings {
			rm.Strings = append(rm.Strings, StringMatch{
				Identifier: sm.Name,
				Offset:     sm.Offset,
				Matched:    sm.Data,
			})
		}
		out = append(out, rm)
	}
	return out, nil
}

// Destroy releases the underlying YARA rules object.
func (c *CompiledRules) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rules != nil {
		c.rules.Destroy()
		c.rules = nil
	}
}
