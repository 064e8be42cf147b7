package dispatch

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Nigelli/laikaboss/internal/scanerr"
)

// LoadActionTable parses the dispatch action-table file format spec.md
// §6.2 describes (disposition tables are read by disposition.LoadTable):
//
//	rule_name : module,module(opt=val),module ; flag1,flag2 ; content_type1 ; priority
//
// One rule per non-blank, non-comment line, in file order — which is the
// "config-declared order" spec.md §4.3 step 3 requires dispatch to honor.
// No general-purpose parsing library in the retrieved pack models this
// bespoke, semicolon/colon-delimited grammar (viper and mapstructure both
// assume a structured format like JSON/YAML/ini; gojsonschema validates
// JSON documents), so this one parser is hand-written against the
// standard library — see DESIGN.md.
func LoadActionTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &scanerr.RuleIOError{Path: path, Err: err}
	}
	defer f.Close()

	var table Table
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := ParseActionLine(line)
		if err != nil {
			return nil, &scanerr.RuleIOError{Path: fmt.Sprintf("%s:%d", path, lineNo), Err: err}
		}
		table = append(table, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, &scanerr.RuleIOError{Path: path, Err: err}
	}
	return table, nil
}

// ParseActionLine parses one canonical action-table entry.
func ParseActionLine(line string) (Rule, error) {
	sections := splitTopLevel(line, ';')
	if len(sections) == 0 || strings.TrimSpace(sections[0]) == "" {
		return Rule{}, fmt.Errorf("dispatch: empty action line")
	}

	head := sections[0]
	colonIdx := strings.Index(head, ":")
	if colonIdx < 0 {
		return Rule{}, fmt.Errorf("dispatch: missing ':' separating rule name from module list in %q", head)
	}

	ruleName := strings.TrimSpace(head[:colonIdx])
	if ruleName == "" {
		return Rule{}, fmt.Errorf("dispatch: empty rule name in %q", head)
	}

	modules, err := parseModuleList(head[colonIdx+1:])
	if err != nil {
		return Rule{}, fmt.Errorf("dispatch: rule %s: %w", ruleName, err)
	}

	action := Action{Modules: modules}

	if len(sections) > 1 {
		action.Flags = splitCSV(sections[1])
	}
	if len(sections) > 2 {
		action.ContentType = splitCSV(sections[2])
	}
	if len(sections) > 3 {
		p := strings.TrimSpace(sections[3])
		if p != "" {
			priority, err := strconv.Atoi(p)
			if err != nil {
				return Rule{}, fmt.Errorf("dispatch: rule %s: invalid priority %q: %w", ruleName, p, err)
			}
			action.Priority = priority
		}
	}

	return Rule{Expr: ruleName, Action: action}, nil
}

func parseModuleList(s string) ([]ModuleRef, error) {
	entries := splitTopLevel(s, ',')
	refs := make([]ModuleRef, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}

		name := e
		var opts map[string]string
		if open := strings.Index(e, "("); open >= 0 {
			if !strings.HasSuffix(e, ")") {
				return nil, fmt.Errorf("unterminated option list in %q", e)
			}
			name = strings.TrimSpace(e[:open])
			inner := e[open+1 : len(e)-1]
			opts = make(map[string]string)
			for _, pair := range strings.Split(inner, ",") {
				pair = strings.TrimSpace(pair)
				if pair == "" {
					continue
				}
				kv := strings.SplitN(pair, "=", 2)
				if len(kv) != 2 {
					return nil, fmt.Errorf("malformed option %q in %q", pair, e)
				}
				opts[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
			}
		}
		if name == "" {
			return nil, fmt.Errorf("empty module name in %q", e)
		}
		refs = append(refs, ModuleRef{Name: name, Options: opts})
	}
	return refs, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitTopLevel splits s on sep, but ignores occurrences of sep inside
// parentheses, so "a(x=1,y=2),b" splits on ',' into ["a(x=1,y=2)", "b"]
// rather than cutting inside the option list.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if s[i] == sep && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
