package disposition

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Rule is one ordered entry of the disposition table (spec.md §4.5): "an
// ordered list of (predicate, disposition, reason)". The first rule whose
// Predicate matches the tree's flag union wins.
type Rule struct {
	Predicate Predicate
	Disposition string
	Reason      string
}

// Table is the disposition rule table in config-declared order.
type Table []Rule

// LoadTable reads a disposition rule file: one rule per non-blank,
// non-comment line, in the same "semicolon-separated field" texture as
// the dispatch action table (spec.md §6.2's "same YARA-style source;
// actions are disposition,reason" — here rendered as a flat text file
// since the predicate itself already needs its own grammar).
//
//	<predicate> ; <disposition> ; <reason>
func LoadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("disposition: opening rule table %s: %w", path, err)
	}
	defer f.Close()
	return ParseTable(f)
}

// ParseTable parses a disposition rule table from an already-open reader.
func ParseTable(r io.Reader) (Table, error) {
	var table Table
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := ParseRuleLine(line)
		if err != nil {
			return nil, fmt.Errorf("disposition: line %d: %w", lineNo, err)
		}
		table = append(table, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("disposition: reading rule table: %w", err)
	}
	return table, nil
}

// ParseRuleLine parses one "<predicate> ; <disposition> ; <reason>" line.
func ParseRuleLine(line string) (Rule, error) {
	fields := strings.SplitN(line, ";", 3)
	if len(fields) != 3 {
		return Rule{}, fmt.Errorf("expected 3 semicolon-separated fields, got %d: %q", len(fields), line)
	}
	predicateText := strings.TrimSpace(fields[0])
	disposition := strings.TrimSpace(fields[1])
	reason := strings.TrimSpace(fields[2])

	if disposition == "" {
		return Rule{}, fmt.Errorf("empty disposition in rule %q", line)
	}

	pred, err := ParsePredicate(predicateText)
	if err != nil {
		return Rule{}, fmt.Errorf("parsing predicate %q: %w", predicateText, err)
	}

	return Rule{Predicate: pred, Disposition: disposition, Reason: reason}, nil
}
