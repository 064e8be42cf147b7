package disposition

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nigelli/laikaboss/internal/scanobject"
)

func rootWithFlags(flags ...string) *scanobject.Object {
	ev := scanobject.ExternalVars{Filename: "root.bin"}
	o := scanobject.NewRoot([]byte("data"), ev, scanobject.HashSHA256)
	o.AddFlags(flags...)
	return o
}

func childOf(parent *scanobject.Object, flags ...string) *scanobject.Object {
	c := scanobject.NewChild([]byte("child"), parent, "exploder", "child.bin", scanobject.HashSHA256)
	c.AddFlags(flags...)
	return c
}

// TestApplyPicksFirstMatchingRule covers spec.md boundary scenario S6: a
// MALICIOUS flag on a depth-2 descendant must still drive the root's
// disposition, because the dispositioner observes the whole tree.
func TestApplyPicksFirstMatchingRule(t *testing.T) {
	table, err := ParseTable(strings.NewReader(`
FLAG(MALICIOUS) ; Reject ; malicious content detected
FLAG(SUSPICIOUS) ; Quarantine ; suspicious content detected
`))
	require.NoError(t, err)

	d := New(table, nil, "Accept")

	root := rootWithFlags()
	child := childOf(root)
	grandchild := childOf(child, "MALICIOUS")

	tree := []*scanobject.Object{root, child, grandchild}
	err = d.Apply(context.Background(), root, tree)
	require.NoError(t, err)

	assert.True(t, root.Flags.Contains("DISPOSITION:Reject"))
	disp, ok := root.Metadata["DISPOSITIONER"]["Disposition"]
	require.True(t, ok)
	m := disp.ToJSON().(map[string]interface{})
	assert.Equal(t, "Reject", m["Result"])
}

// TestApplyFallsBackToDefaultDisposition covers the no-match path (and
// spec.md boundary scenario S1's "disposition = default_disposition").
func TestApplyFallsBackToDefaultDisposition(t *testing.T) {
	table, err := ParseTable(strings.NewReader(`FLAG(MALICIOUS) ; Reject ; malicious`))
	require.NoError(t, err)
	d := New(table, nil, "Accept")

	root := rootWithFlags()
	err = d.Apply(context.Background(), root, []*scanobject.Object{root})
	require.NoError(t, err)

	assert.True(t, root.Flags.Contains("DISPOSITION:Accept"))
}

// TestApplyIsIdempotent covers P5: running the dispositioner twice on the
// same final tree must yield an identical verdict.
func TestApplyIsIdempotent(t *testing.T) {
	table, err := ParseTable(strings.NewReader(`FLAG(MALICIOUS) ; Reject ; malicious`))
	require.NoError(t, err)
	d := New(table, nil, "Accept")

	root := rootWithFlags("MALICIOUS")
	tree := []*scanobject.Object{root}

	require.NoError(t, d.Apply(context.Background(), root, tree))
	first := root.Metadata["DISPOSITIONER"]["Disposition"]

	require.NoError(t, d.Apply(context.Background(), root, tree))
	second := root.Metadata["DISPOSITIONER"]["Disposition"]

	assert.Equal(t, first.ToJSON(), second.ToJSON())
}

// TestAndOrNotComposition exercises the boolean connectives together.
func TestAndOrNotComposition(t *testing.T) {
	table, err := ParseTable(strings.NewReader(`
AND(FLAG(A), NOT(FLAG(B))) ; Quarantine ; partial match
OR(FLAG(C), FLAG(D)) ; Reject ; either
`))
	require.NoError(t, err)
	d := New(table, nil, "Accept")

	root := rootWithFlags("A")
	v, err := d.Decide(context.Background(), []*scanobject.Object{root})
	require.NoError(t, err)
	assert.Equal(t, "Quarantine", v.Disposition)

	root2 := rootWithFlags("A", "B")
	v2, err := d.Decide(context.Background(), []*scanobject.Object{root2})
	require.NoError(t, err)
	assert.Equal(t, "Accept", v2.Disposition)

	root3 := rootWithFlags("D")
	v3, err := d.Decide(context.Background(), []*scanobject.Object{root3})
	require.NoError(t, err)
	assert.Equal(t, "Reject", v3.Disposition)
}

// TestPriorityExceeds exercises the OPA-backed comparator.
func TestPriorityExceeds(t *testing.T) {
	table, err := ParseTable(strings.NewReader(`PRIORITY_EXCEEDS(5) ; Reject ; cumulative severity too high`))
	require.NoError(t, err)
	weights := map[string]int{"A": 3, "B": 4}
	d := New(table, weights, "Accept")

	low := rootWithFlags("A")
	v, err := d.Decide(context.Background(), []*scanobject.Object{low})
	require.NoError(t, err)
	assert.Equal(t, "Accept", v.Disposition)

	high := rootWithFlags("A", "B")
	v2, err := d.Decide(context.Background(), []*scanobject.Object{high})
	require.NoError(t, err)
	assert.Equal(t, "Reject", v2.Disposition)
}

func TestParseRuleLineRejectsMalformedInput(t *testing.T) {
	_, err := ParseRuleLine("FLAG(X) ; Reject")
	assert.Error(t, err)

	_, err = ParseRuleLine("BOGUS(X) ; Reject ; reason")
	assert.Error(t, err)
}
