package scanobject

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// TestResultJSONRoundTrip exercises spec.md §6.3's serialization contract at
// FULL and NO_BUFFER: decode(encode(r)) must reproduce every field (P6).
// StartTime is truncated to a whole second before encoding; cmp.Diff
// compares time.Time values with their Equal method.
func TestResultJSONRoundTrip(t *testing.T) {
	for _, level := range []Verbosity{Full, NoBuffer} {
		level := level
		t.Run(string(level), func(t *testing.T) {
			root := NewRoot([]byte("round trip me"), ExternalVars{Source: "test", Filename: "f"}, HashSHA256)
			root.BeginModule("m")
			require.NoError(t, root.AddMetadata("m", "family", NewString("zip")))
			root.EndModule()
			root.AddFlag("DISPATCH:DEFAULT")

			child := NewChild([]byte("child bytes"), root, "m", "child.bin", HashSHA256)
			tree := map[string]*Object{root.UUID: root, child.UUID: child}

			want := BuildResult("test", time.Now().Truncate(time.Second), root.UUID, tree, level)

			data, err := json.Marshal(want)
			require.NoError(t, err)

			var got Result
			require.NoError(t, json.Unmarshal(data, &got))

			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestResultEverythingRoundTripPreservesBuffer covers the EVERYTHING level,
// where the base64-encoded buffer field must survive byte-for-byte.
func TestResultEverythingRoundTripPreservesBuffer(t *testing.T) {
	root := NewRoot([]byte("the quick brown fox"), ExternalVars{Source: "test"}, HashMD5)
	tree := map[string]*Object{root.UUID: root}
	want := BuildResult("test", time.Now().Truncate(time.Second), root.UUID, tree, Everything)

	data, err := json.Marshal(want)
	require.NoError(t, err)

	var got Result
	require.NoError(t, json.Unmarshal(data, &got))

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestResultYAMLRoundTrip exercises the sigs.k8s.io/yaml bridge ToYAML/
// FromYAML add on top of the canonical JSON serialization.
func TestResultYAMLRoundTrip(t *testing.T) {
	root := NewRoot([]byte("yaml me"), ExternalVars{Source: "test"}, HashMD5)
	tree := map[string]*Object{root.UUID: root}
	want := BuildResult("test", time.Now().Truncate(time.Second), root.UUID, tree, Full)

	data, err := want.ToYAML()
	require.NoError(t, err)

	got, err := FromYAML(data)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("yaml round trip mismatch (-want +got):\n%s", diff)
	}
}
