package runtime

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nigelli/laikaboss/internal/scanerr"
	"github.com/Nigelli/laikaboss/internal/scanobject"
)

func newTestObject() *scanobject.Object {
	ev := scanobject.ExternalVars{Filename: "sample.bin"}
	return scanobject.NewRoot([]byte("hello world"), ev, scanobject.HashSHA256)
}

func newTestRunner(limits Limits) *Runner {
	registry := NewRegistry()
	budget := NewBudget(limits, time.Now())
	return NewRunner(registry, budget, scanobject.HashSHA256)
}

func defaultLimits() Limits {
	return Limits{
		MaxDepth:           10,
		MaxObjects:         100,
		MaxBytes:           1 << 20,
		ScanTime:           time.Minute,
		ModuleTime:         time.Second,
		MaxChildSize:       1 << 20,
		MaxChildrenPerCall: 10,
	}
}

// TestExecuteCommitsChildrenFlagsAndMetadata covers the successful path:
// a module emits one child, one flag, and one metadata field, all of which
// must land on the parent object after Execute returns.
func TestExecuteCommitsChildrenFlagsAndMetadata(t *testing.T) {
	r := newTestRunner(defaultLimits())
	r.Registry.Register(Func{
		FuncName: "sample",
		RunFunc: func(ctx context.Context, o *scanobject.Object, sctx ScanContext, depth int, options map[string]string) (Output, error) {
			return Output{
				Children: []ChildSpec{{Buffer: []byte("child"), Filename: "child.bin"}},
				Flags:    []string{"SAMPLE:MATCHED"},
				Metadata: []MetadataEntry{{Field: "score", Value: scanobject.NewInt(42)}},
			}, nil
		},
	})

	o := newTestObject()
	result := r.Execute(context.Background(), o, ScanContext{RootUUID: o.RootUUID}, 0, "sample", nil, nil, nil, time.Second)

	require.False(t, result.Aborted)
	require.Len(t, result.Children, 1)
	assert.Equal(t, "child.bin", result.Children[0].Filename)
	assert.Equal(t, o.UUID, result.Children[0].ParentUUID)

	assert.True(t, o.Flags.Contains("SAMPLE:MATCHED"))
	assert.True(t, o.HasRun("sample"))
	assert.Equal(t, scanobject.NewInt(42), o.Metadata["sample"]["score"])
}

// TestExecuteTimesOutAndFlagsModule covers spec.md boundary scenario S4: a
// module that sleeps past its allotted module_time must be abandoned, the
// object flagged MODULE:TIMEOUT, and the module recorded as having run even
// though its result is never read.
func TestExecuteTimesOutAndFlagsModule(t *testing.T) {
	r := newTestRunner(defaultLimits())
	started := make(chan struct{})
	r.Registry.Register(Func{
		FuncName: "slow",
		RunFunc: func(ctx context.Context, o *scanobject.Object, sctx ScanContext, depth int, options map[string]string) (Output, error) {
			close(started)
			select {
			case <-time.After(10 * time.Second):
			case <-ctx.Done():
			}
			return Output{}, nil
		},
	})

	o := newTestObject()
	start := time.Now()
	result := r.Execute(context.Background(), o, ScanContext{RootUUID: o.RootUUID}, 0, "slow", nil, nil, nil, 20*time.Millisecond)
	elapsed := time.Since(start)

	<-started
	assert.Less(t, elapsed, 5*time.Second, "Execute must return at the timeout, not wait for the module")
	assert.Empty(t, result.Children)
	assert.True(t, o.Flags.Contains(scanerr.FlagModuleTimeout("slow")))
	assert.True(t, o.HasRun("slow"))
}

// TestExecuteTrapsModuleError covers spec.md boundary scenario S5: an error
// returned by a module must not escape Execute; it is recorded as a
// MODULE:ERROR flag plus a SCAN_FAILURES metadata entry, and the scan
// continues.
func TestExecuteTrapsModuleError(t *testing.T) {
	r := newTestRunner(defaultLimits())
	r.Registry.Register(Func{
		FuncName: "broken",
		RunFunc: func(ctx context.Context, o *scanobject.Object, sctx ScanContext, depth int, options map[string]string) (Output, error) {
			return Output{}, fmt.Errorf("boom")
		},
	})

	o := newTestObject()
	result := r.Execute(context.Background(), o, ScanContext{RootUUID: o.RootUUID}, 0, "broken", nil, nil, nil, time.Second)

	assert.Empty(t, result.Children)
	assert.True(t, o.Flags.Contains(scanerr.FlagModuleError("broken")))
	assert.True(t, o.HasRun("broken"))

	failures, ok := o.Metadata[scanerr.MetaScanFailures]["entries"]
	require.True(t, ok)
	require.Equal(t, scanobject.KindList, failures.Kind())
}

// TestExecuteTrapsModulePanic covers the defensive recover() in Execute's
// goroutine: a module that panics is treated the same as one returning an
// error, never crashing the scan.
func TestExecuteTrapsModulePanic(t *testing.T) {
	r := newTestRunner(defaultLimits())
	r.Registry.Register(Func{
		FuncName: "panicky",
		RunFunc: func(ctx context.Context, o *scanobject.Object, sctx ScanContext, depth int, options map[string]string) (Output, error) {
			panic("unexpected")
		},
	})

	o := newTestObject()
	result := r.Execute(context.Background(), o, ScanContext{RootUUID: o.RootUUID}, 0, "panicky", nil, nil, nil, time.Second)

	assert.Empty(t, result.Children)
	assert.True(t, o.Flags.Contains(scanerr.FlagModuleError("panicky")))
}

// TestAdmitChildrenEnforcesMaxDepth covers spec.md boundary scenario S3
// (EXPLODE_LOOP with max_depth=3): a child that would exceed MaxDepth is
// dropped and SCAN:MAX_DEPTH is flagged on the parent.
func TestAdmitChildrenEnforcesMaxDepth(t *testing.T) {
	limits := defaultLimits()
	limits.MaxDepth = 1
	r := newTestRunner(limits)

	parent := newTestObject()
	parent.Depth = 1 // already at the cap; any child would be depth 2

	children := r.admitChildren(parent, "exploder", []ChildSpec{{Buffer: []byte("x"), Filename: "x.bin"}}, parent.Depth)

	assert.Empty(t, children)
	assert.True(t, parent.Flags.Contains(scanerr.FlagScanMaxDepth))
}

// TestAdmitChildrenEnforcesMaxChildrenPerCall covers spec.md §4.4 step 4:
// children beyond MaxChildrenPerCall are silently dropped and the object is
// flagged MODULE:CHILD_LIMIT:<module>.
func TestAdmitChildrenEnforcesMaxChildrenPerCall(t *testing.T) {
	limits := defaultLimits()
	limits.MaxChildrenPerCall = 1
	r := newTestRunner(limits)

	parent := newTestObject()
	specs := []ChildSpec{
		{Buffer: []byte("a"), Filename: "a.bin"},
		{Buffer: []byte("b"), Filename: "b.bin"},
	}

	children := r.admitChildren(parent, "multiplier", specs, parent.Depth)

	assert.Len(t, children, 1)
	assert.True(t, parent.Flags.Contains(scanerr.FlagModuleChildLimit("multiplier")))
}

// TestAdmitChildrenEnforcesResourceCaps covers the Budget.AdmitObject
// integration: once MaxObjects is exhausted, further children are dropped
// and the parent is flagged SCAN:MAX_OBJECTS.
func TestAdmitChildrenEnforcesResourceCaps(t *testing.T) {
	limits := defaultLimits()
	limits.MaxObjects = 0
	r := newTestRunner(limits)

	parent := newTestObject()
	children := r.admitChildren(parent, "exploder", []ChildSpec{{Buffer: []byte("x"), Filename: "x.bin"}}, parent.Depth)

	assert.Empty(t, children)
	assert.True(t, parent.Flags.Contains(scanerr.FlagScanCap(scanerr.CapObjects)))
}

// TestExecuteAbortsWhenScanTimeExceeded covers the global scan_time cap
// check at the top of Execute: once exceeded, no module runs at all.
func TestExecuteAbortsWhenScanTimeExceeded(t *testing.T) {
	limits := defaultLimits()
	limits.ScanTime = 0
	registry := NewRegistry()
	ran := false
	registry.Register(Func{
		FuncName: "never",
		RunFunc: func(ctx context.Context, o *scanobject.Object, sctx ScanContext, depth int, options map[string]string) (Output, error) {
			ran = true
			return Output{}, nil
		},
	})
	budget := NewBudget(limits, time.Now().Add(-time.Second))
	r := NewRunner(registry, budget, scanobject.HashSHA256)

	o := newTestObject()
	result := r.Execute(context.Background(), o, ScanContext{RootUUID: o.RootUUID}, 0, "never", nil, nil, nil, time.Second)

	assert.True(t, result.Aborted)
	assert.False(t, ran)
	assert.True(t, o.Flags.Contains(scanerr.FlagScanAborted))
}

// TestMergeOptionsPrecedence covers spec.md §4.4 step 3's override chain:
// per-scan beats dispatch-action beats module default.
func TestMergeOptionsPrecedence(t *testing.T) {
	merged := mergeOptions(
		map[string]string{"a": "default", "b": "default"},
		map[string]string{"b": "dispatch", "c": "dispatch"},
		map[string]string{"c": "scan"},
	)
	assert.Equal(t, "default", merged["a"])
	assert.Equal(t, "dispatch", merged["b"])
	assert.Equal(t, "scan", merged["c"])
}
