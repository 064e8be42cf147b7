package modules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nigelli/laikaboss/internal/runtime"
	"github.com/Nigelli/laikaboss/internal/scanobject"
)

func newObject(buf []byte) *scanobject.Object {
	return scanobject.NewRoot(buf, scanobject.ExternalVars{Filename: "sample"}, scanobject.HashSHA256)
}

func TestDefaultModuleIsANoOp(t *testing.T) {
	out, err := Default{}.Run(context.Background(), newObject([]byte("x")), runtime.ScanContext{}, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, out.Children)
	assert.Empty(t, out.Flags)
	assert.Empty(t, out.Metadata)
}

func TestMetadataDetectsZipMagic(t *testing.T) {
	o := newObject([]byte("PK\x03\x04rest-of-the-zip"))
	out, err := Metadata{}.Run(context.Background(), o, runtime.ScanContext{}, 0, nil)
	require.NoError(t, err)
	assert.Contains(t, out.Flags, "METADATA:FAMILY:zip")
	require.Len(t, out.Metadata, 1)
	assert.Equal(t, scanobject.NewString("zip"), out.Metadata[0].Value)
}

func TestMetadataFallsBackToUnknown(t *testing.T) {
	o := newObject([]byte("not a recognized format"))
	out, err := Metadata{}.Run(context.Background(), o, runtime.ScanContext{}, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, out.Flags)
	require.Len(t, out.Metadata, 1)
	assert.Equal(t, scanobject.NewString("unknown"), out.Metadata[0].Value)
}

func TestExplodeLoopEmitsOneIdenticalChild(t *testing.T) {
	o := newObject([]byte("loop-me"))
	out, err := ExplodeLoop{}.Run(context.Background(), o, runtime.ScanContext{}, 0, nil)
	require.NoError(t, err)
	require.Len(t, out.Children, 1)
	assert.Equal(t, o.Buffer(), out.Children[0].Buffer)
}

func TestRegisterBuiltinsAddsAllThree(t *testing.T) {
	r := runtime.NewRegistry()
	RegisterBuiltins(r)

	for _, name := range []string{"default", "metadata", "EXPLODE_LOOP"} {
		_, ok := r.Get(name)
		assert.True(t, ok, "expected module %q to be registered", name)
	}
}
