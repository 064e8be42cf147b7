package scanobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildResultMinimalOnlyRoot(t *testing.T) {
	root := NewRoot([]byte("x"), ExternalVars{}, HashMD5)
	child := NewChild([]byte("y"), root, "m", "", HashMD5)
	tree := map[string]*Object{root.UUID: root, child.UUID: child}

	res := BuildResult("test", time.Now(), root.UUID, tree, Minimal)
	assert.Len(t, res.Files, 1)
	_, ok := res.Files[root.UUID]
	assert.True(t, ok)
	assert.Nil(t, res.Files[root.UUID].Metadata)
}

func TestBuildResultEverythingIncludesBuffer(t *testing.T) {
	root := NewRoot([]byte("secret"), ExternalVars{}, HashMD5)
	root.BeginModule("m")
	_ = root.AddMetadata("m", "k", NewInt(42))
	root.EndModule()

	tree := map[string]*Object{root.UUID: root}
	res := BuildResult("test", time.Now(), root.UUID, tree, Everything)
	entry := res.Files[root.UUID]
	assert.NotEmpty(t, entry.Buffer)
	assert.Equal(t, int64(42), entry.Metadata["m"].(map[string]interface{})["k"])
}

func TestBuildResultNoBufferOmitsBuffer(t *testing.T) {
	root := NewRoot([]byte("secret"), ExternalVars{}, HashMD5)
	tree := map[string]*Object{root.UUID: root}
	res := BuildResult("test", time.Now(), root.UUID, tree, NoBuffer)
	assert.Empty(t, res.Files[root.UUID].Buffer)
	assert.NotNil(t, res.Files[root.UUID].Metadata)
}
