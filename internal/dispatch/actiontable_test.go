package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionLineFull(t *testing.T) {
	rule, err := ParseActionLine("is_zip : EXPLODE_ZIP(max_depth=5),META ; ARCHIVE,CONTAINER ; application/zip ; 10")
	require.NoError(t, err)

	assert.Equal(t, "is_zip", rule.Expr)
	require.Len(t, rule.Action.Modules, 2)
	assert.Equal(t, "EXPLODE_ZIP", rule.Action.Modules[0].Name)
	assert.Equal(t, "5", rule.Action.Modules[0].Options["max_depth"])
	assert.Equal(t, "META", rule.Action.Modules[1].Name)
	assert.Nil(t, rule.Action.Modules[1].Options)
	assert.Equal(t, []string{"ARCHIVE", "CONTAINER"}, rule.Action.Flags)
	assert.Equal(t, []string{"application/zip"}, rule.Action.ContentType)
	assert.Equal(t, 10, rule.Action.Priority)
}

func TestParseActionLineMinimal(t *testing.T) {
	rule, err := ParseActionLine("default : META")
	require.NoError(t, err)
	assert.Equal(t, "default", rule.Expr)
	assert.Equal(t, []ModuleRef{{Name: "META"}}, rule.Action.Modules)
	assert.Empty(t, rule.Action.Flags)
}

func TestParseActionLineRejectsMissingColon(t *testing.T) {
	_, err := ParseActionLine("no colon here")
	assert.Error(t, err)
}

func TestParseActionLineRejectsUnterminatedOptions(t *testing.T) {
	_, err := ParseActionLine("r : MOD(a=1")
	assert.Error(t, err)
}

func TestSplitTopLevelIgnoresParens(t *testing.T) {
	got := splitTopLevel("MOD(a=1,b=2),OTHER", ',')
	assert.Equal(t, []string{"MOD(a=1,b=2)", "OTHER"}, got)
}
