package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfgraph/engine/types"
)

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(&ShellExecutor{}, &TemplateExecutor{}, &JSExecutor{})

	shell, err := reg.Lookup(types.ScriptShell)
	require.NoError(t, err)
	assert.IsType(t, &ShellExecutor{}, shell)

	_, err = reg.Lookup(types.ScriptKind("unknown"))
	assert.ErrorIs(t, err, types.ErrUnsupportedScript)
}
