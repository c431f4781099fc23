package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCommand_Execute(t *testing.T) {
	deps, out, root := testProject(t, pairDescription)
	ctx := context.Background()

	// nothing generated yet
	err := NewCheckCommand(deps).Execute(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 generated files are out of date")
	assert.Contains(t, out.String(), "missing "+filepath.Join(root, "gen", "0x2", "m.ts"))

	require.NoError(t, NewGenerateCommand(deps).Execute(ctx))
	out.lines = nil
	require.NoError(t, NewCheckCommand(deps).Execute(ctx))
	assert.Contains(t, out.String(), "up to date")

	// hand edits are reported
	path := filepath.Join(root, "gen", "0x2", "m.ts")
	require.NoError(t, os.WriteFile(path, []byte("// edited\n"), 0644))
	out.lines = nil
	err = NewCheckCommand(deps).Execute(ctx)
	require.Error(t, err)
	assert.Contains(t, out.String(), "changed "+path)
}
