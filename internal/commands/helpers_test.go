package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/movegen/internal/codegen"
	"github.com/okra-platform/movegen/internal/output"
)

const pairDescription = `
address: "0x2"
modules:
  - name: m
    types:
      - name: Pair
        type_params: [T0, T1]
        fields:
          - { name: a, type: T0 }
          - { name: b, type: T1 }
`

const projectConfig = `
targets:
  - name: web
    output: gen
    packages:
      - { address: "0x2", input: move/app.yaml }
`

// testProject writes a config and a description into a temp dir and returns
// dependencies that load it.
func testProject(t *testing.T, description string) (Dependencies, *mockOutput, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "move"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "move", "app.yaml"), []byte(description), 0644))
	configPath := filepath.Join(root, "movegen.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(projectConfig), 0644))

	out := &mockOutput{}
	deps := Dependencies{
		ConfigLoader: &defaultConfigLoader{path: configPath},
		Registry:     codegen.DefaultRegistry,
		FileSystem:   output.OS{},
		Output:       out,
		Logger:       zerolog.Nop(),
	}
	return deps, out, root
}
