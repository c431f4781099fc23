package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/movegen/internal/schema"
)

func TestLoadConfigFromPath(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		contents string
		check    func(t *testing.T, got *Config)
	}{
		{
			name: "yaml with all fields",
			file: "movegen.yaml",
			contents: `
language: ts
runtime: "@custom/bcs"
watch: ["*.yaml"]
exclude: ["tmp"]
targets:
  - name: web
    output: ./web/src/gen
    barrel: false
    packages:
      - { address: "0x2", alias: sui, external: "@mysten/sui/framework" }
      - { address: "0xabc", alias: app, input: ./move/app.yaml }
`,
			check: func(t *testing.T, got *Config) {
				assert.Equal(t, "ts", got.Language)
				assert.Equal(t, "@custom/bcs", got.Runtime)
				assert.Equal(t, []string{"*.yaml"}, got.Watch)
				require.Len(t, got.Targets, 1)
				assert.False(t, got.Targets[0].BarrelEnabled())
				assert.Equal(t, "@mysten/sui/framework", got.Targets[0].Packages[0].External)
			},
		},
		{
			name:     "json with defaults",
			file:     "movegen.json",
			contents: `{"targets":[{"packages":[{"address":"0x1","input":"a.json","format":"normalized"}]}]}`,
			check: func(t *testing.T, got *Config) {
				assert.Equal(t, DefaultLanguage, got.Language)
				assert.Equal(t, DefaultRuntime, got.Runtime)
				assert.Contains(t, got.Watch, "*.json")
				assert.Contains(t, got.Exclude, "node_modules")
				assert.Equal(t, "default", got.Targets[0].Name)
				assert.Equal(t, DefaultOutput, got.Targets[0].Output)
				assert.True(t, got.Targets[0].BarrelEnabled())
				assert.Equal(t, schema.FormatNormalized, got.Targets[0].Packages[0].Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(configPath, []byte(tt.contents), 0644))

			got, err := LoadConfigFromPath(configPath)
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestLoadConfigFromPath_Errors(t *testing.T) {
	tests := []struct {
		name        string
		contents    string
		errContains string
	}{
		{name: "invalid yaml", contents: "targets: [", errContains: "failed to parse config file"},
		{name: "no targets", contents: "language: typescript", errContains: "no targets configured"},
		{
			name:        "duplicate target",
			contents:    "targets:\n  - { name: a, packages: [{ address: '0x1', input: x }] }\n  - { name: a, packages: [{ address: '0x1', input: x }] }\n",
			errContains: `target "a" declared twice`,
		},
		{
			name:        "duplicate address",
			contents:    "targets:\n  - packages:\n      - { address: '0x1', input: x }\n      - { address: '0x01', input: y }\n",
			errContains: "package 0x1 listed twice",
		},
		{
			name:        "duplicate alias",
			contents:    "targets:\n  - packages:\n      - { address: '0x1', alias: a, input: x }\n      - { address: '0x2', alias: a, input: y }\n",
			errContains: `alias "a" used by 0x1 and 0x2`,
		},
		{
			name:        "no input",
			contents:    "targets:\n  - packages:\n      - { address: '0x1' }\n",
			errContains: "package 0x1 has no input",
		},
		{
			name:        "bad format",
			contents:    "targets:\n  - packages:\n      - { address: '0x1', input: x, format: toml }\n",
			errContains: "unknown format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "movegen.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.contents), 0644))

			_, err := LoadConfigFromPath(configPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}

	_, err := LoadConfigFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig(t *testing.T) {
	write := func(t *testing.T, dir string) {
		cfg := Config{Targets: []Target{{Name: "app", Packages: []PackageConfig{{Address: "0x1", Input: "a.yaml"}}}}}
		data, err := json.Marshal(cfg)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "movegen.json"), data, 0644))
	}

	t.Run("config in parent dir", func(t *testing.T) {
		tmpDir := t.TempDir()
		subDir := filepath.Join(tmpDir, "subdir")
		require.NoError(t, os.MkdirAll(subDir, 0755))
		write(t, tmpDir)

		t.Chdir(subDir)

		got, projectRoot, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "app", got.Targets[0].Name)
		expectedRoot, _ := filepath.EvalSymlinks(tmpDir)
		actualRoot, _ := filepath.EvalSymlinks(projectRoot)
		assert.Equal(t, expectedRoot, actualRoot)
	})

	t.Run("no config found", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, _, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no movegen config found")
	})
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movegen.yaml")
	barrel := false
	cfg := &Config{
		Language: DefaultLanguage,
		Runtime:  DefaultRuntime,
		Targets: []Target{{
			Name:     "web",
			Output:   "./gen",
			Barrel:   &barrel,
			Packages: []PackageConfig{{Address: "0x2", External: "@mysten/sui/framework"}},
		}},
	}
	require.NoError(t, cfg.Save(path))

	got, err := LoadConfigFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "web", got.Targets[0].Name)
	assert.False(t, got.Targets[0].BarrelEnabled())
}

const appDescription = `
packages:
  - address: "0xa"
    modules:
      - name: vault
        types:
          - name: Vault
            fields:
              - { name: coin, type: "0x2::coin::Coin" }
  - address: "0xb"
    modules:
      - name: unused
`

func TestConfig_LoadTargets(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "move"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "move", "app.yaml"), []byte(appDescription), 0644))

	cfg := &Config{Targets: []Target{
		{Name: "a", Packages: []PackageConfig{
			{Address: "0x2", Alias: "sui", External: "@mysten/sui/framework"},
			{Address: "0xa", Alias: "app", Input: "move/app.yaml"},
		}},
		{Name: "b", Packages: []PackageConfig{
			{Address: "0xb", Input: "move/app.yaml"},
		}},
	}}
	cfg.applyDefaults()
	require.NoError(t, cfg.Validate())

	inputs, err := cfg.LoadTargets(root, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	a := inputs[0]
	assert.Equal(t, "a", a.Name)
	assert.True(t, a.Barrel)
	x2 := schema.MustParseAddress("0x2")
	xa := schema.MustParseAddress("0xa")
	assert.Equal(t, "@mysten/sui/framework", a.External[x2])
	assert.Equal(t, "app", a.Aliases[xa])
	assert.True(t, a.Index.IsExternal(x2))
	require.Len(t, a.Generated(), 1)
	assert.Equal(t, xa, a.Generated()[0].Address)

	b := inputs[1]
	require.Len(t, b.Generated(), 1)
	assert.Equal(t, "unused", b.Generated()[0].Modules[0].Name)

	assert.Equal(t, []string{filepath.Join(root, "move", "app.yaml")}, cfg.InputFiles(root))
	assert.Equal(t, filepath.Join(root, "generated"), cfg.Targets[0].OutputDir(root))
}

func TestConfig_LoadTargets_MissingPackage(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.yaml"), []byte(appDescription), 0644))

	cfg := &Config{Targets: []Target{{Name: "a", Packages: []PackageConfig{{Address: "0xc", Input: "app.yaml"}}}}}
	_, err := cfg.LoadTargets(root, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not describe package 0xc")
}
