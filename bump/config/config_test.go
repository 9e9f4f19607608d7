package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tompish/nubu/bump/config"
)

const tomlConf = `
[project]
branches = ["develop", "acceptance", "main"]
source = "https://feed.example/v3/index.json"
limit = 5

[project.MysteryOfAton]
branches = ["fab", "hawt", "glory"]
remote = "upstream"
`

const yamlConf = `
project:
  branches: [develop, acceptance, main]
  provider: github
  MysteryOfAton:
    branches: [fab, hawt, glory]
    limit: 3
`

func writeConf(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestSettings_project_overrides_global(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "nubu.conf", body: tomlConf},
		{name: "nubu.yaml", body: yamlConf},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConf(t, t.TempDir(), tt.name, tt.body)

			cfg, err := config.Load(path)
			require.NoError(t, err)

			s, err := cfg.Settings("MysteryOfAton")
			require.NoError(t, err)
			assert.Equal(t, []string{"fab", "hawt", "glory"}, s.Branches)

			s, err = cfg.Settings("Other")
			require.NoError(t, err)
			assert.Equal(t, []string{"develop", "acceptance", "main"}, s.Branches)
			assert.Equal(t, config.DefaultMarker, s.Marker)
		})
	}
}

func TestSettings_key_resolution_order(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConf(t, t.TempDir(), "nubu.toml", tomlConf))
	require.NoError(t, err)

	s, err := cfg.Settings("MysteryOfAton")
	require.NoError(t, err)

	// project table
	assert.Equal(t, "upstream", s.Remote)
	// global keys
	assert.Equal(t, "https://feed.example/v3/index.json", s.Source)
	assert.Equal(t, 5, s.Limit)
	// built-in defaults
	assert.Equal(t, "none", s.Provider)
	assert.Equal(t, "bumping nugets to {{environment}}", s.Title)
}

func TestSettings_yaml_numbers(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConf(t, t.TempDir(), "nubu.yml", yamlConf))
	require.NoError(t, err)

	s, err := cfg.Settings("MysteryOfAton")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Limit)
	assert.Equal(t, "github", s.Provider)
}

func TestLoad_invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown global key",
			body:    "[project]\nbranchs = [\"a\"]\n",
			wantErr: `unknown key "branchs"`,
		},
		{
			name:    "unknown project key",
			body:    "[project.App]\nremot = \"x\"\n",
			wantErr: `project App: unknown key "remot"`,
		},
		{
			name:    "syntax",
			body:    "[project\n",
			wantErr: "parsing",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(writeConf(t, t.TempDir(), "nubu.conf", tt.body))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSettings_validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "empty chain",
			body:    "[project]\nbranches = []\n",
			wantErr: "no branches configured",
		},
		{
			name:    "duplicate branch",
			body:    "[project]\nbranches = [\"a\", \"b\", \"a\"]\n",
			wantErr: `branch "a" listed twice`,
		},
		{
			name:    "wrong type",
			body:    "[project]\nremote = 3\n",
			wantErr: "remote: expected a string",
		},
		{
			name:    "empty marker",
			body:    "[project]\nmarker = \"\"\n",
			wantErr: "marker must not be empty",
		},
		{
			name:    "blank marker",
			body:    "[project]\nmarker = \"  \"\n",
			wantErr: "marker must not be empty",
		},
		{
			name:    "zero limit",
			body:    "[project]\nlimit = 0\n",
			wantErr: "limit must be positive",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.Load(writeConf(t, t.TempDir(), "nubu.conf", tt.body))
			require.NoError(t, err)

			_, err = cfg.Settings("")
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSettings_empty_chain_is_sentinel(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(
		writeConf(t, t.TempDir(), "nubu.conf", "[project]\nbranches = []\n"),
	)
	require.NoError(t, err)

	_, err = cfg.Settings("x")
	assert.ErrorIs(t, err, config.ErrNoBranches)
}

func TestLoadOrInit_writes_default(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "xdg")

	cfg, err := config.LoadOrInit([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nubu.conf"), cfg.Path)

	s, err := cfg.Settings("anything")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), s)

	// The written file decodes to the same settings.
	reloaded, err := config.LoadOrInit([]string{dir})
	require.NoError(t, err)

	s, err = reloaded.Settings("anything")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), s)
}

func TestFind_lookup_order(t *testing.T) {
	t.Parallel()

	first := t.TempDir()
	second := t.TempDir()

	writeConf(t, second, "nubu.conf", tomlConf)
	writeConf(t, first, "nubu.yml", yamlConf)

	path, ok := config.Find([]string{first, second})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(first, "nubu.yml"), path)

	writeConf(t, first, "nubu.toml", tomlConf)

	path, ok = config.Find([]string{first, second})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(first, "nubu.toml"), path)

	_, ok = config.Find([]string{t.TempDir()})
	assert.False(t, ok)
}

func TestProjects(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConf(t, t.TempDir(), "nubu.toml", tomlConf))
	require.NoError(t, err)
	assert.Equal(t, []string{"MysteryOfAton"}, cfg.Projects())
}

func TestSettings_Chain(t *testing.T) {
	t.Parallel()

	chain := config.Defaults().Chain()

	env, err := chain.At(2)
	require.NoError(t, err)

	prev, ok := chain.Previous(env)
	require.True(t, ok)
	assert.Equal(t, "release", prev.Name)
}
