package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmikov/c99/diag"
	"github.com/tmikov/c99/parse"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "c99.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[parse]
signed_char = false

[policy.array_qualifiers]
block_object = true
definition_param = false

[diagnostics]
format = "sarif"
color = "never"
warnings_as_errors = true
disable = ["implicit-int"]

[input]
include = ["*.c"]
exclude = ["build/**"]

[metrics]
textfile = "c99.prom"

[trace]
endpoint = "localhost:4317"
insecure = true

[watch]
debounce = "1s"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Parse.SignedChar)
	assert.Equal(t, "sarif", cfg.Diagnostics.Format)
	assert.Equal(t, "c99.prom", cfg.Metrics.Textfile)
	assert.Equal(t, "localhost:4317", cfg.Trace.Endpoint)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)

	opts := cfg.ParseOptions()
	assert.False(t, opts.SignedChar)
	assert.True(t, opts.WarningsAsErrors)
	assert.Equal(t, []diag.Kind{diag.ImplicitInt}, opts.Disabled)
	assert.True(t, opts.ArrayPolicy.Allows(parse.ArrayBlockObject))
	assert.True(t, opts.ArrayPolicy.Allows(parse.ArrayPrototypeParam))
	assert.False(t, opts.ArrayPolicy.Allows(parse.ArrayDefinitionParam))
	assert.False(t, opts.ArrayPolicy.Allows(parse.ArrayFileObject))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[parse]\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, parse.DefaultOptions().ArrayPolicy, cfg.ParseOptions().ArrayPolicy)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "[parse]\nsigned = true\n",
		"unknown format":  "[diagnostics]\nformat = \"xml\"\n",
		"unknown color":   "[diagnostics]\ncolor = \"sometimes\"\n",
		"unknown kind":    "[diagnostics]\ndisable = [\"no-such-kind\"]\n",
		"unknown context": "[policy.array_qualifiers]\nlocal = true\n",
		"bad glob":        "[input]\nexclude = [\"[a-\"]\n",
		"bad toml":        "[parse\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMatcher(t *testing.T) {
	cfg := Default()
	cfg.Input.Exclude = []string{"build/**", "*_gen.c"}
	m, err := cfg.Matcher()
	require.NoError(t, err)

	assert.True(t, m.Match("src/main.c"))
	assert.True(t, m.Match("include/a.h"))
	assert.False(t, m.Match("src/main.o"))
	assert.False(t, m.Match("build/x/main.c"))
	assert.False(t, m.Match("src/parser_gen.c"))
	assert.True(t, m.Excluded("build/a.c"))
}

func TestContextNamesCoverPolicy(t *testing.T) {
	assert.Len(t, ContextNames(), len(parse.ArrayPolicy{}))
}
