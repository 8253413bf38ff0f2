package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tmikov/c99/config"
	"github.com/tmikov/c99/cpp"
	"github.com/tmikov/c99/diag"
	"github.com/tmikov/c99/parse"
)

// expectation is the testdata/<name>.yaml companion of a source file.
type expectation struct {
	// Spelled types of file scope names, first declaration wins.
	Types       map[string]string `yaml:"types"`
	Diagnostics []expectedDiag    `yaml:"diagnostics"`
}

type expectedDiag struct {
	Kind     string `yaml:"kind"`
	Severity string `yaml:"severity,omitempty"`
	Line     int    `yaml:"line"`
	Col      int    `yaml:"col,omitempty"`
	Related  []int  `yaml:"related,omitempty"`
}

func loadExpectation(t *testing.T, path string) expectation {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var exp expectation
	require.NoError(t, yaml.Unmarshal(data, &exp), "failed to parse %s", path)
	return exp
}

func fileTypes(tu *parse.TranslationUnit) map[string]string {
	types := make(map[string]string)
	add := func(id *parse.InitDeclarator) {
		if id == nil || id.Type == nil || id.Name() == "" {
			return
		}
		if _, ok := types[id.Name()]; !ok {
			types[id.Name()] = id.Type.String()
		}
	}
	for _, n := range tu.Decls {
		switch n := n.(type) {
		case *parse.Declaration:
			for _, id := range n.Decls {
				add(id)
			}
		case *parse.FunctionDef:
			add(n.Decl)
		}
	}
	return types
}

func TestTestdata(t *testing.T) {
	sources, err := filepath.Glob(filepath.Join("testdata", "*.c"))
	require.NoError(t, err)
	require.NotEmpty(t, sources)

	for _, src := range sources {
		name := strings.TrimSuffix(filepath.Base(src), ".c")
		t.Run(name, func(t *testing.T) {
			exp := loadExpectation(t, strings.TrimSuffix(src, ".c")+".yaml")

			f, err := os.Open(src)
			require.NoError(t, err)
			defer f.Close()
			tu, diags, err := parse.Parse(cpp.Lex(src, f), parse.DefaultOptions())
			require.NoError(t, err)

			if !assert.Len(t, diags, len(exp.Diagnostics), "diagnostics: %v", diags) {
				return
			}
			for i, want := range exp.Diagnostics {
				got := diags[i]
				assert.Equal(t, want.Kind, got.Kind.String(), "diagnostic %d: %s", i, got)
				assert.Equal(t, want.Line, got.Pos.Line, "diagnostic %d: %s", i, got)
				if want.Col != 0 {
					assert.Equal(t, want.Col, got.Pos.Col, "diagnostic %d: %s", i, got)
				}
				sev := want.Severity
				if sev == "" {
					sev = "error"
				}
				assert.Equal(t, sev, got.Severity.String(), "diagnostic %d: %s", i, got)
				if want.Related != nil {
					var lines []int
					for _, r := range got.Related {
						lines = append(lines, r.Line)
					}
					assert.Equal(t, want.Related, lines, "diagnostic %d: %s", i, got)
				}
			}

			types := fileTypes(tu)
			for n, want := range exp.Types {
				assert.Equal(t, want, types[n], "type of %s", n)
			}
		})
	}
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "t.c")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func runCmd(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runCmd("-version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "c99 version "+version+"\n", stdout)
}

func TestRunUsage(t *testing.T) {
	code, _, stderr := runCmd()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage:")
}

func TestRunJSON(t *testing.T) {
	code, stdout, _ := runCmd("-format", "json", filepath.Join("testdata", "arrays.c"))
	assert.Equal(t, 1, code)

	var rep struct {
		Errors      int `json:"errors"`
		Warnings    int `json:"warnings"`
		Diagnostics []struct {
			Kind string `json:"kind"`
			Line int    `json:"line"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, 7, rep.Errors)
	assert.Equal(t, 2, rep.Warnings)
	require.Len(t, rep.Diagnostics, 9)
	assert.Equal(t, diag.InvalidArrayQualifierContext.String(), rep.Diagnostics[0].Kind)
	assert.Equal(t, 2, rep.Diagnostics[0].Line)
}

func TestRunReportWriteFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	code, _, stderr := runCmd("-format", "json", "-o", "/dev/full", writeSource(t, "int x;\n"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to write report")
}

func TestRunReportFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	code, stdout, _ := runCmd("-format", "json", "-o", out, writeSource(t, "int x;\n"))
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"errors": 0`)
}

func TestRunBadFormat(t *testing.T) {
	code, _, stderr := runCmd("-format", "xml", writeSource(t, "int x;\n"))
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "invalid flags")
}

func TestRunDump(t *testing.T) {
	code, stdout, stderr := runCmd("-dump", writeSource(t, "int x;\nchar *f(void);\n"))
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "declare x as int\ndeclare f as function (void) returning pointer to char\n", stdout)
}

func TestRunWarningsOnly(t *testing.T) {
	code, _, stderr := runCmd(writeSource(t, "extern x;\n"))
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "implicit-int")
}

func TestRunTokenize(t *testing.T) {
	code, stdout, _ := runCmd("-T", writeSource(t, "int x;\n"))
	assert.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasSuffix(lines[0], ":int:1:1"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ":x:1:5"), lines[1])
}

func TestRunMissingFile(t *testing.T) {
	code, _, stderr := runCmd(filepath.Join(t.TempDir(), "missing.c"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to open source file")
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.c", "a.h", "notes.txt", filepath.Join("sub", "c.c")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}
	extra := filepath.Join(dir, "notes.txt")

	m, err := config.Default().Matcher()
	require.NoError(t, err)
	files, err := collectFiles([]string{dir, extra}, m)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.h"),
		filepath.Join(dir, "b.c"),
		filepath.Join(dir, "sub", "c.c"),
		extra,
	}, files)
}
