package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"

	"github.com/tmikov/c99/diag"
	"github.com/tmikov/c99/parse"
)

type Config struct {
	Parse       Parse       `toml:"parse"`
	Policy      Policy      `toml:"policy"`
	Diagnostics Diagnostics `toml:"diagnostics"`
	Input       Input       `toml:"input"`
	Metrics     Metrics     `toml:"metrics"`
	Trace       Trace       `toml:"trace"`
	Watch       Watch       `toml:"watch"`
}

type Parse struct {
	SignedChar bool `toml:"signed_char"`
}

type Policy struct {
	// Overrides of the array qualifier policy, keyed by context name.
	ArrayQualifiers map[string]bool `toml:"array_qualifiers"`
}

type Diagnostics struct {
	Format           string   `toml:"format"` // text, json or sarif
	Color            string   `toml:"color"`  // auto, always or never
	WarningsAsErrors bool     `toml:"warnings_as_errors"`
	Disable          []string `toml:"disable"`
}

type Input struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Metrics struct {
	// Prometheus textfile written after each run, "" to skip.
	Textfile string `toml:"textfile"`
}

type Trace struct {
	// OTLP gRPC collector address, "" disables tracing.
	Endpoint string `toml:"endpoint"`
	Insecure bool   `toml:"insecure"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

var arrayContexts = map[string]parse.ArrayContext{
	"file_object":      parse.ArrayFileObject,
	"block_object":     parse.ArrayBlockObject,
	"member":           parse.ArrayMember,
	"type_name":        parse.ArrayTypeName,
	"inner_dimension":  parse.ArrayInnerDimension,
	"prototype_param":  parse.ArrayPrototypeParam,
	"definition_param": parse.ArrayDefinitionParam,
}

func Default() *Config {
	return &Config{
		Parse: Parse{SignedChar: true},
		Diagnostics: Diagnostics{
			Format: "text",
			Color:  "auto",
		},
		Input: Input{
			Include: []string{"*.c", "*.h"},
		},
		Watch: Watch{Debounce: 500 * time.Millisecond},
	}
}

// Load reads a TOML file on top of the defaults. Unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if len(cfg.Input.Include) == 0 {
		cfg.Input.Include = Default().Input.Include
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Diagnostics.Format {
	case "text", "json", "sarif":
	default:
		return fmt.Errorf("diagnostics.format: unknown format %q", c.Diagnostics.Format)
	}
	switch c.Diagnostics.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("diagnostics.color: expected auto, always or never, got %q", c.Diagnostics.Color)
	}
	for _, name := range c.Diagnostics.Disable {
		if _, ok := diag.ParseKind(name); !ok {
			return fmt.Errorf("diagnostics.disable: unknown diagnostic %q", name)
		}
	}
	for name := range c.Policy.ArrayQualifiers {
		if _, ok := arrayContexts[name]; !ok {
			return fmt.Errorf("policy.array_qualifiers: unknown context %q (known: %s)", name, strings.Join(ContextNames(), ", "))
		}
	}
	if _, err := c.Matcher(); err != nil {
		return err
	}
	return nil
}

// ContextNames lists the keys accepted in [policy.array_qualifiers].
func ContextNames() []string {
	names := make([]string, 0, len(arrayContexts))
	for n := range arrayContexts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseOptions converts the configuration into parser options. The config
// is expected to have been validated.
func (c *Config) ParseOptions() parse.Options {
	opts := parse.DefaultOptions()
	opts.SignedChar = c.Parse.SignedChar
	opts.WarningsAsErrors = c.Diagnostics.WarningsAsErrors
	for name, allow := range c.Policy.ArrayQualifiers {
		if ctx, ok := arrayContexts[name]; ok {
			opts.ArrayPolicy[ctx] = allow
		}
	}
	for _, name := range c.Diagnostics.Disable {
		if k, ok := diag.ParseKind(name); ok {
			opts.Disabled = append(opts.Disabled, k)
		}
	}
	return opts
}

// Matcher selects the input files of a directory walk.
type Matcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

func compileAll(section string, patterns []string) ([]glob.Glob, error) {
	var ret []glob.Glob
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%s: bad pattern %q: %w", section, pattern, err)
		}
		ret = append(ret, g)
	}
	return ret, nil
}

func (c *Config) Matcher() (*Matcher, error) {
	inc, err := compileAll("input.include", c.Input.Include)
	if err != nil {
		return nil, err
	}
	exc, err := compileAll("input.exclude", c.Input.Exclude)
	if err != nil {
		return nil, err
	}
	return &Matcher{include: inc, exclude: exc}, nil
}

// Match reports whether path is an input. Patterns are tried against the
// base name and against the slash separated path.
func (m *Matcher) Match(path string) bool {
	return matchAny(m.include, path) && !matchAny(m.exclude, path)
}

// Excluded reports whether path matches an exclude pattern.
func (m *Matcher) Excluded(path string) bool {
	return matchAny(m.exclude, path)
}

func matchAny(gs []glob.Glob, path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, g := range gs {
		if g.Match(base) || g.Match(slashed) {
			return true
		}
	}
	return false
}
