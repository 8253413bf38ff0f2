package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/tmikov/c99/config"
	"github.com/tmikov/c99/cpp"
	"github.com/tmikov/c99/diag"
	"github.com/tmikov/c99/emit"
	"github.com/tmikov/c99/observability"
	"github.com/tmikov/c99/parse"
	"github.com/tmikov/c99/watch"
)

const version = "0.1.0"

// defaultConfig is loaded from the working directory when -config is not given.
const defaultConfig = "c99.toml"

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "c99 version %s\n", version)
}

func printUsage(set *flag.FlagSet) func() {
	return func() {
		w := set.Output()
		printVersion(w)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Usage:")
		fmt.Fprintln(w, "  c99 [FLAGS] FILE|DIR...")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Checks the declarations of preprocessed C sources.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Environment variables:")
		fmt.Fprintln(w, "  CCDEBUG=true enables debug logging and internal error traces.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		set.PrintDefaults()
	}
}

type flags struct {
	configPath string
	format     string
	outputPath string
	dump       bool
	tokenize   bool
	watch      bool
	verbose    bool
	version    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("c99", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = printUsage(fset)
	var fl flags
	fset.StringVar(&fl.configPath, "config", "", "TOML configuration file (default ./"+defaultConfig+" when present).")
	fset.StringVar(&fl.format, "format", "", "Diagnostics format: text, json or sarif.")
	fset.StringVar(&fl.outputPath, "o", "-", "File to write json and sarif reports to, - for stdout.")
	fset.BoolVar(&fl.dump, "dump", false, "Print the parsed declarations in English.")
	fset.BoolVar(&fl.tokenize, "T", false, "Print tokens after lexing (For debugging).")
	fset.BoolVar(&fl.watch, "watch", false, "Re-check files when they change.")
	fset.BoolVar(&fl.verbose, "verbose", false, "Enable debug logging.")
	fset.BoolVar(&fl.version, "version", false, "Print version info and exit.")
	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if fl.version {
		printVersion(stdout)
		return 0
	}
	if fset.NArg() == 0 {
		fset.Usage()
		return 2
	}

	level := slog.LevelInfo
	if fl.verbose || os.Getenv("CCDEBUG") == "true" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(fl.configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 2
	}
	if fl.format != "" {
		cfg.Diagnostics.Format = fl.format
		if err := cfg.Validate(); err != nil {
			logger.Error("invalid flags", "error", err)
			return 2
		}
	}
	matcher, err := cfg.Matcher()
	if err != nil {
		logger.Error("invalid input patterns", "error", err)
		return 2
	}

	files, err := collectFiles(fset.Args(), matcher)
	if err != nil {
		reportError(stderr, err)
		return 1
	}
	logger.Debug("collected inputs", "files", len(files))

	if fl.tokenize {
		for _, path := range files {
			if err := tokenizeFile(path, stdout); err != nil {
				reportError(stderr, err)
				return 1
			}
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.InitTracing(ctx, cfg.Trace.Endpoint, cfg.Trace.Insecure, version)
	if err != nil {
		logger.Error("failed to initialise tracing", "error", err)
		return 2
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	c := &checker{
		opts:    cfg.ParseOptions(),
		cfg:     cfg,
		fl:      fl,
		log:     logger,
		metrics: observability.NewMetrics(),
		stdout:  stdout,
		stderr:  stderr,
	}
	ok := c.checkAll(ctx, files)

	if !fl.watch {
		if !ok {
			return 1
		}
		return 0
	}

	w, err := watch.NewWatcher(cfg.Watch.Debounce, matcher, []string{".git", "build"}, logger, func(paths []string) {
		c.metrics.WatchEventsTotal.Inc()
		logger.Info("files changed", "count", len(paths))
		c.checkAll(ctx, paths)
	})
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		return 1
	}
	defer w.Close()
	if err := w.Watch(fset.Args()); err != nil {
		logger.Error("failed to watch inputs", "error", err)
		return 1
	}
	logger.Info("watching for changes", "paths", fset.Args(), "debounce", cfg.Watch.Debounce)
	<-ctx.Done()
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfig); err != nil {
			return config.Default(), nil
		}
		path = defaultConfig
	}
	return config.Load(path)
}

// collectFiles expands directories into the matching files below them.
// Files named on the command line are always included.
func collectFiles(args []string, m *config.Matcher) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to open source file %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && m.Excluded(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if m.Match(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

type fileResult struct {
	path  string
	tu    *parse.TranslationUnit
	diags []diag.Diagnostic
	err   error
}

type checker struct {
	opts    parse.Options
	cfg     *config.Config
	fl      flags
	log     *slog.Logger
	metrics *observability.Metrics
	stdout  io.Writer
	stderr  io.Writer
}

// checkFile parses one translation unit.
func (c *checker) checkFile(ctx context.Context, path string) fileResult {
	_, span := observability.StartFile(ctx, path)
	res := fileResult{path: path}
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		res.err = fmt.Errorf("failed to open source file %s for parsing: %w", path, err)
		c.metrics.FileErrorsTotal.Inc()
		observability.EndFile(span, 0, 0, 0, res.err)
		return res
	}
	defer f.Close()

	opts := c.opts
	opts.Logger = c.log.With("file", path)
	res.tu, res.diags, res.err = parse.Parse(cpp.Lex(path, f), opts)
	if res.err != nil {
		c.metrics.FileErrorsTotal.Inc()
	}
	decls := 0
	if res.tu != nil {
		decls = len(res.tu.Decls)
	}
	c.metrics.ObserveFile(decls, res.diags, time.Since(start))
	observability.EndFile(span, decls, diag.CountSeverity(res.diags, diag.Error),
		diag.CountSeverity(res.diags, diag.Warning), res.err)
	c.log.Debug("parsed", "file", path, "declarations", decls, "diagnostics", len(res.diags), "elapsed", time.Since(start))
	return res
}

// checkAll checks files and writes the report. It returns false when an
// error diagnostic was produced or a file could not be processed.
func (c *checker) checkAll(ctx context.Context, files []string) bool {
	ok := true
	var all []diag.Diagnostic
	for _, path := range files {
		res := c.checkFile(ctx, path)
		if res.err != nil {
			reportError(c.stderr, res.err)
			ok = false
		}
		if diag.CountSeverity(res.diags, diag.Error) > 0 {
			ok = false
		}
		all = append(all, res.diags...)
		if c.fl.dump && res.tu != nil {
			if err := emit.Emit(res.tu, c.stdout); err != nil {
				c.log.Error("failed to write dump", "error", err)
				ok = false
			}
		}
	}
	if err := c.writeReport(all); err != nil {
		c.log.Error("failed to write report", "error", err)
		ok = false
	}
	if path := c.cfg.Metrics.Textfile; path != "" {
		if err := c.metrics.WriteTextfile(path); err != nil {
			c.log.Warn("failed to write metrics", "path", path, "error", err)
		}
	}
	return ok
}

func (c *checker) writeReport(ds []diag.Diagnostic) (err error) {
	switch c.cfg.Diagnostics.Format {
	case "json", "sarif":
		out := c.stdout
		if c.fl.outputPath != "-" {
			f, ferr := os.Create(c.fl.outputPath)
			if ferr != nil {
				return ferr
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("failed to close report %s: %w", c.fl.outputPath, cerr)
				}
			}()
			out = f
		}
		if c.cfg.Diagnostics.Format == "json" {
			return diag.WriteJSON(out, ds)
		}
		root, _ := os.Getwd()
		return diag.WriteSARIF(out, ds, diag.SARIFOptions{ToolName: "c99", ToolVersion: version, Root: root})
	}
	return diag.WriteText(c.stderr, ds, diag.TextOptions{
		Color:  c.cfg.Diagnostics.Color != "never",
		Source: diag.FileSource(),
	})
}

func tokenizeFile(sourceFile string, out io.Writer) error {
	f, err := os.Open(sourceFile)
	if err != nil {
		return fmt.Errorf("failed to open source file %s for tokenizing: %w", sourceFile, err)
	}
	defer f.Close()
	lexer := cpp.Lex(sourceFile, f)
	for {
		tok, err := lexer.Next()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s:%s:%d:%d\n", tok.Kind, tok.Val, tok.Pos.Line, tok.Pos.Col)
		if tok.Kind == cpp.EOF {
			return nil
		}
	}
}
