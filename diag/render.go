package diag

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tmikov/c99/cpp"
)

// SourceFunc returns the lines of file, or nil when the source is unavailable.
type SourceFunc func(file string) []string

// FileSource reads sources from disk, caching each file.
func FileSource() SourceFunc {
	cache := make(map[string][]string)
	return func(file string) []string {
		if lines, ok := cache[file]; ok {
			return lines
		}
		var lines []string
		f, err := os.Open(file)
		if err == nil {
			sc := bufio.NewScanner(f)
			sc.Buffer(make([]byte, 64*1024), 1024*1024)
			for sc.Scan() {
				lines = append(lines, sc.Text())
			}
			f.Close()
		}
		cache[file] = lines
		return lines
	}
}

// Snippet returns the source line at pos and a caret under the column, or ""
// when the line is unavailable. Tabs count as four columns, as in the lexer.
func Snippet(src SourceFunc, pos cpp.FilePos) string {
	if src == nil {
		return ""
	}
	lines := src(pos.File)
	if pos.Line < 1 || pos.Line > len(lines) {
		return ""
	}
	line := strings.TrimRight(strings.ReplaceAll(lines[pos.Line-1], "\t", "    "), "\r\n")
	col := pos.Col
	if col < 1 {
		col = 1
	}
	return line + "\n" + strings.Repeat(" ", col-1) + "^\n"
}

type TextOptions struct {
	// Colour severities when the output is a terminal.
	Color  bool
	Source SourceFunc
}

type textStyles struct {
	on                           bool
	err, warn, note, caret, kind lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	if !color {
		return textStyles{}
	}
	re := lipgloss.NewRenderer(w)
	return textStyles{
		on:    true,
		err:   re.NewStyle().Bold(true).Foreground(lipgloss.Color("#F87171")),
		warn:  re.NewStyle().Bold(true).Foreground(lipgloss.Color("#FBBF24")),
		note:  re.NewStyle().Foreground(lipgloss.Color("#60A5FA")),
		caret: re.NewStyle().Bold(true).Foreground(lipgloss.Color("#34D399")),
		kind:  re.NewStyle().Faint(true),
	}
}

func (s textStyles) paint(st lipgloss.Style, text string) string {
	if !s.on {
		return text
	}
	return st.Render(text)
}

// WriteText prints ds one per line in the usual compiler format,
// each followed by the offending source line when available.
func WriteText(w io.Writer, ds []Diagnostic, opts TextOptions) error {
	st := newTextStyles(w, opts.Color)
	bw := bufio.NewWriter(w)
	for _, d := range ds {
		sev := st.paint(st.err, d.Severity.String())
		if d.Severity == Warning {
			sev = st.paint(st.warn, d.Severity.String())
		}
		fmt.Fprintf(bw, "%s: %s: %s %s\n", d.Pos, sev, d.Msg, st.paint(st.kind, "["+d.Kind.String()+"]"))
		if snip := Snippet(opts.Source, d.Pos); snip != "" {
			lines := strings.Split(strings.TrimSuffix(snip, "\n"), "\n")
			fmt.Fprintln(bw, lines[0])
			fmt.Fprintln(bw, st.paint(st.caret, lines[1]))
		}
		for _, rel := range d.Related {
			fmt.Fprintf(bw, "%s: %s: previously declared here\n", rel, st.paint(st.note, "note"))
		}
	}
	return bw.Flush()
}

type jsonPos struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

type jsonDiagnostic struct {
	jsonPos
	Kind     string    `json:"kind"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	Related  []jsonPos `json:"related,omitempty"`
}

type jsonReport struct {
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

func toJSONPos(p cpp.FilePos) jsonPos {
	return jsonPos{File: p.File, Line: p.Line, Column: p.Col}
}

// WriteJSON writes ds as a single JSON document.
func WriteJSON(w io.Writer, ds []Diagnostic) error {
	rep := jsonReport{
		Errors:      CountSeverity(ds, Error),
		Warnings:    CountSeverity(ds, Warning),
		Diagnostics: make([]jsonDiagnostic, 0, len(ds)),
	}
	for _, d := range ds {
		jd := jsonDiagnostic{
			jsonPos:  toJSONPos(d.Pos),
			Kind:     d.Kind.String(),
			Severity: d.Severity.String(),
			Message:  d.Msg,
		}
		for _, r := range d.Related {
			jd.Related = append(jd.Related, toJSONPos(r))
		}
		rep.Diagnostics = append(rep.Diagnostics, jd)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
