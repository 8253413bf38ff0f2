// Package diag collects the diagnostics produced while parsing declarations.
//
// Reporting never aborts the parse: the parser records the problem, keeps a
// best-effort value and moves on, so one pass reports as much as possible.
package diag

import (
	"fmt"
	"sort"

	"github.com/tmikov/c99/cpp"
)

type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	}
	return "unknown"
}

// Kind is the stable taxonomy of diagnostics.
type Kind int

const (
	DuplicateStorageClass Kind = iota + 1
	ConflictingBaseType
	IncompatibleModifier
	DuplicateModifier
	InvalidWidthCombination
	Redefinition
	InvalidArrayQualifierContext
	DuplicateParameterName
	UnexpectedToken
	UnknownTypeName
	InvalidStorageClass
	InvalidDerivation
	InvalidParameter
	InvalidArraySize
	ImplicitInt
	OldStyleDeclaration
	InvalidBitField
	IncompleteType
	numKinds
)

var kindInfo = [...]struct {
	name  string
	title string
	sev   Severity
}{
	DuplicateStorageClass:        {"duplicate-storage-class", "More than one storage class in a declaration", Error},
	ConflictingBaseType:          {"conflicting-base-type", "More than one base type in a declaration", Error},
	IncompatibleModifier:         {"incompatible-modifier", "Modifier cannot be applied to the base type", Error},
	DuplicateModifier:            {"duplicate-modifier", "Modifier repeated in a declaration", Error},
	InvalidWidthCombination:      {"invalid-width-combination", "Invalid combination of 'short' and 'long'", Error},
	Redefinition:                 {"redefinition", "Name redefined in the same scope", Error},
	InvalidArrayQualifierContext: {"invalid-array-qualifier-context", "Array qualifier outside a parameter declarator", Error},
	DuplicateParameterName:       {"duplicate-parameter-name", "Parameter name repeated", Error},
	UnexpectedToken:              {"unexpected-token", "Syntax error", Error},
	UnknownTypeName:              {"unknown-type-name", "Identifier does not name a type", Error},
	InvalidStorageClass:          {"invalid-storage-class", "Storage class not allowed here", Error},
	InvalidDerivation:            {"invalid-derivation", "Invalid derived type", Error},
	InvalidParameter:             {"invalid-parameter", "Invalid parameter declaration", Error},
	InvalidArraySize:             {"invalid-array-size", "Invalid array size", Error},
	ImplicitInt:                  {"implicit-int", "Type specifier missing, 'int' assumed", Warning},
	OldStyleDeclaration:          {"old-style-declaration", "Old-style parameter list outside a definition", Warning},
	InvalidBitField:              {"invalid-bit-field", "Invalid bit-field width or type", Error},
	IncompleteType:               {"incomplete-type", "Object declared with an incomplete type", Error},
}

func (k Kind) valid() bool {
	return k > 0 && k < numKinds
}

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindInfo[k].name
}

// Title is a one line human description of the kind.
func (k Kind) Title() string {
	if !k.valid() {
		return ""
	}
	return kindInfo[k].title
}

func (k Kind) DefaultSeverity() Severity {
	if !k.valid() {
		return Error
	}
	return kindInfo[k].sev
}

// RuleID is the identifier used for the kind in machine readable reports.
func (k Kind) RuleID() string {
	return fmt.Sprintf("C99%03d", int(k))
}

// Kinds lists every kind in taxonomy order.
func Kinds() []Kind {
	ret := make([]Kind, 0, numKinds-1)
	for k := Kind(1); k < numKinds; k++ {
		ret = append(ret, k)
	}
	return ret
}

// ParseKind maps a kind name, as printed by String, back to the kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if kindInfo[k].name == name {
			return k, true
		}
	}
	return 0, false
}

type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Pos      cpp.FilePos
	Msg      string
	// Up to two earlier positions, e.g. "previously declared here".
	Related []cpp.FilePos
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Pos, d.Severity, d.Msg, d.Kind)
}

const maxRelated = 2

// Reporter accumulates diagnostics in the order they were detected.
type Reporter struct {
	// Promote every warning to an error.
	WarningsAsErrors bool

	diags    []Diagnostic
	disabled map[Kind]bool
}

func NewReporter() *Reporter {
	return &Reporter{disabled: make(map[Kind]bool)}
}

// Disable drops every later diagnostic of kind k.
func (r *Reporter) Disable(k Kind) {
	r.disabled[k] = true
}

// Add records d, applying the reporter's filters.
func (r *Reporter) Add(d Diagnostic) {
	if r.disabled[d.Kind] {
		return
	}
	if r.WarningsAsErrors {
		d.Severity = Error
	}
	if len(d.Related) > maxRelated {
		d.Related = d.Related[:maxRelated]
	}
	r.diags = append(r.diags, d)
}

func (r *Reporter) Report(kind Kind, sev Severity, pos cpp.FilePos, related []cpp.FilePos, format string, args ...interface{}) {
	r.Add(Diagnostic{
		Kind:     kind,
		Severity: sev,
		Pos:      pos,
		Msg:      fmt.Sprintf(format, args...),
		Related:  related,
	})
}

func (r *Reporter) Errorf(kind Kind, pos cpp.FilePos, format string, args ...interface{}) {
	r.Report(kind, Error, pos, nil, format, args...)
}

func (r *Reporter) Warnf(kind Kind, pos cpp.FilePos, format string, args ...interface{}) {
	r.Report(kind, Warning, pos, nil, format, args...)
}

// Diagnostics returns the diagnostics in detection order.
func (r *Reporter) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), r.diags...)
}

// Sorted returns the diagnostics ordered by position, detection order
// breaking ties.
func (r *Reporter) Sorted() []Diagnostic {
	ret := r.Diagnostics()
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].Pos.Less(ret[j].Pos)
	})
	return ret
}

func (r *Reporter) Len() int {
	return len(r.diags)
}

// Count returns how many diagnostics of kind k were reported.
func (r *Reporter) Count(k Kind) int {
	return CountKind(r.diags, k)
}

func (r *Reporter) ErrorCount() int {
	return CountSeverity(r.diags, Error)
}

func (r *Reporter) HasErrors() bool {
	return r.ErrorCount() != 0
}

// CountSeverity counts the diagnostics in ds with severity s.
func CountSeverity(ds []Diagnostic, s Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// CountKind counts the diagnostics in ds of kind k.
func CountKind(ds []Diagnostic, k Kind) int {
	n := 0
	for _, d := range ds {
		if d.Kind == k {
			n++
		}
	}
	return n
}
