package parse

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmikov/c99/cpp"
)

type ScopeKind int

const (
	ScopeFile ScopeKind = iota
	ScopeBlock
	ScopeParam
	ScopeAggregate
	ScopeEnum
)

var scopeKindNames = [...]string{
	ScopeFile:      "file",
	ScopeBlock:     "block",
	ScopeParam:     "param",
	ScopeAggregate: "aggregate",
	ScopeEnum:      "enum",
}

func (k ScopeKind) String() string { return scopeKindNames[k] }

type SymKind int

const (
	Ordinary SymKind = iota
	TypeName
	EnumConstant
)

func (k SymKind) String() string {
	switch k {
	case TypeName:
		return "typedef"
	case EnumConstant:
		return "enumerator"
	}
	return "ordinary identifier"
}

type Symbol struct {
	Name string
	Kind SymKind
	Pos  cpp.FilePos
	Type CType
	// Value of an enumeration constant.
	Value int64
}

type TagKind int

const (
	TagStruct TagKind = iota
	TagUnion
	TagEnum
)

func (k TagKind) String() string {
	switch k {
	case TagUnion:
		return "union"
	case TagEnum:
		return "enum"
	}
	return "struct"
}

type Tag struct {
	Name string
	Kind TagKind
	Pos  cpp.FilePos
	// *StructType or *EnumType.
	Type CType
}

// Complete reports whether the tag's body has been seen.
func (t *Tag) Complete() bool {
	switch ty := t.Type.(type) {
	case *StructType:
		return ty.Complete
	case *EnumType:
		return ty.Complete
	}
	return false
}

// RedefinitionError is returned by Bind when a name clashes with an earlier
// binding in the same scope.
type RedefinitionError struct {
	Name string
	Pos  cpp.FilePos
	Prev cpp.FilePos
	// Description of the clash, "different kind of symbol" etc.
	Reason string
}

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("redefinition of '%s' as %s", e.Name, e.Reason)
}

type Scope struct {
	Kind   ScopeKind
	parent *Scope
	syms   map[string]*Symbol
	tags   map[string]*Tag
	depth  int
}

// Parent returns the enclosing scope, nil at file scope.
func (s *Scope) Parent() *Scope { return s.parent }

// LookupLocal looks name up in s only.
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.syms[name]
}

// Symbols returns the number of ordinary bindings in s.
func (s *Scope) Symbols() int { return len(s.syms) }

func (s *Scope) String() string {
	str := ""
	if s.parent != nil {
		str += s.parent.String() + "\n"
	}
	names := make([]string, 0, len(s.syms))
	for k, v := range s.syms {
		names = append(names, k+":"+v.Kind.String())
	}
	str += fmt.Sprintf("%s%v", s.Kind, names)
	return str
}

func newScope(parent *Scope, kind ScopeKind) *Scope {
	ret := &Scope{}
	ret.parent = parent
	ret.Kind = kind
	ret.syms = make(map[string]*Symbol)
	ret.tags = make(map[string]*Tag)
	if parent != nil {
		ret.depth = parent.depth + 1
	}
	return ret
}

// Table is the stack of lexical scopes. The file scope is always present.
type Table struct {
	cur    *Scope
	log    *slog.Logger
	anonID int
}

func NewTable(log *slog.Logger) *Table {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Table{cur: newScope(nil, ScopeFile), log: log}
}

// Current returns the innermost scope.
func (t *Table) Current() *Scope { return t.cur }

func (t *Table) Enter(kind ScopeKind) *Scope {
	t.cur = newScope(t.cur, kind)
	t.log.Debug("enter scope", "kind", kind, "depth", t.cur.depth)
	return t.cur
}

func (t *Table) Leave() {
	if t.cur.parent == nil {
		panic("internal error: leaving the file scope")
	}
	t.log.Debug("leave scope", "kind", t.cur.Kind, "depth", t.cur.depth)
	t.cur = t.cur.parent
}

// With runs fn inside a new scope of the given kind. The scope is left on
// every exit path.
func (t *Table) With(kind ScopeKind, fn func(s *Scope)) {
	s := t.Enter(kind)
	defer t.Leave()
	fn(s)
}

// ordinaryScope is where declarations that escape aggregate and enum bodies
// land: tags and enumeration constants declared inside them belong to the
// enclosing scope.
func (t *Table) ordinaryScope() *Scope {
	s := t.cur
	for s.Kind == ScopeAggregate || s.Kind == ScopeEnum {
		s = s.parent
	}
	return s
}

// Bind adds name to the current scope, or for enumeration constants to the
// scope enclosing the enum body.
//
// Rebinding a name in the same scope is accepted when the kind matches and
// the types are compatible, and the earlier symbol is returned.
func (t *Table) Bind(name string, kind SymKind, pos cpp.FilePos, ty CType) (*Symbol, error) {
	s := t.cur
	if kind == EnumConstant {
		s = t.ordinaryScope()
	}
	return t.bindIn(s, name, kind, pos, ty)
}

func (t *Table) bindIn(s *Scope, name string, kind SymKind, pos cpp.FilePos, ty CType) (*Symbol, error) {
	if prev, ok := s.syms[name]; ok {
		switch {
		case prev.Kind != kind:
			return prev, &RedefinitionError{Name: name, Pos: pos, Prev: prev.Pos, Reason: "different kind of symbol"}
		case kind == EnumConstant:
			return prev, &RedefinitionError{Name: name, Pos: pos, Prev: prev.Pos, Reason: "enumerator"}
		case prev.Type != nil && ty != nil && !Compatible(prev.Type, ty):
			return prev, &RedefinitionError{
				Name:   name,
				Pos:    pos,
				Prev:   prev.Pos,
				Reason: fmt.Sprintf("'%s' (was '%s')", ty, prev.Type),
			}
		}
		// Completing an array or adding a prototype refines the type.
		if ty != nil && (prev.Type == nil || refines(ty, prev.Type)) {
			prev.Type = ty
		}
		return prev, nil
	}
	sym := &Symbol{Name: name, Kind: kind, Pos: pos, Type: ty}
	s.syms[name] = sym
	t.log.Debug(strings.Repeat("  ", s.depth)+"bind", "name", name, "kind", kind, "type", typeOrNil(ty), "scope", s.Kind)
	return sym, nil
}

func typeOrNil(ty CType) string {
	if ty == nil {
		return "<nil>"
	}
	return ty.String()
}

// refines reports whether a carries more information than the compatible b.
func refines(a, b CType) bool {
	switch at := a.(type) {
	case *ArrayType:
		bt, ok := b.(*ArrayType)
		return ok && bt.Dim < 0 && at.Dim >= 0
	case *FunctionType:
		bt, ok := b.(*FunctionType)
		return ok && bt.NoProto && !at.NoProto
	}
	return false
}

// Lookup returns the innermost binding of name, or nil. Members are in their
// own name space and are not found.
func (t *Table) Lookup(name string) *Symbol {
	for s := t.cur; s != nil; s = s.parent {
		if s.Kind == ScopeAggregate {
			continue
		}
		if sym, ok := s.syms[name]; ok {
			return sym
		}
	}
	return nil
}

// IsTypeName reports whether name currently denotes a typedef.
func (t *Table) IsTypeName(name string) bool {
	sym := t.Lookup(name)
	return sym != nil && sym.Kind == TypeName
}

// LookupTag returns the innermost tag called name, or nil.
func (t *Table) LookupTag(name string) *Tag {
	for s := t.cur; s != nil; s = s.parent {
		if tag, ok := s.tags[name]; ok {
			return tag
		}
	}
	return nil
}

// DeclareTag returns the tag called name in the current non aggregate scope,
// creating an incomplete one if it does not exist. A tag of a different kind
// in that scope is a redefinition.
func (t *Table) DeclareTag(kind TagKind, name string, pos cpp.FilePos) (*Tag, error) {
	s := t.ordinaryScope()
	if name != "" {
		if prev, ok := s.tags[name]; ok {
			if prev.Kind != kind {
				return prev, &RedefinitionError{
					Name:   name,
					Pos:    pos,
					Prev:   prev.Pos,
					Reason: fmt.Sprintf("'%s %s' (was '%s')", kind, name, prev.Kind),
				}
			}
			return prev, nil
		}
	}
	tag := &Tag{Name: name, Kind: kind, Pos: pos}
	t.anonID++
	switch kind {
	case TagEnum:
		tag.Type = &EnumType{Tag: name, id: t.anonID}
	default:
		tag.Type = &StructType{Tag: name, IsUnion: kind == TagUnion, id: t.anonID}
	}
	if name != "" {
		s.tags[name] = tag
		t.log.Debug(strings.Repeat("  ", s.depth)+"bind tag", "name", name, "kind", kind, "scope", s.Kind)
	}
	return tag, nil
}

// ReferenceTag resolves a tag use without a body ("struct S *p"): the
// visible tag if there is one, otherwise a new incomplete tag.
func (t *Table) ReferenceTag(kind TagKind, name string, pos cpp.FilePos) (*Tag, error) {
	if prev := t.LookupTag(name); prev != nil {
		if prev.Kind != kind {
			return prev, &RedefinitionError{
				Name:   name,
				Pos:    pos,
				Prev:   prev.Pos,
				Reason: fmt.Sprintf("'%s %s' (was '%s')", kind, name, prev.Kind),
			}
		}
		return prev, nil
	}
	return t.DeclareTag(kind, name, pos)
}
