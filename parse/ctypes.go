package parse

import (
	"fmt"
	"strings"
)

type CType interface {
	GetSize() int
	GetAlign() int
	// String is the canonical C spelling of the type, e.g. "int (*)[10]".
	String() string
}

type PrimitiveKind int

const (
	Void PrimitiveKind = iota // type is invalid
	Bool
	Char
	SChar
	UChar
	Short
	Int
	Long
	LLong
	Float
	Double
	LDouble
)

type Primitive struct {
	Kind     PrimitiveKind
	Size     int
	Align    int
	Unsigned bool
}

func (p *Primitive) GetSize() int  { return p.Size }
func (p *Primitive) GetAlign() int { return p.Align }

var primNames = [...][2]string{
	Void:    {"void", "void"},
	Bool:    {"_Bool", "_Bool"},
	Char:    {"char", "char"},
	SChar:   {"signed char", "signed char"},
	UChar:   {"unsigned char", "unsigned char"},
	Short:   {"short", "unsigned short"},
	Int:     {"int", "unsigned int"},
	Long:    {"long", "unsigned long"},
	LLong:   {"long long", "unsigned long long"},
	Float:   {"float", "float"},
	Double:  {"double", "double"},
	LDouble: {"long double", "long double"},
}

func (p *Primitive) String() string {
	if p.Unsigned {
		return primNames[p.Kind][1]
	}
	return primNames[p.Kind][0]
}

// All the primitive C types.

// Misc
var CVoid *Primitive = &Primitive{Void, 0, 1, false}

// Signed
var CChar *Primitive = &Primitive{Char, 1, 1, false}
var CSChar *Primitive = &Primitive{SChar, 1, 1, false}

// Plain char when it is configured to be unsigned.
var CCharUnsigned *Primitive = &Primitive{Char, 1, 1, true}
var CShort *Primitive = &Primitive{Short, 2, 2, false}
var CInt *Primitive = &Primitive{Int, 4, 4, false}
var CLong *Primitive = &Primitive{Long, 8, 8, false}
var CLLong *Primitive = &Primitive{LLong, 8, 8, false}

// Unsigned
var CBool *Primitive = &Primitive{Bool, 1, 1, true}
var CUChar *Primitive = &Primitive{UChar, 1, 1, true}
var CUShort *Primitive = &Primitive{Short, 2, 2, true}
var CUInt *Primitive = &Primitive{Int, 4, 4, true}
var CULong *Primitive = &Primitive{Long, 8, 8, true}
var CULLong *Primitive = &Primitive{LLong, 8, 8, true}

// Floats
var CFloat *Primitive = &Primitive{Float, 4, 4, false}
var CDouble *Primitive = &Primitive{Double, 8, 8, false}
var CLDouble *Primitive = &Primitive{LDouble, 16, 16, false}

// Qualifiers is a set of type qualifiers.
type Qualifiers uint8

const (
	QConst Qualifiers = 1 << iota
	QVolatile
	QRestrict
	QAtomic
)

func (q Qualifiers) String() string {
	var parts []string
	if q&QConst != 0 {
		parts = append(parts, "const")
	}
	if q&QVolatile != 0 {
		parts = append(parts, "volatile")
	}
	if q&QRestrict != 0 {
		parts = append(parts, "restrict")
	}
	if q&QAtomic != 0 {
		parts = append(parts, "_Atomic")
	}
	return strings.Join(parts, " ")
}

// Qualified is a non pointer type with qualifiers. Pointers carry their own.
type Qualified struct {
	Quals Qualifiers
	Type  CType
}

func (q *Qualified) GetSize() int  { return q.Type.GetSize() }
func (q *Qualified) GetAlign() int { return q.Type.GetAlign() }
func (q *Qualified) String() string {
	return typeString(q, "")
}

// Qualify adds quals to t.
func Qualify(t CType, quals Qualifiers) CType {
	if quals == 0 {
		return t
	}
	switch t := t.(type) {
	case *Ptr:
		return &Ptr{PointsTo: t.PointsTo, Quals: t.Quals | quals}
	case *Qualified:
		return &Qualified{Quals: t.Quals | quals, Type: t.Type}
	case *ArrayType:
		return &ArrayType{MemberType: Qualify(t.MemberType, quals), Dim: t.Dim}
	}
	return &Qualified{Quals: quals, Type: t}
}

// Unqualified strips the top level qualifiers of t.
func Unqualified(t CType) CType {
	if q, ok := t.(*Qualified); ok {
		return q.Type
	}
	return t
}

type Complex struct {
	Elem      *Primitive
	Imaginary bool
}

func (c *Complex) GetSize() int {
	if c.Imaginary {
		return c.Elem.Size
	}
	return 2 * c.Elem.Size
}
func (c *Complex) GetAlign() int { return c.Elem.Align }
func (c *Complex) String() string {
	if c.Imaginary {
		return c.Elem.String() + " _Imaginary"
	}
	return c.Elem.String() + " _Complex"
}

type ArrayType struct {
	MemberType CType
	// -1 when the dimension is unknown or not constant.
	Dim int
}

func (a *ArrayType) GetSize() int {
	if a.Dim < 0 {
		return 0
	}
	return a.MemberType.GetSize() * a.Dim
}
func (a *ArrayType) GetAlign() int  { return a.MemberType.GetAlign() }
func (a *ArrayType) String() string { return typeString(a, "") }

type Ptr struct {
	PointsTo CType
	Quals    Qualifiers
}

func (p *Ptr) GetSize() int   { return 8 }
func (p *Ptr) GetAlign() int  { return 8 }
func (p *Ptr) String() string { return typeString(p, "") }

type Field struct {
	Name string
	Type CType
	// Bit-field width, -1 for ordinary members.
	Bits int
}

// Struct or union.
type StructType struct {
	Tag      string
	IsUnion  bool
	Fields   []Field
	Complete bool
	// Distinguishes anonymous aggregates in diagnostics.
	id int
}

func (s *StructType) layout() (size, align int) {
	align = 1
	for _, f := range s.Fields {
		fa := f.Type.GetAlign()
		if fa < 1 {
			fa = 1
		}
		if fa > align {
			align = fa
		}
		fs := f.Type.GetSize()
		if s.IsUnion {
			if fs > size {
				size = fs
			}
			continue
		}
		size = alignUp(size, fa) + fs
	}
	return alignUp(size, align), align
}

func alignUp(n, a int) int {
	return (n + a - 1) / a * a
}

func (s *StructType) GetSize() int {
	if !s.Complete {
		return 0
	}
	sz, _ := s.layout()
	return sz
}

func (s *StructType) GetAlign() int {
	_, a := s.layout()
	return a
}

func (s *StructType) String() string {
	kw := "struct"
	if s.IsUnion {
		kw = "union"
	}
	if s.Tag == "" {
		return fmt.Sprintf("%s <anonymous#%d>", kw, s.id)
	}
	return kw + " " + s.Tag
}

// FieldByName returns the member called name.
func (s *StructType) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

type EnumType struct {
	Tag      string
	Complete bool
	id       int
}

func (e *EnumType) GetSize() int  { return 4 }
func (e *EnumType) GetAlign() int { return 4 }
func (e *EnumType) String() string {
	if e.Tag == "" {
		return fmt.Sprintf("enum <anonymous#%d>", e.id)
	}
	return "enum " + e.Tag
}

type FunctionType struct {
	RetType  CType
	ArgTypes []CType
	ArgNames []string
	IsVarArg bool
	// Declared without a prototype, "int f()" or "int f(a, b)".
	NoProto bool
}

func (f *FunctionType) GetSize() int   { return 0 }
func (f *FunctionType) GetAlign() int  { return 1 }
func (f *FunctionType) String() string { return typeString(f, "") }

// typeString spells t around the partial declarator inner.
func typeString(t CType, inner string) string {
	switch t := t.(type) {
	case *Ptr:
		s := "*"
		if t.Quals != 0 {
			s += " " + t.Quals.String()
			if inner != "" {
				s += " "
			}
		}
		s += inner
		switch t.PointsTo.(type) {
		case *ArrayType, *FunctionType:
			s = "(" + s + ")"
		}
		return typeString(t.PointsTo, s)
	case *ArrayType:
		dim := ""
		if t.Dim >= 0 {
			dim = fmt.Sprint(t.Dim)
		}
		return typeString(t.MemberType, inner+"["+dim+"]")
	case *FunctionType:
		var args []string
		for _, a := range t.ArgTypes {
			args = append(args, typeString(a, ""))
		}
		if t.IsVarArg {
			args = append(args, "...")
		}
		if len(args) == 0 && !t.NoProto {
			args = append(args, "void")
		}
		return typeString(t.RetType, inner+"("+strings.Join(args, ", ")+")")
	case *Qualified:
		return t.Quals.String() + " " + typeString(t.Type, inner)
	}
	if inner == "" {
		return t.String()
	}
	return t.String() + " " + inner
}

// Compatible reports whether two declarations of the same name may have
// types a and b. Declarations without a prototype, and arrays of unknown
// size, are compatible with their completed forms.
func Compatible(a, b CType) bool {
	if a == b {
		return true
	}
	switch at := a.(type) {
	case *Ptr:
		bt, ok := b.(*Ptr)
		return ok && at.Quals == bt.Quals && Compatible(at.PointsTo, bt.PointsTo)
	case *ArrayType:
		bt, ok := b.(*ArrayType)
		if !ok || !Compatible(at.MemberType, bt.MemberType) {
			return false
		}
		return at.Dim < 0 || bt.Dim < 0 || at.Dim == bt.Dim
	case *FunctionType:
		bt, ok := b.(*FunctionType)
		if !ok || !Compatible(at.RetType, bt.RetType) {
			return false
		}
		if at.NoProto || bt.NoProto {
			return true
		}
		if at.IsVarArg != bt.IsVarArg || len(at.ArgTypes) != len(bt.ArgTypes) {
			return false
		}
		for i := range at.ArgTypes {
			if !Compatible(Unqualified(at.ArgTypes[i]), Unqualified(bt.ArgTypes[i])) {
				return false
			}
		}
		return true
	case *Qualified:
		bt, ok := b.(*Qualified)
		return ok && at.Quals == bt.Quals && Compatible(at.Type, bt.Type)
	case *StructType, *EnumType:
		return false
	}
	return a.String() == b.String()
}

func IsPtrType(t CType) bool {
	_, ok := Unqualified(t).(*Ptr)
	return ok
}

func IsFunctionType(t CType) bool {
	_, ok := Unqualified(t).(*FunctionType)
	return ok
}

func IsArrayType(t CType) bool {
	_, ok := Unqualified(t).(*ArrayType)
	return ok
}

func IsVoidType(t CType) bool {
	prim, ok := Unqualified(t).(*Primitive)
	return ok && prim.Kind == Void
}

func IsBoolType(t CType) bool {
	prim, ok := Unqualified(t).(*Primitive)
	return ok && prim.Kind == Bool
}

// isIncompleteObject reports whether an object of type t cannot be
// defined: void, or a struct, union or enum without a body yet.
func isIncompleteObject(t CType) bool {
	switch t := Unqualified(t).(type) {
	case *Primitive:
		return t.Kind == Void
	case *StructType:
		return !t.Complete
	case *EnumType:
		return !t.Complete
	}
	return false
}

func IsIntType(t CType) bool {
	switch t := Unqualified(t).(type) {
	case *EnumType:
		return true
	case *Primitive:
		switch t.Kind {
		case Bool, Char, SChar, UChar, Short, Int, Long, LLong:
			return true
		}
	}
	return false
}

func IsScalarType(t CType) bool {
	return IsPtrType(t) || IsIntType(t)
}
