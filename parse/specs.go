package parse

import (
	"github.com/tmikov/c99/cpp"
	"github.com/tmikov/c99/diag"
)

// Storage class
type SClass int

const (
	SC_NONE SClass = iota
	SC_TYPEDEF
	SC_EXTERN
	SC_STATIC
	SC_AUTO
	SC_REGISTER
)

var sclassNames = [...]string{
	SC_NONE:     "",
	SC_TYPEDEF:  "typedef",
	SC_EXTERN:   "extern",
	SC_STATIC:   "static",
	SC_AUTO:     "auto",
	SC_REGISTER: "register",
}

func (sc SClass) String() string { return sclassNames[sc] }

func sclassOf(k cpp.TokenKind) SClass {
	switch k {
	case cpp.TYPEDEF:
		return SC_TYPEDEF
	case cpp.EXTERN:
		return SC_EXTERN
	case cpp.STATIC:
		return SC_STATIC
	case cpp.AUTO:
		return SC_AUTO
	case cpp.REGISTER:
		return SC_REGISTER
	}
	return SC_NONE
}

type FuncSpecifiers uint8

const (
	FInline FuncSpecifiers = 1 << iota
	FNoreturn
)

// BaseKind is the base type named by the specifiers.
type BaseKind int

const (
	BaseNone BaseKind = iota
	BaseVoid
	BaseChar
	BaseInt
	BaseFloat
	BaseDouble
	BaseBool
	BaseTag
	BaseTypedef
	BaseAtomic
)

// BaseSpec is one base type specifier: a keyword, a tag, a typedef-name or
// _Atomic(type-name).
type BaseSpec struct {
	Tok  *cpp.Token
	Kind BaseKind
	// Set for BaseTag.
	Tag *Tag
	// The tag's body was given here.
	Body bool
	// Set for BaseTypedef and BaseAtomic.
	Type CType
	// Set for BaseTypedef.
	Sym *Symbol
}

func baseKindOf(k cpp.TokenKind) BaseKind {
	switch k {
	case cpp.VOID:
		return BaseVoid
	case cpp.CHAR:
		return BaseChar
	case cpp.INT:
		return BaseInt
	case cpp.FLOAT:
		return BaseFloat
	case cpp.DOUBLE:
		return BaseDouble
	case cpp.BOOL:
		return BaseBool
	}
	return BaseNone
}

// SpecifierSet holds the specifier tokens of one declaration, by category,
// in source order.
type SpecifierSet struct {
	Pos         cpp.FilePos
	Storage     []*cpp.Token
	ThreadLocal []*cpp.Token
	Quals       []*cpp.Token
	FuncSpecs   []*cpp.Token
	// _Alignas operands, type names are represented by their size.
	Align []Node
	Base  []BaseSpec
	Sign  []*cpp.Token
	Width []*cpp.Token
	// _Complex and _Imaginary.
	Complex []*cpp.Token
}

// Empty reports whether no specifier was seen at all.
func (ss *SpecifierSet) Empty() bool {
	return len(ss.Storage) == 0 && len(ss.ThreadLocal) == 0 && len(ss.Quals) == 0 &&
		len(ss.FuncSpecs) == 0 && len(ss.Align) == 0 && !ss.HasType()
}

// HasType reports whether any type specifier was seen.
func (ss *SpecifierSet) HasType() bool {
	return len(ss.Base) != 0 || len(ss.Sign) != 0 || len(ss.Width) != 0 || len(ss.Complex) != 0
}

// Add records a specifier keyword. It reports false for tokens that are
// not simple specifier keywords.
func (ss *SpecifierSet) Add(t *cpp.Token) bool {
	switch t.Kind {
	case cpp.TYPEDEF, cpp.EXTERN, cpp.STATIC, cpp.AUTO, cpp.REGISTER:
		ss.Storage = append(ss.Storage, t)
	case cpp.THREAD_LOCAL:
		ss.ThreadLocal = append(ss.ThreadLocal, t)
	case cpp.CONST, cpp.VOLATILE, cpp.RESTRICT, cpp.ATOMIC:
		ss.Quals = append(ss.Quals, t)
	case cpp.INLINE, cpp.NORETURN:
		ss.FuncSpecs = append(ss.FuncSpecs, t)
	case cpp.VOID, cpp.CHAR, cpp.INT, cpp.FLOAT, cpp.DOUBLE, cpp.BOOL:
		ss.Base = append(ss.Base, BaseSpec{Tok: t, Kind: baseKindOf(t.Kind)})
	case cpp.SIGNED, cpp.UNSIGNED:
		ss.Sign = append(ss.Sign, t)
	case cpp.SHORT, cpp.LONG:
		ss.Width = append(ss.Width, t)
	case cpp.COMPLEX, cpp.IMAGINARY:
		ss.Complex = append(ss.Complex, t)
	default:
		return false
	}
	return true
}

type Width int

const (
	WidthNone Width = iota
	WidthShort
	WidthLong
	WidthLongLong
)

// TypeSpec is the reduced type part of a specifier set.
type TypeSpec struct {
	Base     BaseKind
	Unsigned bool
	// Signedness was spelled out.
	Signed    bool
	Width     Width
	Complex   bool
	Imaginary bool
	Tag       *Tag
	TagBody   bool
	Typedef   *Symbol
	Atomic    CType
}

// DeclSpec is the validated meaning of a specifier set.
type DeclSpec struct {
	Type        TypeSpec
	Storage     SClass
	ThreadLocal bool
	Quals       Qualifiers
	FuncSpecs   FuncSpecifiers
	Align       Node
	// No type specifier was given, int was assumed.
	Implicit bool
	// The resolved type, qualifiers included.
	CType CType
}

// ResolveOptions tune target dependent parts of specifier reduction.
type ResolveOptions struct {
	SignedChar bool
}

// Resolve reduces ss to a single DeclSpec, reporting every violation to r.
// The rules only look at the final multiset of specifiers, so the order
// they were written in does not matter. On error the first specifier of a
// category wins.
func (ss *SpecifierSet) Resolve(r *diag.Reporter, opts ResolveOptions) *DeclSpec {
	ds := &DeclSpec{}

	// Storage class.
	for i, t := range ss.Storage {
		if i == 0 {
			ds.Storage = sclassOf(t.Kind)
			continue
		}
		r.Errorf(diag.DuplicateStorageClass, t.Pos, "cannot combine '%s' with previous '%s' storage class", t.Val, ds.Storage)
	}
	for i, t := range ss.ThreadLocal {
		if i != 0 {
			r.Errorf(diag.DuplicateStorageClass, t.Pos, "duplicate '_Thread_local'")
			continue
		}
		ds.ThreadLocal = true
		switch ds.Storage {
		case SC_TYPEDEF, SC_AUTO, SC_REGISTER:
			r.Errorf(diag.DuplicateStorageClass, t.Pos, "'_Thread_local' cannot be combined with '%s'", ds.Storage)
		}
	}

	// Qualifiers and function specifiers are idempotent.
	for _, t := range ss.Quals {
		switch t.Kind {
		case cpp.CONST:
			ds.Quals |= QConst
		case cpp.VOLATILE:
			ds.Quals |= QVolatile
		case cpp.RESTRICT:
			ds.Quals |= QRestrict
		case cpp.ATOMIC:
			ds.Quals |= QAtomic
		}
	}
	for _, t := range ss.FuncSpecs {
		if t.Kind == cpp.INLINE {
			ds.FuncSpecs |= FInline
		} else {
			ds.FuncSpecs |= FNoreturn
		}
	}
	if len(ss.Align) != 0 {
		ds.Align = ss.Align[0]
	}

	// Base type.
	ts := &ds.Type
	var base BaseSpec
	for i, b := range ss.Base {
		if i == 0 {
			base = b
			continue
		}
		r.Errorf(diag.ConflictingBaseType, b.Tok.Pos, "cannot combine '%s' with previous '%s' declaration specifier", b.Tok.Val, base.Tok.Val)
	}
	ts.Base = base.Kind
	ts.Tag = base.Tag
	ts.TagBody = base.Body
	if base.Kind == BaseTypedef {
		ts.Typedef = base.Sym
	}
	if base.Kind == BaseAtomic {
		ts.Atomic = base.Type
	}

	// _Complex and _Imaginary.
	var complexTok *cpp.Token
	for i, t := range ss.Complex {
		if i == 0 {
			complexTok = t
			ts.Complex = t.Kind == cpp.COMPLEX
			ts.Imaginary = t.Kind == cpp.IMAGINARY
			continue
		}
		r.Errorf(diag.DuplicateModifier, t.Pos, "duplicate '%s'", t.Val)
	}
	if complexTok != nil {
		switch ts.Base {
		case BaseNone:
			r.Warnf(diag.ImplicitInt, complexTok.Pos, "plain '%s' requires a type specifier; assuming '%s double'", complexTok.Val, complexTok.Val)
			ts.Base = BaseDouble
		case BaseFloat, BaseDouble:
		default:
			r.Errorf(diag.IncompatibleModifier, complexTok.Pos, "'%s' cannot be combined with '%s'", complexTok.Val, base.Tok.Val)
			ts.Complex, ts.Imaginary = false, false
		}
	}

	// signed / unsigned.
	for i, t := range ss.Sign {
		if i != 0 {
			r.Errorf(diag.DuplicateModifier, t.Pos, "duplicate '%s'", t.Val)
			continue
		}
		switch ts.Base {
		case BaseNone, BaseInt, BaseChar:
			ts.Signed = t.Kind == cpp.SIGNED
			ts.Unsigned = t.Kind == cpp.UNSIGNED
		default:
			r.Errorf(diag.IncompatibleModifier, t.Pos, "'%s' cannot be applied to '%s'", t.Val, baseSpelling(ts, base))
		}
	}

	// short / long. Sequence first, then the base it applies to.
	var longLongTok *cpp.Token
	for _, t := range ss.Width {
		switch {
		case t.Kind == cpp.SHORT && ts.Width == WidthNone:
			ts.Width = WidthShort
		case t.Kind == cpp.LONG && ts.Width == WidthNone:
			ts.Width = WidthLong
		case t.Kind == cpp.LONG && ts.Width == WidthLong:
			ts.Width = WidthLongLong
			longLongTok = t
		default:
			r.Errorf(diag.InvalidWidthCombination, t.Pos, "'%s' is invalid after '%s'", t.Val, ts.Width)
		}
	}
	if ts.Width != WidthNone {
		switch ts.Base {
		case BaseNone, BaseInt:
		case BaseDouble:
			if ts.Width == WidthLongLong {
				r.Errorf(diag.InvalidWidthCombination, longLongTok.Pos, "'long long double' is invalid")
				ts.Width = WidthLong
			} else if ts.Width == WidthShort {
				r.Errorf(diag.InvalidWidthCombination, ss.Width[0].Pos, "'short double' is invalid")
				ts.Width = WidthNone
			}
		default:
			r.Errorf(diag.InvalidWidthCombination, ss.Width[0].Pos, "'%s' cannot be combined with '%s'", ts.Width, baseSpelling(ts, base))
			ts.Width = WidthNone
		}
	}

	if !ss.HasType() {
		ds.Implicit = true
		r.Warnf(diag.ImplicitInt, ss.Pos, "type specifier missing, defaults to 'int'")
	}

	ds.CType = Qualify(ts.cType(opts), ds.Quals)
	return ds
}

func (w Width) String() string {
	switch w {
	case WidthShort:
		return "short"
	case WidthLong:
		return "long"
	case WidthLongLong:
		return "long long"
	}
	return "nothing"
}

func baseSpelling(ts *TypeSpec, base BaseSpec) string {
	if ts.Base != base.Kind && ts.Base == BaseDouble {
		// Implied by _Complex or _Imaginary.
		switch {
		case ts.Complex:
			return "_Complex double"
		case ts.Imaginary:
			return "_Imaginary double"
		}
		return "double"
	}
	switch base.Kind {
	case BaseTag:
		return base.Tag.Type.String()
	case BaseNone:
		return "int"
	}
	return base.Tok.Val
}

// cType builds the type named by the reduced specifiers.
func (ts *TypeSpec) cType(opts ResolveOptions) CType {
	var prim *Primitive
	switch ts.Base {
	case BaseVoid:
		return CVoid
	case BaseBool:
		return CBool
	case BaseTag:
		return ts.Tag.Type
	case BaseTypedef:
		return ts.Typedef.Type
	case BaseAtomic:
		return Qualify(ts.Atomic, QAtomic)
	case BaseChar:
		switch {
		case ts.Unsigned:
			prim = CUChar
		case ts.Signed:
			prim = CSChar
		case opts.SignedChar:
			prim = CChar
		default:
			prim = CCharUnsigned
		}
	case BaseFloat:
		prim = CFloat
	case BaseDouble:
		prim = CDouble
		if ts.Width == WidthLong {
			prim = CLDouble
		}
	default:
		switch ts.Width {
		case WidthShort:
			prim = pickSign(ts.Unsigned, CShort, CUShort)
		case WidthLong:
			prim = pickSign(ts.Unsigned, CLong, CULong)
		case WidthLongLong:
			prim = pickSign(ts.Unsigned, CLLong, CULLong)
		default:
			prim = pickSign(ts.Unsigned, CInt, CUInt)
		}
	}
	if ts.Complex || ts.Imaginary {
		return &Complex{Elem: prim, Imaginary: ts.Imaginary}
	}
	return prim
}

func pickSign(unsigned bool, s, u *Primitive) *Primitive {
	if unsigned {
		return u
	}
	return s
}
