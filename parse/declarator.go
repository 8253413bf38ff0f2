package parse

import (
	"github.com/tmikov/c99/cpp"
	"github.com/tmikov/c99/diag"
)

// Declarator
// ----------
//
// A declarator tree mirrors the type derivations of the declared entity:
// the root is the outermost derivation and the chain ends in an *Ident.
//
// e.g.
// int *a[10];    Array -> Pointer -> Ident(a)      array of pointers
// int (*a)[10];  Pointer -> Array -> Ident(a)      pointer to an array
type Declarator interface {
	Node
	// Child returns the next derivation towards the identifier, nil at the leaf.
	Child() Declarator
	setChild(d Declarator)
}

// Ident is the leaf of a declarator. Name is empty in abstract declarators.
type Ident struct {
	Pos  cpp.FilePos
	Name string
}

type Pointer struct {
	Pos   cpp.FilePos
	Quals Qualifiers
	Inner Declarator
}

type Array struct {
	Pos cpp.FilePos
	// Size expression, nil for [] and [*].
	Len Node
	// Folded Len, -1 when unknown.
	Size   int64
	Quals  Qualifiers
	Static bool
	// [*], a variable length array of unspecified size.
	Star  bool
	Inner Declarator
}

// HasParamForm reports whether the suffix uses a form only allowed on
// parameters.
func (a *Array) HasParamForm() bool {
	return a.Quals != 0 || a.Static || a.Star
}

type Param struct {
	Pos   cpp.FilePos
	Specs *SpecifierSet
	Spec  *DeclSpec
	Decl  Declarator
	Type  CType
	Sym   *Symbol
}

func (p *Param) Name() string { return DeclaratorName(p.Decl) }

type Function struct {
	Pos    cpp.FilePos
	Params []*Param
	// Identifier list of an old style declarator.
	Idents   []*cpp.Token
	Variadic bool
	// No parameter type list: "f()" or "f(a, b)".
	OldStyle bool
	Inner    Declarator

	// Array suffixes inside Params whose legality depends on whether this
	// function is being defined.
	pending []pendingArray
}

type pendingArray struct {
	arr       *Array
	outermost bool
}

// BadDeclarator replaces a declarator that could not be parsed.
type BadDeclarator struct {
	Pos cpp.FilePos
}

func (d *Ident) GetPos() cpp.FilePos         { return d.Pos }
func (d *Pointer) GetPos() cpp.FilePos       { return d.Pos }
func (d *Array) GetPos() cpp.FilePos         { return d.Pos }
func (d *Function) GetPos() cpp.FilePos      { return d.Pos }
func (d *BadDeclarator) GetPos() cpp.FilePos { return d.Pos }
func (p *Param) GetPos() cpp.FilePos         { return p.Pos }

func (d *Ident) Child() Declarator         { return nil }
func (d *Pointer) Child() Declarator       { return d.Inner }
func (d *Array) Child() Declarator         { return d.Inner }
func (d *Function) Child() Declarator      { return d.Inner }
func (d *BadDeclarator) Child() Declarator { return nil }

func (d *Ident) setChild(Declarator)         {}
func (d *Pointer) setChild(c Declarator)     { d.Inner = c }
func (d *Array) setChild(c Declarator)       { d.Inner = c }
func (d *Function) setChild(c Declarator)    { d.Inner = c }
func (d *BadDeclarator) setChild(Declarator) {}

// Leaf returns the innermost node of d.
func Leaf(d Declarator) Declarator {
	for d.Child() != nil {
		d = d.Child()
	}
	return d
}

// DeclaratorName returns the identifier declared by d, "" if abstract or bad.
func DeclaratorName(d Declarator) string {
	if id, ok := Leaf(d).(*Ident); ok {
		return id.Name
	}
	return ""
}

// DeclaratorPos returns the position of the declared identifier.
func DeclaratorPos(d Declarator) cpp.FilePos {
	return Leaf(d).GetPos()
}

// IsBad reports whether d contains a recovery node.
func IsBad(d Declarator) bool {
	_, ok := Leaf(d).(*BadDeclarator)
	return ok
}

// rootFunction returns d as a function declarator if the declared entity is
// a function.
func rootFunction(d Declarator) *Function {
	f, _ := d.(*Function)
	return f
}

// isBareLeaf reports whether d has no derivations.
func isBareLeaf(d Declarator) bool {
	return d.Child() == nil
}

// parseDeclarator parses
//
//	pointer* direct-declarator suffix*
//
// Pointers bind to the left, suffixes to the right, and a parenthesized
// group nests inside both: the derivations written at this level are
// inserted at the leaf of the group's tree.
func (p *parser) parseDeclarator(ctx declCtx) Declarator {
	type ptr struct {
		pos   cpp.FilePos
		quals Qualifiers
	}
	var ptrs []ptr
	for p.curt.Kind == '*' {
		pos := p.curt.Pos
		p.next()
		ptrs = append(ptrs, ptr{pos, p.parseTypeQualifiers()})
	}

	var group Declarator
	var leaf Declarator
	p.skipAttributes()
	switch {
	case p.curt.Kind == cpp.IDENT:
		leaf = &Ident{Pos: p.curt.Pos, Name: p.curt.Val}
		p.next()
	case p.curt.Kind == '(' && !p.parenStartsParams(ctx):
		p.next()
		group = p.parseDeclarator(ctx)
		if !p.expect(')') {
			return &BadDeclarator{Pos: p.curt.Pos}
		}
		if IsBad(group) {
			return group
		}
		leaf = Leaf(group)
	case ctx.abstractOK():
		leaf = &Ident{Pos: p.curt.Pos}
	default:
		p.syntaxError(p.curt.Pos, "expected identifier or '(' before %s", describe(p.curt))
		return &BadDeclarator{Pos: p.curt.Pos}
	}

	// The first suffix is the outermost derivation only if nothing written
	// inside a group already took that place.
	sctx := ctx
	sctx.outermost = ctx.outermost && (group == nil || isBareLeaf(group))
	var suffixes []Declarator
	for p.curt.Kind == '[' || p.curt.Kind == '(' {
		var s Declarator
		if p.curt.Kind == '[' {
			s = p.parseArraySuffix(sctx)
		} else {
			s = p.parseFunctionSuffix()
		}
		if s == nil {
			return &BadDeclarator{Pos: p.curt.Pos}
		}
		suffixes = append(suffixes, s)
		sctx = sctx.inner()
	}
	p.skipAsmLabel()
	p.skipAttributes()

	cur := leaf
	for _, pt := range ptrs {
		cur = &Pointer{Pos: pt.pos, Quals: pt.quals, Inner: cur}
	}
	for i := len(suffixes) - 1; i >= 0; i-- {
		suffixes[i].setChild(cur)
		cur = suffixes[i]
	}
	if group == nil || isBareLeaf(group) {
		return cur
	}
	// Splice this level's chain in place of the group's leaf.
	n := group
	for n.Child() != leaf {
		n = n.Child()
	}
	n.setChild(cur)
	return group
}

func (p *parser) parseTypeQualifiers() Qualifiers {
	var q Qualifiers
	for {
		switch p.curt.Kind {
		case cpp.CONST:
			q |= QConst
		case cpp.VOLATILE:
			q |= QVolatile
		case cpp.RESTRICT:
			q |= QRestrict
		case cpp.ATOMIC:
			q |= QAtomic
		case cpp.ATTRIBUTE:
			p.skipAttributes()
			continue
		default:
			return q
		}
		p.next()
	}
}

// parenStartsParams decides what a '(' in the direct declarator position
// opens. Only where a declarator may be abstract can it open a parameter
// list, when it is followed by ')', a specifier keyword or a typedef name.
// Otherwise it groups an inner declarator.
func (p *parser) parenStartsParams(ctx declCtx) bool {
	if !ctx.abstractOK() {
		return false
	}
	t := p.nextt
	switch {
	case t.Kind == ')', t.Kind == cpp.ELLIPSIS:
		return true
	case t.Kind == cpp.IDENT:
		return p.scope.IsTypeName(t.Val)
	}
	return isDeclSpecKeyword(t.Kind)
}

func (p *parser) parseArraySuffix(ctx declCtx) Declarator {
	arr := &Array{Pos: p.curt.Pos, Size: -1}
	p.expect('[')
loop:
	for {
		switch p.curt.Kind {
		case cpp.STATIC:
			arr.Static = true
			p.next()
		case cpp.CONST, cpp.VOLATILE, cpp.RESTRICT, cpp.ATOMIC:
			arr.Quals |= p.parseTypeQualifiers()
		default:
			break loop
		}
	}
	if p.curt.Kind == '*' && p.nextt.Kind == ']' {
		arr.Star = true
		p.next()
	} else if p.curt.Kind != ']' {
		arr.Len = p.parseAssignmentExpression()
		if v, err := Fold(arr.Len); err == nil {
			arr.Size = v.Val
			if v.Val < 0 {
				p.rep.Errorf(diag.InvalidArraySize, arr.Len.GetPos(), "array size is negative")
			}
		}
	}
	if arr.Static && arr.Len == nil {
		p.syntaxError(p.curt.Pos, "'static' requires an array size")
	}
	if !p.expect(']') {
		return nil
	}
	if arr.HasParamForm() {
		p.checkArrayForm(arr, ctx)
	}
	return arr
}

// checkArrayForm applies the array policy to a suffix using a parameter
// only form. Checks on parameters wait for the enclosing function
// declarator to be resolved.
func (p *parser) checkArrayForm(arr *Array, ctx declCtx) {
	if ctx.kind == declParam && p.curFunc != nil {
		p.curFunc.pending = append(p.curFunc.pending, pendingArray{arr, ctx.outermost})
		return
	}
	p.applyArrayPolicy(arr, ctx.arrayContext())
}

func (p *parser) applyArrayPolicy(arr *Array, c ArrayContext) {
	if p.opts.ArrayPolicy.Allows(c) {
		return
	}
	what := "type qualifiers"
	switch {
	case arr.Static:
		what = "'static'"
	case arr.Star:
		what = "'[*]'"
	}
	p.rep.Errorf(diag.InvalidArrayQualifierContext, arr.Pos, "%s in array declarator not allowed in %s", what, c)
}

// resolveArrayChecks settles the pending array checks of every function
// declarator in d. Only the root function of a definition has definition
// parameters.
func (p *parser) resolveArrayChecks(d Declarator, isDef bool) {
	root := true
	for n := d; n != nil; n = n.Child() {
		if f, ok := n.(*Function); ok {
			c := ArrayPrototypeParam
			if root && isDef {
				c = ArrayDefinitionParam
			}
			for _, pa := range f.pending {
				if pa.outermost {
					p.applyArrayPolicy(pa.arr, c)
				} else {
					p.applyArrayPolicy(pa.arr, ArrayInnerDimension)
				}
			}
			f.pending = nil
			for _, prm := range f.Params {
				if prm.Decl != nil {
					p.resolveArrayChecks(prm.Decl, false)
				}
			}
		}
		root = false
	}
}

func (p *parser) parseFunctionSuffix() Declarator {
	fn := &Function{Pos: p.curt.Pos}
	p.expect('(')
	switch {
	case p.curt.Kind == ')':
		fn.OldStyle = true
	case p.curt.Kind == cpp.IDENT && !p.scope.IsTypeName(p.curt.Val) &&
		(p.nextt.Kind == ',' || p.nextt.Kind == ')'):
		p.parseIdentList(fn)
	default:
		p.parseParamList(fn)
	}
	if !p.expect(')') {
		return nil
	}
	return fn
}

// parseIdentList parses an old style identifier list. An identifier that is
// followed by another identifier or '*' must have been meant as a type; the
// rest of the list is then parsed as parameter declarations.
func (p *parser) parseIdentList(fn *Function) {
	fn.OldStyle = true
	seen := make(map[string]*cpp.Token)
	for p.curt.Kind == cpp.IDENT {
		t := p.curt
		if prev, ok := seen[t.Val]; ok {
			p.rep.Report(diag.DuplicateParameterName, diag.Error, t.Pos, []cpp.FilePos{prev.Pos},
				"redefinition of parameter '%s'", t.Val)
		} else {
			seen[t.Val] = t
		}
		fn.Idents = append(fn.Idents, t)
		p.next()
		if p.curt.Kind != ',' {
			break
		}
		p.next()
		if p.curt.Kind != cpp.IDENT || p.scope.IsTypeName(p.curt.Val) ||
			p.nextt.Kind == cpp.IDENT || p.nextt.Kind == '*' {
			if p.startsDeclaration() || p.curt.Kind == cpp.ELLIPSIS {
				p.rep.Errorf(diag.UnexpectedToken, p.curt.Pos, "parameter declarations mixed with an identifier list")
			}
			p.parseParamList(fn)
			return
		}
	}
	if p.curt.Kind != ')' {
		p.syntaxError(p.curt.Pos, "expected identifier before %s", describe(p.curt))
	}
}

// parseParamList parses a parameter type list into fn. The parameters are
// bound in their own scope which is left when the list ends; a function
// definition rebinds them for its body.
func (p *parser) parseParamList(fn *Function) {
	outer := p.curFunc
	p.curFunc = fn
	defer func() { p.curFunc = outer }()

	p.scope.With(ScopeParam, func(s *Scope) {
		for _, t := range fn.Idents {
			p.scope.Bind(t.Val, Ordinary, t.Pos, nil)
		}
		for {
			if p.curt.Kind == cpp.ELLIPSIS {
				fn.Variadic = true
				p.next()
				break
			}
			if fn.OldStyle && p.curt.Kind == cpp.IDENT && !p.scope.IsTypeName(p.curt.Val) &&
				(p.nextt.Kind == ',' || p.nextt.Kind == ')') {
				p.addOldStyleIdent(fn, s)
				if p.curt.Kind != ',' {
					return
				}
				p.next()
				continue
			}
			prm := p.parseParameterDeclaration(s)
			if prm == nil {
				return
			}
			fn.Params = append(fn.Params, prm)
			if p.curt.Kind != ',' {
				break
			}
			p.next()
		}
	})
	p.checkVoidParams(fn)
}

// addOldStyleIdent adds a plain identifier found in a mixed list.
func (p *parser) addOldStyleIdent(fn *Function, s *Scope) {
	t := p.curt
	p.next()
	if prev := s.LookupLocal(t.Val); prev != nil {
		p.rep.Report(diag.DuplicateParameterName, diag.Error, t.Pos, []cpp.FilePos{prev.Pos},
			"redefinition of parameter '%s'", t.Val)
		return
	}
	fn.Idents = append(fn.Idents, t)
	p.scope.Bind(t.Val, Ordinary, t.Pos, nil)
}

func (p *parser) parseParameterDeclaration(s *Scope) *Param {
	prm := &Param{Pos: p.curt.Pos}
	switch {
	case p.curt.Kind == cpp.IDENT && !p.scope.IsTypeName(p.curt.Val):
		t := p.curt
		if p.nextt.Kind == cpp.IDENT || p.nextt.Kind == '*' {
			p.rep.Errorf(diag.UnknownTypeName, t.Pos, "unknown type name '%s'", t.Val)
			prm.Specs = p.unknownTypeSpecs()
			break
		}
		// A parameter name without a type, declared as int.
		p.rep.Errorf(diag.UnknownTypeName, t.Pos, "type specifier missing for parameter '%s'", t.Val)
		intTok := &cpp.Token{Kind: cpp.INT, Val: "int", Pos: t.Pos}
		prm.Specs = &SpecifierSet{Pos: t.Pos, Base: []BaseSpec{{Tok: intTok, Kind: BaseInt}}}
	case p.startsDeclaration():
		prm.Specs = p.parseDeclSpecs()
	default:
		p.syntaxError(p.curt.Pos, "expected parameter declarator before %s", describe(p.curt))
		return nil
	}
	prm.Spec = p.resolveSpecs(prm.Specs)
	switch prm.Spec.Storage {
	case SC_NONE:
	case SC_REGISTER:
		p.rep.Warnf(diag.InvalidStorageClass, prm.Specs.Storage[0].Pos, "'register' on a parameter is ignored")
	default:
		p.rep.Errorf(diag.InvalidStorageClass, prm.Specs.Storage[0].Pos, "invalid storage class '%s' for a parameter", prm.Spec.Storage)
	}
	prm.Decl = p.parseDeclarator(declCtx{kind: declParam, outermost: true})
	if IsBad(prm.Decl) {
		return prm
	}
	prm.Type = p.declType(prm.Decl, prm.Spec.CType)
	if name := prm.Name(); name != "" {
		pos := DeclaratorPos(prm.Decl)
		if prev := s.LookupLocal(name); prev != nil {
			p.rep.Report(diag.DuplicateParameterName, diag.Error, pos, []cpp.FilePos{prev.Pos},
				"redefinition of parameter '%s'", name)
		} else {
			prm.Sym, _ = p.scope.Bind(name, Ordinary, pos, prm.Type)
		}
	}
	return prm
}

// checkVoidParams checks the "(void)" form.
func (p *parser) checkVoidParams(fn *Function) {
	for _, prm := range fn.Params {
		if prm.Type == nil || !IsVoidType(prm.Type) {
			continue
		}
		switch {
		case prm.Name() != "":
			p.rep.Errorf(diag.InvalidParameter, DeclaratorPos(prm.Decl), "parameter '%s' has incomplete type 'void'", prm.Name())
		case len(fn.Params) != 1 || fn.Variadic:
			p.rep.Errorf(diag.InvalidParameter, prm.Pos, "'void' must be the first and only parameter if specified")
		case prm.Spec.Quals != 0:
			p.rep.Errorf(diag.InvalidParameter, prm.Pos, "'void' as parameter must not have type qualifiers")
		}
	}
}

// isVoidParamList reports whether fn is "(void)".
func isVoidParamList(fn *Function) bool {
	return len(fn.Params) == 1 && fn.Params[0].Type != nil && IsVoidType(fn.Params[0].Type) &&
		fn.Params[0].Name() == ""
}

// declType computes the type of the entity declared by d with the given
// base type, reporting invalid derivations.
func (p *parser) declType(d Declarator, base CType) CType {
	switch d := d.(type) {
	case *Pointer:
		return Qualify(&Ptr{PointsTo: p.declType(d.Inner, base)}, d.Quals)
	case *Array:
		elem := p.declType(d.Inner, base)
		if IsFunctionType(elem) {
			p.rep.Errorf(diag.InvalidDerivation, d.Pos, "declaration as array of functions")
			return &Ptr{PointsTo: elem}
		}
		dim := -1
		if d.Size >= 0 {
			dim = int(d.Size)
		}
		return &ArrayType{MemberType: elem, Dim: dim}
	case *Function:
		ret := p.declType(d.Inner, base)
		switch {
		case IsArrayType(ret):
			p.rep.Errorf(diag.InvalidDerivation, d.Pos, "function cannot return array type '%s'", ret)
			ret = &Ptr{PointsTo: ret.(*ArrayType).MemberType}
		case IsFunctionType(ret):
			p.rep.Errorf(diag.InvalidDerivation, d.Pos, "function cannot return function type '%s'", ret)
			ret = &Ptr{PointsTo: ret}
		}
		ft := &FunctionType{RetType: ret, IsVarArg: d.Variadic, NoProto: d.OldStyle && len(d.Params) == 0}
		if !isVoidParamList(d) {
			for _, prm := range d.Params {
				ft.ArgTypes = append(ft.ArgTypes, adjustParamType(prm.Type))
				ft.ArgNames = append(ft.ArgNames, prm.Name())
			}
		}
		return ft
	}
	return base
}

// adjustParamType applies the parameter adjustments: arrays decay to
// pointers and functions to function pointers.
func adjustParamType(t CType) CType {
	switch t := Unqualified(t).(type) {
	case nil:
		return CInt
	case *ArrayType:
		return &Ptr{PointsTo: t.MemberType}
	case *FunctionType:
		return &Ptr{PointsTo: t}
	}
	return t
}
