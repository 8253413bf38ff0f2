package parse

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/tmikov/c99/cpp"
	"github.com/tmikov/c99/diag"
)

// TokenSource supplies the tokens of one translation unit. *cpp.Lexer is
// one. After the end of input it keeps returning EOF.
type TokenSource interface {
	Next() (*cpp.Token, error)
}

type Options struct {
	ArrayPolicy ArrayPolicy
	// Plain char is signed.
	SignedChar bool
	// Diagnostic kinds that are dropped.
	Disabled         []diag.Kind
	WarningsAsErrors bool
	// Debug output, scope bindings among others. Defaults to discarding.
	Logger *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		ArrayPolicy: DefaultArrayPolicy(),
		SignedChar:  true,
	}
}

type parser struct {
	scope       *Table
	rep         *diag.Reporter
	opts        Options
	log         *slog.Logger
	src         TokenSource
	curt, nextt *cpp.Token
	// Function declarator whose parameter list is being parsed.
	curFunc *Function
	// A syntax error was reported and the parser has not yet
	// resynchronized; further syntax errors are not reported.
	recovering bool
}

// parseErrorBreakOut unwinds the parser when the token source fails.
type parseErrorBreakOut struct {
	err error
}

// Parse parses a translation unit. The diagnostics are returned in the order
// they were found. The error is only set when the token source failed, in
// which case the partial results are still returned.
func Parse(src TokenSource, opts Options) (tu *TranslationUnit, diags []diag.Diagnostic, errRet error) {
	p := &parser{}
	p.src = src
	p.opts = opts
	p.log = opts.Logger
	if p.log == nil {
		p.log = slog.New(slog.DiscardHandler)
	}
	p.scope = NewTable(p.log)
	p.rep = diag.NewReporter()
	p.rep.WarningsAsErrors = opts.WarningsAsErrors
	for _, k := range opts.Disabled {
		p.rep.Disable(k)
	}
	tu = &TranslationUnit{}

	defer func() {
		if e := recover(); e != nil {
			peb := e.(parseErrorBreakOut) // Will re-panic if not a breakout.
			errRet = peb.err
			diags = p.rep.Diagnostics()
		}
	}()
	p.next()
	p.next()
	tu.File = p.curt.Pos.File
	p.parseTranslationUnit(tu)
	return tu, p.rep.Diagnostics(), nil
}

func (p *parser) fatal(err error) {
	if os.Getenv("CCDEBUG") == "true" {
		err = fmt.Errorf("%w\n%s", err, debug.Stack())
	}
	panic(parseErrorBreakOut{err})
}

// syntaxError reports an unexpected token and puts the parser in recovery
// mode until the next synchronization point.
func (p *parser) syntaxError(pos cpp.FilePos, m string, vals ...interface{}) {
	if p.recovering {
		return
	}
	p.recovering = true
	p.rep.Errorf(diag.UnexpectedToken, pos, m, vals...)
}

func (p *parser) expect(k cpp.TokenKind) bool {
	if p.curt.Kind != k {
		p.syntaxError(p.curt.Pos, "expected %s before %s", k, describe(p.curt))
		return false
	}
	p.next()
	return true
}

// expectSemi consumes the ';' that ends a declaration or statement.
// Reaching it ends error recovery.
func (p *parser) expectSemi() {
	if p.curt.Kind != ';' {
		p.syntaxError(p.curt.Pos, "expected ';' before %s", describe(p.curt))
		return
	}
	p.next()
	p.recovering = false
}

func (p *parser) next() {
	p.curt = p.nextt
	t, err := p.src.Next()
	if err != nil {
		p.fatal(err)
	}
	p.nextt = t
}

func describe(t *cpp.Token) string {
	switch t.Kind {
	case cpp.EOF:
		return "end of file"
	case cpp.IDENT:
		return fmt.Sprintf("identifier '%s'", t.Val)
	case cpp.INT_CONSTANT, cpp.FLOAT_CONSTANT, cpp.CHAR_CONSTANT, cpp.STRING:
		return t.Val
	}
	return "'" + t.Val + "'"
}

// synchronize skips to the end of the current declaration or statement:
// past the next ';' or past a balanced '{...}' at the same level, or up to
// an unmatched '}'.
func (p *parser) synchronize() {
	depth := 0
	for p.curt.Kind != cpp.EOF {
		switch p.curt.Kind {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				p.recovering = false
				return
			}
			depth--
			if depth == 0 {
				p.next()
				p.recovering = false
				return
			}
		case ';':
			if depth == 0 {
				p.next()
				p.recovering = false
				return
			}
		}
		p.next()
	}
	p.recovering = false
}

func (p *parser) parseTranslationUnit(tu *TranslationUnit) {
	for p.curt.Kind != cpp.EOF {
		if n := p.parseExternalDeclaration(); n != nil {
			tu.Decls = append(tu.Decls, n)
		}
		if p.recovering {
			p.synchronize()
		}
	}
}

func (p *parser) parseExternalDeclaration() Node {
	switch p.curt.Kind {
	case ';':
		p.next()
		return nil
	case cpp.ASM:
		n := p.parseAsm()
		p.expectSemi()
		return n
	case cpp.STATIC_ASSERT, cpp.PRAGMA:
		p.skipBalancedDirective()
		return nil
	case cpp.IDENT:
		// Implicit int: "main() {...}", "x;".
		return p.parseDeclaration(declFile)
	}
	if !p.startsDeclaration() {
		p.syntaxError(p.curt.Pos, "expected declaration before %s", describe(p.curt))
		if p.curt.Kind == '{' {
			return nil
		}
		// Skip stray tokens up to something that can start a declaration.
		for p.curt.Kind != cpp.EOF && !p.startsDeclaration() {
			semi := p.curt.Kind == ';'
			p.next()
			if semi {
				break
			}
		}
		p.recovering = false
		return nil
	}
	return p.parseDeclaration(declFile)
}

// isDeclSpecKeyword reports whether k can only start declaration specifiers.
func isDeclSpecKeyword(k cpp.TokenKind) bool {
	switch k {
	case cpp.AUTO, cpp.REGISTER, cpp.EXTERN, cpp.STATIC, cpp.TYPEDEF, cpp.THREAD_LOCAL,
		cpp.CONST, cpp.VOLATILE, cpp.RESTRICT, cpp.ATOMIC, cpp.INLINE, cpp.NORETURN, cpp.ALIGNAS,
		cpp.VOID, cpp.CHAR, cpp.SHORT, cpp.INT, cpp.LONG, cpp.FLOAT, cpp.DOUBLE, cpp.SIGNED,
		cpp.UNSIGNED, cpp.BOOL, cpp.COMPLEX, cpp.IMAGINARY, cpp.STRUCT, cpp.UNION, cpp.ENUM:
		return true
	}
	return false
}

// isTypeNameKeyword reports whether k can start a type name: a declaration
// specifier other than a storage class or function specifier.
func isTypeNameKeyword(k cpp.TokenKind) bool {
	switch k {
	case cpp.AUTO, cpp.REGISTER, cpp.EXTERN, cpp.STATIC, cpp.TYPEDEF, cpp.THREAD_LOCAL,
		cpp.INLINE, cpp.NORETURN, cpp.ALIGNAS:
		return false
	}
	return isDeclSpecKeyword(k)
}

// startsDeclaration reports whether the current token begins declaration
// specifiers. A typedef name followed by ':' is a label.
func (p *parser) startsDeclaration() bool {
	switch p.curt.Kind {
	case cpp.EXTENSION:
		return true
	case cpp.IDENT:
		return p.nextt.Kind != ':' && p.scope.IsTypeName(p.curt.Val)
	}
	return isDeclSpecKeyword(p.curt.Kind)
}

// startsTypeName reports whether t begins a type name.
func (p *parser) startsTypeName(t *cpp.Token) bool {
	if t.Kind == cpp.IDENT {
		return p.scope.IsTypeName(t.Val)
	}
	return isTypeNameKeyword(t.Kind)
}

func (p *parser) parseDeclSpecs() *SpecifierSet {
	ss := &SpecifierSet{Pos: p.curt.Pos}
	p.parseDeclSpecsInto(ss)
	return ss
}

// parseDeclSpecsInto accumulates specifiers until the first token that
// cannot continue them. An identifier is taken as a typedef name only while
// no base type has been seen, otherwise it starts the declarator.
func (p *parser) parseDeclSpecsInto(ss *SpecifierSet) {
	for {
		t := p.curt
		switch t.Kind {
		case cpp.ATOMIC:
			if p.nextt.Kind != '(' {
				ss.Add(t)
				p.next()
				continue
			}
			p.next()
			p.next()
			ty := p.parseTypeName()
			p.expect(')')
			ss.Base = append(ss.Base, BaseSpec{Tok: t, Kind: BaseAtomic, Type: ty})
		case cpp.STRUCT, cpp.UNION:
			tag, body := p.parseStructOrUnion()
			ss.Base = append(ss.Base, BaseSpec{Tok: t, Kind: BaseTag, Tag: tag, Body: body})
		case cpp.ENUM:
			tag, body := p.parseEnum()
			ss.Base = append(ss.Base, BaseSpec{Tok: t, Kind: BaseTag, Tag: tag, Body: body})
		case cpp.ALIGNAS:
			p.next()
			if !p.expect('(') {
				return
			}
			if p.startsTypeName(p.curt) {
				pos := p.curt.Pos
				ss.Align = append(ss.Align, &Sizeof{Pos: pos, Align: true, Type: p.parseTypeName()})
			} else {
				ss.Align = append(ss.Align, p.parseConditionalExpression())
			}
			p.expect(')')
		case cpp.ATTRIBUTE:
			p.skipAttributes()
		case cpp.EXTENSION:
			p.next()
		case cpp.IDENT:
			if len(ss.Base) != 0 {
				return
			}
			sym := p.scope.Lookup(t.Val)
			if sym == nil || sym.Kind != TypeName {
				return
			}
			ss.Base = append(ss.Base, BaseSpec{Tok: t, Kind: BaseTypedef, Type: sym.Type, Sym: sym})
			p.next()
		default:
			if !ss.Add(t) {
				return
			}
			p.next()
		}
	}
}

// atUnknownTypeName reports whether the current identifier is used as a
// type although it does not name one, as in "foo bar;".
func (p *parser) atUnknownTypeName() bool {
	return p.curt.Kind == cpp.IDENT && p.nextt.Kind == cpp.IDENT && !p.scope.IsTypeName(p.curt.Val)
}

// unknownTypeSpecs parses specifiers that start with an identifier which is
// not a type name, treating the identifier as a typedef of int.
func (p *parser) unknownTypeSpecs() *SpecifierSet {
	t := p.curt
	ss := &SpecifierSet{Pos: t.Pos}
	unknown := &Symbol{Name: t.Val, Kind: TypeName, Pos: t.Pos, Type: CInt}
	ss.Base = append(ss.Base, BaseSpec{Tok: t, Kind: BaseTypedef, Type: CInt, Sym: unknown})
	p.next()
	p.parseDeclSpecsInto(ss)
	return ss
}

func (p *parser) resolveSpecs(ss *SpecifierSet) *DeclSpec {
	return ss.Resolve(p.rep, ResolveOptions{SignedChar: p.opts.SignedChar})
}

// parseDeclaration parses a declaration, or at file scope possibly a
// function definition.
func (p *parser) parseDeclaration(kind declKind) Node {
	decl := &Declaration{Pos: p.curt.Pos}
	if p.atUnknownTypeName() {
		p.rep.Errorf(diag.UnknownTypeName, p.curt.Pos, "unknown type name '%s'", p.curt.Val)
		decl.Specs = p.unknownTypeSpecs()
	} else {
		decl.Specs = p.parseDeclSpecs()
	}
	decl.Spec = p.resolveSpecs(decl.Specs)
	p.checkDeclSpecs(decl, kind)
	if p.curt.Kind == ';' {
		p.next()
		return decl
	}
	for first := true; ; first = false {
		d := p.parseDeclarator(declCtx{kind: kind, outermost: true})
		id := &InitDeclarator{Decl: d}
		decl.Decls = append(decl.Decls, id)
		if IsBad(d) {
			return decl
		}
		id.Type = p.declType(d, decl.Spec.CType)
		if fn := rootFunction(d); fn != nil && first && kind == declFile && p.startsFunctionBody(fn) {
			return p.parseFunctionDef(decl, id, fn)
		}
		p.resolveArrayChecks(d, false)
		p.checkOldStyle(d)
		p.checkObjectType(decl, id, kind)
		// Register the name before the initializer and the next declarator.
		p.bindDeclarator(decl, id, kind)
		if p.curt.Kind == '=' {
			eqPos := p.curt.Pos
			p.next()
			if decl.Spec.Storage == SC_TYPEDEF {
				p.rep.Errorf(diag.InvalidStorageClass, eqPos, "illegal initializer (only variables can be initialized)")
			}
			id.Init = p.parseInitializer()
		}
		if p.curt.Kind != ',' {
			break
		}
		p.next()
	}
	if p.curt.Kind != ';' {
		p.syntaxError(p.curt.Pos, "expected '=', ',' or ';' before %s", describe(p.curt))
		return decl
	}
	p.expectSemi()
	return decl
}

// startsFunctionBody reports whether a function definition follows the
// declarator: a body, or old style parameter declarations.
func (p *parser) startsFunctionBody(fn *Function) bool {
	if p.curt.Kind == '{' {
		return true
	}
	return len(fn.Idents) != 0 && p.startsDeclaration()
}

func (p *parser) checkDeclSpecs(decl *Declaration, kind declKind) {
	if kind != declFile {
		return
	}
	switch decl.Spec.Storage {
	case SC_AUTO, SC_REGISTER:
		p.rep.Errorf(diag.InvalidStorageClass, decl.Specs.Storage[0].Pos, "illegal storage class '%s' on file-scoped declaration", decl.Spec.Storage)
	}
}

// checkOldStyle warns about identifier lists in declarations that are not
// definitions.
func (p *parser) checkOldStyle(d Declarator) {
	for n := d; n != nil; n = n.Child() {
		if f, ok := n.(*Function); ok && len(f.Idents) != 0 {
			p.rep.Warnf(diag.OldStyleDeclaration, f.Pos, "identifier list in a function declaration that is not a definition")
		}
	}
}

// checkObjectType rejects object definitions of incomplete type. A file
// scope struct may still be completed later in the unit.
func (p *parser) checkObjectType(decl *Declaration, id *InitDeclarator, kind declKind) {
	if id.Type == nil || id.Name() == "" || IsFunctionType(id.Type) {
		return
	}
	switch decl.Spec.Storage {
	case SC_TYPEDEF, SC_EXTERN:
		return
	}
	if IsVoidType(id.Type) || (kind == declBlock && isIncompleteObject(id.Type)) {
		p.rep.Errorf(diag.IncompleteType, DeclaratorPos(id.Decl), "variable '%s' has incomplete type '%s'", id.Name(), id.Type)
	}
}

// bindDeclarator enters the declared name into the current scope.
func (p *parser) bindDeclarator(decl *Declaration, id *InitDeclarator, kind declKind) {
	name := id.Name()
	if name == "" {
		return
	}
	symKind := Ordinary
	if decl.Spec.Storage == SC_TYPEDEF {
		symKind = TypeName
	}
	id.Sym = p.bind(name, symKind, DeclaratorPos(id.Decl), id.Type)
}

// bind adds name to the current scope and reports clashes.
func (p *parser) bind(name string, kind SymKind, pos cpp.FilePos, ty CType) *Symbol {
	sym, err := p.scope.Bind(name, kind, pos, ty)
	p.reportRedefinition(err)
	return sym
}

func (p *parser) reportRedefinition(err error) {
	if rerr, ok := err.(*RedefinitionError); ok {
		p.rep.Report(diag.Redefinition, diag.Error, rerr.Pos, []cpp.FilePos{rerr.Prev}, "%s", rerr.Error())
	}
}

func (p *parser) parseFunctionDef(decl *Declaration, id *InitDeclarator, fn *Function) Node {
	def := &FunctionDef{Pos: decl.Pos, Spec: decl.Spec, Decl: id}
	switch decl.Spec.Storage {
	case SC_NONE, SC_EXTERN, SC_STATIC:
	default:
		p.rep.Errorf(diag.InvalidStorageClass, decl.Specs.Storage[0].Pos, "illegal storage class '%s' on function definition", decl.Spec.Storage)
	}
	id.Sym = p.bind(id.Name(), Ordinary, DeclaratorPos(id.Decl), id.Type)
	p.log.Debug("function definition", "name", id.Name(), "type", id.Type.String())

	p.scope.With(ScopeParam, func(s *Scope) {
		for _, prm := range fn.Params {
			if prm.Decl == nil || IsBad(prm.Decl) {
				continue
			}
			name := prm.Name()
			if name == "" {
				if !isVoidParamList(fn) {
					p.rep.Errorf(diag.InvalidParameter, prm.Pos, "parameter name omitted")
				}
				continue
			}
			if s.LookupLocal(name) == nil {
				prm.Sym = p.bind(name, Ordinary, DeclaratorPos(prm.Decl), prm.Type)
			}
		}
		for _, t := range fn.Idents {
			if s.LookupLocal(t.Val) == nil {
				p.bind(t.Val, Ordinary, t.Pos, nil)
			}
		}
		outer := p.curFunc
		p.curFunc = fn
		for p.curt.Kind != '{' && p.curt.Kind != cpp.EOF && !p.recovering {
			if kd := p.parseKRDeclaration(fn, s); kd != nil {
				def.KRDecls = append(def.KRDecls, kd)
			}
		}
		p.curFunc = outer
		p.resolveArrayChecks(id.Decl, true)
		// Identifiers without a declaration are int.
		for _, t := range fn.Idents {
			if sym := s.LookupLocal(t.Val); sym != nil && sym.Type == nil {
				sym.Type = CInt
			}
		}
		if p.recovering {
			return
		}
		def.Body = p.parseCompoundStatement(false)
	})
	return def
}

// parseKRDeclaration parses one old style parameter declaration.
func (p *parser) parseKRDeclaration(fn *Function, s *Scope) *Declaration {
	if !p.startsDeclaration() {
		p.syntaxError(p.curt.Pos, "expected function body after function declarator")
		return nil
	}
	decl := &Declaration{Pos: p.curt.Pos}
	decl.Specs = p.parseDeclSpecs()
	decl.Spec = p.resolveSpecs(decl.Specs)
	switch decl.Spec.Storage {
	case SC_NONE, SC_REGISTER:
	default:
		p.rep.Errorf(diag.InvalidStorageClass, decl.Specs.Storage[0].Pos, "invalid storage class '%s' for a parameter", decl.Spec.Storage)
	}
	for {
		d := p.parseDeclarator(declCtx{kind: declParam, outermost: true})
		id := &InitDeclarator{Decl: d}
		decl.Decls = append(decl.Decls, id)
		if IsBad(d) {
			return decl
		}
		id.Type = adjustParamType(p.declType(d, decl.Spec.CType))
		p.resolveArrayChecks(d, false)
		name := id.Name()
		pos := DeclaratorPos(d)
		if sym := s.LookupLocal(name); sym == nil {
			p.rep.Errorf(diag.InvalidParameter, pos, "parameter named '%s' is missing", name)
		} else if sym.Type != nil {
			p.rep.Report(diag.DuplicateParameterName, diag.Error, pos, []cpp.FilePos{sym.Pos},
				"redefinition of parameter '%s'", name)
		} else {
			sym.Type = id.Type
			id.Sym = sym
		}
		if p.curt.Kind != ',' {
			break
		}
		p.next()
	}
	p.expect(';')
	return decl
}

// parseTypeName parses a type name as in casts and sizeof.
func (p *parser) parseTypeName() CType {
	specs := p.parseDeclSpecs()
	spec := p.resolveSpecs(specs)
	if spec.Storage != SC_NONE {
		p.rep.Errorf(diag.InvalidStorageClass, specs.Storage[0].Pos, "storage class '%s' in a type name", spec.Storage)
	}
	d := p.parseDeclarator(declCtx{kind: declTypeName, outermost: true})
	if IsBad(d) {
		return spec.CType
	}
	if name := DeclaratorName(d); name != "" {
		p.syntaxError(DeclaratorPos(d), "unexpected identifier '%s' in type name", name)
	}
	p.resolveArrayChecks(d, false)
	return p.declType(d, spec.CType)
}

// skipBalanced skips a parenthesized token run, returning the tokens.
func (p *parser) skipBalanced() []*cpp.Token {
	if p.curt.Kind != '(' {
		p.syntaxError(p.curt.Pos, "expected '(' before %s", describe(p.curt))
		return nil
	}
	var toks []*cpp.Token
	depth := 0
	for {
		t := p.curt
		switch t.Kind {
		case '(':
			depth++
		case ')':
			depth--
		case cpp.EOF:
			p.syntaxError(t.Pos, "unbalanced parentheses")
			return toks
		}
		toks = append(toks, t)
		p.next()
		if depth == 0 {
			return toks
		}
	}
}

func (p *parser) skipAttributes() {
	for p.curt.Kind == cpp.ATTRIBUTE {
		p.next()
		p.skipBalanced()
	}
}

func (p *parser) skipAsmLabel() {
	if p.curt.Kind == cpp.ASM {
		p.next()
		p.skipBalanced()
	}
}

// skipBalancedDirective skips _Static_assert(...); and _Pragma(...).
func (p *parser) skipBalancedDirective() {
	isAssert := p.curt.Kind == cpp.STATIC_ASSERT
	p.next()
	p.skipBalanced()
	if isAssert {
		p.expect(';')
	}
}

// parseAsm parses "asm qualifiers* (...)" into an opaque statement.
func (p *parser) parseAsm() *AsmStmt {
	n := &AsmStmt{Pos: p.curt.Pos}
	n.Toks = append(n.Toks, p.curt)
	p.next()
	for p.curt.Kind == cpp.VOLATILE || p.curt.Kind == cpp.INLINE || p.curt.Kind == cpp.GOTO {
		n.Toks = append(n.Toks, p.curt)
		p.next()
	}
	n.Toks = append(n.Toks, p.skipBalanced()...)
	return n
}
