package parse

import "github.com/tmikov/c99/cpp"

type Node interface {
	GetPos() cpp.FilePos
}

// Expressions.

type Constant struct {
	Val  int64
	Pos  cpp.FilePos
	Type CType
}

type FloatConstant struct {
	Val  string
	Pos  cpp.FilePos
	Type CType
}

type String struct {
	Val string
	Pos cpp.FilePos
}

// SymRef is a use of an identifier in an expression. Sym is nil for
// identifiers that were not declared.
type SymRef struct {
	Name string
	Pos  cpp.FilePos
	Sym  *Symbol
}

type Unop struct {
	Op      cpp.TokenKind
	Pos     cpp.FilePos
	Operand Node
}

type Binop struct {
	Op  cpp.TokenKind
	Pos cpp.FilePos
	L   Node
	R   Node
}

// Postfix ++ and --.
type PostIncDec struct {
	Op      cpp.TokenKind
	Pos     cpp.FilePos
	Operand Node
}

type Cond struct {
	Pos  cpp.FilePos
	Cond Node
	Then Node
	Else Node
}

type Cast struct {
	Pos     cpp.FilePos
	Type    CType
	Operand Node
}

// Sizeof and _Alignof of either a type or an expression.
type Sizeof struct {
	Pos     cpp.FilePos
	Align   bool
	Type    CType
	Operand Node
}

type Call struct {
	Pos  cpp.FilePos
	Func Node
	Args []Node
}

type Index struct {
	Pos cpp.FilePos
	Arr Node
	Idx Node
}

type Selector struct {
	Pos     cpp.FilePos
	Operand Node
	Sel     string
	Arrow   bool
}

type CompoundLiteral struct {
	Pos  cpp.FilePos
	Type CType
	Init *InitializerList
}

// BadExpr marks an expression that failed to parse.
type BadExpr struct {
	Pos cpp.FilePos
}

func (n *Constant) GetPos() cpp.FilePos        { return n.Pos }
func (n *FloatConstant) GetPos() cpp.FilePos   { return n.Pos }
func (n *String) GetPos() cpp.FilePos          { return n.Pos }
func (n *SymRef) GetPos() cpp.FilePos          { return n.Pos }
func (n *Unop) GetPos() cpp.FilePos            { return n.Pos }
func (n *Binop) GetPos() cpp.FilePos           { return n.Pos }
func (n *PostIncDec) GetPos() cpp.FilePos      { return n.Pos }
func (n *Cond) GetPos() cpp.FilePos            { return n.Pos }
func (n *Cast) GetPos() cpp.FilePos            { return n.Pos }
func (n *Sizeof) GetPos() cpp.FilePos          { return n.Pos }
func (n *Call) GetPos() cpp.FilePos            { return n.Pos }
func (n *Index) GetPos() cpp.FilePos           { return n.Pos }
func (n *Selector) GetPos() cpp.FilePos        { return n.Pos }
func (n *CompoundLiteral) GetPos() cpp.FilePos { return n.Pos }
func (n *BadExpr) GetPos() cpp.FilePos         { return n.Pos }

// Declarations.

type TranslationUnit struct {
	File string
	// *Declaration, *FunctionDef and *AsmStmt in source order.
	Decls []Node
}

type Declaration struct {
	Pos   cpp.FilePos
	Specs *SpecifierSet
	Spec  *DeclSpec
	Decls []*InitDeclarator
}

type InitDeclarator struct {
	Decl Declarator
	Type CType
	Init Node
	Sym  *Symbol
}

// Name returns the declared identifier, "" for abstract declarators.
func (d *InitDeclarator) Name() string {
	return DeclaratorName(d.Decl)
}

type FunctionDef struct {
	Pos  cpp.FilePos
	Spec *DeclSpec
	Decl *InitDeclarator
	// Old style parameter declarations between ')' and '{'.
	KRDecls []*Declaration
	Body    *Block
}

func (n *TranslationUnit) GetPos() cpp.FilePos {
	return cpp.FilePos{File: n.File, Line: 1, Col: 1}
}
func (n *Declaration) GetPos() cpp.FilePos { return n.Pos }
func (n *FunctionDef) GetPos() cpp.FilePos { return n.Pos }

// Statements.

type Block struct {
	Pos   cpp.FilePos
	Items []Node
}

type ExprStmt struct {
	Pos  cpp.FilePos
	Expr Node
}

type EmptyStmt struct {
	Pos cpp.FilePos
}

type If struct {
	Pos  cpp.FilePos
	Cond Node
	Then Node
	Else Node
}

type While struct {
	Pos  cpp.FilePos
	Cond Node
	Body Node
}

type DoWhile struct {
	Pos  cpp.FilePos
	Body Node
	Cond Node
}

type For struct {
	Pos cpp.FilePos
	// An expression or a *Declaration.
	Init Node
	Cond Node
	Step Node
	Body Node
}

type Switch struct {
	Pos  cpp.FilePos
	Expr Node
	Body Node
}

type Case struct {
	Pos  cpp.FilePos
	Expr Node
	Stmt Node
}

type Default struct {
	Pos  cpp.FilePos
	Stmt Node
}

type Labeled struct {
	Pos   cpp.FilePos
	Label string
	Stmt  Node
}

type Goto struct {
	Pos   cpp.FilePos
	Label string
}

type Break struct {
	Pos cpp.FilePos
}

type Continue struct {
	Pos cpp.FilePos
}

type Return struct {
	Pos  cpp.FilePos
	Expr Node
}

// AsmStmt is an asm statement or file scope asm, kept as an opaque run of
// tokens.
type AsmStmt struct {
	Pos  cpp.FilePos
	Toks []*cpp.Token
}

func (n *Block) GetPos() cpp.FilePos     { return n.Pos }
func (n *ExprStmt) GetPos() cpp.FilePos  { return n.Pos }
func (n *EmptyStmt) GetPos() cpp.FilePos { return n.Pos }
func (n *If) GetPos() cpp.FilePos        { return n.Pos }
func (n *While) GetPos() cpp.FilePos     { return n.Pos }
func (n *DoWhile) GetPos() cpp.FilePos   { return n.Pos }
func (n *For) GetPos() cpp.FilePos       { return n.Pos }
func (n *Switch) GetPos() cpp.FilePos    { return n.Pos }
func (n *Case) GetPos() cpp.FilePos      { return n.Pos }
func (n *Default) GetPos() cpp.FilePos   { return n.Pos }
func (n *Labeled) GetPos() cpp.FilePos   { return n.Pos }
func (n *Goto) GetPos() cpp.FilePos      { return n.Pos }
func (n *Break) GetPos() cpp.FilePos     { return n.Pos }
func (n *Continue) GetPos() cpp.FilePos  { return n.Pos }
func (n *Return) GetPos() cpp.FilePos    { return n.Pos }
func (n *AsmStmt) GetPos() cpp.FilePos   { return n.Pos }
