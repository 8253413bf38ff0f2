package cpp

import (
	"fmt"
)

// The list of tokens.
const (

	// Single char tokens are themselves.
	ADD       = '+'
	SUB       = '-'
	MUL       = '*'
	QUO       = '/'
	REM       = '%'
	AND       = '&'
	OR        = '|'
	XOR       = '^'
	QUESTION  = '?'
	HASH      = '#'
	LSS       = '<'
	GTR       = '>'
	ASSIGN    = '='
	NOT       = '!'
	BNOT      = '~'
	LPAREN    = '('
	LBRACK    = '['
	LBRACE    = '{'
	COMMA     = ','
	PERIOD    = '.'
	RPAREN    = ')'
	RBRACK    = ']'
	RBRACE    = '}'
	SEMICOLON = ';'
	COLON     = ':'

	ERROR = 10000 + iota
	EOF
	// Identifiers and basic type literals
	// (these tokens stand for classes of literals)
	IDENT          // main
	INT_CONSTANT   // 12345
	FLOAT_CONSTANT // 123.45
	CHAR_CONSTANT  // 'a'
	STRING         // "abc"

	SHL        // <<
	SHR        // >>
	ADD_ASSIGN // +=
	SUB_ASSIGN // -=
	MUL_ASSIGN // *=
	QUO_ASSIGN // /=
	REM_ASSIGN // %=
	AND_ASSIGN // &=
	OR_ASSIGN  // |=
	XOR_ASSIGN // ^=
	SHL_ASSIGN // <<=
	SHR_ASSIGN // >>=
	LAND       // &&
	LOR        // ||
	ARROW      // ->
	INC        // ++
	DEC        // --
	EQL        // ==
	NEQ        // !=
	LEQ        // <=
	GEQ        // >=
	ELLIPSIS   // ...

	// Keywords
	AUTO
	REGISTER
	EXTERN
	STATIC
	TYPEDEF
	THREAD_LOCAL
	CONST
	VOLATILE
	RESTRICT
	ATOMIC
	INLINE
	NORETURN
	ALIGNAS
	ALIGNOF
	VOID
	CHAR
	SHORT
	INT
	LONG
	FLOAT
	DOUBLE
	SIGNED
	UNSIGNED
	BOOL
	COMPLEX
	IMAGINARY
	STRUCT
	UNION
	ENUM
	BREAK
	CASE
	CONTINUE
	DEFAULT
	DO
	ELSE
	FOR
	GOTO
	IF
	RETURN
	SIZEOF
	SWITCH
	WHILE
	STATIC_ASSERT

	// Extensions that are passed through unparsed.
	ASM
	ATTRIBUTE
	EXTENSION
	PRAGMA
)

var tokenKindToStr = [...]string{
	HASH:           "'#'",
	ERROR:          "error",
	EOF:            "EOF",
	CHAR_CONSTANT:  "charconst",
	INT_CONSTANT:   "intconst",
	FLOAT_CONSTANT: "floatconst",
	IDENT:          "ident",
	STRING:         "string",
	ADD:            "'+'",
	SUB:            "'-'",
	MUL:            "'*'",
	QUO:            "'/'",
	REM:            "'%'",
	AND:            "'&'",
	OR:             "'|'",
	XOR:            "'^'",
	SHL:            "'<<'",
	SHR:            "'>>'",
	ADD_ASSIGN:     "'+='",
	SUB_ASSIGN:     "'-='",
	MUL_ASSIGN:     "'*='",
	QUO_ASSIGN:     "'/='",
	REM_ASSIGN:     "'%='",
	AND_ASSIGN:     "'&='",
	OR_ASSIGN:      "'|='",
	XOR_ASSIGN:     "'^='",
	SHL_ASSIGN:     "'<<='",
	SHR_ASSIGN:     "'>>='",
	LAND:           "'&&'",
	LOR:            "'||'",
	ARROW:          "'->'",
	INC:            "'++'",
	DEC:            "'--'",
	EQL:            "'=='",
	LSS:            "'<'",
	GTR:            "'>'",
	ASSIGN:         "'='",
	NOT:            "'!'",
	BNOT:           "'~'",
	NEQ:            "'!='",
	LEQ:            "'<='",
	GEQ:            "'>='",
	ELLIPSIS:       "'...'",
	LPAREN:         "'('",
	LBRACK:         "'['",
	LBRACE:         "'{'",
	COMMA:          "','",
	PERIOD:         "'.'",
	RPAREN:         "')'",
	RBRACK:         "']'",
	RBRACE:         "'}'",
	SEMICOLON:      "';'",
	COLON:          "':'",
	QUESTION:       "'?'",
	AUTO:           "auto",
	REGISTER:       "register",
	EXTERN:         "extern",
	STATIC:         "static",
	TYPEDEF:        "typedef",
	THREAD_LOCAL:   "_Thread_local",
	CONST:          "const",
	VOLATILE:       "volatile",
	RESTRICT:       "restrict",
	ATOMIC:         "_Atomic",
	INLINE:         "inline",
	NORETURN:       "_Noreturn",
	ALIGNAS:        "_Alignas",
	ALIGNOF:        "_Alignof",
	VOID:           "void",
	CHAR:           "char",
	SHORT:          "short",
	INT:            "int",
	LONG:           "long",
	FLOAT:          "float",
	DOUBLE:         "double",
	SIGNED:         "signed",
	UNSIGNED:       "unsigned",
	BOOL:           "_Bool",
	COMPLEX:        "_Complex",
	IMAGINARY:      "_Imaginary",
	STRUCT:         "struct",
	UNION:          "union",
	ENUM:           "enum",
	BREAK:          "break",
	CASE:           "case",
	CONTINUE:       "continue",
	DEFAULT:        "default",
	DO:             "do",
	ELSE:           "else",
	FOR:            "for",
	GOTO:           "goto",
	IF:             "if",
	RETURN:         "return",
	SIZEOF:         "sizeof",
	SWITCH:         "switch",
	WHILE:          "while",
	STATIC_ASSERT:  "_Static_assert",
	ASM:            "asm",
	ATTRIBUTE:      "__attribute__",
	EXTENSION:      "__extension__",
	PRAGMA:         "_Pragma",
}

var keywordLUT = map[string]TokenKind{
	"auto":           AUTO,
	"register":       REGISTER,
	"extern":         EXTERN,
	"static":         STATIC,
	"typedef":        TYPEDEF,
	"_Thread_local":  THREAD_LOCAL,
	"__thread":       THREAD_LOCAL,
	"const":          CONST,
	"__const":        CONST,
	"__const__":      CONST,
	"volatile":       VOLATILE,
	"__volatile":     VOLATILE,
	"__volatile__":   VOLATILE,
	"restrict":       RESTRICT,
	"__restrict":     RESTRICT,
	"__restrict__":   RESTRICT,
	"_Atomic":        ATOMIC,
	"inline":         INLINE,
	"__inline":       INLINE,
	"__inline__":     INLINE,
	"_Noreturn":      NORETURN,
	"_Alignas":       ALIGNAS,
	"_Alignof":       ALIGNOF,
	"__alignof__":    ALIGNOF,
	"void":           VOID,
	"char":           CHAR,
	"short":          SHORT,
	"int":            INT,
	"long":           LONG,
	"float":          FLOAT,
	"double":         DOUBLE,
	"signed":         SIGNED,
	"__signed__":     SIGNED,
	"unsigned":       UNSIGNED,
	"_Bool":          BOOL,
	"_Complex":       COMPLEX,
	"__complex__":    COMPLEX,
	"_Imaginary":     IMAGINARY,
	"struct":         STRUCT,
	"union":          UNION,
	"enum":           ENUM,
	"break":          BREAK,
	"case":           CASE,
	"continue":       CONTINUE,
	"default":        DEFAULT,
	"do":             DO,
	"else":           ELSE,
	"for":            FOR,
	"goto":           GOTO,
	"if":             IF,
	"return":         RETURN,
	"sizeof":         SIZEOF,
	"switch":         SWITCH,
	"while":          WHILE,
	"_Static_assert": STATIC_ASSERT,
	"asm":            ASM,
	"__asm":          ASM,
	"__asm__":        ASM,
	"__attribute":    ATTRIBUTE,
	"__attribute__":  ATTRIBUTE,
	"__extension__":  EXTENSION,
	"_Pragma":        PRAGMA,
}

type TokenKind uint32

func (tk TokenKind) String() string {
	if uint32(tk) >= uint32(len(tokenKindToStr)) {
		return "Unknown"
	}
	ret := tokenKindToStr[tk]
	if ret == "" {
		return "Unknown"
	}
	return ret
}

// IsKeyword reports whether tk is one of the reserved words, including
// the GNU spellings the lexer folds onto them.
func (tk TokenKind) IsKeyword() bool {
	return tk >= AUTO && tk <= PRAGMA
}

// LookupKeyword returns the keyword kind for an identifier spelling.
func LookupKeyword(s string) (TokenKind, bool) {
	k, ok := keywordLUT[s]
	return k, ok
}

type FilePos struct {
	File string
	Line int
	Col  int
}

func (pos FilePos) String() string {
	return fmt.Sprintf("%s:%d:%d", pos.File, pos.Line, pos.Col)
}

// Less orders positions by file, then line, then column.
func (pos FilePos) Less(o FilePos) bool {
	if pos.File != o.File {
		return pos.File < o.File
	}
	if pos.Line != o.Line {
		return pos.Line < o.Line
	}
	return pos.Col < o.Col
}

// Token represents a grouping of characters
// that provide semantic meaning in a C program.
type Token struct {
	Kind TokenKind
	Val  string
	Pos  FilePos
}

func (t Token) String() string {
	return fmt.Sprintf("%s at %s", t.Val, t.Pos)
}
