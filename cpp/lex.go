package cpp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Lexer turns already preprocessed C source into tokens.
//
// Preprocessing is somebody else's job. Directive lines are skipped, except
// for line markers ("# 12 \"file.c\"" and "#line 12 \"file.c\"") which move
// the reported position, so the output of an external cpp keeps pointing at
// the original source.
type Lexer struct {
	src       []byte
	off       int
	pos       FilePos
	markedPos FilePos
	// At the beginning on line not including whitespace.
	bol bool
	err error
}

type breakout struct {
	err error
}

// Lex reads the contents of r and returns a lexer over it.
// fname is used for error messages when showing the source location.
func Lex(fname string, r io.Reader) *Lexer {
	lx := new(Lexer)
	lx.pos.File = fname
	lx.pos.Line = 1
	lx.pos.Col = 1
	lx.markedPos = lx.pos
	lx.bol = true
	src, err := io.ReadAll(r)
	if err != nil {
		lx.err = ErrWithLoc(fmt.Errorf("reading source: %w", err), lx.pos)
	}
	lx.src = src
	return lx
}

// Next returns the next token. Once the end of input is reached every call
// returns an EOF token. A lexical error is sticky.
func (lx *Lexer) Next() (tok *Token, err error) {
	if lx.err != nil {
		return &Token{Kind: ERROR, Val: lx.err.Error(), Pos: lx.pos}, lx.err
	}
	defer func() {
		if e := recover(); e != nil {
			b := e.(*breakout) // Will re-panic if not a breakout.
			lx.err = b.err
			tok = &Token{Kind: ERROR, Val: b.err.Error(), Pos: lx.markedPos}
			err = b.err
		}
	}()
	return lx.lex(), nil
}

// Error aborts lexing of the current token, the error is returned by Next.
func (lx *Lexer) Error(e string) {
	panic(&breakout{ErrWithLoc(errors.New(e), lx.pos)})
}

func (lx *Lexer) markPos() {
	lx.markedPos = lx.pos
}

func (lx *Lexer) peek(n int) byte {
	if lx.off+n >= len(lx.src) {
		return 0
	}
	return lx.src[lx.off+n]
}

func (lx *Lexer) atEOF() bool {
	return lx.off >= len(lx.src)
}

func (lx *Lexer) readRune() byte {
	if lx.atEOF() {
		return 0
	}
	c := lx.src[lx.off]
	lx.off++
	switch c {
	case '\n':
		lx.pos.Line += 1
		lx.pos.Col = 1
		lx.bol = true
	case '\t':
		lx.pos.Col += 4
	default:
		lx.pos.Col += 1
	}
	return c
}

func (lx *Lexer) tok(kind TokenKind, val string) *Token {
	lx.bol = false
	return &Token{Kind: kind, Val: val, Pos: lx.markedPos}
}

func (lx *Lexer) lex() *Token {
	for {
		lx.skipWhiteSpace()
		lx.markPos()
		if lx.atEOF() {
			return &Token{Kind: EOF, Pos: lx.pos}
		}
		first := lx.peek(0)
		switch {
		case first == '#' && lx.bol:
			lx.readDirective()
			continue
		case first == '/' && lx.peek(1) == '*':
			lx.skipBlockComment()
			continue
		case first == '/' && lx.peek(1) == '/':
			for !lx.atEOF() && lx.peek(0) != '\n' {
				lx.readRune()
			}
			continue
		case first == '\\' && (lx.peek(1) == '\n' || (lx.peek(1) == '\r' && lx.peek(2) == '\n')):
			lx.readRune()
			continue
		case isValidIdentStart(first):
			return lx.readIdentOrKeyword()
		case isNumeric(first) || (first == '.' && isNumeric(lx.peek(1))):
			return lx.readConstantIntOrFloat()
		case first == '"':
			return lx.readQuoted('"', STRING, "")
		case first == '\'':
			return lx.readQuoted('\'', CHAR_CONSTANT, "")
		}
		return lx.readPunctuator()
	}
}

var punctuators = []struct {
	s    string
	kind TokenKind
}{
	{"...", ELLIPSIS},
	{"<<=", SHL_ASSIGN},
	{">>=", SHR_ASSIGN},
	{"->", ARROW},
	{"++", INC},
	{"--", DEC},
	{"<<", SHL},
	{">>", SHR},
	{"<=", LEQ},
	{">=", GEQ},
	{"==", EQL},
	{"!=", NEQ},
	{"&&", LAND},
	{"||", LOR},
	{"+=", ADD_ASSIGN},
	{"-=", SUB_ASSIGN},
	{"*=", MUL_ASSIGN},
	{"/=", QUO_ASSIGN},
	{"%=", REM_ASSIGN},
	{"&=", AND_ASSIGN},
	{"|=", OR_ASSIGN},
	{"^=", XOR_ASSIGN},
}

func (lx *Lexer) readPunctuator() *Token {
	rest := lx.src[lx.off:]
	for _, p := range punctuators {
		if bytes.HasPrefix(rest, []byte(p.s)) {
			for range p.s {
				lx.readRune()
			}
			return lx.tok(p.kind, p.s)
		}
	}
	c := lx.readRune()
	switch c {
	case '+', '-', '*', '/', '%', '&', '|', '^', '?', '#', '<', '>', '=', '!', '~',
		'(', '[', '{', ',', '.', ')', ']', '}', ';', ':':
		return lx.tok(TokenKind(c), string(c))
	}
	lx.Error(fmt.Sprintf("bad char code '%d'", c))
	panic("unreachable")
}

func (lx *Lexer) skipBlockComment() {
	lx.readRune()
	lx.readRune()
	for {
		if lx.atEOF() {
			lx.Error("unclosed comment.")
		}
		c := lx.readRune()
		if c == '*' && lx.peek(0) == '/' {
			lx.readRune()
			return
		}
	}
}

// readDirective consumes a whole directive line, honouring line markers.
func (lx *Lexer) readDirective() {
	var buff strings.Builder
	lx.readRune()
	for !lx.atEOF() {
		c := lx.peek(0)
		if c == '\\' && lx.peek(1) == '\n' {
			lx.readRune()
			lx.readRune()
			continue
		}
		if c == '\n' {
			break
		}
		buff.WriteByte(lx.readRune())
	}
	lx.readRune()

	fields := strings.Fields(buff.String())
	if len(fields) > 0 && fields[0] == "line" {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return
	}
	line, err := strconv.Atoi(fields[0])
	if err != nil {
		return
	}
	lx.pos.Line = line
	lx.pos.Col = 1
	if len(fields) > 1 {
		if f, err := strconv.Unquote(fields[1]); err == nil {
			lx.pos.File = f
		}
	}
}

func (lx *Lexer) readIdentOrKeyword() *Token {
	var buff strings.Builder
	for isValidIdentTail(lx.peek(0)) {
		buff.WriteByte(lx.readRune())
	}
	str := buff.String()
	// Wide and unicode literal prefixes.
	switch str {
	case "L", "u", "U", "u8":
		switch lx.peek(0) {
		case '"':
			return lx.readQuoted('"', STRING, str)
		case '\'':
			return lx.readQuoted('\'', CHAR_CONSTANT, str)
		}
	}
	tokType, ok := keywordLUT[str]
	if !ok {
		tokType = IDENT
	}
	return lx.tok(tokType, str)
}

func (lx *Lexer) skipWhiteSpace() {
	for !lx.atEOF() && isWhiteSpace(lx.peek(0)) {
		lx.readRune()
	}
}

// readConstantIntOrFloat reads a preprocessing number and classifies it.
func (lx *Lexer) readConstantIntOrFloat() *Token {
	var buff strings.Builder
	tokType := TokenKind(INT_CONSTANT)
	hex := lx.peek(0) == '0' && (lx.peek(1) == 'x' || lx.peek(1) == 'X')
	for {
		c := lx.peek(0)
		switch {
		case c == '.':
			tokType = FLOAT_CONSTANT
		case (c == 'e' || c == 'E') && !hex, c == 'p' || c == 'P':
			tokType = FLOAT_CONSTANT
			buff.WriteByte(lx.readRune())
			if s := lx.peek(0); s == '+' || s == '-' {
				buff.WriteByte(lx.readRune())
			}
			continue
		case isValidIdentTail(c):
		default:
			return lx.tok(tokType, buff.String())
		}
		buff.WriteByte(lx.readRune())
	}
}

func (lx *Lexer) readQuoted(terminator byte, kind TokenKind, prefix string) *Token {
	var buff strings.Builder
	buff.WriteString(prefix)
	buff.WriteByte(lx.readRune())
	for {
		if lx.atEOF() {
			if kind == STRING {
				lx.Error("eof in string literal")
			}
			lx.Error("eof in char literal")
		}
		c := lx.readRune()
		switch c {
		case '\\':
			if lx.peek(0) == '\n' {
				lx.readRune()
				continue
			}
			buff.WriteByte(c)
			buff.WriteByte(lx.readRune())
			continue
		case '\n':
			lx.Error("new line in literal")
		}
		buff.WriteByte(c)
		if c == terminator {
			return lx.tok(kind, buff.String())
		}
	}
}

func isValidIdentTail(b byte) bool {
	return isValidIdentStart(b) || isNumeric(b) || b == '$'
}

func isValidIdentStart(b byte) bool {
	return b == '_' || isAlpha(b)
}

func isAlpha(b byte) bool {
	if b >= 'a' && b <= 'z' {
		return true
	}
	if b >= 'A' && b <= 'Z' {
		return true
	}
	return false
}

func isWhiteSpace(b byte) bool {
	return b == ' ' || b == '\r' || b == '\n' || b == '\t' || b == '\f' || b == '\v'
}

func isNumeric(b byte) bool {
	if b >= '0' && b <= '9' {
		return true
	}
	return false
}
