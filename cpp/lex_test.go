package cpp

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lexAll returns the tokens of src formatted as "val:line:col".
func lexAll(t *testing.T, src string) ([]string, []TokenKind) {
	t.Helper()
	lx := Lex("t.c", strings.NewReader(src))
	var toks []string
	var kinds []TokenKind
	for {
		tok, err := lx.Next()
		require.NoError(t, err)
		if tok.Kind == EOF {
			return toks, kinds
		}
		toks = append(toks, fmt.Sprintf("%s:%d:%d", tok.Val, tok.Pos.Line, tok.Pos.Col))
		kinds = append(kinds, tok.Kind)
	}
}

func TestLexer(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []string
	}{
		{"declaration", "int x = 0x1f;\n", []string{"int:1:1", "x:1:5", "=:1:7", "0x1f:1:9", ";:1:13"}},
		{"comments", "a /* x\n */ b // c\nc", []string{"a:1:1", "b:2:5", "c:3:1"}},
		{"punctuators", "a->b<<=c...d", []string{"a:1:1", "->:1:2", "b:1:4", "<<=:1:5", "c:1:8", "...:1:9", "d:1:12"}},
		{"line marker", "# 10 \"a.h\"\nlong y;", []string{"long:10:1", "y:10:6", ";:10:7"}},
		{"other directives", "#pragma once\nx", []string{"x:2:1"}},
		{"continuation", "a \\\nb", []string{"a:1:1", "b:2:1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := lexAll(t, tc.src)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLexerKinds(t *testing.T) {
	_, kinds := lexAll(t, `typedef __const__ L"a\"b" 'c' 1.5e-3f .5 0x1p-2 42u __asm__ foo`)
	assert.Equal(t, []TokenKind{
		TYPEDEF, CONST, STRING, CHAR_CONSTANT,
		FLOAT_CONSTANT, FLOAT_CONSTANT, FLOAT_CONSTANT, INT_CONSTANT,
		ASM, IDENT,
	}, kinds)

	toks, _ := lexAll(t, `u8"x" U'y'`)
	assert.Equal(t, []string{`u8"x":1:1`, `U'y':1:7`}, toks)
}

func TestLexerLineMarkerFile(t *testing.T) {
	lx := Lex("t.c", strings.NewReader("#line 3 \"inc/b.h\"\nz"))
	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, FilePos{File: "inc/b.h", Line: 3, Col: 1}, tok.Pos)
}

func TestLexerErrors(t *testing.T) {
	cases := []struct {
		src string
		msg string
	}{
		{"int @", "bad char code"},
		{`"abc`, "eof in string literal"},
		{"'a\n'", "new line in literal"},
		{"/* x", "unclosed comment"},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			lx := Lex("t.c", strings.NewReader(tc.src))
			var err error
			var tok *Token
			for i := 0; i < 5 && err == nil; i++ {
				tok, err = lx.Next()
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
			assert.Equal(t, TokenKind(ERROR), tok.Kind)

			var loc ErrorLoc
			require.True(t, errors.As(err, &loc))
			assert.Equal(t, "t.c", loc.Pos.File)

			// Errors are sticky.
			_, again := lx.Next()
			assert.Equal(t, err, again)
		})
	}
}

func TestLexerEOFRepeats(t *testing.T) {
	lx := Lex("t.c", strings.NewReader("x"))
	_, err := lx.Next()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		tok, err := lx.Next()
		require.NoError(t, err)
		assert.Equal(t, TokenKind(EOF), tok.Kind)
	}
}
