package parse

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmikov/c99/cpp"
	"github.com/tmikov/c99/diag"
)

func parseWith(t *testing.T, src string, opts Options) (*TranslationUnit, []diag.Diagnostic) {
	t.Helper()
	tu, diags, err := Parse(cpp.Lex("t.c", strings.NewReader(src)), opts)
	require.NoError(t, err)
	return tu, diags
}

func parseString(t *testing.T, src string) (*TranslationUnit, []diag.Diagnostic) {
	t.Helper()
	return parseWith(t, src, DefaultOptions())
}

// declType returns the type of the i'th top level declaration's first
// declarator.
func declTypeAt(t *testing.T, tu *TranslationUnit, i int) CType {
	t.Helper()
	require.Greater(t, len(tu.Decls), i)
	switch d := tu.Decls[i].(type) {
	case *Declaration:
		require.NotEmpty(t, d.Decls)
		return d.Decls[0].Type
	case *FunctionDef:
		return d.Decl.Type
	}
	t.Fatalf("unexpected node %T", tu.Decls[i])
	return nil
}

type kindCase struct {
	src   string
	kind  diag.Kind
	count int
}

func runKindCases(t *testing.T, cases []kindCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			_, diags := parseString(t, tc.src)
			assert.Equal(t, tc.count, diag.CountKind(diags, tc.kind), "%v", diags)
		})
	}
}

func TestDuplicateStorageClass(t *testing.T) {
	runKindCases(t, []kindCase{
		{"static int x;", diag.DuplicateStorageClass, 0},
		{"static static int x;", diag.DuplicateStorageClass, 1},
		{"extern static typedef int x;", diag.DuplicateStorageClass, 2},
		{"int static extern x;", diag.DuplicateStorageClass, 1},
		{"static _Thread_local int x;", diag.DuplicateStorageClass, 0},
		{"_Thread_local _Thread_local static int x;", diag.DuplicateStorageClass, 1},
		{"typedef _Thread_local int T;", diag.DuplicateStorageClass, 1},
	})
}

func TestWidthSequences(t *testing.T) {
	runKindCases(t, []kindCase{
		{"short int a;", diag.InvalidWidthCombination, 0},
		{"long long int a;", diag.InvalidWidthCombination, 0},
		{"long int long a;", diag.InvalidWidthCombination, 0},
		{"long double d;", diag.InvalidWidthCombination, 0},
		{"short long a;", diag.InvalidWidthCombination, 1},
		{"long short a;", diag.InvalidWidthCombination, 1},
		{"long long long a;", diag.InvalidWidthCombination, 1},
		{"long long long long a;", diag.InvalidWidthCombination, 2},
		{"short double d;", diag.InvalidWidthCombination, 1},
		{"long long double d;", diag.InvalidWidthCombination, 1},
		{"long char c;", diag.InvalidWidthCombination, 1},
		{"short float f;", diag.InvalidWidthCombination, 1},
	})
}

func TestSignModifiers(t *testing.T) {
	runKindCases(t, []kindCase{
		{"unsigned char c;", diag.IncompatibleModifier, 0},
		{"signed x;", diag.IncompatibleModifier, 0},
		{"unsigned float f;", diag.IncompatibleModifier, 1},
		{"signed double d;", diag.IncompatibleModifier, 1},
		{"unsigned _Bool b;", diag.IncompatibleModifier, 1},
		{"unsigned void v;", diag.IncompatibleModifier, 1},
		{"struct S; unsigned struct S s;", diag.IncompatibleModifier, 1},
		{"typedef int T; unsigned T t;", diag.IncompatibleModifier, 1},
		{"_Complex int c;", diag.IncompatibleModifier, 1},
		{"unsigned unsigned int x;", diag.DuplicateModifier, 1},
		{"unsigned signed x;", diag.DuplicateModifier, 1},
		{"_Complex _Complex double z;", diag.DuplicateModifier, 1},
	})
}

func TestSignOnImpliedComplex(t *testing.T) {
	_, diags := parseString(t, "unsigned _Complex x;")
	require.Equal(t, 1, diag.CountKind(diags, diag.IncompatibleModifier), "%v", diags)
	for _, d := range diags {
		if d.Kind == diag.IncompatibleModifier {
			assert.Equal(t, "'unsigned' cannot be applied to '_Complex double'", d.Msg)
		}
	}
}

func TestConflictingBaseType(t *testing.T) {
	_, diags := parseString(t, "struct S1 union S2 v;")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.ConflictingBaseType, diags[0].Kind)
	assert.Equal(t, 11, diags[0].Pos.Col)

	runKindCases(t, []kindCase{
		{"int char x;", diag.ConflictingBaseType, 1},
		{"int int x;", diag.ConflictingBaseType, 1},
		{"void int char x;", diag.ConflictingBaseType, 2},
		{"typedef int T; T int x;", diag.ConflictingBaseType, 1},
		{"char int x;", diag.ConflictingBaseType, 1},
	})
}

func TestSpecifierTypes(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"long int long a;", "long long"},
		{"unsigned u;", "unsigned int"},
		{"long unsigned l;", "unsigned long"},
		{"long double d;", "long double"},
		{"signed char c;", "signed char"},
		{"char c;", "char"},
		{"short s;", "short"},
		{"double _Complex z;", "double _Complex"},
		{"const int c;", "const int"},
		{"int *p;", "int *"},
		{"int *a[10];", "int *[10]"},
		{"int (*a)[10];", "int (*)[10]"},
		{"int (*fp)(int, char);", "int (*)(int, char)"},
		{"int f();", "int ()"},
		{"int g(void);", "int (void)"},
		{"int h(int, ...);", "int (int, ...)"},
		{"char *const *pp;", "char * const *"},
		{"int f(char a[]);", "int (char *)"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			tu, diags := parseString(t, tc.src)
			assert.Empty(t, diags)
			assert.Equal(t, tc.want, declTypeAt(t, tu, 0).String())
		})
	}
}

func TestImplicitInt(t *testing.T) {
	tu, diags := parseString(t, "x;")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.ImplicitInt, diags[0].Kind)
	assert.Equal(t, diag.Warning, diags[0].Severity)
	assert.Equal(t, "int", declTypeAt(t, tu, 0).String())

	_, diags = parseString(t, "_Complex z;")
	assert.Equal(t, 1, diag.CountKind(diags, diag.ImplicitInt))
}

func TestOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Disabled = []diag.Kind{diag.ImplicitInt}
	_, diags := parseWith(t, "x;", opts)
	assert.Empty(t, diags)

	opts = DefaultOptions()
	opts.WarningsAsErrors = true
	_, diags = parseWith(t, "x;", opts)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Error, diags[0].Severity)

	opts = DefaultOptions()
	opts.SignedChar = false
	tu, _ := parseWith(t, "char c;", opts)
	assert.Same(t, CCharUnsigned, declTypeAt(t, tu, 0))
}

func TestParenDisambiguation(t *testing.T) {
	// A typedef name after '(' in a parameter makes it a parameter list.
	tu, diags := parseString(t, "typedef int TYP; int f(int (TYP));")
	assert.Empty(t, diags)
	assert.Equal(t, "int (int (*)(int))", declTypeAt(t, tu, 1).String())

	// Otherwise it is a parenthesized declarator.
	tu, diags = parseString(t, "int f(int (x));")
	assert.Empty(t, diags)
	ft := declTypeAt(t, tu, 0).(*FunctionType)
	assert.Equal(t, []string{"x"}, ft.ArgNames)
	assert.Equal(t, "int (int)", ft.String())

	// In an object declaration it always groups.
	tu, diags = parseString(t, "typedef int TYP; void g(void) { int (TYP) = 0; }")
	assert.Empty(t, diags)
	body := tu.Decls[1].(*FunctionDef).Body
	require.Len(t, body.Items, 1)
	decl := body.Items[0].(*Declaration)
	assert.Equal(t, "TYP", decl.Decls[0].Name())
	assert.Equal(t, Ordinary, decl.Decls[0].Sym.Kind)
	assert.NotNil(t, decl.Decls[0].Init)

	// Same scope as the typedef: a redefinition.
	_, diags = parseString(t, "typedef int TYP; int (TYP) = 0;")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Redefinition, diags[0].Kind)
	assert.Len(t, diags[0].Related, 1)
}

func TestParseIsRepeatable(t *testing.T) {
	src := "typedef int TYP; int f(int (TYP)); int (TYP) = 0; void h(int a, int a);"
	_, first := parseString(t, src)
	_, second := parseString(t, src)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestTypedefScope(t *testing.T) {
	cases := []struct {
		src  string
		errs int
	}{
		{"typedef int T; typedef int T;", 0},
		{"typedef int T; typedef char T;", 1},
		{"typedef int T, *PT; PT p;", 0},
		// The name is visible in its own initializer.
		{"typedef int T; void g(void) { int T = sizeof(T); }", 0},
		{"typedef int T; void g(void) { typedef char T; T c; } T i;", 0},
		{"int x; int x;", 0},
		{"extern int a[]; int a[10];", 0},
		{"int x; char x;", 1},
		{"int T; typedef int T;", 1},
		{"enum E { A }; int A;", 1},
		{"enum E { A, A };", 1},
		{"void f(void) { int x; { char x; } }", 0},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			_, diags := parseString(t, tc.src)
			assert.Equal(t, tc.errs, diag.CountKind(diags, diag.Redefinition), "%v", diags)
			assert.Equal(t, tc.errs, len(diags), "%v", diags)
		})
	}
}

func TestDuplicateParameterName(t *testing.T) {
	_, diags := parseString(t, "void f(int a, int b, int a, int c);")
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, diag.DuplicateParameterName, d.Kind)
	assert.Equal(t, cpp.FilePos{File: "t.c", Line: 1, Col: 26}, d.Pos)
	require.Len(t, d.Related, 1)
	assert.Equal(t, 12, d.Related[0].Col)

	_, diags = parseString(t, "void f(a, b, a, c);")
	assert.Equal(t, 1, diag.CountKind(diags, diag.DuplicateParameterName))
	assert.Equal(t, 1, diag.CountKind(diags, diag.OldStyleDeclaration))
	assert.Len(t, diags, 2)

	_, diags = parseString(t, "void f(int a, int a, int a);")
	assert.Equal(t, 2, diag.CountKind(diags, diag.DuplicateParameterName))
}

func TestOldStyleDefinition(t *testing.T) {
	tu, diags := parseString(t, "int f(a, b) int a; char b; { return a + b; }")
	assert.Empty(t, diags)
	def := tu.Decls[0].(*FunctionDef)
	assert.Len(t, def.KRDecls, 2)
	assert.True(t, def.Decl.Type.(*FunctionType).NoProto)

	_, diags = parseString(t, "int f(a) int b; { return a; }")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.InvalidParameter, diags[0].Kind)

	_, diags = parseString(t, "int f(a) int a; int a; { return a; }")
	assert.Equal(t, 1, diag.CountKind(diags, diag.DuplicateParameterName))
}

func TestArrayQualifierContexts(t *testing.T) {
	runKindCases(t, []kindCase{
		{"void f(int a[static 10]);", diag.InvalidArrayQualifierContext, 0},
		{"void f(int a[*]);", diag.InvalidArrayQualifierContext, 0},
		{"void f(int a[const 10]) {}", diag.InvalidArrayQualifierContext, 0},
		{"void f(int a[static restrict 10]) {}", diag.InvalidArrayQualifierContext, 0},
		{"void f(void (*g)(int a[static 3]));", diag.InvalidArrayQualifierContext, 0},
		{"void f(void) { int a[static 10]; }", diag.InvalidArrayQualifierContext, 1},
		{"void f(void) { int a[*]; }", diag.InvalidArrayQualifierContext, 1},
		{"int a[static 10];", diag.InvalidArrayQualifierContext, 1},
		{"int a[const 10];", diag.InvalidArrayQualifierContext, 1},
		{"struct S { int a[const 3]; };", diag.InvalidArrayQualifierContext, 1},
		{"unsigned long n = sizeof(int[static 3]);", diag.InvalidArrayQualifierContext, 1},
		{"void f(int a[10][static 10]);", diag.InvalidArrayQualifierContext, 1},
		{"void f(int (*p)[static 3]);", diag.InvalidArrayQualifierContext, 1},
		{"void f(int (*g)(int x[3][static 3]));", diag.InvalidArrayQualifierContext, 1},
		{"void f(g) int (*g)(int x[3][static 3]); {}", diag.InvalidArrayQualifierContext, 1},
		{"void f(g) int (*g)(int x[static 3]); {}", diag.InvalidArrayQualifierContext, 0},
		{"void f(a) int a[static 3]; {}", diag.InvalidArrayQualifierContext, 0},
	})
}

func TestArrayPolicyIsConfigurable(t *testing.T) {
	opts := DefaultOptions()
	opts.ArrayPolicy[ArrayBlockObject] = true
	_, diags := parseWith(t, "void f(void) { int a[const 3]; }", opts)
	assert.Empty(t, diags)

	opts = DefaultOptions()
	opts.ArrayPolicy[ArrayDefinitionParam] = false
	_, diags = parseWith(t, "void f(int a[static 3]); void f(int a[static 3]) {}", opts)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.InvalidArrayQualifierContext, diags[0].Kind)
	assert.Contains(t, diags[0].Msg, "function definition parameter")

	// Prototypes nested in old style parameter declarations.
	opts = DefaultOptions()
	opts.ArrayPolicy[ArrayPrototypeParam] = false
	_, diags = parseWith(t, "void f(g) int (*g)(int x[static 3]); {}", opts)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.InvalidArrayQualifierContext, diags[0].Kind)
	assert.Equal(t, 1, diags[0].Pos.Line)
}

func TestInvalidParameters(t *testing.T) {
	runKindCases(t, []kindCase{
		{"int f(void) { return 0; }", diag.InvalidParameter, 0},
		{"int f(int) { return 0; }", diag.InvalidParameter, 1},
		{"void f(void x);", diag.InvalidParameter, 1},
		{"void f(int, void);", diag.InvalidParameter, 1},
		{"void f(void, ...);", diag.InvalidParameter, 1},
		{"void f(const void);", diag.InvalidParameter, 1},
	})
}

func TestInvalidDerivation(t *testing.T) {
	runKindCases(t, []kindCase{
		{"int f(void)[3];", diag.InvalidDerivation, 1},
		{"int a[3](void);", diag.InvalidDerivation, 1},
		{"int f(void)(void);", diag.InvalidDerivation, 1},
		{"int (*f(void))[3];", diag.InvalidDerivation, 0},
		{"struct S { int f(void); };", diag.InvalidDerivation, 1},
	})
}

func TestInvalidStorageClass(t *testing.T) {
	runKindCases(t, []kindCase{
		{"auto int x;", diag.InvalidStorageClass, 1},
		{"register int x;", diag.InvalidStorageClass, 1},
		{"void f(void) { auto int x; register int y; }", diag.InvalidStorageClass, 0},
		{"void f(static int x);", diag.InvalidStorageClass, 1},
		{"typedef int T = 3;", diag.InvalidStorageClass, 1},
		{"struct S { static int a; };", diag.InvalidStorageClass, 1},
		{"int f(a) static int a; { return a; }", diag.InvalidStorageClass, 1},
	})

	_, diags := parseString(t, "void f(register int x);")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.InvalidStorageClass, diags[0].Kind)
	assert.Equal(t, diag.Warning, diags[0].Severity)
}

func TestUnknownTypeName(t *testing.T) {
	runKindCases(t, []kindCase{
		{"void f(foo x);", diag.UnknownTypeName, 1},
		{"void f(foo *x);", diag.UnknownTypeName, 1},
		{"void f(int a, b);", diag.UnknownTypeName, 1},
		{"void f(int a, b[3]);", diag.UnknownTypeName, 1},
		{"void f(x[3]);", diag.UnknownTypeName, 1},
		{"void f(int b, a);", diag.UnknownTypeName, 1},
		{"void f(a, foo b);", diag.UnknownTypeName, 1},
		{"void f(a, b);", diag.UnknownTypeName, 0},
		{"void f(a, int b);", diag.UnexpectedToken, 1},
		{"int f(a, int b) { return a + b; }", diag.UnexpectedToken, 1},
		{"void f(a, foo b);", diag.UnexpectedToken, 0},
		{"foo x;", diag.UnknownTypeName, 1},
		{"void g(void) { foo y; }", diag.UnknownTypeName, 1},
		{"struct S { foo m; };", diag.UnknownTypeName, 1},
	})
}

func TestUntypedParameterIsInt(t *testing.T) {
	tu, diags := parseString(t, "void f(int a, b[3]);")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.UnknownTypeName, diags[0].Kind)
	assert.Equal(t, 15, diags[0].Pos.Col)
	assert.Equal(t, "void (int, int *)", declTypeAt(t, tu, 0).String())

	// The name is still bound in a definition.
	_, diags = parseString(t, "void f(int a, b) { b = a; }")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.UnknownTypeName, diags[0].Kind)
}

func TestBitFields(t *testing.T) {
	runKindCases(t, []kindCase{
		{"struct S { int a : -1; };", diag.InvalidBitField, 1},
		{"struct S { float b : 3; };", diag.InvalidBitField, 1},
		{"struct S { int c : 0; };", diag.InvalidBitField, 1},
		{"struct S { char d : 20; };", diag.InvalidBitField, 1},
		{"struct S { _Bool e : 2; };", diag.InvalidBitField, 1},
		{"struct S { int a : -1; float b : 3; int c : 0; char d : 20; };", diag.InvalidBitField, 4},
		{"struct S { int : 0; unsigned a : 32; _Bool b : 1; long c : 64; };", diag.InvalidBitField, 0},
		{"struct S { enum { X, Y } e : 2; };", diag.InvalidBitField, 0},
	})

	tu, diags := parseString(t, "struct S { char d : 20; } s;")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Msg, "exceeds the width of its type (8 bits)")
	st := declTypeAt(t, tu, 0).(*StructType)
	assert.Equal(t, 8, st.Fields[0].Bits)
}

func TestIncompleteTypes(t *testing.T) {
	runKindCases(t, []kindCase{
		{"void x;", diag.IncompleteType, 1},
		{"void f(void) { const void v; }", diag.IncompleteType, 1},
		{"void f(void) { struct U u; }", diag.IncompleteType, 1},
		{"void f(void) { enum E e; }", diag.IncompleteType, 1},
		{"struct S { struct S s; };", diag.IncompleteType, 1},
		{"struct S { void v; };", diag.IncompleteType, 1},
		{"extern void x;", diag.IncompleteType, 0},
		{"typedef void V;", diag.IncompleteType, 0},
		{"struct U u;", diag.IncompleteType, 0},
		{"void f(void) { struct U *p; extern struct U e; }", diag.IncompleteType, 0},
		{"struct U; struct U { int a; }; void f(void) { struct U u; }", diag.IncompleteType, 0},
		{"struct S { struct S *next; int n; int data[]; };", diag.IncompleteType, 0},
	})
}

func TestArraySizes(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"int a[sizeof(int) * 2 + (3 > 2 ? 1 : 0)];", "int [9]"},
		{"int b[(unsigned char)300];", "int [44]"},
		{"int c['a'];", "int [97]"},
		{"int d[1 << 4];", "int [16]"},
		{"int e[sizeof \"abc\"];", "int [4]"},
		{"int f[_Alignof(double)];", "int [8]"},
		{"int g[-1 < 0u];", "int [0]"},
		{"int h[];", "int []"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			tu, diags := parseString(t, tc.src)
			assert.Empty(t, diags)
			assert.Equal(t, tc.want, declTypeAt(t, tu, 0).String())
		})
	}

	tu, diags := parseString(t, "enum { K = 3, L }; int e[K * L];")
	assert.Empty(t, diags)
	assert.Equal(t, "int [12]", declTypeAt(t, tu, 1).String())

	runKindCases(t, []kindCase{
		{"int a[-1];", diag.InvalidArraySize, 1},
		{"int a[2 - 3];", diag.InvalidArraySize, 1},
		{"int a[0];", diag.InvalidArraySize, 0},
	})
}

func TestStructs(t *testing.T) {
	tu, diags := parseString(t, "struct S { int a; char b : 3; struct { int x; }; } s;")
	assert.Empty(t, diags)
	st := declTypeAt(t, tu, 0).(*StructType)
	require.True(t, st.Complete)
	require.Len(t, st.Fields, 3)
	assert.Equal(t, 3, st.Fields[1].Bits)
	assert.Equal(t, "", st.Fields[2].Name)

	runKindCases(t, []kindCase{
		{"struct S { int a; int a; };", diag.Redefinition, 1},
		{"struct S { int a; }; struct S { int b; };", diag.Redefinition, 1},
		{"struct S; struct S { int a; }; struct S *p;", diag.Redefinition, 0},
		{"struct S { int a; }; union S u;", diag.Redefinition, 1},
		{"struct S { int a; }; void f(void) { struct S { char c; } s; }", diag.Redefinition, 0},
		{"struct L { struct L *next; } l;", diag.Redefinition, 0},
	})

	// Members do not hide typedef names.
	_, diags = parseString(t, "typedef int T; struct S { int T; T x; };")
	assert.Empty(t, diags)
}

func TestTypeNameInExpression(t *testing.T) {
	_, diags := parseString(t, "typedef int TYP; int bad1(void) { return TYP; }")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.UnexpectedToken, diags[0].Kind)
	assert.Contains(t, diags[0].Msg, "unexpected type name 'TYP'")
}

func TestRecovery(t *testing.T) {
	tu, diags := parseString(t, "int x = ; int y;")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.UnexpectedToken, diags[0].Kind)
	require.Len(t, tu.Decls, 2)
	assert.Equal(t, "y", tu.Decls[1].(*Declaration).Decls[0].Name())

	// One report per error even when the rest of the declaration is garbage.
	tu, diags = parseString(t, "int a b c d; int z;")
	assert.Equal(t, 1, diag.CountKind(diags, diag.UnexpectedToken))
	assert.Equal(t, "z", tu.Decls[len(tu.Decls)-1].(*Declaration).Decls[0].Name())

	_, diags = parseString(t, "void f(void) { x = ; y = 1; if (1) { ) } return; }")
	assert.Equal(t, 2, diag.CountKind(diags, diag.UnexpectedToken))

	tu, diags = parseString(t, "} ) int q;")
	assert.Equal(t, 1, diag.CountKind(diags, diag.UnexpectedToken))
	require.Len(t, tu.Decls, 1)
	assert.Equal(t, "q", tu.Decls[0].(*Declaration).Decls[0].Name())
}

func TestStatements(t *testing.T) {
	src := `
typedef int T;
int f(int n) {
	int i, s = 0;
	for (int j = 0; j < n; j++)
		s += j;
	for (i = 0; i < n; i++) {
		T t = (T)i;
		if (t & 1)
			continue;
		else
			s -= t;
	}
	switch (n) {
	case 1:
		break;
	default:
		goto out;
	}
	do { s--; } while (s > 100);
	while (0)
		;
out:
	asm volatile("nop");
	return s ? s : -1;
}
`
	tu, diags := parseString(t, src)
	assert.Empty(t, diags)
	def := tu.Decls[1].(*FunctionDef)
	assert.Len(t, def.Body.Items, 8)
	assert.IsType(t, &For{}, def.Body.Items[1])
	assert.IsType(t, &Labeled{}, def.Body.Items[6])
	assert.IsType(t, &Return{}, def.Body.Items[7])
}

func TestExpressions(t *testing.T) {
	src := `
struct P { int x, y; };
int g(int);
int f(struct P *p, int *a) {
	struct P q = { .x = 1, .y = 2 };
	int arr[3] = { [0] = 1, 2, 3, };
	p->x = q.y + a[1] * g(2) - (int)sizeof q;
	p = &(struct P){ 1, 2 };
	return !p->x || ~a[0] && (a[1] << 2) >= 3 ? a[2]++ : --a[2], 0;
}
`
	_, diags := parseString(t, src)
	assert.Empty(t, diags)
}

func TestAsmAndExtensions(t *testing.T) {
	src := `
asm("nop");
__extension__ typedef long long ll;
int x __attribute__((aligned(8)));
static __inline__ int f(void) __attribute__((unused));
int y __asm__("y_sym");
_Static_assert(sizeof(int) == 4, "int");
ll z;
`
	tu, diags := parseString(t, src)
	assert.Empty(t, diags)
	assert.IsType(t, &AsmStmt{}, tu.Decls[0])
	assert.Equal(t, "long long", declTypeAt(t, tu, len(tu.Decls)-1).String())
}

type failingSource struct {
	toks []*cpp.Token
}

func (s *failingSource) Next() (*cpp.Token, error) {
	if len(s.toks) == 0 {
		return nil, errors.New("read failed")
	}
	t := s.toks[0]
	s.toks = s.toks[1:]
	return t, nil
}

func TestTokenSourceFailure(t *testing.T) {
	pos := cpp.FilePos{File: "t.c", Line: 1, Col: 1}
	src := &failingSource{toks: []*cpp.Token{
		{Kind: cpp.INT, Val: "int", Pos: pos},
		{Kind: cpp.IDENT, Val: "x", Pos: pos},
		{Kind: ';', Val: ";", Pos: pos},
		{Kind: cpp.INT, Val: "int", Pos: pos},
	}}
	tu, _, err := Parse(src, DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read failed")
	require.NotNil(t, tu)
}
