package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmikov/c99/cpp"
)

func TestIntConstant(t *testing.T) {
	cases := []struct {
		lit  string
		val  int64
		want *Primitive
	}{
		{"42", 42, CInt},
		{"42u", 42, CUInt},
		{"42L", 42, CLong},
		{"42ull", 42, CULLong},
		{"42LLU", 42, CULLong},
		{"0x7fffffff", 0x7fffffff, CInt},
		{"0xffffffff", 0xffffffff, CUInt},
		{"4294967295", 4294967295, CLong},
		{"010", 8, CInt},
		{"0", 0, CInt},
	}
	for _, tc := range cases {
		t.Run(tc.lit, func(t *testing.T) {
			n, err := intConstant(&cpp.Token{Kind: cpp.INT_CONSTANT, Val: tc.lit})
			require.NoError(t, err)
			assert.Equal(t, tc.val, n.Val)
			assert.Same(t, tc.want, n.Type)
		})
	}

	for _, bad := range []string{"1uu", "1lul", "09", "1_0", "99999999999999999999"} {
		_, err := intConstant(&cpp.Token{Kind: cpp.INT_CONSTANT, Val: bad})
		assert.Error(t, err, bad)
	}
}

func TestUnquote(t *testing.T) {
	cases := []struct {
		lit  string
		want string
	}{
		{`"abc"`, "abc"},
		{`"a\nb"`, "a\nb"},
		{`'\0'`, "\x00"},
		{`'\101'`, "A"},
		{`"\x41\x42"`, "AB"},
		{`"\1234"`, "S4"},
		{`L"wide"`, "wide"},
		{`u8"x"`, "x"},
		{`'\''`, "'"},
	}
	for _, tc := range cases {
		got, err := unquote(tc.lit)
		require.NoError(t, err, tc.lit)
		assert.Equal(t, tc.want, got, tc.lit)
	}

	_, err := unquote(`"\q"`)
	assert.Error(t, err)
	_, err = unquote(`"\x"`)
	assert.Error(t, err)
}

func TestCharConstant(t *testing.T) {
	n, err := charConstant(&cpp.Token{Kind: cpp.CHAR_CONSTANT, Val: `'a'`})
	require.NoError(t, err)
	assert.EqualValues(t, 97, n.Val)

	n, err = charConstant(&cpp.Token{Kind: cpp.CHAR_CONSTANT, Val: `'\377'`})
	require.NoError(t, err)
	assert.EqualValues(t, -1, n.Val)

	n, err = charConstant(&cpp.Token{Kind: cpp.CHAR_CONSTANT, Val: `'ab'`})
	require.NoError(t, err)
	assert.EqualValues(t, 'a'<<8|'b', n.Val)

	_, err = charConstant(&cpp.Token{Kind: cpp.CHAR_CONSTANT, Val: `''`})
	assert.Error(t, err)
}

func TestFloatConstant(t *testing.T) {
	assert.Same(t, CDouble, floatConstant(&cpp.Token{Val: "1.5"}).Type)
	assert.Same(t, CFloat, floatConstant(&cpp.Token{Val: "1.5f"}).Type)
	assert.Same(t, CLDouble, floatConstant(&cpp.Token{Val: "1.5L"}).Type)
	assert.Same(t, CFloat, floatConstant(&cpp.Token{Val: "0x1p3f"}).Type)
}
