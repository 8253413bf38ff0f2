package parse

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tmikov/c99/cpp"
)

// intConstant converts an integer constant token. The type is the first of
// the candidate types of C99 6.4.4.1 that can hold the value.
func intConstant(t *cpp.Token) (*Constant, error) {
	n := &Constant{Pos: t.Pos, Type: CInt}
	digits := strings.TrimRight(t.Val, "uUlL")
	suffix := strings.ToLower(t.Val[len(digits):])
	unsigned := strings.Contains(suffix, "u")
	longs := strings.Count(suffix, "l")
	if len(suffix) > 3 || longs > 2 || strings.Count(suffix, "u") > 1 ||
		(longs == 2 && !strings.Contains(suffix, "ll")) {
		return n, fmt.Errorf("invalid suffix '%s' on integer constant", t.Val[len(digits):])
	}
	if strings.ContainsRune(digits, '_') {
		return n, fmt.Errorf("invalid integer constant '%s'", t.Val)
	}
	v, err := strconv.ParseUint(digits, 0, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return n, fmt.Errorf("integer constant '%s' is too large", t.Val)
		}
		return n, fmt.Errorf("invalid integer constant '%s'", t.Val)
	}
	n.Val = int64(v)
	decimal := digits == "0" || digits[0] != '0'

	var candidates []*Primitive
	switch longs {
	case 0:
		candidates = []*Primitive{CInt, CUInt, CLong, CULong, CLLong, CULLong}
	case 1:
		candidates = []*Primitive{CLong, CULong, CLLong, CULLong}
	default:
		candidates = []*Primitive{CLLong, CULLong}
	}
	for _, c := range candidates {
		if c.Unsigned && !unsigned && decimal {
			continue
		}
		if !c.Unsigned && unsigned {
			continue
		}
		if fits(v, c) {
			n.Type = c
			return n, nil
		}
	}
	// Decimal constants too large for long long.
	n.Type = CULLong
	return n, nil
}

func fits(v uint64, t *Primitive) bool {
	bits := uint(t.Size * 8)
	if t.Unsigned {
		return bits >= 64 || v < 1<<bits
	}
	return v < 1<<(bits-1)
}

func floatConstant(t *cpp.Token) *FloatConstant {
	n := &FloatConstant{Val: t.Val, Pos: t.Pos, Type: CDouble}
	switch t.Val[len(t.Val)-1] {
	case 'f', 'F':
		if !strings.HasPrefix(t.Val, "0x") && !strings.HasPrefix(t.Val, "0X") || strings.ContainsAny(t.Val, "pP") {
			n.Type = CFloat
		}
	case 'l', 'L':
		n.Type = CLDouble
	}
	return n
}

// charConstant converts a character constant. Multi-character constants
// are packed big endian into an int, as GCC does.
func charConstant(t *cpp.Token) (*Constant, error) {
	n := &Constant{Pos: t.Pos, Type: CInt}
	s, err := unquote(t.Val)
	if err != nil {
		return n, err
	}
	if s == "" {
		return n, fmt.Errorf("empty character constant")
	}
	if len(s) == 1 {
		// Plain char is signed.
		n.Val = int64(int8(s[0]))
		return n, nil
	}
	var v int64
	for i := 0; i < len(s); i++ {
		v = v<<8 | int64(s[i])
	}
	n.Val = int64(int32(v))
	return n, nil
}

// unquote strips the prefix and quotes of a string or character literal and
// decodes its escape sequences.
func unquote(lit string) (string, error) {
	start := strings.IndexAny(lit, "\"'")
	if start < 0 || len(lit)-start < 2 {
		return "", fmt.Errorf("malformed literal %s", lit)
	}
	body := lit[start+1 : len(lit)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i == len(body) {
			return b.String(), fmt.Errorf("trailing backslash in %s", lit)
		}
		c = body[i]
		switch c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'e':
			b.WriteByte(0x1b)
		case '\\', '\'', '"', '?':
			b.WriteByte(c)
		case 'x':
			j := i + 1
			for j < len(body) && isHexDigit(body[j]) {
				j++
			}
			if j == i+1 {
				return b.String(), fmt.Errorf("\\x used with no following hex digits")
			}
			v, err := strconv.ParseUint(body[i+1:j], 16, 64)
			if err != nil || v > math.MaxUint8 {
				return b.String(), fmt.Errorf("hex escape sequence out of range")
			}
			b.WriteByte(byte(v))
			i = j - 1
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(body) && j < i+3 && body[j] >= '0' && body[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(body[i:j], 8, 16)
			if v > math.MaxUint8 {
				return b.String(), fmt.Errorf("octal escape sequence out of range")
			}
			b.WriteByte(byte(v))
			i = j - 1
		default:
			return b.String(), fmt.Errorf("unknown escape sequence '\\%c'", c)
		}
	}
	return b.String(), nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
