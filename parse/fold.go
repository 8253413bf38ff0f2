package parse

import (
	"fmt"

	"github.com/tmikov/c99/cpp"
)

// ConstantInt is the value of a folded integer constant expression.
type ConstantInt struct {
	Val  int64
	Type CType
}

// Fold evaluates an integer constant expression. Array sizes, bit-field
// widths and enumerator values are folded while parsing.
func Fold(n Node) (*ConstantInt, error) {
	switch n := n.(type) {
	case *Constant:
		return &ConstantInt{Val: n.Val, Type: n.Type}, nil
	case *SymRef:
		if n.Sym != nil && n.Sym.Kind == EnumConstant {
			return &ConstantInt{Val: n.Sym.Value, Type: CInt}, nil
		}
		return nil, fmt.Errorf("'%s' is not a constant", n.Name)
	case *Unop:
		return foldUnop(n)
	case *Binop:
		return foldBinop(n)
	case *Cond:
		c, err := Fold(n.Cond)
		if err != nil {
			return nil, err
		}
		if c.Val != 0 {
			if n.Then == nil {
				return c, nil
			}
			return Fold(n.Then)
		}
		return Fold(n.Else)
	case *Cast:
		v, err := Fold(n.Operand)
		if err != nil {
			return nil, err
		}
		if !IsIntType(n.Type) {
			return nil, fmt.Errorf("cast to '%s' in a constant expression", n.Type)
		}
		return &ConstantInt{Val: convert(v.Val, n.Type), Type: Unqualified(n.Type)}, nil
	case *Sizeof:
		return foldSizeof(n)
	case nil:
		return nil, fmt.Errorf("missing expression")
	}
	return nil, fmt.Errorf("expression is not an integer constant expression")
}

func foldUnop(n *Unop) (*ConstantInt, error) {
	v, err := Fold(n.Operand)
	if err != nil {
		return nil, err
	}
	ty := promote(v.Type)
	switch n.Op {
	case '+':
		return &ConstantInt{Val: v.Val, Type: ty}, nil
	case '-':
		return &ConstantInt{Val: convert(-v.Val, ty), Type: ty}, nil
	case '~':
		return &ConstantInt{Val: convert(^v.Val, ty), Type: ty}, nil
	case '!':
		return &ConstantInt{Val: boolVal(v.Val == 0), Type: CInt}, nil
	}
	return nil, fmt.Errorf("operator %s in a constant expression", n.Op)
}

func foldBinop(n *Binop) (*ConstantInt, error) {
	l, err := Fold(n.L)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case cpp.LAND:
		if l.Val == 0 {
			return &ConstantInt{Val: 0, Type: CInt}, nil
		}
	case cpp.LOR:
		if l.Val != 0 {
			return &ConstantInt{Val: 1, Type: CInt}, nil
		}
	}
	r, err := Fold(n.R)
	if err != nil {
		return nil, err
	}
	ty := arithType(l.Type, r.Type)
	unsigned := isUnsigned(ty)
	a, b := l.Val, r.Val
	var v int64
	switch n.Op {
	case '+':
		v = a + b
	case '-':
		v = a - b
	case '*':
		v = a * b
	case '/', '%':
		if b == 0 {
			return nil, fmt.Errorf("division by zero in a constant expression")
		}
		switch {
		case unsigned && n.Op == '/':
			v = int64(uint64(convert(a, ty)) / uint64(convert(b, ty)))
		case unsigned:
			v = int64(uint64(convert(a, ty)) % uint64(convert(b, ty)))
		case n.Op == '/':
			v = a / b
		default:
			v = a % b
		}
	case '&':
		v = a & b
	case '|':
		v = a | b
	case '^':
		v = a ^ b
	case cpp.SHL, cpp.SHR:
		if b < 0 || b >= 64 {
			return nil, fmt.Errorf("shift count out of range in a constant expression")
		}
		ty = promote(l.Type)
		switch {
		case n.Op == cpp.SHL:
			v = a << uint(b)
		case isUnsigned(ty):
			v = int64(uint64(convert(a, ty)) >> uint(b))
		default:
			v = a >> uint(b)
		}
	case cpp.LAND, cpp.LOR:
		return &ConstantInt{Val: boolVal(b != 0), Type: CInt}, nil
	case cpp.EQL, cpp.NEQ, '<', '>', cpp.LEQ, cpp.GEQ:
		return &ConstantInt{Val: boolVal(compare(n.Op, convert(a, ty), convert(b, ty), unsigned)), Type: CInt}, nil
	default:
		return nil, fmt.Errorf("operator %s in a constant expression", n.Op)
	}
	return &ConstantInt{Val: convert(v, ty), Type: ty}, nil
}

func compare(op cpp.TokenKind, a, b int64, unsigned bool) bool {
	if unsigned {
		ua, ub := uint64(a), uint64(b)
		switch op {
		case '<':
			return ua < ub
		case '>':
			return ua > ub
		case cpp.LEQ:
			return ua <= ub
		case cpp.GEQ:
			return ua >= ub
		}
	}
	switch op {
	case cpp.EQL:
		return a == b
	case cpp.NEQ:
		return a != b
	case '<':
		return a < b
	case '>':
		return a > b
	case cpp.LEQ:
		return a <= b
	}
	return a >= b
}

func foldSizeof(n *Sizeof) (*ConstantInt, error) {
	ty := n.Type
	if ty == nil {
		switch op := n.Operand.(type) {
		case *String:
			ty = &ArrayType{MemberType: CChar, Dim: len(op.Val) + 1}
		case *SymRef:
			if op.Sym != nil {
				ty = op.Sym.Type
			}
		case *Constant:
			ty = op.Type
		case *CompoundLiteral:
			ty = op.Type
		}
		if ty == nil {
			return nil, fmt.Errorf("cannot determine the type of the operand of sizeof")
		}
	}
	if IsFunctionType(ty) {
		return nil, fmt.Errorf("invalid application of sizeof to a function type")
	}
	if n.Align {
		return &ConstantInt{Val: int64(ty.GetAlign()), Type: CULong}, nil
	}
	if ty.GetSize() == 0 && !IsVoidType(ty) {
		return nil, fmt.Errorf("invalid application of sizeof to incomplete type '%s'", ty)
	}
	sz := ty.GetSize()
	if IsVoidType(ty) {
		// GNU.
		sz = 1
	}
	return &ConstantInt{Val: int64(sz), Type: CULong}, nil
}

func boolVal(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func isUnsigned(t CType) bool {
	prim, ok := Unqualified(t).(*Primitive)
	return ok && prim.Unsigned
}

// promote applies the integer promotions.
func promote(t CType) CType {
	prim, ok := Unqualified(t).(*Primitive)
	if !ok {
		return CInt
	}
	if prim.Size < CInt.Size {
		return CInt
	}
	return prim
}

// arithType is the common type of the usual arithmetic conversions for
// integer operands.
func arithType(a, b CType) CType {
	pa, pb := promote(a).(*Primitive), promote(b).(*Primitive)
	switch {
	case pa.Size > pb.Size:
		return pa
	case pb.Size > pa.Size:
		return pb
	case pb.Unsigned:
		return pb
	}
	return pa
}

// convert truncates v to the width of t and extends it back per its
// signedness.
func convert(v int64, t CType) int64 {
	switch t := Unqualified(t).(type) {
	case *EnumType:
		return int64(int32(v))
	case *Primitive:
		if t.Kind == Bool {
			return boolVal(v != 0)
		}
		switch t.Size {
		case 1:
			if t.Unsigned {
				return int64(uint8(v))
			}
			return int64(int8(v))
		case 2:
			if t.Unsigned {
				return int64(uint16(v))
			}
			return int64(int16(v))
		case 4:
			if t.Unsigned {
				return int64(uint32(v))
			}
			return int64(int32(v))
		}
	}
	return v
}
