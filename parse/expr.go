package parse

import (
	"github.com/tmikov/c99/cpp"
	"github.com/tmikov/c99/diag"
)

func isAssignmentOperator(k cpp.TokenKind) bool {
	switch k {
	case '=', cpp.ADD_ASSIGN, cpp.SUB_ASSIGN, cpp.MUL_ASSIGN, cpp.QUO_ASSIGN, cpp.REM_ASSIGN,
		cpp.AND_ASSIGN, cpp.OR_ASSIGN, cpp.XOR_ASSIGN, cpp.SHL_ASSIGN, cpp.SHR_ASSIGN:
		return true
	}
	return false
}

func (p *parser) parseExpression() Node {
	l := p.parseAssignmentExpression()
	for p.curt.Kind == ',' {
		pos := p.curt.Pos
		p.next()
		r := p.parseAssignmentExpression()
		l = &Binop{Op: ',', Pos: pos, L: l, R: r}
	}
	return l
}

func (p *parser) parseAssignmentExpression() Node {
	l := p.parseConditionalExpression()
	if isAssignmentOperator(p.curt.Kind) {
		op := p.curt
		p.next()
		r := p.parseAssignmentExpression()
		return &Binop{Op: op.Kind, Pos: op.Pos, L: l, R: r}
	}
	return l
}

// Aka Ternary operator.
func (p *parser) parseConditionalExpression() Node {
	cond := p.parseLogicalOrExpression()
	if p.curt.Kind != '?' {
		return cond
	}
	pos := p.curt.Pos
	p.next()
	var then Node
	// GNU "a ?: b".
	if p.curt.Kind != ':' {
		then = p.parseExpression()
	}
	p.expect(':')
	els := p.parseConditionalExpression()
	return &Cond{Pos: pos, Cond: cond, Then: then, Else: els}
}

func (p *parser) binop(l Node, next func() Node) Node {
	op := p.curt
	p.next()
	r := next()
	return &Binop{Op: op.Kind, Pos: op.Pos, L: l, R: r}
}

func (p *parser) parseLogicalOrExpression() Node {
	l := p.parseLogicalAndExpression()
	for p.curt.Kind == cpp.LOR {
		l = p.binop(l, p.parseLogicalAndExpression)
	}
	return l
}

func (p *parser) parseLogicalAndExpression() Node {
	l := p.parseInclusiveOrExpression()
	for p.curt.Kind == cpp.LAND {
		l = p.binop(l, p.parseInclusiveOrExpression)
	}
	return l
}

func (p *parser) parseInclusiveOrExpression() Node {
	l := p.parseExclusiveOrExpression()
	for p.curt.Kind == '|' {
		l = p.binop(l, p.parseExclusiveOrExpression)
	}
	return l
}

func (p *parser) parseExclusiveOrExpression() Node {
	l := p.parseAndExpression()
	for p.curt.Kind == '^' {
		l = p.binop(l, p.parseAndExpression)
	}
	return l
}

func (p *parser) parseAndExpression() Node {
	l := p.parseEqualityExpression()
	for p.curt.Kind == '&' {
		l = p.binop(l, p.parseEqualityExpression)
	}
	return l
}

func (p *parser) parseEqualityExpression() Node {
	l := p.parseRelationalExpression()
	for p.curt.Kind == cpp.EQL || p.curt.Kind == cpp.NEQ {
		l = p.binop(l, p.parseRelationalExpression)
	}
	return l
}

func (p *parser) parseRelationalExpression() Node {
	l := p.parseShiftExpression()
	for p.curt.Kind == '>' || p.curt.Kind == '<' || p.curt.Kind == cpp.LEQ || p.curt.Kind == cpp.GEQ {
		l = p.binop(l, p.parseShiftExpression)
	}
	return l
}

func (p *parser) parseShiftExpression() Node {
	l := p.parseAdditiveExpression()
	for p.curt.Kind == cpp.SHL || p.curt.Kind == cpp.SHR {
		l = p.binop(l, p.parseAdditiveExpression)
	}
	return l
}

func (p *parser) parseAdditiveExpression() Node {
	l := p.parseMultiplicativeExpression()
	for p.curt.Kind == '+' || p.curt.Kind == '-' {
		l = p.binop(l, p.parseMultiplicativeExpression)
	}
	return l
}

func (p *parser) parseMultiplicativeExpression() Node {
	l := p.parseCastExpression()
	for p.curt.Kind == '*' || p.curt.Kind == '/' || p.curt.Kind == '%' {
		l = p.binop(l, p.parseCastExpression)
	}
	return l
}

// parseCastExpression parses "(type-name) cast-expression" and compound
// literals. Whether '(' opens a type name depends on the identifiers bound
// as typedefs at this point.
func (p *parser) parseCastExpression() Node {
	if p.curt.Kind != '(' || !p.startsTypeName(p.nextt) {
		return p.parseUnaryExpression()
	}
	pos := p.curt.Pos
	p.next()
	ty := p.parseTypeName()
	p.expect(')')
	if p.curt.Kind == '{' {
		return p.parsePostfixOps(p.parseCompoundLiteral(pos, ty))
	}
	return &Cast{Pos: pos, Type: ty, Operand: p.parseCastExpression()}
}

func (p *parser) parseCompoundLiteral(pos cpp.FilePos, ty CType) Node {
	return &CompoundLiteral{Pos: pos, Type: ty, Init: p.parseInitializerList()}
}

func (p *parser) parseUnaryExpression() Node {
	t := p.curt
	switch t.Kind {
	case cpp.INC, cpp.DEC:
		p.next()
		return &Unop{Op: t.Kind, Pos: t.Pos, Operand: p.parseUnaryExpression()}
	case '*', '+', '-', '!', '~', '&':
		p.next()
		return &Unop{Op: t.Kind, Pos: t.Pos, Operand: p.parseCastExpression()}
	case cpp.SIZEOF, cpp.ALIGNOF:
		p.next()
		n := &Sizeof{Pos: t.Pos, Align: t.Kind == cpp.ALIGNOF}
		if p.curt.Kind == '(' && p.startsTypeName(p.nextt) {
			lparen := p.curt.Pos
			p.next()
			ty := p.parseTypeName()
			p.expect(')')
			if p.curt.Kind != '{' {
				n.Type = ty
				return n
			}
			n.Operand = p.parsePostfixOps(p.parseCompoundLiteral(lparen, ty))
			return n
		}
		n.Operand = p.parseUnaryExpression()
		return n
	case cpp.EXTENSION:
		p.next()
		return p.parseCastExpression()
	}
	return p.parsePostfixExpression()
}

func (p *parser) parsePostfixExpression() Node {
	return p.parsePostfixOps(p.parsePrimaryExpression())
}

func (p *parser) parsePostfixOps(l Node) Node {
	for {
		t := p.curt
		switch t.Kind {
		case '[':
			p.next()
			idx := p.parseExpression()
			p.expect(']')
			l = &Index{Pos: t.Pos, Arr: l, Idx: idx}
		case '.', cpp.ARROW:
			p.next()
			sel := p.curt
			if !p.expect(cpp.IDENT) {
				return l
			}
			l = &Selector{Pos: t.Pos, Operand: l, Sel: sel.Val, Arrow: t.Kind == cpp.ARROW}
		case '(':
			p.next()
			call := &Call{Pos: t.Pos, Func: l}
			for p.curt.Kind != ')' {
				call.Args = append(call.Args, p.parseAssignmentExpression())
				if p.curt.Kind != ',' {
					break
				}
				p.next()
			}
			p.expect(')')
			l = call
		case cpp.INC, cpp.DEC:
			p.next()
			l = &PostIncDec{Op: t.Kind, Pos: t.Pos, Operand: l}
		default:
			return l
		}
	}
}

func (p *parser) parsePrimaryExpression() Node {
	t := p.curt
	switch t.Kind {
	case cpp.IDENT:
		p.next()
		sym := p.scope.Lookup(t.Val)
		if sym != nil && sym.Kind == TypeName {
			p.syntaxError(t.Pos, "unexpected type name '%s': expected expression", t.Val)
			return &BadExpr{Pos: t.Pos}
		}
		return &SymRef{Name: t.Val, Pos: t.Pos, Sym: sym}
	case cpp.INT_CONSTANT:
		p.next()
		n, err := intConstant(t)
		if err != nil {
			p.rep.Errorf(diag.UnexpectedToken, t.Pos, "%s", err)
		}
		return n
	case cpp.FLOAT_CONSTANT:
		p.next()
		return floatConstant(t)
	case cpp.CHAR_CONSTANT:
		p.next()
		n, err := charConstant(t)
		if err != nil {
			p.rep.Errorf(diag.UnexpectedToken, t.Pos, "%s", err)
		}
		return n
	case cpp.STRING:
		return p.parseString()
	case '(':
		p.next()
		var e Node
		if p.curt.Kind == '{' {
			// GNU statement expression.
			e = p.parseCompoundStatement(true)
		} else {
			e = p.parseExpression()
		}
		p.expect(')')
		return e
	}
	p.syntaxError(t.Pos, "expected expression before %s", describe(t))
	return &BadExpr{Pos: t.Pos}
}

// parseString concatenates adjacent string literals.
func (p *parser) parseString() Node {
	n := &String{Pos: p.curt.Pos}
	for p.curt.Kind == cpp.STRING {
		s, err := unquote(p.curt.Val)
		if err != nil {
			p.rep.Errorf(diag.UnexpectedToken, p.curt.Pos, "%s", err)
		}
		n.Val += s
		p.next()
	}
	return n
}
