package parse

import "github.com/tmikov/c99/cpp"

// parseCompoundStatement parses "{ block-item* }". A function body shares
// the scope of its parameters, every other block opens a new scope.
func (p *parser) parseCompoundStatement(newScope bool) *Block {
	b := &Block{Pos: p.curt.Pos}
	if !p.expect('{') {
		return b
	}
	items := func(*Scope) {
		for p.curt.Kind != '}' && p.curt.Kind != cpp.EOF {
			if n := p.parseBlockItem(); n != nil {
				b.Items = append(b.Items, n)
			}
			if p.recovering {
				p.synchronize()
			}
		}
	}
	if newScope {
		p.scope.With(ScopeBlock, items)
	} else {
		items(p.scope.Current())
	}
	p.expect('}')
	return b
}

func (p *parser) parseBlockItem() Node {
	switch {
	case p.curt.Kind == cpp.STATIC_ASSERT:
		p.skipBalancedDirective()
		return nil
	case p.startsDeclaration(), p.atUnknownTypeName():
		return p.parseDeclaration(declBlock)
	}
	return p.parseStatement()
}

func (p *parser) parseStatement() Node {
	t := p.curt
	if t.Kind == cpp.IDENT && p.nextt.Kind == ':' {
		p.next()
		p.next()
		p.skipAttributes()
		return &Labeled{Pos: t.Pos, Label: t.Val, Stmt: p.parseStatement()}
	}

	switch t.Kind {
	case '{':
		return p.parseCompoundStatement(true)
	case ';':
		p.next()
		return &EmptyStmt{Pos: t.Pos}
	case cpp.IF:
		return p.parseIf()
	case cpp.WHILE:
		return p.parseWhile()
	case cpp.DO:
		return p.parseDoWhile()
	case cpp.FOR:
		return p.parseFor()
	case cpp.SWITCH:
		p.next()
		p.expect('(')
		n := &Switch{Pos: t.Pos, Expr: p.parseExpression()}
		p.expect(')')
		n.Body = p.parseStatement()
		return n
	case cpp.CASE:
		p.next()
		n := &Case{Pos: t.Pos, Expr: p.parseConditionalExpression()}
		if p.curt.Kind == cpp.ELLIPSIS {
			// GNU case range; the upper bound is not kept.
			p.next()
			p.parseConditionalExpression()
		}
		p.expect(':')
		n.Stmt = p.parseStatement()
		return n
	case cpp.DEFAULT:
		p.next()
		p.expect(':')
		return &Default{Pos: t.Pos, Stmt: p.parseStatement()}
	case cpp.GOTO:
		p.next()
		label := p.curt
		p.expect(cpp.IDENT)
		p.expectSemi()
		return &Goto{Pos: t.Pos, Label: label.Val}
	case cpp.BREAK:
		p.next()
		p.expectSemi()
		return &Break{Pos: t.Pos}
	case cpp.CONTINUE:
		p.next()
		p.expectSemi()
		return &Continue{Pos: t.Pos}
	case cpp.RETURN:
		p.next()
		n := &Return{Pos: t.Pos}
		if p.curt.Kind != ';' {
			n.Expr = p.parseExpression()
		}
		p.expectSemi()
		return n
	case cpp.ASM:
		n := p.parseAsm()
		p.expectSemi()
		return n
	case cpp.PRAGMA:
		p.skipBalancedDirective()
		return &EmptyStmt{Pos: t.Pos}
	}
	n := &ExprStmt{Pos: t.Pos, Expr: p.parseExpression()}
	p.expectSemi()
	return n
}

func (p *parser) parseIf() Node {
	n := &If{Pos: p.curt.Pos}
	p.expect(cpp.IF)
	p.expect('(')
	n.Cond = p.parseExpression()
	p.expect(')')
	n.Then = p.parseStatement()
	if p.curt.Kind == cpp.ELSE {
		p.next()
		n.Else = p.parseStatement()
	}
	return n
}

// parseFor parses a for statement. A declaration in the first clause is
// scoped to the statement.
func (p *parser) parseFor() Node {
	n := &For{Pos: p.curt.Pos}
	p.scope.With(ScopeBlock, func(*Scope) {
		p.expect(cpp.FOR)
		p.expect('(')
		switch {
		case p.startsDeclaration():
			n.Init = p.parseDeclaration(declBlock)
		case p.curt.Kind == ';':
			p.next()
		default:
			n.Init = p.parseExpression()
			p.expect(';')
		}
		if p.curt.Kind != ';' {
			n.Cond = p.parseExpression()
		}
		p.expect(';')
		if p.curt.Kind != ')' {
			n.Step = p.parseExpression()
		}
		p.expect(')')
		n.Body = p.parseStatement()
	})
	return n
}

func (p *parser) parseWhile() Node {
	n := &While{Pos: p.curt.Pos}
	p.expect(cpp.WHILE)
	p.expect('(')
	n.Cond = p.parseExpression()
	p.expect(')')
	n.Body = p.parseStatement()
	return n
}

func (p *parser) parseDoWhile() Node {
	n := &DoWhile{Pos: p.curt.Pos}
	p.expect(cpp.DO)
	n.Body = p.parseStatement()
	p.expect(cpp.WHILE)
	p.expect('(')
	n.Cond = p.parseExpression()
	p.expect(')')
	p.expectSemi()
	return n
}
