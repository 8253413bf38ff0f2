package parse

import "github.com/tmikov/c99/cpp"

// InitializerList is a braced initializer, also the body of a compound
// literal.
type InitializerList struct {
	Pos     cpp.FilePos
	Members []*InitMember
}

type InitMember struct {
	Designators []*Designator
	// An expression or a nested *InitializerList.
	Val Node
}

// Designator is ".field" or "[index]". GNU ranges "[lo ... hi]" set Last.
type Designator struct {
	Pos   cpp.FilePos
	Field string
	Index Node
	Last  Node
}

func (n *InitializerList) GetPos() cpp.FilePos { return n.Pos }

func (p *parser) parseInitializer() Node {
	if p.curt.Kind == '{' {
		return p.parseInitializerList()
	}
	return p.parseAssignmentExpression()
}

func (p *parser) parseInitializerList() *InitializerList {
	l := &InitializerList{Pos: p.curt.Pos}
	if !p.expect('{') {
		return l
	}
	for p.curt.Kind != '}' && p.curt.Kind != cpp.EOF && !p.recovering {
		m := &InitMember{}
		m.Designators = p.parseDesignators()
		if len(m.Designators) != 0 {
			p.expect('=')
		}
		m.Val = p.parseInitializer()
		l.Members = append(l.Members, m)
		if p.curt.Kind != ',' {
			break
		}
		p.next()
	}
	p.expect('}')
	return l
}

func (p *parser) parseDesignators() []*Designator {
	var ds []*Designator
	for {
		t := p.curt
		switch t.Kind {
		case '.':
			p.next()
			name := p.curt
			if !p.expect(cpp.IDENT) {
				return ds
			}
			ds = append(ds, &Designator{Pos: t.Pos, Field: name.Val})
		case '[':
			p.next()
			d := &Designator{Pos: t.Pos, Index: p.parseConditionalExpression()}
			if p.curt.Kind == cpp.ELLIPSIS {
				p.next()
				d.Last = p.parseConditionalExpression()
			}
			p.expect(']')
			ds = append(ds, d)
		default:
			return ds
		}
	}
}
