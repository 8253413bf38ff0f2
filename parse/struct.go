package parse

import (
	"github.com/tmikov/c99/cpp"
	"github.com/tmikov/c99/diag"
)

// parseTagName parses the keyword and optional tag of a struct, union or
// enum specifier and resolves the tag. A body or a lone "struct S;"
// declares the tag in the current scope, any other use refers to the
// visible one.
func (p *parser) parseTagName(kind TagKind) (*Tag, cpp.FilePos) {
	kw := p.curt
	p.next()
	p.skipAttributes()
	name, pos := "", kw.Pos
	if p.curt.Kind == cpp.IDENT {
		name, pos = p.curt.Val, p.curt.Pos
		p.next()
	} else if p.curt.Kind != '{' {
		p.syntaxError(p.curt.Pos, "expected identifier or '{' after '%s'", kw.Val)
	}
	var tag *Tag
	var err error
	if name == "" || p.curt.Kind == '{' || p.curt.Kind == ';' {
		tag, err = p.scope.DeclareTag(kind, name, pos)
	} else {
		tag, err = p.scope.ReferenceTag(kind, name, pos)
	}
	p.reportRedefinition(err)
	return tag, pos
}

// startBody checks that tag does not already have a body. The returned
// tag receives the members; after a redefinition it is a detached copy.
func (p *parser) startBody(tag *Tag, kind TagKind, pos cpp.FilePos) *Tag {
	if tag.Kind == kind && !tag.Complete() {
		tag.Pos = pos
		return tag
	}
	if tag.Kind == kind {
		p.rep.Report(diag.Redefinition, diag.Error, pos, []cpp.FilePos{tag.Pos},
			"redefinition of '%s'", tag.Type)
	}
	detached := &Tag{Name: tag.Name, Kind: kind, Pos: pos}
	if kind == TagEnum {
		detached.Type = &EnumType{Tag: tag.Name}
	} else {
		detached.Type = &StructType{Tag: tag.Name, IsUnion: kind == TagUnion}
	}
	return detached
}

func (p *parser) parseStructOrUnion() (*Tag, bool) {
	kind := TagStruct
	if p.curt.Kind == cpp.UNION {
		kind = TagUnion
	}
	tag, pos := p.parseTagName(kind)
	if p.curt.Kind != '{' {
		return tag, false
	}
	body := p.startBody(tag, kind, pos)
	st := body.Type.(*StructType)
	p.next()
	p.scope.With(ScopeAggregate, func(s *Scope) {
		for p.curt.Kind != '}' && p.curt.Kind != cpp.EOF {
			p.parseMemberDeclaration(st, s)
			if p.recovering {
				p.synchronize()
			}
		}
	})
	p.expect('}')
	st.Complete = true
	p.skipAttributes()
	p.log.Debug("struct body", "type", st.String(), "fields", len(st.Fields))
	return tag, true
}

// parseMemberDeclaration parses one struct-declaration, appending the
// members to st.
func (p *parser) parseMemberDeclaration(st *StructType, s *Scope) {
	switch {
	case p.curt.Kind == cpp.STATIC_ASSERT:
		p.skipBalancedDirective()
		return
	case p.curt.Kind == ';':
		p.next()
		return
	case p.atUnknownTypeName():
	case !p.startsDeclaration():
		p.syntaxError(p.curt.Pos, "expected member declaration before %s", describe(p.curt))
		return
	}
	var specs *SpecifierSet
	if p.atUnknownTypeName() {
		p.rep.Errorf(diag.UnknownTypeName, p.curt.Pos, "unknown type name '%s'", p.curt.Val)
		specs = p.unknownTypeSpecs()
	} else {
		specs = p.parseDeclSpecs()
	}
	spec := p.resolveSpecs(specs)
	if spec.Storage != SC_NONE {
		p.rep.Errorf(diag.InvalidStorageClass, specs.Storage[0].Pos, "invalid storage class '%s' for a member", spec.Storage)
	}
	if p.curt.Kind == ';' {
		// Anonymous struct or union member.
		if agg, ok := Unqualified(spec.CType).(*StructType); ok && agg.Tag == "" {
			st.Fields = append(st.Fields, Field{Type: spec.CType, Bits: -1})
		}
		p.next()
		return
	}
	for {
		f := Field{Type: spec.CType, Bits: -1}
		var pos cpp.FilePos
		if p.curt.Kind != ':' {
			d := p.parseDeclarator(declCtx{kind: declMember, outermost: true})
			if IsBad(d) {
				return
			}
			f.Name = DeclaratorName(d)
			pos = DeclaratorPos(d)
			f.Type = p.declType(d, spec.CType)
			p.resolveArrayChecks(d, false)
			if IsFunctionType(f.Type) {
				p.rep.Errorf(diag.InvalidDerivation, pos, "field '%s' declared as a function", f.Name)
			}
		}
		if p.curt.Kind == ':' {
			p.next()
			width := p.parseConditionalExpression()
			if v, err := Fold(width); err == nil {
				f.Bits = int(v.Val)
				p.checkBitField(&f, width.GetPos())
			}
		} else if f.Type != nil && isIncompleteObject(f.Type) {
			p.rep.Errorf(diag.IncompleteType, pos, "field '%s' has incomplete type '%s'", f.Name, f.Type)
		}
		p.addMember(st, s, f, pos)
		if p.curt.Kind != ',' {
			break
		}
		p.next()
	}
	p.expectSemi()
}

// checkBitField validates a constant bit-field width against the field's
// type. An invalid width is reset to zero.
func (p *parser) checkBitField(f *Field, pos cpp.FilePos) {
	name := f.Name
	if name == "" {
		name = "<anonymous>"
	}
	if f.Type == nil {
		return
	}
	if !IsIntType(f.Type) {
		p.rep.Errorf(diag.InvalidBitField, pos, "bit-field '%s' has non-integer type '%s'", name, f.Type)
		return
	}
	bits := f.Type.GetSize() * 8
	if IsBoolType(f.Type) {
		bits = 1
	}
	switch {
	case f.Bits < 0:
		p.rep.Errorf(diag.InvalidBitField, pos, "bit-field '%s' has negative width (%d)", name, f.Bits)
		f.Bits = 0
	case f.Bits == 0 && f.Name != "":
		p.rep.Errorf(diag.InvalidBitField, pos, "named bit-field '%s' has zero width", name)
	case f.Bits > bits:
		p.rep.Errorf(diag.InvalidBitField, pos, "width of bit-field '%s' (%d bits) exceeds the width of its type (%d bits)", name, f.Bits, bits)
		f.Bits = bits
	}
}

func (p *parser) addMember(st *StructType, s *Scope, f Field, pos cpp.FilePos) {
	if f.Name != "" {
		if prev := s.LookupLocal(f.Name); prev != nil {
			p.rep.Report(diag.Redefinition, diag.Error, pos, []cpp.FilePos{prev.Pos}, "duplicate member '%s'", f.Name)
			return
		}
		p.scope.Bind(f.Name, Ordinary, pos, f.Type)
	}
	st.Fields = append(st.Fields, f)
}

func (p *parser) parseEnum() (*Tag, bool) {
	tag, pos := p.parseTagName(TagEnum)
	if p.curt.Kind != '{' {
		return tag, false
	}
	body := p.startBody(tag, TagEnum, pos)
	et := body.Type.(*EnumType)
	p.next()
	p.scope.With(ScopeEnum, func(*Scope) {
		if p.curt.Kind != cpp.IDENT {
			p.syntaxError(p.curt.Pos, "expected identifier before %s", describe(p.curt))
			return
		}
		var val int64
		for p.curt.Kind == cpp.IDENT {
			t := p.curt
			p.next()
			p.skipAttributes()
			if p.curt.Kind == '=' {
				p.next()
				if v, err := Fold(p.parseConditionalExpression()); err == nil {
					val = v.Val
				}
			}
			sym, err := p.scope.Bind(t.Val, EnumConstant, t.Pos, CInt)
			if err != nil {
				p.reportRedefinition(err)
			} else {
				sym.Value = val
			}
			val++
			if p.curt.Kind != ',' {
				break
			}
			p.next()
		}
	})
	p.expect('}')
	et.Complete = true
	p.skipAttributes()
	return tag, true
}
