package parse

// ArrayContext classifies where an array declarator appears, for deciding
// whether qualifiers, 'static' and '*' are allowed inside its brackets.
type ArrayContext int

const (
	ArrayFileObject ArrayContext = iota
	ArrayBlockObject
	ArrayMember
	ArrayTypeName
	ArrayInnerDimension
	ArrayPrototypeParam
	ArrayDefinitionParam
)

var arrayContextNames = [...]string{
	ArrayFileObject:      "a file scope declaration",
	ArrayBlockObject:     "a block scope declaration",
	ArrayMember:          "a struct or union member",
	ArrayTypeName:        "a type name",
	ArrayInnerDimension:  "a non-outermost array dimension",
	ArrayPrototypeParam:  "a function prototype parameter",
	ArrayDefinitionParam: "a function definition parameter",
}

func (c ArrayContext) String() string { return arrayContextNames[c] }

// ArrayPolicy says, per context, whether array qualifiers are accepted.
type ArrayPolicy [ArrayDefinitionParam + 1]bool

// DefaultArrayPolicy accepts array qualifiers only on the outermost
// dimension of a parameter declarator.
func DefaultArrayPolicy() ArrayPolicy {
	var p ArrayPolicy
	p[ArrayPrototypeParam] = true
	p[ArrayDefinitionParam] = true
	return p
}

func (p *ArrayPolicy) Allows(c ArrayContext) bool {
	return p[c]
}

// declKind is the syntactic context a declarator is parsed in.
type declKind int

const (
	declFile declKind = iota
	declBlock
	declMember
	declParam
	declTypeName
)

// declCtx is threaded through declarator parsing. outermost is true while
// the next array suffix would be the outermost derivation of the whole
// declarator.
type declCtx struct {
	kind      declKind
	outermost bool
}

// abstractOK reports whether the declarator may omit its identifier.
func (c declCtx) abstractOK() bool {
	return c.kind == declParam || c.kind == declTypeName
}

func (c declCtx) inner() declCtx {
	return declCtx{kind: c.kind}
}

// arrayContext maps a declarator context to a policy row. Parameter rows
// are decided later, when it is known whether the function is defined.
func (c declCtx) arrayContext() ArrayContext {
	if !c.outermost && c.kind != declTypeName {
		return ArrayInnerDimension
	}
	switch c.kind {
	case declFile:
		return ArrayFileObject
	case declBlock:
		return ArrayBlockObject
	case declMember:
		return ArrayMember
	case declTypeName:
		return ArrayTypeName
	}
	return ArrayPrototypeParam
}
