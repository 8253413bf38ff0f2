package emit

import (
	"fmt"
	"io"
	"strings"

	"github.com/tmikov/c99/parse"
)

type emitter struct {
	o   io.Writer
	err error
}

// Emit writes one line of English per declared entity in tu, in the style
// of cdecl:
//
//	declare p as static pointer to const char
//	define main as function (argc: int, argv: pointer to pointer to char) returning int
//
// Tags defined in a declaration get their own line listing the members.
func Emit(tu *parse.TranslationUnit, o io.Writer) error {
	e := &emitter{
		o: o,
	}

	for _, tl := range tu.Decls {
		switch tl := tl.(type) {
		case *parse.Declaration:
			e.emitDeclaration(tl)
		case *parse.FunctionDef:
			e.emitFunction(tl)
		case *parse.AsmStmt:
			e.emit("asm (%d tokens)\n", len(tl.Toks))
		default:
			panic(tl)
		}
	}

	return e.err
}

func (e *emitter) emit(s string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.o, s, args...)
}

func (e *emitter) emiti(s string, args ...interface{}) {
	e.emit("  "+s, args...)
}

func (e *emitter) emitDeclaration(d *parse.Declaration) {
	if d.Spec == nil {
		return
	}
	if tag := d.Spec.Type.Tag; tag != nil && d.Spec.Type.TagBody {
		e.emitTag(tag)
	}
	for _, id := range d.Decls {
		name := id.Name()
		if name == "" || id.Type == nil {
			continue
		}
		if d.Spec.Storage == parse.SC_TYPEDEF {
			e.emit("declare %s as type %s\n", name, English(id.Type))
			continue
		}
		e.emit("declare %s as %s%s\n", name, storage(d.Spec), English(id.Type))
	}
}

func (e *emitter) emitFunction(f *parse.FunctionDef) {
	e.emit("define %s as %s%s\n", f.Decl.Name(), storage(f.Spec), English(f.Decl.Type))
}

func (e *emitter) emitTag(tag *parse.Tag) {
	switch t := tag.Type.(type) {
	case *parse.StructType:
		e.emit("define %s\n", t)
		for _, f := range t.Fields {
			name := f.Name
			if name == "" {
				name = "<anonymous>"
			}
			if f.Bits >= 0 {
				e.emiti("%s: bit-field %d of %s\n", name, f.Bits, English(f.Type))
				continue
			}
			e.emiti("%s: %s\n", name, English(f.Type))
		}
	case *parse.EnumType:
		e.emit("define %s\n", t)
	}
}

func storage(ds *parse.DeclSpec) string {
	var parts []string
	if ds.Storage != parse.SC_NONE {
		parts = append(parts, ds.Storage.String())
	}
	if ds.ThreadLocal {
		parts = append(parts, "thread-local")
	}
	if ds.FuncSpecs&parse.FInline != 0 {
		parts = append(parts, "inline")
	}
	if ds.FuncSpecs&parse.FNoreturn != 0 {
		parts = append(parts, "noreturn")
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ") + " "
}

// English spells t the way cdecl explains a declaration.
func English(t parse.CType) string {
	switch t := t.(type) {
	case *parse.Ptr:
		s := "pointer to " + English(t.PointsTo)
		if t.Quals != 0 {
			s = t.Quals.String() + " " + s
		}
		return s
	case *parse.ArrayType:
		if t.Dim < 0 {
			return "array of " + English(t.MemberType)
		}
		return fmt.Sprintf("array %d of %s", t.Dim, English(t.MemberType))
	case *parse.FunctionType:
		ret := " returning " + English(t.RetType)
		if t.NoProto && len(t.ArgTypes) == 0 {
			return "function" + ret
		}
		var params []string
		for i, a := range t.ArgTypes {
			p := English(a)
			if i < len(t.ArgNames) && t.ArgNames[i] != "" {
				p = t.ArgNames[i] + ": " + p
			}
			params = append(params, p)
		}
		if t.IsVarArg {
			params = append(params, "...")
		}
		if len(params) == 0 {
			params = append(params, "void")
		}
		return "function (" + strings.Join(params, ", ") + ")" + ret
	case *parse.Qualified:
		return t.Quals.String() + " " + English(t.Type)
	case nil:
		return "<error>"
	}
	return t.String()
}
