// Package parse parses and validates C declarations.
//
// Parse consumes tokens from a TokenSource and produces a TranslationUnit
// together with the diagnostics found on the way. Grammar errors never stop
// the parser; it reports one UnexpectedToken and skips to the end of the
// declaration or statement.
//
// Glossary:
//
// Declaration Specifiers
// ----------------------
//
// The storage class, qualifiers, function specifiers and type specifiers in
// front of the declarators. They may appear in any order.
//
// e.g.
//
//	static const unsigned long int a, *b;
//	^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^
//
// Declarator
// ----------
//
// A declarator is the part of a declaration that specifies
// the name that is to be introduced into the program.
//
// e.g.
//
//	unsigned int a, *b, **c, *const*d *volatile*e ;
//	             ^  ^^  ^^^  ^^^^^^^^ ^^^^^^^^^^^
//
// Direct Declarator
// -----------------
//
// A direct declarator is missing the pointer prefix.
//
// e.g.
//
//	unsigned int a[32], b[];
//	             ^^^^^  ^^^
//
// Abstract Declarator
// -------------------
//
// A declarator missing an identifier, as in parameters and type names.
//
// e.g.
//
//	int f(int *, char [10]);
//	          ^       ^^^^
//
// Typedef Name
// ------------
//
// An identifier declared with the typedef storage class. Whether an
// identifier is a typedef name depends on the scope it is used in, so the
// parser consults the scope table while it parses.
//
// e.g.
//
//	int f(int (T));    a function parameter if T is a typedef name
//	int (T) = 0;       always the variable T
package parse
