package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/tmikov/c99/cpp"
	"github.com/tmikov/c99/diag"
)

// reportError prints a fatal error, followed by the source line and a caret
// when the error carries a position.
func reportError(w io.Writer, err error) {
	fmt.Fprintln(w, err)
	var errLoc cpp.ErrorLoc
	if !errors.As(err, &errLoc) {
		return
	}
	if snip := diag.Snippet(diag.FileSource(), errLoc.Pos); snip != "" {
		fmt.Fprint(w, snip)
	}
	fmt.Fprintln(w, "")
}
