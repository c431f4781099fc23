package typescript

import (
	"strings"

	"github.com/okra-platform/movegen/internal/codegen/imports"
	"github.com/okra-platform/movegen/internal/codegen/writer"
	"github.com/okra-platform/movegen/internal/schema"
)

const (
	fileExtension = ".ts"
	headerLine    = "Code generated by movegen. DO NOT EDIT."
)

// Emit finalizes the unit's imports and renders the complete file: header,
// runtime import, module imports, then one constructor per type in
// declaration order. A unit can be emitted once.
func Emit(u *Unit, runtime string) ([]byte, error) {
	imps, err := u.imports.Finalize(u.resolve)
	if err != nil {
		return nil, err
	}

	w := writer.NewWriter("  ")
	w.WriteComment(headerLine)
	w.WriteComment("source: " + u.slug.ID().String())
	w.BlankLine()

	if u.generic() {
		w.WriteLinef("import { bcs, type BcsType } from '%s';", runtime)
	} else {
		w.WriteLinef("import { bcs } from '%s';", runtime)
	}
	for _, imp := range imps {
		writeImport(w, imp)
	}

	for _, d := range u.decls {
		w.BlankLine()
		writeDecl(w, d)
	}
	return w.Bytes(), nil
}

func writeImport(w *writer.Writer, imp imports.Import) {
	if imp.Namespace != "" {
		w.WriteLinef("import * as %s from '%s';", imp.Namespace, imp.From)
		return
	}
	names := make([]string, len(imp.Names))
	for i, b := range imp.Names {
		if b.Local == b.Name {
			names[i] = b.Name
		} else {
			names[i] = b.Name + " as " + b.Local
		}
	}
	w.WriteLinef("import { %s } from '%s';", strings.Join(names, ", "), imp.From)
}

func writeDecl(w *writer.Writer, d *decl) {
	combinator := "struct"
	if d.kind == schema.KindEnum {
		combinator = "enum"
	}

	w.WriteLine("export function " + d.ident + signature(d.params) + " {")
	w.Indent()
	if len(d.keys) == 0 {
		w.WriteLinef("return bcs.%s(%s, {});", combinator, d.label)
	} else {
		w.WriteBlock("return bcs."+combinator+"("+d.label+", {", "});", func() {
			w.WriteEntries(d.keys, d.values)
		})
	}
	w.Dedent()
	w.WriteLine("}")
}

// signature renders the generic parameter list and the argument list.
func signature(params []string) string {
	if len(params) == 0 {
		return "()"
	}
	generics := make([]string, len(params))
	args := make([]string, len(params))
	for i, p := range params {
		generics[i] = p + " extends BcsType<any>"
		args[i] = p + ": " + p
	}
	return "<" + strings.Join(generics, ", ") + ">(" + strings.Join(args, ", ") + ")"
}
