package typescript

import (
	"path"
	"sort"

	"github.com/okra-platform/movegen/internal/codegen/writer"
	"github.com/okra-platform/movegen/internal/naming"
)

const barrelName = "index"

// emitBarrel renders the index file of one package directory, re-exporting
// every module as a namespace. Modules are listed in name order.
func emitBarrel(source string, modules []string) []byte {
	sorted := append([]string(nil), modules...)
	sort.Strings(sorted)

	w := writer.NewWriter("  ")
	w.WriteComment(headerLine)
	w.WriteComment("source: " + source)
	w.BlankLine()
	for _, m := range sorted {
		alias := naming.Sanitize(m, "module")
		if naming.IsReserved(alias) {
			alias += "_"
		}
		w.WriteLinef("export * as %s from './%s';", alias, m)
	}
	return w.Bytes()
}

func barrelPath(dir string) string {
	return path.Join(dir, barrelName+fileExtension)
}
