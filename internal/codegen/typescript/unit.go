package typescript

import (
	"github.com/okra-platform/movegen/internal/codegen/imports"
	"github.com/okra-platform/movegen/internal/naming"
	"github.com/okra-platform/movegen/internal/schema"
)

// Unit accumulates the content of one module's file until it is emitted.
type Unit struct {
	slug    naming.ModuleSlug
	module  *schema.Module
	imports *imports.Set
	resolve imports.Resolver
	decls   []*decl
}

// decl is one rendered type constructor.
type decl struct {
	ident  string
	params []string
	kind   schema.Kind
	// label is a JS expression naming the codec
	label string
	// keys and values are the fields or variants, in declaration order
	keys   []string
	values []string
}

func newUnit(slug naming.ModuleSlug, m *schema.Module, resolve imports.Resolver) *Unit {
	declared := make([]string, 0, len(m.Types))
	for _, t := range m.Types {
		declared = append(declared, naming.TypeIdent(t.Name))
	}
	set := imports.NewSet(slug, declared...)
	set.Reserve("bcs", "BcsType")
	return &Unit{slug: slug, module: m, imports: set, resolve: resolve}
}

// paramNames picks the parameter identifiers of def's constructor. They are
// positional and step aside for a type of the same name in the module and
// for anything imported so far.
func (u *Unit) paramNames(def *schema.TypeDef) []string {
	if def.Arity() == 0 {
		return nil
	}
	names := make([]string, def.Arity())
	for i := range names {
		name := naming.ParamIdent(i)
		for u.module.Type(name) != nil || u.imports.Imported(name) {
			name += "_"
		}
		names[i] = name
	}
	u.imports.Reserve(names...)
	return names
}

func (u *Unit) generic() bool {
	for _, d := range u.decls {
		if len(d.params) > 0 {
			return true
		}
	}
	return false
}

// Path is the unit's output path relative to the target root.
func (u *Unit) Path() string {
	return u.slug.Path(fileExtension)
}
