package schema

import (
	"fmt"

	"github.com/okra-platform/movegen/internal/errors"
)

// Index is a whole-program view over every package of a run.
type Index struct {
	packages []*Package
	modules  map[ModuleID]*Module
	external map[Address]bool
}

// NewIndex indexes the given packages. Packages listed in external are known
// to exist outside the run; references into them are not checked against a
// definition.
func NewIndex(packages []*Package, external ...Address) (*Index, error) {
	idx := &Index{
		packages: packages,
		modules:  make(map[ModuleID]*Module),
		external: make(map[Address]bool),
	}
	for _, a := range external {
		idx.external[a] = true
	}
	seen := make(map[Address]bool)
	for _, pkg := range packages {
		if seen[pkg.Address] {
			return nil, errors.Mark(errors.Newf("package %s listed twice", pkg.Address.Short()), errors.ErrMalformedInput)
		}
		seen[pkg.Address] = true
		for _, m := range pkg.Modules {
			if m.Address == "" {
				m.Address = pkg.Address
			}
			if m.Address != pkg.Address {
				return nil, errors.Mark(
					errors.Newf("module %s declared in package %s", m.ID(), pkg.Address.Short()),
					errors.ErrMalformedInput)
			}
			if _, dup := idx.modules[m.ID()]; dup {
				return nil, errors.Mark(errors.Newf("module %s declared twice", m.ID()), errors.ErrMalformedInput)
			}
			idx.modules[m.ID()] = m
		}
	}
	return idx, nil
}

// Packages returns the indexed packages in input order.
func (idx *Index) Packages() []*Package {
	return idx.packages
}

// Module returns the module with the given id.
func (idx *Index) Module(id ModuleID) (*Module, bool) {
	m, ok := idx.modules[id]
	return m, ok
}

// IsExternal reports whether addr belongs to a package outside the run.
func (idx *Index) IsExternal(addr Address) bool {
	return idx.external[addr]
}

// Lookup resolves a datatype reference to its definition. References into
// external packages whose modules were not loaded resolve to a nil
// definition without error.
func (idx *Index) Lookup(d Datatype) (*TypeDef, error) {
	m, ok := idx.modules[d.ID().Module]
	if !ok {
		if idx.external[d.Address] {
			return nil, nil
		}
		err := errors.Newf("module %s not found", d.ID().Module)
		return nil, errors.Mark(errors.WithDetailf(err, "referenced as %s", d), errors.ErrDanglingReference)
	}
	def := m.Type(d.Name)
	if def == nil {
		if idx.external[d.Address] {
			return nil, nil
		}
		err := errors.Newf("type %s not found in module %s", d.Name, m.ID())
		return nil, errors.Mark(errors.WithDetailf(err, "referenced as %s", d), errors.ErrDanglingReference)
	}
	return def, nil
}

// CheckArity verifies that d supplies as many type arguments as def declares.
func CheckArity(d Datatype, def *TypeDef) error {
	if def == nil || len(d.TypeArgs) == def.Arity() {
		return nil
	}
	err := errors.Newf("%s expects %d type arguments, got %d", d.ID(), def.Arity(), len(d.TypeArgs))
	return errors.Mark(errors.WithDetailf(err, "referenced as %s", d), errors.ErrArityMismatch)
}

// Validate checks module-local structure: unique type names, unique field and
// variant names, bounded type parameter indices and complete type references.
// It does not resolve cross-module references.
func Validate(m *Module) error {
	names := make(map[string]bool)
	for _, t := range m.Types {
		where := Location{Module: m.ID(), Type: t.Name}
		if t.Name == "" {
			return where.Wrap(errors.New("type has no name"), errors.ErrMalformedInput)
		}
		if names[t.Name] {
			return where.Wrap(errors.Newf("type %s declared twice", t.Name), errors.ErrMalformedInput)
		}
		names[t.Name] = true

		switch t.Kind {
		case KindStruct:
			if len(t.Variants) > 0 {
				return where.Wrap(errors.New("struct declares variants"), errors.ErrMalformedInput)
			}
			if err := validateFields(where, t, t.Fields); err != nil {
				return err
			}
		case KindEnum:
			if len(t.Variants) == 0 {
				return where.Wrap(errors.New("enum has no variants"), errors.ErrMalformedInput)
			}
			seen := make(map[string]bool)
			for i, v := range t.Variants {
				vw := where
				vw.Variant = v.Name
				vw.Index = i
				if v.Name == "" || seen[v.Name] {
					return vw.Wrap(errors.Newf("variant %d has a missing or duplicate name", i), errors.ErrMalformedInput)
				}
				seen[v.Name] = true
				if v.Named() && len(v.FieldNames) != len(v.Payload) {
					return vw.Wrap(errors.Newf("variant %s names %d fields for %d payload types",
						v.Name, len(v.FieldNames), len(v.Payload)), errors.ErrMalformedInput)
				}
				for j, p := range v.Payload {
					pw := vw
					pw.Index = j
					if err := validateRef(pw, t, p); err != nil {
						return err
					}
				}
			}
		default:
			return where.Wrap(errors.Newf("unknown kind %d", t.Kind), errors.ErrMalformedInput)
		}
	}
	return nil
}

func validateFields(where Location, t *TypeDef, fields []Field) error {
	seen := make(map[string]bool)
	for i, f := range fields {
		fw := where
		fw.Field = f.Name
		fw.Index = i
		if f.Name == "" || seen[f.Name] {
			return fw.Wrap(errors.Newf("field %d has a missing or duplicate name", i), errors.ErrMalformedInput)
		}
		seen[f.Name] = true
		if err := validateRef(fw, t, f.Type); err != nil {
			return err
		}
	}
	return nil
}

func validateRef(where Location, t *TypeDef, ref TypeRef) error {
	if ref == nil {
		return where.Wrap(errors.New("missing type"), errors.ErrMalformedInput)
	}
	var bad error
	Walk(ref, func(r TypeRef) {
		if bad != nil {
			return
		}
		switch r := r.(type) {
		case nil:
			bad = where.Wrap(errors.New("missing nested type"), errors.ErrMalformedInput)
		case TypeParam:
			if r.Index < 0 || r.Index >= t.Arity() {
				bad = where.Wrap(
					errors.Newf("type parameter T%d out of range for arity %d", r.Index, t.Arity()),
					errors.ErrArityMismatch)
			}
		case Vector:
			if r.Elem == nil {
				bad = where.Wrap(errors.New("vector without element type"), errors.ErrMalformedInput)
			}
		case Option:
			if r.Elem == nil {
				bad = where.Wrap(errors.New("option without element type"), errors.ErrMalformedInput)
			}
		}
	})
	return bad
}

// Location pinpoints a fault inside the type description.
type Location struct {
	Module  ModuleID
	Type    string
	Field   string
	Variant string
	// Index is the field, variant or payload position
	Index int
}

func (l Location) String() string {
	s := l.Module.String()
	if l.Type != "" {
		s += "::" + l.Type
	}
	switch {
	case l.Variant != "" && l.Field != "":
		s += fmt.Sprintf(" variant %s field %s", l.Variant, l.Field)
	case l.Variant != "":
		s += fmt.Sprintf(" variant %s", l.Variant)
	case l.Field != "":
		s += fmt.Sprintf(" field %s", l.Field)
	}
	return s
}

// Wrap attaches the location to err and marks it with mark.
func (l Location) Wrap(err error, mark error) error {
	err = errors.WithDetailf(err, "at %s (address %s, position %d)", l, l.Module.Address, l.Index)
	if mark != nil {
		err = errors.Mark(err, mark)
	}
	return errors.Wrap(err, l.String())
}
