package schema

// Package is a set of Move modules published at one address.
type Package struct {
	Address Address   `json:"address" yaml:"address"`
	Modules []*Module `json:"modules" yaml:"modules"`
}

// Module is a single Move module and its type definitions in declaration order.
type Module struct {
	Address Address    `json:"address" yaml:"address"`
	Name    string     `json:"name" yaml:"name"`
	Types   []*TypeDef `json:"types" yaml:"types"`
}

// ID returns the module's identifier, e.g. 0x2::coin.
func (m *Module) ID() ModuleID {
	return ModuleID{Address: m.Address, Name: m.Name}
}

// Type returns the definition named name, or nil.
func (m *Module) Type(name string) *TypeDef {
	for _, t := range m.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Kind distinguishes struct and enum definitions
type Kind int

const (
	KindStruct Kind = iota
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// TypeDef is a struct or enum definition.
type TypeDef struct {
	Name       string    `json:"name"`
	Kind       Kind      `json:"kind"`
	TypeParams []string  `json:"typeParams"`
	Fields     []Field   `json:"fields"`
	Variants   []Variant `json:"variants"`
}

// Arity is the number of type parameters the definition declares.
func (t *TypeDef) Arity() int {
	return len(t.TypeParams)
}

// Field is a named struct field.
type Field struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
}

// Variant is one alternative of an enum.
//
// A variant carries no payload, a single payload type, a positional tuple of
// payload types, or named payload fields when FieldNames is set (one name per
// payload entry).
type Variant struct {
	Name       string    `json:"name"`
	Payload    []TypeRef `json:"payload"`
	FieldNames []string  `json:"fieldNames,omitempty"`
}

// Named reports whether the variant payload uses named fields.
func (v Variant) Named() bool {
	return len(v.FieldNames) > 0
}

// ModuleID identifies a module across packages.
type ModuleID struct {
	Address Address
	Name    string
}

func (id ModuleID) String() string {
	return id.Address.Short() + "::" + id.Name
}

// TypeID identifies a type definition across packages.
type TypeID struct {
	Module ModuleID
	Name   string
}

func (id TypeID) String() string {
	return id.Module.String() + "::" + id.Name
}
