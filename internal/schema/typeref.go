package schema

import (
	"strconv"
	"strings"
)

// TypeRef is a reference to a type at a use site. The set of implementations
// is closed: Primitive, Vector, Option, Tuple, Datatype and TypeParam.
type TypeRef interface {
	isTypeRef()
	String() string
}

// PrimitiveKind enumerates the built-in scalar types
type PrimitiveKind int

const (
	U8 PrimitiveKind = iota
	U16
	U32
	U64
	U128
	U256
	Bool
	AddressKind
	String
)

var primitiveNames = map[PrimitiveKind]string{
	U8:          "u8",
	U16:         "u16",
	U32:         "u32",
	U64:         "u64",
	U128:        "u128",
	U256:        "u256",
	Bool:        "bool",
	AddressKind: "address",
	String:      "string",
}

func (k PrimitiveKind) String() string {
	if n, ok := primitiveNames[k]; ok {
		return n
	}
	return "primitive(" + strconv.Itoa(int(k)) + ")"
}

// Bits returns the width of an unsigned integer kind, or 0.
func (k PrimitiveKind) Bits() int {
	switch k {
	case U8:
		return 8
	case U16:
		return 16
	case U32:
		return 32
	case U64:
		return 64
	case U128:
		return 128
	case U256:
		return 256
	default:
		return 0
	}
}

// PrimitiveByName maps a Move primitive keyword to its kind.
func PrimitiveByName(name string) (PrimitiveKind, bool) {
	for k, n := range primitiveNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Primitive is a built-in scalar type.
type Primitive struct {
	Kind PrimitiveKind
}

// Vector is a variable-length sequence.
type Vector struct {
	Elem TypeRef
}

// Option is an optional value.
type Option struct {
	Elem TypeRef
}

// Tuple is a fixed sequence of types.
type Tuple struct {
	Elems []TypeRef
}

// Datatype references a named struct or enum with concrete type arguments.
type Datatype struct {
	Address  Address
	Module   string
	Name     string
	TypeArgs []TypeRef
}

// ID returns the identifier of the referenced definition.
func (d Datatype) ID() TypeID {
	return TypeID{Module: ModuleID{Address: d.Address, Name: d.Module}, Name: d.Name}
}

// TypeParam is a positional reference to a type parameter of the enclosing
// definition.
type TypeParam struct {
	Index int
}

func (Primitive) isTypeRef() {}
func (Vector) isTypeRef()    {}
func (Option) isTypeRef()    {}
func (Tuple) isTypeRef()     {}
func (Datatype) isTypeRef()  {}
func (TypeParam) isTypeRef() {}

func (p Primitive) String() string { return p.Kind.String() }
func (v Vector) String() string    { return "vector<" + refString(v.Elem) + ">" }
func (o Option) String() string    { return "0x1::option::Option<" + refString(o.Elem) + ">" }
func (t TypeParam) String() string { return "T" + strconv.Itoa(t.Index) }

func (t Tuple) String() string {
	return "(" + joinRefs(t.Elems) + ")"
}

func (d Datatype) String() string {
	s := d.Address.Short() + "::" + d.Module + "::" + d.Name
	if len(d.TypeArgs) > 0 {
		s += "<" + joinRefs(d.TypeArgs) + ">"
	}
	return s
}

func joinRefs(refs []TypeRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = refString(r)
	}
	return strings.Join(parts, ", ")
}

func refString(r TypeRef) string {
	if r == nil {
		return "<nil>"
	}
	return r.String()
}

// Walk calls fn for ref and every type nested inside it, depth first.
func Walk(ref TypeRef, fn func(TypeRef)) {
	if ref == nil {
		return
	}
	fn(ref)
	switch r := ref.(type) {
	case Vector:
		Walk(r.Elem, fn)
	case Option:
		Walk(r.Elem, fn)
	case Tuple:
		for _, e := range r.Elems {
			Walk(e, fn)
		}
	case Datatype:
		for _, a := range r.TypeArgs {
			Walk(a, fn)
		}
	}
}

// Substitute replaces type parameters in ref with args by position. Parameters
// without a corresponding argument are left in place.
func Substitute(ref TypeRef, args []TypeRef) TypeRef {
	switch r := ref.(type) {
	case TypeParam:
		if r.Index < len(args) && args[r.Index] != nil {
			return args[r.Index]
		}
		return r
	case Vector:
		return Vector{Elem: Substitute(r.Elem, args)}
	case Option:
		return Option{Elem: Substitute(r.Elem, args)}
	case Tuple:
		elems := make([]TypeRef, len(r.Elems))
		for i, e := range r.Elems {
			elems[i] = Substitute(e, args)
		}
		return Tuple{Elems: elems}
	case Datatype:
		out := r
		out.TypeArgs = make([]TypeRef, len(r.TypeArgs))
		for i, a := range r.TypeArgs {
			out.TypeArgs[i] = Substitute(a, args)
		}
		return out
	default:
		return ref
	}
}
