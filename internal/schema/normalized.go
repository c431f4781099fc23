package schema

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/okra-platform/movegen/internal/errors"
)

// Normalized module JSON as served by sui_getNormalizedMoveModulesByPackage.
// Object key order carries declaration order, so objects are decoded as
// ordered member lists.

type normalizedModule struct {
	Address string          `json:"address"`
	Name    string          `json:"name"`
	Structs json.RawMessage `json:"structs"`
	Enums   json.RawMessage `json:"enums"`
}

type normalizedStruct struct {
	TypeParameters []json.RawMessage `json:"typeParameters"`
	Fields         []normalizedField `json:"fields"`
}

type normalizedEnum struct {
	TypeParameters          []json.RawMessage `json:"typeParameters"`
	Variants                json.RawMessage   `json:"variants"`
	VariantDeclarationOrder []string          `json:"variantDeclarationOrder"`
}

type normalizedField struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type normalizedDatatype struct {
	Address       string            `json:"address"`
	Module        string            `json:"module"`
	Name          string            `json:"name"`
	TypeArguments []json.RawMessage `json:"typeArguments"`
}

type member struct {
	Key   string
	Value json.RawMessage
}

// positional variant fields are named pos0, pos1, ...
var positionalField = regexp.MustCompile(`^pos[0-9]+$`)

// ParseNormalized decodes normalized module JSON: either one module object or
// an object mapping module names to modules. All modules must share one
// address.
func ParseNormalized(data []byte) (*Package, error) {
	members, err := orderedMembers(data)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid normalized module JSON"), errors.ErrMalformedInput)
	}

	var raws []json.RawMessage
	if isSingleModule(members) {
		raws = []json.RawMessage{data}
	} else {
		for _, m := range members {
			raws = append(raws, m.Value)
		}
	}

	pkg := &Package{}
	for _, raw := range raws {
		m, err := parseNormalizedModule(raw)
		if err != nil {
			return nil, err
		}
		if pkg.Address == "" {
			pkg.Address = m.Address
		} else if pkg.Address != m.Address {
			return nil, errors.Mark(
				errors.Newf("module %s is at %s, expected %s", m.Name, m.Address.Short(), pkg.Address.Short()),
				errors.ErrMalformedInput)
		}
		pkg.Modules = append(pkg.Modules, m)
	}
	if pkg.Address == "" {
		return nil, errors.Mark(errors.New("normalized JSON contains no modules"), errors.ErrMalformedInput)
	}
	return pkg, nil
}

func isSingleModule(members []member) bool {
	for _, m := range members {
		if m.Key == "structs" || m.Key == "fileFormatVersion" {
			return true
		}
	}
	return false
}

func parseNormalizedModule(raw json.RawMessage) (*Module, error) {
	var nm normalizedModule
	if err := json.Unmarshal(raw, &nm); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid module"), errors.ErrMalformedInput)
	}
	addr, err := ParseAddress(nm.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "module %s", nm.Name)
	}
	m := &Module{Address: addr, Name: nm.Name}

	structs, err := orderedMembers(nm.Structs)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "module %s structs", nm.Name), errors.ErrMalformedInput)
	}
	for _, s := range structs {
		where := Location{Module: m.ID(), Type: s.Key}
		var ns normalizedStruct
		if err := json.Unmarshal(s.Value, &ns); err != nil {
			return nil, where.Wrap(err, errors.ErrMalformedInput)
		}
		def := &TypeDef{Name: s.Key, Kind: KindStruct, TypeParams: positionalParams(len(ns.TypeParameters))}
		for i, f := range ns.Fields {
			fw := where
			fw.Field = f.Name
			fw.Index = i
			ref, err := parseNormalizedType(f.Type)
			if err != nil {
				return nil, fw.Wrap(err, errors.ErrMalformedInput)
			}
			def.Fields = append(def.Fields, Field{Name: f.Name, Type: ref})
		}
		m.Types = append(m.Types, def)
	}

	enums, err := orderedMembers(nm.Enums)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "module %s enums", nm.Name), errors.ErrMalformedInput)
	}
	for _, e := range enums {
		def, err := parseNormalizedEnum(m.ID(), e)
		if err != nil {
			return nil, err
		}
		m.Types = append(m.Types, def)
	}
	return m, nil
}

func parseNormalizedEnum(module ModuleID, e member) (*TypeDef, error) {
	where := Location{Module: module, Type: e.Key}
	var ne normalizedEnum
	if err := json.Unmarshal(e.Value, &ne); err != nil {
		return nil, where.Wrap(err, errors.ErrMalformedInput)
	}
	variants, err := orderedMembers(ne.Variants)
	if err != nil {
		return nil, where.Wrap(err, errors.ErrMalformedInput)
	}
	byName := make(map[string]json.RawMessage, len(variants))
	order := ne.VariantDeclarationOrder
	for _, v := range variants {
		byName[v.Key] = v.Value
		if len(ne.VariantDeclarationOrder) == 0 {
			order = append(order, v.Key)
		}
	}

	def := &TypeDef{Name: e.Key, Kind: KindEnum, TypeParams: positionalParams(len(ne.TypeParameters))}
	for i, name := range order {
		vw := where
		vw.Variant = name
		vw.Index = i
		raw, ok := byName[name]
		if !ok {
			return nil, vw.Wrap(errors.Newf("variant %s listed in declaration order but not defined", name), errors.ErrMalformedInput)
		}
		var fields []normalizedField
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, vw.Wrap(err, errors.ErrMalformedInput)
		}
		v := Variant{Name: name}
		positional := true
		for _, f := range fields {
			if !positionalField.MatchString(f.Name) {
				positional = false
			}
		}
		for j, f := range fields {
			ref, err := parseNormalizedType(f.Type)
			if err != nil {
				fw := vw
				fw.Field = f.Name
				fw.Index = j
				return nil, fw.Wrap(err, errors.ErrMalformedInput)
			}
			v.Payload = append(v.Payload, ref)
			if !positional {
				v.FieldNames = append(v.FieldNames, f.Name)
			}
		}
		def.Variants = append(def.Variants, v)
	}
	return def, nil
}

func positionalParams(n int) []string {
	if n == 0 {
		return nil
	}
	params := make([]string, n)
	for i := range params {
		params[i] = TypeParam{Index: i}.String()
	}
	return params
}

var normalizedPrimitives = map[string]PrimitiveKind{
	"U8":      U8,
	"U16":     U16,
	"U32":     U32,
	"U64":     U64,
	"U128":    U128,
	"U256":    U256,
	"Bool":    Bool,
	"Address": AddressKind,
	"Signer":  AddressKind,
}

func parseNormalizedType(raw json.RawMessage) (TypeRef, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New("missing type")
	}
	if raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, err
		}
		if kind, ok := normalizedPrimitives[name]; ok {
			return Primitive{Kind: kind}, nil
		}
		return nil, errors.Newf("unknown primitive %q", name)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if len(obj) != 1 {
		return nil, errors.Newf("type object must have exactly one key, got %d", len(obj))
	}
	for tag, body := range obj {
		switch tag {
		case "Vector":
			elem, err := parseNormalizedType(body)
			if err != nil {
				return nil, err
			}
			return Vector{Elem: elem}, nil
		case "TypeParameter":
			var idx int
			if err := json.Unmarshal(body, &idx); err != nil {
				return nil, err
			}
			return TypeParam{Index: idx}, nil
		case "Struct", "Datatype":
			var nd normalizedDatatype
			if err := json.Unmarshal(body, &nd); err != nil {
				return nil, err
			}
			addr, err := ParseAddress(nd.Address)
			if err != nil {
				return nil, err
			}
			d := Datatype{Address: addr, Module: nd.Module, Name: nd.Name}
			for _, a := range nd.TypeArguments {
				arg, err := parseNormalizedType(a)
				if err != nil {
					return nil, err
				}
				d.TypeArgs = append(d.TypeArgs, arg)
			}
			return NormalizeDatatype(d), nil
		case "Reference", "MutableReference":
			return nil, errors.Newf("%s types cannot appear in datatype fields", strings.ToLower(tag))
		default:
			return nil, errors.Newf("unknown type tag %q", tag)
		}
	}
	return nil, errors.AssertionFailedf("unreachable")
}

// orderedMembers decodes a JSON object into its members in document order.
// Empty input and null decode to no members.
func orderedMembers(data []byte) ([]member, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected JSON object")
	}
	var out []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("expected object key")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		out = append(out, member{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}
