package bcs

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
)

// AddressLength is the width of an address in bytes.
const AddressLength = 32

// Address is a raw account or package address.
type Address [AddressLength]byte

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText renders the address as 0x-prefixed hex.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// FieldValue is one decoded struct field.
type FieldValue struct {
	Name  string
	Value any
}

// Struct is a decoded struct. Fields keep declaration order.
type Struct struct {
	Name   string
	Fields []FieldValue
}

// Field returns the value of the named field.
func (s *Struct) Field(name string) (any, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON renders the fields as an object in declaration order.
func (s *Struct) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Enum is a decoded enum value.
type Enum struct {
	Name    string
	Variant string
	Index   int
	// Value is nil for variants without a payload
	Value any
}

// MarshalJSON renders the enum as {"Variant": payload}.
func (e *Enum) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, e.Variant, e.Value); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// OptionValue is a decoded option.
type OptionValue struct {
	Some  bool
	Value any
}

// None is the empty option.
var None = OptionValue{}

// Some wraps v in a present option.
func Some(v any) OptionValue {
	return OptionValue{Some: true, Value: v}
}

// MarshalJSON renders None as null and Some(v) as v.
func (o OptionValue) MarshalJSON() ([]byte, error) {
	if !o.Some {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func writeMember(buf *bytes.Buffer, name string, value any) error {
	key, err := json.Marshal(name)
	if err != nil {
		return err
	}
	val, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}
