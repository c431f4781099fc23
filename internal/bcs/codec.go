package bcs

import (
	"encoding/binary"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/okra-platform/movegen/internal/errors"
)

// Codec encodes and decodes values of one type.
type Codec interface {
	// Name describes the type, e.g. "vector<u8>" or "Pair<u64, bool>"
	Name() string
	Encode(w *Writer, v any) error
	Decode(r *Reader) (any, error)
	// minSize is a lower bound of the encoded size
	minSize() int
}

// Marshal encodes v with c.
func Marshal(c Codec, v any) ([]byte, error) {
	var w Writer
	if err := c.Encode(&w, v); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Unmarshal decodes data with c. All of data must be consumed.
func Unmarshal(c Codec, data []byte) (any, error) {
	r := NewReader(data)
	v, err := c.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", c.Name())
	}
	if r.Remaining() > 0 {
		return nil, errors.Mark(errors.Newf("decode %s: %d trailing bytes", c.Name(), r.Remaining()), ErrInvalidBytes)
	}
	return v, nil
}

func invalid(c Codec, v any) error {
	return errors.Mark(errors.Newf("cannot encode %T as %s", v, c.Name()), ErrInvalidValue)
}

// unsigned integers up to 64 bits

type uintCodec struct {
	bits int
}

// U8 is the u8 codec; it decodes to uint8.
func U8() Codec { return uintCodec{bits: 8} }

// U16 is the u16 codec; it decodes to uint16.
func U16() Codec { return uintCodec{bits: 16} }

// U32 is the u32 codec; it decodes to uint32.
func U32() Codec { return uintCodec{bits: 32} }

// U64 is the u64 codec; it decodes to uint64.
func U64() Codec { return uintCodec{bits: 64} }

func (c uintCodec) Name() string { return "u" + strconv.Itoa(c.bits) }
func (c uintCodec) minSize() int { return c.bits / 8 }

func (c uintCodec) Encode(w *Writer, v any) error {
	n, ok := toUint64(v)
	if !ok || (c.bits < 64 && n>>c.bits != 0) {
		return invalid(c, v)
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, n)
	w.WriteBytes(buf[:c.bits/8])
	return nil
}

func (c uintCodec) Decode(r *Reader) (any, error) {
	b, err := r.Read(c.bits / 8)
	if err != nil {
		return nil, err
	}
	switch c.bits {
	case 8:
		return b[0], nil
	case 16:
		return binary.LittleEndian.Uint16(b), nil
	case 32:
		return binary.LittleEndian.Uint32(b), nil
	default:
		return binary.LittleEndian.Uint64(b), nil
	}
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case uint:
		return uint64(n), true
	case int:
		return uint64(n), n >= 0
	case int64:
		return uint64(n), n >= 0
	case *big.Int:
		return n.Uint64(), n.IsUint64()
	default:
		return 0, false
	}
}

// wide integers

type bigCodec struct {
	bits int
}

// U128 is the u128 codec; it decodes to *big.Int.
func U128() Codec { return bigCodec{bits: 128} }

// U256 is the u256 codec; it decodes to *big.Int.
func U256() Codec { return bigCodec{bits: 256} }

func (c bigCodec) Name() string { return "u" + strconv.Itoa(c.bits) }
func (c bigCodec) minSize() int { return c.bits / 8 }

func (c bigCodec) Encode(w *Writer, v any) error {
	var n *big.Int
	switch x := v.(type) {
	case *big.Int:
		n = x
	default:
		u, ok := toUint64(v)
		if !ok {
			return invalid(c, v)
		}
		n = new(big.Int).SetUint64(u)
	}
	if n == nil || n.Sign() < 0 || n.BitLen() > c.bits {
		return invalid(c, v)
	}
	be := n.FillBytes(make([]byte, c.bits/8))
	w.WriteBytes(reverse(be))
	return nil
}

func (c bigCodec) Decode(r *Reader) (any, error) {
	b, err := r.Read(c.bits / 8)
	if err != nil {
		return nil, err
	}
	le := make([]byte, len(b))
	copy(le, b)
	return new(big.Int).SetBytes(reverse(le)), nil
}

func reverse(b []byte) []byte {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// bool

type boolCodec struct{}

// Bool is the bool codec.
func Bool() Codec { return boolCodec{} }

func (boolCodec) Name() string { return "bool" }
func (boolCodec) minSize() int { return 1 }

func (c boolCodec) Encode(w *Writer, v any) error {
	b, ok := v.(bool)
	if !ok {
		return invalid(c, v)
	}
	if b {
		return w.WriteByte(1)
	}
	return w.WriteByte(0)
}

func (boolCodec) Decode(r *Reader) (any, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return nil, errors.Mark(errors.Newf("bool byte %#x at offset %d", b, r.Offset()-1), ErrInvalidBytes)
	}
}

// address

type addressCodec struct{}

// AddressCodec is the address codec; it decodes to Address.
func AddressCodec() Codec { return addressCodec{} }

func (addressCodec) Name() string { return "address" }
func (addressCodec) minSize() int { return AddressLength }

func (c addressCodec) Encode(w *Writer, v any) error {
	a, ok := v.(Address)
	if !ok {
		return invalid(c, v)
	}
	w.WriteBytes(a[:])
	return nil
}

func (addressCodec) Decode(r *Reader) (any, error) {
	b, err := r.Read(AddressLength)
	if err != nil {
		return nil, err
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// string

type stringCodec struct{}

// String is the UTF-8 string codec.
func String() Codec { return stringCodec{} }

func (stringCodec) Name() string { return "string" }
func (stringCodec) minSize() int { return 1 }

func (c stringCodec) Encode(w *Writer, v any) error {
	s, ok := v.(string)
	if !ok || !utf8.ValidString(s) {
		return invalid(c, v)
	}
	w.WriteULEB128(uint64(len(s)))
	w.WriteBytes([]byte(s))
	return nil
}

func (stringCodec) Decode(r *Reader) (any, error) {
	n, err := r.readLength(true)
	if err != nil {
		return nil, err
	}
	b, err := r.Read(n)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(b) {
		return nil, errors.Mark(errors.Newf("string at offset %d is not UTF-8", r.Offset()-n), ErrInvalidBytes)
	}
	return string(b), nil
}

// vector

type vectorCodec struct {
	elem Codec
}

// Vector is the codec of a sequence of elem; it decodes to []any.
func Vector(elem Codec) Codec { return vectorCodec{elem: elem} }

func (c vectorCodec) Name() string { return "vector<" + c.elem.Name() + ">" }
func (vectorCodec) minSize() int { return 1 }

func (c vectorCodec) Encode(w *Writer, v any) error {
	items, ok := v.([]any)
	if !ok {
		if b, isBytes := v.([]byte); isBytes {
			items = make([]any, len(b))
			for i, x := range b {
				items[i] = x
			}
		} else {
			return invalid(c, v)
		}
	}
	w.WriteULEB128(uint64(len(items)))
	for i, item := range items {
		if err := c.elem.Encode(w, item); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}

func (c vectorCodec) Decode(r *Reader) (any, error) {
	n, err := r.readLength(c.elem.minSize() > 0)
	if err != nil {
		return nil, err
	}
	items := make([]any, 0, n)
	for i := 0; i < n; i++ {
		item, err := c.elem.Decode(r)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		items = append(items, item)
	}
	return items, nil
}

// option

type optionCodec struct {
	elem Codec
}

// Option is the codec of an optional elem; it decodes to OptionValue.
func Option(elem Codec) Codec { return optionCodec{elem: elem} }

func (c optionCodec) Name() string { return "option<" + c.elem.Name() + ">" }
func (optionCodec) minSize() int { return 1 }

func (c optionCodec) Encode(w *Writer, v any) error {
	var o OptionValue
	switch x := v.(type) {
	case OptionValue:
		o = x
	case nil:
		o = None
	default:
		o = Some(v)
	}
	if !o.Some {
		return w.WriteByte(0)
	}
	if err := w.WriteByte(1); err != nil {
		return err
	}
	return c.elem.Encode(w, o.Value)
}

func (c optionCodec) Decode(r *Reader) (any, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return None, nil
	case 1:
		v, err := c.elem.Decode(r)
		if err != nil {
			return nil, err
		}
		return Some(v), nil
	default:
		return nil, errors.Mark(errors.Newf("option tag %#x at offset %d", tag, r.Offset()-1), ErrInvalidBytes)
	}
}

// tuple

type tupleCodec struct {
	elems []Codec
}

// Tuple is the codec of a fixed sequence; it decodes to []any.
func Tuple(elems ...Codec) Codec { return tupleCodec{elems: elems} }

func (c tupleCodec) Name() string {
	names := make([]string, len(c.elems))
	for i, e := range c.elems {
		names[i] = e.Name()
	}
	return "(" + strings.Join(names, ", ") + ")"
}

func (c tupleCodec) minSize() int {
	n := 0
	for _, e := range c.elems {
		n += e.minSize()
	}
	return n
}

func (c tupleCodec) Encode(w *Writer, v any) error {
	items, ok := v.([]any)
	if !ok || len(items) != len(c.elems) {
		return invalid(c, v)
	}
	for i, e := range c.elems {
		if err := e.Encode(w, items[i]); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}

func (c tupleCodec) Decode(r *Reader) (any, error) {
	items := make([]any, len(c.elems))
	for i, e := range c.elems {
		v, err := e.Decode(r)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		items[i] = v
	}
	return items, nil
}

// struct

// Field is one struct member.
type Field struct {
	Name  string
	Codec Codec
}

type structCodec struct {
	name   string
	fields []Field
}

// StructOf is the codec of a struct with fields in order; it decodes to
// *Struct and encodes *Struct, Struct or map[string]any.
func StructOf(name string, fields ...Field) Codec {
	return structCodec{name: name, fields: fields}
}

func (c structCodec) Name() string { return c.name }

func (c structCodec) minSize() int {
	n := 0
	for _, f := range c.fields {
		n += f.Codec.minSize()
	}
	return n
}

func (c structCodec) Encode(w *Writer, v any) error {
	lookup, ok := fieldLookup(v)
	if !ok {
		return invalid(c, v)
	}
	for _, f := range c.fields {
		fv, ok := lookup(f.Name)
		if !ok {
			return errors.Mark(errors.Newf("%s: missing field %s", c.name, f.Name), ErrInvalidValue)
		}
		if err := f.Codec.Encode(w, fv); err != nil {
			return errors.Wrapf(err, "%s.%s", c.name, f.Name)
		}
	}
	return nil
}

func fieldLookup(v any) (func(string) (any, bool), bool) {
	switch s := v.(type) {
	case *Struct:
		return s.Field, s != nil
	case Struct:
		return s.Field, true
	case map[string]any:
		return func(name string) (any, bool) {
			fv, ok := s[name]
			return fv, ok
		}, true
	default:
		return nil, false
	}
}

func (c structCodec) Decode(r *Reader) (any, error) {
	out := &Struct{Name: c.name, Fields: make([]FieldValue, 0, len(c.fields))}
	for _, f := range c.fields {
		v, err := f.Codec.Decode(r)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", c.name, f.Name)
		}
		out.Fields = append(out.Fields, FieldValue{Name: f.Name, Value: v})
	}
	return out, nil
}

// enum

// Variant is one enum alternative. Codec is nil for variants without a
// payload.
type Variant struct {
	Name  string
	Codec Codec
}

type enumCodec struct {
	name     string
	variants []Variant
}

// EnumOf is the codec of an enum with variants in order; it decodes to
// *Enum.
func EnumOf(name string, variants ...Variant) Codec {
	return enumCodec{name: name, variants: variants}
}

func (c enumCodec) Name() string { return c.name }
func (enumCodec) minSize() int { return 1 }

func (c enumCodec) Encode(w *Writer, v any) error {
	var e *Enum
	switch x := v.(type) {
	case *Enum:
		e = x
	case Enum:
		e = &x
	}
	if e == nil {
		return invalid(c, v)
	}
	for i, variant := range c.variants {
		if variant.Name != e.Variant {
			continue
		}
		w.WriteULEB128(uint64(i))
		if variant.Codec == nil {
			return nil
		}
		if err := variant.Codec.Encode(w, e.Value); err != nil {
			return errors.Wrapf(err, "%s::%s", c.name, variant.Name)
		}
		return nil
	}
	return errors.Mark(errors.Newf("%s has no variant %s", c.name, e.Variant), ErrInvalidValue)
}

func (c enumCodec) Decode(r *Reader) (any, error) {
	start := r.Offset()
	idx, err := r.ReadULEB128()
	if err != nil {
		return nil, err
	}
	if idx >= uint64(len(c.variants)) {
		return nil, errors.Mark(errors.Newf("%s: variant index %d at offset %d out of range", c.name, idx, start), ErrInvalidBytes)
	}
	variant := c.variants[idx]
	out := &Enum{Name: c.name, Variant: variant.Name, Index: int(idx)}
	if variant.Codec != nil {
		v, err := variant.Codec.Decode(r)
		if err != nil {
			return nil, errors.Wrapf(err, "%s::%s", c.name, variant.Name)
		}
		out.Value = v
	}
	return out, nil
}

// lazy

type lazyCodec struct {
	once    sync.Once
	resolve func() Codec
	codec   Codec
}

// Lazy defers building a codec until it is first used, which lets recursive
// types refer to themselves.
func Lazy(resolve func() Codec) Codec {
	return &lazyCodec{resolve: resolve}
}

func (c *lazyCodec) get() Codec {
	c.once.Do(func() { c.codec = c.resolve() })
	return c.codec
}

func (c *lazyCodec) Name() string { return c.get().Name() }
func (c *lazyCodec) minSize() int { return 0 }
func (c *lazyCodec) Encode(w *Writer, v any) error { return c.get().Encode(w, v) }
func (c *lazyCodec) Decode(r *Reader) (any, error) { return c.get().Decode(r) }

// failed

type failedCodec struct {
	name string
	err  error
}

// Failed is a codec that could not be built. It reports err whenever it is
// used to encode or decode.
func Failed(name string, err error) Codec {
	return failedCodec{name: name, err: err}
}

func (c failedCodec) Name() string { return c.name }
func (failedCodec) minSize() int { return 0 }
func (c failedCodec) Encode(w *Writer, v any) error { return c.err }
func (c failedCodec) Decode(r *Reader) (any, error) { return nil, c.err }
