package bcs

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/movegen/internal/errors"
)

func TestMarshal_KnownVectors(t *testing.T) {
	state := EnumOf("State",
		Variant{Name: "Active"},
		Variant{Name: "Withdrawing", Codec: U32()},
	)

	tests := []struct {
		name  string
		codec Codec
		value any
		want  []byte
	}{
		{name: "u8", codec: U8(), value: uint8(7), want: []byte{0x07}},
		{name: "u16", codec: U16(), value: uint16(0x0102), want: []byte{0x02, 0x01}},
		{name: "u32", codec: U32(), value: uint32(1), want: []byte{0x01, 0, 0, 0}},
		{name: "u64", codec: U64(), value: uint64(0x0807060504030201), want: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "u128", codec: U128(), value: big.NewInt(1), want: append([]byte{1}, make([]byte, 15)...)},
		{name: "u256 from int", codec: U256(), value: 2, want: append([]byte{2}, make([]byte, 31)...)},
		{name: "bool", codec: Bool(), value: true, want: []byte{0x01}},
		{name: "string", codec: String(), value: "abc", want: []byte{0x03, 'a', 'b', 'c'}},
		{name: "bytes", codec: Vector(U8()), value: []byte{1, 2}, want: []byte{0x02, 0x01, 0x02}},
		{name: "none", codec: Option(U8()), value: None, want: []byte{0x00}},
		{name: "some", codec: Option(U8()), value: Some(uint8(5)), want: []byte{0x01, 0x05}},
		{name: "tuple", codec: Tuple(U8(), Bool()), value: []any{uint8(1), false}, want: []byte{0x01, 0x00}},
		{
			name:  "struct",
			codec: StructOf("Pair", Field{Name: "a", Codec: U8()}, Field{Name: "b", Codec: U16()}),
			value: map[string]any{"b": uint16(3), "a": uint8(2)},
			want:  []byte{0x02, 0x03, 0x00},
		},
		{name: "unit variant", codec: state, value: &Enum{Variant: "Active"}, want: []byte{0x00}},
		{name: "payload variant", codec: state, value: &Enum{Variant: "Withdrawing", Value: uint32(9)}, want: []byte{0x01, 0x09, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.codec, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriter_ULEB128(t *testing.T) {
	tests := []struct {
		value uint64
		want  []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{0xffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}
	for _, tt := range tests {
		var w Writer
		w.WriteULEB128(tt.value)
		assert.Equal(t, tt.want, w.Bytes())

		got, err := NewReader(tt.want).ReadULEB128()
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	tests := []struct {
		name  string
		codec Codec
		data  []byte
		mark  error
	}{
		{name: "short u32", codec: U32(), data: []byte{1, 2}, mark: ErrUnexpectedEOF},
		{name: "trailing bytes", codec: U8(), data: []byte{1, 2}, mark: ErrInvalidBytes},
		{name: "bool out of range", codec: Bool(), data: []byte{2}, mark: ErrInvalidBytes},
		{name: "option tag", codec: Option(U8()), data: []byte{2, 0}, mark: ErrInvalidBytes},
		{name: "non-canonical length", codec: Vector(U8()), data: []byte{0x80, 0x00}, mark: ErrInvalidBytes},
		{name: "length overflow", codec: Vector(U8()), data: []byte{0xff, 0xff, 0xff, 0xff, 0x1f}, mark: ErrInvalidBytes},
		{name: "length beyond input", codec: Vector(U8()), data: []byte{0x05, 0x01}, mark: ErrUnexpectedEOF},
		{name: "invalid utf8", codec: String(), data: []byte{0x01, 0xff}, mark: ErrInvalidBytes},
		{name: "variant index", codec: EnumOf("E", Variant{Name: "A"}), data: []byte{0x01}, mark: ErrInvalidBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.codec, tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.mark), "got %v", err)
		})
	}
}

func TestMarshal_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		codec Codec
		value any
	}{
		{name: "u8 overflow", codec: U8(), value: 256},
		{name: "negative", codec: U64(), value: -1},
		{name: "u128 overflow", codec: U128(), value: new(big.Int).Lsh(big.NewInt(1), 128)},
		{name: "wrong type", codec: Bool(), value: "true"},
		{name: "tuple arity", codec: Tuple(U8()), value: []any{uint8(1), uint8(2)}},
		{name: "missing field", codec: StructOf("A", Field{Name: "x", Codec: U8()}), value: map[string]any{}},
		{name: "unknown variant", codec: EnumOf("E", Variant{Name: "A"}), value: &Enum{Variant: "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Marshal(tt.codec, tt.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidValue), "got %v", err)
		})
	}
}

func TestLazy_Recursive(t *testing.T) {
	// Node { value: u8, children: vector<Node> }
	var node Codec
	node = StructOf("Node",
		Field{Name: "value", Codec: U8()},
		Field{Name: "children", Codec: Vector(Lazy(func() Codec { return node }))},
	)

	leaf := map[string]any{"value": uint8(2), "children": []any{}}
	root := map[string]any{"value": uint8(1), "children": []any{leaf}}

	data, err := Marshal(node, root)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x01, 0x02, 0x00}, data)

	decoded, err := Unmarshal(node, data)
	require.NoError(t, err)
	out, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":1,"children":[{"value":2,"children":[]}]}`, string(out))
}

func TestFailed(t *testing.T) {
	cause := errors.New("no definition")
	c := Vector(Failed("Broken", cause))
	assert.Equal(t, "vector<Broken>", c.Name())

	// an empty vector never touches the element codec
	_, err := Unmarshal(c, []byte{0x00})
	require.NoError(t, err)

	_, err = Unmarshal(c, []byte{0x01, 0x00})
	assert.True(t, errors.Is(err, cause), "got %v", err)
	_, err = Marshal(c, []any{uint8(1)})
	assert.True(t, errors.Is(err, cause), "got %v", err)
}

func TestDecodedValues_JSON(t *testing.T) {
	codec := StructOf("Holder",
		Field{Name: "owner", Codec: AddressCodec()},
		Field{Name: "state", Codec: EnumOf("State", Variant{Name: "Active"}, Variant{Name: "Moved", Codec: U64()})},
		Field{Name: "note", Codec: Option(String())},
		Field{Name: "big", Codec: U128()},
	)
	var owner Address
	owner[31] = 0x02

	data, err := Marshal(codec, &Struct{Name: "Holder", Fields: []FieldValue{
		{Name: "owner", Value: owner},
		{Name: "state", Value: &Enum{Variant: "Moved", Value: uint64(4)}},
		{Name: "note", Value: nil},
		{Name: "big", Value: big.NewInt(10)},
	}})
	require.NoError(t, err)

	decoded, err := Unmarshal(codec, data)
	require.NoError(t, err)
	out, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.Equal(t,
		`{"owner":"0x0000000000000000000000000000000000000000000000000000000000000002","state":{"Moved":4},"note":null,"big":10}`,
		string(out))
}

func TestRoundTrip_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("u64 round trips", prop.ForAll(
		func(v uint64) bool {
			data, err := Marshal(U64(), v)
			if err != nil {
				return false
			}
			got, err := Unmarshal(U64(), data)
			return err == nil && got == v
		},
		gen.UInt64(),
	))

	properties.Property("strings round trip with a length prefix", prop.ForAll(
		func(s string) bool {
			data, err := Marshal(String(), s)
			if err != nil {
				return false
			}
			got, err := Unmarshal(String(), data)
			return err == nil && got == s
		},
		gen.AnyString(),
	))

	properties.Property("vectors of u16 round trip", prop.ForAll(
		func(values []uint16) bool {
			items := make([]any, len(values))
			for i, v := range values {
				items[i] = v
			}
			codec := Vector(U16())
			data, err := Marshal(codec, items)
			if err != nil || len(data) < 2*len(values)+1 {
				return false
			}
			got, err := Unmarshal(codec, data)
			if err != nil {
				return false
			}
			decoded := got.([]any)
			if len(decoded) != len(values) {
				return false
			}
			for i := range values {
				if decoded[i] != values[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt16()),
	))

	properties.Property("u128 round trips", prop.ForAll(
		func(hi, lo uint64) bool {
			v := new(big.Int).Lsh(new(big.Int).SetUint64(hi), 64)
			v.Or(v, new(big.Int).SetUint64(lo))
			data, err := Marshal(U128(), v)
			if err != nil || len(data) != 16 {
				return false
			}
			got, err := Unmarshal(U128(), data)
			return err == nil && got.(*big.Int).Cmp(v) == 0
		},
		gen.UInt64(),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
