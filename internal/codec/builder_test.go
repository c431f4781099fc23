package codec

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/movegen/internal/bcs"
	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/schema"
)

const description = `
packages:
  - address: "0x2"
    modules:
      - name: m
        types:
          - name: Pair
            type_params: [T0, T1]
            fields:
              - { name: a, type: T0 }
              - { name: b, type: T1 }
          - name: State
            kind: enum
            variants:
              - name: Active
              - name: Withdrawing
                payload: [u32]
              - name: Moved
                fields:
                  - { name: to, type: address }
                  - { name: at, type: u64 }
          - name: Node
            fields:
              - { name: value, type: u8 }
              - { name: children, type: "vector<Node>" }
          - name: Bad
            fields:
              - { name: inner, type: "Pair<Bad, u8>" }
          - name: Wallet
            fields:
              - { name: coin, type: "0x9::coin::Coin" }
          - name: Nest
            type_params: [T0]
            fields:
              - { name: value, type: T0 }
              - { name: next, type: "vector<Nest<vector<T0>>>" }
          - name: Spiral
            type_params: [T0]
            fields:
              - { name: value, type: T0 }
              - { name: next, type: "Spiral<vector<T0>>" }
`

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	pkgs, err := schema.ParseDescription([]byte(description))
	require.NoError(t, err)
	idx, err := schema.NewIndex(pkgs, schema.MustParseAddress("0x9"))
	require.NoError(t, err)
	return NewBuilder(idx)
}

func TestBuilder_GenericStruct(t *testing.T) {
	b := testBuilder(t)
	c, err := b.Parse("0x2::m::Pair<u64, bool>")
	require.NoError(t, err)
	assert.Equal(t, "Pair<u64, bool>", c.Name())

	v, err := bcs.Unmarshal(c, []byte{1, 0, 0, 0, 0, 0, 0, 0, 1})
	require.NoError(t, err)
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":true}`, string(out))

	// instantiations are cached
	again, err := b.Parse("0x2::m::Pair<u64, bool>")
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestBuilder_Enum(t *testing.T) {
	b := testBuilder(t)
	c, err := b.Parse("0x2::m::State")
	require.NoError(t, err)

	v, err := bcs.Unmarshal(c, []byte{0x01, 0x05, 0, 0, 0})
	require.NoError(t, err)
	e := v.(*bcs.Enum)
	assert.Equal(t, "Withdrawing", e.Variant)
	assert.Equal(t, uint32(5), e.Value)

	moved := append([]byte{0x02}, make([]byte, 32)...)
	moved = append(moved, 7, 0, 0, 0, 0, 0, 0, 0)
	v, err = bcs.Unmarshal(c, moved)
	require.NoError(t, err)
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"Moved":{"to":"0x0000000000000000000000000000000000000000000000000000000000000000","at":7}}`,
		string(out))
}

func TestBuilder_Recursive(t *testing.T) {
	b := testBuilder(t)
	c, err := b.Parse("0x2::m::Node")
	require.NoError(t, err)

	v, err := bcs.Unmarshal(c, []byte{0x01, 0x02, 0x02, 0x00, 0x03, 0x00})
	require.NoError(t, err)
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":1,"children":[{"value":2,"children":[]},{"value":3,"children":[]}]}`, string(out))
}

func TestBuilder_GrowingRecursion(t *testing.T) {
	b := testBuilder(t)
	c, err := b.Parse("0x2::m::Nest<u8>")
	require.NoError(t, err)
	assert.Equal(t, "Nest<u8>", c.Name())

	// Nest<u8>{7, [Nest<vector<u8>>{[1, 2], []}]}
	data := []byte{0x07, 0x01, 0x02, 0x01, 0x02, 0x00}
	v, err := bcs.Unmarshal(c, data)
	require.NoError(t, err)
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":7,"next":[{"value":[1,2],"next":[]}]}`, string(out))

	again, err := bcs.Marshal(c, v)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		mark error
	}{
		{name: "unguarded cycle through generic", typ: "0x2::m::Bad", mark: errors.ErrUnguardedCycle},
		{name: "external without definition", typ: "0x2::m::Wallet", mark: errors.ErrDanglingReference},
		{name: "unknown type", typ: "0x2::m::Missing", mark: errors.ErrDanglingReference},
		{name: "arity", typ: "0x2::m::Pair<u8>", mark: errors.ErrArityMismatch},
		{name: "not a type", typ: "vector<", mark: errors.ErrMalformedInput},
		{name: "growing instantiation without guard", typ: "0x2::m::Spiral<u8>", mark: errors.ErrMalformedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testBuilder(t).Parse(tt.typ)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.mark), "got %v", err)
		})
	}
}

func TestBuilder_UnboundParameter(t *testing.T) {
	b := testBuilder(t)
	_, err := b.Codec(schema.Vector{Elem: schema.TypeParam{Index: 0}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnboundParameter))
}

func TestBuilder_RoundTrip(t *testing.T) {
	b := testBuilder(t)
	c, err := b.Parse("0x2::m::Pair<vector<u16>, 0x2::m::State>")
	require.NoError(t, err)

	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("decoded values encode to the same bytes", prop.ForAll(
		func(items []uint16, variant uint8, amount uint32) bool {
			a := make([]any, len(items))
			for i, x := range items {
				a[i] = x
			}
			var state *bcs.Enum
			if variant%2 == 0 {
				state = &bcs.Enum{Variant: "Active"}
			} else {
				state = &bcs.Enum{Variant: "Withdrawing", Value: amount}
			}
			data, err := bcs.Marshal(c, map[string]any{"a": a, "b": state})
			if err != nil {
				return false
			}
			decoded, err := bcs.Unmarshal(c, data)
			if err != nil {
				return false
			}
			again, err := bcs.Marshal(c, decoded)
			return err == nil && string(again) == string(data)
		},
		gen.SliceOf(gen.UInt16()),
		gen.UInt8(),
		gen.UInt32(),
	))

	properties.TestingRun(t)
}
