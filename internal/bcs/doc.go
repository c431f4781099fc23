// Package bcs implements Binary Canonical Serialization over dynamically
// described types.
//
// A Codec is built by composing constructors that mirror the codec library
// generated TypeScript uses (U8 through U256, Bool, Address, String, Vector,
// Option, Tuple, Struct, Enum and Lazy), so a type description can be
// interpreted in Go with the same wire format:
//
//   - integers are little endian, u128 and u256 travel as *big.Int
//   - sequence lengths and enum variant indices are ULEB128
//   - an option is a 0 or 1 tag byte followed by the value when present
//   - structs and tuples are the concatenation of their members
//
// Decoded values are plain Go values (uint8 ... uint64, *big.Int, bool,
// Address, string, []any) or the ordered types Struct, Enum and OptionValue.
package bcs
