package schema

import (
	"encoding/hex"
	"strings"

	"github.com/okra-platform/movegen/internal/errors"
)

// AddressLength is the width of a Move address in bytes.
const AddressLength = 32

// Address is a package address in canonical form: "0x" followed by 64
// lowercase hex digits.
type Address string

// ParseAddress accepts short ("0x2"), unprefixed ("2") and full-width forms and
// returns the canonical zero-padded address.
func ParseAddress(s string) (Address, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if raw == "" {
		return "", errors.Mark(errors.Newf("empty address %q", s), errors.ErrMalformedInput)
	}
	if len(raw) > AddressLength*2 {
		return "", errors.Mark(errors.Newf("address %q is longer than %d bytes", s, AddressLength), errors.ErrMalformedInput)
	}
	raw = strings.ToLower(raw)
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", errors.Mark(errors.Wrapf(err, "address %q is not hex", s), errors.ErrMalformedInput)
	}
	return Address("0x" + strings.Repeat("0", AddressLength*2-len(raw)) + raw), nil
}

// MustParseAddress is like ParseAddress but panics on error. Intended for
// tests and constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Short renders the address without leading zeros, e.g. "0x2".
func (a Address) Short() string {
	trimmed := strings.TrimLeft(strings.TrimPrefix(string(a), "0x"), "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return "0x" + trimmed
}

// Bytes returns the 32 address bytes.
func (a Address) Bytes() ([AddressLength]byte, error) {
	var out [AddressLength]byte
	canon, err := ParseAddress(string(a))
	if err != nil {
		return out, err
	}
	b, _ := hex.DecodeString(strings.TrimPrefix(string(canon), "0x"))
	copy(out[:], b)
	return out, nil
}

// AddressFromBytes renders raw address bytes in canonical form.
func AddressFromBytes(b [AddressLength]byte) Address {
	return Address("0x" + hex.EncodeToString(b[:]))
}

func (a Address) String() string {
	return string(a)
}
