package bcs

import (
	"bytes"

	"github.com/okra-platform/movegen/internal/errors"
)

// Sentinel errors; concrete errors are marked with them.
var (
	// ErrUnexpectedEOF means the input ended inside a value
	ErrUnexpectedEOF = errors.New("bcs: unexpected end of input")
	// ErrInvalidBytes means the input is not a canonical encoding
	ErrInvalidBytes = errors.New("bcs: invalid encoding")
	// ErrInvalidValue means a Go value does not fit the codec
	ErrInvalidValue = errors.New("bcs: value does not match codec")
)

// maxSequenceLength is the largest length BCS allows for a sequence.
const maxSequenceLength = 1<<31 - 1

// Writer accumulates encoded bytes.
type Writer struct {
	buf bytes.Buffer
}

// Bytes returns the bytes written so far.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf.Write(b)
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) error {
	return w.buf.WriteByte(b)
}

// WriteULEB128 appends v in unsigned LEB128 form.
func (w *Writer) WriteULEB128(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

// Reader consumes encoded bytes.
type Reader struct {
	data []byte
	pos  int
}

// NewReader reads from data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Offset returns the number of bytes consumed.
func (r *Reader) Offset() int {
	return r.pos
}

// Read consumes n bytes.
func (r *Reader) Read(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, errors.Mark(errors.Newf("need %d bytes at offset %d, have %d", n, r.pos, r.Remaining()), ErrUnexpectedEOF)
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// ReadByte consumes one byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadULEB128 consumes an unsigned LEB128 value that fits in 32 bits, as
// used for lengths and variant indices. Non-canonical encodings are rejected.
func (r *Reader) ReadULEB128() (uint64, error) {
	start := r.pos
	var v uint64
	for shift := 0; shift < 35; shift += 7 {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			if b == 0 && shift > 0 {
				return 0, errors.Mark(errors.Newf("non-canonical ULEB128 at offset %d", start), ErrInvalidBytes)
			}
			if v > 0xffffffff {
				break
			}
			return v, nil
		}
	}
	return 0, errors.Mark(errors.Newf("ULEB128 at offset %d overflows 32 bits", start), ErrInvalidBytes)
}

// readLength reads a sequence length and checks it against the bytes left,
// assuming every element takes at least one byte when minElem is set.
func (r *Reader) readLength(minElem bool) (int, error) {
	n, err := r.ReadULEB128()
	if err != nil {
		return 0, err
	}
	if n > maxSequenceLength {
		return 0, errors.Mark(errors.Newf("sequence length %d exceeds the maximum", n), ErrInvalidBytes)
	}
	if minElem && int(n) > r.Remaining() {
		return 0, errors.Mark(errors.Newf("sequence of %d elements with %d bytes left", n, r.Remaining()), ErrUnexpectedEOF)
	}
	return int(n), nil
}
