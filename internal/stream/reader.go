// Package stream is a little-endian cursor over a byte slice with the
// CodeView-specific primitives (numeric leaves, padding) on top.
package stream

import (
	"encoding/binary"
	"errors"

	"modernc.org/mathutil"
)

var (
	ErrUnexpectedEOF  = errors.New("stream: unexpected end of data")
	ErrInvalidNumeric = errors.New("stream: invalid numeric leaf")
)

// Reader reads little-endian values from an in-memory buffer. A failed
// read never advances the cursor.
type Reader struct {
	data   []byte
	offset int
}

// NewReader creates a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.offset }

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.data) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return mathutil.Max(len(r.data)-r.offset, 0)
}

// RemainingData returns the unread bytes without copying.
func (r *Reader) RemainingData() []byte {
	if r.offset >= len(r.data) {
		return nil
	}
	return r.data[r.offset:]
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.offset+n > len(r.data) {
		return nil, ErrUnexpectedEOF
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// Align advances the cursor to the next multiple of alignment.
func (r *Reader) Align(alignment int) {
	if alignment > 1 {
		if mod := r.offset % alignment; mod != 0 {
			r.offset = mathutil.Min(r.offset+alignment-mod, len(r.data))
		}
	}
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadBytesRef returns the next n bytes without copying.
func (r *Reader) ReadBytesRef(n int) ([]byte, error) {
	return r.take(n)
}

// ReadGUID reads a 16-byte GUID.
func (r *Reader) ReadGUID() ([16]byte, error) {
	var guid [16]byte
	b, err := r.take(16)
	if err != nil {
		return guid, err
	}
	copy(guid[:], b)
	return guid, nil
}

// ReadCString reads a NUL-terminated string.
func (r *Reader) ReadCString() (string, error) {
	for i := r.offset; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := string(r.data[r.offset:i])
			r.offset = i + 1
			return s, nil
		}
	}
	return "", ErrUnexpectedEOF
}

// ReadPascalString reads a string prefixed by its one-byte length, the
// encoding used by the legacy _ST record kinds.
func (r *Reader) ReadPascalString() (string, error) {
	start := r.offset
	n, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		r.offset = start
		return "", err
	}
	return string(b), nil
}

// SubReader returns a reader over the next n bytes and advances past them.
func (r *Reader) SubReader(n int) (*Reader, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return NewReader(b), nil
}

// PeekU8 returns the next byte without consuming it.
func (r *Reader) PeekU8() (uint8, error) {
	if r.offset >= len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	return r.data[r.offset], nil
}

// PeekU16 returns the next u16 without consuming it.
func (r *Reader) PeekU16() (uint16, error) {
	if r.offset+2 > len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	return binary.LittleEndian.Uint16(r.data[r.offset:]), nil
}

// SkipPadding consumes LF_PAD bytes (0xF0-0xFF). The low nibble of a pad
// byte is the distance to the next sub-record.
func (r *Reader) SkipPadding() {
	for r.offset < len(r.data) {
		b := r.data[r.offset]
		if b < 0xF0 {
			return
		}
		r.offset = mathutil.Min(r.offset+mathutil.Max(int(b&0x0F), 1), len(r.data))
	}
}
