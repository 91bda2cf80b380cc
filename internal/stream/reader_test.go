package stream

import (
	"errors"
	"testing"
)

func TestReaderScalars(t *testing.T) {
	r := NewReader([]byte{
		0x01,
		0x02, 0x01,
		0x04, 0x03, 0x02, 0x01,
		0xff, 0xff, 0xff, 0xff,
		'h', 'i', 0,
		2, 'o', 'k',
	})
	if v, _ := r.ReadU8(); v != 1 {
		t.Errorf("ReadU8() = %#x", v)
	}
	if v, _ := r.ReadU16(); v != 0x0102 {
		t.Errorf("ReadU16() = %#x", v)
	}
	if v, _ := r.ReadU32(); v != 0x01020304 {
		t.Errorf("ReadU32() = %#x", v)
	}
	if v, _ := r.ReadI32(); v != -1 {
		t.Errorf("ReadI32() = %d", v)
	}
	if s, err := r.ReadCString(); err != nil || s != "hi" {
		t.Errorf("ReadCString() = %q, %v", s, err)
	}
	if s, err := r.ReadPascalString(); err != nil || s != "ok" {
		t.Errorf("ReadPascalString() = %q, %v", s, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d", r.Remaining())
	}
	if _, err := r.ReadU8(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("ReadU8() at end error = %v", err)
	}
}

func TestReaderBounds(t *testing.T) {
	r := NewReader([]byte{'a', 'b'})
	if _, err := r.ReadCString(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("unterminated ReadCString() error = %v", err)
	}
	if _, err := r.ReadU32(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("short ReadU32() error = %v", err)
	}
	if r.Offset() != 0 {
		t.Errorf("failed reads moved the cursor to %d", r.Offset())
	}

	r = NewReader([]byte{5, 'a'})
	if _, err := r.ReadPascalString(); err == nil || r.Offset() != 0 {
		t.Errorf("short ReadPascalString() = %v, offset %d", err, r.Offset())
	}
}

func TestReaderAlign(t *testing.T) {
	r := NewReader(make([]byte, 10))
	r.Skip(1)
	r.Align(4)
	if r.Offset() != 4 {
		t.Errorf("Align(4) offset = %d", r.Offset())
	}
	r.Align(4)
	if r.Offset() != 4 {
		t.Errorf("aligned Align(4) offset = %d", r.Offset())
	}
	r.Skip(5)
	r.Align(8)
	if r.Offset() != 10 {
		t.Errorf("Align past end offset = %d, want clamp to 10", r.Offset())
	}
}

func TestSkipPadding(t *testing.T) {
	r := NewReader([]byte{0xf3, 0xf2, 0xf1, 0x0d})
	r.SkipPadding()
	if v, err := r.ReadU8(); err != nil || v != 0x0d {
		t.Errorf("after SkipPadding ReadU8() = %#x, %v", v, err)
	}
}

func TestSubReader(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})
	sub, err := r.SubReader(3)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Len() != 3 || r.Offset() != 3 {
		t.Errorf("SubReader(3) len %d, parent offset %d", sub.Len(), r.Offset())
	}
	if _, err := r.SubReader(2); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("SubReader past end error = %v", err)
	}
}

func TestReadNumeric(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		decimal string
		hex     string
	}{
		{"inline", []byte{0x2a, 0x00}, "42", "0x2a"},
		{"char", []byte{0x00, 0x80, 0xff}, "-1", "0xff"},
		{"short", []byte{0x01, 0x80, 0xfe, 0xff}, "-2", "0xfffe"},
		{"ushort", []byte{0x02, 0x80, 0xfe, 0xff}, "65534", "0xfffe"},
		{"long", []byte{0x03, 0x80, 0x00, 0x00, 0x00, 0x80}, "-2147483648", "0x80000000"},
		{"ulong", []byte{0x04, 0x80, 0x00, 0x00, 0x00, 0x80}, "2147483648", "0x80000000"},
		{"quad", []byte{0x09, 0x80, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, "-1", "0xffffffffffffffff"},
		{"uquad", []byte{0x0a, 0x80, 0x10, 0, 0, 0, 0, 0, 0, 0}, "16", "0x10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data)
			n, err := r.ReadNumeric()
			if err != nil {
				t.Fatalf("ReadNumeric() error = %v", err)
			}
			if got := n.Decimal(); got != tt.decimal {
				t.Errorf("Decimal() = %q, want %q", got, tt.decimal)
			}
			if got := n.Hex(0); got != tt.hex {
				t.Errorf("Hex(0) = %q, want %q", got, tt.hex)
			}
			if r.Remaining() != 0 {
				t.Errorf("ReadNumeric() left %d bytes", r.Remaining())
			}
		})
	}
}

func TestNumericHexWidth(t *testing.T) {
	n := Numeric{Bits: 0xff, Width: 1, Signed: true}
	if got := n.Hex(4); got != "0xffffffff" {
		t.Errorf("Hex(4) = %q", got)
	}
	if got := n.Hex(8); got != "0xffffffffffffffff" {
		t.Errorf("Hex(8) = %q", got)
	}
	if !n.IsNegative() || n.Int() != -1 || n.Uint() != 0xff {
		t.Errorf("Int() = %d, Uint() = %#x", n.Int(), n.Uint())
	}
}

func TestReadNumericInvalid(t *testing.T) {
	r := NewReader([]byte{0x05, 0x80, 0, 0})
	if _, err := r.ReadNumeric(); !errors.Is(err, ErrInvalidNumeric) {
		t.Errorf("ReadNumeric() error = %v, want %v", err, ErrInvalidNumeric)
	}
	if r.Offset() != 0 {
		t.Errorf("offset = %d after failure", r.Offset())
	}

	r = NewReader([]byte{0x03, 0x80, 0x01})
	if _, err := r.ReadNumeric(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("truncated ReadNumeric() error = %v", err)
	}
}
