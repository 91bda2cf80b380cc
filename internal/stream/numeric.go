package stream

import (
	"fmt"
	"strconv"
)

// Numeric leaf prefixes.
const (
	LeafChar      = 0x8000
	LeafShort     = 0x8001
	LeafUShort    = 0x8002
	LeafLong      = 0x8003
	LeafULong     = 0x8004
	LeafQuadWord  = 0x8009
	LeafUQuadWord = 0x800a
)

// Numeric is a decoded CodeView numeric leaf. Bits holds the raw two's
// complement value; Width is the encoded width in bytes.
type Numeric struct {
	Bits   uint64
	Width  int
	Signed bool
}

// Uint returns the value as unsigned; negative values wrap.
func (n Numeric) Uint() uint64 { return n.Bits }

// Int returns the value sign-extended from its encoded width.
func (n Numeric) Int() int64 {
	if !n.Signed || n.Width >= 8 {
		return int64(n.Bits)
	}
	shift := uint(64 - 8*n.Width)
	return int64(n.Bits<<shift) >> shift
}

// IsNegative reports whether a signed leaf carries a negative value.
func (n Numeric) IsNegative() bool {
	return n.Signed && n.Int() < 0
}

// Decimal formats the value in base 10, honouring its signedness.
func (n Numeric) Decimal() string {
	if n.Signed {
		return strconv.FormatInt(n.Int(), 10)
	}
	return strconv.FormatUint(n.Bits, 10)
}

// Hex formats the value as a 0x literal. Negative values print as their
// two's complement at the given width in bytes (or the encoded width
// when width is 0).
func (n Numeric) Hex(width int) string {
	if width <= 0 {
		width = n.Width
	}
	v := n.Bits
	if n.IsNegative() {
		v = uint64(n.Int())
		if width < 8 {
			v &= 1<<(8*uint(width)) - 1
		}
	}
	return fmt.Sprintf("%#x", v)
}

// ReadNumeric reads a numeric leaf. Values below 0x8000 are stored inline.
func (r *Reader) ReadNumeric() (Numeric, error) {
	start := r.offset
	leaf, err := r.ReadU16()
	if err != nil {
		return Numeric{}, err
	}
	if leaf < LeafChar {
		return Numeric{Bits: uint64(leaf), Width: 2}, nil
	}

	var (
		n    Numeric
		size int
	)
	switch leaf {
	case LeafChar:
		n, size = Numeric{Width: 1, Signed: true}, 1
	case LeafShort:
		n, size = Numeric{Width: 2, Signed: true}, 2
	case LeafUShort:
		n, size = Numeric{Width: 2}, 2
	case LeafLong:
		n, size = Numeric{Width: 4, Signed: true}, 4
	case LeafULong:
		n, size = Numeric{Width: 4}, 4
	case LeafQuadWord:
		n, size = Numeric{Width: 8, Signed: true}, 8
	case LeafUQuadWord:
		n, size = Numeric{Width: 8}, 8
	default:
		r.offset = start
		return Numeric{}, fmt.Errorf("%w: 0x%04x", ErrInvalidNumeric, leaf)
	}

	b, err := r.take(size)
	if err != nil {
		r.offset = start
		return Numeric{}, err
	}
	for i := size - 1; i >= 0; i-- {
		n.Bits = n.Bits<<8 | uint64(b[i])
	}
	return n, nil
}
