// Package pdbtest builds small, valid PDB containers in memory for tests.
// It writes the same layouts the readers in this module decode: an MSF
// 7.00 container holding PDB info, TPI, DBI, IPI and symbol streams.
package pdbtest

import (
	"encoding/binary"

	"github.com/skdltmxn/resym-go/internal/stream"
)

// Buffer accumulates little-endian values.
type Buffer struct {
	b []byte
}

func (w *Buffer) Bytes() []byte { return w.b }
func (w *Buffer) Len() int      { return len(w.b) }

func (w *Buffer) U8(v uint8) *Buffer {
	w.b = append(w.b, v)
	return w
}

func (w *Buffer) U16(v uint16) *Buffer {
	w.b = binary.LittleEndian.AppendUint16(w.b, v)
	return w
}

func (w *Buffer) U32(v uint32) *Buffer {
	w.b = binary.LittleEndian.AppendUint32(w.b, v)
	return w
}

func (w *Buffer) U64(v uint64) *Buffer {
	w.b = binary.LittleEndian.AppendUint64(w.b, v)
	return w
}

func (w *Buffer) Raw(b []byte) *Buffer {
	w.b = append(w.b, b...)
	return w
}

// CString appends s and a NUL terminator.
func (w *Buffer) CString(s string) *Buffer {
	w.b = append(w.b, s...)
	w.b = append(w.b, 0)
	return w
}

// Unsigned appends an unsigned numeric leaf in its shortest encoding.
func (w *Buffer) Unsigned(v uint64) *Buffer {
	switch {
	case v < stream.LeafChar:
		return w.U16(uint16(v))
	case v <= 0xFFFF:
		return w.U16(stream.LeafUShort).U16(uint16(v))
	case v <= 0xFFFFFFFF:
		return w.U16(stream.LeafULong).U32(uint32(v))
	default:
		return w.U16(stream.LeafUQuadWord).U64(v)
	}
}

// Signed appends a signed numeric leaf in its shortest encoding.
func (w *Buffer) Signed(v int64) *Buffer {
	switch {
	case v >= 0:
		return w.Unsigned(uint64(v))
	case v >= -0x80:
		return w.U16(stream.LeafChar).U8(uint8(int8(v)))
	case v >= -0x8000:
		return w.U16(stream.LeafShort).U16(uint16(int16(v)))
	case v >= -0x80000000:
		return w.U16(stream.LeafLong).U32(uint32(int32(v)))
	default:
		return w.U16(stream.LeafQuadWord).U64(uint64(v))
	}
}

// Pad appends LF_PAD bytes until the length is a multiple of 4.
func (w *Buffer) Pad() *Buffer {
	for n := (4 - len(w.b)%4) % 4; n > 0; n-- {
		w.b = append(w.b, 0xF0|byte(n))
	}
	return w
}

// Align appends zero bytes until the length is a multiple of 4.
func (w *Buffer) Align() *Buffer {
	for len(w.b)%4 != 0 {
		w.b = append(w.b, 0)
	}
	return w
}
