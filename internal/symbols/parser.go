package symbols

import (
	"errors"
	"fmt"
	"iter"

	"github.com/skdltmxn/resym-go/internal/stream"
	"github.com/skdltmxn/resym-go/internal/tpi"
)

var (
	ErrTruncated = errors.New("symbols: truncated record")
	ErrMalformed = errors.New("symbols: malformed record")
)

// Records iterates over the framed records in data. Iteration stops at
// the first framing error, which is yielded with a zero Record.
func Records(data []byte) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		r := stream.NewReader(data)
		for r.Remaining() >= 4 {
			off := r.Offset()
			length, _ := r.ReadU16()
			if length < 2 {
				yield(Record{}, fmt.Errorf("%w: length %d at offset %d", ErrMalformed, length, off))
				return
			}
			body, err := r.ReadBytesRef(int(length))
			if err != nil {
				yield(Record{}, fmt.Errorf("%w: at offset %d", ErrTruncated, off))
				return
			}
			rec := Record{Kind: Kind(uint16(body[0]) | uint16(body[1])<<8), Offset: off, Data: body[2:]}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func readIndex(r *stream.Reader) (tpi.TypeIndex, error) {
	v, err := r.ReadU32()
	return tpi.TypeIndex(v), err
}

func readName(r *stream.Reader, legacy bool) (string, error) {
	if legacy {
		return r.ReadPascalString()
	}
	return r.ReadCString()
}

func wrap(kind Kind, err error) error {
	return fmt.Errorf("%w: %#04x: %w", ErrMalformed, uint16(kind), err)
}

// ParseProcSym decodes a procedure start record.
func ParseProcSym(rec Record) (*ProcSym, error) {
	r := stream.NewReader(rec.Data)
	var p ProcSym
	p.PtrParent, _ = r.ReadU32()
	p.PtrEnd, _ = r.ReadU32()
	p.PtrNext, _ = r.ReadU32()
	p.CodeSize, _ = r.ReadU32()
	// Debug start and end offsets.
	if err := r.Skip(8); err != nil {
		return nil, wrap(rec.Kind, err)
	}
	p.FunctionType, _ = readIndex(r)
	p.CodeOffset, _ = r.ReadU32()
	p.Segment, _ = r.ReadU16()
	flags, err := r.ReadU8()
	if err != nil {
		return nil, wrap(rec.Kind, err)
	}
	p.Flags = flags
	if p.Name, err = r.ReadCString(); err != nil {
		return nil, wrap(rec.Kind, err)
	}
	return &p, nil
}

// ParseDataSym decodes a data record.
func ParseDataSym(rec Record) (*DataSym, error) {
	r := stream.NewReader(rec.Data)
	ti, _ := readIndex(r)
	off, _ := r.ReadU32()
	seg, err := r.ReadU16()
	if err != nil {
		return nil, wrap(rec.Kind, err)
	}
	name, err := r.ReadCString()
	if err != nil {
		return nil, wrap(rec.Kind, err)
	}
	return &DataSym{Type: ti, Offset: off, Segment: seg, Name: name}, nil
}

// ParseUDTSym decodes S_UDT and S_UDT_ST.
func ParseUDTSym(rec Record) (*UDTSym, error) {
	r := stream.NewReader(rec.Data)
	ti, err := readIndex(r)
	if err != nil {
		return nil, wrap(rec.Kind, err)
	}
	name, err := readName(r, rec.Kind == S_UDT_ST)
	if err != nil {
		return nil, wrap(rec.Kind, err)
	}
	return &UDTSym{Type: ti, Name: name}, nil
}

// ParseConstantSym decodes S_CONSTANT and S_CONSTANT_ST.
func ParseConstantSym(rec Record) (*ConstantSym, error) {
	r := stream.NewReader(rec.Data)
	ti, err := readIndex(r)
	if err != nil {
		return nil, wrap(rec.Kind, err)
	}
	val, err := r.ReadNumeric()
	if err != nil {
		return nil, wrap(rec.Kind, err)
	}
	name, err := readName(r, rec.Kind == S_CONSTANT_ST)
	if err != nil {
		return nil, wrap(rec.Kind, err)
	}
	return &ConstantSym{Type: ti, Value: val, Name: name}, nil
}

// ParsePublicSym decodes S_PUB32.
func ParsePublicSym(rec Record) (*PublicSym, error) {
	r := stream.NewReader(rec.Data)
	var p PublicSym
	p.Flags, _ = r.ReadU32()
	p.Offset, _ = r.ReadU32()
	seg, err := r.ReadU16()
	if err != nil {
		return nil, wrap(rec.Kind, err)
	}
	p.Segment = seg
	if p.Name, err = r.ReadCString(); err != nil {
		return nil, wrap(rec.Kind, err)
	}
	return &p, nil
}
