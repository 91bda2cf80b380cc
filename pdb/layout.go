package pdb

import (
	"errors"
	"fmt"
	"sync"

	"modernc.org/mathutil"
)

// Layout is the computed storage of one type.
type Layout struct {
	Index  TypeIndex
	Size   uint64
	Align  uint64
	Bases  []BaseLayout
	Fields []FieldLayout
}

// BaseLayout places one base class sub-object. Virtual bases are placed
// after the non-virtual part of the object.
type BaseLayout struct {
	Type      TypeIndex
	Offset    uint64
	Size      uint64
	IsVirtual bool
}

// FieldLayout places one non-static data member. For bitfields Offset is
// the storage unit's byte offset, UnitSize its width, and Unit numbers
// the storage units of the aggregate from zero. Unit is -1 for ordinary
// members.
type FieldLayout struct {
	Name       string
	Type       TypeIndex
	Offset     uint64
	Size       uint64
	IsBitfield bool
	BitOffset  uint8
	BitWidth   uint8
	UnitSize   uint64
	Unit       int
}

// BitStart returns the first bit the field occupies, counted from the
// start of the aggregate.
func (f FieldLayout) BitStart() uint64 {
	return f.Offset*8 + uint64(f.BitOffset)
}

// BitEnd returns one past the last bit the field occupies.
func (f FieldLayout) BitEnd() uint64 {
	if f.IsBitfield {
		return f.BitStart() + uint64(f.BitWidth)
	}
	return (f.Offset + f.Size) * 8
}

// Layouts computes and memoizes type layouts. It is safe for concurrent
// use; concurrent misses may compute an entry twice and keep the first.
type Layouts struct {
	table       *TypeTable
	pointerSize int
	cache       sync.Map // TypeIndex -> layoutResult
}

type layoutResult struct {
	layout *Layout
	err    error
}

// NewLayouts returns a resolver over table. pointerSize is used for
// pointer records that do not encode their own width.
func NewLayouts(table *TypeTable, pointerSize int) *Layouts {
	return &Layouts{table: table, pointerSize: pointerSize}
}

// Of returns the layout of ti. Failures are *LayoutError values wrapping
// ErrCyclicLayout, ErrLayoutOverflow, ErrBitfieldOverlap or
// ErrUnresolvedReference.
func (l *Layouts) Of(ti TypeIndex) (*Layout, error) {
	return l.resolve(ti, make(map[TypeIndex]bool))
}

func (l *Layouts) resolve(ti TypeIndex, visiting map[TypeIndex]bool) (*Layout, error) {
	if v, ok := l.cache.Load(ti); ok {
		r := v.(layoutResult)
		return r.layout, r.err
	}
	if visiting[ti] {
		return nil, &LayoutError{Index: ti, Err: ErrCyclicLayout}
	}

	visiting[ti] = true
	layout, err := l.compute(ti, visiting)
	delete(visiting, ti)

	if err != nil {
		var le *LayoutError
		if !errors.As(err, &le) {
			err = &LayoutError{Index: ti, Err: err}
		}
		layout = nil
	}
	v, _ := l.cache.LoadOrStore(ti, layoutResult{layout, err})
	r := v.(layoutResult)
	return r.layout, r.err
}

func (l *Layouts) compute(ti TypeIndex, visiting map[TypeIndex]bool) (*Layout, error) {
	rec, ok := l.table.ByIndex(ti)
	if !ok {
		return nil, fmt.Errorf("%w: %#x", ErrUnresolvedReference, uint32(ti))
	}

	switch r := rec.(type) {
	case *Primitive:
		return scalar(ti, uint64(r.Size())), nil

	case *Pointer:
		size := r.Size
		if size == 0 {
			size = l.pointerSize
		}
		return scalar(ti, uint64(size)), nil

	case *Modifier:
		return l.alias(ti, r.Type, visiting)

	case *Bitfield:
		return l.alias(ti, r.Type, visiting)

	case *Enum:
		def := r
		if d, ok := l.table.ByIndex(l.table.Definition(ti)); ok {
			if e, ok := d.(*Enum); ok {
				def = e
			}
		}
		return l.alias(ti, def.Underlying, visiting)

	case *Array:
		elem, err := l.resolve(r.Element, visiting)
		if err != nil {
			return nil, err
		}
		return &Layout{Index: ti, Size: r.Size, Align: elem.Align}, nil

	case *Procedure, *MemberFunction:
		return &Layout{Index: ti, Align: 1}, nil

	case *Aggregate:
		return l.aggregate(ti, r, visiting)
	}
	return nil, fmt.Errorf("%w: %#x is not a data type", ErrUnresolvedReference, uint32(ti))
}

func (l *Layouts) alias(ti, target TypeIndex, visiting map[TypeIndex]bool) (*Layout, error) {
	inner, err := l.resolve(target, visiting)
	if err != nil {
		return nil, err
	}
	return &Layout{Index: ti, Size: inner.Size, Align: inner.Align}, nil
}

func scalar(ti TypeIndex, size uint64) *Layout {
	return &Layout{Index: ti, Size: size, Align: naturalAlign(size)}
}

// naturalAlign is the largest power of two not above size, capped at 16.
func naturalAlign(size uint64) uint64 {
	a := uint64(1)
	for a*2 <= size && a < 16 {
		a *= 2
	}
	return a
}

func alignUp(v, align uint64) uint64 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

func (l *Layouts) aggregate(ti TypeIndex, agg *Aggregate, visiting map[TypeIndex]bool) (*Layout, error) {
	if agg.IsForward {
		def := l.table.Definition(ti)
		if def == ti {
			return &Layout{Index: ti, Align: 1}, nil
		}
		return l.resolve(def, visiting)
	}

	fl, err := l.table.Fields(agg.FieldList)
	if err != nil {
		return nil, err
	}

	out := &Layout{Index: ti, Size: agg.Size, Align: 1}
	if fl.HasVFPtr {
		out.Align = naturalAlign(uint64(l.pointerSize))
	}

	var end uint64
	virtualAlign := make(map[int]uint64)
	for i, b := range fl.Bases {
		bl, err := l.resolve(b.Type, visiting)
		if err != nil {
			return nil, err
		}
		out.Align = mathutil.MaxUint64(out.Align, bl.Align)
		out.Bases = append(out.Bases, BaseLayout{Type: b.Type, Offset: b.Offset, Size: bl.Size, IsVirtual: b.IsVirtual})
		if b.IsVirtual {
			virtualAlign[i] = bl.Align
			continue
		}
		if b.Offset+bl.Size > agg.Size {
			return nil, fmt.Errorf("%w: base %#x at %#x (size %#x) in %q of size %#x",
				ErrLayoutOverflow, uint32(b.Type), b.Offset, bl.Size, agg.Name, agg.Size)
		}
		end = mathutil.MaxUint64(end, b.Offset+bl.Size)
	}

	for _, m := range fl.Members {
		if m.IsStatic {
			continue
		}
		f, align, err := l.field(m, visiting)
		if err != nil {
			return nil, err
		}
		if f.Offset+f.Size > agg.Size {
			return nil, fmt.Errorf("%w: member %q at %#x (size %#x) in %q of size %#x",
				ErrLayoutOverflow, m.Name, f.Offset, f.Size, agg.Name, agg.Size)
		}
		out.Align = mathutil.MaxUint64(out.Align, align)
		end = mathutil.MaxUint64(end, f.Offset+f.Size)
		out.Fields = append(out.Fields, f)
	}

	for i := range out.Bases {
		if !out.Bases[i].IsVirtual {
			continue
		}
		out.Bases[i].Offset = alignUp(end, virtualAlign[i])
		end = out.Bases[i].Offset + out.Bases[i].Size
	}

	if err := assignUnits(out.Fields, agg.Kind == KindUnion); err != nil {
		return nil, fmt.Errorf("%w in %q", err, agg.Name)
	}

	if agg.IsPacked {
		out.Align = 1
	}
	for out.Align > 1 && agg.Size%out.Align != 0 {
		out.Align /= 2
	}
	return out, nil
}

func (l *Layouts) field(m Member, visiting map[TypeIndex]bool) (FieldLayout, uint64, error) {
	f := FieldLayout{Name: m.Name, Type: m.Type, Offset: m.Offset, Unit: -1}

	rec, ok := l.table.ByIndex(m.Type)
	if !ok {
		return f, 0, fmt.Errorf("%w: type %#x of member %q", ErrUnresolvedReference, uint32(m.Type), m.Name)
	}
	if bf, ok := rec.(*Bitfield); ok {
		unit, err := l.resolve(bf.Type, visiting)
		if err != nil {
			return f, 0, err
		}
		f.IsBitfield = true
		f.BitOffset = bf.Position
		f.BitWidth = bf.Length
		f.UnitSize = unit.Size
		f.Size = unit.Size
		if uint64(bf.Position)+uint64(bf.Length) > unit.Size*8 {
			return f, 0, fmt.Errorf("%w: bitfield %q bits %d-%d in a %d-byte unit",
				ErrLayoutOverflow, m.Name, bf.Position, int(bf.Position)+int(bf.Length)-1, unit.Size)
		}
		return f, unit.Align, nil
	}

	inner, err := l.resolve(m.Type, visiting)
	if err != nil {
		return f, 0, err
	}
	f.Size = inner.Size
	return f, inner.Align, nil
}

// assignUnits numbers bitfield storage units. A bitfield continues the
// previous unit when it shares its byte offset and width and starts at a
// higher bit; a bitfield restarting at or below the previous start opens
// a new unit (an alternative of a flattened union). Partially
// overlapping bits within one unit are an error outside unions.
func assignUnits(fields []FieldLayout, union bool) error {
	unit := -1
	var prev *FieldLayout
	for i := range fields {
		f := &fields[i]
		if !f.IsBitfield {
			prev = nil
			continue
		}
		same := prev != nil && !union &&
			f.Offset == prev.Offset && f.UnitSize == prev.UnitSize &&
			f.BitOffset > prev.BitOffset
		if same {
			if uint64(f.BitOffset) < uint64(prev.BitOffset)+uint64(prev.BitWidth) {
				return fmt.Errorf("%w: %q (bits %d-%d) and %q (bits %d-%d)", ErrBitfieldOverlap,
					prev.Name, prev.BitOffset, int(prev.BitOffset)+int(prev.BitWidth)-1,
					f.Name, f.BitOffset, int(f.BitOffset)+int(f.BitWidth)-1)
			}
		} else {
			unit++
		}
		f.Unit = unit
		prev = f
	}
	return nil
}
