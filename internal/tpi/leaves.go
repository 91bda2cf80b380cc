package tpi

import (
	"fmt"

	"github.com/skdltmxn/resym-go/internal/stream"
)

// ModifierRecord is LF_MODIFIER.
type ModifierRecord struct {
	Type    TypeIndex
	Options ModifierOptions
}

// PointerRecord is LF_POINTER. ContainingClass is set for member pointers.
type PointerRecord struct {
	Referent        TypeIndex
	Attrs           PointerAttributes
	ContainingClass TypeIndex
}

// ProcedureRecord is LF_PROCEDURE.
type ProcedureRecord struct {
	ReturnType TypeIndex
	CallConv   CallingConvention
	Options    FunctionOptions
	ParamCount uint16
	ArgList    TypeIndex
}

// MFunctionRecord is LF_MFUNCTION.
type MFunctionRecord struct {
	ReturnType TypeIndex
	Class      TypeIndex
	This       TypeIndex
	CallConv   CallingConvention
	Options    FunctionOptions
	ParamCount uint16
	ArgList    TypeIndex
	ThisAdjust int32
}

// ArgListRecord is LF_ARGLIST.
type ArgListRecord struct {
	Args []TypeIndex
}

// ArrayRecord is LF_ARRAY. Size is the total size in bytes.
type ArrayRecord struct {
	ElementType TypeIndex
	IndexType   TypeIndex
	Size        uint64
	Name        string
}

// ClassRecord is LF_CLASS, LF_STRUCTURE, LF_INTERFACE or LF_UNION (and
// their legacy forms). Unions never carry Derived or VShape.
type ClassRecord struct {
	Kind       LeafKind
	Count      uint16
	Props      ClassProperties
	FieldList  TypeIndex
	Derived    TypeIndex
	VShape     TypeIndex
	Size       uint64
	Name       string
	UniqueName string
}

// EnumRecord is LF_ENUM.
type EnumRecord struct {
	Count          uint16
	Props          ClassProperties
	UnderlyingType TypeIndex
	FieldList      TypeIndex
	Name           string
	UniqueName     string
}

// BitFieldRecord is LF_BITFIELD.
type BitFieldRecord struct {
	Type     TypeIndex
	Length   uint8
	Position uint8
}

// VTShapeRecord is LF_VTSHAPE; Slots holds one 4-bit descriptor per entry.
type VTShapeRecord struct {
	Slots []uint8
}

// MethodListEntry is one overload inside LF_METHODLIST.
type MethodListEntry struct {
	Attrs         MemberAttributes
	Type          TypeIndex
	VFTableOffset int32
}

func malformed(kind LeafKind, err error) error {
	return fmt.Errorf("%w: %#04x: %w", ErrMalformed, uint16(kind), err)
}

func readIndex(r *stream.Reader) (TypeIndex, error) {
	v, err := r.ReadU32()
	return TypeIndex(v), err
}

func readName(r *stream.Reader, legacy bool) (string, error) {
	if legacy {
		return r.ReadPascalString()
	}
	return r.ReadCString()
}

// errs returns the first non-nil error.
func errs(list ...error) error {
	for _, err := range list {
		if err != nil {
			return err
		}
	}
	return nil
}

// ParseModifier decodes LF_MODIFIER.
func ParseModifier(data []byte) (*ModifierRecord, error) {
	r := stream.NewReader(data)
	ti, err1 := readIndex(r)
	opts, err2 := r.ReadU16()
	if err := errs(err1, err2); err != nil {
		return nil, malformed(LF_MODIFIER, err)
	}
	return &ModifierRecord{Type: ti, Options: ModifierOptions(opts)}, nil
}

// ParsePointer decodes LF_POINTER.
func ParsePointer(data []byte) (*PointerRecord, error) {
	r := stream.NewReader(data)
	ref, err1 := readIndex(r)
	attrs, err2 := r.ReadU32()
	if err := errs(err1, err2); err != nil {
		return nil, malformed(LF_POINTER, err)
	}
	rec := &PointerRecord{Referent: ref, Attrs: PointerAttributes(attrs)}
	if rec.Attrs.IsMemberPtr() {
		cls, err := readIndex(r)
		if err != nil {
			return nil, malformed(LF_POINTER, err)
		}
		rec.ContainingClass = cls
	}
	return rec, nil
}

// ParseProcedure decodes LF_PROCEDURE.
func ParseProcedure(data []byte) (*ProcedureRecord, error) {
	r := stream.NewReader(data)
	ret, err1 := readIndex(r)
	cc, err2 := r.ReadU8()
	opts, err3 := r.ReadU8()
	count, err4 := r.ReadU16()
	args, err5 := readIndex(r)
	if err := errs(err1, err2, err3, err4, err5); err != nil {
		return nil, malformed(LF_PROCEDURE, err)
	}
	return &ProcedureRecord{
		ReturnType: ret,
		CallConv:   CallingConvention(cc),
		Options:    FunctionOptions(opts),
		ParamCount: count,
		ArgList:    args,
	}, nil
}

// ParseMFunction decodes LF_MFUNCTION.
func ParseMFunction(data []byte) (*MFunctionRecord, error) {
	r := stream.NewReader(data)
	ret, err1 := readIndex(r)
	cls, err2 := readIndex(r)
	this, err3 := readIndex(r)
	cc, err4 := r.ReadU8()
	opts, err5 := r.ReadU8()
	count, err6 := r.ReadU16()
	args, err7 := readIndex(r)
	adjust, err8 := r.ReadI32()
	if err := errs(err1, err2, err3, err4, err5, err6, err7, err8); err != nil {
		return nil, malformed(LF_MFUNCTION, err)
	}
	return &MFunctionRecord{
		ReturnType: ret,
		Class:      cls,
		This:       this,
		CallConv:   CallingConvention(cc),
		Options:    FunctionOptions(opts),
		ParamCount: count,
		ArgList:    args,
		ThisAdjust: adjust,
	}, nil
}

// ParseArgList decodes LF_ARGLIST.
func ParseArgList(data []byte) (*ArgListRecord, error) {
	r := stream.NewReader(data)
	count, err := r.ReadU32()
	if err != nil {
		return nil, malformed(LF_ARGLIST, err)
	}
	if uint64(count)*4 > uint64(r.Remaining()) {
		return nil, malformed(LF_ARGLIST, fmt.Errorf("%d arguments in %d bytes", count, r.Remaining()))
	}
	rec := &ArgListRecord{Args: make([]TypeIndex, count)}
	for i := range rec.Args {
		rec.Args[i], _ = readIndex(r)
	}
	return rec, nil
}

// ParseArray decodes LF_ARRAY and LF_ARRAY_ST.
func ParseArray(kind LeafKind, data []byte) (*ArrayRecord, error) {
	r := stream.NewReader(data)
	elem, err1 := readIndex(r)
	idx, err2 := readIndex(r)
	size, err3 := r.ReadNumeric()
	if err := errs(err1, err2, err3); err != nil {
		return nil, malformed(kind, err)
	}
	name, _ := readName(r, kind.IsLegacy())
	return &ArrayRecord{ElementType: elem, IndexType: idx, Size: size.Uint(), Name: name}, nil
}

// ParseClass decodes the class, structure, interface and union leaves.
func ParseClass(kind LeafKind, data []byte) (*ClassRecord, error) {
	r := stream.NewReader(data)
	rec := &ClassRecord{Kind: kind}

	count, err1 := r.ReadU16()
	props, err2 := r.ReadU16()
	fields, err3 := readIndex(r)
	if err := errs(err1, err2, err3); err != nil {
		return nil, malformed(kind, err)
	}
	rec.Count, rec.Props, rec.FieldList = count, ClassProperties(props), fields

	if kind != LF_UNION && kind != LF_UNION_ST {
		derived, err1 := readIndex(r)
		vshape, err2 := readIndex(r)
		if err := errs(err1, err2); err != nil {
			return nil, malformed(kind, err)
		}
		rec.Derived, rec.VShape = derived, vshape
	}

	size, err := r.ReadNumeric()
	if err != nil {
		return nil, malformed(kind, err)
	}
	rec.Size = size.Uint()

	legacy := kind.IsLegacy()
	if rec.Name, err = readName(r, legacy); err != nil {
		return nil, malformed(kind, err)
	}
	if rec.Props.HasUniqueName() && !legacy {
		rec.UniqueName, _ = r.ReadCString()
	}
	return rec, nil
}

// ParseEnum decodes LF_ENUM and LF_ENUM_ST.
func ParseEnum(kind LeafKind, data []byte) (*EnumRecord, error) {
	r := stream.NewReader(data)
	count, err1 := r.ReadU16()
	props, err2 := r.ReadU16()
	underlying, err3 := readIndex(r)
	fields, err4 := readIndex(r)
	if err := errs(err1, err2, err3, err4); err != nil {
		return nil, malformed(kind, err)
	}
	rec := &EnumRecord{
		Count:          count,
		Props:          ClassProperties(props),
		UnderlyingType: underlying,
		FieldList:      fields,
	}
	var err error
	if rec.Name, err = readName(r, kind.IsLegacy()); err != nil {
		return nil, malformed(kind, err)
	}
	if rec.Props.HasUniqueName() && !kind.IsLegacy() {
		rec.UniqueName, _ = r.ReadCString()
	}
	return rec, nil
}

// ParseBitField decodes LF_BITFIELD.
func ParseBitField(data []byte) (*BitFieldRecord, error) {
	r := stream.NewReader(data)
	ti, err1 := readIndex(r)
	length, err2 := r.ReadU8()
	pos, err3 := r.ReadU8()
	if err := errs(err1, err2, err3); err != nil {
		return nil, malformed(LF_BITFIELD, err)
	}
	return &BitFieldRecord{Type: ti, Length: length, Position: pos}, nil
}

// ParseVTShape decodes LF_VTSHAPE. Descriptors are packed two per byte,
// low nibble first.
func ParseVTShape(data []byte) (*VTShapeRecord, error) {
	r := stream.NewReader(data)
	count, err := r.ReadU16()
	if err != nil {
		return nil, malformed(LF_VTSHAPE, err)
	}
	packed, err := r.ReadBytesRef((int(count) + 1) / 2)
	if err != nil {
		return nil, malformed(LF_VTSHAPE, err)
	}
	rec := &VTShapeRecord{Slots: make([]uint8, count)}
	for i := range rec.Slots {
		b := packed[i/2]
		if i%2 == 1 {
			b >>= 4
		}
		rec.Slots[i] = b & 0x0F
	}
	return rec, nil
}

// ParseMethodList decodes LF_METHODLIST.
func ParseMethodList(data []byte) ([]MethodListEntry, error) {
	r := stream.NewReader(data)
	var entries []MethodListEntry
	for r.Remaining() >= 8 {
		attrs, _ := r.ReadU16()
		_, _ = r.ReadU16()
		ti, _ := readIndex(r)
		e := MethodListEntry{Attrs: MemberAttributes(attrs), Type: ti}
		if e.Attrs.MethodKind().IsIntroducing() {
			off, err := r.ReadI32()
			if err != nil {
				return nil, malformed(LF_METHODLIST, err)
			}
			e.VFTableOffset = off
		}
		entries = append(entries, e)
	}
	return entries, nil
}
