package pdbtest

import "github.com/skdltmxn/resym-go/internal/tpi"

// Types appends TPI records and hands out their indices in order.
type Types struct {
	next    tpi.TypeIndex
	records []byte
	Version uint32
}

// NewTypes returns an empty builder whose first record gets index 0x1000.
func NewTypes() *Types {
	return &Types{next: tpi.FirstUserTypeIndex, Version: tpi.VersionV80}
}

// Next returns the index the next record will receive.
func (t *Types) Next() tpi.TypeIndex { return t.next }

// Add frames payload as a record of the given kind.
func (t *Types) Add(kind tpi.LeafKind, payload []byte) tpi.TypeIndex {
	p := (&Buffer{}).Raw(payload).Pad()
	rec := (&Buffer{}).U16(uint16(2 + p.Len())).U16(uint16(kind)).Raw(p.Bytes())
	t.records = append(t.records, rec.Bytes()...)
	ti := t.next
	t.next++
	return ti
}

// AppendRaw appends bytes to the record area without framing them.
func (t *Types) AppendRaw(b []byte) {
	t.records = append(t.records, b...)
}

// Stream returns the TPI stream: header followed by the records.
func (t *Types) Stream() []byte {
	h := &Buffer{}
	h.U32(t.Version).U32(tpi.HeaderSize)
	h.U32(uint32(tpi.FirstUserTypeIndex)).U32(uint32(t.next))
	h.U32(uint32(len(t.records)))
	h.U16(0xFFFF).U16(0xFFFF)
	h.U32(4).U32(0x3FFFF)
	for range 6 {
		h.U32(0)
	}
	return h.Raw(t.records).Bytes()
}

// Modifier adds LF_MODIFIER.
func (t *Types) Modifier(ti tpi.TypeIndex, isConst, isVolatile bool) tpi.TypeIndex {
	var opts uint16
	if isConst {
		opts |= 1
	}
	if isVolatile {
		opts |= 2
	}
	return t.Add(tpi.LF_MODIFIER, (&Buffer{}).U32(uint32(ti)).U16(opts).Bytes())
}

// PointerAttrs composes an LF_POINTER attribute word.
func PointerAttrs(size int, mode tpi.PointerMode, isConst bool) tpi.PointerAttributes {
	kind := uint32(0x0a)
	if size == 8 {
		kind = 0x0c
	}
	attrs := kind | uint32(mode)<<5 | uint32(size)<<13
	if isConst {
		attrs |= 0x400
	}
	return tpi.PointerAttributes(attrs)
}

// Pointer adds a plain 64-bit pointer to ti.
func (t *Types) Pointer(ti tpi.TypeIndex) tpi.TypeIndex {
	return t.PointerEx(ti, PointerAttrs(8, tpi.PointerModePointer, false), 0)
}

// Reference adds a 64-bit lvalue reference to ti.
func (t *Types) Reference(ti tpi.TypeIndex) tpi.TypeIndex {
	return t.PointerEx(ti, PointerAttrs(8, tpi.PointerModeLValueReference, false), 0)
}

// PointerEx adds LF_POINTER with explicit attributes. containing is
// written only for member pointer modes.
func (t *Types) PointerEx(ti tpi.TypeIndex, attrs tpi.PointerAttributes, containing tpi.TypeIndex) tpi.TypeIndex {
	b := (&Buffer{}).U32(uint32(ti)).U32(uint32(attrs))
	if attrs.IsMemberPtr() {
		b.U32(uint32(containing)).U16(0)
	}
	return t.Add(tpi.LF_POINTER, b.Bytes())
}

// Array adds LF_ARRAY; size is the total byte size.
func (t *Types) Array(elem tpi.TypeIndex, size uint64) tpi.TypeIndex {
	b := (&Buffer{}).U32(uint32(elem)).U32(uint32(tpi.SimpleTypeUInt64)).Unsigned(size).CString("")
	return t.Add(tpi.LF_ARRAY, b.Bytes())
}

// Bitfield adds LF_BITFIELD.
func (t *Types) Bitfield(ti tpi.TypeIndex, length, position uint8) tpi.TypeIndex {
	return t.Add(tpi.LF_BITFIELD, (&Buffer{}).U32(uint32(ti)).U8(length).U8(position).Bytes())
}

// ArgList adds LF_ARGLIST.
func (t *Types) ArgList(args ...tpi.TypeIndex) tpi.TypeIndex {
	b := (&Buffer{}).U32(uint32(len(args)))
	for _, a := range args {
		b.U32(uint32(a))
	}
	return t.Add(tpi.LF_ARGLIST, b.Bytes())
}

// Procedure adds an argument list and an LF_PROCEDURE using it.
func (t *Types) Procedure(ret tpi.TypeIndex, cc tpi.CallingConvention, params ...tpi.TypeIndex) tpi.TypeIndex {
	args := t.ArgList(params...)
	b := (&Buffer{}).U32(uint32(ret)).U8(uint8(cc)).U8(0).U16(uint16(len(params))).U32(uint32(args))
	return t.Add(tpi.LF_PROCEDURE, b.Bytes())
}

// MemberFunction adds an argument list and an LF_MFUNCTION using it.
// this is 0 for static methods.
func (t *Types) MemberFunction(ret, class, this tpi.TypeIndex, opts tpi.FunctionOptions, params ...tpi.TypeIndex) tpi.TypeIndex {
	args := t.ArgList(params...)
	b := (&Buffer{}).U32(uint32(ret)).U32(uint32(class)).U32(uint32(this))
	b.U8(uint8(tpi.CallingConvThisCall)).U8(uint8(opts)).U16(uint16(len(params))).U32(uint32(args)).U32(0)
	return t.Add(tpi.LF_MFUNCTION, b.Bytes())
}

// VTShape adds LF_VTSHAPE with n near-pointer slots.
func (t *Types) VTShape(n int) tpi.TypeIndex {
	b := (&Buffer{}).U16(uint16(n))
	for i := 0; i < n; i += 2 {
		b.U8(0)
	}
	return t.Add(tpi.LF_VTSHAPE, b.Bytes())
}

// MethodList adds LF_METHODLIST.
func (t *Types) MethodList(entries ...tpi.MethodListEntry) tpi.TypeIndex {
	b := &Buffer{}
	for _, e := range entries {
		b.U16(uint16(e.Attrs)).U16(0).U32(uint32(e.Type))
		if e.Attrs.MethodKind().IsIntroducing() {
			b.U32(uint32(e.VFTableOffset))
		}
	}
	return t.Add(tpi.LF_METHODLIST, b.Bytes())
}

// Class describes an aggregate record.
type Class struct {
	Kind       tpi.LeafKind
	Name       string
	UniqueName string
	Size       uint64
	FieldList  tpi.TypeIndex
	Count      uint16
	Derived    tpi.TypeIndex
	VShape     tpi.TypeIndex
	Props      tpi.ClassProperties
	Forward    bool
}

// Class adds a class, structure, interface or union record. Kind
// defaults to LF_STRUCTURE.
func (t *Types) Class(c Class) tpi.TypeIndex {
	if c.Kind == 0 {
		c.Kind = tpi.LF_STRUCTURE
	}
	props := uint16(c.Props)
	if c.Forward {
		props |= 0x80
	}
	if c.UniqueName != "" {
		props |= 0x200
	}
	b := (&Buffer{}).U16(c.Count).U16(props).U32(uint32(c.FieldList))
	if c.Kind != tpi.LF_UNION {
		b.U32(uint32(c.Derived)).U32(uint32(c.VShape))
	}
	b.Unsigned(c.Size).CString(c.Name)
	if c.UniqueName != "" {
		b.CString(c.UniqueName)
	}
	return t.Add(c.Kind, b.Bytes())
}

// Enum describes an LF_ENUM record.
type Enum struct {
	Name       string
	UniqueName string
	Underlying tpi.TypeIndex
	FieldList  tpi.TypeIndex
	Count      uint16
	Scoped     bool
	Forward    bool
}

// Enum adds LF_ENUM.
func (t *Types) Enum(e Enum) tpi.TypeIndex {
	var props uint16
	if e.Forward {
		props |= 0x80
	}
	if e.Scoped {
		props |= 0x100
	}
	if e.UniqueName != "" {
		props |= 0x200
	}
	b := (&Buffer{}).U16(e.Count).U16(props).U32(uint32(e.Underlying)).U32(uint32(e.FieldList)).CString(e.Name)
	if e.UniqueName != "" {
		b.CString(e.UniqueName)
	}
	return t.Add(tpi.LF_ENUM, b.Bytes())
}

// Field encodes one field-list entry.
type Field func(*Buffer)

// Attrs composes member attributes.
func Attrs(access tpi.MemberAccess, kind tpi.MethodKind) tpi.MemberAttributes {
	return tpi.MemberAttributes(uint16(access) | uint16(kind)<<2)
}

// FieldList adds LF_FIELDLIST.
func (t *Types) FieldList(fields ...Field) tpi.TypeIndex {
	b := &Buffer{}
	for _, f := range fields {
		f(b)
		b.Pad()
	}
	return t.Add(tpi.LF_FIELDLIST, b.Bytes())
}

// Member encodes LF_MEMBER.
func Member(access tpi.MemberAccess, ti tpi.TypeIndex, offset uint64, name string) Field {
	return func(b *Buffer) {
		b.U16(uint16(tpi.LF_MEMBER)).U16(uint16(access)).U32(uint32(ti)).Unsigned(offset).CString(name)
	}
}

// StaticMember encodes LF_STMEMBER.
func StaticMember(access tpi.MemberAccess, ti tpi.TypeIndex, name string) Field {
	return func(b *Buffer) {
		b.U16(uint16(tpi.LF_STMEMBER)).U16(uint16(access)).U32(uint32(ti)).CString(name)
	}
}

// Base encodes LF_BCLASS.
func Base(access tpi.MemberAccess, ti tpi.TypeIndex, offset uint64) Field {
	return func(b *Buffer) {
		b.U16(uint16(tpi.LF_BCLASS)).U16(uint16(access)).U32(uint32(ti)).Unsigned(offset)
	}
}

// VirtualBase encodes LF_VBCLASS.
func VirtualBase(access tpi.MemberAccess, ti, vbptr tpi.TypeIndex, vbptrOffset, vbIndex uint64) Field {
	return func(b *Buffer) {
		b.U16(uint16(tpi.LF_VBCLASS)).U16(uint16(access)).U32(uint32(ti)).U32(uint32(vbptr))
		b.Unsigned(vbptrOffset).Unsigned(vbIndex)
	}
}

// Enumerate encodes LF_ENUMERATE.
func Enumerate(name string, value int64) Field {
	return func(b *Buffer) {
		b.U16(uint16(tpi.LF_ENUMERATE)).U16(uint16(tpi.MemberAccessPublic)).Signed(value).CString(name)
	}
}

// OneMethod encodes LF_ONEMETHOD. vftOffset is written only for
// introducing virtual methods.
func OneMethod(attrs tpi.MemberAttributes, ti tpi.TypeIndex, vftOffset int32, name string) Field {
	return func(b *Buffer) {
		b.U16(uint16(tpi.LF_ONEMETHOD)).U16(uint16(attrs)).U32(uint32(ti))
		if attrs.MethodKind().IsIntroducing() {
			b.U32(uint32(vftOffset))
		}
		b.CString(name)
	}
}

// Method encodes LF_METHOD.
func Method(count uint16, list tpi.TypeIndex, name string) Field {
	return func(b *Buffer) {
		b.U16(uint16(tpi.LF_METHOD)).U16(count).U32(uint32(list)).CString(name)
	}
}

// NestType encodes LF_NESTTYPE.
func NestType(ti tpi.TypeIndex, name string) Field {
	return func(b *Buffer) {
		b.U16(uint16(tpi.LF_NESTTYPE)).U16(0).U32(uint32(ti)).CString(name)
	}
}

// VFuncTab encodes LF_VFUNCTAB.
func VFuncTab(ti tpi.TypeIndex) Field {
	return func(b *Buffer) {
		b.U16(uint16(tpi.LF_VFUNCTAB)).U16(0).U32(uint32(ti))
	}
}

// Continue encodes LF_INDEX.
func Continue(ti tpi.TypeIndex) Field {
	return func(b *Buffer) {
		b.U16(uint16(tpi.LF_INDEX)).U16(0).U32(uint32(ti))
	}
}
