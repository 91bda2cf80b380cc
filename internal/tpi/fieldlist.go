package tpi

import (
	"fmt"

	"github.com/skdltmxn/resym-go/internal/stream"
)

// MemberField is LF_MEMBER or LF_STMEMBER. Static members have no offset.
type MemberField struct {
	Attrs    MemberAttributes
	Type     TypeIndex
	Offset   uint64
	Name     string
	IsStatic bool
}

// BaseField is LF_BCLASS, LF_VBCLASS or LF_IVBCLASS. For virtual bases
// Offset is unused and VBPtrOffset/VBTableIndex locate the base instead.
type BaseField struct {
	Attrs        MemberAttributes
	Type         TypeIndex
	Offset       uint64
	IsVirtual    bool
	IsIndirect   bool
	VBPtrType    TypeIndex
	VBPtrOffset  uint64
	VBTableIndex uint64
}

// EnumerateField is LF_ENUMERATE.
type EnumerateField struct {
	Attrs MemberAttributes
	Value stream.Numeric
	Name  string
}

// MethodField is LF_ONEMETHOD; LF_METHOD groups point at a method list.
type MethodField struct {
	Attrs         MemberAttributes
	Type          TypeIndex
	VFTableOffset int32
	Name          string
}

// MethodGroupField is LF_METHOD. Position is the index in
// FieldList.Methods where the group's overloads belong.
type MethodGroupField struct {
	Count      uint16
	MethodList TypeIndex
	Name       string
	Position   int
}

// NestedTypeField is LF_NESTTYPE.
type NestedTypeField struct {
	Type TypeIndex
	Name string
}

// FieldList is a decoded LF_FIELDLIST. Each slice keeps declaration
// order. Continuation is the LF_INDEX target, or 0.
type FieldList struct {
	Members      []MemberField
	Bases        []BaseField
	Enumerates   []EnumerateField
	Methods      []MethodField
	MethodGroups []MethodGroupField
	Nested       []NestedTypeField
	VFuncTabs    []TypeIndex
	Continuation TypeIndex
	Unknown      []LeafKind
}

// ParseFieldList decodes the sub-records of an LF_FIELDLIST payload.
// An unknown sub-record kind stops decoding because its length cannot be
// known; the kinds seen so far are kept and the kind is listed in Unknown.
func ParseFieldList(data []byte) (*FieldList, error) {
	r := stream.NewReader(data)
	fl := &FieldList{}

	for {
		r.SkipPadding()
		if r.Remaining() < 2 {
			return fl, nil
		}
		raw, _ := r.ReadU16()
		kind := LeafKind(raw)
		legacy := kind.IsLegacy()

		if err := fl.parseEntry(r, kind, legacy); err != nil {
			return fl, fmt.Errorf("%w: field list entry %#04x at offset %d: %w", ErrMalformed, raw, r.Offset(), err)
		}
		if !kind.isFieldEntry() {
			return fl, nil
		}
	}
}

func (fl *FieldList) parseEntry(r *stream.Reader, kind LeafKind, legacy bool) error {
	switch kind {
	case LF_MEMBER, LF_MEMBER_ST:
		attrs, err1 := r.ReadU16()
		ti, err2 := readIndex(r)
		off, err3 := r.ReadNumeric()
		if err := errs(err1, err2, err3); err != nil {
			return err
		}
		name, err := readName(r, legacy)
		if err != nil {
			return err
		}
		fl.Members = append(fl.Members, MemberField{Attrs: MemberAttributes(attrs), Type: ti, Offset: off.Uint(), Name: name})

	case LF_STMEMBER, LF_STMEMBER_ST:
		attrs, err1 := r.ReadU16()
		ti, err2 := readIndex(r)
		name, err3 := readName(r, legacy)
		if err := errs(err1, err2, err3); err != nil {
			return err
		}
		fl.Members = append(fl.Members, MemberField{Attrs: MemberAttributes(attrs), Type: ti, Name: name, IsStatic: true})

	case LF_BCLASS:
		attrs, err1 := r.ReadU16()
		ti, err2 := readIndex(r)
		off, err3 := r.ReadNumeric()
		if err := errs(err1, err2, err3); err != nil {
			return err
		}
		fl.Bases = append(fl.Bases, BaseField{Attrs: MemberAttributes(attrs), Type: ti, Offset: off.Uint()})

	case LF_VBCLASS, LF_IVBCLASS:
		attrs, err1 := r.ReadU16()
		ti, err2 := readIndex(r)
		vbptr, err3 := readIndex(r)
		vbpOff, err4 := r.ReadNumeric()
		vbIndex, err5 := r.ReadNumeric()
		if err := errs(err1, err2, err3, err4, err5); err != nil {
			return err
		}
		fl.Bases = append(fl.Bases, BaseField{
			Attrs:        MemberAttributes(attrs),
			Type:         ti,
			IsVirtual:    true,
			IsIndirect:   kind == LF_IVBCLASS,
			VBPtrType:    vbptr,
			VBPtrOffset:  vbpOff.Uint(),
			VBTableIndex: vbIndex.Uint(),
		})

	case LF_ENUMERATE, LF_ENUMERATE_ST:
		attrs, err1 := r.ReadU16()
		val, err2 := r.ReadNumeric()
		name, err3 := readName(r, legacy)
		if err := errs(err1, err2, err3); err != nil {
			return err
		}
		fl.Enumerates = append(fl.Enumerates, EnumerateField{Attrs: MemberAttributes(attrs), Value: val, Name: name})

	case LF_ONEMETHOD, LF_ONEMETHOD_ST:
		attrs, err1 := r.ReadU16()
		ti, err2 := readIndex(r)
		if err := errs(err1, err2); err != nil {
			return err
		}
		m := MethodField{Attrs: MemberAttributes(attrs), Type: ti}
		if m.Attrs.MethodKind().IsIntroducing() {
			off, err := r.ReadI32()
			if err != nil {
				return err
			}
			m.VFTableOffset = off
		}
		name, err := readName(r, legacy)
		if err != nil {
			return err
		}
		m.Name = name
		fl.Methods = append(fl.Methods, m)

	case LF_METHOD, LF_METHOD_ST:
		count, err1 := r.ReadU16()
		list, err2 := readIndex(r)
		name, err3 := readName(r, legacy)
		if err := errs(err1, err2, err3); err != nil {
			return err
		}
		fl.MethodGroups = append(fl.MethodGroups, MethodGroupField{Count: count, MethodList: list, Name: name, Position: len(fl.Methods)})

	case LF_NESTTYPE, LF_NESTTYPE_ST:
		_, err1 := r.ReadU16()
		ti, err2 := readIndex(r)
		name, err3 := readName(r, legacy)
		if err := errs(err1, err2, err3); err != nil {
			return err
		}
		fl.Nested = append(fl.Nested, NestedTypeField{Type: ti, Name: name})

	case LF_NESTTYPEEX:
		_, err1 := r.ReadU16()
		ti, err2 := readIndex(r)
		name, err3 := r.ReadCString()
		if err := errs(err1, err2, err3); err != nil {
			return err
		}
		fl.Nested = append(fl.Nested, NestedTypeField{Type: ti, Name: name})

	case LF_VFUNCTAB:
		_, err1 := r.ReadU16()
		ti, err2 := readIndex(r)
		if err := errs(err1, err2); err != nil {
			return err
		}
		fl.VFuncTabs = append(fl.VFuncTabs, ti)

	case LF_INDEX:
		_, err1 := r.ReadU16()
		ti, err2 := readIndex(r)
		if err := errs(err1, err2); err != nil {
			return err
		}
		fl.Continuation = ti

	case LF_FRIENDCLS:
		_, err1 := r.ReadU16()
		_, err2 := readIndex(r)
		return errs(err1, err2)

	case LF_FRIENDFCN, LF_FRIENDFCN_ST:
		_, err1 := r.ReadU16()
		_, err2 := readIndex(r)
		_, err3 := readName(r, legacy)
		return errs(err1, err2, err3)

	case LF_VFUNCOFF:
		_, err1 := r.ReadU16()
		_, err2 := readIndex(r)
		_, err3 := r.ReadU32()
		return errs(err1, err2, err3)

	default:
		fl.Unknown = append(fl.Unknown, kind)
	}
	return nil
}

func (k LeafKind) isFieldEntry() bool {
	switch k {
	case LF_MEMBER, LF_MEMBER_ST, LF_STMEMBER, LF_STMEMBER_ST, LF_BCLASS,
		LF_VBCLASS, LF_IVBCLASS, LF_ENUMERATE, LF_ENUMERATE_ST, LF_ONEMETHOD,
		LF_ONEMETHOD_ST, LF_METHOD, LF_METHOD_ST, LF_NESTTYPE, LF_NESTTYPE_ST,
		LF_NESTTYPEEX, LF_VFUNCTAB, LF_INDEX, LF_FRIENDCLS, LF_FRIENDFCN,
		LF_FRIENDFCN_ST, LF_VFUNCOFF:
		return true
	}
	return false
}
