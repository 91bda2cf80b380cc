package pdb

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/resym-go/internal/tpi"
)

// decodeRecords turns framed records into typed records. A record whose
// payload is inconsistent becomes *Unknown and is reported; decoding of
// the remaining records continues.
func decodeRecords(raws []tpi.RawRecord) ([]TypeRecord, []*DecodeError) {
	records := make([]TypeRecord, len(raws))
	var problems []*DecodeError
	for i, raw := range raws {
		rec, err := decodeRecord(raw)
		if err != nil {
			kind := DecodeMalformed
			if errors.Is(err, errIncomplete) {
				kind = DecodeIncomplete
			}
			problems = append(problems, &DecodeError{Kind: kind, Index: raw.Index, Offset: raw.Offset, Err: err})
		}
		if rec == nil {
			rec = &Unknown{header: header{raw.Index}, Leaf: uint16(raw.Kind), Data: raw.Data, Err: err}
		}
		records[i] = rec
	}
	return records, problems
}

var errIncomplete = errors.New("unsupported field list entry")

// decodeRecord returns a nil record when the payload cannot be decoded.
// A non-nil record with a non-nil error is a partial decode.
func decodeRecord(raw tpi.RawRecord) (TypeRecord, error) {
	h := header{index: raw.Index}

	switch raw.Kind {
	case tpi.LF_MODIFIER:
		m, err := tpi.ParseModifier(raw.Data)
		if err != nil {
			return nil, err
		}
		return &Modifier{
			header:      h,
			Type:        m.Type,
			IsConst:     m.Options.IsConst(),
			IsVolatile:  m.Options.IsVolatile(),
			IsUnaligned: m.Options.IsUnaligned(),
		}, nil

	case tpi.LF_POINTER:
		p, err := tpi.ParsePointer(raw.Data)
		if err != nil {
			return nil, err
		}
		return &Pointer{
			header:          h,
			Referent:        p.Referent,
			Mode:            p.Attrs.Mode(),
			Size:            int(p.Attrs.Size()),
			IsConst:         p.Attrs.IsConst(),
			IsVolatile:      p.Attrs.IsVolatile(),
			IsUnaligned:     p.Attrs.IsUnaligned(),
			IsRestrict:      p.Attrs.IsRestrict(),
			ContainingClass: p.ContainingClass,
		}, nil

	case tpi.LF_ARRAY, tpi.LF_ARRAY_ST:
		a, err := tpi.ParseArray(raw.Kind, raw.Data)
		if err != nil {
			return nil, err
		}
		return &Array{header: h, Element: a.ElementType, IndexType: a.IndexType, Size: a.Size, Name: a.Name}, nil

	case tpi.LF_CLASS, tpi.LF_STRUCTURE, tpi.LF_INTERFACE, tpi.LF_UNION,
		tpi.LF_CLASS_ST, tpi.LF_STRUCTURE_ST, tpi.LF_UNION_ST:
		c, err := tpi.ParseClass(raw.Kind, raw.Data)
		if err != nil {
			return nil, err
		}
		return &Aggregate{
			header:     h,
			Kind:       aggregateKind(raw.Kind),
			Name:       c.Name,
			UniqueName: c.UniqueName,
			Size:       c.Size,
			FieldList:  c.FieldList,
			Derived:    c.Derived,
			VShape:     c.VShape,
			Count:      int(c.Count),
			IsForward:  c.Props.IsForwardRef(),
			IsPacked:   c.Props.IsPacked(),
			IsNested:   c.Props.IsNested(),
			IsScoped:   c.Props.IsScoped(),
		}, nil

	case tpi.LF_ENUM, tpi.LF_ENUM_ST:
		e, err := tpi.ParseEnum(raw.Kind, raw.Data)
		if err != nil {
			return nil, err
		}
		return &Enum{
			header:     h,
			Name:       e.Name,
			UniqueName: e.UniqueName,
			Underlying: e.UnderlyingType,
			FieldList:  e.FieldList,
			Count:      int(e.Count),
			IsForward:  e.Props.IsForwardRef(),
			IsScoped:   e.Props.IsScoped(),
			IsNested:   e.Props.IsNested(),
		}, nil

	case tpi.LF_BITFIELD:
		b, err := tpi.ParseBitField(raw.Data)
		if err != nil {
			return nil, err
		}
		return &Bitfield{header: h, Type: b.Type, Length: b.Length, Position: b.Position}, nil

	case tpi.LF_PROCEDURE:
		p, err := tpi.ParseProcedure(raw.Data)
		if err != nil {
			return nil, err
		}
		return &Procedure{
			header:            h,
			ReturnType:        p.ReturnType,
			CallingConvention: p.CallConv,
			ArgList:           p.ArgList,
			ParamCount:        int(p.ParamCount),
			IsConstructor:     p.Options.IsConstructor(),
		}, nil

	case tpi.LF_MFUNCTION:
		m, err := tpi.ParseMFunction(raw.Data)
		if err != nil {
			return nil, err
		}
		return &MemberFunction{
			header:            h,
			ReturnType:        m.ReturnType,
			Class:             m.Class,
			This:              m.This,
			CallingConvention: m.CallConv,
			ArgList:           m.ArgList,
			ParamCount:        int(m.ParamCount),
			ThisAdjust:        m.ThisAdjust,
			IsConstructor:     m.Options.IsConstructor(),
		}, nil

	case tpi.LF_ARGLIST:
		a, err := tpi.ParseArgList(raw.Data)
		if err != nil {
			return nil, err
		}
		return &ArgList{header: h, Args: a.Args}, nil

	case tpi.LF_VTSHAPE:
		v, err := tpi.ParseVTShape(raw.Data)
		if err != nil {
			return nil, err
		}
		return &VTableShape{header: h, Slots: len(v.Slots)}, nil

	case tpi.LF_METHODLIST:
		entries, err := tpi.ParseMethodList(raw.Data)
		if err != nil {
			return nil, err
		}
		ml := &MethodList{header: h, Methods: make([]Method, len(entries))}
		for i, e := range entries {
			ml.Methods[i] = Method{
				Type:                e.Type,
				Access:              e.Attrs.Access(),
				Kind:                e.Attrs.MethodKind(),
				VFTableOffset:       e.VFTableOffset,
				IsCompilerGenerated: e.Attrs.IsCompilerGenerated(),
			}
		}
		return ml, nil

	case tpi.LF_FIELDLIST:
		return decodeFieldList(h, raw.Data)
	}

	return &Unknown{header: h, Leaf: uint16(raw.Kind), Data: raw.Data}, nil
}

func aggregateKind(kind tpi.LeafKind) AggregateKind {
	switch kind {
	case tpi.LF_CLASS, tpi.LF_CLASS_ST:
		return KindClass
	case tpi.LF_UNION, tpi.LF_UNION_ST:
		return KindUnion
	case tpi.LF_INTERFACE:
		return KindInterface
	default:
		return KindStruct
	}
}

func decodeFieldList(h header, data []byte) (TypeRecord, error) {
	raw, err := tpi.ParseFieldList(data)
	if err != nil {
		return nil, err
	}

	fl := &FieldList{header: h, Continuation: raw.Continuation, HasVFPtr: len(raw.VFuncTabs) > 0}
	for _, m := range raw.Members {
		fl.Members = append(fl.Members, Member{
			Name:     m.Name,
			Type:     m.Type,
			Offset:   m.Offset,
			Access:   m.Attrs.Access(),
			IsStatic: m.IsStatic,
		})
	}
	for _, b := range raw.Bases {
		fl.Bases = append(fl.Bases, BaseClass{
			Type:         b.Type,
			Offset:       b.Offset,
			Access:       b.Attrs.Access(),
			IsVirtual:    b.IsVirtual,
			IsIndirect:   b.IsIndirect,
			VBPtrOffset:  b.VBPtrOffset,
			VBTableIndex: b.VBTableIndex,
		})
	}
	for _, e := range raw.Enumerates {
		fl.Enumerators = append(fl.Enumerators, Enumerator{Name: e.Name, Value: e.Value})
	}
	for _, m := range raw.Methods {
		fl.Methods = append(fl.Methods, Method{
			Name:                m.Name,
			Type:                m.Type,
			Access:              m.Attrs.Access(),
			Kind:                m.Attrs.MethodKind(),
			VFTableOffset:       m.VFTableOffset,
			IsCompilerGenerated: m.Attrs.IsCompilerGenerated(),
		})
	}
	for _, g := range raw.MethodGroups {
		fl.groups = append(fl.groups, methodGroup{name: g.Name, list: g.MethodList, pos: g.Position})
	}
	for _, n := range raw.Nested {
		fl.Nested = append(fl.Nested, NestedType{Name: n.Name, Type: n.Type})
	}

	if len(raw.Unknown) > 0 {
		return fl, fmt.Errorf("%w %#04x", errIncomplete, uint16(raw.Unknown[0]))
	}
	return fl, nil
}
