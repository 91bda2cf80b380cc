package pdb

import (
	"fmt"

	"github.com/skdltmxn/resym-go/internal/tpi"
)

type primitiveInfo struct {
	name string
	size int
}

var primitives = map[tpi.SimpleTypeKind]primitiveInfo{
	tpi.SimpleTypeNone:          {"NoType", 0},
	tpi.SimpleTypeVoid:          {"Void", 0},
	tpi.SimpleTypeNotTranslated: {"NotTranslated", 0},
	tpi.SimpleTypeHResult:       {"HRESULT", 4},
	tpi.SimpleTypeSignedChar:    {"Char", 1},
	tpi.SimpleTypeUnsignedChar:  {"UChar", 1},
	tpi.SimpleTypeNarrowChar:    {"RChar", 1},
	tpi.SimpleTypeWideChar:      {"WChar", 2},
	tpi.SimpleTypeChar16:        {"RChar16", 2},
	tpi.SimpleTypeChar32:        {"RChar32", 4},
	tpi.SimpleTypeChar8:         {"Char8", 1},
	tpi.SimpleTypeSByte:         {"I8", 1},
	tpi.SimpleTypeByte:          {"U8", 1},
	tpi.SimpleTypeInt16Short:    {"Short", 2},
	tpi.SimpleTypeUInt16Short:   {"UShort", 2},
	tpi.SimpleTypeInt16:         {"I16", 2},
	tpi.SimpleTypeUInt16:        {"U16", 2},
	tpi.SimpleTypeInt32Long:     {"Long", 4},
	tpi.SimpleTypeUInt32Long:    {"ULong", 4},
	tpi.SimpleTypeInt32:         {"I32", 4},
	tpi.SimpleTypeUInt32:        {"U32", 4},
	tpi.SimpleTypeInt64Quad:     {"Quad", 8},
	tpi.SimpleTypeUInt64Quad:    {"UQuad", 8},
	tpi.SimpleTypeInt64:         {"I64", 8},
	tpi.SimpleTypeUInt64:        {"U64", 8},
	tpi.SimpleTypeInt128Oct:     {"Octa", 16},
	tpi.SimpleTypeUInt128Oct:    {"UOcta", 16},
	tpi.SimpleTypeInt128:        {"I128", 16},
	tpi.SimpleTypeUInt128:       {"U128", 16},
	tpi.SimpleTypeFloat16:       {"F16", 2},
	tpi.SimpleTypeFloat32:       {"F32", 4},
	tpi.SimpleTypeFloat32PP:     {"F32PP", 4},
	tpi.SimpleTypeFloat48:       {"F48", 6},
	tpi.SimpleTypeFloat64:       {"F64", 8},
	tpi.SimpleTypeFloat80:       {"F80", 10},
	tpi.SimpleTypeFloat128:      {"F128", 16},
	tpi.SimpleTypeComplex32:     {"Complex32", 8},
	tpi.SimpleTypeComplex64:     {"Complex64", 16},
	tpi.SimpleTypeComplex80:     {"Complex80", 20},
	tpi.SimpleTypeComplex128:    {"Complex128", 32},
	tpi.SimpleTypeBool8:         {"Bool8", 1},
	tpi.SimpleTypeBool16:        {"Bool16", 2},
	tpi.SimpleTypeBool32:        {"Bool32", 4},
	tpi.SimpleTypeBool64:        {"Bool64", 8},
	tpi.SimpleTypeBool128:       {"Bool128", 16},
}

// primitiveFor synthesizes the record for a built-in index.
func primitiveFor(ti TypeIndex) *Primitive {
	return &Primitive{
		header:      header{index: ti},
		Kind:        ti.SimpleKind(),
		Indirection: ti.SimpleMode().PointerSize(),
	}
}

// RawName returns the decoder's name for the kind, e.g. "I32" or "UQuad".
func (p *Primitive) RawName() string {
	if info, ok := primitives[p.Kind]; ok {
		return info.name
	}
	return fmt.Sprintf("Unknown%#02x", uint8(p.Kind))
}

// ValueSize returns the size of the built-in value type, ignoring any
// built-in pointer.
func (p *Primitive) ValueSize() int {
	return primitives[p.Kind].size
}

// Size returns the storage size: the pointer width for built-in pointers
// and the value size otherwise.
func (p *Primitive) Size() int {
	if p.Indirection > 0 {
		return p.Indirection
	}
	return p.ValueSize()
}

// IsVoid reports whether the value type is void.
func (p *Primitive) IsVoid() bool {
	return p.Kind == tpi.SimpleTypeVoid || p.Kind == tpi.SimpleTypeNone
}
