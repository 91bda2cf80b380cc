package reconstruct

import (
	"github.com/skdltmxn/resym-go/internal/tpi"
	"github.com/skdltmxn/resym-go/pdb"
)

var portableNames = map[tpi.SimpleTypeKind]string{
	tpi.SimpleTypeNone:         "void",
	tpi.SimpleTypeVoid:         "void",
	tpi.SimpleTypeHResult:      "HRESULT",
	tpi.SimpleTypeSignedChar:   "int8_t",
	tpi.SimpleTypeUnsignedChar: "uint8_t",
	tpi.SimpleTypeNarrowChar:   "char",
	tpi.SimpleTypeWideChar:     "wchar_t",
	tpi.SimpleTypeChar16:       "char16_t",
	tpi.SimpleTypeChar32:       "char32_t",
	tpi.SimpleTypeChar8:        "char8_t",
	tpi.SimpleTypeSByte:        "int8_t",
	tpi.SimpleTypeByte:         "uint8_t",
	tpi.SimpleTypeInt16Short:   "int16_t",
	tpi.SimpleTypeUInt16Short:  "uint16_t",
	tpi.SimpleTypeInt16:        "int16_t",
	tpi.SimpleTypeUInt16:       "uint16_t",
	tpi.SimpleTypeInt32Long:    "int32_t",
	tpi.SimpleTypeUInt32Long:   "uint32_t",
	tpi.SimpleTypeInt32:        "int32_t",
	tpi.SimpleTypeUInt32:       "uint32_t",
	tpi.SimpleTypeInt64Quad:    "int64_t",
	tpi.SimpleTypeUInt64Quad:   "uint64_t",
	tpi.SimpleTypeInt64:        "int64_t",
	tpi.SimpleTypeUInt64:       "uint64_t",
	tpi.SimpleTypeInt128Oct:    "int128_t",
	tpi.SimpleTypeUInt128Oct:   "uint128_t",
	tpi.SimpleTypeInt128:       "int128_t",
	tpi.SimpleTypeUInt128:      "uint128_t",
	tpi.SimpleTypeFloat16:      "float16_t",
	tpi.SimpleTypeFloat32:      "float",
	tpi.SimpleTypeFloat32PP:    "float",
	tpi.SimpleTypeFloat48:      "float48_t",
	tpi.SimpleTypeFloat64:      "double",
	tpi.SimpleTypeFloat80:      "long double",
	tpi.SimpleTypeFloat128:     "float128_t",
	tpi.SimpleTypeBool8:        "bool",
	tpi.SimpleTypeBool16:       "bool16_t",
	tpi.SimpleTypeBool32:       "bool32_t",
	tpi.SimpleTypeBool64:       "bool64_t",
	tpi.SimpleTypeBool128:      "bool128_t",
}

var microsoftNames = map[tpi.SimpleTypeKind]string{
	tpi.SimpleTypeNone:         "VOID",
	tpi.SimpleTypeVoid:         "VOID",
	tpi.SimpleTypeHResult:      "HRESULT",
	tpi.SimpleTypeSignedChar:   "CHAR",
	tpi.SimpleTypeUnsignedChar: "UCHAR",
	tpi.SimpleTypeNarrowChar:   "CHAR",
	tpi.SimpleTypeWideChar:     "WCHAR",
	tpi.SimpleTypeChar16:       "char16_t",
	tpi.SimpleTypeChar32:       "char32_t",
	tpi.SimpleTypeChar8:        "char8_t",
	tpi.SimpleTypeSByte:        "CHAR",
	tpi.SimpleTypeByte:         "UCHAR",
	tpi.SimpleTypeInt16Short:   "SHORT",
	tpi.SimpleTypeUInt16Short:  "USHORT",
	tpi.SimpleTypeInt16:        "SHORT",
	tpi.SimpleTypeUInt16:       "USHORT",
	tpi.SimpleTypeInt32Long:    "LONG",
	tpi.SimpleTypeUInt32Long:   "ULONG",
	tpi.SimpleTypeInt32:        "INT",
	tpi.SimpleTypeUInt32:       "UINT",
	tpi.SimpleTypeInt64Quad:    "LONGLONG",
	tpi.SimpleTypeUInt64Quad:   "ULONGLONG",
	tpi.SimpleTypeInt64:        "LONGLONG",
	tpi.SimpleTypeUInt64:       "ULONGLONG",
	tpi.SimpleTypeInt128Oct:    "int128_t",
	tpi.SimpleTypeUInt128Oct:   "uint128_t",
	tpi.SimpleTypeInt128:       "int128_t",
	tpi.SimpleTypeUInt128:      "uint128_t",
	tpi.SimpleTypeFloat16:      "float16_t",
	tpi.SimpleTypeFloat32:      "FLOAT",
	tpi.SimpleTypeFloat32PP:    "FLOAT",
	tpi.SimpleTypeFloat48:      "float48_t",
	tpi.SimpleTypeFloat64:      "DOUBLE",
	tpi.SimpleTypeFloat80:      "long double",
	tpi.SimpleTypeFloat128:     "float128_t",
	tpi.SimpleTypeBool8:        "BOOLEAN",
	tpi.SimpleTypeBool16:       "bool16_t",
	tpi.SimpleTypeBool32:       "BOOL",
	tpi.SimpleTypeBool64:       "bool64_t",
	tpi.SimpleTypeBool128:      "bool128_t",
}

var msvcNames = map[tpi.SimpleTypeKind]string{
	tpi.SimpleTypeNone:         "void",
	tpi.SimpleTypeVoid:         "void",
	tpi.SimpleTypeHResult:      "HRESULT",
	tpi.SimpleTypeSignedChar:   "signed char",
	tpi.SimpleTypeUnsignedChar: "unsigned char",
	tpi.SimpleTypeNarrowChar:   "char",
	tpi.SimpleTypeWideChar:     "wchar_t",
	tpi.SimpleTypeChar16:       "char16_t",
	tpi.SimpleTypeChar32:       "char32_t",
	tpi.SimpleTypeChar8:        "char8_t",
	tpi.SimpleTypeSByte:        "__int8",
	tpi.SimpleTypeByte:         "unsigned __int8",
	tpi.SimpleTypeInt16Short:   "short",
	tpi.SimpleTypeUInt16Short:  "unsigned short",
	tpi.SimpleTypeInt16:        "__int16",
	tpi.SimpleTypeUInt16:       "unsigned __int16",
	tpi.SimpleTypeInt32Long:    "long",
	tpi.SimpleTypeUInt32Long:   "unsigned long",
	tpi.SimpleTypeInt32:        "int",
	tpi.SimpleTypeUInt32:       "unsigned int",
	tpi.SimpleTypeInt64Quad:    "__int64",
	tpi.SimpleTypeUInt64Quad:   "unsigned __int64",
	tpi.SimpleTypeInt64:        "__int64",
	tpi.SimpleTypeUInt64:       "unsigned __int64",
	tpi.SimpleTypeInt128Oct:    "__int128",
	tpi.SimpleTypeUInt128Oct:   "unsigned __int128",
	tpi.SimpleTypeInt128:       "__int128",
	tpi.SimpleTypeUInt128:      "unsigned __int128",
	tpi.SimpleTypeFloat16:      "_Float16",
	tpi.SimpleTypeFloat32:      "float",
	tpi.SimpleTypeFloat32PP:    "float",
	tpi.SimpleTypeFloat48:      "float48_t",
	tpi.SimpleTypeFloat64:      "double",
	tpi.SimpleTypeFloat80:      "long double",
	tpi.SimpleTypeFloat128:     "float128_t",
	tpi.SimpleTypeBool8:        "bool",
	tpi.SimpleTypeBool16:       "bool16_t",
	tpi.SimpleTypeBool32:       "bool32_t",
	tpi.SimpleTypeBool64:       "bool64_t",
	tpi.SimpleTypeBool128:      "bool128_t",
}

// primitiveName spells the value type of p. Kinds without an entry in
// the flavor's table fall back to the raw name.
func primitiveName(p *pdb.Primitive, flavor PrimitiveFlavor) string {
	var table map[tpi.SimpleTypeKind]string
	switch flavor {
	case Portable:
		table = portableNames
	case Microsoft:
		table = microsoftNames
	case Msvc:
		table = msvcNames
	default:
		return p.RawName()
	}
	if name, ok := table[p.Kind]; ok {
		return name
	}
	return p.RawName()
}
