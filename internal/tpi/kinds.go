// Package tpi decodes the TPI (type information) stream: its header, the
// length-prefixed record framing and the payload of each leaf kind.
package tpi

// TypeIndex references a type. Indices below FirstUserTypeIndex encode
// built-in types directly; the rest name records in the TPI stream.
type TypeIndex uint32

// FirstUserTypeIndex is the first index backed by a record.
const FirstUserTypeIndex TypeIndex = 0x1000

// IsSimpleType reports whether ti encodes a built-in type.
func (ti TypeIndex) IsSimpleType() bool {
	return ti < FirstUserTypeIndex
}

// SimpleKind extracts the built-in kind (bits 0-7).
func (ti TypeIndex) SimpleKind() SimpleTypeKind {
	return SimpleTypeKind(ti & 0xFF)
}

// SimpleMode extracts the built-in pointer mode (bits 8-11).
func (ti TypeIndex) SimpleMode() SimpleTypeMode {
	return SimpleTypeMode((ti >> 8) & 0x0F)
}

// SimpleTypeKind identifies built-in types.
type SimpleTypeKind uint8

const (
	SimpleTypeNone          SimpleTypeKind = 0x00
	SimpleTypeVoid          SimpleTypeKind = 0x03
	SimpleTypeNotTranslated SimpleTypeKind = 0x07
	SimpleTypeHResult       SimpleTypeKind = 0x08
	SimpleTypeSignedChar    SimpleTypeKind = 0x10
	SimpleTypeUnsignedChar  SimpleTypeKind = 0x20
	SimpleTypeNarrowChar    SimpleTypeKind = 0x70
	SimpleTypeWideChar      SimpleTypeKind = 0x71
	SimpleTypeChar16        SimpleTypeKind = 0x7a
	SimpleTypeChar32        SimpleTypeKind = 0x7b
	SimpleTypeChar8         SimpleTypeKind = 0x7c
	SimpleTypeSByte         SimpleTypeKind = 0x68
	SimpleTypeByte          SimpleTypeKind = 0x69
	SimpleTypeInt16Short    SimpleTypeKind = 0x11
	SimpleTypeUInt16Short   SimpleTypeKind = 0x21
	SimpleTypeInt16         SimpleTypeKind = 0x72
	SimpleTypeUInt16        SimpleTypeKind = 0x73
	SimpleTypeInt32Long     SimpleTypeKind = 0x12
	SimpleTypeUInt32Long    SimpleTypeKind = 0x22
	SimpleTypeInt32         SimpleTypeKind = 0x74
	SimpleTypeUInt32        SimpleTypeKind = 0x75
	SimpleTypeInt64Quad     SimpleTypeKind = 0x13
	SimpleTypeUInt64Quad    SimpleTypeKind = 0x23
	SimpleTypeInt64         SimpleTypeKind = 0x76
	SimpleTypeUInt64        SimpleTypeKind = 0x77
	SimpleTypeInt128Oct     SimpleTypeKind = 0x14
	SimpleTypeUInt128Oct    SimpleTypeKind = 0x24
	SimpleTypeInt128        SimpleTypeKind = 0x78
	SimpleTypeUInt128       SimpleTypeKind = 0x79
	SimpleTypeFloat16       SimpleTypeKind = 0x46
	SimpleTypeFloat32       SimpleTypeKind = 0x40
	SimpleTypeFloat32PP     SimpleTypeKind = 0x45
	SimpleTypeFloat48       SimpleTypeKind = 0x44
	SimpleTypeFloat64       SimpleTypeKind = 0x41
	SimpleTypeFloat80       SimpleTypeKind = 0x42
	SimpleTypeFloat128      SimpleTypeKind = 0x43
	SimpleTypeComplex32     SimpleTypeKind = 0x50
	SimpleTypeComplex64     SimpleTypeKind = 0x51
	SimpleTypeComplex80     SimpleTypeKind = 0x52
	SimpleTypeComplex128    SimpleTypeKind = 0x53
	SimpleTypeBool8         SimpleTypeKind = 0x30
	SimpleTypeBool16        SimpleTypeKind = 0x31
	SimpleTypeBool32        SimpleTypeKind = 0x32
	SimpleTypeBool64        SimpleTypeKind = 0x33
	SimpleTypeBool128       SimpleTypeKind = 0x34
)

// SimpleTypeMode is the pointer mode of a built-in type index.
type SimpleTypeMode uint8

const (
	SimpleModeDirect         SimpleTypeMode = 0x00
	SimpleModeNearPointer    SimpleTypeMode = 0x01
	SimpleModeFarPointer     SimpleTypeMode = 0x02
	SimpleModeHugePointer    SimpleTypeMode = 0x03
	SimpleModeNearPointer32  SimpleTypeMode = 0x04
	SimpleModeFarPointer32   SimpleTypeMode = 0x05
	SimpleModeNearPointer64  SimpleTypeMode = 0x06
	SimpleModeNearPointer128 SimpleTypeMode = 0x07
)

// PointerSize returns the width of a pointer in this mode, or 0 for
// SimpleModeDirect.
func (m SimpleTypeMode) PointerSize() int {
	switch m {
	case SimpleModeDirect:
		return 0
	case SimpleModeNearPointer:
		return 2
	case SimpleModeFarPointer, SimpleModeHugePointer, SimpleModeNearPointer32:
		return 4
	case SimpleModeFarPointer32:
		return 6
	case SimpleModeNearPointer64:
		return 8
	default:
		return 16
	}
}

// LeafKind identifies a type record or field-list sub-record.
type LeafKind uint16

const (
	LF_VTSHAPE      LeafKind = 0x000a
	LF_MODIFIER     LeafKind = 0x1001
	LF_POINTER      LeafKind = 0x1002
	LF_ARRAY_ST     LeafKind = 0x1003
	LF_CLASS_ST     LeafKind = 0x1004
	LF_STRUCTURE_ST LeafKind = 0x1005
	LF_UNION_ST     LeafKind = 0x1006
	LF_ENUM_ST      LeafKind = 0x1007
	LF_PROCEDURE    LeafKind = 0x1008
	LF_MFUNCTION    LeafKind = 0x1009
	LF_ARGLIST      LeafKind = 0x1201
	LF_FIELDLIST    LeafKind = 0x1203
	LF_BITFIELD     LeafKind = 0x1205
	LF_METHODLIST   LeafKind = 0x1206

	LF_BCLASS       LeafKind = 0x1400
	LF_VBCLASS      LeafKind = 0x1401
	LF_IVBCLASS     LeafKind = 0x1402
	LF_ENUMERATE_ST LeafKind = 0x0403
	LF_FRIENDFCN_ST LeafKind = 0x1403
	LF_INDEX        LeafKind = 0x1404
	LF_MEMBER_ST    LeafKind = 0x1405
	LF_STMEMBER_ST  LeafKind = 0x1406
	LF_METHOD_ST    LeafKind = 0x1407
	LF_NESTTYPE_ST  LeafKind = 0x1408
	LF_VFUNCTAB     LeafKind = 0x1409
	LF_FRIENDCLS    LeafKind = 0x140a
	LF_ONEMETHOD_ST LeafKind = 0x140b
	LF_VFUNCOFF     LeafKind = 0x140c

	LF_ENUMERATE  LeafKind = 0x1502
	LF_ARRAY      LeafKind = 0x1503
	LF_CLASS      LeafKind = 0x1504
	LF_STRUCTURE  LeafKind = 0x1505
	LF_UNION      LeafKind = 0x1506
	LF_ENUM       LeafKind = 0x1507
	LF_FRIENDFCN  LeafKind = 0x150c
	LF_MEMBER     LeafKind = 0x150d
	LF_STMEMBER   LeafKind = 0x150e
	LF_METHOD     LeafKind = 0x150f
	LF_NESTTYPE   LeafKind = 0x1510
	LF_ONEMETHOD  LeafKind = 0x1511
	LF_NESTTYPEEX LeafKind = 0x1512
	LF_INTERFACE  LeafKind = 0x1519
)

// IsLegacy reports whether the leaf stores names as length-prefixed
// strings (the _ST kinds written by VC 6 and earlier).
func (k LeafKind) IsLegacy() bool {
	switch k {
	case LF_ARRAY_ST, LF_CLASS_ST, LF_STRUCTURE_ST, LF_UNION_ST, LF_ENUM_ST,
		LF_ENUMERATE_ST, LF_MEMBER_ST, LF_STMEMBER_ST, LF_METHOD_ST,
		LF_NESTTYPE_ST, LF_ONEMETHOD_ST, LF_FRIENDFCN_ST:
		return true
	}
	return false
}

// CallingConvention is the CV_call_e calling convention of a function type.
type CallingConvention uint8

const (
	CallingConvNearC      CallingConvention = 0x00
	CallingConvFarC       CallingConvention = 0x01
	CallingConvNearPascal CallingConvention = 0x02
	CallingConvFarPascal  CallingConvention = 0x03
	CallingConvNearFast   CallingConvention = 0x04
	CallingConvFarFast    CallingConvention = 0x05
	CallingConvNearStd    CallingConvention = 0x07
	CallingConvFarStd     CallingConvention = 0x08
	CallingConvThisCall   CallingConvention = 0x0b
	CallingConvClrCall    CallingConvention = 0x16
	CallingConvNearVector CallingConvention = 0x18
)

func (cc CallingConvention) String() string {
	switch cc {
	case CallingConvNearC, CallingConvFarC:
		return "__cdecl"
	case CallingConvNearPascal, CallingConvFarPascal:
		return "__pascal"
	case CallingConvNearFast, CallingConvFarFast:
		return "__fastcall"
	case CallingConvNearStd, CallingConvFarStd:
		return "__stdcall"
	case CallingConvThisCall:
		return "__thiscall"
	case CallingConvClrCall:
		return "__clrcall"
	case CallingConvNearVector:
		return "__vectorcall"
	default:
		return ""
	}
}

// PointerMode distinguishes pointers, references and member pointers.
type PointerMode uint8

const (
	PointerModePointer                 PointerMode = 0x00
	PointerModeLValueReference         PointerMode = 0x01
	PointerModePointerToDataMember     PointerMode = 0x02
	PointerModePointerToMemberFunction PointerMode = 0x03
	PointerModeRValueReference         PointerMode = 0x04
)

// PointerAttributes is the LF_POINTER attribute word.
type PointerAttributes uint32

func (pa PointerAttributes) Kind() uint8       { return uint8(pa & 0x1F) }
func (pa PointerAttributes) Mode() PointerMode { return PointerMode((pa >> 5) & 0x07) }
func (pa PointerAttributes) IsVolatile() bool  { return pa&0x200 != 0 }
func (pa PointerAttributes) IsConst() bool     { return pa&0x400 != 0 }
func (pa PointerAttributes) IsUnaligned() bool { return pa&0x800 != 0 }
func (pa PointerAttributes) IsRestrict() bool  { return pa&0x1000 != 0 }
func (pa PointerAttributes) Size() uint8       { return uint8((pa >> 13) & 0xFF) }
func (pa PointerAttributes) IsMemberPtr() bool { return pa.Mode() == PointerModePointerToDataMember || pa.Mode() == PointerModePointerToMemberFunction }

// ClassProperties is the property word shared by classes, unions and enums.
type ClassProperties uint16

func (cp ClassProperties) IsPacked() bool      { return cp&0x0001 != 0 }
func (cp ClassProperties) HasCtor() bool       { return cp&0x0002 != 0 }
func (cp ClassProperties) IsNested() bool      { return cp&0x0008 != 0 }
func (cp ClassProperties) IsForwardRef() bool  { return cp&0x0080 != 0 }
func (cp ClassProperties) IsScoped() bool      { return cp&0x0100 != 0 }
func (cp ClassProperties) HasUniqueName() bool { return cp&0x0200 != 0 }
func (cp ClassProperties) IsSealed() bool      { return cp&0x0400 != 0 }

// MemberAccess is the access level stored in member attributes.
type MemberAccess uint8

const (
	MemberAccessNone      MemberAccess = 0
	MemberAccessPrivate   MemberAccess = 1
	MemberAccessProtected MemberAccess = 2
	MemberAccessPublic    MemberAccess = 3
)

func (ma MemberAccess) String() string {
	switch ma {
	case MemberAccessPrivate:
		return "private"
	case MemberAccessProtected:
		return "protected"
	case MemberAccessPublic:
		return "public"
	default:
		return ""
	}
}

// MethodKind is the mprop field of member attributes.
type MethodKind uint8

const (
	MethodKindVanilla      MethodKind = 0x00
	MethodKindVirtual      MethodKind = 0x01
	MethodKindStatic       MethodKind = 0x02
	MethodKindFriend       MethodKind = 0x03
	MethodKindIntroVirtual MethodKind = 0x04
	MethodKindPureVirtual  MethodKind = 0x05
	MethodKindPureIntro    MethodKind = 0x06
)

// IsIntroducing reports whether the method starts a new vtable slot, in
// which case its record carries a vtable offset.
func (k MethodKind) IsIntroducing() bool {
	return k == MethodKindIntroVirtual || k == MethodKindPureIntro
}

// IsVirtual reports whether the method occupies a vtable slot.
func (k MethodKind) IsVirtual() bool {
	return k == MethodKindVirtual || k == MethodKindPureVirtual || k.IsIntroducing()
}

// IsPure reports whether the method is pure virtual.
func (k MethodKind) IsPure() bool {
	return k == MethodKindPureVirtual || k == MethodKindPureIntro
}

// MemberAttributes is the CV_fldattr_t word on field-list entries.
type MemberAttributes uint16

func (ma MemberAttributes) Access() MemberAccess      { return MemberAccess(ma & 0x03) }
func (ma MemberAttributes) MethodKind() MethodKind    { return MethodKind((ma >> 2) & 0x07) }
func (ma MemberAttributes) IsPseudo() bool            { return ma&0x0020 != 0 }
func (ma MemberAttributes) IsCompilerGenerated() bool { return ma&0x0100 != 0 }
func (ma MemberAttributes) IsSealed() bool            { return ma&0x0200 != 0 }

// ModifierOptions is the LF_MODIFIER flag word.
type ModifierOptions uint16

func (mo ModifierOptions) IsConst() bool     { return mo&0x01 != 0 }
func (mo ModifierOptions) IsVolatile() bool  { return mo&0x02 != 0 }
func (mo ModifierOptions) IsUnaligned() bool { return mo&0x04 != 0 }

// FunctionOptions is the function attribute byte on procedure records.
type FunctionOptions uint8

func (fo FunctionOptions) IsConstructor() bool { return fo&0x02 != 0 }
