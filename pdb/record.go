package pdb

import (
	"fmt"

	"github.com/skdltmxn/resym-go/internal/stream"
	"github.com/skdltmxn/resym-go/internal/tpi"
)

// TypeIndex names a type record. Indices below 0x1000 are built-in types.
type TypeIndex = tpi.TypeIndex

// Shared attribute types from the record decoder.
type (
	Access            = tpi.MemberAccess
	MethodKind        = tpi.MethodKind
	PointerMode       = tpi.PointerMode
	CallingConvention = tpi.CallingConvention
	PrimitiveKind     = tpi.SimpleTypeKind
	Numeric           = stream.Numeric
)

// Access levels.
const (
	AccessNone      = tpi.MemberAccessNone
	AccessPrivate   = tpi.MemberAccessPrivate
	AccessProtected = tpi.MemberAccessProtected
	AccessPublic    = tpi.MemberAccessPublic
)

// Pointer modes.
const (
	PointerModePointer         = tpi.PointerModePointer
	PointerModeReference       = tpi.PointerModeLValueReference
	PointerModeDataMember      = tpi.PointerModePointerToDataMember
	PointerModeMemberFunction  = tpi.PointerModePointerToMemberFunction
	PointerModeRValueReference = tpi.PointerModeRValueReference
)

// Method kinds.
const (
	MethodVanilla      = tpi.MethodKindVanilla
	MethodVirtual      = tpi.MethodKindVirtual
	MethodStatic       = tpi.MethodKindStatic
	MethodFriend       = tpi.MethodKindFriend
	MethodIntroVirtual = tpi.MethodKindIntroVirtual
	MethodPureVirtual  = tpi.MethodKindPureVirtual
	MethodPureIntro    = tpi.MethodKindPureIntro
)

// TypeRecord is one decoded type. The set of implementations is closed:
// *Primitive, *Pointer, *Array, *Modifier, *Enum, *Bitfield, *Procedure,
// *MemberFunction, *Aggregate, *VTableShape, *ArgList, *FieldList,
// *MethodList and *Unknown.
type TypeRecord interface {
	// Index returns the index the record was decoded at.
	Index() TypeIndex
	isTypeRecord()
}

type header struct{ index TypeIndex }

func (h header) Index() TypeIndex { return h.index }
func (header) isTypeRecord()     {}

// Primitive is a built-in type, optionally behind a built-in pointer.
type Primitive struct {
	header
	Kind PrimitiveKind
	// Indirection is the pointer width for built-in pointer indices and
	// 0 for the value type itself.
	Indirection int
}

// Pointer is a pointer, reference or pointer to member.
type Pointer struct {
	header
	Referent        TypeIndex
	Mode            PointerMode
	Size            int
	IsConst         bool
	IsVolatile      bool
	IsUnaligned     bool
	IsRestrict      bool
	ContainingClass TypeIndex
}

// IsReference reports whether the pointer is an lvalue or rvalue reference.
func (p *Pointer) IsReference() bool {
	return p.Mode == PointerModeReference || p.Mode == PointerModeRValueReference
}

// IsMemberPointer reports whether the pointer is a pointer to member.
func (p *Pointer) IsMemberPointer() bool {
	return p.Mode == PointerModeDataMember || p.Mode == PointerModeMemberFunction
}

// Array is a fixed array. Size is the total size in bytes.
type Array struct {
	header
	Element   TypeIndex
	IndexType TypeIndex
	Size      uint64
	Name      string
}

// Modifier adds cv-qualifiers to another type.
type Modifier struct {
	header
	Type        TypeIndex
	IsConst     bool
	IsVolatile  bool
	IsUnaligned bool
}

// Enum is an enumeration definition or forward reference.
type Enum struct {
	header
	Name       string
	UniqueName string
	Underlying TypeIndex
	FieldList  TypeIndex
	Count      int
	IsForward  bool
	IsScoped   bool
	IsNested   bool
}

// Bitfield describes a bitfield member's storage type and bit range.
type Bitfield struct {
	header
	Type     TypeIndex
	Length   uint8
	Position uint8
}

// Procedure is a free function signature.
type Procedure struct {
	header
	ReturnType        TypeIndex
	CallingConvention CallingConvention
	ArgList           TypeIndex
	ParamCount        int
	IsConstructor     bool
}

// MemberFunction is a method signature. This is 0 for static methods.
type MemberFunction struct {
	header
	ReturnType        TypeIndex
	Class             TypeIndex
	This              TypeIndex
	CallingConvention CallingConvention
	ArgList           TypeIndex
	ParamCount        int
	ThisAdjust        int32
	IsConstructor     bool
}

// AggregateKind distinguishes the aggregate leaves.
type AggregateKind int

const (
	KindStruct AggregateKind = iota
	KindClass
	KindUnion
	KindInterface
)

func (k AggregateKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindUnion:
		return "union"
	case KindInterface:
		return "interface"
	default:
		return "struct"
	}
}

// Aggregate is a class, struct, interface or union.
type Aggregate struct {
	header
	Kind       AggregateKind
	Name       string
	UniqueName string
	Size       uint64
	FieldList  TypeIndex
	Derived    TypeIndex
	VShape     TypeIndex
	Count      int
	IsForward  bool
	IsPacked   bool
	IsNested   bool
	IsScoped   bool
}

// VTableShape is the vtable descriptor of a class.
type VTableShape struct {
	header
	Slots int
}

// ArgList is a function's parameter list.
type ArgList struct {
	header
	Args []TypeIndex
}

// Member is a data member. Static members have no offset.
type Member struct {
	Name     string
	Type     TypeIndex
	Offset   uint64
	Access   Access
	IsStatic bool
}

// BaseClass is a direct or virtual base.
type BaseClass struct {
	Type         TypeIndex
	Offset       uint64
	Access       Access
	IsVirtual    bool
	IsIndirect   bool
	VBPtrOffset  uint64
	VBTableIndex uint64
}

// Enumerator is one named enum value.
type Enumerator struct {
	Name  string
	Value Numeric
}

// Method is one method declaration. Overload groups are expanded in place.
type Method struct {
	Name                string
	Type                TypeIndex
	Access              Access
	Kind                MethodKind
	VFTableOffset       int32
	IsCompilerGenerated bool
}

// NestedType is a nested type declaration.
type NestedType struct {
	Name string
	Type TypeIndex
}

// methodGroup is an LF_METHOD entry waiting for its method list.
type methodGroup struct {
	name string
	list TypeIndex
	pos  int
}

// FieldList is one LF_FIELDLIST record. Continuation links to the next
// record of a split list; TypeTable.Fields returns the merged view.
type FieldList struct {
	header
	Members      []Member
	Bases        []BaseClass
	Enumerators  []Enumerator
	Methods      []Method
	Nested       []NestedType
	HasVFPtr     bool
	Continuation TypeIndex

	groups []methodGroup
}

// MethodList holds the overloads named by a method group.
type MethodList struct {
	header
	Methods []Method
}

// Unknown keeps the raw payload of a record that is not modelled or could
// not be decoded. Err is nil for unmodelled kinds.
type Unknown struct {
	header
	Leaf uint16
	Data []byte
	Err  error
}

func (u *Unknown) String() string {
	return fmt.Sprintf("unknown leaf %#04x (%d bytes)", u.Leaf, len(u.Data))
}
