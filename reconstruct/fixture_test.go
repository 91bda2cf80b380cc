package reconstruct

import (
	"bytes"
	"testing"

	"github.com/skdltmxn/resym-go/internal/pdbtest"
	"github.com/skdltmxn/resym-go/internal/tpi"
	"github.com/skdltmxn/resym-go/pdb"
)

const (
	tVoid   = tpi.TypeIndex(tpi.SimpleTypeVoid)
	tChar   = tpi.TypeIndex(tpi.SimpleTypeNarrowChar)
	tInt32  = tpi.TypeIndex(tpi.SimpleTypeInt32)
	tUInt32 = tpi.TypeIndex(tpi.SimpleTypeUInt32)
	tUInt64 = tpi.TypeIndex(tpi.SimpleTypeUInt64)
	tFloat  = tpi.TypeIndex(tpi.SimpleTypeFloat32)
	tPChar  = tpi.TypeIndex(0x0600 | tpi.TypeIndex(tpi.SimpleTypeNarrowChar))
)

const (
	public    = tpi.MemberAccessPublic
	protected = tpi.MemberAccessProtected
	private   = tpi.MemberAccessPrivate
)

// fixtureTypes builds the records mirroring the resym_test sample
// program.
func fixtureTypes() *pdbtest.Types {
	t := pdbtest.NewTypes()

	// struct StructTest { int32_t a; char b; private: uint64_t c; };
	t.Class(pdbtest.Class{
		Name: "resym_test::StructTest", UniqueName: ".?AUStructTest@resym_test@@", Size: 0x10, Count: 3,
		FieldList: t.FieldList(
			pdbtest.Member(public, tInt32, 0, "a"),
			pdbtest.Member(public, tChar, 4, "b"),
			pdbtest.Member(private, tUInt64, 8, "c"),
		),
	})

	// struct BitFieldsTest1 { uint32_t a : 1; uint32_t b : 3; uint32_t c : 4; int32_t d; };
	t.Class(pdbtest.Class{
		Name: "resym_test::BitFieldsTest1", Size: 8, Count: 4,
		FieldList: t.FieldList(
			pdbtest.Member(public, t.Bitfield(tUInt32, 1, 0), 0, "a"),
			pdbtest.Member(public, t.Bitfield(tUInt32, 3, 1), 0, "b"),
			pdbtest.Member(public, t.Bitfield(tUInt32, 4, 4), 0, "c"),
			pdbtest.Member(public, tInt32, 4, "d"),
		),
	})

	// enum EnumTest1 : int32_t { A, B, C = -1 };
	enum1 := t.Enum(pdbtest.Enum{
		Name: "resym_test::EnumTest1", Underlying: tInt32, Count: 3,
		FieldList: t.FieldList(
			pdbtest.Enumerate("A", 0),
			pdbtest.Enumerate("B", 1),
			pdbtest.Enumerate("C", -1),
		),
	})

	// enum class ScopedEnum : uint32_t { X = 16 };
	t.Enum(pdbtest.Enum{
		Name: "resym_test::ScopedEnum", Underlying: tUInt32, Count: 1, Scoped: true,
		FieldList: t.FieldList(pdbtest.Enumerate("X", 16)),
	})

	// struct UnionTest { union { int32_t a; float b; }; int32_t c; };
	t.Class(pdbtest.Class{
		Name: "resym_test::UnionTest", Size: 8, Count: 3,
		FieldList: t.FieldList(
			pdbtest.Member(public, tInt32, 0, "a"),
			pdbtest.Member(public, tFloat, 0, "b"),
			pdbtest.Member(public, tInt32, 4, "c"),
		),
	})

	// struct NestedUnionTest { union { struct { int32_t x; int32_t y; }; uint64_t z; }; int32_t w; };
	t.Class(pdbtest.Class{
		Name: "resym_test::NestedUnionTest", Size: 0x10, Count: 4,
		FieldList: t.FieldList(
			pdbtest.Member(public, tInt32, 0, "x"),
			pdbtest.Member(public, tInt32, 4, "y"),
			pdbtest.Member(public, tUInt64, 0, "z"),
			pdbtest.Member(public, tInt32, 8, "w"),
		),
	})

	// struct ArrayTest { char buf[16]; char* name; };
	t.Class(pdbtest.Class{
		Name: "resym_test::ArrayTest", Size: 0x18, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, t.Array(tChar, 16), 0, "buf"),
			pdbtest.Member(public, tPChar, 0x10, "name"),
		),
	})

	// Dependencies: Outer holds an Inner and a std::Thing by value and a
	// Node by pointer; Node points to itself.
	inner := t.Class(pdbtest.Class{
		Name: "resym_test::Inner", Size: 4, Count: 1,
		FieldList: t.FieldList(pdbtest.Member(public, tInt32, 0, "v")),
	})
	std := t.Class(pdbtest.Class{
		Name: "std::Thing", Size: 4, Count: 1,
		FieldList: t.FieldList(pdbtest.Member(public, tInt32, 0, "x")),
	})
	nodeFwd := t.Class(pdbtest.Class{Name: "resym_test::Node", Forward: true})
	nodePtr := t.Pointer(nodeFwd)
	t.Class(pdbtest.Class{
		Name: "resym_test::Node", Size: 0x10, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, nodePtr, 0, "next"),
			pdbtest.Member(public, inner, 8, "val"),
		),
	})
	t.Class(pdbtest.Class{
		Name: "resym_test::Outer", Size: 0x18, Count: 3,
		FieldList: t.FieldList(
			pdbtest.Member(public, inner, 0, "a"),
			pdbtest.Member(public, nodePtr, 8, "head"),
			pdbtest.Member(public, std, 0x10, "s"),
		),
	})

	// Mutually referencing CycleA and CycleB.
	aFwd := t.Class(pdbtest.Class{Name: "resym_test::CycleA", Forward: true})
	bFwd := t.Class(pdbtest.Class{Name: "resym_test::CycleB", Forward: true})
	t.Class(pdbtest.Class{
		Name: "resym_test::CycleA", Size: 8, Count: 1,
		FieldList: t.FieldList(pdbtest.Member(public, t.Pointer(bFwd), 0, "b")),
	})
	t.Class(pdbtest.Class{
		Name: "resym_test::CycleB", Size: 8, Count: 1,
		FieldList: t.FieldList(pdbtest.Member(public, t.Pointer(aFwd), 0, "a")),
	})

	// class Base { virtual ~Base(); }; class Derived : public Base { ... };
	shape := t.VTShape(1)
	baseFwd := t.Class(pdbtest.Class{Kind: tpi.LF_CLASS, Name: "resym_test::Base", Forward: true})
	baseDtor := t.MemberFunction(tVoid, baseFwd, t.Pointer(baseFwd), 0)
	t.Class(pdbtest.Class{
		Kind: tpi.LF_CLASS, Name: "resym_test::Base", Size: 8, Count: 2, VShape: shape,
		FieldList: t.FieldList(
			pdbtest.VFuncTab(t.Pointer(shape)),
			pdbtest.OneMethod(pdbtest.Attrs(public, tpi.MethodKindIntroVirtual), baseDtor, 0, "~Base"),
		),
	})

	derivedFwd := t.Class(pdbtest.Class{Kind: tpi.LF_CLASS, Name: "resym_test::Derived", Forward: true})
	this := t.Pointer(derivedFwd)
	constThis := t.Pointer(t.Modifier(derivedFwd, true, false))
	ctor := t.MemberFunction(tVoid, derivedFwd, this, 0x02)
	dtor := t.MemberFunction(tVoid, derivedFwd, this, 0)
	run := t.MemberFunction(tVoid, derivedFwd, this, 0, tInt32, tPChar)
	get := t.MemberFunction(tInt32, derivedFwd, constThis, 0)
	create := t.MemberFunction(tInt32, derivedFwd, 0, 0, tInt32)
	pure := t.MemberFunction(tVoid, derivedFwd, this, 0)
	overloads := t.MethodList(
		tpi.MethodListEntry{Attrs: pdbtest.Attrs(public, tpi.MethodKindVanilla), Type: run},
		tpi.MethodListEntry{Attrs: pdbtest.Attrs(public, tpi.MethodKindVanilla), Type: t.MemberFunction(tVoid, derivedFwd, this, 0)},
	)
	generated := pdbtest.Attrs(public, tpi.MethodKindVanilla) | 0x0100
	t.Class(pdbtest.Class{
		Kind: tpi.LF_CLASS, Name: "resym_test::Derived", Size: 0x10, Count: 9,
		FieldList: t.FieldList(
			pdbtest.Base(public, baseFwd, 0),
			pdbtest.Member(private, tInt32, 8, "x"),
			pdbtest.Member(protected, tInt32, 12, "y"),
			pdbtest.StaticMember(public, tInt32, "count"),
			pdbtest.OneMethod(pdbtest.Attrs(public, tpi.MethodKindVanilla), ctor, 0, "Derived"),
			pdbtest.OneMethod(pdbtest.Attrs(public, tpi.MethodKindVirtual), dtor, 0, "~Derived"),
			pdbtest.Method(2, overloads, "run"),
			pdbtest.OneMethod(pdbtest.Attrs(public, tpi.MethodKindVanilla), get, 0, "get"),
			pdbtest.OneMethod(pdbtest.Attrs(public, tpi.MethodKindStatic), create, 0, "create"),
			pdbtest.OneMethod(pdbtest.Attrs(protected, tpi.MethodKindPureIntro), pure, 8, "step"),
			pdbtest.OneMethod(generated, t.MemberFunction(tVoid, derivedFwd, this, 0), 0, "__autoclassinit"),
		),
	})

	// struct WithUnnamed { struct { int32_t x; int32_t y; } pos; int32_t id; };
	unnamed := t.Class(pdbtest.Class{
		Name: "resym_test::WithUnnamed::<unnamed-tag>", Size: 8, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, tInt32, 0, "x"),
			pdbtest.Member(public, tInt32, 4, "y"),
		),
	})
	t.Class(pdbtest.Class{
		Name: "resym_test::WithUnnamed", Size: 0xc, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, unnamed, 0, "pos"),
			pdbtest.Member(public, tInt32, 8, "id"),
		),
	})

	// Two unrelated definitions sharing one name.
	t.Class(pdbtest.Class{
		Name: "resym_test::Dup", UniqueName: ".?AUDup@a@@", Size: 4, Count: 1,
		FieldList: t.FieldList(pdbtest.Member(public, tInt32, 0, "first")),
	})
	t.Class(pdbtest.Class{
		Name: "resym_test::Dup", UniqueName: ".?AUDup@b@@", Size: 4, Count: 1,
		FieldList: t.FieldList(pdbtest.Member(public, tUInt32, 0, "second")),
	})

	// struct Callbacks { int32_t (*fn)(char*); void (resym_test::Derived::*method)(); };
	fn := t.Pointer(t.Procedure(tInt32, tpi.CallingConvNearC, tPChar))
	memberFn := t.PointerEx(t.MemberFunction(tVoid, derivedFwd, this, 0),
		pdbtest.PointerAttrs(8, tpi.PointerModePointerToMemberFunction, false), derivedFwd)
	t.Class(pdbtest.Class{
		Name: "resym_test::Callbacks", Size: 0x10, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, fn, 0, "fn"),
			pdbtest.Member(public, memberFn, 8, "method"),
		),
	})

	// A by-value self reference can never be laid out.
	selfFwd := t.Class(pdbtest.Class{Name: "resym_test::Broken", Forward: true})
	t.Class(pdbtest.Class{
		Name: "resym_test::Broken", Size: 4, Count: 1,
		FieldList: t.FieldList(pdbtest.Member(public, selfFwd, 0, "self")),
	})

	// Member of a type index past the end of the stream.
	t.Class(pdbtest.Class{
		Name: "resym_test::Dangling", Size: 4, Count: 1,
		FieldList: t.FieldList(pdbtest.Member(public, 0x7fff, 0, "bad")),
	})

	declaratorTypes(t)
	bitfieldTypes(t, enum1)
	unnamedTypes(t, enum1)
	return t
}

func simple(k tpi.SimpleTypeKind) tpi.TypeIndex { return tpi.TypeIndex(k) }

// declaratorTypes adds records exercising every declarator form.
func declaratorTypes(t *pdbtest.Types) {
	p := func(k tpi.SimpleTypeKind, off uint64, name string) pdbtest.Field {
		return pdbtest.Member(public, simple(k), off, name)
	}
	t.Class(pdbtest.Class{
		Name: "resym_test::PrimitiveTypesTest", Size: 0x70, Count: 27,
		FieldList: t.FieldList(
			p(tpi.SimpleTypeNarrowChar, 0x00, "c"),
			p(tpi.SimpleTypeSignedChar, 0x01, "sc"),
			p(tpi.SimpleTypeUnsignedChar, 0x02, "uc"),
			p(tpi.SimpleTypeBool8, 0x03, "b"),
			p(tpi.SimpleTypeInt16Short, 0x04, "s"),
			p(tpi.SimpleTypeUInt16Short, 0x06, "us"),
			p(tpi.SimpleTypeInt32, 0x08, "i"),
			p(tpi.SimpleTypeUInt32, 0x0c, "ui"),
			p(tpi.SimpleTypeInt32Long, 0x10, "l"),
			p(tpi.SimpleTypeUInt32Long, 0x14, "ul"),
			p(tpi.SimpleTypeInt64Quad, 0x18, "ll"),
			p(tpi.SimpleTypeUInt64Quad, 0x20, "ull"),
			p(tpi.SimpleTypeFloat32, 0x28, "f"),
			p(tpi.SimpleTypeFloat64, 0x30, "d"),
			p(tpi.SimpleTypeWideChar, 0x38, "wc"),
			p(tpi.SimpleTypeChar16, 0x3a, "c16"),
			p(tpi.SimpleTypeChar32, 0x3c, "c32"),
			p(tpi.SimpleTypeChar8, 0x40, "c8"),
			p(tpi.SimpleTypeHResult, 0x44, "hr"),
			p(tpi.SimpleTypeSByte, 0x48, "i8"),
			p(tpi.SimpleTypeByte, 0x49, "u8"),
			p(tpi.SimpleTypeInt16, 0x4a, "i16"),
			p(tpi.SimpleTypeUInt16, 0x4c, "u16"),
			p(tpi.SimpleTypeBool32, 0x50, "b32"),
			p(tpi.SimpleTypeInt64, 0x58, "i64"),
			p(tpi.SimpleTypeUInt64, 0x60, "u64"),
			pdbtest.Member(public, 0x0600|simple(tpi.SimpleTypeVoid), 0x68, "ptr"),
		),
	})

	constChar := t.Modifier(tChar, true, false)
	constInt := t.Modifier(tInt32, true, false)
	rref := t.PointerEx(tInt32, pdbtest.PointerAttrs(8, tpi.PointerModeRValueReference, false), 0)
	t.Class(pdbtest.Class{
		Kind: tpi.LF_CLASS, Name: "resym_test::ClassWithRefsAndStaticsTest", Size: 0x20, Count: 6,
		FieldList: t.FieldList(
			pdbtest.Member(public, t.Reference(tInt32), 0, "ref"),
			pdbtest.Member(public, t.Reference(constInt), 8, "cref"),
			pdbtest.Member(public, rref, 0x10, "rref"),
			pdbtest.Member(public, t.Modifier(tPChar, true, false), 0x18, "name"),
			pdbtest.StaticMember(public, tInt32, "counter"),
			pdbtest.StaticMember(public, t.Pointer(constChar), "label"),
		),
	})

	constPtr := t.PointerEx(tInt32, pdbtest.PointerAttrs(8, tpi.PointerModePointer, true), 0)
	t.Class(pdbtest.Class{
		Name: "resym_test::DeclaratorsTest", Size: 0x60, Count: 10,
		FieldList: t.FieldList(
			pdbtest.Member(public, constInt, 0, "c"),
			pdbtest.Member(public, t.Modifier(tUInt32, false, true), 4, "v"),
			pdbtest.Member(public, t.Modifier(tInt32, true, true), 8, "cv"),
			pdbtest.Member(public, constPtr, 0x10, "cp"),
			pdbtest.Member(public, t.Modifier(tPChar, true, false), 0x18, "cpc"),
			pdbtest.Member(public, t.Pointer(constChar), 0x20, "pc"),
			pdbtest.Member(public, t.Modifier(t.Pointer(tInt32), true, false), 0x28, "mp"),
			pdbtest.Member(public, t.Array(t.Array(tInt32, 12), 24), 0x30, "grid"),
			pdbtest.Member(public, t.Pointer(t.Array(tInt32, 16)), 0x48, "row"),
			pdbtest.Member(public, t.Array(tPChar, 16), 0x50, "names"),
		),
	})

	// interface InterfaceTest { virtual int32_t Run(int32_t) = 0; };
	shape := t.VTShape(1)
	ifaceFwd := t.Class(pdbtest.Class{Kind: tpi.LF_INTERFACE, Name: "resym_test::InterfaceTest", Forward: true})
	ifaceRun := t.MemberFunction(tInt32, ifaceFwd, t.Pointer(ifaceFwd), 0, tInt32)
	iface := t.Class(pdbtest.Class{
		Kind: tpi.LF_INTERFACE, Name: "resym_test::InterfaceTest", Size: 8, Count: 2, VShape: shape,
		FieldList: t.FieldList(
			pdbtest.VFuncTab(t.Pointer(shape)),
			pdbtest.OneMethod(pdbtest.Attrs(public, tpi.MethodKindPureIntro), ifaceRun, 0, "Run"),
		),
	})
	implFwd := t.Class(pdbtest.Class{Kind: tpi.LF_CLASS, Name: "resym_test::InterfaceImplClass", Forward: true})
	implRun := t.MemberFunction(tInt32, implFwd, t.Pointer(implFwd), 0, tInt32)
	t.Class(pdbtest.Class{
		Kind: tpi.LF_CLASS, Name: "resym_test::InterfaceImplClass", Size: 0x10, Count: 3, VShape: shape,
		FieldList: t.FieldList(
			pdbtest.Base(public, iface, 0),
			pdbtest.Member(private, tInt32, 8, "state"),
			pdbtest.OneMethod(pdbtest.Attrs(public, tpi.MethodKindVirtual), implRun, 0, "Run"),
		),
	})

	// class VirtualBaseTest : public virtual VirtualBase { public: int32_t d; };
	vbase := t.Class(pdbtest.Class{
		Name: "resym_test::VirtualBase", Size: 4, Count: 1,
		FieldList: t.FieldList(pdbtest.Member(public, tInt32, 0, "v")),
	})
	t.Class(pdbtest.Class{
		Kind: tpi.LF_CLASS, Name: "resym_test::VirtualBaseTest", Size: 0x10, Count: 2,
		FieldList: t.FieldList(
			pdbtest.VirtualBase(public, vbase, t.Pointer(tInt32), 0, 1),
			pdbtest.Member(public, tInt32, 8, "d"),
		),
	})

	// A field list split by LF_INDEX.
	tail := t.FieldList(pdbtest.Member(public, tUInt64, 8, "c"))
	t.Class(pdbtest.Class{
		Name: "resym_test::ContinuedFieldsTest", Size: 0x10, Count: 3,
		FieldList: t.FieldList(
			pdbtest.Member(public, tInt32, 0, "a"),
			pdbtest.Member(public, tInt32, 4, "b"),
			pdbtest.Continue(tail),
		),
	})
}

// bitfieldTypes adds bitfield layouts: mixed storage units, regular
// members between runs, enum bitfields and flattened union alternatives.
func bitfieldTypes(t *pdbtest.Types, enum1 tpi.TypeIndex) {
	uchar := simple(tpi.SimpleTypeUnsignedChar)
	ushort := simple(tpi.SimpleTypeUInt16Short)

	t.Class(pdbtest.Class{
		Name: "resym_test::BitFieldsTest2", Size: 4, Count: 4,
		FieldList: t.FieldList(
			pdbtest.Member(public, t.Bitfield(uchar, 4, 0), 0, "a"),
			pdbtest.Member(public, t.Bitfield(uchar, 4, 4), 0, "b"),
			pdbtest.Member(public, t.Bitfield(uchar, 2, 0), 1, "c"),
			pdbtest.Member(public, t.Bitfield(ushort, 9, 0), 2, "d"),
		),
	})

	t.Class(pdbtest.Class{
		Name: "resym_test::BitFieldsTest3", Size: 0x10, Count: 3,
		FieldList: t.FieldList(
			pdbtest.Member(public, t.Bitfield(tUInt32, 5, 0), 0, "a"),
			pdbtest.Member(public, tInt32, 4, "b"),
			pdbtest.Member(public, t.Bitfield(tUInt64, 40, 0), 8, "c"),
		),
	})

	t.Class(pdbtest.Class{
		Name: "resym_test::BitFieldsTest4", Size: 8, Count: 4,
		FieldList: t.FieldList(
			pdbtest.Member(public, t.Bitfield(tInt32, 3, 0), 0, "a"),
			pdbtest.Member(public, t.Bitfield(tInt32, 29, 3), 0, "b"),
			pdbtest.Member(public, t.Bitfield(enum1, 2, 0), 4, "e"),
			pdbtest.Member(public, t.Bitfield(tUInt32, 6, 2), 4, "f"),
		),
	})

	// Every member of a union is its own alternative.
	t.Class(pdbtest.Class{
		Kind: tpi.LF_UNION, Name: "resym_test::BitFieldsTest5", Size: 4, Count: 3,
		FieldList: t.FieldList(
			pdbtest.Member(public, t.Bitfield(tUInt32, 4, 0), 0, "a"),
			pdbtest.Member(public, t.Bitfield(tUInt32, 8, 0), 0, "b"),
			pdbtest.Member(public, t.Bitfield(ushort, 3, 0), 0, "c"),
		),
	})

	// struct { union { struct { uint32_t a : 1; uint32_t b : 31; }; uint32_t raw; }; uint32_t tail; };
	t.Class(pdbtest.Class{
		Name: "resym_test::BitFieldsTest6", Size: 8, Count: 4,
		FieldList: t.FieldList(
			pdbtest.Member(public, t.Bitfield(tUInt32, 1, 0), 0, "a"),
			pdbtest.Member(public, t.Bitfield(tUInt32, 31, 1), 0, "b"),
			pdbtest.Member(public, tUInt32, 0, "raw"),
			pdbtest.Member(public, tUInt32, 4, "tail"),
		),
	})

	// Two bitfield runs sharing one byte as union alternatives.
	t.Class(pdbtest.Class{
		Name: "resym_test::BitFieldsTest7", Size: 2, Count: 5,
		FieldList: t.FieldList(
			pdbtest.Member(public, t.Bitfield(uchar, 4, 0), 0, "lo"),
			pdbtest.Member(public, t.Bitfield(uchar, 4, 4), 0, "hi"),
			pdbtest.Member(public, t.Bitfield(uchar, 2, 0), 0, "low2"),
			pdbtest.Member(public, t.Bitfield(uchar, 6, 2), 0, "rest"),
			pdbtest.Member(public, uchar, 1, "x"),
		),
	})
}

// unnamedTypes adds members of unnamed aggregate and enum types.
func unnamedTypes(t *pdbtest.Types, enum1 tpi.TypeIndex) {
	u1 := t.Class(pdbtest.Class{
		Kind: tpi.LF_UNION, Name: "resym_test::StructUnnamedUdtTest1::<unnamed-type-u>", Size: 4, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, tInt32, 0, "i"),
			pdbtest.Member(public, tFloat, 0, "f"),
		),
	})
	t.Class(pdbtest.Class{
		Name: "resym_test::StructUnnamedUdtTest1", Size: 8, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, u1, 0, "u"),
			pdbtest.Member(public, tInt32, 4, "tail"),
		),
	})

	value := t.Class(pdbtest.Class{
		Kind: tpi.LF_UNION, Name: "resym_test::StructUnnamedUdtTest2::<unnamed-type-value>", Size: 4, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, tFloat, 0, "f"),
			pdbtest.Member(public, tUInt32, 0, "bits"),
		),
	})
	point := t.Class(pdbtest.Class{
		Name: "resym_test::StructUnnamedUdtTest2::<unnamed-type-point>", Size: 8, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, tInt32, 0, "x"),
			pdbtest.Member(public, value, 4, "value"),
		),
	})
	t.Class(pdbtest.Class{
		Name: "resym_test::StructUnnamedUdtTest2", Size: 0xc, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, point, 0, "point"),
			pdbtest.Member(public, tInt32, 8, "id"),
		),
	})

	kind := t.Enum(pdbtest.Enum{
		Name: "resym_test::StructUnnamedUdtTest3::<unnamed-enum-kind>", Underlying: tInt32, Count: 2,
		FieldList: t.FieldList(pdbtest.Enumerate("KindA", 0), pdbtest.Enumerate("KindB", 1)),
	})
	inner := t.Class(pdbtest.Class{
		Name: "resym_test::StructUnnamedUdtTest3::<unnamed-type-inner>", Size: 4, Count: 1,
		FieldList: t.FieldList(pdbtest.Member(public, tInt32, 0, "a")),
	})
	t.Class(pdbtest.Class{
		Name: "resym_test::StructUnnamedUdtTest3", Size: 0xc, Count: 3,
		FieldList: t.FieldList(
			pdbtest.Member(public, kind, 0, "kind"),
			pdbtest.Member(public, enum1, 4, "named"),
			pdbtest.Member(public, inner, 8, "inner"),
		),
	})

	parts := t.Class(pdbtest.Class{
		Name: "resym_test::UnionUnnamedUdtTest1::<unnamed-type-parts>", Size: 4, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, simple(tpi.SimpleTypeUInt16Short), 0, "lo"),
			pdbtest.Member(public, simple(tpi.SimpleTypeUInt16Short), 2, "hi"),
		),
	})
	t.Class(pdbtest.Class{
		Kind: tpi.LF_UNION, Name: "resym_test::UnionUnnamedUdtTest1", Size: 4, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, parts, 0, "parts"),
			pdbtest.Member(public, tUInt32, 0, "value"),
		),
	})

	// Shaped like ntdll's _LARGE_INTEGER: an anonymous struct, the same
	// struct named u, and the full quadword.
	ulong := simple(tpi.SimpleTypeUInt32Long)
	long := simple(tpi.SimpleTypeInt32Long)
	large := t.Class(pdbtest.Class{
		Name: "resym_test::NtdllRegression1::<unnamed-type-u>", Size: 8, Count: 2,
		FieldList: t.FieldList(
			pdbtest.Member(public, ulong, 0, "LowPart"),
			pdbtest.Member(public, long, 4, "HighPart"),
		),
	})
	t.Class(pdbtest.Class{
		Kind: tpi.LF_UNION, Name: "resym_test::NtdllRegression1", Size: 8, Count: 4,
		FieldList: t.FieldList(
			pdbtest.Member(public, ulong, 0, "LowPart"),
			pdbtest.Member(public, long, 4, "HighPart"),
			pdbtest.Member(public, large, 0, "u"),
			pdbtest.Member(public, simple(tpi.SimpleTypeInt64Quad), 0, "QuadPart"),
		),
	})
}

// fixturePDB assembles the sample container with one module.
func fixturePDB() *pdbtest.PDB {
	p := pdbtest.New()
	p.Types = fixtureTypes()
	mod := &pdbtest.Symbols{}
	mod.UDT(tUInt32, "DWORD")
	mod.Constant(tInt32, 42, "kAnswer")
	mod.Data(true, tInt32, "g_counter")
	mod.Data(false, tPChar, "s_name")
	mod.Proc(true, p.Types.Procedure(tInt32, tpi.CallingConvNearC, tInt32, tPChar), "main")
	mod.Public("?main@@YAHHPEAD@Z", true)
	p.Modules = []pdbtest.Module{{Name: "main.obj", ObjName: "main.obj", Symbols: mod}}
	return p
}

func loadFixture(tb testing.TB) *pdb.File {
	tb.Helper()
	data := fixturePDB().Bytes()
	f, err := pdb.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		tb.Fatalf("OpenReader() error = %v", err)
	}
	tb.Cleanup(func() { f.Close() })
	return f
}
