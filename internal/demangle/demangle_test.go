package demangle

import (
	"errors"
	"testing"
)

func TestDemangle(t *testing.T) {
	tests := []struct {
		decorated string
		want      string
	}{
		{"?main@@YAHHPEAD@Z", "int main(int, char*)"},
		{"?run@@YAHXZ", "int run()"},
		{"??0Foo@ns@@QEAA@XZ", "public: ns::Foo::Foo()"},
		{"??1Foo@ns@@UEAA@XZ", "public: virtual ns::Foo::~Foo()"},
		{"?get@Foo@@QEBAHXZ", "public: int Foo::get() const"},
		{"?create@Foo@@SAPEAV1@H@Z", "public: static Foo* Foo::create(int)"},
		{"??4Foo@@QEAAAEAV0@AEBV0@@Z", "public: Foo& Foo::operator=(const Foo&)"},
		{"?push@?$Stack@H@@QEAAXH@Z", "public: void Stack<int>::push(int)"},
		{"??0?$Stack@H@@QEAA@XZ", "public: Stack<int>::Stack()"},
		{"?log@@YAXPEBDZZ", "void log(const char*, ...)"},
		{"?set@@YAXP6AHH@Z@Z", "void set(int (*)(int))"},
		{"?take@@YAX$$QEAH@Z", "void take(int&&)"},
		{"?g_counter@@3HA", "int g_counter"},
		{"?s_name@@3PEADEA", "char* s_name"},
		{"?kName@@3PEBDEB", "const char* const kName"},
		{"?grid@@3PAY02HA", "int (*grid)[3]"},
		{"?count@Derived@resym_test@@2HA", "public: static int resym_test::Derived::count"},
		{"?x@?A0x1234@@3HA", "int `anonymous namespace'::x"},
		{"??_7Foo@@6B@", "Foo::`vftable'"},
		{"??_C@_05CJBACGMB@hello?$AA@", "`string'"},
		{"??_R0?AVFoo@@@8", "Foo `RTTI Type Descriptor'"},
		{"__imp_?main@@YAHHPEAD@Z", "__imp_int main(int, char*)"},
		{"plain_c", "plain_c"},
	}
	for _, tt := range tests {
		got, err := Demangle(tt.decorated)
		if err != nil {
			t.Errorf("Demangle(%q) error = %v", tt.decorated, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Demangle(%q) = %q, want %q", tt.decorated, got, tt.want)
		}
	}
}

func TestDemangleErrors(t *testing.T) {
	tests := []struct {
		decorated string
		err       error
	}{
		{"", ErrEmptyInput},
		{"?main@@YAH", ErrUnexpectedEnd},
		{"?f@@YAX0@Z", ErrInvalidBackref},
		{"?f@@YAX_Z@Z", ErrUnknownType},
		{"??$@@3HA", ErrInvalidMangled},
	}
	for _, tt := range tests {
		got, err := Demangle(tt.decorated)
		if !errors.Is(err, tt.err) {
			t.Errorf("Demangle(%q) error = %v, want %v", tt.decorated, err, tt.err)
		}
		if got != tt.decorated {
			t.Errorf("Demangle(%q) = %q on failure", tt.decorated, got)
		}
	}

	if got := Simple("?main@@YAH"); got != "?main@@YAH" {
		t.Errorf("Simple() of a truncated name = %q", got)
	}
	if _, err := Parse("main"); !errors.Is(err, ErrInvalidMangled) {
		t.Errorf("Parse(undecorated) error = %v", err)
	}
}

func TestParseNodes(t *testing.T) {
	n, err := Parse("?get@Foo@@QEBAHXZ")
	if err != nil {
		t.Fatal(err)
	}
	fn, ok := n.(*FunctionSymbol)
	if !ok {
		t.Fatalf("Parse() = %T, want *FunctionSymbol", n)
	}
	if fn.Access != AccessPublic || fn.IsStatic || fn.IsVirtual {
		t.Errorf("access = %v static = %v virtual = %v", fn.Access, fn.IsStatic, fn.IsVirtual)
	}
	if !fn.Signature.This.Const || fn.Signature.Convention != Cdecl {
		t.Errorf("signature = %+v", fn.Signature)
	}
	if fn.Name.Last() != "get" || fn.Name.String() != "Foo::get" {
		t.Errorf("name = %v", fn.Name.Components)
	}

	n, err = Parse("?count@Derived@resym_test@@2HA")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := n.(*VariableSymbol); !ok || !v.IsStatic || v.Access != AccessPublic {
		t.Errorf("Parse() = %#v", n)
	}
}

func TestCallingConventionNames(t *testing.T) {
	fn := &Function{Convention: Stdcall, Result: &Builtin{Name: "int"}}
	if got := fn.declare("*"); got != "int (__stdcall *)()" {
		t.Errorf("stdcall pointer = %q", got)
	}
	fn.Convention = Fastcall
	if got := fn.declare("f"); got != "int __fastcall f()" {
		t.Errorf("fastcall function = %q", got)
	}
	if got := CallingConvention(99).String(); got != "CallingConvention(99)" {
		t.Errorf("unknown convention = %q", got)
	}
}
