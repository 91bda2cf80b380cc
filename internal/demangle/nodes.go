// Package demangle decodes MSVC decorated names into C++ declarations.
package demangle

import (
	"fmt"
	"strings"
)

// Node is a decoded name or type.
type Node interface {
	fmt.Stringer
}

// Type is a node that can declare a name: pointers, arrays and functions
// wrap the declarator the way C++ spells them.
type Type interface {
	Node
	declare(d string) string
}

// Name is a qualified name, outermost scope first.
type Name struct {
	Components []string
}

func (n *Name) String() string { return strings.Join(n.Components, "::") }

// Last returns the innermost component.
func (n *Name) Last() string {
	if len(n.Components) == 0 {
		return ""
	}
	return n.Components[len(n.Components)-1]
}

// Qualifiers are cv qualifiers of a type or of an implicit this.
type Qualifiers struct {
	Const    bool
	Volatile bool
}

func (q Qualifiers) String() string {
	switch {
	case q.Const && q.Volatile:
		return "const volatile"
	case q.Const:
		return "const"
	case q.Volatile:
		return "volatile"
	}
	return ""
}

// Builtin is a fundamental type such as int or unsigned __int64.
type Builtin struct {
	Name string
}

func (t *Builtin) String() string           { return t.declare("") }
func (t *Builtin) declare(d string) string { return bind(t.Name, d) }

// Tag is a class, struct, union or enum named by its qualified name.
type Tag struct {
	Keyword string
	Name    *Name
}

func (t *Tag) String() string           { return t.declare("") }
func (t *Tag) declare(d string) string { return bind(t.Name.String(), d) }

// Qualified applies cv qualifiers to a type. Qualifiers on a pointer
// bind to the pointer itself.
type Qualified struct {
	Type  Type
	Quals Qualifiers
}

func (t *Qualified) String() string { return t.declare("") }

func (t *Qualified) declare(d string) string {
	cv := t.Quals.String()
	if cv == "" {
		return t.Type.declare(d)
	}
	if _, ok := t.Type.(*Pointer); ok {
		return t.Type.declare(prefixed(cv, d))
	}
	return cv + " " + t.Type.declare(d)
}

// PointerKind distinguishes pointers from references.
type PointerKind int

const (
	PlainPointer PointerKind = iota
	LValueReference
	RValueReference
)

// Pointer is a pointer, reference or pointer to member. Class is set for
// pointers to members.
type Pointer struct {
	Kind    PointerKind
	Pointee Type
	Class   *Name
	Quals   Qualifiers
}

func (t *Pointer) String() string { return t.declare("") }

func (t *Pointer) declare(d string) string {
	sym := "*"
	switch {
	case t.Class != nil:
		sym = t.Class.String() + "::*"
	case t.Kind == LValueReference:
		sym = "&"
	case t.Kind == RValueReference:
		sym = "&&"
	}
	if cv := t.Quals.String(); cv != "" {
		d = prefixed(cv, d)
	}
	return t.Pointee.declare(sym + d)
}

// Array is an array with one or more dimensions.
type Array struct {
	Element    Type
	Dimensions []int64
}

func (t *Array) String() string { return t.declare("") }

func (t *Array) declare(d string) string {
	if isPointerDeclarator(d) {
		d = "(" + d + ")"
	}
	for _, n := range t.Dimensions {
		d += fmt.Sprintf("[%d]", n)
	}
	return t.Element.declare(d)
}

// CallingConvention is the calling convention of a function.
type CallingConvention int

const (
	Cdecl CallingConvention = iota
	Pascal
	Thiscall
	Stdcall
	Fastcall
	Clrcall
	Eabi
	Vectorcall
	Swift
	SwiftAsync
)

var callingConventionNames = []string{
	"__cdecl", "__pascal", "__thiscall", "__stdcall", "__fastcall",
	"__clrcall", "__eabi", "__vectorcall", "__swiftcall", "__swiftasynccall",
}

func (c CallingConvention) String() string {
	if c < 0 || int(c) >= len(callingConventionNames) {
		return fmt.Sprintf("CallingConvention(%d)", int(c))
	}
	return callingConventionNames[c]
}

// Function is a function signature. Result is nil for constructors and
// destructors. This holds the qualifiers of the implicit object.
type Function struct {
	Convention CallingConvention
	Result     Type
	Params     []Type
	Variadic   bool
	This       Qualifiers
}

func (t *Function) String() string { return t.declare("") }

func (t *Function) declare(d string) string {
	ptr := isPointerDeclarator(d)
	if t.Convention != Cdecl {
		d = prefixed(t.Convention.String(), d)
	}
	if ptr {
		d = "(" + d + ")"
	}
	d += "(" + t.params() + ")"
	if cv := t.This.String(); cv != "" {
		d += " " + cv
	}
	if t.Result == nil {
		return d
	}
	return t.Result.declare(d)
}

func (t *Function) params() string {
	parts := make([]string, 0, len(t.Params)+1)
	for _, p := range t.Params {
		parts = append(parts, p.String())
	}
	if t.Variadic {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}

// Literal is a non-type template argument.
type Literal struct {
	Text string
}

func (t *Literal) String() string           { return t.Text }
func (t *Literal) declare(d string) string { return bind(t.Text, d) }

// Access is the access level encoded in a member symbol.
type Access int

const (
	AccessNone Access = iota
	AccessPrivate
	AccessProtected
	AccessPublic
)

var accessNames = []string{"", "private", "protected", "public"}

func (a Access) String() string { return accessNames[a] }

// FunctionSymbol is a decoded function or method.
type FunctionSymbol struct {
	Name      *Name
	Signature *Function
	Access    Access
	IsStatic  bool
	IsVirtual bool
}

func (s *FunctionSymbol) String() string {
	var b strings.Builder
	if s.Access != AccessNone {
		b.WriteString(s.Access.String() + ": ")
	}
	switch {
	case s.IsStatic:
		b.WriteString("static ")
	case s.IsVirtual:
		b.WriteString("virtual ")
	}
	b.WriteString(s.Signature.declare(s.Name.String()))
	return b.String()
}

// VariableSymbol is a decoded global or static member variable.
type VariableSymbol struct {
	Name     *Name
	Type     Type
	Access   Access
	IsStatic bool
}

func (s *VariableSymbol) String() string {
	var b strings.Builder
	if s.Access != AccessNone {
		b.WriteString(s.Access.String() + ": ")
	}
	if s.IsStatic {
		b.WriteString("static ")
	}
	b.WriteString(s.Type.declare(s.Name.String()))
	return b.String()
}

// SpecialSymbol is a compiler-generated table or string, such as
// Foo::`vftable'.
type SpecialSymbol struct {
	Name *Name
}

func (s *SpecialSymbol) String() string { return s.Name.String() }

func prefixed(cv, d string) string {
	if d == "" {
		return cv
	}
	return cv + " " + d
}

// isPointerDeclarator reports whether d starts with a pointer, reference
// or member pointer and must be parenthesized before a suffix.
func isPointerDeclarator(d string) bool {
	if strings.HasPrefix(d, "*") || strings.HasPrefix(d, "&") {
		return true
	}
	i := strings.Index(d, "::*")
	return i >= 0 && !strings.ContainsAny(d[:i], "([")
}

// bind attaches a declarator to a base type. Leading pointer and
// reference symbols stay on the type: "char" and "*p" give "char* p".
func bind(base, d string) string {
	if d == "" {
		return base
	}
	i := 0
	for i < len(d) && (d[i] == '*' || d[i] == '&') {
		i++
	}
	switch i {
	case 0:
		return base + " " + d
	case len(d):
		return base + d
	}
	return base + d[:i] + " " + d[i:]
}
