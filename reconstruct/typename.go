package reconstruct

import (
	"fmt"
	"strings"

	"github.com/skdltmxn/resym-go/pdb"
)

// maxTypeDepth bounds declarator recursion on malformed record chains.
const maxTypeDepth = 64

// typeName renders a type reference without a declarator name.
func (w *writer) typeName(ti pdb.TypeIndex) (string, error) {
	return w.declare(ti, "")
}

// declare renders "T name" for a member, parameter or variable of type
// ti, composing pointer, array and function declarators around name.
func (w *writer) declare(ti pdb.TypeIndex, name string) (string, error) {
	return w.decl(ti, name, 0)
}

func (w *writer) decl(ti pdb.TypeIndex, d string, depth int) (string, error) {
	if depth > maxTypeDepth {
		return "", unresolved("type %#x nests too deeply", uint32(ti))
	}
	rec, ok := w.types.ByIndex(ti)
	if !ok {
		return "", unresolved("type %#x", uint32(ti))
	}

	switch r := rec.(type) {
	case *pdb.Primitive:
		if r.Indirection > 0 {
			d = "*" + d
		}
		return join(primitiveName(r, w.policy.PrimitiveFlavor), d), nil

	case *pdb.Aggregate:
		return join(r.Name, d), nil

	case *pdb.Enum:
		return join(r.Name, d), nil

	case *pdb.Modifier:
		cv := qualifiers(r.IsConst, r.IsVolatile)
		if cv == "" {
			return w.decl(r.Type, d, depth+1)
		}
		if target, _ := w.types.ByIndex(r.Type); isPointer(target) {
			return w.decl(r.Type, prefixed(cv, d), depth+1)
		}
		inner, err := w.decl(r.Type, d, depth+1)
		if err != nil {
			return "", err
		}
		return cv + " " + inner, nil

	case *pdb.Pointer:
		sym := "*"
		switch r.Mode {
		case pdb.PointerModeReference:
			sym = "&"
		case pdb.PointerModeRValueReference:
			sym = "&&"
		case pdb.PointerModeDataMember, pdb.PointerModeMemberFunction:
			class, err := w.decl(r.ContainingClass, "", depth+1)
			if err != nil {
				return "", err
			}
			sym = class + "::*"
		}
		if cv := qualifiers(r.IsConst, r.IsVolatile); cv != "" {
			return w.decl(r.Referent, sym+prefixed(cv, d), depth+1)
		}
		return w.decl(r.Referent, sym+d, depth+1)

	case *pdb.Array:
		count, err := w.elementCount(r)
		if err != nil {
			return "", err
		}
		if isPointerDeclarator(d) {
			d = "(" + d + ")"
		}
		return w.decl(r.Element, d+"["+w.integer(count)+"]", depth+1)

	case *pdb.Bitfield:
		return w.decl(r.Type, d, depth+1)

	case *pdb.Procedure:
		params, err := w.params(r.ArgList, depth)
		if err != nil {
			return "", err
		}
		if isPointerDeclarator(d) {
			d = "(" + d + ")"
		}
		return w.decl(r.ReturnType, d+"("+params+")", depth+1)

	case *pdb.MemberFunction:
		params, err := w.params(r.ArgList, depth)
		if err != nil {
			return "", err
		}
		if isPointerDeclarator(d) {
			d = "(" + d + ")"
		}
		return w.decl(r.ReturnType, d+"("+params+")"+w.thisQualifiers(r), depth+1)
	}
	return "", unresolved("type %#x is not a declarable type (%T)", uint32(ti), rec)
}

func (w *writer) params(argList pdb.TypeIndex, depth int) (string, error) {
	args, err := w.types.Args(argList)
	if err != nil {
		return "", err
	}
	if len(args) == 1 {
		if p, ok := primitiveOf(w.types, args[0]); ok && p.IsVoid() && p.Indirection == 0 && args[0] != 0 {
			return "", nil
		}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		if a == 0 {
			parts[i] = "..."
			continue
		}
		s, err := w.decl(a, "", depth+1)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

// thisQualifiers returns " const" and/or " volatile" when the implicit
// this pointer points to a qualified object.
func (w *writer) thisQualifiers(mf *pdb.MemberFunction) string {
	if mf.This == 0 {
		return ""
	}
	rec, _ := w.types.ByIndex(mf.This)
	ptr, ok := rec.(*pdb.Pointer)
	if !ok {
		return ""
	}
	pointee, _ := w.types.ByIndex(ptr.Referent)
	if m, ok := pointee.(*pdb.Modifier); ok {
		if cv := qualifiers(m.IsConst, m.IsVolatile); cv != "" {
			return " " + cv
		}
	}
	return ""
}

func (w *writer) elementCount(a *pdb.Array) (uint64, error) {
	elem, err := w.layouts.Of(a.Element)
	if err != nil {
		return 0, layoutFailure(err)
	}
	if elem.Size == 0 {
		return 0, nil
	}
	return a.Size / elem.Size, nil
}

// integer formats a literal value per the hex option.
func (w *writer) integer(v uint64) string {
	if w.policy.IntegersAsHex {
		return fmt.Sprintf("%#x", v)
	}
	return fmt.Sprintf("%d", v)
}

func primitiveOf(types *pdb.TypeTable, ti pdb.TypeIndex) (*pdb.Primitive, bool) {
	rec, _ := types.ByIndex(ti)
	p, ok := rec.(*pdb.Primitive)
	return p, ok
}

// isPointer reports whether rec is a pointer record or a built-in
// pointer such as T_64PRCHAR.
func isPointer(rec pdb.TypeRecord) bool {
	switch r := rec.(type) {
	case *pdb.Pointer:
		return true
	case *pdb.Primitive:
		return r.Indirection > 0
	}
	return false
}

func qualifiers(isConst, isVolatile bool) string {
	switch {
	case isConst && isVolatile:
		return "const volatile"
	case isConst:
		return "const"
	case isVolatile:
		return "volatile"
	}
	return ""
}

func prefixed(cv, d string) string {
	if d == "" {
		return cv
	}
	return cv + " " + d
}

// isPointerDeclarator reports whether d binds a pointer, reference or
// member pointer and needs parentheses before a suffix declarator.
func isPointerDeclarator(d string) bool {
	if strings.HasPrefix(d, "*") || strings.HasPrefix(d, "&") {
		return true
	}
	i := strings.Index(d, "::*")
	return i >= 0 && !strings.ContainsAny(d[:i], "([")
}

// join attaches declarator d to base type text. Leading pointer and
// reference symbols bind to the type: "char" and "*p" give "char* p".
func join(base, d string) string {
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
