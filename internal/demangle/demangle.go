package demangle

import (
	"errors"
	"strconv"
	"strings"
)

// Errors
var (
	ErrEmptyInput      = errors.New("demangle: empty input")
	ErrInvalidMangled  = errors.New("demangle: invalid mangled name")
	ErrUnexpectedEnd   = errors.New("demangle: unexpected end of input")
	ErrInvalidBackref  = errors.New("demangle: invalid back-reference")
	ErrUnknownOperator = errors.New("demangle: unknown operator")
	ErrUnknownType     = errors.New("demangle: unknown type")
)

// importPrefix marks the import address table slot of a symbol.
const importPrefix = "__imp_"

// Demangle converts an MSVC decorated name to a C++ declaration.
// If the name is not mangled, it is returned unchanged. On failure the
// decorated name is returned with the error.
func Demangle(decorated string) (string, error) {
	if decorated == "" {
		return "", ErrEmptyInput
	}
	if rest, ok := strings.CutPrefix(decorated, importPrefix); ok && IsMangled(rest) {
		s, err := Demangle(rest)
		if err != nil {
			return decorated, err
		}
		return importPrefix + s, nil
	}
	if !IsMangled(decorated) {
		return decorated, nil
	}
	node, err := Parse(decorated)
	if err != nil {
		return decorated, err
	}
	return node.String(), nil
}

// Parse decodes a decorated name into a *FunctionSymbol,
// *VariableSymbol or *SpecialSymbol.
func Parse(decorated string) (Node, error) {
	if decorated == "" {
		return nil, ErrEmptyInput
	}
	if !IsMangled(decorated) {
		return nil, ErrInvalidMangled
	}
	d := &demangler{input: decorated, pos: 1}
	return d.symbol()
}

// Simple returns the demangled name, or decorated itself when it cannot
// be decoded.
func Simple(decorated string) string {
	s, err := Demangle(decorated)
	if err != nil {
		return decorated
	}
	return s
}

// IsMangled reports whether name is an MSVC decorated C++ name.
func IsMangled(name string) bool {
	return strings.HasPrefix(name, "?")
}

const maxBackrefs = 10

// backrefs are the two substitution tables of a decorated name. A
// template argument list starts fresh tables.
type backrefs struct {
	names  []string
	params []Type
}

type demangler struct {
	input string
	pos   int
	refs  backrefs
}

// specialKind classifies the first component of a symbol name.
type specialKind int

const (
	plainName specialKind = iota
	constructor
	destructor
	conversion
	stringLiteral
	typeDescriptor
)

func (d *demangler) symbol() (Node, error) {
	first, kind := "", plainName
	if d.peek() == '?' && d.peekAt(1) != '$' {
		d.pos++
		var err error
		if first, kind, err = d.specialName(); err != nil {
			return nil, err
		}
	} else {
		var err error
		if first, err = d.fragment(); err != nil {
			return nil, err
		}
	}

	switch kind {
	case stringLiteral:
		return &SpecialSymbol{Name: &Name{Components: []string{first}}}, nil
	case typeDescriptor:
		t, err := d.typ()
		if err != nil {
			return nil, err
		}
		return &SpecialSymbol{Name: &Name{Components: []string{t.String() + " " + first}}}, nil
	}

	scope, err := d.qualifiedName()
	if err != nil {
		return nil, err
	}
	name := &Name{Components: append(scope.Components, first)}
	switch kind {
	case constructor, destructor:
		if len(scope.Components) == 0 {
			return nil, ErrInvalidMangled
		}
		class := stripTemplate(scope.Last())
		if kind == destructor {
			class = "~" + class
		}
		name.Components[len(name.Components)-1] = class
	}
	return d.encoding(name, kind == conversion)
}

// encoding decodes what follows the symbol name: a function signature,
// a variable type or the tail of a compiler-generated table.
func (d *demangler) encoding(name *Name, conversion bool) (Node, error) {
	c := d.next()
	switch {
	case c == 0:
		return nil, ErrUnexpectedEnd
	case c >= '0' && c <= '4':
		return d.variable(name, c)
	case c >= '6' && c <= '8':
		return &SpecialSymbol{Name: name}, nil
	case c >= 'A' && c <= 'Z':
		return d.function(name, c, conversion)
	}
	return nil, ErrInvalidMangled
}

func (d *demangler) variable(name *Name, storage byte) (Node, error) {
	v := &VariableSymbol{Name: name}
	switch storage {
	case '0':
		v.Access, v.IsStatic = AccessPrivate, true
	case '1':
		v.Access, v.IsStatic = AccessProtected, true
	case '2':
		v.Access, v.IsStatic = AccessPublic, true
	case '4':
		v.IsStatic = true
	}
	t, err := d.typ()
	if err != nil {
		return nil, err
	}
	d.pointerModifiers()
	q, err := d.qualifiers()
	if err != nil {
		return nil, err
	}
	v.Type = &Qualified{Type: t, Quals: q}
	return v, nil
}

func (d *demangler) function(name *Name, c byte, conversion bool) (Node, error) {
	s := &FunctionSymbol{Name: name}
	hasThis := true
	// Letters come in near/far pairs: A-H private, I-P protected, Q-X
	// public, Y-Z global. Within each group of eight the pairs are plain,
	// static, virtual and adjustor thunk.
	if c >= 'Y' {
		hasThis = false
	} else {
		group := (c - 'A') / 8
		s.Access = []Access{AccessPrivate, AccessProtected, AccessPublic}[group]
		switch (c - 'A') % 8 / 2 {
		case 1:
			s.IsStatic = true
			hasThis = false
		case 2:
			s.IsVirtual = true
		case 3:
			s.IsVirtual = true
			if _, err := d.number(); err != nil {
				return nil, err
			}
		}
	}

	fn, err := d.signature(hasThis)
	if err != nil {
		return nil, err
	}
	if conversion {
		if fn.Result == nil {
			return nil, ErrInvalidMangled
		}
		name.Components[len(name.Components)-1] = "operator " + fn.Result.String()
		fn.Result = nil
	}
	s.Signature = fn
	return s, nil
}

// signature decodes a function type after its 6 or access code.
func (d *demangler) signature(hasThis bool) (*Function, error) {
	fn := &Function{}
	if hasThis {
		d.pointerModifiers()
		if c := d.peek(); c == 'G' || c == 'H' {
			d.pos++
		}
		q, err := d.qualifiers()
		if err != nil {
			return nil, err
		}
		fn.This = q
	}

	cc, err := d.callingConvention()
	if err != nil {
		return nil, err
	}
	fn.Convention = cc

	if d.peek() == '@' {
		d.pos++
	} else {
		if fn.Result, err = d.typ(); err != nil {
			return nil, err
		}
	}

	if fn.Params, fn.Variadic, err = d.params(); err != nil {
		return nil, err
	}
	// Throw specification.
	if strings.HasPrefix(d.input[d.pos:], "_E") {
		d.pos += 2
	} else if d.peek() == 'Z' {
		d.pos++
	}
	return fn, nil
}

func (d *demangler) params() ([]Type, bool, error) {
	if d.peek() == 'X' {
		d.pos++
		return nil, false, nil
	}
	var out []Type
	for {
		switch d.peek() {
		case 0:
			return nil, false, ErrUnexpectedEnd
		case '@':
			d.pos++
			return out, false, nil
		case 'Z':
			d.pos++
			return out, true, nil
		}
		start := d.pos
		t, err := d.typ()
		if err != nil {
			return nil, false, err
		}
		if d.pos-start > 1 && len(d.refs.params) < maxBackrefs {
			d.refs.params = append(d.refs.params, t)
		}
		out = append(out, t)
	}
}

func (d *demangler) callingConvention() (CallingConvention, error) {
	switch d.next() {
	case 'A', 'B':
		return Cdecl, nil
	case 'C', 'D':
		return Pascal, nil
	case 'E', 'F':
		return Thiscall, nil
	case 'G', 'H':
		return Stdcall, nil
	case 'I', 'J':
		return Fastcall, nil
	case 'M', 'N':
		return Clrcall, nil
	case 'O', 'P':
		return Eabi, nil
	case 'Q':
		return Vectorcall, nil
	case 'S':
		return Swift, nil
	case 'W':
		return SwiftAsync, nil
	case 0:
		return 0, ErrUnexpectedEnd
	}
	return 0, ErrInvalidMangled
}

var builtins = map[byte]string{
	'C': "signed char",
	'D': "char",
	'E': "unsigned char",
	'F': "short",
	'G': "unsigned short",
	'H': "int",
	'I': "unsigned int",
	'J': "long",
	'K': "unsigned long",
	'M': "float",
	'N': "double",
	'O': "long double",
	'X': "void",
}

var extendedBuiltins = map[byte]string{
	'J': "__int64",
	'K': "unsigned __int64",
	'L': "__int128",
	'M': "unsigned __int128",
	'N': "bool",
	'Q': "char8_t",
	'S': "char16_t",
	'U': "char32_t",
	'W': "wchar_t",
}

func (d *demangler) typ() (Type, error) {
	c := d.next()
	if c >= '0' && c <= '9' {
		i := int(c - '0')
		if i >= len(d.refs.params) {
			return nil, ErrInvalidBackref
		}
		return d.refs.params[i], nil
	}
	if name, ok := builtins[c]; ok {
		return &Builtin{Name: name}, nil
	}

	switch c {
	case 0:
		return nil, ErrUnexpectedEnd
	case '_':
		if name, ok := extendedBuiltins[d.next()]; ok {
			return &Builtin{Name: name}, nil
		}
	case 'P':
		return d.pointer(PlainPointer, Qualifiers{})
	case 'Q':
		return d.pointer(PlainPointer, Qualifiers{Const: true})
	case 'R':
		return d.pointer(PlainPointer, Qualifiers{Volatile: true})
	case 'S':
		return d.pointer(PlainPointer, Qualifiers{Const: true, Volatile: true})
	case 'A':
		return d.pointer(LValueReference, Qualifiers{})
	case 'B':
		return d.pointer(LValueReference, Qualifiers{Volatile: true})
	case 'T':
		return d.tag("union")
	case 'U':
		return d.tag("struct")
	case 'V':
		return d.tag("class")
	case 'W':
		// The enum's underlying type code is ignored.
		d.next()
		return d.tag("enum")
	case 'Y':
		return d.array()
	case '?':
		q, err := d.qualifiers()
		if err != nil {
			return nil, err
		}
		t, err := d.typ()
		if err != nil {
			return nil, err
		}
		return &Qualified{Type: t, Quals: q}, nil
	case '$':
		if d.next() != '$' {
			break
		}
		switch d.next() {
		case 'Q':
			return d.pointer(RValueReference, Qualifiers{})
		case 'R':
			return d.pointer(RValueReference, Qualifiers{Volatile: true})
		case 'A':
			if d.next() != '6' {
				return nil, ErrUnknownType
			}
			return d.signature(false)
		case 'C':
			q, err := d.qualifiers()
			if err != nil {
				return nil, err
			}
			t, err := d.typ()
			if err != nil {
				return nil, err
			}
			return &Qualified{Type: t, Quals: q}, nil
		case 'T':
			return &Builtin{Name: "std::nullptr_t"}, nil
		}
	}
	return nil, ErrUnknownType
}

// pointer decodes the rest of a pointer or reference. quals apply to the
// pointer itself.
func (d *demangler) pointer(kind PointerKind, quals Qualifiers) (Type, error) {
	p := &Pointer{Kind: kind, Quals: quals}
	if d.peek() == '6' {
		d.pos++
		fn, err := d.signature(false)
		if err != nil {
			return nil, err
		}
		p.Pointee = fn
		return p, nil
	}

	d.pointerModifiers()
	c := d.peek()
	switch {
	case c == '8':
		d.pos++
		class, err := d.qualifiedName()
		if err != nil {
			return nil, err
		}
		fn, err := d.signature(true)
		if err != nil {
			return nil, err
		}
		p.Class, p.Pointee = class, fn
		return p, nil

	case c >= 'Q' && c <= 'T':
		d.pos++
		class, err := d.qualifiedName()
		if err != nil {
			return nil, err
		}
		t, err := d.typ()
		if err != nil {
			return nil, err
		}
		p.Class = class
		p.Pointee = &Qualified{Type: t, Quals: qualifiersFor(c - 'Q')}
		return p, nil
	}

	q, err := d.qualifiers()
	if err != nil {
		return nil, err
	}
	t, err := d.typ()
	if err != nil {
		return nil, err
	}
	p.Pointee = &Qualified{Type: t, Quals: q}
	return p, nil
}

// pointerModifiers skips __ptr64, __restrict and __unaligned.
func (d *demangler) pointerModifiers() {
	for {
		switch d.peek() {
		case 'E', 'I', 'F':
			d.pos++
		default:
			return
		}
	}
}

func (d *demangler) qualifiers() (Qualifiers, error) {
	c := d.next()
	if c >= 'A' && c <= 'D' {
		return qualifiersFor(c - 'A'), nil
	}
	if c == 0 {
		return Qualifiers{}, ErrUnexpectedEnd
	}
	return Qualifiers{}, ErrInvalidMangled
}

func qualifiersFor(bits byte) Qualifiers {
	return Qualifiers{Const: bits&1 != 0, Volatile: bits&2 != 0}
}

func (d *demangler) tag(keyword string) (Type, error) {
	name, err := d.qualifiedName()
	if err != nil {
		return nil, err
	}
	return &Tag{Keyword: keyword, Name: name}, nil
}

func (d *demangler) array() (Type, error) {
	n, err := d.number()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, ErrInvalidMangled
	}
	dims := make([]int64, n)
	for i := range dims {
		if dims[i], err = d.number(); err != nil {
			return nil, err
		}
	}
	elem, err := d.typ()
	if err != nil {
		return nil, err
	}
	return &Array{Element: elem, Dimensions: dims}, nil
}

// number decodes an encoded integer: a digit stands for one more than
// its value, otherwise hex digits A-P run up to '@'.
func (d *demangler) number() (int64, error) {
	neg := d.peek() == '?'
	if neg {
		d.pos++
	}
	var v int64
	if c := d.peek(); c >= '0' && c <= '9' {
		d.pos++
		v = int64(c-'0') + 1
	} else {
		for {
			c := d.next()
			if c == '@' {
				break
			}
			if c < 'A' || c > 'P' {
				return 0, ErrInvalidMangled
			}
			v = v<<4 | int64(c-'A')
		}
	}
	if neg {
		v = -v
	}
	return v, nil
}

// qualifiedName reads name fragments up to the terminating '@' and
// returns them outermost first.
func (d *demangler) qualifiedName() (*Name, error) {
	var parts []string
	for d.peek() != '@' {
		part, err := d.fragment()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	d.pos++
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return &Name{Components: parts}, nil
}

func (d *demangler) fragment() (string, error) {
	c := d.peek()
	switch {
	case c == 0:
		return "", ErrUnexpectedEnd
	case c >= '0' && c <= '9':
		d.pos++
		i := int(c - '0')
		if i >= len(d.refs.names) {
			return "", ErrInvalidBackref
		}
		return d.refs.names[i], nil
	case c == '?' && d.peekAt(1) == '$':
		return d.template()
	case c == '?' && d.peekAt(1) == 'A':
		d.pos++
		if _, err := d.simpleName(); err != nil {
			return "", err
		}
		s := "`anonymous namespace'"
		d.remember(s)
		return s, nil
	case c == '?':
		return "", ErrInvalidMangled
	}
	s, err := d.simpleName()
	if err != nil {
		return "", err
	}
	d.remember(s)
	return s, nil
}

func (d *demangler) simpleName() (string, error) {
	end := strings.IndexByte(d.input[d.pos:], '@')
	if end < 0 {
		return "", ErrUnexpectedEnd
	}
	if end == 0 {
		return "", ErrInvalidMangled
	}
	s := d.input[d.pos : d.pos+end]
	d.pos += end + 1
	return s, nil
}

func (d *demangler) template() (string, error) {
	d.pos += 2
	outer := d.refs
	d.refs = backrefs{}
	defer func() { d.refs = outer }()

	var name string
	var err error
	if d.peek() == '?' {
		d.pos++
		var kind specialKind
		if name, kind, err = d.specialName(); err == nil && kind != plainName {
			err = ErrUnknownOperator
		}
	} else {
		name, err = d.simpleName()
	}
	if err != nil {
		return "", err
	}
	d.remember(name)

	var args []string
	for d.peek() != '@' {
		arg, err := d.templateArg()
		if err != nil {
			return "", err
		}
		if arg != "" {
			args = append(args, arg)
		}
	}
	d.pos++

	full := name + "<" + strings.Join(args, ", ") + ">"
	outer.remember(full)
	return full, nil
}

// templateArg decodes one template argument. Empty parameter packs
// decode to "".
func (d *demangler) templateArg() (string, error) {
	rest := d.input[d.pos:]
	switch {
	case strings.HasPrefix(rest, "$$V"), strings.HasPrefix(rest, "$$Z"):
		d.pos += 3
		return "", nil
	case strings.HasPrefix(rest, "$S"):
		d.pos += 2
		return "", nil
	case strings.HasPrefix(rest, "$0"):
		d.pos += 2
		n, err := d.number()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	case strings.HasPrefix(rest, "$") && !strings.HasPrefix(rest, "$$"):
		return "", ErrUnknownType
	}
	t, err := d.typ()
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

var operators = map[byte]string{
	'2': "operator new",
	'3': "operator delete",
	'4': "operator=",
	'5': "operator>>",
	'6': "operator<<",
	'7': "operator!",
	'8': "operator==",
	'9': "operator!=",
	'A': "operator[]",
	'C': "operator->",
	'D': "operator*",
	'E': "operator++",
	'F': "operator--",
	'G': "operator-",
	'H': "operator+",
	'I': "operator&",
	'J': "operator->*",
	'K': "operator/",
	'L': "operator%",
	'M': "operator<",
	'N': "operator<=",
	'O': "operator>",
	'P': "operator>=",
	'Q': "operator,",
	'R': "operator()",
	'S': "operator~",
	'T': "operator^",
	'U': "operator|",
	'V': "operator&&",
	'W': "operator||",
	'X': "operator*=",
	'Y': "operator+=",
	'Z': "operator-=",
}

var extendedOperators = map[byte]string{
	'0': "operator/=",
	'1': "operator%=",
	'2': "operator>>=",
	'3': "operator<<=",
	'4': "operator&=",
	'5': "operator|=",
	'6': "operator^=",
	'7': "`vftable'",
	'8': "`vbtable'",
	'9': "`vcall'",
	'A': "`typeof'",
	'B': "`local static guard'",
	'D': "`vbase destructor'",
	'E': "`vector deleting destructor'",
	'F': "`default constructor closure'",
	'G': "`scalar deleting destructor'",
	'H': "`vector constructor iterator'",
	'I': "`vector destructor iterator'",
	'J': "`vector vbase constructor iterator'",
	'K': "`virtual displacement map'",
	'L': "`eh vector constructor iterator'",
	'M': "`eh vector destructor iterator'",
	'N': "`eh vector vbase constructor iterator'",
	'O': "`copy constructor closure'",
	'S': "`local vftable'",
	'T': "`local vftable constructor closure'",
	'U': "operator new[]",
	'V': "operator delete[]",
	'X': "`placement delete closure'",
	'Y': "`placement delete[] closure'",
}

var rttiNames = map[byte]string{
	'2': "`RTTI Base Class Array'",
	'3': "`RTTI Class Hierarchy Descriptor'",
	'4': "`RTTI Complete Object Locator'",
}

// specialName decodes the code after a leading '?' of a symbol name.
func (d *demangler) specialName() (string, specialKind, error) {
	c := d.next()
	switch c {
	case 0:
		return "", plainName, ErrUnexpectedEnd
	case '0':
		return "", constructor, nil
	case '1':
		return "", destructor, nil
	case 'B':
		return "operator", conversion, nil
	case '_':
		return d.extendedSpecialName()
	}
	if op, ok := operators[c]; ok {
		return op, plainName, nil
	}
	return "", plainName, ErrUnknownOperator
}

func (d *demangler) extendedSpecialName() (string, specialKind, error) {
	c := d.next()
	switch c {
	case 0:
		return "", plainName, ErrUnexpectedEnd
	case 'C':
		return "`string'", stringLiteral, nil
	case 'R':
		return d.rttiName()
	}
	if op, ok := extendedOperators[c]; ok {
		return op, plainName, nil
	}
	return "", plainName, ErrUnknownOperator
}

func (d *demangler) rttiName() (string, specialKind, error) {
	c := d.next()
	switch c {
	case '0':
		return "`RTTI Type Descriptor'", typeDescriptor, nil
	case '1':
		var n [4]string
		for i := range n {
			v, err := d.number()
			if err != nil {
				return "", plainName, err
			}
			n[i] = strconv.FormatInt(v, 10)
		}
		return "`RTTI Base Class Descriptor at (" + strings.Join(n[:], ",") + ")'", plainName, nil
	}
	if name, ok := rttiNames[c]; ok {
		return name, plainName, nil
	}
	return "", plainName, ErrUnknownOperator
}

func (d *demangler) remember(s string) {
	d.refs.remember(s)
}

func (r *backrefs) remember(s string) {
	if len(r.names) < maxBackrefs && !containsString(r.names, s) {
		r.names = append(r.names, s)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// stripTemplate drops the argument list of a template class name, so
// constructors of Foo<int> are named Foo.
func stripTemplate(name string) string {
	if i := strings.IndexByte(name, '<'); i > 0 {
		return name[:i]
	}
	return name
}

func (d *demangler) peek() byte {
	return d.peekAt(0)
}

func (d *demangler) peekAt(n int) byte {
	if d.pos+n >= len(d.input) {
		return 0
	}
	return d.input[d.pos+n]
}

func (d *demangler) next() byte {
	c := d.peek()
	if c != 0 {
		d.pos++
	}
	return c
}
