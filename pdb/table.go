package pdb

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// ErrInvalidPattern is returned by Search for a regular expression that
// does not compile.
var ErrInvalidPattern = errors.New("pdb: invalid search pattern")

// TypeTable indexes decoded records by index and by name. It is built
// once at load and is safe for concurrent use.
type TypeTable struct {
	begin   TypeIndex
	records []TypeRecord

	names    map[string][]TypeIndex // definitions, decode order
	forwards map[string][]TypeIndex // forward references, decode order
	unique   map[string]TypeIndex   // first definition per unique name
	sorted   []string

	fields sync.Map // TypeIndex -> fieldsResult

	xrefOnce sync.Once
	xrefs    map[TypeIndex][]TypeIndex
}

type fieldsResult struct {
	fl  *FieldList
	err error
}

func newTypeTable(begin TypeIndex, records []TypeRecord) *TypeTable {
	t := &TypeTable{
		begin:    begin,
		records:  records,
		names:    make(map[string][]TypeIndex),
		forwards: make(map[string][]TypeIndex),
		unique:   make(map[string]TypeIndex),
	}
	for _, rec := range records {
		name, unique, forward, ok := udtNames(rec)
		if !ok || name == "" {
			continue
		}
		ti := rec.Index()
		if forward {
			t.forwards[name] = append(t.forwards[name], ti)
			continue
		}
		t.names[name] = append(t.names[name], ti)
		if unique != "" {
			if _, dup := t.unique[unique]; !dup {
				t.unique[unique] = ti
			}
		}
	}

	t.sorted = make([]string, 0, len(t.names)+len(t.forwards))
	for name := range t.names {
		t.sorted = append(t.sorted, name)
	}
	for name := range t.forwards {
		if _, ok := t.names[name]; !ok {
			t.sorted = append(t.sorted, name)
		}
	}
	slices.Sort(t.sorted)
	return t
}

// udtNames extracts the naming information of aggregates and enums.
func udtNames(rec TypeRecord) (name, unique string, forward, ok bool) {
	switch r := rec.(type) {
	case *Aggregate:
		return r.Name, r.UniqueName, r.IsForward, true
	case *Enum:
		return r.Name, r.UniqueName, r.IsForward, true
	}
	return "", "", false, false
}

// Begin returns the first record index.
func (t *TypeTable) Begin() TypeIndex { return t.begin }

// End returns one past the last decoded record index.
func (t *TypeTable) End() TypeIndex { return t.begin + TypeIndex(len(t.records)) }

// Len returns the number of decoded records.
func (t *TypeTable) Len() int { return len(t.records) }

// ByIndex returns the record at ti. Built-in indices yield a synthesized
// *Primitive.
func (t *TypeTable) ByIndex(ti TypeIndex) (TypeRecord, bool) {
	if ti.IsSimpleType() {
		return primitiveFor(ti), true
	}
	if ti < t.begin || ti >= t.End() {
		return nil, false
	}
	return t.records[ti-t.begin], true
}

// All iterates over every decoded record in index order.
func (t *TypeTable) All() iter.Seq2[TypeIndex, TypeRecord] {
	return func(yield func(TypeIndex, TypeRecord) bool) {
		for i, rec := range t.records {
			if !yield(t.begin+TypeIndex(i), rec) {
				return
			}
		}
	}
}

// ByName yields the indices of the definitions named name in decode
// order. When the name has no definition its forward references are
// yielded instead.
func (t *TypeTable) ByName(name string) iter.Seq[TypeIndex] {
	return func(yield func(TypeIndex) bool) {
		list := t.names[name]
		if len(list) == 0 {
			list = t.forwards[name]
		}
		for _, ti := range list {
			if !yield(ti) {
				return
			}
		}
	}
}

// Lookup resolves name to a single index. Definitions sharing a unique
// name collapse to the first one decoded. Definitions with different
// unique names are ambiguous unless preferFirst is set.
func (t *TypeTable) Lookup(name string, preferFirst bool) (TypeIndex, error) {
	defs := t.names[name]
	if len(defs) == 0 {
		if fwd := t.forwards[name]; len(fwd) > 0 {
			return fwd[0], nil
		}
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if preferFirst {
		return defs[0], nil
	}

	first := t.uniqueName(defs[0])
	for _, ti := range defs[1:] {
		if t.uniqueName(ti) != first {
			return 0, fmt.Errorf("%w: %q has %d distinct definitions", ErrAmbiguous, name, t.distinctDefinitions(defs))
		}
	}
	return defs[0], nil
}

func (t *TypeTable) uniqueName(ti TypeIndex) string {
	rec, _ := t.ByIndex(ti)
	_, unique, _, _ := udtNames(rec)
	return unique
}

func (t *TypeTable) distinctDefinitions(defs []TypeIndex) int {
	seen := make(map[string]bool)
	for _, ti := range defs {
		seen[t.uniqueName(ti)] = true
	}
	return len(seen)
}

// Definition maps a forward reference to its full definition, matching
// by unique name first and by name second. Any other index, and forward
// references without a definition, map to themselves.
func (t *TypeTable) Definition(ti TypeIndex) TypeIndex {
	rec, ok := t.ByIndex(ti)
	if !ok {
		return ti
	}
	name, unique, forward, ok := udtNames(rec)
	if !ok || !forward {
		return ti
	}
	if unique != "" {
		if def, ok := t.unique[unique]; ok {
			return def
		}
	}
	_, isEnum := rec.(*Enum)
	for _, def := range t.names[name] {
		r, _ := t.ByIndex(def)
		if _, e := r.(*Enum); e == isEnum {
			return def
		}
	}
	return ti
}

// Names returns every distinct aggregate and enum name, sorted.
func (t *TypeTable) Names() []string {
	return slices.Clone(t.sorted)
}

// SearchOptions controls Search matching.
type SearchOptions struct {
	CaseInsensitive bool
	Regex           bool
}

// SearchResult is one matched type name.
type SearchResult struct {
	Name  string
	Index TypeIndex
}

// Search returns the names matching pattern, sorted by name. Without
// Regex the pattern is a substring; an empty pattern matches everything.
func (t *TypeTable) Search(pattern string, opts SearchOptions) ([]SearchResult, error) {
	match, err := matcher(pattern, opts)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, name := range t.sorted {
		if !match(name) {
			continue
		}
		ti, _ := t.Lookup(name, true)
		results = append(results, SearchResult{Name: name, Index: ti})
	}
	return results, nil
}

func matcher(pattern string, opts SearchOptions) (func(string) bool, error) {
	if opts.Regex {
		if opts.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
		}
		return re.MatchString, nil
	}
	if opts.CaseInsensitive {
		lower := strings.ToLower(pattern)
		return func(s string) bool { return strings.Contains(strings.ToLower(s), lower) }, nil
	}
	return func(s string) bool { return strings.Contains(s, pattern) }, nil
}

// Fields returns the field list at ti with LF_INDEX continuations merged
// and method groups expanded into Methods.
func (t *TypeTable) Fields(ti TypeIndex) (*FieldList, error) {
	if ti == 0 {
		return &FieldList{}, nil
	}
	if v, ok := t.fields.Load(ti); ok {
		r := v.(fieldsResult)
		return r.fl, r.err
	}
	fl, err := t.mergeFields(ti)
	v, _ := t.fields.LoadOrStore(ti, fieldsResult{fl, err})
	r := v.(fieldsResult)
	return r.fl, r.err
}

func (t *TypeTable) mergeFields(ti TypeIndex) (*FieldList, error) {
	merged := &FieldList{header: header{ti}}
	seen := make(map[TypeIndex]bool)
	for cur := ti; cur != 0; {
		if seen[cur] {
			return nil, fmt.Errorf("%w: field list %#x continues into itself", ErrUnresolvedReference, uint32(cur))
		}
		seen[cur] = true

		rec, ok := t.ByIndex(cur)
		if !ok {
			return nil, fmt.Errorf("%w: field list %#x", ErrUnresolvedReference, uint32(cur))
		}
		fl, ok := rec.(*FieldList)
		if !ok {
			if u, isUnknown := rec.(*Unknown); isUnknown && u.Err != nil {
				return nil, fmt.Errorf("%w: field list %#x: %w", ErrUnresolvedReference, uint32(cur), u.Err)
			}
			return nil, fmt.Errorf("%w: %#x is not a field list", ErrUnresolvedReference, uint32(cur))
		}

		methods, err := t.expandMethods(fl)
		if err != nil {
			return nil, err
		}
		merged.Members = append(merged.Members, fl.Members...)
		merged.Bases = append(merged.Bases, fl.Bases...)
		merged.Enumerators = append(merged.Enumerators, fl.Enumerators...)
		merged.Methods = append(merged.Methods, methods...)
		merged.Nested = append(merged.Nested, fl.Nested...)
		merged.HasVFPtr = merged.HasVFPtr || fl.HasVFPtr
		cur = fl.Continuation
	}
	return merged, nil
}

func (t *TypeTable) expandMethods(fl *FieldList) ([]Method, error) {
	if len(fl.groups) == 0 {
		return fl.Methods, nil
	}
	out := make([]Method, 0, len(fl.Methods)+len(fl.groups))
	g := 0
	flush := func(pos int) error {
		for ; g < len(fl.groups) && fl.groups[g].pos <= pos; g++ {
			group := fl.groups[g]
			rec, _ := t.ByIndex(group.list)
			ml, ok := rec.(*MethodList)
			if !ok {
				return fmt.Errorf("%w: method list %#x for %q", ErrUnresolvedReference, uint32(group.list), group.name)
			}
			for _, m := range ml.Methods {
				m.Name = group.name
				out = append(out, m)
			}
		}
		return nil
	}
	for i, m := range fl.Methods {
		if err := flush(i); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := flush(len(fl.Methods)); err != nil {
		return nil, err
	}
	return out, nil
}

// Args returns the parameter types of an argument list.
func (t *TypeTable) Args(ti TypeIndex) ([]TypeIndex, error) {
	if ti == 0 {
		return nil, nil
	}
	rec, _ := t.ByIndex(ti)
	al, ok := rec.(*ArgList)
	if !ok {
		return nil, fmt.Errorf("%w: %#x is not an argument list", ErrUnresolvedReference, uint32(ti))
	}
	return al.Args, nil
}

// References returns the indices the record at ti refers to directly, in
// record order. Built-in indices and zero are omitted.
func (t *TypeTable) References(ti TypeIndex) []TypeIndex {
	rec, ok := t.ByIndex(ti)
	if !ok {
		return nil
	}
	var refs []TypeIndex
	add := func(list ...TypeIndex) {
		for _, r := range list {
			if !r.IsSimpleType() {
				refs = append(refs, r)
			}
		}
	}

	switch r := rec.(type) {
	case *Pointer:
		add(r.Referent, r.ContainingClass)
	case *Array:
		add(r.Element)
	case *Modifier:
		add(r.Type)
	case *Bitfield:
		add(r.Type)
	case *Enum:
		add(r.Underlying)
	case *Procedure:
		add(r.ReturnType, r.ArgList)
	case *MemberFunction:
		add(r.ReturnType, r.Class, r.This, r.ArgList)
	case *ArgList:
		add(r.Args...)
	case *MethodList:
		for _, m := range r.Methods {
			add(m.Type)
		}
	case *Aggregate:
		if !r.IsForward {
			add(r.FieldList)
		}
	case *FieldList:
		fl, err := t.Fields(ti)
		if err != nil {
			return refs
		}
		for _, b := range fl.Bases {
			add(b.Type)
		}
		for _, m := range fl.Members {
			add(m.Type)
		}
		for _, m := range fl.Methods {
			add(m.Type)
		}
		for _, n := range fl.Nested {
			add(n.Type)
		}
	}
	return refs
}

// Xrefs returns the named aggregates whose definitions refer to ti,
// directly or through pointers, arrays, signatures and unnamed members.
// Results are in index order.
func (t *TypeTable) Xrefs(ti TypeIndex) []TypeIndex {
	t.xrefOnce.Do(t.buildXrefs)
	return slices.Clone(t.xrefs[t.Definition(ti)])
}

func (t *TypeTable) buildXrefs() {
	t.xrefs = make(map[TypeIndex][]TypeIndex)
	for ti, rec := range t.All() {
		agg, ok := rec.(*Aggregate)
		if !ok || agg.IsForward || IsAnonymous(agg.Name) {
			continue
		}
		for _, target := range t.namedReferences(ti) {
			t.xrefs[target] = append(t.xrefs[target], ti)
		}
	}
}

// namedReferences walks the records reachable from root until it meets a
// named aggregate or enum, and returns those in discovery order.
func (t *TypeTable) namedReferences(root TypeIndex) []TypeIndex {
	var found []TypeIndex
	seen := map[TypeIndex]bool{root: true}
	stack := slices.Clone(t.References(root))
	slices.Reverse(stack)
	for len(stack) > 0 {
		ti := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[ti] {
			continue
		}
		seen[ti] = true

		rec, _ := t.ByIndex(ti)
		if name, _, _, ok := udtNames(rec); ok && !IsAnonymous(name) {
			if def := t.Definition(ti); def != root && !slices.Contains(found, def) {
				found = append(found, def)
			}
			continue
		}
		next := t.References(ti)
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}
	return found
}

// IsAnonymous reports whether a type name is a compiler placeholder for
// an unnamed struct, union or enum.
func IsAnonymous(name string) bool {
	if name == "" {
		return true
	}
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return strings.HasPrefix(name, "<unnamed-") ||
		strings.HasPrefix(name, "<anonymous-") ||
		strings.HasPrefix(name, "__unnamed")
}
