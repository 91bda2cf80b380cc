package reconstruct

import (
	"strings"

	"github.com/skdltmxn/resym-go/pdb"
	"modernc.org/mathutil"
)

// item is one non-static data member with its placement. Offsets are
// absolute within the root aggregate.
type item struct {
	member pdb.Member
	field  pdb.FieldLayout
}

func (it *item) start() uint64 { return it.field.BitStart() }
func (it *item) end() uint64   { return it.field.BitEnd() }

// node is either a single member or an anonymous union or struct block
// rebuilt from overlapping offsets.
type node struct {
	item  *item
	union bool
	nodes []node
}

// first returns the first member inside n.
func (n *node) first() *item {
	for n.item == nil {
		n = &n.nodes[0]
	}
	return n.item
}

// structNodes groups a run of members laid out one after another. A
// member that shares its start with a later member opens a union that
// extends over every member overlapping the alternatives.
func structNodes(items []item) []node {
	var out []node
	for i := 0; i < len(items); {
		start := items[i].start()
		last := -1
		for j := i + 1; j < len(items); j++ {
			if items[j].start() == start {
				last = j
			}
		}
		if last < 0 {
			out = append(out, node{item: &items[i]})
			i++
			continue
		}

		var end uint64
		for k := i; k <= last; k++ {
			end = mathutil.MaxUint64(end, items[k].end())
		}
		k := last + 1
		for k < len(items) && items[k].start() < end {
			end = mathutil.MaxUint64(end, items[k].end())
			k++
		}
		out = append(out, node{union: true, nodes: unionNodes(items[i:k])})
		i = k
	}
	return out
}

// unionNodes splits the members of a union into alternatives, each
// starting at the union's first offset. Multi-member alternatives become
// anonymous structs.
func unionNodes(items []item) []node {
	if len(items) == 0 {
		return nil
	}
	base := items[0].start()
	var out []node
	begin := 0
	flush := func(endIdx int) {
		alt := items[begin:endIdx]
		if len(alt) == 1 {
			out = append(out, node{item: &alt[0]})
		} else {
			out = append(out, node{nodes: structNodes(alt)})
		}
	}
	for i := 1; i < len(items); i++ {
		if items[i].start() == base {
			flush(i)
			begin = i
		}
	}
	flush(len(items))
	return out
}

// accessState tracks the access specifier in effect while members are
// written.
type accessState struct {
	flavor  AccessFlavor
	def     pdb.Access
	current pdb.Access
}

func newAccessState(flavor AccessFlavor, kind pdb.AggregateKind) *accessState {
	def := pdb.AccessPublic
	if kind == pdb.KindClass {
		def = pdb.AccessPrivate
	}
	return &accessState{flavor: flavor, def: def, current: def}
}

// keyword returns the specifier line to write before a member with
// access acc, if any.
func (a *accessState) keyword(acc pdb.Access) (string, bool) {
	if acc == pdb.AccessNone {
		acc = a.def
	}
	switch a.flavor {
	case Always:
		a.current = acc
		return acc.String() + ":", true
	case Automatic:
		if acc == a.current {
			return "", false
		}
		a.current = acc
		return acc.String() + ":", true
	}
	return "", false
}

func (w *writer) aggregate(ti pdb.TypeIndex, agg *pdb.Aggregate) error {
	layout, err := w.layouts.Of(ti)
	if err != nil {
		return layoutFailure(err)
	}
	fl, err := w.types.Fields(agg.FieldList)
	if err != nil {
		return err
	}

	head := agg.Kind.String() + " " + agg.Name
	bases, err := w.baseList(fl.Bases)
	if err != nil {
		return err
	}
	if bases != "" {
		head += " : " + bases
	}

	w.open(0, head, w.sizeComment(agg.Size))
	access := newAccessState(w.policy.AccessFlavor, agg.Kind)

	items := collectItems(fl.Members, layout.Fields, 0)
	var nodes []node
	if agg.Kind == pdb.KindUnion {
		nodes = unionNodes(items)
	} else {
		nodes = structNodes(items)
	}
	for i := range nodes {
		if kw, ok := access.keyword(nodes[i].first().member.Access); ok {
			w.line(0, kw)
		}
		if err := w.node(&nodes[i], 1, 0); err != nil {
			return err
		}
	}

	for _, m := range fl.Members {
		if !m.IsStatic {
			continue
		}
		if kw, ok := access.keyword(m.Access); ok {
			w.line(0, kw)
		}
		d, err := w.declare(m.Type, m.Name)
		if err != nil {
			return err
		}
		w.line(1, w.padding()+"static "+d+";")
	}

	for _, m := range fl.Methods {
		if m.IsCompilerGenerated {
			continue
		}
		d, err := w.method(agg.Name, m)
		if err != nil {
			return err
		}
		if kw, ok := access.keyword(m.Access); ok {
			w.line(0, kw)
		}
		w.line(1, w.padding()+d+";")
	}

	w.line(0, "};")
	return nil
}

func (w *writer) baseList(bases []pdb.BaseClass) (string, error) {
	var parts []string
	for _, b := range bases {
		if b.IsIndirect {
			continue
		}
		name, err := w.typeName(b.Type)
		if err != nil {
			return "", err
		}
		var s []string
		if b.Access != pdb.AccessNone {
			s = append(s, b.Access.String())
		}
		if b.IsVirtual {
			s = append(s, "virtual")
		}
		parts = append(parts, strings.Join(append(s, name), " "))
	}
	return strings.Join(parts, ", "), nil
}

// collectItems pairs the non-static members with their layouts, shifting
// offsets by base.
func collectItems(members []pdb.Member, fields []pdb.FieldLayout, base uint64) []item {
	items := make([]item, 0, len(fields))
	i := 0
	for _, m := range members {
		if m.IsStatic || i >= len(fields) {
			continue
		}
		f := fields[i]
		f.Offset += base
		items = append(items, item{member: m, field: f})
		i++
	}
	return items
}

func (w *writer) node(n *node, indent, depth int) error {
	if n.item != nil {
		return w.member(n.item, indent, depth)
	}
	kind := "struct"
	if n.union {
		kind = "union"
	}
	w.open(indent, w.blockOffset(n.first().field.Offset)+kind, "")
	for i := range n.nodes {
		if err := w.node(&n.nodes[i], indent+1, depth); err != nil {
			return err
		}
	}
	w.line(indent, w.padding()+"};")
	return nil
}

func (w *writer) member(it *item, indent, depth int) error {
	prefix := w.offsetComment(it.field)
	if agg, ti, ok := w.unnamed(it.member.Type); ok {
		return w.inline(it, ti, agg, prefix, indent, depth)
	}

	d, err := w.declare(it.member.Type, it.member.Name)
	if err != nil {
		return err
	}
	if it.field.IsBitfield {
		d += " : " + w.integer(uint64(it.field.BitWidth))
	}
	w.line(indent, prefix+d+";")
	return nil
}

// unnamed returns the definition of ti when it is an unnamed aggregate.
func (w *writer) unnamed(ti pdb.TypeIndex) (*pdb.Aggregate, pdb.TypeIndex, bool) {
	rec, _ := w.types.ByIndex(ti)
	agg, ok := rec.(*pdb.Aggregate)
	if !ok || !pdb.IsAnonymous(agg.Name) {
		return nil, 0, false
	}
	def := w.types.Definition(ti)
	rec, _ = w.types.ByIndex(def)
	agg, ok = rec.(*pdb.Aggregate)
	if !ok || agg.IsForward {
		return nil, 0, false
	}
	return agg, def, true
}

// inline writes a member of unnamed aggregate type as a nested block.
func (w *writer) inline(it *item, ti pdb.TypeIndex, agg *pdb.Aggregate, prefix string, indent, depth int) error {
	if depth >= maxTypeDepth {
		return unresolved("unnamed type %#x nests too deeply", uint32(ti))
	}
	layout, err := w.layouts.Of(ti)
	if err != nil {
		return layoutFailure(err)
	}
	fl, err := w.types.Fields(agg.FieldList)
	if err != nil {
		return err
	}

	kind := "struct"
	if agg.Kind == pdb.KindUnion {
		kind = "union"
	}
	w.open(indent, prefix+kind, "")

	items := collectItems(fl.Members, layout.Fields, it.field.Offset)
	var nodes []node
	if agg.Kind == pdb.KindUnion {
		nodes = unionNodes(items)
	} else {
		nodes = structNodes(items)
	}
	for i := range nodes {
		if err := w.node(&nodes[i], indent+1, depth+1); err != nil {
			return err
		}
	}

	end := w.padding() + "}"
	if it.member.Name != "" {
		end += " " + it.member.Name
	}
	w.line(indent, end+";")
	return nil
}

// method renders one member function declaration without the trailing
// semicolon.
func (w *writer) method(class string, m pdb.Method) (string, error) {
	rec, ok := w.types.ByIndex(m.Type)
	if !ok {
		return "", unresolved("method %q type %#x", m.Name, uint32(m.Type))
	}
	mf, ok := rec.(*pdb.MemberFunction)
	if !ok {
		return w.declare(m.Type, m.Name)
	}

	params, err := w.params(mf.ArgList, 0)
	if err != nil {
		return "", err
	}
	d := m.Name + "(" + params + ")" + w.thisQualifiers(mf)
	if !isStructor(class, m.Name) {
		if d, err = w.declare(mf.ReturnType, d); err != nil {
			return "", err
		}
	}

	switch {
	case m.Kind.IsVirtual():
		d = "virtual " + d
	case m.Kind == pdb.MethodStatic:
		d = "static " + d
	}
	if m.Kind.IsPure() {
		d += " = 0"
	}
	return d, nil
}

// isStructor reports whether name is a constructor or destructor of class.
func isStructor(class, name string) bool {
	if strings.HasPrefix(name, "~") {
		return true
	}
	return name == shortName(class)
}

// shortName strips the enclosing scopes from a qualified name, ignoring
// separators inside template arguments.
func shortName(name string) string {
	depth := 0
	start := 0
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ':':
			if depth == 0 && i+1 < len(name) && name[i+1] == ':' {
				start = i + 2
				i++
			}
		}
	}
	return name[start:]
}
