package reconstruct

import (
	"slices"
	"strings"

	"github.com/skdltmxn/resym-go/pdb"
)

// edge is a reference from one named type to another. Complete edges
// need the target's definition first (by-value members, bases, array
// elements); the rest only need a declaration.
type edge struct {
	target   pdb.TypeIndex
	complete bool
}

// edges returns the named types the definition of ti refers to, in
// discovery order, each once. Unnamed aggregates are looked through
// since they are printed inline.
func (w *writer) edges(ti pdb.TypeIndex) ([]edge, error) {
	c := &edgeCollector{w: w, self: ti, seen: make(map[pdb.TypeIndex]bool), index: make(map[pdb.TypeIndex]int)}
	if err := c.aggregate(ti, true); err != nil {
		return nil, err
	}
	return c.out, nil
}

type edgeCollector struct {
	w     *writer
	self  pdb.TypeIndex
	seen  map[pdb.TypeIndex]bool // unnamed aggregates already walked
	index map[pdb.TypeIndex]int
	out   []edge
}

func (c *edgeCollector) add(ti pdb.TypeIndex, complete bool) {
	if ti == c.self {
		return
	}
	if i, ok := c.index[ti]; ok {
		c.out[i].complete = c.out[i].complete || complete
		return
	}
	c.index[ti] = len(c.out)
	c.out = append(c.out, edge{target: ti, complete: complete})
}

func (c *edgeCollector) aggregate(ti pdb.TypeIndex, complete bool) error {
	rec, _ := c.w.types.ByIndex(ti)
	agg, ok := rec.(*pdb.Aggregate)
	if !ok || agg.IsForward {
		return nil
	}
	fl, err := c.w.types.Fields(agg.FieldList)
	if err != nil {
		return err
	}
	for _, b := range fl.Bases {
		if err := c.ref(b.Type, complete, 0); err != nil {
			return err
		}
	}
	for _, m := range fl.Members {
		if err := c.ref(m.Type, complete && !m.IsStatic, 0); err != nil {
			return err
		}
	}
	for _, m := range fl.Methods {
		if m.IsCompilerGenerated {
			continue
		}
		if err := c.ref(m.Type, false, 0); err != nil {
			return err
		}
	}
	return nil
}

func (c *edgeCollector) ref(ti pdb.TypeIndex, complete bool, depth int) error {
	if ti.IsSimpleType() {
		return nil
	}
	if depth > maxTypeDepth {
		return unresolved("type %#x nests too deeply", uint32(ti))
	}
	rec, ok := c.w.types.ByIndex(ti)
	if !ok {
		return unresolved("type %#x", uint32(ti))
	}

	switch r := rec.(type) {
	case *pdb.Aggregate:
		def := c.w.types.Definition(ti)
		if pdb.IsAnonymous(r.Name) {
			if c.seen[def] {
				return nil
			}
			c.seen[def] = true
			return c.aggregate(def, complete)
		}
		c.add(def, complete)
	case *pdb.Enum:
		if !pdb.IsAnonymous(r.Name) {
			c.add(c.w.types.Definition(ti), complete)
		}
	case *pdb.Modifier:
		return c.ref(r.Type, complete, depth+1)
	case *pdb.Array:
		return c.ref(r.Element, complete, depth+1)
	case *pdb.Bitfield:
		return c.ref(r.Type, complete, depth+1)
	case *pdb.Pointer:
		if r.IsMemberPointer() {
			if err := c.ref(r.ContainingClass, false, depth+1); err != nil {
				return err
			}
		}
		return c.ref(r.Referent, false, depth+1)
	case *pdb.Procedure:
		return c.signature(r.ReturnType, r.ArgList, depth)
	case *pdb.MemberFunction:
		return c.signature(r.ReturnType, r.ArgList, depth)
	}
	return nil
}

func (c *edgeCollector) signature(ret, argList pdb.TypeIndex, depth int) error {
	if err := c.ref(ret, false, depth+1); err != nil {
		return err
	}
	args, err := c.w.types.Args(argList)
	if err != nil {
		return err
	}
	for _, a := range args {
		if err := c.ref(a, false, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// isStd reports whether a qualified name lives in the std namespace.
func isStd(name string) bool {
	return strings.HasPrefix(name, "std::")
}

func (w *writer) nameOf(ti pdb.TypeIndex) string {
	rec, _ := w.types.ByIndex(ti)
	switch r := rec.(type) {
	case *pdb.Aggregate:
		return r.Name
	case *pdb.Enum:
		return r.Name
	}
	return ""
}

// filterStd drops std edges when the policy elides them.
func (w *writer) filterStd(es []edge) []edge {
	if !w.policy.IgnoreStdTypes {
		return es
	}
	return slices.DeleteFunc(slices.Clone(es), func(e edge) bool {
		return isStd(w.nameOf(e.target))
	})
}

// plan is the emission order for a reconstruction with dependencies.
type plan struct {
	order   []pdb.TypeIndex // definitions, dependencies before dependents
	forward []pdb.TypeIndex // types referenced before their definition
}

const (
	unvisited = iota
	visiting
	visited
)

// planFrom orders the types reachable from root: a depth-first post-order
// over complete edges, so every by-value dependency precedes its user.
// Declaration-only targets are visited after their user and forward
// declared. Cycles end at types already being visited.
func (w *writer) planFrom(root pdb.TypeIndex) (*plan, error) {
	state := make(map[pdb.TypeIndex]int)
	edgesOf := make(map[pdb.TypeIndex][]edge)
	p := &plan{}

	var visit func(ti pdb.TypeIndex) error
	visit = func(ti pdb.TypeIndex) error {
		state[ti] = visiting
		es, err := w.edges(ti)
		if err != nil {
			return err
		}
		es = w.filterStd(es)
		edgesOf[ti] = es

		for _, e := range es {
			if e.complete && state[e.target] == unvisited {
				if err := visit(e.target); err != nil {
					return err
				}
			}
		}
		p.order = append(p.order, ti)
		state[ti] = visited
		for _, e := range es {
			if !e.complete && state[e.target] == unvisited {
				if err := visit(e.target); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}

	pos := make(map[pdb.TypeIndex]int, len(p.order))
	for i, ti := range p.order {
		pos[ti] = i
	}
	needed := make(map[pdb.TypeIndex]bool)
	for _, ti := range p.order {
		if w.isUndefined(ti) {
			needed[ti] = true
			continue
		}
		for _, e := range edgesOf[ti] {
			if pos[e.target] > pos[ti] {
				needed[e.target] = true
			}
		}
	}
	for _, ti := range p.order {
		if needed[ti] {
			p.forward = append(p.forward, ti)
		}
	}
	p.order = slices.DeleteFunc(p.order, w.isUndefined)
	return p, nil
}

// isUndefined reports whether ti is a forward reference with no
// definition anywhere in the file.
func (w *writer) isUndefined(ti pdb.TypeIndex) bool {
	rec, _ := w.types.ByIndex(ti)
	switch r := rec.(type) {
	case *pdb.Aggregate:
		return r.IsForward
	case *pdb.Enum:
		return r.IsForward
	}
	return false
}

// dependencyNames lists the named types root refers to directly.
func (w *writer) dependencyNames(root pdb.TypeIndex) ([]string, error) {
	es, err := w.edges(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range w.filterStd(es) {
		if name := w.nameOf(e.target); name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names, nil
}
