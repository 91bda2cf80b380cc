// Package reconstruct turns the type records of a PDB file back into
// C++ declarations.
//
// A Reconstructor is safe for concurrent use. Each request takes its own
// Policy, so requests with different formatting never interfere.
package reconstruct

import (
	"fmt"
	"slices"

	"github.com/skdltmxn/resym-go/pdb"
)

// Reconstructor renders declarations from one loaded file.
type Reconstructor struct {
	file *pdb.File
}

// New returns a Reconstructor over f.
func New(f *pdb.File) *Reconstructor {
	return &Reconstructor{file: f}
}

// TypeByName reconstructs the type called name. The parameters mirror
// the fields of Policy; see Reconstructor.Type.
func TypeByName(
	f *pdb.File,
	name string,
	flavor PrimitiveFlavor,
	access AccessFlavor,
	dependencies bool,
	hex bool,
	sizeInfo bool,
	offsetInfo bool,
	bracketsOnNewLine bool,
	ignoreStd bool,
) (string, []string, error) {
	return New(f).Type(name, Policy{
		PrimitiveFlavor:         flavor,
		AccessFlavor:            access,
		ReconstructDependencies: dependencies,
		IntegersAsHex:           hex,
		PrintSizeInfo:           sizeInfo,
		PrintOffsetInfo:         offsetInfo,
		BracketsOnNewLine:       bracketsOnNewLine,
		IgnoreStdTypes:          ignoreStd,
	})
}

// Type reconstructs the aggregate or enum called name. It returns the
// declaration text and the names of the types the root refers to
// directly. With ReconstructDependencies set the text also holds the
// definitions of every referenced type, dependencies first, preceded by
// the forward declarations needed to break reference cycles.
//
// Failures are *Error values matching ErrNotFound, ErrAmbiguous,
// ErrLayoutFailed, ErrUnresolvedReference or ErrInvalidPolicy.
func (r *Reconstructor) Type(name string, p Policy) (string, []string, error) {
	if err := p.Validate(); err != nil {
		return "", nil, &Error{Name: name, Err: err}
	}
	ti, err := r.file.Types().Lookup(name, p.PreferFirstMatch)
	if err != nil {
		return "", nil, &Error{Name: name, Err: err}
	}
	text, deps, err := r.render(ti, p)
	if err != nil {
		return "", nil, &Error{Name: name, Err: err}
	}
	return text, deps, nil
}

// TypeAt reconstructs the aggregate or enum at ti.
func (r *Reconstructor) TypeAt(ti pdb.TypeIndex, p Policy) (string, []string, error) {
	name := fmt.Sprintf("%#x", uint32(ti))
	if err := p.Validate(); err != nil {
		return "", nil, &Error{Name: name, Err: err}
	}
	rec, ok := r.file.Types().ByIndex(ti)
	if !ok {
		return "", nil, &Error{Name: name, Err: fmt.Errorf("%w: type %s", ErrNotFound, name)}
	}
	switch rec.(type) {
	case *pdb.Aggregate, *pdb.Enum:
	default:
		return "", nil, &Error{Name: name, Err: fmt.Errorf("%w: %s is not a user-defined type", ErrNotFound, name)}
	}
	text, deps, err := r.render(ti, p)
	if err != nil {
		return "", nil, &Error{Name: name, Err: err}
	}
	return text, deps, nil
}

func (r *Reconstructor) render(ti pdb.TypeIndex, p Policy) (string, []string, error) {
	w := newWriter(r.file, p)
	ti = w.types.Definition(ti)

	deps, err := w.dependencyNames(ti)
	if err != nil {
		return "", nil, err
	}

	r.header(w)
	if !p.ReconstructDependencies {
		if err := w.definition(ti); err != nil {
			return "", nil, err
		}
		return w.String(), deps, nil
	}

	pl, err := w.planFrom(ti)
	if err != nil {
		return "", nil, err
	}
	for _, fwd := range pl.forward {
		if err := w.forward(fwd); err != nil {
			return "", nil, err
		}
	}
	for i, def := range pl.order {
		if i > 0 || len(pl.forward) > 0 {
			w.line(0, "")
		}
		if err := w.definition(def); err != nil {
			return "", nil, err
		}
	}
	return w.String(), deps, nil
}

func (r *Reconstructor) header(w *writer) {
	if !w.policy.PrintHeader {
		return
	}
	machine := r.file.Machine()
	if machine == "" {
		machine = "unknown"
	}
	w.line(0, "//")
	w.line(0, "// PDB file: "+r.file.Path())
	w.line(0, "// Image architecture: "+machine)
	w.line(0, "//")
	w.line(0, "")
}

// Xrefs returns the names of the types that refer to the type called
// name directly, sorted. std types are left out when the policy ignores
// them.
func (r *Reconstructor) Xrefs(name string, p Policy) ([]string, error) {
	types := r.file.Types()
	ti, err := types.Lookup(name, p.PreferFirstMatch)
	if err != nil {
		return nil, &Error{Name: name, Err: err}
	}

	var names []string
	for _, ref := range types.Xrefs(types.Definition(ti)) {
		rec, _ := types.ByIndex(ref)
		agg, ok := rec.(*pdb.Aggregate)
		if !ok || (p.IgnoreStdTypes && isStd(agg.Name)) {
			continue
		}
		names = append(names, agg.Name)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}
