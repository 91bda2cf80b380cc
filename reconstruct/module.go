package reconstruct

import (
	"fmt"

	"github.com/skdltmxn/resym-go/pdb"
)

// Module reconstructs the declarations found in the symbols of the
// module at index: typedefs, constants, variables and function
// prototypes, in symbol order.
func (r *Reconstructor) Module(index int, p Policy) (string, error) {
	name := fmt.Sprintf("module %d", index)
	if err := p.Validate(); err != nil {
		return "", &Error{Name: name, Err: err}
	}
	m, err := r.file.Module(index)
	if err != nil {
		return "", &Error{Name: name, Err: err}
	}
	syms, err := m.Symbols()
	if err != nil {
		return "", &Error{Name: m.Name(), Err: err}
	}

	w := newWriter(r.file, p)
	r.header(w)
	w.line(0, "// Module: "+m.Name())
	w.line(0, "")
	for _, sym := range syms {
		if err := w.symbol(sym); err != nil {
			return "", &Error{Name: m.Name(), Err: fmt.Errorf("symbol %q: %w", sym.Name(), err)}
		}
	}
	return w.String(), nil
}

// Module reconstructs the module at index of f.
func Module(f *pdb.File, index int, p Policy) (string, error) {
	return New(f).Module(index, p)
}

func (w *writer) symbol(sym pdb.Symbol) error {
	switch s := sym.(type) {
	case *pdb.UDTSymbol:
		if w.nameOf(w.types.Definition(s.Type)) == s.Name() {
			return w.forward(w.types.Definition(s.Type))
		}
		d, err := w.declare(s.Type, s.Name())
		if err != nil {
			return err
		}
		w.line(0, "typedef "+d+";")

	case *pdb.ConstantSymbol:
		d, err := w.declare(s.Type, s.Name())
		if err != nil {
			return err
		}
		value := s.Value.Decimal()
		if w.policy.IntegersAsHex {
			width := 0
			if p, ok := primitiveOf(w.types, s.Type); ok {
				width = p.Size()
			}
			value = s.Value.Hex(width)
		}
		w.line(0, "const "+d+" = "+value+";")

	case *pdb.DataSymbol:
		d, err := w.declare(s.Type, s.Name())
		if err != nil {
			return err
		}
		if s.IsThreadLocal {
			d = "thread_local " + d
		}
		if !s.IsGlobal {
			d = "static " + d
		}
		w.line(0, d+";")

	case *pdb.ProcedureSymbol:
		d, err := w.declare(s.Type, s.Name())
		if err != nil {
			return err
		}
		if !s.IsGlobal {
			d = "static " + d
		}
		w.line(0, d+";")
	}
	return nil
}
