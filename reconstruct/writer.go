package reconstruct

import (
	"fmt"
	"strings"

	"github.com/skdltmxn/resym-go/pdb"
)

// offsetWidth is the width of a "/* 0x0000 */ " prefix. Lines without an
// offset are padded to it so declarations stay aligned.
const offsetWidth = len("/* 0x0000 */ ")

// writer renders declarations for one request. It is not shared between
// goroutines.
type writer struct {
	types   *pdb.TypeTable
	layouts *pdb.Layouts
	policy  Policy
	b       strings.Builder
}

func newWriter(f *pdb.File, p Policy) *writer {
	return &writer{types: f.Types(), layouts: f.Layouts(), policy: p}
}

func (w *writer) line(indent int, s string) {
	for range indent {
		w.b.WriteString("  ")
	}
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

// open writes a block header and its opening brace. comment trails the
// brace.
func (w *writer) open(indent int, header, comment string) {
	if w.policy.BracketsOnNewLine {
		w.line(indent, header)
		w.line(indent, "{"+comment)
		return
	}
	w.line(indent, header+" {"+comment)
}

func (w *writer) sizeComment(size uint64) string {
	if !w.policy.PrintSizeInfo {
		return ""
	}
	return fmt.Sprintf(" /* Size=0x%x */", size)
}

func (w *writer) offsetComment(f pdb.FieldLayout) string {
	if !w.policy.PrintOffsetInfo {
		return ""
	}
	if f.IsBitfield {
		return fmt.Sprintf("/* 0x%04x: bits %d-%d */ ", f.Offset, f.BitOffset, int(f.BitOffset)+int(f.BitWidth)-1)
	}
	return w.blockOffset(f.Offset)
}

// blockOffset prefixes a nested union or struct. Bit ranges belong to
// the members inside.
func (w *writer) blockOffset(offset uint64) string {
	if !w.policy.PrintOffsetInfo {
		return ""
	}
	return fmt.Sprintf("/* 0x%04x */ ", offset)
}

func (w *writer) padding() string {
	if !w.policy.PrintOffsetInfo {
		return ""
	}
	return strings.Repeat(" ", offsetWidth)
}

func (w *writer) String() string {
	return w.b.String()
}

// forward writes a forward declaration of a named aggregate or enum.
func (w *writer) forward(ti pdb.TypeIndex) error {
	rec, _ := w.types.ByIndex(ti)
	switch r := rec.(type) {
	case *pdb.Aggregate:
		w.line(0, r.Kind.String()+" "+r.Name+";")
	case *pdb.Enum:
		head, err := w.enumHeader(r)
		if err != nil {
			return err
		}
		w.line(0, head+";")
	default:
		return unresolved("type %#x cannot be forward declared", uint32(ti))
	}
	return nil
}

// definition writes the full declaration of a named aggregate or enum.
// A forward reference without a definition is written as a forward
// declaration.
func (w *writer) definition(ti pdb.TypeIndex) error {
	ti = w.types.Definition(ti)
	rec, ok := w.types.ByIndex(ti)
	if !ok {
		return unresolved("type %#x", uint32(ti))
	}
	switch r := rec.(type) {
	case *pdb.Aggregate:
		if r.IsForward {
			return w.forward(ti)
		}
		return w.aggregate(ti, r)
	case *pdb.Enum:
		if r.IsForward {
			return w.forward(ti)
		}
		return w.enum(r)
	}
	return unresolved("type %#x is not a user-defined type (%T)", uint32(ti), rec)
}

func (w *writer) enumHeader(e *pdb.Enum) (string, error) {
	head := "enum "
	if e.IsScoped {
		head += "class "
	}
	head += e.Name
	if e.Underlying != 0 {
		base, err := w.typeName(e.Underlying)
		if err != nil {
			return "", err
		}
		head += " : " + base
	}
	return head, nil
}

func (w *writer) enum(e *pdb.Enum) error {
	head, err := w.enumHeader(e)
	if err != nil {
		return err
	}
	fl, err := w.types.Fields(e.FieldList)
	if err != nil {
		return err
	}
	width := 0
	if p, ok := primitiveOf(w.types, e.Underlying); ok {
		width = p.Size()
	}

	w.open(0, head, "")
	for _, v := range fl.Enumerators {
		value := v.Value.Decimal()
		if w.policy.IntegersAsHex {
			value = v.Value.Hex(width)
		}
		w.line(1, v.Name+" = "+value+",")
	}
	w.line(0, "};")
	return nil
}
