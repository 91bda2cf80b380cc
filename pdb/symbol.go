package pdb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/skdltmxn/resym-go/internal/demangle"
	"github.com/skdltmxn/resym-go/internal/symbols"
)

// SymbolKind identifies the type of symbol.
type SymbolKind uint16

const (
	SymbolKindUnknown SymbolKind = iota
	SymbolKindUDT
	SymbolKindConstant
	SymbolKindData
	SymbolKindProcedure
	SymbolKindPublic
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolKindUDT:
		return "udt"
	case SymbolKindConstant:
		return "constant"
	case SymbolKindData:
		return "data"
	case SymbolKindProcedure:
		return "procedure"
	case SymbolKindPublic:
		return "public"
	default:
		return "unknown"
	}
}

// Symbol is implemented by *UDTSymbol, *ConstantSymbol, *DataSymbol,
// *ProcedureSymbol and *PublicSymbol.
type Symbol interface {
	Name() string

	// DemangledName returns the C++ declaration an MSVC decorated name
	// stands for, or the raw name if it is not decorated.
	DemangledName() string

	Kind() SymbolKind
}

type baseSymbol struct {
	name string

	demangledOnce sync.Once
	demangledName string
}

func (s *baseSymbol) Name() string { return s.name }

func (s *baseSymbol) DemangledName() string {
	s.demangledOnce.Do(func() {
		s.demangledName = demangle.Simple(s.name)
	})
	return s.demangledName
}

// UDTSymbol binds a typedef or tag name to a type.
type UDTSymbol struct {
	baseSymbol
	Type TypeIndex
}

func (s *UDTSymbol) Kind() SymbolKind { return SymbolKindUDT }

// ConstantSymbol is a named compile-time constant.
type ConstantSymbol struct {
	baseSymbol
	Type  TypeIndex
	Value Numeric
}

func (s *ConstantSymbol) Kind() SymbolKind { return SymbolKindConstant }

// DataSymbol is a global, file-static or thread-local variable.
type DataSymbol struct {
	baseSymbol
	Type          TypeIndex
	Section       uint16
	Offset        uint32
	IsGlobal      bool
	IsThreadLocal bool
}

func (s *DataSymbol) Kind() SymbolKind { return SymbolKindData }

// ProcedureSymbol is a function with full debug info.
type ProcedureSymbol struct {
	baseSymbol
	Type     TypeIndex
	Section  uint16
	Offset   uint32
	Length   uint32
	IsGlobal bool
}

func (s *ProcedureSymbol) Kind() SymbolKind { return SymbolKindProcedure }

// PublicSymbol is a linker-visible name without type information.
type PublicSymbol struct {
	baseSymbol
	Section    uint16
	Offset     uint32
	IsFunction bool
}

func (s *PublicSymbol) Kind() SymbolKind { return SymbolKindPublic }

// parseSymbols converts the records of a symbol stream. Record kinds
// without a model are skipped. Damaged records are reported through the
// joined error while the rest are still returned.
func parseSymbols(data []byte) ([]Symbol, error) {
	var (
		result []Symbol
		errs   []error
	)
	for rec, err := range symbols.Records(data) {
		if err != nil {
			errs = append(errs, err)
			break
		}
		sym, err := convertSymbol(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("symbol at offset %d: %w", rec.Offset, err))
			continue
		}
		if sym != nil {
			result = append(result, sym)
		}
	}
	return result, errors.Join(errs...)
}

func convertSymbol(rec symbols.Record) (Symbol, error) {
	switch {
	case rec.Kind == symbols.S_UDT || rec.Kind == symbols.S_UDT_ST:
		udt, err := symbols.ParseUDTSym(rec)
		if err != nil {
			return nil, err
		}
		return &UDTSymbol{baseSymbol: baseSymbol{name: udt.Name}, Type: udt.Type}, nil

	case rec.Kind == symbols.S_CONSTANT || rec.Kind == symbols.S_CONSTANT_ST:
		c, err := symbols.ParseConstantSym(rec)
		if err != nil {
			return nil, err
		}
		return &ConstantSymbol{baseSymbol: baseSymbol{name: c.Name}, Type: c.Type, Value: c.Value}, nil

	case rec.Kind.IsData():
		d, err := symbols.ParseDataSym(rec)
		if err != nil {
			return nil, err
		}
		return &DataSymbol{
			baseSymbol:    baseSymbol{name: d.Name},
			Type:          d.Type,
			Section:       d.Segment,
			Offset:        d.Offset,
			IsGlobal:      !rec.Kind.IsLocal(),
			IsThreadLocal: rec.Kind.IsThreadLocal(),
		}, nil

	case rec.Kind.IsProc():
		p, err := symbols.ParseProcSym(rec)
		if err != nil {
			return nil, err
		}
		return &ProcedureSymbol{
			baseSymbol: baseSymbol{name: p.Name},
			Type:       p.FunctionType,
			Section:    p.Segment,
			Offset:     p.CodeOffset,
			Length:     p.CodeSize,
			IsGlobal:   !rec.Kind.IsLocal(),
		}, nil

	case rec.Kind == symbols.S_PUB32:
		p, err := symbols.ParsePublicSym(rec)
		if err != nil {
			return nil, err
		}
		return &PublicSymbol{
			baseSymbol: baseSymbol{name: p.Name},
			Section:    p.Segment,
			Offset:     p.Offset,
			IsFunction: p.IsFunction(),
		}, nil
	}
	return nil, nil
}
