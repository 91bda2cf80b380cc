package pdb

import (
	"sync"

	"github.com/skdltmxn/resym-go/internal/dbi"
)

// Module is a compilation unit (object file) listed in the DBI stream.
type Module struct {
	file  *File
	index int
	info  *dbi.ModuleInfo

	symbolsOnce sync.Once
	symbols     []Symbol
	symbolsErr  error
}

// Index returns the module's position in the DBI module list.
func (m *Module) Index() int {
	return m.index
}

// Name returns the module name, typically the object file path.
func (m *Module) Name() string {
	return m.info.ModuleName
}

// ObjectFileName returns the object or library the module came from.
func (m *Module) ObjectFileName() string {
	return m.info.ObjFileName
}

// SourceFileCount returns the number of contributing source files.
func (m *Module) SourceFileCount() uint16 {
	return m.info.SourceFileCount
}

// HasSymbols reports whether the module has a symbol stream.
func (m *Module) HasSymbols() bool {
	return m.info.ModuleSymStreamIndex != dbi.InvalidStreamIndex && m.info.SymByteSize > 4
}

// Symbols returns the module's symbols in stream order. They are read on
// first use and cached.
func (m *Module) Symbols() ([]Symbol, error) {
	m.symbolsOnce.Do(func() {
		m.symbols, m.symbolsErr = m.parseSymbols()
	})
	return m.symbols, m.symbolsErr
}

func (m *Module) parseSymbols() ([]Symbol, error) {
	if !m.HasSymbols() {
		return nil, nil
	}
	data, err := m.file.readStream(m.info.ModuleSymStreamIndex)
	if err != nil {
		return nil, err
	}
	// The stream starts with a 4-byte signature; SymByteSize includes it.
	if len(data) < 4 {
		return nil, nil
	}
	data = data[4:]
	if n := int(m.info.SymByteSize) - 4; n < len(data) {
		data = data[:n]
	}
	return parseSymbols(data)
}
