package pdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/skdltmxn/resym-go/internal/dbi"
	"github.com/skdltmxn/resym-go/internal/tpi"
	"github.com/skdltmxn/resym-go/msf"
)

// PDB info stream versions.
const (
	InfoVersionVC70Dep uint32 = 19990604
	InfoVersionVC70    uint32 = 20000404
	InfoVersionVC80    uint32 = 20030901
	InfoVersionVC110   uint32 = 20091201
	InfoVersionVC140   uint32 = 20140508
)

// DefaultPointerSize is assumed when the DBI stream cannot be read.
const DefaultPointerSize = 8

var errUnsupportedInfo = errors.New("pdb: unsupported info stream version")

// File is a loaded PDB. Every type record is decoded during loading; the
// result is immutable and safe for concurrent use. Symbol streams are
// read on demand through the open handle.
type File struct {
	path   string
	msf    *msf.File
	mu     sync.Mutex
	closed bool

	info       Info
	typeBytes  []byte
	tpiHeader  *tpi.Header
	types      *TypeTable
	layouts    *Layouts
	decodeErrs []*DecodeError

	dbi    *dbi.Stream
	dbiErr error

	globalsOnce sync.Once
	globals     []Symbol
	globalsErr  error
}

// Info holds the PDB info stream header.
type Info struct {
	Version   uint32
	Signature uint32
	Age       uint32
	GUID      [16]byte
}

// GUIDString formats the GUID in registry form.
func (i Info) GUIDString() string {
	g := i.GUID
	return fmt.Sprintf("%08X-%04X-%04X-%X-%X",
		binary.LittleEndian.Uint32(g[0:4]),
		binary.LittleEndian.Uint16(g[4:6]),
		binary.LittleEndian.Uint16(g[6:8]),
		g[8:10], g[10:16])
}

// LoadFromFile opens and decodes the PDB at path. Failures are *LoadError.
func LoadFromFile(path string) (*File, error) {
	m, err := msf.Open(path)
	if err != nil {
		return nil, newLoadError(path, err)
	}
	f, err := load(m, path)
	if err != nil {
		m.Close()
		return nil, err
	}
	return f, nil
}

// Open is LoadFromFile.
func Open(path string) (*File, error) {
	return LoadFromFile(path)
}

// OpenReader decodes a PDB from r. The caller keeps ownership of r and
// must keep it readable until the File is closed.
func OpenReader(r io.ReaderAt, size int64) (*File, error) {
	m, err := msf.NewFile(r, size)
	if err != nil {
		return nil, newLoadError("", err)
	}
	return load(m, "")
}

func newLoadError(path string, err error) *LoadError {
	kind := LoadInvalidFormat
	switch {
	case errors.Is(err, msf.ErrRead):
		kind = LoadIO
	case errors.Is(err, msf.ErrLegacyFormat),
		errors.Is(err, tpi.ErrUnsupportedVersion),
		errors.Is(err, errUnsupportedInfo):
		kind = LoadUnsupportedVersion
	}
	return &LoadError{Kind: kind, Path: path, Err: err}
}

func load(m *msf.File, path string) (*File, error) {
	f := &File{path: path, msf: m}

	if _, err := m.Directory(); err != nil {
		return nil, newLoadError(path, err)
	}
	if err := f.loadInfo(); err != nil {
		return nil, newLoadError(path, err)
	}
	if err := f.loadTypes(); err != nil {
		return nil, newLoadError(path, err)
	}
	f.loadDBI()
	f.layouts = NewLayouts(f.types, f.PointerSize())
	return f, nil
}

func (f *File) loadInfo() error {
	data, err := f.msf.ReadStream(msf.StreamPDBInfo)
	if err != nil {
		return fmt.Errorf("info stream: %w", err)
	}
	if len(data) < 28 {
		return fmt.Errorf("%w: info stream is %d bytes", msf.ErrInvalidFormat, len(data))
	}
	f.info.Version = binary.LittleEndian.Uint32(data[0:])
	f.info.Signature = binary.LittleEndian.Uint32(data[4:])
	f.info.Age = binary.LittleEndian.Uint32(data[8:])
	copy(f.info.GUID[:], data[12:28])

	if f.info.Version > InfoVersionVC140 || f.info.Version < InfoVersionVC70Dep {
		return fmt.Errorf("%w: %d", errUnsupportedInfo, f.info.Version)
	}
	return nil
}

func (f *File) loadTypes() error {
	data, err := f.msf.ReadStream(msf.StreamTPI)
	if err != nil {
		return fmt.Errorf("type stream: %w", err)
	}
	h, err := tpi.ParseHeader(data)
	if err != nil {
		return err
	}
	f.typeBytes, f.tpiHeader = data, h

	raws, err := tpi.Records(h, data)
	records, problems := decodeRecords(raws)
	f.decodeErrs = problems
	if err != nil {
		var fe *tpi.FrameError
		if errors.As(err, &fe) {
			kind := DecodeTruncated
			if errors.Is(err, tpi.ErrMalformed) {
				kind = DecodeMalformed
			}
			f.decodeErrs = append(f.decodeErrs, &DecodeError{Kind: kind, Index: fe.Index, Offset: fe.Offset, Err: fe.Err})
		}
	}

	f.types = newTypeTable(h.TypeIndexBegin, records)
	return nil
}

// loadDBI reads the DBI stream. Its absence does not fail the load; the
// error resurfaces from Modules and GlobalSymbols.
func (f *File) loadDBI() {
	if !f.msf.StreamExists(msf.StreamDBI) {
		f.dbiErr = fmt.Errorf("pdb: no DBI stream")
		return
	}
	data, err := f.msf.ReadStream(msf.StreamDBI)
	if err != nil {
		f.dbiErr = fmt.Errorf("pdb: read DBI stream: %w", err)
		return
	}
	f.dbi, f.dbiErr = dbi.ParseStream(data)
}

// Close releases the underlying file handle.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.msf.Close()
}

// Path returns the path the file was loaded from, or "" for readers.
func (f *File) Path() string { return f.path }

// Info returns the PDB info stream header.
func (f *File) Info() Info { return f.info }

// Types returns the type table.
func (f *File) Types() *TypeTable { return f.types }

// Layouts returns the shared layout resolver.
func (f *File) Layouts() *Layouts { return f.layouts }

// DecodeErrors returns the records that could not be fully decoded.
func (f *File) DecodeErrors() []*DecodeError { return f.decodeErrs }

// TypeStreamBytes returns the raw TPI stream.
func (f *File) TypeStreamBytes() []byte { return f.typeBytes }

// TypeStreamVersion returns the TPI header version.
func (f *File) TypeStreamVersion() uint32 { return f.tpiHeader.Version }

// SymbolStreamBytes returns the raw global symbol record stream.
func (f *File) SymbolStreamBytes() ([]byte, error) {
	if f.dbiErr != nil {
		return nil, f.dbiErr
	}
	idx := f.dbi.Header.SymRecordStreamIndex
	if idx == dbi.InvalidStreamIndex {
		return nil, nil
	}
	return f.msf.ReadStream(uint32(idx))
}

// PointerSize returns the target's pointer width.
func (f *File) PointerSize() int {
	if f.dbi == nil {
		return DefaultPointerSize
	}
	return f.dbi.Header.PointerSize()
}

// Machine returns the target machine name, or "" when unknown.
func (f *File) Machine() string {
	if f.dbi == nil {
		return ""
	}
	return f.dbi.Header.MachineName()
}

// BlockSize returns the container's block size.
func (f *File) BlockSize() uint32 {
	return f.msf.SuperBlock().BlockSize
}

// NumStreams returns the number of streams in the container.
func (f *File) NumStreams() int {
	dir, err := f.msf.Directory()
	if err != nil {
		return 0
	}
	return int(dir.NumStreams)
}

// Modules returns the compilands listed in the DBI stream.
func (f *File) Modules() ([]*Module, error) {
	if f.dbiErr != nil {
		return nil, f.dbiErr
	}
	modules := make([]*Module, len(f.dbi.Modules))
	for i := range f.dbi.Modules {
		modules[i] = &Module{file: f, index: i, info: &f.dbi.Modules[i]}
	}
	return modules, nil
}

// Module returns the module at index.
func (f *File) Module(index int) (*Module, error) {
	modules, err := f.Modules()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(modules) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrModuleNotFound, index, len(modules))
	}
	return modules[index], nil
}

// GlobalSymbols returns the records of the global symbol stream. On a
// damaged stream the symbols before the damage are returned with the
// error.
func (f *File) GlobalSymbols() ([]Symbol, error) {
	f.globalsOnce.Do(func() {
		data, err := f.SymbolStreamBytes()
		if err != nil {
			f.globalsErr = err
			return
		}
		f.globals, f.globalsErr = parseSymbols(data)
	})
	return f.globals, f.globalsErr
}

func (f *File) readStream(index uint16) ([]byte, error) {
	if index == dbi.InvalidStreamIndex {
		return nil, nil
	}
	return f.msf.ReadStream(uint32(index))
}
