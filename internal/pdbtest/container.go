package pdbtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skdltmxn/resym-go/internal/symbols"
	"github.com/skdltmxn/resym-go/internal/tpi"
	"github.com/skdltmxn/resym-go/msf"
	"modernc.org/mathutil"
)

// BlockSize is the MSF block size used by MSF.
const BlockSize = 512

// MSF lays streams out in an MSF 7.00 container: superblock, two free
// block map blocks, stream data, the directory and finally the block map.
func MSF(streams [][]byte) []byte {
	blocks := [][]byte{nil, nil, nil}
	place := func(data []byte) []uint32 {
		var idx []uint32
		for off := 0; off < len(data); off += BlockSize {
			idx = append(idx, uint32(len(blocks)))
			blocks = append(blocks, data[off:mathutil.Min(off+BlockSize, len(data))])
		}
		return idx
	}

	lists := make([][]uint32, len(streams))
	for i, s := range streams {
		lists[i] = place(s)
	}

	dir := (&Buffer{}).U32(uint32(len(streams)))
	for _, s := range streams {
		dir.U32(uint32(len(s)))
	}
	for _, l := range lists {
		for _, b := range l {
			dir.U32(b)
		}
	}
	dirBlocks := place(dir.Bytes())

	blockMap := &Buffer{}
	for _, b := range dirBlocks {
		blockMap.U32(b)
	}
	mapAddr := uint32(len(blocks))
	place(blockMap.Bytes())

	sb := (&Buffer{}).Raw([]byte(msf.Magic))
	sb.U32(BlockSize).U32(1).U32(uint32(len(blocks))).U32(uint32(dir.Len())).U32(0).U32(mapAddr)
	blocks[0] = sb.Bytes()

	out := make([]byte, len(blocks)*BlockSize)
	for i, b := range blocks {
		copy(out[i*BlockSize:], b)
	}
	return out
}

// Symbols accumulates symbol records.
type Symbols struct {
	b Buffer
}

func (s *Symbols) add(kind symbols.Kind, payload *Buffer) {
	payload.Align()
	s.b.U16(uint16(2 + payload.Len())).U16(uint16(kind)).Raw(payload.Bytes())
}

// Bytes returns the encoded records.
func (s *Symbols) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b.Bytes()
}

// UDT adds S_UDT.
func (s *Symbols) UDT(ti tpi.TypeIndex, name string) *Symbols {
	s.add(symbols.S_UDT, (&Buffer{}).U32(uint32(ti)).CString(name))
	return s
}

// Constant adds S_CONSTANT.
func (s *Symbols) Constant(ti tpi.TypeIndex, value int64, name string) *Symbols {
	s.add(symbols.S_CONSTANT, (&Buffer{}).U32(uint32(ti)).Signed(value).CString(name))
	return s
}

// Data adds S_GDATA32 or S_LDATA32.
func (s *Symbols) Data(global bool, ti tpi.TypeIndex, name string) *Symbols {
	kind := symbols.S_LDATA32
	if global {
		kind = symbols.S_GDATA32
	}
	s.add(kind, (&Buffer{}).U32(uint32(ti)).U32(0x1000).U16(1).CString(name))
	return s
}

// Proc adds S_GPROC32 or S_LPROC32 followed by S_END.
func (s *Symbols) Proc(global bool, ti tpi.TypeIndex, name string) *Symbols {
	kind := symbols.S_LPROC32
	if global {
		kind = symbols.S_GPROC32
	}
	b := (&Buffer{}).U32(0).U32(0).U32(0).U32(0x10).U32(0).U32(0x10)
	b.U32(uint32(ti)).U32(0x2000).U16(1).U8(0).CString(name)
	s.add(kind, b)
	s.add(symbols.S_END, &Buffer{})
	return s
}

// Public adds S_PUB32.
func (s *Symbols) Public(name string, function bool) *Symbols {
	var flags uint32
	if function {
		flags = 0x2
	}
	s.add(symbols.S_PUB32, (&Buffer{}).U32(flags).U32(0x1000).U16(1).CString(name))
	return s
}

// Module is one compiland and its symbol stream.
type Module struct {
	Name    string
	ObjName string
	Symbols *Symbols
}

// PDB assembles a complete container.
type PDB struct {
	Types       *Types
	Globals     *Symbols
	Modules     []Module
	Machine     uint16
	InfoVersion uint32
	Age         uint32
}

// New returns an x64 container description with no records.
func New() *PDB {
	return &PDB{
		Types:       NewTypes(),
		Globals:     &Symbols{},
		Machine:     0x8664,
		InfoVersion: 20000404,
		Age:         1,
	}
}

// Stream indices used by Bytes.
const (
	GlobalSymbolStream = 5
	firstModuleStream  = 6
)

// Bytes encodes the container.
func (p *PDB) Bytes() []byte {
	info := (&Buffer{}).U32(p.InfoVersion).U32(0x5F3759DF).U32(p.Age)
	info.Raw([]byte("0123456789abcdef")).U32(0).U32(0).U32(0).U32(0).U32(0)

	streams := [][]byte{
		nil,
		info.Bytes(),
		p.Types.Stream(),
		nil,
		NewTypes().Stream(),
		p.Globals.Bytes(),
	}

	mods := &Buffer{}
	for i, m := range p.Modules {
		body := (&Buffer{}).U32(4).Raw(m.Symbols.Bytes())
		streams = append(streams, body.Bytes())

		mods.U32(0)
		mods.U16(1).U16(0).U32(0).U32(0).U32(0).U16(uint16(i)).U16(0).U32(0).U32(0)
		mods.U16(0).U16(uint16(firstModuleStream + i)).U32(uint32(body.Len())).U32(0).U32(0)
		mods.U16(0).U16(0).U32(0).U32(0).U32(0)
		mods.CString(m.Name).CString(m.ObjName).Align()
	}

	dbi := &Buffer{}
	dbi.U32(0xFFFFFFFF).U32(19990903).U32(p.Age)
	dbi.U16(0xFFFF).U16(0x8e00).U16(0xFFFF).U16(0).U16(GlobalSymbolStream).U16(0)
	dbi.U32(uint32(mods.Len()))
	for range 7 {
		dbi.U32(0)
	}
	dbi.U16(0).U16(p.Machine).U32(0)
	dbi.Raw(mods.Bytes())
	streams[3] = dbi.Bytes()

	return MSF(streams)
}

// WriteFile writes the container to a temporary directory owned by tb and
// returns its path.
func (p *PDB) WriteFile(tb testing.TB) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "fixture.pdb")
	if err := os.WriteFile(path, p.Bytes(), 0o644); err != nil {
		tb.Fatalf("write fixture: %v", err)
	}
	return path
}
