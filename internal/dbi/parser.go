// Package dbi decodes the DBI (debug information) stream: the header that
// names the symbol streams and the module information substream.
package dbi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/skdltmxn/resym-go/internal/stream"
)

// HeaderSize is the size of the fixed DBI header.
const HeaderSize = 64

// Machine types stored in Header.Machine.
const (
	MachineUnknown uint16 = 0x0000
	MachineI386    uint16 = 0x014c
	MachineARM     uint16 = 0x01c0
	MachineARMNT   uint16 = 0x01c4
	MachineIA64    uint16 = 0x0200
	MachineAMD64   uint16 = 0x8664
	MachineARM64   uint16 = 0xaa64
)

// InvalidStreamIndex marks an absent stream.
const InvalidStreamIndex uint16 = 0xFFFF

var (
	ErrInvalidHeader = errors.New("dbi: invalid header")
	ErrTruncated     = errors.New("dbi: truncated stream")
)

// Header is the fixed DBI header.
type Header struct {
	VersionSignature        int32
	VersionHeader           uint32
	Age                     uint32
	GlobalStreamIndex       uint16
	BuildNumber             uint16
	PublicStreamIndex       uint16
	PDBDllVersion           uint16
	SymRecordStreamIndex    uint16
	PDBDllRbld              uint16
	ModInfoSize             uint32
	SectionContributionSize uint32
	SectionMapSize          uint32
	SourceInfoSize          uint32
	TypeServerMapSize       uint32
	MFCTypeServerIndex      uint32
	OptionalDbgHeaderSize   uint32
	ECSubstreamSize         uint32
	Flags                   uint16
	Machine                 uint16
	Padding                 uint32
}

// PointerSize returns the target's pointer width in bytes.
func (h *Header) PointerSize() int {
	switch h.Machine {
	case MachineAMD64, MachineARM64, MachineIA64:
		return 8
	default:
		return 4
	}
}

// MachineName returns a short architecture name.
func (h *Header) MachineName() string {
	switch h.Machine {
	case MachineI386:
		return "x86"
	case MachineAMD64:
		return "x64"
	case MachineARM, MachineARMNT:
		return "ARM"
	case MachineARM64:
		return "ARM64"
	case MachineIA64:
		return "IA64"
	default:
		return fmt.Sprintf("unknown (%#04x)", h.Machine)
	}
}

// ModuleInfo describes one compiland.
type ModuleInfo struct {
	Flags                uint16
	ModuleSymStreamIndex uint16
	SymByteSize          uint32
	C11ByteSize          uint32
	C13ByteSize          uint32
	SourceFileCount      uint16
	ModuleName           string
	ObjFileName          string
}

// Stream is a decoded DBI stream.
type Stream struct {
	Header  Header
	Modules []ModuleInfo
}

// ParseStream decodes the header and the module info substream. The
// remaining substreams are skipped.
func ParseStream(data []byte) (*Stream, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(data))
	}
	s := &Stream{}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &s.Header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if s.Header.VersionSignature != -1 {
		return nil, fmt.Errorf("%w: signature %d", ErrInvalidHeader, s.Header.VersionSignature)
	}

	end := uint64(HeaderSize) + uint64(s.Header.ModInfoSize)
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: module info needs %d bytes", ErrTruncated, s.Header.ModInfoSize)
	}
	mods, err := parseModules(data[HeaderSize:end])
	if err != nil {
		return nil, err
	}
	s.Modules = mods
	return s, nil
}

// moduleFixedSize covers everything in a module record before its names.
const moduleFixedSize = 64

func parseModules(data []byte) ([]ModuleInfo, error) {
	r := stream.NewReader(data)
	var mods []ModuleInfo
	for r.Remaining() >= moduleFixedSize {
		// Unused word and the 28-byte section contribution.
		if err := r.Skip(4 + 28); err != nil {
			return nil, err
		}
		var m ModuleInfo
		m.Flags, _ = r.ReadU16()
		m.ModuleSymStreamIndex, _ = r.ReadU16()
		m.SymByteSize, _ = r.ReadU32()
		m.C11ByteSize, _ = r.ReadU32()
		m.C13ByteSize, _ = r.ReadU32()
		m.SourceFileCount, _ = r.ReadU16()
		// Padding, unused, and two name indices.
		if err := r.Skip(2 + 4 + 4 + 4); err != nil {
			return nil, fmt.Errorf("%w: module %d", ErrTruncated, len(mods))
		}

		var err error
		if m.ModuleName, err = r.ReadCString(); err != nil {
			return nil, fmt.Errorf("%w: module %d name", ErrTruncated, len(mods))
		}
		if m.ObjFileName, err = r.ReadCString(); err != nil {
			return nil, fmt.Errorf("%w: module %d object name", ErrTruncated, len(mods))
		}
		r.Align(4)
		mods = append(mods, m)
	}
	return mods, nil
}
