// Package symbols decodes CodeView symbol records from the global symbol
// record stream and from per-module symbol streams.
package symbols

import (
	"github.com/skdltmxn/resym-go/internal/stream"
	"github.com/skdltmxn/resym-go/internal/tpi"
)

// Kind identifies a symbol record.
type Kind uint16

const (
	S_END         Kind = 0x0006
	S_CONSTANT_ST Kind = 0x1002
	S_UDT_ST      Kind = 0x1003
	S_OBJNAME     Kind = 0x1101
	S_CONSTANT    Kind = 0x1107
	S_UDT         Kind = 0x1108
	S_LDATA32     Kind = 0x110c
	S_GDATA32     Kind = 0x110d
	S_PUB32       Kind = 0x110e
	S_LPROC32     Kind = 0x110f
	S_GPROC32     Kind = 0x1110
	S_LTHREAD32   Kind = 0x1112
	S_GTHREAD32   Kind = 0x1113
	S_PROCREF     Kind = 0x1125
	S_DATAREF     Kind = 0x1126
	S_LPROCREF    Kind = 0x1127
	S_LPROC32_ID  Kind = 0x1146
	S_GPROC32_ID  Kind = 0x1147
)

// IsProc reports whether k is a procedure start record.
func (k Kind) IsProc() bool {
	switch k {
	case S_GPROC32, S_LPROC32, S_GPROC32_ID, S_LPROC32_ID:
		return true
	}
	return false
}

// IsData reports whether k is a global, static or thread-local data record.
func (k Kind) IsData() bool {
	switch k {
	case S_GDATA32, S_LDATA32, S_GTHREAD32, S_LTHREAD32:
		return true
	}
	return false
}

// IsLocal reports whether the symbol has internal linkage.
func (k Kind) IsLocal() bool {
	switch k {
	case S_LDATA32, S_LTHREAD32, S_LPROC32, S_LPROC32_ID:
		return true
	}
	return false
}

// IsThreadLocal reports whether the data symbol lives in TLS.
func (k Kind) IsThreadLocal() bool {
	return k == S_GTHREAD32 || k == S_LTHREAD32
}

// Record is one framed symbol record.
type Record struct {
	Kind   Kind
	Offset int
	Data   []byte
}

// ProcSym is S_GPROC32 and related procedure records.
type ProcSym struct {
	PtrParent    uint32
	PtrEnd       uint32
	PtrNext      uint32
	CodeSize     uint32
	FunctionType tpi.TypeIndex
	CodeOffset   uint32
	Segment      uint16
	Flags        uint8
	Name         string
}

// DataSym is S_GDATA32, S_LDATA32 and their thread-local forms.
type DataSym struct {
	Type    tpi.TypeIndex
	Offset  uint32
	Segment uint16
	Name    string
}

// UDTSym is S_UDT: a typedef or tag name bound to a type.
type UDTSym struct {
	Type tpi.TypeIndex
	Name string
}

// ConstantSym is S_CONSTANT.
type ConstantSym struct {
	Type  tpi.TypeIndex
	Value stream.Numeric
	Name  string
}

// PublicSym is S_PUB32.
type PublicSym struct {
	Flags   uint32
	Offset  uint32
	Segment uint16
	Name    string
}

// IsFunction reports whether the public symbol names a function.
func (p *PublicSym) IsFunction() bool { return p.Flags&0x02 != 0 }
